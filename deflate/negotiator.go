// File: deflate/negotiator.go
// Package deflate
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Handshake-time negotiator stage. It inspects the client's
// Sec-WebSocket-Extensions offer on the inbound pass, decides whether
// compression is possible, appends the response token on the outbound
// pass, and once the response write settles installs the decoder and
// encoder stages after its own position before removing itself. All of
// this runs on the connection sequence so the pipeline never changes
// shape under a message in flight.

package deflate

import (
	"fmt"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/momentics/hioload-mux/api"
	"github.com/momentics/hioload-mux/pipeline"
	"github.com/momentics/hioload-mux/protocol"
)

// Stage names registered by the negotiator.
const (
	StageNegotiator = "permessage-deflate-negotiator"
	StageDecoder    = "permessage-deflate-decoder"
	StageEncoder    = "permessage-deflate-encoder"
)

type negotiatorState int

const (
	stateIdle negotiatorState = iota
	stateDecided
	stateRemoved
)

// Negotiator is a one-shot handshake stage. Add it to the pipeline
// before the application handler; it removes itself after the first
// upgrade round trip.
type Negotiator struct {
	cfg   Config
	log   zerolog.Logger
	state negotiatorState

	enabled          bool
	serverWindowBits int
	clientWindowBits int
	echoClientBits   bool
}

// NewNegotiator builds a handshake negotiator with the given options.
func NewNegotiator(log zerolog.Logger, opts ...Option) (*Negotiator, error) {
	cfg, err := newConfig(opts...)
	if err != nil {
		return nil, err
	}
	return &Negotiator{
		cfg:              cfg,
		log:              log,
		serverWindowBits: DefaultWindowBits,
		clientWindowBits: DefaultWindowBits,
	}, nil
}

// OnInbound inspects upgrade requests; everything else passes through.
func (n *Negotiator) OnInbound(ctx *pipeline.Context, msg any) error {
	req, ok := protocol.IsUpgradeRequest(msg)
	if !ok || n.state != stateIdle {
		ctx.ForwardInbound(msg)
		return nil
	}
	if err := n.decide(req); err != nil {
		return err
	}
	n.state = stateDecided
	ctx.ForwardInbound(msg)
	return nil
}

// decide walks the client's offers in declaration order. The first
// permessage-deflate offer is examined parameter by parameter; any
// parameter this endpoint cannot honor downgrades the connection to
// uncompressed, except a malformed or out-of-range
// server_max_window_bits on an endpoint that allows the customization,
// which fails the handshake.
func (n *Negotiator) decide(req *protocol.UpgradeRequest) error {
	header := req.Request.Header.Get(protocol.HeaderSecWebSocketExt)
	if header == "" {
		return nil
	}
	for _, offer := range protocol.ParseExtensions(header) {
		if offer.Name != ExtensionName {
			continue
		}
		n.enabled = true
		for i := 0; n.enabled && i < len(offer.Params); i++ {
			param := offer.Params[i]
			switch param.Key {
			case ParamClientMaxWindowBits:
				n.clientWindowBits = n.cfg.PreferredClientWindowBits
				n.echoClientBits = n.cfg.PreferredClientWindowBits != DefaultWindowBits
			case ParamServerMaxWindowBits:
				if !n.cfg.AllowServerWindowBits {
					n.enabled = false
					break
				}
				bits, err := strconv.Atoi(param.Value)
				if err != nil || bits < MinWindowBits || bits > MaxWindowBits {
					return api.NewError(api.ErrCodeNegotiation,
						fmt.Sprintf("invalid server_max_window_bits %q", param.Value), nil)
				}
				n.serverWindowBits = bits
			case ParamClientNoContextTakeover:
				// Accepted without echo; the decoder always keeps
				// per-message state only.
			case ParamServerNoContextTakeover:
				n.enabled = false
			default:
				n.log.Debug().Str("param", param.Key).Msg("unknown permessage-deflate parameter")
				n.enabled = false
			}
		}
		break
	}
	return nil
}

// OnOutbound appends the response token to upgrade responses and
// schedules installation plus self-removal for when the write settles.
func (n *Negotiator) OnOutbound(ctx *pipeline.Context, msg any, pr *pipeline.Promise) error {
	resp, ok := protocol.IsUpgradeResponse(msg)
	if !ok || n.state != stateDecided {
		ctx.ForwardOutbound(msg, pr)
		return nil
	}
	if n.enabled {
		ext := protocol.Extension{Name: ExtensionName}
		if n.serverWindowBits != DefaultWindowBits {
			ext.Params = append(ext.Params, protocol.ExtensionParam{
				Key:   ParamServerMaxWindowBits,
				Value: strconv.Itoa(n.serverWindowBits),
			})
		}
		if n.echoClientBits {
			ext.Params = append(ext.Params, protocol.ExtensionParam{
				Key:   ParamClientMaxWindowBits,
				Value: strconv.Itoa(n.clientWindowBits),
			})
		}
		prev := resp.Header.Get(protocol.HeaderSecWebSocketExt)
		resp.Header.Set(protocol.HeaderSecWebSocketExt, protocol.AppendExtension(prev, ext))
	}
	pr.OnComplete(func(err error) {
		n.finish(ctx, err)
	})
	ctx.ForwardOutbound(msg, pr)
	return nil
}

// finish runs on the connection sequence after the response write. The
// compression stages are installed only for an enabled negotiation
// whose response actually reached the wire; the negotiator leaves the
// pipeline in every case.
func (n *Negotiator) finish(ctx *pipeline.Context, writeErr error) {
	if n.state == stateRemoved {
		return
	}
	n.state = stateRemoved
	if n.enabled && writeErr == nil {
		if err := n.install(ctx); err != nil {
			n.log.Error().Err(err).Msg("installing permessage-deflate stages")
		} else {
			n.log.Info().
				Int("server_window_bits", n.serverWindowBits).
				Int("client_window_bits", n.clientWindowBits).
				Msg("permessage-deflate enabled")
		}
	}
	if err := ctx.Remove(ctx.Name()); err != nil {
		n.log.Error().Err(err).Msg("removing negotiator stage")
	}
}

func (n *Negotiator) install(ctx *pipeline.Context) error {
	dec := NewDecoder()
	enc, err := NewEncoder(n.cfg.CompressionLevel)
	if err != nil {
		return err
	}
	if err := ctx.InsertAfter(ctx.Name(), StageDecoder, dec); err != nil {
		return err
	}
	return ctx.InsertAfter(StageDecoder, StageEncoder, enc)
}
