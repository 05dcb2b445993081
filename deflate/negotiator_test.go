// File: deflate/negotiator_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package deflate_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-mux/api"
	"github.com/momentics/hioload-mux/deflate"
	"github.com/momentics/hioload-mux/pipeline"
	"github.com/momentics/hioload-mux/protocol"
)

type captureTx struct {
	msgs chan any
	err  error
}

func (tx *captureTx) Transmit(msg any) error {
	tx.msgs <- msg
	return tx.err
}

type handshakeResult struct {
	response *protocol.UpgradeResponse
	stages   []string
	err      error
}

// runHandshake drives one upgrade round trip through a pipeline holding
// only the negotiator and returns the response plus the surviving stage
// list.
func runHandshake(t *testing.T, extHeader string, txErr error, opts ...deflate.Option) handshakeResult {
	t.Helper()

	tx := &captureTx{msgs: make(chan any, 1), err: txErr}
	errs := make(chan error, 1)

	var p *pipeline.Pipeline
	handler := api.HandlerFunc(func(msg any) error {
		req, ok := protocol.IsUpgradeRequest(msg)
		if !ok {
			return nil
		}
		resp, err := protocol.UpgradeToWebSocket(req.Request)
		if err != nil {
			return err
		}
		p.Write(resp)
		return nil
	})

	negotiator, err := deflate.NewNegotiator(zerolog.Nop(), opts...)
	require.NoError(t, err)

	p = pipeline.NewPipeline(tx,
		pipeline.WithHandler(handler),
		pipeline.WithErrorHandler(func(err error) { errs <- err }))
	require.NoError(t, p.AddLast(deflate.StageNegotiator, negotiator))

	req, err := http.NewRequest(http.MethodGet, "http://example.com/ws", nil)
	require.NoError(t, err)
	req.Header.Set("Connection", "Upgrade")
	req.Header.Set("Upgrade", "websocket")
	req.Header.Set("Sec-WebSocket-Version", "13")
	req.Header.Set("Sec-WebSocket-Key", "dGhlIHNhbXBsZSBub25jZQ==")
	if extHeader != "" {
		req.Header.Set(protocol.HeaderSecWebSocketExt, extHeader)
	}
	p.FireInbound(&protocol.UpgradeRequest{Request: req})

	var res handshakeResult
	select {
	case msg := <-tx.msgs:
		resp, ok := protocol.IsUpgradeResponse(msg)
		require.True(t, ok)
		res.response = resp
	case err := <-errs:
		res.err = err
	case <-time.After(2 * time.Second):
		t.Fatal("handshake never completed")
	}

	require.NoError(t, p.Close())
	res.stages = p.Names()
	return res
}

func TestNegotiationPlainOffer(t *testing.T) {
	res := runHandshake(t, "permessage-deflate", nil)
	require.NoError(t, res.err)
	// No parameter differs from its default, so the token is bare.
	assert.Equal(t, "permessage-deflate",
		res.response.Header.Get(protocol.HeaderSecWebSocketExt))
	assert.Equal(t, []string{deflate.StageDecoder, deflate.StageEncoder}, res.stages)
}

func TestNegotiationNoOffer(t *testing.T) {
	res := runHandshake(t, "", nil)
	require.NoError(t, res.err)
	assert.Empty(t, res.response.Header.Get(protocol.HeaderSecWebSocketExt))
	// The negotiator is gone and nothing was installed.
	assert.Empty(t, res.stages)
}

func TestNegotiationServerBitsDisallowed(t *testing.T) {
	res := runHandshake(t, "permessage-deflate; server_max_window_bits=10", nil)
	require.NoError(t, res.err)
	assert.Empty(t, res.response.Header.Get(protocol.HeaderSecWebSocketExt))
	assert.Empty(t, res.stages)
}

func TestNegotiationServerBitsAllowed(t *testing.T) {
	res := runHandshake(t, "permessage-deflate; server_max_window_bits=10", nil,
		deflate.WithServerWindowBitsAllowed())
	require.NoError(t, res.err)
	assert.Equal(t, "permessage-deflate; server_max_window_bits=10",
		res.response.Header.Get(protocol.HeaderSecWebSocketExt))
	assert.Equal(t, []string{deflate.StageDecoder, deflate.StageEncoder}, res.stages)
}

func TestNegotiationServerBitsOutOfRangeFatal(t *testing.T) {
	res := runHandshake(t, "permessage-deflate; server_max_window_bits=8", nil,
		deflate.WithServerWindowBitsAllowed())
	require.Error(t, res.err)
	assert.Equal(t, api.ErrCodeNegotiation, api.CodeOf(res.err))
}

func TestNegotiationShortCircuitOnUnsupportedParam(t *testing.T) {
	// server_no_context_takeover disables the extension before
	// client_max_window_bits is examined; no window parameter may leak
	// into the response.
	res := runHandshake(t,
		"permessage-deflate; server_no_context_takeover; client_max_window_bits", nil,
		deflate.WithPreferredClientWindowBits(12))
	require.NoError(t, res.err)
	assert.Empty(t, res.response.Header.Get(protocol.HeaderSecWebSocketExt))
	assert.Empty(t, res.stages)
}

func TestNegotiationClientBitsEchoed(t *testing.T) {
	res := runHandshake(t, "permessage-deflate; client_max_window_bits", nil,
		deflate.WithPreferredClientWindowBits(12))
	require.NoError(t, res.err)
	assert.Equal(t, "permessage-deflate; client_max_window_bits=12",
		res.response.Header.Get(protocol.HeaderSecWebSocketExt))
	assert.Equal(t, []string{deflate.StageDecoder, deflate.StageEncoder}, res.stages)
}

func TestNegotiationClientBitsDefaultNotEchoed(t *testing.T) {
	res := runHandshake(t, "permessage-deflate; client_max_window_bits", nil)
	require.NoError(t, res.err)
	assert.Equal(t, "permessage-deflate",
		res.response.Header.Get(protocol.HeaderSecWebSocketExt))
}

func TestNegotiationUnknownParamDisables(t *testing.T) {
	res := runHandshake(t, "permessage-deflate; mystery_param=1", nil)
	require.NoError(t, res.err)
	assert.Empty(t, res.response.Header.Get(protocol.HeaderSecWebSocketExt))
	assert.Empty(t, res.stages)
}

func TestNegotiationClientNoContextTakeoverAccepted(t *testing.T) {
	res := runHandshake(t, "permessage-deflate; client_no_context_takeover", nil)
	require.NoError(t, res.err)
	assert.Equal(t, "permessage-deflate",
		res.response.Header.Get(protocol.HeaderSecWebSocketExt))
	assert.Equal(t, []string{deflate.StageDecoder, deflate.StageEncoder}, res.stages)
}

func TestNegotiationFailedWriteSkipsInstall(t *testing.T) {
	res := runHandshake(t, "permessage-deflate", assertableError("socket torn down"))
	require.NoError(t, res.err)
	// The response hit the transmitter and failed; nothing gets
	// installed, and the negotiator still leaves.
	assert.Empty(t, res.stages)
}

func TestConfigValidation(t *testing.T) {
	_, err := deflate.NewNegotiator(zerolog.Nop(), deflate.WithCompressionLevel(11))
	require.Error(t, err)
	assert.Equal(t, api.ErrCodeConfiguration, api.CodeOf(err))

	_, err = deflate.NewNegotiator(zerolog.Nop(), deflate.WithPreferredClientWindowBits(8))
	require.Error(t, err)
	assert.Equal(t, api.ErrCodeConfiguration, api.CodeOf(err))
}

type assertableError string

func (e assertableError) Error() string { return string(e) }
