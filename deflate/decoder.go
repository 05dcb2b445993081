// File: deflate/decoder.go
// Package deflate
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package deflate

import (
	"github.com/momentics/hioload-mux/api"
	"github.com/momentics/hioload-mux/pipeline"
	"github.com/momentics/hioload-mux/protocol"
)

// Decoder decompresses inbound data frames carrying RSV1. Fragments of
// a compressed message accumulate until the final frame, then the whole
// message inflates at once and flows upward as a single final frame
// with RSV1 cleared. Control frames and uncompressed messages pass
// through untouched.
type Decoder struct {
	inf           *inflater
	decompressing bool
	opcode        byte
	acc           []byte
}

// NewDecoder builds an inbound decompression stage.
func NewDecoder() *Decoder {
	return &Decoder{inf: newInflater()}
}

// OnInbound implements pipeline.InboundStage.
func (d *Decoder) OnInbound(ctx *pipeline.Context, msg any) error {
	frame, ok := msg.(*protocol.WSFrame)
	if !ok || frame.IsControl() {
		ctx.ForwardInbound(msg)
		return nil
	}

	switch {
	case frame.IsMessageStart() && frame.Rsv1:
		if d.decompressing {
			return api.NewError(api.ErrCodeFraming,
				"compressed message started before previous one finished", nil)
		}
		d.decompressing = true
		d.opcode = frame.Opcode
		d.acc = append(d.acc[:0], frame.Payload...)
	case frame.Opcode == protocol.OpcodeContinuation && d.decompressing:
		if frame.Rsv1 {
			return api.NewError(api.ErrCodeFraming,
				"RSV1 set on continuation frame", nil)
		}
		d.acc = append(d.acc, frame.Payload...)
	default:
		ctx.ForwardInbound(msg)
		return nil
	}

	if !frame.IsFinal {
		return nil
	}

	payload, err := d.inf.decompress(d.acc)
	if err != nil {
		d.reset()
		return err
	}
	opcode := d.opcode
	d.reset()
	ctx.ForwardInbound(&protocol.WSFrame{
		IsFinal:    true,
		Opcode:     opcode,
		Masked:     frame.Masked,
		PayloadLen: int64(len(payload)),
		MaskKey:    frame.MaskKey,
		Payload:    payload,
	})
	return nil
}

func (d *Decoder) reset() {
	d.decompressing = false
	d.opcode = 0
	d.acc = d.acc[:0]
}
