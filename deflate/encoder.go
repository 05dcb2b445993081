// File: deflate/encoder.go
// Package deflate
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package deflate

import (
	"github.com/momentics/hioload-mux/pipeline"
	"github.com/momentics/hioload-mux/protocol"
)

// Encoder compresses outbound data frames. A message started as
// compressed has all of its continuation frames compressed; the RSV1
// bit is set only on the frame that starts the message. Frames already
// carrying RSV1 and control frames pass through untouched.
type Encoder struct {
	d           *deflater
	compressing bool
}

// NewEncoder builds an outbound compression stage.
func NewEncoder(level int) (*Encoder, error) {
	d, err := newDeflater(level)
	if err != nil {
		return nil, err
	}
	return &Encoder{d: d}, nil
}

// OnOutbound implements pipeline.OutboundStage.
func (e *Encoder) OnOutbound(ctx *pipeline.Context, msg any, pr *pipeline.Promise) error {
	frame, ok := msg.(*protocol.WSFrame)
	if !ok || !e.eligible(frame) {
		ctx.ForwardOutbound(msg, pr)
		return nil
	}

	compressed, err := e.d.compress(frame.Payload, frame.IsFinal)
	if err != nil {
		// The pipeline settles the promise with this error.
		return err
	}

	out := &protocol.WSFrame{
		IsFinal:    frame.IsFinal,
		Rsv1:       frame.IsMessageStart(),
		Opcode:     frame.Opcode,
		PayloadLen: int64(len(compressed)),
		Payload:    compressed,
	}

	if frame.IsFinal {
		e.compressing = false
	} else if frame.IsMessageStart() {
		e.compressing = true
	}

	ctx.ForwardOutbound(out, pr)
	return nil
}

// eligible reports whether the frame should be compressed: a data frame
// starting a message that is not already compressed, or a continuation
// of a message this encoder started compressing.
func (e *Encoder) eligible(f *protocol.WSFrame) bool {
	if f.IsMessageStart() && !f.Rsv1 {
		return true
	}
	return f.Opcode == protocol.OpcodeContinuation && e.compressing
}
