// File: protocol/frame.go
// Package protocol
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package protocol

import "encoding/binary"

// WSFrame is a single parsed WebSocket frame. Rsv1 carries the
// per-message compression bit; Rsv2 and Rsv3 are always rejected by
// the decoder.
type WSFrame struct {
	IsFinal    bool
	Rsv1       bool
	Opcode     byte
	Masked     bool
	PayloadLen int64
	MaskKey    [4]byte
	Payload    []byte
}

// NewTextFrame builds an unmasked final text frame over payload.
func NewTextFrame(payload []byte) *WSFrame {
	return &WSFrame{
		IsFinal:    true,
		Opcode:     OpcodeText,
		PayloadLen: int64(len(payload)),
		Payload:    payload,
	}
}

// NewBinaryFrame builds an unmasked final binary frame over payload.
func NewBinaryFrame(payload []byte) *WSFrame {
	return &WSFrame{
		IsFinal:    true,
		Opcode:     OpcodeBinary,
		PayloadLen: int64(len(payload)),
		Payload:    payload,
	}
}

// NewCloseFrame builds a close frame carrying a status code and an
// optional UTF-8 reason.
func NewCloseFrame(code uint16, reason string) *WSFrame {
	payload := make([]byte, 2+len(reason))
	binary.BigEndian.PutUint16(payload, code)
	copy(payload[2:], reason)
	return &WSFrame{
		IsFinal:    true,
		Opcode:     OpcodeClose,
		PayloadLen: int64(len(payload)),
		Payload:    payload,
	}
}

// ClosePayload extracts the status code and reason from a close frame
// payload. An empty payload maps to CloseNormal per the protocol's
// default.
func ClosePayload(payload []byte) (code uint16, reason string) {
	if len(payload) < 2 {
		return CloseNormal, ""
	}
	return binary.BigEndian.Uint16(payload[:2]), string(payload[2:])
}

// IsMessageStart reports whether the frame begins a data message.
func (f *WSFrame) IsMessageStart() bool {
	return f.Opcode == OpcodeText || f.Opcode == OpcodeBinary
}

// IsControl reports whether the frame is a control frame.
func (f *WSFrame) IsControl() bool {
	return IsControlOpcode(f.Opcode)
}
