// File: protocol/frame_codec.go
// Package protocol implements the WebSocket frame codec with payload
// size enforcement.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package protocol

import (
	"encoding/binary"
	"errors"
)

// MaxFramePayload defines the maximum allowed payload size for a single frame.
const MaxFramePayload = 1 << 20 // 1 MiB

var (
	// ErrFrameTooLarge is returned when a frame payload exceeds MaxFramePayload.
	ErrFrameTooLarge = errors.New("protocol: frame payload exceeds maximum allowed size")
	// ErrReservedBits is returned when RSV2 or RSV3 is set.
	ErrReservedBits = errors.New("protocol: reserved bits RSV2/RSV3 set")
)

// DecodeFrameFromBytes parses a raw WebSocket frame into a WSFrame.
// Returns the frame, the number of bytes consumed, and an error.
// If the frame is incomplete, returns (nil, 0, nil).
func DecodeFrameFromBytes(raw []byte) (*WSFrame, int, error) {
	if len(raw) < 2 {
		return nil, 0, nil // Incomplete
	}
	fin := raw[0]&FinBit != 0
	rsv1 := raw[0]&Rsv1Bit != 0
	if raw[0]&(Rsv2Bit|Rsv3Bit) != 0 {
		return nil, 0, ErrReservedBits
	}
	opcode := raw[0] & 0x0F
	masked := raw[1]&MaskBit != 0
	length := int64(raw[1] & 0x7F)
	offset := 2

	switch length {
	case 126:
		if len(raw) < offset+2 {
			return nil, 0, nil // Incomplete
		}
		length = int64(binary.BigEndian.Uint16(raw[offset:]))
		offset += 2
	case 127:
		if len(raw) < offset+8 {
			return nil, 0, nil // Incomplete
		}
		length = int64(binary.BigEndian.Uint64(raw[offset:]))
		offset += 8
	}

	if length > MaxFramePayload {
		return nil, 0, ErrFrameTooLarge
	}

	var maskKey [4]byte
	if masked {
		if len(raw) < offset+4 {
			return nil, 0, nil // Incomplete
		}
		copy(maskKey[:], raw[offset:offset+4])
		offset += 4
	}

	totalLen := offset + int(length)
	if len(raw) < totalLen {
		return nil, 0, nil // Incomplete
	}

	payloadData := raw[offset:totalLen]
	payload := make([]byte, length)
	if masked {
		for i := int64(0); i < length; i++ {
			payload[i] = payloadData[i] ^ maskKey[i%4]
		}
	} else {
		copy(payload, payloadData)
	}

	return &WSFrame{
		IsFinal:    fin,
		Rsv1:       rsv1,
		Opcode:     opcode,
		Masked:     masked,
		PayloadLen: length,
		MaskKey:    maskKey,
		Payload:    payload,
	}, totalLen, nil
}

// EncodeFrameToBytes serializes a WSFrame into a fresh byte slice.
func EncodeFrameToBytes(f *WSFrame) ([]byte, error) {
	return EncodeFrameToBuffer(f, nil)
}

// EncodeFrameToBuffer serializes a WSFrame into a caller-managed buffer,
// minimizing allocations. The returned slice aliases dst. Frames are
// written unmasked (server side).
func EncodeFrameToBuffer(f *WSFrame, dst []byte) ([]byte, error) {
	if f.PayloadLen > MaxFramePayload {
		return nil, ErrFrameTooLarge
	}

	var b0 byte
	if f.IsFinal {
		b0 = FinBit
	}
	if f.Rsv1 {
		b0 |= Rsv1Bit
	}
	b0 |= f.Opcode & 0x0F

	plen := int(f.PayloadLen)
	var hdr [10]byte
	var header []byte

	switch {
	case plen <= 125:
		header = hdr[:2]
		header[0] = b0
		header[1] = byte(plen)
	case plen <= 0xFFFF:
		header = hdr[:4]
		header[0] = b0
		header[1] = 126
		binary.BigEndian.PutUint16(header[2:], uint16(plen))
	default:
		header = hdr[:10]
		header[0] = b0
		header[1] = 127
		binary.BigEndian.PutUint64(header[2:], uint64(plen))
	}

	dst = append(dst[:0], header...)
	dst = append(dst, f.Payload...)
	return dst, nil
}
