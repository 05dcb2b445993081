// File: mux/constants.go
// Package mux
// Author: momentics <momentics@gmail.com>
//
// Wire protocol constants for the multiplexed binary frame layer.

package mux

import "fmt"

// FrameType identifies the kind of a frame.
type FrameType uint8

const (
	FrameData         FrameType = 0x0
	FrameHeaders      FrameType = 0x1
	FramePriority     FrameType = 0x2
	FrameRstStream    FrameType = 0x3
	FrameSettings     FrameType = 0x4
	FramePushPromise  FrameType = 0x5
	FramePing         FrameType = 0x6
	FrameGoAway       FrameType = 0x7
	FrameWindowUpdate FrameType = 0x8
	FrameContinuation FrameType = 0x9
	FrameAltSvc       FrameType = 0xA
	FrameBlocked      FrameType = 0xB
)

func (t FrameType) String() string {
	switch t {
	case FrameData:
		return "DATA"
	case FrameHeaders:
		return "HEADERS"
	case FramePriority:
		return "PRIORITY"
	case FrameRstStream:
		return "RST_STREAM"
	case FrameSettings:
		return "SETTINGS"
	case FramePushPromise:
		return "PUSH_PROMISE"
	case FramePing:
		return "PING"
	case FrameGoAway:
		return "GOAWAY"
	case FrameWindowUpdate:
		return "WINDOW_UPDATE"
	case FrameContinuation:
		return "CONTINUATION"
	case FrameAltSvc:
		return "ALTSVC"
	case FrameBlocked:
		return "BLOCKED"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", uint8(t))
	}
}

// Flags carries the 8 flag bits of a frame header. Bit meaning depends on
// the frame type.
type Flags uint8

const (
	// DATA frame flags.
	FlagEndStream  Flags = 0x1
	FlagEndSegment Flags = 0x2
	FlagPadded     Flags = 0x8
	FlagCompressed Flags = 0x20

	// HEADERS / PUSH_PROMISE / CONTINUATION flags. FlagEndStream and
	// FlagPadded are shared with DATA.
	FlagEndHeaders Flags = 0x4
	FlagPriority   Flags = 0x20

	// SETTINGS / PING flags.
	FlagAck Flags = 0x1
)

// Has reports whether all bits of f2 are set in f.
func (f Flags) Has(f2 Flags) bool { return f&f2 == f2 }

// ErrorCode is the 32-bit code carried by RST_STREAM and GOAWAY frames.
type ErrorCode uint32

const (
	ErrCodeNoError            ErrorCode = 0x0
	ErrCodeProtocol           ErrorCode = 0x1
	ErrCodeInternal           ErrorCode = 0x2
	ErrCodeFlowControl        ErrorCode = 0x3
	ErrCodeSettingsTimeout    ErrorCode = 0x4
	ErrCodeStreamClosed       ErrorCode = 0x5
	ErrCodeFrameSize          ErrorCode = 0x6
	ErrCodeRefusedStream      ErrorCode = 0x7
	ErrCodeCancel             ErrorCode = 0x8
	ErrCodeCompressionFailure ErrorCode = 0x9
	ErrCodeConnect            ErrorCode = 0xA
	ErrCodeEnhanceYourCalm    ErrorCode = 0xB
)

const (
	// FrameHeaderLen is the fixed length of the common frame header.
	FrameHeaderLen = 9

	// DefaultMaxFrameSize is the payload size limit applied until the peer
	// negotiates another one.
	DefaultMaxFrameSize uint32 = 1 << 14

	// MaxAllowedFrameSize is the largest payload length expressible in the
	// 24-bit length field.
	MaxAllowedFrameSize uint32 = 1<<24 - 1

	// MaxStreamID is the largest valid 31-bit stream identifier.
	MaxStreamID uint32 = 1<<31 - 1

	// MaxPadding is the largest padding expressible in the 1-byte pad
	// length field.
	MaxPadding = 255

	// MinWeight and MaxWeight bound the effective priority weight. The wire
	// carries weight-1 in a single byte, so zero never appears on the wire.
	MinWeight = 1
	MaxWeight = 256
)
