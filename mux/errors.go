// File: mux/errors.go
// Package mux
// Author: momentics <momentics@gmail.com>
//
// Framing error classification. All framing errors are connection-fatal:
// once Feed returns a non-nil error the reader refuses further input and
// the caller is expected to tear the connection down.

package mux

import "errors"

var (
	ErrFrameTooLarge          = errors.New("mux: frame length exceeds maximum frame size")
	ErrTruncated              = errors.New("mux: byte stream truncated mid-frame")
	ErrBadPadding             = errors.New("mux: pad length exceeds frame payload")
	ErrBadFrameLength         = errors.New("mux: frame length does not match type layout")
	ErrHeaderInterleave       = errors.New("mux: frame interleaved into open header block")
	ErrUnexpectedContinuation = errors.New("mux: continuation without open header block")
	ErrBadHeaderBlock         = errors.New("mux: malformed header block fragment")
	ErrBadStreamID            = errors.New("mux: stream id not valid for frame type")
	ErrReaderFailed           = errors.New("mux: reader halted by previous framing error")

	// ErrFieldOutOfRange is returned by the writer before any bytes are
	// emitted when a caller-supplied field does not fit its wire width.
	ErrFieldOutOfRange = errors.New("mux: field outside valid range")
)
