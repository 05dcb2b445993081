// File: mux/reader.go
// Package mux
// Author: momentics <momentics@gmail.com>
//
// Streaming frame decoder. Feed accepts arbitrarily fragmented input,
// buffers any incomplete tail across calls, and dispatches every complete
// frame to a FrameListener in arrival order. Framing errors are fatal: the
// reader latches the failure and rejects further input.

package mux

import (
	"encoding/binary"
	"fmt"
)

// headerAssembly tracks a header block opened by a HEADERS or PUSH_PROMISE
// frame that did not carry the end-of-headers flag.
type headerAssembly struct {
	streamID    uint32
	promised    uint32
	pushPromise bool
	endStream   bool
	prio        *Priority
	padding     int
	block       []byte
}

// Reader decodes the multiplexed frame stream.
type Reader struct {
	buf    []byte
	maxLen uint32
	asm    *headerAssembly
	failed bool
}

// ReaderOption customizes Reader construction.
type ReaderOption func(*Reader)

// WithMaxFrameSize overrides the payload size limit enforced on inbound
// frames. Values outside the expressible range are clamped.
func WithMaxFrameSize(n uint32) ReaderOption {
	return func(r *Reader) {
		if n > MaxAllowedFrameSize {
			n = MaxAllowedFrameSize
		}
		if n > 0 {
			r.maxLen = n
		}
	}
}

// NewReader returns a Reader with the default frame size limit.
func NewReader(opts ...ReaderOption) *Reader {
	r := &Reader{maxLen: DefaultMaxFrameSize}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Feed consumes data, dispatching every complete frame to fl. Incomplete
// trailing bytes are retained for the next call. The first non-nil return
// permanently fails the reader.
func (r *Reader) Feed(data []byte, fl FrameListener) error {
	if r.failed {
		return ErrReaderFailed
	}
	r.buf = append(r.buf, data...)

	off := 0
	for len(r.buf)-off >= FrameHeaderLen {
		hdr := r.buf[off:]
		length := uint32(hdr[0])<<16 | uint32(hdr[1])<<8 | uint32(hdr[2])
		typ := FrameType(hdr[3])
		flags := Flags(hdr[4])
		streamID := binary.BigEndian.Uint32(hdr[5:9]) & MaxStreamID

		if length > r.maxLen {
			r.failed = true
			return fmt.Errorf("%w: %d > %d", ErrFrameTooLarge, length, r.maxLen)
		}
		total := FrameHeaderLen + int(length)
		if len(r.buf)-off < total {
			break
		}
		payload := r.buf[off+FrameHeaderLen : off+total]
		if err := r.dispatch(typ, flags, streamID, payload, fl); err != nil {
			r.failed = true
			return err
		}
		off += total
	}

	r.buf = append(r.buf[:0], r.buf[off:]...)
	return nil
}

// Close signals end of the byte stream. A partially buffered frame or an
// open header block at this point is a framing error.
func (r *Reader) Close() error {
	if r.failed {
		return ErrReaderFailed
	}
	if len(r.buf) > 0 || r.asm != nil {
		r.failed = true
		return ErrTruncated
	}
	return nil
}

func (r *Reader) dispatch(typ FrameType, flags Flags, streamID uint32, p []byte, fl FrameListener) error {
	if r.asm != nil {
		if typ != FrameContinuation || streamID != r.asm.streamID {
			return fmt.Errorf("%w: got %s on stream %d while stream %d block is open",
				ErrHeaderInterleave, typ, streamID, r.asm.streamID)
		}
		return r.continueHeaders(flags, p, fl)
	}

	switch typ {
	case FrameData:
		return r.onData(flags, streamID, p, fl)
	case FrameHeaders:
		return r.onHeaders(flags, streamID, p, fl)
	case FramePriority:
		return r.onPriority(streamID, p, fl)
	case FrameRstStream:
		return r.onRstStream(streamID, p, fl)
	case FrameSettings:
		return r.onSettings(flags, streamID, p, fl)
	case FramePushPromise:
		return r.onPushPromise(flags, streamID, p, fl)
	case FramePing:
		return r.onPing(flags, p, fl)
	case FrameGoAway:
		return r.onGoAway(p, fl)
	case FrameWindowUpdate:
		return r.onWindowUpdate(streamID, p, fl)
	case FrameContinuation:
		return fmt.Errorf("%w: stream %d", ErrUnexpectedContinuation, streamID)
	case FrameAltSvc:
		return r.onAltSvc(streamID, p, fl)
	case FrameBlocked:
		return r.onBlocked(streamID, p, fl)
	default:
		// Unknown frame types are skipped, not errors.
		return nil
	}
}

// splitPadding strips the pad length octet and trailing padding when the
// padded flag is set, returning the remaining payload and the pad count.
func splitPadding(flags Flags, p []byte) ([]byte, int, error) {
	if !flags.Has(FlagPadded) {
		return p, 0, nil
	}
	if len(p) < 1 {
		return nil, 0, fmt.Errorf("%w: padded frame without pad length", ErrBadFrameLength)
	}
	pad := int(p[0])
	p = p[1:]
	if pad > len(p) {
		return nil, 0, fmt.Errorf("%w: pad %d, payload %d", ErrBadPadding, pad, len(p))
	}
	return p[:len(p)-pad], pad, nil
}

func (r *Reader) onData(flags Flags, streamID uint32, p []byte, fl FrameListener) error {
	if streamID == 0 {
		return fmt.Errorf("%w: DATA on stream 0", ErrBadStreamID)
	}
	data, pad, err := splitPadding(flags, p)
	if err != nil {
		return err
	}
	return fl.OnData(streamID, data, pad,
		flags.Has(FlagEndStream), flags.Has(FlagEndSegment), flags.Has(FlagCompressed))
}

func (r *Reader) onHeaders(flags Flags, streamID uint32, p []byte, fl FrameListener) error {
	if streamID == 0 {
		return fmt.Errorf("%w: HEADERS on stream 0", ErrBadStreamID)
	}
	rest, pad, err := splitPadding(flags, p)
	if err != nil {
		return err
	}
	var prio *Priority
	if flags.Has(FlagPriority) {
		if len(rest) < 5 {
			return fmt.Errorf("%w: HEADERS priority block truncated", ErrBadFrameLength)
		}
		depWord := binary.BigEndian.Uint32(rest[0:4])
		prio = &Priority{
			StreamDependency: depWord & MaxStreamID,
			Weight:           int(rest[4]) + 1,
			Exclusive:        depWord>>31 == 1,
		}
		rest = rest[5:]
	}
	asm := &headerAssembly{
		streamID:  streamID,
		endStream: flags.Has(FlagEndStream),
		prio:      prio,
		padding:   pad,
		block:     append([]byte(nil), rest...),
	}
	if !flags.Has(FlagEndHeaders) {
		r.asm = asm
		return nil
	}
	return finishHeaders(asm, fl)
}

func (r *Reader) continueHeaders(flags Flags, p []byte, fl FrameListener) error {
	r.asm.block = append(r.asm.block, p...)
	if !flags.Has(FlagEndHeaders) {
		return nil
	}
	asm := r.asm
	r.asm = nil
	return finishHeaders(asm, fl)
}

func finishHeaders(asm *headerAssembly, fl FrameListener) error {
	headers, err := decodeHeaderBlock(asm.block)
	if err != nil {
		return err
	}
	if asm.pushPromise {
		return fl.OnPushPromise(asm.streamID, asm.promised, headers, asm.padding)
	}
	return fl.OnHeaders(asm.streamID, headers, asm.prio, asm.padding, asm.endStream)
}

func (r *Reader) onPriority(streamID uint32, p []byte, fl FrameListener) error {
	if len(p) != 5 {
		return fmt.Errorf("%w: PRIORITY payload %d bytes", ErrBadFrameLength, len(p))
	}
	depWord := binary.BigEndian.Uint32(p[0:4])
	return fl.OnPriority(streamID, Priority{
		StreamDependency: depWord & MaxStreamID,
		Weight:           int(p[4]) + 1,
		Exclusive:        depWord>>31 == 1,
	})
}

func (r *Reader) onRstStream(streamID uint32, p []byte, fl FrameListener) error {
	if len(p) != 4 {
		return fmt.Errorf("%w: RST_STREAM payload %d bytes", ErrBadFrameLength, len(p))
	}
	return fl.OnRstStream(streamID, ErrorCode(binary.BigEndian.Uint32(p)))
}

func (r *Reader) onSettings(flags Flags, streamID uint32, p []byte, fl FrameListener) error {
	if streamID != 0 {
		return fmt.Errorf("%w: SETTINGS on stream %d", ErrBadStreamID, streamID)
	}
	if flags.Has(FlagAck) {
		if len(p) != 0 {
			return fmt.Errorf("%w: SETTINGS ack with payload", ErrBadFrameLength)
		}
		return fl.OnSettingsAck()
	}
	if len(p)%settingEntryLen != 0 {
		return fmt.Errorf("%w: SETTINGS payload %d bytes", ErrBadFrameLength, len(p))
	}
	settings := NewSettings()
	for off := 0; off < len(p); off += settingEntryLen {
		id := SettingID(binary.BigEndian.Uint16(p[off : off+2]))
		value := binary.BigEndian.Uint32(p[off+2 : off+6])
		if id < SettingHeaderTableSize || id > SettingMaxHeaderListSize {
			continue
		}
		settings.Put(id, value)
	}
	return fl.OnSettings(settings)
}

func (r *Reader) onPushPromise(flags Flags, streamID uint32, p []byte, fl FrameListener) error {
	if streamID == 0 {
		return fmt.Errorf("%w: PUSH_PROMISE on stream 0", ErrBadStreamID)
	}
	rest, pad, err := splitPadding(flags, p)
	if err != nil {
		return err
	}
	if len(rest) < 4 {
		return fmt.Errorf("%w: PUSH_PROMISE missing promised stream id", ErrBadFrameLength)
	}
	promised := binary.BigEndian.Uint32(rest[0:4]) & MaxStreamID
	asm := &headerAssembly{
		streamID:    streamID,
		promised:    promised,
		pushPromise: true,
		padding:     pad,
		block:       append([]byte(nil), rest[4:]...),
	}
	if !flags.Has(FlagEndHeaders) {
		r.asm = asm
		return nil
	}
	return finishHeaders(asm, fl)
}

func (r *Reader) onPing(flags Flags, p []byte, fl FrameListener) error {
	if len(p) != 8 {
		return fmt.Errorf("%w: PING payload %d bytes", ErrBadFrameLength, len(p))
	}
	if flags.Has(FlagAck) {
		return fl.OnPingAck(p)
	}
	return fl.OnPing(p)
}

func (r *Reader) onGoAway(p []byte, fl FrameListener) error {
	if len(p) < 8 {
		return fmt.Errorf("%w: GOAWAY payload %d bytes", ErrBadFrameLength, len(p))
	}
	lastStreamID := binary.BigEndian.Uint32(p[0:4]) & MaxStreamID
	code := ErrorCode(binary.BigEndian.Uint32(p[4:8]))
	return fl.OnGoAway(lastStreamID, code, p[8:])
}

func (r *Reader) onWindowUpdate(streamID uint32, p []byte, fl FrameListener) error {
	if len(p) != 4 {
		return fmt.Errorf("%w: WINDOW_UPDATE payload %d bytes", ErrBadFrameLength, len(p))
	}
	return fl.OnWindowUpdate(streamID, binary.BigEndian.Uint32(p)&MaxStreamID)
}

func (r *Reader) onAltSvc(streamID uint32, p []byte, fl FrameListener) error {
	if len(p) < 8 {
		return fmt.Errorf("%w: ALTSVC payload %d bytes", ErrBadFrameLength, len(p))
	}
	maxAge := binary.BigEndian.Uint32(p[0:4])
	port := binary.BigEndian.Uint16(p[4:6])
	// p[6] is reserved.
	pidLen := int(p[7])
	rest := p[8:]
	if pidLen > len(rest) {
		return fmt.Errorf("%w: ALTSVC protocol id truncated", ErrBadFrameLength)
	}
	protocolID := rest[:pidLen]
	rest = rest[pidLen:]
	if len(rest) < 1 {
		return fmt.Errorf("%w: ALTSVC missing host length", ErrBadFrameLength)
	}
	hostLen := int(rest[0])
	rest = rest[1:]
	if hostLen > len(rest) {
		return fmt.Errorf("%w: ALTSVC host truncated", ErrBadFrameLength)
	}
	host := string(rest[:hostLen])
	origin := string(rest[hostLen:])
	return fl.OnAltSvc(streamID, maxAge, port, protocolID, host, origin)
}

func (r *Reader) onBlocked(streamID uint32, p []byte, fl FrameListener) error {
	if len(p) != 0 {
		return fmt.Errorf("%w: BLOCKED payload %d bytes", ErrBadFrameLength, len(p))
	}
	return fl.OnBlocked(streamID)
}
