// File: mux/writer.go
// Package mux
// Author: momentics <momentics@gmail.com>
//
// Frame serializer. Every Write method validates its fields against the
// wire widths before emitting a single byte; out-of-range fields are caller
// errors, not protocol errors. Header blocks larger than the frame size
// limit are split into a HEADERS frame plus continuation frames, with the
// end-of-headers flag set only on the last.

package mux

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Writer serializes frames to an output sink.
type Writer struct {
	w      io.Writer
	maxLen uint32
	hdr    [FrameHeaderLen]byte
}

// WriterOption customizes Writer construction.
type WriterOption func(*Writer)

// WithWriterMaxFrameSize sets the payload size limit used when splitting
// header blocks across continuation frames.
func WithWriterMaxFrameSize(n uint32) WriterOption {
	return func(wr *Writer) {
		if n > MaxAllowedFrameSize {
			n = MaxAllowedFrameSize
		}
		if n > 0 {
			wr.maxLen = n
		}
	}
}

// NewWriter returns a Writer emitting to w.
func NewWriter(w io.Writer, opts ...WriterOption) *Writer {
	wr := &Writer{w: w, maxLen: DefaultMaxFrameSize}
	for _, opt := range opts {
		opt(wr)
	}
	return wr
}

func (wr *Writer) writeHeader(length int, typ FrameType, flags Flags, streamID uint32) error {
	wr.hdr[0] = byte(length >> 16)
	wr.hdr[1] = byte(length >> 8)
	wr.hdr[2] = byte(length)
	wr.hdr[3] = byte(typ)
	wr.hdr[4] = byte(flags)
	binary.BigEndian.PutUint32(wr.hdr[5:9], streamID&MaxStreamID)
	_, err := wr.w.Write(wr.hdr[:])
	return err
}

func checkStreamID(streamID uint32, connectionScoped bool) error {
	if streamID > MaxStreamID {
		return fmt.Errorf("%w: stream id %d exceeds 31 bits", ErrFieldOutOfRange, streamID)
	}
	if streamID == 0 && !connectionScoped {
		return fmt.Errorf("%w: stream id 0 is connection-scoped", ErrFieldOutOfRange)
	}
	return nil
}

func checkPadding(padding int) error {
	if padding < 0 || padding > MaxPadding {
		return fmt.Errorf("%w: padding %d", ErrFieldOutOfRange, padding)
	}
	return nil
}

func checkPriority(prio *Priority) error {
	if prio == nil {
		return nil
	}
	if prio.StreamDependency > MaxStreamID {
		return fmt.Errorf("%w: stream dependency %d exceeds 31 bits", ErrFieldOutOfRange, prio.StreamDependency)
	}
	if prio.Weight < MinWeight || prio.Weight > MaxWeight {
		return fmt.Errorf("%w: weight %d", ErrFieldOutOfRange, prio.Weight)
	}
	return nil
}

// WriteData serializes a DATA frame.
func (wr *Writer) WriteData(streamID uint32, data []byte, padding int, endStream, endSegment, compressed bool) error {
	if err := checkStreamID(streamID, false); err != nil {
		return err
	}
	if err := checkPadding(padding); err != nil {
		return err
	}
	var flags Flags
	if endStream {
		flags |= FlagEndStream
	}
	if endSegment {
		flags |= FlagEndSegment
	}
	if compressed {
		flags |= FlagCompressed
	}
	length := len(data)
	if padding > 0 {
		flags |= FlagPadded
		length += 1 + padding
	}
	if uint32(length) > MaxAllowedFrameSize {
		return fmt.Errorf("%w: DATA payload %d bytes", ErrFieldOutOfRange, length)
	}
	if err := wr.writeHeader(length, FrameData, flags, streamID); err != nil {
		return err
	}
	if padding > 0 {
		if _, err := wr.w.Write([]byte{byte(padding)}); err != nil {
			return err
		}
	}
	if _, err := wr.w.Write(data); err != nil {
		return err
	}
	if padding > 0 {
		_, err := wr.w.Write(make([]byte, padding))
		return err
	}
	return nil
}

// WriteHeaders serializes a header block as a HEADERS frame, splitting into
// continuation frames when the block exceeds the frame size limit. prio may
// be nil.
func (wr *Writer) WriteHeaders(streamID uint32, headers *Headers, prio *Priority, padding int, endStream bool) error {
	if err := checkStreamID(streamID, false); err != nil {
		return err
	}
	if err := checkPadding(padding); err != nil {
		return err
	}
	if err := checkPriority(prio); err != nil {
		return err
	}

	block := headers.appendBlock(nil)

	var flags Flags
	if endStream {
		flags |= FlagEndStream
	}
	overhead := 0
	if padding > 0 {
		flags |= FlagPadded
		overhead += 1 + padding
	}
	if prio != nil {
		flags |= FlagPriority
		overhead += 5
	}

	first := block
	rest := []byte(nil)
	if overhead+len(block) > int(wr.maxLen) {
		split := int(wr.maxLen) - overhead
		if split <= 0 {
			return fmt.Errorf("%w: padding and priority exceed frame size %d", ErrFieldOutOfRange, wr.maxLen)
		}
		first, rest = block[:split], block[split:]
	} else {
		flags |= FlagEndHeaders
	}

	if err := wr.writeHeader(overhead+len(first), FrameHeaders, flags, streamID); err != nil {
		return err
	}
	if padding > 0 {
		if _, err := wr.w.Write([]byte{byte(padding)}); err != nil {
			return err
		}
	}
	if prio != nil {
		var pb [5]byte
		depWord := prio.StreamDependency
		if prio.Exclusive {
			depWord |= 1 << 31
		}
		binary.BigEndian.PutUint32(pb[0:4], depWord)
		pb[4] = byte(prio.Weight - 1)
		if _, err := wr.w.Write(pb[:]); err != nil {
			return err
		}
	}
	if _, err := wr.w.Write(first); err != nil {
		return err
	}
	if padding > 0 {
		if _, err := wr.w.Write(make([]byte, padding)); err != nil {
			return err
		}
	}
	return wr.writeContinuations(streamID, rest)
}

func (wr *Writer) writeContinuations(streamID uint32, rest []byte) error {
	for len(rest) > 0 {
		frag := rest
		var flags Flags
		if len(frag) > int(wr.maxLen) {
			frag = frag[:wr.maxLen]
		} else {
			flags = FlagEndHeaders
		}
		if err := wr.writeHeader(len(frag), FrameContinuation, flags, streamID); err != nil {
			return err
		}
		if _, err := wr.w.Write(frag); err != nil {
			return err
		}
		rest = rest[len(frag):]
	}
	return nil
}

// WritePriority serializes a PRIORITY frame.
func (wr *Writer) WritePriority(streamID uint32, prio Priority) error {
	if err := checkStreamID(streamID, false); err != nil {
		return err
	}
	if err := checkPriority(&prio); err != nil {
		return err
	}
	if err := wr.writeHeader(5, FramePriority, 0, streamID); err != nil {
		return err
	}
	var pb [5]byte
	depWord := prio.StreamDependency
	if prio.Exclusive {
		depWord |= 1 << 31
	}
	binary.BigEndian.PutUint32(pb[0:4], depWord)
	pb[4] = byte(prio.Weight - 1)
	_, err := wr.w.Write(pb[:])
	return err
}

// WriteRstStream serializes a RST_STREAM frame.
func (wr *Writer) WriteRstStream(streamID uint32, code ErrorCode) error {
	if err := checkStreamID(streamID, false); err != nil {
		return err
	}
	if err := wr.writeHeader(4, FrameRstStream, 0, streamID); err != nil {
		return err
	}
	var cb [4]byte
	binary.BigEndian.PutUint32(cb[:], uint32(code))
	_, err := wr.w.Write(cb[:])
	return err
}

// WriteSettings serializes a SETTINGS frame.
func (wr *Writer) WriteSettings(settings *Settings) error {
	entries := settings.Entries()
	if err := wr.writeHeader(len(entries)*settingEntryLen, FrameSettings, 0, 0); err != nil {
		return err
	}
	var eb [settingEntryLen]byte
	for _, e := range entries {
		binary.BigEndian.PutUint16(eb[0:2], uint16(e.ID))
		binary.BigEndian.PutUint32(eb[2:6], e.Value)
		if _, err := wr.w.Write(eb[:]); err != nil {
			return err
		}
	}
	return nil
}

// WriteSettingsAck serializes an empty SETTINGS acknowledgement.
func (wr *Writer) WriteSettingsAck() error {
	return wr.writeHeader(0, FrameSettings, FlagAck, 0)
}

// WritePushPromise serializes a promise header block, splitting into
// continuation frames when needed.
func (wr *Writer) WritePushPromise(streamID, promisedStreamID uint32, headers *Headers, padding int) error {
	if err := checkStreamID(streamID, false); err != nil {
		return err
	}
	if err := checkStreamID(promisedStreamID, false); err != nil {
		return err
	}
	if err := checkPadding(padding); err != nil {
		return err
	}

	block := headers.appendBlock(nil)

	var flags Flags
	overhead := 4
	if padding > 0 {
		flags |= FlagPadded
		overhead += 1 + padding
	}
	first := block
	rest := []byte(nil)
	if overhead+len(block) > int(wr.maxLen) {
		split := int(wr.maxLen) - overhead
		if split <= 0 {
			return fmt.Errorf("%w: padding exceeds frame size %d", ErrFieldOutOfRange, wr.maxLen)
		}
		first, rest = block[:split], block[split:]
	} else {
		flags |= FlagEndHeaders
	}

	if err := wr.writeHeader(overhead+len(first), FramePushPromise, flags, streamID); err != nil {
		return err
	}
	if padding > 0 {
		if _, err := wr.w.Write([]byte{byte(padding)}); err != nil {
			return err
		}
	}
	var pid [4]byte
	binary.BigEndian.PutUint32(pid[:], promisedStreamID&MaxStreamID)
	if _, err := wr.w.Write(pid[:]); err != nil {
		return err
	}
	if _, err := wr.w.Write(first); err != nil {
		return err
	}
	if padding > 0 {
		if _, err := wr.w.Write(make([]byte, padding)); err != nil {
			return err
		}
	}
	return wr.writeContinuations(streamID, rest)
}

// WritePing serializes a PING frame. data must be exactly 8 bytes.
func (wr *Writer) WritePing(ack bool, data []byte) error {
	if len(data) != 8 {
		return fmt.Errorf("%w: PING payload %d bytes", ErrFieldOutOfRange, len(data))
	}
	var flags Flags
	if ack {
		flags = FlagAck
	}
	if err := wr.writeHeader(8, FramePing, flags, 0); err != nil {
		return err
	}
	_, err := wr.w.Write(data)
	return err
}

// WriteGoAway serializes a GOAWAY frame.
func (wr *Writer) WriteGoAway(lastStreamID uint32, code ErrorCode, debugData []byte) error {
	if err := checkStreamID(lastStreamID, true); err != nil {
		return err
	}
	if err := wr.writeHeader(8+len(debugData), FrameGoAway, 0, 0); err != nil {
		return err
	}
	var fixed [8]byte
	binary.BigEndian.PutUint32(fixed[0:4], lastStreamID&MaxStreamID)
	binary.BigEndian.PutUint32(fixed[4:8], uint32(code))
	if _, err := wr.w.Write(fixed[:]); err != nil {
		return err
	}
	if len(debugData) > 0 {
		if _, err := wr.w.Write(debugData); err != nil {
			return err
		}
	}
	return nil
}

// WriteWindowUpdate serializes a WINDOW_UPDATE frame.
func (wr *Writer) WriteWindowUpdate(streamID, increment uint32) error {
	if err := checkStreamID(streamID, true); err != nil {
		return err
	}
	if increment > MaxStreamID {
		return fmt.Errorf("%w: window increment %d exceeds 31 bits", ErrFieldOutOfRange, increment)
	}
	if err := wr.writeHeader(4, FrameWindowUpdate, 0, streamID); err != nil {
		return err
	}
	var ib [4]byte
	binary.BigEndian.PutUint32(ib[:], increment)
	_, err := wr.w.Write(ib[:])
	return err
}

// WriteAltSvc serializes an ALTSVC frame.
func (wr *Writer) WriteAltSvc(streamID uint32, maxAge uint32, port uint16, protocolID []byte, host, origin string) error {
	if err := checkStreamID(streamID, true); err != nil {
		return err
	}
	if len(protocolID) > 255 || len(host) > 255 {
		return fmt.Errorf("%w: ALTSVC protocol id or host too long", ErrFieldOutOfRange)
	}
	length := 8 + len(protocolID) + 1 + len(host) + len(origin)
	if err := wr.writeHeader(length, FrameAltSvc, 0, streamID); err != nil {
		return err
	}
	var fixed [8]byte
	binary.BigEndian.PutUint32(fixed[0:4], maxAge)
	binary.BigEndian.PutUint16(fixed[4:6], port)
	fixed[7] = byte(len(protocolID))
	if _, err := wr.w.Write(fixed[:]); err != nil {
		return err
	}
	if _, err := wr.w.Write(protocolID); err != nil {
		return err
	}
	if _, err := wr.w.Write([]byte{byte(len(host))}); err != nil {
		return err
	}
	if _, err := io.WriteString(wr.w, host); err != nil {
		return err
	}
	_, err := io.WriteString(wr.w, origin)
	return err
}

// WriteBlocked serializes a BLOCKED frame.
func (wr *Writer) WriteBlocked(streamID uint32) error {
	if err := checkStreamID(streamID, true); err != nil {
		return err
	}
	return wr.writeHeader(0, FrameBlocked, 0, streamID)
}
