// File: mux/listener.go
// Package mux
// Author: momentics <momentics@gmail.com>
//
// FrameListener is the dispatch contract between the frame reader and its
// consumer: one callback per frame kind, invoked synchronously during
// decode. Byte slices handed to a callback are views into the reader's
// internal buffer and are valid only for the duration of the call; a
// consumer that needs to retain them must copy.

package mux

// Priority carries the priority block of a HEADERS or PRIORITY frame.
// Weight is the effective value in [1,256]; the wire stores weight-1.
type Priority struct {
	StreamDependency uint32
	Weight           int
	Exclusive        bool
}

// FrameListener receives decoded frames. A non-nil error returned from any
// callback aborts decoding and is propagated out of Reader.Feed unchanged.
type FrameListener interface {
	// OnData delivers a DATA frame. padding counts the pad bytes that
	// followed the data on the wire.
	OnData(streamID uint32, data []byte, padding int, endStream, endSegment, compressed bool) error

	// OnHeaders delivers a fully reassembled header block, after any
	// continuation frames have been merged. prio is nil when the frame
	// carried no priority block.
	OnHeaders(streamID uint32, headers *Headers, prio *Priority, padding int, endStream bool) error

	OnPriority(streamID uint32, prio Priority) error
	OnRstStream(streamID uint32, code ErrorCode) error
	OnSettings(settings *Settings) error
	OnSettingsAck() error

	// OnPushPromise delivers a fully reassembled promise header block.
	OnPushPromise(streamID, promisedStreamID uint32, headers *Headers, padding int) error

	OnPing(data []byte) error
	OnPingAck(data []byte) error
	OnGoAway(lastStreamID uint32, code ErrorCode, debugData []byte) error
	OnWindowUpdate(streamID uint32, increment uint32) error
	OnAltSvc(streamID uint32, maxAge uint32, port uint16, protocolID []byte, host, origin string) error
	OnBlocked(streamID uint32) error
}

// NopListener implements FrameListener with no-op callbacks. Embed it
// to observe a subset of frame kinds.
type NopListener struct{}

func (NopListener) OnData(uint32, []byte, int, bool, bool, bool) error { return nil }
func (NopListener) OnHeaders(uint32, *Headers, *Priority, int, bool) error { return nil }
func (NopListener) OnPriority(uint32, Priority) error { return nil }
func (NopListener) OnRstStream(uint32, ErrorCode) error { return nil }
func (NopListener) OnSettings(*Settings) error { return nil }
func (NopListener) OnSettingsAck() error { return nil }
func (NopListener) OnPushPromise(uint32, uint32, *Headers, int) error { return nil }
func (NopListener) OnPing([]byte) error { return nil }
func (NopListener) OnPingAck([]byte) error { return nil }
func (NopListener) OnGoAway(uint32, ErrorCode, []byte) error { return nil }
func (NopListener) OnWindowUpdate(uint32, uint32) error { return nil }
func (NopListener) OnAltSvc(uint32, uint32, uint16, []byte, string, string) error { return nil }
func (NopListener) OnBlocked(uint32) error { return nil }
