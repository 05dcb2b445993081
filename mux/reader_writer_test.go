// File: mux/reader_writer_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package mux_test

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-mux/mux"
)

type dataEvent struct {
	streamID   uint32
	data       []byte
	padding    int
	endStream  bool
	endSegment bool
	compressed bool
}

type headersEvent struct {
	streamID  uint32
	headers   *mux.Headers
	prio      *mux.Priority
	padding   int
	endStream bool
}

// recorder captures every dispatched frame for assertions.
type recorder struct {
	mux.NopListener
	data     []dataEvent
	headers  []headersEvent
	prios    []mux.Priority
	resets   []mux.ErrorCode
	settings []*mux.Settings
	acks     int
	promises []uint32
	pings    [][]byte
	pingAcks [][]byte
	goAways  []mux.ErrorCode
	windows  []uint32
	altSvcs  []string
	blocked  []uint32
	calls    int
}

func (r *recorder) OnData(streamID uint32, data []byte, padding int, endStream, endSegment, compressed bool) error {
	r.calls++
	r.data = append(r.data, dataEvent{streamID, append([]byte(nil), data...), padding, endStream, endSegment, compressed})
	return nil
}

func (r *recorder) OnHeaders(streamID uint32, headers *mux.Headers, prio *mux.Priority, padding int, endStream bool) error {
	r.calls++
	r.headers = append(r.headers, headersEvent{streamID, headers, prio, padding, endStream})
	return nil
}

func (r *recorder) OnPriority(streamID uint32, prio mux.Priority) error {
	r.calls++
	r.prios = append(r.prios, prio)
	return nil
}

func (r *recorder) OnRstStream(streamID uint32, code mux.ErrorCode) error {
	r.calls++
	r.resets = append(r.resets, code)
	return nil
}

func (r *recorder) OnSettings(settings *mux.Settings) error {
	r.calls++
	r.settings = append(r.settings, settings)
	return nil
}

func (r *recorder) OnSettingsAck() error {
	r.calls++
	r.acks++
	return nil
}

func (r *recorder) OnPushPromise(streamID, promisedStreamID uint32, headers *mux.Headers, padding int) error {
	r.calls++
	r.promises = append(r.promises, promisedStreamID)
	return nil
}

func (r *recorder) OnPing(data []byte) error {
	r.calls++
	r.pings = append(r.pings, append([]byte(nil), data...))
	return nil
}

func (r *recorder) OnPingAck(data []byte) error {
	r.calls++
	r.pingAcks = append(r.pingAcks, append([]byte(nil), data...))
	return nil
}

func (r *recorder) OnGoAway(lastStreamID uint32, code mux.ErrorCode, debugData []byte) error {
	r.calls++
	r.goAways = append(r.goAways, code)
	return nil
}

func (r *recorder) OnWindowUpdate(streamID uint32, increment uint32) error {
	r.calls++
	r.windows = append(r.windows, increment)
	return nil
}

func (r *recorder) OnAltSvc(streamID uint32, maxAge uint32, port uint16, protocolID []byte, host, origin string) error {
	r.calls++
	r.altSvcs = append(r.altSvcs, host)
	return nil
}

func (r *recorder) OnBlocked(streamID uint32) error {
	r.calls++
	r.blocked = append(r.blocked, streamID)
	return nil
}

func TestDataFrameRoundtrip(t *testing.T) {
	var wire bytes.Buffer
	w := mux.NewWriter(&wire)
	require.NoError(t, w.WriteData(0x7FFFFFFF, []byte("hello world"), 100, true, false, false))

	rec := &recorder{}
	r := mux.NewReader()
	require.NoError(t, r.Feed(wire.Bytes(), rec))
	require.NoError(t, r.Close())

	require.Len(t, rec.data, 1)
	ev := rec.data[0]
	assert.Equal(t, uint32(0x7FFFFFFF), ev.streamID)
	assert.Equal(t, []byte("hello world"), ev.data)
	assert.Equal(t, 100, ev.padding)
	assert.True(t, ev.endStream)
	assert.False(t, ev.endSegment)
	assert.False(t, ev.compressed)
	assert.Equal(t, 1, rec.calls)
}

func TestHeadersFrameRoundtripWithPriority(t *testing.T) {
	headers := mux.NewHeaders()
	headers.Add(mux.PseudoMethod, "GET")
	headers.Add(mux.PseudoScheme, "https")
	headers.Add(mux.PseudoPath, "/index.html")
	headers.Add("accept-encoding", "gzip, deflate")

	var wire bytes.Buffer
	w := mux.NewWriter(&wire)
	prio := &mux.Priority{StreamDependency: 3, Weight: 256, Exclusive: true}
	require.NoError(t, w.WriteHeaders(5, headers, prio, 10, true))

	rec := &recorder{}
	r := mux.NewReader()
	require.NoError(t, r.Feed(wire.Bytes(), rec))

	require.Len(t, rec.headers, 1)
	got := rec.headers[0]
	assert.Equal(t, uint32(5), got.streamID)
	assert.True(t, got.headers.Equal(headers))
	require.NotNil(t, got.prio)
	assert.Equal(t, *prio, *got.prio)
	assert.Equal(t, 10, got.padding)
	assert.True(t, got.endStream)
	assert.Equal(t, "GET", got.headers.Method())
}

func TestHeadersSplitIntoContinuations(t *testing.T) {
	headers := mux.NewHeaders()
	big := bytes.Repeat([]byte("v"), 200)
	for i := 0; i < 8; i++ {
		headers.Add("x-filler", string(big)+string(rune('a'+i)))
	}

	var wire bytes.Buffer
	w := mux.NewWriter(&wire, mux.WithWriterMaxFrameSize(128))
	require.NoError(t, w.WriteHeaders(9, headers, nil, 0, false))

	// More than one frame must be on the wire.
	frames := 0
	for off := 0; off < wire.Len(); {
		length := int(wire.Bytes()[off])<<16 | int(wire.Bytes()[off+1])<<8 | int(wire.Bytes()[off+2])
		off += mux.FrameHeaderLen + length
		frames++
	}
	require.Greater(t, frames, 1)

	rec := &recorder{}
	r := mux.NewReader()
	require.NoError(t, r.Feed(wire.Bytes(), rec))
	require.NoError(t, r.Close())

	require.Len(t, rec.headers, 1)
	assert.True(t, rec.headers[0].headers.Equal(headers))
}

func TestControlFrameRoundtrips(t *testing.T) {
	var wire bytes.Buffer
	w := mux.NewWriter(&wire)

	settings := mux.NewSettings()
	settings.Put(mux.SettingMaxFrameSize, 1<<15)
	settings.Put(mux.SettingInitialWindowSize, 1<<16)
	require.NoError(t, w.WriteSettings(settings))
	require.NoError(t, w.WriteSettingsAck())
	require.NoError(t, w.WritePriority(7, mux.Priority{StreamDependency: 1, Weight: 16}))
	require.NoError(t, w.WriteRstStream(7, mux.ErrCodeCancel))
	require.NoError(t, w.WritePing(false, []byte{0, 1, 2, 3, 4, 5, 6, 7}))
	require.NoError(t, w.WritePing(true, []byte{7, 6, 5, 4, 3, 2, 1, 0}))
	require.NoError(t, w.WriteGoAway(9, mux.ErrCodeProtocol, []byte("bye")))
	require.NoError(t, w.WriteWindowUpdate(0, 65535))
	require.NoError(t, w.WriteAltSvc(0, 300, 443, []byte("h2"), "alt.example.com", "https://example.com"))
	require.NoError(t, w.WriteBlocked(3))

	rec := &recorder{}
	r := mux.NewReader(mux.WithMaxFrameSize(1 << 16))
	require.NoError(t, r.Feed(wire.Bytes(), rec))
	require.NoError(t, r.Close())

	require.Len(t, rec.settings, 1)
	v, ok := rec.settings[0].MaxFrameSize()
	require.True(t, ok)
	assert.Equal(t, uint32(1<<15), v)
	assert.Equal(t, 1, rec.acks)
	require.Len(t, rec.prios, 1)
	assert.Equal(t, 16, rec.prios[0].Weight)
	assert.Equal(t, []mux.ErrorCode{mux.ErrCodeCancel}, rec.resets)
	require.Len(t, rec.pings, 1)
	require.Len(t, rec.pingAcks, 1)
	assert.Equal(t, []mux.ErrorCode{mux.ErrCodeProtocol}, rec.goAways)
	assert.Equal(t, []uint32{65535}, rec.windows)
	assert.Equal(t, []string{"alt.example.com"}, rec.altSvcs)
	assert.Equal(t, []uint32{3}, rec.blocked)
}

func TestPushPromiseRoundtrip(t *testing.T) {
	headers := mux.NewHeaders()
	headers.Add(mux.PseudoPath, "/style.css")

	var wire bytes.Buffer
	w := mux.NewWriter(&wire)
	require.NoError(t, w.WritePushPromise(1, 2, headers, 0))

	rec := &recorder{}
	r := mux.NewReader()
	require.NoError(t, r.Feed(wire.Bytes(), rec))
	assert.Equal(t, []uint32{2}, rec.promises)
}

// Feeding the stream in small chunks must dispatch exactly the same
// events as one contiguous feed.
func TestChunkedFeedStress(t *testing.T) {
	const pairs = 1000

	headers := mux.NewHeaders()
	headers.Add(mux.PseudoMethod, "POST")
	headers.Add(mux.PseudoPath, "/submit")

	var wire bytes.Buffer
	w := mux.NewWriter(&wire)
	for i := 0; i < pairs; i++ {
		streamID := uint32(2*i + 1)
		require.NoError(t, w.WriteHeaders(streamID, headers, nil, 0, false))
		require.NoError(t, w.WriteData(streamID, []byte("payload"), 0, true, false, false))
	}

	rec := &recorder{}
	r := mux.NewReader()
	raw := wire.Bytes()
	const chunk = 1017
	for off := 0; off < len(raw); off += chunk {
		end := off + chunk
		if end > len(raw) {
			end = len(raw)
		}
		require.NoError(t, r.Feed(raw[off:end], rec))
	}
	require.NoError(t, r.Close())

	assert.Equal(t, 2*pairs, rec.calls)
	assert.Len(t, rec.headers, pairs)
	assert.Len(t, rec.data, pairs)
	assert.Equal(t, uint32(2*pairs-1), rec.data[pairs-1].streamID)
}

// rawFrame builds a frame with an arbitrary header for error cases the
// writer refuses to produce.
func rawFrame(typ mux.FrameType, flags mux.Flags, streamID uint32, payload []byte) []byte {
	buf := make([]byte, mux.FrameHeaderLen, mux.FrameHeaderLen+len(payload))
	buf[0] = byte(len(payload) >> 16)
	buf[1] = byte(len(payload) >> 8)
	buf[2] = byte(len(payload))
	buf[3] = byte(typ)
	buf[4] = byte(flags)
	binary.BigEndian.PutUint32(buf[5:9], streamID)
	return append(buf, payload...)
}

func TestFramingErrors(t *testing.T) {
	cases := []struct {
		name string
		raw  []byte
		want error
	}{
		{"data on stream zero", rawFrame(mux.FrameData, 0, 0, []byte("x")), mux.ErrBadStreamID},
		{"headers on stream zero", rawFrame(mux.FrameHeaders, mux.FlagEndHeaders, 0, nil), mux.ErrBadStreamID},
		{"pad exceeds payload", rawFrame(mux.FrameData, mux.FlagPadded, 1, []byte{250, 'a'}), mux.ErrBadPadding},
		{"settings on stream", rawFrame(mux.FrameSettings, 0, 1, nil), mux.ErrBadStreamID},
		{"settings odd length", rawFrame(mux.FrameSettings, 0, 0, []byte{0, 1, 2}), mux.ErrBadFrameLength},
		{"ping wrong length", rawFrame(mux.FramePing, 0, 0, []byte{1, 2, 3}), mux.ErrBadFrameLength},
		{"rst wrong length", rawFrame(mux.FrameRstStream, 0, 1, []byte{1}), mux.ErrBadFrameLength},
		{"goaway short", rawFrame(mux.FrameGoAway, 0, 0, []byte{0, 0}), mux.ErrBadFrameLength},
		{"bare continuation", rawFrame(mux.FrameContinuation, mux.FlagEndHeaders, 1, nil), mux.ErrUnexpectedContinuation},
		{"blocked with payload", rawFrame(mux.FrameBlocked, 0, 1, []byte{1}), mux.ErrBadFrameLength},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := mux.NewReader()
			err := r.Feed(tc.raw, &recorder{})
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.want)

			// The reader latches after the first failure.
			assert.ErrorIs(t, r.Feed(nil, &recorder{}), mux.ErrReaderFailed)
		})
	}
}

func TestHeaderInterleaveRejected(t *testing.T) {
	var open bytes.Buffer
	// HEADERS without EndHeaders keeps the block open.
	open.Write(rawFrame(mux.FrameHeaders, 0, 1, nil))
	open.Write(rawFrame(mux.FrameData, 0, 1, []byte("x")))

	r := mux.NewReader()
	err := r.Feed(open.Bytes(), &recorder{})
	assert.ErrorIs(t, err, mux.ErrHeaderInterleave)
}

func TestOversizedFrameRejected(t *testing.T) {
	r := mux.NewReader(mux.WithMaxFrameSize(16))
	raw := rawFrame(mux.FrameData, 0, 1, bytes.Repeat([]byte("a"), 17))
	assert.ErrorIs(t, r.Feed(raw, &recorder{}), mux.ErrFrameTooLarge)
}

func TestUnknownFrameTypeSkipped(t *testing.T) {
	var wire bytes.Buffer
	wire.Write(rawFrame(mux.FrameType(0xEE), 0, 1, []byte("junk")))
	wire.Write(rawFrame(mux.FrameBlocked, 0, 1, nil))

	rec := &recorder{}
	r := mux.NewReader()
	require.NoError(t, r.Feed(wire.Bytes(), rec))
	assert.Equal(t, []uint32{1}, rec.blocked)
	assert.Equal(t, 1, rec.calls)
}

func TestCloseMidFrameReportsTruncation(t *testing.T) {
	var wire bytes.Buffer
	w := mux.NewWriter(&wire)
	require.NoError(t, w.WriteData(1, []byte("hello"), 0, false, false, false))

	r := mux.NewReader()
	require.NoError(t, r.Feed(wire.Bytes()[:wire.Len()-2], &recorder{}))
	assert.ErrorIs(t, r.Close(), mux.ErrTruncated)
}

func TestWriterFieldValidation(t *testing.T) {
	w := mux.NewWriter(&bytes.Buffer{})

	assert.ErrorIs(t, w.WriteData(0, []byte("x"), 0, false, false, false), mux.ErrFieldOutOfRange)
	assert.ErrorIs(t, w.WriteData(1, nil, 300, false, false, false), mux.ErrFieldOutOfRange)
	assert.ErrorIs(t, w.WritePriority(1, mux.Priority{Weight: 0}), mux.ErrFieldOutOfRange)
	assert.ErrorIs(t, w.WritePriority(1, mux.Priority{Weight: 257}), mux.ErrFieldOutOfRange)
	assert.ErrorIs(t, w.WritePing(false, []byte{1, 2, 3}), mux.ErrFieldOutOfRange)
	assert.ErrorIs(t, w.WriteWindowUpdate(0, 1<<31), mux.ErrFieldOutOfRange)

	// Validation failures must leave nothing on the wire.
	var wire bytes.Buffer
	w2 := mux.NewWriter(&wire)
	_ = w2.WriteData(1, nil, 300, false, false, false)
	assert.Zero(t, wire.Len())
}
