// File: deflate/flate.go
// Package deflate implements the permessage-deflate WebSocket extension.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Raw DEFLATE plumbing. The compressor keeps its stream open across
// messages so the LZ77 window carries over (context takeover); every
// fragment is flushed to a byte boundary and the trailing empty stored
// block marker is stripped from the final fragment of each message. The
// decompressor re-adds that marker, terminates the stream with an empty
// final stored block, and feeds back a sliding window dictionary
// between messages.

package deflate

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"

	"github.com/momentics/hioload-mux/api"
)

// deflateTail is the empty non-final stored block a sync flush emits.
var deflateTail = []byte{0x00, 0x00, 0xff, 0xff}

// deflateTerminator is an empty final stored block closing the stream
// for the decompressor.
var deflateTerminator = []byte{0x01, 0x00, 0x00, 0xff, 0xff}

const slidingWindowSize = 32 << 10

type deflater struct {
	buf bytes.Buffer
	fw  *flate.Writer
}

func newDeflater(level int) (*deflater, error) {
	d := &deflater{}
	fw, err := flate.NewWriter(&d.buf, level)
	if err != nil {
		return nil, api.NewError(api.ErrCodeCompression,
			fmt.Sprintf("flate writer: %v", err), nil)
	}
	d.fw = fw
	return d, nil
}

// compress deflates one frame payload. When final is true the sync
// flush marker is stripped so the frame carries no trailing empty
// block.
func (d *deflater) compress(payload []byte, final bool) ([]byte, error) {
	d.buf.Reset()
	if _, err := d.fw.Write(payload); err != nil {
		return nil, api.NewError(api.ErrCodeCompression, "deflate write failed",
			map[string]any{"cause": err.Error()})
	}
	if err := d.fw.Flush(); err != nil {
		return nil, api.NewError(api.ErrCodeCompression, "deflate flush failed",
			map[string]any{"cause": err.Error()})
	}
	out := d.buf.Bytes()
	if final {
		if len(out) >= len(deflateTail) && bytes.Equal(out[len(out)-4:], deflateTail) {
			out = out[:len(out)-4]
		}
	}
	cp := make([]byte, len(out))
	copy(cp, out)
	return cp, nil
}

type inflater struct {
	fr   io.ReadCloser
	dict []byte
}

func newInflater() *inflater {
	return &inflater{fr: flate.NewReader(nil)}
}

// decompress inflates one complete message worth of compressed bytes.
// The sliding window dictionary persists across calls so messages
// compressed with context takeover resolve back-references into prior
// messages.
func (inf *inflater) decompress(compressed []byte) ([]byte, error) {
	stream := make([]byte, 0, len(compressed)+len(deflateTail)+len(deflateTerminator))
	stream = append(stream, compressed...)
	stream = append(stream, deflateTail...)
	stream = append(stream, deflateTerminator...)

	if err := inf.fr.(flate.Resetter).Reset(bytes.NewReader(stream), inf.dict); err != nil {
		return nil, api.NewError(api.ErrCodeCompression, "inflate reset failed",
			map[string]any{"cause": err.Error()})
	}
	out, err := io.ReadAll(inf.fr)
	if err != nil {
		return nil, api.NewError(api.ErrCodeCompression, "inflate failed",
			map[string]any{"cause": err.Error()})
	}
	inf.updateDict(out)
	return out, nil
}

func (inf *inflater) updateDict(out []byte) {
	if len(out) >= slidingWindowSize {
		inf.dict = append(inf.dict[:0], out[len(out)-slidingWindowSize:]...)
		return
	}
	total := len(inf.dict) + len(out)
	if total > slidingWindowSize {
		drop := total - slidingWindowSize
		inf.dict = append(inf.dict[:copy(inf.dict, inf.dict[drop:])], out...)
		return
	}
	inf.dict = append(inf.dict, out...)
}
