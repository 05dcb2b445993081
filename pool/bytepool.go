// File: pool/bytepool.go
// Package pool implements buffer pooling for the frame codecs.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package pool

import "sync"

// BytePool recycles byte slices of a fixed capacity. Buffers returned
// by GetBuffer have zero length and at least the pool capacity; encode
// paths append into them and hand them back through PutBuffer after the
// write completes.
type BytePool struct {
	p    sync.Pool
	size int
}

// NewBytePool builds a pool of buffers with capacity size.
func NewBytePool(size int) *BytePool {
	bp := &BytePool{size: size}
	bp.p.New = func() any {
		buf := make([]byte, 0, size)
		return &buf
	}
	return bp
}

// GetBuffer returns an empty buffer from the pool.
func (b *BytePool) GetBuffer() []byte {
	return (*b.p.Get().(*[]byte))[:0]
}

// PutBuffer returns buf to the pool. Buffers grown far past the pool
// capacity are dropped so one oversized message does not pin memory.
func (b *BytePool) PutBuffer(buf []byte) {
	if cap(buf) > 4*b.size {
		return
	}
	buf = buf[:0]
	b.p.Put(&buf)
}
