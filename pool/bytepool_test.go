// File: pool/bytepool_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package pool_test

import (
	"testing"

	"github.com/momentics/hioload-mux/pool"
)

func TestBytePoolReuse(t *testing.T) {
	bp := pool.NewBytePool(64)

	buf := bp.GetBuffer()
	if len(buf) != 0 {
		t.Fatalf("expected empty buffer, got len %d", len(buf))
	}
	if cap(buf) < 64 {
		t.Fatalf("expected capacity >= 64, got %d", cap(buf))
	}

	buf = append(buf, "payload"...)
	bp.PutBuffer(buf)

	again := bp.GetBuffer()
	if len(again) != 0 {
		t.Fatalf("recycled buffer not reset, len %d", len(again))
	}
}

func TestBytePoolDropsOversized(t *testing.T) {
	bp := pool.NewBytePool(8)
	huge := make([]byte, 0, 1024)
	// Must not panic; the oversized buffer is simply discarded.
	bp.PutBuffer(huge)
}
