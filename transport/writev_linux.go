// File: transport/writev_linux.go
// Package transport
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

//go:build linux

package transport

import (
	"net"
	"syscall"

	"golang.org/x/sys/unix"
)

// writeBatch submits bufs with a single writev when the connection
// exposes its raw file descriptor, falling back to sequential writes
// otherwise. Partial vectored writes retry through the fallback for the
// remainder.
func writeBatch(conn net.Conn, bufs [][]byte) (int, error) {
	sc, ok := conn.(syscall.Conn)
	if !ok {
		return writeBatchFallback(conn, bufs)
	}
	raw, err := sc.SyscallConn()
	if err != nil {
		return writeBatchFallback(conn, bufs)
	}

	total := 0
	for _, buf := range bufs {
		total += len(buf)
	}

	written := 0
	var writeErr error
	ctrlErr := raw.Write(func(fd uintptr) bool {
		pending := remainder(bufs, written)
		if len(pending) == 0 {
			return true
		}
		n, err := unix.Writev(int(fd), pending)
		if n > 0 {
			written += n
		}
		if err == unix.EAGAIN {
			return false
		}
		writeErr = err
		return written >= total || writeErr != nil
	})
	if ctrlErr != nil {
		return written, ctrlErr
	}
	if writeErr != nil {
		return written, writeErr
	}
	if written < total {
		n, err := writeBatchFallback(conn, remainder(bufs, written))
		return written + n, err
	}
	return written, nil
}

// remainder returns the unwritten tail of bufs after skipping n bytes.
func remainder(bufs [][]byte, n int) [][]byte {
	for i, buf := range bufs {
		if n < len(buf) {
			out := make([][]byte, 0, len(bufs)-i)
			out = append(out, buf[n:])
			return append(out, bufs[i+1:]...)
		}
		n -= len(buf)
	}
	return nil
}
