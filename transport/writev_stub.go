// File: transport/writev_stub.go
// Package transport
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

//go:build !linux

package transport

import "net"

func writeBatch(conn net.Conn, bufs [][]byte) (int, error) {
	return writeBatchFallback(conn, bufs)
}
