// File: transport/netconn.go
// Package transport adapts net.Conn to the pipeline.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package transport

import (
	"net"

	"github.com/momentics/hioload-mux/api"
)

// NetConn wraps a net.Conn behind the api.NetConn surface. WriteBatch
// uses vectored IO on platforms that support it.
type NetConn struct {
	conn net.Conn
}

var _ api.NetConn = (*NetConn)(nil)

// NewNetConn wraps conn.
func NewNetConn(conn net.Conn) *NetConn {
	return &NetConn{conn: conn}
}

func (n *NetConn) Read(buf []byte) (int, error) {
	return n.conn.Read(buf)
}

func (n *NetConn) Write(buf []byte) (int, error) {
	return n.conn.Write(buf)
}

// WriteBatch writes bufs in order and returns the total byte count.
func (n *NetConn) WriteBatch(bufs [][]byte) (int, error) {
	return writeBatch(n.conn, bufs)
}

func (n *NetConn) Close() error {
	return n.conn.Close()
}

// writeBatchFallback writes each buffer with a plain Write call.
func writeBatchFallback(conn net.Conn, bufs [][]byte) (int, error) {
	total := 0
	for _, buf := range bufs {
		nn, err := conn.Write(buf)
		total += nn
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
