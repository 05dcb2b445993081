// File: transport/sink.go
// Package transport
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package transport

import (
	"fmt"

	"github.com/momentics/hioload-mux/api"
	"github.com/momentics/hioload-mux/pipeline"
	"github.com/momentics/hioload-mux/pool"
	"github.com/momentics/hioload-mux/protocol"
)

// FrameSink is the terminal outbound stage of a connection pipeline. It
// serializes WebSocket frames and handshake responses into pooled
// buffers and writes them to the connection.
type FrameSink struct {
	conn api.NetConn
	bufs *pool.BytePool
}

var _ pipeline.Transmitter = (*FrameSink)(nil)

// NewFrameSink builds a sink writing to conn with buffers from bufs.
func NewFrameSink(conn api.NetConn, bufs *pool.BytePool) *FrameSink {
	return &FrameSink{conn: conn, bufs: bufs}
}

// Transmit implements pipeline.Transmitter.
func (s *FrameSink) Transmit(msg any) error {
	switch m := msg.(type) {
	case *protocol.WSFrame:
		buf := s.bufs.GetBuffer()
		out, err := protocol.EncodeFrameToBuffer(m, buf)
		if err != nil {
			s.bufs.PutBuffer(buf)
			return err
		}
		_, err = s.conn.Write(out)
		s.bufs.PutBuffer(out)
		return err
	case *protocol.UpgradeResponse:
		buf := s.bufs.GetBuffer()
		out := protocol.WriteHandshakeResponse(m, buf)
		_, err := s.conn.Write(out)
		s.bufs.PutBuffer(out)
		return err
	case [][]byte:
		_, err := s.conn.WriteBatch(m)
		return err
	case []byte:
		_, err := s.conn.Write(m)
		return err
	default:
		return fmt.Errorf("%w: unsupported outbound message %T", api.ErrInvalidArgument, msg)
	}
}
