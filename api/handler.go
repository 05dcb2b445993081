// File: api/handler.go
// Package api defines Handler interface.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

// Handler processes messages delivered by a connection pipeline.
type Handler interface {
	Handle(msg any) error
}

// HandlerFunc adapts a plain function to the Handler interface.
type HandlerFunc func(msg any) error

// Handle implements Handler.
func (f HandlerFunc) Handle(msg any) error { return f(msg) }
