// File: pipeline/context.go
// Package pipeline
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package pipeline

import (
	"fmt"

	"github.com/momentics/hioload-mux/api"
)

// Context is a stage's view of its position in the pipeline. It is
// passed to the stage on every invocation and is only valid on the
// connection sequence. Structural mutation through a Context takes
// effect before the next message traverses the chain.
type Context struct {
	e *entry
}

// Name returns the stage name this context belongs to.
func (c *Context) Name() string { return c.e.name }

// Pipeline returns the owning pipeline.
func (c *Context) Pipeline() *Pipeline { return c.e.pipe }

// ForwardInbound passes msg to the next inbound stage toward the
// application handler.
func (c *Context) ForwardInbound(msg any) {
	p := c.e.pipe
	idx := p.indexOf(c.e)
	if idx < 0 {
		// Stage was removed mid-flight; deliver from the head.
		p.runInbound(0, msg)
		return
	}
	p.runInbound(idx+1, msg)
}

// ForwardOutbound passes msg to the next outbound stage toward the
// transmitter.
func (c *Context) ForwardOutbound(msg any, pr *Promise) {
	p := c.e.pipe
	idx := p.indexOf(c.e)
	if idx < 0 {
		p.runOutbound(len(p.entries)-1, msg, pr)
		return
	}
	p.runOutbound(idx-1, msg, pr)
}

// InsertAfter inserts a stage immediately after the named position.
func (c *Context) InsertAfter(position, name string, stage any) error {
	p := c.e.pipe
	if err := checkStage(name, stage); err != nil {
		return err
	}
	if p.find(name) >= 0 {
		return fmt.Errorf("%w: stage %q", api.ErrAlreadyExists, name)
	}
	idx := p.find(position)
	if idx < 0 {
		return fmt.Errorf("%w: stage %q", api.ErrNotFound, position)
	}
	e := &entry{name: name, stage: stage, pipe: p}
	e.ctx.e = e
	p.entries = append(p.entries, nil)
	copy(p.entries[idx+2:], p.entries[idx+1:])
	p.entries[idx+1] = e
	return nil
}

// Remove removes the named stage from the pipeline.
func (c *Context) Remove(name string) error {
	p := c.e.pipe
	idx := p.find(name)
	if idx < 0 {
		return fmt.Errorf("%w: stage %q", api.ErrNotFound, name)
	}
	p.entries = append(p.entries[:idx], p.entries[idx+1:]...)
	return nil
}
