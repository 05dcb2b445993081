// File: pipeline/pipeline.go
// Package pipeline
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// A Pipeline is an ordered chain of stages between the transport and
// the application handler. Inbound messages travel head to tail and end
// at the handler; outbound messages travel tail to head and end at the
// transmitter. All traversal and all structural mutation run on the
// connection sequence, a single goroutine per pipeline, so stages keep
// per-connection state without locks.

package pipeline

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/momentics/hioload-mux/api"
)

// InboundStage processes messages flowing from the transport toward the
// application.
type InboundStage interface {
	OnInbound(ctx *Context, msg any) error
}

// OutboundStage processes messages flowing from the application toward
// the transport.
type OutboundStage interface {
	OnOutbound(ctx *Context, msg any, promise *Promise) error
}

// Transmitter is the terminal outbound sink, normally the socket
// writer.
type Transmitter interface {
	Transmit(msg any) error
}

// TransmitterFunc adapts a function to the Transmitter interface.
type TransmitterFunc func(msg any) error

func (f TransmitterFunc) Transmit(msg any) error { return f(msg) }

type entry struct {
	name  string
	stage any
	pipe  *Pipeline
	ctx   Context
}

// Pipeline is the per-connection stage chain.
type Pipeline struct {
	entries []*entry
	exec    *executor
	tx      Transmitter
	handler api.Handler
	onError func(error)
	log     zerolog.Logger
	closed  bool
}

// Option customizes Pipeline construction.
type Option func(*Pipeline)

// WithLogger sets the pipeline logger.
func WithLogger(log zerolog.Logger) Option {
	return func(p *Pipeline) { p.log = log }
}

// WithHandler sets the terminal inbound handler.
func WithHandler(h api.Handler) Option {
	return func(p *Pipeline) { p.handler = h }
}

// WithErrorHandler sets the callback invoked when a stage fails.
func WithErrorHandler(fn func(error)) Option {
	return func(p *Pipeline) { p.onError = fn }
}

// NewPipeline builds a pipeline terminating outbound traffic at tx.
func NewPipeline(tx Transmitter, opts ...Option) *Pipeline {
	p := &Pipeline{
		tx:  tx,
		log: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.onError == nil {
		p.onError = func(err error) {
			p.log.Error().Err(err).Msg("pipeline stage error")
		}
	}
	p.exec = newExecutor()
	return p
}

// AddLast appends a stage at the tail. Call during pipeline assembly,
// before traffic flows, or from a stage callback on the sequence.
func (p *Pipeline) AddLast(name string, stage any) error {
	if err := checkStage(name, stage); err != nil {
		return err
	}
	if p.find(name) >= 0 {
		return fmt.Errorf("%w: stage %q", api.ErrAlreadyExists, name)
	}
	e := &entry{name: name, stage: stage, pipe: p}
	e.ctx.e = e
	p.entries = append(p.entries, e)
	return nil
}

// Names returns the stage names in head-to-tail order.
func (p *Pipeline) Names() []string {
	out := make([]string, len(p.entries))
	for i, e := range p.entries {
		out[i] = e.name
	}
	return out
}

// FireInbound schedules msg through the inbound chain on the connection
// sequence.
func (p *Pipeline) FireInbound(msg any) {
	p.exec.submit(func() {
		p.runInbound(0, msg)
	})
}

// Write schedules msg through the outbound chain and returns a promise
// that settles once the transmitter accepts or rejects it.
func (p *Pipeline) Write(msg any) *Promise {
	pr := newPromise(p)
	ok := p.exec.submit(func() {
		if p.closed {
			pr.complete(api.ErrPipelineClosed)
			return
		}
		p.runOutbound(len(p.entries)-1, msg, pr)
	})
	if !ok {
		pr.done = true
		pr.err = api.ErrPipelineClosed
		close(pr.ch)
	}
	return pr
}

// Close stops the connection sequence after draining queued work.
// Writes submitted after Close fail with ErrPipelineClosed.
func (p *Pipeline) Close() error {
	p.exec.submit(func() { p.closed = true })
	p.exec.close()
	return nil
}

// runInbound delivers msg to the first inbound stage at or after index
// from, falling through to the handler.
func (p *Pipeline) runInbound(from int, msg any) {
	for i := from; i < len(p.entries); i++ {
		if st, ok := p.entries[i].stage.(InboundStage); ok {
			if err := st.OnInbound(&p.entries[i].ctx, msg); err != nil {
				p.onError(fmt.Errorf("stage %q inbound: %w", p.entries[i].name, err))
			}
			return
		}
	}
	if p.handler != nil {
		if err := p.handler.Handle(msg); err != nil {
			p.onError(fmt.Errorf("handler: %w", err))
		}
	}
}

// runOutbound delivers msg to the first outbound stage at or before
// index from, falling through to the transmitter.
func (p *Pipeline) runOutbound(from int, msg any, pr *Promise) {
	for i := from; i >= 0; i-- {
		if st, ok := p.entries[i].stage.(OutboundStage); ok {
			if err := st.OnOutbound(&p.entries[i].ctx, msg, pr); err != nil {
				p.onError(fmt.Errorf("stage %q outbound: %w", p.entries[i].name, err))
				pr.complete(err)
			}
			return
		}
	}
	pr.complete(p.tx.Transmit(msg))
}

func (p *Pipeline) find(name string) int {
	for i, e := range p.entries {
		if e.name == name {
			return i
		}
	}
	return -1
}

func (p *Pipeline) indexOf(e *entry) int {
	for i, cand := range p.entries {
		if cand == e {
			return i
		}
	}
	return -1
}

func checkStage(name string, stage any) error {
	if name == "" {
		return fmt.Errorf("%w: empty stage name", api.ErrInvalidArgument)
	}
	switch stage.(type) {
	case InboundStage, OutboundStage:
		return nil
	}
	return fmt.Errorf("%w: stage %q implements neither direction", api.ErrInvalidArgument, name)
}
