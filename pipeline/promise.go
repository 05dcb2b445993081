// File: pipeline/promise.go
// Package pipeline
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package pipeline

// Promise reports completion of an outbound write. Callbacks added via
// OnComplete run on the connection sequence, so they may mutate the
// pipeline without synchronization. Callbacks added after completion
// are scheduled onto the sequence immediately.
type Promise struct {
	p         *Pipeline
	done      bool
	err       error
	callbacks []func(error)
	ch        chan struct{}
}

func newPromise(p *Pipeline) *Promise {
	return &Promise{p: p, ch: make(chan struct{})}
}

// OnComplete registers fn to run on the connection sequence once the
// write settles. Safe to call from any goroutine.
func (pr *Promise) OnComplete(fn func(error)) {
	pr.p.exec.submit(func() {
		if pr.done {
			fn(pr.err)
			return
		}
		pr.callbacks = append(pr.callbacks, fn)
	})
}

// Done returns a channel closed when the promise settles.
func (pr *Promise) Done() <-chan struct{} {
	return pr.ch
}

// Err returns the settled error. Valid only after Done is closed.
func (pr *Promise) Err() error {
	return pr.err
}

// complete must run on the connection sequence.
func (pr *Promise) complete(err error) {
	if pr.done {
		return
	}
	pr.done = true
	pr.err = err
	cbs := pr.callbacks
	pr.callbacks = nil
	for _, fn := range cbs {
		fn(err)
	}
	// Awaiters observe Done only after every registered callback ran.
	close(pr.ch)
}
