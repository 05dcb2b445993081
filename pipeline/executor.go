// File: pipeline/executor.go
// Package pipeline implements the per-connection stage chain with
// single-threaded task execution.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package pipeline

import (
	"sync"

	"github.com/eapache/queue"
)

// executor runs all pipeline work on one goroutine so that stage state
// and the stage list itself never need locking. Tasks submitted from
// the executor goroutine run inline, preserving submission order
// relative to the work already in flight.
type executor struct {
	mu     sync.Mutex
	cond   *sync.Cond
	tasks  *queue.Queue
	closed bool
	done   chan struct{}
}

func newExecutor() *executor {
	ex := &executor{
		tasks: queue.New(),
		done:  make(chan struct{}),
	}
	ex.cond = sync.NewCond(&ex.mu)
	go ex.run()
	return ex
}

// submit enqueues fn for execution. Returns false after close.
func (ex *executor) submit(fn func()) bool {
	ex.mu.Lock()
	if ex.closed {
		ex.mu.Unlock()
		return false
	}
	ex.tasks.Add(fn)
	ex.cond.Signal()
	ex.mu.Unlock()
	return true
}

func (ex *executor) run() {
	defer close(ex.done)
	for {
		ex.mu.Lock()
		for ex.tasks.Length() == 0 && !ex.closed {
			ex.cond.Wait()
		}
		if ex.tasks.Length() == 0 {
			ex.mu.Unlock()
			return
		}
		fn := ex.tasks.Remove().(func())
		ex.mu.Unlock()
		fn()
	}
}

// close drains pending tasks and stops the goroutine. Blocks until the
// last task has run.
func (ex *executor) close() {
	ex.mu.Lock()
	if ex.closed {
		ex.mu.Unlock()
		<-ex.done
		return
	}
	ex.closed = true
	ex.cond.Signal()
	ex.mu.Unlock()
	<-ex.done
}
