/*
 * MIT License
 *
 * Copyright (c) 2025 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Package workerpool offloads CPU-bound filter work (TLS handshakes,
// digest hashing, anything that would otherwise block the single
// event-loop thread) onto a small fixed set of goroutines, then hands
// the result back to the caller on a channel the event loop polls —
// the Go stand-in for an eventfd-signalled completion.
package workerpool

import (
	"context"
	"sync"
	"sync/atomic"
)

// State is a Job's position in its lifecycle:
// INITIAL -> WAITING -> BUSY -> DONE.
type State uint8

const (
	StateInitial State = iota
	StateWaiting
	StateBusy
	StateDone
)

// Job is one unit of CPU-bound work submitted to a Pool. Run executes on
// a worker goroutine; Done is invoked back on the submitter's goroutine
// (typically the event loop) once the result channel is drained, never
// concurrently with Run.
type Job interface {
	// Run performs the work and returns its result. Called on a worker
	// goroutine; must not touch event-loop-owned state.
	Run(ctx context.Context) (any, error)
	// Done receives the result of Run. Called from Pool.Drain on the
	// caller's own goroutine, so it may safely touch event-loop state.
	Done(result any, err error)
}

// Pool is a fixed-size set of worker goroutines draining a shared queue.
// The zero value is not usable; construct with New.
type Pool struct {
	size    int
	queue   chan *jobSlot
	results chan *jobSlot
	closed  chan struct{}
	wg      sync.WaitGroup
	once    sync.Once

	queued  atomic.Int64
	running atomic.Int64
	done    atomic.Int64
}

type jobSlot struct {
	job   Job
	state atomic.Int32
}

func (s *jobSlot) setState(st State) { s.state.Store(int32(st)) }

// State reports a submitted Job's current lifecycle state. Safe to poll
// from any goroutine.
func (s *jobSlot) State() State { return State(s.state.Load()) }
