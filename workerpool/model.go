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

package workerpool

import (
	"context"

	"github.com/shirou/gopsutil/v3/cpu"
)

// defaultMaxSize caps the pool at min(16, n_cpus).
const defaultMaxSize = 16

// DefaultSize reports min(16, live CPU count), using gopsutil rather than
// runtime.NumCPU so a cgroup quota (container CPU limit) is honoured
// instead of the host's full core count.
func DefaultSize(ctx context.Context) int {
	n, err := cpu.CountsWithContext(ctx, true)
	if err != nil || n < 1 {
		n = 1
	}
	if n > defaultMaxSize {
		n = defaultMaxSize
	}
	return n
}

// New starts a Pool of size workers (at least 1). The pool's own
// goroutines live for the lifetime of ctx; cancelling ctx drains
// in-flight jobs' Run calls to completion but abandons their Done
// delivery — callers that need a clean shutdown should call Close
// instead and let ctx outlive it.
func New(ctx context.Context, size int) *Pool {
	if size < 1 {
		size = 1
	}
	p := &Pool{
		size:    size,
		queue:   make(chan *jobSlot, size*4),
		results: make(chan *jobSlot, size*4),
		closed:  make(chan struct{}),
	}
	for i := 0; i < size; i++ {
		p.wg.Add(1)
		go p.worker(ctx)
	}
	return p
}

// Size returns the number of worker goroutines.
func (p *Pool) Size() int { return p.size }

// Queued returns the number of jobs submitted but not yet picked up by a
// worker.
func (p *Pool) Queued() int64 { return p.queued.Load() }

// Running returns the number of jobs currently executing.
func (p *Pool) Running() int64 { return p.running.Load() }

// Completed returns the total number of jobs whose Run has returned.
func (p *Pool) Completed() int64 { return p.done.Load() }

// Submit enqueues a Job for execution on a worker goroutine. It never
// blocks the caller on the job's completion; returns false if the pool
// is closed or ctx is already done.
func (p *Pool) Submit(ctx context.Context, j Job) bool {
	slot := &jobSlot{job: j}
	slot.setState(StateWaiting)
	select {
	case <-p.closed:
		return false
	case <-ctx.Done():
		return false
	default:
	}
	select {
	case p.queue <- slot:
		p.queued.Add(1)
		return true
	case <-p.closed:
		return false
	case <-ctx.Done():
		return false
	}
}

// Drain delivers one completed Job's Done callback on the caller's own
// goroutine, blocking until a result is available, ctx is cancelled, or
// the pool is closed. Returns false in the latter two cases. An event
// loop calls Drain in its own poll cycle, the channel standing in for
// an eventfd-style wakeup.
func (p *Pool) Drain(ctx context.Context) bool {
	select {
	case slot, ok := <-p.results:
		if !ok {
			return false
		}
		slot.setState(StateDone)
		res, err := slot.job.(interface {
			result() (any, error)
		}).result()
		slot.job.Done(res, err)
		return true
	case <-ctx.Done():
		return false
	case <-p.closed:
		return false
	}
}

// Close stops accepting new jobs and waits for in-flight Run calls to
// finish. Already-completed results still pending a Drain are dropped.
// Close is idempotent.
func (p *Pool) Close() {
	p.once.Do(func() {
		close(p.closed)
		close(p.queue)
		p.wg.Wait()
		close(p.results)
	})
}

func (p *Pool) worker(ctx context.Context) {
	defer p.wg.Done()
	for slot := range p.queue {
		p.queued.Add(-1)
		p.running.Add(1)
		slot.setState(StateBusy)

		res, err := slot.job.Run(ctx)
		wrapped := &completedJob{Job: slot.job, res: res, err: err}
		slot.job = wrapped

		p.running.Add(-1)
		p.done.Add(1)

		select {
		case p.results <- slot:
		case <-p.closed:
			return
		}
	}
}

// completedJob carries a finished Run's outcome alongside the original
// Job so Drain can deliver Done without a second return channel.
type completedJob struct {
	Job
	res any
	err error
}

func (c *completedJob) result() (any, error) { return c.res, c.err }
