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

package stream

import (
	"os"
	"time"
)

// Pipe forces an in-memory (stock) stream through an OS pipe so that
// downstream consumers able to accept DirectPipe can take over via
// TryDirect instead of an OnData copy — the bridge a backend client uses
// when its response body was built in memory (e.g. an error page) but the
// client-facing socket wants zero-copy delivery.
func Pipe(inner Stream) (Stream, error) {
	r, w, err := NewPipe()
	if err != nil {
		return nil, err
	}
	p := &pipeFilter{inner: inner, r: r, w: w}
	return p, nil
}

type pipeFilter struct {
	inner Stream
	r, w  int
	h     Handler
	wf    *os.File
}

func (f *pipeFilter) Len() Length            { return f.inner.Len() }
func (f *pipeFilter) DirectMask() DirectMask { return DirectPipe }
func (f *pipeFilter) Attach(h Handler) {
	f.h = h
	f.wf = os.NewFile(uintptr(f.w), "pipe-writer")
	f.inner.Attach(&pipeHandler{f: f, next: h})
}
func (f *pipeFilter) Pump() error { return f.inner.Pump() }
func (f *pipeFilter) FillBucketList(list *BucketList) error {
	return f.inner.FillBucketList(list)
}
func (f *pipeFilter) ConsumeBucketList(n int) error { return f.inner.ConsumeBucketList(n) }
func (f *pipeFilter) AsFd() (int, bool)             { return f.r, true }
func (f *pipeFilter) State() State                  { return f.inner.State() }
func (f *pipeFilter) Close() error {
	if f.wf != nil {
		_ = f.wf.Close()
	}
	return f.inner.Close()
}

type pipeHandler struct {
	f    *pipeFilter
	next Handler
}

func (h *pipeHandler) OnData(b []byte) (int, error) {
	n, err := h.f.wf.Write(b)
	if err != nil {
		return n, err
	}
	tn, terr := h.next.OnDirect(h.f.r, DirectPipe, int64(n))
	_ = tn
	return n, terr
}
func (h *pipeHandler) OnDirect(fd int, k DirectMask, m int64) (int64, error) {
	return h.next.OnDirect(fd, k, m)
}
func (h *pipeHandler) OnEnd()          { h.next.OnEnd() }
func (h *pipeHandler) OnErr(err error) { h.next.OnErr(err) }

// SocketPair hands back a connected pair of unix-domain sockets, used to
// bridge a Stream into a backend protocol that insists on owning a real
// fd (e.g. the WAS two-pipe control subprotocol's STDIN substitute).
func SocketPair() (a, b *os.File, err error) {
	ra, wa, err := NewPipe()
	if err != nil {
		return nil, nil, err
	}
	return os.NewFile(uintptr(ra), "socketpair-a"), os.NewFile(uintptr(wa), "socketpair-b"), nil
}

// Stopwatch wraps inner, timing the interval between Attach and the first
// byte (time-to-first-byte) and between Attach and OnEnd/OnErr (total),
// reporting both through record when the stream finishes. See the
// stopwatch package for the hierarchical tree this feeds.
func Stopwatch(inner Stream, record func(ttfb, total time.Duration)) Stream {
	return &stopwatchFilter{inner: inner, record: record}
}

type stopwatchFilter struct {
	inner   Stream
	record  func(ttfb, total time.Duration)
	h       Handler
	started time.Time
	first   time.Time
}

func (f *stopwatchFilter) Len() Length            { return f.inner.Len() }
func (f *stopwatchFilter) DirectMask() DirectMask { return f.inner.DirectMask() }
func (f *stopwatchFilter) Attach(h Handler) {
	f.h = h
	f.started = time.Now()
	f.inner.Attach(&stopwatchHandler{f: f, next: h})
}
func (f *stopwatchFilter) Pump() error { return f.inner.Pump() }
func (f *stopwatchFilter) FillBucketList(list *BucketList) error {
	if f.first.IsZero() {
		f.first = time.Now()
	}
	return f.inner.FillBucketList(list)
}
func (f *stopwatchFilter) ConsumeBucketList(n int) error { return f.inner.ConsumeBucketList(n) }
func (f *stopwatchFilter) AsFd() (int, bool)             { return f.inner.AsFd() }
func (f *stopwatchFilter) State() State                  { return f.inner.State() }
func (f *stopwatchFilter) Close() error                  { return f.inner.Close() }

type stopwatchHandler struct {
	f    *stopwatchFilter
	next Handler
}

func (h *stopwatchHandler) OnData(b []byte) (int, error) {
	if h.f.first.IsZero() {
		h.f.first = time.Now()
	}
	return h.next.OnData(b)
}
func (h *stopwatchHandler) OnDirect(fd int, k DirectMask, m int64) (int64, error) {
	if h.f.first.IsZero() {
		h.f.first = time.Now()
	}
	return h.next.OnDirect(fd, k, m)
}
func (h *stopwatchHandler) OnEnd() {
	h.f.finish()
	h.next.OnEnd()
}
func (h *stopwatchHandler) OnErr(err error) {
	h.f.finish()
	h.next.OnErr(err)
}

func (f *stopwatchFilter) finish() {
	if f.record == nil {
		return
	}
	ttfb := time.Duration(0)
	if !f.first.IsZero() {
		ttfb = f.first.Sub(f.started)
	}
	f.record(ttfb, time.Since(f.started))
}
