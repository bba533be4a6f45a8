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

import "time"

// chunkedBy wraps inner so each OnData delivery is split into spans of at
// most n bytes — the mechanism behind both Byte (n=1) and Four (n=4),
// used by tests and protocol fuzzers that want to exercise a handler's
// partial-consumption path deterministically.
func chunkedBy(inner Stream, n int) Stream {
	return &chunkByFilter{inner: inner, n: n}
}

// Byte feeds the wrapped stream's data to the handler one byte at a time.
func Byte(inner Stream) Stream { return chunkedBy(inner, 1) }

// Four feeds the wrapped stream's data four bytes at a time.
func Four(inner Stream) Stream { return chunkedBy(inner, 4) }

type chunkByFilter struct {
	inner Stream
	n     int
	h     Handler
}

func (f *chunkByFilter) Len() Length            { return f.inner.Len() }
func (f *chunkByFilter) DirectMask() DirectMask { return DirectNone }
func (f *chunkByFilter) Attach(h Handler)       { f.h = h; f.inner.Attach(&chunkByHandler{f: f, next: h}) }
func (f *chunkByFilter) Pump() error            { return f.inner.Pump() }
func (f *chunkByFilter) FillBucketList(list *BucketList) error { return f.inner.FillBucketList(list) }
func (f *chunkByFilter) ConsumeBucketList(n int) error         { return f.inner.ConsumeBucketList(n) }
func (f *chunkByFilter) AsFd() (int, bool)                     { return 0, false }
func (f *chunkByFilter) State() State                          { return f.inner.State() }
func (f *chunkByFilter) Close() error                          { return f.inner.Close() }

type chunkByHandler struct {
	f    *chunkByFilter
	next Handler
}

func (h *chunkByHandler) OnData(b []byte) (int, error) {
	total := 0
	for len(b) > 0 {
		n := h.f.n
		if n > len(b) {
			n = len(b)
		}
		consumed, err := h.next.OnData(b[:n])
		total += consumed
		if err != nil {
			return total, err
		}
		if consumed < n {
			return total, nil
		}
		b = b[n:]
	}
	return total, nil
}
func (h *chunkByHandler) OnDirect(fd int, k DirectMask, m int64) (int64, error) {
	return h.next.OnDirect(fd, k, m)
}
func (h *chunkByHandler) OnEnd()          { h.next.OnEnd() }
func (h *chunkByHandler) OnErr(err error) { h.next.OnErr(err) }

// Delayed withholds the inner stream's first Pump by d before letting any
// data flow — used to reproduce a slow-backend condition in tests.
func Delayed(inner Stream, d time.Duration) Stream {
	return &delayedFilter{inner: inner, remain: d}
}

type delayedFilter struct {
	inner  Stream
	remain time.Duration
	armed  bool
}

func (f *delayedFilter) Len() Length            { return f.inner.Len() }
func (f *delayedFilter) DirectMask() DirectMask { return f.inner.DirectMask() }
func (f *delayedFilter) Attach(h Handler)       { f.inner.Attach(h) }
func (f *delayedFilter) Pump() error {
	if !f.armed {
		f.armed = true
		time.Sleep(f.remain)
	}
	return f.inner.Pump()
}
func (f *delayedFilter) FillBucketList(list *BucketList) error { return f.inner.FillBucketList(list) }
func (f *delayedFilter) ConsumeBucketList(n int) error          { return f.inner.ConsumeBucketList(n) }
func (f *delayedFilter) AsFd() (int, bool)                      { return f.inner.AsFd() }
func (f *delayedFilter) State() State                           { return f.inner.State() }
func (f *delayedFilter) Close() error                           { return f.inner.Close() }

// Later defers attaching to inner until start is invoked — the building
// block Hold is implemented on top of, exposed separately for filters
// that need to gate on an external readiness signal rather than an
// explicit release call.
func Later(inner Stream) (s Stream, start func()) {
	lf := &laterFilter{inner: inner}
	return lf, lf.start
}

type laterFilter struct {
	inner   Stream
	h       Handler
	started bool
}

func (f *laterFilter) Len() Length            { return Unknown }
func (f *laterFilter) DirectMask() DirectMask { return DirectNone }
func (f *laterFilter) Attach(h Handler)       { f.h = h }
func (f *laterFilter) Pump() error {
	if !f.started {
		return nil
	}
	return f.inner.Pump()
}
func (f *laterFilter) FillBucketList(list *BucketList) error {
	if !f.started {
		return nil
	}
	return f.inner.FillBucketList(list)
}
func (f *laterFilter) ConsumeBucketList(n int) error {
	if !f.started {
		return nil
	}
	return f.inner.ConsumeBucketList(n)
}
func (f *laterFilter) AsFd() (int, bool) { return 0, false }
func (f *laterFilter) State() State {
	if !f.started {
		return StateAttached
	}
	return f.inner.State()
}
func (f *laterFilter) Close() error { return f.inner.Close() }
func (f *laterFilter) start() {
	f.started = true
	f.inner.Attach(f.h)
}
