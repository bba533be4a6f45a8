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

	libpol "github.com/nabbar/beng-proxy/pool"
)

// Sink is a terminal Handler: it has no downstream of its own, it simply
// accumulates or discards what a Stream delivers to it.
type Sink interface {
	Handler
	// Bytes returns whatever the sink has accumulated so far, or nil for
	// sinks that discard (NullSink) or that do not buffer in memory
	// (FdSink).
	Bytes() []byte
	// Done reports whether OnEnd or OnErr has already been observed.
	Done() bool
	Err() error
}

// StringSink accumulates a pool-owned copy of every delivered span — used
// when a handler (e.g. a cache insert) needs the whole body as one string
// once the stream ends.
type StringSink struct {
	pool libpol.Allocator
	buf  []byte
	done bool
	err  error
}

func NewStringSink(p libpol.Allocator) *StringSink { return &StringSink{pool: p} }

func (s *StringSink) OnData(b []byte) (int, error) {
	if s.pool != nil {
		s.buf = append(s.buf, s.pool.Malloc(len(b))...)
		copy(s.buf[len(s.buf)-len(b):], b)
	} else {
		s.buf = append(s.buf, b...)
	}
	return len(b), nil
}
func (s *StringSink) OnDirect(fd int, k DirectMask, m int64) (int64, error) { return 0, nil }
func (s *StringSink) OnEnd()                                                 { s.done = true }
func (s *StringSink) OnErr(err error)                                        { s.done = true; s.err = err }
func (s *StringSink) Bytes() []byte                                          { return s.buf }
func (s *StringSink) Done() bool                                             { return s.done }
func (s *StringSink) Err() error                                             { return s.err }

// RubberSink is a StringSink with a hard ceiling (the "rubber" cache
// buffer in the original allocator's terminology): once the ceiling is
// exceeded, the sink stops accumulating and reports overflow, letting a
// cache insert fall back to skipping the entry instead of growing
// unbounded for an oversized response.
type RubberSink struct {
	StringSink
	max      int
	overflow bool
}

func NewRubberSink(p libpol.Allocator, max int) *RubberSink {
	return &RubberSink{StringSink: StringSink{pool: p}, max: max}
}

func (s *RubberSink) OnData(b []byte) (int, error) {
	if s.overflow {
		return len(b), nil
	}
	if len(s.buf)+len(b) > s.max {
		s.overflow = true
		return len(b), nil
	}
	return s.StringSink.OnData(b)
}

func (s *RubberSink) Overflowed() bool { return s.overflow }

// FdSink writes every delivered span straight to an *os.File, accepting
// OnDirect zero-copy transfers when the underlying platform supports
// splice between the source fd and this file's fd.
type FdSink struct {
	f    *os.File
	done bool
	err  error
}

func NewFdSink(f *os.File) *FdSink { return &FdSink{f: f} }

func (s *FdSink) OnData(b []byte) (int, error) { return s.f.Write(b) }
func (s *FdSink) OnDirect(fd int, k DirectMask, m int64) (int64, error) {
	n, ok, err := TryDirect(int(s.f.Fd()), fd, m)
	if !ok {
		return 0, nil
	}
	return n, err
}
func (s *FdSink) OnEnd()            { s.done = true }
func (s *FdSink) OnErr(err error)   { s.done = true; s.err = err }
func (s *FdSink) Bytes() []byte     { return nil }
func (s *FdSink) Done() bool        { return s.done }
func (s *FdSink) Err() error        { return s.err }

// NullSink discards everything.
type NullSink struct {
	done bool
	err  error
}

func NewNullSink() *NullSink { return &NullSink{} }

func (s *NullSink) OnData(b []byte) (int, error)                     { return len(b), nil }
func (s *NullSink) OnDirect(fd int, k DirectMask, m int64) (int64, error) { return m, nil }
func (s *NullSink) OnEnd()                                           { s.done = true }
func (s *NullSink) OnErr(err error)                                  { s.done = true; s.err = err }
func (s *NullSink) Bytes() []byte                                    { return nil }
func (s *NullSink) Done() bool                                       { return s.done }
func (s *NullSink) Err() error                                       { return s.err }

// GrowingBufferSink accumulates into a plain Go slice with geometric
// growth — used for cases where a pool allocator is not in scope (e.g.
// assembling an admin-API response body).
type GrowingBufferSink struct {
	buf  []byte
	done bool
	err  error
}

func NewGrowingBufferSink() *GrowingBufferSink { return &GrowingBufferSink{} }

func (s *GrowingBufferSink) OnData(b []byte) (int, error) {
	s.buf = append(s.buf, b...)
	return len(b), nil
}
func (s *GrowingBufferSink) OnDirect(fd int, k DirectMask, m int64) (int64, error) { return 0, nil }
func (s *GrowingBufferSink) OnEnd()          { s.done = true }
func (s *GrowingBufferSink) OnErr(err error) { s.done = true; s.err = err }
func (s *GrowingBufferSink) Bytes() []byte   { return s.buf }
func (s *GrowingBufferSink) Done() bool      { return s.done }
func (s *GrowingBufferSink) Err() error      { return s.err }

// FifoBufferSink is a bounded ring buffer sink: once full, the oldest
// bytes are dropped to make room for new ones — used for the Trace
// filter's companion "last N bytes on error" diagnostic capture.
type FifoBufferSink struct {
	buf  []byte
	cap  int
	done bool
	err  error
}

func NewFifoBufferSink(capacity int) *FifoBufferSink {
	return &FifoBufferSink{cap: capacity}
}

func (s *FifoBufferSink) OnData(b []byte) (int, error) {
	s.buf = append(s.buf, b...)
	if len(s.buf) > s.cap {
		s.buf = s.buf[len(s.buf)-s.cap:]
	}
	return len(b), nil
}
func (s *FifoBufferSink) OnDirect(fd int, k DirectMask, m int64) (int64, error) { return 0, nil }
func (s *FifoBufferSink) OnEnd()          { s.done = true }
func (s *FifoBufferSink) OnErr(err error) { s.done = true; s.err = err }
func (s *FifoBufferSink) Bytes() []byte   { return s.buf }
func (s *FifoBufferSink) Done() bool      { return s.done }
func (s *FifoBufferSink) Err() error      { return s.err }
