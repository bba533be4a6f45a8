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

package pool

import "sync"

// temp is the single process-wide scratch arena used for short-lived work
// that does not deserve its own pool (e.g. formatting a header value while
// a response is being assembled). Callers never touch it directly; they
// go through a Lease, which rewinds the arena to the watermark recorded
// at acquisition once released, so nested leases nest safely as long as
// they are released in LIFO order.
var temp = &tempArena{}

type tempArena struct {
	mu     sync.Mutex
	chunks [][]byte
	cursor int
}

// Lease is a scoped checkout of the temp arena. Release must be called
// exactly once, in LIFO order relative to any lease acquired after it.
type Lease interface {
	Allocator
	Release()
}

type lease struct {
	mark   int
	chunk  int
	closed bool
}

// AcquireTempLease checks out the temp arena for the duration of a single
// scope. Use it for request-local scratch formatting that would otherwise
// need its own pool just to be discarded a few lines later.
func AcquireTempLease() Lease {
	temp.mu.Lock()
	l := &lease{chunk: len(temp.chunks)}
	if l.chunk > 0 {
		l.mark = len(temp.chunks[l.chunk-1])
	}
	temp.mu.Unlock()
	return l
}

func (l *lease) Release() {
	if l == nil || l.closed {
		return
	}
	l.closed = true

	temp.mu.Lock()
	defer temp.mu.Unlock()

	if l.chunk >= len(temp.chunks) {
		return
	}
	temp.chunks = temp.chunks[:l.chunk+1]
	temp.chunks[l.chunk] = temp.chunks[l.chunk][:l.mark]
}

func (l *lease) Malloc(size int) []byte {
	if size <= 0 {
		return nil
	}

	temp.mu.Lock()
	defer temp.mu.Unlock()

	var cur []byte
	if len(temp.chunks) == 0 {
		cur = growTemp(size)
	} else {
		cur = temp.chunks[len(temp.chunks)-1]
		if cap(cur)-len(cur) < size {
			cur = growTemp(size)
		}
	}

	n := len(cur)
	b := cur[n : n+size : n+size]
	temp.chunks[len(temp.chunks)-1] = cur[:n+size]
	return b
}

func growTemp(size int) []byte {
	n := chunkSize
	for n < size {
		n *= 2
	}
	c := make([]byte, 0, n)
	temp.chunks = append(temp.chunks, c)
	return c
}

func (l *lease) Dup(s string) string {
	if s == "" {
		return s
	}
	b := l.Malloc(len(s))
	copy(b, s)
	return string(b)
}

func (l *lease) DupZ(b []byte) []byte {
	o := l.Malloc(len(b) + 1)
	copy(o, b)
	o[len(b)] = 0
	return o
}

func (l *lease) Concat(parts ...string) string {
	n := 0
	for _, s := range parts {
		n += len(s)
	}
	b := l.Malloc(n)
	o := b[:0]
	for _, s := range parts {
		o = append(o, s...)
	}
	return string(b[:len(o)])
}
