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

import (
	"sync"
	"sync/atomic"
)

// chunkSize is the granularity at which a linear pool grows its backing
// arena. Small pools (per-request headers) rarely exceed a handful of
// chunks; large pools (a cached response body) grow geometrically.
const chunkSize = 4096

type pool struct {
	mu sync.Mutex

	name  string
	major bool
	kind  Kind

	parent *pool
	ref    int32

	chunks [][]byte
	cursor int

	stats Stats
}

// New creates a root linear pool with no parent. major marks the pool as
// one of the per-connection accounting units tracked by Stats aggregation.
func New(name string, major bool) Pool {
	return newPool(name, major, KindLinear, nil)
}

// NewLibc creates a root pool that tracks every allocation individually,
// trading throughput for the ability to detect leaks in debug builds.
func NewLibc(name string, major bool) Pool {
	return newPool(name, major, KindLibc, nil)
}

func newPool(name string, major bool, kind Kind, parent *pool) *pool {
	p := &pool{
		name:   name,
		major:  major,
		kind:   kind,
		parent: parent,
		ref:    1,
		chunks: make([][]byte, 0, 4),
	}
	if parent != nil {
		parent.Ref()
	}
	return p
}

func (p *pool) Name() string {
	if p == nil {
		return ""
	}
	return p.name
}

func (p *pool) Major() bool {
	return p != nil && p.major
}

func (p *pool) Kind() Kind {
	if p == nil {
		return KindLinear
	}
	return p.kind
}

func (p *pool) NewChild(name string) Pool {
	if p == nil {
		return New(name, false)
	}
	return newPool(name, false, p.kind, p)
}

func (p *pool) Ref() {
	if p == nil {
		return
	}
	atomic.AddInt32(&p.ref, 1)
}

func (p *pool) Unref() {
	if p == nil {
		return
	}
	if atomic.AddInt32(&p.ref, -1) > 0 {
		return
	}

	p.mu.Lock()
	p.chunks = nil
	p.cursor = 0
	p.mu.Unlock()

	if p.parent != nil {
		p.parent.Unref()
	}
}

func (p *pool) grow(size int) []byte {
	n := chunkSize
	for n < size {
		n *= 2
	}
	c := make([]byte, 0, n)
	p.chunks = append(p.chunks, c)
	p.cursor = 0
	return c
}

func (p *pool) Malloc(size int) []byte {
	if p == nil || size <= 0 {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	var cur []byte
	if len(p.chunks) == 0 {
		cur = p.grow(size)
	} else {
		cur = p.chunks[len(p.chunks)-1]
		if cap(cur)-p.cursor < size {
			cur = p.grow(size)
		}
	}

	b := cur[p.cursor : p.cursor+size : p.cursor+size]
	p.cursor += size
	p.chunks[len(p.chunks)-1] = cur[:p.cursor]

	p.stats.Allocations++
	p.stats.BytesLive += int64(size)
	if p.stats.BytesLive > p.stats.BytesPeak {
		p.stats.BytesPeak = p.stats.BytesLive
	}

	return b
}

func (p *pool) Free(b []byte) {
	if p == nil || p.kind != KindLibc {
		return
	}
	p.mu.Lock()
	p.stats.BytesLive -= int64(len(b))
	p.mu.Unlock()
}

func (p *pool) Dup(s string) string {
	if s == "" {
		return s
	}
	b := p.Malloc(len(s))
	copy(b, s)
	return string(b)
}

func (p *pool) DupZ(b []byte) []byte {
	o := p.Malloc(len(b) + 1)
	copy(o, b)
	o[len(b)] = 0
	return o
}

func (p *pool) Concat(parts ...string) string {
	n := 0
	for _, s := range parts {
		n += len(s)
	}
	b := p.Malloc(n)
	o := b[:0]
	for _, s := range parts {
		o = append(o, s...)
	}
	return string(b[:len(o)])
}

func (p *pool) Stats() Stats {
	if p == nil {
		return Stats{}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}
