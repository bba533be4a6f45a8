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

package response

import (
	libatm "github.com/nabbar/beng-proxy/atomic"
)

// build tracks one in-flight origin fetch: listeners block on done until
// the builder closes it, then read entry/err.
type build struct {
	done  chan struct{}
	entry *Entry
	err   error
}

// pending is the "at most one build per fingerprint" table: concurrent
// requests for the same fingerprint attach as listeners on the same
// *build instead of each fetching the origin, mirroring the shape of
// cache.Cache's own map+lock (LoadOrStore doubling as the CAS that picks
// exactly one caller as the builder).
type pending struct {
	m libatm.MapTyped[uint64, *build]
}

func newPending() *pending {
	return &pending{m: libatm.NewMapTyped[uint64, *build]()}
}

// Join either becomes the builder for fp (isBuilder true — the caller
// must call Finish once it has fetched the origin) or attaches as a
// listener to whatever build is already in flight.
func (p *pending) Join(fp uint64) (b *build, isBuilder bool) {
	nb := &build{done: make(chan struct{})}
	actual, loaded := p.m.LoadOrStore(fp, nb)
	return actual, !loaded
}

// Finish completes the build the caller started with Join, delivering
// entry/err to every attached listener and removing the pending entry
// so the next request for fp starts its own build.
func (p *pending) Finish(fp uint64, b *build, entry *Entry, err error) {
	b.entry = entry
	b.err = err
	close(b.done)
	p.m.Delete(fp)
}

// Wait blocks a listener until the builder calls Finish.
func (b *build) Wait() (*Entry, error) {
	<-b.done
	return b.entry, b.err
}
