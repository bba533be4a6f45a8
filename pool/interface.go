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

// Package pool implements the region-allocator arena the rest of the proxy
// is built on: every connection, request and backend dispatch owns one pool,
// and the pool is released en masse instead of each allocation being freed
// one at a time.
package pool

// Kind selects the allocation strategy a Pool uses internally. The contract
// seen by callers (New/Dup/Concat/Malloc/Free) never changes across kinds.
type Kind uint8

const (
	// KindLinear bumps a cursor forward on every allocation and frees the
	// whole region at once when the pool is unreferenced. Cheapest kind;
	// the default for per-request pools.
	KindLinear Kind = iota
	// KindLibc tracks every allocation individually through the system
	// allocator so a debug build can report leaks and double-frees.
	KindLibc
	// KindTemp is the single process-wide scratch region. Only ever
	// obtained through a Lease (see TempLease) and rewound to the
	// watermark recorded when the lease was acquired.
	KindTemp
)

// Pool is a hierarchical region allocator. A Pool may have a parent; when
// the parent is unreferenced (Ref count reaches zero) none of its children
// may still be referenced — enforced by Ref/Unref bookkeeping, not by the
// Go garbage collector, since a parent's backing arena is reused, not
// merely dropped.
type Pool interface {
	// Name returns the pool's human-readable label, used in contention
	// statistics and stopwatch traces.
	Name() string

	// Major reports whether this is a "major" (one-per-connection) pool,
	// used to scope allocation-contention statistics to a meaningful unit.
	Major() bool

	// Kind reports the allocation strategy backing this pool.
	Kind() Kind

	// NewChild creates a linear child pool whose lifetime is bounded by
	// its own Ref/Unref count and, transitively, by the parent's.
	NewChild(name string) Pool

	// Ref increments the pool's reference count.
	Ref()

	// Unref decrements the reference count; at zero the pool's backing
	// arena is released and every child must already have been released
	// (violating this is a programming error surfaced via panic in debug
	// builds of the libc kind, silently ignored by the linear kind).
	Unref()

	// Malloc allocates size bytes from the pool's arena. The returned
	// slice is only valid for the lifetime of the pool.
	Malloc(size int) []byte

	// Free returns a previously-allocated span to the pool. Linear pools
	// ignore it; the libc pool uses it to detect use-after-free in debug
	// builds.
	Free(b []byte)

	// Dup copies a string into memory owned by this pool.
	Dup(s string) string

	// DupZ copies a byte span into memory owned by this pool and appends
	// a trailing NUL, mirroring the C API this pool emulates (useful when
	// handing a span to a backend client that expects a C string).
	DupZ(b []byte) []byte

	// Concat duplicates the concatenation of all given strings into one
	// pool-owned allocation.
	Concat(parts ...string) string

	// Stats returns a point-in-time snapshot of allocation counters.
	Stats() Stats
}

// Stats is a snapshot of one pool's allocation counters, exported through
// the stopwatch/metrics layer for "major" pools.
type Stats struct {
	Allocations int64
	BytesLive   int64
	BytesPeak   int64
}

// Allocator is the thin handle threaded through APIs that only need to
// duplicate strings or allocate scratch space, without needing the full
// lifecycle surface of Pool. It is always backed by a live Pool.
type Allocator interface {
	Dup(s string) string
	DupZ(b []byte) []byte
	Concat(parts ...string) string
	Malloc(size int) []byte
}
