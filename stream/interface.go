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

// Package stream implements the lazy, handler-driven byte pipeline the proxy
// threads between backend clients, filters and the client-facing socket: a
// Stream never blocks its caller waiting for data, it calls back into a
// Handler as bytes, buckets or raw descriptors become available.
package stream

import "io"

// Length describes how precisely a Stream can report its remaining size.
type Length struct {
	// Known is false when the stream cannot predict its size at all
	// (e.g. a chunked-encoded body still being received).
	Known bool
	// Exact is false when Value is an upper bound rather than a promise
	// (e.g. a Content-Length header on an untrusted backend).
	Exact bool
	Value int64
}

// Unknown reports no known length.
var Unknown = Length{}

// DirectMask declares which kinds of raw descriptor a Handler accepts via
// OnDirect, letting a Stream decide whether a zero-copy transfer
// (TryDirect, splice-backed) is worth attempting before falling back to
// OnData.
type DirectMask uint8

const (
	DirectNone   DirectMask = 0
	DirectFile   DirectMask = 1 << iota
	DirectPipe
	DirectSocket
	DirectAny = DirectFile | DirectPipe | DirectSocket
)

// State is the lifecycle of a Stream, matching its attach/detach contract:
// a Stream may be attached to exactly one Handler, and once attached it
// may never be reattached elsewhere.
type State uint8

const (
	StateUnset State = iota
	StateAttached
	StateEmitting
	StateDraining
	StateEOF
	StateError
	StateDestroyed
)

// Handler receives data pushed by a Stream. Exactly one of OnData/OnDirect
// is called per delivery; OnEnd is called exactly once when the stream is
// exhausted, and OnErr exactly once if it fails — after either, the
// Stream is done calling back.
type Handler interface {
	// OnData is called with a borrowed span; the Stream guarantees it
	// stays valid until the next call into the Stream.
	OnData(b []byte) (consumed int, err error)
	// OnDirect is called when the Stream negotiated a zero-copy transfer;
	// fd is valid only for the duration of the call.
	OnDirect(fd int, kind DirectMask, max int64) (transferred int64, err error)
	// OnEnd signals exhaustion of the stream.
	OnEnd()
	// OnErr signals a terminal failure.
	OnErr(err error)
}

// Stream is a lazy, finite, non-restartable byte source driven by a single
// attached Handler.
type Stream interface {
	// Len reports the stream's best known length.
	Len() Length

	// DirectMask declares which descriptor kinds this stream can hand to
	// a Handler's OnDirect without copying.
	DirectMask() DirectMask

	// Attach binds the stream to its one and only Handler and begins
	// delivering data to it as Pump is called. Calling Attach twice on
	// the same Stream is a programming error.
	Attach(h Handler)

	// Pump drives one step of delivery: reading from the underlying
	// source and pushing it to the attached Handler via OnData/OnDirect.
	// Returns io.EOF once the stream is exhausted.
	Pump() error

	// FillBucketList appends available contiguous spans to list without
	// copying, up to the list's remaining capacity. It never blocks.
	FillBucketList(list *BucketList) error

	// ConsumeBucketList acknowledges n bytes as consumed from the spans
	// most recently returned by FillBucketList.
	ConsumeBucketList(n int) error

	// AsFd returns the underlying file descriptor if this stream is
	// directly backed by one (a file, pipe or socket), and false
	// otherwise.
	AsFd() (fd int, ok bool)

	// State reports the stream's current lifecycle state.
	State() State

	// Close releases the stream's resources. Safe to call more than
	// once.
	Close() error
}

// Source adapts an io.Reader (optionally an io.Closer) into a Stream with
// unknown direct-transfer capability — the common case for in-process
// generated bodies (e.g. error pages, cache hits read from memory).
func Source(r io.Reader, length Length) Stream {
	return newReaderStream(r, length)
}
