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
	"context"
	"time"

	libcac "github.com/nabbar/beng-proxy/cache"
	libcdc "github.com/nabbar/beng-proxy/httpcodec"
	libpol "github.com/nabbar/beng-proxy/pool"
	libstm "github.com/nabbar/beng-proxy/stream"
)

// Overflow is the spillover tier for entries evicted from the in-memory
// hot tier; nil is a valid Overflow (entries are then simply dropped
// once the hot tier forgets them).
type Overflow interface {
	Store(fp uint64, e *Entry) error
	Load(fp uint64) (*Entry, bool)
	Delete(fp uint64)
}

// Store is the fingerprinted response cache: a generic cache.Cache
// underneath (a map+ticker+expiring-item engine, keyed by uint64
// fingerprint instead of a string) fronted by the
// Fingerprint/CalcExpires/pending helpers this package adds.
type Store struct {
	pool    libpol.Allocator
	rubber  int
	hot     libcac.Cache[uint64, *Entry]
	pending *pending
	over    Overflow
}

// NewStore builds a Store backed by pool for rubber-buffer scratch
// space, capping any single tee-write at rubberMax bytes before it is
// silently discarded, and using ctx's lifetime as the hot tier's own.
// Per-entry expiry is enforced on Lookup via Entry.Expired, not the
// underlying cache's ticker (exp=0 passed to cache.New), since each
// entry carries its own CalcExpires-derived duration.
func NewStore(ctx context.Context, pool libpol.Allocator, rubberMax int, over Overflow) *Store {
	return &Store{
		pool:    pool,
		rubber:  rubberMax,
		hot:     libcac.New[uint64, *Entry](ctx, 0),
		pending: newPending(),
		over:    over,
	}
}

// Close releases the hot tier's context.
func (s *Store) Close() { _ = s.hot.Close() }

// Lookup returns the cached entry for fp if present and not expired,
// falling through to the overflow tier on a hot-tier miss.
func (s *Store) Lookup(fp uint64, now time.Time) (*Entry, bool) {
	if e, _, ok := s.hot.Load(fp); ok {
		if e.Expired(now) {
			s.hot.Delete(fp)
		} else {
			return e, true
		}
	}
	if s.over == nil {
		return nil, false
	}
	if e, ok := s.over.Load(fp); ok {
		if e.Expired(now) {
			s.over.Delete(fp)
			return nil, false
		}
		return e, true
	}
	return nil, false
}

// Join attaches the caller to fp's in-flight origin fetch if one is
// already running, or marks the caller as the builder responsible for
// calling TeeAndCommit (success) or Abort (failure/not-cacheable)
// exactly once.
func (s *Store) Join(fp uint64) (b *build, isBuilder bool) {
	return s.pending.Join(fp)
}

// Abort releases fp's pending listeners with no cached entry — used
// when the response must not be cached (past Expires, non-cacheable
// status/method, origin error). Every listener falls back to its own
// origin fetch.
func (s *Store) Abort(fp uint64, b *build, err error) {
	s.pending.Finish(fp, b, nil, err)
}

// TeeAndCommit wraps body in a RubberSink-backed stream.Tee: the
// primary consumer (the proxy's client-facing response writer, attached
// by the caller after this returns) sees every byte unchanged, while a
// second copy accumulates in a size-capped buffer. Once the returned
// stream has been fully pumped, the tee either stayed under rubberMax —
// in which case the accumulated bytes are stored as fp's entry and
// every pending listener released with it — or overflowed, in which
// case the entry is silently dropped and listeners still fall back to
// their own fetch.
func (s *Store) TeeAndCommit(fp uint64, b *build, status int, reason string, headers libcdc.Headers, body libstm.Stream, expires time.Duration, now time.Time) libstm.Stream {
	rb := libstm.NewRubberSink(s.pool, s.rubber)
	wrapped := libstm.Tee(body, &sinkWriter{sink: rb}, true)

	finalize := func() {
		var entry *Entry
		if !rb.Overflowed() {
			entry = &Entry{
				Status:  status,
				Reason:  reason,
				Headers: headers,
				Body:    append([]byte(nil), rb.Bytes()...),
				Stored:  now,
				Expires: expires,
			}
			s.hot.Store(fp, entry)
			if s.over != nil {
				_ = s.over.Store(fp, entry)
			}
		}
		s.pending.Finish(fp, b, entry, nil)
	}

	return &finalizingStream{Stream: wrapped, finalize: finalize}
}

// sinkWriter adapts a stream.Sink's OnData method to io.Writer so it can
// be used as stream.Tee's secondary destination.
type sinkWriter struct {
	sink libstm.Sink
}

func (w *sinkWriter) Write(b []byte) (int, error) { return w.sink.OnData(b) }

// finalizingStream runs finalize exactly once, right after Pump returns
// (regardless of outcome), so the tee's accumulated buffer is committed
// or discarded as soon as the wrapped stream is fully drained.
type finalizingStream struct {
	libstm.Stream
	finalize func()
	done     bool
}

func (f *finalizingStream) Pump() error {
	err := f.Stream.Pump()
	if !f.done {
		f.done = true
		f.finalize()
	}
	return err
}
