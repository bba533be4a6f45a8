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
	"bytes"
	"compress/flate"
	"io"
	"time"

	"github.com/klauspost/compress/zlib"
)

// ErrHeadExceeded is returned by the Head filter when the wrapped stream
// tries to deliver more than the declared cap.
var ErrHeadExceeded = ErrorHeadExceeded.Error(nil)

// Head caps inner at exactly n bytes, treating any attempt to deliver more
// as a protocol error — the authoritative-length guard used in front of a
// body whose declared Content-Length must not be exceeded.
func Head(inner Stream, n int64) Stream {
	return &headFilter{inner: inner, remain: n}
}

type headFilter struct {
	inner  Stream
	remain int64
	h      Handler
}

func (f *headFilter) Len() Length { return Length{Known: true, Exact: true, Value: f.remain} }
func (f *headFilter) DirectMask() DirectMask { return f.inner.DirectMask() }
func (f *headFilter) Attach(h Handler)       { f.h = h; f.inner.Attach(&headHandler{f: f, next: h}) }
func (f *headFilter) Pump() error            { return f.inner.Pump() }
func (f *headFilter) FillBucketList(list *BucketList) error {
	tmp := NewBucketList()
	if err := f.inner.FillBucketList(tmp); err != nil {
		return err
	}
	for _, b := range tmp.Buckets() {
		if int64(len(b.Buf)) > f.remain {
			return ErrHeadExceeded
		}
		f.remain -= int64(len(b.Buf))
		list.Push(b)
	}
	list.SetMore(tmp.More())
	return nil
}
func (f *headFilter) ConsumeBucketList(n int) error { return f.inner.ConsumeBucketList(n) }
func (f *headFilter) AsFd() (int, bool)             { return f.inner.AsFd() }
func (f *headFilter) State() State                  { return f.inner.State() }
func (f *headFilter) Close() error                  { return f.inner.Close() }

type headHandler struct {
	f    *headFilter
	next Handler
}

func (h *headHandler) OnData(b []byte) (int, error) {
	if int64(len(b)) > h.f.remain {
		return 0, ErrHeadExceeded
	}
	n, err := h.next.OnData(b)
	h.f.remain -= int64(n)
	return n, err
}
func (h *headHandler) OnDirect(fd int, kind DirectMask, max int64) (int64, error) {
	if max > h.f.remain {
		max = h.f.remain
	}
	n, err := h.next.OnDirect(fd, kind, max)
	h.f.remain -= n
	return n, err
}
func (h *headHandler) OnEnd()          { h.next.OnEnd() }
func (h *headHandler) OnErr(err error) { h.next.OnErr(err) }

// Hold absorbs every delivery forever and never signals OnEnd — used to
// defer completion of a response until something else (e.g. a trailer
// computed out of band) decides to release it via its returned Release
// func.
func Hold(inner Stream) (s Stream, release func()) {
	hf := &holdFilter{inner: inner}
	return hf, hf.release
}

type holdFilter struct {
	inner   Stream
	h       Handler
	held    bool
	flushed bool
}

func (f *holdFilter) Len() Length             { return Unknown }
func (f *holdFilter) DirectMask() DirectMask  { return DirectNone }
func (f *holdFilter) Attach(h Handler)        { f.h = h }
func (f *holdFilter) Pump() error {
	if f.flushed {
		return f.inner.Pump()
	}
	f.held = true
	return nil
}
func (f *holdFilter) FillBucketList(list *BucketList) error { return nil }
func (f *holdFilter) ConsumeBucketList(n int) error         { return nil }
func (f *holdFilter) AsFd() (int, bool)                     { return 0, false }
func (f *holdFilter) State() State {
	if f.flushed {
		return f.inner.State()
	}
	return StateDraining
}
func (f *holdFilter) Close() error { return f.inner.Close() }
func (f *holdFilter) release() {
	f.flushed = true
	f.inner.Attach(f.h)
}

// Null discards everything written to it and reports zero length.
func Null() Stream { return &constFilter{length: Length{Known: true, Exact: true, Value: 0}} }

// Zero behaves like Null but advertises an unknown, effectively infinite
// stream of zero bytes — used to satisfy a handler that insists on
// reading until EOF from a placeholder body.
func Zero() Stream { return &constFilter{zero: true} }

// Block never delivers and never ends — a stream that can be attached but
// that never produces OnEnd/OnErr, used in tests that assert a handler
// does not proceed past attach.
func Block() Stream { return &constFilter{block: true} }

// Fail delivers err as a terminal error on the first Pump.
func Fail(err error) Stream { return &constFilter{err: err} }

type constFilter struct {
	length Length
	zero   bool
	block  bool
	err    error
	h      Handler
	done   bool
}

func (f *constFilter) Len() Length            { return f.length }
func (f *constFilter) DirectMask() DirectMask { return DirectNone }
func (f *constFilter) Attach(h Handler)       { f.h = h }
func (f *constFilter) Pump() error {
	if f.done {
		return io.EOF
	}
	if f.block {
		return nil
	}
	if f.err != nil {
		f.done = true
		f.h.OnErr(f.err)
		return f.err
	}
	if f.zero {
		_, _ = f.h.OnData(make([]byte, 4096))
		return nil
	}
	f.done = true
	f.h.OnEnd()
	return io.EOF
}
func (f *constFilter) FillBucketList(list *BucketList) error {
	if f.zero {
		list.Push(Bucket{Kind: BucketBuffer, Buf: make([]byte, 4096)})
		list.SetMore(true)
	}
	return nil
}
func (f *constFilter) ConsumeBucketList(n int) error { return nil }
func (f *constFilter) AsFd() (int, bool)             { return 0, false }
func (f *constFilter) State() State {
	if f.done {
		return StateEOF
	}
	return StateAttached
}
func (f *constFilter) Close() error { f.done = true; return nil }

// Catch wraps inner so that if it fails, the remainder of the stream is
// filled with spaces instead of propagating the error — used for
// best-effort logging/tee paths where a broken secondary consumer must
// not abort the primary response.
func Catch(inner Stream) Stream {
	return &catchFilter{inner: inner}
}

type catchFilter struct {
	inner  Stream
	h      Handler
	failed bool
}

func (f *catchFilter) Len() Length            { return f.inner.Len() }
func (f *catchFilter) DirectMask() DirectMask { return f.inner.DirectMask() }
func (f *catchFilter) Attach(h Handler)       { f.h = h; f.inner.Attach(&catchHandler{f: f, next: h}) }
func (f *catchFilter) Pump() error {
	if f.failed {
		_, _ = f.h.OnData(bytes.Repeat([]byte{' '}, 1))
		return nil
	}
	return f.inner.Pump()
}
func (f *catchFilter) FillBucketList(list *BucketList) error {
	if f.failed {
		list.Push(Bucket{Kind: BucketBuffer, Buf: []byte{' '}})
		return nil
	}
	return f.inner.FillBucketList(list)
}
func (f *catchFilter) ConsumeBucketList(n int) error { return f.inner.ConsumeBucketList(n) }
func (f *catchFilter) AsFd() (int, bool)             { return 0, false }
func (f *catchFilter) State() State                  { return f.inner.State() }
func (f *catchFilter) Close() error                  { return f.inner.Close() }

type catchHandler struct {
	f    *catchFilter
	next Handler
}

func (h *catchHandler) OnData(b []byte) (int, error)                     { return h.next.OnData(b) }
func (h *catchHandler) OnDirect(fd int, k DirectMask, m int64) (int64, error) { return h.next.OnDirect(fd, k, m) }
func (h *catchHandler) OnEnd()                                           { h.next.OnEnd() }
func (h *catchHandler) OnErr(err error) {
	h.f.failed = true
}

// Tee duplicates every delivery to a secondary writer in addition to the
// primary handler. When weak is true, write failures on the secondary are
// swallowed (the tee degrades to a pass-through instead of aborting the
// primary).
func Tee(inner Stream, secondary io.Writer, weak bool) Stream {
	return &teeFilter{inner: inner, w: secondary, weak: weak}
}

type teeFilter struct {
	inner Stream
	w     io.Writer
	weak  bool
	h     Handler
}

func (f *teeFilter) Len() Length            { return f.inner.Len() }
func (f *teeFilter) DirectMask() DirectMask { return DirectNone }
func (f *teeFilter) Attach(h Handler)       { f.h = h; f.inner.Attach(&teeHandler{f: f, next: h}) }
func (f *teeFilter) Pump() error            { return f.inner.Pump() }
func (f *teeFilter) FillBucketList(list *BucketList) error {
	tmp := NewBucketList()
	if err := f.inner.FillBucketList(tmp); err != nil {
		return err
	}
	for _, b := range tmp.Buckets() {
		if _, err := f.w.Write(b.Buf); err != nil && !f.weak {
			return err
		}
		list.Push(b)
	}
	list.SetMore(tmp.More())
	return nil
}
func (f *teeFilter) ConsumeBucketList(n int) error { return f.inner.ConsumeBucketList(n) }
func (f *teeFilter) AsFd() (int, bool)             { return 0, false }
func (f *teeFilter) State() State                  { return f.inner.State() }
func (f *teeFilter) Close() error                  { return f.inner.Close() }

type teeHandler struct {
	f    *teeFilter
	next Handler
}

func (h *teeHandler) OnData(b []byte) (int, error) {
	if _, err := h.f.w.Write(b); err != nil && !h.f.weak {
		return 0, err
	}
	return h.next.OnData(b)
}
func (h *teeHandler) OnDirect(fd int, k DirectMask, m int64) (int64, error) {
	return h.next.OnDirect(fd, k, m)
}
func (h *teeHandler) OnEnd()          { h.next.OnEnd() }
func (h *teeHandler) OnErr(err error) { h.next.OnErr(err) }

// Timeout arms a timer on the first Read/Pump and fails the stream with
// context.DeadlineExceeded-compatible error if d elapses before the next
// delivery.
func Timeout(inner Stream, d time.Duration) Stream {
	return &timeoutFilter{inner: inner, d: d}
}

type timeoutFilter struct {
	inner   Stream
	d       time.Duration
	armed   bool
	timer   *time.Timer
	expired bool
}

var ErrTimeout = ErrorTimeout.Error(nil)

func (f *timeoutFilter) Len() Length            { return f.inner.Len() }
func (f *timeoutFilter) DirectMask() DirectMask { return f.inner.DirectMask() }
func (f *timeoutFilter) Attach(h Handler)       { f.inner.Attach(h) }
func (f *timeoutFilter) Pump() error {
	if !f.armed {
		f.armed = true
		f.timer = time.AfterFunc(f.d, func() { f.expired = true })
	}
	if f.expired {
		return ErrTimeout
	}
	err := f.inner.Pump()
	if f.timer != nil {
		f.timer.Reset(f.d)
	}
	return err
}
func (f *timeoutFilter) FillBucketList(list *BucketList) error { return f.inner.FillBucketList(list) }
func (f *timeoutFilter) ConsumeBucketList(n int) error          { return f.inner.ConsumeBucketList(n) }
func (f *timeoutFilter) AsFd() (int, bool)                      { return f.inner.AsFd() }
func (f *timeoutFilter) State() State                           { return f.inner.State() }
func (f *timeoutFilter) Close() error {
	if f.timer != nil {
		f.timer.Stop()
	}
	return f.inner.Close()
}

// Trace logs every delivery through logf (typically a logger.Logger's
// Debug method) without altering the data.
func Trace(inner Stream, logf func(format string, args ...interface{})) Stream {
	return &traceFilter{inner: inner, logf: logf}
}

type traceFilter struct {
	inner Stream
	logf  func(string, ...interface{})
	h     Handler
}

func (f *traceFilter) Len() Length            { return f.inner.Len() }
func (f *traceFilter) DirectMask() DirectMask { return f.inner.DirectMask() }
func (f *traceFilter) Attach(h Handler)       { f.h = h; f.inner.Attach(&traceHandler{f: f, next: h}) }
func (f *traceFilter) Pump() error            { return f.inner.Pump() }
func (f *traceFilter) FillBucketList(list *BucketList) error { return f.inner.FillBucketList(list) }
func (f *traceFilter) ConsumeBucketList(n int) error          { return f.inner.ConsumeBucketList(n) }
func (f *traceFilter) AsFd() (int, bool)                      { return f.inner.AsFd() }
func (f *traceFilter) State() State                           { return f.inner.State() }
func (f *traceFilter) Close() error                           { return f.inner.Close() }

type traceHandler struct {
	f    *traceFilter
	next Handler
}

func (h *traceHandler) OnData(b []byte) (int, error) {
	h.f.logf("stream: %d bytes", len(b))
	return h.next.OnData(b)
}
func (h *traceHandler) OnDirect(fd int, k DirectMask, m int64) (int64, error) {
	h.f.logf("stream: direct transfer up to %d bytes", m)
	return h.next.OnDirect(fd, k, m)
}
func (h *traceHandler) OnEnd()          { h.f.logf("stream: end"); h.next.OnEnd() }
func (h *traceHandler) OnErr(err error) { h.f.logf("stream: error: %v", err); h.next.OnErr(err) }

// Deflate wraps inner in DEFLATE/zlib compression, grounded on the same
// klauspost/compress package the response cache uses for its overflow
// tier's own framing needs.
func Deflate(inner Stream, level int) Stream {
	return &deflateFilter{inner: inner, level: level}
}

type deflateFilter struct {
	inner Stream
	level int
	h     Handler
	buf   bytes.Buffer
	zw    *zlib.Writer
}

func (f *deflateFilter) Len() Length            { return Unknown }
func (f *deflateFilter) DirectMask() DirectMask { return DirectNone }
func (f *deflateFilter) Attach(h Handler) {
	f.h = h
	lvl := f.level
	if lvl == 0 {
		lvl = flate.DefaultCompression
	}
	f.zw, _ = zlib.NewWriterLevel(&f.buf, lvl)
	f.inner.Attach(&deflateHandler{f: f, next: h})
}
func (f *deflateFilter) Pump() error { return f.inner.Pump() }
func (f *deflateFilter) FillBucketList(list *BucketList) error {
	return ErrorNoFillBucketList.Errorf("Deflate")
}
func (f *deflateFilter) ConsumeBucketList(n int) error { return f.inner.ConsumeBucketList(n) }
func (f *deflateFilter) AsFd() (int, bool)             { return 0, false }
func (f *deflateFilter) State() State                  { return f.inner.State() }
func (f *deflateFilter) Close() error {
	if f.zw != nil {
		_ = f.zw.Close()
	}
	return f.inner.Close()
}

type deflateHandler struct {
	f    *deflateFilter
	next Handler
}

func (h *deflateHandler) OnData(b []byte) (int, error) {
	if _, err := h.f.zw.Write(b); err != nil {
		return 0, err
	}
	if out := h.f.buf.Bytes(); len(out) > 0 {
		n, err := h.next.OnData(out)
		h.f.buf.Next(n)
		return len(b), err
	}
	return len(b), nil
}
func (h *deflateHandler) OnDirect(fd int, k DirectMask, m int64) (int64, error) {
	return 0, ErrorNoOnDirect.Errorf("Deflate")
}
func (h *deflateHandler) OnEnd() {
	_ = h.f.zw.Close()
	if out := h.f.buf.Bytes(); len(out) > 0 {
		_, _ = h.next.OnData(out)
	}
	h.next.OnEnd()
}
func (h *deflateHandler) OnErr(err error) { h.next.OnErr(err) }
