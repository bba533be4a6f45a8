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
	"encoding/binary"
	"strconv"
)

// Chunked wraps inner so every delivery is framed as an HTTP/1.1 chunk:
// "<hex-size>\r\n<data>\r\n", terminated by the zero-size final chunk.
func Chunked(inner Stream) Stream {
	return &chunkedFilter{inner: inner}
}

type chunkedFilter struct {
	inner Stream
	h     Handler
}

func (f *chunkedFilter) Len() Length            { return Unknown }
func (f *chunkedFilter) DirectMask() DirectMask { return DirectNone }
func (f *chunkedFilter) Attach(h Handler) {
	f.h = h
	f.inner.Attach(&chunkedHandler{next: h})
}
func (f *chunkedFilter) Pump() error                            { return f.inner.Pump() }
func (f *chunkedFilter) FillBucketList(list *BucketList) error  { return ErrorNoFillBucketList.Errorf("Chunked") }
func (f *chunkedFilter) ConsumeBucketList(n int) error           { return f.inner.ConsumeBucketList(n) }
func (f *chunkedFilter) AsFd() (int, bool)                      { return 0, false }
func (f *chunkedFilter) State() State                           { return f.inner.State() }
func (f *chunkedFilter) Close() error                           { return f.inner.Close() }

type chunkedHandler struct {
	next Handler
}

func (h *chunkedHandler) OnData(b []byte) (int, error) {
	if len(b) == 0 {
		return 0, nil
	}
	frame := append([]byte(strconv.FormatInt(int64(len(b)), 16)+"\r\n"), b...)
	frame = append(frame, '\r', '\n')
	if _, err := h.next.OnData(frame); err != nil {
		return 0, err
	}
	return len(b), nil
}
func (h *chunkedHandler) OnDirect(fd int, k DirectMask, m int64) (int64, error) {
	return 0, ErrorNoOnDirect.Errorf("Chunked")
}
func (h *chunkedHandler) OnEnd() {
	_, _ = h.next.OnData([]byte("0\r\n\r\n"))
	h.next.OnEnd()
}
func (h *chunkedHandler) OnErr(err error) { h.next.OnErr(err) }

// DechunkMode selects whether Dechunk strips framing (Parsed, the normal
// case) or preserves the original encoded bytes alongside the decoded
// payload (Verbatim, used when a cache insert needs to store the exact
// bytes a downstream client already received).
type DechunkMode uint8

const (
	DechunkParsed DechunkMode = iota
	DechunkVerbatim
)

// Dechunk is the inverse of Chunked: it strips HTTP/1.1 chunk framing from
// inner's byte stream and delivers the decoded payload. See resumable
// parser state machine in httpcodec for the framing grammar this
// implements; this filter variant is used when a body arrives already
// wrapped in a Stream rather than through the codec's own incremental
// parse loop (e.g. re-dechunking a cached, chunked upstream response).
func Dechunk(inner Stream, mode DechunkMode) Stream {
	return &dechunkFilter{inner: inner, mode: mode, state: dechunkSize}
}

type dechunkState uint8

const (
	dechunkSize dechunkState = iota
	dechunkSizeCR
	dechunkData
	dechunkDataCR
	dechunkDataLF
	dechunkTrailer
	dechunkDone
)

type dechunkFilter struct {
	inner    Stream
	mode     DechunkMode
	h        Handler
	state    dechunkState
	sizeBuf  []byte
	remain   int64
	verbatim []byte
}

func (f *dechunkFilter) Len() Length            { return Unknown }
func (f *dechunkFilter) DirectMask() DirectMask { return DirectNone }
func (f *dechunkFilter) Attach(h Handler) {
	f.h = h
	f.inner.Attach(&dechunkHandler{f: f, next: h})
}
func (f *dechunkFilter) Pump() error                           { return f.inner.Pump() }
func (f *dechunkFilter) FillBucketList(list *BucketList) error { return ErrorNoFillBucketList.Errorf("Dechunk") }
func (f *dechunkFilter) ConsumeBucketList(n int) error          { return f.inner.ConsumeBucketList(n) }
func (f *dechunkFilter) AsFd() (int, bool)                     { return 0, false }
func (f *dechunkFilter) State() State                          { return f.inner.State() }
func (f *dechunkFilter) Close() error                          { return f.inner.Close() }

// Verbatim returns the exact encoded bytes seen so far when the filter
// was constructed with DechunkVerbatim; empty otherwise. The trailing
// CRLF of the final zero-chunk is not counted, matching this port's
// resolution of an ambiguity original upstream behavior did not document.
func (f *dechunkFilter) Verbatim() []byte { return f.verbatim }

type dechunkHandler struct {
	f    *dechunkFilter
	next Handler
}

func (h *dechunkHandler) OnData(b []byte) (int, error) {
	f := h.f
	consumed := 0

	for consumed < len(b) {
		c := b[consumed]
		if f.mode == DechunkVerbatim {
			f.verbatim = append(f.verbatim, c)
		}

		switch f.state {
		case dechunkSize:
			if c == '\r' {
				f.state = dechunkSizeCR
			} else if isHex(c) {
				f.sizeBuf = append(f.sizeBuf, c)
			}
			// chunk extensions (";...") are skipped implicitly: any
			// non-hex, non-CR byte here is simply not hex and ignored.
		case dechunkSizeCR:
			if c == '\n' {
				n, err := strconv.ParseInt(string(f.sizeBuf), 16, 64)
				if err != nil {
					return consumed, ErrorDechunkInvalidSize.Error(err)
				}
				f.sizeBuf = f.sizeBuf[:0]
				f.remain = n
				if n == 0 {
					f.state = dechunkTrailer
				} else {
					f.state = dechunkData
				}
			}
		case dechunkData:
			take := int64(len(b) - consumed)
			if take > f.remain {
				take = f.remain
			}
			if take > 0 {
				if n, err := h.next.OnData(b[consumed : consumed+int(take)]); err != nil {
					return consumed, err
				} else if n < int(take) {
					take = int64(n)
				}
			}
			consumed += int(take)
			f.remain -= take
			if f.remain == 0 {
				f.state = dechunkDataCR
			}
			continue
		case dechunkDataCR:
			if c == '\r' {
				f.state = dechunkDataLF
			}
		case dechunkDataLF:
			if c == '\n' {
				f.state = dechunkSize
			}
		case dechunkTrailer:
			if c == '\n' {
				f.state = dechunkDone
			}
		case dechunkDone:
			// trailing bytes after the terminal CRLF are not part of
			// this body; stop consuming.
			return consumed, nil
		}
		consumed++
	}

	return consumed, nil
}

func (h *dechunkHandler) OnDirect(fd int, k DirectMask, m int64) (int64, error) {
	return 0, ErrorNoOnDirect.Errorf("Dechunk")
}
func (h *dechunkHandler) OnEnd() { h.next.OnEnd() }
func (h *dechunkHandler) OnErr(err error) { h.next.OnErr(err) }

func isHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// Fcgi wraps inner's payload in FastCGI STDIN record framing (8-byte
// header, up to 65535 bytes per record, padded to a 8-byte boundary) for
// the given request id.
func Fcgi(inner Stream, requestID uint16) Stream {
	return &fcgiFilter{inner: inner, id: requestID}
}

const (
	fcgiVersion1  = 1
	fcgiTypeStdin = 5
)

type fcgiFilter struct {
	inner Stream
	id    uint16
	h     Handler
}

func (f *fcgiFilter) Len() Length            { return Unknown }
func (f *fcgiFilter) DirectMask() DirectMask { return DirectNone }
func (f *fcgiFilter) Attach(h Handler)       { f.h = h; f.inner.Attach(&fcgiHandler{f: f, next: h}) }
func (f *fcgiFilter) Pump() error            { return f.inner.Pump() }
func (f *fcgiFilter) FillBucketList(list *BucketList) error { return ErrorNoFillBucketList.Errorf("Fcgi") }
func (f *fcgiFilter) ConsumeBucketList(n int) error { return f.inner.ConsumeBucketList(n) }
func (f *fcgiFilter) AsFd() (int, bool)             { return 0, false }
func (f *fcgiFilter) State() State                  { return f.inner.State() }
func (f *fcgiFilter) Close() error                  { return f.inner.Close() }

type fcgiHandler struct {
	f    *fcgiFilter
	next Handler
}

const fcgiMaxRecord = 65535

func (h *fcgiHandler) OnData(b []byte) (int, error) {
	total := 0
	for len(b) > 0 {
		chunk := b
		if len(chunk) > fcgiMaxRecord {
			chunk = chunk[:fcgiMaxRecord]
		}
		if err := h.writeRecord(chunk); err != nil {
			return total, err
		}
		total += len(chunk)
		b = b[len(chunk):]
	}
	return total, nil
}

func (h *fcgiHandler) writeRecord(payload []byte) error {
	pad := (8 - len(payload)%8) % 8
	hdr := make([]byte, 8)
	hdr[0] = fcgiVersion1
	hdr[1] = fcgiTypeStdin
	binary.BigEndian.PutUint16(hdr[2:4], h.f.id)
	binary.BigEndian.PutUint16(hdr[4:6], uint16(len(payload)))
	hdr[6] = byte(pad)

	frame := append(hdr, payload...)
	frame = append(frame, make([]byte, pad)...)
	_, err := h.next.OnData(frame)
	return err
}

func (h *fcgiHandler) OnDirect(fd int, k DirectMask, m int64) (int64, error) {
	return 0, ErrorNoOnDirect.Errorf("Fcgi")
}
func (h *fcgiHandler) OnEnd() {
	// empty STDIN record signals end of request body
	_ = h.writeRecord(nil)
	h.next.OnEnd()
}
func (h *fcgiHandler) OnErr(err error) { h.next.OnErr(err) }
