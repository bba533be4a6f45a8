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
	"io"
)

// readBufSize is the span size used to pull data out of a wrapped
// io.Reader on each Pump call.
const readBufSize = 32 * 1024

// readerStream adapts an io.Reader into the Stream contract. It has no
// direct-transfer capability unless the reader also exposes a file
// descriptor (see fdStream).
type readerStream struct {
	r       io.Reader
	length  Length
	h       Handler
	state   State
	pending []byte
	fd      int
	hasFd   bool
}

// fdReader is implemented by *os.File and similar descriptor-backed
// readers; when r implements it, the stream advertises direct-transfer
// capability so a consumer can splice straight off the descriptor
// instead of copying through Pump/OnData.
type fdReader interface {
	Fd() uintptr
}

func newReaderStream(r io.Reader, length Length) Stream {
	s := &readerStream{r: r, length: length, state: StateUnset, fd: -1}
	if f, ok := r.(fdReader); ok {
		s.fd = int(f.Fd())
		s.hasFd = true
	}
	return s
}

func (s *readerStream) Len() Length { return s.length }

func (s *readerStream) DirectMask() DirectMask {
	if s.hasFd {
		return DirectAny
	}
	return DirectNone
}

func (s *readerStream) Attach(h Handler) {
	if s.state != StateUnset {
		panic("stream: Attach called twice")
	}
	s.h = h
	s.state = StateAttached
}

func (s *readerStream) Pump() error {
	if s.state == StateEOF || s.state == StateError || s.state == StateDestroyed {
		return io.EOF
	}

	buf := make([]byte, readBufSize)
	n, err := s.r.Read(buf)

	if n > 0 {
		s.state = StateEmitting
		consumed, herr := s.h.OnData(buf[:n])
		if herr != nil {
			s.state = StateError
			s.h.OnErr(herr)
			return herr
		}
		if consumed < n {
			// Handler did not take the whole span; retain the remainder
			// for the next Pump so the stream does not lose bytes.
			s.pending = append(s.pending, buf[consumed:n]...)
		}
	}

	if err != nil {
		if err == io.EOF {
			s.state = StateEOF
			s.h.OnEnd()
			return io.EOF
		}
		s.state = StateError
		s.h.OnErr(err)
		return err
	}

	s.state = StateDraining
	return nil
}

func (s *readerStream) FillBucketList(list *BucketList) error {
	if len(s.pending) > 0 {
		list.Push(Bucket{Kind: BucketBuffer, Buf: s.pending})
		list.SetMore(true)
		return nil
	}

	buf := make([]byte, readBufSize)
	n, err := s.r.Read(buf)
	if n > 0 {
		list.Push(Bucket{Kind: BucketBuffer, Buf: buf[:n]})
	}
	if err == io.EOF {
		list.SetMore(false)
		return nil
	}
	if err != nil {
		return err
	}
	list.SetMore(true)
	return nil
}

func (s *readerStream) ConsumeBucketList(n int) error {
	if n >= len(s.pending) {
		s.pending = s.pending[:0]
		return nil
	}
	s.pending = s.pending[n:]
	return nil
}

func (s *readerStream) AsFd() (int, bool) {
	if s.hasFd {
		return s.fd, true
	}
	return 0, false
}

func (s *readerStream) State() State { return s.state }

func (s *readerStream) Close() error {
	if s.state == StateDestroyed {
		return nil
	}
	s.state = StateDestroyed
	if c, ok := s.r.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
