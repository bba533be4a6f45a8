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

// Package fsocket wraps a non-blocking net.Conn with an input FIFO buffer
// and an optional transport Filter (TLS, HTTP/2 multiplexing), mediating
// every external operation through the filter when one is installed.
package fsocket

import (
	"io"
	"net"
)

// State is the observable lifecycle of a FilteredSocket.
type State uint8

const (
	StateConnecting State = iota
	StateReady
	StateClosed
)

// IOState is independent of State: it tracks which directions currently
// have work pending, as reported by the last poll.
type IOState uint8

const (
	IOStateNone IOState = 0
	IOStateRead IOState = 1 << iota
	IOStateWrite
	IOStateBoth = IOStateRead | IOStateWrite
)

// Handler receives data and lifecycle events from a FilteredSocket, or
// from a Filter acting on the socket's behalf.
type Handler interface {
	// OnData delivers n>=0 bytes consumed out of b.
	OnData(b []byte) (consumed int, err error)
	// OnBufferedEnd is called exactly once when EOF is observed on the
	// underlying fd (with a trivial pass-through filter, data written
	// equals data read and this fires exactly once).
	OnBufferedEnd()
	// OnErr is called at most once, on a terminal error.
	OnErr(err error)
}

// Filter mediates every external operation on a FilteredSocket once
// installed. InvokeData/InvokeWrite/InvokeEnd are the filter's callbacks
// back into the socket's owner; InternalReadBuffer/InternalConsumed give
// the filter access to the raw FIFO.
type Filter interface {
	// Init is called once, before any data flows, with a handle back to
	// the owning socket.
	Init(sock *FilteredSocket) error

	// OnData is called with ciphertext/framed bytes read off the wire;
	// the filter decodes and forwards plaintext via sock's handler.
	OnData(b []byte) (consumed int, err error)

	// Write is called with plaintext the owner wants sent; the filter
	// encodes it and writes the result to the underlying connection.
	Write(b []byte) (n int, err error)

	// InternalWrite lets the filter push protocol-internal bytes (e.g. a
	// TLS alert, an HTTP/2 SETTINGS frame) directly to the wire, bypassing
	// the plaintext Write path.
	InternalWrite(b []byte) (n int, err error)

	// IsEmpty reports whether the filter still holds buffered plaintext
	// that has not yet been delivered. A socket shutdown must not
	// finalize while this returns false.
	IsEmpty() bool

	// OnClosed is called when the owner closes the socket.
	OnClosed()

	// OnRemaining is called with any trailing bytes the filter could not
	// interpret as part of its own protocol (e.g. pipelined plaintext
	// behind a completed TLS close_notify).
	OnRemaining(b []byte)

	// OnEnd mirrors Handler.OnBufferedEnd but at the filter layer.
	OnEnd()

	// Close releases filter-owned resources.
	Close() error
}

// FilteredSocket wraps a non-blocking net.Conn with an input FIFO and an
// optional Filter. Without a filter installed, data is forwarded
// byte-for-byte between the connection and the Handler.
type FilteredSocket struct {
	conn   net.Conn
	filter Filter
	h      Handler

	state   State
	ioState IOState

	fifo []byte
}

// New wraps conn with no filter installed; data is forwarded byte for
// byte until SetFilter is called.
func New(conn net.Conn, h Handler) *FilteredSocket {
	return &FilteredSocket{conn: conn, h: h, state: StateConnecting}
}

// SetFilter installs f, calling its Init before any further data is read.
// Replacing an already-installed filter is not supported.
func (s *FilteredSocket) SetFilter(f Filter) error {
	s.filter = f
	return f.Init(s)
}

// Conn exposes the underlying connection for filters that need direct
// access (e.g. to type-assert to *tls.Conn for ConnectionState()).
func (s *FilteredSocket) Conn() net.Conn { return s.conn }

// InternalReadBuffer gives a filter read access to bytes already pulled
// off the wire but not yet consumed.
func (s *FilteredSocket) InternalReadBuffer() []byte { return s.fifo }

// InternalConsumed acknowledges n bytes of the internal FIFO as consumed
// by the filter.
func (s *FilteredSocket) InternalConsumed(n int) {
	if n >= len(s.fifo) {
		s.fifo = s.fifo[:0]
		return
	}
	s.fifo = s.fifo[n:]
}

// InvokeData is the filter's callback to deliver decoded plaintext to the
// socket's Handler.
func (s *FilteredSocket) InvokeData(b []byte) (int, error) {
	return s.h.OnData(b)
}

// InvokeEnd is the filter's callback signaling EOF to the Handler.
func (s *FilteredSocket) InvokeEnd() {
	s.h.OnBufferedEnd()
}

// State reports the socket's connection lifecycle state.
func (s *FilteredSocket) State() State { return s.state }

// IOState reports which directions currently have pending work.
func (s *FilteredSocket) IOState() IOState { return s.ioState }

const readBufSize = 16 * 1024

// Poll performs one non-blocking read/write cycle: it attempts to read
// available bytes from conn into the FIFO and hands them to the filter
// (if any) or directly to the Handler, and reports io.EOF once the
// connection is closed by the peer.
func (s *FilteredSocket) Poll() error {
	s.state = StateReady

	buf := make([]byte, readBufSize)
	n, err := s.conn.Read(buf)

	if n > 0 {
		s.fifo = append(s.fifo, buf[:n]...)
		consumed, herr := s.deliver(s.fifo)
		if herr != nil {
			s.h.OnErr(herr)
			return herr
		}
		s.InternalConsumed(consumed)
	}

	if err != nil {
		if err == io.EOF {
			if s.filter != nil && !s.filter.IsEmpty() {
				// filter still holds buffered plaintext; do not
				// finalize the shutdown yet.
				return nil
			}
			s.state = StateClosed
			if s.filter != nil {
				s.filter.OnEnd()
			} else {
				s.h.OnBufferedEnd()
			}
			return io.EOF
		}
		s.h.OnErr(err)
		return err
	}

	return nil
}

func (s *FilteredSocket) deliver(b []byte) (int, error) {
	if s.filter != nil {
		return s.filter.OnData(b)
	}
	return s.h.OnData(b)
}

// Write sends plaintext, through the filter if one is installed.
func (s *FilteredSocket) Write(b []byte) (int, error) {
	if s.filter != nil {
		return s.filter.Write(b)
	}
	return s.conn.Write(b)
}

// Close closes the filter (if any) and the underlying connection.
func (s *FilteredSocket) Close() error {
	if s.state == StateClosed {
		return nil
	}
	s.state = StateClosed

	var ferr error
	if s.filter != nil {
		s.filter.OnClosed()
		ferr = s.filter.Close()
	}
	if err := s.conn.Close(); err != nil {
		return err
	}
	return ferr
}
