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

// Package was implements backend.Client for the WAS (Web Application
// Socket) protocol: a single control-socket connection carrying
// length-prefixed command packets, with the request/response bodies
// framed as DATA commands on the same socket (no separate pipes — the
// proxy side only ever sees one net.Conn per worker).
package was

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"time"

	libadr "github.com/nabbar/beng-proxy/address"
	libbck "github.com/nabbar/beng-proxy/backend"
	libcdc "github.com/nabbar/beng-proxy/httpcodec"
	libstm "github.com/nabbar/beng-proxy/stream"
)

// Command identifies a WAS control packet.
type Command uint8

const (
	CmdNop Command = iota
	CmdRequest
	CmdMethod
	CmdURI
	CmdScriptName
	CmdPathInfo
	CmdQueryString
	CmdHeader
	CmdParameter
	CmdStatus
	CmdNoData
	CmdData
	CmdLength
	CmdStop
	CmdPremature
)

// phase is the client-side state machine driving one WAS exchange.
type phase uint8

const (
	phaseRequestBodyActive phase = iota
	phaseAwaitingStatus
	phaseHeaders
	phaseBody
	phaseDone
	phaseAwaitingStopAck // PENDING substate after sending STOP
)

// Client speaks the WAS protocol over one dialed connection per
// request.
type Client struct {
	DialTimeout time.Duration
}

// New returns a Client with the given dial timeout.
func New(dialTimeout time.Duration) *Client { return &Client{DialTimeout: dialTimeout} }

// SendRequest implements backend.Client.
func (c *Client) SendRequest(ctx context.Context, addr libadr.Address, req libbck.Request) (libbck.Response, error) {
	d := net.Dialer{Timeout: c.DialTimeout}
	var conn net.Conn
	var err error
	if addr.Path != "" {
		conn, err = d.DialContext(ctx, "unix", addr.Path)
	} else {
		conn, err = d.DialContext(ctx, "tcp", fmt.Sprintf("%s:%d", addr.Host, addr.Port))
	}
	if err != nil {
		return libbck.Response{}, &libbck.Error{Class: libbck.ErrorClassTransientNetwork, Err: err}
	}
	defer func() { _ = conn.Close() }()

	if dl, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(dl)
	}

	if err := writeRequestCommands(conn, addr, req); err != nil {
		return libbck.Response{}, &libbck.Error{Class: libbck.ErrorClassTransientNetwork, Err: err}
	}

	var body []byte
	if req.Body != nil {
		sink := libstm.NewGrowingBufferSink()
		req.Body.Attach(sink)
		if err := req.Body.Pump(); err != nil {
			return libbck.Response{}, &libbck.Error{Class: libbck.ErrorClassTransientNetwork, Err: err}
		}
		body = sink.Bytes()
	}
	if len(body) > 0 {
		if err := writeCommand(conn, CmdData, body); err != nil {
			return libbck.Response{}, &libbck.Error{Class: libbck.ErrorClassTransientNetwork, Err: err}
		}
	}
	if err := writeCommand(conn, CmdNoData, nil); err != nil {
		return libbck.Response{}, &libbck.Error{Class: libbck.ErrorClassTransientNetwork, Err: err}
	}

	return runStateMachine(conn)
}

func writeRequestCommands(w io.Writer, addr libadr.Address, req libbck.Request) error {
	addr = addr.AutoBase()

	if err := writeCommand(w, CmdRequest, nil); err != nil {
		return err
	}
	if err := writeCommand(w, CmdMethod, []byte(req.Method)); err != nil {
		return err
	}
	if err := writeCommand(w, CmdURI, []byte(req.Target)); err != nil {
		return err
	}
	if err := writeCommand(w, CmdScriptName, []byte(addr.ScriptFilename)); err != nil {
		return err
	}
	if err := writeCommand(w, CmdPathInfo, []byte(addr.PathInfo)); err != nil {
		return err
	}
	if err := writeCommand(w, CmdQueryString, []byte(addr.QueryString)); err != nil {
		return err
	}
	for _, h := range req.Headers {
		if err := writeCommand(w, CmdHeader, []byte(h.Name+"\x00"+h.Value)); err != nil {
			return err
		}
	}
	return nil
}

func writeCommand(w io.Writer, cmd Command, payload []byte) error {
	head := make([]byte, 5)
	binary.BigEndian.PutUint32(head[0:4], uint32(len(payload)))
	head[4] = byte(cmd)
	if _, err := w.Write(head); err != nil {
		return err
	}
	if len(payload) == 0 {
		return nil
	}
	_, err := w.Write(payload)
	return err
}

func readCommand(r io.Reader) (Command, []byte, error) {
	head := make([]byte, 5)
	if _, err := io.ReadFull(r, head); err != nil {
		return 0, nil, err
	}
	n := binary.BigEndian.Uint32(head[0:4])
	cmd := Command(head[4])
	payload := make([]byte, n)
	if n > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			return 0, nil, err
		}
	}
	return cmd, payload, nil
}

// runStateMachine drives REQUEST_BODY_ACTIVE -> AWAITING_STATUS ->
// HEADERS -> BODY -> DONE, with a PENDING substate
// (phaseAwaitingStopAck) entered after sending STOP. A PREMATURE
// command arriving while PENDING is accepted as the STOP
// acknowledgement (the more permissive of the two orderings the
// reference server allows) rather than requiring STOP to be acked
// before PREMATURE can arrive.
func runStateMachine(conn net.Conn) (libbck.Response, error) {
	st := phaseAwaitingStatus
	resp := libbck.Response{Status: 200}
	var bodyBuf []byte
	var declaredLength int64 = -1

	for st != phaseDone {
		cmd, payload, err := readCommand(conn)
		if err != nil {
			return libbck.Response{}, &libbck.Error{Class: libbck.ErrorClassTransientNetwork, Err: err}
		}

		switch cmd {
		case CmdStatus:
			if len(payload) >= 4 {
				resp.Status = int(binary.BigEndian.Uint32(payload))
			}
			st = phaseHeaders
		case CmdHeader:
			name, value := splitNul(payload)
			resp.Headers = append(resp.Headers, libcdc.Header{Name: name, Value: value})
		case CmdData:
			bodyBuf = append(bodyBuf, payload...)
			st = phaseBody
		case CmdNoData:
			st = phaseBody
		case CmdLength:
			// declared total body length; the byte count itself still
			// arrives via CmdData/CmdNoData. Record it so a STOP/DONE
			// arriving before bodyBuf reaches this length is caught as
			// a short body instead of silently returning a truncated
			// 200 response.
			if len(payload) >= 4 {
				declaredLength = int64(binary.BigEndian.Uint32(payload))
			}
		case CmdStop:
			if st == phaseAwaitingStopAck {
				if declaredLength >= 0 && int64(len(bodyBuf)) < declaredLength {
					return libbck.Response{}, &libbck.Error{
						Class: libbck.ErrorClassProtocol,
						Err:   ErrorShortBody.Errorf(declaredLength, int64(len(bodyBuf))),
					}
				}
				st = phaseDone
			} else {
				st = phaseAwaitingStopAck
				if err := writeCommand(conn, CmdStop, nil); err != nil {
					return libbck.Response{}, &libbck.Error{Class: libbck.ErrorClassTransientNetwork, Err: err}
				}
			}
		case CmdPremature:
			// accepted in either phaseBody or phaseAwaitingStopAck: the
			// worker aborted after partial output. A declared LENGTH
			// not reached by the time PREMATURE arrives is a fatal
			// protocol error, not a valid short response.
			if declaredLength >= 0 && int64(len(bodyBuf)) < declaredLength {
				return libbck.Response{}, &libbck.Error{
					Class: libbck.ErrorClassProtocol,
					Err:   ErrorShortBody.Errorf(declaredLength, int64(len(bodyBuf))),
				}
			}
			st = phaseDone
		default:
			// CmdNop and anything else: ignore and keep reading.
		}
	}

	if declaredLength >= 0 && int64(len(bodyBuf)) < declaredLength {
		return libbck.Response{}, &libbck.Error{
			Class: libbck.ErrorClassProtocol,
			Err:   ErrorShortBody.Errorf(declaredLength, int64(len(bodyBuf))),
		}
	}

	resp.Body = libstm.Source(
		newByteReader(bodyBuf),
		libstm.Length{Known: true, Exact: true, Value: int64(len(bodyBuf))},
	)
	return resp, nil
}

func splitNul(b []byte) (string, string) {
	for i, c := range b {
		if c == 0 {
			return string(b[:i]), string(b[i+1:])
		}
	}
	return string(b), ""
}

type byteReader struct {
	b   []byte
	pos int
}

func newByteReader(b []byte) *byteReader { return &byteReader{b: b} }

func (r *byteReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.b) {
		return 0, io.EOF
	}
	n := copy(p, r.b[r.pos:])
	r.pos += n
	return n, nil
}
