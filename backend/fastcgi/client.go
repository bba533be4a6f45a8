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

// Package fastcgi implements backend.Client for the FastCGI protocol,
// reusing the stream.Fcgi STDIN record framer for the request
// body and hand-framing the remaining record types the same way.
package fastcgi

import (
	"bufio"
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

const (
	version1 = 1

	typeBeginRequest = 1
	typeAbortRequest = 2
	typeEndRequest   = 3
	typeParams       = 4
	typeStdin        = 5
	typeStdout       = 6
	typeStderr       = 7

	roleResponder = 1

	maxRecordBody = 65535
)

// Client dials a FastCGI responder (over TCP or a Unix socket) per
// request and speaks the multiplexed record protocol on request id 1.
type Client struct {
	DialTimeout time.Duration
}

// New returns a Client with the given dial timeout.
func New(dialTimeout time.Duration) *Client { return &Client{DialTimeout: dialTimeout} }

// SendRequest implements backend.Client.
func (c *Client) SendRequest(ctx context.Context, addr libadr.Address, req libbck.Request) (libbck.Response, error) {
	conn, err := c.dial(ctx, addr)
	if err != nil {
		return libbck.Response{}, &libbck.Error{Class: libbck.ErrorClassTransientNetwork, Err: err}
	}
	defer func() { _ = conn.Close() }()

	if dl, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(dl)
	}

	const reqID = 1
	if err := writeBeginRequest(conn, reqID); err != nil {
		return libbck.Response{}, &libbck.Error{Class: libbck.ErrorClassTransientNetwork, Err: err}
	}
	if err := writeParams(conn, reqID, buildParams(addr, req)); err != nil {
		return libbck.Response{}, &libbck.Error{Class: libbck.ErrorClassTransientNetwork, Err: err}
	}

	var body []byte
	if req.Body != nil {
		sink := libstm.NewGrowingBufferSink()
		fcgi := libstm.Fcgi(req.Body, reqID)
		fcgi.Attach(sink)
		if err := fcgi.Pump(); err != nil {
			return libbck.Response{}, &libbck.Error{Class: libbck.ErrorClassTransientNetwork, Err: err}
		}
		body = sink.Bytes()
	} else {
		body, _ = emptyStdin(reqID)
	}
	if _, err := conn.Write(body); err != nil {
		return libbck.Response{}, &libbck.Error{Class: libbck.ErrorClassTransientNetwork, Err: err}
	}

	return readResponse(bufio.NewReader(conn), reqID)
}

func (c *Client) dial(ctx context.Context, addr libadr.Address) (net.Conn, error) {
	d := net.Dialer{Timeout: c.DialTimeout}
	if addr.Path != "" {
		return d.DialContext(ctx, "unix", addr.Path)
	}
	return d.DialContext(ctx, "tcp", fmt.Sprintf("%s:%d", addr.Host, addr.Port))
}

func writeRecordHeader(w io.Writer, typ byte, reqID uint16, bodyLen int) error {
	h := make([]byte, 8)
	h[0] = version1
	h[1] = typ
	binary.BigEndian.PutUint16(h[2:4], reqID)
	binary.BigEndian.PutUint16(h[4:6], uint16(bodyLen))
	pad := (8 - bodyLen%8) % 8
	h[6] = byte(pad)
	_, err := w.Write(h)
	return err
}

func writeRecord(w io.Writer, typ byte, reqID uint16, body []byte) error {
	if err := writeRecordHeader(w, typ, reqID, len(body)); err != nil {
		return err
	}
	if _, err := w.Write(body); err != nil {
		return err
	}
	pad := (8 - len(body)%8) % 8
	if pad > 0 {
		if _, err := w.Write(make([]byte, pad)); err != nil {
			return err
		}
	}
	return nil
}

func writeBeginRequest(w io.Writer, reqID uint16) error {
	body := []byte{0, roleResponder, 0, 0, 0, 0, 0, 0}
	return writeRecord(w, typeBeginRequest, reqID, body)
}

func writeParams(w io.Writer, reqID uint16, params map[string]string) error {
	var buf []byte
	for k, v := range params {
		buf = appendNameValue(buf, k, v)
		if len(buf) >= maxRecordBody {
			if err := writeRecord(w, typeParams, reqID, buf[:maxRecordBody]); err != nil {
				return err
			}
			buf = buf[maxRecordBody:]
		}
	}
	if err := writeRecord(w, typeParams, reqID, buf); err != nil {
		return err
	}
	return writeRecord(w, typeParams, reqID, nil) // empty PARAMS record terminates the stream
}

func appendNameValue(buf []byte, name, value string) []byte {
	buf = appendLen(buf, len(name))
	buf = appendLen(buf, len(value))
	buf = append(buf, name...)
	buf = append(buf, value...)
	return buf
}

func appendLen(buf []byte, n int) []byte {
	if n < 128 {
		return append(buf, byte(n))
	}
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, uint32(n)|0x80000000)
	return append(buf, b...)
}

func emptyStdin(reqID uint16) ([]byte, error) {
	h := make([]byte, 8)
	h[0] = version1
	h[1] = typeStdin
	binary.BigEndian.PutUint16(h[2:4], reqID)
	return h, nil
}

func buildParams(addr libadr.Address, req libbck.Request) map[string]string {
	addr = addr.AutoBase()
	p := map[string]string{
		"GATEWAY_INTERFACE": "CGI/1.1",
		"SERVER_PROTOCOL":   "HTTP/1.1",
		"REQUEST_METHOD":    req.Method,
		"SCRIPT_FILENAME":   addr.ScriptFilename,
		"DOCUMENT_ROOT":     addr.DocumentRoot,
		"PATH_INFO":         addr.PathInfo,
		"QUERY_STRING":      addr.QueryString,
		"REMOTE_ADDR":       req.RemoteAddr,
		"REQUEST_URI":       req.Target,
	}
	for _, h := range req.Headers {
		key := "HTTP_" + headerEnvName(h.Name)
		if existing, ok := p[key]; ok {
			p[key] = existing + ", " + h.Value
		} else {
			p[key] = h.Value
		}
	}
	return p
}

func headerEnvName(name string) string {
	out := make([]byte, len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z':
			out[i] = c - 'a' + 'A'
		case c == '-':
			out[i] = '_'
		default:
			out[i] = c
		}
	}
	return string(out)
}

func readResponse(r *bufio.Reader, wantReqID uint16) (libbck.Response, error) {
	var stdout, stderr []byte

	for {
		typ, reqID, body, err := readRecord(r)
		if err != nil {
			return libbck.Response{}, &libbck.Error{Class: libbck.ErrorClassTransientNetwork, Err: err}
		}
		if reqID != wantReqID {
			continue
		}
		switch typ {
		case typeStdout:
			stdout = append(stdout, body...)
		case typeStderr:
			stderr = append(stderr, body...)
		case typeEndRequest:
			_ = stderr
			return parseCGIOutput(stdout)
		}
	}
}

func readRecord(r *bufio.Reader) (typ byte, reqID uint16, body []byte, err error) {
	h := make([]byte, 8)
	if _, err = io.ReadFull(r, h); err != nil {
		return 0, 0, nil, err
	}
	typ = h[1]
	reqID = binary.BigEndian.Uint16(h[2:4])
	bodyLen := binary.BigEndian.Uint16(h[4:6])
	pad := h[6]

	body = make([]byte, bodyLen)
	if _, err = io.ReadFull(r, body); err != nil {
		return 0, 0, nil, err
	}
	if pad > 0 {
		if _, err = io.CopyN(io.Discard, r, int64(pad)); err != nil {
			return 0, 0, nil, err
		}
	}
	return typ, reqID, body, nil
}

// parseCGIOutput splits the CGI-style "Header: value\r\n...\r\n\r\nbody"
// stream a FastCGI responder emits on stdout into a backend.Response,
// defaulting to 200 when no explicit Status header is present.
func parseCGIOutput(raw []byte) (libbck.Response, error) {
	p := libcdc.NewResponseParser()
	// FastCGI output has no status line; synthesize one so the shared
	// resumable parser can be reused for header framing.
	synth := append([]byte("HTTP/1.1 200 OK\r\n"), raw...)

	var headers libcdc.Headers
	var bodyStart int
	total := 0
	for {
		n, res := p.Feed(synth[total:])
		total += n
		if res == libcdc.HeadersReady {
			headers = p.Response().Headers
			bodyStart = total
			break
		}
		if res == libcdc.ProtocolError {
			return libbck.Response{}, &libbck.Error{Class: libbck.ErrorClassProtocol, Err: p.Err()}
		}
		if n == 0 {
			break
		}
	}

	status := 200
	for _, h := range headers {
		if h.Name == "Status" {
			fmt.Sscanf(h.Value, "%d", &status)
		}
	}

	body := synth[bodyStart:]
	return libbck.Response{
		Status:  status,
		Headers: headers,
		Body:    libstm.Source(bytesReader(body), libstm.Length{Known: true, Exact: true, Value: int64(len(body))}),
	}, nil
}

type sliceReader struct {
	b   []byte
	pos int
}

func bytesReader(b []byte) io.Reader { return &sliceReader{b: b} }

func (r *sliceReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.b) {
		return 0, io.EOF
	}
	n := copy(p, r.b[r.pos:])
	r.pos += n
	return n, nil
}
