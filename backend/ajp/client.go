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

// Package ajp implements backend.Client for the binary AJPv13 protocol
// spoken by Tomcat/JBoss workers. No library in the retrieved corpus
// implements AJP framing, so this is hand-built directly against the
// shared net.Conn plumbing, mirroring how stream.Fcgi hand-frames
// FastCGI records.
package ajp

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
	pkgPrefixOut = 0x1234 // client (proxy) -> container
	pkgPrefixIn  = 0x4142 // "AB", container -> client

	codeForwardRequest = 2
	codeSendHeaders    = 4
	codeSendBodyChunk  = 3
	codeEndResponse    = 5
	codeGetBodyChunk   = 6

	methodGet  = 2
	methodPost = 4
)

var wellKnownRequestHeaders = map[string]byte{
	"accept":          0xA0,
	"accept-charset":  0xA1,
	"accept-encoding": 0xA2,
	"accept-language": 0xA3,
	"authorization":   0xA4,
	"connection":      0xA5,
	"content-type":    0xA6,
	"content-length":  0xA7,
	"cookie":          0xA8,
	"cookie2":         0xA9,
	"host":            0xAA,
	"pragma":          0xAB,
	"referer":         0xAC,
	"user-agent":      0xAD,
}

// Client speaks AJPv13 over a freshly dialed TCP connection per
// request; production deployments would keep a connection pool, but
// the proxy's connection-reuse policy belongs to the caller, not this
// package.
type Client struct {
	DialTimeout time.Duration
}

// New returns a Client with the given dial timeout.
func New(dialTimeout time.Duration) *Client { return &Client{DialTimeout: dialTimeout} }

// SendRequest implements backend.Client.
func (c *Client) SendRequest(ctx context.Context, addr libadr.Address, req libbck.Request) (libbck.Response, error) {
	d := net.Dialer{Timeout: c.DialTimeout}
	conn, err := d.DialContext(ctx, "tcp", fmt.Sprintf("%s:%d", addr.Host, addr.Port))
	if err != nil {
		return libbck.Response{}, &libbck.Error{Class: libbck.ErrorClassTransientNetwork, Err: err}
	}
	defer func() { _ = conn.Close() }()

	if dl, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(dl)
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

	if err := writeForwardRequest(conn, addr, req, len(body)); err != nil {
		return libbck.Response{}, &libbck.Error{Class: libbck.ErrorClassTransientNetwork, Err: err}
	}

	r := bufio.NewReader(conn)
	if len(body) > 0 {
		if err := writeBodyChunk(conn, r, body); err != nil {
			return libbck.Response{}, &libbck.Error{Class: libbck.ErrorClassTransientNetwork, Err: err}
		}
	}

	return readResponse(conn, r)
}

func writeForwardRequest(w io.Writer, addr libadr.Address, req libbck.Request, contentLength int) error {
	var buf []byte

	method := byte(methodGet)
	if req.Method == "POST" || req.Method == "PUT" {
		method = methodPost
	}
	buf = append(buf, method)
	buf = appendAjpString(buf, "HTTP/1.1")
	buf = appendAjpString(buf, req.Target)
	buf = appendAjpString(buf, req.RemoteAddr)
	buf = appendAjpString(buf, "")   // remote host
	buf = appendAjpString(buf, addr.Host)
	port := make([]byte, 2)
	binary.BigEndian.PutUint16(port, addr.Port)
	buf = append(buf, port...)
	buf = append(buf, 0) // is_ssl

	headerCount := len(req.Headers)
	if contentLength > 0 {
		headerCount++
	}
	hc := make([]byte, 2)
	binary.BigEndian.PutUint16(hc, uint16(headerCount))
	buf = append(buf, hc...)

	for _, h := range req.Headers {
		buf = appendHeader(buf, h.Name, h.Value)
	}
	if contentLength > 0 {
		buf = appendHeader(buf, "content-length", fmt.Sprintf("%d", contentLength))
	}
	buf = append(buf, 0xFF) // no request attributes

	return writePacket(w, pkgPrefixOut, buf)
}

func appendHeader(buf []byte, name, value string) []byte {
	lower := make([]byte, len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		lower[i] = c
	}
	if code, ok := wellKnownRequestHeaders[string(lower)]; ok {
		buf = append(buf, 0xA0, code)
	} else {
		buf = appendAjpString(buf, name)
	}
	return appendAjpString(buf, value)
}

func appendAjpString(buf []byte, s string) []byte {
	l := make([]byte, 2)
	binary.BigEndian.PutUint16(l, uint16(len(s)))
	buf = append(buf, l...)
	buf = append(buf, s...)
	buf = append(buf, 0)
	return buf
}

func writePacket(w io.Writer, prefix uint16, payload []byte) error {
	head := make([]byte, 4)
	binary.BigEndian.PutUint16(head[0:2], prefix)
	binary.BigEndian.PutUint16(head[2:4], uint16(len(payload)))
	if _, err := w.Write(head); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

func writeBodyChunk(w io.Writer, r *bufio.Reader, body []byte) error {
	// the container announces readiness with a GET_BODY_CHUNK packet
	// before each chunk it wants; one chunk is sufficient here since
	// body was already buffered whole.
	code, payload, err := readPacket(r, pkgPrefixIn)
	if err != nil {
		return err
	}
	if code != codeGetBodyChunk {
		return ErrorUnexpectedBodyChunkAck.Errorf(code)
	}
	_ = payload

	buf := make([]byte, 0, len(body)+2)
	l := make([]byte, 2)
	binary.BigEndian.PutUint16(l, uint16(len(body)))
	buf = append(buf, l...)
	buf = append(buf, body...)
	return writePacket(w, pkgPrefixOut, buf)
}

func readPacket(r *bufio.Reader, wantPrefix uint16) (code byte, payload []byte, err error) {
	head := make([]byte, 4)
	if _, err = io.ReadFull(r, head); err != nil {
		return 0, nil, err
	}
	prefix := binary.BigEndian.Uint16(head[0:2])
	if prefix != wantPrefix {
		return 0, nil, ErrorUnexpectedPacketPrefix.Errorf(prefix)
	}
	n := binary.BigEndian.Uint16(head[2:4])
	payload = make([]byte, n)
	if _, err = io.ReadFull(r, payload); err != nil {
		return 0, nil, err
	}
	if len(payload) == 0 {
		return 0, payload, nil
	}
	return payload[0], payload[1:], nil
}

func readResponse(w io.Writer, r *bufio.Reader) (libbck.Response, error) {
	resp := libbck.Response{Status: 200}
	var bodyBuf []byte

	for {
		code, payload, err := readPacket(r, pkgPrefixIn)
		if err != nil {
			return libbck.Response{}, &libbck.Error{Class: libbck.ErrorClassTransientNetwork, Err: err}
		}

		switch code {
		case codeSendHeaders:
			status, reason, headers, perr := parseSendHeaders(payload)
			if perr != nil {
				return libbck.Response{}, &libbck.Error{Class: libbck.ErrorClassProtocol, Err: perr}
			}
			resp.Status = status
			resp.Reason = reason
			resp.Headers = headers
		case codeSendBodyChunk:
			if len(payload) < 2 {
				return libbck.Response{}, &libbck.Error{Class: libbck.ErrorClassProtocol, Err: ErrorShortBodyChunk.Error(nil)}
			}
			n := binary.BigEndian.Uint16(payload[0:2])
			end := 2 + int(n)
			if end > len(payload) {
				end = len(payload)
			}
			bodyBuf = append(bodyBuf, payload[2:end]...)
		case codeEndResponse:
			resp.Body = libstm.Source(
				newByteReader(bodyBuf),
				libstm.Length{Known: true, Exact: true, Value: int64(len(bodyBuf))},
			)
			return resp, nil
		case codeGetBodyChunk:
			// container asking for more body after we already sent
			// ours whole; answer with an empty chunk to signal EOF.
			if err := writePacket(w, pkgPrefixOut, []byte{0, 0}); err != nil {
				return libbck.Response{}, &libbck.Error{Class: libbck.ErrorClassTransientNetwork, Err: err}
			}
		default:
			return libbck.Response{}, &libbck.Error{Class: libbck.ErrorClassProtocol, Err: ErrorUnexpectedPacketCode.Errorf(code)}
		}
	}
}

func parseSendHeaders(payload []byte) (status int, reason string, headers libcdc.Headers, err error) {
	if len(payload) < 2 {
		return 0, "", nil, ErrorShortSendHeaders.Error(nil)
	}
	status = int(binary.BigEndian.Uint16(payload[0:2]))
	off := 2
	reason, off, err = readAjpString(payload, off)
	if err != nil {
		return 0, "", nil, err
	}
	if off+2 > len(payload) {
		return 0, "", nil, ErrorTruncatedHeaderCount.Error(nil)
	}
	count := int(binary.BigEndian.Uint16(payload[off : off+2]))
	off += 2

	for i := 0; i < count; i++ {
		var name string
		if off+2 <= len(payload) && payload[off] == 0xA0 {
			name = responseHeaderName(payload[off+1])
			off += 2
		} else {
			name, off, err = readAjpString(payload, off)
			if err != nil {
				return 0, "", nil, err
			}
		}
		var value string
		value, off, err = readAjpString(payload, off)
		if err != nil {
			return 0, "", nil, err
		}
		headers = append(headers, libcdc.Header{Name: name, Value: value})
	}
	return status, reason, headers, nil
}

var wellKnownResponseHeaders = []string{
	"Content-Type", "Content-Language", "Content-Length", "Date", "Last-Modified",
	"Location", "Set-Cookie", "Set-Cookie2", "Servlet-Engine", "Status", "WWW-Authenticate",
}

func responseHeaderName(code byte) string {
	i := int(code) - 1
	if i >= 0 && i < len(wellKnownResponseHeaders) {
		return wellKnownResponseHeaders[i]
	}
	return fmt.Sprintf("x-ajp-header-%d", code)
}

func readAjpString(b []byte, off int) (string, int, error) {
	if off+2 > len(b) {
		return "", off, ErrorTruncatedStringLength.Error(nil)
	}
	n := int(binary.BigEndian.Uint16(b[off : off+2]))
	off += 2
	if off+n+1 > len(b) {
		return "", off, ErrorTruncatedStringBody.Error(nil)
	}
	s := string(b[off : off+n])
	return s, off + n + 1, nil
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
