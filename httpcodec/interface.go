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

// Package httpcodec implements a resumable HTTP/1.1 parser: fed arbitrary
// byte spans as they arrive off a FilteredSocket, it never blocks waiting
// for more input — it reports NeedMore and expects to be called again
// once the caller has more bytes.
package httpcodec

// Result is returned after every Feed call.
type Result uint8

const (
	// NeedMore means the parser consumed everything given to it but has
	// not reached a reportable milestone; call Feed again once more
	// bytes are available.
	NeedMore Result = iota
	// HeadersReady means the request/status line and all headers have
	// been parsed; call Request()/Status() to read them.
	HeadersReady
	// BodyChunk means a body span is available via BodyChunk().
	BodyChunk
	// Done means the message (headers + body, if any) is fully parsed.
	Done
	// ProtocolError means the input violates HTTP/1.1 framing; Err()
	// holds the reason and the parser must not be fed further.
	ProtocolError
)

// Header is a single parsed header field, keeping the original casing the
// way the wire sent it (needed for protocols like AJP/WAS that forward
// header names byte-for-byte to the backend).
type Header struct {
	Name  string
	Value string
}

// Headers is an ordered list of Header, with case-insensitive lookup.
type Headers []Header

// Get returns the first value for name (case-insensitive), and whether
// it was present at all.
func (h Headers) Get(name string) (string, bool) {
	for _, hd := range h {
		if equalFold(hd.Name, name) {
			return hd.Value, true
		}
	}
	return "", false
}

// Values returns every value for name, in encounter order — needed for
// multi-valued headers like Vary or Set-Cookie.
func (h Headers) Values(name string) []string {
	var out []string
	for _, hd := range h {
		if equalFold(hd.Name, name) {
			out = append(out, hd.Value)
		}
	}
	return out
}

func equalFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

// RequestLine is the parsed first line of an HTTP request.
type RequestLine struct {
	Method  string
	Target  string
	Version string
}

// StatusLine is the parsed first line of an HTTP response.
type StatusLine struct {
	Version string
	Code    int
	Reason  string
}

// NoBodyStatus reports whether status code forbids a response body per
// RFC 7230 §3.3.3 (1xx, 204, 304) — the codec enforces this by closing
// any attached stream before a response carrying one of these is
// dispatched.
func NoBodyStatus(code int) bool {
	if code >= 100 && code < 200 {
		return true
	}
	return code == 204 || code == 304
}

// NoBodyMethod reports whether a request of this method must not carry a
// body on the wire per this codec's enforcement policy.
func NoBodyMethod(method string) bool {
	return method == "HEAD" || method == "GET"
}
