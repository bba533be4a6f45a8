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

package httpcodec

import (
	"strconv"

	libstm "github.com/nabbar/beng-proxy/stream"
)

// WriteRequestLine appends a request line in wire format to a
// GrowingBuffer-backed header sink, e.g. "GET /path HTTP/1.1\r\n".
func WriteRequestLine(buf *libstm.GrowingBufferSink, line RequestLine) {
	writeHeaderInto(buf, line.Method, " ", line.Target, " ", line.Version, "\r\n")
}

// WriteStatusLine appends a status line in wire format, e.g.
// "HTTP/1.1 200 OK\r\n".
func WriteStatusLine(buf *libstm.GrowingBufferSink, line StatusLine) {
	writeHeaderInto(buf, line.Version, " ", strconv.Itoa(line.Code), " ", line.Reason, "\r\n")
}

// WriteHeaders appends every header field followed by the terminating
// blank line, completing the head of an HTTP message.
func WriteHeaders(buf *libstm.GrowingBufferSink, h Headers) {
	for _, hd := range h {
		writeHeaderInto(buf, hd.Name, ": ", hd.Value, "\r\n")
	}
	writeHeaderInto(buf, "\r\n")
}

func writeHeaderInto(buf *libstm.GrowingBufferSink, parts ...string) {
	for _, p := range parts {
		_, _ = buf.OnData([]byte(p))
	}
}

// BodyFraming decides how a message's body must be framed on the wire,
// given whether its length is known in advance.
type BodyFraming uint8

const (
	// FrameContentLength writes a Content-Length header and the body
	// verbatim; used when the full length is known up front.
	FrameContentLength BodyFraming = iota
	// FrameChunked wraps the body through the Chunked stream filter;
	// used when the length is not known ahead of time and the peer
	// speaks HTTP/1.1.
	FrameChunked
)

// WrapBody returns body wrapped for the chosen framing. FrameContentLength
// callers are expected to have already written a Content-Length header
// computed from the known length and pass body through unchanged.
func WrapBody(framing BodyFraming, body libstm.Stream) libstm.Stream {
	if framing == FrameChunked {
		return libstm.Chunked(body)
	}
	return body
}
