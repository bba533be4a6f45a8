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

package httpcodec_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	libcdc "github.com/nabbar/beng-proxy/httpcodec"
)

var _ = Describe("Parser", func() {
	It("parses a fixed-length request fed in one span", func() {
		p := libcdc.NewRequestParser()
		raw := "POST /upload HTTP/1.1\r\nHost: example.com\r\nContent-Length: 5\r\n\r\nhello"

		n, res := p.Feed([]byte(raw))
		Expect(res).To(Equal(libcdc.HeadersReady))
		Expect(n).To(BeNumerically("<", len(raw)))

		req := p.Request()
		Expect(req.Line.Method).To(Equal("POST"))
		Expect(req.Line.Target).To(Equal("/upload"))
		host, ok := req.Headers.Get("host")
		Expect(ok).To(BeTrue())
		Expect(host).To(Equal("example.com"))

		n2, res2 := p.Feed([]byte(raw)[n:])
		Expect(res2).To(Equal(libcdc.BodyChunk))
		Expect(p.BodyChunk()).To(Equal([]byte("hello")))
		Expect(n + n2).To(Equal(len(raw)))
	})

	It("resumes across split spans", func() {
		p := libcdc.NewRequestParser()
		raw := []byte("GET /a HTTP/1.1\r\nHost: x\r\n\r\n")

		var res libcdc.Result
		total := 0
		for _, chunk := range [][]byte{raw[:5], raw[5:12], raw[12:]} {
			n, r := p.Feed(chunk)
			total += n
			res = r
			if r != libcdc.NeedMore {
				break
			}
		}
		Expect(res).To(Equal(libcdc.HeadersReady))
		Expect(p.Request().Line.Target).To(Equal("/a"))
	})

	It("decodes a chunked body", func() {
		p := libcdc.NewRequestParser()
		head := "POST /x HTTP/1.1\r\nTransfer-Encoding: chunked\r\n\r\n"
		n, res := p.Feed([]byte(head))
		Expect(res).To(Equal(libcdc.HeadersReady))

		body := "5\r\nhello\r\n6\r\n world\r\n0\r\n\r\n"
		buf := []byte(head)[n:]
		buf = append(buf, []byte(body)...)

		var got []byte
		for {
			cn, cres := p.Feed(buf)
			buf = buf[cn:]
			if cres == libcdc.BodyChunk {
				got = append(got, p.BodyChunk()...)
				continue
			}
			if cres == libcdc.Done {
				break
			}
			if cres == libcdc.ProtocolError {
				Fail("unexpected protocol error: " + p.Err().Error())
			}
			if len(buf) == 0 {
				break
			}
		}
		Expect(string(got)).To(Equal("hello world"))
	})

	It("parses a response status line and headers", func() {
		p := libcdc.NewResponseParser()
		raw := "HTTP/1.1 200 OK\r\nContent-Length: 0\r\n\r\n"
		_, res := p.Feed([]byte(raw))
		Expect(res).To(Equal(libcdc.HeadersReady))
		Expect(p.Response().Line.Code).To(Equal(200))
		Expect(p.Response().Line.Reason).To(Equal("OK"))
	})

	It("reports protocol error on a malformed start line", func() {
		p := libcdc.NewRequestParser()
		_, res := p.Feed([]byte("GARBAGE\r\n"))
		Expect(res).To(Equal(libcdc.ProtocolError))
		Expect(p.Err()).To(HaveOccurred())
	})

	It("treats 204 responses as carrying no body regardless of framing", func() {
		p := libcdc.NewResponseParser()
		raw := "HTTP/1.1 204 No Content\r\n\r\n"
		_, res := p.Feed([]byte(raw))
		Expect(res).To(Equal(libcdc.HeadersReady))
	})
})

var _ = Describe("NoBodyStatus and NoBodyMethod", func() {
	It("flags 1xx, 204 and 304", func() {
		Expect(libcdc.NoBodyStatus(100)).To(BeTrue())
		Expect(libcdc.NoBodyStatus(204)).To(BeTrue())
		Expect(libcdc.NoBodyStatus(304)).To(BeTrue())
		Expect(libcdc.NoBodyStatus(200)).To(BeFalse())
	})

	It("flags HEAD and GET", func() {
		Expect(libcdc.NoBodyMethod("HEAD")).To(BeTrue())
		Expect(libcdc.NoBodyMethod("GET")).To(BeTrue())
		Expect(libcdc.NoBodyMethod("POST")).To(BeFalse())
	})
})
