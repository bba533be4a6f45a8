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

package fsocket_test

import (
	"net"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	libfsk "github.com/nabbar/beng-proxy/fsocket"
)

type captureHandler struct {
	data []byte
	ended bool
	err   error
}

func (h *captureHandler) OnData(b []byte) (int, error) {
	h.data = append(h.data, b...)
	return len(b), nil
}
func (h *captureHandler) OnBufferedEnd() { h.ended = true }
func (h *captureHandler) OnErr(err error) { h.err = err }

var _ = Describe("FilteredSocket", func() {
	It("forwards data byte-for-byte without a filter", func() {
		client, server := net.Pipe()
		defer client.Close()

		h := &captureHandler{}
		s := libfsk.New(server, h)

		done := make(chan struct{})
		go func() {
			_, _ = client.Write([]byte("hello"))
			client.Close()
			close(done)
		}()

		for i := 0; i < 10; i++ {
			if err := s.Poll(); err != nil {
				break
			}
		}
		<-done

		Expect(string(h.data)).To(Equal("hello"))
		Expect(h.ended).To(BeTrue())
	})

	It("reports StateClosed after Close", func() {
		client, server := net.Pipe()
		defer client.Close()

		h := &captureHandler{}
		s := libfsk.New(server, h)
		Expect(s.Close()).ToNot(HaveOccurred())
		Expect(s.State()).To(Equal(libfsk.StateClosed))
	})
})
