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

package fsocket

import (
	"net/http"

	"golang.org/x/net/http2"
)

// HTTP2Filter multiplexes a single FilteredSocket connection as an HTTP/2
// session, standing in for the proxy's original nghttp2-backed transport
// filter: golang.org/x/net/http2 is the ecosystem's equivalent framing
// and multiplexing layer and already participates transitively wherever
// an *http.Server or *http.Transport negotiates "h2" over ALPN.
//
// This filter is installed over a TLSFilter (ALPN "h2" already
// negotiated during the handshake); it hands the connection to an
// http2.Server so existing net/http handler plumbing (the admin listener
// in ctrlbus, or a backend's reverse-proxy path) can be reused unchanged
// for HTTP/2 clients.
type HTTP2Filter struct {
	srv     *http2.Server
	handler http.Handler
	sock    *FilteredSocket
	done    bool
}

// NewHTTP2Filter prepares an HTTP/2 filter that will dispatch requests to
// handler once installed and served.
func NewHTTP2Filter(handler http.Handler) *HTTP2Filter {
	return &HTTP2Filter{srv: &http2.Server{}, handler: handler}
}

func (f *HTTP2Filter) Init(sock *FilteredSocket) error {
	f.sock = sock
	return nil
}

// Serve hands the underlying connection to the http2.Server's connection
// loop; it blocks until the HTTP/2 session ends, so callers run it inside
// the worker pool or a dedicated goroutine rather than the socket's poll
// loop.
func (f *HTTP2Filter) Serve() {
	f.srv.ServeConn(f.sock.Conn(), &http2.ServeConnOpts{Handler: f.handler})
	f.done = true
}

func (f *HTTP2Filter) OnData(b []byte) (int, error) {
	// Framing is owned entirely by http2.Server once Serve is running;
	// the poll loop should not also be reading this connection.
	return len(b), nil
}

func (f *HTTP2Filter) Write(b []byte) (int, error) {
	return f.sock.Conn().Write(b)
}

func (f *HTTP2Filter) InternalWrite(b []byte) (int, error) {
	return f.sock.Conn().Write(b)
}

func (f *HTTP2Filter) IsEmpty() bool { return f.done }

func (f *HTTP2Filter) OnClosed() {}

func (f *HTTP2Filter) OnRemaining(b []byte) {}

func (f *HTTP2Filter) OnEnd() { f.sock.InvokeEnd() }

func (f *HTTP2Filter) Close() error { return nil }
