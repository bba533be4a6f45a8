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
	"context"
	"crypto/tls"
	"io"

	libcrt "github.com/nabbar/beng-proxy/certificates"
)

// TLSFilter is a Filter that terminates TLS on top of a FilteredSocket's
// raw connection, using a certificates.TLSConfig for its handshake
// parameters (cipher suites, curves, min/max version, client-auth mode).
// The CPU-bound handshake itself is expected to be offloaded to the
// worker pool by the caller before Init is invoked on the accept path.
type TLSFilter struct {
	cfg    libcrt.TLSConfig
	server bool
	sni    string

	sock *FilteredSocket
	conn *tls.Conn
	done bool
}

// NewTLSFilter creates a server-side (or client-side, if server is false)
// TLS filter. sni is the server name used both for certificate selection
// (server side) and for verification (client side).
func NewTLSFilter(cfg libcrt.TLSConfig, server bool, sni string) *TLSFilter {
	return &TLSFilter{cfg: cfg, server: server, sni: sni}
}

func (f *TLSFilter) Init(sock *FilteredSocket) error {
	f.sock = sock
	cfg := f.cfg.TlsConfig(f.sni)
	if f.server {
		f.conn = tls.Server(sock.Conn(), cfg)
	} else {
		f.conn = tls.Client(sock.Conn(), cfg)
	}
	return nil
}

// Handshake drives the TLS handshake to completion; callers on the accept
// path should run this inside the worker pool (component K) since it is
// CPU-bound and must not block the socket's poll loop.
func (f *TLSFilter) Handshake(ctx context.Context) error {
	return f.conn.HandshakeContext(ctx)
}

// ConnectionState exposes the negotiated TLS parameters (cipher suite,
// ALPN protocol, peer certificates) once the handshake has completed.
func (f *TLSFilter) ConnectionState() tls.ConnectionState {
	return f.conn.ConnectionState()
}

func (f *TLSFilter) OnData(b []byte) (int, error) {
	buf := make([]byte, len(b))
	n, err := f.conn.Read(buf)
	if n > 0 {
		if _, herr := f.sock.InvokeData(buf[:n]); herr != nil {
			return len(b), herr
		}
	}
	if err == io.EOF {
		f.done = true
		f.sock.InvokeEnd()
		return len(b), nil
	}
	return len(b), err
}

func (f *TLSFilter) Write(b []byte) (int, error) {
	return f.conn.Write(b)
}

func (f *TLSFilter) InternalWrite(b []byte) (int, error) {
	return f.conn.Write(b)
}

// IsEmpty reports false only while tls.Conn has not observed a clean
// close_notify, matching the stream-conservation invariant that a socket
// shutdown must not finalize while the filter still holds plaintext.
func (f *TLSFilter) IsEmpty() bool { return f.done }

func (f *TLSFilter) OnClosed() {}

func (f *TLSFilter) OnRemaining(b []byte) {
	if len(b) > 0 {
		_, _ = f.sock.InvokeData(b)
	}
}

func (f *TLSFilter) OnEnd() { f.sock.InvokeEnd() }

func (f *TLSFilter) Close() error {
	if f.conn == nil {
		return nil
	}
	return f.conn.Close()
}
