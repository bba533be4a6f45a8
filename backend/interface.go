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

// Package backend declares the contract every backend transport (HTTP,
// AJP, FastCGI, CGI, WAS, local file, NFS) implements, so the balancer
// and request pipeline can dispatch to any of them uniformly.
package backend

import (
	"context"

	libadr "github.com/nabbar/beng-proxy/address"
	libcdc "github.com/nabbar/beng-proxy/httpcodec"
	libstm "github.com/nabbar/beng-proxy/stream"
)

// Request is what the proxy sends to a backend: the client's method,
// target and headers, plus its body as a lazy Stream (nil for bodyless
// requests).
type Request struct {
	Method  string
	Target  string
	Headers libcdc.Headers
	Body    libstm.Stream

	// RemoteAddr is the original client address, forwarded by backends
	// that support it (CGI/FastCGI/WAS environment variables, AJP
	// attributes, X-Forwarded-For on HTTP).
	RemoteAddr string
}

// Response is what a backend hands back: the status it reported (or a
// synthesized one for backends that don't carry their own, like a
// static file read), headers, and a lazy body Stream.
type Response struct {
	Status  int
	Reason  string
	Headers libcdc.Headers
	Body    libstm.Stream
}

// ErrorClass groups failures the balancer treats as "try the next
// peer" from failures that should be surfaced straight to the client.
type ErrorClass uint8

const (
	// ErrorClassTransientNetwork covers connect/read timeouts and
	// reset connections — safe to retry against the same or another
	// peer.
	ErrorClassTransientNetwork ErrorClass = iota
	// ErrorClassProtocol covers malformed backend responses — not
	// safe to retry blindly since the backend may be wedged.
	ErrorClassProtocol
	// ErrorClassApplication covers a well-formed backend error
	// response (5xx) — not a transport failure at all.
	ErrorClassApplication
)

// Error wraps a backend failure with its ErrorClass so the balancer's
// failover logic doesn't need to inspect error strings.
type Error struct {
	Class ErrorClass
	Err   error
}

func (e *Error) Error() string { return e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }

// Client sends one Request to a specific backend Address and returns
// its Response, or an *Error describing why it couldn't.
type Client interface {
	SendRequest(ctx context.Context, addr libadr.Address, req Request) (Response, error)
}
