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

// Package response implements the fingerprinted, tee-written backend
// response cache: one fingerprint per (method, URI, Vary-selected
// headers) tuple, at most one concurrent origin fetch per fingerprint,
// and an overflow tier for entries too big for the in-memory rubber
// buffer.
package response

import (
	"time"

	libcdc "github.com/nabbar/beng-proxy/httpcodec"
)

// Entry is one cached response, stored whole (headers + body) since the
// proxy only caches bodies that fit inside the rubber buffer ceiling.
type Entry struct {
	Status  int
	Reason  string
	Headers libcdc.Headers
	Body    []byte
	Stored  time.Time
	Expires time.Duration
}

// Expired reports whether the entry has outlived its computed expiry.
func (e *Entry) Expired(now time.Time) bool {
	if e.Expires <= 0 {
		return false
	}
	return now.Sub(e.Stored) >= e.Expires
}
