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

package response

import (
	"path"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"

	libcdc "github.com/nabbar/beng-proxy/httpcodec"
)

// Fingerprint hashes the tuple (method, canonicalised URI, sorted subset
// of reqHeaders named by vary) the same way address.Address.GetId
// fingerprints a backend address: a streaming xxhash over '|'-delimited
// fields, so the key space never has to collide on string-index choices.
func Fingerprint(method, uri string, vary []string, reqHeaders libcdc.Headers) uint64 {
	h := xxhash.New()
	_, _ = h.WriteString(strings.ToUpper(method))
	_, _ = h.WriteString("|")
	_, _ = h.WriteString(canonicalizeURI(uri))

	names := make([]string, len(vary))
	copy(names, vary)
	sort.Strings(names)

	for _, name := range names {
		_, _ = h.WriteString("|")
		_, _ = h.WriteString(strings.ToLower(name))
		_, _ = h.WriteString("=")
		for _, v := range reqHeaders.Values(name) {
			_, _ = h.WriteString(v)
			_, _ = h.WriteString(",")
		}
	}

	return h.Sum64()
}

// canonicalizeURI cleans a path (resolving "." / ".." segments and
// collapsing repeated slashes) without touching the query string, so
// equivalent request lines fingerprint identically.
func canonicalizeURI(uri string) string {
	query := ""
	if i := strings.IndexByte(uri, '?'); i >= 0 {
		query = uri[i:]
		uri = uri[:i]
	}
	if uri == "" {
		uri = "/"
	}
	return path.Clean(uri) + query
}
