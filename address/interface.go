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

// Package address models a backend endpoint as a tagged union: the same
// Address value carries a Kind discriminator plus only the fields that
// kind needs, and a small algebra (Apply, RelativeTo, Expand, Check,
// SaveBase/LoadBase) lets a backend declare defaults once and have
// individual routes overlay or interpolate on top of them.
package address

// Kind discriminates which backend transport an Address targets.
type Kind uint8

const (
	// KindNone is the zero value: an unset address, valid nowhere.
	KindNone Kind = iota
	// KindLocal targets an upstream reachable over a Unix domain
	// socket (path + options).
	KindLocal
	// KindHTTP targets an upstream reachable over HTTP(S).
	KindHTTP
	// KindLHTTP targets a locally-spawned process speaking HTTP over a
	// loopback address, the child's executable recorded in
	// ScriptFilename.
	KindLHTTP
	// KindPipe targets a spawned process wired directly to the
	// request/response streams via its stdin/stdout, argv given by Argv.
	KindPipe
	// KindAJP targets an upstream speaking the AJPv13 protocol.
	KindAJP
	// KindFastCGI targets a FastCGI responder.
	KindFastCGI
	// KindCGI targets a CGI script invoked by fork+exec per request.
	KindCGI
	// KindWAS targets a WAS (Web Application Socket) worker.
	KindWAS
	// KindFile serves a static file directly off the local filesystem.
	KindFile
	// KindNFS serves a file off a mounted NFS export.
	KindNFS
)

// String renders the Kind the way it appears in configuration and logs.
func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindLocal:
		return "local"
	case KindHTTP:
		return "http"
	case KindLHTTP:
		return "lhttp"
	case KindPipe:
		return "pipe"
	case KindAJP:
		return "ajp"
	case KindFastCGI:
		return "fastcgi"
	case KindCGI:
		return "cgi"
	case KindWAS:
		return "was"
	case KindFile:
		return "file"
	case KindNFS:
		return "nfs"
	default:
		return "unknown"
	}
}

// isCGIFamily reports whether Kind is one of the script-invocation
// backends that share the ScriptFilename/ScriptName/PathInfo fields.
func (k Kind) isCGIFamily() bool {
	switch k {
	case KindCGI, KindFastCGI, KindWAS:
		return true
	default:
		return false
	}
}

// isNetworked reports whether Kind addresses a peer over Host/Port.
func (k Kind) isNetworked() bool {
	switch k {
	case KindHTTP, KindLHTTP, KindAJP, KindFastCGI, KindWAS:
		return true
	default:
		return false
	}
}

// Address is a tagged-union backend endpoint descriptor. Only the
// fields relevant to Kind are meaningful; the rest are zero. Address is
// a plain value type: copying it (including via Clone) never aliases
// mutable state with the original.
type Address struct {
	Kind Kind

	// Network-reachable backends (HTTP, LHTTP, AJP, FastCGI, WAS).
	Host string
	Port uint16

	// Local/Pipe backends.
	Path    string   // Unix domain socket path (Local)
	Options []string // socket options (Local)
	Argv    []string // argv[1:] of the spawned process (Pipe)

	// HTTP(S)/LHTTP backends.
	Scheme  string
	URLPath string

	// CGI-family backends (CGI, FastCGI, WAS).
	ScriptFilename string // local filesystem path to the script/executable
	ScriptName     string // public URI prefix the script answers under
	DocumentRoot   string
	PathInfo       string
	QueryString    string

	// File/NFS backends.
	FilePath string
}
