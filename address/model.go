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

package address

import (
	"net"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Clone returns an independent copy of a: mutating the clone's Argv or
// Options never affects the original.
func (a Address) Clone() Address {
	out := a
	if a.Argv != nil {
		out.Argv = append([]string(nil), a.Argv...)
	}
	if a.Options != nil {
		out.Options = append([]string(nil), a.Options...)
	}
	return out
}

// Apply overlays the non-zero fields of a onto base and returns the
// merged Address; a's Kind always wins. Used when a route declares a
// partial address (e.g. just a PathInfo) against a backend's base
// address (host, port, document root).
func (a Address) Apply(base Address) Address {
	out := base
	out.Kind = a.Kind

	if a.Host != "" {
		out.Host = a.Host
	}
	if a.Port != 0 {
		out.Port = a.Port
	}
	if a.Path != "" {
		out.Path = a.Path
	}
	if a.Options != nil {
		out.Options = append([]string(nil), a.Options...)
	}
	if a.Argv != nil {
		out.Argv = append([]string(nil), a.Argv...)
	}
	if a.Scheme != "" {
		out.Scheme = a.Scheme
	}
	if a.URLPath != "" {
		out.URLPath = applyURLPath(out.URLPath, a.URLPath)
	}
	if a.ScriptFilename != "" {
		out.ScriptFilename = a.ScriptFilename
	}
	if a.ScriptName != "" {
		out.ScriptName = a.ScriptName
	}
	if a.DocumentRoot != "" {
		out.DocumentRoot = a.DocumentRoot
	}
	if a.PathInfo != "" {
		out.PathInfo = a.PathInfo
	}
	if a.QueryString != "" {
		out.QueryString = a.QueryString
	}
	if a.FilePath != "" {
		out.FilePath = a.FilePath
	}
	return out
}

// applyURLPath resolves relative against base using RFC 3986-ish
// semantics, with two local extensions: a leading "~/" strips the
// base's path info entirely (ignore base, use relative verbatim minus
// the "~" marker); a leading "/" is always anchor-absolute (ignore
// base, keep relative as-is).
func applyURLPath(base, relative string) string {
	switch {
	case strings.HasPrefix(relative, "~/"):
		return relative[1:]
	case strings.HasPrefix(relative, "/"):
		return relative
	default:
		return relative
	}
}

// pathField returns the kind-appropriate "tail" string SaveBase/LoadBase
// and IsValidBase operate on.
func (a Address) pathField() string {
	switch a.Kind {
	case KindHTTP, KindLHTTP:
		return a.URLPath
	case KindCGI, KindFastCGI, KindWAS:
		return a.PathInfo
	case KindFile, KindNFS:
		return a.FilePath
	case KindLocal, KindPipe:
		return a.Path
	default:
		return ""
	}
}

func (a Address) withPathField(s string) Address {
	out := a
	switch a.Kind {
	case KindHTTP, KindLHTTP:
		out.URLPath = s
	case KindCGI, KindFastCGI, KindWAS:
		out.PathInfo = s
	case KindFile, KindNFS:
		out.FilePath = s
	case KindLocal, KindPipe:
		out.Path = s
	}
	return out
}

// SaveBase returns a with suffix stripped from the tail of its
// kind-appropriate path field, used to normalize cache keys. ok is
// false, and the zero Address is returned, when the tail does not end
// with suffix.
func (a Address) SaveBase(suffix string) (Address, bool) {
	if suffix == "" {
		return a, true
	}
	p := a.pathField()
	if !strings.HasSuffix(p, suffix) {
		return Address{}, false
	}
	return a.withPathField(strings.TrimSuffix(p, suffix)), true
}

// LoadBase is the inverse of SaveBase: it re-attaches suffix to a's
// kind-appropriate path field.
func (a Address) LoadBase(suffix string) Address {
	return a.withPathField(a.pathField() + suffix)
}

// RelativeTo reports the fields of a that differ from base, leaving
// everything else zero — the inverse of Apply. Used when persisting a
// route's address without duplicating the backend's shared defaults.
func (a Address) RelativeTo(base Address) Address {
	out := Address{Kind: a.Kind}

	if a.Host != base.Host {
		out.Host = a.Host
	}
	if a.Port != base.Port {
		out.Port = a.Port
	}
	if a.Path != base.Path {
		out.Path = a.Path
	}
	if a.Scheme != base.Scheme {
		out.Scheme = a.Scheme
	}
	if a.URLPath != base.URLPath {
		out.URLPath = a.URLPath
	}
	if a.ScriptFilename != base.ScriptFilename {
		out.ScriptFilename = a.ScriptFilename
	}
	if a.ScriptName != base.ScriptName {
		out.ScriptName = a.ScriptName
	}
	if a.DocumentRoot != base.DocumentRoot {
		out.DocumentRoot = a.DocumentRoot
	}
	if a.PathInfo != base.PathInfo {
		out.PathInfo = a.PathInfo
	}
	if a.QueryString != base.QueryString {
		out.QueryString = a.QueryString
	}
	if a.FilePath != base.FilePath {
		out.FilePath = a.FilePath
	}
	return out
}

// Expand interpolates "${name}" placeholders appearing in the
// path-like fields (URLPath, ScriptFilename, ScriptName, PathInfo,
// FilePath) using vars, returning a new Address. Host/Port/Scheme are
// never expanded: those come from configuration, not from
// request-derived variables.
func (a Address) Expand(vars map[string]string) Address {
	out := a
	out.URLPath = expand(a.URLPath, vars)
	out.ScriptFilename = expand(a.ScriptFilename, vars)
	out.ScriptName = expand(a.ScriptName, vars)
	out.PathInfo = expand(a.PathInfo, vars)
	out.QueryString = expand(a.QueryString, vars)
	out.FilePath = expand(a.FilePath, vars)
	return out
}

// IsExpandable reports whether Expand would change any field of a —
// i.e. whether any path-like field still carries an unresolved
// "${...}" placeholder.
func (a Address) IsExpandable() bool {
	for _, s := range []string{a.URLPath, a.ScriptFilename, a.ScriptName, a.PathInfo, a.FilePath} {
		if strings.Contains(s, "${") {
			return true
		}
	}
	return false
}

func expand(s string, vars map[string]string) string {
	if s == "" || !strings.Contains(s, "${") {
		return s
	}
	var b strings.Builder
	for {
		i := strings.Index(s, "${")
		if i < 0 {
			b.WriteString(s)
			break
		}
		j := strings.Index(s[i:], "}")
		if j < 0 {
			b.WriteString(s)
			break
		}
		b.WriteString(s[:i])
		name := s[i+2 : i+j]
		if v, ok := vars[name]; ok {
			b.WriteString(v)
		}
		s = s[i+j+1:]
	}
	return b.String()
}

// AutoBase computes the largest prefix of requestURI that is also a
// valid base for a: the portion of requestURI before a.PathInfo,
// provided that portion ends in a slash. ok is false when requestURI
// does not end with a.PathInfo, or the remaining prefix isn't
// slash-terminated (and so isn't a valid base).
func (a Address) AutoBase(requestURI string) (prefix string, ok bool) {
	if !strings.HasSuffix(requestURI, a.PathInfo) {
		return "", false
	}
	prefix = strings.TrimSuffix(requestURI, a.PathInfo)
	if !strings.HasSuffix(prefix, "/") {
		return "", false
	}
	return prefix, true
}

// IsValidBase reports whether a's kind-appropriate path field is
// usable as a base for AutoBase/Apply purposes: non-empty and
// slash-terminated.
func (a Address) IsValidBase() bool {
	p := a.pathField()
	return p != "" && strings.HasSuffix(p, "/")
}

// HasQueryString reports whether a carries a non-empty query string.
func (a Address) HasQueryString() bool {
	return a.QueryString != ""
}

// GetHostAndPort renders "host:port" for networked kinds, or "" for
// kinds with no host/port pair.
func (a Address) GetHostAndPort() string {
	if !a.Kind.isNetworked() || a.Host == "" {
		return ""
	}
	if a.Port == 0 {
		return a.Host
	}
	return net.JoinHostPort(a.Host, strconv.Itoa(int(a.Port)))
}

// GetUriPath renders the public URI a resolves to: URLPath(+query) for
// HTTP/LHTTP kinds, ScriptName+PathInfo(+query) for the CGI family.
func (a Address) GetUriPath() string {
	var p string
	switch a.Kind {
	case KindHTTP, KindLHTTP:
		p = a.URLPath
	case KindCGI, KindFastCGI, KindWAS:
		p = joinScriptURI(a.ScriptName, a.PathInfo)
	default:
		return ""
	}
	if a.QueryString != "" {
		p += "?" + a.QueryString
	}
	return p
}

// joinScriptURI concatenates scriptName and pathInfo, collapsing the
// slash boundary when scriptName ends with "/" and pathInfo starts
// with one (so "/bar/"+"  /foo" yields "/bar/foo", not "/bar//foo").
func joinScriptURI(scriptName, pathInfo string) string {
	if strings.HasSuffix(scriptName, "/") && strings.HasPrefix(pathInfo, "/") {
		return scriptName + pathInfo[1:]
	}
	return scriptName + pathInfo
}

// GetId returns a stable 64-bit fingerprint of the Address, used as
// the map key for failure tracking and client accounting without
// retaining the whole struct. Every attribute that affects request
// routing or response content is folded in.
func (a Address) GetId() uint64 {
	h := xxhash.New()
	_, _ = h.WriteString(a.Kind.String())
	_, _ = h.WriteString("|")
	_, _ = h.WriteString(a.Host)
	_, _ = h.WriteString("|")
	_, _ = h.WriteString(strconv.Itoa(int(a.Port)))
	_, _ = h.WriteString("|")
	_, _ = h.WriteString(a.Path)
	_, _ = h.WriteString("|")
	_, _ = h.WriteString(strings.Join(a.Options, "\x1f"))
	_, _ = h.WriteString("|")
	_, _ = h.WriteString(strings.Join(a.Argv, "\x1f"))
	_, _ = h.WriteString("|")
	_, _ = h.WriteString(a.Scheme)
	_, _ = h.WriteString("|")
	_, _ = h.WriteString(a.URLPath)
	_, _ = h.WriteString("|")
	_, _ = h.WriteString(a.ScriptFilename)
	_, _ = h.WriteString("|")
	_, _ = h.WriteString(a.ScriptName)
	_, _ = h.WriteString("|")
	_, _ = h.WriteString(a.DocumentRoot)
	_, _ = h.WriteString("|")
	_, _ = h.WriteString(a.PathInfo)
	_, _ = h.WriteString("|")
	_, _ = h.WriteString(a.QueryString)
	_, _ = h.WriteString("|")
	_, _ = h.WriteString(a.FilePath)
	return h.Sum64()
}

// Check validates that an Address carries the fields its Kind needs,
// returning a registered errors.CodeError describing the first problem
// found.
func (a Address) Check() error {
	switch a.Kind {
	case KindNone:
		return ErrorUnsetAddress.Error(nil)
	case KindHTTP:
		if a.Host == "" {
			return ErrorMissingHost.Errorf(a.Kind.String())
		}
		if a.Port == 0 {
			return ErrorMissingPort.Errorf(a.Kind.String())
		}
	case KindLHTTP:
		if a.ScriptFilename == "" {
			return ErrorMissingProcessExecutable.Errorf(a.Kind.String())
		}
		if a.Host == "" || a.Port == 0 {
			return ErrorMissingHostPortOrSocketPath.Errorf(a.Kind.String())
		}
	case KindLocal:
		if a.Path == "" {
			return ErrorMissingSocketPath.Errorf(a.Kind.String())
		}
	case KindPipe:
		if a.ScriptFilename == "" {
			return ErrorMissingExecutable.Errorf(a.Kind.String())
		}
	case KindAJP, KindFastCGI, KindWAS:
		if a.Path == "" && (a.Host == "" || a.Port == 0) {
			return ErrorMissingHostPortOrSocketPath.Errorf(a.Kind.String())
		}
		if a.Kind != KindAJP && a.ScriptFilename == "" {
			return ErrorMissingScriptFilename.Errorf(a.Kind.String())
		}
	case KindCGI:
		if a.ScriptFilename == "" {
			return ErrorMissingScriptFilename.Errorf(a.Kind.String())
		}
	case KindFile, KindNFS:
		if a.FilePath == "" {
			return ErrorMissingFilePath.Errorf(a.Kind.String())
		}
	default:
		return ErrorUnknownKind.Errorf(strconv.Itoa(int(a.Kind)))
	}
	return nil
}
