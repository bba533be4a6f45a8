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

package stream

import (
	"bytes"
	"html"
	"sort"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/transform"
)

// EscapeClass selects the escaping rules Escape applies.
type EscapeClass uint8

const (
	EscapeHTML EscapeClass = iota
	EscapeJS
)

// Escape HTML- or JS-escapes every delivered span.
func Escape(inner Stream, class EscapeClass) Stream {
	return &escapeFilter{inner: inner, class: class}
}

type escapeFilter struct {
	inner Stream
	class EscapeClass
	h     Handler
}

func (f *escapeFilter) Len() Length            { return Unknown }
func (f *escapeFilter) DirectMask() DirectMask { return DirectNone }
func (f *escapeFilter) Attach(h Handler)       { f.h = h; f.inner.Attach(&escapeHandler{f: f, next: h}) }
func (f *escapeFilter) Pump() error            { return f.inner.Pump() }
func (f *escapeFilter) FillBucketList(list *BucketList) error {
	return ErrorNoFillBucketList.Errorf("Escape")
}
func (f *escapeFilter) ConsumeBucketList(n int) error { return f.inner.ConsumeBucketList(n) }
func (f *escapeFilter) AsFd() (int, bool)             { return 0, false }
func (f *escapeFilter) State() State                  { return f.inner.State() }
func (f *escapeFilter) Close() error                  { return f.inner.Close() }

type escapeHandler struct {
	f    *escapeFilter
	next Handler
}

func (h *escapeHandler) OnData(b []byte) (int, error) {
	var out string
	switch h.f.class {
	case EscapeJS:
		out = jsEscape(string(b))
	default:
		out = html.EscapeString(string(b))
	}
	if _, err := h.next.OnData([]byte(out)); err != nil {
		return 0, err
	}
	return len(b), nil
}

func jsEscape(s string) string {
	var buf bytes.Buffer
	for _, r := range s {
		switch r {
		case '\\', '\'', '"':
			buf.WriteByte('\\')
			buf.WriteRune(r)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '<':
			buf.WriteString(`\x3C`)
		case '>':
			buf.WriteString(`\x3E`)
		default:
			buf.WriteRune(r)
		}
	}
	return buf.String()
}

func (h *escapeHandler) OnDirect(fd int, k DirectMask, m int64) (int64, error) {
	return 0, ErrorNoOnDirect.Errorf("Escape")
}
func (h *escapeHandler) OnEnd()          { h.next.OnEnd() }
func (h *escapeHandler) OnErr(err error) { h.next.OnErr(err) }

// Iconv transcodes every delivered span from one charset to another using
// golang.org/x/text's encoding registry (the ecosystem's iconv
// equivalent — stdlib has no charset-transcoding facility at all).
func Iconv(inner Stream, from, to string) (Stream, error) {
	fe, err := ianaindex.IANA.Encoding(from)
	if err != nil || fe == nil {
		return nil, ErrorIconvUnknownSourceCharset.Errorf(from)
	}
	te, err := ianaindex.IANA.Encoding(to)
	if err != nil || te == nil {
		return nil, ErrorIconvUnknownTargetCharset.Errorf(to)
	}
	return &iconvFilter{inner: inner, from: fe, to: te}, nil
}

type iconvFilter struct {
	inner Stream
	from  encoding.Encoding
	to    encoding.Encoding
	h     Handler
}

func (f *iconvFilter) Len() Length            { return Unknown }
func (f *iconvFilter) DirectMask() DirectMask { return DirectNone }
func (f *iconvFilter) Attach(h Handler)       { f.h = h; f.inner.Attach(&iconvHandler{f: f, next: h}) }
func (f *iconvFilter) Pump() error            { return f.inner.Pump() }
func (f *iconvFilter) FillBucketList(list *BucketList) error {
	return ErrorNoFillBucketList.Errorf("Iconv")
}
func (f *iconvFilter) ConsumeBucketList(n int) error { return f.inner.ConsumeBucketList(n) }
func (f *iconvFilter) AsFd() (int, bool)             { return 0, false }
func (f *iconvFilter) State() State                  { return f.inner.State() }
func (f *iconvFilter) Close() error                  { return f.inner.Close() }

type iconvHandler struct {
	f    *iconvFilter
	next Handler
}

func (h *iconvHandler) OnData(b []byte) (int, error) {
	decoded, _, err := transform.Bytes(h.f.from.NewDecoder(), b)
	if err != nil {
		return 0, ErrorIconvDecode.Error(err)
	}
	encoded, _, err := transform.Bytes(h.f.to.NewEncoder(), decoded)
	if err != nil {
		return 0, ErrorIconvEncode.Error(err)
	}
	if _, err := h.next.OnData(encoded); err != nil {
		return 0, err
	}
	return len(b), nil
}
func (h *iconvHandler) OnDirect(fd int, k DirectMask, m int64) (int64, error) {
	return 0, ErrorNoOnDirect.Errorf("Iconv")
}
func (h *iconvHandler) OnEnd()          { h.next.OnEnd() }
func (h *iconvHandler) OnErr(err error) { h.next.OnErr(err) }

// Replace applies an ordered set of byte-range edits to the stream. Ranges
// are expressed relative to the whole (conceptually concatenated) body and
// must be supplied in ascending, non-overlapping order — the shape the
// translation engine produces when rewriting absolute links found at known
// offsets during a prior scanning pass.
type ReplaceRange struct {
	Start, End int64
	With       []byte
}

func Replace(inner Stream, ranges []ReplaceRange) Stream {
	sort.Slice(ranges, func(i, j int) bool { return ranges[i].Start < ranges[j].Start })
	return &replaceFilter{inner: inner, ranges: ranges}
}

type replaceFilter struct {
	inner  Stream
	ranges []ReplaceRange
	offset int64
	h      Handler
}

func (f *replaceFilter) Len() Length            { return Unknown }
func (f *replaceFilter) DirectMask() DirectMask { return DirectNone }
func (f *replaceFilter) Attach(h Handler)       { f.h = h; f.inner.Attach(&replaceHandler{f: f, next: h}) }
func (f *replaceFilter) Pump() error            { return f.inner.Pump() }
func (f *replaceFilter) FillBucketList(list *BucketList) error {
	return ErrorNoFillBucketList.Errorf("Replace")
}
func (f *replaceFilter) ConsumeBucketList(n int) error { return f.inner.ConsumeBucketList(n) }
func (f *replaceFilter) AsFd() (int, bool)             { return 0, false }
func (f *replaceFilter) State() State                  { return f.inner.State() }
func (f *replaceFilter) Close() error                  { return f.inner.Close() }

type replaceHandler struct {
	f    *replaceFilter
	next Handler
}

func (h *replaceHandler) OnData(b []byte) (int, error) {
	f := h.f
	start := f.offset
	end := start + int64(len(b))

	var out bytes.Buffer
	pos := start
	for pos < end {
		edited := false
		for i := range f.ranges {
			r := f.ranges[i]
			if r.Start >= pos && r.Start < end {
				out.Write(b[pos-start : r.Start-start])
				out.Write(r.With)
				skip := r.End
				if skip > end {
					skip = end
				}
				pos = skip
				edited = true
				break
			}
		}
		if !edited {
			out.Write(b[pos-start:])
			pos = end
		}
	}

	f.offset = end
	if _, err := h.next.OnData(out.Bytes()); err != nil {
		return 0, err
	}
	return len(b), nil
}
func (h *replaceHandler) OnDirect(fd int, k DirectMask, m int64) (int64, error) {
	return 0, ErrorNoOnDirect.Errorf("Replace")
}
func (h *replaceHandler) OnEnd()          { h.next.OnEnd() }
func (h *replaceHandler) OnErr(err error) { h.next.OnErr(err) }

// substNode is one node of the ternary-search-tree keyword index Subst
// uses: low/mid/high children split on byte comparison with ch, and mid
// continues matching the next byte of the same key.
type substNode struct {
	ch          byte
	low, mid, hi *substNode
	value       []byte
	terminal    bool
}

// SubstTree is a ternary-search-tree substitution table: Subst walks it
// byte by byte, and on partial mismatch rewinds to emit the bytes it had
// tentatively withheld ("rollback on partial mismatch").
type SubstTree struct {
	root *substNode
}

// NewSubstTree builds a tree from a key/value map.
func NewSubstTree(table map[string][]byte) *SubstTree {
	t := &SubstTree{}
	for k, v := range table {
		t.insert(k, v)
	}
	return t
}

func (t *SubstTree) insert(key string, value []byte) {
	t.root = insertNode(t.root, key, value)
}

func insertNode(n *substNode, key string, value []byte) *substNode {
	c := key[0]
	if n == nil {
		n = &substNode{ch: c}
	}
	switch {
	case c < n.ch:
		n.low = insertNode(n.low, key, value)
	case c > n.ch:
		n.hi = insertNode(n.hi, key, value)
	case len(key) > 1:
		n.mid = insertNode(n.mid, key[1:], value)
	default:
		n.terminal = true
		n.value = value
	}
	return n
}

// Subst rewrites every occurrence of a tree key with its mapped value.
func Subst(inner Stream, tree *SubstTree) Stream {
	return &substFilter{inner: inner, tree: tree}
}

type substFilter struct {
	inner   Stream
	tree    *SubstTree
	pending []byte
	h       Handler
}

func (f *substFilter) Len() Length            { return Unknown }
func (f *substFilter) DirectMask() DirectMask { return DirectNone }
func (f *substFilter) Attach(h Handler)       { f.h = h; f.inner.Attach(&substHandler{f: f, next: h}) }
func (f *substFilter) Pump() error            { return f.inner.Pump() }
func (f *substFilter) FillBucketList(list *BucketList) error {
	return ErrorNoFillBucketList.Errorf("Subst")
}
func (f *substFilter) ConsumeBucketList(n int) error { return f.inner.ConsumeBucketList(n) }
func (f *substFilter) AsFd() (int, bool)             { return 0, false }
func (f *substFilter) State() State                  { return f.inner.State() }
func (f *substFilter) Close() error                  { return f.inner.Close() }

type substHandler struct {
	f    *substFilter
	next Handler
}

// OnData matches greedily against the tree; on a dead end it rolls back
// to the longest matched terminal (or, absent one, emits the first
// pending byte verbatim and resumes matching from the next).
func (h *substHandler) OnData(b []byte) (int, error) {
	f := h.f
	buf := append(f.pending, b...)
	f.pending = nil

	var out bytes.Buffer
	i := 0
	for i < len(buf) {
		n := f.tree.root
		j := i
		lastTerm := -1
		var lastVal []byte
		for n != nil && j < len(buf) {
			c := buf[j]
			if c < n.ch {
				n = n.low
			} else if c > n.ch {
				n = n.hi
			} else {
				j++
				if n.terminal {
					lastTerm = j
					lastVal = n.value
				}
				n = n.mid
			}
		}
		if n != nil && j == len(buf) {
			// might still extend with more input; hold back and wait
			f.pending = append(f.pending, buf[i:]...)
			break
		}
		if lastTerm >= 0 {
			out.Write(lastVal)
			i = lastTerm
		} else {
			out.WriteByte(buf[i])
			i++
		}
	}

	if out.Len() > 0 {
		if _, err := h.next.OnData(out.Bytes()); err != nil {
			return 0, err
		}
	}
	return len(b), nil
}
func (h *substHandler) OnDirect(fd int, k DirectMask, m int64) (int64, error) {
	return 0, ErrorNoOnDirect.Errorf("Subst")
}
func (h *substHandler) OnEnd() {
	if len(h.f.pending) > 0 {
		_, _ = h.next.OnData(h.f.pending)
		h.f.pending = nil
	}
	h.next.OnEnd()
}
func (h *substHandler) OnErr(err error) { h.next.OnErr(err) }
