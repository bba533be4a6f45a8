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
	"github.com/bits-and-blooms/bitset"
)

// MaxBuckets bounds a BucketList's capacity. Once full, further pushes are
// dropped and More is forced true — the producer must fall back to
// OnData/Read for the remainder.
const MaxBuckets = 64

// Bucket is a discriminated value inside a BucketList. Only BUFFER exists
// today; the tag is kept explicit so a future direct-fd bucket kind can be
// added without changing the list's shape.
type BucketKind uint8

const (
	BucketBuffer BucketKind = iota
)

// Bucket is a borrowed contiguous byte span. The producer guarantees it
// stays valid until the next Read or Consume call on the owning stream.
type Bucket struct {
	Kind BucketKind
	Buf  []byte
}

// BucketList is an append-only, bounded list of buckets together with a
// More flag meaning "the underlying stream has additional data beyond
// what is currently listed".
type BucketList struct {
	buckets []Bucket
	occ     *bitset.BitSet
	total   int
	more    bool
}

// NewBucketList returns an empty list ready to be filled by a Stream.
func NewBucketList() *BucketList {
	return &BucketList{
		buckets: make([]Bucket, 0, MaxBuckets),
		occ:     bitset.New(MaxBuckets),
	}
}

// Reset empties the list for reuse without reallocating its backing array.
func (l *BucketList) Reset() {
	l.buckets = l.buckets[:0]
	l.occ.ClearAll()
	l.total = 0
	l.more = false
}

// Push appends a bucket. If the list is already at MaxBuckets capacity,
// the bucket is dropped and More is set instead.
func (l *BucketList) Push(b Bucket) {
	if len(l.buckets) >= MaxBuckets {
		l.more = true
		return
	}
	l.occ.Set(uint(len(l.buckets)))
	l.buckets = append(l.buckets, b)
	l.total += len(b.Buf)
}

// SetMore marks that more data exists beyond what has been listed so far.
func (l *BucketList) SetMore(more bool) {
	l.more = more
}

// More reports whether additional data exists after what is listed.
func (l *BucketList) More() bool {
	return l.more
}

// Buckets returns the currently listed buckets, in order.
func (l *BucketList) Buckets() []Bucket {
	return l.buckets
}

// TotalBufferSize returns the sum of every listed buffer's length.
func (l *BucketList) TotalBufferSize() int {
	return l.total
}

// IsDepleted reports whether n bytes consumed accounts for every byte this
// list will ever produce: no more data exists and n equals the total size
// already listed.
func (l *BucketList) IsDepleted(n int) bool {
	return !l.more && n == l.total
}

// SpliceBuffersFrom moves buckets from src into l, honoring an optional
// byte limit (a limit of 0 means unlimited). Buckets are removed from src
// as they are moved.
func (l *BucketList) SpliceBuffersFrom(src *BucketList, limit int) int {
	moved := 0
	for len(src.buckets) > 0 {
		b := src.buckets[0]
		if limit > 0 && moved+len(b.Buf) > limit {
			take := limit - moved
			l.Push(Bucket{Kind: b.Kind, Buf: b.Buf[:take]})
			src.buckets[0].Buf = b.Buf[take:]
			moved += take
			break
		}
		l.Push(b)
		moved += len(b.Buf)
		src.buckets = src.buckets[1:]
	}
	if len(src.buckets) == 0 {
		l.SetMore(src.more)
	} else {
		l.SetMore(true)
	}
	return moved
}

// CopyBuffersFrom copies (rather than moves) buckets from src into l,
// skipping the first skip bytes of src's listed data.
func (l *BucketList) CopyBuffersFrom(skip int, src *BucketList) int {
	copied := 0
	remaining := skip
	for _, b := range src.buckets {
		buf := b.Buf
		if remaining > 0 {
			if remaining >= len(buf) {
				remaining -= len(buf)
				continue
			}
			buf = buf[remaining:]
			remaining = 0
		}
		cp := make([]byte, len(buf))
		copy(cp, buf)
		l.Push(Bucket{Kind: b.Kind, Buf: cp})
		copied += len(cp)
	}
	l.SetMore(src.more)
	return copied
}
