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
	"bytes"
	"encoding/gob"
	"strconv"

	"github.com/xujiajun/nutsdb"
)

const nutsBucket = "response_cache"

// NutsOverflow is the disk-backed overflow tier for entries evicted
// from (or never promoted to) the in-memory hot tier: a response too
// large for the rubber buffer still deserves a cache slot, just not
// one that competes with live request memory for space.
//
// config/components/nutsdb wraps github.com/nabbar/golib/nutsdb, a
// further indirection layer this package skips (it manages listener
// lifecycle/reload for a standalone nutsdb server, which the cache's
// overflow tier has no need of); this talks to github.com/xujiajun/nutsdb
// directly, the same embedded KV engine, opened in-process against a
// local data directory.
type NutsOverflow struct {
	db *nutsdb.DB
}

// OpenNutsOverflow opens (or creates) a nutsdb data directory as the
// cache's overflow tier.
func OpenNutsOverflow(dir string) (*NutsOverflow, error) {
	opt := nutsdb.DefaultOptions
	opt.Dir = dir
	db, err := nutsdb.Open(opt)
	if err != nil {
		return nil, err
	}
	return &NutsOverflow{db: db}, nil
}

// Close releases the underlying nutsdb handle.
func (o *NutsOverflow) Close() error { return o.db.Close() }

// Store implements Overflow.
func (o *NutsOverflow) Store(fp uint64, e *Entry) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(e); err != nil {
		return err
	}
	key := []byte(strconv.FormatUint(fp, 16))
	return o.db.Update(func(tx *nutsdb.Tx) error {
		return tx.Put(nutsBucket, key, buf.Bytes(), 0)
	})
}

// Load implements Overflow.
func (o *NutsOverflow) Load(fp uint64) (*Entry, bool) {
	key := []byte(strconv.FormatUint(fp, 16))
	var raw []byte
	err := o.db.View(func(tx *nutsdb.Tx) error {
		item, ierr := tx.Get(nutsBucket, key)
		if ierr != nil {
			return ierr
		}
		raw = append([]byte(nil), item.Value...)
		return nil
	})
	if err != nil || raw == nil {
		return nil, false
	}

	var e Entry
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&e); err != nil {
		return nil, false
	}
	return &e, true
}

// Delete implements Overflow.
func (o *NutsOverflow) Delete(fp uint64) {
	key := []byte(strconv.FormatUint(fp, 16))
	_ = o.db.Update(func(tx *nutsdb.Tx) error {
		return tx.Delete(nutsBucket, key)
	})
}
