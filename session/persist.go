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

package session

import (
	"os"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// record is the cbor-serializable projection of a Session: it drops the
// per-session mutex and the live arena handle, neither of which survives
// a restart, and carries enough to reconstruct both on load.
type record struct {
	ID      ID
	Created time.Time
	Expires time.Time
	Access  uint64
	Realms  map[string]*Realm
}

// snapshotVersion lets a future format change be detected on load instead
// of silently misreading an older save file.
const snapshotVersion = 1

type snapshot struct {
	Version  int
	Node     uint8
	Sessions []record
}

// Snapshot encodes every non-expired session into a versioned cbor blob
// for the append-only save file — "append-only" here meaning each sweep
// writes a fresh, complete snapshot rather than a delta; the original
// in-memory dump this mirrors was never actually diffed either, only
// ever replaced wholesale on the next save.
func (s *Store) Snapshot() ([]byte, error) {
	snap := snapshot{Version: snapshotVersion, Node: s.node}

	s.Visit(func(sess *Session) bool {
		sess.Lock()
		snap.Sessions = append(snap.Sessions, record{
			ID:      sess.id,
			Created: sess.created,
			Expires: sess.expires,
			Access:  sess.access,
			Realms:  sess.realms,
		})
		sess.Unlock()
		return true
	})

	return cbor.Marshal(snap)
}

// Restore reconstructs sessions from a blob produced by Snapshot, skipping
// any that have already expired. It is meant for a planned-restart
// recovery path, not for merging live state.
func (s *Store) Restore(data []byte) error {
	var snap snapshot
	if err := cbor.Unmarshal(data, &snap); err != nil {
		return err
	}

	now := time.Now()
	for _, r := range snap.Sessions {
		if now.After(r.Expires) {
			continue
		}

		sess := &Session{
			id:      r.ID,
			pool:    s.pool.NewChild("session-" + r.ID.String()),
			created: r.Created,
			expires: r.Expires,
			access:  r.Access,
			realms:  r.Realms,
		}
		if sess.realms == nil {
			sess.realms = map[string]*Realm{}
		}

		b := r.ID.bucket(bucketCount)
		s.mu.Lock()
		s.buckets[b][r.ID] = sess
		s.mu.Unlock()
	}

	return nil
}

// SaveFile writes a Snapshot to path, replacing any previous contents.
func (s *Store) SaveFile(path string) error {
	data, err := s.Snapshot()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// LoadFile reads and Restores a snapshot previously written by SaveFile.
func (s *Store) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return s.Restore(data)
}
