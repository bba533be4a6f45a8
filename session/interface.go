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

// Package session implements the proxy's session store: sessions are kept
// in a fixed-bucket in-process hash table instead of a shared-memory
// mapping, each session owning a small arena (see pool) instead of a slice
// of a dual-pool shared allocator. A cluster-node tag travels in the
// session id itself (see id.go) so a front-end load balancer can dispatch
// by GetClusterHash without consulting the store.
package session

import (
	"sync"
	"time"

	libpol "github.com/nabbar/beng-proxy/pool"
)

// Realm is one translation realm's sub-record within a session: the
// widget-instance and translation state kept per (session, realm) pair,
// plus the resolved user name for that realm.
type Realm struct {
	Name  string
	User  string
	Attrs map[string]string
	Data  map[string]string
}

// Session is one entry in the store. Every Session owns a child arena
// (Pool) obtained from the store's parent pool; Data held by a Realm is
// expected to be allocated from that pool via Session.Pool() rather than
// the Go heap, so Defragment can migrate it with a single pool swap.
type Session struct {
	mu sync.Mutex

	id      ID
	pool    libpol.Pool
	created time.Time
	expires time.Time
	access  uint64

	realms map[string]*Realm
}

// ID returns the session's identifier.
func (s *Session) ID() ID { return s.id }

// Pool returns the arena backing this session's own allocations.
func (s *Session) Pool() libpol.Pool { return s.pool }

// Lock must be held by a caller across Find and the matching Put; it is
// the per-session lock behind the invariant that a process never
// holds more than one session lock at a time.
func (s *Session) Lock()   { s.mu.Lock() }
func (s *Session) Unlock() { s.mu.Unlock() }

// Realm returns the named realm's sub-record, creating it on first access.
func (s *Session) Realm(name string) *Realm {
	r, ok := s.realms[name]
	if !ok {
		r = &Realm{Name: name, Attrs: map[string]string{}, Data: map[string]string{}}
		s.realms[name] = r
	}
	return r
}

// Expired reports whether the session's idle timeout has elapsed.
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.expires)
}

// touch bumps the access counter and slides the idle-timeout window.
func (s *Session) touch(now time.Time, idle time.Duration) {
	s.access++
	s.expires = now.Add(idle)
}

// purgeScore combines age and access frequency the way a purge pass
// ranks sessions: long-idle, rarely-touched sessions score highest.
func (s *Session) purgeScore(now time.Time) float64 {
	age := now.Sub(s.created).Seconds()
	if s.access == 0 {
		return age
	}
	return age / float64(s.access)
}

// AttributeResolver resolves a realm user's directory attributes from an
// external source. The one production implementation is LDAP-backed (see
// ldap.go); this interface only ever resolves attributes for an
// already-known username — it never authenticates one, since
// authentication is the translation server's job.
type AttributeResolver interface {
	UserInfo(username string) (map[string]string, error)
}

// Archiver persists a point-in-time snapshot of the store, e.g. to S3
// (see archive.go), so a planned restart on a replacement host can
// recover state.
type Archiver interface {
	Archive(snapshot []byte) error
	Restore() ([]byte, error)
}
