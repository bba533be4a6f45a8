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

package balancer

import (
	"strings"
	"sync"
	"time"

	"github.com/dgryski/go-rendezvous"
)

// AddressList is an ordered, named pool of Peer entries belonging to
// one backend declaration.
type AddressList struct {
	mu    sync.RWMutex
	peers []Peer
}

// NewAddressList builds an AddressList from peers, preserving order
// (order matters for ModeFailover).
func NewAddressList(peers ...Peer) *AddressList {
	return &AddressList{peers: append([]Peer(nil), peers...)}
}

// Peers returns a snapshot of the current pool.
func (l *AddressList) Peers() []Peer {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]Peer(nil), l.peers...)
}

// Set replaces the pool, e.g. after a DNS re-resolution.
func (l *AddressList) Set(peers []Peer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.peers = append([]Peer(nil), peers...)
}

// ByID finds the peer carrying id, if still present in the pool.
func (l *AddressList) ByID(id string) (Peer, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, p := range l.peers {
		if p.ID == id {
			return p, true
		}
	}
	return Peer{}, false
}

// FailureManager tracks per-peer failure status keyed by the peer's
// Address fingerprint (address.Address.GetId()), mirroring the
// original's intrusive hash set keyed by raw sockaddr bytes with a
// plain Go map keyed by the same 64-bit fingerprint the rest of the
// proxy already uses.
type FailureManager struct {
	mu      sync.Mutex
	records map[uint64]*FailureRecord
}

// NewFailureManager returns an empty FailureManager.
func NewFailureManager() *FailureManager {
	return &FailureManager{records: make(map[uint64]*FailureRecord)}
}

// Set records status against id for duration, honouring the override
// rules: a stronger status replaces a weaker one; a FADE arriving
// while a stronger status is active is kept in the record's fade slot
// and takes over once the stronger status expires; StatusOK clears
// both slots outright regardless of what is currently active.
func (f *FailureManager) Set(id uint64, status Status, duration time.Duration, now time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if status == StatusOK {
		delete(f.records, id)
		return
	}

	r, ok := f.records[id]
	if !ok {
		r = &FailureRecord{}
		f.records[id] = r
	}

	current := r.Status
	if current != StatusOK && now.Before(r.Expires) {
		// still active, compare against it
	} else {
		current = StatusOK
		r.Status = StatusOK
	}

	expires := now.Add(duration)

	if status.rank() >= current.rank() {
		r.Status = status
		r.Expires = expires
	} else if status == StatusFade {
		r.FadeExpires = expires
		r.HasFade = true
	}
}

// Get reports id's current effective status, promoting a pending FADE
// once a stronger status has expired. An id with no record, or whose
// record has fully expired, reads as StatusOK.
func (f *FailureManager) Get(id uint64, now time.Time) Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.records[id]
	if !ok {
		return StatusOK
	}
	return r.effective(now)
}

// Unset removes id's record if its current effective status matches
// status; StatusOK matches any status, clearing the record regardless.
func (f *FailureManager) Unset(id uint64, status Status, now time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if status == StatusOK {
		delete(f.records, id)
		return
	}
	r, ok := f.records[id]
	if !ok {
		return
	}
	if r.effective(now) == status {
		delete(f.records, id)
	}
}

// IsDown reports whether id is currently refused by the FAILOVER rule.
func (f *FailureManager) IsDown(id uint64, now time.Time) bool {
	return !f.Get(id, now).allowed()
}

// ClientAccounting tracks per-client request volume for tarpit delay
// decisions, keyed by a folded client address (e.g. address.Address
// fingerprint of the client's source endpoint).
type ClientAccounting struct {
	mu      sync.Mutex
	records map[uint64]*AccountingRecord
	window  time.Duration
}

// NewClientAccounting returns a ClientAccounting that resets a client's
// counter after window of inactivity.
func NewClientAccounting(window time.Duration) *ClientAccounting {
	return &ClientAccounting{records: make(map[uint64]*AccountingRecord), window: window}
}

// Touch records one request from client and returns the delay (if any)
// the caller should impose before serving it (tarpit).
func (c *ClientAccounting) Touch(client uint64, now time.Time) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	r, ok := c.records[client]
	if !ok || now.Sub(r.LastSeen) > c.window {
		r = &AccountingRecord{}
		c.records[client] = r
	}
	r.Requests++
	r.LastSeen = now

	if r.Requests > 50 {
		r.DelayNext = time.Duration(r.Requests-50) * 10 * time.Millisecond
		if r.DelayNext > 2*time.Second {
			r.DelayNext = 2 * time.Second
		}
	} else {
		r.DelayNext = 0
	}
	return r.DelayNext
}

// Balancer picks a Peer out of an AddressList according to Mode,
// consulting a FailureManager to skip peers currently backed off.
type Balancer struct {
	mode    Mode
	list    *AddressList
	fails   *FailureManager
	hasher  *rendezvous.Rendezvous
}

// New builds a Balancer over list, skipping peers recorded as down in
// fails.
func New(mode Mode, list *AddressList, fails *FailureManager) *Balancer {
	return &Balancer{mode: mode, list: list, fails: fails}
}

// Pick selects a healthy Peer for sel, or ok=false if the pool is
// empty or every peer is currently down.
func (b *Balancer) Pick(sel Selector, now time.Time) (Peer, bool) {
	peers := b.list.Peers()
	healthy := make([]Peer, 0, len(peers))
	for _, p := range peers {
		if b.fails == nil || !b.fails.IsDown(p.Address.GetId(), now) {
			healthy = append(healthy, p)
		}
	}
	if len(healthy) == 0 {
		return Peer{}, false
	}

	switch b.mode {
	case ModeFailover, ModeNone:
		return healthy[0], true
	case ModeSourceIP:
		return healthy[b.rendezvousPick(sel.SourceIP, healthy)], true
	case ModeSessionModulo:
		if sel.SessionID == "" {
			return healthy[0], true
		}
		return healthy[foldHash(sel.SessionID)%uint64(len(healthy))], true
	case ModeCookie:
		if p, ok := findByID(healthy, sel.Cookie); ok {
			return p, true
		}
		return healthy[0], true
	case ModeJvmRoute:
		if p, ok := findByID(healthy, sel.Route); ok {
			return p, true
		}
		return healthy[0], true
	default:
		return healthy[0], true
	}
}

func (b *Balancer) rendezvousPick(key string, healthy []Peer) int {
	names := make([]string, len(healthy))
	for i, p := range healthy {
		names[i] = p.ID
	}
	r := rendezvous.New(names, xxhashString)
	chosen := r.Get(key)
	for i, n := range names {
		if n == chosen {
			return i
		}
	}
	return 0
}

func findByID(peers []Peer, id string) (Peer, bool) {
	if id == "" {
		return Peer{}, false
	}
	for _, p := range peers {
		if p.ID == id {
			return p, true
		}
	}
	return Peer{}, false
}

func foldHash(s string) uint64 {
	var h uint64 = 14695981039346656037
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= 1099511628211
	}
	return h
}

func xxhashString(s string) uint64 { return foldHash(s) }

// ParseJvmRoute extracts the JVMROUTE suffix from a "sessionid.route"
// style cookie value, matching Tomcat/JBoss/mod_jk convention.
func ParseJvmRoute(cookieValue string) (sessionID, route string) {
	i := strings.LastIndexByte(cookieValue, '.')
	if i < 0 {
		return cookieValue, ""
	}
	return cookieValue[:i], cookieValue[i+1:]
}
