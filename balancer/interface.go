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

// Package balancer picks which backend Address handles a request out of
// a pool, tracking failures and (for sticky modes) client affinity.
package balancer

import (
	"time"

	libadr "github.com/nabbar/beng-proxy/address"
)

// Mode selects the peer-selection strategy.
type Mode uint8

const (
	// ModeFailover always tries peers in declared order, only moving to
	// the next on failure of the previous.
	ModeFailover Mode = iota
	// ModeNone picks the first healthy peer with no stickiness.
	ModeNone
	// ModeSourceIP hashes the client IP to a peer, stable across
	// requests from the same client as long as the pool is unchanged.
	ModeSourceIP
	// ModeSessionModulo hashes the session id modulo the healthy peer
	// count.
	ModeSessionModulo
	// ModeCookie reads a sticky-session cookie carrying a peer id.
	ModeCookie
	// ModeJvmRoute parses a ";jsessionid=...JVMROUTE" style suffix to
	// recover a sticky peer id, matching Tomcat/JBoss session cookies.
	ModeJvmRoute
)

// Peer is one member of a balancer's pool: an address plus the static
// weight and identity used by sticky modes.
type Peer struct {
	ID      string
	Address libadr.Address
	Weight  int
}

// Selector is the minimal per-request input a Balancer needs to make a
// sticky choice; fields irrelevant to the active Mode may be left zero.
type Selector struct {
	SourceIP  string
	SessionID string
	Cookie    string
	Route     string // JVM_ROUTE suffix recovered from a session cookie
}

// Status is a peer's current failure status, as reported by health
// checks or response inspection. A stronger status overrides a weaker
// one; see FailureRecord.
type Status uint8

const (
	// StatusOK is the default, healthy status.
	StatusOK Status = iota
	// StatusFade marks a peer to be drained gracefully (still usable,
	// prefer other peers).
	StatusFade
	// StatusResponse marks a peer whose responses looked wrong, but
	// that is still usable.
	StatusResponse
	// StatusMonitor takes a peer out of rotation for an active health
	// check to complete.
	StatusMonitor
	// StatusFailed takes a peer out of rotation outright.
	StatusFailed
)

// String renders Status the way it appears in logs.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusFade:
		return "fade"
	case StatusResponse:
		return "response"
	case StatusMonitor:
		return "monitor"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// rank orders statuses by override strength: a higher rank wins when
// two statuses are set concurrently. StatusOK is weakest so any other
// status (however transient) takes precedence over it.
func (s Status) rank() int {
	switch s {
	case StatusOK:
		return 0
	case StatusFade:
		return 1
	case StatusResponse:
		return 2
	case StatusMonitor:
		return 3
	case StatusFailed:
		return 4
	default:
		return 0
	}
}

// allowed reports whether a peer at this status may still be picked
// (FAILOVER rule: OK, FADE, RESPONSE allowed; FAILED/MONITOR refused).
func (s Status) allowed() bool {
	switch s {
	case StatusOK, StatusFade, StatusResponse:
		return true
	default:
		return false
	}
}

// FailureRecord tracks one peer's current failure status. A FADE
// arriving while a stronger status is active is not lost: it is kept
// in FadeExpires and takes over once the stronger status expires.
type FailureRecord struct {
	Status      Status
	Expires     time.Time
	FadeExpires time.Time
	HasFade     bool
}

// effective resolves the record's visible status at now, promoting a
// pending FADE once the current status has expired.
func (f FailureRecord) effective(now time.Time) Status {
	if f.Status != StatusOK && !now.Before(f.Expires) {
		if f.HasFade && now.Before(f.FadeExpires) {
			return StatusFade
		}
		return StatusOK
	}
	return f.Status
}

// IsDown reports whether the peer is currently refused by the
// FAILOVER rule.
func (f FailureRecord) IsDown(now time.Time) bool {
	return !f.effective(now).allowed()
}

// AccountingRecord tracks a client's recent request pattern for tarpit
// delay decisions (e.g. slow down a client hammering a failing peer).
type AccountingRecord struct {
	Requests  int
	LastSeen  time.Time
	DelayNext time.Duration
}
