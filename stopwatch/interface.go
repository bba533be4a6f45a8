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

// Package stopwatch implements the per-request timing tree: a root node
// with named, timestamped events and nested child scopes, dumped one line
// per node (indented by depth) to a file descriptor when the request
// finishes. Disabled by default and zero-allocation while disabled, the
// same "register a callback, pay for it only when someone registered one"
// shape as ioutils/ioprogress's progress callbacks, generalized here from
// a registered func to a whole event tree.
package stopwatch

import (
	"io"
	"time"
)

// maxEventsPerNode bounds RecordEvent: 16 recorded events per node,
// oldest-dropped once full rather than growing unbounded on a
// pathological request.
const maxEventsPerNode = 16

// Stopwatch is the per-request timing tree root. A disabled Stopwatch
// (the default) never allocates a node, so instantiating one on every
// request costs nothing until a caller opts in.
type Stopwatch struct {
	enabled bool
	root    *node
	cur     *node
	metrics *Metrics
}

// New creates a Stopwatch. enabled false returns a valid, fully inert
// instance: every method becomes a no-op and no node is ever allocated.
func New(enabled bool) *Stopwatch {
	sw := &Stopwatch{enabled: enabled}
	if enabled {
		sw.root = newNode("request", nil)
		sw.cur = sw.root
	}
	return sw
}

// Enabled reports whether this Stopwatch is recording.
func (s *Stopwatch) Enabled() bool { return s.enabled }

// RecordEvent appends a named, timestamped event to the current scope.
func (s *Stopwatch) RecordEvent(name string) {
	if !s.enabled {
		return
	}
	s.cur.addEvent(name)
}

// Begin opens a named child scope and descends into it; the matching End
// closes it and returns to the parent. Scopes nest arbitrarily; the
// sequence of Begin/RecordEvent/End calls is what builds the tree.
func (s *Stopwatch) Begin(name string) {
	if !s.enabled {
		return
	}
	child := newNode(name, s.cur)
	s.cur.children = append(s.cur.children, child)
	s.cur = child
}

// End closes the current scope, recording its elapsed time, and returns
// to its parent. Calling End on the root is a no-op.
func (s *Stopwatch) End() {
	if !s.enabled {
		return
	}
	s.cur.finish()
	if s.cur.parent != nil {
		s.cur = s.cur.parent
	}
}

// Finish closes every still-open scope back to the root, finalizes the
// root's own elapsed time, and — if a Metrics sink was attached via
// WithMetrics — observes every node's duration. Call Finish exactly once,
// on request completion.
func (s *Stopwatch) Finish() {
	if !s.enabled {
		return
	}
	for s.cur != s.root {
		s.End()
	}
	s.root.finish()
	if s.metrics != nil {
		s.metrics.observe(s.root)
	}
}

// WithMetrics attaches a Prometheus sink; every node's duration is
// observed under its name when Finish runs. A nil Stopwatch or a disabled
// one silently ignores this.
func (s *Stopwatch) WithMetrics(m *Metrics) *Stopwatch {
	if s.enabled {
		s.metrics = m
	}
	return s
}

// Dump writes the tree to w, one line per node, indented by depth. A
// disabled Stopwatch writes nothing.
func (s *Stopwatch) Dump(w io.Writer) error {
	if !s.enabled {
		return nil
	}
	return dump(w, s.root, 0)
}

type event struct {
	name string
	at   time.Time
}

type node struct {
	name     string
	parent   *node
	start    time.Time
	end      time.Time
	events   []event
	children []*node
}

func newNode(name string, parent *node) *node {
	return &node{name: name, parent: parent, start: time.Now()}
}

func (n *node) addEvent(name string) {
	if len(n.events) >= maxEventsPerNode {
		copy(n.events, n.events[1:])
		n.events[len(n.events)-1] = event{name: name, at: time.Now()}
		return
	}
	n.events = append(n.events, event{name: name, at: time.Now()})
}

func (n *node) finish() {
	if n.end.IsZero() {
		n.end = time.Now()
	}
}

func (n *node) elapsed() time.Duration {
	end := n.end
	if end.IsZero() {
		end = time.Now()
	}
	return end.Sub(n.start)
}
