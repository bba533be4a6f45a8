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

package stopwatch

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exports a stopwatch tree as Prometheus histograms keyed by node
// name, in parallel with (not instead of) the fd dump Dump produces.
type Metrics struct {
	hist *prometheus.HistogramVec
}

// NewMetrics registers (or, if already registered, reuses) a histogram
// vector on reg. namespace/subsystem follow the usual client_golang
// convention; reg may be prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer, namespace, subsystem string) *Metrics {
	hist := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "stopwatch_node_seconds",
		Help:      "Elapsed time of a stopwatch tree node, labeled by node name.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"node"})

	if reg != nil {
		if err := reg.Register(hist); err != nil {
			if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
				hist = are.ExistingCollector.(*prometheus.HistogramVec)
			}
		}
	}

	return &Metrics{hist: hist}
}

// observe records every node's elapsed time under its name.
func (m *Metrics) observe(n *node) {
	m.hist.WithLabelValues(n.name).Observe(n.elapsed().Seconds())
	for _, c := range n.children {
		m.observe(c)
	}
}
