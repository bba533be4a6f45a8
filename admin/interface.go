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

// Package admin serves the PROMETHEUS_EXPORTER-handler listener: a
// small JSON+metrics HTTP surface, kept on gin-gonic/gin
// rather than the hand-built httpcodec used on the data path, since the
// admin surface has no allocation-discipline requirement the way the
// pipeline does.
package admin

// StateProvider is implemented by whatever component can describe its
// own occupancy/health for the /state endpoint: balancer pools, the
// response cache, the session store. Each contributes one named section.
type StateProvider interface {
	// Name identifies this section in the /state JSON document.
	Name() string
	// Snapshot returns a JSON-marshalable view of current state.
	Snapshot() any
}
