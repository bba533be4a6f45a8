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
	"fmt"
	"io"
	"strings"

	durbig "github.com/nabbar/beng-proxy/duration/big"
)

// dump writes n and every descendant, one line per node, indented two
// spaces per depth level, duration rendered the way duration/big formats
// a Duration ("1h2m3s"-style, days included once an event tree spans
// that long — unlikely for a single request, but the same formatter a
// longer-lived accounting window would want).
func dump(w io.Writer, n *node, depth int) error {
	indent := strings.Repeat("  ", depth)
	d := durbig.ParseDuration(n.elapsed())

	if _, err := fmt.Fprintf(w, "%s%s: %s\n", indent, n.name, d.String()); err != nil {
		return err
	}

	for _, e := range n.events {
		if _, err := fmt.Fprintf(w, "%s  @%s\n", indent, e.name); err != nil {
			return err
		}
	}

	for _, c := range n.children {
		if err := dump(w, c, depth+1); err != nil {
			return err
		}
	}

	return nil
}
