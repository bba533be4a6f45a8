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

package ctrlbus

import (
	"fmt"

	"github.com/nats-io/nats.go"
)

// Subject names the two fan-out events the UDP protocol's
// point-to-point model handles awkwardly across a multi-process fleet:
// cache invalidation and certificate rotation.
type Subject string

const (
	SubjectCacheInvalidate Subject = "bengproxy.cache.invalidate"
	SubjectCertRotate      Subject = "bengproxy.cert.rotate"
)

// Bus is the optional NATS-backed supplement to the UDP control
// protocol. A nil *Bus is valid and every method becomes a silent no-op,
// so call sites never need a feature-flag check before publishing.
type Bus struct {
	nc *nats.Conn
}

// DialBus connects to a NATS server at url ("" uses nats.DefaultURL).
// Returns a nil *Bus, nil error when url is empty, meaning the control
// bus supplement is simply not configured.
func DialBus(url string) (*Bus, error) {
	if url == "" {
		return nil, nil
	}
	nc, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("ctrlbus: connect %q: %w", url, err)
	}
	return &Bus{nc: nc}, nil
}

// Publish broadcasts payload under subject. A nil Bus is a no-op.
func (b *Bus) Publish(subject Subject, payload []byte) error {
	if b == nil || b.nc == nil {
		return nil
	}
	return b.nc.Publish(string(subject), payload)
}

// Subscribe registers fn for every message published under subject. A
// nil Bus returns a no-op unsubscribe func and a nil error.
func (b *Bus) Subscribe(subject Subject, fn func(payload []byte)) (unsubscribe func(), err error) {
	if b == nil || b.nc == nil {
		return func() {}, nil
	}
	sub, err := b.nc.Subscribe(string(subject), func(m *nats.Msg) {
		fn(m.Data)
	})
	if err != nil {
		return nil, err
	}
	return func() { _ = sub.Unsubscribe() }, nil
}

// Close drains and closes the NATS connection. A nil Bus is a no-op.
func (b *Bus) Close() {
	if b == nil || b.nc == nil {
		return
	}
	b.nc.Close()
}
