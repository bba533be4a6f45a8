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
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisMirror publishes and consumes FailureManager state across a
// cluster of proxy instances sharing one backend pool, so a peer one
// node marks down is seen as down everywhere without waiting for each
// node's own probe to trip independently. Optional: a FailureManager
// works standalone with no mirror attached.
type RedisMirror struct {
	client *redis.Client
	prefix string
}

// NewRedisMirror wraps an existing redis client; prefix namespaces the
// keys this proxy cluster writes (e.g. "beng:down:").
func NewRedisMirror(client *redis.Client, prefix string) *RedisMirror {
	return &RedisMirror{client: client, prefix: prefix}
}

func (m *RedisMirror) key(peerID uint64) string {
	return m.prefix + strconv.FormatUint(peerID, 36)
}

// PublishDown mirrors a local failure decision, expiring the key itself
// after ttl so a node that crashes mid-backoff doesn't wedge a peer
// down forever.
func (m *RedisMirror) PublishDown(ctx context.Context, peerID uint64, ttl time.Duration) error {
	if err := m.client.Set(ctx, m.key(peerID), "1", ttl).Err(); err != nil {
		return ErrorMirrorPublish.Errorf(err)
	}
	return nil
}

// PublishUp clears a previously mirrored down state.
func (m *RedisMirror) PublishUp(ctx context.Context, peerID uint64) error {
	if err := m.client.Del(ctx, m.key(peerID)).Err(); err != nil {
		return ErrorMirrorClear.Errorf(err)
	}
	return nil
}

// IsDown reports whether another node in the cluster has this peer
// marked down.
func (m *RedisMirror) IsDown(ctx context.Context, peerID uint64) (bool, error) {
	n, err := m.client.Exists(ctx, m.key(peerID)).Result()
	if err != nil {
		return false, ErrorMirrorRead.Errorf(err)
	}
	return n > 0, nil
}
