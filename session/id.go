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
	"encoding/hex"

	uuid "github.com/hashicorp/go-uuid"
)

// ID is a 192-bit session identifier. The first byte carries an optional
// cluster-node tag in its low nibble; the remaining 23 bytes are random.
type ID [24]byte

// clusterMask keeps the tag to 4 bits (16 nodes), the rest of the leading
// byte still contributes entropy.
const clusterMask = 0x0f

// NewID mints a session id whose reserved nibble is tagged with node,
// the current cluster member's index (0 if clustering is not configured).
func NewID(node uint8) (ID, error) {
	var id ID

	b, err := uuid.GenerateRandomBytes(len(id))
	if err != nil {
		return id, err
	}
	copy(id[:], b)
	id[0] = (id[0] &^ clusterMask) | (node & clusterMask)
	return id, nil
}

// GetClusterHash returns the node tag packed into the id at minting time.
func (i ID) GetClusterHash() uint8 {
	return i[0] & clusterMask
}

// String renders the id as a hex string, suitable for a session cookie value.
func (i ID) String() string {
	return hex.EncodeToString(i[:])
}

// ParseID parses a session id previously produced by ID.String.
func ParseID(s string) (ID, error) {
	var id ID

	b, err := hex.DecodeString(s)
	if err != nil {
		return id, err
	}
	if len(b) != len(id) {
		return id, ErrorInvalidID.Error(nil)
	}
	copy(id[:], b)
	return id, nil
}

// bucket maps the id onto one of the hash table's buckets.
func (i ID) bucket(n int) int {
	var h uint32
	for _, c := range i {
		h = h*31 + uint32(c)
	}
	return int(h) % n
}
