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

// Package ctrlbus implements the out-of-band control protocol: a UDP
// command channel for invalidating cache entries, enabling or
// disabling backend nodes, and dumping state, plus an optional
// nats-io/nats.go supplement used only for the two events that fan out
// awkwardly over a point-to-point UDP packet: cache-invalidate broadcast
// and certificate-rotation notification.
package ctrlbus

// Command identifies one control-protocol operation. Packets are
// authenticated by credential passing (SO_PEERCRED-equivalent) at the
// transport layer, not by a field in this struct.
type Command uint8

const (
	CmdNop Command = iota
	// CmdInvalidateCache drops every cache entry whose fingerprint
	// matches the packet's payload tag (a URI prefix or exact key).
	CmdInvalidateCache
	// CmdNodeEnable clears FADE/FAILED/MONITOR on the named backend
	// address.
	CmdNodeEnable
	// CmdNodeDisable marks the named backend address FADE, so it drains
	// existing sessions but accepts no new ones.
	CmdNodeDisable
	// CmdDumpState asks for a textual snapshot of balancer/cache/session
	// occupancy to be written back to the requester.
	CmdDumpState
	// CmdCertRotate notifies that the certificate store should re-read
	// its configured directory.
	CmdCertRotate
)

// Handler processes one decoded control packet. payload is the
// command-specific body (a cache key, a node address, empty for
// CmdDumpState/CmdCertRotate); reply, if non-nil, is written back to the
// packet's source address.
type Handler func(cmd Command, payload []byte) (reply []byte, err error)

// Packet is the wire encoding: a one-byte command tag followed by the
// payload. Credential passing happens at the socket layer (SO_PASSCRED
// on Linux), not inside this struct.
type Packet struct {
	Cmd     Command
	Payload []byte
}

// Encode serializes a Packet to its wire form.
func (p Packet) Encode() []byte {
	buf := make([]byte, 1+len(p.Payload))
	buf[0] = byte(p.Cmd)
	copy(buf[1:], p.Payload)
	return buf
}

// Decode parses a wire packet. Returns an error if b is empty.
func Decode(b []byte) (Packet, error) {
	if len(b) < 1 {
		return Packet{}, errEmptyPacket
	}
	return Packet{Cmd: Command(b[0]), Payload: append([]byte(nil), b[1:]...)}, nil
}
