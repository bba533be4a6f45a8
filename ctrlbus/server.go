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
	"net"
	"sync"
)

// ServerConfig binds one UDP control listener, optionally joining a
// multicast group.
type ServerConfig struct {
	Bind      string
	Multicast string // optional multicast group address to join
	Iface     string // interface name for the multicast join; "" picks the default
}

// Server is the bound UDP control-protocol endpoint.
type Server struct {
	conn    *net.UDPConn
	handler Handler

	mu      sync.Mutex
	closed  bool
}

// NewServer binds cfg.Bind and, if cfg.Multicast is set, joins that
// group. Received packets are decoded and passed to handler; handler's
// reply, if any, is sent back to the packet's source.
func NewServer(cfg ServerConfig, handler Handler) (*Server, error) {
	addr, err := net.ResolveUDPAddr("udp", cfg.Bind)
	if err != nil {
		return nil, fmt.Errorf("ctrlbus: resolve %q: %w", cfg.Bind, err)
	}

	var conn *net.UDPConn
	if cfg.Multicast != "" {
		mAddr, merr := net.ResolveUDPAddr("udp", cfg.Multicast)
		if merr != nil {
			return nil, fmt.Errorf("ctrlbus: resolve multicast %q: %w", cfg.Multicast, merr)
		}
		var ifi *net.Interface
		if cfg.Iface != "" {
			ifi, err = net.InterfaceByName(cfg.Iface)
			if err != nil {
				return nil, fmt.Errorf("ctrlbus: interface %q: %w", cfg.Iface, err)
			}
		}
		conn, err = net.ListenMulticastUDP("udp", ifi, mAddr)
	} else {
		conn, err = net.ListenUDP("udp", addr)
	}
	if err != nil {
		return nil, fmt.Errorf("ctrlbus: listen %q: %w", cfg.Bind, err)
	}

	if err = applySocketOptions(conn); err != nil {
		_ = conn.Close()
		return nil, err
	}

	s := &Server{conn: conn, handler: handler}
	go s.serve()
	return s, nil
}

// LocalAddr returns the bound address, useful when Bind used ":0".
func (s *Server) LocalAddr() net.Addr { return s.conn.LocalAddr() }

// Close stops the server.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.conn.Close()
}

func (s *Server) serve() {
	buf := make([]byte, 64*1024)
	for {
		n, src, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			return
		}
		pkt, derr := Decode(buf[:n])
		if derr != nil {
			continue
		}
		reply, herr := s.handler(pkt.Cmd, pkt.Payload)
		if herr != nil || reply == nil {
			continue
		}
		_, _ = s.conn.WriteToUDP(reply, src)
	}
}

// Send is a convenience one-shot client: encode and send pkt to addr over
// UDP, not waiting for a reply. Used by bengctl (cmd/bengctl) and by
// tests exercising the server without a live CLI.
func Send(addr string, pkt Packet) error {
	raddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return fmt.Errorf("ctrlbus: resolve %q: %w", addr, err)
	}
	conn, err := net.DialUDP("udp", nil, raddr)
	if err != nil {
		return fmt.Errorf("ctrlbus: dial %q: %w", addr, err)
	}
	defer func() { _ = conn.Close() }()

	_, err = conn.Write(pkt.Encode())
	return err
}
