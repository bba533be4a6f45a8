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
	"time"

	"github.com/miekg/dns"
)

// Resolver re-resolves a hostname to its current A/AAAA record set on a
// timer, refreshing an AddressList in place so a backend declared by
// hostname picks up DNS-level scaling changes without a config reload.
type Resolver struct {
	Server string // "ip:port" of the resolver to query, e.g. "127.0.0.1:53"
	client *dns.Client
}

// NewResolver builds a Resolver querying server directly, bypassing the
// OS resolver so TTLs are honored precisely.
func NewResolver(server string) *Resolver {
	return &Resolver{Server: server, client: new(dns.Client)}
}

// LookupHost returns the current A-record addresses for host along with
// the record set's minimum TTL.
func (r *Resolver) LookupHost(host string) ([]string, time.Duration, error) {
	m := new(dns.Msg)
	m.SetQuestion(dns.Fqdn(host), dns.TypeA)
	m.RecursionDesired = true

	in, _, err := r.client.Exchange(m, r.Server)
	if err != nil {
		return nil, 0, ErrorDNSLookup.Errorf(host, err)
	}
	if in.Rcode != dns.RcodeSuccess {
		return nil, 0, ErrorDNSRcode.Errorf(host, in.Rcode)
	}

	var ips []string
	minTTL := uint32(0)
	for _, ans := range in.Answer {
		a, ok := ans.(*dns.A)
		if !ok {
			continue
		}
		ips = append(ips, a.A.String())
		if minTTL == 0 || a.Hdr.Ttl < minTTL {
			minTTL = a.Hdr.Ttl
		}
	}
	if len(ips) == 0 {
		return nil, 0, ErrorDNSNoRecords.Errorf(host)
	}
	return ips, time.Duration(minTTL) * time.Second, nil
}

// RefreshLoop re-resolves host every poll interval (clamped to at least
// 1s) and calls apply with the new address list until stop is closed.
func (r *Resolver) RefreshLoop(host string, poll time.Duration, apply func([]string), stop <-chan struct{}) {
	if poll < time.Second {
		poll = time.Second
	}
	t := time.NewTicker(poll)
	defer t.Stop()

	for {
		select {
		case <-stop:
			return
		case <-t.C:
			ips, _, err := r.LookupHost(host)
			if err != nil {
				continue
			}
			apply(ips)
		}
	}
}
