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

package admin_test

import (
	"net/http"
	"net/http/httptest"

	"github.com/prometheus/client_golang/prometheus"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	libadm "github.com/nabbar/beng-proxy/admin"
)

type fakeSection struct {
	name string
	data any
}

func (f fakeSection) Name() string  { return f.name }
func (f fakeSection) Snapshot() any { return f.data }

var _ = Describe("Server", func() {
	It("serves /healthz", func() {
		s := libadm.New(":0", prometheus.NewRegistry())

		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		w := httptest.NewRecorder()
		s.ServeHTTPForTest(w, req)

		Expect(w.Code).To(Equal(http.StatusOK))
	})

	It("assembles /state from registered providers", func() {
		s := libadm.New(":0", prometheus.NewRegistry())
		s.Register(fakeSection{name: "balancer", data: map[string]int{"healthy": 3}})
		s.Register(fakeSection{name: "cache", data: map[string]int{"entries": 10}})

		req := httptest.NewRequest(http.MethodGet, "/state", nil)
		w := httptest.NewRecorder()
		s.ServeHTTPForTest(w, req)

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(ContainSubstring(`"balancer"`))
		Expect(w.Body.String()).To(ContainSubstring(`"cache"`))
	})

	It("exposes /metrics in Prometheus exposition format", func() {
		reg := prometheus.NewRegistry()
		c := prometheus.NewCounter(prometheus.CounterOpts{Name: "beng_test_total"})
		reg.MustRegister(c)
		c.Inc()

		s := libadm.New(":0", reg)

		req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
		w := httptest.NewRecorder()
		s.ServeHTTPForTest(w, req)

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(ContainSubstring("beng_test_total"))
	})
})
