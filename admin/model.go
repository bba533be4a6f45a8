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

package admin

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ServeHTTPForTest exposes the underlying gin.Engine's ServeHTTP so tests
// can drive the admin routes with httptest.NewRecorder without binding a
// real listening socket.
func (s *Server) ServeHTTPForTest(w http.ResponseWriter, r *http.Request) {
	s.engine.ServeHTTP(w, r)
}

// Server is the admin HTTP listener: /metrics (Prometheus exposition)
// and /state (a JSON occupancy snapshot assembled from every registered
// StateProvider).
type Server struct {
	engine *gin.Engine
	http   *http.Server

	mu        sync.RWMutex
	providers []StateProvider
}

// New builds a Server bound to addr, using reg as the Prometheus
// registerer (prometheus.DefaultRegisterer if nil).
func New(addr string, reg prometheus.Gatherer) *Server {
	gin.SetMode(gin.ReleaseMode)
	e := gin.New()
	e.Use(gin.Recovery())

	s := &Server{engine: e, http: &http.Server{Addr: addr, Handler: e}}

	if reg == nil {
		reg = prometheus.DefaultGatherer
	}
	e.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	e.GET("/state", s.handleState)
	e.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })

	return s
}

// Register adds p's section to the /state document. Safe to call while
// the server is serving.
func (s *Server) Register(p StateProvider) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.providers = append(s.providers, p)
}

// ListenAndServe blocks serving the admin listener until an error or a
// graceful Shutdown.
func (s *Server) ListenAndServe() error {
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully stops the listener.
func (s *Server) Shutdown() error {
	return s.http.Close()
}

func (s *Server) handleState(c *gin.Context) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]any, len(s.providers))
	for _, p := range s.providers {
		out[p.Name()] = p.Snapshot()
	}
	c.JSON(http.StatusOK, out)
}
