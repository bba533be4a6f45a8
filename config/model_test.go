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

package config_test

import (
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	libcfg "github.com/nabbar/beng-proxy/config"
)

const sampleYAML = `
listeners:
  - bind: "0.0.0.0:8080"
    tag: "data"
    handler: "translation"
  - bind: "127.0.0.1:9090"
    handler: "prometheus_exporter"
backend_pools:
  - name: "app"
    addresses: ["127.0.0.1:8000", "127.0.0.1:8001"]
    sticky: "source_ip"
cache:
  max_entry_size: 1048576
  max_entries: 1000
`

func writeTemp(dir, content string) string {
	p := filepath.Join(dir, "beng-proxy.yaml")
	Expect(os.WriteFile(p, []byte(content), 0o644)).To(Succeed())
	return p
}

var _ = Describe("Load", func() {
	It("decodes and validates a well-formed config", func() {
		dir := GinkgoT().TempDir()
		p := writeTemp(dir, sampleYAML)

		cfg, err := libcfg.Load(p)
		Expect(err).ToNot(HaveOccurred())
		Expect(cfg.Listeners).To(HaveLen(2))
		Expect(cfg.Listeners[0].Handler).To(Equal(libcfg.HandlerTranslation))
		Expect(cfg.BackendPools[0].Sticky).To(Equal(libcfg.StickySourceIP))
		Expect(cfg.Session.Buckets).To(Equal(16381))
	})

	It("rejects a config missing required fields", func() {
		dir := GinkgoT().TempDir()
		p := writeTemp(dir, "listeners: []\n")

		_, err := libcfg.Load(p)
		Expect(err).To(HaveOccurred())
	})

	It("rejects an unknown sticky policy", func() {
		dir := GinkgoT().TempDir()
		p := writeTemp(dir, sampleYAML+"\n"+`backend_pools:
  - name: "bad"
    addresses: ["127.0.0.1:1"]
    sticky: "not_a_policy"
`)

		_, err := libcfg.Load(p)
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Watcher", func() {
	It("hot-reloads the mounts/backend_pools/cache subset on file change", func() {
		dir := GinkgoT().TempDir()
		p := writeTemp(dir, sampleYAML)

		w, err := libcfg.NewWatcher(p, nil)
		Expect(err).ToNot(HaveOccurred())
		defer w.Close()

		Expect(w.Current().BackendPools).To(HaveLen(1))

		updated := sampleYAML + "\n" + `backend_pools:
  - name: "app"
    addresses: ["127.0.0.1:8000"]
    sticky: "none"
  - name: "app2"
    addresses: ["127.0.0.1:9000"]
`
		Expect(os.WriteFile(p, []byte(updated), 0o644)).To(Succeed())

		Eventually(func() int {
			return len(w.Current().BackendPools)
		}, 2*time.Second, 20*time.Millisecond).Should(Equal(2))

		// Listener set is not hot-reloadable: unchanged despite the file
		// swap not touching it here either way.
		Expect(w.Current().Listeners).To(HaveLen(2))
	})
})
