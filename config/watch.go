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

package config

import (
	"github.com/fsnotify/fsnotify"

	libatm "github.com/nabbar/beng-proxy/atomic"
)

// OnReloadError is invoked when a file-change event triggers a reload
// that fails; the previously-live StaticConfig keeps serving.
type OnReloadError func(path string, err error)

// Watcher holds the live StaticConfig and swaps in a freshly loaded one,
// for the hot-reloadable field subset, whenever the backing file changes.
type Watcher struct {
	path    string
	live    libatm.Value[*StaticConfig]
	watch   *fsnotify.Watcher
	onError OnReloadError
}

// NewWatcher loads path once, then starts an fsnotify watch on it.
// Closing the returned Watcher stops the background watch goroutine.
func NewWatcher(path string, onError OnReloadError) (*Watcher, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err = fw.Add(path); err != nil {
		_ = fw.Close()
		return nil, err
	}

	w := &Watcher{path: path, watch: fw, onError: onError}
	w.live = libatm.NewValue[*StaticConfig]()
	w.live.Store(cfg)

	go w.run()
	return w, nil
}

// Current returns the presently-live StaticConfig. Safe for concurrent
// use; the returned pointer is never mutated in place, only replaced.
func (w *Watcher) Current() *StaticConfig {
	return w.live.Load()
}

// Close stops the background fsnotify watch.
func (w *Watcher) Close() error {
	return w.watch.Close()
}

func (w *Watcher) run() {
	for {
		select {
		case ev, ok := <-w.watch.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.reload()
		case _, ok := <-w.watch.Errors:
			if !ok {
				return
			}
		}
	}
}

func (w *Watcher) reload() {
	fresh, err := Load(w.path)
	if err != nil {
		if w.onError != nil {
			w.onError(w.path, err)
		}
		return
	}

	cur := w.live.Load()
	if cur == nil {
		w.live.Store(fresh)
		return
	}

	merged := *cur
	merged.Mounts = fresh.Mounts
	merged.BackendPools = fresh.BackendPools
	merged.Cache = fresh.Cache
	w.live.Store(&merged)
}
