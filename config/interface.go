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

// Package config loads, validates and hot-reloads the proxy's static
// configuration: listeners, mount namespaces for spawned backends,
// backend pools and their sticky policy, and the sizing knobs for the
// session store, cache and worker pool. Loading goes through
// spf13/viper, decoding through mapstructure tags, and validation
// through go-playground/validator/v10 before any listener binds, with
// the same config/component layering pattern used elsewhere in this
// repo, minus a full plugin-component registry this proxy has no use for.
package config

import "time"

// ListenerHandler selects what an incoming connection on a Listener is
// routed to.
type ListenerHandler string

const (
	// HandlerTranslation is the normal data-path listener: requests are
	// resolved through the translation server and dispatched to a
	// backend.
	HandlerTranslation ListenerHandler = "translation"
	// HandlerPrometheusExporter serves the admin metrics surface
	// instead of proxying.
	HandlerPrometheusExporter ListenerHandler = "prometheus_exporter"
)

// Listener is one bind address the proxy accepts connections on.
type Listener struct {
	Bind         string          `mapstructure:"bind" validate:"required"`
	Tag          string          `mapstructure:"tag"`
	TLS          bool            `mapstructure:"tls"`
	Handler      ListenerHandler `mapstructure:"handler" validate:"required,oneof=translation prometheus_exporter"`
	AuthAltHost  string          `mapstructure:"auth_alt_host"`
	Zeroconf     bool            `mapstructure:"zeroconf"`
}

// Mount is one entry of a spawned CGI/WAS child's mount namespace.
type Mount struct {
	Source     string `mapstructure:"source" validate:"required"`
	Target     string `mapstructure:"target" validate:"required"`
	Flags      uint   `mapstructure:"flags"`
	Writable   bool   `mapstructure:"writable"`
	Expandable bool   `mapstructure:"expandable"`
}

// StickyPolicy names the peer-selection stickiness a BackendPool uses;
// values mirror balancer.Mode one-for-one but are kept string-based here
// since this is the wire/config-file representation.
type StickyPolicy string

const (
	StickyNone           StickyPolicy = "none"
	StickyFailover       StickyPolicy = "failover"
	StickySourceIP       StickyPolicy = "source_ip"
	StickySessionModulo  StickyPolicy = "session_modulo"
	StickyCookie         StickyPolicy = "cookie"
	StickyJvmRoute       StickyPolicy = "jvm_route"
)

// BackendPool names one address list plus its sticky policy and health
// check cadence; backend addresses themselves are resolved at request
// time by the address package, so this only carries enough to build an
// address.List and a balancer.Mode.
type BackendPool struct {
	Name            string        `mapstructure:"name" validate:"required"`
	Addresses       []string      `mapstructure:"addresses" validate:"required,min=1,dive,required"`
	Sticky          StickyPolicy  `mapstructure:"sticky" validate:"omitempty,oneof=none failover source_ip session_modulo cookie jvm_route"`
	HealthInterval  time.Duration `mapstructure:"health_interval"`
}

// SessionSizing bounds the in-process session store (see session.Store).
type SessionSizing struct {
	Buckets     int           `mapstructure:"buckets" validate:"omitempty,min=1"`
	IdleTimeout time.Duration `mapstructure:"idle_timeout" validate:"omitempty,min=1s"`
	PurgeBatch  int           `mapstructure:"purge_batch" validate:"omitempty,min=1"`
}

// CacheSizing bounds the response cache (see cache/response).
type CacheSizing struct {
	MaxEntrySize int64 `mapstructure:"max_entry_size" validate:"omitempty,min=1"`
	MaxEntries   int   `mapstructure:"max_entries" validate:"omitempty,min=1"`
}

// WorkerSizing bounds the CPU-bound offload pool (see workerpool).
type WorkerSizing struct {
	Size int `mapstructure:"size" validate:"omitempty,min=1,max=64"`
}

// StaticConfig is the whole decoded, validated configuration tree.
type StaticConfig struct {
	Listeners    []Listener    `mapstructure:"listeners" validate:"required,min=1,dive"`
	Mounts       []Mount       `mapstructure:"mounts" validate:"dive"`
	BackendPools []BackendPool `mapstructure:"backend_pools" validate:"dive"`
	Session      SessionSizing `mapstructure:"session"`
	Cache        CacheSizing   `mapstructure:"cache"`
	Worker       WorkerSizing  `mapstructure:"worker"`

	// HotReloadable names the subset of top-level keys a fsnotify-driven
	// reload is allowed to swap in without a restart: mounts, backend
	// pool membership, and cache sizing. Listener binds and
	// session sizing require a restart since they affect live sockets
	// and an already-sized shared table.
}

// hotReloadableFields is the fixed set of StaticConfig fields Watcher
// will copy from a freshly loaded config into the live one; anything
// else requires a process restart to take effect.
var hotReloadableFields = []string{"Mounts", "BackendPools", "Cache"}
