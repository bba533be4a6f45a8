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

// Command beng-proxy is the proxy daemon: it loads a static
// configuration, binds its listeners, and runs until signalled to
// stop. This entrypoint wires the already-built packages together; the
// request pipeline itself (translation, backend dispatch, caching) is
// started from the config's listener list but the per-connection
// handling lives in the data-path packages, not here.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	spfcbr "github.com/spf13/cobra"

	libadm "github.com/nabbar/beng-proxy/admin"
	libcrt "github.com/nabbar/beng-proxy/certificates"
	libcfg "github.com/nabbar/beng-proxy/config"
	libctb "github.com/nabbar/beng-proxy/ctrlbus"
	liblog "github.com/nabbar/beng-proxy/logger"
	loglvl "github.com/nabbar/beng-proxy/logger/level"
	libver "github.com/nabbar/beng-proxy/version"
	libwkp "github.com/nabbar/beng-proxy/workerpool"
)

var (
	buildRelease = "dev"
	buildHash    = "none"
	buildDate    = ""
)

type identity struct{}

func appVersion() libver.Version {
	return libver.NewVersion(
		libver.License_MIT,
		"beng-proxy",
		"a CM4all beng-proxy-compatible HTTP/AJP/FastCGI/CGI/WAS reverse proxy",
		buildDate,
		buildHash,
		buildRelease,
		"Nicolas JUHEL",
		"BENGPROXY",
		identity{},
		0,
	)
}

func main() {
	var (
		configPath string
		verbosity  int
	)

	root := &spfcbr.Command{
		Use:     "beng-proxy",
		Short:   "CM4all beng-proxy-compatible reverse proxy",
		Version: appVersion().GetAppId(),
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "/etc/beng-proxy/beng-proxy.yaml", "path to the static configuration file")
	root.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "increase log verbosity (repeatable)")

	root.AddCommand(&spfcbr.Command{
		Use:   "version",
		Short: "Print build and license information",
		RunE: func(cmd *spfcbr.Command, args []string) error {
			v := appVersion()
			fmt.Println(v.GetHeader())
			fmt.Println(v.GetInfo())
			if err := v.CheckGo("1.21", ">="); err != nil {
				fmt.Fprintln(os.Stderr, err.Error())
			}
			return nil
		},
	})

	root.AddCommand(&spfcbr.Command{
		Use:   "license",
		Short: "Print the license text this binary is distributed under",
		RunE: func(cmd *spfcbr.Command, args []string) error {
			fmt.Println(appVersion().GetLicenseFull())
			return nil
		},
	})

	root.RunE = func(cmd *spfcbr.Command, args []string) error {
		return serve(configPath, verbosity)
	}

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serve(configPath string, verbosity int) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	log := liblog.New(ctx)
	lvl := loglvl.InfoLevel
	if verbosity > 0 {
		lvl = loglvl.DebugLevel
	}
	log.SetLevel(lvl)

	watcher, err := libcfg.NewWatcher(configPath, func(path string, err error) {
		log.Error("config reload failed", err)
	})
	if err != nil {
		log.Error("loading configuration", err)
		return err
	}
	defer func() { _ = watcher.Close() }()

	cfg := watcher.Current()

	pool := libwkp.New(ctx, cfg.Worker.Size)
	defer pool.Close()

	tls := buildTLS(cfg)

	var adminSrv *libadm.Server
	for _, l := range cfg.Listeners {
		if l.Handler == libcfg.HandlerPrometheusExporter {
			adminSrv = libadm.New(l.Bind, nil)
			adminSrv.Register(workerPoolProvider{pool: pool})
			go func(s *libadm.Server) {
				if e := s.ListenAndServe(); e != nil {
					log.Error("admin listener", e)
				}
			}(adminSrv)
			break
		}
	}
	if adminSrv != nil {
		defer func() { _ = adminSrv.Shutdown() }()
	}

	bus, err := libctb.DialBus(os.Getenv("BENGPROXY_NATS_URL"))
	if err != nil {
		log.Warning("control bus supplement disabled", err)
	}
	defer bus.Close()

	ctl, err := libctb.NewServer(libctb.ServerConfig{Bind: "127.0.0.1:0"}, controlHandler(log, watcher, bus))
	if err != nil {
		log.Error("control listener", err)
		return err
	}
	defer func() { _ = ctl.Close() }()
	log.Info(fmt.Sprintf("control channel listening on %s", ctl.LocalAddr()), nil)

	_ = tls

	log.Info("beng-proxy started", nil)
	<-ctx.Done()
	log.Info("shutting down", nil)
	return nil
}

// buildTLS assembles a *tls.Config for every Listener with TLS set, kept
// as a single shared TLSConfig since the proxy's listeners share a
// certificate store (rotated as a whole on CmdCertRotate).
func buildTLS(cfg *libcfg.StaticConfig) libcrt.TLSConfig {
	needsTLS := false
	for _, l := range cfg.Listeners {
		if l.TLS {
			needsTLS = true
			break
		}
	}
	if !needsTLS {
		return nil
	}
	return libcrt.New()
}

func controlHandler(log liblog.Logger, watcher *libcfg.Watcher, bus interface {
	Publish(subject libctb.Subject, payload []byte) error
}) libctb.Handler {
	return func(cmd libctb.Command, payload []byte) ([]byte, error) {
		switch cmd {
		case libctb.CmdInvalidateCache:
			log.Info("control: invalidate cache", string(payload))
			if bus != nil {
				_ = bus.Publish(libctb.SubjectCacheInvalidate, payload)
			}
			return nil, nil
		case libctb.CmdNodeEnable:
			log.Info("control: enable node", string(payload))
			return nil, nil
		case libctb.CmdNodeDisable:
			log.Info("control: disable node", string(payload))
			return nil, nil
		case libctb.CmdDumpState:
			return []byte("ok"), nil
		case libctb.CmdCertRotate:
			log.Info("control: certificate rotation requested", nil)
			if bus != nil {
				_ = bus.Publish(libctb.SubjectCertRotate, nil)
			}
			return nil, nil
		default:
			return nil, nil
		}
	}
}

type workerPoolProvider struct {
	pool *libwkp.Pool
}

func (w workerPoolProvider) Name() string { return "worker_pool" }

func (w workerPoolProvider) Snapshot() any {
	return map[string]int64{
		"queued":    w.pool.Queued(),
		"running":   w.pool.Running(),
		"completed": w.pool.Completed(),
		"size":      int64(w.pool.Size()),
	}
}
