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
	"fmt"
	"path/filepath"
	"strings"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	validator "github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Load reads path (any format viper supports: yaml, json, toml), decodes
// it into a StaticConfig and validates it. A leading "~" in path is
// expanded to the caller's home directory.
func Load(path string) (*StaticConfig, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("config: expand path %q: %w", path, err)
	}

	v := viper.New()
	v.SetConfigFile(expanded)
	if err = v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: read %q: %w", expanded, err)
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}
	if err = validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("config: validate %q: %w", expanded, err)
	}
	return cfg, nil
}

func decode(v *viper.Viper) (*StaticConfig, error) {
	var cfg StaticConfig
	opt := viper.DecoderConfigOption(func(dc *mapstructure.DecoderConfig) {
		dc.ErrorUnused = false
		dc.WeaklyTypedInput = true
	})
	if err := v.Unmarshal(&cfg, opt); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *StaticConfig) {
	if cfg.Session.Buckets == 0 {
		cfg.Session.Buckets = 16381
	}
	if cfg.Session.PurgeBatch == 0 {
		cfg.Session.PurgeBatch = 256
	}
	if cfg.Worker.Size == 0 {
		cfg.Worker.Size = 16
	}
}

// HomeRelative resolves a "~/"-prefixed path (the session persistence
// file, the default config search path) using the mitchellh/go-homedir
// dependency used elsewhere in this repo.
func HomeRelative(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return filepath.Clean(path), nil
	}
	return homedir.Expand(path)
}
