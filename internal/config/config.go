// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading for ragchat-tui.
//
// Precedence, highest first:
//   - RAGCHAT_* environment variables
//   - ~/.ragchat/config.toml
//   - Built-in defaults
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config is the complete ragchat-tui configuration.
type Config struct {
	// ServerURL is the base URL of the chat backend. Both the REST
	// endpoints and the /ws WebSocket endpoint live under it.
	ServerURL string `toml:"server_url"`

	// DataDir holds the chat index and the last-session pointer.
	// Empty means ~/.ragchat.
	DataDir string `toml:"data_dir"`

	// ExchangeTimeoutSecs bounds how long the client waits for an
	// in-flight response before synthesizing an error. 0 disables.
	ExchangeTimeoutSecs int `toml:"exchange_timeout_secs"`

	// UI configuration
	UI UIConfig `toml:"ui"`
}

// UIConfig contains presentation settings.
type UIConfig struct {
	// Theme selects the markdown rendering style: "auto", "dark", "light"
	Theme string `toml:"theme"`
	// ShowSidebar opens the chat list on launch
	ShowSidebar bool `toml:"show_sidebar"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		ServerURL:           "http://localhost:3001",
		ExchangeTimeoutSecs: 120,
		UI: UIConfig{
			Theme:       "auto",
			ShowSidebar: true,
		},
	}
}

// ExchangeTimeout returns the exchange timeout as a duration.
func (c *Config) ExchangeTimeout() time.Duration {
	return time.Duration(c.ExchangeTimeoutSecs) * time.Second
}

// ResolveDataDir returns the data directory, expanding the default when
// none is configured.
func (c *Config) ResolveDataDir() string {
	if c.DataDir != "" {
		return c.DataDir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".ragchat"
	}
	return filepath.Join(home, ".ragchat")
}

// Validate checks the configuration for values that cannot work.
func (c *Config) Validate() error {
	u, err := url.Parse(c.ServerURL)
	if err != nil {
		return fmt.Errorf("invalid server_url %q: %w", c.ServerURL, err)
	}
	switch u.Scheme {
	case "http", "https", "ws", "wss":
	default:
		return fmt.Errorf("invalid server_url scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("server_url %q has no host", c.ServerURL)
	}
	if c.ExchangeTimeoutSecs < 0 {
		return fmt.Errorf("exchange_timeout_secs must not be negative")
	}
	return nil
}

// =============================================================================
// LOADING
// =============================================================================

// Load reads the configuration: defaults, then the config file if one
// exists, then environment overrides. The result is validated.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	path := configPath()
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func configPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".ragchat", "config.toml")
	}
	return filepath.Join(home, ".ragchat", "config.toml")
}

// applyEnvOverrides applies RAGCHAT_* environment variables on top of
// the loaded configuration.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("RAGCHAT_SERVER_URL"); v != "" {
		cfg.ServerURL = v
	}
	if v := os.Getenv("RAGCHAT_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("RAGCHAT_EXCHANGE_TIMEOUT"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil {
			cfg.ExchangeTimeoutSecs = secs
		}
	}
	if v := os.Getenv("RAGCHAT_THEME"); v != "" {
		cfg.UI.Theme = v
	}
}

// =============================================================================
// GLOBAL ACCESS
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
)

// Global returns the process-wide configuration, loading it on first
// use. A broken config file falls back to defaults with a warning on
// stderr rather than taking the program down.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: %v, using defaults\n", err)
			cfg = DefaultConfig()
		}
		globalConfig = cfg
	})
	return globalConfig
}
