// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"testing"
	"time"

	"github.com/BurntSushi/toml"
)

func TestDefaults(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.ServerURL != "http://localhost:3001" {
		t.Errorf("default server_url = %q", cfg.ServerURL)
	}
	if cfg.ExchangeTimeout() != 120*time.Second {
		t.Errorf("default exchange timeout = %v", cfg.ExchangeTimeout())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults fail validation: %v", err)
	}
}

func TestDecodeTOML(t *testing.T) {
	cfg := DefaultConfig()
	src := `
server_url = "https://chat.example.com"
exchange_timeout_secs = 60

[ui]
theme = "dark"
show_sidebar = false
`
	if _, err := toml.Decode(src, cfg); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if cfg.ServerURL != "https://chat.example.com" {
		t.Errorf("server_url = %q", cfg.ServerURL)
	}
	if cfg.ExchangeTimeoutSecs != 60 {
		t.Errorf("exchange_timeout_secs = %d", cfg.ExchangeTimeoutSecs)
	}
	if cfg.UI.Theme != "dark" || cfg.UI.ShowSidebar {
		t.Errorf("ui = %+v", cfg.UI)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults ok", func(c *Config) {}, false},
		{"https ok", func(c *Config) { c.ServerURL = "https://host:8443" }, false},
		{"bad scheme", func(c *Config) { c.ServerURL = "ftp://host" }, true},
		{"no host", func(c *Config) { c.ServerURL = "http://" }, true},
		{"negative timeout", func(c *Config) { c.ExchangeTimeoutSecs = -1 }, true},
		{"zero timeout ok", func(c *Config) { c.ExchangeTimeoutSecs = 0 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Error("expected validation error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("RAGCHAT_SERVER_URL", "http://elsewhere:9000")
	t.Setenv("RAGCHAT_EXCHANGE_TIMEOUT", "45")
	t.Setenv("RAGCHAT_THEME", "light")

	cfg := DefaultConfig()
	applyEnvOverrides(cfg)

	if cfg.ServerURL != "http://elsewhere:9000" {
		t.Errorf("server_url = %q", cfg.ServerURL)
	}
	if cfg.ExchangeTimeoutSecs != 45 {
		t.Errorf("exchange_timeout_secs = %d", cfg.ExchangeTimeoutSecs)
	}
	if cfg.UI.Theme != "light" {
		t.Errorf("theme = %q", cfg.UI.Theme)
	}
}

func TestEnvOverrideBadNumberIgnored(t *testing.T) {
	t.Setenv("RAGCHAT_EXCHANGE_TIMEOUT", "soon")

	cfg := DefaultConfig()
	applyEnvOverrides(cfg)
	if cfg.ExchangeTimeoutSecs != 120 {
		t.Errorf("bad env number changed timeout to %d", cfg.ExchangeTimeoutSecs)
	}
}
