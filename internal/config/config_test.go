// Reelpair - Paired Letterboxd Recommendations and Taste Predictions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelpair

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// baseEnv sets the minimum required environment for a valid load.
func baseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("REELPAIR_USER_A_USERNAME", "gorg")
	t.Setenv("REELPAIR_USER_B_USERNAME", "sali")
	t.Setenv("REELPAIR_TMDB_API_KEY", "test-key")
}

func TestLoadDefaults(t *testing.T) {
	baseEnv(t)

	cfg, err := LoadFile("")
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("default port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Server.Addr() != "0.0.0.0:8080" {
		t.Errorf("Addr() = %q", cfg.Server.Addr())
	}
	if cfg.Pipeline.Interval != 84*time.Hour {
		t.Errorf("pipeline interval = %v, want 84h", cfg.Pipeline.Interval)
	}
	if cfg.Recommend.LovedThreshold != 4.0 {
		t.Errorf("loved threshold = %v, want 4.0", cfg.Recommend.LovedThreshold)
	}
	if cfg.Letterboxd.BaseURL != "https://letterboxd.com" {
		t.Errorf("letterboxd base url = %q", cfg.Letterboxd.BaseURL)
	}
}

func TestLoadDisplayNameDerivation(t *testing.T) {
	baseEnv(t)
	t.Setenv("REELPAIR_USER_B_DISPLAY_NAME", "Salomé")

	cfg, err := LoadFile("")
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Users.A.DisplayName != "Gorg" {
		t.Errorf("derived display name = %q, want Gorg", cfg.Users.A.DisplayName)
	}
	if cfg.Users.B.DisplayName != "Salomé" {
		t.Errorf("explicit display name = %q, want Salomé", cfg.Users.B.DisplayName)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	baseEnv(t)
	t.Setenv("REELPAIR_HTTP_PORT", "9090")
	t.Setenv("REELPAIR_DATA_DIR", "/tmp/reelpair-test")
	t.Setenv("REELPAIR_LOG_LEVEL", "debug")

	cfg, err := LoadFile("")
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Data.Dir != "/tmp/reelpair-test" {
		t.Errorf("data dir = %q", cfg.Data.Dir)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("log level = %q", cfg.Logging.Level)
	}
}

func TestLoadYAMLFile(t *testing.T) {
	baseEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
server:
  port: 3000
users:
  a:
    display_name: "G"
recommend:
  max_results: 10
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Server.Port != 3000 {
		t.Errorf("port = %d, want 3000", cfg.Server.Port)
	}
	if cfg.Users.A.DisplayName != "G" {
		t.Errorf("display name = %q, want G", cfg.Users.A.DisplayName)
	}
	if cfg.Recommend.MaxResults != 10 {
		t.Errorf("max results = %d, want 10", cfg.Recommend.MaxResults)
	}
	// Untouched fields keep defaults.
	if cfg.Recommend.MinVoteCount != 500 {
		t.Errorf("min vote count = %d, want 500", cfg.Recommend.MinVoteCount)
	}
}

func TestEnvBeatsFile(t *testing.T) {
	baseEnv(t)
	t.Setenv("REELPAIR_HTTP_PORT", "4000")

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 3000\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Server.Port != 4000 {
		t.Errorf("port = %d, want env override 4000", cfg.Server.Port)
	}
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "missing user a",
			mutate:  func(c *Config) { c.Users.A.Username = "" },
			wantErr: "USER_A_USERNAME",
		},
		{
			name:    "missing user b",
			mutate:  func(c *Config) { c.Users.B.Username = "" },
			wantErr: "USER_B_USERNAME",
		},
		{
			name:    "same account twice",
			mutate:  func(c *Config) { c.Users.B.Username = "Gorg" },
			wantErr: "different accounts",
		},
		{
			name:    "bad port",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantErr: "server.port",
		},
		{
			name:    "missing data dir",
			mutate:  func(c *Config) { c.Data.Dir = "" },
			wantErr: "DATA_DIR",
		},
		{
			name:    "missing tmdb key",
			mutate:  func(c *Config) { c.TMDB.APIKey = "" },
			wantErr: "api",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: "logging.level",
		},
		{
			name:    "bad log format",
			mutate:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: "logging.format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			cfg.Users.A.Username = "gorg"
			cfg.Users.B.Username = "sali"
			cfg.TMDB.APIKey = "test-key"
			tt.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(strings.ToLower(err.Error()), strings.ToLower(tt.wantErr)) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestEnvTransformIgnoresUnknown(t *testing.T) {
	if got := envTransformFunc("REELPAIR_NOT_A_SETTING"); got != "" {
		t.Errorf("unknown variable mapped to %q, want empty", got)
	}
	if got := envTransformFunc("REELPAIR_TMDB_API_KEY"); got != "tmdb.api_key" {
		t.Errorf("REELPAIR_TMDB_API_KEY mapped to %q", got)
	}
}
