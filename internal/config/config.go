// Reelpair - Paired Letterboxd Recommendations and Taste Predictions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelpair

// Package config loads and validates Reelpair configuration from
// layered sources: built-in defaults, an optional YAML file, and
// environment variables, in increasing order of precedence.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/reelpair/internal/letterboxd"
	"github.com/tomtom215/reelpair/internal/pipeline"
	"github.com/tomtom215/reelpair/internal/predict"
	"github.com/tomtom215/reelpair/internal/recommend"
	"github.com/tomtom215/reelpair/internal/titles"
	"github.com/tomtom215/reelpair/internal/tmdb"
)

// Config is the root configuration for Reelpair.
type Config struct {
	Users      UsersConfig              `koanf:"users"`
	Server     ServerConfig             `koanf:"server"`
	Data       DataConfig               `koanf:"data"`
	TMDB       tmdb.Config              `koanf:"tmdb"`
	Letterboxd letterboxd.Config        `koanf:"letterboxd"`
	Pipeline   pipeline.SchedulerConfig `koanf:"pipeline"`
	Recommend  recommend.Config         `koanf:"recommend"`
	Predict    predict.Config           `koanf:"predict"`
	Match      titles.MatchConfig       `koanf:"match"`
	Logging    LoggingConfig            `koanf:"logging"`
}

// UserConfig identifies one of the two paired Letterboxd accounts.
type UserConfig struct {
	// Username is the Letterboxd account name as it appears in profile
	// URLs.
	Username string `koanf:"username"`

	// DisplayName is shown in API responses. Defaults to the username
	// with its first letter capitalized.
	DisplayName string `koanf:"display_name"`
}

// UsersConfig holds both paired accounts. The pairing is symmetric;
// A and B only fix which prediction column is whose.
type UsersConfig struct {
	A UserConfig `koanf:"a"`
	B UserConfig `koanf:"b"`
}

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DataConfig locates the on-disk table directory.
type DataConfig struct {
	Dir string `koanf:"dir"`
}

// LoggingConfig mirrors the logging package settings in a form the
// config loader can unmarshal.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// defaultConfig returns a Config with all default values. These are
// applied first, then overridden by the config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Users: UsersConfig{},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Data: DataConfig{
			Dir: "/data/reelpair",
		},
		TMDB:       tmdb.DefaultConfig(),
		Letterboxd: letterboxd.DefaultConfig(),
		Pipeline:   pipeline.DefaultSchedulerConfig(),
		Recommend:  recommend.DefaultConfig(),
		Predict:    predict.DefaultConfig(),
		Match:      titles.DefaultMatchConfig(),
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Validate checks the loaded configuration and fills derived defaults
// such as display names.
func (c *Config) Validate() error {
	if err := c.validateUsers(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	if c.Data.Dir == "" {
		return fmt.Errorf("REELPAIR_DATA_DIR is required")
	}
	if err := c.TMDB.Validate(); err != nil {
		return err
	}
	if err := c.Letterboxd.Validate(); err != nil {
		return err
	}
	if err := c.Recommend.Validate(); err != nil {
		return err
	}
	if err := c.Predict.Validate(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateUsers() error {
	if c.Users.A.Username == "" {
		return fmt.Errorf("REELPAIR_USER_A_USERNAME is required")
	}
	if c.Users.B.Username == "" {
		return fmt.Errorf("REELPAIR_USER_B_USERNAME is required")
	}
	if strings.EqualFold(c.Users.A.Username, c.Users.B.Username) {
		return fmt.Errorf("users.a and users.b must be different accounts")
	}
	if c.Users.A.DisplayName == "" {
		c.Users.A.DisplayName = capitalize(c.Users.A.Username)
	}
	if c.Users.B.DisplayName == "" {
		c.Users.B.DisplayName = capitalize(c.Users.B.Username)
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server timeouts must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "disabled":
	default:
		return fmt.Errorf("logging.level %q is not a valid level", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}
	return nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
