// MusicScope - Music Chart Analytics Backend
// Copyright 2026 MusicScope Authors
// SPDX-License-Identifier: MIT
// https://github.com/musicscope/musicscope

// Package config loads and validates MusicScope configuration.
//
// Configuration is layered: built-in defaults, then an optional YAML file,
// then environment variables. The resulting Config struct is passed by
// reference to every component at startup; business logic never reads the
// environment directly.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration for the MusicScope server.
type Config struct {
	Server      ServerConfig      `koanf:"server"`
	Database    DatabaseConfig    `koanf:"database"`
	Lastfm      LastfmConfig      `koanf:"lastfm"`
	MusicBrainz MusicBrainzConfig `koanf:"musicbrainz"`
	ETL         ETLConfig         `koanf:"etl"`
	Security    SecurityConfig    `koanf:"security"`
	Logging     LoggingConfig     `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port"`
	Timeout time.Duration `koanf:"timeout"`
}

// DatabaseConfig holds DuckDB settings.
type DatabaseConfig struct {
	// Path is the DuckDB database file. ":memory:" opens an in-memory database.
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	// Threads limits DuckDB worker threads. 0 = runtime.NumCPU().
	Threads int `koanf:"threads"`
}

// LastfmConfig holds Last.fm API client settings.
type LastfmConfig struct {
	// APIKey authenticates requests to the Last.fm web API. Required for
	// chart ingestion; the client refuses to start a request without it.
	APIKey  string        `koanf:"api_key"`
	BaseURL string        `koanf:"base_url"`
	Timeout time.Duration `koanf:"timeout"`
}

// MusicBrainzConfig holds MusicBrainz API client settings.
type MusicBrainzConfig struct {
	BaseURL string `koanf:"base_url"`
	// UserAgent identifies this application to MusicBrainz. Their API terms
	// require a meaningful User-Agent with contact information.
	UserAgent string        `koanf:"user_agent"`
	Timeout   time.Duration `koanf:"timeout"`
	// RequestInterval is the minimum spacing between consecutive requests
	// (MusicBrainz rate-limit etiquette: at most one request per second).
	RequestInterval time.Duration `koanf:"request_interval"`
}

// ETLConfig holds defaults for ingestion runs triggered without parameters.
type ETLConfig struct {
	DefaultCountry string `koanf:"default_country"`
	DefaultLimit   int    `koanf:"default_limit"`
}

// SecurityConfig holds authentication and request-limiting settings.
type SecurityConfig struct {
	// AuthMode selects the authentication mode: "none" (open, the default)
	// or "jwt" (login endpoint + bearer tokens on ETL triggers).
	AuthMode          string        `koanf:"auth_mode"`
	JWTSecret         string        `koanf:"jwt_secret"`
	SessionTimeout    time.Duration `koanf:"session_timeout"`
	AdminUsername     string        `koanf:"admin_username"`
	AdminPassword     string        `koanf:"admin_password"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// maxEtlBatch mirrors the upper bound on the ETL trigger limit parameter.
const maxEtlBatch = 200

// EtlRequestTimeout returns the request deadline for the ETL trigger
// endpoints. Enrichment issues up to two paced MusicBrainz requests per
// artist, so the worst case scales with the batch cap and the configured
// pacing interval; server.timeout is only a floor. At the default 1s
// interval this is a little over 7 minutes.
func (c *Config) EtlRequestTimeout() time.Duration {
	worst := 2 * maxEtlBatch * c.MusicBrainz.RequestInterval
	if worst < c.Server.Timeout {
		return c.Server.Timeout
	}
	return worst + 30*time.Second
}

// Validate checks the configuration for invalid or inconsistent values.
// It is called by LoadWithKoanf after all layers are merged.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server.timeout must be positive, got %s", c.Server.Timeout)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path must not be empty")
	}
	if c.Lastfm.BaseURL == "" {
		return fmt.Errorf("lastfm.base_url must not be empty")
	}
	if c.MusicBrainz.BaseURL == "" {
		return fmt.Errorf("musicbrainz.base_url must not be empty")
	}
	if c.MusicBrainz.RequestInterval <= 0 {
		return fmt.Errorf("musicbrainz.request_interval must be positive, got %s", c.MusicBrainz.RequestInterval)
	}
	if c.ETL.DefaultLimit < 1 || c.ETL.DefaultLimit > 200 {
		return fmt.Errorf("etl.default_limit must be between 1 and 200, got %d", c.ETL.DefaultLimit)
	}

	switch strings.ToLower(c.Security.AuthMode) {
	case "none":
		// Open mode; nothing further to check.
	case "jwt":
		if len(c.Security.JWTSecret) < 32 {
			return fmt.Errorf("security.jwt_secret must be at least 32 characters in jwt mode")
		}
		if c.Security.AdminUsername == "" || c.Security.AdminPassword == "" {
			return fmt.Errorf("security.admin_username and security.admin_password are required in jwt mode")
		}
		if c.Security.SessionTimeout <= 0 {
			return fmt.Errorf("security.session_timeout must be positive in jwt mode")
		}
	default:
		return fmt.Errorf("security.auth_mode must be \"none\" or \"jwt\", got %q", c.Security.AuthMode)
	}

	if !c.Security.RateLimitDisabled && c.Security.RateLimitReqs < 1 {
		return fmt.Errorf("security.rate_limit_reqs must be at least 1, got %d", c.Security.RateLimitReqs)
	}

	return nil
}
