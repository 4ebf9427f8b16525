// MusicScope - Music Chart Analytics Backend
// Copyright 2026 MusicScope Authors
// SPDX-License-Identifier: MIT
// https://github.com/musicscope/musicscope

package config

import (
	"strings"
	"testing"
	"time"
)

func TestValidateDefaults(t *testing.T) {
	cfg := defaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate, got: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "valid defaults",
			mutate:  func(*Config) {},
			wantErr: "",
		},
		{
			name:    "port zero",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantErr: "server.port",
		},
		{
			name:    "port too large",
			mutate:  func(c *Config) { c.Server.Port = 70000 },
			wantErr: "server.port",
		},
		{
			name:    "empty database path",
			mutate:  func(c *Config) { c.Database.Path = "" },
			wantErr: "database.path",
		},
		{
			name:    "zero musicbrainz interval",
			mutate:  func(c *Config) { c.MusicBrainz.RequestInterval = 0 },
			wantErr: "musicbrainz.request_interval",
		},
		{
			name:    "etl default limit out of range",
			mutate:  func(c *Config) { c.ETL.DefaultLimit = 500 },
			wantErr: "etl.default_limit",
		},
		{
			name:    "unknown auth mode",
			mutate:  func(c *Config) { c.Security.AuthMode = "basic" },
			wantErr: "auth_mode",
		},
		{
			name: "jwt mode without secret",
			mutate: func(c *Config) {
				c.Security.AuthMode = "jwt"
				c.Security.AdminUsername = "admin"
				c.Security.AdminPassword = "secret"
			},
			wantErr: "jwt_secret",
		},
		{
			name: "jwt mode without admin credentials",
			mutate: func(c *Config) {
				c.Security.AuthMode = "jwt"
				c.Security.JWTSecret = strings.Repeat("x", 32)
			},
			wantErr: "admin_username",
		},
		{
			name: "jwt mode fully configured",
			mutate: func(c *Config) {
				c.Security.AuthMode = "jwt"
				c.Security.JWTSecret = strings.Repeat("x", 32)
				c.Security.AdminUsername = "admin"
				c.Security.AdminPassword = "secret"
			},
			wantErr: "",
		},
		{
			name: "rate limit reqs zero while enabled",
			mutate: func(c *Config) {
				c.Security.RateLimitReqs = 0
			},
			wantErr: "rate_limit_reqs",
		},
		{
			name: "rate limit reqs zero while disabled",
			mutate: func(c *Config) {
				c.Security.RateLimitReqs = 0
				c.Security.RateLimitDisabled = true
			},
			wantErr: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() expected error containing %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		env  string
		want string
	}{
		{"LASTFM_API_KEY", "lastfm.api_key"},
		{"MUSICBRAINZ_USER_AGENT", "musicbrainz.user_agent"},
		{"MUSICBRAINZ_REQUEST_INTERVAL", "musicbrainz.request_interval"},
		{"DUCKDB_PATH", "database.path"},
		{"HTTP_PORT", "server.port"},
		{"AUTH_MODE", "security.auth_mode"},
		{"ALLOWED_ORIGINS", "security.cors_origins"},
		{"LOG_LEVEL", "logging.level"},
		{"PATH", ""},       // unmapped vars are skipped
		{"HOME", ""},       // unmapped vars are skipped
		{"RANDOM_VAR", ""}, // unmapped vars are skipped
	}

	for _, tt := range tests {
		if got := envTransformFunc(tt.env); got != tt.want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", tt.env, got, tt.want)
		}
	}
}

func TestLoadWithKoanfEnvOverride(t *testing.T) {
	t.Setenv("LASTFM_API_KEY", "test-key-123")
	t.Setenv("HTTP_PORT", "9000")
	t.Setenv("DUCKDB_PATH", ":memory:")
	t.Setenv("ALLOWED_ORIGINS", "http://localhost:3000, http://localhost:5173")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error: %v", err)
	}
	if cfg.Lastfm.APIKey != "test-key-123" {
		t.Errorf("Lastfm.APIKey = %q, want %q", cfg.Lastfm.APIKey, "test-key-123")
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("Server.Port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Database.Path != ":memory:" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, ":memory:")
	}
	wantOrigins := []string{"http://localhost:3000", "http://localhost:5173"}
	if len(cfg.Security.CORSOrigins) != len(wantOrigins) {
		t.Fatalf("CORSOrigins = %v, want %v", cfg.Security.CORSOrigins, wantOrigins)
	}
	for i, o := range wantOrigins {
		if cfg.Security.CORSOrigins[i] != o {
			t.Errorf("CORSOrigins[%d] = %q, want %q", i, cfg.Security.CORSOrigins[i], o)
		}
	}
}

func TestDefaultConfigValues(t *testing.T) {
	cfg := defaultConfig()
	if cfg.Security.AuthMode != "none" {
		t.Errorf("default auth mode = %q, want none", cfg.Security.AuthMode)
	}
	if cfg.MusicBrainz.RequestInterval != time.Second {
		t.Errorf("default musicbrainz request interval = %s, want 1s", cfg.MusicBrainz.RequestInterval)
	}
	if cfg.ETL.DefaultCountry != "spain" {
		t.Errorf("default etl country = %q, want spain", cfg.ETL.DefaultCountry)
	}
	if cfg.ETL.DefaultLimit != 20 {
		t.Errorf("default etl limit = %d, want 20", cfg.ETL.DefaultLimit)
	}
}

func TestEtlRequestTimeout(t *testing.T) {
	tests := []struct {
		name          string
		interval      time.Duration
		serverTimeout time.Duration
		want          time.Duration
	}{
		{
			// 2 calls per artist, 200-artist cap, 1s pacing, plus margin.
			name:          "default pacing dominates",
			interval:      time.Second,
			serverTimeout: 30 * time.Second,
			want:          400*time.Second + 30*time.Second,
		},
		{
			name:          "server timeout is the floor",
			interval:      time.Millisecond,
			serverTimeout: 30 * time.Second,
			want:          30 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			cfg.MusicBrainz.RequestInterval = tt.interval
			cfg.Server.Timeout = tt.serverTimeout

			got := cfg.EtlRequestTimeout()
			if got != tt.want {
				t.Errorf("EtlRequestTimeout() = %v, want %v", got, tt.want)
			}
			// A default-size enrichment run (limit 50, two paced calls per
			// artist) must always fit inside the trigger deadline.
			if worst := 2 * 50 * tt.interval; got < worst {
				t.Errorf("EtlRequestTimeout() = %v, shorter than a default run's pacing floor %v", got, worst)
			}
		})
	}
}
