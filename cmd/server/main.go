// MusicScope - Music Chart Analytics Backend
// Copyright 2026 MusicScope Authors
// SPDX-License-Identifier: MIT
// https://github.com/musicscope/musicscope

// Command server runs the MusicScope backend: chart and metadata
// ingestion plus the analytics HTTP API.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/musicscope/musicscope/internal/analytics"
	"github.com/musicscope/musicscope/internal/api"
	"github.com/musicscope/musicscope/internal/auth"
	"github.com/musicscope/musicscope/internal/config"
	"github.com/musicscope/musicscope/internal/database"
	"github.com/musicscope/musicscope/internal/etl"
	"github.com/musicscope/musicscope/internal/lastfm"
	"github.com/musicscope/musicscope/internal/logging"
	"github.com/musicscope/musicscope/internal/metrics"
	"github.com/musicscope/musicscope/internal/musicbrainz"
	"github.com/musicscope/musicscope/internal/supervisor"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})
	logging.Info().Str("version", version).Msg("Starting MusicScope")
	metrics.AppInfo.WithLabelValues(version, runtime.Version()).Set(1)

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()

	auther := auth.New(&cfg.Security)
	if auther.Enabled() {
		hash, err := auth.HashPassword(cfg.Security.AdminPassword)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to hash admin password")
		}
		if err := db.EnsureAdminUser(context.Background(), cfg.Security.AdminUsername, hash); err != nil {
			logging.Fatal().Err(err).Msg("Failed to provision admin user")
		}
		logging.Info().Str("username", cfg.Security.AdminUsername).Msg("JWT auth enabled, admin user provisioned")
	} else {
		logging.Info().Msg("Authentication disabled (AUTH_MODE=none)")
	}

	if cfg.Lastfm.APIKey == "" {
		logging.Warn().Msg("LASTFM_API_KEY not set, chart ingestion will be refused")
	}

	charts := lastfm.NewBreakerClient(lastfm.NewClient(&cfg.Lastfm))
	metadata := musicbrainz.NewClient(&cfg.MusicBrainz)
	runner := etl.NewRunner(db, charts, metadata)
	engine := analytics.NewEngine(db)

	server := api.NewServer(cfg, engine, runner, db, db, auther, version)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		// WriteTimeout must outlast the ETL trigger deadline or the
		// connection dies before a long enrichment run can respond.
		WriteTimeout: cfg.EtlRequestTimeout() + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultConfig())
	tree.Add(supervisor.NewHTTPServerService(httpServer, 10*time.Second))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Info().Str("addr", addr).Msg("HTTP server starting")
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Err(err).Msg("Supervisor exited with error")
	}

	if unstopped, err := tree.UnstoppedServiceReport(); err == nil && len(unstopped) > 0 {
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service did not stop within timeout")
		}
	}

	logging.Info().Msg("Shutdown complete")
}
