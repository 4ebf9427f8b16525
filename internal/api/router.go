// MusicScope - Music Chart Analytics Backend
// Copyright 2026 MusicScope Authors
// SPDX-License-Identifier: MIT
// https://github.com/musicscope/musicscope

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/musicscope/musicscope/internal/middleware"
)

// Router builds the HTTP route tree.
//
// Layout:
//   - /health, /metrics: unauthenticated, no rate limit
//   - /api/v1/analytics/*: read-only aggregations, shared rate limit
//   - /api/v1/etl/*: ingestion triggers, auth (when enabled) plus a
//     much stricter rate limit since each run hits upstream APIs
//   - /api/v1/auth/login: credential exchange
//
// The server timeout applies per group rather than globally: ETL triggers
// block on paced upstream calls for the length of the run, so they carry
// their own deadline sized to the worst-case batch.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Prometheus)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.Security.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(s.cfg.Server.Timeout))
		r.Get("/health", s.handleHealth)
		r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	})

	r.Route("/api/v1", func(r chi.Router) {
		if !s.cfg.Security.RateLimitDisabled {
			r.Use(httprate.LimitByIP(s.cfg.Security.RateLimitReqs, s.cfg.Security.RateLimitWindow))
		}

		r.Route("/analytics", func(r chi.Router) {
			r.Use(chimw.Timeout(s.cfg.Server.Timeout))
			r.Get("/genre-distribution", s.handleGenreDistribution)
			r.Get("/top-artists-by-country", s.handleTopArtists)
			r.Get("/artist-nationality-distribution", s.handleNationalityDistribution)
			r.Get("/country-genre-comparison", s.handleGenreComparison)
		})

		r.Route("/etl", func(r chi.Router) {
			// A full enrichment batch waits minutes on MusicBrainz
			// pacing; the shared timeout would abort it mid-run.
			r.Use(chimw.Timeout(s.cfg.EtlRequestTimeout()))
			r.Use(s.auther.Middleware(s.respondAuthError))
			if !s.cfg.Security.RateLimitDisabled {
				// Each trigger fans out to upstream APIs; keep it tight.
				r.Use(httprate.LimitByIP(10, time.Minute))
			}
			r.Post("/charts/run", s.handleChartRun)
			r.Post("/enrichment/run", s.handleEnrichmentRun)
		})

		r.Group(func(r chi.Router) {
			r.Use(chimw.Timeout(s.cfg.Server.Timeout))
			r.Post("/auth/login", s.handleLogin)
		})
	})

	return r
}
