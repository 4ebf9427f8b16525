// MusicScope - Music Chart Analytics Backend
// Copyright 2026 MusicScope Authors
// SPDX-License-Identifier: MIT
// https://github.com/musicscope/musicscope

// Package api exposes the HTTP surface: the four analytics aggregations,
// the two ETL trigger endpoints, login, health, and Prometheus metrics.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/musicscope/musicscope/internal/auth"
	"github.com/musicscope/musicscope/internal/config"
	"github.com/musicscope/musicscope/internal/database"
	"github.com/musicscope/musicscope/internal/lastfm"
	"github.com/musicscope/musicscope/internal/logging"
	"github.com/musicscope/musicscope/internal/models"
	"github.com/musicscope/musicscope/internal/musicbrainz"
	"github.com/musicscope/musicscope/internal/validation"
)

// defaultTopN applies when top_n is absent from an analytics request.
const defaultTopN = 10

// AnalyticsEngine is the aggregation surface consumed by the handlers.
type AnalyticsEngine interface {
	GenreDistribution(ctx context.Context, country string, topN int) (*models.GenreDistribution, error)
	TopArtists(ctx context.Context, country string, topN int) (*models.TopArtists, error)
	NationalityDistribution(ctx context.Context, country string, topN int) (*models.NationalityDistribution, error)
	GenreComparison(ctx context.Context, c1, c2 string, topN int) (*models.GenreComparison, error)
}

// EtlRunner triggers ingestion runs.
type EtlRunner interface {
	RunChartIngestion(ctx context.Context, country string, limit int) (*models.ChartRunResult, error)
	RunMetadataEnrichment(ctx context.Context, limit int) (*models.EnrichmentRunResult, error)
}

// UserStore resolves login credentials.
type UserStore interface {
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

// Pinger is the liveness check of the storage layer.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server holds the handler dependencies.
type Server struct {
	cfg     *config.Config
	engine  AnalyticsEngine
	runner  EtlRunner
	users   UserStore
	pinger  Pinger
	auther  *auth.Authenticator
	version string
}

// NewServer wires the HTTP handlers to their collaborators.
func NewServer(cfg *config.Config, engine AnalyticsEngine, runner EtlRunner, users UserStore, pinger Pinger, auther *auth.Authenticator, version string) *Server {
	return &Server{
		cfg:     cfg,
		engine:  engine,
		runner:  runner,
		users:   users,
		pinger:  pinger,
		auther:  auther,
		version: version,
	}
}

// ----------------------------------------------------------------------------
// Health
// ----------------------------------------------------------------------------

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	httpStatus := http.StatusOK
	if err := s.pinger.Ping(r.Context()); err != nil {
		logging.Err(err).Msg("Health check database ping failed")
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	}
	respondJSON(w, httpStatus, map[string]string{
		"status":  status,
		"version": s.version,
	}, time.Time{})
}

// ----------------------------------------------------------------------------
// Analytics
// ----------------------------------------------------------------------------

func (s *Server) handleGenreDistribution(w http.ResponseWriter, r *http.Request) {
	params, ok := s.analyticsParams(w, r)
	if !ok {
		return
	}
	start := time.Now()
	result, err := s.engine.GenreDistribution(r.Context(), params.Country, params.TopN)
	if err != nil {
		s.respondEngineError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result, start)
}

func (s *Server) handleTopArtists(w http.ResponseWriter, r *http.Request) {
	params, ok := s.analyticsParams(w, r)
	if !ok {
		return
	}
	start := time.Now()
	result, err := s.engine.TopArtists(r.Context(), params.Country, params.TopN)
	if err != nil {
		s.respondEngineError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result, start)
}

func (s *Server) handleNationalityDistribution(w http.ResponseWriter, r *http.Request) {
	params, ok := s.analyticsParams(w, r)
	if !ok {
		return
	}
	start := time.Now()
	result, err := s.engine.NationalityDistribution(r.Context(), params.Country, params.TopN)
	if err != nil {
		s.respondEngineError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result, start)
}

func (s *Server) handleGenreComparison(w http.ResponseWriter, r *http.Request) {
	topN, err := intParam(r, "top_n", defaultTopN)
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	params := validation.ComparisonParams{
		Country1: r.URL.Query().Get("c1"),
		Country2: r.URL.Query().Get("c2"),
		TopN:     topN,
	}
	if err := validation.ValidateStruct(params); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	start := time.Now()
	result, err := s.engine.GenreComparison(r.Context(), params.Country1, params.Country2, params.TopN)
	if err != nil {
		s.respondEngineError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result, start)
}

// analyticsParams parses and validates the shared country/top_n pair.
func (s *Server) analyticsParams(w http.ResponseWriter, r *http.Request) (validation.AnalyticsParams, bool) {
	topN, err := intParam(r, "top_n", defaultTopN)
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return validation.AnalyticsParams{}, false
	}
	params := validation.AnalyticsParams{
		Country: r.URL.Query().Get("country"),
		TopN:    topN,
	}
	if err := validation.ValidateStruct(params); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return validation.AnalyticsParams{}, false
	}
	return params, true
}

// ----------------------------------------------------------------------------
// ETL triggers
// ----------------------------------------------------------------------------

func (s *Server) handleChartRun(w http.ResponseWriter, r *http.Request) {
	country := r.URL.Query().Get("country")
	if country == "" {
		country = s.cfg.ETL.DefaultCountry
	}
	limit, err := intParam(r, "limit", s.cfg.ETL.DefaultLimit)
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	params := validation.ChartRunParams{Country: country, Limit: limit}
	if err := validation.ValidateStruct(params); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	result, err := s.runner.RunChartIngestion(r.Context(), params.Country, params.Limit)
	if err != nil {
		s.respondEtlError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result, time.Time{})
}

func (s *Server) handleEnrichmentRun(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit", 50)
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	params := validation.EnrichmentRunParams{Limit: limit}
	if err := validation.ValidateStruct(params); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	result, err := s.runner.RunMetadataEnrichment(r.Context(), params.Limit)
	if err != nil {
		s.respondEtlError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result, time.Time{})
}

// ----------------------------------------------------------------------------
// Auth
// ----------------------------------------------------------------------------

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !s.auther.Enabled() {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "authentication is disabled")
		return
	}

	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "username and password are required")
		return
	}

	user, err := s.users.GetUserByUsername(r.Context(), req.Username)
	if errors.Is(err, database.ErrNotFound) {
		respondError(w, http.StatusUnauthorized, "AUTHENTICATION_ERROR", auth.ErrInvalidCredentials.Error())
		return
	}
	if err != nil {
		logging.Err(err).Msg("Login user lookup failed")
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "login failed")
		return
	}

	if err := auth.VerifyPassword(user.PasswordHash, req.Password); err != nil {
		respondError(w, http.StatusUnauthorized, "AUTHENTICATION_ERROR", auth.ErrInvalidCredentials.Error())
		return
	}

	token, expiresAt, err := s.auther.IssueToken(user.Username, user.IsAdmin)
	if err != nil {
		logging.Err(err).Msg("Token issuance failed")
		respondError(w, http.StatusInternalServerError, "AUTHENTICATION_ERROR", "could not issue token")
		return
	}

	respondJSON(w, http.StatusOK, models.LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		Username:  user.Username,
	}, time.Time{})
}

// respondAuthError renders the 401 for the auth middleware.
func (s *Server) respondAuthError(w http.ResponseWriter, r *http.Request, err error) {
	respondError(w, http.StatusUnauthorized, "AUTHENTICATION_ERROR", err.Error())
}

// ----------------------------------------------------------------------------
// Error mapping
// ----------------------------------------------------------------------------

// respondEngineError maps aggregation failures. The engine only errors on
// storage problems; empty data is a success payload with a note.
func (s *Server) respondEngineError(w http.ResponseWriter, r *http.Request, err error) {
	logging.Err(err).Str("path", r.URL.Path).Msg("Analytics query failed")
	respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "query failed")
}

// respondEtlError maps ingestion failures: missing credentials are a
// config problem, upstream responses map to 502, the rest to 500.
func (s *Server) respondEtlError(w http.ResponseWriter, r *http.Request, err error) {
	logging.Err(err).Str("path", r.URL.Path).Msg("ETL run failed")

	var lastfmErr *lastfm.UpstreamError
	var mbErr *musicbrainz.UpstreamError
	switch {
	case errors.Is(err, lastfm.ErrAPIKeyMissing):
		respondError(w, http.StatusServiceUnavailable, "CONFIG_ERROR", err.Error())
	case errors.As(err, &lastfmErr), errors.As(err, &mbErr):
		respondError(w, http.StatusBadGateway, "UPSTREAM_ERROR", err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "ingestion run failed")
	}
}

// intParam parses an optional integer query parameter.
func intParam(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New(name + " must be an integer")
	}
	return v, nil
}
