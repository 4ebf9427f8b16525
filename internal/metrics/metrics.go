// MusicScope - Music Chart Analytics Backend
// Copyright 2026 MusicScope Authors
// SPDX-License-Identifier: MIT
// https://github.com/musicscope/musicscope

// Package metrics provides Prometheus instrumentation for:
//   - Database query performance (DuckDB)
//   - API endpoint latency and throughput
//   - ETL run outcomes and durations
//   - Upstream API calls and circuit breaker state
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation", "table"},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	// ETL Run Metrics
	EtlRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "etl_runs_total",
			Help: "Total number of ETL runs by type and outcome",
		},
		[]string{"etl_type", "status"}, // status: "success", "failed"
	)

	EtlRunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "etl_run_duration_seconds",
			Help:    "Duration of ETL runs in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600}, // Runs are dominated by upstream pacing
		},
		[]string{"etl_type"},
	)

	EtlRecordsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "etl_records_processed_total",
			Help: "Total number of records written or updated by ETL runs",
		},
		[]string{"etl_type"},
	)

	// Upstream API Metrics
	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "upstream_request_duration_seconds",
			Help:    "Duration of upstream API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source"}, // "lastfm", "musicbrainz"
	)

	UpstreamRequestErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstream_request_errors_total",
			Help: "Total number of upstream API request failures",
		},
		[]string{"source"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)
)

// RecordDBQuery records a database query metric
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation, table).Inc()
	}
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordEtlRun records an ETL run outcome
func RecordEtlRun(etlType string, duration time.Duration, recordsProcessed int, err error) {
	EtlRunDuration.WithLabelValues(etlType).Observe(duration.Seconds())
	EtlRecordsProcessed.WithLabelValues(etlType).Add(float64(recordsProcessed))
	status := "success"
	if err != nil {
		status = "failed"
	}
	EtlRunsTotal.WithLabelValues(etlType, status).Inc()
}

// RecordUpstreamRequest records an upstream API call
func RecordUpstreamRequest(source string, duration time.Duration, err error) {
	UpstreamRequestDuration.WithLabelValues(source).Observe(duration.Seconds())
	if err != nil {
		UpstreamRequestErrors.WithLabelValues(source).Inc()
	}
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}
