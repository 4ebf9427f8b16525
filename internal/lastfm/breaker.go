// MusicScope - Music Chart Analytics Backend
// Copyright 2026 MusicScope Authors
// SPDX-License-Identifier: MIT
// https://github.com/musicscope/musicscope

package lastfm

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/musicscope/musicscope/internal/logging"
	"github.com/musicscope/musicscope/internal/metrics"
)

// ChartSource is the read interface chart ingestion consumes. Both the
// raw Client and the breaker-wrapped client satisfy it.
type ChartSource interface {
	GetTopTracksByCountry(ctx context.Context, country string, limit int) ([]ChartTrack, error)
}

// BreakerClient wraps a ChartSource with a circuit breaker so that a
// failing Last.fm API stops consuming ETL runs with doomed requests.
type BreakerClient struct {
	source  ChartSource
	breaker *gobreaker.CircuitBreaker[[]ChartTrack]
}

// NewBreakerClient wraps source with a circuit breaker.
//
// Settings: the breaker trips when at least 60% of the last >=10 requests
// failed, allows 3 probe requests in half-open state, and retries a
// tripped circuit after 2 minutes.
func NewBreakerClient(source ChartSource) *BreakerClient {
	settings := gobreaker.Settings{
		Name:        "lastfm-api",
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 10 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", stateToString(from)).
				Str("to", stateToString(to)).
				Msg("Circuit breaker state changed")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, stateToString(from), stateToString(to)).Inc()
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			// Config errors are not upstream failures.
			var ce *configErr
			return errors.As(err, &ce)
		},
	}

	return &BreakerClient{
		source:  source,
		breaker: gobreaker.NewCircuitBreaker[[]ChartTrack](settings),
	}
}

// GetTopTracksByCountry proxies through the breaker. A missing API key is
// a configuration problem, not upstream health, so it bypasses the
// breaker's failure accounting.
func (b *BreakerClient) GetTopTracksByCountry(ctx context.Context, country string, limit int) ([]ChartTrack, error) {
	tracks, err := b.breaker.Execute(func() ([]ChartTrack, error) {
		tracks, err := b.source.GetTopTracksByCountry(ctx, country, limit)
		if errors.Is(err, ErrAPIKeyMissing) {
			// Do not count config errors against the breaker.
			return nil, &configErr{err}
		}
		return tracks, err
	})
	var ce *configErr
	if errors.As(err, &ce) {
		return nil, ce.err
	}
	return tracks, err
}

// State returns the breaker's current state name for status reporting.
func (b *BreakerClient) State() string {
	return stateToString(b.breaker.State())
}

type configErr struct{ err error }

func (e *configErr) Error() string { return e.err.Error() }
func (e *configErr) Unwrap() error { return e.err }

func stateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func stateToString(s gobreaker.State) string {
	switch s {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
