// MusicScope - Music Chart Analytics Backend
// Copyright 2026 MusicScope Authors
// SPDX-License-Identifier: MIT
// https://github.com/musicscope/musicscope

// Package lastfm implements the Last.fm web API client used by chart
// ingestion. Only the geo.gettoptracks method is consumed.
package lastfm

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/musicscope/musicscope/internal/config"
	"github.com/musicscope/musicscope/internal/logging"
	"github.com/musicscope/musicscope/internal/metrics"
)

// maxResponseBody caps how much of an upstream response is read (10MB).
const maxResponseBody = 10 << 20

// ChartTrack is one entry of a country's top-tracks chart, in source
// order. Rank comes from the per-item rank attribute.
type ChartTrack struct {
	ArtistName string
	Title      string
	URL        *string
	MBID       *string
	Rank       int
}

// Client calls the Last.fm web API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a Last.fm client from config. The configured timeout
// bounds every request; a timeout surfaces as an UpstreamError.
func NewClient(cfg *config.LastfmConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Wire types for the geo.gettoptracks response. The same payload carries
// either the chart or an embedded error object; both are decoded at once
// and the error checked first.
type topTracksResponse struct {
	Tracks struct {
		Track []wireTrack `json:"track"`
	} `json:"tracks"`
	ErrorCode int    `json:"error"`
	Message   string `json:"message"`
}

type wireTrack struct {
	Name   string `json:"name"`
	URL    string `json:"url"`
	MBID   string `json:"mbid"`
	Artist struct {
		Name string `json:"name"`
	} `json:"artist"`
	Attr struct {
		Rank string `json:"rank"`
	} `json:"@attr"`
}

// GetTopTracksByCountry fetches up to limit chart entries for a country.
// Returns ErrAPIKeyMissing without issuing a request when no key is
// configured, and *UpstreamError for any upstream failure.
func (c *Client) GetTopTracksByCountry(ctx context.Context, country string, limit int) ([]ChartTrack, error) {
	if c.apiKey == "" {
		return nil, ErrAPIKeyMissing
	}

	params := url.Values{}
	params.Set("method", "geo.gettoptracks")
	params.Set("country", country)
	params.Set("limit", strconv.Itoa(limit))
	params.Set("api_key", c.apiKey)
	params.Set("format", "json")

	reqURL := c.baseURL + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("lastfm: build request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.RecordUpstreamRequest("lastfm", time.Since(start), err)
	if err != nil {
		return nil, &UpstreamError{Message: err.Error()}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("read body: %v", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Message: truncate(string(body), 200)}
	}

	var payload topTracksResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("decode response: %v", err)}
	}

	// Last.fm reports API errors inside a 200 response.
	if payload.ErrorCode != 0 {
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Code: payload.ErrorCode, Message: payload.Message}
	}

	tracks := make([]ChartTrack, 0, len(payload.Tracks.Track))
	for i, wt := range payload.Tracks.Track {
		rank, err := strconv.Atoi(wt.Attr.Rank)
		if err != nil {
			// Some entries lack the rank attribute; position is the
			// source order anyway.
			rank = i + 1
		}
		ct := ChartTrack{
			ArtistName: wt.Artist.Name,
			Title:      wt.Name,
			Rank:       rank,
		}
		if wt.URL != "" {
			u := wt.URL
			ct.URL = &u
		}
		if wt.MBID != "" {
			m := wt.MBID
			ct.MBID = &m
		}
		tracks = append(tracks, ct)
	}

	logging.Debug().Str("country", country).Int("tracks", len(tracks)).Msg("Fetched Last.fm chart")

	return tracks, nil
}

// truncate shortens s for error messages.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
