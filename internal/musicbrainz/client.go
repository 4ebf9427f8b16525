// MusicScope - Music Chart Analytics Backend
// Copyright 2026 MusicScope Authors
// SPDX-License-Identifier: MIT
// https://github.com/musicscope/musicscope

// Package musicbrainz implements the MusicBrainz web service client used
// by metadata enrichment: artist search by name plus per-artist tag and
// country lookup.
//
// MusicBrainz enforces roughly one request per second per client and
// requires an identifying User-Agent. A rate limiter paces every request,
// including the first of a run.
package musicbrainz

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/musicscope/musicscope/internal/config"
	"github.com/musicscope/musicscope/internal/logging"
	"github.com/musicscope/musicscope/internal/metrics"
)

const maxResponseBody = 10 << 20

// ArtistMatch is the best search hit for an artist name.
type ArtistMatch struct {
	MBID string
	Name string
}

// ArtistDetail holds the enrichment fields of one artist lookup.
type ArtistDetail struct {
	Country *string
	Tags    []string // source order, not deduplicated
}

// UpstreamError reports a non-success response from MusicBrainz.
type UpstreamError struct {
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("musicbrainz: upstream status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("musicbrainz: %s", e.Message)
}

// Client calls the MusicBrainz web service.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a MusicBrainz client from config. RequestInterval
// sets the pacing between requests; it must be positive (validated at
// config load).
func NewClient(cfg *config.MusicBrainzConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	interval := cfg.RequestInterval
	if interval <= 0 {
		interval = time.Second
	}
	return &Client{
		baseURL:   cfg.BaseURL,
		userAgent: cfg.UserAgent,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		limiter: rate.NewLimiter(rate.Every(interval), 1),
	}
}

type searchResponse struct {
	Artists []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"artists"`
}

type artistResponse struct {
	Country string `json:"country"`
	Tags    []struct {
		Name string `json:"name"`
	} `json:"tags"`
}

// SearchArtist looks up an artist by exact-name query and returns the
// best match, or (nil, nil) when MusicBrainz has no candidate at all.
func (c *Client) SearchArtist(ctx context.Context, name string) (*ArtistMatch, error) {
	params := url.Values{}
	params.Set("query", fmt.Sprintf("artist:%q", name))
	params.Set("fmt", "json")
	params.Set("limit", "1")

	var payload searchResponse
	if err := c.getJSON(ctx, "/artist", params, &payload); err != nil {
		return nil, err
	}

	if len(payload.Artists) == 0 {
		logging.Debug().Str("artist", name).Msg("No MusicBrainz match")
		return nil, nil
	}
	return &ArtistMatch{
		MBID: payload.Artists[0].ID,
		Name: payload.Artists[0].Name,
	}, nil
}

// GetArtistDetail fetches country and tags for a known MBID. A missing
// country stays nil; tags keep their source order and casing.
func (c *Client) GetArtistDetail(ctx context.Context, mbid string) (*ArtistDetail, error) {
	params := url.Values{}
	params.Set("inc", "tags")
	params.Set("fmt", "json")

	var payload artistResponse
	if err := c.getJSON(ctx, "/artist/"+url.PathEscape(mbid), params, &payload); err != nil {
		return nil, err
	}

	detail := &ArtistDetail{}
	if payload.Country != "" {
		country := payload.Country
		detail.Country = &country
	}
	for _, tag := range payload.Tags {
		if tag.Name != "" {
			detail.Tags = append(detail.Tags, tag.Name)
		}
	}
	return detail, nil
}

// getJSON performs one paced, identified GET against the web service.
func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("musicbrainz: rate limiter: %w", err)
	}

	reqURL := c.baseURL + path + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("musicbrainz: build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.RecordUpstreamRequest("musicbrainz", time.Since(start), err)
	if err != nil {
		return &UpstreamError{Message: err.Error()}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return &UpstreamError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("read body: %v", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &UpstreamError{StatusCode: resp.StatusCode, Message: truncate(string(body), 200)}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &UpstreamError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("decode response: %v", err)}
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
