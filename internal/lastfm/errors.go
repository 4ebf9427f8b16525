// MusicScope - Music Chart Analytics Backend
// Copyright 2026 MusicScope Authors
// SPDX-License-Identifier: MIT
// https://github.com/musicscope/musicscope

package lastfm

import (
	"errors"
	"fmt"
)

// ErrAPIKeyMissing is returned before any request is attempted when no
// Last.fm API key is configured. Chart ingestion cannot run without one.
var ErrAPIKeyMissing = errors.New("lastfm: api key not configured (set LASTFM_API_KEY)")

// UpstreamError reports a non-success response from the Last.fm API:
// either a non-2xx HTTP status, an embedded error payload, or a transport
// failure (including timeouts).
type UpstreamError struct {
	StatusCode int    // HTTP status, 0 for transport failures
	Code       int    // Last.fm error code from the payload, 0 if absent
	Message    string
}

func (e *UpstreamError) Error() string {
	switch {
	case e.Code != 0:
		return fmt.Sprintf("lastfm: upstream error %d: %s", e.Code, e.Message)
	case e.StatusCode != 0:
		return fmt.Sprintf("lastfm: upstream status %d: %s", e.StatusCode, e.Message)
	default:
		return fmt.Sprintf("lastfm: %s", e.Message)
	}
}
