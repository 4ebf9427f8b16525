// MusicScope - Music Chart Analytics Backend
// Copyright 2026 MusicScope Authors
// SPDX-License-Identifier: MIT
// https://github.com/musicscope/musicscope

package api

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/musicscope/musicscope/internal/logging"
	"github.com/musicscope/musicscope/internal/models"
)

// respondJSON writes a success envelope. queryStart, when non-zero, is
// surfaced as query_time_ms.
func respondJSON(w http.ResponseWriter, status int, data interface{}, queryStart time.Time) {
	resp := models.APIResponse{
		Status: "success",
		Data:   data,
		Metadata: models.Metadata{
			Timestamp: time.Now().UTC(),
		},
	}
	if !queryStart.IsZero() {
		resp.Metadata.QueryTimeMS = time.Since(queryStart).Milliseconds()
	}
	writeEnvelope(w, status, &resp)
}

// respondError writes an error envelope with a structured code.
func respondError(w http.ResponseWriter, status int, code, message string) {
	resp := models.APIResponse{
		Status: "error",
		Metadata: models.Metadata{
			Timestamp: time.Now().UTC(),
		},
		Error: &models.APIError{
			Code:    code,
			Message: message,
		},
	}
	writeEnvelope(w, status, &resp)
}

func writeEnvelope(w http.ResponseWriter, status int, resp *models.APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logging.Err(err).Msg("Failed to encode response")
	}
}
