// MusicScope - Music Chart Analytics Backend
// Copyright 2026 MusicScope Authors
// SPDX-License-Identifier: MIT
// https://github.com/musicscope/musicscope

// Package models defines the domain rows stored in DuckDB and the payload
// structs returned by the HTTP API.
package models

import (
	"time"
)

// Artist is a chart artist, enriched over time with MusicBrainz metadata.
//
// Genres is an ordered list of tag names as delivered by the metadata
// source: not deduplicated, source order preserved, capped at 5 entries.
// It is serialized to a comma-separated string only at the storage
// boundary. A nil slice means the artist has not been enriched (or the
// source had no tags).
type Artist struct {
	ID            int64      `json:"id"`
	MusicBrainzID *string    `json:"musicbrainz_id"`
	Name          string     `json:"name"`
	Country       *string    `json:"country"`
	Genres        []string   `json:"genres"`
	CreatedAt     time.Time  `json:"created_at"`
}

// Track is one chart entry's track. Re-ingesting the same chart creates new
// Track rows; duplicates are an accepted property of the append-only model.
type Track struct {
	ID       int64   `json:"id"`
	LastfmID *string `json:"lastfm_id"`
	MBID     *string `json:"mbid"`
	Title    string  `json:"title"`
	ArtistID int64   `json:"artist_id"`
	Duration *int    `json:"duration"`
	URL      *string `json:"url"`
}

// TrackTrend is one snapshot fact: a track's rank in a country chart at
// fetch time. All rows written by one ingestion run share one FetchedAt.
type TrackTrend struct {
	ID        int64     `json:"id"`
	TrackID   int64     `json:"track_id"`
	Country   string    `json:"country"`
	Rank      int       `json:"rank"`
	FetchedAt time.Time `json:"fetched_at"`
}

// EtlLog is the audit record written for every ingestion run.
// The aggregation endpoints never read it.
type EtlLog struct {
	ID           string     `json:"id"`
	EtlType      string     `json:"etl_type"`
	Status       string     `json:"status"`
	StartedAt    time.Time  `json:"started_at"`
	FinishedAt   *time.Time `json:"finished_at"`
	ErrorMessage *string    `json:"error_message"`
}

// EtlLog status values.
const (
	EtlStatusRunning = "running"
	EtlStatusSuccess = "success"
	EtlStatusFailed  = "failed"
)

// EtlLog type values.
const (
	EtlTypeCharts     = "lastfm_charts"
	EtlTypeEnrichment = "musicbrainz_enrichment"
)

// User is a local account for JWT authentication. Only the configured admin
// row exists today.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	IsAdmin      bool      `json:"is_admin"`
	CreatedAt    time.Time `json:"created_at"`
}
