// MusicScope - Music Chart Analytics Backend
// Copyright 2026 MusicScope Authors
// SPDX-License-Identifier: MIT
// https://github.com/musicscope/musicscope

package database

import (
	"context"
	"fmt"
)

// schemaStatements creates the snapshot-store tables. Surrogate keys come
// from sequences; DuckDB has no auto-increment columns.
//
// track_trends is append-only: re-running chart ingestion for a country
// writes a new snapshot (new fetched_at) and never touches old rows.
// tracks has no uniqueness constraint either; duplicate track rows across
// re-ingestions are part of the history model.
var schemaStatements = []string{
	`CREATE SEQUENCE IF NOT EXISTS seq_artists START 1`,
	`CREATE SEQUENCE IF NOT EXISTS seq_tracks START 1`,
	`CREATE SEQUENCE IF NOT EXISTS seq_track_trends START 1`,
	`CREATE SEQUENCE IF NOT EXISTS seq_users START 1`,

	`CREATE TABLE IF NOT EXISTS artists (
		id BIGINT PRIMARY KEY DEFAULT nextval('seq_artists'),
		musicbrainz_id VARCHAR,
		name VARCHAR NOT NULL,
		country VARCHAR,
		genres VARCHAR,
		created_at TIMESTAMP NOT NULL DEFAULT current_timestamp
	)`,

	`CREATE TABLE IF NOT EXISTS tracks (
		id BIGINT PRIMARY KEY DEFAULT nextval('seq_tracks'),
		lastfm_id VARCHAR,
		mbid VARCHAR,
		title VARCHAR NOT NULL,
		artist_id BIGINT NOT NULL,
		duration INTEGER,
		url VARCHAR
	)`,

	`CREATE TABLE IF NOT EXISTS track_trends (
		id BIGINT PRIMARY KEY DEFAULT nextval('seq_track_trends'),
		track_id BIGINT NOT NULL,
		country VARCHAR NOT NULL,
		rank INTEGER NOT NULL,
		fetched_at TIMESTAMP NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS etl_logs (
		id VARCHAR PRIMARY KEY,
		etl_type VARCHAR NOT NULL,
		status VARCHAR NOT NULL,
		started_at TIMESTAMP NOT NULL,
		finished_at TIMESTAMP,
		error_message VARCHAR
	)`,

	`CREATE TABLE IF NOT EXISTS users (
		id BIGINT PRIMARY KEY DEFAULT nextval('seq_users'),
		username VARCHAR NOT NULL UNIQUE,
		password_hash VARCHAR NOT NULL,
		is_admin BOOLEAN NOT NULL DEFAULT false,
		created_at TIMESTAMP NOT NULL DEFAULT current_timestamp
	)`,

	// Every aggregation resolves max(fetched_at) per country first.
	`CREATE INDEX IF NOT EXISTS idx_track_trends_country_fetched
		ON track_trends (country, fetched_at)`,
	`CREATE INDEX IF NOT EXISTS idx_tracks_artist ON tracks (artist_id)`,
	`CREATE INDEX IF NOT EXISTS idx_artists_name ON artists (name)`,
	`CREATE INDEX IF NOT EXISTS idx_artists_country ON artists (country)`,
}

// createSchema runs the schema statements. All statements are idempotent.
func (db *DB) createSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement failed: %w", err)
		}
	}
	return nil
}
