// MusicScope - Music Chart Analytics Backend
// Copyright 2026 MusicScope Authors
// SPDX-License-Identifier: MIT
// https://github.com/musicscope/musicscope

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/musicscope/musicscope/internal/metrics"
	"github.com/musicscope/musicscope/internal/models"
)

// The queries below implement the read side of the aggregation engine.
// Each one is scoped to a single snapshot: the caller first resolves
// max(fetched_at) for the country, then passes that exact timestamp back.

// LatestSnapshotTime returns max(fetched_at) over trend rows for the chart
// country, or nil when the country has no rows yet.
func (db *DB) LatestSnapshotTime(ctx context.Context, country string) (*time.Time, error) {
	start := time.Now()
	var latest sql.NullTime
	err := db.conn.QueryRowContext(ctx,
		`SELECT max(fetched_at) FROM track_trends WHERE country = ?`, country).Scan(&latest)
	metrics.RecordDBQuery("latest_snapshot", "track_trends", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("query latest snapshot time: %w", err)
	}
	if !latest.Valid {
		return nil, nil
	}
	t := latest.Time
	return &t, nil
}

// SnapshotGenres returns one genres string per trend row of the snapshot,
// empty where the artist has no genre data. One row per chart entry, so a
// track appearing twice contributes its artist's tags twice.
func (db *DB) SnapshotGenres(ctx context.Context, country string, fetchedAt time.Time) ([]string, error) {
	start := time.Now()
	rows, err := db.conn.QueryContext(ctx,
		`SELECT coalesce(a.genres, '')
		 FROM track_trends tt
		 JOIN tracks t ON tt.track_id = t.id
		 JOIN artists a ON t.artist_id = a.id
		 WHERE tt.country = ? AND tt.fetched_at = ?`,
		country, fetchedAt)
	metrics.RecordDBQuery("snapshot_genres", "track_trends", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("query snapshot genres: %w", err)
	}
	defer closeQuietly(rows)

	var genres []string
	for rows.Next() {
		var g string
		if err := rows.Scan(&g); err != nil {
			return nil, fmt.Errorf("scan genres row: %w", err)
		}
		genres = append(genres, g)
	}
	return genres, rows.Err()
}

// SnapshotTopArtists groups the snapshot's rows by artist with their track
// counts, ordered by count descending. Ties break by ascending artist id
// so repeated calls return identical rankings.
func (db *DB) SnapshotTopArtists(ctx context.Context, country string, fetchedAt time.Time, topN int) ([]models.TopArtistRow, error) {
	start := time.Now()
	rows, err := db.conn.QueryContext(ctx,
		`SELECT a.id, a.name, a.country, coalesce(a.genres, ''), count(t.id) AS track_count
		 FROM track_trends tt
		 JOIN tracks t ON tt.track_id = t.id
		 JOIN artists a ON t.artist_id = a.id
		 WHERE tt.country = ? AND tt.fetched_at = ?
		 GROUP BY a.id, a.name, a.country, a.genres
		 ORDER BY track_count DESC, a.id ASC
		 LIMIT ?`,
		country, fetchedAt, topN)
	metrics.RecordDBQuery("snapshot_top_artists", "track_trends", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("query top artists: %w", err)
	}
	defer closeQuietly(rows)

	var result []models.TopArtistRow
	for rows.Next() {
		var (
			r             models.TopArtistRow
			artistCountry sql.NullString
		)
		if err := rows.Scan(&r.ArtistID, &r.ArtistName, &artistCountry, &r.GenresRaw, &r.TrackCount); err != nil {
			return nil, fmt.Errorf("scan top artist row: %w", err)
		}
		if artistCountry.Valid {
			r.ArtistCountry = &artistCountry.String
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

// SnapshotNationalities counts distinct artists per non-null artist
// country in the snapshot, ordered by count descending.
func (db *DB) SnapshotNationalities(ctx context.Context, country string, fetchedAt time.Time, topN int) ([]models.NationalityRow, error) {
	start := time.Now()
	rows, err := db.conn.QueryContext(ctx,
		`SELECT a.country, count(DISTINCT a.id) AS artist_count
		 FROM track_trends tt
		 JOIN tracks t ON tt.track_id = t.id
		 JOIN artists a ON t.artist_id = a.id
		 WHERE tt.country = ? AND tt.fetched_at = ? AND a.country IS NOT NULL
		 GROUP BY a.country
		 ORDER BY artist_count DESC, a.country ASC
		 LIMIT ?`,
		country, fetchedAt, topN)
	metrics.RecordDBQuery("snapshot_nationalities", "track_trends", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("query nationalities: %w", err)
	}
	defer closeQuietly(rows)

	var result []models.NationalityRow
	for rows.Next() {
		var r models.NationalityRow
		if err := rows.Scan(&r.ArtistCountry, &r.Count); err != nil {
			return nil, fmt.Errorf("scan nationality row: %w", err)
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

// CountTrackTrends returns the number of trend rows for a country across
// all snapshots. Used by health/status reporting and tests.
func (db *DB) CountTrackTrends(ctx context.Context, country string) (int, error) {
	var n int
	err := db.conn.QueryRowContext(ctx,
		`SELECT count(*) FROM track_trends WHERE country = ?`, country).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count track trends: %w", err)
	}
	return n, nil
}
