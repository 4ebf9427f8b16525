// MusicScope - Music Chart Analytics Backend
// Copyright 2026 MusicScope Authors
// SPDX-License-Identifier: MIT
// https://github.com/musicscope/musicscope

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/musicscope/musicscope/internal/models"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// Tx groups the write operations of one ingestion run into a single
// transaction, so a partial failure leaves no rows instead of a prefix.
type Tx struct {
	tx *sql.Tx
}

// WithTx runs fn inside a transaction, committing on success and rolling
// back on error or panic.
func (db *DB) WithTx(ctx context.Context, fn func(*Tx) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(&Tx{tx: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// ArtistIDByName returns the id of the artist with the exact given name.
// When multiple rows share the name, the lowest id wins (stable choice).
func (t *Tx) ArtistIDByName(ctx context.Context, name string) (int64, bool, error) {
	var id int64
	err := t.tx.QueryRowContext(ctx,
		`SELECT id FROM artists WHERE name = ? ORDER BY id LIMIT 1`, name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("query artist by name: %w", err)
	}
	return id, true, nil
}

// CreateArtist inserts a bare artist row (name only) and returns its id.
// Country and genres stay null until metadata enrichment fills them.
func (t *Tx) CreateArtist(ctx context.Context, name string) (int64, error) {
	var id int64
	err := t.tx.QueryRowContext(ctx,
		`INSERT INTO artists (name) VALUES (?) RETURNING id`, name).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert artist: %w", err)
	}
	return id, nil
}

// CreateTrack inserts a track row and returns its id. Every chart item
// creates a new row; there is no dedup against earlier ingestions.
func (t *Tx) CreateTrack(ctx context.Context, track *models.Track) (int64, error) {
	var id int64
	err := t.tx.QueryRowContext(ctx,
		`INSERT INTO tracks (lastfm_id, mbid, title, artist_id, duration, url)
		 VALUES (?, ?, ?, ?, ?, ?) RETURNING id`,
		track.LastfmID, track.MBID, track.Title, track.ArtistID, track.Duration, track.URL).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert track: %w", err)
	}
	return id, nil
}

// CreateTrackTrend inserts one snapshot fact row.
func (t *Tx) CreateTrackTrend(ctx context.Context, trend *models.TrackTrend) error {
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO track_trends (track_id, country, rank, fetched_at)
		 VALUES (?, ?, ?, ?)`,
		trend.TrackID, trend.Country, trend.Rank, trend.FetchedAt)
	if err != nil {
		return fmt.Errorf("insert track trend: %w", err)
	}
	return nil
}

// UpdateArtistEnrichment sets the metadata fields filled by enrichment.
// A nil country stays null; an empty genres list stores null.
func (t *Tx) UpdateArtistEnrichment(ctx context.Context, artistID int64, musicBrainzID string, country *string, genres []string) error {
	_, err := t.tx.ExecContext(ctx,
		`UPDATE artists SET musicbrainz_id = ?, country = ?, genres = ? WHERE id = ?`,
		musicBrainzID, country, genresToColumn(genres), artistID)
	if err != nil {
		return fmt.Errorf("update artist %d: %w", artistID, err)
	}
	return nil
}

// ListArtistsNeedingEnrichment returns up to limit artists whose country is
// still null, ascending by id. The ascending order makes repeated
// enrichment runs work through the backlog deterministically.
func (db *DB) ListArtistsNeedingEnrichment(ctx context.Context, limit int) ([]models.Artist, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, musicbrainz_id, name, country, genres, created_at
		 FROM artists WHERE country IS NULL ORDER BY id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query artists needing enrichment: %w", err)
	}
	defer closeQuietly(rows)

	var artists []models.Artist
	for rows.Next() {
		a, err := scanArtist(rows)
		if err != nil {
			return nil, err
		}
		artists = append(artists, a)
	}
	return artists, rows.Err()
}

// GetArtist returns one artist row by id.
func (db *DB) GetArtist(ctx context.Context, id int64) (*models.Artist, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, musicbrainz_id, name, country, genres, created_at
		 FROM artists WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("query artist: %w", err)
	}
	defer closeQuietly(rows)

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, ErrNotFound
	}
	a, err := scanArtist(rows)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// scanArtist reads one artists row from a positioned *sql.Rows.
func scanArtist(rows *sql.Rows) (models.Artist, error) {
	var (
		a         models.Artist
		mbid      sql.NullString
		country   sql.NullString
		genresCSV sql.NullString
	)
	if err := rows.Scan(&a.ID, &mbid, &a.Name, &country, &genresCSV, &a.CreatedAt); err != nil {
		return models.Artist{}, fmt.Errorf("scan artist: %w", err)
	}
	if mbid.Valid {
		a.MusicBrainzID = &mbid.String
	}
	if country.Valid {
		a.Country = &country.String
	}
	a.Genres = columnToGenres(genresCSV)
	return a, nil
}

// CreateEtlLog writes the audit row at run start (status "running").
// It commits immediately so a crashed run still leaves a trace.
func (db *DB) CreateEtlLog(ctx context.Context, log *models.EtlLog) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO etl_logs (id, etl_type, status, started_at)
		 VALUES (?, ?, ?, ?)`,
		log.ID, log.EtlType, log.Status, log.StartedAt)
	if err != nil {
		return fmt.Errorf("insert etl log: %w", err)
	}
	return nil
}

// FinishEtlLog records the outcome of a run.
func (db *DB) FinishEtlLog(ctx context.Context, id, status string, finishedAt time.Time, errorMessage *string) error {
	_, err := db.conn.ExecContext(ctx,
		`UPDATE etl_logs SET status = ?, finished_at = ?, error_message = ? WHERE id = ?`,
		status, finishedAt, errorMessage, id)
	if err != nil {
		return fmt.Errorf("update etl log %s: %w", id, err)
	}
	return nil
}

// GetEtlLog returns one audit row by run id.
func (db *DB) GetEtlLog(ctx context.Context, id string) (*models.EtlLog, error) {
	var (
		log        models.EtlLog
		finishedAt sql.NullTime
		errMsg     sql.NullString
	)
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, etl_type, status, started_at, finished_at, error_message
		 FROM etl_logs WHERE id = ?`, id).
		Scan(&log.ID, &log.EtlType, &log.Status, &log.StartedAt, &finishedAt, &errMsg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query etl log: %w", err)
	}
	if finishedAt.Valid {
		log.FinishedAt = &finishedAt.Time
	}
	if errMsg.Valid {
		log.ErrorMessage = &errMsg.String
	}
	return &log, nil
}

// GetUserByUsername returns the user row for a login attempt.
func (db *DB) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, username, password_hash, is_admin, created_at
		 FROM users WHERE username = ?`, username).
		Scan(&u.ID, &u.Username, &u.PasswordHash, &u.IsAdmin, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	return &u, nil
}

// EnsureAdminUser creates or updates the admin row so the stored bcrypt
// hash always matches the configured credentials.
func (db *DB) EnsureAdminUser(ctx context.Context, username, passwordHash string) error {
	_, err := db.GetUserByUsername(ctx, username)
	switch {
	case errors.Is(err, ErrNotFound):
		_, err = db.conn.ExecContext(ctx,
			`INSERT INTO users (username, password_hash, is_admin) VALUES (?, ?, true)`,
			username, passwordHash)
		if err != nil {
			return fmt.Errorf("insert admin user: %w", err)
		}
		return nil
	case err != nil:
		return err
	default:
		_, err = db.conn.ExecContext(ctx,
			`UPDATE users SET password_hash = ?, is_admin = true WHERE username = ?`,
			passwordHash, username)
		if err != nil {
			return fmt.Errorf("update admin user: %w", err)
		}
		return nil
	}
}

// genresToColumn serializes the ordered genre list to its storage form.
// The list contract (source order, not deduplicated, capped at 5) is
// enforced by the enrichment job; this only joins.
func genresToColumn(genres []string) interface{} {
	if len(genres) == 0 {
		return nil
	}
	return strings.Join(genres, ",")
}

// columnToGenres parses the stored comma-separated form back to a list.
func columnToGenres(col sql.NullString) []string {
	if !col.Valid || col.String == "" {
		return nil
	}
	parts := strings.Split(col.String, ",")
	genres := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			genres = append(genres, p)
		}
	}
	return genres
}
