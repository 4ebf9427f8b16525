// MusicScope - Music Chart Analytics Backend
// Copyright 2026 MusicScope Authors
// SPDX-License-Identifier: MIT
// https://github.com/musicscope/musicscope

package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/musicscope/musicscope/internal/config"
	"github.com/musicscope/musicscope/internal/models"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	cfg := &config.DatabaseConfig{
		Path:      filepath.Join(t.TempDir(), "test.duckdb"),
		MaxMemory: "256MB",
		Threads:   2,
	}
	db, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("Close() error: %v", err)
		}
	})
	return db
}

// seedSnapshot inserts one chart snapshot: one trend row per (artist,
// title) pair, creating artists on first sight within the batch.
func seedSnapshot(t *testing.T, db *DB, country string, fetchedAt time.Time, entries [][2]string) map[string]int64 {
	t.Helper()
	ctx := context.Background()
	artistIDs := make(map[string]int64)

	err := db.WithTx(ctx, func(tx *Tx) error {
		for i, e := range entries {
			artistName, title := e[0], e[1]
			id, ok, err := tx.ArtistIDByName(ctx, artistName)
			if err != nil {
				return err
			}
			if !ok {
				id, err = tx.CreateArtist(ctx, artistName)
				if err != nil {
					return err
				}
			}
			artistIDs[artistName] = id

			trackID, err := tx.CreateTrack(ctx, &models.Track{Title: title, ArtistID: id})
			if err != nil {
				return err
			}
			if err := tx.CreateTrackTrend(ctx, &models.TrackTrend{
				TrackID:   trackID,
				Country:   country,
				Rank:      i + 1,
				FetchedAt: fetchedAt,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("seedSnapshot: %v", err)
	}
	return artistIDs
}

func enrichArtist(t *testing.T, db *DB, artistID int64, country *string, genres []string) {
	t.Helper()
	ctx := context.Background()
	err := db.WithTx(ctx, func(tx *Tx) error {
		return tx.UpdateArtistEnrichment(ctx, artistID, "mbid-test", country, genres)
	})
	if err != nil {
		t.Fatalf("enrichArtist: %v", err)
	}
}

func TestLatestSnapshotTime(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	latest, err := db.LatestSnapshotTime(ctx, "spain")
	if err != nil {
		t.Fatalf("LatestSnapshotTime() error: %v", err)
	}
	if latest != nil {
		t.Errorf("latest = %v, want nil for empty table", latest)
	}

	t1 := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	t2 := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	seedSnapshot(t, db, "spain", t1, [][2]string{{"A", "one"}})
	seedSnapshot(t, db, "spain", t2, [][2]string{{"A", "one"}})
	seedSnapshot(t, db, "france", t1, [][2]string{{"B", "two"}})

	latest, err = db.LatestSnapshotTime(ctx, "spain")
	if err != nil {
		t.Fatalf("LatestSnapshotTime() error: %v", err)
	}
	if latest == nil || !latest.Equal(t2) {
		t.Errorf("latest = %v, want %v", latest, t2)
	}
}

func TestSnapshotGenresScopedToSnapshot(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	t1 := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	t2 := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	ids := seedSnapshot(t, db, "spain", t1, [][2]string{{"A", "one"}, {"B", "two"}})
	seedSnapshot(t, db, "spain", t2, [][2]string{{"A", "one"}})

	es := "ES"
	enrichArtist(t, db, ids["A"], &es, []string{"pop", "Rock"})

	genres, err := db.SnapshotGenres(ctx, "spain", t2)
	if err != nil {
		t.Fatalf("SnapshotGenres() error: %v", err)
	}
	if len(genres) != 1 {
		t.Fatalf("got %d rows for latest snapshot, want 1", len(genres))
	}
	if genres[0] != "pop,Rock" {
		t.Errorf("genres[0] = %q, want %q", genres[0], "pop,Rock")
	}

	// Older snapshot still has both rows.
	genres, err = db.SnapshotGenres(ctx, "spain", t1)
	if err != nil {
		t.Fatalf("SnapshotGenres() error: %v", err)
	}
	if len(genres) != 2 {
		t.Errorf("got %d rows for older snapshot, want 2", len(genres))
	}
}

func TestSnapshotTopArtistsOrderAndTies(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	ts := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	ids := seedSnapshot(t, db, "spain", ts, [][2]string{
		{"A", "one"}, {"A", "two"}, {"B", "three"}, {"C", "four"},
	})

	rows, err := db.SnapshotTopArtists(ctx, "spain", ts, 10)
	if err != nil {
		t.Fatalf("SnapshotTopArtists() error: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d artists, want 3", len(rows))
	}
	if rows[0].ArtistName != "A" || rows[0].TrackCount != 2 {
		t.Errorf("rows[0] = %+v, want artist A with 2 tracks", rows[0])
	}
	// B and C tie at 1 track; lower id first.
	if ids["B"] < ids["C"] {
		if rows[1].ArtistName != "B" || rows[2].ArtistName != "C" {
			t.Errorf("tie order = [%s, %s], want [B, C]", rows[1].ArtistName, rows[2].ArtistName)
		}
	}

	limited, err := db.SnapshotTopArtists(ctx, "spain", ts, 1)
	if err != nil {
		t.Fatalf("SnapshotTopArtists() error: %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("got %d artists with topN=1, want 1", len(limited))
	}
}

func TestSnapshotNationalitiesDistinctArtists(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	ts := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	ids := seedSnapshot(t, db, "spain", ts, [][2]string{
		{"A", "one"}, {"A", "two"}, {"B", "three"}, {"C", "four"},
	})

	es, fr := "ES", "FR"
	enrichArtist(t, db, ids["A"], &es, nil)
	enrichArtist(t, db, ids["B"], &es, nil)
	enrichArtist(t, db, ids["C"], &fr, nil)

	rows, err := db.SnapshotNationalities(ctx, "spain", ts, 10)
	if err != nil {
		t.Fatalf("SnapshotNationalities() error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d nationality rows, want 2", len(rows))
	}
	// ES has 2 distinct artists (A counted once despite 2 tracks), FR has 1.
	if rows[0].ArtistCountry != "ES" || rows[0].Count != 2 {
		t.Errorf("rows[0] = %+v, want ES count 2", rows[0])
	}
	if rows[1].ArtistCountry != "FR" || rows[1].Count != 1 {
		t.Errorf("rows[1] = %+v, want FR count 1", rows[1])
	}
}

func TestSnapshotNationalitiesSkipsNullCountry(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	ts := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	seedSnapshot(t, db, "spain", ts, [][2]string{{"A", "one"}})

	rows, err := db.SnapshotNationalities(ctx, "spain", ts, 10)
	if err != nil {
		t.Fatalf("SnapshotNationalities() error: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("got %d rows for unenriched artists, want 0", len(rows))
	}
}

func TestListArtistsNeedingEnrichment(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	ts := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	ids := seedSnapshot(t, db, "spain", ts, [][2]string{
		{"A", "one"}, {"B", "two"}, {"C", "three"},
	})

	es := "ES"
	enrichArtist(t, db, ids["B"], &es, []string{"pop"})

	artists, err := db.ListArtistsNeedingEnrichment(ctx, 10)
	if err != nil {
		t.Fatalf("ListArtistsNeedingEnrichment() error: %v", err)
	}
	if len(artists) != 2 {
		t.Fatalf("got %d artists, want 2", len(artists))
	}
	// Ascending id: A before C.
	if artists[0].Name != "A" || artists[1].Name != "C" {
		t.Errorf("order = [%s, %s], want [A, C]", artists[0].Name, artists[1].Name)
	}

	limited, err := db.ListArtistsNeedingEnrichment(ctx, 1)
	if err != nil {
		t.Fatalf("ListArtistsNeedingEnrichment() error: %v", err)
	}
	if len(limited) != 1 || limited[0].Name != "A" {
		t.Errorf("limited = %v, want just A", limited)
	}
}

func TestUpdateArtistEnrichmentRoundTrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	ts := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	ids := seedSnapshot(t, db, "spain", ts, [][2]string{{"A", "one"}})

	gb := "GB"
	enrichArtist(t, db, ids["A"], &gb, []string{"Pop", "Rock", "Indie"})

	a, err := db.GetArtist(ctx, ids["A"])
	if err != nil {
		t.Fatalf("GetArtist() error: %v", err)
	}
	if a.Country == nil || *a.Country != "GB" {
		t.Errorf("Country = %v, want GB", a.Country)
	}
	if a.MusicBrainzID == nil || *a.MusicBrainzID != "mbid-test" {
		t.Errorf("MusicBrainzID = %v, want mbid-test", a.MusicBrainzID)
	}
	if len(a.Genres) != 3 || a.Genres[0] != "Pop" || a.Genres[2] != "Indie" {
		t.Errorf("Genres = %v, want [Pop Rock Indie]", a.Genres)
	}
}

func TestWithTxRollsBackOnError(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	sentinel := errors.New("boom")
	err := db.WithTx(ctx, func(tx *Tx) error {
		if _, err := tx.CreateArtist(ctx, "Doomed"); err != nil {
			return err
		}
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("WithTx() error = %v, want sentinel", err)
	}

	err = db.WithTx(ctx, func(tx *Tx) error {
		_, ok, err := tx.ArtistIDByName(ctx, "Doomed")
		if err != nil {
			return err
		}
		if ok {
			t.Error("artist from rolled-back transaction is visible")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithTx() error: %v", err)
	}
}

func TestEtlLogLifecycle(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	started := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	if err := db.CreateEtlLog(ctx, &models.EtlLog{
		ID:        "run-1",
		EtlType:   models.EtlTypeCharts,
		Status:    models.EtlStatusRunning,
		StartedAt: started,
	}); err != nil {
		t.Fatalf("CreateEtlLog() error: %v", err)
	}

	finished := started.Add(time.Minute)
	msg := "upstream 500"
	if err := db.FinishEtlLog(ctx, "run-1", models.EtlStatusFailed, finished, &msg); err != nil {
		t.Fatalf("FinishEtlLog() error: %v", err)
	}

	log, err := db.GetEtlLog(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetEtlLog() error: %v", err)
	}
	if log.Status != models.EtlStatusFailed {
		t.Errorf("Status = %q, want failed", log.Status)
	}
	if log.FinishedAt == nil || !log.FinishedAt.Equal(finished) {
		t.Errorf("FinishedAt = %v, want %v", log.FinishedAt, finished)
	}
	if log.ErrorMessage == nil || *log.ErrorMessage != msg {
		t.Errorf("ErrorMessage = %v, want %q", log.ErrorMessage, msg)
	}

	if _, err := db.GetEtlLog(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetEtlLog(missing) error = %v, want ErrNotFound", err)
	}
}

func TestEnsureAdminUser(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if err := db.EnsureAdminUser(ctx, "admin", "hash-1"); err != nil {
		t.Fatalf("EnsureAdminUser() error: %v", err)
	}
	u, err := db.GetUserByUsername(ctx, "admin")
	if err != nil {
		t.Fatalf("GetUserByUsername() error: %v", err)
	}
	if u.PasswordHash != "hash-1" || !u.IsAdmin {
		t.Errorf("user = %+v, want admin with hash-1", u)
	}

	// Second call updates the hash instead of failing on the unique name.
	if err := db.EnsureAdminUser(ctx, "admin", "hash-2"); err != nil {
		t.Fatalf("EnsureAdminUser() second call error: %v", err)
	}
	u, err = db.GetUserByUsername(ctx, "admin")
	if err != nil {
		t.Fatalf("GetUserByUsername() error: %v", err)
	}
	if u.PasswordHash != "hash-2" {
		t.Errorf("PasswordHash = %q, want hash-2", u.PasswordHash)
	}

	if _, err := db.GetUserByUsername(ctx, "ghost"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetUserByUsername(ghost) error = %v, want ErrNotFound", err)
	}
}
