// MusicScope - Music Chart Analytics Backend
// Copyright 2026 MusicScope Authors
// SPDX-License-Identifier: MIT
// https://github.com/musicscope/musicscope

package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/musicscope/musicscope/internal/models"
)

// Store is the snapshot-store surface the aggregations read from.
// All methods operate on committed rows; "no snapshot" is a nil timestamp,
// not an error.
type Store interface {
	// LatestSnapshotTime returns max(fetched_at) over trend rows for the
	// chart country, or nil when the country has no rows.
	LatestSnapshotTime(ctx context.Context, country string) (*time.Time, error)

	// SnapshotGenres returns one genres string per trend row of the given
	// snapshot (empty string where the artist has none).
	SnapshotGenres(ctx context.Context, country string, fetchedAt time.Time) ([]string, error)

	// SnapshotTopArtists returns artists of the given snapshot grouped with
	// their track counts, ordered by track count descending then artist id
	// ascending, limited to topN.
	SnapshotTopArtists(ctx context.Context, country string, fetchedAt time.Time, topN int) ([]models.TopArtistRow, error)

	// SnapshotNationalities returns distinct-artist counts per non-null
	// artist country in the given snapshot, ordered by count descending,
	// limited to topN.
	SnapshotNationalities(ctx context.Context, country string, fetchedAt time.Time, topN int) ([]models.NationalityRow, error)
}

// Notes returned on the "no data yet" paths. These are part of the API
// contract; clients match on them.
const (
	noteNoSnapshot            = "No track_trends data for this country yet. Run Last.fm ETL first."
	noteNoGenreTags           = "No genre tags found. Run MusicBrainz ETL to enrich artists.genres."
	noteNoSnapshotNationality = "No track_trends data. Run Last.fm ETL first."
	noteComparisonNoSnapshot  = "Missing snapshot data for one or both countries. Run Last.fm ETL for both countries first."
	noteComparisonNoTags      = "One or both countries have no genre tags. Run MusicBrainz ETL to enrich artists.genres."
)

// maxGenresPerArtist caps the genre list reported per artist.
const maxGenresPerArtist = 5

// Engine computes the four aggregations over a Store.
type Engine struct {
	store Store
}

// NewEngine returns an Engine reading from store.
func NewEngine(store Store) *Engine {
	return &Engine{store: store}
}

// GenreDistribution ranks normalized genre tags across the latest snapshot
// for country. A missing snapshot or a snapshot without any genre data
// yields a 200-style empty payload with a note, never an error.
func (e *Engine) GenreDistribution(ctx context.Context, country string, topN int) (*models.GenreDistribution, error) {
	latest, err := e.store.LatestSnapshotTime(ctx, country)
	if err != nil {
		return nil, fmt.Errorf("resolve latest snapshot for %s: %w", country, err)
	}
	if latest == nil {
		return &models.GenreDistribution{
			Country: country,
			TopN:    topN,
			Genres:  []models.GenreCount{},
			Note:    noteNoSnapshot,
		}, nil
	}

	genreRows, err := e.store.SnapshotGenres(ctx, country, *latest)
	if err != nil {
		return nil, fmt.Errorf("load snapshot genres for %s: %w", country, err)
	}

	counter := NewCounter()
	for _, raw := range genreRows {
		counter.Update(NormalizeTags(raw))
	}
	totalTags := counter.Total()

	if totalTags == 0 {
		return &models.GenreDistribution{
			Country:         country,
			LatestFetchedAt: latest,
			TotalTracks:     len(genreRows),
			TopN:            topN,
			Genres:          []models.GenreCount{},
			Note:            noteNoGenreTags,
		}, nil
	}

	top := counter.MostCommon(topN)
	genres := make([]models.GenreCount, 0, len(top))
	for _, entry := range top {
		genres = append(genres, models.GenreCount{
			Genre:      entry.Key,
			Count:      entry.Count,
			Percentage: Percentage(entry.Count, totalTags),
		})
	}

	return &models.GenreDistribution{
		Country:               country,
		LatestFetchedAt:       latest,
		TotalTracks:           len(genreRows),
		TopN:                  topN,
		TotalGenreTagsCounted: totalTags,
		Genres:                genres,
	}, nil
}

// TopArtists ranks artists of the latest snapshot for country by how many
// of their tracks appear in it. Each artist carries up to the first 5 of
// its genre-list entries with original casing preserved.
func (e *Engine) TopArtists(ctx context.Context, country string, topN int) (*models.TopArtists, error) {
	latest, err := e.store.LatestSnapshotTime(ctx, country)
	if err != nil {
		return nil, fmt.Errorf("resolve latest snapshot for %s: %w", country, err)
	}
	if latest == nil {
		return &models.TopArtists{
			Country: country,
			TopN:    topN,
			Artists: []models.TopArtistEntry{},
			Note:    noteNoSnapshot,
		}, nil
	}

	rows, err := e.store.SnapshotTopArtists(ctx, country, *latest, topN)
	if err != nil {
		return nil, fmt.Errorf("load top artists for %s: %w", country, err)
	}

	artists := make([]models.TopArtistEntry, 0, len(rows))
	for _, r := range rows {
		genres := ParseTags(r.GenresRaw)
		if len(genres) > maxGenresPerArtist {
			genres = genres[:maxGenresPerArtist]
		}
		if genres == nil {
			genres = []string{}
		}
		artists = append(artists, models.TopArtistEntry{
			ArtistID:      r.ArtistID,
			ArtistName:    r.ArtistName,
			ArtistCountry: r.ArtistCountry,
			Genres:        genres,
			TrackCount:    r.TrackCount,
		})
	}

	return &models.TopArtists{
		Country:         country,
		LatestFetchedAt: latest,
		TopN:            topN,
		Artists:         artists,
	}, nil
}

// NationalityDistribution counts distinct artists per known artist country
// in the latest snapshot. Percentages are relative to the sum over the
// returned rows only, not the full distinct-artist total.
func (e *Engine) NationalityDistribution(ctx context.Context, country string, topN int) (*models.NationalityDistribution, error) {
	latest, err := e.store.LatestSnapshotTime(ctx, country)
	if err != nil {
		return nil, fmt.Errorf("resolve latest snapshot for %s: %w", country, err)
	}
	if latest == nil {
		return &models.NationalityDistribution{
			Country:       country,
			TopN:          topN,
			Nationalities: []models.NationalityCount{},
			Note:          noteNoSnapshotNationality,
		}, nil
	}

	rows, err := e.store.SnapshotNationalities(ctx, country, *latest, topN)
	if err != nil {
		return nil, fmt.Errorf("load nationalities for %s: %w", country, err)
	}

	totalArtists := 0
	for _, r := range rows {
		totalArtists += r.Count
	}

	nationalities := make([]models.NationalityCount, 0, len(rows))
	for _, r := range rows {
		nationalities = append(nationalities, models.NationalityCount{
			ArtistCountry: r.ArtistCountry,
			Count:         r.Count,
			Percentage:    Percentage(r.Count, totalArtists),
		})
	}

	return &models.NationalityDistribution{
		Country:         country,
		LatestFetchedAt: latest,
		TotalArtists:    totalArtists,
		TopN:            topN,
		Nationalities:   nationalities,
	}, nil
}

// GenreComparison compares genre frequencies of two countries' latest
// snapshots. Genres are ranked by combined count across both countries;
// each side's percentage is relative to that country's own tag total.
func (e *Engine) GenreComparison(ctx context.Context, c1, c2 string, topN int) (*models.GenreComparison, error) {
	latest1, err := e.store.LatestSnapshotTime(ctx, c1)
	if err != nil {
		return nil, fmt.Errorf("resolve latest snapshot for %s: %w", c1, err)
	}
	latest2, err := e.store.LatestSnapshotTime(ctx, c2)
	if err != nil {
		return nil, fmt.Errorf("resolve latest snapshot for %s: %w", c2, err)
	}

	if latest1 == nil || latest2 == nil {
		return &models.GenreComparison{
			Country1:         c1,
			Country2:         c2,
			LatestFetchedAt1: latest1,
			LatestFetchedAt2: latest2,
			TopN:             topN,
			Genres:           []models.GenreComparisonEntry{},
			Note:             noteComparisonNoSnapshot,
		}, nil
	}

	counter1, totalTracks1, err := e.genreCounter(ctx, c1, *latest1)
	if err != nil {
		return nil, err
	}
	counter2, totalTracks2, err := e.genreCounter(ctx, c2, *latest2)
	if err != nil {
		return nil, err
	}

	totalTags1 := counter1.Total()
	totalTags2 := counter2.Total()

	if totalTags1 == 0 || totalTags2 == 0 {
		return &models.GenreComparison{
			Country1:         c1,
			Country2:         c2,
			LatestFetchedAt1: latest1,
			LatestFetchedAt2: latest2,
			TotalTracks1:     totalTracks1,
			TotalTracks2:     totalTracks2,
			TotalGenreTags1:  totalTags1,
			TotalGenreTags2:  totalTags2,
			TopN:             topN,
			Genres:           []models.GenreComparisonEntry{},
			Note:             noteComparisonNoTags,
		}, nil
	}

	combined := Merge(counter1, counter2)
	genres := make([]models.GenreComparisonEntry, 0, topN)
	for _, entry := range combined.MostCommon(topN) {
		c1Count := counter1.Get(entry.Key)
		c2Count := counter2.Get(entry.Key)
		genres = append(genres, models.GenreComparisonEntry{
			Genre:        entry.Key,
			C1Count:      c1Count,
			C1Percentage: Percentage(c1Count, totalTags1),
			C2Count:      c2Count,
			C2Percentage: Percentage(c2Count, totalTags2),
		})
	}

	return &models.GenreComparison{
		Country1:         c1,
		Country2:         c2,
		LatestFetchedAt1: latest1,
		LatestFetchedAt2: latest2,
		TotalTracks1:     totalTracks1,
		TotalTracks2:     totalTracks2,
		TotalGenreTags1:  totalTags1,
		TotalGenreTags2:  totalTags2,
		TopN:             topN,
		Genres:           genres,
	}, nil
}

// genreCounter builds the normalized genre counter for one snapshot and
// returns it with the snapshot's row count.
func (e *Engine) genreCounter(ctx context.Context, country string, fetchedAt time.Time) (*Counter, int, error) {
	rows, err := e.store.SnapshotGenres(ctx, country, fetchedAt)
	if err != nil {
		return nil, 0, fmt.Errorf("load snapshot genres for %s: %w", country, err)
	}
	counter := NewCounter()
	for _, raw := range rows {
		counter.Update(NormalizeTags(raw))
	}
	return counter, len(rows), nil
}
