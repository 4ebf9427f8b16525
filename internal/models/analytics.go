// MusicScope - Music Chart Analytics Backend
// Copyright 2026 MusicScope Authors
// SPDX-License-Identifier: MIT
// https://github.com/musicscope/musicscope

package models

import (
	"time"
)

// TopArtistRow is one grouped row of the top-artists query: an artist in
// the latest snapshot with its track count. GenresRaw carries the genres
// column as stored (comma-separated, empty string when null).
type TopArtistRow struct {
	ArtistID      int64
	ArtistName    string
	ArtistCountry *string
	GenresRaw     string
	TrackCount    int
}

// NationalityRow is one grouped row of the nationality query: a non-null
// artist country with its distinct-artist count in the latest snapshot.
type NationalityRow struct {
	ArtistCountry string
	Count         int
}

// GenreCount is one entry of a genre-distribution ranking.
type GenreCount struct {
	Genre      string  `json:"genre"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// GenreDistribution is the genre-distribution response payload.
// When no snapshot or no genre data exists, Note explains which ingestion
// step is missing and the remaining fields hold zeros/nulls/empty lists.
type GenreDistribution struct {
	Country               string       `json:"country"`
	LatestFetchedAt       *time.Time   `json:"latest_fetched_at"`
	TotalTracks           int          `json:"total_tracks"`
	TopN                  int          `json:"top_n"`
	TotalGenreTagsCounted int          `json:"total_genre_tags_counted"`
	Genres                []GenreCount `json:"genres"`
	Note                  string       `json:"note,omitempty"`
}

// TopArtistEntry is one artist of a top-artists ranking. Genres holds up to
// the first 5 of the artist's genre list, trimmed, original case preserved.
type TopArtistEntry struct {
	ArtistID      int64    `json:"artist_id"`
	ArtistName    string   `json:"artist_name"`
	ArtistCountry *string  `json:"artist_country"`
	Genres        []string `json:"genres"`
	TrackCount    int      `json:"track_count"`
}

// TopArtists is the top-artists-by-country response payload.
type TopArtists struct {
	Country         string           `json:"country"`
	LatestFetchedAt *time.Time       `json:"latest_fetched_at"`
	TopN            int              `json:"top_n"`
	Artists         []TopArtistEntry `json:"artists"`
	Note            string           `json:"note,omitempty"`
}

// NationalityCount is one entry of a nationality distribution.
type NationalityCount struct {
	ArtistCountry string  `json:"artist_country"`
	Count         int     `json:"count"`
	Percentage    float64 `json:"percentage"`
}

// NationalityDistribution is the artist-nationality-distribution response
// payload. TotalArtists counts distinct artists with a known country in the
// snapshot; percentages are relative to the returned rows only.
type NationalityDistribution struct {
	Country         string             `json:"country"`
	LatestFetchedAt *time.Time         `json:"latest_fetched_at"`
	TotalArtists    int                `json:"total_artists"`
	TopN            int                `json:"top_n"`
	Nationalities   []NationalityCount `json:"nationalities"`
	Note            string             `json:"note,omitempty"`
}

// GenreComparisonEntry is one genre of a two-country comparison. Each
// country's percentage is relative to that country's own total tag count.
type GenreComparisonEntry struct {
	Genre        string  `json:"genre"`
	C1Count      int     `json:"c1_count"`
	C1Percentage float64 `json:"c1_percentage"`
	C2Count      int     `json:"c2_count"`
	C2Percentage float64 `json:"c2_percentage"`
}

// GenreComparison is the country-genre-comparison response payload.
type GenreComparison struct {
	Country1         string                 `json:"country_1"`
	Country2         string                 `json:"country_2"`
	LatestFetchedAt1 *time.Time             `json:"latest_fetched_at_1"`
	LatestFetchedAt2 *time.Time             `json:"latest_fetched_at_2"`
	TotalTracks1     int                    `json:"total_tracks_1"`
	TotalTracks2     int                    `json:"total_tracks_2"`
	TotalGenreTags1  int                    `json:"total_genre_tags_1"`
	TotalGenreTags2  int                    `json:"total_genre_tags_2"`
	TopN             int                    `json:"top_n"`
	Genres           []GenreComparisonEntry `json:"genres"`
	Note             string                 `json:"note,omitempty"`
}

// ChartRunResult summarizes a chart ingestion run.
type ChartRunResult struct {
	Status  string `json:"status"`
	Country string `json:"country"`
	Limit   int    `json:"limit"`
	RunID   string `json:"run_id"`
}

// EnrichmentRunResult summarizes a metadata enrichment run.
type EnrichmentRunResult struct {
	Status         string `json:"status"`
	UpdatedArtists int    `json:"updated_artists"`
	RunID          string `json:"run_id"`
}
