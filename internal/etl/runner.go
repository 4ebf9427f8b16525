// MusicScope - Music Chart Analytics Backend
// Copyright 2026 MusicScope Authors
// SPDX-License-Identifier: MIT
// https://github.com/musicscope/musicscope

// Package etl implements the two ingestion jobs: Last.fm chart ingestion
// and MusicBrainz metadata enrichment. Each run writes an audit row to
// etl_logs and reports its outcome through metrics.
package etl

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/musicscope/musicscope/internal/database"
	"github.com/musicscope/musicscope/internal/lastfm"
	"github.com/musicscope/musicscope/internal/logging"
	"github.com/musicscope/musicscope/internal/metrics"
	"github.com/musicscope/musicscope/internal/models"
	"github.com/musicscope/musicscope/internal/musicbrainz"
)

// maxGenresStored caps how many tags enrichment copies per artist.
const maxGenresStored = 5

// MetadataSource is the slice of the MusicBrainz client that enrichment
// needs. The real client paces requests internally.
type MetadataSource interface {
	SearchArtist(ctx context.Context, name string) (*musicbrainz.ArtistMatch, error)
	GetArtistDetail(ctx context.Context, mbid string) (*musicbrainz.ArtistDetail, error)
}

// Runner executes ETL jobs against the database. Jobs run one at a time
// per trigger request; concurrent triggers are safe but each run is its
// own transaction and audit entry.
type Runner struct {
	db       *database.DB
	charts   lastfm.ChartSource
	metadata MetadataSource
}

// NewRunner wires the ETL jobs to their database and upstream clients.
func NewRunner(db *database.DB, charts lastfm.ChartSource, metadata MetadataSource) *Runner {
	return &Runner{db: db, charts: charts, metadata: metadata}
}

// RunChartIngestion fetches the top-tracks chart for a country and writes
// one snapshot: a shared fetched_at timestamp, one new track row and one
// trend row per chart entry, and artists created on first sight by exact
// name. All rows land in a single transaction, so a failed run writes
// nothing beyond its audit entry.
func (r *Runner) RunChartIngestion(ctx context.Context, country string, limit int) (*models.ChartRunResult, error) {
	runID := uuid.NewString()
	startedAt := time.Now().UTC()

	if err := r.db.CreateEtlLog(ctx, &models.EtlLog{
		ID:        runID,
		EtlType:   models.EtlTypeCharts,
		Status:    models.EtlStatusRunning,
		StartedAt: startedAt,
	}); err != nil {
		return nil, err
	}

	tracks, err := r.charts.GetTopTracksByCountry(ctx, country, limit)
	if err != nil {
		r.finish(ctx, runID, models.EtlTypeCharts, startedAt, 0, err)
		return nil, err
	}

	// One timestamp per run: every trend row of this snapshot shares it.
	fetchedAt := startedAt

	err = r.db.WithTx(ctx, func(tx *database.Tx) error {
		for _, ct := range tracks {
			artistID, found, err := tx.ArtistIDByName(ctx, ct.ArtistName)
			if err != nil {
				return err
			}
			if !found {
				artistID, err = tx.CreateArtist(ctx, ct.ArtistName)
				if err != nil {
					return err
				}
			}

			trackID, err := tx.CreateTrack(ctx, &models.Track{
				LastfmID: ct.URL,
				MBID:     ct.MBID,
				Title:    ct.Title,
				ArtistID: artistID,
				URL:      ct.URL,
			})
			if err != nil {
				return err
			}

			if err := tx.CreateTrackTrend(ctx, &models.TrackTrend{
				TrackID:   trackID,
				Country:   country,
				Rank:      ct.Rank,
				FetchedAt: fetchedAt,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		r.finish(ctx, runID, models.EtlTypeCharts, startedAt, 0, err)
		return nil, err
	}

	r.finish(ctx, runID, models.EtlTypeCharts, startedAt, len(tracks), nil)
	logging.Info().
		Str("run_id", runID).
		Str("country", country).
		Int("tracks", len(tracks)).
		Msg("Chart ingestion complete")

	return &models.ChartRunResult{
		Status:  models.EtlStatusSuccess,
		Country: country,
		Limit:   limit,
		RunID:   runID,
	}, nil
}

// artistUpdate is one pending enrichment write, staged until the whole
// batch is ready to commit.
type artistUpdate struct {
	artistID int64
	mbid     string
	country  *string
	genres   []string
}

// RunMetadataEnrichment enriches up to limit artists that still lack a
// country. For each candidate it searches MusicBrainz by name; artists
// with no match are skipped and do not count as updated. All staged
// updates commit in one batch at the end, so an upstream failure mid-run
// leaves every artist untouched.
func (r *Runner) RunMetadataEnrichment(ctx context.Context, limit int) (*models.EnrichmentRunResult, error) {
	runID := uuid.NewString()
	startedAt := time.Now().UTC()

	if err := r.db.CreateEtlLog(ctx, &models.EtlLog{
		ID:        runID,
		EtlType:   models.EtlTypeEnrichment,
		Status:    models.EtlStatusRunning,
		StartedAt: startedAt,
	}); err != nil {
		return nil, err
	}

	artists, err := r.db.ListArtistsNeedingEnrichment(ctx, limit)
	if err != nil {
		r.finish(ctx, runID, models.EtlTypeEnrichment, startedAt, 0, err)
		return nil, err
	}

	var updates []artistUpdate
	for _, artist := range artists {
		match, err := r.metadata.SearchArtist(ctx, artist.Name)
		if err != nil {
			r.finish(ctx, runID, models.EtlTypeEnrichment, startedAt, 0, err)
			return nil, err
		}
		if match == nil {
			logging.Debug().Str("artist", artist.Name).Msg("Skipping artist without MusicBrainz match")
			continue
		}

		detail, err := r.metadata.GetArtistDetail(ctx, match.MBID)
		if err != nil {
			r.finish(ctx, runID, models.EtlTypeEnrichment, startedAt, 0, err)
			return nil, err
		}

		genres := detail.Tags
		if len(genres) > maxGenresStored {
			genres = genres[:maxGenresStored]
		}
		updates = append(updates, artistUpdate{
			artistID: artist.ID,
			mbid:     match.MBID,
			country:  detail.Country,
			genres:   genres,
		})
	}

	err = r.db.WithTx(ctx, func(tx *database.Tx) error {
		for _, u := range updates {
			if err := tx.UpdateArtistEnrichment(ctx, u.artistID, u.mbid, u.country, u.genres); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		r.finish(ctx, runID, models.EtlTypeEnrichment, startedAt, 0, err)
		return nil, err
	}

	r.finish(ctx, runID, models.EtlTypeEnrichment, startedAt, len(updates), nil)
	logging.Info().
		Str("run_id", runID).
		Int("candidates", len(artists)).
		Int("updated", len(updates)).
		Msg("Metadata enrichment complete")

	return &models.EnrichmentRunResult{
		Status:         models.EtlStatusSuccess,
		UpdatedArtists: len(updates),
		RunID:          runID,
	}, nil
}

// finish closes the audit row and records run metrics. Audit failures are
// logged but never mask the run's own outcome.
func (r *Runner) finish(ctx context.Context, runID, etlType string, startedAt time.Time, records int, runErr error) {
	status := models.EtlStatusSuccess
	var errMsg *string
	if runErr != nil {
		status = models.EtlStatusFailed
		msg := runErr.Error()
		errMsg = &msg
	}

	finishedAt := time.Now().UTC()
	if err := r.db.FinishEtlLog(ctx, runID, status, finishedAt, errMsg); err != nil {
		logging.Err(err).Str("run_id", runID).Msg("Failed to finalize ETL audit row")
	}
	metrics.RecordEtlRun(etlType, finishedAt.Sub(startedAt), records, runErr)

	if runErr != nil {
		logging.Err(runErr).
			Str("run_id", runID).
			Str("etl_type", etlType).
			Msg(fmt.Sprintf("ETL run failed after %s", finishedAt.Sub(startedAt).Round(time.Millisecond)))
	}
}
