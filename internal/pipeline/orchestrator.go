// Reelpair - Paired Letterboxd Recommendations and Taste Predictions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelpair

// Package pipeline orchestrates the scrape-then-recommend batch: both
// users' histories are scraped, the movie, genre, and TV tables are
// regenerated, and the read cache is flipped to the fresh data.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/reelpair/internal/metrics"
	"github.com/tomtom215/reelpair/internal/models"
	"github.com/tomtom215/reelpair/internal/store"
	"github.com/tomtom215/reelpair/internal/tmdb"
)

// HistoryFetcher fetches a user's complete watch history.
type HistoryFetcher interface {
	FetchHistory(ctx context.Context, username string) ([]models.WatchedFilm, error)
}

// Recommender produces the three recommendation tables from two watch
// histories.
type Recommender interface {
	Movies(ctx context.Context, filmsA, filmsB []models.WatchedFilm) ([]models.Recommendation, []models.BothLoved, error)
	GenreDiscovery(ctx context.Context, loved []models.BothLoved, filmsA, filmsB []models.WatchedFilm) ([]models.GenreRecommendation, error)
	TV(ctx context.Context, filmsA, filmsB []models.WatchedFilm) ([]models.TVRecommendation, error)
}

// ErrRunInProgress is returned by TryRun when another run holds the
// pipeline. The trigger is dropped, not queued: the running pipeline
// will produce data at least as fresh as the dropped trigger would.
var ErrRunInProgress = errors.New("pipeline: run already in progress")

// Orchestrator executes pipeline runs, one at a time.
//
// Failure policy follows the step structure: a scrape failure aborts
// the run, since every later step consumes both histories. The movie
// and TV passes are isolated from each other; either can fail and the
// other's table still lands. The read cache is invalidated only after
// a fully successful run so readers never mix table generations.
type Orchestrator struct {
	userA, userB string
	scraper      HistoryFetcher
	store        *store.Store
	cache        *store.TableCache
	engine       Recommender
	memo         *tmdb.MemoGateway
	logger       zerolog.Logger

	mu sync.Mutex
}

// New creates an orchestrator for the two configured usernames. memo
// may be nil when the TMDB gateway carries no per-run cache.
func New(userA, userB string, scraper HistoryFetcher, st *store.Store,
	cache *store.TableCache, engine Recommender, memo *tmdb.MemoGateway,
	logger zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		userA:   userA,
		userB:   userB,
		scraper: scraper,
		store:   st,
		cache:   cache,
		engine:  engine,
		memo:    memo,
		logger:  logger.With().Str("component", "pipeline").Logger(),
	}
}

// OutputsExist reports whether every expected pipeline output table is
// on disk. Used for the cold-start decision: a fresh deployment runs
// immediately instead of waiting for the first scheduled tick.
func (o *Orchestrator) OutputsExist() bool {
	return o.store.Exists(store.WatchedTable(o.userA)) &&
		o.store.Exists(store.WatchedTable(o.userB)) &&
		o.store.Exists(store.TableMovieRecommendations) &&
		o.store.Exists(store.TableTVRecommendations)
}

// TryRun executes one full pipeline run, or returns ErrRunInProgress
// without blocking when a run is already underway.
func (o *Orchestrator) TryRun(ctx context.Context) error {
	if !o.mu.TryLock() {
		metrics.PipelineSkips.Inc()
		o.logger.Info().Msg("pipeline trigger skipped, run in progress")
		return ErrRunInProgress
	}
	defer o.mu.Unlock()

	runID := uuid.NewString()
	log := o.logger.With().Str("run_id", runID).Logger()
	start := time.Now()
	log.Info().Msg("pipeline run starting")

	if o.memo != nil {
		o.memo.Reset()
	}

	filmsA, filmsB, err := o.scrapeStep(ctx, log)
	if err != nil {
		metrics.RecordPipelineRun("failure", time.Since(start))
		log.Error().Err(err).Msg("pipeline run aborted")
		return err
	}

	movieOK := o.movieStep(ctx, log, filmsA, filmsB)
	if err := ctx.Err(); err != nil {
		metrics.RecordPipelineRun("failure", time.Since(start))
		return err
	}
	tvOK := o.tvStep(ctx, log, filmsA, filmsB)
	if err := ctx.Err(); err != nil {
		metrics.RecordPipelineRun("failure", time.Since(start))
		return err
	}

	elapsed := time.Since(start)
	if movieOK && tvOK {
		o.cache.Invalidate()
		metrics.RecordPipelineRun("success", elapsed)
		log.Info().Dur("elapsed", elapsed).Msg("pipeline run complete")
		return nil
	}
	metrics.RecordPipelineRun("partial", elapsed)
	log.Warn().Dur("elapsed", elapsed).
		Bool("movies_ok", movieOK).Bool("tv_ok", tvOK).
		Msg("pipeline run completed partially, cache kept")
	return nil
}

func (o *Orchestrator) scrapeStep(ctx context.Context, log zerolog.Logger) ([]models.WatchedFilm, []models.WatchedFilm, error) {
	stepStart := time.Now()
	defer func() { metrics.RecordPipelineStep("scrape", time.Since(stepStart)) }()

	filmsA, err := o.scraper.FetchHistory(ctx, o.userA)
	if err != nil {
		return nil, nil, fmt.Errorf("pipeline: scrape %s: %w", o.userA, err)
	}
	if err := o.store.WriteWatched(o.userA, filmsA); err != nil {
		return nil, nil, err
	}

	filmsB, err := o.scraper.FetchHistory(ctx, o.userB)
	if err != nil {
		return nil, nil, fmt.Errorf("pipeline: scrape %s: %w", o.userB, err)
	}
	if err := o.store.WriteWatched(o.userB, filmsB); err != nil {
		return nil, nil, err
	}

	log.Info().Int("films_a", len(filmsA)).Int("films_b", len(filmsB)).Msg("scrape step complete")
	return filmsA, filmsB, nil
}

func (o *Orchestrator) movieStep(ctx context.Context, log zerolog.Logger, filmsA, filmsB []models.WatchedFilm) bool {
	stepStart := time.Now()
	defer func() { metrics.RecordPipelineStep("movies", time.Since(stepStart)) }()

	recs, loved, err := o.engine.Movies(ctx, filmsA, filmsB)
	if err != nil {
		log.Error().Err(err).Msg("movie step failed")
		return false
	}
	if len(recs) > 0 {
		if err := o.store.WriteMovieRecommendations(recs); err != nil {
			log.Error().Err(err).Msg("movie table write failed")
			return false
		}
	}

	genreRecs, err := o.engine.GenreDiscovery(ctx, loved, filmsA, filmsB)
	if err != nil {
		log.Error().Err(err).Msg("genre step failed")
		return false
	}
	if len(genreRecs) > 0 {
		if err := o.store.WriteGenreRecommendations(genreRecs); err != nil {
			log.Error().Err(err).Msg("genre table write failed")
			return false
		}
	}
	return true
}

func (o *Orchestrator) tvStep(ctx context.Context, log zerolog.Logger, filmsA, filmsB []models.WatchedFilm) bool {
	stepStart := time.Now()
	defer func() { metrics.RecordPipelineStep("tv", time.Since(stepStart)) }()

	recs, err := o.engine.TV(ctx, filmsA, filmsB)
	if err != nil {
		log.Error().Err(err).Msg("tv step failed")
		return false
	}
	if len(recs) > 0 {
		if err := o.store.WriteTVRecommendations(recs); err != nil {
			log.Error().Err(err).Msg("tv table write failed")
			return false
		}
	}
	return true
}
