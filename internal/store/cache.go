// Reelpair - Paired Letterboxd Recommendations and Taste Predictions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelpair

package store

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/tomtom215/reelpair/internal/metrics"
	"github.com/tomtom215/reelpair/internal/models"
)

// TableCache memoizes table loads for the read path. Handlers hit the
// cache on every request; the pipeline invalidates it once after a
// fully successful run, so readers flip from the old tables to the new
// ones in a single step and never see a mix.
//
// Loads populate a local value first and publish it under the write
// lock only after the read succeeded, so a failed disk read never
// clobbers previously cached data.
type TableCache struct {
	store *Store
	log   zerolog.Logger

	mu      sync.RWMutex
	movies  []models.Recommendation
	genres  []models.GenreRecommendation
	tv      []models.TVRecommendation
	watched map[string][]models.WatchedFilm
	loaded  map[string]bool
}

// NewTableCache creates a cache over the given store.
func NewTableCache(s *Store, logger zerolog.Logger) *TableCache {
	return &TableCache{
		store:   s,
		log:     logger.With().Str("component", "table_cache").Logger(),
		watched: make(map[string][]models.WatchedFilm),
		loaded:  make(map[string]bool),
	}
}

// Movies returns the cached movie recommendation table, loading it on
// first access.
func (c *TableCache) Movies() ([]models.Recommendation, error) {
	c.mu.RLock()
	if c.loaded[TableMovieRecommendations] {
		defer c.mu.RUnlock()
		metrics.TableCacheHits.WithLabelValues(TableMovieRecommendations).Inc()
		return c.movies, nil
	}
	c.mu.RUnlock()

	metrics.TableCacheMisses.WithLabelValues(TableMovieRecommendations).Inc()
	recs, err := c.store.ReadMovieRecommendations()
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.movies = recs
	c.loaded[TableMovieRecommendations] = true
	c.mu.Unlock()
	return recs, nil
}

// Genres returns the cached genre recommendation table.
func (c *TableCache) Genres() ([]models.GenreRecommendation, error) {
	c.mu.RLock()
	if c.loaded[TableGenreRecommendations] {
		defer c.mu.RUnlock()
		metrics.TableCacheHits.WithLabelValues(TableGenreRecommendations).Inc()
		return c.genres, nil
	}
	c.mu.RUnlock()

	metrics.TableCacheMisses.WithLabelValues(TableGenreRecommendations).Inc()
	recs, err := c.store.ReadGenreRecommendations()
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.genres = recs
	c.loaded[TableGenreRecommendations] = true
	c.mu.Unlock()
	return recs, nil
}

// TV returns the cached TV recommendation table.
func (c *TableCache) TV() ([]models.TVRecommendation, error) {
	c.mu.RLock()
	if c.loaded[TableTVRecommendations] {
		defer c.mu.RUnlock()
		metrics.TableCacheHits.WithLabelValues(TableTVRecommendations).Inc()
		return c.tv, nil
	}
	c.mu.RUnlock()

	metrics.TableCacheMisses.WithLabelValues(TableTVRecommendations).Inc()
	recs, err := c.store.ReadTVRecommendations()
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.tv = recs
	c.loaded[TableTVRecommendations] = true
	c.mu.Unlock()
	return recs, nil
}

// Watched returns a user's cached watch history.
func (c *TableCache) Watched(username string) ([]models.WatchedFilm, error) {
	table := WatchedTable(username)
	c.mu.RLock()
	if c.loaded[table] {
		defer c.mu.RUnlock()
		metrics.TableCacheHits.WithLabelValues(table).Inc()
		return c.watched[username], nil
	}
	c.mu.RUnlock()

	metrics.TableCacheMisses.WithLabelValues(table).Inc()
	films, err := c.store.ReadWatched(username)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.watched[username] = films
	c.loaded[table] = true
	c.mu.Unlock()
	return films, nil
}

// Invalidate drops all cached tables. Called by the pipeline after a
// fully successful run; the next read of each table reloads from disk.
func (c *TableCache) Invalidate() {
	c.mu.Lock()
	c.movies = nil
	c.genres = nil
	c.tv = nil
	c.watched = make(map[string][]models.WatchedFilm)
	c.loaded = make(map[string]bool)
	c.mu.Unlock()
	metrics.TableCacheInvalidations.Inc()
	c.log.Debug().Msg("table cache invalidated")
}
