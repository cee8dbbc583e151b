// Reelpair - Paired Letterboxd Recommendations and Taste Predictions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelpair

package tmdb

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/tomtom215/reelpair/internal/metrics"
)

// MemoGateway caches Gateway results for the lifetime of a pipeline
// run. Two users' loved films overlap heavily in their related-title
// graphs, so within one run the same lookups recur constantly.
//
// ErrNotFound outcomes are cached too: an unmatchable title must not be
// re-queried every time it reappears. Transport errors are never
// cached.
type MemoGateway struct {
	next Gateway

	mu      sync.Mutex
	entries map[string]memoEntry
}

type memoEntry struct {
	value any
	err   error
}

// NewMemoGateway wraps a gateway with per-run memoization.
func NewMemoGateway(next Gateway) *MemoGateway {
	return &MemoGateway{
		next:    next,
		entries: make(map[string]memoEntry),
	}
}

// Reset clears the memo. The pipeline calls this at the start of each
// run so a run never serves catalog data older than itself.
func (g *MemoGateway) Reset() {
	g.mu.Lock()
	g.entries = make(map[string]memoEntry)
	g.mu.Unlock()
}

// memoized runs fn through the cache under the given key.
func memoized[T any](g *MemoGateway, key string, fn func() (T, error)) (T, error) {
	g.mu.Lock()
	if e, ok := g.entries[key]; ok {
		g.mu.Unlock()
		metrics.TMDBMemoHits.Inc()
		if e.err != nil {
			var zero T
			return zero, e.err
		}
		return e.value.(T), nil
	}
	g.mu.Unlock()

	metrics.TMDBMemoMisses.Inc()
	v, err := fn()
	if err == nil || errors.Is(err, ErrNotFound) {
		g.mu.Lock()
		g.entries[key] = memoEntry{value: v, err: err}
		g.mu.Unlock()
	}
	return v, err
}

func (g *MemoGateway) SearchMovie(ctx context.Context, title string, year int) (*Movie, error) {
	key := fmt.Sprintf("search_movie\x00%s\x00%d", title, year)
	return memoized(g, key, func() (*Movie, error) {
		return g.next.SearchMovie(ctx, title, year)
	})
}

func (g *MemoGateway) SearchMovies(ctx context.Context, query string) ([]Movie, error) {
	return memoized(g, "search_movies\x00"+query, func() ([]Movie, error) {
		return g.next.SearchMovies(ctx, query)
	})
}

func (g *MemoGateway) Related(ctx context.Context, movieID int64, kind RelatedKind) ([]Movie, error) {
	key := fmt.Sprintf("related\x00%d\x00%s", movieID, kind)
	return memoized(g, key, func() ([]Movie, error) {
		return g.next.Related(ctx, movieID, kind)
	})
}

func (g *MemoGateway) MovieDetails(ctx context.Context, movieID int64) (*MovieDetails, error) {
	key := fmt.Sprintf("details\x00%d", movieID)
	return memoized(g, key, func() (*MovieDetails, error) {
		return g.next.MovieDetails(ctx, movieID)
	})
}

func (g *MemoGateway) DiscoverMovies(ctx context.Context, opts DiscoverOptions) ([]Movie, error) {
	return memoized(g, "discover_movie\x00"+discoverKey(opts), func() ([]Movie, error) {
		return g.next.DiscoverMovies(ctx, opts)
	})
}

func (g *MemoGateway) DiscoverTV(ctx context.Context, opts DiscoverOptions) ([]TVShow, error) {
	return memoized(g, "discover_tv\x00"+discoverKey(opts), func() ([]TVShow, error) {
		return g.next.DiscoverTV(ctx, opts)
	})
}

func discoverKey(opts DiscoverOptions) string {
	return fmt.Sprintf("%v\x00%s\x00%g\x00%d\x00%d\x00%d",
		opts.WithGenres, opts.SortBy, opts.MinVoteAverage,
		opts.MinVoteCount, opts.YearFrom, opts.YearTo)
}
