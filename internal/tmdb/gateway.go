// Reelpair - Paired Letterboxd Recommendations and Taste Predictions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelpair

package tmdb

import (
	"context"
	"errors"
)

// ErrNotFound marks a lookup that completed but matched nothing. It is
// a cacheable outcome, distinct from transport failures: the memo layer
// remembers it so an unmatchable title costs one network call per run.
var ErrNotFound = errors.New("tmdb: not found")

// Gateway is the catalog surface the engines consume. The concrete
// chain at runtime is MemoGateway -> BreakerGateway -> Client.
type Gateway interface {
	// SearchMovie returns the best match for a title, optionally pinned
	// to a release year (0 means any). Returns ErrNotFound when nothing
	// matches.
	SearchMovie(ctx context.Context, title string, year int) (*Movie, error)

	// SearchMovies returns the raw result list for a free-text query.
	SearchMovies(ctx context.Context, query string) ([]Movie, error)

	// Related returns the recommendations or similar list for a movie.
	Related(ctx context.Context, movieID int64, kind RelatedKind) ([]Movie, error)

	// MovieDetails fetches the full record, including resolved genres.
	MovieDetails(ctx context.Context, movieID int64) (*MovieDetails, error)

	// DiscoverMovies runs a filtered movie discovery query.
	DiscoverMovies(ctx context.Context, opts DiscoverOptions) ([]Movie, error)

	// DiscoverTV runs a filtered TV discovery query.
	DiscoverTV(ctx context.Context, opts DiscoverOptions) ([]TVShow, error)
}
