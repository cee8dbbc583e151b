// Reelpair - Paired Letterboxd Recommendations and Taste Predictions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelpair

package recommend

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/tomtom215/reelpair/internal/models"
	"github.com/tomtom215/reelpair/internal/tmdb"
)

// GenreDiscovery derives the pair's top genres from their most loved
// shared films and fills a fallback table with popular, highly rated
// titles from each. Priority genres found in the derivation always
// rank ahead of the merely frequent ones and get a deeper result
// window.
func (e *Engine) GenreDiscovery(ctx context.Context, loved []models.BothLoved, filmsA, filmsB []models.WatchedFilm) ([]models.GenreRecommendation, error) {
	topGenres := e.deriveTopGenres(ctx, loved)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e.logger.Info().Strs("genres", topGenres).Msg("running genre discovery")

	watched := e.watchSet(filmsA, filmsB)
	seen := make(map[string]struct{})
	var rows []models.GenreRecommendation

	for _, name := range topGenres {
		id, ok := movieGenreIDs[name]
		if !ok {
			continue
		}
		results, err := e.gateway.DiscoverMovies(ctx, tmdb.DiscoverOptions{
			WithGenres:     []int64{id},
			MinVoteAverage: e.cfg.GenreMinVoteAverage,
			YearFrom:       e.cfg.MinYear,
			YearTo:         e.cfg.MaxYear,
		})
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			e.logger.Warn().Err(err).Str("genre", name).Msg("genre discovery failed")
			continue
		}

		limit := e.cfg.GenreLimit
		threshold := e.cfg.MinRating
		if e.cfg.isPriorityName(name) {
			limit = e.cfg.PriorityGenreLimit
			threshold = e.cfg.PriorityMinRating
		}
		if len(results) > limit {
			results = results[:limit]
		}

		for _, m := range results {
			if watched.ContainsExact(m.Title) {
				continue
			}
			if e.cfg.isBlocked(m.Title, m.GenreIDs) {
				continue
			}
			if m.VoteAverage < threshold || m.VoteCount < e.cfg.MinVoteCount {
				continue
			}
			if _, dup := seen[m.Title]; dup {
				continue
			}
			seen[m.Title] = struct{}{}
			rows = append(rows, models.GenreRecommendation{
				Title:      m.Title,
				Year:       yearString(m.ReleaseDate),
				TMDBRating: m.VoteAverage,
				Overview:   overviewOf(m.Overview),
				Sources:    []string{fmt.Sprintf("Popular %s film", name)},
				Count:      1,
				TMDBID:     m.ID,
				PosterURL:  m.PosterURL(),
				GenreIDs:   m.GenreIDs,
			})
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].TMDBRating > rows[j].TMDBRating
	})
	e.logger.Info().Int("recommendations", len(rows)).Msg("genre discovery complete")
	return rows, nil
}

// deriveTopGenres counts the detail genres of the most loved shared
// films. Priority genres present in the counts come first, in
// precedence order; remaining slots fill by frequency, name order
// breaking ties.
func (e *Engine) deriveTopGenres(ctx context.Context, loved []models.BothLoved) []string {
	seeds := loved
	if len(seeds) > e.cfg.GenreSeedCount {
		seeds = seeds[:e.cfg.GenreSeedCount]
	}

	counts := make(map[string]int)
	for _, seed := range seeds {
		m, err := e.searchSeed(ctx, seed.Title)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if !errors.Is(err, tmdb.ErrNotFound) {
				e.logger.Warn().Err(err).Str("seed", seed.Title).Msg("genre seed lookup failed")
			}
			continue
		}
		details, err := e.gateway.MovieDetails(ctx, m.ID)
		if err != nil {
			continue
		}
		for _, g := range details.Genres {
			counts[g.Name]++
		}
	}

	var top []string
	for _, p := range priorityGenreNames {
		if counts[p] > 0 {
			top = append(top, p)
		}
	}

	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if counts[names[i]] != counts[names[j]] {
			return counts[names[i]] > counts[names[j]]
		}
		return names[i] < names[j]
	})
	for _, name := range names {
		if len(top) >= e.cfg.TopGenres {
			break
		}
		if !contains(top, name) {
			top = append(top, name)
		}
	}
	if len(top) > e.cfg.TopGenres {
		top = top[:e.cfg.TopGenres]
	}
	return top
}

func contains(s []string, v string) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}
