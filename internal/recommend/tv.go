// Reelpair - Paired Letterboxd Recommendations and Taste Predictions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelpair

package recommend

import (
	"context"
	"sort"

	"github.com/tomtom215/reelpair/internal/models"
	"github.com/tomtom215/reelpair/internal/titles"
	"github.com/tomtom215/reelpair/internal/tmdb"
)

// TV fills the series table from popularity discovery over the fixed
// genre buckets. A series surfacing in several buckets accumulates
// count and sources; ranking is by count, then rating. Failures are
// per bucket: one bad query drops that genre, not the table.
func (e *Engine) TV(ctx context.Context, filmsA, filmsB []models.WatchedFilm) ([]models.TVRecommendation, error) {
	e.logger.Info().Msg("aggregating tv recommendations")

	watchedNorm := make(map[string]struct{}, len(filmsA)+len(filmsB))
	for _, f := range filmsA {
		watchedNorm[titles.Normalize(f.Title)] = struct{}{}
	}
	for _, f := range filmsB {
		watchedNorm[titles.Normalize(f.Title)] = struct{}{}
	}

	type tvCandidate struct {
		count   float64
		sources []string
		show    tmdb.TVShow
	}
	candidates := make(map[string]*tvCandidate)
	var order []string

	for _, genre := range tvGenres {
		results, err := e.gateway.DiscoverTV(ctx, tmdb.DiscoverOptions{
			WithGenres:     []int64{genre.ID},
			MinVoteAverage: e.cfg.TV.MinRating,
			YearFrom:       e.cfg.TV.MinYear,
			YearTo:         e.cfg.TV.MaxYear,
		})
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			e.logger.Warn().Err(err).Str("genre", genre.Name).Msg("tv discovery failed")
			continue
		}
		if len(results) > e.cfg.TV.PerGenreLimit {
			results = results[:e.cfg.TV.PerGenreLimit]
		}

		for _, show := range results {
			if _, seen := watchedNorm[titles.Normalize(show.Name)]; seen {
				continue
			}
			year := yearOf(show.FirstAirDate)
			if show.VoteAverage < e.cfg.TV.MinRating ||
				year < e.cfg.TV.MinYear || year > e.cfg.TV.MaxYear {
				continue
			}
			c, ok := candidates[show.Name]
			if !ok {
				c = &tvCandidate{show: show}
				candidates[show.Name] = c
				order = append(order, show.Name)
			}
			c.count++
			c.sources = append(c.sources, "Popular "+genre.Name)
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		a, b := candidates[order[i]], candidates[order[j]]
		if a.count != b.count {
			return a.count > b.count
		}
		return a.show.VoteAverage > b.show.VoteAverage
	})

	recs := make([]models.TVRecommendation, 0, e.cfg.TV.MaxResults)
	for _, name := range order {
		if len(recs) >= e.cfg.TV.MaxResults {
			break
		}
		c := candidates[name]
		sources := truncate(c.sources, e.cfg.MaxSources)
		if len(sources) == 0 {
			sources = []string{"Popular"}
		}
		recs = append(recs, models.TVRecommendation{
			Name:       c.show.Name,
			Year:       yearString(c.show.FirstAirDate),
			TMDBRating: c.show.VoteAverage,
			Overview:   overviewOf(c.show.Overview),
			Sources:    sources,
			Count:      c.count,
			TMDBID:     c.show.ID,
			PosterURL:  c.show.PosterURL(),
			GenreIDs:   c.show.GenreIDs,
		})
	}

	e.logger.Info().Int("recommendations", len(recs)).Msg("tv aggregation complete")
	return recs, nil
}
