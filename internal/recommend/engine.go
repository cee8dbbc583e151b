// Reelpair - Paired Letterboxd Recommendations and Taste Predictions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelpair

// Package recommend derives the three recommendation tables from two
// users' watch histories: provenance-weighted movies seeded by films
// both users loved, a genre-discovery fallback, and popular TV by
// fixed genre buckets.
package recommend

import (
	"context"
	"errors"
	"sort"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/tomtom215/reelpair/internal/models"
	"github.com/tomtom215/reelpair/internal/titles"
	"github.com/tomtom215/reelpair/internal/tmdb"
)

// Engine runs the recommendation passes against a catalog gateway.
type Engine struct {
	cfg      Config
	matchCfg titles.MatchConfig
	gateway  tmdb.Gateway
	logger   zerolog.Logger
}

// NewEngine creates an engine.
func NewEngine(cfg Config, matchCfg titles.MatchConfig, gateway tmdb.Gateway, logger zerolog.Logger) *Engine {
	return &Engine{
		cfg:      cfg,
		matchCfg: matchCfg,
		gateway:  gateway,
		logger:   logger.With().Str("component", "recommend").Logger(),
	}
}

// candidate accumulates provenance for one title. Insertion order is
// preserved by the caller so ranking ties resolve deterministically.
type candidate struct {
	count    float64
	sources  []string
	movie    tmdb.Movie
	genreIDs []int64
}

// Movies runs the provenance aggregation: for every film both users
// loved, the seed's related titles are scored, filtered against the
// pair's combined history, and ranked by count*2 + rating. Returns the
// ranked table and the both-loved list that seeded it.
//
// Individual catalog failures skip the seed; only context cancellation
// aborts the pass.
func (e *Engine) Movies(ctx context.Context, filmsA, filmsB []models.WatchedFilm) ([]models.Recommendation, []models.BothLoved, error) {
	loved := BothLoved(filmsA, filmsB, e.cfg.LovedThreshold)
	e.logger.Info().Int("both_loved", len(loved)).Msg("aggregating movie recommendations")

	watched := e.watchSet(filmsA, filmsB)

	candidates := make(map[string]*candidate)
	var order []string

	for _, seed := range loved {
		seedMovie, err := e.searchSeed(ctx, seed.Title)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, nil, ctxErr
			}
			if !errors.Is(err, tmdb.ErrNotFound) {
				e.logger.Warn().Err(err).Str("seed", seed.Title).Msg("seed lookup failed")
			}
			continue
		}

		related := e.relatedTitles(ctx, seedMovie.ID)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, nil, ctxErr
		}

		seedNorm := titles.Normalize(seed.Title)
		for _, m := range related {
			if titles.Normalize(m.Title) == seedNorm || watched.Contains(m.Title) {
				continue
			}
			if e.cfg.isBlocked(m.Title, m.GenreIDs) && m.VoteAverage < e.cfg.BlocklistOverrideRating {
				continue
			}

			priority := e.cfg.isPriorityGenre(m.GenreIDs)
			threshold := e.cfg.MinRating
			weight := e.cfg.BaseWeight
			if priority {
				threshold = e.cfg.PriorityMinRating
				weight = e.cfg.PriorityWeight
			}
			year := yearOf(m.ReleaseDate)
			if m.VoteAverage < threshold || m.VoteCount < e.cfg.MinVoteCount ||
				year < e.cfg.MinYear || year > e.cfg.MaxYear {
				continue
			}

			c, ok := candidates[m.Title]
			if !ok {
				c = &candidate{movie: m, genreIDs: m.GenreIDs}
				candidates[m.Title] = c
				order = append(order, m.Title)
			}
			c.count += weight
			c.sources = append(c.sources, seed.Title)
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		return score(candidates[order[i]]) > score(candidates[order[j]])
	})

	recs := make([]models.Recommendation, 0, e.cfg.MaxResults)
	for _, title := range order {
		if len(recs) >= e.cfg.MaxResults {
			break
		}
		// The fuzzy filter ran per seed; re-check the exact form so a
		// candidate admitted under one spelling never slips out watched.
		if watched.ContainsExact(title) {
			continue
		}
		c := candidates[title]
		recs = append(recs, models.Recommendation{
			Title:              c.movie.Title,
			Year:               yearString(c.movie.ReleaseDate),
			TMDBRating:         c.movie.VoteAverage,
			Overview:           overviewOf(c.movie.Overview),
			RecommendedBecause: truncate(c.sources, e.cfg.MaxSources),
			Count:              c.count,
			TMDBID:             c.movie.ID,
			PosterURL:          c.movie.PosterURL(),
			GenreIDs:           c.genreIDs,
		})
	}

	e.logger.Info().Int("recommendations", len(recs)).Msg("movie aggregation complete")
	return recs, loved, nil
}

// searchSeed resolves a history title to its TMDB record, splitting a
// trailing "(YYYY)" into the year filter.
func (e *Engine) searchSeed(ctx context.Context, title string) (*tmdb.Movie, error) {
	year, _ := titles.Year(title)
	return e.gateway.SearchMovie(ctx, titles.StripYear(title), year)
}

// relatedTitles concatenates the seed's recommendations and similar
// lists, capped per list. The lists overlap; a title on both earns its
// weight twice, which is the point.
func (e *Engine) relatedTitles(ctx context.Context, movieID int64) []tmdb.Movie {
	var out []tmdb.Movie
	for _, kind := range []tmdb.RelatedKind{tmdb.RelatedRecommendations, tmdb.RelatedSimilar} {
		list, err := e.gateway.Related(ctx, movieID, kind)
		if err != nil {
			if !errors.Is(err, tmdb.ErrNotFound) {
				e.logger.Warn().Err(err).Int64("movie_id", movieID).Str("kind", string(kind)).Msg("related lookup failed")
			}
			continue
		}
		if len(list) > e.cfg.RelatedLimit {
			list = list[:e.cfg.RelatedLimit]
		}
		out = append(out, list...)
	}
	return out
}

func (e *Engine) watchSet(filmsA, filmsB []models.WatchedFilm) *titles.WatchSet {
	set := titles.NewWatchSet(e.matchCfg)
	for _, f := range filmsA {
		set.Add(f.Title)
	}
	for _, f := range filmsB {
		set.Add(f.Title)
	}
	return set
}

func score(c *candidate) float64 {
	return c.count*2 + c.movie.VoteAverage
}

func truncate(s []string, n int) []string {
	if len(s) > n {
		s = s[:n]
	}
	return s
}

func yearOf(releaseDate string) int {
	if len(releaseDate) < 4 {
		return 0
	}
	y, err := strconv.Atoi(releaseDate[:4])
	if err != nil {
		return 0
	}
	return y
}

func yearString(releaseDate string) string {
	if len(releaseDate) < 4 {
		return "N/A"
	}
	return releaseDate[:4]
}

func overviewOf(overview string) string {
	if overview == "" {
		return "No overview available"
	}
	return overview
}
