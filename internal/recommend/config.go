// Reelpair - Paired Letterboxd Recommendations and Taste Predictions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelpair

package recommend

import (
	"errors"
	"fmt"
)

// Config holds the movie recommendation thresholds. The defaults encode
// the pair's established taste profile: slow character-driven mystery,
// drama, and thriller get boosted weight and a lower rating bar, while
// franchise action is filtered out unless exceptional.
type Config struct {
	// LovedThreshold is the minimum user rating (out of 5) for a film
	// to count as loved. Default: 4.0.
	LovedThreshold float64 `json:"loved_threshold" koanf:"loved_threshold"`

	// MinRating is the minimum TMDB rating for a candidate. Default: 6.0.
	MinRating float64 `json:"min_rating" koanf:"min_rating"`

	// PriorityMinRating is the relaxed rating bar for candidates in a
	// priority genre. Default: 5.5.
	PriorityMinRating float64 `json:"priority_min_rating" koanf:"priority_min_rating"`

	// MinVoteCount filters out obscure entries with unstable ratings.
	// Default: 500.
	MinVoteCount int `json:"min_vote_count" koanf:"min_vote_count"`

	// MinYear and MaxYear bound candidate release years.
	// Defaults: 1970 and 2026.
	MinYear int `json:"min_year" koanf:"min_year"`
	MaxYear int `json:"max_year" koanf:"max_year"`

	// PriorityGenres get PriorityWeight instead of BaseWeight and the
	// relaxed rating bar. Defaults: Mystery (9648), Drama (18),
	// Thriller (53).
	PriorityGenres []int64 `json:"priority_genres" koanf:"priority_genres"`

	// PriorityWeight and BaseWeight are the per-source provenance
	// increments. Fractional weights are honored. Defaults: 3 and 1.
	PriorityWeight float64 `json:"priority_weight" koanf:"priority_weight"`
	BaseWeight     float64 `json:"base_weight" koanf:"base_weight"`

	// RelatedLimit caps how many titles are taken from each of the two
	// related lists per seed. Default: 10.
	RelatedLimit int `json:"related_limit" koanf:"related_limit"`

	// MaxResults caps the emitted movie table. Default: 25.
	MaxResults int `json:"max_results" koanf:"max_results"`

	// MaxSources caps the provenance titles stored per row. Default: 3.
	MaxSources int `json:"max_sources" koanf:"max_sources"`

	// BlockedGenres and BlockedKeywords drive the franchise-action
	// filter: a candidate whose lowercase title contains a keyword, or
	// that carries at least two blocked genre ids out of at most four
	// total, is dropped unless rated at or above BlocklistOverrideRating.
	BlockedGenres   []int64  `json:"blocked_genres" koanf:"blocked_genres"`
	BlockedKeywords []string `json:"blocked_keywords" koanf:"blocked_keywords"`

	// BlocklistOverrideRating lets exceptional blocked titles through.
	// Default: 8.5.
	BlocklistOverrideRating float64 `json:"blocklist_override_rating" koanf:"blocklist_override_rating"`

	// GenreSeedCount is how many top loved films feed the genre
	// frequency derivation. Default: 10.
	GenreSeedCount int `json:"genre_seed_count" koanf:"genre_seed_count"`

	// TopGenres is how many genres the discovery fallback explores.
	// Default: 3.
	TopGenres int `json:"top_genres" koanf:"top_genres"`

	// GenreMinVoteAverage is the discover query's server-side rating
	// floor. Default: 7.0.
	GenreMinVoteAverage float64 `json:"genre_min_vote_average" koanf:"genre_min_vote_average"`

	// PriorityGenreLimit and GenreLimit cap how many discover results
	// are considered per genre. Defaults: 20 and 10.
	PriorityGenreLimit int `json:"priority_genre_limit" koanf:"priority_genre_limit"`
	GenreLimit         int `json:"genre_limit" koanf:"genre_limit"`

	// TV holds the TV discovery settings.
	TV TVConfig `json:"tv" koanf:"tv"`
}

// TVConfig holds the TV recommendation thresholds. TV uses a stricter
// rating bar and a modern-era year window because series ratings skew
// higher than film ratings on TMDB.
type TVConfig struct {
	// MinRating is the minimum TMDB rating for a series. Default: 7.0.
	MinRating float64 `json:"min_rating" koanf:"min_rating"`

	// MinYear and MaxYear bound first-air years. Defaults: 2000 and 2026.
	MinYear int `json:"min_year" koanf:"min_year"`
	MaxYear int `json:"max_year" koanf:"max_year"`

	// PerGenreLimit caps results considered per genre bucket. Default: 15.
	PerGenreLimit int `json:"per_genre_limit" koanf:"per_genre_limit"`

	// MaxResults caps the emitted TV table. Default: 30.
	MaxResults int `json:"max_results" koanf:"max_results"`
}

// genreRef pairs a display name with a TMDB genre id, ordered: bucket
// iteration order is part of the output contract because source labels
// and tie ranks depend on it.
type genreRef struct {
	Name string
	ID   int64
}

// movieGenreIDs maps the genre names the derivation step produces to
// the ids the discover endpoint accepts.
var movieGenreIDs = map[string]int64{
	"Drama":           18,
	"Thriller":        53,
	"Mystery":         9648,
	"Crime":           80,
	"Music":           10402,
	"Action":          28,
	"Comedy":          35,
	"Horror":          27,
	"Sci-Fi":          878,
	"Science Fiction": 878,
}

// priorityGenreNames mirrors the default PriorityGenres ids, in
// precedence order, for the name-keyed genre derivation.
var priorityGenreNames = []string{"Mystery", "Drama", "Thriller"}

// tvGenres is the fixed TV bucket list, in query order.
var tvGenres = []genreRef{
	{"Drama", 18},
	{"Thriller", 53},
	{"Mystery", 9648},
	{"Crime", 80},
	{"Sci-Fi", 8785},
	{"Horror", 27},
	{"Comedy", 35},
}

// DefaultConfig returns the production recommendation thresholds.
func DefaultConfig() Config {
	return Config{
		LovedThreshold:    4.0,
		MinRating:         6.0,
		PriorityMinRating: 5.5,
		MinVoteCount:      500,
		MinYear:           1970,
		MaxYear:           2026,
		PriorityGenres:    []int64{9648, 18, 53},
		PriorityWeight:    3,
		BaseWeight:        1,
		RelatedLimit:      10,
		MaxResults:        25,
		MaxSources:        3,
		BlockedGenres:     []int64{28, 878, 12},
		BlockedKeywords: []string{
			"superhero", "spider-man", "batman", "superman", "iron man",
			"captain america", "avengers", "x-men", "guardians of the galaxy",
			"men in black", "marvel", "wolverine", "hulk", "thor", "ant-man",
			"black widow", "wonder woman", "flash", "aquaman", "green lantern",
			"deadpool", "venom", "doctor strange", "black panther", "shazam",
		},
		BlocklistOverrideRating: 8.5,
		GenreSeedCount:          10,
		TopGenres:               3,
		GenreMinVoteAverage:     7.0,
		PriorityGenreLimit:      20,
		GenreLimit:              10,
		TV: TVConfig{
			MinRating:     7.0,
			MinYear:       2000,
			MaxYear:       2026,
			PerGenreLimit: 15,
			MaxResults:    30,
		},
	}
}

// Validate checks the configuration for correctness.
func (c Config) Validate() error {
	if c.LovedThreshold < 0 || c.LovedThreshold > 5 {
		return errors.New("recommend: loved_threshold must be in [0, 5]")
	}
	if c.MinRating < 0 || c.MinRating > 10 {
		return errors.New("recommend: min_rating must be in [0, 10]")
	}
	if c.PriorityMinRating > c.MinRating {
		return errors.New("recommend: priority_min_rating must not exceed min_rating")
	}
	if c.MinVoteCount < 0 {
		return errors.New("recommend: min_vote_count must not be negative")
	}
	if c.MinYear > c.MaxYear {
		return fmt.Errorf("recommend: min_year %d exceeds max_year %d", c.MinYear, c.MaxYear)
	}
	if c.PriorityWeight < c.BaseWeight {
		return errors.New("recommend: priority_weight must be at least base_weight")
	}
	if c.RelatedLimit <= 0 || c.MaxResults <= 0 || c.MaxSources <= 0 {
		return errors.New("recommend: related_limit, max_results, and max_sources must be positive")
	}
	if c.TopGenres <= 0 || c.GenreSeedCount <= 0 {
		return errors.New("recommend: top_genres and genre_seed_count must be positive")
	}
	if c.TV.MinYear > c.TV.MaxYear {
		return fmt.Errorf("recommend: tv min_year %d exceeds max_year %d", c.TV.MinYear, c.TV.MaxYear)
	}
	if c.TV.PerGenreLimit <= 0 || c.TV.MaxResults <= 0 {
		return errors.New("recommend: tv per_genre_limit and max_results must be positive")
	}
	return nil
}

func (c Config) isPriorityGenre(genreIDs []int64) bool {
	for _, g := range genreIDs {
		for _, p := range c.PriorityGenres {
			if g == p {
				return true
			}
		}
	}
	return false
}

func (c Config) isPriorityName(name string) bool {
	for _, p := range priorityGenreNames {
		if name == p {
			return true
		}
	}
	return false
}
