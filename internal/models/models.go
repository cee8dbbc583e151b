// Reelpair - Paired Letterboxd Recommendations and Taste Predictions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelpair

// Package models defines the persisted row shapes shared by the scraper,
// the recommendation engines, and the HTTP layer. These structs mirror
// the on-disk table columns one to one; adding a field here means adding
// a column in the store codec.
package models

// WatchedFilm is one row of a user's scraped watch history. Rating is
// nil when the user logged the film without rating it.
type WatchedFilm struct {
	Title       string   `json:"film_title"`
	Rating      *float64 `json:"rating"`
	RatingStars string   `json:"rating_stars"`
}

// Rated reports whether the film carries a numeric rating.
func (f WatchedFilm) Rated() bool {
	return f.Rating != nil
}

// RatingOrZero returns the rating, or 0 when unrated.
func (f WatchedFilm) RatingOrZero() float64 {
	if f.Rating == nil {
		return 0
	}
	return *f.Rating
}

// Recommendation is one ranked movie candidate produced by the
// provenance aggregator. RecommendedBecause holds up to three seed
// titles from the pair's loved films.
type Recommendation struct {
	Title              string   `json:"title"`
	Year               string   `json:"year"`
	TMDBRating         float64  `json:"tmdb_rating"`
	Overview           string   `json:"overview"`
	RecommendedBecause []string `json:"recommended_because"`
	Count              float64  `json:"recommendation_count"`
	TMDBID             int64    `json:"tmdb_id"`
	PosterURL          string   `json:"poster_url"`
	GenreIDs           []int64  `json:"genre_ids"`
}

// GenreRecommendation is one row of the genre-discovery fallback table.
// Sources names the genre buckets that surfaced the title.
type GenreRecommendation struct {
	Title      string   `json:"title"`
	Year       string   `json:"year"`
	TMDBRating float64  `json:"tmdb_rating"`
	Overview   string   `json:"overview"`
	Sources    []string `json:"recommended_because"`
	Count      float64  `json:"recommendation_count"`
	TMDBID     int64    `json:"tmdb_id"`
	PosterURL  string   `json:"poster_url"`
	GenreIDs   []int64  `json:"genre_ids"`
}

// TVRecommendation is one ranked series from the TV discovery path.
type TVRecommendation struct {
	Name       string   `json:"title"`
	Year       string   `json:"year"`
	TMDBRating float64  `json:"tmdb_rating"`
	Overview   string   `json:"overview"`
	Sources    []string `json:"recommended_because"`
	Count      float64  `json:"recommendation_count"`
	TMDBID     int64    `json:"tmdb_id"`
	PosterURL  string   `json:"poster_url"`
	GenreIDs   []int64  `json:"genre_ids"`
}

// BothLoved is a film both users rated at or above the loved threshold,
// ordered by average rating when listed.
type BothLoved struct {
	Title   string  `json:"title"`
	RatingA float64 `json:"rating_a"`
	RatingB float64 `json:"rating_b"`
	Average float64 `json:"average"`
}
