// Reelpair - Paired Letterboxd Recommendations and Taste Predictions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelpair

package tmdb

// API response shapes for the TMDB v3 endpoints the engines use. Field
// names follow the wire format exactly; helper methods derive the
// display values the tables store.

const posterBaseURL = "https://image.tmdb.org/t/p/w500"

// Movie is one result row from search, related, or discover endpoints.
type Movie struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Overview    string  `json:"overview"`
	ReleaseDate string  `json:"release_date"`
	VoteAverage float64 `json:"vote_average"`
	VoteCount   int     `json:"vote_count"`
	PosterPath  string  `json:"poster_path"`
	GenreIDs    []int64 `json:"genre_ids"`
}

// Year returns the four-digit release year, or "" when unknown.
func (m Movie) Year() string {
	if len(m.ReleaseDate) < 4 {
		return ""
	}
	return m.ReleaseDate[:4]
}

// PosterURL returns the full w500 poster URL, or "" when no poster.
func (m Movie) PosterURL() string {
	if m.PosterPath == "" {
		return ""
	}
	return posterBaseURL + m.PosterPath
}

// TVShow is one result row from the TV discover endpoint.
type TVShow struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	Overview     string  `json:"overview"`
	FirstAirDate string  `json:"first_air_date"`
	VoteAverage  float64 `json:"vote_average"`
	VoteCount    int     `json:"vote_count"`
	PosterPath   string  `json:"poster_path"`
	GenreIDs     []int64 `json:"genre_ids"`
}

// Year returns the four-digit first-air year, or "" when unknown.
func (s TVShow) Year() string {
	if len(s.FirstAirDate) < 4 {
		return ""
	}
	return s.FirstAirDate[:4]
}

// PosterURL returns the full w500 poster URL, or "" when no poster.
func (s TVShow) PosterURL() string {
	if s.PosterPath == "" {
		return ""
	}
	return posterBaseURL + s.PosterPath
}

// Genre is a TMDB genre reference as returned by the details endpoint.
type Genre struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// MovieDetails is the full movie record, fetched when search results do
// not carry resolved genre names.
type MovieDetails struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Overview    string  `json:"overview"`
	ReleaseDate string  `json:"release_date"`
	VoteAverage float64 `json:"vote_average"`
	VoteCount   int     `json:"vote_count"`
	PosterPath  string  `json:"poster_path"`
	Genres      []Genre `json:"genres"`
}

// movieList is the standard paged envelope for movie results.
type movieList struct {
	Page    int     `json:"page"`
	Results []Movie `json:"results"`
}

// tvList is the paged envelope for TV results.
type tvList struct {
	Page    int      `json:"page"`
	Results []TVShow `json:"results"`
}

// RelatedKind selects which related-titles endpoint to query. The two
// lists overlap; the aggregator counts duplicates across them as extra
// provenance weight on purpose.
type RelatedKind string

const (
	RelatedRecommendations RelatedKind = "recommendations"
	RelatedSimilar         RelatedKind = "similar"
)

// DiscoverOptions narrows a discover query. Zero values mean "no
// constraint" except SortBy, which defaults to popularity descending.
type DiscoverOptions struct {
	WithGenres     []int64
	SortBy         string
	MinVoteAverage float64
	MinVoteCount   int
	YearFrom       int
	YearTo         int
}
