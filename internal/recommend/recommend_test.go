// Reelpair - Paired Letterboxd Recommendations and Taste Predictions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelpair

package recommend

import (
	"context"
	"fmt"
	"reflect"
	"testing"

	"github.com/rs/zerolog"

	"github.com/tomtom215/reelpair/internal/models"
	"github.com/tomtom215/reelpair/internal/titles"
	"github.com/tomtom215/reelpair/internal/tmdb"
)

type fakeGateway struct {
	search   map[string]*tmdb.Movie
	related  map[string][]tmdb.Movie
	details  map[int64]*tmdb.MovieDetails
	discover map[int64][]tmdb.Movie
	tv       map[int64][]tmdb.TVShow
}

func (f *fakeGateway) SearchMovie(_ context.Context, title string, _ int) (*tmdb.Movie, error) {
	if m, ok := f.search[title]; ok {
		return m, nil
	}
	return nil, tmdb.ErrNotFound
}

func (f *fakeGateway) SearchMovies(_ context.Context, query string) ([]tmdb.Movie, error) {
	if m, ok := f.search[query]; ok {
		return []tmdb.Movie{*m}, nil
	}
	return nil, nil
}

func (f *fakeGateway) Related(_ context.Context, movieID int64, kind tmdb.RelatedKind) ([]tmdb.Movie, error) {
	return f.related[fmt.Sprintf("%d/%s", movieID, kind)], nil
}

func (f *fakeGateway) MovieDetails(_ context.Context, movieID int64) (*tmdb.MovieDetails, error) {
	if d, ok := f.details[movieID]; ok {
		return d, nil
	}
	return nil, tmdb.ErrNotFound
}

func (f *fakeGateway) DiscoverMovies(_ context.Context, opts tmdb.DiscoverOptions) ([]tmdb.Movie, error) {
	if len(opts.WithGenres) != 1 {
		return nil, nil
	}
	return f.discover[opts.WithGenres[0]], nil
}

func (f *fakeGateway) DiscoverTV(_ context.Context, opts tmdb.DiscoverOptions) ([]tmdb.TVShow, error) {
	if len(opts.WithGenres) != 1 {
		return nil, nil
	}
	return f.tv[opts.WithGenres[0]], nil
}

func newEngine(g tmdb.Gateway) *Engine {
	return NewEngine(DefaultConfig(), titles.DefaultMatchConfig(), g, zerolog.Nop())
}

func rated(title string, rating float64) models.WatchedFilm {
	return models.WatchedFilm{Title: title, Rating: &rating}
}

func TestBothLoved(t *testing.T) {
	filmsA := []models.WatchedFilm{
		rated("Heat (1995)", 4.5),
		rated("Alien", 4.0),
		rated("Meh Film", 3.0),
		rated("Only A Loved It", 5.0),
		{Title: "Unrated", Rating: nil},
	}
	filmsB := []models.WatchedFilm{
		rated("heat", 5.0), // matches via normalization
		rated("Alien", 4.5),
		rated("Only A Loved It", 2.0),
	}

	loved := BothLoved(filmsA, filmsB, 4.0)
	if len(loved) != 2 {
		t.Fatalf("got %d both-loved films, want 2: %+v", len(loved), loved)
	}
	if loved[0].Title != "Heat (1995)" || loved[0].Average != 4.75 {
		t.Errorf("loved[0] = %+v", loved[0])
	}
	if loved[1].Title != "Alien" || loved[1].Average != 4.25 {
		t.Errorf("loved[1] = %+v", loved[1])
	}
}

func TestIsBlocked(t *testing.T) {
	cfg := DefaultConfig()
	tests := []struct {
		name     string
		title    string
		genreIDs []int64
		want     bool
	}{
		{"keyword hit", "Batman Begins", []int64{80, 18}, true},
		{"keyword case insensitive", "The AVENGERS Assemble", nil, true},
		{"two blocked genres, few total", "Generic Blockbuster", []int64{28, 878}, true},
		{"two blocked genres, many total", "Layered Epic", []int64{28, 878, 18, 36, 10752}, false},
		{"one blocked genre", "The Thing", []int64{27, 878}, false},
		{"clean", "The Conversation", []int64{9648, 18}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cfg.isBlocked(tt.title, tt.genreIDs); got != tt.want {
				t.Errorf("isBlocked(%q, %v) = %v, want %v", tt.title, tt.genreIDs, got, tt.want)
			}
		})
	}
}

func TestMoviesAggregation(t *testing.T) {
	g := &fakeGateway{
		search: map[string]*tmdb.Movie{
			"Heat":  {ID: 1, Title: "Heat"},
			"Alien": {ID: 2, Title: "Alien"},
		},
		related: map[string][]tmdb.Movie{
			"1/recommendations": {
				{ID: 10, Title: "Thief", VoteAverage: 7.5, VoteCount: 1000, ReleaseDate: "1981-03-27", GenreIDs: []int64{80, 18}},
				{ID: 11, Title: "Watched Candidate", VoteAverage: 7.0, VoteCount: 1000, ReleaseDate: "1990-01-01", GenreIDs: []int64{18}},
				{ID: 12, Title: "Batman Begins", VoteAverage: 7.7, VoteCount: 9000, ReleaseDate: "2005-06-10", GenreIDs: []int64{28, 80, 18}},
				{ID: 13, Title: "Obscure Gem", VoteAverage: 8.0, VoteCount: 100, ReleaseDate: "2001-01-01", GenreIDs: []int64{18}},
				{ID: 14, Title: "Silent Classic", VoteAverage: 8.2, VoteCount: 2000, ReleaseDate: "1931-03-01", GenreIDs: []int64{18}},
			},
			"1/similar": {
				{ID: 10, Title: "Thief", VoteAverage: 7.5, VoteCount: 1000, ReleaseDate: "1981-03-27", GenreIDs: []int64{80, 18}},
				{ID: 15, Title: "Collateral", VoteAverage: 7.2, VoteCount: 3000, ReleaseDate: "2004-08-06", GenreIDs: []int64{80, 53}},
			},
			"2/recommendations": {
				{ID: 15, Title: "Collateral", VoteAverage: 7.2, VoteCount: 3000, ReleaseDate: "2004-08-06", GenreIDs: []int64{80, 53}},
			},
			"2/similar": {
				{ID: 16, Title: "The Thing", VoteAverage: 8.0, VoteCount: 8000, ReleaseDate: "1982-06-25", GenreIDs: []int64{27, 878}},
				{ID: 17, Title: "Exceptional Blockbuster", VoteAverage: 8.7, VoteCount: 10000, ReleaseDate: "2015-05-01", GenreIDs: []int64{28, 878}},
				{ID: 18, Title: "Mediocre Blockbuster", VoteAverage: 7.0, VoteCount: 10000, ReleaseDate: "2016-05-01", GenreIDs: []int64{28, 878}},
			},
		},
	}

	filmsA := []models.WatchedFilm{
		rated("Heat (1995)", 4.5),
		rated("Alien", 4.0),
		rated("Watched Candidate", 3.0),
	}
	filmsB := []models.WatchedFilm{
		rated("Heat", 5.0),
		rated("Alien", 4.5),
	}

	recs, loved, err := newEngine(g).Movies(context.Background(), filmsA, filmsB)
	if err != nil {
		t.Fatalf("Movies: %v", err)
	}
	if len(loved) != 2 {
		t.Fatalf("both-loved = %+v", loved)
	}

	titles := make([]string, 0, len(recs))
	for _, r := range recs {
		titles = append(titles, r.Title)
	}
	want := []string{"Thief", "Collateral", "Exceptional Blockbuster", "The Thing"}
	if !reflect.DeepEqual(titles, want) {
		t.Fatalf("ranking = %v, want %v", titles, want)
	}

	// Thief appears on both of Heat's related lists, each occurrence
	// earning the priority weight.
	if recs[0].Count != 6 {
		t.Errorf("Thief count = %v, want 6", recs[0].Count)
	}
	if !reflect.DeepEqual(recs[0].RecommendedBecause, []string{"Heat (1995)", "Heat (1995)"}) {
		t.Errorf("Thief sources = %v", recs[0].RecommendedBecause)
	}

	// Collateral is seeded once by each loved film.
	if recs[1].Count != 6 {
		t.Errorf("Collateral count = %v, want 6", recs[1].Count)
	}
	if !reflect.DeepEqual(recs[1].RecommendedBecause, []string{"Heat (1995)", "Alien"}) {
		t.Errorf("Collateral sources = %v", recs[1].RecommendedBecause)
	}

	// Non-priority gets base weight.
	if recs[3].Count != 1 {
		t.Errorf("The Thing count = %v, want 1", recs[3].Count)
	}
	if recs[3].Year != "1982" {
		t.Errorf("The Thing year = %q", recs[3].Year)
	}
	if recs[3].Overview != "No overview available" {
		t.Errorf("empty overview placeholder missing: %q", recs[3].Overview)
	}
}

func TestMoviesBlocklistOverride(t *testing.T) {
	// Exceptional Blockbuster (8.7 >= 8.5) survives the franchise
	// filter; Mediocre Blockbuster (7.0) does not.
	g := &fakeGateway{
		search: map[string]*tmdb.Movie{"Seed": {ID: 1, Title: "Seed"}},
		related: map[string][]tmdb.Movie{
			"1/recommendations": {
				{ID: 17, Title: "Exceptional Blockbuster", VoteAverage: 8.7, VoteCount: 10000, ReleaseDate: "2015-05-01", GenreIDs: []int64{28, 878}},
				{ID: 18, Title: "Mediocre Blockbuster", VoteAverage: 7.0, VoteCount: 10000, ReleaseDate: "2016-05-01", GenreIDs: []int64{28, 878}},
			},
		},
	}
	recs, _, err := newEngine(g).Movies(context.Background(),
		[]models.WatchedFilm{rated("Seed", 4.5)},
		[]models.WatchedFilm{rated("Seed", 4.5)})
	if err != nil {
		t.Fatalf("Movies: %v", err)
	}
	if len(recs) != 1 || recs[0].Title != "Exceptional Blockbuster" {
		t.Errorf("recs = %+v", recs)
	}
}

func TestMoviesTieKeepsInsertionOrder(t *testing.T) {
	// Alpha, Beta, and Gamma all score count*2 + rating = 9.0; Front
	// Runner scores 10.0. Equal-score candidates must keep the order
	// they were first seen in, even with a higher-score candidate
	// discovered between them.
	g := &fakeGateway{
		search: map[string]*tmdb.Movie{"Seed": {ID: 1, Title: "Seed"}},
		related: map[string][]tmdb.Movie{
			"1/recommendations": {
				{ID: 20, Title: "Alpha Ties", VoteAverage: 7.0, VoteCount: 1000, ReleaseDate: "1999-01-01", GenreIDs: []int64{35}},
				{ID: 21, Title: "Beta Ties", VoteAverage: 7.0, VoteCount: 1000, ReleaseDate: "2003-01-01", GenreIDs: []int64{35}},
				{ID: 22, Title: "Front Runner", VoteAverage: 8.0, VoteCount: 1000, ReleaseDate: "2010-01-01", GenreIDs: []int64{35}},
				{ID: 23, Title: "Gamma Ties", VoteAverage: 7.0, VoteCount: 1000, ReleaseDate: "2007-01-01", GenreIDs: []int64{35}},
			},
		},
	}
	recs, _, err := newEngine(g).Movies(context.Background(),
		[]models.WatchedFilm{rated("Seed", 4.5)},
		[]models.WatchedFilm{rated("Seed", 4.5)})
	if err != nil {
		t.Fatalf("Movies: %v", err)
	}
	got := make([]string, 0, len(recs))
	for _, r := range recs {
		got = append(got, r.Title)
	}
	want := []string{"Front Runner", "Alpha Ties", "Beta Ties", "Gamma Ties"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ranking = %v, want %v", got, want)
	}
}

func TestMoviesFractionalWeight(t *testing.T) {
	g := &fakeGateway{
		search: map[string]*tmdb.Movie{"Seed": {ID: 1, Title: "Seed"}},
		related: map[string][]tmdb.Movie{
			"1/recommendations": {
				{ID: 24, Title: "Plain Pick", VoteAverage: 7.0, VoteCount: 1000, ReleaseDate: "2001-01-01", GenreIDs: []int64{35}},
				{ID: 25, Title: "Priority Pick", VoteAverage: 7.0, VoteCount: 1000, ReleaseDate: "2002-01-01", GenreIDs: []int64{18}},
			},
		},
	}
	cfg := DefaultConfig()
	cfg.BaseWeight = 0.5
	cfg.PriorityWeight = 1.5
	engine := NewEngine(cfg, titles.DefaultMatchConfig(), g, zerolog.Nop())

	recs, _, err := engine.Movies(context.Background(),
		[]models.WatchedFilm{rated("Seed", 4.5)},
		[]models.WatchedFilm{rated("Seed", 4.5)})
	if err != nil {
		t.Fatalf("Movies: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("recs = %+v, want 2", recs)
	}
	if recs[0].Title != "Priority Pick" || recs[0].Count != 1.5 {
		t.Errorf("recs[0] = %q count %v, want Priority Pick 1.5", recs[0].Title, recs[0].Count)
	}
	if recs[1].Title != "Plain Pick" || recs[1].Count != 0.5 {
		t.Errorf("recs[1] = %q count %v, want Plain Pick 0.5", recs[1].Title, recs[1].Count)
	}
}

func TestMoviesNoLovedFilms(t *testing.T) {
	recs, loved, err := newEngine(&fakeGateway{}).Movies(context.Background(),
		[]models.WatchedFilm{rated("A", 3.0)},
		[]models.WatchedFilm{rated("A", 3.0)})
	if err != nil {
		t.Fatalf("Movies: %v", err)
	}
	if len(recs) != 0 || len(loved) != 0 {
		t.Errorf("expected empty results, got %v / %v", recs, loved)
	}
}

func TestDeriveTopGenres(t *testing.T) {
	g := &fakeGateway{
		search: map[string]*tmdb.Movie{
			"Heat":  {ID: 1, Title: "Heat"},
			"Alien": {ID: 2, Title: "Alien"},
		},
		details: map[int64]*tmdb.MovieDetails{
			1: {ID: 1, Genres: []tmdb.Genre{{ID: 80, Name: "Crime"}, {ID: 18, Name: "Drama"}, {ID: 53, Name: "Thriller"}}},
			2: {ID: 2, Genres: []tmdb.Genre{{ID: 27, Name: "Horror"}, {ID: 878, Name: "Science Fiction"}}},
		},
	}
	loved := []models.BothLoved{{Title: "Heat"}, {Title: "Alien"}}
	got := newEngine(g).deriveTopGenres(context.Background(), loved)
	// Priority genres present come first in precedence order, then the
	// remaining slot fills by frequency with name-order ties.
	want := []string{"Drama", "Thriller", "Crime"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("deriveTopGenres = %v, want %v", got, want)
	}
}

func TestGenreDiscovery(t *testing.T) {
	g := &fakeGateway{
		search: map[string]*tmdb.Movie{"Heat": {ID: 1, Title: "Heat"}},
		details: map[int64]*tmdb.MovieDetails{
			1: {ID: 1, Genres: []tmdb.Genre{{ID: 18, Name: "Drama"}}},
		},
		discover: map[int64][]tmdb.Movie{
			18: {
				{ID: 20, Title: "Popular Drama", VoteAverage: 7.8, VoteCount: 900, ReleaseDate: "2010-01-01", GenreIDs: []int64{18}},
				{ID: 21, Title: "Already Watched", VoteAverage: 8.0, VoteCount: 900, ReleaseDate: "2011-01-01", GenreIDs: []int64{18}},
				{ID: 22, Title: "Marvel Adjacent", VoteAverage: 7.9, VoteCount: 900, ReleaseDate: "2012-01-01", GenreIDs: []int64{18}},
				{ID: 23, Title: "Thin Crowd", VoteAverage: 7.5, VoteCount: 50, ReleaseDate: "2013-01-01", GenreIDs: []int64{18}},
			},
		},
	}
	filmsA := []models.WatchedFilm{rated("Heat", 4.5), rated("Already Watched", 2.0)}
	filmsB := []models.WatchedFilm{rated("Heat", 5.0)}
	loved := []models.BothLoved{{Title: "Heat"}}

	rows, err := newEngine(g).GenreDiscovery(context.Background(), loved, filmsA, filmsB)
	if err != nil {
		t.Fatalf("GenreDiscovery: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %+v, want only Popular Drama", rows)
	}
	r := rows[0]
	if r.Title != "Popular Drama" || r.Count != 1 {
		t.Errorf("row = %+v", r)
	}
	if !reflect.DeepEqual(r.Sources, []string{"Popular Drama film"}) {
		t.Errorf("sources = %v", r.Sources)
	}
}

func TestTVAggregation(t *testing.T) {
	wire := tmdb.TVShow{ID: 30, Name: "The Wire", VoteAverage: 8.6, FirstAirDate: "2002-06-02", GenreIDs: []int64{80, 18}}
	g := &fakeGateway{
		tv: map[int64][]tmdb.TVShow{
			18: {
				wire,
				{ID: 31, Name: "Modern Show", VoteAverage: 8.0, FirstAirDate: "2015-01-01", GenreIDs: []int64{18}},
				{ID: 32, Name: "Too Old", VoteAverage: 8.8, FirstAirDate: "1994-01-01", GenreIDs: []int64{18}},
				{ID: 33, Name: "Too Weak", VoteAverage: 6.5, FirstAirDate: "2019-01-01", GenreIDs: []int64{18}},
				{ID: 34, Name: "Seen It", VoteAverage: 8.2, FirstAirDate: "2008-01-01", GenreIDs: []int64{18}},
			},
			80: {wire},
		},
	}
	filmsA := []models.WatchedFilm{rated("Seen It", 4.0)}

	recs, err := newEngine(g).TV(context.Background(), filmsA, nil)
	if err != nil {
		t.Fatalf("TV: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("recs = %+v, want 2", recs)
	}
	if recs[0].Name != "The Wire" || recs[0].Count != 2 {
		t.Errorf("recs[0] = %+v", recs[0])
	}
	if !reflect.DeepEqual(recs[0].Sources, []string{"Popular Drama", "Popular Crime"}) {
		t.Errorf("sources = %v", recs[0].Sources)
	}
	if recs[1].Name != "Modern Show" || recs[1].Count != 1 {
		t.Errorf("recs[1] = %+v", recs[1])
	}
}

func TestConfigValidate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}

	bad := DefaultConfig()
	bad.MinYear = 2030
	if err := bad.Validate(); err == nil {
		t.Error("expected error for min_year > max_year")
	}

	bad = DefaultConfig()
	bad.PriorityMinRating = 9.0
	if err := bad.Validate(); err == nil {
		t.Error("expected error for priority_min_rating > min_rating")
	}

	bad = DefaultConfig()
	bad.MaxResults = 0
	if err := bad.Validate(); err == nil {
		t.Error("expected error for zero max_results")
	}
}
