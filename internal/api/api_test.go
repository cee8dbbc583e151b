// Reelpair - Paired Letterboxd Recommendations and Taste Predictions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelpair

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/reelpair/internal/models"
	"github.com/tomtom215/reelpair/internal/predict"
	"github.com/tomtom215/reelpair/internal/recommend"
	"github.com/tomtom215/reelpair/internal/store"
	"github.com/tomtom215/reelpair/internal/tmdb"
)

func ptr(v float64) *float64 { return &v }

type fakeGateway struct {
	searchByTitle map[string]tmdb.Movie
	searchResults []tmdb.Movie
}

func (g *fakeGateway) SearchMovie(_ context.Context, title string, _ int) (*tmdb.Movie, error) {
	if m, ok := g.searchByTitle[title]; ok {
		return &m, nil
	}
	return nil, tmdb.ErrNotFound
}

func (g *fakeGateway) SearchMovies(context.Context, string) ([]tmdb.Movie, error) {
	if len(g.searchResults) == 0 {
		return nil, tmdb.ErrNotFound
	}
	return g.searchResults, nil
}

func (g *fakeGateway) Related(context.Context, int64, tmdb.RelatedKind) ([]tmdb.Movie, error) {
	return nil, nil
}

func (g *fakeGateway) MovieDetails(context.Context, int64) (*tmdb.MovieDetails, error) {
	return nil, tmdb.ErrNotFound
}

func (g *fakeGateway) DiscoverMovies(context.Context, tmdb.DiscoverOptions) ([]tmdb.Movie, error) {
	return nil, nil
}

func (g *fakeGateway) DiscoverTV(context.Context, tmdb.DiscoverOptions) ([]tmdb.TVShow, error) {
	return nil, nil
}

type fakeStatus struct{ ready bool }

func (f *fakeStatus) OutputsExist() bool { return f.ready }

type envelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Error  *APIError       `json:"error"`
}

func seedTables(t *testing.T, st *store.Store) {
	t.Helper()

	filmsA := []models.WatchedFilm{
		{Title: "Heat", Rating: ptr(5), RatingStars: "★★★★★"},
		{Title: "Thief", Rating: ptr(4.5), RatingStars: "★★★★½"},
	}
	filmsB := []models.WatchedFilm{
		{Title: "Heat", Rating: ptr(4.5), RatingStars: "★★★★½"},
		{Title: "Alien", Rating: ptr(4), RatingStars: "★★★★"},
	}
	if err := st.WriteWatched("gorg", filmsA); err != nil {
		t.Fatalf("WriteWatched: %v", err)
	}
	if err := st.WriteWatched("sali", filmsB); err != nil {
		t.Fatalf("WriteWatched: %v", err)
	}

	movies := []models.Recommendation{
		{
			Title: "Collateral", Year: "2004", TMDBRating: 7.1,
			Overview:           "A cab driver becomes hostage to a contract killer.",
			RecommendedBecause: []string{"Heat (1995)", "Thief"},
			Count:              6, TMDBID: 616, GenreIDs: []int64{80, 53},
		},
		{
			Title: "Se7en", Year: "1995", TMDBRating: 8.3,
			Overview:           "Two detectives hunt a killer who preaches in sins.",
			RecommendedBecause: []string{"Heat (1995)"},
			Count:              2, TMDBID: 807, GenreIDs: []int64{80, 53},
		},
		{
			Title: "The Batman", Year: "2022", TMDBRating: 7.7,
			Overview:           "Vengeance stalks Gotham.",
			RecommendedBecause: []string{"Heat (1995)"},
			Count:              4, TMDBID: 414906, GenreIDs: []int64{80, 9648},
		},
	}
	if err := st.WriteMovieRecommendations(movies); err != nil {
		t.Fatalf("WriteMovieRecommendations: %v", err)
	}

	genres := []models.GenreRecommendation{
		{
			Title: "Memories of Murder", Year: "2003", TMDBRating: 8.1,
			Overview: "Detectives chase a serial killer in rural Korea.",
			Sources:  []string{"Popular Mystery film"},
			Count:    1, TMDBID: 11423, GenreIDs: []int64{9648, 80, 53},
		},
		{
			// Already present in the provenance table, must not
			// appear twice.
			Title: "Collateral", Year: "2004", TMDBRating: 7.1,
			Overview: "A cab driver becomes hostage to a contract killer.",
			Sources:  []string{"Popular Thriller film"},
			Count:    1, TMDBID: 616, GenreIDs: []int64{80, 53},
		},
	}
	if err := st.WriteGenreRecommendations(genres); err != nil {
		t.Fatalf("WriteGenreRecommendations: %v", err)
	}

	tv := []models.TVRecommendation{
		{
			Name: "The Wire", Year: "2002", TMDBRating: 8.6,
			Overview: "The Baltimore drug scene through many eyes.",
			Sources:  []string{"Popular Drama", "Popular Crime"},
			Count:    2, TMDBID: 1438, GenreIDs: []int64{18, 80},
		},
	}
	if err := st.WriteTVRecommendations(tv); err != nil {
		t.Fatalf("WriteTVRecommendations: %v", err)
	}
}

func newTestRouter(t *testing.T, gateway tmdb.Gateway, status StatusReporter) http.Handler {
	t.Helper()
	st, err := store.New(t.TempDir(), zerolog.Nop())
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	seedTables(t, st)
	cache := store.NewTableCache(st, zerolog.Nop())

	h := NewHandler(
		User{Username: "gorg", DisplayName: "Gorg"},
		User{Username: "sali", DisplayName: "Sali"},
		cache,
		predict.NewEngine(predict.DefaultConfig()),
		gateway,
		status,
		recommend.DefaultConfig(),
		zerolog.Nop(),
	)
	return NewRouter(h, DefaultRouterConfig())
}

func get(t *testing.T, router http.Handler, path string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope from %s: %v (body %q)", path, err, rec.Body.String())
	}
	return rec, env
}

func decodeRecommendations(t *testing.T, env envelope) recommendationsResponse {
	t.Helper()
	var resp recommendationsResponse
	if err := json.Unmarshal(env.Data, &resp); err != nil {
		t.Fatalf("decode recommendations: %v", err)
	}
	return resp
}

func checkPredictions(t *testing.T, rows []RecommendationRow) {
	t.Helper()
	for _, row := range rows {
		for _, user := range []string{"gorg", "sali"} {
			res, ok := row.Predictions[user]
			if !ok {
				t.Errorf("%s: missing prediction for %s", row.Title, user)
				continue
			}
			if res.Percent < 0 || res.Percent > 100 {
				t.Errorf("%s: percent %d out of range for %s", row.Title, res.Percent, user)
			}
			if len(res.Reasons) != 3 {
				t.Errorf("%s: got %d reasons for %s, want 3", row.Title, len(res.Reasons), user)
			}
		}
	}
}

func TestRecommendationsDefault(t *testing.T) {
	router := newTestRouter(t, &fakeGateway{}, &fakeStatus{ready: true})

	rec, env := get(t, router, "/api/v1/recommendations")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	resp := decodeRecommendations(t, env)

	// The Batman is keyword-blocked, Collateral deduplicates across
	// tables. Default order is count desc, rating desc on ties.
	want := []string{"Collateral", "The Wire", "Se7en", "Memories of Murder"}
	if len(resp.Recommendations) != len(want) {
		t.Fatalf("got %d rows, want %d: %+v", len(resp.Recommendations), len(want), resp.Recommendations)
	}
	for i, title := range want {
		if resp.Recommendations[i].Title != title {
			t.Errorf("row %d = %q, want %q", i, resp.Recommendations[i].Title, title)
		}
	}
	if resp.Surprise != nil {
		t.Error("surprise present without surprise=true")
	}
	checkPredictions(t, resp.Recommendations)
}

func TestRecommendationsTVOnly(t *testing.T) {
	router := newTestRouter(t, &fakeGateway{}, &fakeStatus{ready: true})

	_, env := get(t, router, "/api/v1/recommendations?type=tv")
	resp := decodeRecommendations(t, env)
	if len(resp.Recommendations) != 1 || resp.Recommendations[0].Title != "The Wire" {
		t.Fatalf("unexpected tv rows: %+v", resp.Recommendations)
	}
	if resp.Recommendations[0].MediaType != "tv" {
		t.Errorf("media type = %q, want tv", resp.Recommendations[0].MediaType)
	}
}

func TestRecommendationsDecadeFilter(t *testing.T) {
	router := newTestRouter(t, &fakeGateway{}, &fakeStatus{ready: true})

	_, env := get(t, router, "/api/v1/recommendations?decade=1990")
	resp := decodeRecommendations(t, env)
	if len(resp.Recommendations) != 1 || resp.Recommendations[0].Title != "Se7en" {
		t.Fatalf("unexpected 1990s rows: %+v", resp.Recommendations)
	}
}

func TestRecommendationsGenreFilter(t *testing.T) {
	router := newTestRouter(t, &fakeGateway{}, &fakeStatus{ready: true})

	_, env := get(t, router, "/api/v1/recommendations?genre=Mystery")
	resp := decodeRecommendations(t, env)
	if len(resp.Recommendations) != 1 || resp.Recommendations[0].Title != "Memories of Murder" {
		t.Fatalf("unexpected mystery rows: %+v", resp.Recommendations)
	}
}

func TestRecommendationsSortByRating(t *testing.T) {
	router := newTestRouter(t, &fakeGateway{}, &fakeStatus{ready: true})

	_, env := get(t, router, "/api/v1/recommendations?sort_by=rating")
	resp := decodeRecommendations(t, env)
	want := []string{"The Wire", "Se7en", "Memories of Murder", "Collateral"}
	for i, title := range want {
		if resp.Recommendations[i].Title != title {
			t.Errorf("row %d = %q, want %q", i, resp.Recommendations[i].Title, title)
		}
	}
}

func TestRecommendationsSurprise(t *testing.T) {
	router := newTestRouter(t, &fakeGateway{}, &fakeStatus{ready: true})

	_, env := get(t, router, "/api/v1/recommendations?surprise=true")
	resp := decodeRecommendations(t, env)
	if resp.Surprise == nil {
		t.Fatal("missing surprise pick")
	}
	// Discovery rows name a "Popular ..." source; the surprise pick
	// must come from the provenance rows.
	if resp.Surprise.Title != "Collateral" && resp.Surprise.Title != "Se7en" {
		t.Fatalf("surprise = %q, want a provenance row", resp.Surprise.Title)
	}
	for _, row := range resp.Recommendations {
		if row.TMDBID == resp.Surprise.TMDBID {
			t.Fatalf("surprise %q still present in main list", resp.Surprise.Title)
		}
	}
	if len(resp.Recommendations) != 3 {
		t.Fatalf("got %d remaining rows, want 3", len(resp.Recommendations))
	}
	if resp.Surprise.Predictions == nil {
		t.Error("surprise pick missing predictions")
	}
}

func TestRecommendationsInvalidParams(t *testing.T) {
	router := newTestRouter(t, &fakeGateway{}, &fakeStatus{ready: true})

	for _, path := range []string{
		"/api/v1/recommendations?sort_by=sideways",
		"/api/v1/recommendations?type=books",
		"/api/v1/recommendations?decade=abc",
	} {
		rec, env := get(t, router, path)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", path, rec.Code)
		}
		if env.Error == nil || env.Error.Code != "invalid_request" {
			t.Errorf("%s: error = %+v", path, env.Error)
		}
	}
}

func TestBothLovedEndpoint(t *testing.T) {
	gateway := &fakeGateway{searchByTitle: map[string]tmdb.Movie{
		"Heat": {ID: 949, Title: "Heat", PosterPath: "/heat.jpg"},
	}}
	router := newTestRouter(t, gateway, &fakeStatus{ready: true})

	rec, env := get(t, router, "/api/v1/both-loved")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var rows []BothLovedRow
	if err := json.Unmarshal(env.Data, &rows); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(rows) != 1 || rows[0].Title != "Heat" {
		t.Fatalf("unexpected rows: %+v", rows)
	}
	row := rows[0]
	if row.Ratings["gorg"] != 5 || row.Ratings["sali"] != 4.5 {
		t.Errorf("ratings = %+v", row.Ratings)
	}
	if row.Average != 4.75 {
		t.Errorf("average = %v, want 4.75", row.Average)
	}
	if row.TMDBID != 949 || row.PosterURL != "https://image.tmdb.org/t/p/w500/heat.jpg" {
		t.Errorf("catalog annotation = %d %q", row.TMDBID, row.PosterURL)
	}
}

func TestSearchEndpoint(t *testing.T) {
	gateway := &fakeGateway{searchResults: []tmdb.Movie{
		{ID: 949, Title: "Heat", ReleaseDate: "1995-12-15", VoteAverage: 7.9, PosterPath: "/heat.jpg", GenreIDs: []int64{80, 53}},
		{ID: 10647, Title: "Thief", ReleaseDate: "1981-03-27", VoteAverage: 7.4},
		{ID: 11, Title: "Heat Wave", ReleaseDate: "2009-01-01", VoteAverage: 5.1},
	}}
	router := newTestRouter(t, gateway, &fakeStatus{ready: true})

	_, env := get(t, router, "/api/v1/search?query=heat&limit=2")
	var rows []RecommendationRow
	if err := json.Unmarshal(env.Data, &rows); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want limit 2", len(rows))
	}
	if rows[0].Title != "Heat" || rows[0].Year != "1995" {
		t.Errorf("first row = %q (%s)", rows[0].Title, rows[0].Year)
	}
	// An exact watch is ground truth: gorg rated Heat 5.0.
	if got := rows[0].Predictions["gorg"].Percent; got != 100 {
		t.Errorf("gorg percent for Heat = %d, want 100", got)
	}
	checkPredictions(t, rows)
}

func TestSearchRequiresQuery(t *testing.T) {
	router := newTestRouter(t, &fakeGateway{}, &fakeStatus{ready: true})

	rec, _ := get(t, router, "/api/v1/search")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestGenresEndpoint(t *testing.T) {
	router := newTestRouter(t, &fakeGateway{}, &fakeStatus{ready: true})

	_, env := get(t, router, "/api/v1/genres")
	var entries []struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}
	if err := json.Unmarshal(env.Data, &entries); err != nil {
		t.Fatalf("decode: %v", err)
	}
	// Distinct ids across the movie table, ascending.
	wantIDs := []int64{53, 80, 9648}
	if len(entries) != len(wantIDs) {
		t.Fatalf("got %d genres: %+v", len(entries), entries)
	}
	for i, id := range wantIDs {
		if entries[i].ID != id {
			t.Errorf("genre %d = %d, want %d", i, entries[i].ID, id)
		}
	}
	if entries[2].Name != "Mystery" {
		t.Errorf("name for 9648 = %q, want Mystery", entries[2].Name)
	}
}

func TestStatsEndpoint(t *testing.T) {
	router := newTestRouter(t, &fakeGateway{}, &fakeStatus{ready: true})

	_, env := get(t, router, "/api/v1/stats")
	var stats statsResponse
	if err := json.Unmarshal(env.Data, &stats); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(stats.Users) != 2 {
		t.Fatalf("got %d users", len(stats.Users))
	}
	gorg := stats.Users[0]
	if gorg.Username != "gorg" || gorg.TotalFilms != 2 || gorg.RatedFilms != 2 {
		t.Errorf("gorg stats = %+v", gorg)
	}
	if gorg.AverageRating != 4.75 {
		t.Errorf("gorg average = %v, want 4.75", gorg.AverageRating)
	}
	if stats.BothLovedCount != 1 {
		t.Errorf("both loved count = %d, want 1", stats.BothLovedCount)
	}
	if stats.MovieRecommendations != 3 || stats.GenreRecommendations != 2 || stats.TVRecommendations != 1 {
		t.Errorf("table counts = %d/%d/%d", stats.MovieRecommendations, stats.GenreRecommendations, stats.TVRecommendations)
	}
}

func TestHealthEndpoints(t *testing.T) {
	status := &fakeStatus{ready: false}
	router := newTestRouter(t, &fakeGateway{}, status)

	rec, _ := get(t, router, "/api/v1/health")
	if rec.Code != http.StatusOK {
		t.Errorf("health status = %d", rec.Code)
	}
	rec, _ = get(t, router, "/api/v1/health/live")
	if rec.Code != http.StatusOK {
		t.Errorf("live status = %d", rec.Code)
	}
	rec, env := get(t, router, "/api/v1/health/ready")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("ready status = %d, want 503", rec.Code)
	}
	if env.Error == nil || env.Error.Code != "not_ready" {
		t.Errorf("ready error = %+v", env.Error)
	}

	status.ready = true
	rec, _ = get(t, router, "/api/v1/health/ready")
	if rec.Code != http.StatusOK {
		t.Errorf("ready status after tables = %d", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	router := newTestRouter(t, &fakeGateway{}, &fakeStatus{ready: true})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", rec.Code)
	}
}

func TestRequestIDHeader(t *testing.T) {
	router := newTestRouter(t, &fakeGateway{}, &fakeStatus{ready: true})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health/live", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("missing generated X-Request-ID")
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/health/live", nil)
	req.Header.Set("X-Request-ID", "caller-supplied")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Request-ID"); got != "caller-supplied" {
		t.Errorf("X-Request-ID = %q, want caller-supplied", got)
	}
}
