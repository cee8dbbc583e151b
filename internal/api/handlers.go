// Reelpair - Paired Letterboxd Recommendations and Taste Predictions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelpair

// Package api serves the Reelpair JSON API. All data endpoints read
// from the table cache; the pipeline refreshes tables out of band and
// invalidates the cache when a full run lands.
package api

import (
	"errors"
	"math/rand"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/reelpair/internal/models"
	"github.com/tomtom215/reelpair/internal/predict"
	"github.com/tomtom215/reelpair/internal/recommend"
	"github.com/tomtom215/reelpair/internal/store"
	"github.com/tomtom215/reelpair/internal/titles"
	"github.com/tomtom215/reelpair/internal/tmdb"
)

// User identifies one of the paired accounts in API responses.
type User struct {
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
}

// StatusReporter answers readiness probes.
type StatusReporter interface {
	OutputsExist() bool
}

// Handler implements all JSON endpoints.
type Handler struct {
	userA, userB    User
	cache           *store.TableCache
	predictor       *predict.Engine
	gateway         tmdb.Gateway
	status          StatusReporter
	blockedKeywords []string
	lovedThreshold  float64
	logger          zerolog.Logger
	start           time.Time
}

// NewHandler wires the endpoint dependencies. The recommend config
// supplies the franchise keyword blocklist and loved threshold so the
// API filters with the same policy the pipeline ranks with.
func NewHandler(userA, userB User, cache *store.TableCache, predictor *predict.Engine,
	gateway tmdb.Gateway, status StatusReporter, recCfg recommend.Config,
	logger zerolog.Logger) *Handler {
	return &Handler{
		userA:           userA,
		userB:           userB,
		cache:           cache,
		predictor:       predictor,
		gateway:         gateway,
		status:          status,
		blockedKeywords: recCfg.BlockedKeywords,
		lovedThreshold:  recCfg.LovedThreshold,
		logger:          logger.With().Str("component", "api").Logger(),
		start:           time.Now(),
	}
}

// RecommendationRow is one annotated recommendation in API responses.
type RecommendationRow struct {
	Title              string                    `json:"title"`
	Year               string                    `json:"year"`
	TMDBRating         float64                   `json:"tmdb_rating"`
	Overview           string                    `json:"overview"`
	RecommendedBecause []string                  `json:"recommended_because"`
	Count              float64                   `json:"recommendation_count"`
	TMDBID             int64                     `json:"tmdb_id"`
	PosterURL          string                    `json:"poster_url,omitempty"`
	GenreIDs           []int64                   `json:"genre_ids"`
	MediaType          string                    `json:"media_type"`
	Predictions        map[string]predict.Result `json:"predictions"`
}

// recommendationsResponse is the /recommendations payload. Surprise is
// set only when surprise=true and carries a row excluded from the main
// list.
type recommendationsResponse struct {
	Recommendations []RecommendationRow `json:"recommendations"`
	Surprise        *RecommendationRow  `json:"surprise,omitempty"`
}

// genreNames maps the TMDB genre ids the tables carry to display names
// for the genre filter.
var genreNames = map[int64]string{
	18:    "Drama",
	53:    "Thriller",
	9648:  "Mystery",
	80:    "Crime",
	10402: "Music",
	28:    "Action",
	35:    "Comedy",
	27:    "Horror",
	878:   "Science Fiction",
	10749: "Romance",
	16:    "Animation",
	99:    "Documentary",
	14:    "Fantasy",
	36:    "History",
	10752: "War",
	37:    "Western",
}

// Recommendations serves the merged, filtered, and sorted
// recommendation list with per-user predictions.
func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	req, err := parseRecommendationsRequest(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error(), nil)
		return
	}

	rows, err := h.assembleRows(req.Type)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "table_load_failed", "failed to load recommendation tables", err)
		return
	}

	filtered := rows[:0]
	for _, row := range rows {
		if h.titleBlocked(row.Title) {
			continue
		}
		if req.Decade != 0 && !inDecade(row.Year, req.Decade) {
			continue
		}
		if req.Genre != "" && !genreMatches(row, req.Genre) {
			continue
		}
		filtered = append(filtered, row)
	}

	var surprise *RecommendationRow
	if req.Surprise {
		surprise, filtered = pickSurprise(filtered)
	}

	sortRows(filtered, req.SortBy)

	filmsA, filmsB, err := h.watchedPair()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "table_load_failed", "failed to load watch histories", err)
		return
	}
	for i := range filtered {
		filtered[i].Predictions = h.predictions(filtered[i], filmsA, filmsB)
	}
	if surprise != nil {
		surprise.Predictions = h.predictions(*surprise, filmsA, filmsB)
	}

	respondOK(w, recommendationsResponse{
		Recommendations: filtered,
		Surprise:        surprise,
	}, len(filtered))
}

// BothLovedRow is one film both users loved, annotated with catalog
// identity when TMDB resolves the title.
type BothLovedRow struct {
	Title     string             `json:"title"`
	Ratings   map[string]float64 `json:"ratings"`
	Average   float64            `json:"average"`
	TMDBID    int64              `json:"tmdb_id,omitempty"`
	PosterURL string             `json:"poster_url,omitempty"`
}

// BothLoved serves the full relation of films both users rated at or
// above the loved threshold, highest average first.
func (h *Handler) BothLoved(w http.ResponseWriter, r *http.Request) {
	filmsA, filmsB, err := h.watchedPair()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "table_load_failed", "failed to load watch histories", err)
		return
	}

	loved := recommend.BothLoved(filmsA, filmsB, h.lovedThreshold)
	rows := make([]BothLovedRow, 0, len(loved))
	for _, l := range loved {
		row := BothLovedRow{
			Title: l.Title,
			Ratings: map[string]float64{
				h.userA.Username: l.RatingA,
				h.userB.Username: l.RatingB,
			},
			Average: l.Average,
		}
		// Poster lookup is best effort; an unresolved title still
		// belongs in the relation.
		year, _ := titles.Year(l.Title)
		if movie, err := h.gateway.SearchMovie(r.Context(), titles.StripYear(l.Title), year); err == nil {
			row.TMDBID = movie.ID
			row.PosterURL = movie.PosterURL()
		}
		rows = append(rows, row)
	}

	respondOK(w, rows, len(rows))
}

// Search serves TMDB movie search annotated with both users'
// predictions.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	req, err := parseSearchRequest(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error(), nil)
		return
	}

	movies, err := h.gateway.SearchMovies(r.Context(), req.Query)
	if err != nil && !errors.Is(err, tmdb.ErrNotFound) {
		respondError(w, http.StatusBadGateway, "tmdb_unavailable", "catalog search failed", err)
		return
	}
	if len(movies) > req.Limit {
		movies = movies[:req.Limit]
	}

	filmsA, filmsB, err := h.watchedPair()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "table_load_failed", "failed to load watch histories", err)
		return
	}

	rows := make([]RecommendationRow, 0, len(movies))
	for _, m := range movies {
		row := RecommendationRow{
			Title:      m.Title,
			Year:       m.Year(),
			TMDBRating: m.VoteAverage,
			Overview:   overviewOr(m.Overview),
			Count:      0,
			TMDBID:     m.ID,
			PosterURL:  m.PosterURL(),
			GenreIDs:   m.GenreIDs,
			MediaType:  "movie",
		}
		row.Predictions = h.predictions(row, filmsA, filmsB)
		rows = append(rows, row)
	}

	respondOK(w, rows, len(rows))
}

// Genres serves the distinct genre ids present in the movie
// recommendation table, with names where known.
func (h *Handler) Genres(w http.ResponseWriter, _ *http.Request) {
	movies, err := h.cache.Movies()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "table_load_failed", "failed to load recommendation tables", err)
		return
	}

	seen := make(map[int64]bool)
	for _, rec := range movies {
		for _, id := range rec.GenreIDs {
			seen[id] = true
		}
	}
	ids := make([]int64, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	type genreEntry struct {
		ID   int64  `json:"id"`
		Name string `json:"name,omitempty"`
	}
	entries := make([]genreEntry, 0, len(ids))
	for _, id := range ids {
		entries = append(entries, genreEntry{ID: id, Name: genreNames[id]})
	}

	respondOK(w, entries, len(entries))
}

// userStats summarizes one account's history.
type userStats struct {
	Username      string  `json:"username"`
	DisplayName   string  `json:"display_name"`
	TotalFilms    int     `json:"total_films"`
	RatedFilms    int     `json:"rated_films"`
	AverageRating float64 `json:"average_rating"`
}

type statsResponse struct {
	Users                []userStats `json:"users"`
	BothLovedCount       int         `json:"both_loved_count"`
	MovieRecommendations int         `json:"movie_recommendations"`
	GenreRecommendations int         `json:"genre_recommendations"`
	TVRecommendations    int         `json:"tv_recommendations"`
}

// Stats serves pair statistics and table counts.
func (h *Handler) Stats(w http.ResponseWriter, _ *http.Request) {
	filmsA, filmsB, err := h.watchedPair()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "table_load_failed", "failed to load watch histories", err)
		return
	}
	movies, err := h.cache.Movies()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "table_load_failed", "failed to load recommendation tables", err)
		return
	}
	genres, err := h.cache.Genres()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "table_load_failed", "failed to load recommendation tables", err)
		return
	}
	tv, err := h.cache.TV()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "table_load_failed", "failed to load recommendation tables", err)
		return
	}

	respondOK(w, statsResponse{
		Users: []userStats{
			summarize(h.userA, filmsA),
			summarize(h.userB, filmsB),
		},
		BothLovedCount:       len(recommend.BothLoved(filmsA, filmsB, h.lovedThreshold)),
		MovieRecommendations: len(movies),
		GenreRecommendations: len(genres),
		TVRecommendations:    len(tv),
	}, 0)
}

// Health reports liveness with uptime.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	respondOK(w, map[string]any{
		"status":         "healthy",
		"uptime_seconds": int(time.Since(h.start).Seconds()),
	}, 0)
}

// HealthLive always succeeds while the process serves requests.
func (h *Handler) HealthLive(w http.ResponseWriter, _ *http.Request) {
	respondOK(w, map[string]string{"status": "alive"}, 0)
}

// HealthReady succeeds once the pipeline has produced all output
// tables.
func (h *Handler) HealthReady(w http.ResponseWriter, _ *http.Request) {
	if !h.status.OutputsExist() {
		respondError(w, http.StatusServiceUnavailable, "not_ready", "recommendation tables not yet generated", nil)
		return
	}
	respondOK(w, map[string]string{"status": "ready"}, 0)
}

func summarize(u User, films []models.WatchedFilm) userStats {
	stats := userStats{
		Username:    u.Username,
		DisplayName: u.DisplayName,
		TotalFilms:  len(films),
	}
	var sum float64
	for _, f := range films {
		if f.Rated() {
			stats.RatedFilms++
			sum += *f.Rating
		}
	}
	if stats.RatedFilms > 0 {
		stats.AverageRating = sum / float64(stats.RatedFilms)
	}
	return stats
}

func (h *Handler) watchedPair() ([]models.WatchedFilm, []models.WatchedFilm, error) {
	filmsA, err := h.cache.Watched(h.userA.Username)
	if err != nil {
		return nil, nil, err
	}
	filmsB, err := h.cache.Watched(h.userB.Username)
	if err != nil {
		return nil, nil, err
	}
	return filmsA, filmsB, nil
}

func (h *Handler) predictions(row RecommendationRow, filmsA, filmsB []models.WatchedFilm) map[string]predict.Result {
	year, _ := strconv.Atoi(row.Year)
	item := predict.Item{
		Title:   row.Title,
		Year:    year,
		Rating:  row.TMDBRating,
		Sources: row.RecommendedBecause,
	}
	return map[string]predict.Result{
		h.userA.Username: h.predictor.Predict(item, filmsA),
		h.userB.Username: h.predictor.Predict(item, filmsB),
	}
}

// assembleRows merges the cached tables for the requested content
// type. For movies, genre-discovery rows fill in behind the provenance
// rows without duplicating titles already present.
func (h *Handler) assembleRows(contentType string) ([]RecommendationRow, error) {
	var rows []RecommendationRow

	if contentType == "all" || contentType == "movies" {
		movies, err := h.cache.Movies()
		if err != nil {
			return nil, err
		}
		genres, err := h.cache.Genres()
		if err != nil {
			return nil, err
		}
		titlesSeen := make(map[string]bool, len(movies))
		for _, rec := range movies {
			rows = append(rows, movieRow(rec))
			titlesSeen[strings.ToLower(rec.Title)] = true
		}
		for _, rec := range genres {
			if titlesSeen[strings.ToLower(rec.Title)] {
				continue
			}
			rows = append(rows, genreRow(rec))
		}
	}
	if contentType == "all" || contentType == "tv" {
		tv, err := h.cache.TV()
		if err != nil {
			return nil, err
		}
		for _, rec := range tv {
			rows = append(rows, tvRow(rec))
		}
	}
	return rows, nil
}

func movieRow(rec models.Recommendation) RecommendationRow {
	return RecommendationRow{
		Title:              rec.Title,
		Year:               rec.Year,
		TMDBRating:         rec.TMDBRating,
		Overview:           overviewOr(rec.Overview),
		RecommendedBecause: rec.RecommendedBecause,
		Count:              rec.Count,
		TMDBID:             rec.TMDBID,
		PosterURL:          rec.PosterURL,
		GenreIDs:           rec.GenreIDs,
		MediaType:          "movie",
	}
}

func genreRow(rec models.GenreRecommendation) RecommendationRow {
	return RecommendationRow{
		Title:              rec.Title,
		Year:               rec.Year,
		TMDBRating:         rec.TMDBRating,
		Overview:           overviewOr(rec.Overview),
		RecommendedBecause: rec.Sources,
		Count:              rec.Count,
		TMDBID:             rec.TMDBID,
		PosterURL:          rec.PosterURL,
		GenreIDs:           rec.GenreIDs,
		MediaType:          "movie",
	}
}

func tvRow(rec models.TVRecommendation) RecommendationRow {
	return RecommendationRow{
		Title:              rec.Name,
		Year:               rec.Year,
		TMDBRating:         rec.TMDBRating,
		Overview:           overviewOr(rec.Overview),
		RecommendedBecause: rec.Sources,
		Count:              rec.Count,
		TMDBID:             rec.TMDBID,
		PosterURL:          rec.PosterURL,
		GenreIDs:           rec.GenreIDs,
		MediaType:          "tv",
	}
}

func overviewOr(overview string) string {
	if overview == "" {
		return "No overview available"
	}
	return overview
}

func (h *Handler) titleBlocked(title string) bool {
	lower := strings.ToLower(title)
	for _, kw := range h.blockedKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func inDecade(yearStr string, decade int) bool {
	year, err := strconv.Atoi(yearStr)
	if err != nil {
		return false
	}
	return year >= decade && year < decade+10
}

// genreMatches checks the row's genre ids against a genre name. Rows
// without ids fall back to their discovery sources, which name the
// genre as "Popular <genre> film".
func genreMatches(row RecommendationRow, genre string) bool {
	for _, id := range row.GenreIDs {
		if strings.EqualFold(genreNames[id], genre) {
			return true
		}
	}
	if len(row.GenreIDs) == 0 {
		lower := strings.ToLower(genre)
		for _, src := range row.RecommendedBecause {
			if strings.Contains(strings.ToLower(src), lower) {
				return true
			}
		}
	}
	return false
}

// pickSurprise selects one random pick and removes it from the main
// list. Provenance rows beat discovery rows: a title surfaced by films
// the pair actually loved is a better surprise than a popularity hit.
func pickSurprise(rows []RecommendationRow) (*RecommendationRow, []RecommendationRow) {
	if len(rows) == 0 {
		return nil, rows
	}

	pool := make([]RecommendationRow, 0, len(rows))
	for _, row := range rows {
		if isProvenance(row) {
			pool = append(pool, row)
		}
	}
	var pick RecommendationRow
	if len(pool) > 0 {
		sort.SliceStable(pool, func(i, j int) bool { return pool[i].Count > pool[j].Count })
		if len(pool) > 10 {
			pool = pool[:10]
		}
		pick = pool[rand.Intn(len(pool))]
	} else {
		pick = rows[rand.Intn(len(rows))]
	}

	remaining := make([]RecommendationRow, 0, len(rows)-1)
	for _, row := range rows {
		if row.TMDBID == pick.TMDBID {
			continue
		}
		remaining = append(remaining, row)
	}
	return &pick, remaining
}

// isProvenance reports whether a row came from the watched-film
// aggregation rather than genre or TV discovery.
func isProvenance(row RecommendationRow) bool {
	for _, src := range row.RecommendedBecause {
		if strings.Contains(src, "Popular") {
			return false
		}
	}
	return len(row.RecommendedBecause) > 0
}

func sortRows(rows []RecommendationRow, sortBy string) {
	switch sortBy {
	case "rating":
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].TMDBRating > rows[j].TMDBRating })
	case "year":
		sort.SliceStable(rows, func(i, j int) bool { return yearOf(rows[i]) > yearOf(rows[j]) })
	case "year_oldest":
		sort.SliceStable(rows, func(i, j int) bool { return yearOf(rows[i]) < yearOf(rows[j]) })
	case "title":
		sort.SliceStable(rows, func(i, j int) bool {
			return strings.ToLower(rows[i].Title) < strings.ToLower(rows[j].Title)
		})
	case "rec_count":
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].Count > rows[j].Count })
	default:
		sort.SliceStable(rows, func(i, j int) bool {
			if rows[i].Count != rows[j].Count {
				return rows[i].Count > rows[j].Count
			}
			return rows[i].TMDBRating > rows[j].TMDBRating
		})
	}
}

func yearOf(row RecommendationRow) int {
	year, err := strconv.Atoi(row.Year)
	if err != nil {
		return 0
	}
	return year
}
