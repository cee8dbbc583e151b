// Reelpair - Paired Letterboxd Recommendations and Taste Predictions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelpair

// Package store persists the pipeline's tables as CSV files in the data
// directory. The column layout is a compatibility contract: exports are
// consumed by spreadsheet tooling downstream, so columns are never
// reordered and writes are atomic (temp file then rename) so readers
// never observe a half-written table.
package store

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/tomtom215/reelpair/internal/models"
)

// Output table names. Watched-history tables are per-user, see
// WatchedTable.
const (
	TableMovieRecommendations = "movie_recommendations"
	TableGenreRecommendations = "genre_recommendations"
	TableTVRecommendations    = "tv_recommendations"
)

// listSep joins multi-valued columns (sources, genre ids) inside a
// single CSV cell.
const listSep = "; "

var (
	watchedHeader = []string{"film_title", "rating", "rating_stars"}
	recHeader     = []string{
		"title", "year", "tmdb_rating", "overview", "recommended_because",
		"recommendation_count", "tmdb_id", "poster_url", "genre_ids",
	}
)

// WatchedTable returns the watch-history table name for a username.
func WatchedTable(username string) string {
	return fmt.Sprintf("%s_scraped_films", username)
}

// Store reads and writes tables under a single data directory.
type Store struct {
	dir    string
	logger zerolog.Logger
}

// New creates a Store rooted at dir, creating the directory if needed.
func New(dir string, logger zerolog.Logger) (*Store, error) {
	if dir == "" {
		return nil, errors.New("store: data directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("store: create data directory: %w", err)
	}
	return &Store{
		dir:    dir,
		logger: logger.With().Str("component", "store").Logger(),
	}, nil
}

// Path returns the on-disk path for a table name.
func (s *Store) Path(table string) string {
	return filepath.Join(s.dir, table+".csv")
}

// Exists reports whether a table file is present on disk.
func (s *Store) Exists(table string) bool {
	_, err := os.Stat(s.Path(table))
	return err == nil
}

// WriteWatched persists a user's scraped history.
func (s *Store) WriteWatched(username string, films []models.WatchedFilm) error {
	rows := make([][]string, 0, len(films))
	for _, f := range films {
		rating := ""
		if f.Rating != nil {
			rating = strconv.FormatFloat(*f.Rating, 'g', -1, 64)
		}
		rows = append(rows, []string{f.Title, rating, f.RatingStars})
	}
	return s.writeTable(WatchedTable(username), watchedHeader, rows)
}

// ReadWatched loads a user's scraped history. A missing or corrupt
// table yields an empty slice, not an error: the pipeline treats
// absence as "not yet scraped".
func (s *Store) ReadWatched(username string) ([]models.WatchedFilm, error) {
	rows := s.readTable(WatchedTable(username), len(watchedHeader))
	if rows == nil {
		return nil, nil
	}
	films := make([]models.WatchedFilm, 0, len(rows))
	for _, r := range rows {
		f := models.WatchedFilm{Title: r[0], RatingStars: r[2]}
		if r[1] != "" {
			v, err := strconv.ParseFloat(r[1], 64)
			if err != nil {
				s.logger.Warn().Str("title", r[0]).Str("rating", r[1]).Msg("skipping unparseable rating")
			} else {
				f.Rating = &v
			}
		}
		films = append(films, f)
	}
	return films, nil
}

// WriteMovieRecommendations persists the provenance-ranked movie table.
func (s *Store) WriteMovieRecommendations(recs []models.Recommendation) error {
	rows := make([][]string, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, recRow(r.Title, r.Year, r.TMDBRating, r.Overview,
			r.RecommendedBecause, r.Count, r.TMDBID, r.PosterURL, r.GenreIDs))
	}
	return s.writeTable(TableMovieRecommendations, recHeader, rows)
}

// ReadMovieRecommendations loads the movie table; missing or corrupt
// yields empty.
func (s *Store) ReadMovieRecommendations() ([]models.Recommendation, error) {
	rows := s.readTable(TableMovieRecommendations, len(recHeader))
	if rows == nil {
		return nil, nil
	}
	recs := make([]models.Recommendation, 0, len(rows))
	for _, r := range rows {
		title, year, rating, overview, sources, count, id, poster, genres := parseRecRow(r)
		recs = append(recs, models.Recommendation{
			Title: title, Year: year, TMDBRating: rating, Overview: overview,
			RecommendedBecause: sources, Count: count, TMDBID: id,
			PosterURL: poster, GenreIDs: genres,
		})
	}
	return recs, nil
}

// WriteGenreRecommendations persists the genre-discovery table.
func (s *Store) WriteGenreRecommendations(recs []models.GenreRecommendation) error {
	rows := make([][]string, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, recRow(r.Title, r.Year, r.TMDBRating, r.Overview,
			r.Sources, r.Count, r.TMDBID, r.PosterURL, r.GenreIDs))
	}
	return s.writeTable(TableGenreRecommendations, recHeader, rows)
}

// ReadGenreRecommendations loads the genre table; missing or corrupt
// yields empty.
func (s *Store) ReadGenreRecommendations() ([]models.GenreRecommendation, error) {
	rows := s.readTable(TableGenreRecommendations, len(recHeader))
	if rows == nil {
		return nil, nil
	}
	recs := make([]models.GenreRecommendation, 0, len(rows))
	for _, r := range rows {
		title, year, rating, overview, sources, count, id, poster, genres := parseRecRow(r)
		recs = append(recs, models.GenreRecommendation{
			Title: title, Year: year, TMDBRating: rating, Overview: overview,
			Sources: sources, Count: count, TMDBID: id,
			PosterURL: poster, GenreIDs: genres,
		})
	}
	return recs, nil
}

// WriteTVRecommendations persists the TV discovery table.
func (s *Store) WriteTVRecommendations(recs []models.TVRecommendation) error {
	rows := make([][]string, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, recRow(r.Name, r.Year, r.TMDBRating, r.Overview,
			r.Sources, r.Count, r.TMDBID, r.PosterURL, r.GenreIDs))
	}
	return s.writeTable(TableTVRecommendations, recHeader, rows)
}

// ReadTVRecommendations loads the TV table; missing or corrupt yields
// empty.
func (s *Store) ReadTVRecommendations() ([]models.TVRecommendation, error) {
	rows := s.readTable(TableTVRecommendations, len(recHeader))
	if rows == nil {
		return nil, nil
	}
	recs := make([]models.TVRecommendation, 0, len(rows))
	for _, r := range rows {
		name, year, rating, overview, sources, count, id, poster, genres := parseRecRow(r)
		recs = append(recs, models.TVRecommendation{
			Name: name, Year: year, TMDBRating: rating, Overview: overview,
			Sources: sources, Count: count, TMDBID: id,
			PosterURL: poster, GenreIDs: genres,
		})
	}
	return recs, nil
}

func recRow(title, year string, rating float64, overview string, sources []string,
	count float64, id int64, poster string, genreIDs []int64) []string {
	genres := make([]string, 0, len(genreIDs))
	for _, g := range genreIDs {
		genres = append(genres, strconv.FormatInt(g, 10))
	}
	return []string{
		title,
		year,
		strconv.FormatFloat(rating, 'g', -1, 64),
		overview,
		strings.Join(sources, listSep),
		strconv.FormatFloat(count, 'g', -1, 64),
		strconv.FormatInt(id, 10),
		poster,
		strings.Join(genres, listSep),
	}
}

func parseRecRow(r []string) (title, year string, rating float64, overview string,
	sources []string, count float64, id int64, poster string, genreIDs []int64) {
	title, year, overview, poster = r[0], r[1], r[3], r[7]
	rating, _ = strconv.ParseFloat(r[2], 64)
	count, _ = strconv.ParseFloat(r[5], 64)
	id, _ = strconv.ParseInt(r[6], 10, 64)
	sources = splitList(r[4])
	for _, g := range splitList(r[8]) {
		if v, err := strconv.ParseInt(g, 10, 64); err == nil {
			genreIDs = append(genreIDs, v)
		}
	}
	return
}

func splitList(cell string) []string {
	if cell == "" {
		return nil
	}
	parts := strings.Split(cell, listSep)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// writeTable replaces a table atomically. The temp file lands in the
// same directory so the rename never crosses filesystems.
func (s *Store) writeTable(table string, header []string, rows [][]string) error {
	path := s.Path(table)
	tmp, err := os.CreateTemp(s.dir, table+"-*.tmp")
	if err != nil {
		return fmt.Errorf("store: create temp for %s: %w", table, err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(header); err != nil {
		tmp.Close()
		return fmt.Errorf("store: write header for %s: %w", table, err)
	}
	if err := w.WriteAll(rows); err != nil {
		tmp.Close()
		return fmt.Errorf("store: write rows for %s: %w", table, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("store: flush %s: %w", table, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("store: close temp for %s: %w", table, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("store: replace %s: %w", table, err)
	}
	s.logger.Debug().Str("table", table).Int("rows", len(rows)).Msg("table written")
	return nil
}

// readTable returns the data rows of a table. A missing, unreadable, or
// corrupt file yields nil rows: readers always see a valid (possibly
// empty) table, and the next pipeline run rewrites the file. Rows with
// the wrong number of columns are treated as corrupt.
func (s *Store) readTable(table string, wantCols int) [][]string {
	f, err := os.Open(s.Path(table))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn().Err(err).Str("table", table).Msg("table unreadable, serving empty")
		}
		return nil
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = wantCols
	records, err := r.ReadAll()
	if err != nil {
		s.logger.Warn().Err(err).Str("table", table).Msg("table corrupt, serving empty")
		return nil
	}
	if len(records) == 0 {
		s.logger.Warn().Str("table", table).Msg("table missing header, serving empty")
		return nil
	}
	return records[1:]
}
