// Reelpair - Paired Letterboxd Recommendations and Taste Predictions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelpair

// Package letterboxd scrapes a user's full watch history from their
// public Letterboxd profile. Letterboxd has no public API; the scraper
// pages through /{user}/films/page/{n} with browser-like headers and a
// warm-up profile fetch so requests look like an ordinary session.
package letterboxd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/tomtom215/reelpair/internal/metrics"
	"github.com/tomtom215/reelpair/internal/models"
)

// Config holds scraper settings.
type Config struct {
	// BaseURL is the site root. Default: https://letterboxd.com.
	BaseURL string `json:"base_url" koanf:"base_url"`

	// MaxPages caps history pagination. At 72 films per page the
	// default covers 3600 logged films. Default: 50.
	MaxPages int `json:"max_pages" koanf:"max_pages"`

	// Timeout bounds each page fetch. Default: 15s.
	Timeout time.Duration `json:"timeout" koanf:"timeout"`
}

// DefaultConfig returns production scraper settings.
func DefaultConfig() Config {
	return Config{
		BaseURL:  "https://letterboxd.com",
		MaxPages: 50,
		Timeout:  15 * time.Second,
	}
}

// Validate checks the configuration for correctness.
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return errors.New("letterboxd: base_url is required")
	}
	if c.MaxPages <= 0 {
		return errors.New("letterboxd: max_pages must be positive")
	}
	if c.Timeout <= 0 {
		return errors.New("letterboxd: timeout must be positive")
	}
	return nil
}

// ErrUserNotFound marks a username whose profile page does not exist.
var ErrUserNotFound = errors.New("letterboxd: user not found")

// errEndOfHistory stops pagination when the site signals there are no
// further pages.
var errEndOfHistory = errors.New("letterboxd: end of history")

// Scraper fetches and parses watch histories.
type Scraper struct {
	cfg    Config
	http   *http.Client
	logger zerolog.Logger
}

// NewScraper creates a scraper. Zero-valued config fields fall back to
// defaults.
func NewScraper(cfg Config, logger zerolog.Logger) *Scraper {
	def := DefaultConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = def.MaxPages
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	return &Scraper{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger.With().Str("component", "letterboxd").Logger(),
	}
}

// FetchHistory scrapes every logged film for a user, in site order
// (most recently added first). The profile is fetched first both as a
// session warm-up and as an existence check.
func (s *Scraper) FetchHistory(ctx context.Context, username string) ([]models.WatchedFilm, error) {
	log := s.logger.With().Str("username", username).Logger()

	if err := s.warmUp(ctx, username); err != nil {
		metrics.ScrapeErrors.WithLabelValues(username, "http").Inc()
		return nil, err
	}

	var films []models.WatchedFilm
	for page := 1; page <= s.cfg.MaxPages; page++ {
		pageFilms, err := s.fetchPage(ctx, username, page)
		if err != nil {
			if errors.Is(err, errEndOfHistory) {
				break
			}
			metrics.ScrapeErrors.WithLabelValues(username, "http").Inc()
			return nil, fmt.Errorf("letterboxd: page %d for %s: %w", page, username, err)
		}
		if len(pageFilms) == 0 {
			break
		}
		films = append(films, pageFilms...)
		metrics.ScrapePages.WithLabelValues(username).Inc()
	}

	metrics.ScrapeFilms.WithLabelValues(username).Add(float64(len(films)))
	log.Info().Int("films", len(films)).Msg("history scraped")
	return films, nil
}

func (s *Scraper) warmUp(ctx context.Context, username string) error {
	resp, err := s.do(ctx, fmt.Sprintf("%s/%s/", s.cfg.BaseURL, username))
	if err != nil {
		return fmt.Errorf("letterboxd: profile fetch for %s: %w", username, err)
	}
	resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrUserNotFound, username)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("letterboxd: profile fetch for %s: status %d", username, resp.StatusCode)
	}
	return nil
}

// fetchPage retrieves and parses one history page, retrying transient
// failures with exponential backoff. A 404 or 403 is terminal and maps
// to errEndOfHistory; a 429 waits out the server's Retry-After.
func (s *Scraper) fetchPage(ctx context.Context, username string, page int) ([]models.WatchedFilm, error) {
	pageURL := fmt.Sprintf("%s/%s/films/page/%d/", s.cfg.BaseURL, username, page)

	var films []models.WatchedFilm
	operation := func() error {
		resp, err := s.do(ctx, pageURL)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		switch resp.StatusCode {
		case http.StatusOK:
		case http.StatusNotFound, http.StatusForbidden:
			return backoff.Permanent(errEndOfHistory)
		case http.StatusTooManyRequests:
			metrics.ScrapeErrors.WithLabelValues(username, "rate_limited").Inc()
			wait := retryAfter(resp)
			s.logger.Warn().Dur("wait", wait).Int("page", page).Msg("rate limited, backing off")
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return backoff.Permanent(ctx.Err())
			}
			return fmt.Errorf("rate limited on page %d", page)
		default:
			return fmt.Errorf("status %d", resp.StatusCode)
		}

		films, err = parsePage(resp.Body)
		if err != nil {
			metrics.ScrapeErrors.WithLabelValues(username, "parse").Inc()
			return backoff.Permanent(err)
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = time.Second
	bo.MaxElapsedTime = 2 * time.Minute
	if err := backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(bo, 3), ctx)); err != nil {
		return nil, err
	}
	return films, nil
}

func retryAfter(resp *http.Response) time.Duration {
	if s := resp.Header.Get("Retry-After"); s != "" {
		if secs, err := strconv.Atoi(s); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return 5 * time.Second
}

// do issues a GET with browser-like headers. Letterboxd serves default
// Go user agents a challenge page.
func (s *Scraper) do(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Referer", s.cfg.BaseURL+"/")
	return s.http.Do(req)
}
