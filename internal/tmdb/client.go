// Reelpair - Paired Letterboxd Recommendations and Taste Predictions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelpair

package tmdb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/tomtom215/reelpair/internal/metrics"
)

// Config holds TMDB client settings.
type Config struct {
	// APIKey is the TMDB v3 API key. Required.
	APIKey string `json:"-" koanf:"api_key"`

	// BaseURL is the API root. Default: https://api.themoviedb.org/3.
	BaseURL string `json:"base_url" koanf:"base_url"`

	// Timeout bounds each HTTP request. Default: 10s.
	Timeout time.Duration `json:"timeout" koanf:"timeout"`

	// RateLimit is the sustained request rate in requests per second.
	// Default: 4, comfortably under TMDB's documented limits.
	RateLimit float64 `json:"rate_limit" koanf:"rate_limit"`
}

// DefaultConfig returns production TMDB client settings.
func DefaultConfig() Config {
	return Config{
		BaseURL:   "https://api.themoviedb.org/3",
		Timeout:   10 * time.Second,
		RateLimit: 4,
	}
}

// Validate checks the configuration for correctness.
func (c Config) Validate() error {
	if c.APIKey == "" {
		return errors.New("tmdb: api_key is required")
	}
	if c.BaseURL == "" {
		return errors.New("tmdb: base_url is required")
	}
	if c.Timeout <= 0 {
		return errors.New("tmdb: timeout must be positive")
	}
	if c.RateLimit <= 0 {
		return errors.New("tmdb: rate_limit must be positive")
	}
	return nil
}

// Client is the direct HTTP implementation of Gateway. Calls are rate
// limited client-side; a 429 response waits out Retry-After and retries
// once.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	logger  zerolog.Logger
}

// NewClient creates a TMDB client. Zero-valued config fields fall back
// to defaults.
func NewClient(cfg Config, logger zerolog.Logger) *Client {
	def := DefaultConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = def.RateLimit
	}
	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), 1),
		logger:  logger.With().Str("component", "tmdb").Logger(),
	}
}

// SearchMovie returns the first search result, pinned to year when
// nonzero.
func (c *Client) SearchMovie(ctx context.Context, title string, year int) (*Movie, error) {
	q := url.Values{"query": {title}}
	if year > 0 {
		q.Set("year", strconv.Itoa(year))
	}
	var list movieList
	if err := c.get(ctx, "search", "/search/movie", q, &list); err != nil {
		return nil, err
	}
	if len(list.Results) == 0 {
		return nil, ErrNotFound
	}
	m := list.Results[0]
	return &m, nil
}

// SearchMovies returns the raw result list for a free-text query.
func (c *Client) SearchMovies(ctx context.Context, query string) ([]Movie, error) {
	var list movieList
	if err := c.get(ctx, "search", "/search/movie", url.Values{"query": {query}}, &list); err != nil {
		return nil, err
	}
	return list.Results, nil
}

// Related returns the recommendations or similar list for a movie.
func (c *Client) Related(ctx context.Context, movieID int64, kind RelatedKind) ([]Movie, error) {
	path := fmt.Sprintf("/movie/%d/%s", movieID, kind)
	var list movieList
	if err := c.get(ctx, "related", path, nil, &list); err != nil {
		return nil, err
	}
	return list.Results, nil
}

// MovieDetails fetches the full movie record.
func (c *Client) MovieDetails(ctx context.Context, movieID int64) (*MovieDetails, error) {
	var d MovieDetails
	if err := c.get(ctx, "details", fmt.Sprintf("/movie/%d", movieID), nil, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// DiscoverMovies runs a filtered movie discovery query.
func (c *Client) DiscoverMovies(ctx context.Context, opts DiscoverOptions) ([]Movie, error) {
	q := discoverQuery(opts, "primary_release_date")
	var list movieList
	if err := c.get(ctx, "discover_movie", "/discover/movie", q, &list); err != nil {
		return nil, err
	}
	return list.Results, nil
}

// DiscoverTV runs a filtered TV discovery query.
func (c *Client) DiscoverTV(ctx context.Context, opts DiscoverOptions) ([]TVShow, error) {
	q := discoverQuery(opts, "first_air_date")
	var list tvList
	if err := c.get(ctx, "discover_tv", "/discover/tv", q, &list); err != nil {
		return nil, err
	}
	return list.Results, nil
}

func discoverQuery(opts DiscoverOptions, dateField string) url.Values {
	q := url.Values{}
	if len(opts.WithGenres) > 0 {
		ids := make([]byte, 0, len(opts.WithGenres)*6)
		for i, g := range opts.WithGenres {
			if i > 0 {
				ids = append(ids, ',')
			}
			ids = strconv.AppendInt(ids, g, 10)
		}
		q.Set("with_genres", string(ids))
	}
	sortBy := opts.SortBy
	if sortBy == "" {
		sortBy = "popularity.desc"
	}
	q.Set("sort_by", sortBy)
	if opts.MinVoteAverage > 0 {
		q.Set("vote_average.gte", strconv.FormatFloat(opts.MinVoteAverage, 'g', -1, 64))
	}
	if opts.MinVoteCount > 0 {
		q.Set("vote_count.gte", strconv.Itoa(opts.MinVoteCount))
	}
	if opts.YearFrom > 0 {
		q.Set(dateField+".gte", fmt.Sprintf("%04d-01-01", opts.YearFrom))
	}
	if opts.YearTo > 0 {
		q.Set(dateField+".lte", fmt.Sprintf("%04d-12-31", opts.YearTo))
	}
	return q
}

// get performs a rate-limited GET and decodes the JSON body into v.
func (c *Client) get(ctx context.Context, endpoint, path string, q url.Values, v any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("tmdb: rate limiter: %w", err)
	}

	status, err := c.doOnce(ctx, endpoint, path, q, v)
	if status == http.StatusTooManyRequests {
		// Respect the server's backoff, then retry exactly once.
		wait := retryAfter(err)
		c.logger.Warn().Dur("wait", wait).Str("path", path).Msg("rate limited by tmdb, backing off")
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}
		_, err = c.doOnce(ctx, endpoint, path, q, v)
	}
	return err
}

// rateLimitedError carries the server-requested backoff through the
// single-attempt helper.
type rateLimitedError struct {
	retryAfter time.Duration
}

func (e *rateLimitedError) Error() string {
	return fmt.Sprintf("tmdb: rate limited, retry after %s", e.retryAfter)
}

func retryAfter(err error) time.Duration {
	var rl *rateLimitedError
	if errors.As(err, &rl) && rl.retryAfter > 0 {
		return rl.retryAfter
	}
	return time.Second
}

func (c *Client) doOnce(ctx context.Context, endpoint, path string, q url.Values, v any) (int, error) {
	if q == nil {
		q = url.Values{}
	}
	q.Set("api_key", c.cfg.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return 0, fmt.Errorf("tmdb: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.RecordTMDBRequest(endpoint, "error", time.Since(start))
		return 0, fmt.Errorf("tmdb: %s: %w", path, err)
	}
	defer resp.Body.Close()
	metrics.RecordTMDBRequest(endpoint, strconv.Itoa(resp.StatusCode), time.Since(start))

	switch {
	case resp.StatusCode == http.StatusNotFound:
		io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, ErrNotFound
	case resp.StatusCode == http.StatusTooManyRequests:
		io.Copy(io.Discard, resp.Body)
		wait := time.Second
		if s := resp.Header.Get("Retry-After"); s != "" {
			if secs, err := strconv.Atoi(s); err == nil && secs > 0 {
				wait = time.Duration(secs) * time.Second
			}
		}
		return resp.StatusCode, &rateLimitedError{retryAfter: wait}
	case resp.StatusCode != http.StatusOK:
		io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, fmt.Errorf("tmdb: %s: unexpected status %d", path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return resp.StatusCode, fmt.Errorf("tmdb: decode %s: %w", path, err)
	}
	return resp.StatusCode, nil
}
