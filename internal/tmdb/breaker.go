// Reelpair - Paired Letterboxd Recommendations and Taste Predictions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelpair

package tmdb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/reelpair/internal/metrics"
)

// BreakerGateway wraps a Gateway with a circuit breaker so a TMDB
// outage fails the pipeline run fast instead of grinding through
// hundreds of timed-out lookups.
//
// The breaker uses real time for its interval and timeout windows.
// Unit tests should exercise the wrapped gateway directly rather than
// trying to drive the breaker's clock.
type BreakerGateway struct {
	next Gateway
	cb   *gobreaker.CircuitBreaker[any]
	name string
	log  zerolog.Logger
}

// NewBreakerGateway creates a breaker-protected gateway.
// Configuration:
// - Max 3 concurrent requests in half-open state
// - 1 minute measurement window
// - 2 minute timeout before attempting recovery
// - Opens after 60% failure rate with minimum 10 requests
//
// ErrNotFound is reported as success to the breaker: an empty search
// result is a healthy API answering correctly.
func NewBreakerGateway(next Gateway, logger zerolog.Logger) *BreakerGateway {
	name := "tmdb-api"
	log := logger.With().Str("component", "circuit_breaker").Str("name", name).Logger()

	metrics.CircuitBreakerState.WithLabelValues(name).Set(0) // 0 = closed

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			if failureRatio >= 0.6 {
				log.Warn().
					Uint32("failures", counts.TotalFailures).
					Float64("failure_rate", failureRatio*100).
					Msg("opening circuit")
				return true
			}
			return false
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotFound)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr, toStr := stateToString(from), stateToString(to)
			log.Info().Str("from", fromStr).Str("to", toStr).Msg("state transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
		},
	})

	return &BreakerGateway{next: next, cb: cb, name: name, log: log}
}

// execute runs fn through the breaker and converts the untyped result
// back, recording request outcome metrics.
func execute[T any](b *BreakerGateway, fn func() (T, error)) (T, error) {
	result, err := b.cb.Execute(func() (any, error) {
		return fn()
	})
	if err != nil {
		var zero T
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(b.name, "rejected").Inc()
			b.log.Warn().Err(err).Msg("request rejected")
		} else if errors.Is(err, ErrNotFound) {
			metrics.CircuitBreakerRequests.WithLabelValues(b.name, "success").Inc()
		} else {
			metrics.CircuitBreakerRequests.WithLabelValues(b.name, "failure").Inc()
		}
		return zero, err
	}
	metrics.CircuitBreakerRequests.WithLabelValues(b.name, "success").Inc()

	typed, ok := result.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("circuit breaker: unexpected result type %T", result)
	}
	return typed, nil
}

func (b *BreakerGateway) SearchMovie(ctx context.Context, title string, year int) (*Movie, error) {
	return execute(b, func() (*Movie, error) { return b.next.SearchMovie(ctx, title, year) })
}

func (b *BreakerGateway) SearchMovies(ctx context.Context, query string) ([]Movie, error) {
	return execute(b, func() ([]Movie, error) { return b.next.SearchMovies(ctx, query) })
}

func (b *BreakerGateway) Related(ctx context.Context, movieID int64, kind RelatedKind) ([]Movie, error) {
	return execute(b, func() ([]Movie, error) { return b.next.Related(ctx, movieID, kind) })
}

func (b *BreakerGateway) MovieDetails(ctx context.Context, movieID int64) (*MovieDetails, error) {
	return execute(b, func() (*MovieDetails, error) { return b.next.MovieDetails(ctx, movieID) })
}

func (b *BreakerGateway) DiscoverMovies(ctx context.Context, opts DiscoverOptions) ([]Movie, error) {
	return execute(b, func() ([]Movie, error) { return b.next.DiscoverMovies(ctx, opts) })
}

func (b *BreakerGateway) DiscoverTV(ctx context.Context, opts DiscoverOptions) ([]TVShow, error) {
	return execute(b, func() ([]TVShow, error) { return b.next.DiscoverTV(ctx, opts) })
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
