// Reelpair - Paired Letterboxd Recommendations and Taste Predictions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelpair

// Package metrics provides Prometheus instrumentation for the pipeline,
// the TMDB and Letterboxd clients, the table cache, and the HTTP API.
// All collectors are registered at init via promauto and exported at the
// /metrics endpoint in Prometheus text format.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Pipeline Metrics
	PipelineRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_runs_total",
			Help: "Total number of pipeline runs by outcome",
		},
		[]string{"outcome"}, // "success", "failure", "partial"
	)

	PipelineDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pipeline_duration_seconds",
			Help:    "Duration of full pipeline runs in seconds",
			Buckets: []float64{5, 15, 30, 60, 120, 300, 600, 1200}, // Full runs scrape two users and hit TMDB hundreds of times
		},
	)

	PipelineStepDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pipeline_step_duration_seconds",
			Help:    "Duration of individual pipeline steps in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
		},
		[]string{"step"}, // "scrape", "movies", "tv"
	)

	PipelineSkips = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pipeline_skips_total",
			Help: "Total number of triggers skipped because a run was already in progress",
		},
	)

	PipelineLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pipeline_last_success_timestamp",
			Help: "Unix timestamp of the last fully successful pipeline run",
		},
	)

	// Letterboxd Scraper Metrics
	ScrapePages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scrape_pages_total",
			Help: "Total number of Letterboxd history pages fetched",
		},
		[]string{"username"},
	)

	ScrapeFilms = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scrape_films_total",
			Help: "Total number of films parsed from Letterboxd history pages",
		},
		[]string{"username"},
	)

	ScrapeErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scrape_errors_total",
			Help: "Total number of Letterboxd scrape errors",
		},
		[]string{"username", "error_type"}, // "http", "rate_limited", "parse"
	)

	// TMDB Client Metrics
	TMDBRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tmdb_requests_total",
			Help: "Total number of TMDB API requests",
		},
		[]string{"endpoint", "status"}, // endpoint: "search", "related", "details", "discover_movie", "discover_tv"
	)

	TMDBRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tmdb_request_duration_seconds",
			Help:    "TMDB API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	TMDBMemoHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tmdb_memo_hits_total",
			Help: "Total number of TMDB lookups answered from the per-run memo",
		},
	)

	TMDBMemoMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tmdb_memo_misses_total",
			Help: "Total number of TMDB lookups that went to the network",
		},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Table Cache Metrics
	TableCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "table_cache_hits_total",
			Help: "Total number of table cache hits",
		},
		[]string{"table"},
	)

	TableCacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "table_cache_misses_total",
			Help: "Total number of table cache misses (disk load required)",
		},
		[]string{"table"},
	)

	TableCacheInvalidations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "table_cache_invalidations_total",
			Help: "Total number of full table cache invalidations",
		},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)

	AppUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "app_uptime_seconds",
			Help: "Application uptime in seconds",
		},
	)
)

// RecordPipelineRun records the outcome and duration of a full run.
func RecordPipelineRun(outcome string, duration time.Duration) {
	PipelineRuns.WithLabelValues(outcome).Inc()
	PipelineDuration.Observe(duration.Seconds())
	if outcome == "success" {
		PipelineLastSuccess.Set(float64(time.Now().Unix()))
	}
}

// RecordPipelineStep records the duration of one pipeline step.
func RecordPipelineStep(step string, duration time.Duration) {
	PipelineStepDuration.WithLabelValues(step).Observe(duration.Seconds())
}

// RecordTMDBRequest records a TMDB API request metric.
func RecordTMDBRequest(endpoint, status string, duration time.Duration) {
	TMDBRequests.WithLabelValues(endpoint, status).Inc()
	TMDBRequestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}
