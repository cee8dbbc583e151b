// Reelpair - Paired Letterboxd Recommendations and Taste Predictions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelpair

// Package main is the entry point for the Reelpair server.
//
// Reelpair scrapes two Letterboxd watch histories on a schedule,
// cross-references them against the TMDB catalog, and serves ranked
// movie, genre, and TV recommendations with per-user liking
// predictions over a JSON API.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: layered Koanf v2 load (defaults, config.yaml, env)
//  2. Table store: flat-file recommendation tables under DATA_DIR
//  3. TMDB gateway chain: HTTP client, circuit breaker, per-run memo
//  4. Letterboxd scraper and the recommendation/prediction engines
//  5. Pipeline orchestrator and its interval scheduler
//  6. HTTP API: Chi router with rate limiting and Prometheus metrics
//  7. Supervisor tree: suture v4 restarts failed services
//
// # Configuration
//
// All settings are environment variables with the REELPAIR_ prefix, or
// the matching keys in config.yaml. The required minimum:
//
//	export REELPAIR_USER_A_USERNAME=gorg
//	export REELPAIR_USER_B_USERNAME=sali
//	export REELPAIR_TMDB_API_KEY=your-tmdb-v3-key
//	./reelpair
//
// # Signal Handling
//
// SIGINT and SIGTERM trigger graceful shutdown: the HTTP server drains
// in-flight requests, a running pipeline pass is canceled, and the
// supervisor tree waits for services within the shutdown timeout.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/tomtom215/reelpair/internal/api"
	"github.com/tomtom215/reelpair/internal/config"
	"github.com/tomtom215/reelpair/internal/letterboxd"
	"github.com/tomtom215/reelpair/internal/logging"
	"github.com/tomtom215/reelpair/internal/metrics"
	"github.com/tomtom215/reelpair/internal/pipeline"
	"github.com/tomtom215/reelpair/internal/predict"
	"github.com/tomtom215/reelpair/internal/recommend"
	"github.com/tomtom215/reelpair/internal/store"
	"github.com/tomtom215/reelpair/internal/supervisor"
	"github.com/tomtom215/reelpair/internal/tmdb"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		// Use default logger for config errors (config not yet available)
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logger := logging.Logger()

	logging.Info().
		Str("version", version).
		Str("user_a", cfg.Users.A.Username).
		Str("user_b", cfg.Users.B.Username).
		Str("data_dir", cfg.Data.Dir).
		Dur("pipeline_interval", cfg.Pipeline.Interval).
		Msg("Starting Reelpair")
	metrics.AppInfo.WithLabelValues(version, runtime.Version()).Set(1)

	st, err := store.New(cfg.Data.Dir, logger)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize table store")
	}
	cache := store.NewTableCache(st, logger)

	// Gateway chain: memo caches per-run, the breaker sheds load when
	// TMDB degrades, the client rate-limits and retries.
	client := tmdb.NewClient(cfg.TMDB, logger)
	breaker := tmdb.NewBreakerGateway(client, logger)
	gateway := tmdb.NewMemoGateway(breaker)

	scraper := letterboxd.NewScraper(cfg.Letterboxd, logger)
	engine := recommend.NewEngine(cfg.Recommend, cfg.Match, gateway, logger)
	predictor := predict.NewEngine(cfg.Predict)

	orchestrator := pipeline.New(
		cfg.Users.A.Username, cfg.Users.B.Username,
		scraper, st, cache, engine, gateway, logger,
	)
	scheduler := pipeline.NewScheduler(cfg.Pipeline, orchestrator, logger)

	handler := api.NewHandler(
		api.User{Username: cfg.Users.A.Username, DisplayName: cfg.Users.A.DisplayName},
		api.User{Username: cfg.Users.B.Username, DisplayName: cfg.Users.B.DisplayName},
		cache, predictor, gateway, orchestrator, cfg.Recommend, logger,
	)
	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      api.NewRouter(handler, api.DefaultRouterConfig()),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddPipelineService(scheduler)
	tree.AddAPIService(supervisor.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Stopped")
}
