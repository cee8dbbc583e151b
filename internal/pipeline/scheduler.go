// Reelpair - Paired Letterboxd Recommendations and Taste Predictions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelpair

package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
)

// SchedulerConfig controls the periodic pipeline trigger.
type SchedulerConfig struct {
	// Interval between runs. Histories change slowly, so the default
	// refreshes every three and a half days.
	Interval time.Duration `koanf:"interval" json:"interval"`

	// RunOnStart forces a run at startup even when output tables
	// already exist on disk.
	RunOnStart bool `koanf:"run_on_start" json:"run_on_start"`
}

// DefaultSchedulerConfig returns the scheduler defaults.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Interval: 84 * time.Hour,
	}
}

// Scheduler triggers pipeline runs on an interval. It implements
// suture.Service and runs under the supervision tree.
type Scheduler struct {
	cfg          SchedulerConfig
	orchestrator *Orchestrator
	logger       zerolog.Logger
}

// NewScheduler creates a scheduler. Zero config fields fall back to
// defaults.
func NewScheduler(cfg SchedulerConfig, orchestrator *Orchestrator, logger zerolog.Logger) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultSchedulerConfig().Interval
	}
	return &Scheduler{
		cfg:          cfg,
		orchestrator: orchestrator,
		logger:       logger.With().Str("component", "pipeline-scheduler").Logger(),
	}
}

// Serve runs the scheduler loop until ctx is cancelled. A cold start,
// detected by missing output tables, runs the pipeline immediately so
// a fresh deployment serves data without waiting out the first
// interval.
func (s *Scheduler) Serve(ctx context.Context) error {
	s.logger.Info().Dur("interval", s.cfg.Interval).Msg("scheduler starting")

	if s.cfg.RunOnStart || !s.orchestrator.OutputsExist() {
		s.runOnce(ctx)
	} else {
		s.logger.Info().Msg("output tables present, waiting for first interval")
	}

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("scheduler stopping")
			return ctx.Err()
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	err := s.orchestrator.TryRun(ctx)
	switch {
	case err == nil:
	case errors.Is(err, ErrRunInProgress):
		// TryRun already counted and logged the skip.
	case errors.Is(err, context.Canceled):
	default:
		s.logger.Error().Err(err).Msg("scheduled run failed")
	}
}
