// Postwise - Optimal Posting Time Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/postwise

package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/tomtom215/postwise/internal/timeprediction"
	"github.com/tomtom215/postwise/internal/validation"
)

// TrainingEngine is the part of the prediction engine the service drives.
// Satisfied by *timeprediction.Engine.
type TrainingEngine interface {
	// Load activates the persisted model set, if any.
	Load(ctx context.Context) error
	// Train runs one full training pipeline.
	Train(ctx context.Context) error
}

// TrainingServiceConfig holds configuration for the training service.
type TrainingServiceConfig struct {
	// Schedule is a five-field cron expression. Takes precedence over Interval.
	Schedule string

	// Interval is used when Schedule is empty.
	Interval time.Duration

	// OnStartup triggers a run as soon as the service starts.
	OnStartup bool
}

// TrainingService loads the persisted model set and retrains on a schedule.
// Failed runs are logged and never end the service; the previously active
// model set keeps serving.
type TrainingService struct {
	engine   TrainingEngine
	config   TrainingServiceConfig
	schedule cron.Schedule
	logger   zerolog.Logger
	name     string
	now      func() time.Time

	// set after the first Serve so supervisor restarts skip them
	loaded     bool
	startupRan bool
}

// NewTrainingService creates the service. It fails when the cron expression
// does not parse.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewTrainingService(engine TrainingEngine, cfg TrainingServiceConfig, logger zerolog.Logger) (*TrainingService, error) {
	s := &TrainingService{
		engine: engine,
		config: cfg,
		logger: logger.With().Str("service", "training").Logger(),
		name:   "training-service",
		now:    time.Now,
	}

	if cfg.Schedule != "" {
		sched, err := validation.CronParser.Parse(cfg.Schedule)
		if err != nil {
			return nil, fmt.Errorf("invalid training schedule %q: %w", cfg.Schedule, err)
		}
		s.schedule = sched
	}

	return s, nil
}

// Serve implements suture.Service.
func (s *TrainingService) Serve(ctx context.Context) error {
	s.logger.Info().
		Str("schedule", s.config.Schedule).
		Dur("interval", s.config.Interval).
		Bool("on_startup", s.config.OnStartup).
		Msg("training service starting")

	if !s.loaded {
		s.load(ctx)
		s.loaded = true
	}

	if s.config.OnStartup && !s.startupRan {
		s.startupRan = true
		s.logger.Info().Msg("training models on startup")
		s.train(ctx)
	}

	for {
		next, ok := s.nextRun(s.now())
		if !ok {
			s.logger.Info().Msg("no training schedule configured")
			<-ctx.Done()
			return ctx.Err()
		}

		s.logger.Debug().Time("next_run", next).Msg("next training run scheduled")
		timer := time.NewTimer(time.Until(next))

		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info().Msg("training service shutting down")
			return ctx.Err()
		case <-timer.C:
			s.logger.Debug().Msg("scheduled training triggered")
			s.train(ctx)
		}
	}
}

// nextRun returns the next trigger after now. The bool is false when neither
// a schedule nor a positive interval is configured.
func (s *TrainingService) nextRun(now time.Time) (time.Time, bool) {
	if s.schedule != nil {
		return s.schedule.Next(now), true
	}
	if s.config.Interval > 0 {
		return now.Add(s.config.Interval), true
	}
	return time.Time{}, false
}

func (s *TrainingService) load(ctx context.Context) {
	err := s.engine.Load(ctx)
	switch {
	case err == nil:
	case errors.Is(err, timeprediction.ErrModelNotTrained):
		s.logger.Info().Msg("no persisted model set, serving fallback until trained")
	default:
		s.logger.Warn().Err(err).Msg("failed to load persisted model set")
	}
}

func (s *TrainingService) train(ctx context.Context) {
	start := time.Now()
	err := s.engine.Train(ctx)
	switch {
	case err == nil:
		s.logger.Info().Dur("duration", time.Since(start)).Msg("scheduled training complete")
	case errors.Is(err, timeprediction.ErrTrainingInProgress):
		s.logger.Info().Msg("training already running, skipping trigger")
	case ctx.Err() != nil:
		s.logger.Info().Msg("training interrupted by shutdown")
	default:
		s.logger.Warn().Err(err).Msg("training failed, keeping active model set")
	}
}

// String implements fmt.Stringer for logging.
func (s *TrainingService) String() string {
	return s.name
}
