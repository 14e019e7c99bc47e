// Postwise - Optimal Posting Time Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/postwise

// Package main runs one Postwise training run and exits.
//
// It reads the same configuration as the server (config.yaml, .env and
// environment), trains every tier over the configured data sources and
// publishes the resulting model set. The exit status is 1 when the run
// fails; a run with skipped specialist tiers still succeeds.
//
//	DATA_DIR=data/timeline MODEL_PATH=data/models ./postwise-train
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/postwise/internal/app"
	"github.com/tomtom215/postwise/internal/config"
	"github.com/tomtom215/postwise/internal/logging"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		logging.Error().Err(err).Msg("Failed to load configuration")
		return 1
	}
	logging.Init(cfg.Logging.ToLoggingConfig())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	comps, err := app.Build(cfg, logging.Component("engine"))
	if err != nil {
		logging.Error().Err(err).Msg("Failed to initialize prediction engine")
		return 1
	}
	defer func() {
		if err := comps.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing engine resources")
		}
	}()

	if err := comps.Engine.Train(ctx); err != nil {
		logging.Error().Err(err).Msg("Training failed")
		return 1
	}

	report := comps.Engine.LastReport()
	if report == nil {
		return 0
	}

	event := logging.Info().
		Str("run_id", report.RunID).
		Int("version", report.Version).
		Int("sources", report.Sources).
		Int("rows", report.Rows).
		Int("dropped_rows", report.DroppedRows).
		Float64("holdout_mse", report.HoldoutMSE).
		Bool("partial", report.Partial)
	if report.Calibration != nil {
		event = event.Interface("calibration", report.Calibration)
	}
	event.Msg("Model set published")

	for _, tier := range report.Tiers {
		if !tier.Trained {
			logging.Warn().
				Str("tier", tier.Key).
				Str("kind", tier.Kind).
				Int("samples", tier.Samples).
				Str("reason", tier.Reason).
				Msg("Tier skipped")
		}
	}

	return 0
}
