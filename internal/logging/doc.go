// Postwise - Optimal Posting Time Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/postwise

// Package logging provides centralized zerolog-based logging for Postwise.
//
// The package holds one global logger configured at startup with Init.
// Long-lived components do not log through the global directly; they take a
// zerolog.Logger derived with Component so every line carries a component
// field:
//
//	logging.Init(logging.Config{Level: "info", Format: "json", Timestamp: true})
//	engine, err := timeprediction.NewEngine(cfg, logging.Component("engine"))
//
// # Request Correlation
//
// HTTP handlers attach a request id to the context and log through Ctx:
//
//	ctx = logging.ContextWithRequestID(ctx, id)
//	logging.Ctx(ctx).Info().Msg("Prediction served")
//
// # slog Bridge
//
// Libraries that log through log/slog, such as the suture supervisor via
// sutureslog, are pointed at zerolog with NewSlogLogger.
//
// # Event Emission
//
// zerolog only writes an event when Msg, Msgf or Send is called:
//
//	logging.Info().Str("key", "value").Msg("message")  // Correct
//	logging.Info().Str("key", "value")                 // WRONG - log not emitted
package logging
