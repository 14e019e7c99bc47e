// Postwise - Optimal Posting Time Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/postwise

// Package timeprediction predicts the best hour of day to publish content for
// a channel and content type.
//
// # Architecture
//
// Training runs as a fixed pipeline:
//
//	sources → dataset.Consolidate → features.Engineer → labeling.Label
//	        → Trainer (global, channel and content tiers) → Store.Publish
//	        → atomic ModelSet swap
//
// The model hierarchy has three tiers, all gradient-boosted regressors
// predicting the optimal hour:
//
//   - Global: trained on every row, always present after a successful run
//   - Channel: one per channel with at least MinSamples rows
//   - Content: one per content type with at least MinSamples rows
//
// A specialist tier that is skipped or fails to train is simply absent; the
// run fails only when the global tier cannot be trained.
//
// # Prediction
//
// Predict queries the global tier, plus the channel and content tiers when
// they exist, clips each output onto the 24 hour clock and combines them with
// fixed weights renormalized over the tiers that answered. Confidence falls
// with the variance of the tier hours. Predict never returns an error: with
// no model set it answers with the fallback hour, and a request no tier can
// serve yields a result with status "error".
//
// # Usage
//
//	engine, err := timeprediction.NewEngine(timeprediction.DefaultConfig(), logger)
//	engine.SetSourceProvider(dataset.NewDirProvider("data/timeline", nil))
//	engine.SetStore(store)
//
//	if err := engine.Train(ctx); err != nil {
//	    return err
//	}
//	result := engine.Predict("golang", "image", nil)
//
// # Thread Safety
//
// The active ModelSet is immutable and published through an atomic pointer,
// so Predict takes no locks and may run concurrently with training. Only one
// training run may be active at a time; a concurrent Train call returns
// ErrTrainingInProgress.
package timeprediction
