// Postwise - Optimal Posting Time Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/postwise

// Package gbm implements least-squares gradient-boosted regression trees.
//
// # Algorithm
//
// Training starts from the mean target and adds depth-limited regression
// trees fitted to the current residuals, each shrunk by the learning rate.
// Splits are searched over per-feature histograms: every feature is cut
// once, up front, into at most MaxBins ordered bins whose edges are
// midpoints between distinct observed values. A split is accepted only if
// it improves the L2-regularized structure score:
//
//	gain = GL²/(nL+λ) + GR²/(nR+λ) − G²/(n+λ)
//
// and leaf weights are G/(n+λ), where G is the residual sum of the rows in
// the node.
//
// # Determinism
//
// With Subsample = 1 training is fully deterministic. Row subsampling draws
// from a math/rand source seeded with Params.Seed.
//
// # Serialization
//
// A Model is plain exported data (trees are flat node slices), so it can be
// encoded with encoding/gob or any reflection-based codec.
package gbm
