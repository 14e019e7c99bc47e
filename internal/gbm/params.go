// Postwise - Optimal Posting Time Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/postwise

package gbm

import (
	"errors"
	"fmt"
)

// Errors returned by Fit and Predict.
var (
	ErrEmptyTrainingSet = errors.New("training set is empty")
	ErrFeatureMismatch  = errors.New("feature count mismatch")
	ErrInvalidParams    = errors.New("invalid boosting parameters")
)

// DefaultMaxBins bounds the number of histogram bins per feature.
const DefaultMaxBins = 256

// Params controls boosting.
type Params struct {
	NumTrees       int     `koanf:"num_trees" json:"num_trees"`
	MaxDepth       int     `koanf:"max_depth" json:"max_depth"`
	LearningRate   float64 `koanf:"learning_rate" json:"learning_rate"`
	MinSamplesLeaf int     `koanf:"min_samples_leaf" json:"min_samples_leaf"`
	Lambda         float64 `koanf:"lambda" json:"lambda"`
	Subsample      float64 `koanf:"subsample" json:"subsample"`
	MaxBins        int     `koanf:"max_bins" json:"max_bins"`
	Seed           int64   `koanf:"seed" json:"seed"`
}

// DefaultParams returns 100 trees of depth 6 at learning rate 0.1.
func DefaultParams() Params {
	return Params{
		NumTrees:       100,
		MaxDepth:       6,
		LearningRate:   0.1,
		MinSamplesLeaf: 1,
		Lambda:         1.0,
		Subsample:      1.0,
		MaxBins:        DefaultMaxBins,
		Seed:           42,
	}
}

// Validate checks that p can be used for training.
func (p Params) Validate() error {
	if p.NumTrees < 1 {
		return fmt.Errorf("%w: num_trees must be >= 1, got %d", ErrInvalidParams, p.NumTrees)
	}
	if p.MaxDepth < 1 {
		return fmt.Errorf("%w: max_depth must be >= 1, got %d", ErrInvalidParams, p.MaxDepth)
	}
	if p.LearningRate <= 0 || p.LearningRate > 1 {
		return fmt.Errorf("%w: learning_rate must be in (0, 1], got %g", ErrInvalidParams, p.LearningRate)
	}
	if p.MinSamplesLeaf < 1 {
		return fmt.Errorf("%w: min_samples_leaf must be >= 1, got %d", ErrInvalidParams, p.MinSamplesLeaf)
	}
	if p.Lambda < 0 {
		return fmt.Errorf("%w: lambda must be >= 0, got %g", ErrInvalidParams, p.Lambda)
	}
	if p.Subsample <= 0 || p.Subsample > 1 {
		return fmt.Errorf("%w: subsample must be in (0, 1], got %g", ErrInvalidParams, p.Subsample)
	}
	if p.MaxBins < 2 || p.MaxBins > 65535 {
		return fmt.Errorf("%w: max_bins must be in [2, 65535], got %d", ErrInvalidParams, p.MaxBins)
	}
	return nil
}
