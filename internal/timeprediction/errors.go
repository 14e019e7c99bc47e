// Postwise - Optimal Posting Time Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/postwise

package timeprediction

import (
	"errors"

	"github.com/tomtom215/postwise/internal/dataset"
)

var (
	// ErrDataUnavailable means no source loaded or no usable rows remained.
	ErrDataUnavailable = dataset.ErrDataUnavailable

	// ErrSchemaMismatch means a model has no recorded feature schema, or its
	// schema disagrees with the model's feature count.
	ErrSchemaMismatch = errors.New("feature schema mismatch")

	// ErrInsufficientSamples marks a specialist tier skipped for lack of rows.
	ErrInsufficientSamples = errors.New("insufficient samples")

	// ErrModelNotTrained means no model set (or no global model) exists.
	ErrModelNotTrained = errors.New("model not trained")

	// ErrPersistence means a model set could not be written or read.
	ErrPersistence = errors.New("model persistence failed")

	// ErrTrainingInProgress is returned by Train while another run is active.
	ErrTrainingInProgress = errors.New("training already in progress")
)
