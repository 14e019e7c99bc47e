// Postwise - Optimal Posting Time Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/postwise

package timeprediction

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/sajari/regression"

	"github.com/tomtom215/postwise/internal/features"
)

// minCalibrationRows is the fewest fully covered rows worth fitting.
const minCalibrationRows = 30

// calibrationCheckInterval is how many rows are scored between context checks.
const calibrationCheckInterval = 256

// ErrCalibrationDegenerate means the fit produced no usable coefficients,
// typically because the tier predictions are collinear.
var ErrCalibrationDegenerate = errors.New("calibration fit is degenerate")

// Calibration is an ordinary least squares fit of the optimal hour on the
// three tier predictions. It is a report only; prediction keeps using the
// configured weights.
type Calibration struct {
	Rows             int                `json:"rows"`
	Intercept        float64            `json:"intercept"`
	Coefficients     map[string]float64 `json:"coefficients"`
	R2               float64            `json:"r2"`
	SuggestedWeights map[string]float64 `json:"suggested_weights,omitempty"`
}

// CalibrateWeights regresses the label on the raw global, channel and
// content predictions over the training rows covered by all three tiers.
// Suggested weights are the non-negative coefficients normalized to sum to 1,
// omitted when none is positive. Scoring stops with the context's error once
// ctx is done.
func CalibrateWeights(ctx context.Context, set *ModelSet, rows []features.Row, targets []float64) (*Calibration, error) {
	if len(rows) != len(targets) {
		return nil, fmt.Errorf("%d rows but %d targets", len(rows), len(targets))
	}

	kinds := []TierKind{TierGlobal, TierChannel, TierContent}

	var r regression.Regression
	r.SetObserved("optimal_hour")
	for i, k := range kinds {
		r.SetVar(i, string(k))
	}

	n := 0
	for i := range rows {
		if i%calibrationCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		rec := &rows[i].Record
		channel, ok := set.Channel(rec.Channel)
		if !ok {
			continue
		}
		content, ok := set.Content(rec.ContentType)
		if !ok {
			continue
		}

		vars := make([]float64, 0, len(kinds))
		for _, m := range []*TrainedModel{set.Global(), channel, content} {
			v := features.TrainingVector(m.Schema, rows[i])
			p, err := m.Model.Predict(v.Values())
			if err != nil {
				return nil, fmt.Errorf("calibration predict %s: %w", m.Tier, err)
			}
			vars = append(vars, p)
		}
		r.Train(regression.DataPoint(targets[i], vars))
		n++
	}

	if n < minCalibrationRows {
		return nil, fmt.Errorf("%w: %d rows covered by all tiers, need %d", ErrInsufficientSamples, n, minCalibrationRows)
	}
	if err := r.Run(); err != nil {
		return nil, fmt.Errorf("calibration fit: %w", err)
	}

	coeffs := r.GetCoeffs()
	if len(coeffs) != len(kinds)+1 {
		return nil, fmt.Errorf("%w: got %d coefficients", ErrCalibrationDegenerate, len(coeffs))
	}
	for _, c := range coeffs {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return nil, ErrCalibrationDegenerate
		}
	}

	cal := &Calibration{
		Rows:         n,
		Intercept:    coeffs[0],
		Coefficients: make(map[string]float64, len(kinds)),
		R2:           r.R2,
	}
	if math.IsNaN(cal.R2) {
		cal.R2 = 0
	}

	var positive float64
	for i, k := range kinds {
		cal.Coefficients[string(k)] = coeffs[i+1]
		positive += math.Max(0, coeffs[i+1])
	}
	if positive > 0 {
		cal.SuggestedWeights = make(map[string]float64, len(kinds))
		for i, k := range kinds {
			cal.SuggestedWeights[string(k)] = round2(math.Max(0, coeffs[i+1]) / positive)
		}
	}
	return cal, nil
}
