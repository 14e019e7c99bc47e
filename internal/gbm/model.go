// Postwise - Optimal Posting Time Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/postwise

package gbm

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// residualTolerance stops boosting once every residual is this small.
const residualTolerance = 1e-12

// Model is a fitted ensemble. Prediction is BaseScore plus the sum of the
// leaf values reached in every tree.
type Model struct {
	NumFeatures  int
	BaseScore    float64
	LearningRate float64
	Trees        []Tree
}

// Fit trains a model on X (rows × features) against y.
// The context is checked between trees.
func Fit(ctx context.Context, X [][]float64, y []float64, p Params) (*Model, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if len(X) == 0 {
		return nil, ErrEmptyTrainingSet
	}
	if len(y) != len(X) {
		return nil, fmt.Errorf("%w: %d rows but %d targets", ErrFeatureMismatch, len(X), len(y))
	}
	nf := len(X[0])
	if nf == 0 {
		return nil, fmt.Errorf("%w: rows have no features", ErrFeatureMismatch)
	}
	for i, row := range X {
		if len(row) != nf {
			return nil, fmt.Errorf("%w: row %d has %d features, want %d", ErrFeatureMismatch, i, len(row), nf)
		}
		for f, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("non-finite value at row %d feature %d", i, f)
			}
		}
		if math.IsNaN(y[i]) || math.IsInf(y[i], 0) {
			return nil, fmt.Errorf("non-finite target at row %d", i)
		}
	}

	n := len(X)
	bins := newBinner(X, nf, p.MaxBins)
	builder := newTreeBuilder(bins, bins.binMatrix(X), p)

	var base float64
	for _, v := range y {
		base += v
	}
	base /= float64(n)

	pred := make([]float64, n)
	for i := range pred {
		pred[i] = base
	}
	resid := make([]float64, n)

	all := make([]int, n)
	for i := range all {
		all[i] = i
	}
	rng := rand.New(rand.NewSource(p.Seed)) //nolint:gosec // reproducible subsampling, not security

	model := &Model{
		NumFeatures:  nf,
		BaseScore:    base,
		LearningRate: p.LearningRate,
		Trees:        make([]Tree, 0, p.NumTrees),
	}

	for t := 0; t < p.NumTrees; t++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var maxAbs float64
		for i := range resid {
			resid[i] = y[i] - pred[i]
			if a := math.Abs(resid[i]); a > maxAbs {
				maxAbs = a
			}
		}
		if maxAbs < residualTolerance {
			break
		}

		rows := all
		if p.Subsample < 1 {
			rows = subsample(rng, n, p.Subsample)
		}

		tree := builder.build(rows, resid)
		for i, row := range X {
			pred[i] += tree.predict(row)
		}
		model.Trees = append(model.Trees, tree)
	}

	return model, nil
}

func subsample(rng *rand.Rand, n int, fraction float64) []int {
	k := int(math.Round(float64(n) * fraction))
	if k < 1 {
		k = 1
	}
	rows := rng.Perm(n)[:k]
	sort.Ints(rows)
	return rows
}

// Predict returns the model output for one feature row.
func (m *Model) Predict(x []float64) (float64, error) {
	if len(x) != m.NumFeatures {
		return 0, fmt.Errorf("%w: got %d features, model expects %d", ErrFeatureMismatch, len(x), m.NumFeatures)
	}
	out := m.BaseScore
	for i := range m.Trees {
		out += m.Trees[i].predict(x)
	}
	return out, nil
}

// PredictBatch predicts every row of X.
func (m *Model) PredictBatch(X [][]float64) ([]float64, error) {
	out := make([]float64, len(X))
	for i, row := range X {
		v, err := m.Predict(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

// Validate checks the structural integrity of a model, typically after
// decoding it from storage. A valid model cannot panic or loop in Predict.
func (m *Model) Validate() error {
	if m.NumFeatures < 1 {
		return fmt.Errorf("model has %d features", m.NumFeatures)
	}
	if math.IsNaN(m.BaseScore) || math.IsInf(m.BaseScore, 0) {
		return fmt.Errorf("model base score is not finite")
	}
	for t := range m.Trees {
		nodes := m.Trees[t].Nodes
		if len(nodes) == 0 {
			return fmt.Errorf("tree %d has no nodes", t)
		}
		for i, n := range nodes {
			if n.Feature < 0 {
				continue
			}
			if n.Feature >= m.NumFeatures {
				return fmt.Errorf("tree %d node %d splits on feature %d of %d", t, i, n.Feature, m.NumFeatures)
			}
			// Children are always appended after their parent.
			if int(n.Left) <= i || int(n.Right) <= i || int(n.Left) >= len(nodes) || int(n.Right) >= len(nodes) {
				return fmt.Errorf("tree %d node %d has invalid children", t, i)
			}
		}
	}
	return nil
}

// MSE is the mean squared error of m on (X, y).
func MSE(m *Model, X [][]float64, y []float64) (float64, error) {
	if len(X) == 0 {
		return 0, ErrEmptyTrainingSet
	}
	if len(X) != len(y) {
		return 0, fmt.Errorf("%w: %d rows but %d targets", ErrFeatureMismatch, len(X), len(y))
	}
	pred, err := m.PredictBatch(X)
	if err != nil {
		return 0, err
	}
	var sum float64
	for i, p := range pred {
		d := p - y[i]
		sum += d * d
	}
	return sum / float64(len(y)), nil
}
