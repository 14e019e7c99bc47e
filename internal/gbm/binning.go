// Postwise - Optimal Posting Time Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/postwise

package gbm

import "sort"

// binner holds, per feature, the ascending cut points between bins.
// A value x falls in the smallest bin b with x <= cuts[b], or in
// len(cuts) when it exceeds every cut.
type binner struct {
	cuts [][]float64
}

func newBinner(X [][]float64, numFeatures, maxBins int) *binner {
	b := &binner{cuts: make([][]float64, numFeatures)}
	values := make([]float64, len(X))
	for f := 0; f < numFeatures; f++ {
		for i, row := range X {
			values[i] = row[f]
		}
		sort.Float64s(values)
		b.cuts[f] = cutPoints(values, maxBins)
	}
	return b
}

// cutPoints picks up to maxBins-1 midpoints between distinct values of the
// sorted slice. When there are few distinct values every gap gets a cut;
// otherwise cuts follow the quantiles of the data.
func cutPoints(sorted []float64, maxBins int) []float64 {
	distinct := make([]float64, 0, 64)
	for i, v := range sorted {
		if i == 0 || v != sorted[i-1] {
			distinct = append(distinct, v)
		}
	}
	if len(distinct) < 2 {
		return nil
	}

	if len(distinct) <= maxBins {
		cuts := make([]float64, len(distinct)-1)
		for i := range cuts {
			cuts[i] = midpoint(distinct[i], distinct[i+1])
		}
		return cuts
	}

	n := len(sorted)
	cuts := make([]float64, 0, maxBins-1)
	for k := 1; k < maxBins; k++ {
		v := sorted[k*n/maxBins]
		// next distinct value above v
		j := sort.Search(len(distinct), func(i int) bool { return distinct[i] > v })
		if j >= len(distinct) {
			break
		}
		c := midpoint(v, distinct[j])
		if len(cuts) == 0 || c > cuts[len(cuts)-1] {
			cuts = append(cuts, c)
		}
	}
	return cuts
}

func midpoint(a, b float64) float64 {
	return a + (b-a)/2
}

func (b *binner) bin(f int, x float64) uint16 {
	return uint16(sort.SearchFloat64s(b.cuts[f], x))
}

// binMatrix returns the bin index of every value, feature-major.
func (b *binner) binMatrix(X [][]float64) [][]uint16 {
	out := make([][]uint16, len(b.cuts))
	for f := range b.cuts {
		col := make([]uint16, len(X))
		for i, row := range X {
			col[i] = b.bin(f, row[f])
		}
		out[f] = col
	}
	return out
}

func (b *binner) maxBins() int {
	m := 0
	for _, c := range b.cuts {
		if len(c)+1 > m {
			m = len(c) + 1
		}
	}
	return m
}
