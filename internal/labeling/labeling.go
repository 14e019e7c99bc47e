// Postwise - Optimal Posting Time Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/postwise

// Package labeling derives the training target: for every channel, the hour
// of day whose posts had the highest mean engagement.
package labeling

import (
	"github.com/tomtom215/postwise/internal/features"
)

// HoursPerDay is the size of the hour axis.
const HoursPerDay = 24

// Labels is the outcome of labeling a set of rows.
type Labels struct {
	// ByChannel maps channel id to its optimal hour.
	ByChannel map[string]int

	// The per-row slices are aligned with the input rows.
	OptimalHour    []int
	IsOptimalHour  []bool
	HourEngagement []float64
}

type hourStats struct {
	sum   [HoursPerDay]float64
	count [HoursPerDay]int
}

func (s *hourStats) mean(h int) float64 {
	return s.sum[h] / float64(s.count[h])
}

// optimal returns the hour with the highest mean. Hours are scanned in
// ascending order with a strict comparison, so the lowest hour wins a tie.
func (s *hourStats) optimal() int {
	best, bestMean := -1, 0.0
	for h := 0; h < HoursPerDay; h++ {
		if s.count[h] == 0 {
			continue
		}
		if m := s.mean(h); best < 0 || m > bestMean {
			best, bestMean = h, m
		}
	}
	return best
}

// Label groups rows by (channel, hour), takes the mean engagement composite
// of each group and labels every row with its channel's best hour.
func Label(rows []features.Row) Labels {
	stats := make(map[string]*hourStats)
	for i := range rows {
		ch := rows[i].Record.Channel
		st, ok := stats[ch]
		if !ok {
			st = &hourStats{}
			stats[ch] = st
		}
		h := rows[i].Hour
		st.sum[h] += rows[i].Composite
		st.count[h]++
	}

	labels := Labels{
		ByChannel:      make(map[string]int, len(stats)),
		OptimalHour:    make([]int, len(rows)),
		IsOptimalHour:  make([]bool, len(rows)),
		HourEngagement: make([]float64, len(rows)),
	}
	for ch, st := range stats {
		labels.ByChannel[ch] = st.optimal()
	}

	for i := range rows {
		ch := rows[i].Record.Channel
		h := rows[i].Hour
		opt := labels.ByChannel[ch]
		labels.OptimalHour[i] = opt
		labels.IsOptimalHour[i] = h == opt
		labels.HourEngagement[i] = stats[ch].mean(h)
	}
	return labels
}

// Targets returns the optimal hours as regression targets.
func (l Labels) Targets() []float64 {
	y := make([]float64, len(l.OptimalHour))
	for i, h := range l.OptimalHour {
		y[i] = float64(h)
	}
	return y
}
