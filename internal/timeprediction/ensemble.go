// Postwise - Optimal Posting Time Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/postwise

package timeprediction

import "math"

const hoursPerDay = 24

// ClipHour rounds a raw prediction to the nearest hour and wraps it onto the
// 24 hour clock: ((round(p) mod 24) + 24) mod 24.
func ClipHour(p float64) int {
	h := int(math.Round(math.Mod(p, hoursPerDay))) % hoursPerDay
	if h < 0 {
		h += hoursPerDay
	}
	return h
}

// tierHour is one tier's clipped answer.
type tierHour struct {
	kind TierKind
	hour int
}

// combine merges tier answers into one hour and a confidence.
//
// A single answer is returned as is with the single-tier confidence.
// Otherwise the hours are averaged with the tier weights renormalized over
// the tiers present, and confidence is 1 - var/scale clamped to
// [floor, cap], where var is the spread of the clipped tier hours.
func combine(answers []tierHour, weights TierWeights, cfg ConfidenceConfig) (int, float64) {
	if len(answers) == 1 {
		return answers[0].hour, round2(cfg.Single)
	}

	var sumW, sum float64
	for _, a := range answers {
		w := weights.For(a.kind)
		sumW += w
		sum += w * float64(a.hour)
	}
	var mean float64
	if sumW > 0 {
		mean = sum / sumW
	} else {
		for _, a := range answers {
			mean += float64(a.hour)
		}
		mean /= float64(len(answers))
	}

	hours := make([]int, len(answers))
	for i, a := range answers {
		hours[i] = a.hour
	}
	var v float64
	if cfg.Circular {
		v = circularVariance(hours)
	} else {
		v = variance(hours)
	}

	conf := 1 - v/cfg.VarianceScale
	conf = math.Max(cfg.Floor, math.Min(cfg.Cap, conf))
	return ClipHour(mean), round2(conf)
}

// variance is the population variance of hours.
func variance(hours []int) float64 {
	var mean float64
	for _, h := range hours {
		mean += float64(h)
	}
	mean /= float64(len(hours))

	var ss float64
	for _, h := range hours {
		d := float64(h) - mean
		ss += d * d
	}
	return ss / float64(len(hours))
}

// circularVariance is the pairwise form of the population variance,
// 1/(2n²) Σᵢ Σⱼ d(hᵢ, hⱼ)², with d the distance on the 24 hour clock.
// It equals variance when no pair is more than 12 hours apart.
func circularVariance(hours []int) float64 {
	n := float64(len(hours))
	var ss float64
	for _, a := range hours {
		for _, b := range hours {
			d := clockDistance(a, b)
			ss += float64(d * d)
		}
	}
	return ss / (2 * n * n)
}

func clockDistance(a, b int) int {
	d := a - b
	if d < 0 {
		d = -d
	}
	if d > hoursPerDay/2 {
		d = hoursPerDay - d
	}
	return d
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
