// Postwise - Optimal Posting Time Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/postwise

package timeprediction

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomtom215/postwise/internal/dataset"
	"github.com/tomtom215/postwise/internal/features"
	"github.com/tomtom215/postwise/internal/gbm"
)

// stump returns a one-split model: x[feature] <= threshold ? low : high.
func stump(t *testing.T, schema *features.Schema, column string, threshold, low, high float64) *gbm.Model {
	t.Helper()
	idx, ok := schema.Index(column)
	require.True(t, ok, "column %s", column)
	return &gbm.Model{
		NumFeatures: schema.Len(),
		Trees: []gbm.Tree{{Nodes: []gbm.Node{
			{Feature: idx, Threshold: threshold, Left: 1, Right: 2},
			{Feature: -1, Value: low},
			{Feature: -1, Value: high},
		}}},
	}
}

func calibrationRows(t *testing.T) []features.Row {
	t.Helper()
	var records []dataset.Record
	for hour := 0; hour < 24; hour++ {
		for _, day := range []int{1, 20} {
			for _, score := range []float64{10, 100} {
				ts := time.Date(2024, time.May, day, hour, 0, 0, 0, time.UTC)
				records = append(records, dataset.Record{
					Channel:        "a",
					ContentType:    dataset.ContentText,
					Timestamp:      ts,
					TimestampValid: true,
					Score:          score,
					UpvoteRatio:    1,
				})
			}
		}
	}
	rows, dropped := features.Engineer(records)
	require.Zero(t, dropped)
	return rows
}

func TestCalibrateWeights(t *testing.T) {
	rows := calibrationRows(t)
	schema := features.BuildSchema(rows)

	global := stump(t, schema, features.ColHour, 11.5, 6, 18)
	channel := stump(t, schema, features.ColDayOfMonth, 15.5, 10, 14)
	content := stump(t, schema, features.ColScore, 50, 8, 16)

	set, err := NewModelSet(SetInfo{Version: 1}, []*TrainedModel{
		{Tier: GlobalTier(), Schema: schema, Model: global},
		{Tier: ChannelTier("a"), Schema: schema, Model: channel},
		{Tier: ContentTier(dataset.ContentText), Schema: schema, Model: content},
	})
	require.NoError(t, err)

	targets := make([]float64, len(rows))
	for i := range rows {
		x := features.TrainingVector(schema, rows[i]).Values()
		g, _ := global.Predict(x)
		c, _ := channel.Predict(x)
		ct, _ := content.Predict(x)
		targets[i] = 2 + 0.5*g + 0.3*c + 0.2*ct
	}

	cal, err := CalibrateWeights(context.Background(), set, rows, targets)
	require.NoError(t, err)

	assert.Equal(t, len(rows), cal.Rows)
	assert.InDelta(t, 2, cal.Intercept, 1e-6)
	assert.InDelta(t, 0.5, cal.Coefficients["global"], 1e-6)
	assert.InDelta(t, 0.3, cal.Coefficients["channel"], 1e-6)
	assert.InDelta(t, 0.2, cal.Coefficients["content"], 1e-6)
	assert.InDelta(t, 1, cal.R2, 1e-6)
	assert.Equal(t, map[string]float64{"global": 0.5, "channel": 0.3, "content": 0.2}, cal.SuggestedWeights)
}

func TestCalibrateWeightsNeedsCoveredRows(t *testing.T) {
	rows := calibrationRows(t)
	schema := features.BuildSchema(rows)

	// No channel tier: no row is covered by all three tiers.
	set, err := NewModelSet(SetInfo{Version: 1}, []*TrainedModel{
		{Tier: GlobalTier(), Schema: schema, Model: stump(t, schema, features.ColHour, 11.5, 6, 18)},
		{Tier: ContentTier(dataset.ContentText), Schema: schema, Model: stump(t, schema, features.ColScore, 50, 8, 16)},
	})
	require.NoError(t, err)

	_, err = CalibrateWeights(context.Background(), set, rows, make([]float64, len(rows)))
	assert.ErrorIs(t, err, ErrInsufficientSamples)
}

func TestCalibrateWeightsLengthMismatch(t *testing.T) {
	rows := calibrationRows(t)
	_, err := CalibrateWeights(context.Background(), nil, rows, nil)
	assert.Error(t, err)
}

func TestCalibrateWeightsStopsOnCancel(t *testing.T) {
	rows := calibrationRows(t)
	schema := features.BuildSchema(rows)

	set, err := NewModelSet(SetInfo{Version: 1}, []*TrainedModel{
		{Tier: GlobalTier(), Schema: schema, Model: stump(t, schema, features.ColHour, 11.5, 6, 18)},
		{Tier: ChannelTier("a"), Schema: schema, Model: stump(t, schema, features.ColDayOfMonth, 15.5, 10, 14)},
		{Tier: ContentTier(dataset.ContentText), Schema: schema, Model: stump(t, schema, features.ColScore, 50, 8, 16)},
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cal, err := CalibrateWeights(ctx, set, rows, make([]float64, len(rows)))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, cal)
}
