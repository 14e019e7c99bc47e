// Postwise - Optimal Posting Time Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/postwise

package storage

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomtom215/postwise/internal/dataset"
	"github.com/tomtom215/postwise/internal/features"
	"github.com/tomtom215/postwise/internal/timeprediction"
)

func records(channel string, peakHour, n int) []dataset.Record {
	base := time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)
	out := make([]dataset.Record, n)
	for i := range out {
		hour := i % 24
		ts := base.Add(time.Duration(i/24)*24*time.Hour + time.Duration(hour)*time.Hour)
		score := 10.0
		if hour == peakHour {
			score = 100
		}
		out[i] = dataset.Record{
			Channel:        channel,
			ContentType:    dataset.ContentTypes[(i/24)%len(dataset.ContentTypes)],
			Timestamp:      ts,
			TimestampValid: true,
			TitleLength:    30 + i%7,
			Score:          score,
			UpvoteRatio:    0.9,
			NumComments:    float64(i % 5),
		}
	}
	return out
}

func testConfig() *timeprediction.Config {
	cfg := timeprediction.DefaultConfig()
	cfg.Training.Global.NumTrees = 20
	cfg.Training.Specialist.NumTrees = 20
	cfg.Training.Global.LearningRate = 0.3
	cfg.Training.Specialist.LearningRate = 0.3
	cfg.Training.EvalFraction = 0
	return cfg
}

// trainSet trains a model set over channels "a", "b" and "c/d", the last
// of which needs escaping on disk.
func trainSet(t *testing.T, version int) *timeprediction.ModelSet {
	t.Helper()
	var recs []dataset.Record
	recs = append(recs, records("a", 18, 240)...)
	recs = append(recs, records("b", 9, 240)...)
	recs = append(recs, records("c/d", 6, 120)...)

	runID := fmt.Sprintf("run%05d-test", version)
	outcome, err := timeprediction.NewTrainer(testConfig(), zerolog.Nop()).
		Fit(context.Background(), recs, runID)
	require.NoError(t, err)

	set, err := timeprediction.NewModelSet(timeprediction.SetInfo{
		Version:   version,
		RunID:     runID,
		TrainedAt: time.Now().UTC().Truncate(time.Second),
	}, outcome.Models)
	require.NoError(t, err)
	return set
}

// assertSameSet checks that both sets hold the same tiers and that every
// tier gives bit-identical predictions.
func assertSameSet(t *testing.T, want, got *timeprediction.ModelSet) {
	t.Helper()
	assert.Equal(t, want.Version(), got.Version())
	assert.Equal(t, want.Info().RunID, got.Info().RunID)
	assert.True(t, want.Info().TrainedAt.Equal(got.Info().TrainedAt))

	wantModels, gotModels := want.Models(), got.Models()
	require.Equal(t, len(wantModels), len(gotModels))

	for i := range wantModels {
		w, g := wantModels[i], gotModels[i]
		require.Equal(t, w.Tier, g.Tier)
		assert.True(t, w.Schema.Equal(g.Schema), "schema of %s", w.Tier)
		assert.Equal(t, w.Samples, g.Samples)

		for _, ch := range []string{"a", "b", "c/d", "unknown"} {
			for _, ct := range dataset.ContentTypes {
				for hour := 0; hour < 24; hour += 5 {
					in := features.Input{Channel: ch, ContentType: ct, Signals: map[string]float64{"hour": float64(hour)}}
					pw, err := w.Predict(in)
					require.NoError(t, err)
					pg, err := g.Predict(in)
					require.NoError(t, err)
					assert.Equal(t, pw, pg, "tier %s channel %s type %s hour %d", w.Tier, ch, ct, hour)
				}
			}
		}
	}
}

type source struct {
	channel string
	records []dataset.Record
}

func (s source) Channel() string { return s.channel }

func (s source) Load(context.Context) ([]dataset.Record, error) { return s.records, nil }

// provider serves in-memory records keyed by channel.
type provider map[string][]dataset.Record

func (p provider) Sources(context.Context) ([]dataset.Source, error) {
	out := make([]dataset.Source, 0, len(p))
	for _, ch := range []string{"a", "b", "c/d"} {
		if recs, ok := p[ch]; ok {
			out = append(out, source{channel: ch, records: recs})
		}
	}
	return out, nil
}
