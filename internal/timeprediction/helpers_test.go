// Postwise - Optimal Posting Time Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/postwise

package timeprediction

import (
	"context"
	"sync"
	"time"

	"github.com/tomtom215/postwise/internal/dataset"
)

var baseTime = time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)

// syntheticRecords returns n posts for channel spread evenly over the hours
// of the day and over the content types. Posts made at peakHour score ten
// times higher than the others.
func syntheticRecords(channel string, peakHour, n int) []dataset.Record {
	records := make([]dataset.Record, n)
	for i := range records {
		hour := i % 24
		day := i / 24
		ts := baseTime.Add(time.Duration(day)*24*time.Hour + time.Duration(hour)*time.Hour)

		score := 10.0
		if hour == peakHour {
			score = 100
		}
		records[i] = dataset.Record{
			Channel:        channel,
			ContentType:    dataset.ContentTypes[(i/24)%len(dataset.ContentTypes)],
			RawTimestamp:   ts.Format(time.RFC3339),
			Timestamp:      ts,
			TimestampValid: true,
			TitleLength:    40,
			Score:          score,
			UpvoteRatio:    0.9,
			NumComments:    2,
			Subscribers:    1000,
		}
	}
	return records
}

// fastConfig trains small ensembles so tests stay quick.
func fastConfig() *Config {
	cfg := DefaultConfig()
	cfg.Training.Global.NumTrees = 60
	cfg.Training.Global.MaxDepth = 3
	cfg.Training.Specialist.NumTrees = 60
	cfg.Training.Specialist.MaxDepth = 3
	cfg.Training.Global.LearningRate = 0.2
	cfg.Training.Specialist.LearningRate = 0.2
	cfg.Training.EvalFraction = 0
	return cfg
}

type staticSource struct {
	channel string
	records []dataset.Record
}

func (s staticSource) Channel() string { return s.channel }

func (s staticSource) Load(context.Context) ([]dataset.Record, error) {
	return s.records, nil
}

type staticProvider struct {
	sources []dataset.Source
	err     error
}

func (p staticProvider) Sources(context.Context) ([]dataset.Source, error) {
	return p.sources, p.err
}

// twoChannelProvider serves channel a (peak 18) and channel b (peak 9),
// 240 posts each.
func twoChannelProvider() staticProvider {
	return staticProvider{sources: []dataset.Source{
		staticSource{channel: "a", records: syntheticRecords("a", 18, 240)},
		staticSource{channel: "b", records: syntheticRecords("b", 9, 240)},
	}}
}

// memStore keeps published model sets in memory.
type memStore struct {
	mu         sync.Mutex
	current    *ModelSet
	reports    []*TrainingReport
	latest     int
	publishErr error
}

func (s *memStore) Publish(_ context.Context, set *ModelSet, report *TrainingReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.publishErr != nil {
		return s.publishErr
	}
	s.current = set
	s.reports = append(s.reports, report)
	if set.Version() > s.latest {
		s.latest = set.Version()
	}
	return nil
}

func (s *memStore) Load(context.Context) (*ModelSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil, ErrModelNotTrained
	}
	return s.current, nil
}

func (s *memStore) LatestVersion(context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest, nil
}
