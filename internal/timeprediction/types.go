// Postwise - Optimal Posting Time Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/postwise

package timeprediction

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/tomtom215/postwise/internal/dataset"
	"github.com/tomtom215/postwise/internal/features"
	"github.com/tomtom215/postwise/internal/gbm"
)

// TierKind identifies a level of the model hierarchy.
type TierKind string

const (
	TierGlobal  TierKind = "global"
	TierChannel TierKind = "channel"
	TierContent TierKind = "content"
)

// Tier identifies one model in the hierarchy.
type Tier struct {
	Kind TierKind
	ID   string // channel id or content type; empty for the global tier
}

// GlobalTier returns the global tier.
func GlobalTier() Tier { return Tier{Kind: TierGlobal} }

// ChannelTier returns the tier of a channel.
func ChannelTier(id string) Tier { return Tier{Kind: TierChannel, ID: id} }

// ContentTier returns the tier of a content type.
func ContentTier(ct dataset.ContentType) Tier { return Tier{Kind: TierContent, ID: string(ct)} }

// Key returns the tier's namespace key: "global", "channel:<id>" or
// "content:<type>".
func (t Tier) Key() string {
	if t.Kind == TierGlobal {
		return string(TierGlobal)
	}
	return string(t.Kind) + ":" + t.ID
}

func (t Tier) String() string { return t.Key() }

// ParseTierKey parses a key produced by Tier.Key.
func ParseTierKey(key string) (Tier, error) {
	if key == string(TierGlobal) {
		return GlobalTier(), nil
	}
	kind, id, ok := strings.Cut(key, ":")
	if !ok || id == "" {
		return Tier{}, fmt.Errorf("invalid tier key %q", key)
	}
	switch TierKind(kind) {
	case TierChannel:
		return ChannelTier(id), nil
	case TierContent:
		ct, valid := dataset.ParseContentType(id)
		if !valid {
			return Tier{}, fmt.Errorf("invalid content type in tier key %q", key)
		}
		return ContentTier(ct), nil
	}
	return Tier{}, fmt.Errorf("invalid tier kind in key %q", key)
}

// predictionKey is the name a tier's answer is reported under.
func (k TierKind) predictionKey() string {
	if k == TierContent {
		return "content_type"
	}
	return string(k)
}

// TrainedModel is an immutable fitted model for one tier together with the
// feature schema it was trained on.
type TrainedModel struct {
	Tier      Tier
	Schema    *features.Schema
	Model     *gbm.Model
	Samples   int
	TrainMSE  float64
	TrainedAt time.Time
}

// Predict returns the raw (unclipped) hour prediction for in.
func (m *TrainedModel) Predict(in features.Input) (float64, error) {
	if m.Schema.Len() == 0 {
		return 0, fmt.Errorf("%w: tier %s has no recorded schema", ErrSchemaMismatch, m.Tier)
	}
	if m.Model == nil {
		return 0, fmt.Errorf("%w: tier %s has no model", ErrModelNotTrained, m.Tier)
	}
	if m.Schema.Len() != m.Model.NumFeatures {
		return 0, fmt.Errorf("%w: tier %s schema has %d columns, model expects %d",
			ErrSchemaMismatch, m.Tier, m.Schema.Len(), m.Model.NumFeatures)
	}
	v := features.InferenceVector(m.Schema, in)
	return m.Model.Predict(v.Values())
}

// SetInfo identifies a published model set.
type SetInfo struct {
	Version   int       `json:"version"`
	RunID     string    `json:"run_id"`
	TrainedAt time.Time `json:"trained_at"`
}

// ModelSet is an immutable snapshot of every tier produced by one training
// run. It is replaced as a whole, never modified.
type ModelSet struct {
	info     SetInfo
	global   *TrainedModel
	channels map[string]*TrainedModel
	contents map[dataset.ContentType]*TrainedModel
}

// NewModelSet assembles a model set. Exactly one global model is required.
func NewModelSet(info SetInfo, models []*TrainedModel) (*ModelSet, error) {
	set := &ModelSet{
		info:     info,
		channels: make(map[string]*TrainedModel),
		contents: make(map[dataset.ContentType]*TrainedModel),
	}
	for _, m := range models {
		if m == nil {
			continue
		}
		switch m.Tier.Kind {
		case TierGlobal:
			if set.global != nil {
				return nil, fmt.Errorf("duplicate global tier")
			}
			set.global = m
		case TierChannel:
			if _, dup := set.channels[m.Tier.ID]; dup {
				return nil, fmt.Errorf("duplicate tier %s", m.Tier)
			}
			set.channels[m.Tier.ID] = m
		case TierContent:
			ct := dataset.ContentType(m.Tier.ID)
			if _, dup := set.contents[ct]; dup {
				return nil, fmt.Errorf("duplicate tier %s", m.Tier)
			}
			set.contents[ct] = m
		default:
			return nil, fmt.Errorf("unknown tier kind %q", m.Tier.Kind)
		}
	}
	if set.global == nil {
		return nil, fmt.Errorf("%w: model set has no global tier", ErrModelNotTrained)
	}
	return set, nil
}

// Info returns the set's version, run id and training time.
func (s *ModelSet) Info() SetInfo { return s.info }

// Version returns the set's version.
func (s *ModelSet) Version() int { return s.info.Version }

// Global returns the global tier.
func (s *ModelSet) Global() *TrainedModel { return s.global }

// Channel returns the tier of a channel, if one was trained.
func (s *ModelSet) Channel(id string) (*TrainedModel, bool) {
	m, ok := s.channels[id]
	return m, ok
}

// Content returns the tier of a content type, if one was trained.
func (s *ModelSet) Content(ct dataset.ContentType) (*TrainedModel, bool) {
	m, ok := s.contents[ct]
	return m, ok
}

// ChannelCount returns the number of channel tiers.
func (s *ModelSet) ChannelCount() int { return len(s.channels) }

// ChannelIDs returns the channels with a trained tier, sorted.
func (s *ModelSet) ChannelIDs() []string {
	ids := make([]string, 0, len(s.channels))
	for id := range s.channels {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ContentCount returns the number of content tiers.
func (s *ModelSet) ContentCount() int { return len(s.contents) }

// Models returns every tier, global first, then channel and content tiers
// ordered by key.
func (s *ModelSet) Models() []*TrainedModel {
	out := make([]*TrainedModel, 0, 1+len(s.channels)+len(s.contents))
	var rest []*TrainedModel
	for _, m := range s.channels {
		rest = append(rest, m)
	}
	for _, m := range s.contents {
		rest = append(rest, m)
	}
	sort.Slice(rest, func(i, j int) bool { return rest[i].Tier.Key() < rest[j].Tier.Key() })
	out = append(out, s.global)
	return append(out, rest...)
}

// Status is the outcome of a prediction.
type Status string

const (
	StatusSuccess  Status = "success"
	StatusFallback Status = "fallback"
	StatusError    Status = "error"
)

// PredictionResult is the answer to a prediction request.
type PredictionResult struct {
	OptimalHour  int            `json:"optimal_hour"`
	Predictions  map[string]int `json:"predictions"`
	Confidence   float64        `json:"confidence"`
	Status       Status         `json:"status"`
	Channel      string         `json:"channel"`
	ContentType  string         `json:"content_type"`
	ModelVersion int            `json:"model_version,omitempty"`
	Error        string         `json:"error,omitempty"`
}

// HourPrediction is one entry of an hourly scan.
type HourPrediction struct {
	Hour        int     `json:"hour"`
	OptimalHour int     `json:"optimal_hour"`
	Confidence  float64 `json:"confidence"`
	Status      Status  `json:"status"`
}

// DefaultScanHours are the hours scanned when a caller gives none.
var DefaultScanHours = []int{9, 12, 15, 18, 21}

// TrainingStatus reports the progress of training.
type TrainingStatus struct {
	IsTraining     bool      `json:"is_training"`
	Stage          string    `json:"stage,omitempty"`
	RunID          string    `json:"run_id,omitempty"`
	Progress       float64   `json:"progress"`
	LastError      string    `json:"last_error,omitempty"`
	LastDurationMS int64     `json:"last_duration_ms"`
	LastTrainedAt  time.Time `json:"last_trained_at"`
}

// ModelStatus describes the active model set.
type ModelStatus struct {
	ModelsAvailable bool           `json:"models_available"`
	GlobalModel     bool           `json:"global_model"`
	ChannelModels   int            `json:"channel_models"`
	ContentModels   int            `json:"content_type_models"`
	Channels        []string       `json:"channels,omitempty"`
	Version         int            `json:"version"`
	RunID           string         `json:"run_id,omitempty"`
	TrainedAt       *time.Time     `json:"trained_at,omitempty"`
	Training        TrainingStatus `json:"training"`
}

// TierReport describes what happened to one tier during a run.
type TierReport struct {
	Key        string  `json:"key"`
	Kind       string  `json:"kind"`
	Samples    int     `json:"samples"`
	Trained    bool    `json:"trained"`
	Reason     string  `json:"reason,omitempty"`
	TrainMSE   float64 `json:"train_mse,omitempty"`
	DurationMS int64   `json:"duration_ms"`
}

// TrainingReport summarizes one training run.
type TrainingReport struct {
	RunID          string         `json:"run_id"`
	Version        int            `json:"version"`
	StartedAt      time.Time      `json:"started_at"`
	FinishedAt     time.Time      `json:"finished_at"`
	Sources        int            `json:"sources"`
	SkippedSources []string       `json:"skipped_sources,omitempty"`
	Records        int            `json:"records"`
	Rows           int            `json:"rows"`
	DroppedRows    int            `json:"dropped_rows"`
	Labels         map[string]int `json:"labels"`
	Tiers          []TierReport   `json:"tiers"`
	HoldoutRows    int            `json:"holdout_rows"`
	HoldoutMSE     float64        `json:"holdout_mse,omitempty"`
	Calibration    *Calibration   `json:"calibration,omitempty"`
	Partial        bool           `json:"partial"`
}

// Tier returns the report of the tier with key, if present.
func (r *TrainingReport) Tier(key string) (TierReport, bool) {
	for _, t := range r.Tiers {
		if t.Key == key {
			return t, true
		}
	}
	return TierReport{}, false
}
