// Postwise - Optimal Posting Time Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/postwise

package models

import "time"

// OptimalTimeRequest is the body of POST /api/v1/predict/optimal-time.
//
// Subreddit is accepted as a legacy alias of Channel. UserData holds optional
// numeric signals keyed by feature column, e.g. {"title_length": 50};
// booleans count as 0 or 1 and other values are ignored.
type OptimalTimeRequest struct {
	Channel     string                 `json:"channel" validate:"required,max=100"`
	Subreddit   string                 `json:"subreddit,omitempty" validate:"-"`
	ContentType string                 `json:"content_type" validate:"required,content_type"`
	UserData    map[string]interface{} `json:"user_data,omitempty" validate:"max=64"`
}

// TimeEngagementRequest is the body of POST /api/v1/predict/time-engagement.
type TimeEngagementRequest struct {
	Channel     string `json:"channel" validate:"required,max=100"`
	Subreddit   string `json:"subreddit,omitempty" validate:"-"`
	ContentType string `json:"content_type" validate:"required,content_type"`
	Hours       []int  `json:"hours,omitempty" validate:"max=24,dive,min=0,max=23"`
}

// OptimalTimeResponse is a prediction formatted for display.
type OptimalTimeResponse struct {
	OptimalHour     int            `json:"optimal_hour"`
	OptimalTimeSlot string         `json:"optimal_time_slot"`
	FormattedTime   string         `json:"formatted_time"`
	Confidence      float64        `json:"confidence"`
	Channel         string         `json:"channel"`
	ContentType     string         `json:"content_type"`
	Status          string         `json:"status"`
	Predictions     map[string]int `json:"predictions"`
	Suggestions     []string       `json:"suggestions"`
	ModelVersion    int            `json:"model_version,omitempty"`
	Error           string         `json:"error,omitempty"`
}

// HourlyPrediction is one entry of a time-engagement scan.
type HourlyPrediction struct {
	Hour        int     `json:"hour"`
	TimeSlot    string  `json:"time_slot"`
	OptimalHour int     `json:"optimal_hour"`
	Confidence  float64 `json:"confidence"`
	Status      string  `json:"status"`
}

// TimeEngagementResponse lists predictions for several posting hours.
type TimeEngagementResponse struct {
	Channel           string             `json:"channel"`
	ContentType       string             `json:"content_type"`
	HourlyPredictions []HourlyPrediction `json:"hourly_predictions"`
}

// ModelStatusResponse describes the loaded models and the training state.
type ModelStatusResponse struct {
	Status        string        `json:"status"` // "available" or "not_available"
	ModelsLoaded  bool          `json:"models_loaded"`
	GlobalModel   bool          `json:"global_model"`
	ChannelModels int           `json:"channel_models"`
	ContentModels int           `json:"content_models"`
	Channels      []string      `json:"channels,omitempty"`
	ModelVersion  int           `json:"model_version,omitempty"`
	TrainedAt     *time.Time    `json:"trained_at,omitempty"`
	Message       string        `json:"message,omitempty"`
	Training      TrainingState `json:"training"`
}

// TrainingState reports the progress of the current or last training run.
type TrainingState struct {
	IsTraining     bool       `json:"is_training"`
	Stage          string     `json:"stage,omitempty"`
	RunID          string     `json:"run_id,omitempty"`
	Progress       float64    `json:"progress"`
	LastError      string     `json:"last_error,omitempty"`
	LastDurationMS int64      `json:"last_duration_ms"`
	LastTrainedAt  *time.Time `json:"last_trained_at,omitempty"`
}
