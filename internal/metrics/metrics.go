// Postwise - Optimal Posting Time Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/postwise

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Training Metrics
	TrainingRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "timeprediction_training_runs_total",
			Help: "Total number of model training runs by outcome",
		},
		[]string{"status"}, // "success", "failed", "partial", "busy"
	)

	TrainingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "timeprediction_training_duration_seconds",
			Help:    "Duration of model training runs in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300, 600},
		},
	)

	TiersTrained = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "timeprediction_tiers_trained",
			Help: "Number of tiers in the active model set",
		},
		[]string{"kind"},
	)

	ModelSetVersion = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "timeprediction_model_set_version",
			Help: "Version of the active model set (0 when none is loaded)",
		},
	)

	// Data Metrics
	SourceRows = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "timeprediction_source_rows",
			Help: "Rows loaded from each historical source in the last consolidation",
		},
		[]string{"channel"},
	)

	SourcesSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "timeprediction_sources_skipped_total",
			Help: "Total number of historical sources skipped because they could not be read",
		},
	)

	RowsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "timeprediction_rows_dropped_total",
			Help: "Total number of rows dropped because their timestamp could not be parsed",
		},
	)

	// Prediction Metrics
	Predictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "timeprediction_predictions_total",
			Help: "Total number of predictions served by status",
		},
		[]string{"status"},
	)

	PredictionConfidence = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "timeprediction_prediction_confidence",
			Help:    "Confidence of served predictions",
			Buckets: []float64{0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
		},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)
)

// RecordTrainingRun records the outcome and duration of a training run.
func RecordTrainingRun(status string, duration time.Duration) {
	TrainingRuns.WithLabelValues(status).Inc()
	if duration > 0 {
		TrainingDuration.Observe(duration.Seconds())
	}
}

// RecordModelSet publishes the shape of a newly active model set.
func RecordModelSet(version, channelTiers, contentTiers int) {
	ModelSetVersion.Set(float64(version))
	TiersTrained.WithLabelValues("global").Set(1)
	TiersTrained.WithLabelValues("channel").Set(float64(channelTiers))
	TiersTrained.WithLabelValues("content").Set(float64(contentTiers))
}

// RecordSourceRows records the row count loaded from one source.
func RecordSourceRows(channel string, rows int) {
	SourceRows.WithLabelValues(channel).Set(float64(rows))
}

// RecordSourceSkipped counts an unreadable source.
func RecordSourceSkipped() {
	SourcesSkipped.Inc()
}

// RecordRowsDropped counts rows discarded during feature engineering.
func RecordRowsDropped(n int) {
	if n > 0 {
		RowsDropped.Add(float64(n))
	}
}

// RecordPrediction records a served prediction.
// Confidence is only observed for model-backed results.
func RecordPrediction(status string, confidence float64) {
	Predictions.WithLabelValues(status).Inc()
	if status == "success" {
		PredictionConfidence.Observe(confidence)
	}
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}
