// Postwise - Optimal Posting Time Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/postwise

/*
Package metrics provides Prometheus metrics collection and export for observability.

All collectors are registered on the default registry through promauto at
package initialization, so callers only record values.

# Metrics Endpoint

Metrics are exposed at the /metrics endpoint in Prometheus text format:

	curl http://localhost:8080/metrics

# Available Metrics

Training Metrics:
  - timeprediction_training_runs_total: Training runs (counter)
    Labels: status (success, failed, partial, busy)
  - timeprediction_training_duration_seconds: Run duration (histogram)
  - timeprediction_tiers_trained: Tiers in the active model set (gauge)
    Labels: kind (global, channel, content)
  - timeprediction_model_set_version: Version of the active model set (gauge)

Data Metrics:
  - timeprediction_source_rows: Rows loaded per source (gauge)
    Labels: channel
  - timeprediction_sources_skipped_total: Unreadable sources (counter)
  - timeprediction_rows_dropped_total: Rows dropped for bad timestamps (counter)

Prediction Metrics:
  - timeprediction_predictions_total: Predictions served (counter)
    Labels: status (success, fallback, error)
  - timeprediction_prediction_confidence: Confidence of served predictions (histogram)

HTTP Metrics:
  - api_requests_total, api_request_duration_seconds, api_active_requests
*/
package metrics
