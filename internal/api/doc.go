// Postwise - Optimal Posting Time Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/postwise

/*
Package api provides the HTTP surface of Postwise using the Chi router.

Routes:

	POST /api/v1/predict/optimal-time     best posting hour for a channel and content type
	POST /api/v1/predict/time-engagement  predictions for several candidate hours
	GET  /api/v1/time/status              loaded models and training progress
	GET  /health                          liveness and model availability
	GET  /metrics                         Prometheus exposition

Every JSON response uses the models.APIResponse envelope. Request bodies are
validated with the validation package; "subreddit" is accepted as a legacy
alias of "channel".

Middleware order: RealIP, RequestID, Recoverer, AccessLog,
PrometheusMetrics, CORS, then per-group rate limiting (httprate),
security headers and compression on /api/v1.

Handlers depend on the Predictor interface, which *timeprediction.Engine
satisfies, so they can be tested against a stub.
*/
package api
