// Postwise - Optimal Posting Time Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/postwise

/*
Package middleware provides chi-compatible HTTP middleware for the API.

Key Components:

  - RequestID: propagates or generates X-Request-ID and stores it in the
    request context for logging.Ctx
  - PrometheusMetrics: request count, latency and in-flight gauge, labelled
    by the chi route pattern to keep cardinality bounded
  - AccessLog: one structured zerolog line per request

Typical stack:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.AccessLog)
	r.Use(middleware.PrometheusMetrics)
*/
package middleware
