// Postwise - Optimal Posting Time Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/postwise

// Package services provides suture service wrappers for the long-running
// parts of Postwise: the HTTP server and the scheduled training loop.
//
// Each wrapper implements suture.Service (Serve(ctx) error) and
// fmt.Stringer so the supervisor can name it in logs.
package services
