// Postwise - Optimal Posting Time Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/postwise

// Package features turns historical records into model-ready feature vectors.
//
// # Schema
//
// Every trained model carries the Schema it was fitted on: an ordered list of
// named columns. The layout is 19 fixed base columns followed by three one-hot
// groups (season_*, time_slot_*, channel_*), each holding only the values
// observed in training, in lexical order.
//
// # Training and Inference
//
// Engineer derives temporal and content features from records and drops rows
// whose timestamp could not be parsed. Matrix encodes engineered rows against
// a schema.
//
// At inference time there is no timestamp. InferenceVector resolves each
// schema column from the request: content type flags, the channel one-hot and
// caller-supplied signals. Every other column is zero.
//
// The engagement composite used for labeling is deliberately not a column.
package features
