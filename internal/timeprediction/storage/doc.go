// Postwise - Optimal Posting Time Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/postwise

// Package storage persists time prediction model sets.
//
// Each tier of a model set is stored as one artifact holding the fitted
// trees and the feature schema they were trained on. Artifacts are
// gob-encoded, gzip-compressed and carry a SHA-256 checksum of the
// uncompressed payload that is verified on load.
//
// # Backends
//
// FileStore writes one directory per model set:
//
//	<root>/
//	  CURRENT                       <- name of the active set
//	  sets/
//	    v000003-1f2e3d4c/
//	      manifest.json
//	      report.json
//	      global.gob.gz
//	      channel_python.gob.gz
//	      content_text.gob.gz
//
// A set is written to a staging directory and renamed into sets/ once
// complete. CURRENT is then replaced with a rename, so readers observe
// either the previous set or the new one, never a mix.
//
// BadgerStore keeps the same artifacts in BadgerDB under per-set key
// prefixes and flips the current pointer inside a single transaction.
//
// Both stores keep the most recent versions (at least one) and never prune
// the active set.
//
// # Loading
//
// A missing or unreadable global artifact fails the load. A corrupt
// specialist artifact is logged and left out of the loaded set, so
// predictions degrade to the remaining tiers.
package storage
