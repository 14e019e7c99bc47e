// Postwise - Optimal Posting Time Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/postwise

// Package dataset loads historical post-performance records and consolidates
// them into a single channel-tagged table.
//
// # Sources
//
// A Source yields the records of exactly one channel. Two kinds exist:
//
//   - CSVSource: one CSV export per channel, channel id taken from the file name
//   - DuckDBSource: the rows of one channel in a DuckDB table
//
// Providers discover sources: DirProvider scans a directory for *.csv files
// and DuckDBProvider lists the distinct channels of a table.
//
// # Partial Failure
//
// Consolidate tolerates unreadable sources. Each one is logged at WARN,
// counted in metrics and reported in the Consolidation, and the remaining
// sources are still merged. Only when no source loads at all does it return
// ErrDataUnavailable.
//
// # Usage
//
//	provider := dataset.NewDirProvider("data/timeline", nil)
//	sources, err := provider.Sources(ctx)
//	if err != nil {
//	    return err
//	}
//	result, err := dataset.Consolidate(ctx, sources, logger)
package dataset
