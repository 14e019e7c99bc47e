// Postwise - Optimal Posting Time Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/postwise

package dataset

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tomtom215/postwise/internal/metrics"
)

// SkippedSource records a source that could not be read.
type SkippedSource struct {
	Channel string
	Err     error
}

// Consolidation is the merged result of loading a set of sources.
type Consolidation struct {
	// Records holds every loaded record, tagged with its source channel,
	// in source order.
	Records []Record

	// Loaded is the number of sources that were read successfully.
	Loaded int

	// Skipped lists the unreadable sources.
	Skipped []SkippedSource

	// RowsPerSource maps channel id to the rows loaded from it.
	RowsPerSource map[string]int
}

// Consolidate loads every source and concatenates the records.
//
// Sources are loaded in order. A source that fails is skipped and logged; the
// call fails with ErrDataUnavailable only if no source loaded. A source that
// loads zero rows still counts as loaded.
func Consolidate(ctx context.Context, sources []Source, logger zerolog.Logger) (*Consolidation, error) {
	logger = logger.With().Str("component", "consolidator").Logger()

	result := &Consolidation{
		RowsPerSource: make(map[string]int, len(sources)),
	}

	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		channel := src.Channel()
		records, err := src.Load(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logger.Warn().Err(err).Str("channel", channel).Msg("Skipping unreadable source")
			metrics.RecordSourceSkipped()
			result.Skipped = append(result.Skipped, SkippedSource{Channel: channel, Err: err})
			continue
		}

		for _, rec := range records {
			result.Records = append(result.Records, rec.WithChannel(channel))
		}
		result.Loaded++
		result.RowsPerSource[channel] += len(records)

		metrics.RecordSourceRows(channel, len(records))
		logger.Info().Str("channel", channel).Int("rows", len(records)).Msg("Loaded source")
	}

	if result.Loaded == 0 {
		return nil, fmt.Errorf("%w: none of %d sources could be loaded", ErrDataUnavailable, len(sources))
	}

	logger.Info().
		Int("sources", result.Loaded).
		Int("skipped", len(result.Skipped)).
		Int("records", len(result.Records)).
		Msg("Consolidated historical data")

	return result, nil
}
