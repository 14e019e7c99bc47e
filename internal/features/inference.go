// Postwise - Optimal Posting Time Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/postwise

package features

import (
	"math"
	"strings"

	"github.com/tomtom215/postwise/internal/dataset"
)

// Input is what a caller knows at prediction time.
type Input struct {
	Channel     string
	ContentType dataset.ContentType

	// Signals are optional column values keyed by column name, for example
	// {"hour": 18} or {"subscribers": 120000}. They take precedence over the
	// values derived from ContentType and Channel.
	Signals map[string]float64
}

// InferenceVector builds the vector for schema from in. Every declared column
// is resolved in order: channel one-hot columns come only from in.Channel,
// other columns take a finite signal first and then the content type flags,
// and anything left is zero. A channel the schema does not know sets no
// channel column.
func InferenceVector(schema *Schema, in Input) Vector {
	columns := schema.Columns()
	values := make([]float64, len(columns))
	for i, name := range columns {
		values[i] = resolveColumn(name, in)
	}
	return Vector{schema: schema, values: values}
}

func resolveColumn(name string, in Input) float64 {
	if strings.HasPrefix(name, ChannelPrefix) {
		return boolValue(in.Channel != "" && name == ChannelPrefix+in.Channel)
	}
	if v, ok := in.Signals[name]; ok && !math.IsNaN(v) && !math.IsInf(v, 0) {
		return v
	}
	switch name {
	case ColIsText:
		return boolValue(in.ContentType == dataset.ContentText)
	case ColIsImage:
		return boolValue(in.ContentType == dataset.ContentImage)
	case ColIsVideo:
		return boolValue(in.ContentType == dataset.ContentVideo)
	case ColIsLink:
		return boolValue(in.ContentType == dataset.ContentLink)
	}
	return 0
}

// TrainingVector encodes a single engineered row as a Vector.
func TrainingVector(schema *Schema, row Row) Vector {
	values := make([]float64, schema.Len())
	Encode(schema, &row, values)
	return Vector{schema: schema, values: values}
}
