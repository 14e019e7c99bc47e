// Postwise - Optimal Posting Time Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/postwise

package features

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Base column names, in schema order.
const (
	ColHour          = "hour"
	ColDayOfWeek     = "day_of_week"
	ColDayOfMonth    = "day_of_month"
	ColMonth         = "month"
	ColYear          = "year"
	ColIsWeekend     = "is_weekend"
	ColTitleLength   = "title_length"
	ColHasBody       = "has_body"
	ColBodyLength    = "body_length"
	ColIsImage       = "is_image"
	ColIsVideo       = "is_video"
	ColIsText        = "is_text"
	ColIsLink        = "is_link"
	ColScore         = "score"
	ColUpvoteRatio   = "upvote_ratio"
	ColNumComments   = "num_comments"
	ColNumAwards     = "num_awards"
	ColNumCrossposts = "num_crossposts"
	ColSubscribers   = "subscribers"
)

// One-hot group prefixes.
const (
	SeasonPrefix   = "season_"
	TimeSlotPrefix = "time_slot_"
	ChannelPrefix  = "channel_"
)

// BaseColumns is the fixed leading part of every schema.
var BaseColumns = []string{
	ColHour, ColDayOfWeek, ColDayOfMonth, ColMonth, ColYear, ColIsWeekend,
	ColTitleLength, ColHasBody, ColBodyLength,
	ColIsImage, ColIsVideo, ColIsText, ColIsLink,
	ColScore, ColUpvoteRatio, ColNumComments, ColNumAwards, ColNumCrossposts, ColSubscribers,
}

// ErrEmptySchema is returned when building a schema with no columns.
var ErrEmptySchema = errors.New("schema has no columns")

// Schema is an immutable ordered list of feature column names.
type Schema struct {
	columns []string
	index   map[string]int
}

// NewSchema builds a schema from columns. Names must be unique and non-empty.
func NewSchema(columns []string) (*Schema, error) {
	if len(columns) == 0 {
		return nil, ErrEmptySchema
	}
	s := &Schema{
		columns: make([]string, len(columns)),
		index:   make(map[string]int, len(columns)),
	}
	for i, name := range columns {
		if name == "" {
			return nil, fmt.Errorf("column %d has no name", i)
		}
		if _, dup := s.index[name]; dup {
			return nil, fmt.Errorf("duplicate column %q", name)
		}
		s.columns[i] = name
		s.index[name] = i
	}
	return s, nil
}

// BuildSchema derives the training schema from engineered rows: the base
// columns, then the season, time slot and channel groups with the values
// present in rows.
func BuildSchema(rows []Row) *Schema {
	seasons := make(map[string]struct{})
	slots := make(map[string]struct{})
	channels := make(map[string]struct{})
	for i := range rows {
		seasons[rows[i].Season] = struct{}{}
		slots[rows[i].TimeSlot] = struct{}{}
		channels[rows[i].Record.Channel] = struct{}{}
	}

	columns := append([]string(nil), BaseColumns...)
	columns = append(columns, group(SeasonPrefix, seasons)...)
	columns = append(columns, group(TimeSlotPrefix, slots)...)
	columns = append(columns, group(ChannelPrefix, channels)...)

	s, _ := NewSchema(columns)
	return s
}

func group(prefix string, values map[string]struct{}) []string {
	out := make([]string, 0, len(values))
	for v := range values {
		out = append(out, prefix+v)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of columns.
func (s *Schema) Len() int {
	if s == nil {
		return 0
	}
	return len(s.columns)
}

// Columns returns a copy of the column names in order.
func (s *Schema) Columns() []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s.columns...)
}

// Index returns the position of name.
func (s *Schema) Index(name string) (int, bool) {
	if s == nil {
		return 0, false
	}
	i, ok := s.index[name]
	return i, ok
}

// Channels returns the channel ids one-hot encoded by this schema.
func (s *Schema) Channels() []string {
	var out []string
	for _, c := range s.Columns() {
		if strings.HasPrefix(c, ChannelPrefix) {
			out = append(out, strings.TrimPrefix(c, ChannelPrefix))
		}
	}
	return out
}

// Equal reports whether both schemas have the same columns in the same order.
func (s *Schema) Equal(other *Schema) bool {
	if s.Len() != other.Len() {
		return false
	}
	if s.Len() == 0 {
		return true
	}
	for i := range s.columns {
		if s.columns[i] != other.columns[i] {
			return false
		}
	}
	return true
}

// Vector is a feature vector bound to the schema that produced it.
type Vector struct {
	schema *Schema
	values []float64
}

// Schema returns the vector's schema.
func (v Vector) Schema() *Schema { return v.schema }

// Values returns the column values in schema order.
// The slice is shared with the vector and must not be modified.
func (v Vector) Values() []float64 { return v.values }

// Get returns the value of a named column.
func (v Vector) Get(name string) (float64, bool) {
	i, ok := v.schema.Index(name)
	if !ok {
		return 0, false
	}
	return v.values[i], true
}
