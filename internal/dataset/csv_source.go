// Postwise - Optimal Posting Time Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/postwise

package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Column names recognized in CSV exports.
const (
	colCreated       = "created_utc"
	colPostType      = "post_type"
	colTitle         = "title"
	colBody          = "body"
	colTitleLength   = "title_length"
	colBodyLength    = "body_length"
	colScore         = "score"
	colUpvoteRatio   = "upvote_ratio"
	colNumComments   = "num_comments"
	colNumAwards     = "num_awards"
	colNumCrossposts = "num_crossposts"
	colSubscribers   = "subscribers"
)

// ErrMissingHeader is returned for a CSV file without a header row.
var ErrMissingHeader = errors.New("csv has no header row")

// ErrMissingColumn is returned when a required column is absent.
var ErrMissingColumn = errors.New("required column missing")

// ctxCheckInterval is how many rows are read between context checks.
const ctxCheckInterval = 1024

// Source yields the historical records of one channel.
type Source interface {
	// Channel returns the channel id every record of this source belongs to.
	Channel() string

	// Load reads all records. An error means the whole source is unreadable.
	Load(ctx context.Context) ([]Record, error)
}

// CSVSource reads one channel's records from a CSV export.
type CSVSource struct {
	path    string
	channel string
}

// NewCSVSource creates a source for path. The channel id is the file name
// without its extension.
func NewCSVSource(path string) *CSVSource {
	base := filepath.Base(path)
	return &CSVSource{
		path:    path,
		channel: strings.TrimSuffix(base, filepath.Ext(base)),
	}
}

// Channel returns the channel id derived from the file name.
func (s *CSVSource) Channel() string { return s.channel }

// Path returns the file path of the export.
func (s *CSVSource) Path() string { return s.path }

// Load reads the CSV file.
func (s *CSVSource) Load(ctx context.Context) ([]Record, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", s.path, err)
	}
	defer f.Close()

	records, err := ReadCSV(ctx, f, s.channel)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	return records, nil
}

// ReadCSV parses CSV data for one channel.
//
// Columns are matched by header name. Short rows are padded with empty
// values; rows wider than the header make the whole input unreadable.
// Rows whose timestamp cannot be parsed are kept with TimestampValid unset so
// that the feature stage can count them.
func ReadCSV(ctx context.Context, r io.Reader, channel string) ([]Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrMissingHeader
	}
	if err != nil {
		return nil, fmt.Errorf("parse header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, dup := cols[name]; !dup {
			cols[name] = i
		}
	}
	if _, ok := cols[colCreated]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, colCreated)
	}
	width := len(header)

	var records []Record
	for line := 2; ; line++ {
		if line%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse row: %w", err)
		}
		if len(row) > width {
			return nil, fmt.Errorf("row %d has %d fields, header has %d", line, len(row), width)
		}

		records = append(records, recordFromRow(channel, row, cols))
	}
	return records, nil
}

func recordFromRow(channel string, row []string, cols map[string]int) Record {
	field := func(name string) (string, bool) {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return "", false
		}
		return row[i], true
	}
	number := func(name string) float64 {
		v, _ := field(name)
		return parseNumber(v)
	}

	raw := rawRecord{
		TitleLength:   number(colTitleLength),
		BodyLength:    number(colBodyLength),
		Score:         number(colScore),
		UpvoteRatio:   number(colUpvoteRatio),
		NumComments:   number(colNumComments),
		NumAwards:     number(colNumAwards),
		NumCrossposts: number(colNumCrossposts),
		Subscribers:   number(colSubscribers),
	}
	raw.Created, _ = field(colCreated)
	raw.PostType, _ = field(colPostType)
	if title, ok := field(colTitle); ok {
		raw.Title = &title
	}
	if body, ok := field(colBody); ok {
		raw.Body = &body
	}
	return raw.build(channel)
}
