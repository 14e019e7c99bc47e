// Postwise - Optimal Posting Time Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/postwise

package dataset

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

// ErrDataUnavailable is returned when no usable historical data could be loaded.
var ErrDataUnavailable = errors.New("historical data unavailable")

// ContentType is the kind of a post.
type ContentType string

// Known content types. Any other value is treated as unknown.
const (
	ContentText  ContentType = "text"
	ContentImage ContentType = "image"
	ContentVideo ContentType = "video"
	ContentLink  ContentType = "link"
)

// ContentTypes lists the known content types in their canonical order.
var ContentTypes = []ContentType{ContentText, ContentImage, ContentVideo, ContentLink}

// Valid reports whether c is one of the known content types.
func (c ContentType) Valid() bool {
	switch c {
	case ContentText, ContentImage, ContentVideo, ContentLink:
		return true
	}
	return false
}

// ParseContentType normalizes s and reports whether it names a known type.
func ParseContentType(s string) (ContentType, bool) {
	c := ContentType(strings.ToLower(strings.TrimSpace(s)))
	return c, c.Valid()
}

// Record is one historical post with its performance counters.
// Records are values and are never mutated after loading.
type Record struct {
	Channel     string
	ContentType ContentType

	// RawTimestamp is the timestamp exactly as the source provided it.
	RawTimestamp string
	// Timestamp is the parsed UTC time. It is zero when TimestampValid is false.
	Timestamp      time.Time
	TimestampValid bool

	TitleLength int
	HasBody     bool
	BodyLength  int

	Score         float64
	UpvoteRatio   float64
	NumComments   float64
	NumAwards     float64
	NumCrossposts float64
	Subscribers   float64
}

// WithChannel returns a copy of r tagged with channel.
func (r Record) WithChannel(channel string) Record {
	r.Channel = channel
	return r
}

// rawRecord is a source row before normalization. Title and Body are nil
// when the source has no such column, in which case the length columns are
// used instead.
type rawRecord struct {
	Created  string
	PostType string
	Title    *string
	Body     *string

	TitleLength   float64
	BodyLength    float64
	Score         float64
	UpvoteRatio   float64
	NumComments   float64
	NumAwards     float64
	NumCrossposts float64
	Subscribers   float64
}

func (r rawRecord) build(channel string) Record {
	ts, valid := ParseTimestamp(r.Created)

	rec := Record{
		Channel:        channel,
		ContentType:    ContentType(strings.ToLower(strings.TrimSpace(r.PostType))),
		RawTimestamp:   r.Created,
		Timestamp:      ts,
		TimestampValid: valid,
		Score:          r.Score,
		UpvoteRatio:    r.UpvoteRatio,
		NumComments:    r.NumComments,
		NumAwards:      r.NumAwards,
		NumCrossposts:  r.NumCrossposts,
		Subscribers:    r.Subscribers,
	}

	if r.Title != nil {
		rec.TitleLength = utf8.RuneCountInString(*r.Title)
	} else if r.TitleLength > 0 {
		rec.TitleLength = int(r.TitleLength)
	}

	if r.Body != nil {
		if strings.TrimSpace(*r.Body) != "" {
			rec.HasBody = true
			rec.BodyLength = utf8.RuneCountInString(*r.Body)
		}
	} else if r.BodyLength > 0 {
		rec.HasBody = true
		rec.BodyLength = int(r.BodyLength)
	}
	return rec
}
