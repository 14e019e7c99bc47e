// Postwise - Optimal Posting Time Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/postwise

package features

import (
	"time"

	"github.com/tomtom215/postwise/internal/dataset"
)

// Season names used in the season one-hot group.
const (
	SeasonWinter = "Winter"
	SeasonSpring = "Spring"
	SeasonSummer = "Summer"
	SeasonFall   = "Fall"
)

// Time slot names used in the time slot one-hot group.
const (
	SlotNight     = "Night"
	SlotMorning   = "Morning"
	SlotAfternoon = "Afternoon"
	SlotEvening   = "Evening"
)

// commentWeight scales comments in the engagement composite.
const commentWeight = 0.1

// Row is an engineered training row.
type Row struct {
	Record dataset.Record

	Hour       int
	DayOfWeek  int // Monday=0
	DayOfMonth int
	Month      int
	Year       int
	Weekend    bool
	Season     string
	TimeSlot   string

	// Composite is the engagement score used for labeling only.
	Composite float64
}

// SeasonOf maps a month to its meteorological season.
func SeasonOf(m time.Month) string {
	switch m {
	case time.December, time.January, time.February:
		return SeasonWinter
	case time.March, time.April, time.May:
		return SeasonSpring
	case time.June, time.July, time.August:
		return SeasonSummer
	default:
		return SeasonFall
	}
}

// TimeSlotOf maps an hour to its six-hour slot.
func TimeSlotOf(hour int) string {
	switch {
	case hour < 6:
		return SlotNight
	case hour < 12:
		return SlotMorning
	case hour < 18:
		return SlotAfternoon
	default:
		return SlotEvening
	}
}

// Composite is the engagement score: score × upvote_ratio × (1 + comments × 0.1).
func Composite(r dataset.Record) float64 {
	return r.Score * r.UpvoteRatio * (1 + r.NumComments*commentWeight)
}

// Engineer derives rows from records, dropping those without a valid
// timestamp. It returns the rows and the number dropped.
func Engineer(records []dataset.Record) ([]Row, int) {
	rows := make([]Row, 0, len(records))
	dropped := 0
	for _, rec := range records {
		if !rec.TimestampValid {
			dropped++
			continue
		}
		rows = append(rows, engineerRow(rec))
	}
	return rows, dropped
}

func engineerRow(rec dataset.Record) Row {
	ts := rec.Timestamp.UTC()
	dow := (int(ts.Weekday()) + 6) % 7
	return Row{
		Record:     rec,
		Hour:       ts.Hour(),
		DayOfWeek:  dow,
		DayOfMonth: ts.Day(),
		Month:      int(ts.Month()),
		Year:       ts.Year(),
		Weekend:    dow >= 5,
		Season:     SeasonOf(ts.Month()),
		TimeSlot:   TimeSlotOf(ts.Hour()),
		Composite:  Composite(rec),
	}
}

// Encode writes the row's values for schema into dst, which must have
// schema.Len() elements. Columns the row has no value for stay zero.
func Encode(schema *Schema, row *Row, dst []float64) {
	set := func(name string, v float64) {
		if i, ok := schema.Index(name); ok {
			dst[i] = v
		}
	}
	rec := &row.Record

	set(ColHour, float64(row.Hour))
	set(ColDayOfWeek, float64(row.DayOfWeek))
	set(ColDayOfMonth, float64(row.DayOfMonth))
	set(ColMonth, float64(row.Month))
	set(ColYear, float64(row.Year))
	set(ColIsWeekend, boolValue(row.Weekend))
	set(ColTitleLength, float64(rec.TitleLength))
	set(ColHasBody, boolValue(rec.HasBody))
	set(ColBodyLength, float64(rec.BodyLength))
	setContentFlags(set, rec.ContentType)
	set(ColScore, rec.Score)
	set(ColUpvoteRatio, rec.UpvoteRatio)
	set(ColNumComments, rec.NumComments)
	set(ColNumAwards, rec.NumAwards)
	set(ColNumCrossposts, rec.NumCrossposts)
	set(ColSubscribers, rec.Subscribers)

	set(SeasonPrefix+row.Season, 1)
	set(TimeSlotPrefix+row.TimeSlot, 1)
	set(ChannelPrefix+rec.Channel, 1)
}

// Matrix encodes rows against schema. Row i of the result belongs to rows[i].
func Matrix(schema *Schema, rows []Row) [][]float64 {
	width := schema.Len()
	backing := make([]float64, width*len(rows))
	X := make([][]float64, len(rows))
	for i := range rows {
		X[i] = backing[i*width : (i+1)*width : (i+1)*width]
		Encode(schema, &rows[i], X[i])
	}
	return X
}

func setContentFlags(set func(string, float64), ct dataset.ContentType) {
	set(ColIsText, boolValue(ct == dataset.ContentText))
	set(ColIsImage, boolValue(ct == dataset.ContentImage))
	set(ColIsVideo, boolValue(ct == dataset.ContentVideo))
	set(ColIsLink, boolValue(ct == dataset.ContentLink))
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
