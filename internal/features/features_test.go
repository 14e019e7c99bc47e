// Postwise - Optimal Posting Time Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/postwise

package features

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomtom215/postwise/internal/dataset"
)

func record(channel string, ct dataset.ContentType, ts time.Time) dataset.Record {
	return dataset.Record{
		Channel:        channel,
		ContentType:    ct,
		Timestamp:      ts,
		TimestampValid: true,
		TitleLength:    20,
		HasBody:        true,
		BodyLength:     140,
		Score:          100,
		UpvoteRatio:    0.9,
		NumComments:    10,
		NumAwards:      1,
		NumCrossposts:  2,
		Subscribers:    5000,
	}
}

func TestSeasonOf(t *testing.T) {
	tests := []struct {
		month time.Month
		want  string
	}{
		{time.December, SeasonWinter},
		{time.January, SeasonWinter},
		{time.February, SeasonWinter},
		{time.March, SeasonSpring},
		{time.May, SeasonSpring},
		{time.June, SeasonSummer},
		{time.August, SeasonSummer},
		{time.September, SeasonFall},
		{time.November, SeasonFall},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SeasonOf(tt.month), tt.month.String())
	}
}

func TestTimeSlotOf(t *testing.T) {
	tests := []struct {
		hour int
		want string
	}{
		{0, SlotNight}, {5, SlotNight},
		{6, SlotMorning}, {11, SlotMorning},
		{12, SlotAfternoon}, {17, SlotAfternoon},
		{18, SlotEvening}, {23, SlotEvening},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TimeSlotOf(tt.hour), "hour %d", tt.hour)
	}
}

func TestComposite(t *testing.T) {
	rec := dataset.Record{Score: 100, UpvoteRatio: 0.5, NumComments: 10}
	assert.InDelta(t, 100.0, Composite(rec), 1e-9)

	assert.Equal(t, 0.0, Composite(dataset.Record{UpvoteRatio: 1, NumComments: 5}))
}

func TestEngineer(t *testing.T) {
	// 2024-06-15 is a Saturday.
	sat := time.Date(2024, 6, 15, 18, 30, 0, 0, time.UTC)
	mon := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

	bad := record("a", dataset.ContentText, time.Time{})
	bad.TimestampValid = false

	rows, dropped := Engineer([]dataset.Record{
		record("a", dataset.ContentImage, sat),
		bad,
		record("b", dataset.ContentText, mon),
	})

	assert.Equal(t, 1, dropped)
	require.Len(t, rows, 2)

	r := rows[0]
	assert.Equal(t, 18, r.Hour)
	assert.Equal(t, 5, r.DayOfWeek)
	assert.True(t, r.Weekend)
	assert.Equal(t, 15, r.DayOfMonth)
	assert.Equal(t, 6, r.Month)
	assert.Equal(t, 2024, r.Year)
	assert.Equal(t, SeasonSummer, r.Season)
	assert.Equal(t, SlotEvening, r.TimeSlot)
	assert.InDelta(t, 180.0, r.Composite, 1e-9)

	assert.Equal(t, 0, rows[1].DayOfWeek)
	assert.False(t, rows[1].Weekend)
	assert.Equal(t, SeasonWinter, rows[1].Season)
	assert.Equal(t, SlotMorning, rows[1].TimeSlot)
}

func TestBuildSchema(t *testing.T) {
	rows, _ := Engineer([]dataset.Record{
		record("python", dataset.ContentImage, time.Date(2024, 6, 15, 18, 0, 0, 0, time.UTC)),
		record("golang", dataset.ContentText, time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)),
		record("golang", dataset.ContentText, time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)),
	})

	schema := BuildSchema(rows)
	want := append(append([]string(nil), BaseColumns...),
		"season_Summer", "season_Winter",
		"time_slot_Evening", "time_slot_Morning",
		"channel_golang", "channel_python",
	)
	assert.Equal(t, want, schema.Columns())
	assert.Equal(t, []string{"golang", "python"}, schema.Channels())
	assert.NotContains(t, schema.Columns(), "engagement")
}

func TestNewSchema_Validation(t *testing.T) {
	_, err := NewSchema(nil)
	assert.ErrorIs(t, err, ErrEmptySchema)

	_, err = NewSchema([]string{"a", "a"})
	assert.Error(t, err)

	_, err = NewSchema([]string{"a", ""})
	assert.Error(t, err)
}

func TestSchema_Equal(t *testing.T) {
	a, _ := NewSchema([]string{"x", "y"})
	b, _ := NewSchema([]string{"x", "y"})
	c, _ := NewSchema([]string{"y", "x"})

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(nil))
	assert.True(t, (*Schema)(nil).Equal(nil))
}

func TestMatrix(t *testing.T) {
	rows, _ := Engineer([]dataset.Record{
		record("python", dataset.ContentVideo, time.Date(2024, 3, 4, 2, 0, 0, 0, time.UTC)),
	})
	schema := BuildSchema(rows)
	X := Matrix(schema, rows)
	require.Len(t, X, 1)
	require.Len(t, X[0], schema.Len())

	v := Vector{schema: schema, values: X[0]}
	get := func(name string) float64 {
		val, ok := v.Get(name)
		require.True(t, ok, name)
		return val
	}
	assert.Equal(t, 2.0, get(ColHour))
	assert.Equal(t, 0.0, get(ColDayOfWeek))
	assert.Equal(t, 1.0, get(ColIsVideo))
	assert.Equal(t, 0.0, get(ColIsText))
	assert.Equal(t, 140.0, get(ColBodyLength))
	assert.Equal(t, 1.0, get("season_Spring"))
	assert.Equal(t, 1.0, get("time_slot_Night"))
	assert.Equal(t, 1.0, get("channel_python"))
}

func TestInferenceVector(t *testing.T) {
	schema, err := NewSchema(append(append([]string(nil), BaseColumns...),
		"season_Winter", "time_slot_Evening", "channel_golang", "channel_python"))
	require.NoError(t, err)

	t.Run("content and channel flags", func(t *testing.T) {
		v := InferenceVector(schema, Input{Channel: "python", ContentType: dataset.ContentImage})
		assert.Equal(t, schema, v.Schema())
		assert.Len(t, v.Values(), schema.Len())

		img, _ := v.Get(ColIsImage)
		txt, _ := v.Get(ColIsText)
		py, _ := v.Get("channel_python")
		golang, _ := v.Get("channel_golang")
		hour, _ := v.Get(ColHour)
		assert.Equal(t, 1.0, img)
		assert.Equal(t, 0.0, txt)
		assert.Equal(t, 1.0, py)
		assert.Equal(t, 0.0, golang)
		assert.Equal(t, 0.0, hour, "absent columns default to zero")
	})

	t.Run("signals override and unknown names are ignored", func(t *testing.T) {
		v := InferenceVector(schema, Input{
			Channel:     "golang",
			ContentType: dataset.ContentText,
			Signals: map[string]float64{
				ColHour:        18,
				ColIsText:      0,
				"not_a_column": 7,
				ColScore:       math.NaN(),
			},
		})
		hour, _ := v.Get(ColHour)
		txt, _ := v.Get(ColIsText)
		score, _ := v.Get(ColScore)
		assert.Equal(t, 18.0, hour)
		assert.Equal(t, 0.0, txt)
		assert.Equal(t, 0.0, score)
		_, ok := v.Get("not_a_column")
		assert.False(t, ok)
	})

	t.Run("signals cannot set another channel column", func(t *testing.T) {
		v := InferenceVector(schema, Input{
			Channel:     "golang",
			ContentType: dataset.ContentText,
			Signals:     map[string]float64{"channel_python": 1, "channel_golang": 0},
		})
		golang, _ := v.Get("channel_golang")
		py, _ := v.Get("channel_python")
		assert.Equal(t, 1.0, golang)
		assert.Equal(t, 0.0, py)
	})

	t.Run("unknown channel sets no channel column", func(t *testing.T) {
		v := InferenceVector(schema, Input{Channel: "rust", ContentType: dataset.ContentLink})
		for _, ch := range schema.Channels() {
			val, _ := v.Get(ChannelPrefix + ch)
			assert.Equal(t, 0.0, val)
		}
	})
}

func TestTrainingVectorMatchesMatrix(t *testing.T) {
	rows, _ := Engineer([]dataset.Record{
		record("a", dataset.ContentLink, time.Date(2024, 10, 1, 13, 0, 0, 0, time.UTC)),
	})
	schema := BuildSchema(rows)
	assert.Equal(t, Matrix(schema, rows)[0], TrainingVector(schema, rows[0]).Values())
}
