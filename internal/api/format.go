// Postwise - Optimal Posting Time Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/postwise

package api

import (
	"fmt"
	"math"

	"github.com/tomtom215/postwise/internal/features"
	"github.com/tomtom215/postwise/internal/models"
	"github.com/tomtom215/postwise/internal/timeprediction"
)

// FormatHour renders an hour as "HH:00".
func FormatHour(hour int) string {
	return fmt.Sprintf("%02d:00", hour)
}

// FormatPrediction turns an engine result into the display form, adding the
// time slot name, the clock string and three suggestions.
func FormatPrediction(res timeprediction.PredictionResult) models.OptimalTimeResponse {
	slot := features.TimeSlotOf(res.OptimalHour)
	clock := FormatHour(res.OptimalHour)

	predictions := res.Predictions
	if predictions == nil {
		predictions = map[string]int{}
	}

	return models.OptimalTimeResponse{
		OptimalHour:     res.OptimalHour,
		OptimalTimeSlot: slot,
		FormattedTime:   clock,
		Confidence:      res.Confidence,
		Channel:         res.Channel,
		ContentType:     res.ContentType,
		Status:          string(res.Status),
		Predictions:     predictions,
		ModelVersion:    res.ModelVersion,
		Error:           res.Error,
		Suggestions: []string{
			fmt.Sprintf("Best time to post in %s is %s", res.Channel, clock),
			"Time slot: " + slot,
			fmt.Sprintf("Confidence: %.1f%%", math.Round(res.Confidence*1000)/10),
		},
	}
}

// FormatHourly converts an hourly scan.
func FormatHourly(channel, contentType string, scan []timeprediction.HourPrediction) models.TimeEngagementResponse {
	out := models.TimeEngagementResponse{
		Channel:           channel,
		ContentType:       contentType,
		HourlyPredictions: make([]models.HourlyPrediction, 0, len(scan)),
	}
	for _, p := range scan {
		out.HourlyPredictions = append(out.HourlyPredictions, models.HourlyPrediction{
			Hour:        p.Hour,
			TimeSlot:    features.TimeSlotOf(p.OptimalHour),
			OptimalHour: p.OptimalHour,
			Confidence:  p.Confidence,
			Status:      string(p.Status),
		})
	}
	return out
}

// FormatStatus converts the engine status.
func FormatStatus(st timeprediction.ModelStatus) models.ModelStatusResponse {
	out := models.ModelStatusResponse{
		Status:        "not_available",
		ModelsLoaded:  st.ModelsAvailable,
		GlobalModel:   st.GlobalModel,
		ChannelModels: st.ChannelModels,
		ContentModels: st.ContentModels,
		Channels:      st.Channels,
		ModelVersion:  st.Version,
		TrainedAt:     st.TrainedAt,
		Training: models.TrainingState{
			IsTraining:     st.Training.IsTraining,
			Stage:          st.Training.Stage,
			RunID:          st.Training.RunID,
			Progress:       st.Training.Progress,
			LastError:      st.Training.LastError,
			LastDurationMS: st.Training.LastDurationMS,
		},
	}
	if st.ModelsAvailable {
		out.Status = "available"
	} else {
		out.Message = "Time prediction models not trained yet"
	}
	if !st.Training.LastTrainedAt.IsZero() {
		t := st.Training.LastTrainedAt
		out.Training.LastTrainedAt = &t
	}
	return out
}
