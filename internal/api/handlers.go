// Postwise - Optimal Posting Time Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/postwise

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/tomtom215/postwise/internal/models"
	"github.com/tomtom215/postwise/internal/timeprediction"
	"github.com/tomtom215/postwise/internal/validation"
)

// Version is reported by /health. Overridden at build time via ldflags.
var Version = "dev"

// Predictor is the subset of the engine the handlers need.
type Predictor interface {
	Predict(channel, contentType string, extras map[string]float64) timeprediction.PredictionResult
	PredictHours(channel, contentType string, hours []int, extras map[string]float64) []timeprediction.HourPrediction
	Status() timeprediction.ModelStatus
}

// Handler serves the prediction API.
type Handler struct {
	engine    Predictor
	startTime time.Time
}

// NewHandler creates a handler backed by engine.
func NewHandler(engine Predictor) *Handler {
	return &Handler{
		engine:    engine,
		startTime: time.Now(),
	}
}

// PredictOptimalTime handles POST /api/v1/predict/optimal-time.
func (h *Handler) PredictOptimalTime(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req models.OptimalTimeRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.Channel == "" {
		req.Channel = req.Subreddit
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		respondValidationError(w, r, verr)
		return
	}

	res := h.engine.Predict(req.Channel, req.ContentType, numericExtras(req.UserData))
	if res.Status == timeprediction.StatusError {
		respondError(w, r, http.StatusInternalServerError, "PREDICTION_ERROR",
			"Prediction failed", errors.New(res.Error))
		return
	}

	respondSuccess(w, r, FormatPrediction(res), start)
}

// PredictTimeEngagement handles POST /api/v1/predict/time-engagement.
// Without hours the default scan hours are used.
func (h *Handler) PredictTimeEngagement(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req models.TimeEngagementRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.Channel == "" {
		req.Channel = req.Subreddit
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		respondValidationError(w, r, verr)
		return
	}

	scan := h.engine.PredictHours(req.Channel, req.ContentType, req.Hours, nil)
	respondSuccess(w, r, FormatHourly(req.Channel, req.ContentType, scan), start)
}

// TimeStatus handles GET /api/v1/time/status.
func (h *Handler) TimeStatus(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	respondSuccess(w, r, FormatStatus(h.engine.Status()), start)
}

// Health handles GET /health. It always answers 200; a process without
// models reports "degraded".
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	st := h.engine.Status()

	health := models.HealthStatus{
		Status:          "healthy",
		Version:         Version,
		ModelsAvailable: st.ModelsAvailable,
		ModelVersion:    st.Version,
		Uptime:          time.Since(h.startTime).Seconds(),
	}
	if !st.ModelsAvailable {
		health.Status = "degraded"
	}

	respondSuccess(w, r, health, start)
}

// NotFound answers unknown routes with an error envelope.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	respondError(w, r, http.StatusNotFound, "NOT_FOUND", "Endpoint not found", nil)
}

// MethodNotAllowed answers known routes called with the wrong method.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	respondError(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := decodeJSON(w, r, dst); err != nil {
		if errors.Is(err, errEmptyBody) {
			respondError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "No data provided", nil)
			return false
		}
		respondError(w, r, http.StatusBadRequest, "INVALID_JSON", "Request body is not valid JSON", err)
		return false
	}
	return true
}

// numericExtras keeps the user_data entries a model can consume. Numbers
// pass through, booleans become 0 or 1, anything else is dropped.
func numericExtras(data map[string]interface{}) map[string]float64 {
	if len(data) == 0 {
		return nil
	}
	out := make(map[string]float64, len(data))
	for k, v := range data {
		switch val := v.(type) {
		case float64:
			out[k] = val
		case int:
			out[k] = float64(val)
		case int64:
			out[k] = float64(val)
		case bool:
			if val {
				out[k] = 1
			} else {
				out[k] = 0
			}
		}
	}
	return out
}
