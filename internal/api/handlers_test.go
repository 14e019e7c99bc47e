// Postwise - Optimal Posting Time Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/postwise

package api

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomtom215/postwise/internal/models"
	"github.com/tomtom215/postwise/internal/timeprediction"
)

type stubPredictor struct {
	result timeprediction.PredictionResult
	scan   []timeprediction.HourPrediction
	status timeprediction.ModelStatus

	gotChannel string
	gotContent string
	gotExtras  map[string]float64
	gotHours   []int
}

func (s *stubPredictor) Predict(channel, contentType string, extras map[string]float64) timeprediction.PredictionResult {
	s.gotChannel, s.gotContent, s.gotExtras = channel, contentType, extras
	res := s.result
	res.Channel = channel
	res.ContentType = contentType
	return res
}

func (s *stubPredictor) PredictHours(channel, contentType string, hours []int, _ map[string]float64) []timeprediction.HourPrediction {
	s.gotChannel, s.gotContent, s.gotHours = channel, contentType, hours
	return s.scan
}

func (s *stubPredictor) Status() timeprediction.ModelStatus {
	return s.status
}

func newTestRouter(p Predictor) http.Handler {
	mw := NewChiMiddlewareFromServer([]string{"*"}, 0, 0, true)
	return NewRouter(NewHandler(p), mw)
}

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, models.APIResponse) {
	t.Helper()
	var reader *bytes.Reader
	if body == "" {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var resp models.APIResponse
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	}
	return rec, resp
}

// dataAs re-decodes the generic Data field into dst.
func dataAs(t *testing.T, resp models.APIResponse, dst interface{}) {
	t.Helper()
	raw, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, dst))
}

func TestPredictOptimalTime_Success(t *testing.T) {
	stub := &stubPredictor{result: timeprediction.PredictionResult{
		OptimalHour:  14,
		Predictions:  map[string]int{"global": 14, "channel": 14},
		Confidence:   0.876,
		Status:       timeprediction.StatusSuccess,
		ModelVersion: 3,
	}}
	router := newTestRouter(stub)

	rec, resp := do(t, router, http.MethodPost, "/api/v1/predict/optimal-time",
		`{"channel":"golang","content_type":"text","user_data":{"title_length":42,"has_flair":true,"note":"x"}}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "success", resp.Status)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Equal(t, rec.Header().Get("X-Request-ID"), resp.Metadata.RequestID)

	var out models.OptimalTimeResponse
	dataAs(t, resp, &out)
	assert.Equal(t, 14, out.OptimalHour)
	assert.Equal(t, "Afternoon", out.OptimalTimeSlot)
	assert.Equal(t, "14:00", out.FormattedTime)
	assert.Equal(t, "golang", out.Channel)
	assert.Equal(t, "success", out.Status)
	assert.Equal(t, 3, out.ModelVersion)
	assert.Equal(t, []string{
		"Best time to post in golang is 14:00",
		"Time slot: Afternoon",
		"Confidence: 87.6%",
	}, out.Suggestions)

	assert.Equal(t, "golang", stub.gotChannel)
	assert.Equal(t, "text", stub.gotContent)
	assert.Equal(t, map[string]float64{"title_length": 42, "has_flair": 1}, stub.gotExtras)
}

func TestPredictOptimalTime_SubredditAlias(t *testing.T) {
	stub := &stubPredictor{result: timeprediction.PredictionResult{OptimalHour: 9, Status: timeprediction.StatusFallback}}
	router := newTestRouter(stub)

	rec, resp := do(t, router, http.MethodPost, "/api/v1/predict/optimal-time",
		`{"subreddit":"python","content_type":"image"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "python", stub.gotChannel)

	var out models.OptimalTimeResponse
	dataAs(t, resp, &out)
	assert.Equal(t, "fallback", out.Status)
	assert.Equal(t, "Morning", out.OptimalTimeSlot)
}

func TestPredictOptimalTime_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		code string
	}{
		{"empty body", "", "VALIDATION_ERROR"},
		{"malformed json", `{"channel": nope}`, "INVALID_JSON"},
		{"missing channel", `{"content_type":"text"}`, "VALIDATION_ERROR"},
		{"missing content type", `{"channel":"golang"}`, "VALIDATION_ERROR"},
		{"unknown content type", `{"channel":"golang","content_type":"podcast"}`, "VALIDATION_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubPredictor{}
			rec, resp := do(t, newTestRouter(stub), http.MethodPost, "/api/v1/predict/optimal-time", tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "error", resp.Status)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
			assert.Empty(t, stub.gotChannel, "engine must not be called")
		})
	}
}

func TestPredictOptimalTime_EngineError(t *testing.T) {
	stub := &stubPredictor{result: timeprediction.PredictionResult{
		Status: timeprediction.StatusError,
		Error:  "feature vector mismatch",
	}}

	rec, resp := do(t, newTestRouter(stub), http.MethodPost, "/api/v1/predict/optimal-time",
		`{"channel":"golang","content_type":"link"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "PREDICTION_ERROR", resp.Error.Code)
	assert.NotContains(t, rec.Body.String(), "feature vector mismatch")
}

func TestPredictTimeEngagement(t *testing.T) {
	stub := &stubPredictor{scan: []timeprediction.HourPrediction{
		{Hour: 9, OptimalHour: 10, Confidence: 0.5, Status: timeprediction.StatusSuccess},
		{Hour: 21, OptimalHour: 20, Confidence: 0.6, Status: timeprediction.StatusSuccess},
	}}

	rec, resp := do(t, newTestRouter(stub), http.MethodPost, "/api/v1/predict/time-engagement",
		`{"channel":"golang","content_type":"video","hours":[9,21]}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []int{9, 21}, stub.gotHours)

	var out models.TimeEngagementResponse
	dataAs(t, resp, &out)
	assert.Equal(t, "golang", out.Channel)
	assert.Equal(t, "video", out.ContentType)
	require.Len(t, out.HourlyPredictions, 2)
	assert.Equal(t, "Morning", out.HourlyPredictions[0].TimeSlot)
	assert.Equal(t, "Evening", out.HourlyPredictions[1].TimeSlot)
}

func TestPredictTimeEngagement_DefaultHours(t *testing.T) {
	stub := &stubPredictor{}
	rec, _ := do(t, newTestRouter(stub), http.MethodPost, "/api/v1/predict/time-engagement",
		`{"channel":"golang","content_type":"text"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, stub.gotHours)
}

func TestPredictTimeEngagement_HourOutOfRange(t *testing.T) {
	rec, resp := do(t, newTestRouter(&stubPredictor{}), http.MethodPost, "/api/v1/predict/time-engagement",
		`{"channel":"golang","content_type":"text","hours":[9,24]}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
}

func TestTimeStatus(t *testing.T) {
	trainedAt := time.Date(2026, 1, 2, 3, 0, 0, 0, time.UTC)

	t.Run("available", func(t *testing.T) {
		stub := &stubPredictor{status: timeprediction.ModelStatus{
			ModelsAvailable: true,
			GlobalModel:     true,
			ChannelModels:   2,
			ContentModels:   4,
			Channels:        []string{"golang", "python"},
			Version:         5,
			TrainedAt:       &trainedAt,
			Training:        timeprediction.TrainingStatus{LastTrainedAt: trainedAt, LastDurationMS: 1200},
		}}

		rec, resp := do(t, newTestRouter(stub), http.MethodGet, "/api/v1/time/status", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var out models.ModelStatusResponse
		dataAs(t, resp, &out)
		assert.Equal(t, "available", out.Status)
		assert.True(t, out.ModelsLoaded)
		assert.Equal(t, 2, out.ChannelModels)
		assert.Equal(t, 5, out.ModelVersion)
		require.NotNil(t, out.Training.LastTrainedAt)
		assert.True(t, trainedAt.Equal(*out.Training.LastTrainedAt))
		assert.Empty(t, out.Message)
	})

	t.Run("not available", func(t *testing.T) {
		stub := &stubPredictor{status: timeprediction.ModelStatus{
			Training: timeprediction.TrainingStatus{IsTraining: true, Stage: "global", Progress: 0.25},
		}}

		_, resp := do(t, newTestRouter(stub), http.MethodGet, "/api/v1/time/status", "")

		var out models.ModelStatusResponse
		dataAs(t, resp, &out)
		assert.Equal(t, "not_available", out.Status)
		assert.NotEmpty(t, out.Message)
		assert.True(t, out.Training.IsTraining)
		assert.Equal(t, "global", out.Training.Stage)
		assert.Nil(t, out.Training.LastTrainedAt)
	})
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name      string
		available bool
		want      string
	}{
		{"healthy", true, "healthy"},
		{"degraded", false, "degraded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubPredictor{status: timeprediction.ModelStatus{ModelsAvailable: tt.available}}
			rec, resp := do(t, newTestRouter(stub), http.MethodGet, "/health", "")

			require.Equal(t, http.StatusOK, rec.Code)
			var out models.HealthStatus
			dataAs(t, resp, &out)
			assert.Equal(t, tt.want, out.Status)
			assert.Equal(t, tt.available, out.ModelsAvailable)
		})
	}
}

func TestNotFoundAndMethodNotAllowed(t *testing.T) {
	router := newTestRouter(&stubPredictor{})

	rec, resp := do(t, router, http.MethodGet, "/api/v1/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)

	rec, resp = do(t, router, http.MethodGet, "/api/v1/predict/optimal-time", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "METHOD_NOT_ALLOWED", resp.Error.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	router := newTestRouter(&stubPredictor{})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "# HELP")
}

func TestNumericExtras(t *testing.T) {
	assert.Nil(t, numericExtras(nil))
	assert.Equal(t, map[string]float64{"a": 1.5, "b": 0, "c": 1},
		numericExtras(map[string]interface{}{"a": 1.5, "b": false, "c": true, "d": "x", "e": nil}))
}
