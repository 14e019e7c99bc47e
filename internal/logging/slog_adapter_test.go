// Postwise - Optimal Posting Time Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/postwise

package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func slogTo(buf *bytes.Buffer, level zerolog.Level) *slog.Logger {
	return slog.New(NewSlogHandler(zerolog.New(buf).Level(level)))
}

func lastEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	return entry
}

func TestSlogHandlerLevels(t *testing.T) {
	prev := zerolog.GlobalLevel()
	zerolog.SetGlobalLevel(zerolog.TraceLevel)
	t.Cleanup(func() { zerolog.SetGlobalLevel(prev) })

	tests := []struct {
		level slog.Level
		want  string
	}{
		{slog.LevelDebug, "debug"},
		{slog.LevelInfo, "info"},
		{slog.LevelWarn, "warn"},
		{slog.LevelError, "error"},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		slogTo(&buf, zerolog.TraceLevel).Log(context.Background(), tt.level, "msg")
		assert.Equal(t, tt.want, lastEntry(t, &buf)["level"])
	}
}

func TestSlogHandlerEnabled(t *testing.T) {
	var buf bytes.Buffer
	h := NewSlogHandler(zerolog.New(&buf).Level(zerolog.WarnLevel))

	assert.False(t, h.Enabled(context.Background(), slog.LevelInfo))
	assert.False(t, h.Enabled(context.Background(), slog.LevelDebug))
	assert.True(t, h.Enabled(context.Background(), slog.LevelWarn))
	assert.True(t, h.Enabled(context.Background(), slog.LevelError))
}

func TestSlogHandlerAttributes(t *testing.T) {
	var buf bytes.Buffer
	logger := slogTo(&buf, zerolog.TraceLevel).With("service", "trainer")

	logger.Info("restarting",
		"attempt", 3,
		"ratio", 0.5,
		"ok", true,
		"backoff", 2*time.Second,
		"err", errors.New("boom"),
	)

	entry := lastEntry(t, &buf)
	assert.Equal(t, "restarting", entry["message"])
	assert.Equal(t, "trainer", entry["service"])
	assert.Equal(t, float64(3), entry["attempt"])
	assert.Equal(t, 0.5, entry["ratio"])
	assert.Equal(t, true, entry["ok"])
	assert.Equal(t, "boom", entry["err"])
	assert.Contains(t, entry, "backoff")
}

func TestSlogHandlerGroups(t *testing.T) {
	var buf bytes.Buffer
	logger := slogTo(&buf, zerolog.TraceLevel).WithGroup("supervisor").With("name", "root")

	logger.Info("event", slog.Group("service", slog.String("id", "http")))

	entry := lastEntry(t, &buf)
	assert.Equal(t, "root", entry["supervisor.name"])
	assert.Equal(t, "http", entry["supervisor.service.id"])
}

func TestSlogHandlerEmptyGroupIsNoop(t *testing.T) {
	h := NewSlogHandler(zerolog.Nop())
	assert.Same(t, h, h.WithGroup(""))
}
