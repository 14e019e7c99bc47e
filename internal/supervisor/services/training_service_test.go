// Postwise - Optimal Posting Time Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/postwise

package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/postwise/internal/timeprediction"
)

// mockTrainingEngine records Load and Train calls.
type mockTrainingEngine struct {
	mu         sync.Mutex
	loadCalls  int
	trainCalls int
	loadErr    error
	trainErr   error
	trained    chan struct{}
}

func newMockTrainingEngine() *mockTrainingEngine {
	return &mockTrainingEngine{trained: make(chan struct{}, 16)}
}

func (m *mockTrainingEngine) Load(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadCalls++
	return m.loadErr
}

func (m *mockTrainingEngine) Train(_ context.Context) error {
	m.mu.Lock()
	m.trainCalls++
	err := m.trainErr
	m.mu.Unlock()

	select {
	case m.trained <- struct{}{}:
	default:
	}
	return err
}

func (m *mockTrainingEngine) counts() (loads, trains int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadCalls, m.trainCalls
}

func waitTrained(t *testing.T, m *mockTrainingEngine, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-m.trained:
		case <-time.After(2 * time.Second):
			t.Fatalf("expected %d training runs, saw %d", n, i)
		}
	}
}

func TestTrainingService_Interface(t *testing.T) {
	var _ suture.Service = (*TrainingService)(nil)
	var _ TrainingEngine = (*timeprediction.Engine)(nil)
}

func TestNewTrainingService(t *testing.T) {
	tests := []struct {
		name     string
		schedule string
		wantErr  bool
	}{
		{"empty schedule", "", false},
		{"nightly", "0 3 * * *", false},
		{"descriptor", "@hourly", false},
		{"seconds field rejected", "0 0 3 * * *", true},
		{"garbage", "whenever", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := NewTrainingService(newMockTrainingEngine(),
				TrainingServiceConfig{Schedule: tt.schedule}, zerolog.Nop())
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "invalid training schedule")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "training-service", svc.String())
		})
	}
}

func TestTrainingService_NextRun(t *testing.T) {
	now := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)

	t.Run("cron schedule wins over interval", func(t *testing.T) {
		svc, err := NewTrainingService(newMockTrainingEngine(),
			TrainingServiceConfig{Schedule: "0 3 * * *", Interval: time.Minute}, zerolog.Nop())
		require.NoError(t, err)

		next, ok := svc.nextRun(now)
		require.True(t, ok)
		assert.True(t, time.Date(2026, 3, 11, 3, 0, 0, 0, time.UTC).Equal(next), "got %s", next)
	})

	t.Run("interval fallback", func(t *testing.T) {
		svc, err := NewTrainingService(newMockTrainingEngine(),
			TrainingServiceConfig{Interval: 6 * time.Hour}, zerolog.Nop())
		require.NoError(t, err)

		next, ok := svc.nextRun(now)
		require.True(t, ok)
		assert.True(t, now.Add(6*time.Hour).Equal(next))
	})

	t.Run("nothing configured", func(t *testing.T) {
		svc, err := NewTrainingService(newMockTrainingEngine(), TrainingServiceConfig{}, zerolog.Nop())
		require.NoError(t, err)

		_, ok := svc.nextRun(now)
		assert.False(t, ok)
	})
}

func TestTrainingService_Serve(t *testing.T) {
	t.Run("loads then trains on startup", func(t *testing.T) {
		engine := newMockTrainingEngine()
		engine.loadErr = fmt.Errorf("%w: empty store", timeprediction.ErrModelNotTrained)
		svc, err := NewTrainingService(engine, TrainingServiceConfig{OnStartup: true}, zerolog.Nop())
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		errCh := make(chan error, 1)
		go func() { errCh <- svc.Serve(ctx) }()

		waitTrained(t, engine, 1)
		cancel()
		assert.ErrorIs(t, <-errCh, context.Canceled)

		loads, trains := engine.counts()
		assert.Equal(t, 1, loads)
		assert.Equal(t, 1, trains)
	})

	t.Run("retrains on interval and survives failures", func(t *testing.T) {
		engine := newMockTrainingEngine()
		engine.trainErr = errors.New("no data")
		svc, err := NewTrainingService(engine, TrainingServiceConfig{Interval: 10 * time.Millisecond}, zerolog.Nop())
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		errCh := make(chan error, 1)
		go func() { errCh <- svc.Serve(ctx) }()

		waitTrained(t, engine, 3)
		cancel()
		assert.ErrorIs(t, <-errCh, context.Canceled)
	})

	t.Run("busy engine is not an error", func(t *testing.T) {
		engine := newMockTrainingEngine()
		engine.trainErr = timeprediction.ErrTrainingInProgress
		svc, err := NewTrainingService(engine, TrainingServiceConfig{OnStartup: true}, zerolog.Nop())
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		errCh := make(chan error, 1)
		go func() { errCh <- svc.Serve(ctx) }()

		waitTrained(t, engine, 1)
		cancel()
		assert.ErrorIs(t, <-errCh, context.Canceled)
	})

	t.Run("restart skips load and startup run", func(t *testing.T) {
		engine := newMockTrainingEngine()
		svc, err := NewTrainingService(engine, TrainingServiceConfig{OnStartup: true}, zerolog.Nop())
		require.NoError(t, err)

		for i := 0; i < 2; i++ {
			ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
			_ = svc.Serve(ctx)
			cancel()
		}

		loads, trains := engine.counts()
		assert.Equal(t, 1, loads)
		assert.Equal(t, 1, trains)
	})
}
