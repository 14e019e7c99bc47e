// Postwise - Optimal Posting Time Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/postwise

package timeprediction

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, TierWeights{Global: 0.3, Channel: 0.5, Content: 0.2}, cfg.Weights)
	assert.Equal(t, 0.7, cfg.Confidence.Single)
	assert.Equal(t, 0.3, cfg.Confidence.Floor)
	assert.Equal(t, 1.0, cfg.Confidence.Cap)
	assert.Equal(t, 100.0, cfg.Confidence.VarianceScale)
	assert.False(t, cfg.Confidence.Circular)
	assert.Equal(t, 12, cfg.Fallback.Hour)
	assert.Equal(t, 0.5, cfg.Fallback.Confidence)
	assert.Equal(t, 100, cfg.Training.MinSamples)
	assert.Equal(t, 100, cfg.Training.Global.NumTrees)
	assert.Equal(t, 50, cfg.Training.Specialist.NumTrees)
	assert.Equal(t, 10*time.Minute, cfg.Training.Timeout)
	assert.Equal(t, int64(42), cfg.Seed)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative weight", func(c *Config) { c.Weights.Channel = -0.1 }},
		{"all weights zero", func(c *Config) { c.Weights = TierWeights{} }},
		{"single above one", func(c *Config) { c.Confidence.Single = 1.5 }},
		{"floor above cap", func(c *Config) { c.Confidence.Floor = 0.9; c.Confidence.Cap = 0.8 }},
		{"zero variance scale", func(c *Config) { c.Confidence.VarianceScale = 0 }},
		{"fallback hour out of range", func(c *Config) { c.Fallback.Hour = 24 }},
		{"fallback confidence out of range", func(c *Config) { c.Fallback.Confidence = -1 }},
		{"zero min samples", func(c *Config) { c.Training.MinSamples = 0 }},
		{"invalid global params", func(c *Config) { c.Training.Global.NumTrees = 0 }},
		{"invalid specialist params", func(c *Config) { c.Training.Specialist.LearningRate = 0 }},
		{"zero workers", func(c *Config) { c.Training.Workers = 0 }},
		{"eval fraction of one", func(c *Config) { c.Training.EvalFraction = 1 }},
		{"zero timeout", func(c *Config) { c.Training.Timeout = 0 }},
		{"zero retained versions", func(c *Config) { c.Training.RetainVersions = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestConfigSeedAppliesToParams(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Seed = 7
	cfg.Training.Global.Seed = 1
	cfg.Training.Specialist.Seed = 2

	assert.Equal(t, int64(7), cfg.globalParams().Seed)
	assert.Equal(t, int64(7), cfg.specialistParams().Seed)
}

func TestConfigClone(t *testing.T) {
	cfg := DefaultConfig()
	clone := cfg.Clone()
	clone.Weights.Global = 0.9
	clone.Training.MinSamples = 5

	assert.Equal(t, 0.3, cfg.Weights.Global)
	assert.Equal(t, 100, cfg.Training.MinSamples)
}

func TestTierWeightsFor(t *testing.T) {
	w := TierWeights{Global: 0.1, Channel: 0.2, Content: 0.3}
	assert.Equal(t, 0.1, w.For(TierGlobal))
	assert.Equal(t, 0.2, w.For(TierChannel))
	assert.Equal(t, 0.3, w.For(TierContent))
	assert.Equal(t, 0.0, w.For(TierKind("other")))
}
