// Postwise - Optimal Posting Time Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/postwise

package timeprediction

import (
	"fmt"
	"time"

	"github.com/tomtom215/postwise/internal/gbm"
)

// Config contains all configuration for the time prediction engine.
type Config struct {
	// Weights defines the relative contribution of each tier.
	// Weights are renormalized over the tiers that answer a request.
	Weights TierWeights `json:"weights"`

	// Confidence controls how tier agreement maps to a confidence score.
	Confidence ConfidenceConfig `json:"confidence"`

	// Fallback is the answer given when no model set is loaded.
	Fallback FallbackConfig `json:"fallback"`

	// Training contains training parameters.
	Training TrainingConfig `json:"training"`

	// Seed is the random seed for deterministic behavior.
	// It overrides the seed of both boosting parameter sets.
	Seed int64 `json:"seed"`
}

// TierWeights defines the relative contribution of each tier.
type TierWeights struct {
	Global  float64 `json:"global"`
	Channel float64 `json:"channel"`
	Content float64 `json:"content"`
}

// For returns the weight of a tier kind.
func (w TierWeights) For(kind TierKind) float64 {
	switch kind {
	case TierGlobal:
		return w.Global
	case TierChannel:
		return w.Channel
	case TierContent:
		return w.Content
	}
	return 0
}

// ConfidenceConfig maps tier disagreement to confidence.
type ConfidenceConfig struct {
	// Single is the confidence reported when only one tier answered.
	// Default: 0.7.
	Single float64 `json:"single"`

	// Floor and Cap bound the multi-tier confidence.
	// Default: 0.3 and 1.0.
	Floor float64 `json:"floor"`
	Cap   float64 `json:"cap"`

	// VarianceScale is the variance (in hours²) at which confidence reaches 0
	// before clamping. Default: 100.
	VarianceScale float64 `json:"variance_scale"`

	// Circular measures disagreement on the 24 hour clock, so that 23:00
	// and 00:00 are one hour apart. Default: false.
	Circular bool `json:"circular"`
}

// FallbackConfig is the answer returned while no model set is loaded.
type FallbackConfig struct {
	Hour       int     `json:"hour"`
	Confidence float64 `json:"confidence"`
}

// TrainingConfig contains training parameters.
type TrainingConfig struct {
	// MinSamples is the minimum subset size for a specialist tier.
	// Default: 100.
	MinSamples int `json:"min_samples"`

	// Global holds the boosting parameters of the global tier.
	Global gbm.Params `json:"global"`

	// Specialist holds the boosting parameters of channel and content tiers.
	Specialist gbm.Params `json:"specialist"`

	// Workers bounds how many specialist tiers train at once.
	// Default: 4.
	Workers int `json:"workers"`

	// EvalFraction is the share of rows held out to report the global
	// tier's test error. Zero disables evaluation. Default: 0.2.
	EvalFraction float64 `json:"eval_fraction"`

	// Timeout bounds one training run.
	// Default: 10m.
	Timeout time.Duration `json:"timeout"`

	// RetainVersions is how many published model sets the store keeps.
	// Default: 3.
	RetainVersions int `json:"retain_versions"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	global := gbm.DefaultParams()

	specialist := gbm.DefaultParams()
	specialist.NumTrees = 50
	specialist.MaxDepth = 4

	return &Config{
		Weights: TierWeights{
			Global:  0.3,
			Channel: 0.5,
			Content: 0.2,
		},
		Confidence: ConfidenceConfig{
			Single:        0.7,
			Floor:         0.3,
			Cap:           1.0,
			VarianceScale: 100,
		},
		Fallback: FallbackConfig{
			Hour:       12,
			Confidence: 0.5,
		},
		Training: TrainingConfig{
			MinSamples:     100,
			Global:         global,
			Specialist:     specialist,
			Workers:        4,
			EvalFraction:   0.2,
			Timeout:        10 * time.Minute,
			RetainVersions: 3,
		},
		Seed: 42, // Default seed for determinism
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	w := c.Weights
	if w.Global < 0 || w.Channel < 0 || w.Content < 0 {
		return fmt.Errorf("weights must be non-negative, got %+v", w)
	}
	if w.Global+w.Channel+w.Content == 0 {
		return fmt.Errorf("at least one tier weight must be positive")
	}

	cf := c.Confidence
	if cf.Single < 0 || cf.Single > 1 {
		return fmt.Errorf("confidence.single must be in [0, 1], got %f", cf.Single)
	}
	if cf.Floor < 0 || cf.Cap > 1 || cf.Floor > cf.Cap {
		return fmt.Errorf("confidence bounds must satisfy 0 <= floor <= cap <= 1, got floor=%f cap=%f", cf.Floor, cf.Cap)
	}
	if cf.VarianceScale <= 0 {
		return fmt.Errorf("confidence.variance_scale must be positive, got %f", cf.VarianceScale)
	}

	if c.Fallback.Hour < 0 || c.Fallback.Hour > 23 {
		return fmt.Errorf("fallback.hour must be in [0, 23], got %d", c.Fallback.Hour)
	}
	if c.Fallback.Confidence < 0 || c.Fallback.Confidence > 1 {
		return fmt.Errorf("fallback.confidence must be in [0, 1], got %f", c.Fallback.Confidence)
	}

	t := c.Training
	if t.MinSamples < 1 {
		return fmt.Errorf("training.min_samples must be positive, got %d", t.MinSamples)
	}
	if err := t.Global.Validate(); err != nil {
		return fmt.Errorf("training.global: %w", err)
	}
	if err := t.Specialist.Validate(); err != nil {
		return fmt.Errorf("training.specialist: %w", err)
	}
	if t.Workers < 1 {
		return fmt.Errorf("training.workers must be positive, got %d", t.Workers)
	}
	if t.EvalFraction < 0 || t.EvalFraction >= 1 {
		return fmt.Errorf("training.eval_fraction must be in [0, 1), got %f", t.EvalFraction)
	}
	if t.Timeout <= 0 {
		return fmt.Errorf("training.timeout must be positive, got %v", t.Timeout)
	}
	if t.RetainVersions < 1 {
		return fmt.Errorf("training.retain_versions must be positive, got %d", t.RetainVersions)
	}

	return nil
}

// Clone returns a copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// globalParams returns the global tier parameters with the config seed applied.
func (c *Config) globalParams() gbm.Params {
	p := c.Training.Global
	p.Seed = c.Seed
	return p
}

// specialistParams returns the specialist parameters with the config seed applied.
func (c *Config) specialistParams() gbm.Params {
	p := c.Training.Specialist
	p.Seed = c.Seed
	return p
}
