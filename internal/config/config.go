// Postwise - Optimal Posting Time Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/postwise

package config

import (
	"time"

	"github.com/tomtom215/postwise/internal/gbm"
	"github.com/tomtom215/postwise/internal/logging"
	"github.com/tomtom215/postwise/internal/timeprediction"
)

// Config holds all application configuration
type Config struct {
	Data     DataConfig     `koanf:"data"`
	Models   ModelsConfig   `koanf:"models"`
	Training TrainingConfig `koanf:"training"`
	Ensemble EnsembleConfig `koanf:"ensemble"`
	Server   ServerConfig   `koanf:"server"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// DataConfig describes where historical post records come from.
// At least one of Dir and DuckDB.Path must be set.
type DataConfig struct {
	// Dir holds one <channel>.csv per channel.
	Dir string `koanf:"dir"`

	// Exclude lists base names under Dir that are never read,
	// e.g. consolidated outputs.
	Exclude []string `koanf:"exclude"`

	DuckDB DuckDBConfig `koanf:"duckdb"`
}

// DuckDBConfig points at a table of historical records in a DuckDB file.
type DuckDBConfig struct {
	Path          string `koanf:"path"`
	Table         string `koanf:"table" validate:"required_with=Path,omitempty,max=128"`
	ChannelColumn string `koanf:"channel_column" validate:"omitempty,max=128"`
}

// Enabled reports whether a DuckDB source is configured.
func (d DuckDBConfig) Enabled() bool { return d.Path != "" }

// ModelsConfig controls where trained model sets are persisted.
type ModelsConfig struct {
	Path    string `koanf:"path" validate:"required"`
	Backend string `koanf:"backend" validate:"oneof=file badger"`
	Retain  int    `koanf:"retain" validate:"min=1,max=100"`
}

// TrainingConfig controls when and how models are trained.
type TrainingConfig struct {
	// Schedule is a cron expression for retraining. Empty disables the
	// schedule and Interval is used instead.
	Schedule string `koanf:"schedule" validate:"omitempty,cron"`

	// Interval retrains on a fixed period when Schedule is empty.
	// Zero disables periodic training.
	Interval time.Duration `koanf:"interval" validate:"min=0"`

	OnStartup    bool          `koanf:"on_startup"`
	Timeout      time.Duration `koanf:"timeout" validate:"gt=0"`
	Workers      int           `koanf:"workers" validate:"min=1,max=64"`
	MinSamples   int           `koanf:"min_samples" validate:"min=1"`
	EvalFraction float64       `koanf:"eval_fraction" validate:"gte=0,lt=1"`
	Seed         int64         `koanf:"seed"`

	Global     gbm.Params `koanf:"global"`
	Specialist gbm.Params `koanf:"specialist"`
}

// EnsembleConfig controls how tier answers are combined.
type EnsembleConfig struct {
	Weights WeightsConfig `koanf:"weights"`

	// Circular measures tier disagreement on the 24 hour clock.
	Circular bool `koanf:"circular"`
}

// WeightsConfig holds the relative weight of each tier.
type WeightsConfig struct {
	Global  float64 `koanf:"global" validate:"gte=0"`
	Channel float64 `koanf:"channel" validate:"gte=0"`
	Content float64 `koanf:"content" validate:"gte=0"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `koanf:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `koanf:"write_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`

	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_requests" validate:"min=0"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window" validate:"min=0"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"log_level"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// ToLoggingConfig converts to the logging package's configuration.
func (l LoggingConfig) ToLoggingConfig() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = l.Level
	cfg.Format = l.Format
	cfg.Caller = l.Caller
	return cfg
}

// EngineConfig builds the prediction engine configuration from the
// training and ensemble sections. Settings without a counterpart here keep
// their engine defaults.
func (c *Config) EngineConfig() *timeprediction.Config {
	ec := timeprediction.DefaultConfig()

	ec.Weights = timeprediction.TierWeights{
		Global:  c.Ensemble.Weights.Global,
		Channel: c.Ensemble.Weights.Channel,
		Content: c.Ensemble.Weights.Content,
	}
	ec.Confidence.Circular = c.Ensemble.Circular

	ec.Training.MinSamples = c.Training.MinSamples
	ec.Training.Global = c.Training.Global
	ec.Training.Specialist = c.Training.Specialist
	ec.Training.Workers = c.Training.Workers
	ec.Training.EvalFraction = c.Training.EvalFraction
	ec.Training.Timeout = c.Training.Timeout
	ec.Training.RetainVersions = c.Models.Retain
	ec.Seed = c.Training.Seed

	return ec
}
