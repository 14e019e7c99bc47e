// Postwise - Optimal Posting Time Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/postwise

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/tomtom215/postwise/internal/dataset"
	"github.com/tomtom215/postwise/internal/gbm"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/postwise/config.yaml",
	"/etc/postwise/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// DotEnvPathEnvVar overrides the .env file read before environment variables.
const DotEnvPathEnvVar = "DOTENV_PATH"

// defaultDotEnvPath is read when DOTENV_PATH is unset. A missing file is not an error.
const defaultDotEnvPath = ".env"

// defaultConfig returns a Config struct with all sensible default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	global := gbm.DefaultParams()

	specialist := gbm.DefaultParams()
	specialist.NumTrees = 50
	specialist.MaxDepth = 4

	return &Config{
		Data: DataConfig{
			Dir:     "data/timeline",
			Exclude: append([]string(nil), dataset.DefaultExclusions...),
			DuckDB: DuckDBConfig{
				ChannelColumn: "channel",
			},
		},
		Models: ModelsConfig{
			Path:    "data/models",
			Backend: "file",
			Retain:  3,
		},
		Training: TrainingConfig{
			Schedule:     "0 3 * * *", // Daily at 03:00
			Interval:     24 * time.Hour,
			OnStartup:    false,
			Timeout:      10 * time.Minute,
			Workers:      4,
			MinSamples:   100,
			EvalFraction: 0.2,
			Seed:         42,
			Global:       global,
			Specialist:   specialist,
		},
		Ensemble: EnsembleConfig{
			Weights: WeightsConfig{
				Global:  0.3,
				Channel: 0.5,
				Content: 0.2,
			},
			Circular: false,
		},
		Server: ServerConfig{
			Host:              "0.0.0.0",
			Port:              5000,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			ShutdownTimeout:   10 * time.Second,
			CORSOrigins:       []string{"*"},
			RateLimitReqs:     100,
			RateLimitWindow:   1 * time.Minute,
			RateLimitDisabled: false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Load loads configuration using Koanf v2 with layered sources:
//  1. Defaults: Built-in sensible defaults
//  2. Config File: Optional YAML config file (if exists)
//  3. .env File: Optional, fills environment variables that are not already set
//  4. Environment Variables: Override any setting
//
// Precedence is ENV > File > Defaults.
func Load() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: .env never overrides variables that are already set
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	// Layer 4: Environment variables (highest priority)
	// DATA_DIR -> data.dir, HTTP_PORT -> server.port
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Post-process slice fields from comma-separated strings
	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// loadDotEnv reads DOTENV_PATH, or .env, into the process environment.
func loadDotEnv() error {
	path := os.Getenv(DotEnvPathEnvVar)
	if path == "" {
		path = defaultDotEnvPath
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"data.exclude",
	"server.cors_origins",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
// Env vars come in as strings, but the config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps environment variable names (lowercased) to koanf paths.
var envMappings = map[string]string{
	// Data sources
	"data_dir":              "data.dir",
	"data_exclude":          "data.exclude",
	"duckdb_path":           "data.duckdb.path",
	"duckdb_table":          "data.duckdb.table",
	"duckdb_channel_column": "data.duckdb.channel_column",

	// Model store
	"model_path":    "models.path",
	"model_backend": "models.backend",
	"model_retain":  "models.retain",

	// Training
	"train_schedule":           "training.schedule",
	"train_interval":           "training.interval",
	"train_on_startup":         "training.on_startup",
	"train_timeout":            "training.timeout",
	"train_workers":            "training.workers",
	"train_min_samples":        "training.min_samples",
	"train_eval_fraction":      "training.eval_fraction",
	"train_seed":               "training.seed",
	"global_num_trees":         "training.global.num_trees",
	"global_max_depth":         "training.global.max_depth",
	"global_learning_rate":     "training.global.learning_rate",
	"specialist_num_trees":     "training.specialist.num_trees",
	"specialist_max_depth":     "training.specialist.max_depth",
	"specialist_learning_rate": "training.specialist.learning_rate",

	// Ensemble
	"ensemble_weight_global":  "ensemble.weights.global",
	"ensemble_weight_channel": "ensemble.weights.channel",
	"ensemble_weight_content": "ensemble.weights.content",
	"ensemble_circular":       "ensemble.circular",

	// Server
	"http_host":             "server.host",
	"http_port":             "server.port",
	"http_read_timeout":     "server.read_timeout",
	"http_write_timeout":    "server.write_timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",
	"cors_origins":          "server.cors_origins",
	"rate_limit_requests":   "server.rate_limit_requests",
	"rate_limit_window":     "server.rate_limit_window",
	"disable_rate_limit":    "server.rate_limit_disabled",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// Examples:
//   - DATA_DIR -> data.dir
//   - DUCKDB_PATH -> data.duckdb.path
//   - TRAIN_SCHEDULE -> training.schedule
//   - HTTP_PORT -> server.port
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}

	// For unmapped keys, return empty string to skip them
	// This prevents random environment variables from polluting config
	return ""
}
