// Postwise - Optimal Posting Time Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/postwise

/*
Package config provides centralized configuration management for Postwise.

Configuration is loaded by Load in layers, later layers winning:

 1. Built-in defaults (defaultConfig)
 2. A YAML file: $CONFIG_PATH, else config.yaml, config.yml or /etc/postwise/config.yaml
 3. A .env file ($DOTENV_PATH or ./.env) that fills unset environment variables
 4. Environment variables, mapped explicitly by envTransformFunc

Unknown environment variables are ignored.

# Sections

  - data: CSV timeline directory and an optional DuckDB table of records
  - models: model store path, backend (file or badger) and retained versions
  - training: cron schedule, interval fallback, timeout, workers, boosting parameters
  - ensemble: tier weights and the circular confidence option
  - server: HTTP bind address, timeouts, CORS and rate limiting
  - logging: level, format and caller

# Environment Variables

Data:
  - DATA_DIR: Directory of <channel>.csv files (default: data/timeline)
  - DATA_EXCLUDE: Comma-separated base names to skip (default: 50_subreddits_list.csv)
  - DUCKDB_PATH, DUCKDB_TABLE, DUCKDB_CHANNEL_COLUMN: Optional DuckDB source

Models:
  - MODEL_PATH: Store location (default: data/models)
  - MODEL_BACKEND: file or badger (default: file)
  - MODEL_RETAIN: Published sets to keep (default: 3)

Training:
  - TRAIN_SCHEDULE: Cron expression (default: 0 3 * * *)
  - TRAIN_INTERVAL: Period used when TRAIN_SCHEDULE is empty (default: 24h)
  - TRAIN_ON_STARTUP: Train once when the server starts (default: false)
  - TRAIN_TIMEOUT, TRAIN_WORKERS, TRAIN_MIN_SAMPLES, TRAIN_EVAL_FRACTION, TRAIN_SEED
  - GLOBAL_NUM_TREES, GLOBAL_MAX_DEPTH, GLOBAL_LEARNING_RATE
  - SPECIALIST_NUM_TREES, SPECIALIST_MAX_DEPTH, SPECIALIST_LEARNING_RATE

Ensemble:
  - ENSEMBLE_WEIGHT_GLOBAL, ENSEMBLE_WEIGHT_CHANNEL, ENSEMBLE_WEIGHT_CONTENT (default: 0.3, 0.5, 0.2)
  - ENSEMBLE_CIRCULAR: Measure disagreement on the 24 hour clock (default: false)

Server:
  - HTTP_HOST, HTTP_PORT (default: 0.0.0.0:5000)
  - HTTP_READ_TIMEOUT, HTTP_WRITE_TIMEOUT, HTTP_SHUTDOWN_TIMEOUT
  - CORS_ORIGINS: Comma-separated origins (default: *)
  - RATE_LIMIT_REQUESTS, RATE_LIMIT_WINDOW, DISABLE_RATE_LIMIT

Logging:
  - LOG_LEVEL, LOG_FORMAT, LOG_CALLER

# Validation

Validate applies validator/v10 struct tags (including the cron and
log_level tags from the validation package), requires a data source and a
positive tier weight, and finally runs the engine's own Config.Validate on
EngineConfig.
*/
package config
