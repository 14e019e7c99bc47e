// Postwise - Optimal Posting Time Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/postwise

/*
Package main is the entry point for the Postwise prediction server.

Postwise learns, per community channel and content type, which hour of the
day a post earns the most engagement, and serves that prediction over HTTP.

# Application Architecture

	RootSupervisor ("postwise")
	├── TrainingSupervisor ("training-layer")
	│   └── TrainingService (load persisted set, retrain on schedule)
	└── APISupervisor ("api-layer")
	    └── HTTP Server (chi router)

Initialization order:

 1. Configuration: koanf v2 (defaults, config.yaml, .env, environment)
 2. Logging: zerolog with json or console output
 3. Engine: model store (file or badger) and data providers (CSV directory, DuckDB)
 4. Supervisor tree with the training and HTTP services

Until a model set has been trained or loaded, predictions return the
fallback hour with status "fallback".

# Configuration

See internal/config for every key. Common environment variables:

	DATA_DIR=data/timeline        # one <channel>.csv export per channel
	MODEL_PATH=data/models        # where model sets are published
	MODEL_BACKEND=file            # file or badger
	TRAIN_SCHEDULE="0 3 * * *"    # cron; empty uses TRAIN_INTERVAL
	TRAIN_ON_STARTUP=true
	HTTP_PORT=5000
	LOG_LEVEL=info

# Signal Handling

SIGINT and SIGTERM cancel the root context. The HTTP server drains within
HTTP_SHUTDOWN_TIMEOUT; an in-flight training run is canceled and the active
model set is left unchanged.
*/
package main
