// Postwise - Optimal Posting Time Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/postwise

// Package app assembles the prediction engine from configuration: the model
// store backend, the training data providers and the engine itself. Both
// binaries build through it so they share one wiring.
package app

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"

	"github.com/tomtom215/postwise/internal/config"
	"github.com/tomtom215/postwise/internal/dataset"
	"github.com/tomtom215/postwise/internal/timeprediction"
	"github.com/tomtom215/postwise/internal/timeprediction/storage"
)

// Components holds the engine and the resources it owns.
type Components struct {
	Engine *timeprediction.Engine

	duckDB   *sql.DB
	badgerDB *badger.DB
}

// Build creates the engine with its store and source provider attached.
// Resources opened before a failure are released and nil is returned.
//
//nolint:gocritic // hugeParam: logger passed by value for zerolog chaining
func Build(cfg *config.Config, logger zerolog.Logger) (c *Components, err error) {
	c = &Components{}
	defer func() {
		if err != nil {
			_ = c.Close()
			c = nil
		}
	}()

	c.Engine, err = timeprediction.NewEngine(cfg.EngineConfig(), logger)
	if err != nil {
		return c, err
	}

	store, err := c.openStore(cfg.Models, logger)
	if err != nil {
		return c, err
	}
	c.Engine.SetStore(store)

	provider, err := c.openProvider(cfg.Data)
	if err != nil {
		return c, err
	}
	c.Engine.SetSourceProvider(provider)

	logger.Info().
		Str("models_path", cfg.Models.Path).
		Str("backend", cfg.Models.Backend).
		Str("data_dir", cfg.Data.Dir).
		Bool("duckdb", cfg.Data.DuckDB.Enabled()).
		Msg("prediction engine initialized")

	return c, nil
}

//nolint:gocritic // hugeParam: logger passed by value for zerolog chaining
func (c *Components) openStore(cfg config.ModelsConfig, logger zerolog.Logger) (timeprediction.Store, error) {
	switch cfg.Backend {
	case "badger":
		db, err := storage.OpenBadger(cfg.Path)
		if err != nil {
			return nil, err
		}
		c.badgerDB = db
		return storage.NewBadgerStore(db, cfg.Retain, logger), nil
	case "", "file":
		return storage.NewFileStore(cfg.Path, cfg.Retain, logger)
	default:
		return nil, fmt.Errorf("unknown model backend %q", cfg.Backend)
	}
}

// openProvider combines the CSV directory and the DuckDB table when both
// are configured.
func (c *Components) openProvider(cfg config.DataConfig) (dataset.Provider, error) {
	var providers dataset.MultiProvider

	if cfg.Dir != "" {
		providers = append(providers, dataset.NewDirProvider(cfg.Dir, cfg.Exclude))
	}

	if cfg.DuckDB.Enabled() {
		db, err := dataset.OpenDuckDB(cfg.DuckDB.Path)
		if err != nil {
			return nil, err
		}
		c.duckDB = db
		providers = append(providers, dataset.NewDuckDBProvider(db, dataset.DuckDBTable{
			Name:          cfg.DuckDB.Table,
			ChannelColumn: cfg.DuckDB.ChannelColumn,
		}))
	}

	switch len(providers) {
	case 0:
		return nil, errors.New("no training data source configured")
	case 1:
		return providers[0], nil
	default:
		return providers, nil
	}
}

// Close releases the databases opened by Build.
func (c *Components) Close() error {
	if c == nil {
		return nil
	}
	var errs []error
	if c.badgerDB != nil {
		if err := c.badgerDB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close model store: %w", err))
		}
		c.badgerDB = nil
	}
	if c.duckDB != nil {
		if err := c.duckDB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close duckdb: %w", err))
		}
		c.duckDB = nil
	}
	return errors.Join(errs...)
}
