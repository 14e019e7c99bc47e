// Postwise - Optimal Posting Time Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/postwise

package config

import (
	"fmt"

	"github.com/tomtom215/postwise/internal/validation"
)

// Validate checks that required configuration is present and valid
func (c *Config) Validate() error {
	if verr := validation.ValidateStruct(c); verr != nil {
		return verr
	}

	if err := c.validateData(); err != nil {
		return err
	}

	if err := c.validateWeights(); err != nil {
		return err
	}

	return c.validateEngine()
}

// validateData requires at least one record source.
func (c *Config) validateData() error {
	if c.Data.Dir == "" && !c.Data.DuckDB.Enabled() {
		return fmt.Errorf("no training data source: set data.dir (DATA_DIR) or data.duckdb.path (DUCKDB_PATH)")
	}
	return nil
}

func (c *Config) validateWeights() error {
	w := c.Ensemble.Weights
	if w.Global+w.Channel+w.Content == 0 {
		return fmt.Errorf("ensemble.weights: at least one tier weight must be positive")
	}
	return nil
}

// validateEngine runs the engine's own checks, which cover the boosting
// parameters.
func (c *Config) validateEngine() error {
	if err := c.EngineConfig().Validate(); err != nil {
		return fmt.Errorf("training: %w", err)
	}
	return nil
}
