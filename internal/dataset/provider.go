// Postwise - Optimal Posting Time Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/postwise

package dataset

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultExclusions are file names in a data directory that are not channel
// exports.
var DefaultExclusions = []string{"50_subreddits_list.csv"}

// Provider discovers the sources for a training run.
type Provider interface {
	Sources(ctx context.Context) ([]Source, error)
}

// DirProvider discovers one CSVSource per *.csv file in a directory.
type DirProvider struct {
	dir     string
	exclude map[string]struct{}
}

// NewDirProvider creates a provider for dir. A nil exclude list uses
// DefaultExclusions.
func NewDirProvider(dir string, exclude []string) *DirProvider {
	if exclude == nil {
		exclude = DefaultExclusions
	}
	ex := make(map[string]struct{}, len(exclude))
	for _, name := range exclude {
		ex[name] = struct{}{}
	}
	return &DirProvider{dir: dir, exclude: ex}
}

// Sources lists the CSV exports in name order.
func (p *DirProvider) Sources(ctx context.Context) ([]Source, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(p.dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", p.dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			continue
		}
		if _, skip := p.exclude[e.Name()]; skip {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	sources := make([]Source, 0, len(names))
	for _, name := range names {
		sources = append(sources, NewCSVSource(filepath.Join(p.dir, name)))
	}
	return sources, nil
}

// DuckDBProvider discovers one DuckDBSource per distinct channel in a table.
type DuckDBProvider struct {
	db    *sql.DB
	table DuckDBTable
}

// NewDuckDBProvider creates a provider over table.
func NewDuckDBProvider(db *sql.DB, table DuckDBTable) *DuckDBProvider {
	return &DuckDBProvider{db: db, table: table}
}

// Sources lists the table's channels in lexical order.
func (p *DuckDBProvider) Sources(ctx context.Context) ([]Source, error) {
	if err := p.table.validate(); err != nil {
		return nil, err
	}

	col := p.table.channelColumn()
	query := fmt.Sprintf("SELECT DISTINCT CAST(%s AS VARCHAR) AS ch FROM %s WHERE %s IS NOT NULL ORDER BY ch",
		col, p.table.Name, col)
	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list channels in %s: %w", p.table.Name, err)
	}
	defer rows.Close()

	var sources []Source
	for rows.Next() {
		var channel string
		if err := rows.Scan(&channel); err != nil {
			return nil, fmt.Errorf("list channels in %s: %w", p.table.Name, err)
		}
		sources = append(sources, NewDuckDBSource(p.db, p.table, channel))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list channels in %s: %w", p.table.Name, err)
	}
	return sources, nil
}

// MultiProvider concatenates the sources of several providers. A provider
// that fails to list is an error only if every provider fails.
type MultiProvider []Provider

// Sources returns the union of all providers' sources in provider order.
func (m MultiProvider) Sources(ctx context.Context) ([]Source, error) {
	var (
		all      []Source
		firstErr error
		ok       int
	)
	for _, p := range m {
		sources, err := p.Sources(ctx)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		ok++
		all = append(all, sources...)
	}
	if ok == 0 && firstErr != nil {
		return nil, firstErr
	}
	return all, nil
}
