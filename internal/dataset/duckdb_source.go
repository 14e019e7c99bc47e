// Postwise - Optimal Posting Time Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/postwise

package dataset

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	_ "github.com/duckdb/duckdb-go/v2"
)

// DefaultChannelColumn is the column holding the channel id in DuckDB tables.
const DefaultChannelColumn = "channel"

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// OpenDuckDB opens a DuckDB database for reading historical records.
// An empty path opens an in-memory database.
func OpenDuckDB(path string) (*sql.DB, error) {
	connStr := ":memory:?autoinstall_known_extensions=false&autoload_known_extensions=false"
	if path != "" {
		connStr = path + "?access_mode=read_only&autoinstall_known_extensions=false&autoload_known_extensions=false"
	}
	db, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open duckdb: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to duckdb: %w", err)
	}
	return db, nil
}

// DuckDBTable describes where historical records live inside a database.
type DuckDBTable struct {
	Name          string
	ChannelColumn string
}

func (t DuckDBTable) validate() error {
	if !identPattern.MatchString(t.Name) {
		return fmt.Errorf("invalid table name %q", t.Name)
	}
	if !identPattern.MatchString(t.channelColumn()) {
		return fmt.Errorf("invalid channel column %q", t.ChannelColumn)
	}
	return nil
}

func (t DuckDBTable) channelColumn() string {
	if t.ChannelColumn == "" {
		return DefaultChannelColumn
	}
	return t.ChannelColumn
}

// DuckDBSource reads one channel's records from a DuckDB table.
type DuckDBSource struct {
	db      *sql.DB
	table   DuckDBTable
	channel string
}

// NewDuckDBSource creates a source for channel in table.
func NewDuckDBSource(db *sql.DB, table DuckDBTable, channel string) *DuckDBSource {
	return &DuckDBSource{db: db, table: table, channel: channel}
}

// Channel returns the channel this source filters on.
func (s *DuckDBSource) Channel() string { return s.channel }

// Load queries the channel's rows. Optional columns missing from the table
// read as empty, matching the CSV reader.
func (s *DuckDBSource) Load(ctx context.Context) ([]Record, error) {
	if err := s.table.validate(); err != nil {
		return nil, err
	}

	columns, err := tableColumns(ctx, s.db, s.table.Name)
	if err != nil {
		return nil, err
	}
	if !columns[colCreated] {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, colCreated)
	}

	query := buildRecordQuery(s.table, columns)
	rows, err := s.db.QueryContext(ctx, query, s.channel)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", s.table.Name, err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			raw         rawRecord
			created     sql.NullString
			postType    sql.NullString
			title, body sql.NullString
		)
		if err := rows.Scan(&created, &postType, &title, &body,
			&raw.TitleLength, &raw.BodyLength, &raw.Score, &raw.UpvoteRatio,
			&raw.NumComments, &raw.NumAwards, &raw.NumCrossposts, &raw.Subscribers); err != nil {
			return nil, fmt.Errorf("scan %s: %w", s.table.Name, err)
		}

		raw.Created = created.String
		raw.PostType = postType.String
		if columns[colTitle] && title.Valid {
			raw.Title = &title.String
		}
		if columns[colBody] {
			// NULL body means no body, not an unknown one.
			raw.Body = &body.String
		}
		records = append(records, raw.build(s.channel))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", s.table.Name, err)
	}
	return records, nil
}

func tableColumns(ctx context.Context, db *sql.DB, table string) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT lower(column_name) FROM information_schema.columns WHERE table_name = ?", table)
	if err != nil {
		return nil, fmt.Errorf("describe %s: %w", table, err)
	}
	defer rows.Close()

	columns := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("describe %s: %w", table, err)
		}
		columns[name] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("describe %s: %w", table, err)
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("table %s not found", table)
	}
	return columns, nil
}

func buildRecordQuery(table DuckDBTable, columns map[string]bool) string {
	text := func(name string) string {
		if !columns[name] {
			return "NULL::VARCHAR"
		}
		return fmt.Sprintf("CAST(%s AS VARCHAR)", name)
	}
	number := func(name string) string {
		if !columns[name] {
			return "0::DOUBLE"
		}
		return fmt.Sprintf("COALESCE(TRY_CAST(%s AS DOUBLE), 0)", name)
	}

	selects := []string{
		text(colCreated),
		text(colPostType),
		text(colTitle),
		text(colBody),
		number(colTitleLength),
		number(colBodyLength),
		number(colScore),
		number(colUpvoteRatio),
		number(colNumComments),
		number(colNumAwards),
		number(colNumCrossposts),
		number(colSubscribers),
	}
	return fmt.Sprintf("SELECT %s FROM %s WHERE %s = ?",
		strings.Join(selects, ", "), table.Name, table.channelColumn())
}
