// Postwise - Optimal Posting Time Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/postwise

package dataset

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDuckDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := OpenDuckDB("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestDuckDBProvider_LoadsChannels(t *testing.T) {
	db := openTestDuckDB(t)
	ctx := context.Background()

	_, err := db.ExecContext(ctx, `CREATE TABLE posts (
		channel VARCHAR,
		created_utc DOUBLE,
		post_type VARCHAR,
		title VARCHAR,
		body VARCHAR,
		score VARCHAR,
		upvote_ratio DOUBLE,
		num_comments INTEGER
	)`)
	require.NoError(t, err)

	_, err = db.ExecContext(ctx, `INSERT INTO posts VALUES
		('python', 1704132000, 'image', 'Plot', NULL, '12', 0.9, 3),
		('golang', 1704132000, 'text', 'Generics', 'a body', 'oops', 0.7, NULL),
		('golang', NULL, 'link', 'Broken', NULL, '1', 0.5, 0)`)
	require.NoError(t, err)

	provider := NewDuckDBProvider(db, DuckDBTable{Name: "posts"})
	sources, err := provider.Sources(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"golang", "python"}, channelsOf(sources))

	golang, err := sources[0].Load(ctx)
	require.NoError(t, err)
	require.Len(t, golang, 2)

	var valid, invalid Record
	for _, r := range golang {
		if r.TimestampValid {
			valid = r
		} else {
			invalid = r
		}
	}
	assert.Equal(t, "golang", valid.Channel)
	assert.Equal(t, ContentText, valid.ContentType)
	assert.Equal(t, 18, valid.Timestamp.Hour())
	assert.Equal(t, 8, valid.TitleLength)
	assert.True(t, valid.HasBody)
	assert.Equal(t, 6, valid.BodyLength)
	assert.Equal(t, 0.0, valid.Score, "unparseable text score coerces to zero")
	assert.Equal(t, 0.0, valid.NumComments)
	assert.Equal(t, ContentLink, invalid.ContentType)

	python, err := sources[1].Load(ctx)
	require.NoError(t, err)
	require.Len(t, python, 1)
	assert.False(t, python[0].HasBody)
	assert.Equal(t, 12.0, python[0].Score)
	assert.Equal(t, 0.0, python[0].Subscribers, "missing optional column reads as zero")
}

func TestDuckDBSource_MissingTimestampColumn(t *testing.T) {
	db := openTestDuckDB(t)
	ctx := context.Background()

	_, err := db.ExecContext(ctx, `CREATE TABLE thin (channel VARCHAR, score DOUBLE)`)
	require.NoError(t, err)

	_, err = NewDuckDBSource(db, DuckDBTable{Name: "thin"}, "a").Load(ctx)
	assert.ErrorIs(t, err, ErrMissingColumn)
}

func TestDuckDBTable_RejectsUnsafeIdentifiers(t *testing.T) {
	db := openTestDuckDB(t)

	_, err := NewDuckDBProvider(db, DuckDBTable{Name: "posts; DROP TABLE x"}).Sources(context.Background())
	assert.Error(t, err)

	_, err = NewDuckDBSource(db, DuckDBTable{Name: "posts", ChannelColumn: "a b"}, "x").Load(context.Background())
	assert.Error(t, err)
}
