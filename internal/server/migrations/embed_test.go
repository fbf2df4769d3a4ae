package migrations

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func TestDir(t *testing.T) {
	assert.Equal(t, "postgres", Dir("postgres"))
	assert.Equal(t, "sqlite", Dir("sqlite3"))
}

func TestUp_SQLiteCreatesTables(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, Up(context.Background(), db, "sqlite3"))

	for _, table := range []string{"accounts", "tokens", "deck_columns"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		require.NoError(t, err, table)
	}

	// idempotent
	require.NoError(t, Up(context.Background(), db, "sqlite3"))
}

func TestUp_UnknownDialect(t *testing.T) {
	err := Up(context.Background(), nil, "oracle-ish")
	require.Error(t, err)
}

func TestUp_PropagatesGooseError(t *testing.T) {
	orig := gooseUpContext
	t.Cleanup(func() { gooseUpContext = orig })

	var gotDir string
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		gotDir = dir
		return errors.New("boom")
	}

	err := Up(context.Background(), nil, "postgres")
	require.ErrorContains(t, err, "boom")
	assert.Equal(t, "postgres", gotDir)
}
