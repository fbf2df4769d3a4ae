// Package migrations embeds the goose schema migrations of the SQL storage
// drivers, one directory per dialect.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

//go:embed postgres/*.sql sqlite/*.sql
var Migrations embed.FS

// Dir returns the migration directory for a goose dialect name.
func Dir(dialect string) string {
	if dialect == "postgres" {
		return "postgres"
	}
	return "sqlite"
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// Up applies all pending migrations for dialect ("sqlite3" or "postgres").
func Up(ctx context.Context, db *sql.DB, dialect string) error {
	goose.SetBaseFS(Migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := gooseUpContext(ctx, db, Dir(dialect)); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}
