package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/taurisky/taurisky/internal/cryptox"
	"github.com/taurisky/taurisky/internal/dbx"
	"github.com/taurisky/taurisky/internal/server/migrations"
	"github.com/taurisky/taurisky/internal/server/repositories/accounts"
	"github.com/taurisky/taurisky/internal/server/repositories/columns"
	"github.com/taurisky/taurisky/internal/server/repositories/tokens"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// SQLManager serves the repositories from SQLite or PostgreSQL.
type SQLManager struct {
	db      *sql.DB
	dialect string
	sealer  *cryptox.Sealer
}

// sqlOpen is a seam for tests.
var sqlOpen = sql.Open

// NewSQLManager opens the database, runs migrations and returns the manager.
// driver is DriverSQLite or DriverPostgres.
func NewSQLManager(ctx context.Context, driver, dsn string, sealer *cryptox.Sealer) (*SQLManager, error) {
	var driverName, dialect string
	switch driver {
	case DriverSQLite:
		driverName, dialect = "sqlite", dbx.DialectSQLite
		dsn = dsn + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	case DriverPostgres:
		driverName, dialect = "pgx", dbx.DialectPostgres
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}

	db, err := sqlOpen(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
	}

	m, err := newSQLManager(ctx, db, dialect, sealer)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return m, nil
}

func newSQLManager(ctx context.Context, db *sql.DB, dialect string, sealer *cryptox.Sealer) (*SQLManager, error) {
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := migrations.Up(ctx, db, dialect); err != nil {
		return nil, err
	}
	return &SQLManager{db: db, dialect: dialect, sealer: sealer}, nil
}

func (m *SQLManager) Accounts() accounts.Repository {
	return accounts.NewSQLRepository(m.db, m.dialect)
}

func (m *SQLManager) Tokens() tokens.Repository {
	return tokens.NewSQLRepository(m.db, m.dialect, m.sealer)
}

func (m *SQLManager) Columns() columns.Repository {
	return columns.NewSQLRepository(m.db, m.dialect)
}

func (m *SQLManager) Close() error {
	return m.db.Close()
}
