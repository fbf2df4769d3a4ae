// Package repomanager selects a storage driver and vends the account, token
// and column repositories bound to it.
package repomanager

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/taurisky/taurisky/internal/cryptox"
	"github.com/taurisky/taurisky/internal/filex"
	"github.com/taurisky/taurisky/internal/server/repositories/accounts"
	"github.com/taurisky/taurisky/internal/server/repositories/columns"
	"github.com/taurisky/taurisky/internal/server/repositories/tokens"
)

// Storage driver names accepted by Open.
const (
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// SaltFileName holds the argon2 salt of the storage key.
const SaltFileName = "salt.bin"

var ErrUnknownDriver = errors.New("unknown storage driver")

type RepositoryManager interface {
	Accounts() accounts.Repository
	Tokens() tokens.Repository
	Columns() columns.Repository
	Close() error
}

// Options configures Open.
type Options struct {
	Driver  string
	DataDir string
	DSN     string // sqlite file path or postgres URL; sqlite defaults to <DataDir>/taurisky.db
}

// OpenSealer prepares the data directory and derives the storage key from
// the master password. The sealer protects tokens, storage.enc and backups.
func OpenSealer(dataDir, masterPassword string) (*cryptox.Sealer, error) {
	dir, err := filex.EnsureDir(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	key, err := LoadKey(dir, masterPassword)
	if err != nil {
		return nil, err
	}
	return cryptox.NewSealer(key)
}

// Open returns the manager for the configured driver.
func Open(ctx context.Context, opts Options, sealer *cryptox.Sealer) (RepositoryManager, error) {
	dir, err := filex.EnsureDir(opts.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	switch opts.Driver {
	case DriverFile, "":
		return NewFileManager(dir, sealer), nil
	case DriverSQLite:
		dsn := opts.DSN
		if dsn == "" {
			dsn = filepath.Join(dir, "taurisky.db")
		}
		return NewSQLManager(ctx, DriverSQLite, dsn, sealer)
	case DriverPostgres:
		return NewSQLManager(ctx, DriverPostgres, opts.DSN, sealer)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, opts.Driver)
	}
}

// LoadKey derives the storage key from password and the salt stored in dir,
// creating the salt on first use.
func LoadKey(dir, password string) ([]byte, error) {
	path := filepath.Join(dir, SaltFileName)

	salt, err := filex.ReadFileIfExists(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read salt file: %w", err)
	}
	if salt == nil {
		salt = cryptox.GenerateSalt()
		if err := filex.WriteFileAtomic(path, salt, 0o600); err != nil {
			return nil, fmt.Errorf("failed to write salt file: %w", err)
		}
	}

	return cryptox.DeriveKey([]byte(password), salt), nil
}
