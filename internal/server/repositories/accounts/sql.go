// Package accounts stores registered Bluesky accounts.
package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/taurisky/taurisky/internal/common"
	"github.com/taurisky/taurisky/internal/dbx"
	"github.com/taurisky/taurisky/internal/models"
)

const selectColumns = `SELECT id, did, handle, email, display_name, avatar, server_url, created_at, last_used_at, is_active FROM accounts`

type SQLRepository struct {
	db      dbx.DBTX
	dialect string
}

func NewSQLRepository(db dbx.DBTX, dialect string) *SQLRepository {
	return &SQLRepository{db: db, dialect: dialect}
}

func (r *SQLRepository) q(query string) string {
	return dbx.Rebind(r.dialect, query)
}

func (r *SQLRepository) Save(ctx context.Context, a *models.Account) error {
	query := `INSERT INTO accounts (id, did, handle, email, display_name, avatar, server_url, created_at, last_used_at, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			did = excluded.did,
			handle = excluded.handle,
			email = excluded.email,
			display_name = excluded.display_name,
			avatar = excluded.avatar,
			server_url = excluded.server_url,
			last_used_at = excluded.last_used_at,
			is_active = excluded.is_active`

	_, err := r.db.ExecContext(ctx, r.q(query),
		a.ID, a.DID, a.Handle, a.Email, a.DisplayName, a.Avatar, a.ServerURL,
		a.CreatedAt.UnixMilli(), a.LastUsedAt.UnixMilli(), a.IsActive)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *SQLRepository) Get(ctx context.Context, id string) (*models.Account, error) {
	return r.getOne(ctx, selectColumns+` WHERE id = ?`, id)
}

func (r *SQLRepository) GetByDID(ctx context.Context, did string) (*models.Account, error) {
	return r.getOne(ctx, selectColumns+` WHERE did = ?`, did)
}

func (r *SQLRepository) getOne(ctx context.Context, query string, arg string) (*models.Account, error) {
	a, err := scanAccount(r.db.QueryRowContext(ctx, r.q(query), arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return a, nil
}

func (r *SQLRepository) List(ctx context.Context) ([]models.Account, error) {
	rows, err := r.db.QueryContext(ctx, selectColumns+` ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []models.Account{}
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account row: %w", err)
		}
		result = append(result, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate account rows: %w", err)
	}
	return result, nil
}

func (r *SQLRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, r.q(`DELETE FROM accounts WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(s scanner) (*models.Account, error) {
	var a models.Account
	var created, lastUsed int64
	if err := s.Scan(&a.ID, &a.DID, &a.Handle, &a.Email, &a.DisplayName, &a.Avatar, &a.ServerURL,
		&created, &lastUsed, &a.IsActive); err != nil {
		return nil, err
	}
	a.CreatedAt = time.UnixMilli(created).UTC()
	a.LastUsedAt = time.UnixMilli(lastUsed).UTC()
	return &a, nil
}
