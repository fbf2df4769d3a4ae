// Package tokens stores AT Protocol session tokens. Tokens are sealed with
// the storage key before they reach the database.
package tokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/taurisky/taurisky/internal/common"
	"github.com/taurisky/taurisky/internal/cryptox"
	"github.com/taurisky/taurisky/internal/dbx"
	"github.com/taurisky/taurisky/internal/models"
)

type SQLRepository struct {
	db      dbx.DBTX
	dialect string
	sealer  *cryptox.Sealer
}

func NewSQLRepository(db dbx.DBTX, dialect string, sealer *cryptox.Sealer) *SQLRepository {
	return &SQLRepository{db: db, dialect: dialect, sealer: sealer}
}

func (r *SQLRepository) Save(ctx context.Context, token models.AuthToken) error {
	payload, err := r.sealer.SealJSON(token)
	if err != nil {
		return fmt.Errorf("seal token: %w", err)
	}

	query := `INSERT INTO tokens (account_id, payload, access_expires_at) VALUES (?, ?, ?)
		ON CONFLICT (account_id) DO UPDATE SET payload = excluded.payload, access_expires_at = excluded.access_expires_at`

	_, err = r.db.ExecContext(ctx, dbx.Rebind(r.dialect, query),
		token.AccountID, payload, token.AccessExpiresAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *SQLRepository) Get(ctx context.Context, accountID string) (*models.AuthToken, error) {
	var payload string
	err := r.db.QueryRowContext(ctx, dbx.Rebind(r.dialect, `SELECT payload FROM tokens WHERE account_id = ?`), accountID).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	var token models.AuthToken
	if err := r.sealer.OpenJSON(payload, &token); err != nil {
		return nil, fmt.Errorf("open token: %w", err)
	}
	return &token, nil
}

func (r *SQLRepository) Delete(ctx context.Context, accountID string) error {
	_, err := r.db.ExecContext(ctx, dbx.Rebind(r.dialect, `DELETE FROM tokens WHERE account_id = ?`), accountID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
