package tokens

import (
	"context"

	"github.com/taurisky/taurisky/internal/models"
)

// Repository persists one session token per account. Get returns
// common.ErrorNotFound when the account has no token; Delete is idempotent.
type Repository interface {
	Save(ctx context.Context, token models.AuthToken) error
	Get(ctx context.Context, accountID string) (*models.AuthToken, error)
	Delete(ctx context.Context, accountID string) error
}
