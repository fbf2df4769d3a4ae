package accounts

import (
	"context"

	"github.com/taurisky/taurisky/internal/models"
)

// Repository persists registered accounts. Get and GetByDID return
// common.ErrorNotFound for unknown keys.
type Repository interface {
	Save(ctx context.Context, account *models.Account) error
	Get(ctx context.Context, id string) (*models.Account, error)
	GetByDID(ctx context.Context, did string) (*models.Account, error)
	List(ctx context.Context) ([]models.Account, error)
	Delete(ctx context.Context, id string) error
}
