package columns

import (
	"context"

	"github.com/taurisky/taurisky/internal/models"
)

// Repository persists the deck layout as a whole list. Load returns columns
// ordered by position (empty when nothing was saved yet). Save replaces the
// stored list, stamps updatedAt on every column and rejects an empty list
// with common.ErrNoColumns.
type Repository interface {
	Load(ctx context.Context) ([]models.DeckColumnConfig, error)
	Save(ctx context.Context, columns []models.DeckColumnConfig) error
}
