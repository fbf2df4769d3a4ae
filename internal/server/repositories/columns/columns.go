// Package columns stores the deck column layout.
package columns

import (
	"sort"
	"time"

	"github.com/taurisky/taurisky/internal/common"
	"github.com/taurisky/taurisky/internal/models"
)

// prepare validates a list for saving and returns a stamped copy.
func prepare(cols []models.DeckColumnConfig, now time.Time) ([]models.DeckColumnConfig, error) {
	if len(cols) == 0 {
		return nil, common.ErrNoColumns
	}

	out := models.CloneColumns(cols)
	for i := range out {
		if err := out[i].Validate(); err != nil {
			return nil, err
		}
		out[i].UpdatedAt = now
	}
	return out, nil
}

func sortByPosition(cols []models.DeckColumnConfig) {
	sort.SliceStable(cols, func(i, j int) bool { return cols[i].Position < cols[j].Position })
}
