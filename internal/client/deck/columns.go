package deck

import (
	"errors"
	"sort"
	"time"

	"github.com/taurisky/taurisky/internal/common"
	"github.com/taurisky/taurisky/internal/models"
)

var (
	ErrLastColumn     = common.ErrNoColumns
	ErrColumnNotFound = errors.New("column not found")
)

// Draft describes a column to add. Zero fields take defaults.
type Draft struct {
	DID      string
	Type     models.ColumnType
	Title    string
	Width    models.ColumnWidth
	Settings *models.ColumnSettings
}

// Patch lists the fields to change on an existing column; nil means keep.
type Patch struct {
	DID      *string
	Type     *models.ColumnType
	Title    *string
	Width    *models.ColumnWidth
	Settings *models.ColumnSettings
}

// newColumn builds the column for d with the given id at the end of a deck of
// length n.
func newColumn(id string, d Draft, n int, now time.Time) (models.DeckColumnConfig, error) {
	col := models.DeckColumnConfig{
		ID:        id,
		DID:       d.DID,
		Type:      d.Type,
		Title:     d.Title,
		Position:  n,
		Width:     d.Width,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if col.Type == "" {
		col.Type = models.ColumnTimeline
	}
	if col.Width == "" {
		col.Width = models.WidthMedium
	}
	if d.Settings != nil {
		s := d.Settings.Clone()
		col.Settings = &s
	}
	if err := col.Validate(); err != nil {
		return models.DeckColumnConfig{}, err
	}
	return col, nil
}

func applyAdd(cols []models.DeckColumnConfig, col models.DeckColumnConfig) []models.DeckColumnConfig {
	out := models.CloneColumns(cols)
	out = append(out, col.Clone())
	return reindex(out)
}

func applyRemove(cols []models.DeckColumnConfig, id string) ([]models.DeckColumnConfig, error) {
	if len(cols) <= 1 {
		return nil, ErrLastColumn
	}
	idx := indexOf(cols, id)
	if idx < 0 {
		return nil, ErrColumnNotFound
	}
	out := make([]models.DeckColumnConfig, 0, len(cols)-1)
	for i, c := range cols {
		if i != idx {
			out = append(out, c.Clone())
		}
	}
	return reindex(out), nil
}

func applyUpdate(cols []models.DeckColumnConfig, id string, p Patch, now time.Time) ([]models.DeckColumnConfig, error) {
	idx := indexOf(cols, id)
	if idx < 0 {
		return nil, ErrColumnNotFound
	}
	out := models.CloneColumns(cols)
	col := &out[idx]

	if p.DID != nil {
		col.DID = *p.DID
	}
	if p.Type != nil {
		col.Type = *p.Type
	}
	if p.Title != nil {
		col.Title = *p.Title
	}
	if p.Width != nil {
		col.Width = *p.Width
	}
	if p.Settings != nil {
		col.Settings = mergeSettings(col.Settings, *p.Settings)
	}
	if err := col.Validate(); err != nil {
		return nil, err
	}
	col.UpdatedAt = now
	return out, nil
}

// applyMove puts column id at position, clamped to the deck bounds.
func applyMove(cols []models.DeckColumnConfig, id string, position int) ([]models.DeckColumnConfig, error) {
	idx := indexOf(cols, id)
	if idx < 0 {
		return nil, ErrColumnNotFound
	}
	if position < 0 {
		position = 0
	}
	if position >= len(cols) {
		position = len(cols) - 1
	}

	out := models.CloneColumns(cols)
	moved := out[idx]
	out = append(out[:idx], out[idx+1:]...)
	out = append(out[:position], append([]models.DeckColumnConfig{moved}, out[position:]...)...)
	return reindex(out), nil
}

// reindex makes positions dense, following slice order.
func reindex(cols []models.DeckColumnConfig) []models.DeckColumnConfig {
	for i := range cols {
		cols[i].Position = i
	}
	return cols
}

func sortByPosition(cols []models.DeckColumnConfig) {
	sort.SliceStable(cols, func(i, j int) bool { return cols[i].Position < cols[j].Position })
}

func indexOf(cols []models.DeckColumnConfig, id string) int {
	for i, c := range cols {
		if c.ID == id {
			return i
		}
	}
	return -1
}

// mergeSettings overlays the non-nil groups of patch onto base.
func mergeSettings(base *models.ColumnSettings, patch models.ColumnSettings) *models.ColumnSettings {
	out := models.ColumnSettings{}
	if base != nil {
		out = base.Clone()
	}
	p := patch.Clone()
	if p.Filters != nil {
		out.Filters = p.Filters
	}
	if p.AutoRefresh != nil {
		out.AutoRefresh = p.AutoRefresh
	}
	if p.Display != nil {
		out.Display = p.Display
	}
	return &out
}

// Orphaned returns the columns whose account is not in accounts.
func Orphaned(cols []models.DeckColumnConfig, accounts []models.Account) []models.DeckColumnConfig {
	known := make(map[string]bool, len(accounts))
	for _, a := range accounts {
		known[a.DID] = true
	}
	var out []models.DeckColumnConfig
	for _, c := range cols {
		if !known[c.DID] {
			out = append(out, c.Clone())
		}
	}
	return out
}
