package models

import (
	"fmt"
	"time"
)

// ColumnType is the content shown by a deck column.
type ColumnType string

const (
	ColumnTimeline      ColumnType = "timeline"
	ColumnNotifications ColumnType = "notifications"

	// Accepted when reading layouts saved by older builds.
	ColumnSearch  ColumnType = "search"
	ColumnProfile ColumnType = "profile"
	ColumnList    ColumnType = "list"
	ColumnFeed    ColumnType = "feed"
)

func (t ColumnType) Valid() bool {
	switch t {
	case ColumnTimeline, ColumnNotifications, ColumnSearch, ColumnProfile, ColumnList, ColumnFeed:
		return true
	}
	return false
}

// ColumnWidth is one of seven width tiers.
type ColumnWidth string

const (
	WidthXXS    ColumnWidth = "xxs"
	WidthXS     ColumnWidth = "xs"
	WidthSmall  ColumnWidth = "small"
	WidthMedium ColumnWidth = "medium"
	WidthLarge  ColumnWidth = "large"
	WidthXL     ColumnWidth = "xl"
	WidthXXL    ColumnWidth = "xxl"
)

var columnPixels = map[ColumnWidth]int{
	WidthXXS:    280,
	WidthXS:     320,
	WidthSmall:  350,
	WidthMedium: 400,
	WidthLarge:  450,
	WidthXL:     500,
	WidthXXL:    550,
}

// ColumnWidths lists the tiers from narrowest to widest.
func ColumnWidths() []ColumnWidth {
	return []ColumnWidth{WidthXXS, WidthXS, WidthSmall, WidthMedium, WidthLarge, WidthXL, WidthXXL}
}

func (w ColumnWidth) Valid() bool {
	_, ok := columnPixels[w]
	return ok
}

// Pixels returns the fixed width; an unset width renders as medium.
func (w ColumnWidth) Pixels() int {
	if px, ok := columnPixels[w]; ok {
		return px
	}
	return columnPixels[WidthMedium]
}

// DeckColumnConfig is one visible deck column.
type DeckColumnConfig struct {
	ID        string          `json:"id"`
	DID       string          `json:"did"`
	Type      ColumnType      `json:"type"`
	Title     string          `json:"title,omitempty"`
	Position  int             `json:"position"`
	Width     ColumnWidth     `json:"width,omitempty"`
	Settings  *ColumnSettings `json:"settings,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// Validate checks the fields the backend refuses to persist.
func (c DeckColumnConfig) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("column id is required")
	}
	if !c.Type.Valid() {
		return fmt.Errorf("column %s: unknown type %q", c.ID, c.Type)
	}
	if c.Width != "" && !c.Width.Valid() {
		return fmt.Errorf("column %s: unknown width %q", c.ID, c.Width)
	}
	if c.Position < 0 {
		return fmt.Errorf("column %s: negative position", c.ID)
	}
	return nil
}

// Clone returns a deep copy so optimistic snapshots never share settings.
func (c DeckColumnConfig) Clone() DeckColumnConfig {
	if c.Settings != nil {
		s := c.Settings.Clone()
		c.Settings = &s
	}
	return c
}

// CloneColumns deep-copies a column list.
func CloneColumns(cols []DeckColumnConfig) []DeckColumnConfig {
	if cols == nil {
		return nil
	}
	out := make([]DeckColumnConfig, len(cols))
	for i, c := range cols {
		out[i] = c.Clone()
	}
	return out
}
