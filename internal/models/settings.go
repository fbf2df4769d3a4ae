package models

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// RepostFilter thins reposts in a timeline column.
type RepostFilter string

const (
	RepostAll  RepostFilter = "all"
	RepostMany RepostFilter = "many" // ~75% shown
	RepostSoso RepostFilter = "soso" // ~50% shown
	RepostLess RepostFilter = "less" // ~25% shown
	RepostNone RepostFilter = "none"
)

// ShowRatio is the fraction of reposts kept by the filter.
func (f RepostFilter) ShowRatio() float64 {
	switch f {
	case RepostMany:
		return 0.75
	case RepostSoso:
		return 0.5
	case RepostLess:
		return 0.25
	case RepostNone:
		return 0
	default:
		return 1
	}
}

// ReplyFilter limits which replies a timeline column shows.
type ReplyFilter string

const (
	ReplyAll       ReplyFilter = "all"
	ReplyFollowing ReplyFilter = "following"
	ReplyMe        ReplyFilter = "me"
)

// AutoRefreshInterval is a refresh period in seconds. It travels as a JSON
// string ("30"), and -1 selects realtime streaming where available.
type AutoRefreshInterval int

const (
	RefreshOff           AutoRefreshInterval = 0
	RefreshTenSeconds    AutoRefreshInterval = 10
	RefreshThirtySeconds AutoRefreshInterval = 30
	RefreshOneMinute     AutoRefreshInterval = 60
	RefreshFiveMinutes   AutoRefreshInterval = 300
	RefreshTenMinutes    AutoRefreshInterval = 600
	RefreshThirtyMinutes AutoRefreshInterval = 1800
	RefreshRealtime      AutoRefreshInterval = -1
)

func (i AutoRefreshInterval) Valid() bool {
	switch i {
	case RefreshOff, RefreshTenSeconds, RefreshThirtySeconds, RefreshOneMinute,
		RefreshFiveMinutes, RefreshTenMinutes, RefreshThirtyMinutes, RefreshRealtime:
		return true
	}
	return false
}

func (i AutoRefreshInterval) MarshalJSON() ([]byte, error) {
	return json.Marshal(strconv.Itoa(int(i)))
}

func (i *AutoRefreshInterval) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	v := AutoRefreshInterval(n)
	if !v.Valid() {
		return fmt.Errorf("unsupported auto-refresh interval %q", s)
	}
	*i = v
	return nil
}

type TimelineFilters struct {
	RepostDisplay RepostFilter `json:"repostDisplay"`
	ReplyDisplay  ReplyFilter  `json:"replyDisplay"`
}

type AutoRefreshSettings struct {
	Interval    AutoRefreshInterval `json:"interval"`
	ScrollToTop bool                `json:"scrollToTop"`
}

type DisplaySettings struct {
	ShowIcons    *bool `json:"showIcons,omitempty"`
	MediaColumns *bool `json:"mediaColumns,omitempty"`
}

// ColumnSettings groups the optional per-column options.
type ColumnSettings struct {
	Filters     *TimelineFilters     `json:"filters,omitempty"`
	AutoRefresh *AutoRefreshSettings `json:"autoRefresh,omitempty"`
	Display     *DisplaySettings     `json:"display,omitempty"`
}

func (s ColumnSettings) Clone() ColumnSettings {
	out := ColumnSettings{}
	if s.Filters != nil {
		f := *s.Filters
		out.Filters = &f
	}
	if s.AutoRefresh != nil {
		a := *s.AutoRefresh
		out.AutoRefresh = &a
	}
	if s.Display != nil {
		d := DisplaySettings{}
		if s.Display.ShowIcons != nil {
			v := *s.Display.ShowIcons
			d.ShowIcons = &v
		}
		if s.Display.MediaColumns != nil {
			v := *s.Display.MediaColumns
			d.MediaColumns = &v
		}
		out.Display = &d
	}
	return out
}
