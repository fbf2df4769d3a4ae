package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/taurisky/taurisky/internal/client/deck"
	"github.com/taurisky/taurisky/internal/models"
)

// Columns prints the deck in position order. Columns bound to an account
// that is no longer registered are flagged.
func (a *App) Columns(ctx context.Context) error {
	cols := a.deck.Columns()
	if len(cols) == 0 {
		fmt.Fprintln(a.out, "No columns")
		return nil
	}

	orphaned := make(map[string]bool)
	for _, c := range a.deck.Orphaned(a.accounts.Accounts()) {
		orphaned[c.ID] = true
	}
	handles := make(map[string]string)
	for _, acct := range a.accounts.Accounts() {
		handles[acct.DID] = acct.Handle
	}

	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "POS\tID\tTYPE\tWIDTH\tACCOUNT\tTITLE")
	for _, c := range cols {
		account := handles[c.DID]
		if orphaned[c.ID] {
			account = "(orphaned " + c.DID + ")"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s (%dpx)\t%s\t%s\n",
			c.Position, c.ID, c.Type, widthName(c.Width), c.Width.Pixels(), account, c.Title)
	}
	return w.Flush()
}

func widthName(w models.ColumnWidth) models.ColumnWidth {
	if w == "" {
		return models.WidthMedium
	}
	return w
}

// AddColumn appends a column: addcolumn [type] [width] [did]. The account
// defaults to the signed-in user.
func (a *App) AddColumn(ctx context.Context, args []string) error {
	if len(args) > 3 {
		return a.usage("addcolumn [type] [width] [did]")
	}

	d := deck.Draft{}
	if len(args) > 0 {
		d.Type = models.ColumnType(args[0])
	}
	if len(args) > 1 {
		d.Width = models.ColumnWidth(args[1])
	}
	if len(args) > 2 {
		d.DID = args[2]
	} else if u := a.session.CurrentUser(); u != nil {
		d.DID = u.DID
	}

	col, err := a.deck.Add(ctx, d)
	if err != nil {
		return a.printErr(err)
	}
	fmt.Fprintf(a.out, "Added column %s at position %d\n", col.ID, col.Position)
	return nil
}

func (a *App) RemoveColumn(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return a.usage("rmcolumn <id>")
	}
	if err := a.deck.Remove(ctx, args[0]); err != nil {
		return a.printErr(err)
	}
	fmt.Fprintln(a.out, "Column removed")
	return nil
}

// SetColumn edits a column: setcolumn <id> name=value...
func (a *App) SetColumn(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return a.usage("setcolumn <id> name=value... (title, type, width, did, repost, reply, refresh, scrolltotop, icons, media)")
	}
	assignments, err := ParseAssignments(args[1:])
	if err != nil {
		return a.printErr(err)
	}
	patch, err := parsePatch(assignments, a.currentSettings(args[0]))
	if err != nil {
		return a.printErr(err)
	}
	if err := a.deck.Update(ctx, args[0], patch); err != nil {
		return a.printErr(err)
	}
	fmt.Fprintln(a.out, "Column updated")
	return nil
}

func (a *App) MoveColumn(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return a.usage("movecolumn <id> <pos>")
	}
	pos, err := strconv.Atoi(args[1])
	if err != nil {
		return a.printErr(fmt.Errorf("invalid position %q", args[1]))
	}
	if err := a.deck.Move(ctx, args[0], pos); err != nil {
		return a.printErr(err)
	}
	fmt.Fprintln(a.out, "Column moved")
	return nil
}

func (a *App) Backup(ctx context.Context) error {
	if err := a.deck.Backup(ctx); err != nil {
		return a.printErr(err)
	}
	fmt.Fprintln(a.out, "Columns backed up")
	return nil
}

func (a *App) Restore(ctx context.Context) error {
	if err := a.deck.RestoreBackup(ctx); err != nil {
		return a.printErr(err)
	}
	fmt.Fprintf(a.out, "Restored %d column(s)\n", len(a.deck.Columns()))
	return nil
}

var validRepost = map[models.RepostFilter]bool{
	models.RepostAll: true, models.RepostMany: true, models.RepostSoso: true,
	models.RepostLess: true, models.RepostNone: true,
}

var validReply = map[models.ReplyFilter]bool{
	models.ReplyAll: true, models.ReplyFollowing: true, models.ReplyMe: true,
}

// currentSettings returns a copy of the settings of column id, or nil.
func (a *App) currentSettings(id string) *models.ColumnSettings {
	for _, c := range a.deck.Columns() {
		if c.ID == id && c.Settings != nil {
			s := c.Settings.Clone()
			return &s
		}
	}
	return nil
}

// parsePatch turns setcolumn assignments into a deck.Patch. A touched
// settings group starts from its value in base, so fields not named keep
// their current value.
func parsePatch(kv map[string]string, base *models.ColumnSettings) (deck.Patch, error) {
	var (
		p        deck.Patch
		settings models.ColumnSettings
		touched  bool
	)
	if base == nil {
		base = &models.ColumnSettings{}
	}

	for name, value := range kv {
		switch name {
		case "title":
			v := value
			p.Title = &v
		case "type":
			v := models.ColumnType(value)
			p.Type = &v
		case "width":
			v := models.ColumnWidth(value)
			p.Width = &v
		case "did":
			v := value
			p.DID = &v
		case "repost", "reply":
			if settings.Filters == nil {
				settings.Filters = &models.TimelineFilters{RepostDisplay: models.RepostAll, ReplyDisplay: models.ReplyAll}
				if base.Filters != nil {
					*settings.Filters = *base.Filters
				}
			}
			switch {
			case name == "repost" && validRepost[models.RepostFilter(value)]:
				settings.Filters.RepostDisplay = models.RepostFilter(value)
			case name == "reply" && validReply[models.ReplyFilter(value)]:
				settings.Filters.ReplyDisplay = models.ReplyFilter(value)
			default:
				return p, fmt.Errorf("%s: unsupported value %q", name, value)
			}
			touched = true
		case "refresh", "scrolltotop":
			if settings.AutoRefresh == nil {
				settings.AutoRefresh = &models.AutoRefreshSettings{}
				if base.AutoRefresh != nil {
					*settings.AutoRefresh = *base.AutoRefresh
				}
			}
			if name == "refresh" {
				var iv models.AutoRefreshInterval
				if err := json.Unmarshal([]byte(strconv.Quote(value)), &iv); err != nil {
					return p, fmt.Errorf("refresh: %w", err)
				}
				settings.AutoRefresh.Interval = iv
			} else {
				b, err := strconv.ParseBool(value)
				if err != nil {
					return p, fmt.Errorf("scrolltotop: %w", err)
				}
				settings.AutoRefresh.ScrollToTop = b
			}
			touched = true
		case "icons", "media":
			b, err := strconv.ParseBool(value)
			if err != nil {
				return p, fmt.Errorf("%s: %w", name, err)
			}
			if settings.Display == nil {
				settings.Display = &models.DisplaySettings{}
				if base.Display != nil {
					*settings.Display = *base.Display
				}
			}
			if name == "icons" {
				settings.Display.ShowIcons = &b
			} else {
				settings.Display.MediaColumns = &b
			}
			touched = true
		default:
			return p, fmt.Errorf("unknown column setting %q", name)
		}
	}

	if touched {
		p.Settings = &settings
	}
	return p, nil
}
