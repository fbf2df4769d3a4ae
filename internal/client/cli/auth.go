package cli

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/taurisky/taurisky/internal/common"
)

var errUsage = errors.New("usage")

type credentials struct {
	handle    string
	password  []byte
	serverURL string
}

func (a *App) promptCredentials() (*credentials, error) {
	handle, err := getSimpleText(a.reader, "Enter handle (e.g. alice.bsky.social)", a.out)
	if err != nil {
		return nil, err
	}
	server, err := getSimpleText(a.reader, "PDS server (empty for default)", a.out)
	if err != nil {
		return nil, err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return nil, err
	}
	return &credentials{handle: handle, password: password, serverURL: server}, nil
}

// Login prompts for credentials and signs in. A fresh deck receives a home
// timeline for the account.
func (a *App) Login(ctx context.Context) error {
	creds, err := a.promptCredentials()
	if err != nil {
		return a.printErr(err)
	}
	defer common.WipeByteArray(creds.password)

	acct, err := a.session.Login(ctx, creds.handle, string(creds.password), creds.serverURL)
	if err != nil {
		return a.printErr(err)
	}

	fmt.Fprintf(a.out, "Logged in as %s (%s)\n", acct.Handle, acct.DID)
	a.ensureDefaultColumn(ctx)
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	if !a.isLoggedIn() {
		fmt.Fprintln(a.out, "Not logged in")
		return nil
	}
	if err := a.session.Logout(ctx); err != nil {
		return a.printErr(err)
	}
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

// Status prints the session state and, when present, the last error.
func (a *App) Status(ctx context.Context) error {
	user := a.session.CurrentUser()
	if user == nil {
		fmt.Fprintf(a.out, "Session: %s\n", a.session.State())
	} else {
		fmt.Fprintf(a.out, "Session: %s as %s (%s) on %s\n", a.session.State(), user.Handle, user.DID, user.ServerURL)
	}
	if msg := a.session.Error(); msg != "" {
		fmt.Fprintln(a.out, "Last error:", msg)
	}
	if active := a.accounts.Active(); active != nil {
		fmt.Fprintf(a.out, "Active account: %s\n", active.Handle)
	}
	return nil
}

// Accounts prints the registry.
func (a *App) Accounts(ctx context.Context) error {
	list := a.accounts.Accounts()
	if len(list) == 0 {
		fmt.Fprintln(a.out, "No accounts")
		return nil
	}

	var current string
	if u := a.session.CurrentUser(); u != nil {
		current = u.ID
	}

	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "\tID\tHANDLE\tSERVER\tACTIVE\tLAST USED")
	for _, acct := range list {
		marker := ""
		if acct.ID == current {
			marker = "*"
		}
		lastUsed := "-"
		if !acct.LastUsedAt.IsZero() {
			lastUsed = acct.LastUsedAt.Local().Format(time.DateTime)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\t%s\n", marker, acct.ID, acct.Handle, acct.ServerURL, acct.IsActive, lastUsed)
	}
	return w.Flush()
}

// AddAccount registers another identity without changing the current user.
func (a *App) AddAccount(ctx context.Context) error {
	creds, err := a.promptCredentials()
	if err != nil {
		return a.printErr(err)
	}
	defer common.WipeByteArray(creds.password)

	acct, err := a.accounts.Add(ctx, creds.handle, string(creds.password), creds.serverURL)
	if err != nil {
		return a.printErr(err)
	}
	fmt.Fprintf(a.out, "Added %s (%s)\n", acct.Handle, acct.ID)
	return nil
}

func (a *App) RemoveAccount(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return a.usage("rmaccount <id>")
	}
	if err := a.accounts.Remove(ctx, args[0]); err != nil {
		return a.printErr(err)
	}
	fmt.Fprintln(a.out, "Account removed")

	if orphans := a.deck.Orphaned(a.accounts.Accounts()); len(orphans) > 0 {
		fmt.Fprintf(a.out, "%d column(s) now belong to no account; use rmcolumn or setcolumn did=...\n", len(orphans))
	}
	return nil
}

func (a *App) Switch(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return a.usage("switch <id>")
	}
	if err := a.accounts.Switch(args[0]); err != nil {
		return a.printErr(err)
	}
	fmt.Fprintf(a.out, "Switched to %s\n", a.accounts.Active().Handle)
	return nil
}

// Refresh reloads accounts and columns from the backend.
func (a *App) Refresh(ctx context.Context) error {
	if err := a.accounts.Reload(ctx); err != nil {
		return a.printErr(err)
	}
	if err := a.deck.Reload(ctx); err != nil {
		return a.printErr(err)
	}
	fmt.Fprintf(a.out, "%d account(s), %d column(s)\n", len(a.accounts.Accounts()), len(a.deck.Columns()))
	return nil
}
