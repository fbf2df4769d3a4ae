package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/taurisky/taurisky/internal/bridge"
	"github.com/taurisky/taurisky/internal/client/accounts"
	"github.com/taurisky/taurisky/internal/client/config"
	"github.com/taurisky/taurisky/internal/client/deck"
	"github.com/taurisky/taurisky/internal/client/events"
	"github.com/taurisky/taurisky/internal/client/session"
	"github.com/taurisky/taurisky/internal/client/validation"
	"github.com/taurisky/taurisky/internal/logging"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

type App struct {
	config   *config.Config
	logger   logging.Logger
	bus      *events.Bus
	session  *session.Manager
	accounts *accounts.Registry
	deck     *deck.Manager
	reader   *bufio.Reader
	out      io.Writer
}

// NewApp builds the state containers on top of invoker.
func NewApp(c *config.Config, invoker bridge.Invoker, logger logging.Logger) *App {
	bus := events.New()
	validate := validation.HandleValidator(c.LenientHandles)

	return &App{
		config:   c,
		logger:   logger,
		bus:      bus,
		session:  session.NewManager(invoker, bus, validate, logger),
		accounts: accounts.NewRegistry(invoker, validate, logger),
		deck:     deck.NewManager(invoker, bus, logger),
		reader:   bufio.NewReader(os.Stdin),
		out:      os.Stdout,
	}
}

// Run loads state, then serves the REPL on stdin until the user exits or ctx
// is cancelled.
func (a *App) Run(ctx context.Context) {
	defer a.session.Close()

	stopAccounts := a.accounts.Subscribe(ctx, a.bus)
	defer stopAccounts()

	stopExpiry := a.watchExpiry(ctx)
	defer stopExpiry()

	a.startup(ctx)

	fmt.Fprintln(a.out, "Welcome to TauriSky (type 'help' for commands)")
	runREPL(ctx, a, a.getStatus, bufio.NewScanner(a.reader))
}

// startup restores the last session, loads the registry and the deck and
// seeds an empty deck for the signed-in account.
func (a *App) startup(ctx context.Context) {
	a.session.Restore(ctx)

	if err := a.accounts.Reload(ctx); err != nil {
		a.logger.Warn(ctx, "initial account load failed", "error", err)
	}
	if err := a.deck.Reload(ctx); err != nil {
		a.logger.Warn(ctx, "initial column load failed", "error", err)
		return
	}
	a.ensureDefaultColumn(ctx)
}

func (a *App) ensureDefaultColumn(ctx context.Context) {
	user := a.session.CurrentUser()
	if user == nil {
		return
	}
	added, err := a.deck.EnsureDefault(ctx, user.DID)
	if err != nil {
		a.logger.Warn(ctx, "default column not created", "error", err)
		return
	}
	if added {
		fmt.Fprintf(a.out, "Added a home timeline for %s\n", user.Handle)
	}
}

// watchExpiry prints the re-login prompt whenever a background refresh fails.
func (a *App) watchExpiry(ctx context.Context) func() {
	ch, cancel := a.bus.Subscribe(1, events.SessionExpired)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for range ch {
			fmt.Fprintln(a.out)
			fmt.Fprintln(a.out, session.ExpiredMessage)
		}
	}()
	return func() {
		cancel()
		<-done
	}
}

func (a *App) isLoggedIn() bool {
	return a.session.CurrentUser() != nil
}

func (a *App) getStatus() string {
	var parts []string
	if u := a.session.CurrentUser(); u != nil {
		parts = append(parts, u.Handle)
	}
	if st := a.session.State(); st != session.Unauthenticated && st != session.Authenticated {
		parts = append(parts, st.String())
	}
	if len(parts) == 0 {
		return ""
	}
	return "(" + strings.Join(parts, " ") + ")"
}

func (a *App) usage(text string) error {
	fmt.Fprintln(a.out, "Usage:", text)
	return errUsage
}

func (a *App) printErr(err error) error {
	fmt.Fprintln(a.out, "Error:", bridge.Message(err))
	return err
}
