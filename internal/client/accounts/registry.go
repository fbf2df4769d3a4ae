// Package accounts mirrors the backend account list for the deck client.
package accounts

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/taurisky/taurisky/internal/bridge"
	"github.com/taurisky/taurisky/internal/client/events"
	"github.com/taurisky/taurisky/internal/logging"
	"github.com/taurisky/taurisky/internal/models"
)

var ErrAccountNotFound = errors.New("account not found")

// Registry is the account list state container. Mutations are serialised;
// reads see the last completed reload.
type Registry struct {
	invoker  bridge.Invoker
	validate func(string) error
	logger   logging.Logger
	now      func() time.Time

	writeMu sync.Mutex

	mu       sync.RWMutex
	accounts []models.Account
	activeID string
	errMsg   string
}

func NewRegistry(invoker bridge.Invoker, validate func(string) error, logger logging.Logger) *Registry {
	return &Registry{
		invoker:  invoker,
		validate: validate,
		logger:   logger.With("module", "accounts"),
		now:      time.Now,
	}
}

// Accounts returns a copy of the current list.
func (r *Registry) Accounts() []models.Account {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]models.Account(nil), r.accounts...)
}

// Active returns the account chosen with Switch, or nil.
func (r *Registry) Active() *models.Account {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, a := range r.accounts {
		if a.ID == r.activeID {
			cp := a
			return &cp
		}
	}
	return nil
}

func (r *Registry) Error() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.errMsg
}

func (r *Registry) fail(err error) error {
	r.mu.Lock()
	r.errMsg = bridge.Message(err)
	r.mu.Unlock()
	return err
}

// Reload replaces the list with the backend's. On failure the stale list is
// kept.
func (r *Registry) Reload(ctx context.Context) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()
	return r.reload(ctx)
}

func (r *Registry) reload(ctx context.Context) error {
	var list []models.Account
	if err := r.invoker.Invoke(ctx, bridge.CmdListAccounts, nil, &list); err != nil {
		r.logger.Warn(ctx, "list accounts failed", "error", err)
		return r.fail(err)
	}

	r.mu.Lock()
	r.accounts = list
	r.errMsg = ""
	r.mu.Unlock()
	return nil
}

// Add registers another identity, then reloads the list.
func (r *Registry) Add(ctx context.Context, handle, password, serverURL string) (*models.Account, error) {
	if err := r.validate(handle); err != nil {
		return nil, r.fail(err)
	}

	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	var acct models.Account
	err := r.invoker.Invoke(ctx, bridge.CmdAddAccount, bridge.CredentialsArgs{
		Identifier: handle,
		Password:   password,
		ServerURL:  serverURL,
	}, &acct)
	if err != nil {
		r.logger.Warn(ctx, "add account failed", "handle", handle, "error", err)
		return nil, r.fail(err)
	}
	r.logger.Info(ctx, "account added", "account_id", acct.ID, "handle", acct.Handle)

	if err := r.reload(ctx); err != nil {
		return &acct, err
	}
	return &acct, nil
}

// Remove deletes an account from the backend, then reloads the list.
func (r *Registry) Remove(ctx context.Context, accountID string) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	if err := r.invoker.Invoke(ctx, bridge.CmdRemoveAccount, bridge.AccountArgs{AccountID: accountID}, nil); err != nil {
		r.logger.Warn(ctx, "remove account failed", "account_id", accountID, "error", err)
		return r.fail(err)
	}
	r.logger.Info(ctx, "account removed", "account_id", accountID)

	r.mu.Lock()
	if r.activeID == accountID {
		r.activeID = ""
	}
	r.mu.Unlock()

	return r.reload(ctx)
}

// Switch makes accountID the active account locally and stamps its
// lastUsedAt. The backend is not involved.
func (r *Registry) Switch(accountID string) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.accounts {
		if r.accounts[i].ID == accountID {
			r.accounts[i].LastUsedAt = r.now().UTC()
			r.activeID = accountID
			r.errMsg = ""
			return nil
		}
	}
	r.errMsg = ErrAccountNotFound.Error()
	return ErrAccountNotFound
}

// Subscribe reloads the registry whenever the bus reports an account change.
// The returned func stops listening and waits for the listener to exit.
func (r *Registry) Subscribe(ctx context.Context, bus *events.Bus) func() {
	ch, cancel := bus.Subscribe(8, events.AccountsChanged)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for range ch {
			if err := r.Reload(ctx); err != nil {
				r.logger.Warn(ctx, "reload after account change failed", "error", err)
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}
