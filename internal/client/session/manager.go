// Package session holds the current signed-in identity of the deck client
// and keeps its access token fresh.
//
// The Manager talks to the backend only through bridge.Invoker. JWTs never
// reach it: the backend answers session_status and refresh_session with
// redacted tokens carrying just the deadlines needed for scheduling.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/taurisky/taurisky/internal/bridge"
	"github.com/taurisky/taurisky/internal/common"
	"github.com/taurisky/taurisky/internal/client/events"
	"github.com/taurisky/taurisky/internal/logging"
	"github.com/taurisky/taurisky/internal/models"
)

// RefreshMargin is how long before access-token expiry a refresh is attempted.
const RefreshMargin = common.RefreshBuffer

// ExpiredMessage is shown when a scheduled refresh fails.
const ExpiredMessage = "セッションの有効期限が切れました。再度ログインしてください。"

// RefreshDelay returns how long to wait before refreshing a token expiring at
// accessExpiresAt. A non-positive result means refresh now.
func RefreshDelay(now, accessExpiresAt time.Time) time.Duration {
	return accessExpiresAt.Add(-RefreshMargin).Sub(now)
}

// Manager is the auth session state container.
type Manager struct {
	invoker  bridge.Invoker
	bus      *events.Bus
	validate func(string) error
	clock    Clock
	logger   logging.Logger

	// writeMu serialises lifecycle transitions; mu guards the fields below.
	writeMu sync.Mutex

	mu      sync.RWMutex
	state   State
	user    *models.Account
	errMsg  string
	timer   Timer
	gen     uint64
	closed  bool
	baseCtx context.Context
	cancel  context.CancelFunc
}

// NewManager returns a Manager in the Unauthenticated state. validate is the
// handle rule applied before login (see validation.HandleValidator).
func NewManager(invoker bridge.Invoker, bus *events.Bus, validate func(string) error, logger logging.Logger) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		invoker:  invoker,
		bus:      bus,
		validate: validate,
		clock:    realClock{},
		logger:   logger.With("module", "session"),
		baseCtx:  ctx,
		cancel:   cancel,
	}
}

func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Loading reports whether a login or refresh is in flight.
func (m *Manager) Loading() bool {
	s := m.State()
	return s == Authenticating || s == TokenRefreshing
}

// IsAuthenticated is true while a user is signed in with a live session.
func (m *Manager) IsAuthenticated() bool {
	s := m.State()
	return s == Authenticated || s == TokenRefreshing
}

// CurrentUser returns a copy of the signed-in account, or nil.
func (m *Manager) CurrentUser() *models.Account {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return nil
	}
	u := *m.user
	return &u
}

// Error is the last failure message, empty after a success.
func (m *Manager) Error() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.errMsg
}

func (m *Manager) setError(msg string) {
	m.mu.Lock()
	m.errMsg = msg
	m.mu.Unlock()
}

// Login validates the handle, then signs in through the backend. On failure
// the previous state is kept and the backend message is returned as is.
func (m *Manager) Login(ctx context.Context, handle, password, serverURL string) (*models.Account, error) {
	if err := m.validate(handle); err != nil {
		m.setError(err.Error())
		return nil, err
	}

	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	m.mu.Lock()
	prev := m.state
	m.state = Authenticating
	m.mu.Unlock()

	var acct models.Account
	err := m.invoker.Invoke(ctx, bridge.CmdLogin, bridge.CredentialsArgs{
		Identifier: handle,
		Password:   password,
		ServerURL:  serverURL,
	}, &acct)
	if err != nil {
		m.mu.Lock()
		m.state = prev
		m.errMsg = bridge.Message(err)
		m.mu.Unlock()
		m.logger.Warn(ctx, "login failed", "handle", handle, "error", err)
		return nil, err
	}

	m.adopt(acct)
	m.logger.Info(ctx, "logged in", "account_id", acct.ID, "handle", acct.Handle)
	m.bus.Publish(events.AccountsChanged)
	m.scheduleFromStatus(ctx, acct.ID)

	u := acct
	return &u, nil
}

// Logout signs out the current user. Local state is cleared even when the
// backend call fails.
func (m *Manager) Logout(ctx context.Context) error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	user := m.CurrentUser()
	if user == nil {
		return nil
	}

	if err := m.invoker.Invoke(ctx, bridge.CmdLogout, bridge.AccountArgs{AccountID: user.ID}, nil); err != nil {
		m.logger.Warn(ctx, "backend logout failed", "account_id", user.ID, "error", err)
	}

	m.mu.Lock()
	m.stopTimerLocked()
	m.user = nil
	m.state = Unauthenticated
	m.errMsg = ""
	m.mu.Unlock()

	m.logger.Info(ctx, "logged out", "account_id", user.ID)
	m.bus.Publish(events.AccountsChanged)
	return nil
}

// Restore adopts the most recently used stored session, if any. Failures
// leave the manager unauthenticated and are only logged.
func (m *Manager) Restore(ctx context.Context) {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	var accounts []models.Account
	if err := m.invoker.Invoke(ctx, bridge.CmdRestoreSessions, nil, &accounts); err != nil {
		m.logger.Warn(ctx, "session restore failed", "error", err)
		return
	}
	if len(accounts) == 0 {
		return
	}

	acct := accounts[0]
	m.adopt(acct)
	m.logger.Info(ctx, "session restored", "account_id", acct.ID, "handle", acct.Handle)
	m.bus.Publish(events.AccountsChanged)
	m.scheduleFromStatus(ctx, acct.ID)
}

// Close stops the refresh timer; scheduled refreshes that already fired are
// cancelled.
func (m *Manager) Close() {
	m.mu.Lock()
	m.closed = true
	m.stopTimerLocked()
	m.mu.Unlock()
	m.cancel()
}

func (m *Manager) adopt(acct models.Account) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopTimerLocked()
	m.user = &acct
	m.state = Authenticated
	m.errMsg = ""
}

// stopTimerLocked cancels the pending refresh and invalidates any callback
// that is already running. Callers hold mu.
func (m *Manager) stopTimerLocked() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	m.gen++
}

func (m *Manager) scheduleFromStatus(ctx context.Context, accountID string) {
	var tok models.AuthToken
	if err := m.invoker.Invoke(ctx, bridge.CmdSessionStatus, bridge.AccountArgs{AccountID: accountID}, &tok); err != nil {
		m.logger.Warn(ctx, "session status unavailable, refresh not scheduled", "account_id", accountID, "error", err)
		return
	}
	m.schedule(tok)
}

func (m *Manager) schedule(tok models.AuthToken) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed || m.user == nil {
		return
	}

	m.stopTimerLocked()
	gen := m.gen

	delay := RefreshDelay(m.clock.Now(), tok.AccessExpiresAt)
	if delay < 0 {
		delay = 0
	}
	m.timer = m.clock.AfterFunc(delay, func() { m.refresh(gen) })
	m.logger.Debug(m.baseCtx, "refresh scheduled", "account_id", tok.AccountID, "delay", delay)
}

func (m *Manager) refresh(gen uint64) {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	m.mu.Lock()
	if m.closed || gen != m.gen || m.user == nil {
		m.mu.Unlock()
		return
	}
	m.timer = nil
	m.state = TokenRefreshing
	accountID := m.user.ID
	m.mu.Unlock()

	ctx := m.baseCtx
	var tok models.AuthToken
	err := m.invoker.Invoke(ctx, bridge.CmdRefreshSession, bridge.AccountArgs{AccountID: accountID}, &tok)

	m.mu.Lock()
	if gen != m.gen {
		m.mu.Unlock()
		return
	}
	if err != nil {
		m.state = SessionExpired
		m.errMsg = ExpiredMessage
		m.mu.Unlock()
		m.logger.Warn(ctx, "token refresh failed", "account_id", accountID, "error", err)
		m.bus.Publish(events.SessionExpired)
		return
	}
	m.state = Authenticated
	m.mu.Unlock()

	m.logger.Info(ctx, "token refreshed", "account_id", accountID, "expires_at", tok.AccessExpiresAt)
	m.schedule(tok)
}
