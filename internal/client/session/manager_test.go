package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taurisky/taurisky/internal/bridge"
	"github.com/taurisky/taurisky/internal/bridge/bridgetest"
	"github.com/taurisky/taurisky/internal/client/events"
	"github.com/taurisky/taurisky/internal/client/validation"
	"github.com/taurisky/taurisky/internal/logging"
	"github.com/taurisky/taurisky/internal/models"
)

type fakeTimer struct {
	d       time.Duration
	f       func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{d: d, f: f}
	c.timers = append(c.timers, t)
	return t
}

// pending returns the latest timer that has not been stopped.
func (c *fakeClock) pending(t *testing.T) *fakeTimer {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.timers) - 1; i >= 0; i-- {
		if !c.timers[i].stopped {
			return c.timers[i]
		}
	}
	t.Fatal("no pending timer")
	return nil
}

func (c *fakeClock) active() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, tm := range c.timers {
		if !tm.stopped {
			n++
		}
	}
	return n
}

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

var alice = models.Account{
	ID:        "acc-1",
	DID:       "did:plc:alice",
	Handle:    "alice.bsky.social",
	ServerURL: "https://bsky.social",
	IsActive:  true,
}

type fixture struct {
	rec     *bridgetest.Recorder
	bus     *events.Bus
	clock   *fakeClock
	mgr     *Manager
	events  <-chan events.Kind
	expired <-chan events.Kind
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	rec := bridgetest.New()
	bus := events.New()
	clock := &fakeClock{now: t0}

	m := NewManager(rec.Invoker(), bus, validation.ValidateHandle, logging.Discard())
	m.clock = clock
	t.Cleanup(m.Close)

	evs, cancel := bus.Subscribe(16, events.AccountsChanged)
	t.Cleanup(cancel)
	exp, cancelExp := bus.Subscribe(16, events.SessionExpired)
	t.Cleanup(cancelExp)

	return &fixture{rec: rec, bus: bus, clock: clock, mgr: m, events: evs, expired: exp}
}

func (f *fixture) status(expiresIn time.Duration) {
	f.rec.Result(bridge.CmdSessionStatus, models.AuthToken{
		AccountID:       alice.ID,
		IssuedAt:        t0,
		AccessExpiresAt: t0.Add(expiresIn),
	})
}

func TestRefreshDelay(t *testing.T) {
	assert.Equal(t, 5*time.Minute, RefreshDelay(t0, t0.Add(10*time.Minute)))
	assert.LessOrEqual(t, RefreshDelay(t0, t0.Add(-time.Minute)), time.Duration(0))
	assert.Equal(t, time.Duration(0), RefreshDelay(t0, t0.Add(RefreshMargin)))
}

func TestLogin_Success(t *testing.T) {
	f := newFixture(t)
	f.rec.Result(bridge.CmdLogin, alice)
	f.status(10 * time.Minute)

	acct, err := f.mgr.Login(context.Background(), "alice.bsky.social", "pw", "")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, acct.ID)

	assert.Equal(t, Authenticated, f.mgr.State())
	assert.True(t, f.mgr.IsAuthenticated())
	assert.False(t, f.mgr.Loading())
	assert.Empty(t, f.mgr.Error())
	require.NotNil(t, f.mgr.CurrentUser())
	assert.Equal(t, "alice.bsky.social", f.mgr.CurrentUser().Handle)

	assert.Len(t, f.events, 1, "exactly one accounts-changed event")

	var args bridge.CredentialsArgs
	require.True(t, f.rec.Last(bridge.CmdLogin, &args))
	assert.Equal(t, "alice.bsky.social", args.Identifier)
	assert.Equal(t, "pw", args.Password)

	assert.Equal(t, 5*time.Minute, f.clock.pending(t).d)
}

func TestLogin_InvalidHandleNeverCallsBackend(t *testing.T) {
	f := newFixture(t)
	f.rec.Result(bridge.CmdLogin, alice)

	for _, h := range []string{"", "bad handle", "@alice"} {
		_, err := f.mgr.Login(context.Background(), h, "pw", "")
		require.Error(t, err)
		assert.Equal(t, err.Error(), f.mgr.Error())
	}

	assert.Zero(t, f.rec.Count(bridge.CmdLogin))
	assert.Equal(t, Unauthenticated, f.mgr.State())
	assert.Empty(t, f.events)
}

func TestLogin_BackendErrorKeepsPriorState(t *testing.T) {
	f := newFixture(t)
	f.rec.Fail(bridge.CmdLogin, errors.New("invalid credentials: invalid handle or password"))

	_, err := f.mgr.Login(context.Background(), "alice.bsky.social", "nope", "")
	require.Error(t, err)

	assert.Equal(t, "invalid credentials: invalid handle or password", f.mgr.Error())
	assert.Equal(t, Unauthenticated, f.mgr.State())
	assert.Nil(t, f.mgr.CurrentUser())
	assert.Empty(t, f.events)
}

func TestLogin_StatusFailureStillAuthenticated(t *testing.T) {
	f := newFixture(t)
	f.rec.Result(bridge.CmdLogin, alice)
	f.rec.Fail(bridge.CmdSessionStatus, errors.New("no session"))

	_, err := f.mgr.Login(context.Background(), "alice.bsky.social", "pw", "")
	require.NoError(t, err)
	assert.Equal(t, Authenticated, f.mgr.State())
	assert.Zero(t, f.clock.active())
}

func TestLogout_ClearsEvenWhenBackendFails(t *testing.T) {
	f := newFixture(t)
	f.rec.Result(bridge.CmdLogin, alice)
	f.status(time.Hour)
	f.rec.Fail(bridge.CmdLogout, errors.New("storage offline"))

	_, err := f.mgr.Login(context.Background(), "alice.bsky.social", "pw", "")
	require.NoError(t, err)
	<-f.events

	require.NoError(t, f.mgr.Logout(context.Background()))

	assert.Nil(t, f.mgr.CurrentUser())
	assert.Equal(t, Unauthenticated, f.mgr.State())
	assert.Len(t, f.events, 1)
	assert.Zero(t, f.clock.active(), "refresh timer cancelled")
	assert.Equal(t, 1, f.rec.Count(bridge.CmdLogout))
}

func TestLogout_WithoutUserIsNoop(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.mgr.Logout(context.Background()))
	assert.Empty(t, f.rec.Calls())
	assert.Empty(t, f.events)
}

func TestRestore(t *testing.T) {
	bob := alice
	bob.ID, bob.Handle = "acc-2", "bob.bsky.social"

	f := newFixture(t)
	f.rec.Result(bridge.CmdRestoreSessions, []models.Account{bob, alice})
	f.status(-time.Minute)

	f.mgr.Restore(context.Background())

	assert.Equal(t, Authenticated, f.mgr.State())
	assert.Equal(t, "bob.bsky.social", f.mgr.CurrentUser().Handle)
	assert.Len(t, f.events, 1)
	assert.Equal(t, time.Duration(0), f.clock.pending(t).d, "expired token refreshes immediately")
}

func TestRestore_FailureAndEmptyAreSilent(t *testing.T) {
	f := newFixture(t)
	f.rec.Fail(bridge.CmdRestoreSessions, errors.New("corrupt store"))
	f.mgr.Restore(context.Background())
	assert.Equal(t, Unauthenticated, f.mgr.State())
	assert.Empty(t, f.mgr.Error())

	g := newFixture(t)
	g.rec.Result(bridge.CmdRestoreSessions, []models.Account{})
	g.mgr.Restore(context.Background())
	assert.Equal(t, Unauthenticated, g.mgr.State())
	assert.Empty(t, g.events)
}

func loggedIn(t *testing.T, expiresIn time.Duration) *fixture {
	t.Helper()
	f := newFixture(t)
	f.rec.Result(bridge.CmdLogin, alice)
	f.status(expiresIn)
	_, err := f.mgr.Login(context.Background(), "alice.bsky.social", "pw", "")
	require.NoError(t, err)
	<-f.events
	return f
}

func TestRefresh_SuccessReschedules(t *testing.T) {
	f := loggedIn(t, 10*time.Minute)

	var seen State
	f.rec.Handle(bridge.CmdRefreshSession, func(ctx context.Context, _ json.RawMessage) (any, error) {
		seen = f.mgr.state
		return models.AuthToken{AccountID: alice.ID, AccessExpiresAt: t0.Add(time.Hour)}, nil
	})

	first := f.clock.pending(t)
	first.f()

	assert.Equal(t, TokenRefreshing, seen)
	assert.Equal(t, Authenticated, f.mgr.State())
	next := f.clock.pending(t)
	assert.NotSame(t, first, next)
	assert.Equal(t, 55*time.Minute, next.d)

	var args bridge.AccountArgs
	require.True(t, f.rec.Last(bridge.CmdRefreshSession, &args))
	assert.Equal(t, alice.ID, args.AccountID)
}

func TestRefresh_FailureExpiresSession(t *testing.T) {
	f := loggedIn(t, 10*time.Minute)
	f.rec.Fail(bridge.CmdRefreshSession, errors.New("token expired"))

	f.clock.pending(t).f()

	assert.Equal(t, SessionExpired, f.mgr.State())
	assert.NotEqual(t, Unauthenticated, f.mgr.State())
	assert.Equal(t, ExpiredMessage, f.mgr.Error())
	assert.False(t, f.mgr.IsAuthenticated())
	assert.Len(t, f.expired, 1)
	assert.Zero(t, f.clock.active())
}

func TestRefresh_StaleCallbackIgnoredAfterLogout(t *testing.T) {
	f := loggedIn(t, 10*time.Minute)
	f.rec.Result(bridge.CmdLogout, nil)
	f.rec.Result(bridge.CmdRefreshSession, models.AuthToken{AccessExpiresAt: t0.Add(time.Hour)})

	stale := f.clock.pending(t)
	require.NoError(t, f.mgr.Logout(context.Background()))
	stale.f()

	assert.Zero(t, f.rec.Count(bridge.CmdRefreshSession))
	assert.Equal(t, Unauthenticated, f.mgr.State())
}

func TestClose_StopsTimer(t *testing.T) {
	f := loggedIn(t, 10*time.Minute)
	f.rec.Result(bridge.CmdRefreshSession, models.AuthToken{AccessExpiresAt: t0.Add(time.Hour)})

	stale := f.clock.pending(t)
	f.mgr.Close()
	stale.f()

	assert.True(t, stale.stopped)
	assert.Zero(t, f.rec.Count(bridge.CmdRefreshSession))
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "expired", SessionExpired.String())
	assert.Equal(t, "refreshing", TokenRefreshing.String())
	assert.Equal(t, "unknown", State(42).String())
}
