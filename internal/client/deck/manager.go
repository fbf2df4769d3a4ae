// Package deck holds the ordered column layout of the deck client.
//
// Every mutation follows the same pattern: compute the next list with a pure
// apply* function, show it immediately, persist the whole list through
// save_columns_command and restore the previous list if that fails.
package deck

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/taurisky/taurisky/internal/bridge"
	"github.com/taurisky/taurisky/internal/client/events"
	"github.com/taurisky/taurisky/internal/logging"
	"github.com/taurisky/taurisky/internal/models"
)

// Manager is the deck configuration state container.
type Manager struct {
	invoker bridge.Invoker
	bus     *events.Bus
	logger  logging.Logger
	now     func() time.Time
	newID   func() string

	writeMu sync.Mutex

	mu      sync.RWMutex
	columns []models.DeckColumnConfig
	errMsg  string
}

func NewManager(invoker bridge.Invoker, bus *events.Bus, logger logging.Logger) *Manager {
	return &Manager{
		invoker: invoker,
		bus:     bus,
		logger:  logger.With("module", "deck"),
		now:     func() time.Time { return time.Now().UTC() },
		newID:   uuid.NewString,
	}
}

// Columns returns a deep copy of the layout in position order.
func (m *Manager) Columns() []models.DeckColumnConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return models.CloneColumns(m.columns)
}

func (m *Manager) Error() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.errMsg
}

func (m *Manager) fail(err error) error {
	m.mu.Lock()
	m.errMsg = bridge.Message(err)
	m.mu.Unlock()
	return err
}

func (m *Manager) replace(cols []models.DeckColumnConfig) {
	sortByPosition(cols)
	m.mu.Lock()
	m.columns = cols
	m.errMsg = ""
	m.mu.Unlock()
}

// Reload fetches the stored layout. On failure the current one is kept.
func (m *Manager) Reload(ctx context.Context) error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	var cols []models.DeckColumnConfig
	if err := m.invoker.Invoke(ctx, bridge.CmdGetColumns, nil, &cols); err != nil {
		m.logger.Warn(ctx, "get columns failed", "error", err)
		return m.fail(err)
	}
	m.replace(cols)
	return nil
}

// commit shows next, persists it and rolls back to the previous layout when
// the backend refuses. Callers hold writeMu.
func (m *Manager) commit(ctx context.Context, next []models.DeckColumnConfig) error {
	m.mu.Lock()
	prev := m.columns
	m.columns = next
	m.mu.Unlock()

	var stored []models.DeckColumnConfig
	err := m.invoker.Invoke(ctx, bridge.CmdSaveColumns, bridge.SaveColumnsArgs{Columns: next}, &stored)
	if err != nil {
		m.mu.Lock()
		m.columns = prev
		m.errMsg = bridge.Message(err)
		m.mu.Unlock()
		m.logger.Warn(ctx, "save columns failed, rolled back", "error", err)
		return err
	}

	// The backend answers with the list as stored; its timestamps win.
	m.mu.Lock()
	if len(stored) == len(next) {
		sortByPosition(stored)
		m.columns = stored
	}
	m.errMsg = ""
	m.mu.Unlock()
	m.bus.Publish(events.ColumnsChanged)
	return nil
}

// Add appends a new column built from d.
func (m *Manager) Add(ctx context.Context, d Draft) (*models.DeckColumnConfig, error) {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	return m.add(ctx, d)
}

func (m *Manager) add(ctx context.Context, d Draft) (*models.DeckColumnConfig, error) {
	cur := m.Columns()
	col, err := newColumn(m.newID(), d, len(cur), m.now())
	if err != nil {
		return nil, m.fail(err)
	}
	if err := m.commit(ctx, applyAdd(cur, col)); err != nil {
		return nil, err
	}
	m.logger.Info(ctx, "column added", "column_id", col.ID, "type", col.Type)
	return &col, nil
}

// Remove deletes column id. The last remaining column cannot be removed.
func (m *Manager) Remove(ctx context.Context, id string) error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	next, err := applyRemove(m.Columns(), id)
	if err != nil {
		return m.fail(err)
	}
	if err := m.commit(ctx, next); err != nil {
		return err
	}
	m.logger.Info(ctx, "column removed", "column_id", id)
	return nil
}

// Update applies p to column id and stamps updatedAt.
func (m *Manager) Update(ctx context.Context, id string, p Patch) error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	next, err := applyUpdate(m.Columns(), id, p, m.now())
	if err != nil {
		return m.fail(err)
	}
	return m.commit(ctx, next)
}

// Move places column id at position; other columns shift to stay dense.
func (m *Manager) Move(ctx context.Context, id string, position int) error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	next, err := applyMove(m.Columns(), id, position)
	if err != nil {
		return m.fail(err)
	}
	return m.commit(ctx, next)
}

// EnsureDefault gives an empty deck a home timeline for did. It reports
// whether a column was added.
func (m *Manager) EnsureDefault(ctx context.Context, did string) (bool, error) {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	if len(m.Columns()) > 0 {
		return false, nil
	}
	if _, err := m.add(ctx, Draft{DID: did, Type: models.ColumnTimeline, Width: models.WidthMedium}); err != nil {
		return false, err
	}
	return true, nil
}

// Orphaned lists columns bound to accounts that are no longer registered.
func (m *Manager) Orphaned(accounts []models.Account) []models.DeckColumnConfig {
	return Orphaned(m.Columns(), accounts)
}

// Backup uploads the stored layout to the backend's backup storage.
func (m *Manager) Backup(ctx context.Context) error {
	if err := m.invoker.Invoke(ctx, bridge.CmdBackupColumns, nil, nil); err != nil {
		return m.fail(err)
	}
	m.logger.Info(ctx, "columns backed up")
	return nil
}

// RestoreBackup replaces the layout with the last backup.
func (m *Manager) RestoreBackup(ctx context.Context) error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	var cols []models.DeckColumnConfig
	if err := m.invoker.Invoke(ctx, bridge.CmdRestoreColumns, nil, &cols); err != nil {
		m.logger.Warn(ctx, "restore columns failed", "error", err)
		return m.fail(err)
	}
	m.replace(cols)
	m.bus.Publish(events.ColumnsChanged)
	m.logger.Info(ctx, "columns restored", "count", len(cols))
	return nil
}
