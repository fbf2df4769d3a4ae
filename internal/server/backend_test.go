package server

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taurisky/taurisky/internal/bridge"
	"github.com/taurisky/taurisky/internal/logging"
	"github.com/taurisky/taurisky/internal/models"
	"github.com/taurisky/taurisky/internal/server/config"
)

func testConfig(t *testing.T, driver string) *config.Config {
	t.Helper()
	c := &config.Config{}
	c.LoadDefaults()
	c.DataDir = t.TempDir()
	c.StorageDriver = driver
	return c
}

func TestNewBackend_RegistersEveryCommand(t *testing.T) {
	b, err := NewBackend(context.Background(), testConfig(t, "file"), logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })

	assert.ElementsMatch(t, []string{
		bridge.CmdLogin, bridge.CmdLogout, bridge.CmdRestoreSessions, bridge.CmdRefreshSession,
		bridge.CmdSessionStatus, bridge.CmdListAccounts, bridge.CmdAddAccount, bridge.CmdRemoveAccount,
		bridge.CmdGetColumns, bridge.CmdSaveColumns, bridge.CmdBackupColumns, bridge.CmdRestoreColumns,
	}, b.Router.Commands())
}

func TestNewBackend_SQLiteColumnsAndDisabledBackup(t *testing.T) {
	b, err := NewBackend(context.Background(), testConfig(t, "sqlite"), logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })

	inv := bridge.NewLocal(b.Router)
	ctx := context.Background()

	cols := []models.DeckColumnConfig{{ID: "c1", DID: "did:plc:alice", Type: models.ColumnTimeline, Width: models.WidthMedium}}
	require.NoError(t, inv.Invoke(ctx, bridge.CmdSaveColumns, bridge.SaveColumnsArgs{Columns: cols}, nil))

	var got []models.DeckColumnConfig
	require.NoError(t, inv.Invoke(ctx, bridge.CmdGetColumns, nil, &got))
	require.Len(t, got, 1)

	err = inv.Invoke(ctx, bridge.CmdBackupColumns, nil, nil)
	require.Error(t, err)
	assert.Equal(t, "backup storage is not configured", err.Error())

	var restored []models.Account
	require.NoError(t, inv.Invoke(ctx, bridge.CmdRestoreSessions, nil, &restored))
	assert.Empty(t, restored)
}

func TestNewBackend_UnknownDriver(t *testing.T) {
	_, err := NewBackend(context.Background(), testConfig(t, "mongo"), logging.Discard())
	require.ErrorContains(t, err, "unknown storage driver")
}
