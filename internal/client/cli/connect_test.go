package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taurisky/taurisky/internal/bridge"
	"github.com/taurisky/taurisky/internal/client/config"
	"github.com/taurisky/taurisky/internal/logging"
	"github.com/taurisky/taurisky/internal/models"
)

func TestConnect_Embedded(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.EmbeddedDataDir = dir

	inv, closeFn, err := Connect(context.Background(), cfg, logging.Discard())
	require.NoError(t, err)
	defer func() { require.NoError(t, closeFn()) }()

	var accounts []models.Account
	require.NoError(t, inv.Invoke(context.Background(), bridge.CmdListAccounts, nil, &accounts))
	assert.Empty(t, accounts)

	_, err = os.Stat(filepath.Join(dir, "salt.bin"))
	assert.NoError(t, err)
}

func TestConnect_Remote(t *testing.T) {
	cfg := &config.Config{}
	cfg.LoadDefaults()

	inv, closeFn, err := Connect(context.Background(), cfg, logging.Discard())
	require.NoError(t, err)
	assert.NotNil(t, inv)
	assert.NoError(t, closeFn())
}
