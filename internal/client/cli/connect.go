package cli

import (
	"context"
	"fmt"

	"github.com/taurisky/taurisky/internal/bridge"
	"github.com/taurisky/taurisky/internal/client/config"
	"github.com/taurisky/taurisky/internal/logging"
	"github.com/taurisky/taurisky/internal/server"

	serverconfig "github.com/taurisky/taurisky/internal/server/config"
)

// Connect returns the invoker for c: an in-process backend on
// c.EmbeddedDataDir, or a gRPC connection to c.ServerEndpointAddr. The
// returned func releases the backend or the connection.
func Connect(ctx context.Context, c *config.Config, logger logging.Logger) (bridge.Invoker, func() error, error) {
	if c.Embedded() {
		sc := &serverconfig.Config{}
		sc.LoadDefaults()
		sc.DataDir = c.EmbeddedDataDir
		sc.MasterPassword = c.EmbeddedMasterPassword

		backend, err := server.NewBackend(ctx, sc, logger.With("module", "backend"))
		if err != nil {
			return nil, nil, fmt.Errorf("embedded backend: %w", err)
		}
		return bridge.WithTimeout(bridge.NewLocal(backend.Router), c.RequestTimeout), backend.Close, nil
	}

	inv, err := bridge.Dial(c.ServerEndpointAddr)
	if err != nil {
		return nil, nil, fmt.Errorf("connect %s: %w", c.ServerEndpointAddr, err)
	}
	return bridge.WithTimeout(inv, c.RequestTimeout), inv.Close, nil
}
