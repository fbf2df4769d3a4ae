package server

import (
	"context"
	"fmt"

	"github.com/taurisky/taurisky/internal/bridge"
	"github.com/taurisky/taurisky/internal/logging"
	"github.com/taurisky/taurisky/internal/server/atproto"
	"github.com/taurisky/taurisky/internal/server/backup"
	"github.com/taurisky/taurisky/internal/server/config"
	"github.com/taurisky/taurisky/internal/server/repositories/repomanager"
	"github.com/taurisky/taurisky/internal/server/services"
)

// Backend is the native side of the bridge: storage, PDS sessions and the
// command router. The daemon serves it over gRPC; the client can also embed
// it in-process.
type Backend struct {
	Router      *bridge.Router
	repomanager repomanager.RepositoryManager
}

func NewBackend(ctx context.Context, c *config.Config, logger logging.Logger) (*Backend, error) {
	sealer, err := repomanager.OpenSealer(c.DataDir, c.MasterPassword)
	if err != nil {
		return nil, fmt.Errorf("storage key: %w", err)
	}

	rm, err := repomanager.Open(ctx, repomanager.Options{
		Driver:  c.StorageDriver,
		DataDir: c.DataDir,
		DSN:     c.DatabaseDSN,
	}, sealer)
	if err != nil {
		return nil, fmt.Errorf("storage init error: %w", err)
	}

	bk, err := backup.New(ctx, backup.Config{
		Bucket:    c.S3Bucket,
		Region:    c.S3Region,
		Endpoint:  c.S3BaseEndpoint,
		AccessKey: c.S3AccessKey,
		SecretKey: c.S3SecretKey,
	}, sealer)
	if err != nil {
		_ = rm.Close()
		return nil, fmt.Errorf("backup init error: %w", err)
	}

	pool := atproto.NewPool(atproto.Options{
		Timeout:       c.HTTPTimeout,
		AllowInsecure: c.AllowInsecurePDS,
		Logger:        logger,
	})

	router := bridge.NewRouter()
	services.NewAuthService(rm, services.PoolFactory(pool), c.DefaultServerURL, logger).Register(router)
	services.NewColumnService(rm, bk, logger).Register(router)

	logger.Info(ctx, "backend ready", "storage", c.StorageDriver, "data_dir", c.DataDir, "backup", bk.Enabled())
	return &Backend{Router: router, repomanager: rm}, nil
}

func (b *Backend) Close() error {
	return b.repomanager.Close()
}
