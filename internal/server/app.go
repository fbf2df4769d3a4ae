// Package server initializes and runs the backend daemon: it opens storage,
// wires the command services and serves the bridge over gRPC until a signal
// arrives.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/taurisky/taurisky/internal/logging"
	"github.com/taurisky/taurisky/internal/server/config"

	gs "github.com/taurisky/taurisky/internal/server/grpc"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	backend *Backend
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSON(slog.LevelInfo)

	backend, err := NewBackend(ctx, c, logger)
	if err != nil {
		return nil, fmt.Errorf("backend init error: %w", err)
	}

	return &App{config: c, logger: logger, backend: backend}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.backend.Router)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until ctx is cancelled or a termination signal arrives, then
// closes storage.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.backend.Close(); err != nil {
		app.logger.Error(ctx, "failed to close storage", "error", err)
	}
	app.logger.Info(ctx, "Stopped")
}
