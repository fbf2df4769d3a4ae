package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/taurisky/taurisky/internal/client/cli"
	"github.com/taurisky/taurisky/internal/client/config"
	"github.com/taurisky/taurisky/internal/logging"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()
	logger := logging.NewText(os.Stderr, slog.LevelWarn)

	invoker, closeFn, err := cli.Connect(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
		return
	}
	defer func() { _ = closeFn() }()

	cli.NewApp(cfg, invoker, logger).Run(ctx)

}
