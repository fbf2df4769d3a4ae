// Command server runs the TauriSky backend daemon: account storage, PDS
// sessions and the deck layout, served to clients over the gRPC bridge.
package main

import (
	"context"
	"log"

	"github.com/taurisky/taurisky/internal/server"
	"github.com/taurisky/taurisky/internal/server/config"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()

	app, err := server.NewApp(ctx, cfg)
	if err != nil {
		log.Fatalf("taurisky backend: %v", err)
	}

	// blocks until SIGINT/SIGTERM
	app.Run(ctx)

}
