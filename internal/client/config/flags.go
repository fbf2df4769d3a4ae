package config

import (
	"flag"
	"os"

	"github.com/taurisky/taurisky/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags. See
// the package documentation for the list.
func parseFlags(cfg *Config) {
	// Filter args to include only those handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-k"}, "-l")

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "address and port to access server")
	fs.StringVar(&cfg.EmbeddedDataDir, "d", cfg.EmbeddedDataDir, "run the backend in-process on this data directory")
	fs.StringVar(&cfg.EmbeddedMasterPassword, "k", cfg.EmbeddedMasterPassword, "master password of the embedded backend")
	fs.BoolVar(&cfg.LenientHandles, "l", cfg.LenientHandles, "lenient handle validation")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
