package config

import (
	"flag"
	"os"
	"time"

	"github.com/taurisky/taurisky/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   gRPC bind address (e.g., "127.0.0.1:50051")
//	-d string   data directory
//	-s string   storage driver: file, sqlite, postgres
//	-n string   database DSN
//	-k string   master password of the encrypted storage
//	-p string   default PDS URL
//	-t int      XRPC request timeout, seconds
//	-i          allow http:// PDS URLs
//	-b string   S3 bucket for deck backups
//	-g string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000")
//	-u string   S3 access key
//	-w string   S3 secret key
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, so the -c/-config flag of the JSON layer does not collide.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:],
		[]string{"-a", "-d", "-s", "-n", "-k", "-p", "-t", "-b", "-g", "-e", "-u", "-w"}, "-i")

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrGRPC, "a", config.EndpointAddrGRPC, "address and port to run server")
	fs.StringVar(&config.DataDir, "d", config.DataDir, "data directory")
	fs.StringVar(&config.StorageDriver, "s", config.StorageDriver, "storage driver (file, sqlite, postgres)")
	fs.StringVar(&config.DatabaseDSN, "n", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.MasterPassword, "k", config.MasterPassword, "storage master password")
	fs.StringVar(&config.DefaultServerURL, "p", config.DefaultServerURL, "default PDS URL")

	httpTimeout := fs.Int("t", int(config.HTTPTimeout.Seconds()), "XRPC request timeout (in seconds)")

	fs.BoolVar(&config.AllowInsecurePDS, "i", config.AllowInsecurePDS, "allow http:// PDS URLs")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 backup bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.S3AccessKey, "u", config.S3AccessKey, "S3 access key")
	fs.StringVar(&config.S3SecretKey, "w", config.S3SecretKey, "S3 secret key")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.HTTPTimeout = time.Duration(*httpTimeout) * time.Second
}
