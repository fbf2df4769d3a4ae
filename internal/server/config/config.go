// Package config handles configuration for the backend daemon, including
// defaults, JSON overlay, and command-line flags.
package config

import (
	"time"

	"github.com/taurisky/taurisky/internal/common"
)

// Config holds runtime settings for the TauriSky backend.
//
// Fields:
//   - EndpointAddrGRPC: bind address of the command bridge.
//   - DataDir: directory holding salt.bin, storage.enc, columns.json or the SQLite file.
//   - StorageDriver: "file", "sqlite" or "postgres".
//   - DatabaseDSN: SQLite path or PostgreSQL URL (pgx); unused by the file driver.
//   - MasterPassword: input of the storage key derivation. Do not use the default in prod.
//   - DefaultServerURL: PDS used when a login does not name one.
//   - HTTPTimeout: per-request timeout of XRPC calls.
//   - AllowInsecurePDS: accept http:// servers (local development PDS).
//   - S3Bucket / S3Region / S3BaseEndpoint / S3AccessKey / S3SecretKey: deck backup
//     storage; an empty bucket disables backups.
type Config struct {
	EndpointAddrGRPC string
	DataDir          string
	StorageDriver    string
	DatabaseDSN      string
	MasterPassword   string
	DefaultServerURL string
	HTTPTimeout      time.Duration
	AllowInsecurePDS bool
	S3Bucket         string
	S3Region         string
	S3BaseEndpoint   string
	S3AccessKey      string
	S3SecretKey      string
}

// LoadDefaults populates Config with development defaults.
// NOTE: the master password default is insecure and must be overridden.
func (c *Config) LoadDefaults() {
	c.EndpointAddrGRPC = "127.0.0.1:50051"
	c.DataDir = "data"
	c.StorageDriver = "file"
	c.DatabaseDSN = ""
	c.MasterPassword = "taurisky-dev-master"
	c.DefaultServerURL = common.DefaultServerURL
	c.HTTPTimeout = 30 * time.Second
	c.AllowInsecurePDS = false
	c.S3Bucket = ""
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = ""
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file and finally from command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
