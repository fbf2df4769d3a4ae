package config

import "time"

// Config holds runtime settings for the deck client.
//
// Fields:
//   - ServerEndpointAddr: host:port of the backend gRPC endpoint.
//   - EmbeddedDataDir: when set, the backend runs in-process on this directory
//     and ServerEndpointAddr is ignored.
//   - EmbeddedMasterPassword: storage master password of the embedded backend.
//   - LenientHandles: accept any non-empty handle before calling login.
//   - RequestTimeout: upper bound of one bridge call made by the REPL.
type Config struct {
	ServerEndpointAddr     string
	EmbeddedDataDir        string
	EmbeddedMasterPassword string
	LenientHandles         bool
	RequestTimeout         time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.EmbeddedDataDir = ""
	c.EmbeddedMasterPassword = "taurisky-dev-master"
	c.LenientHandles = false
	c.RequestTimeout = 45 * time.Second
}

// Embedded reports whether the backend should run in-process.
func (c *Config) Embedded() bool {
	return c.EmbeddedDataDir != ""
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
