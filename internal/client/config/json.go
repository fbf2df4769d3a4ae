package config

import (
	"encoding/json"
	"os"

	"github.com/taurisky/taurisky/internal/flagx"
	"github.com/taurisky/taurisky/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
type JsonConfig struct {
	ServerEndpointAddr     string         `json:"server_endpoint_addr"`
	EmbeddedDataDir        string         `json:"embedded_data_dir"`
	EmbeddedMasterPassword string         `json:"embedded_master_password"`
	LenientHandles         *bool          `json:"lenient_handles"`
	RequestTimeout         timex.Duration `json:"request_timeout"`
}

// parseJson overlays Config with values loaded from the JSON file named by -c
// or -config. Keys missing from the file keep their current value. Panics on
// read or unmarshal errors.
func parseJson(cfg *Config) {
	// Resolve file path from flags.
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.ServerEndpointAddr != "" {
		cfg.ServerEndpointAddr = jc.ServerEndpointAddr
	}
	if jc.EmbeddedDataDir != "" {
		cfg.EmbeddedDataDir = jc.EmbeddedDataDir
	}
	if jc.EmbeddedMasterPassword != "" {
		cfg.EmbeddedMasterPassword = jc.EmbeddedMasterPassword
	}
	if jc.LenientHandles != nil {
		cfg.LenientHandles = *jc.LenientHandles
	}
	if jc.RequestTimeout.Duration > 0 {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
}
