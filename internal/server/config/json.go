package config

import (
	"encoding/json"
	"os"

	"github.com/taurisky/taurisky/internal/flagx"
	"github.com/taurisky/taurisky/internal/timex"
)

// JsonConfig is the on-disk form of Config. Durations use timex.Duration, so
// both "30s" and integer nanoseconds are accepted.
type JsonConfig struct {
	EndpointAddrGRPC string         `json:"endpoint_addr_grpc"`
	DataDir          string         `json:"data_dir"`
	StorageDriver    string         `json:"storage_driver"`
	DatabaseDSN      string         `json:"database_dsn"`
	MasterPassword   string         `json:"master_password"`
	DefaultServerURL string         `json:"default_server_url"`
	HTTPTimeout      timex.Duration `json:"http_timeout"`
	AllowInsecurePDS *bool          `json:"allow_insecure_pds"`
	S3Bucket         string         `json:"s3_bucket"`
	S3Region         string         `json:"s3_region"`
	S3BaseEndpoint   string         `json:"s3_base_endpoint"`
	S3AccessKey      string         `json:"s3_access_key"`
	S3SecretKey      string         `json:"s3_secret_key"`
}

// parseJson overlays values from the JSON file named by -c/-config. Missing
// keys keep the current value. Unreadable or invalid files panic.
func parseJson(config *Config) {

	// try flags
	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.DataDir, c.DataDir)
	setString(&config.StorageDriver, c.StorageDriver)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.MasterPassword, c.MasterPassword)
	setString(&config.DefaultServerURL, c.DefaultServerURL)
	if c.HTTPTimeout.Duration > 0 {
		config.HTTPTimeout = c.HTTPTimeout.Duration
	}
	if c.AllowInsecurePDS != nil {
		config.AllowInsecurePDS = *c.AllowInsecurePDS
	}
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.S3AccessKey, c.S3AccessKey)
	setString(&config.S3SecretKey, c.S3SecretKey)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
