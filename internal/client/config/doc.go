// Package config loads runtime configuration for the TauriSky deck client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   address:port of the backend gRPC endpoint
//	-d string   run the backend in-process on this data directory instead
//	-k string   master password of the embedded backend's storage
//	-l          lenient handle validation (only reject empty handles)
//
// # JSON schema
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "embedded_data_dir": "",
//	  "embedded_master_password": "",
//	  "lenient_handles": false,
//	  "request_timeout": "45s"
//	}
package config
