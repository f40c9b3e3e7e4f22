// Package config loads runtime configuration for the SafeCircle CLI.
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
//	-i int      sync poll interval (seconds)
//	-dev string device identifier the session is bound to
//
// # JSON schema
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "poll_interval": "3s",
//	  "device_id": "phone-1",
//	  "request_timeout": "10s"
//	}
package config
