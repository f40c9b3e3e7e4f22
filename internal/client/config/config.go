package config

import "time"

// Config holds runtime settings for the SafeCircle CLI.
//
// Fields:
//   - ServerEndpointAddr: host:port of the backend gRPC endpoint.
//   - PollInterval: how often the client calls Sync while logged in.
//   - DeviceID: identifier the session is bound to; defaults to the host name.
//   - RequestTimeout: deadline of a single call.
type Config struct {
	ServerEndpointAddr string
	PollInterval       time.Duration
	DeviceID           string
	RequestTimeout     time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.PollInterval = 3 * time.Second
	c.DeviceID = defaultDeviceID()
	c.RequestTimeout = 10 * time.Second
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
