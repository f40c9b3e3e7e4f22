package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/safecircle/internal/flagx"
	"github.com/dmitrijs2005/safecircle/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Durations are
// timex.Duration so both "60s" and integer nanoseconds are accepted.
// Pointer fields distinguish "absent" from the zero value.
type JsonConfig struct {
	EndpointAddrGRPC            string          `json:"endpoint_addr_grpc"`
	OpsAddr                     string          `json:"ops_addr"`
	DatabaseDSN                 string          `json:"database_dsn"`
	SecretKey                   string          `json:"secret_key"`
	AccessTokenValidityDuration *timex.Duration `json:"access_token_validity_duration"`
	DeviceBinding               *bool           `json:"device_binding"`
	PresenceStaleness           *timex.Duration `json:"presence_staleness"`
	NearbyRadiusKm              *float64        `json:"nearby_radius_km"`
	GroupGracePeriod            *timex.Duration `json:"group_grace_period"`
	GroupSweepInterval          *timex.Duration `json:"group_sweep_interval"`
	StoreTimeout                *timex.Duration `json:"store_timeout"`
	MessagePageSize             *int            `json:"message_page_size"`
	S3RootUser                  string          `json:"s3_root_user"`
	S3RootPassword              string          `json:"s3_root_password"`
	S3Bucket                    string          `json:"s3_bucket"`
	S3Region                    string          `json:"s3_region"`
	S3BaseEndpoint              string          `json:"s3_base_endpoint"`
	LogFormat                   string          `json:"log_format"`
	LogLevel                    string          `json:"log_level"`
}

// parseJson loads configuration values from the JSON file named by -c or
// -config. Without the flag nothing is loaded. Only fields present in the
// file override config. An unreadable or malformed file panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.ConfigFileFlag(os.Args[1:])
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setStr := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	setStr(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setStr(&config.OpsAddr, c.OpsAddr)
	setStr(&config.DatabaseDSN, c.DatabaseDSN)
	setStr(&config.SecretKey, c.SecretKey)
	setStr(&config.S3RootUser, c.S3RootUser)
	setStr(&config.S3RootPassword, c.S3RootPassword)
	setStr(&config.S3Bucket, c.S3Bucket)
	setStr(&config.S3Region, c.S3Region)
	setStr(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setStr(&config.LogFormat, c.LogFormat)
	setStr(&config.LogLevel, c.LogLevel)

	if c.AccessTokenValidityDuration != nil {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.PresenceStaleness != nil {
		config.PresenceStaleness = c.PresenceStaleness.Duration
	}
	if c.GroupGracePeriod != nil {
		config.GroupGracePeriod = c.GroupGracePeriod.Duration
	}
	if c.GroupSweepInterval != nil {
		config.GroupSweepInterval = c.GroupSweepInterval.Duration
	}
	if c.StoreTimeout != nil {
		config.StoreTimeout = c.StoreTimeout.Duration
	}
	if c.DeviceBinding != nil {
		config.DeviceBinding = *c.DeviceBinding
	}
	if c.NearbyRadiusKm != nil {
		config.NearbyRadiusKm = *c.NearbyRadiusKm
	}
	if c.MessagePageSize != nil {
		config.MessagePageSize = *c.MessagePageSize
	}
}
