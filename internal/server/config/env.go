package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment variable read by the server.
const EnvPrefix = "SAFECIRCLE_"

// parseEnv loads a .env file from the working directory when present and
// overlays SAFECIRCLE_* variables onto config. Variables already set in the
// process environment win over the file. Malformed numbers panic, the same
// way a malformed JSON file does.
func parseEnv(config *Config) {
	_ = godotenv.Load()

	str := func(name string, dst *string) {
		if v, ok := os.LookupEnv(EnvPrefix + name); ok {
			*dst = v
		}
	}
	dur := func(name string, dst *time.Duration) {
		if v, ok := os.LookupEnv(EnvPrefix + name); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				panic(err)
			}
			*dst = d
		}
	}

	str("GRPC_ADDR", &config.EndpointAddrGRPC)
	str("OPS_ADDR", &config.OpsAddr)
	str("DATABASE_DSN", &config.DatabaseDSN)
	str("SECRET_KEY", &config.SecretKey)
	dur("ACCESS_TOKEN_VALIDITY", &config.AccessTokenValidityDuration)
	dur("PRESENCE_STALENESS", &config.PresenceStaleness)
	dur("GROUP_GRACE_PERIOD", &config.GroupGracePeriod)
	dur("GROUP_SWEEP_INTERVAL", &config.GroupSweepInterval)
	dur("STORE_TIMEOUT", &config.StoreTimeout)
	str("S3_ROOT_USER", &config.S3RootUser)
	str("S3_ROOT_PASSWORD", &config.S3RootPassword)
	str("S3_BUCKET", &config.S3Bucket)
	str("S3_REGION", &config.S3Region)
	str("S3_BASE_ENDPOINT", &config.S3BaseEndpoint)
	str("LOG_FORMAT", &config.LogFormat)
	str("LOG_LEVEL", &config.LogLevel)

	if v, ok := os.LookupEnv(EnvPrefix + "DEVICE_BINDING"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			panic(err)
		}
		config.DeviceBinding = b
	}
	if v, ok := os.LookupEnv(EnvPrefix + "NEARBY_RADIUS_KM"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			panic(err)
		}
		config.NearbyRadiusKm = f
	}
	if v, ok := os.LookupEnv(EnvPrefix + "MESSAGE_PAGE_SIZE"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			panic(err)
		}
		config.MessagePageSize = n
	}
}
