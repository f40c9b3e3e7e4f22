package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/safecircle/internal/flagx"
)

// parseFlags populates Config fields from command-line flags.
//
// Supported flags:
//
//	-a string    gRPC bind address (e.g., ":50051")
//	-o string    ops HTTP bind address (e.g., ":9090")
//	-d string    PostgreSQL DSN
//	-s string    JWT HMAC secret key
//	-t duration  session token validity (e.g., "24h")
//	-bind-device session bound to its device (bool, use -bind-device=false to disable)
//	-stale duration  presence staleness window
//	-radius float    default nearby radius, km
//	-grace duration  empty group grace period
//	-sweep duration  empty group sweep interval
//	-store-timeout duration  per-request store timeout
//	-page int    maximum rows per read
//	-u / -p / -b / -g / -e  S3 user, password, bucket, region, endpoint
//	-log-format / -log-level  logger backend and level
//
// os.Args is first filtered with flagx.FilterArgs so flags owned by other
// components do not make parsing fail.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{
		"-a", "-o", "-d", "-s", "-t", "-bind-device", "-stale", "-radius", "-grace", "-sweep",
		"-store-timeout", "-page", "-u", "-p", "-b", "-g", "-e", "-log-format", "-log-level",
	}, "-bind-device")

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrGRPC, "a", config.EndpointAddrGRPC, "address and port to run server")
	fs.StringVar(&config.OpsAddr, "o", config.OpsAddr, "address and port for metrics and health checks")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.DurationVar(&config.AccessTokenValidityDuration, "t", config.AccessTokenValidityDuration, "access token validity")
	fs.BoolVar(&config.DeviceBinding, "bind-device", config.DeviceBinding, "bind sessions to their device")
	fs.DurationVar(&config.PresenceStaleness, "stale", config.PresenceStaleness, "presence staleness window")
	fs.Float64Var(&config.NearbyRadiusKm, "radius", config.NearbyRadiusKm, "default nearby radius, km")
	fs.DurationVar(&config.GroupGracePeriod, "grace", config.GroupGracePeriod, "empty group grace period")
	fs.DurationVar(&config.GroupSweepInterval, "sweep", config.GroupSweepInterval, "empty group sweep interval")
	fs.DurationVar(&config.StoreTimeout, "store-timeout", config.StoreTimeout, "store timeout per request")
	fs.IntVar(&config.MessagePageSize, "page", config.MessagePageSize, "maximum rows per read")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	fs.StringVar(&config.LogFormat, "log-format", config.LogFormat, "log format: slog or zap")
	fs.StringVar(&config.LogLevel, "log-level", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
