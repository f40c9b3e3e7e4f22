package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	if dir == "" {
		dir = t.TempDir()
	}
	if name == "" {
		name = "cfg.json"
	}
	path := filepath.Join(dir, name)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson_SourcesAndPrecedence(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	dir := t.TempDir()
	pathFlag := writeTempJSON(t, dir, "flag.json", map[string]any{
		"endpoint_addr_grpc":             "www.example:9000",
		"database_dsn":                   "postgres://json",
		"secret_key":                     "my_secret_key",
		"access_token_validity_duration": "1h",
		"device_binding":                 false,
		"presence_staleness":             "90s",
		"nearby_radius_km":               3,
		"group_grace_period":             float64(2 * time.Minute),
		"message_page_size":              10,
		"s3_bucket":                      "bucket",
		"log_level":                      "warn",
	})

	t.Run("loads from json", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", pathFlag}

		cfg := &Config{}
		cfg.LoadDefaults()
		parseJson(cfg)

		assert.Equal(t, "www.example:9000", cfg.EndpointAddrGRPC)
		assert.Equal(t, "postgres://json", cfg.DatabaseDSN)
		assert.Equal(t, "my_secret_key", cfg.SecretKey)
		assert.Equal(t, time.Hour, cfg.AccessTokenValidityDuration)
		assert.False(t, cfg.DeviceBinding)
		assert.Equal(t, 90*time.Second, cfg.PresenceStaleness)
		assert.Equal(t, 3.0, cfg.NearbyRadiusKm)
		assert.Equal(t, 2*time.Minute, cfg.GroupGracePeriod)
		assert.Equal(t, 10, cfg.MessagePageSize)
		assert.Equal(t, "bucket", cfg.S3Bucket)
		assert.Equal(t, "warn", cfg.LogLevel)

		// absent keys keep what was there
		assert.Equal(t, ":9090", cfg.OpsAddr)
		assert.Equal(t, 30*time.Second, cfg.GroupSweepInterval)
		assert.Equal(t, 5*time.Second, cfg.StoreTimeout)
	})

	t.Run("no config flag, no changes", func(t *testing.T) {
		os.Args = []string{"testbin"}

		cfg := &Config{EndpointAddrGRPC: "defaults:1234", StoreTimeout: time.Second}
		parseJson(cfg)

		assert.Equal(t, "defaults:1234", cfg.EndpointAddrGRPC)
		assert.Equal(t, time.Second, cfg.StoreTimeout)
	})

	t.Run("invalid JSON panics", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))

		os.Args = []string{"testbin", "-config", bad}

		require.Panics(t, func() { parseJson(&Config{}) })
	})

	t.Run("missing file panics", func(t *testing.T) {
		os.Args = []string{"testbin", "-c", filepath.Join(dir, "nope.json")}

		require.Panics(t, func() { parseJson(&Config{}) })
	})
}
