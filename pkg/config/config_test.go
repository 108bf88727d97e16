package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammar0144/persistq/pkg/cache"
)

const sample = `
database:
  host: db.internal
  database: shop
  username: shop
  password: from-file
  max_open_conns: 10
  max_idle_conns: 2
  conn_max_lifetime: 30m
cache:
  type: redis
  key_prefix: shop
  codec: msgpack
  default_duration: 45s
  redis:
    client_generation: v6
    host: cache.internal
    port: 6380
logging:
  level: debug
  format: console
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "persistq.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, sample))
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 3306, cfg.Database.Port, "unset fields keep their defaults")
	assert.Equal(t, 30*time.Minute, cfg.Database.ConnMaxLifetime)

	assert.Equal(t, cache.StoreRedis, cfg.Cache.Type)
	assert.Equal(t, cache.CodecMsgpack, cfg.Cache.Codec)
	assert.Equal(t, 45*time.Second, cfg.Cache.DefaultDuration)
	assert.Equal(t, cache.ClientV6, cfg.Cache.Redis.ClientGeneration)
	assert.Equal(t, "cache.internal:6380", cfg.Cache.Redis.GetAddr())
	assert.Equal(t, 10, cfg.Cache.Redis.PoolSize)

	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv(EnvDatabasePassword, "from-env")
	t.Setenv(EnvCacheType, "memory")
	t.Setenv(EnvLogLevel, "error")

	cfg, err := Load(writeConfig(t, sample))
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Database.Password)
	assert.Equal(t, cache.StoreMemory, cfg.Cache.Type)
	assert.Equal(t, "error", cfg.Logging.Level)

	t.Setenv(EnvCacheEnabled, "maybe")
	_, err = Load("")
	assert.ErrorContains(t, err, EnvCacheEnabled)
}

func TestLoad_DefaultsOnly(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, cache.StoreMemory, cfg.Cache.Type)
	assert.Empty(t, cfg.Database.Database)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to open config")

	_, err = Load(writeConfig(t, "cache:\n  unknown_field: 1\n"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "cache:\n  type: memcached\n"))
	assert.ErrorContains(t, err, "unknown cache type")

	_, err = Load(writeConfig(t, "database:\n  database: shop\n"))
	assert.ErrorContains(t, err, "username")
}

func TestParse_Empty(t *testing.T) {
	cfg, err := Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, *Default(), *cfg)
}
