package db

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"
)

func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.Database = "app"
	cfg.Username = "app"
	cfg.Password = "secret"
	return cfg
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, validConfig().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"missing host", func(c *Config) { c.Host = "" }, "host"},
		{"bad port", func(c *Config) { c.Port = 70000 }, "port"},
		{"missing database", func(c *Config) { c.Database = "" }, "database name"},
		{"missing username", func(c *Config) { c.Username = "" }, "username"},
		{"no connections", func(c *Config) { c.MaxOpenConns = 0 }, "max_open_conns"},
		{"idle above open", func(c *Config) { c.MaxIdleConns = 100 }, "max_idle_conns"},
		{"unknown timezone", func(c *Config) { c.TimeZone = "Europe/Atlantis" }, "timezone"},
		{"missing key file", func(c *Config) {
			c.SSL.Enabled = true
			c.SSL.CertFile = "client.pem"
		}, "KeyFile"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestGetDSN(t *testing.T) {
	dsn, err := validConfig().GetDSN()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(dsn, "app:secret@tcp(localhost:3306)/app?"), dsn)
	assert.Contains(t, dsn, "parseTime=true")
	assert.Contains(t, dsn, "collation=utf8mb4_unicode_ci")
}

func TestGetDSN_SkipVerify(t *testing.T) {
	cfg := validConfig()
	cfg.SSL = SSLConfig{Enabled: true, SkipVerify: true}

	dsn, err := cfg.GetDSN()
	require.NoError(t, err)
	assert.Contains(t, dsn, "tls=skip-verify")
}

func TestGetDSN_MissingCAFile(t *testing.T) {
	cfg := validConfig()
	cfg.SSL = SSLConfig{Enabled: true, CAFile: "/does/not/exist.pem"}

	_, err := cfg.GetDSN()
	assert.Error(t, err)
}

func TestGetLogLevel(t *testing.T) {
	assert.Equal(t, logger.Info, getLogLevel("INFO"))
	assert.Equal(t, logger.Warn, getLogLevel("warn"))
	assert.Equal(t, logger.Silent, getLogLevel("silent"))
	assert.Equal(t, logger.Error, getLogLevel("bogus"))
}

func TestGetDSN_InvalidTimeZone(t *testing.T) {
	cfg := validConfig()
	cfg.TimeZone = "Mars/Olympus"

	_, err := cfg.GetDSN()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Mars/Olympus")
}
