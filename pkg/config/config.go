// Package config loads the application configuration from a YAML file
// layered over code defaults and environment variables.
package config

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/ammar0144/persistq/pkg/cache"
	"github.com/ammar0144/persistq/pkg/db"
	"github.com/ammar0144/persistq/pkg/logging"
)

// Environment variables that override file values
const (
	EnvDatabasePassword = "PERSISTQ_DB_PASSWORD"
	EnvRedisPassword    = "PERSISTQ_REDIS_PASSWORD"
	EnvCacheType        = "PERSISTQ_CACHE_TYPE"
	EnvCacheEnabled     = "PERSISTQ_CACHE_ENABLED"
	EnvLogLevel         = "PERSISTQ_LOG_LEVEL"
)

// Config is the complete application configuration
type Config struct {
	Database db.Config      `json:"database" yaml:"database"`
	Cache    cache.Config   `json:"cache" yaml:"cache"`
	Logging  logging.Config `json:"logging" yaml:"logging"`
}

// Default returns the configuration used when no file sets a value
func Default() *Config {
	return &Config{
		Database: *db.DefaultConfig(),
		Cache:    *cache.DefaultConfig(),
		Logging:  *logging.DefaultConfig(),
	}
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. An empty path loads defaults and environment only.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open config: %w", err)
		}
		defer file.Close()

		if err := decode(file, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	if err := applyEnvironment(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Parse decodes YAML from r over the defaults without environment overrides
func Parse(r io.Reader) (*Config, error) {
	cfg := Default()
	if err := decode(r, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func decode(r io.Reader, cfg *Config) error {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && err != io.EOF {
		return err
	}
	return nil
}

func applyEnvironment(cfg *Config) error {
	if val := os.Getenv(EnvDatabasePassword); val != "" {
		cfg.Database.Password = val
	}
	if val := os.Getenv(EnvRedisPassword); val != "" {
		cfg.Cache.Redis.Password = val
	}
	if val := os.Getenv(EnvCacheType); val != "" {
		cfg.Cache.Type = cache.StoreType(val)
	}
	if val := os.Getenv(EnvCacheEnabled); val != "" {
		enabled, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvCacheEnabled, err)
		}
		cfg.Cache.Enabled = enabled
	}
	if val := os.Getenv(EnvLogLevel); val != "" {
		cfg.Logging.Level = val
	}
	return nil
}

// Validate checks every section. The database section is only checked
// once a database name is set, so cache-only setups load without one.
func (c *Config) Validate() error {
	if c.Database.Database != "" {
		if err := c.Database.Validate(); err != nil {
			return fmt.Errorf("database: %w", err)
		}
	}
	if err := c.Cache.Validate(); err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	return nil
}
