package cache

import (
	"fmt"
	"time"
)

// Config holds query result cache configuration
type Config struct {
	Enabled bool      `json:"enabled" yaml:"enabled"`
	Type    StoreType `json:"type" yaml:"type"` // memory, redis, database

	// Key and payload layout
	KeyPrefix string `json:"key_prefix" yaml:"key_prefix"`
	Codec     string `json:"codec" yaml:"codec"` // json, msgpack

	// DefaultDuration is applied to entries stored without a duration
	DefaultDuration time.Duration `json:"default_duration" yaml:"default_duration"`

	Redis    RedisConfig `json:"redis" yaml:"redis"`
	Database TableConfig `json:"database" yaml:"database"`

	EnableMetrics bool          `json:"enable_metrics" yaml:"enable_metrics"`
	Logging       LoggingConfig `json:"logging" yaml:"logging"`
}

// RedisConfig holds the redis backend connection settings
type RedisConfig struct {
	// ClientGeneration selects the client library: v9 (context API) or v6 (legacy API)
	ClientGeneration string `json:"client_generation" yaml:"client_generation"`

	Host     string `json:"host" yaml:"host"`
	Port     int    `json:"port" yaml:"port"`
	Password string `json:"password" yaml:"password"`
	Database int    `json:"database" yaml:"database"`

	// Connection Pool
	PoolSize     int           `json:"pool_size" yaml:"pool_size"`
	MinIdleConns int           `json:"min_idle_conns" yaml:"min_idle_conns"`
	MaxConnAge   time.Duration `json:"max_conn_age" yaml:"max_conn_age"`
	PoolTimeout  time.Duration `json:"pool_timeout" yaml:"pool_timeout"`
	IdleTimeout  time.Duration `json:"idle_timeout" yaml:"idle_timeout"`

	ReadTimeout  time.Duration `json:"read_timeout" yaml:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout" yaml:"write_timeout"`
	DialTimeout  time.Duration `json:"dial_timeout" yaml:"dial_timeout"`

	Cluster ClusterConfig `json:"cluster" yaml:"cluster"`
}

// ClusterConfig for Redis Cluster setup
type ClusterConfig struct {
	Enabled   bool     `json:"enabled" yaml:"enabled"`
	Addresses []string `json:"addresses" yaml:"addresses"`
	Username  string   `json:"username" yaml:"username"`
	Password  string   `json:"password" yaml:"password"`
}

// TableConfig holds the database backend settings
type TableConfig struct {
	TableName string `json:"table_name" yaml:"table_name"`
}

// LoggingConfig controls cache logging behavior
type LoggingConfig struct {
	LogCacheHits   bool `json:"log_cache_hits" yaml:"log_cache_hits"`
	LogCacheMisses bool `json:"log_cache_misses" yaml:"log_cache_misses"`
	LogRemovals    bool `json:"log_removals" yaml:"log_removals"`
}

// StoreType names a cache backend
type StoreType string

const (
	StoreMemory   StoreType = "memory"
	StoreRedis    StoreType = "redis"
	StoreDatabase StoreType = "database"
)

// Redis client generations
const (
	ClientV9 = "v9"
	ClientV6 = "v6"
)

// DefaultTableName is the table backing the database store
const DefaultTableName = "query_result_cache"

// DefaultConfig returns a cache configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Enabled:         true,
		Type:            StoreMemory,
		KeyPrefix:       "persistq",
		Codec:           CodecJSON,
		DefaultDuration: time.Second,
		Redis: RedisConfig{
			ClientGeneration: ClientV9,
			Host:             "localhost",
			Port:             6379,
			PoolSize:         10,
			MinIdleConns:     3,
			MaxConnAge:       time.Hour,
			PoolTimeout:      time.Second * 4,
			IdleTimeout:      time.Minute * 5,
			ReadTimeout:      time.Second * 3,
			WriteTimeout:     time.Second * 3,
			DialTimeout:      time.Second * 5,
		},
		Database: TableConfig{
			TableName: DefaultTableName,
		},
		EnableMetrics: true,
		Logging: LoggingConfig{
			LogCacheMisses: true,
			LogRemovals:    true,
		},
	}
}

// Validate checks if the cache configuration is valid
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}

	if c.KeyPrefix == "" {
		return fmt.Errorf("key_prefix is required when cache is enabled")
	}
	if c.DefaultDuration < 0 {
		return fmt.Errorf("default_duration must not be negative")
	}
	if _, err := CodecFor(c.Codec); err != nil {
		return err
	}

	switch c.Type {
	case StoreMemory:
	case StoreRedis:
		return c.Redis.validate()
	case StoreDatabase:
		if c.Database.TableName == "" {
			return fmt.Errorf("database table_name is required")
		}
	default:
		return fmt.Errorf("unknown cache type %q", c.Type)
	}

	return nil
}

func (c *RedisConfig) validate() error {
	if c.ClientGeneration != ClientV9 && c.ClientGeneration != ClientV6 {
		return fmt.Errorf("%w: client_generation %q", ErrUnsupportedClient, c.ClientGeneration)
	}
	if !c.IsClusterMode() {
		if c.Host == "" {
			return fmt.Errorf("redis host is required")
		}
		if c.Port <= 0 {
			return fmt.Errorf("redis port must be positive")
		}
	}
	if c.PoolSize < 1 {
		return fmt.Errorf("pool_size must be at least 1")
	}
	return nil
}

// GetAddr returns the Redis connection address
func (c *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsClusterMode returns true if Redis cluster is enabled
func (c *RedisConfig) IsClusterMode() bool {
	return c.Cluster.Enabled && len(c.Cluster.Addresses) > 0
}
