package cache

import (
	"fmt"

	legacyredis "github.com/go-redis/redis"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// New builds a memory or redis backed cache from cfg.
// Database backed caches need a connection and are built by NewWithDB.
func New(cfg *Config, logger *zap.Logger) (*Cache, error) {
	return NewWithDB(cfg, nil, logger)
}

// NewWithDB builds a cache from cfg; db is only used by the database store
func NewWithDB(cfg *Config, db *gorm.DB, logger *zap.Logger) (*Cache, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if !cfg.Enabled {
		return nil, ErrCacheDisabled
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid cache config: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	var store Store
	switch cfg.Type {
	case StoreMemory:
		store = NewMemoryStore()
	case StoreRedis:
		store = NewRedisStore(newRedisClient(&cfg.Redis), logger)
	case StoreDatabase:
		if db == nil {
			return nil, fmt.Errorf("cache type %q requires a database connection", cfg.Type)
		}
		store = NewTableStore(db, cfg.Database.TableName)
	}

	return NewCache(store, cfg, logger)
}

// newRedisClient creates a client of the configured generation
func newRedisClient(cfg *RedisConfig) interface{} {
	if cfg.ClientGeneration == ClientV6 {
		return newLegacyRedisClient(cfg)
	}

	if cfg.IsClusterMode() {
		return redis.NewClusterClient(&redis.ClusterOptions{
			Addrs:           cfg.Cluster.Addresses,
			Username:        cfg.Cluster.Username,
			Password:        cfg.Cluster.Password,
			PoolSize:        cfg.PoolSize,
			MinIdleConns:    cfg.MinIdleConns,
			ConnMaxLifetime: cfg.MaxConnAge,
			PoolTimeout:     cfg.PoolTimeout,
			ConnMaxIdleTime: cfg.IdleTimeout,
			ReadTimeout:     cfg.ReadTimeout,
			WriteTimeout:    cfg.WriteTimeout,
			DialTimeout:     cfg.DialTimeout,
		})
	}

	return redis.NewClient(&redis.Options{
		Addr:            cfg.GetAddr(),
		Password:        cfg.Password,
		DB:              cfg.Database,
		PoolSize:        cfg.PoolSize,
		MinIdleConns:    cfg.MinIdleConns,
		ConnMaxLifetime: cfg.MaxConnAge,
		PoolTimeout:     cfg.PoolTimeout,
		ConnMaxIdleTime: cfg.IdleTimeout,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		DialTimeout:     cfg.DialTimeout,
	})
}

func newLegacyRedisClient(cfg *RedisConfig) interface{} {
	if cfg.IsClusterMode() {
		return legacyredis.NewClusterClient(&legacyredis.ClusterOptions{
			Addrs:        cfg.Cluster.Addresses,
			Password:     cfg.Cluster.Password,
			PoolSize:     cfg.PoolSize,
			MinIdleConns: cfg.MinIdleConns,
			MaxConnAge:   cfg.MaxConnAge,
			PoolTimeout:  cfg.PoolTimeout,
			IdleTimeout:  cfg.IdleTimeout,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			DialTimeout:  cfg.DialTimeout,
		})
	}

	return legacyredis.NewClient(&legacyredis.Options{
		Addr:         cfg.GetAddr(),
		Password:     cfg.Password,
		DB:           cfg.Database,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		MaxConnAge:   cfg.MaxConnAge,
		PoolTimeout:  cfg.PoolTimeout,
		IdleTimeout:  cfg.IdleTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		DialTimeout:  cfg.DialTimeout,
	})
}
