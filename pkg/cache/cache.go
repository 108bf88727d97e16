// Package cache stores query results keyed by an explicit identifier or by
// the query text, over an in-process map, redis or a database table.
//
// Staleness is decided at read time with IsExpired. Backends with native
// expiry drop entries on their own; the others keep stale entries until
// they are overwritten or removed.
package cache

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// QueryResultCache is the contract the query layer caches results through
type QueryResultCache interface {
	// Connect establishes backend connectivity; Disconnect releases it
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error

	// Synchronize creates backend-side structures, if the backend needs any
	Synchronize(ctx context.Context) error

	// GetFromCache returns nil when the entry is absent or opts carries no key
	GetFromCache(ctx context.Context, opts Options) (*Options, error)

	// StoreInCache writes opts; saved is the entry previously read for the same key, if any
	StoreInCache(ctx context.Context, opts Options, saved *Options) error

	IsExpired(entry *Options) bool

	Remove(ctx context.Context, identifiers []string) error

	// Clear flushes the entire backend namespace
	Clear(ctx context.Context) error
}

var _ QueryResultCache = (*Cache)(nil)

// Cache implements QueryResultCache over a Store
type Cache struct {
	store           Store
	codec           Codec
	keys            Keyer
	defaultDuration time.Duration
	logging         LoggingConfig
	logger          *zap.Logger
	metrics         *Metrics
	now             func() time.Time
}

// NewCache creates a cache over store configured by cfg; a nil cfg uses DefaultConfig
func NewCache(store Store, cfg *Config, logger *zap.Logger) (*Cache, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	codec, err := CodecFor(cfg.Codec)
	if err != nil {
		return nil, err
	}

	var metrics *Metrics
	if cfg.EnableMetrics {
		metrics = NewMetrics()
	}

	return &Cache{
		store:           store,
		codec:           codec,
		keys:            NewKeyer(cfg.KeyPrefix),
		defaultDuration: cfg.DefaultDuration,
		logging:         cfg.Logging,
		logger:          logger.With(zap.String("store", store.Name())),
		metrics:         metrics,
		now:             time.Now,
	}, nil
}

// Store returns the backend
func (c *Cache) Store() Store {
	return c.store
}

// Connect implements QueryResultCache
func (c *Cache) Connect(ctx context.Context) error {
	if err := c.store.Open(ctx); err != nil {
		return c.unavailable("connect", err)
	}
	return nil
}

// Disconnect implements QueryResultCache
func (c *Cache) Disconnect(ctx context.Context) error {
	if err := c.store.Close(); err != nil {
		return c.unavailable("disconnect", err)
	}
	return nil
}

// Synchronize implements QueryResultCache
func (c *Cache) Synchronize(ctx context.Context) error {
	if err := c.store.Prepare(ctx); err != nil {
		return c.unavailable("synchronize", err)
	}
	return nil
}

// GetFromCache implements QueryResultCache.
// Entries read by query text are checked against the stored query, and a
// different text under the same hash is reported as absent.
func (c *Cache) GetFromCache(ctx context.Context, opts Options) (*Options, error) {
	key, ok := c.keys.Key(&opts)
	if !ok {
		return nil, nil
	}

	start := time.Now()
	payload, found, err := c.store.Get(ctx, key)
	c.metrics.RecordGet(time.Since(start))
	if err != nil {
		return nil, c.unavailable("get", err)
	}
	if !found {
		c.miss(key)
		return nil, nil
	}

	entry := &Options{}
	if err := c.codec.Unmarshal(payload, entry); err != nil {
		c.metrics.RecordMalformed()
		c.metrics.RecordCacheError()
		c.logger.Error("cache entry cannot be decoded", zap.String("key", key), zap.Error(err))
		return nil, fmt.Errorf("%w: key %s: %v", ErrMalformedEntry, key, err)
	}

	if opts.Identifier == "" && entry.Query != opts.Query {
		c.metrics.RecordCollision()
		c.logger.Warn("query hash collision", zap.String("key", key))
		c.miss(key)
		return nil, nil
	}

	c.metrics.RecordCacheHit()
	if c.logging.LogCacheHits {
		c.logger.Debug("cache hit", zap.String("key", key))
	}
	return entry, nil
}

// StoreInCache implements QueryResultCache. A zero Time is set to now and a
// zero Duration to the configured default. Backends write by upsert, so
// saved only matters to callers tracking the previous entry.
func (c *Cache) StoreInCache(ctx context.Context, opts Options, saved *Options) error {
	key, ok := c.keys.Key(&opts)
	if !ok {
		return nil
	}

	if opts.Time == 0 {
		opts.Time = c.now().UnixMilli()
	}
	if opts.Duration == 0 {
		opts.Duration = millis(c.defaultDuration)
	}

	payload, err := c.codec.Marshal(&opts)
	if err != nil {
		c.metrics.RecordCacheError()
		return fmt.Errorf("failed to encode cache entry %s: %w", key, err)
	}

	start := time.Now()
	err = c.store.Set(ctx, key, payload, opts.TTL())
	c.metrics.RecordSet(time.Since(start))
	if err != nil {
		return c.unavailable("set", err)
	}
	return nil
}

// IsExpired implements QueryResultCache. It never touches the backend.
func (c *Cache) IsExpired(entry *Options) bool {
	if entry == nil {
		return true
	}
	return entry.Time+entry.Duration < c.now().UnixMilli()
}

// Remove implements QueryResultCache; unknown identifiers are ignored
func (c *Cache) Remove(ctx context.Context, identifiers []string) error {
	keys := make([]string, 0, len(identifiers))
	for _, identifier := range identifiers {
		if identifier == "" {
			continue
		}
		keys = append(keys, c.keys.Identifier(identifier))
	}
	if len(keys) == 0 {
		return nil
	}

	start := time.Now()
	err := c.store.Delete(ctx, keys...)
	c.metrics.RecordRemove(time.Since(start))
	if err != nil {
		return c.unavailable("remove", err)
	}

	if c.logging.LogRemovals {
		c.logger.Debug("cache entries removed", zap.Strings("keys", keys))
	}
	return nil
}

// Clear implements QueryResultCache
func (c *Cache) Clear(ctx context.Context) error {
	c.logger.Warn("flushing the whole cache backend, co-located keys on a shared instance are lost")

	c.metrics.RecordClear()
	if err := c.store.Flush(ctx); err != nil {
		return c.unavailable("clear", err)
	}
	return nil
}

// GetMetrics returns current cache metrics, all zero when metrics are disabled
func (c *Cache) GetMetrics() MetricsSnapshot {
	return c.metrics.GetSnapshot()
}

// ResetMetrics resets all metrics counters
func (c *Cache) ResetMetrics() {
	c.metrics.Reset()
}

func (c *Cache) miss(key string) {
	c.metrics.RecordCacheMiss()
	if c.logging.LogCacheMisses {
		c.logger.Debug("cache miss", zap.String("key", key))
	}
}

func (c *Cache) unavailable(op string, err error) error {
	c.metrics.RecordCacheError()
	c.logger.Error("cache backend failure", zap.String("operation", op), zap.Error(err))
	return fmt.Errorf("%w: %s: %w", ErrCacheUnavailable, op, err)
}

// GetOrQuery returns the cached result for opts when present and fresh.
// Otherwise it runs fetch, stores its result under opts and returns it.
// Cache errors are returned, never downgraded to a miss.
func GetOrQuery(ctx context.Context, cache QueryResultCache, opts Options, fetch func(ctx context.Context) (interface{}, error)) (interface{}, error) {
	saved, err := cache.GetFromCache(ctx, opts)
	if err != nil {
		return nil, err
	}
	if saved != nil && !cache.IsExpired(saved) {
		return saved.Result, nil
	}

	result, err := fetch(ctx)
	if err != nil {
		return nil, err
	}

	opts.Result = result
	opts.Time = 0
	if err := cache.StoreInCache(ctx, opts, saved); err != nil {
		return nil, err
	}
	return result, nil
}
