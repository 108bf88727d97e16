package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	legacyredis "github.com/go-redis/redis"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// modernClient is the context-first calling convention of go-redis v9.
// Both *redis.Client and *redis.ClusterClient satisfy it.
type modernClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	FlushDB(ctx context.Context) *redis.StatusCmd
	Ping(ctx context.Context) *redis.StatusCmd
	Close() error
}

// legacyClient is the calling convention of go-redis v6, which takes no context
type legacyClient interface {
	Get(key string) *legacyredis.StringCmd
	Set(key string, value interface{}, expiration time.Duration) *legacyredis.StatusCmd
	Del(keys ...string) *legacyredis.IntCmd
	FlushDB() *legacyredis.StatusCmd
	Ping() *legacyredis.StatusCmd
	Close() error
}

// modernCluster is a go-redis v9 cluster client. Keys spread over shards,
// so multi-key and keyless commands must be fanned out.
type modernCluster interface {
	modernClient
	ForEachMaster(ctx context.Context, fn func(ctx context.Context, client *redis.Client) error) error
	Pipelined(ctx context.Context, fn func(redis.Pipeliner) error) ([]redis.Cmder, error)
}

// legacyCluster is a go-redis v6 cluster client
type legacyCluster interface {
	legacyClient
	ForEachMaster(fn func(client *legacyredis.Client) error) error
	Pipelined(fn func(legacyredis.Pipeliner) error) ([]legacyredis.Cmder, error)
}

// redisConn is the single code path every store operation goes through
// once the client convention has been detected
type redisConn interface {
	convention() string
	ping(ctx context.Context) error
	get(ctx context.Context, key string) ([]byte, bool, error)
	set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	del(ctx context.Context, keys ...string) error
	flush(ctx context.Context) error
	close() error
}

// probeConn selects the adapter matching the client's method signatures.
// Cluster interfaces extend the single node ones and are checked first.
func probeConn(client interface{}) (redisConn, error) {
	switch c := client.(type) {
	case modernCluster:
		return modernClusterConn{modernConn{c}, c}, nil
	case legacyCluster:
		return legacyClusterConn{legacyConn{c}, c}, nil
	case modernClient:
		return modernConn{c}, nil
	case legacyClient:
		return legacyConn{c}, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedClient, client)
	}
}

type modernConn struct {
	client modernClient
}

func (c modernConn) convention() string { return "context" }

func (c modernConn) ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c modernConn) get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

func (c modernConn) set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

func (c modernConn) del(ctx context.Context, keys ...string) error {
	return c.client.Del(ctx, keys...).Err()
}

func (c modernConn) flush(ctx context.Context) error {
	return c.client.FlushDB(ctx).Err()
}

func (c modernConn) close() error {
	return c.client.Close()
}

// legacyConn honors cancellation only between commands; timeouts come from the client options
type legacyConn struct {
	client legacyClient
}

func (c legacyConn) convention() string { return "legacy" }

func (c legacyConn) ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.client.Ping().Err()
}

func (c legacyConn) get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	value, err := c.client.Get(key).Bytes()
	if err == legacyredis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

func (c legacyConn) set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.client.Set(key, value, ttl).Err()
}

func (c legacyConn) del(ctx context.Context, keys ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.client.Del(keys...).Err()
}

func (c legacyConn) flush(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.client.FlushDB().Err()
}

func (c legacyConn) close() error {
	return c.client.Close()
}

// modernClusterConn deletes one key per pipelined command so each lands on its
// own slot owner, and flushes every master
type modernClusterConn struct {
	modernConn
	cluster modernCluster
}

func (c modernClusterConn) convention() string { return "context-cluster" }

func (c modernClusterConn) del(ctx context.Context, keys ...string) error {
	_, err := c.cluster.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, key := range keys {
			pipe.Del(ctx, key)
		}
		return nil
	})
	return err
}

func (c modernClusterConn) flush(ctx context.Context) error {
	return c.cluster.ForEachMaster(ctx, func(ctx context.Context, shard *redis.Client) error {
		return shard.FlushDB(ctx).Err()
	})
}

type legacyClusterConn struct {
	legacyConn
	cluster legacyCluster
}

func (c legacyClusterConn) convention() string { return "legacy-cluster" }

func (c legacyClusterConn) del(ctx context.Context, keys ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := c.cluster.Pipelined(func(pipe legacyredis.Pipeliner) error {
		for _, key := range keys {
			pipe.Del(key)
		}
		return nil
	})
	return err
}

func (c legacyClusterConn) flush(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.cluster.ForEachMaster(func(shard *legacyredis.Client) error {
		return shard.FlushDB().Err()
	})
}

// RedisStore is a Store over a go-redis client of either generation.
// Entries expire natively through the TTL given to Set.
type RedisStore struct {
	client interface{}
	conn   redisConn
	logger *zap.Logger
}

// NewRedisStore wraps client, a go-redis v9 or v6 client.
// The calling convention is detected by Open, not here.
func NewRedisStore(client interface{}, logger *zap.Logger) *RedisStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisStore{client: client, logger: logger}
}

// Name implements Store
func (s *RedisStore) Name() string { return string(StoreRedis) }

// Convention returns the detected calling convention, empty before Open
func (s *RedisStore) Convention() string {
	if s.conn == nil {
		return ""
	}
	return s.conn.convention()
}

// Open implements Store. Connect and Disconnect transitions must be serialized by the caller.
func (s *RedisStore) Open(ctx context.Context) error {
	conn, err := probeConn(s.client)
	if err != nil {
		return err
	}
	if err := conn.ping(ctx); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}

	s.conn = conn
	s.logger.Debug("redis cache connected", zap.String("convention", conn.convention()))
	return nil
}

// Close implements Store
func (s *RedisStore) Close() error {
	if s.conn == nil {
		return nil
	}
	err := s.conn.close()
	s.conn = nil
	return err
}

// Prepare implements Store; redis needs no structure
func (s *RedisStore) Prepare(ctx context.Context) error { return nil }

// Get implements Store
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if s.conn == nil {
		return nil, false, ErrNotConnected
	}
	return s.conn.get(ctx, key)
}

// Set implements Store
func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if s.conn == nil {
		return ErrNotConnected
	}
	if ttl < 0 {
		ttl = 0
	}
	return s.conn.set(ctx, key, value, ttl)
}

// Delete implements Store
func (s *RedisStore) Delete(ctx context.Context, keys ...string) error {
	if s.conn == nil {
		return ErrNotConnected
	}
	if len(keys) == 0 {
		return nil
	}
	return s.conn.del(ctx, keys...)
}

// Flush implements Store
func (s *RedisStore) Flush(ctx context.Context) error {
	if s.conn == nil {
		return ErrNotConnected
	}
	return s.conn.flush(ctx)
}
