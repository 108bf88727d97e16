package cache

import (
	"context"
	"strconv"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestNew_Memory(t *testing.T) {
	c, err := New(nil, nil)
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, c.Store())
}

func TestNew_Disabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = false

	_, err := New(cfg, nil)
	assert.True(t, IsCacheDisabled(err))
}

func TestNew_DatabaseNeedsConnection(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Type = StoreDatabase

	_, err := New(cfg, nil)
	assert.Error(t, err)

	c, err := NewWithDB(cfg, openCacheDB(t), nil)
	require.NoError(t, err)
	assert.IsType(t, &TableStore{}, c.Store())
}

func TestNew_RedisGenerations(t *testing.T) {
	server := miniredis.RunT(t)

	for generation, convention := range map[string]string{ClientV9: "context", ClientV6: "legacy"} {
		t.Run(generation, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Type = StoreRedis
			cfg.Redis.Host = server.Host()
			cfg.Redis.Port = mustPort(t, server)
			cfg.Redis.ClientGeneration = generation

			c, err := New(cfg, zaptest.NewLogger(t))
			require.NoError(t, err)

			ctx := context.Background()
			require.NoError(t, c.Connect(ctx))
			defer c.Disconnect(ctx)

			store, ok := c.Store().(*RedisStore)
			require.True(t, ok)
			assert.Equal(t, convention, store.Convention())

			require.NoError(t, c.StoreInCache(ctx, Options{Identifier: generation, Result: "ok"}, nil))
			assert.True(t, server.Exists("persistq:id:"+generation))
		})
	}
}

func mustPort(t *testing.T, server *miniredis.Miniredis) int {
	t.Helper()
	port, err := strconv.Atoi(server.Port())
	require.NoError(t, err)
	return port
}
