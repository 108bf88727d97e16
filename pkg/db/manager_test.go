package db

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/sqlite"
)

func TestNewManagerWithDialector(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxOpenConns = 1
	cfg.MaxIdleConns = 1
	cfg.QueryTimeout = time.Second

	manager, err := NewManagerWithDialector(cfg, sqlite.Open(":memory:"), zaptest.NewLogger(t))
	require.NoError(t, err)
	defer manager.Close()

	require.NoError(t, manager.Ping(context.Background()))

	stats, err := manager.Stats()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.MaxOpenConnections)
	assert.Same(t, cfg, manager.Config())

	ctx, cancel := manager.WithQueryTimeout(context.Background())
	defer cancel()
	deadline, ok := ctx.Deadline()
	assert.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(time.Second), deadline, time.Second)

	require.NoError(t, manager.DB().Exec("CREATE TABLE probes (id INTEGER)").Error)
	query, args := InsertRow("probes", map[string]interface{}{"id": 1})
	require.NoError(t, manager.DB().Exec(query, args...).Error)

	var count int64
	require.NoError(t, manager.DB().Table("probes").Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestManager_NoQueryTimeout(t *testing.T) {
	cfg := DefaultConfig()
	cfg.QueryTimeout = 0

	manager, err := NewManagerWithDialector(cfg, sqlite.Open(":memory:"), nil)
	require.NoError(t, err)
	defer manager.Close()

	ctx, cancel := manager.WithQueryTimeout(context.Background())
	defer cancel()
	_, ok := ctx.Deadline()
	assert.False(t, ok)
}

func TestNewManager_InvalidConfig(t *testing.T) {
	_, err := NewManager(nil, nil)
	assert.Error(t, err)

	_, err = NewManager(&Config{}, nil)
	assert.ErrorContains(t, err, "invalid config")
}
