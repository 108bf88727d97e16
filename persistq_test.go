package persistq

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"

	"github.com/ammar0144/persistq/pkg/db"
	"github.com/ammar0144/persistq/pkg/sequencer"
)

type Customer struct {
	ID   uint
	Name string
}

type Order struct {
	ID         uint
	CustomerID uint `gorm:"not null"`
	Customer   *Customer
}

func TestSortThroughRegistry(t *testing.T) {
	registry, err := NewRegistry(&Order{})
	require.NoError(t, err)

	orderMeta, ok := registry.Get(&Order{})
	require.True(t, ok)
	customerMeta, ok := registry.Get(&Customer{})
	require.True(t, ok)

	order := sequencer.NewSubject(orderMeta, sequencer.OpInsert, &Order{}, nil)
	customer := sequencer.NewSubject(customerMeta, sequencer.OpInsert, &Customer{}, nil)

	sorted, err := Sort([]*Subject{order, customer}, Insert)
	require.NoError(t, err)
	assert.Equal(t, []*Subject{customer, order}, sorted)

	sorted, err = Sort([]*Subject{customer, order}, Delete)
	require.NoError(t, err)
	assert.Equal(t, []*Subject{order, customer}, sorted)
}

func TestRepositoryEndToEnd(t *testing.T) {
	ctx := context.Background()

	cfg := db.DefaultConfig()
	cfg.MaxOpenConns = 1
	cfg.MaxIdleConns = 1
	manager, err := db.NewManagerWithDialector(cfg, sqlite.Open(":memory:"), nil)
	require.NoError(t, err)
	defer manager.Close()
	require.NoError(t, manager.DB().AutoMigrate(&Customer{}, &Order{}))

	registry, err := NewRegistry()
	require.NoError(t, err)

	qc, err := NewCache(nil, nil)
	require.NoError(t, err)
	require.NoError(t, qc.Connect(ctx))

	customers, err := NewRepository[Customer](manager, registry, qc, nil)
	require.NoError(t, err)

	require.NoError(t, customers.Create(ctx, &Customer{ID: 1, Name: "Ada"}))
	found, err := customers.FindByID(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "Ada", found.Name)

	executor := NewExecutor(manager, nil)
	require.NoError(t, executor.Execute(ctx, nil))
}
