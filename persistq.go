// Package persistq orders ORM change sets so foreign keys hold at every
// step and caches query results over memory, redis or a database table.
package persistq

import (
	"go.uber.org/zap"

	"github.com/ammar0144/persistq/pkg/cache"
	"github.com/ammar0144/persistq/pkg/db"
	"github.com/ammar0144/persistq/pkg/metadata"
	"github.com/ammar0144/persistq/pkg/persist"
	"github.com/ammar0144/persistq/pkg/repository"
	"github.com/ammar0144/persistq/pkg/sequencer"
)

// Config represents database configuration
type Config = db.Config

// CacheConfig represents query result cache configuration
type CacheConfig = cache.Config

// Subject is one pending mutation
type Subject = sequencer.Subject

// Direction selects the insert or delete ordering pass
type Direction = sequencer.Direction

// Ordering passes
const (
	Insert = sequencer.Insert
	Delete = sequencer.Delete
)

// QueryResultCache is the cache contract used for query results
type QueryResultCache = cache.QueryResultCache

// Repository provides the generic repository interface
type Repository[T any] interface {
	repository.Repository[T]
}

// NewManager creates a new MySQL database manager
func NewManager(config *Config, logger *zap.Logger) (*db.Manager, error) {
	return db.NewManager(config, logger)
}

// NewRegistry builds entity metadata for GORM models
func NewRegistry(models ...interface{}) (*metadata.Registry, error) {
	return metadata.NewRegistry(models...)
}

// Sort orders subjects for the given pass
func Sort(subjects []*Subject, direction Direction) ([]*Subject, error) {
	return sequencer.Sort(subjects, direction)
}

// NewExecutor creates an executor running sequenced change sets on the manager's connection
func NewExecutor(manager *db.Manager, logger *zap.Logger) *persist.Executor {
	return persist.NewExecutor(persist.NewGormRunner(manager.DB()), logger)
}

// NewCache creates a memory or redis backed query result cache
func NewCache(config *CacheConfig, logger *zap.Logger) (*cache.Cache, error) {
	return cache.New(config, logger)
}

// NewRepository creates a repository for T.
// If qc is nil, reads always go to the database.
func NewRepository[T any](manager *db.Manager, registry *metadata.Registry, qc QueryResultCache, logger *zap.Logger) (Repository[T], error) {
	repo, err := repository.NewGenericRepository[T](manager, registry, qc, repository.Settings{Logger: logger})
	if err != nil {
		return nil, err
	}
	return repo, nil
}
