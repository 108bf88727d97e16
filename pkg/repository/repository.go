// Package repository provides cache-first reads and sequenced writes for GORM models.
//
// Reads go through the query result cache: rows by primary key are cached
// under an identifier, filtered lists under their SQL text. Writes run
// through a UnitOfWork so that foreign key order is decided by the
// sequencer, and evict the identifiers of the rows they touch. Cached lists
// are not evicted and expire by duration only.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ammar0144/persistq/pkg/cache"
	"github.com/ammar0144/persistq/pkg/db"
	"github.com/ammar0144/persistq/pkg/metadata"
)

// Repository defines the generic repository interface
type Repository[T any] interface {
	// Queries (cache-first)
	FindByID(ctx context.Context, id interface{}) (*T, error)
	FindWhere(ctx context.Context, query string, args ...interface{}) ([]T, error)

	// Commands (one sequenced transaction per call)
	Create(ctx context.Context, entities ...*T) error
	Update(ctx context.Context, entities ...*T) error
	Delete(ctx context.Context, entities ...*T) error

	// InvalidateCache evicts cached rows by primary key
	InvalidateCache(ctx context.Context, ids ...interface{}) error
}

// Settings tunes a GenericRepository
type Settings struct {
	// CacheDuration of entries written by the repository; zero uses the cache default
	CacheDuration time.Duration
	Logger        *zap.Logger
}

// GenericRepository implements Repository over a db.Manager and an optional cache
type GenericRepository[T any] struct {
	manager  *db.Manager
	registry *metadata.Registry
	cache    cache.QueryResultCache
	meta     *metadata.EntityMetadata
	duration int64
	logger   *zap.Logger
}

var _ Repository[struct{}] = (*GenericRepository[struct{}])(nil)

// NewGenericRepository registers T and returns its repository.
// A nil cache makes every read go to the database.
func NewGenericRepository[T any](manager *db.Manager, registry *metadata.Registry, qc cache.QueryResultCache, settings Settings) (*GenericRepository[T], error) {
	if manager == nil {
		return nil, fmt.Errorf("database manager cannot be nil")
	}
	if registry == nil {
		return nil, fmt.Errorf("metadata registry cannot be nil")
	}

	var model T
	meta, err := registry.Register(&model)
	if err != nil {
		return nil, err
	}

	logger := settings.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &GenericRepository[T]{
		manager:  manager,
		registry: registry,
		cache:    qc,
		meta:     meta,
		duration: settings.CacheDuration.Milliseconds(),
		logger:   logger.With(zap.String("entity", meta.TargetName)),
	}, nil
}

// FindByID finds a row by primary key; a missing row is (nil, nil)
func (r *GenericRepository[T]) FindByID(ctx context.Context, id interface{}) (*T, error) {
	if id == nil {
		return nil, fmt.Errorf("id cannot be nil")
	}

	ctx, cancel := r.manager.WithQueryTimeout(ctx)
	defer cancel()

	opts := cache.Options{
		Identifier: EntityIdentifier(r.meta.TableName, id),
		Duration:   r.duration,
	}

	var entity T
	found, err := r.readThrough(ctx, opts, &entity, func(ctx context.Context) (interface{}, bool, error) {
		var row T
		err := r.manager.DB().WithContext(ctx).First(&row, id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		if err != nil {
			return nil, false, fmt.Errorf("database error: %w", err)
		}
		return row, true, nil
	})
	if err != nil || !found {
		return nil, err
	}
	return &entity, nil
}

// FindWhere finds rows matching a GORM condition, cached by the generated SQL
func (r *GenericRepository[T]) FindWhere(ctx context.Context, query string, args ...interface{}) ([]T, error) {
	ctx, cancel := r.manager.WithQueryTimeout(ctx)
	defer cancel()

	gdb := r.manager.DB()
	sql := gdb.ToSQL(func(tx *gorm.DB) *gorm.DB {
		var rows []T
		return tx.Where(query, args...).Find(&rows)
	})

	opts := cache.Options{Query: sql, Duration: r.duration}

	var entities []T
	_, err := r.readThrough(ctx, opts, &entities, func(ctx context.Context) (interface{}, bool, error) {
		var rows []T
		if err := gdb.WithContext(ctx).Where(query, args...).Find(&rows).Error; err != nil {
			return nil, false, fmt.Errorf("database error: %w", err)
		}
		return rows, true, nil
	})
	if err != nil {
		return nil, err
	}
	return entities, nil
}

// Create inserts entities in one transaction
func (r *GenericRepository[T]) Create(ctx context.Context, entities ...*T) error {
	return r.write(ctx, entities, (*UnitOfWork).Insert)
}

// Update saves entities in one transaction
func (r *GenericRepository[T]) Update(ctx context.Context, entities ...*T) error {
	return r.write(ctx, entities, (*UnitOfWork).Update)
}

// Delete removes the rows of entities in one transaction
func (r *GenericRepository[T]) Delete(ctx context.Context, entities ...*T) error {
	return r.write(ctx, entities, (*UnitOfWork).Remove)
}

// InvalidateCache implements Repository
func (r *GenericRepository[T]) InvalidateCache(ctx context.Context, ids ...interface{}) error {
	if r.cache == nil || len(ids) == 0 {
		return nil
	}
	identifiers := make([]string, len(ids))
	for i, id := range ids {
		identifiers[i] = EntityIdentifier(r.meta.TableName, id)
	}
	return r.cache.Remove(ctx, identifiers)
}

// UnitOfWork starts a unit of work sharing this repository's connection and cache
func (r *GenericRepository[T]) UnitOfWork() *UnitOfWork {
	return NewUnitOfWork(r.manager.DB(), r.registry, r.cache, r.logger)
}

func (r *GenericRepository[T]) write(ctx context.Context, entities []*T, schedule func(*UnitOfWork, context.Context, interface{}) error) error {
	ctx, cancel := r.manager.WithQueryTimeout(ctx)
	defer cancel()

	uow := r.UnitOfWork()
	for _, entity := range entities {
		if entity == nil {
			return fmt.Errorf("entity cannot be nil")
		}
		if err := schedule(uow, ctx, entity); err != nil {
			return err
		}
	}
	return uow.Commit(ctx)
}

// readThrough fills target from a fresh cache entry or from load, storing what
// load returns. The cache is best effort here: its failures are logged and
// the database answers instead.
func (r *GenericRepository[T]) readThrough(ctx context.Context, opts cache.Options, target interface{}, load func(ctx context.Context) (interface{}, bool, error)) (bool, error) {
	var saved *cache.Options
	if r.cache != nil {
		entry, err := r.cache.GetFromCache(ctx, opts)
		switch {
		case err != nil:
			r.logger.Warn("cache read failed, querying database", zap.Error(err))
		case entry != nil && !r.cache.IsExpired(entry):
			if err := decodeResult(entry.Result, target); err == nil {
				return true, nil
			}
			r.logger.Warn("cached result does not match model, querying database")
		default:
			saved = entry
		}
	}

	result, found, err := load(ctx)
	if err != nil || !found {
		return false, err
	}
	if err := decodeResult(result, target); err != nil {
		return false, err
	}

	if r.cache != nil {
		opts.Result = result
		if err := r.cache.StoreInCache(ctx, opts, saved); err != nil {
			r.logger.Warn("failed to cache result", zap.Error(err))
		}
	}
	return true, nil
}

// decodeResult copies a cached or loaded result into target through its JSON form
func decodeResult(result interface{}, target interface{}) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, target)
}
