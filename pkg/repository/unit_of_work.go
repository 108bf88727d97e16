package repository

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ammar0144/persistq/pkg/cache"
	"github.com/ammar0144/persistq/pkg/metadata"
	"github.com/ammar0144/persistq/pkg/persist"
	"github.com/ammar0144/persistq/pkg/sequencer"
)

// UnitOfWork collects changes across entity types and commits them as one
// sequenced transaction. Cached rows of every changed entity are evicted
// after a successful commit. It is not safe for concurrent use.
type UnitOfWork struct {
	db       *gorm.DB
	registry *metadata.Registry
	executor *persist.Executor
	cache    cache.QueryResultCache
	logger   *zap.Logger

	subjects    []*sequencer.Subject
	identifiers []string
}

// NewUnitOfWork creates an empty unit of work; a nil cache disables eviction
func NewUnitOfWork(db *gorm.DB, registry *metadata.Registry, qc cache.QueryResultCache, logger *zap.Logger) *UnitOfWork {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UnitOfWork{
		db:       db,
		registry: registry,
		executor: persist.NewExecutor(persist.NewGormRunner(db), logger),
		cache:    qc,
		logger:   logger,
	}
}

// Insert schedules entity for insertion
func (u *UnitOfWork) Insert(ctx context.Context, entity interface{}) error {
	return u.add(ctx, sequencer.OpInsert, entity, nil)
}

// Update schedules entity for update
func (u *UnitOfWork) Update(ctx context.Context, entity interface{}) error {
	return u.add(ctx, sequencer.OpUpdate, entity, nil)
}

// Remove schedules the row of entity for removal
func (u *UnitOfWork) Remove(ctx context.Context, entity interface{}) error {
	return u.add(ctx, sequencer.OpRemove, nil, entity)
}

// Link schedules a join table row insert
func (u *UnitOfWork) Link(table string, values map[string]interface{}) {
	u.subjects = append(u.subjects, sequencer.NewJunctionSubject(sequencer.OpInsert, table, values))
}

// Unlink schedules a join table row removal
func (u *UnitOfWork) Unlink(table string, values map[string]interface{}) {
	u.subjects = append(u.subjects, sequencer.NewJunctionSubject(sequencer.OpRemove, table, values))
}

// Len returns the number of pending changes
func (u *UnitOfWork) Len() int {
	return len(u.subjects)
}

// Commit executes the pending changes and resets the unit of work.
// Pending changes are kept when execution fails.
func (u *UnitOfWork) Commit(ctx context.Context) error {
	if len(u.subjects) == 0 {
		return nil
	}

	if err := u.executor.Execute(ctx, u.subjects); err != nil {
		return err
	}

	identifiers := u.identifiers
	u.subjects = nil
	u.identifiers = nil

	u.evict(ctx, identifiers)
	return nil
}

// evict is best effort: the commit already succeeded and entries expire on their own
func (u *UnitOfWork) evict(ctx context.Context, identifiers []string) {
	if u.cache == nil || len(identifiers) == 0 {
		return
	}
	if err := u.cache.Remove(ctx, identifiers); err != nil {
		u.logger.Warn("failed to evict cached rows", zap.Strings("identifiers", identifiers), zap.Error(err))
	}
}

func (u *UnitOfWork) add(ctx context.Context, op sequencer.Operation, entity, databaseEntity interface{}) error {
	model := entity
	if model == nil {
		model = databaseEntity
	}
	if model == nil {
		return fmt.Errorf("%s: entity cannot be nil", op)
	}

	m, err := u.registry.Register(model)
	if err != nil {
		return err
	}

	// inserted rows with database generated keys have nothing cached yet
	id, err := primaryKeyOf(ctx, u.db, model)
	if err != nil && op != sequencer.OpInsert {
		return err
	}

	u.subjects = append(u.subjects, sequencer.NewSubject(m, op, entity, databaseEntity))
	if err == nil {
		u.identifiers = append(u.identifiers, EntityIdentifier(m.TableName, id))
	}
	return nil
}
