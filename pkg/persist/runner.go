// Package persist executes a sequenced change set inside one transaction.
package persist

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ammar0144/persistq/pkg/db"
	"github.com/ammar0144/persistq/pkg/sequencer"
)

// ErrMissingJunction is returned for a junction subject with no join table row
var ErrMissingJunction = errors.New("junction subject has no join table row")

// QueryRunner executes subject mutations against the database
type QueryRunner interface {
	// Transaction runs fn with a runner bound to a single transaction
	Transaction(ctx context.Context, fn func(tx QueryRunner) error) error

	Insert(ctx context.Context, subject *sequencer.Subject) error
	Update(ctx context.Context, subject *sequencer.Subject) error
	Remove(ctx context.Context, subject *sequencer.Subject) error
}

// GormRunner is a QueryRunner over a GORM connection.
// Associations are never saved implicitly: the execution order belongs to the sequencer.
type GormRunner struct {
	db *gorm.DB
}

// NewGormRunner creates a runner on db
func NewGormRunner(db *gorm.DB) *GormRunner {
	return &GormRunner{db: db}
}

// Transaction implements QueryRunner
func (r *GormRunner) Transaction(ctx context.Context, fn func(tx QueryRunner) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormRunner{db: tx})
	})
}

// Insert implements QueryRunner
func (r *GormRunner) Insert(ctx context.Context, subject *sequencer.Subject) error {
	if subject.IsJunction() {
		if subject.Junction == nil {
			return ErrMissingJunction
		}
		query, args := db.InsertRow(subject.Junction.Table, subject.Junction.Values)
		return r.exec(ctx, query, args)
	}

	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(subject.Entity).Error; err != nil {
		return fmt.Errorf("insert %s: %w", entityName(subject), err)
	}
	return nil
}

// Update implements QueryRunner
func (r *GormRunner) Update(ctx context.Context, subject *sequencer.Subject) error {
	if subject.Entity == nil {
		return fmt.Errorf("update %s: subject has no entity", entityName(subject))
	}
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Save(subject.Entity).Error; err != nil {
		return fmt.Errorf("update %s: %w", entityName(subject), err)
	}
	return nil
}

// Remove implements QueryRunner
func (r *GormRunner) Remove(ctx context.Context, subject *sequencer.Subject) error {
	if subject.IsJunction() {
		if subject.Junction == nil {
			return ErrMissingJunction
		}
		query, args, err := db.DeleteRow(subject.Junction.Table, subject.Junction.Values)
		if err != nil {
			return err
		}
		return r.exec(ctx, query, args)
	}

	target := subject.DatabaseEntity
	if target == nil {
		target = subject.Entity
	}
	if err := r.db.WithContext(ctx).Delete(target).Error; err != nil {
		return fmt.Errorf("remove %s: %w", entityName(subject), err)
	}
	return nil
}

func (r *GormRunner) exec(ctx context.Context, query string, args []interface{}) error {
	if err := r.db.WithContext(ctx).Exec(query, args...).Error; err != nil {
		return fmt.Errorf("junction %q: %w", query, err)
	}
	return nil
}

func entityName(subject *sequencer.Subject) string {
	if subject.Metadata == nil {
		return "entity"
	}
	return subject.Metadata.TargetName
}
