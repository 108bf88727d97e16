package persist

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ammar0144/persistq/pkg/sequencer"
)

// Executor runs a change set through a QueryRunner in sequenced order
type Executor struct {
	runner QueryRunner
	logger *zap.Logger
}

// NewExecutor creates an executor; a nil logger disables logging
func NewExecutor(runner QueryRunner, logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{
		runner: runner,
		logger: logger.With(zap.String("component", "executor")),
	}
}

// Plan is the execution order of one change set
type Plan struct {
	Inserts  []*sequencer.Subject
	Updates  []*sequencer.Subject
	Removals []*sequencer.Subject
}

// Len returns the number of subjects in the plan
func (p *Plan) Len() int {
	return len(p.Inserts) + len(p.Updates) + len(p.Removals)
}

// BuildPlan splits subjects by operation and sequences inserts and removals.
// Updates keep their original order.
func BuildPlan(subjects []*sequencer.Subject) (*Plan, error) {
	var inserts, updates, removals []*sequencer.Subject
	for _, subject := range subjects {
		switch subject.Op {
		case sequencer.OpInsert:
			inserts = append(inserts, subject)
		case sequencer.OpUpdate:
			updates = append(updates, subject)
		case sequencer.OpRemove:
			removals = append(removals, subject)
		default:
			return nil, fmt.Errorf("unknown operation %d", subject.Op)
		}
	}

	sortedInserts, err := sequencer.Sort(inserts, sequencer.Insert)
	if err != nil {
		return nil, fmt.Errorf("failed to order inserts: %w", err)
	}
	sortedRemovals, err := sequencer.Sort(removals, sequencer.Delete)
	if err != nil {
		return nil, fmt.Errorf("failed to order removals: %w", err)
	}

	return &Plan{
		Inserts:  sortedInserts,
		Updates:  updates,
		Removals: sortedRemovals,
	}, nil
}

// Execute sequences subjects and runs them in one transaction:
// inserts, then updates, then removals. Sequencing errors abort before any
// statement is issued; an execution error rolls back the whole batch.
func (e *Executor) Execute(ctx context.Context, subjects []*sequencer.Subject) error {
	if len(subjects) == 0 {
		return nil
	}

	plan, err := BuildPlan(subjects)
	if err != nil {
		e.logger.Error("change set cannot be sequenced", zap.Error(err), zap.Int("subjects", len(subjects)))
		return err
	}

	start := time.Now()
	err = e.runner.Transaction(ctx, func(tx QueryRunner) error {
		for _, subject := range plan.Inserts {
			if err := tx.Insert(ctx, subject); err != nil {
				return err
			}
		}
		for _, subject := range plan.Updates {
			if err := tx.Update(ctx, subject); err != nil {
				return err
			}
		}
		for _, subject := range plan.Removals {
			if err := tx.Remove(ctx, subject); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		e.logger.Error("change set rolled back", zap.Error(err), zap.Int("subjects", plan.Len()))
		return err
	}

	e.logger.Debug("change set committed",
		zap.Int("inserts", len(plan.Inserts)),
		zap.Int("updates", len(plan.Updates)),
		zap.Int("removals", len(plan.Removals)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}
