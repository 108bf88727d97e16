package sequencer

import "github.com/ammar0144/persistq/pkg/metadata"

// Operation is the mutation a subject represents
type Operation int

const (
	OpInsert Operation = iota
	OpUpdate
	OpRemove
)

func (o Operation) String() string {
	switch o {
	case OpInsert:
		return "insert"
	case OpUpdate:
		return "update"
	case OpRemove:
		return "remove"
	default:
		return "unknown"
	}
}

// Junction describes a many-to-many join table row
type Junction struct {
	Table  string
	Values map[string]interface{}
}

// Subject is one pending mutation produced by change detection
type Subject struct {
	// Metadata is the owning entity type; nil for junction-table-only operations
	Metadata *metadata.EntityMetadata

	// Entity is the in-memory object being persisted
	Entity interface{}

	// DatabaseEntity is the previously loaded database snapshot
	DatabaseEntity interface{}

	Op       Operation
	Junction *Junction
}

// NewSubject creates a subject for an entity mutation
func NewSubject(m *metadata.EntityMetadata, op Operation, entity, databaseEntity interface{}) *Subject {
	return &Subject{
		Metadata:       m,
		Entity:         entity,
		DatabaseEntity: databaseEntity,
		Op:             op,
	}
}

// NewJunctionSubject creates a subject for a join table row
func NewJunctionSubject(op Operation, table string, values map[string]interface{}) *Subject {
	return &Subject{
		Op:       op,
		Junction: &Junction{Table: table, Values: values},
	}
}

// IsJunction reports whether the subject has no tracked entity on either side
func (s *Subject) IsJunction() bool {
	return s.Entity == nil && s.DatabaseEntity == nil
}

// targetName returns the subject's entity name or "" when it has no metadata
func (s *Subject) targetName() string {
	if s.Metadata == nil {
		return ""
	}
	return s.Metadata.TargetName
}
