// Package metadata describes the entity-relationship graph the persistence
// core orders mutations against. The graph is read-only once built.
package metadata

// EntityMetadata represents one mapped entity type
type EntityMetadata struct {
	// TargetName uniquely identifies the entity type
	TargetName string

	// TableName is the database table backing the entity (informational)
	TableName string

	// InheritanceTree lists the entity and its ancestors, most-derived first
	InheritanceTree []string

	// RelationsWithJoinColumns are the relations that materialize a foreign key on this entity
	RelationsWithJoinColumns []*RelationMetadata
}

// RelationMetadata is a relation owning a join (foreign key) column
type RelationMetadata struct {
	PropertyName          string
	IsNullable            bool
	EntityMetadata        *EntityMetadata // owner
	InverseEntityMetadata *EntityMetadata // target
}

// NewEntityMetadata creates metadata for targetName with the given ancestors.
// The inheritance tree always starts with targetName itself.
func NewEntityMetadata(targetName string, ancestors ...string) *EntityMetadata {
	tree := make([]string, 0, len(ancestors)+1)
	tree = append(tree, targetName)
	tree = append(tree, ancestors...)

	return &EntityMetadata{
		TargetName:      targetName,
		TableName:       targetName,
		InheritanceTree: tree,
	}
}

// AddRelation registers a relation with a join column pointing at target
func (m *EntityMetadata) AddRelation(propertyName string, target *EntityMetadata, nullable bool) *RelationMetadata {
	relation := &RelationMetadata{
		PropertyName:          propertyName,
		IsNullable:            nullable,
		EntityMetadata:        m,
		InverseEntityMetadata: target,
	}
	m.RelationsWithJoinColumns = append(m.RelationsWithJoinColumns, relation)
	return relation
}

// Matches reports whether name is this entity's own name or one of its ancestors
func (m *EntityMetadata) Matches(name string) bool {
	if m == nil {
		return false
	}
	if m.TargetName == name {
		return true
	}
	for _, ancestor := range m.InheritanceTree {
		if ancestor == name {
			return true
		}
	}
	return false
}

// IsSelfReferencing reports whether the relation points back at its owner
func (r *RelationMetadata) IsSelfReferencing() bool {
	if r.InverseEntityMetadata == nil || r.EntityMetadata == nil {
		return false
	}
	return r.InverseEntityMetadata == r.EntityMetadata ||
		r.InverseEntityMetadata.TargetName == r.EntityMetadata.TargetName
}
