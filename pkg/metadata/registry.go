package metadata

import (
	"fmt"
	"reflect"
	"sync"

	"gorm.io/gorm/schema"
)

// Inheritor lets a GORM model declare its ancestor names, nearest first,
// excluding the model itself. GORM flattens embedded structs so the chain
// cannot be recovered from the schema.
type Inheritor interface {
	InheritanceTree() []string
}

// Registry builds and holds EntityMetadata for GORM models.
// Belongs-to relations become relations with join columns.
type Registry struct {
	mu        sync.RWMutex
	cache     *sync.Map
	namer     schema.Namer
	metadatas map[string]*EntityMetadata
}

// NewRegistry parses the given models with GORM's schema parser
func NewRegistry(models ...interface{}) (*Registry, error) {
	r := &Registry{
		cache:     &sync.Map{},
		namer:     schema.NamingStrategy{},
		metadatas: make(map[string]*EntityMetadata),
	}

	for _, model := range models {
		if _, err := r.Register(model); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// Register parses model and returns its metadata, building related entities as needed
func (r *Registry) Register(model interface{}) (*EntityMetadata, error) {
	s, err := schema.Parse(model, r.cache, r.namer)
	if err != nil {
		return nil, fmt.Errorf("failed to parse model %T: %w", model, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.fromSchema(s), nil
}

// Get returns the metadata of an already registered model
func (r *Registry) Get(model interface{}) (*EntityMetadata, bool) {
	s, err := schema.Parse(model, r.cache, r.namer)
	if err != nil {
		return nil, false
	}
	return r.Lookup(s.Name)
}

// Lookup returns metadata by target name
func (r *Registry) Lookup(targetName string) (*EntityMetadata, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.metadatas[targetName]
	return m, ok
}

// Len returns the number of known entities
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.metadatas)
}

// fromSchema must be called with the write lock held
func (r *Registry) fromSchema(s *schema.Schema) *EntityMetadata {
	if m, ok := r.metadatas[s.Name]; ok {
		return m
	}

	m := NewEntityMetadata(s.Name, ancestorsOf(s)...)
	m.TableName = s.Table
	// registered before walking relations so cycles terminate
	r.metadatas[s.Name] = m

	// field order keeps the relation list deterministic
	for _, field := range s.Fields {
		rel, ok := s.Relationships.Relations[field.Name]
		if !ok || rel.Type != schema.BelongsTo || rel.FieldSchema == nil {
			continue
		}
		target := r.fromSchema(rel.FieldSchema)
		m.AddRelation(rel.Name, target, joinColumnsNullable(rel))
	}

	return m
}

// joinColumnsNullable is false only when every foreign key column is NOT NULL
func joinColumnsNullable(rel *schema.Relationship) bool {
	found := false
	for _, ref := range rel.References {
		if ref.OwnPrimaryKey || ref.ForeignKey == nil {
			continue
		}
		found = true
		if !ref.ForeignKey.NotNull {
			return true
		}
	}
	return !found
}

func ancestorsOf(s *schema.Schema) []string {
	if s.ModelType == nil {
		return nil
	}
	instance := reflect.New(s.ModelType).Interface()
	inheritor, ok := instance.(Inheritor)
	if !ok {
		return nil
	}
	return inheritor.InheritanceTree()
}
