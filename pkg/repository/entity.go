package repository

import (
	"context"
	"fmt"
	"reflect"

	"gorm.io/gorm"
)

// Identifiable lets a model report its own primary key value.
// Models that do not implement it are read through the GORM schema.
type Identifiable interface {
	GetPrimaryKeyValue() interface{}
}

// primaryKeyOf returns the primary key value of model
func primaryKeyOf(ctx context.Context, db *gorm.DB, model interface{}) (interface{}, error) {
	if identifiable, ok := model.(Identifiable); ok {
		return identifiable.GetPrimaryKeyValue(), nil
	}

	stmt := &gorm.Statement{DB: db}
	if err := stmt.Parse(model); err != nil {
		return nil, fmt.Errorf("failed to parse model %T: %w", model, err)
	}

	field := stmt.Schema.PrioritizedPrimaryField
	if field == nil {
		return nil, fmt.Errorf("model %T has no primary key", model)
	}

	value, zero := field.ValueOf(ctx, reflect.ValueOf(model))
	if zero {
		return nil, fmt.Errorf("model %T has a zero primary key", model)
	}
	return value, nil
}

// EntityIdentifier is the cache identifier of one row
func EntityIdentifier(table string, id interface{}) string {
	return fmt.Sprintf("%s:%v", table, id)
}
