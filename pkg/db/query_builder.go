package db

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// SQL builder for rows the ORM has no model for, such as many-to-many junction rows.
//
// SECURITY WARNING:
// This builder does NOT escape table or column names. Identifiers must come from
// entity metadata or other trusted sources, never from user input. Values are
// always passed as parameters.

// Operator represents SQL comparison operators
type Operator string

const (
	Equal     Operator = "="
	NotEqual  Operator = "!="
	In        Operator = "IN"
	NotIn     Operator = "NOT IN"
	IsNull    Operator = "IS NULL"
	IsNotNull Operator = "IS NOT NULL"
)

// Condition represents a WHERE clause condition
type Condition struct {
	Field    string
	Operator Operator
	Value    interface{}
}

// Builder builds INSERT and DELETE statements for a single table
type Builder struct {
	table string
	where []Condition
}

// NewBuilder creates a new query builder
// SECURITY: The table parameter must be a validated, trusted identifier.
func NewBuilder(table string) *Builder {
	return &Builder{table: table}
}

// Where adds an AND-ed WHERE condition
func (b *Builder) Where(field string, operator Operator, value interface{}) *Builder {
	b.where = append(b.where, Condition{Field: field, Operator: operator, Value: value})
	return b
}

// WhereValues adds an equality condition per column, in column name order.
// A nil value becomes IS NULL.
func (b *Builder) WhereValues(values map[string]interface{}) *Builder {
	for _, column := range sortedColumns(values) {
		if values[column] == nil {
			b.Where(column, IsNull, nil)
			continue
		}
		b.Where(column, Equal, values[column])
	}
	return b
}

// BuildInsert builds an INSERT for the given columns
func (b *Builder) BuildInsert(columns []string) (string, int) {
	var query strings.Builder
	query.WriteString("INSERT INTO ")
	query.WriteString(b.table)
	query.WriteString(" (")
	query.WriteString(strings.Join(columns, ", "))
	query.WriteString(") VALUES (")

	placeholders := make([]string, len(columns))
	for i := range placeholders {
		placeholders[i] = "?"
	}
	query.WriteString(strings.Join(placeholders, ", "))
	query.WriteString(")")

	return query.String(), len(columns)
}

// BuildDelete builds a DELETE restricted by the accumulated conditions.
// A builder without conditions refuses to build a full-table delete.
func (b *Builder) BuildDelete() (string, []interface{}, error) {
	if len(b.where) == 0 {
		return "", nil, fmt.Errorf("refusing to delete from %s without conditions", b.table)
	}

	var query strings.Builder
	var args []interface{}
	query.WriteString("DELETE FROM ")
	query.WriteString(b.table)
	query.WriteString(" WHERE ")

	parts := make([]string, 0, len(b.where))
	for _, cond := range b.where {
		sql, condArgs := buildCondition(cond)
		parts = append(parts, sql)
		args = append(args, condArgs...)
	}
	query.WriteString(strings.Join(parts, " AND "))

	return query.String(), args, nil
}

// InsertRow builds an INSERT for a column/value map, in column name order
func InsertRow(table string, values map[string]interface{}) (string, []interface{}) {
	columns := sortedColumns(values)
	args := make([]interface{}, len(columns))
	for i, column := range columns {
		args[i] = values[column]
	}
	query, _ := NewBuilder(table).BuildInsert(columns)
	return query, args
}

// DeleteRow builds a DELETE matching every column of values
func DeleteRow(table string, values map[string]interface{}) (string, []interface{}, error) {
	return NewBuilder(table).WhereValues(values).BuildDelete()
}

func buildCondition(cond Condition) (string, []interface{}) {
	switch cond.Operator {
	case IsNull, IsNotNull:
		return fmt.Sprintf("%s %s", cond.Field, cond.Operator), nil
	case In, NotIn:
		return buildInCondition(cond)
	default:
		return fmt.Sprintf("%s %s ?", cond.Field, cond.Operator), []interface{}{cond.Value}
	}
}

// buildInCondition expands slice values into one placeholder per element
func buildInCondition(cond Condition) (string, []interface{}) {
	if cond.Value == nil {
		if cond.Operator == In {
			return "1 = 0", nil
		}
		return "1 = 1", nil
	}

	v := reflect.ValueOf(cond.Value)
	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		return fmt.Sprintf("%s %s (?)", cond.Field, cond.Operator), []interface{}{cond.Value}
	}

	length := v.Len()
	if length == 0 {
		if cond.Operator == In {
			return "1 = 0", nil
		}
		return "1 = 1", nil
	}

	placeholders := make([]string, length)
	args := make([]interface{}, length)
	for i := 0; i < length; i++ {
		placeholders[i] = "?"
		args[i] = v.Index(i).Interface()
	}

	return fmt.Sprintf("%s %s (%s)", cond.Field, cond.Operator, strings.Join(placeholders, ", ")), args
}

func sortedColumns(values map[string]interface{}) []string {
	columns := make([]string, 0, len(values))
	for column := range values {
		columns = append(columns, column)
	}
	sort.Strings(columns)
	return columns
}
