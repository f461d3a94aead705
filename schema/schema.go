// Package schema derives a TableSchema from a Go struct type via
// structural reflection (spec.md §4.1). It never touches a database: a
// TableSchema describes how a record type maps onto a table, independent
// of any particular connection.
package schema

import (
	"reflect"

	"github.com/ormkit/ormkit/driver"
)

// Column describes one SQL column derived from a column field.
type Column struct {
	// Name is the SQL column name.
	Name string
	// Field is the Go struct field name the column was derived from.
	Field string
	Type  driver.PrimitiveType
	// Nullable is true when the field's Go type is a pointer to a
	// supported primitive.
	Nullable bool

	// fieldIndex is the reflect.StructField index used to read/write this
	// column's value on a record instance.
	fieldIndex int
}

// ChildCollection describes one child-collection field: an optional
// ordered sequence of another record type, populated only by an explicit
// join (spec.md §3).
type ChildCollection struct {
	// Field is the Go struct field name.
	Field string
	// ElementType is the record type of one element of the collection.
	ElementType reflect.Type

	fieldIndex int
}

// TableSchema is the derived shape of a record type (spec.md §3).
//
// Column order is stable and deterministic across runs: it is the
// declared field order of the record type, less any skipped or
// child-collection fields. This order defines parameter-binding order for
// inserts and updates.
type TableSchema struct {
	Type      reflect.Type
	TableName string
	Columns   []Column
	// PrimaryKey is the index into Columns of the primary key column, or
	// -1 if the record type has none.
	PrimaryKey       int
	ChildCollections []ChildCollection
}

// ColumnByField returns the column derived from the named Go struct
// field, if any.
func (s *TableSchema) ColumnByField(field string) (*Column, bool) {
	for i := range s.Columns {
		if s.Columns[i].Field == field {
			return &s.Columns[i], true
		}
	}
	return nil, false
}

// ColumnByName returns the column with the given SQL column name, if any.
func (s *TableSchema) ColumnByName(name string) (*Column, bool) {
	for i := range s.Columns {
		if s.Columns[i].Name == name {
			return &s.Columns[i], true
		}
	}
	return nil, false
}

// ChildByField returns the child-collection descriptor for the named Go
// struct field, if any.
func (s *TableSchema) ChildByField(field string) (*ChildCollection, bool) {
	for i := range s.ChildCollections {
		if s.ChildCollections[i].Field == field {
			return &s.ChildCollections[i], true
		}
	}
	return nil, false
}

// PrimaryKeyColumn returns the primary key column and true, or a zero
// Column and false if the schema has none.
func (s *TableSchema) PrimaryKeyColumn() (Column, bool) {
	if s.PrimaryKey < 0 {
		return Column{}, false
	}
	return s.Columns[s.PrimaryKey], true
}

// TableNamer lets a record type override its default table name.
type TableNamer interface {
	TableName() string
}

// ColumnMapper lets a record type expose a bulk fieldName -> columnName
// override table (spec.md §4.1). The mapping must be deterministic and
// total over the fields it covers; fields it does not mention default to
// their Go field name.
type ColumnMapper interface {
	ColumnNames() map[string]string
}

// PrimaryKeyNamer lets a record type declare its primary key field
// explicitly, overriding the "id" inference rule (spec.md §9 open
// question: identity inference).
type PrimaryKeyNamer interface {
	PrimaryKeyField() string
}
