package schema

import (
	"errors"
	"fmt"
)

// ErrAmbiguousPrimaryKey is returned when a record type's mapping
// declares a primary key field that does not resolve to a column, or
// declares two different primary key fields via `db:",pk"` and
// PrimaryKeyNamer at once.
var ErrAmbiguousPrimaryKey = errors.New("schema: ambiguous primary key")

// UnsupportedFieldTypeError reports a field whose Go type cannot be
// mapped to a column or a child collection (spec.md §4.1,
// SchemaError::UnsupportedFieldType).
type UnsupportedFieldTypeError struct {
	Type  string
	Field string
}

// Error returns the error string.
func (e *UnsupportedFieldTypeError) Error() string {
	return fmt.Sprintf("schema: field %q has unsupported type %q", e.Field, e.Type)
}

// NewUnsupportedFieldTypeError returns a new UnsupportedFieldTypeError.
func NewUnsupportedFieldTypeError(field, typeName string) *UnsupportedFieldTypeError {
	return &UnsupportedFieldTypeError{Field: field, Type: typeName}
}

// IsUnsupportedFieldType returns true if err is an UnsupportedFieldTypeError.
func IsUnsupportedFieldType(err error) bool {
	if err == nil {
		return false
	}
	var e *UnsupportedFieldTypeError
	return errors.As(err, &e)
}

// InvalidChildCollectionError reports a child-collection field whose
// element type is not itself a record type (spec.md §7: "child collection
// whose element is not a record type").
type InvalidChildCollectionError struct {
	Field   string
	Element string
}

// Error returns the error string.
func (e *InvalidChildCollectionError) Error() string {
	return fmt.Sprintf("schema: child collection field %q has non-record element type %q", e.Field, e.Element)
}

// NewInvalidChildCollectionError returns a new InvalidChildCollectionError.
func NewInvalidChildCollectionError(field, element string) *InvalidChildCollectionError {
	return &InvalidChildCollectionError{Field: field, Element: element}
}

// IsInvalidChildCollection returns true if err is an InvalidChildCollectionError.
func IsInvalidChildCollection(err error) bool {
	if err == nil {
		return false
	}
	var e *InvalidChildCollectionError
	return errors.As(err, &e)
}
