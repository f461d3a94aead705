package schema

import "reflect"

// FieldValue returns the reflect.Value of this column's Go struct field on
// the addressable struct value v.
func (c Column) FieldValue(v reflect.Value) reflect.Value {
	return v.Field(c.fieldIndex)
}

// SetFieldValue assigns x to this column's Go struct field on the
// addressable struct value v.
func (c Column) SetFieldValue(v reflect.Value, x reflect.Value) {
	v.Field(c.fieldIndex).Set(x)
}

// FieldValue returns the reflect.Value of this child-collection's Go
// struct field on the addressable struct value v.
func (c ChildCollection) FieldValue(v reflect.Value) reflect.Value {
	return v.Field(c.fieldIndex)
}

// SetFieldValue assigns x to this child-collection's Go struct field on
// the addressable struct value v.
func (c ChildCollection) SetFieldValue(v reflect.Value, x reflect.Value) {
	v.Field(c.fieldIndex).Set(x)
}
