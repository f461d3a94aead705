package driver

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PrimitiveType enumerates the supported column primitive types (spec.md §3).
type PrimitiveType int

// Supported primitive types.
const (
	TypeInt8 PrimitiveType = iota
	TypeInt16
	TypeInt32
	TypeInt64
	TypeUint8
	TypeUint16
	TypeUint32
	TypeUint64
	TypeFloat32
	TypeFloat64
	TypeBool
	TypeString
	TypeBytes
	TypeDate
	TypeUUID
)

// String returns the canonical name of the primitive type.
func (t PrimitiveType) String() string {
	switch t {
	case TypeInt8:
		return "int8"
	case TypeInt16:
		return "int16"
	case TypeInt32:
		return "int32"
	case TypeInt64:
		return "int64"
	case TypeUint8:
		return "uint8"
	case TypeUint16:
		return "uint16"
	case TypeUint32:
		return "uint32"
	case TypeUint64:
		return "uint64"
	case TypeFloat32:
		return "float32"
	case TypeFloat64:
		return "float64"
	case TypeBool:
		return "bool"
	case TypeString:
		return "string"
	case TypeBytes:
		return "bytes"
	case TypeDate:
		return "date"
	case TypeUUID:
		return "uuid"
	default:
		return fmt.Sprintf("PrimitiveType(%d)", int(t))
	}
}

// Value is a typed, bindable column value. It is a closed sum type
// (spec.md §9 design notes): exactly one of its typed fields is
// meaningful, selected by Type, unless Null is set.
type Value struct {
	Type   PrimitiveType
	Null   bool
	Int    int64
	Uint   uint64
	Float  float64
	Bool   bool
	Str    string
	Bytes  []byte
	Date   time.Time
	UUID   uuid.UUID
}

// NullValue returns the null representation of t.
func NullValue(t PrimitiveType) Value { return Value{Type: t, Null: true} }

// IntValue returns a signed-integer Value of width t.
func IntValue(t PrimitiveType, v int64) Value { return Value{Type: t, Int: v} }

// UintValue returns an unsigned-integer Value of width t.
func UintValue(t PrimitiveType, v uint64) Value { return Value{Type: t, Uint: v} }

// FloatValue returns a floating point Value of width t.
func FloatValue(t PrimitiveType, v float64) Value { return Value{Type: t, Float: v} }

// BoolValue returns a boolean Value.
func BoolValue(v bool) Value { return Value{Type: TypeBool, Bool: v} }

// StringValue returns a text Value.
func StringValue(v string) Value { return Value{Type: TypeString, Str: v} }

// BytesValue returns a byte-sequence Value.
func BytesValue(v []byte) Value { return Value{Type: TypeBytes, Bytes: v} }

// DateValue returns a calendar-instant Value.
func DateValue(v time.Time) Value { return Value{Type: TypeDate, Date: v} }

// UUIDValue returns a UUID Value.
func UUIDValue(v uuid.UUID) Value { return Value{Type: TypeUUID, UUID: v} }

// Any returns v's payload as a Go value of the expected dynamic type,
// or nil if v is null. It is the inverse of the constructor functions
// above and is used when handing a value to a driver that binds by
// interface{} (e.g. database/sql).
func (v Value) Any() any {
	if v.Null {
		return nil
	}
	switch v.Type {
	case TypeInt8, TypeInt16, TypeInt32, TypeInt64:
		return v.Int
	case TypeUint8, TypeUint16, TypeUint32, TypeUint64:
		return v.Uint
	case TypeFloat32, TypeFloat64:
		return v.Float
	case TypeBool:
		return v.Bool
	case TypeString:
		return v.Str
	case TypeBytes:
		return v.Bytes
	case TypeDate:
		return v.Date
	case TypeUUID:
		return v.UUID
	default:
		return nil
	}
}

// ColumnInfo describes a column introspected from a live table (spec.md §6
// listColumns hook).
type ColumnInfo struct {
	Name     string
	Type     string // driver-reported type keyword, dialect-specific
	Nullable bool
}
