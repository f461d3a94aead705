package ormkit

import (
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"

	"github.com/ormkit/ormkit/driver"
)

type exprKind int

const (
	exprNot exprKind = iota
	exprAnd
	exprOr
	exprEq
	exprNeq
	exprLt
	exprLte
	exprGt
	exprGte
)

// Expr is a node of the predicate Expression tree (spec.md §3): a literal,
// a column reference, a unary NOT, a binary logical AND/OR, or a binary
// comparison. Expr values are pure and immutable; evaluation is deferred
// to SQL generation.
type Expr struct {
	kind     exprKind
	form     reflect.Type
	field    string
	value    driver.Value
	operands []*Expr
	err      error
}

// Eq returns a predicate asserting that field of record type T equals value.
func Eq[T any](field string, value any) *Expr { return compare[T](exprEq, field, value) }

// Neq returns a predicate asserting that field of record type T does not
// equal value.
func Neq[T any](field string, value any) *Expr { return compare[T](exprNeq, field, value) }

// Lt returns a predicate asserting that field of record type T is less
// than value.
func Lt[T any](field string, value any) *Expr { return compare[T](exprLt, field, value) }

// Lte returns a predicate asserting that field of record type T is less
// than or equal to value.
func Lte[T any](field string, value any) *Expr { return compare[T](exprLte, field, value) }

// Gt returns a predicate asserting that field of record type T is
// greater than value.
func Gt[T any](field string, value any) *Expr { return compare[T](exprGt, field, value) }

// Gte returns a predicate asserting that field of record type T is
// greater than or equal to value.
func Gte[T any](field string, value any) *Expr { return compare[T](exprGte, field, value) }

// IsNull returns a predicate asserting that field of record type T is null.
func IsNull[T any](field string) *Expr {
	return &Expr{kind: exprEq, form: reflect.TypeFor[T](), field: field, value: driver.NullValue(driver.TypeInt8)}
}

// NotNull returns a predicate asserting that field of record type T is
// not null.
func NotNull[T any](field string) *Expr {
	return &Expr{kind: exprNeq, form: reflect.TypeFor[T](), field: field, value: driver.NullValue(driver.TypeInt8)}
}

func compare[T any](kind exprKind, field string, value any) *Expr {
	v, err := encodeLiteral(value)
	return &Expr{kind: kind, form: reflect.TypeFor[T](), field: field, value: v, err: err}
}

// Not negates e.
func Not(e *Expr) *Expr {
	return &Expr{kind: exprNot, operands: []*Expr{e}, err: e.err}
}

// And conjoins exprs.
func And(exprs ...*Expr) *Expr { return logical(exprAnd, exprs) }

// Or disjoins exprs.
func Or(exprs ...*Expr) *Expr { return logical(exprOr, exprs) }

func logical(kind exprKind, exprs []*Expr) *Expr {
	e := &Expr{kind: kind, operands: exprs}
	for _, o := range exprs {
		if o.err != nil {
			e.err = o.err
			break
		}
	}
	return e
}

// forms returns the set of record types this expression tree references
// by column, deduplicated.
func (e *Expr) forms() []reflect.Type {
	seen := map[reflect.Type]bool{}
	var out []reflect.Type
	var walk func(*Expr)
	walk = func(x *Expr) {
		if x == nil {
			return
		}
		if x.form != nil && x.field != "" {
			if !seen[x.form] {
				seen[x.form] = true
				out = append(out, x.form)
			}
		}
		for _, o := range x.operands {
			walk(o)
		}
	}
	walk(e)
	return out
}

// encodeLiteral converts a user-supplied Go value into the driver's
// closed Value sum type, or returns an EncodeError if its shape is
// unsupported (spec.md §7).
func encodeLiteral(value any) (driver.Value, error) {
	switch v := value.(type) {
	case nil:
		return driver.NullValue(0), nil
	case int:
		return driver.IntValue(driver.TypeInt64, int64(v)), nil
	case int8:
		return driver.IntValue(driver.TypeInt8, int64(v)), nil
	case int16:
		return driver.IntValue(driver.TypeInt16, int64(v)), nil
	case int32:
		return driver.IntValue(driver.TypeInt32, int64(v)), nil
	case int64:
		return driver.IntValue(driver.TypeInt64, v), nil
	case uint:
		return driver.UintValue(driver.TypeUint64, uint64(v)), nil
	case uint8:
		return driver.UintValue(driver.TypeUint8, uint64(v)), nil
	case uint16:
		return driver.UintValue(driver.TypeUint16, uint64(v)), nil
	case uint32:
		return driver.UintValue(driver.TypeUint32, uint64(v)), nil
	case uint64:
		return driver.UintValue(driver.TypeUint64, v), nil
	case float32:
		return driver.FloatValue(driver.TypeFloat32, float64(v)), nil
	case float64:
		return driver.FloatValue(driver.TypeFloat64, v), nil
	case bool:
		return driver.BoolValue(v), nil
	case string:
		return driver.StringValue(v), nil
	case []byte:
		return driver.BytesValue(v), nil
	case time.Time:
		return driver.DateValue(v), nil
	case uuid.UUID:
		return driver.UUIDValue(v), nil
	case *int64:
		if v == nil {
			return driver.NullValue(driver.TypeInt64), nil
		}
		return driver.IntValue(driver.TypeInt64, *v), nil
	case *string:
		if v == nil {
			return driver.NullValue(driver.TypeString), nil
		}
		return driver.StringValue(*v), nil
	case *time.Time:
		if v == nil {
			return driver.NullValue(driver.TypeDate), nil
		}
		return driver.DateValue(*v), nil
	default:
		return driver.Value{}, NewEncodeError("", fmt.Errorf("unsupported literal type %T", value))
	}
}
