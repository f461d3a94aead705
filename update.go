package ormkit

import (
	"context"
	"reflect"

	"github.com/ormkit/ormkit/driver"
)

// Update issues `UPDATE <table> SET <col=?,…> [WHERE …]` against the
// OverAllForm, binding values from record. When setKeys is non-empty
// only those fields are written; otherwise every column field except
// the primary key is written (spec.md §4.3 "Update / Delete"). Update
// is legal only directly on a table or after a single where, and only
// when the chain carries no joins (matrix "table-only" annotation).
func (q *Query[T]) Update(ctx context.Context, record T, setKeys ...string) (int64, error) {
	if q.err != nil {
		return 0, q.err
	}
	if len(q.joins) > 0 || (q.state != stateTable && q.state != stateWhere) {
		e := NewQueryError(q.entityName(), "update", ErrIllegalChain)
		q.db.logError("", e)
		return 0, e
	}
	sch, err := q.db.schemaFor(q.entityType)
	if err != nil {
		return 0, err
	}

	set := setKeys
	if len(set) == 0 {
		for _, c := range sch.Columns {
			if sch.PrimaryKey >= 0 && c.Field == sch.Columns[sch.PrimaryKey].Field {
				continue
			}
			set = append(set, c.Field)
		}
	}

	elem := reflect.ValueOf(record)
	drv := q.db.drv
	var setSQL []string
	var args []driver.Value
	for _, field := range set {
		col, ok := sch.ColumnByField(field)
		if !ok {
			e := NewSqlGenError(sch.TableName, ErrUnknownColumn)
			q.db.logError("", e)
			return 0, e
		}
		if sch.PrimaryKey >= 0 && col.Field == sch.Columns[sch.PrimaryKey].Field {
			continue
		}
		v, err := valueFromField(col.FieldValue(elem), col.Type)
		if err != nil {
			e := NewEncodeError(col.Name, err)
			q.db.logError("", e)
			return 0, e
		}
		args = append(args, v)
		setSQL = append(setSQL, drv.QuoteIdentifier(col.Name)+" = "+drv.Placeholder(len(args)))
	}

	sql := "UPDATE " + drv.QuoteIdentifier(sch.TableName) + " SET " + joinComma(setSQL)
	if q.predicate != nil {
		if err := q.requireSingleFormPredicate(); err != nil {
			return 0, err
		}
		where, err := lowerExpr(drv, drv.QuoteIdentifier(sch.TableName), sch, q.predicate, &args)
		if err != nil {
			q.db.logError("", err)
			return 0, err
		}
		sql += " WHERE " + where
	}

	return q.db.exec(ctx, statement{sql: sql, args: args})
}

func joinComma(parts []string) string {
	out := parts[0]
	for _, p := range parts[1:] {
		out += ", " + p
	}
	return out
}

// requireSingleFormPredicate rejects a WHERE predicate that references a
// joined form; update/delete never see joined forms (spec.md §4.3
// "Joined forms are ignored").
func (q *Query[T]) requireSingleFormPredicate() error {
	for _, f := range q.predicate.forms() {
		if f != q.entityType {
			e := NewSqlGenError(q.entityName(), ErrFormNotInChain)
			q.db.logError("", e)
			return e
		}
	}
	return nil
}

// valueFromField converts a struct field's reflect.Value into the
// driver's Value sum type for binding (spec.md §9 "Decoder/encoder
// polymorphism").
func valueFromField(fv reflect.Value, t driver.PrimitiveType) (driver.Value, error) {
	if fv.Kind() == reflect.Pointer {
		if fv.IsNil() {
			return driver.NullValue(t), nil
		}
		fv = fv.Elem()
	}
	return encodeLiteral(fv.Interface())
}
