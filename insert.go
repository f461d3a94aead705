package ormkit

import (
	"context"
	"reflect"

	"github.com/ormkit/ormkit/driver"
)

// Insert issues `INSERT INTO <table> (<cols>) VALUES (<?,…>) [, …]` for
// each record, in the order given. Insert is legal only directly on a
// table (spec.md §4.2: "insert is allowed only directly on a table").
// Child-collection fields are ignored; inserting zero rows succeeds as
// a no-op (spec.md §8 boundary behaviours).
func (q *Query[T]) Insert(ctx context.Context, records ...T) error {
	if q.err != nil {
		return q.err
	}
	if q.state != stateTable {
		e := NewQueryError(q.entityName(), "insert", ErrIllegalChain)
		q.db.logError("", e)
		return e
	}
	if len(records) == 0 {
		return nil
	}
	sch, err := q.db.schemaFor(q.entityType)
	if err != nil {
		return err
	}

	drv := q.db.drv
	colNames := make([]string, len(sch.Columns))
	for i, c := range sch.Columns {
		colNames[i] = drv.QuoteIdentifier(c.Name)
	}

	var args []driver.Value
	rowsSQL := make([]string, len(records))
	for r, rec := range records {
		elem := reflect.ValueOf(rec)
		placeholders := make([]string, len(sch.Columns))
		for i, c := range sch.Columns {
			v, err := valueFromField(c.FieldValue(elem), c.Type)
			if err != nil {
				e := NewEncodeError(c.Name, err)
				q.db.logError("", e)
				return e
			}
			args = append(args, v)
			placeholders[i] = drv.Placeholder(len(args))
		}
		rowsSQL[r] = "(" + joinComma(placeholders) + ")"
	}

	sql := "INSERT INTO " + drv.QuoteIdentifier(sch.TableName) +
		" (" + joinComma(colNames) + ") VALUES " + joinComma(rowsSQL)

	_, err = q.db.exec(ctx, statement{sql: sql, args: args})
	return err
}
