package ormkit

import (
	"context"

	"github.com/ormkit/ormkit/driver"
)

// Delete issues `DELETE FROM <table> [WHERE …]` against the OverAllForm.
// Like Update, Delete is legal only directly on a table or after a
// single where, and only when the chain carries no joins.
func (q *Query[T]) Delete(ctx context.Context) (int64, error) {
	if q.err != nil {
		return 0, q.err
	}
	if len(q.joins) > 0 || (q.state != stateTable && q.state != stateWhere) {
		e := NewQueryError(q.entityName(), "delete", ErrIllegalChain)
		q.db.logError("", e)
		return 0, e
	}
	sch, err := q.db.schemaFor(q.entityType)
	if err != nil {
		return 0, err
	}

	drv := q.db.drv
	sql := "DELETE FROM " + drv.QuoteIdentifier(sch.TableName)
	var args []driver.Value
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
