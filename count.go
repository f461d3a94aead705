package ormkit

import (
	"context"

	"github.com/ormkit/ormkit/driver"
)

// Count issues `SELECT COUNT(*)` over the principal's FROM/WHERE, with
// no ordering, limit, columns, or auxiliary statements (spec.md §4.4
// "Count").
func (q *Query[T]) Count(ctx context.Context) (int64, error) {
	if q.err != nil {
		return 0, q.err
	}
	sch, err := q.db.schemaFor(q.entityType)
	if err != nil {
		return 0, err
	}
	principalPred, _, err := q.partitionPredicate()
	if err != nil {
		return 0, err
	}

	drv := q.db.drv
	var args []driver.Value
	sql := "SELECT COUNT(*) FROM " + drv.QuoteIdentifier(sch.TableName) + " AS " + principalAlias
	if principalPred != nil {
		where, err := lowerExpr(drv, principalAlias, sch, principalPred, &args)
		if err != nil {
			q.db.logError("", err)
			return 0, err
		}
		sql += " WHERE " + where
	}
	stmt := statement{sql: sql, args: args}
	q.db.logQuery(stmt)

	return q.db.countOne(ctx, stmt)
}
