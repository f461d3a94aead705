package ormkit

import (
	"context"
	"fmt"
	"strings"

	"github.com/ormkit/ormkit/driver"
	"github.com/ormkit/ormkit/schema"
)

// orderBySQL renders the ORDER BY clause, if any, for the form whose
// join index is joinIdx (-1 for the OverAllForm).
func orderBySQL(drv driver.Driver, alias string, sch *schema.TableSchema, orderings []orderSpec, joinIdx int) (string, error) {
	var parts []string
	for _, o := range orderings {
		if o.joinIdx != joinIdx {
			continue
		}
		col, ok := sch.ColumnByField(o.field)
		if !ok {
			return "", NewSqlGenError(sch.TableName, ErrUnknownColumn)
		}
		dir := "ASC"
		if o.descending {
			dir = "DESC"
		}
		parts = append(parts, alias+"."+drv.QuoteIdentifier(col.Name)+" "+dir)
	}
	if len(parts) == 0 {
		return "", nil
	}
	return " ORDER BY " + strings.Join(parts, ", "), nil
}

// limitSQL renders the LIMIT/OFFSET clause, if any, for joinIdx.
func limitSQL(limits []limitSpec, joinIdx int) string {
	for _, l := range limits {
		if l.joinIdx != joinIdx {
			continue
		}
		if l.offset > 0 {
			return fmt.Sprintf(" LIMIT %d OFFSET %d", l.limit, l.offset)
		}
		return fmt.Sprintf(" LIMIT %d", l.limit)
	}
	return ""
}

// buildPrincipalSelect lowers the chain's table/where/order/limit nodes
// for the OverAllForm into the principal SELECT (spec.md §4.3).
func (q *Query[T]) buildPrincipalSelect(sch *schema.TableSchema, principalPred *Expr) (statement, error) {
	drv := q.db.drv
	var args []driver.Value
	sql := "SELECT " + columnList(drv, principalAlias, sch) +
		" FROM " + drv.QuoteIdentifier(sch.TableName) + " AS " + principalAlias

	if principalPred != nil {
		where, err := lowerExpr(drv, principalAlias, sch, principalPred, &args)
		if err != nil {
			q.db.logError("", err)
			return statement{}, err
		}
		sql += " WHERE " + where
	}
	orderSQL, err := orderBySQL(drv, principalAlias, sch, q.orderings, -1)
	if err != nil {
		q.db.logError("", err)
		return statement{}, err
	}
	sql += orderSQL
	sql += limitSQL(q.limits, -1)
	return statement{sql: sql, args: args}, nil
}

// buildAuxiliary lowers one join's child-load statement, keyed on the
// deduplicated parent key values already observed in the principal
// result (spec.md §4.3 "Auxiliary (child-load) statement").
func (q *Query[T]) buildAuxiliary(idx int, parentKeys []driver.Value, auxPred *Expr) (statement, error) {
	j := q.joins[idx]
	drv := q.db.drv
	childSchema, err := q.db.schemaFor(j.elementType)
	if err != nil {
		return statement{}, err
	}
	childCol, ok := childSchema.ColumnByField(j.childKey)
	if !ok {
		e := NewSqlGenError(childSchema.TableName, ErrUnknownColumn)
		q.db.logError("", e)
		return statement{}, e
	}

	var args []driver.Value
	var from string
	switch j.kind {
	case joinStandard:
		from = drv.QuoteIdentifier(childSchema.TableName) + " AS " + principalAlias
		args = append(args, parentKeys...)
	case joinPivot:
		pivotSchema, err := q.db.schemaFor(j.pivotType)
		if err != nil {
			return statement{}, err
		}
		pivotChildCol, ok := pivotSchema.ColumnByField(j.pivotChildKey)
		if !ok {
			e := NewSqlGenError(pivotSchema.TableName, ErrUnknownColumn)
			q.db.logError("", e)
			return statement{}, e
		}
		pivotParentCol, ok := pivotSchema.ColumnByField(j.pivotParentKey)
		if !ok {
			e := NewSqlGenError(pivotSchema.TableName, ErrUnknownColumn)
			q.db.logError("", e)
			return statement{}, e
		}
		from = drv.QuoteIdentifier(childSchema.TableName) + " AS " + principalAlias
		subquery := "SELECT " + drv.QuoteIdentifier(pivotChildCol.Name) +
			" FROM " + drv.QuoteIdentifier(pivotSchema.TableName) +
			" WHERE " + drv.QuoteIdentifier(pivotParentCol.Name) + " IN (" + inPlaceholders(drv, 1, len(parentKeys)) + ")"
		args = append(args, parentKeys...)
		sql := "SELECT " + columnList(drv, principalAlias, childSchema) +
			" FROM " + from +
			" WHERE " + principalAlias + "." + drv.QuoteIdentifier(childCol.Name) + " IN (" + subquery + ")"
		if auxPred != nil {
			where, err := lowerExpr(drv, principalAlias, childSchema, auxPred, &args)
			if err != nil {
				q.db.logError("", err)
				return statement{}, err
			}
			sql += " AND (" + where + ")"
		}
		orderSQL, err := orderBySQL(drv, principalAlias, childSchema, q.orderings, idx)
		if err != nil {
			q.db.logError("", err)
			return statement{}, err
		}
		sql += orderSQL
		sql += limitSQL(q.limits, idx)
		return statement{sql: sql, args: args}, nil
	}

	sql := "SELECT " + columnList(drv, principalAlias, childSchema) +
		" FROM " + from +
		" WHERE " + principalAlias + "." + drv.QuoteIdentifier(childCol.Name) + " IN (" + inPlaceholders(drv, 1, len(args)) + ")"
	if auxPred != nil {
		where, err := lowerExpr(drv, principalAlias, childSchema, auxPred, &args)
		if err != nil {
			q.db.logError("", err)
			return statement{}, err
		}
		sql += " AND (" + where + ")"
	}
	orderSQL, err := orderBySQL(drv, principalAlias, childSchema, q.orderings, idx)
	if err != nil {
		q.db.logError("", err)
		return statement{}, err
	}
	sql += orderSQL
	sql += limitSQL(q.limits, idx)
	return statement{sql: sql, args: args}, nil
}

// buildPivotLinkStatement lowers the pivot table's own link rows for a
// PivotJoin into a statement that returns (pivotParentKey, pivotChildKey)
// pairs for the given deduplicated parent keys (spec.md §4.4, pivot join
// resolution). Its result lets loadOneJoin attribute a fetched child to
// the right parent bucket instead of matching the child's and parent's
// own keys directly, which are unrelated in a genuine many-to-many
// relationship.
func (q *Query[T]) buildPivotLinkStatement(idx int, parentKeys []driver.Value) (statement, []driver.PrimitiveType, error) {
	j := q.joins[idx]
	drv := q.db.drv
	pivotSchema, err := q.db.schemaFor(j.pivotType)
	if err != nil {
		return statement{}, nil, err
	}
	pivotParentCol, ok := pivotSchema.ColumnByField(j.pivotParentKey)
	if !ok {
		e := NewSqlGenError(pivotSchema.TableName, ErrUnknownColumn)
		q.db.logError("", e)
		return statement{}, nil, e
	}
	pivotChildCol, ok := pivotSchema.ColumnByField(j.pivotChildKey)
	if !ok {
		e := NewSqlGenError(pivotSchema.TableName, ErrUnknownColumn)
		q.db.logError("", e)
		return statement{}, nil, e
	}
	sql := "SELECT " + principalAlias + "." + drv.QuoteIdentifier(pivotParentCol.Name) +
		", " + principalAlias + "." + drv.QuoteIdentifier(pivotChildCol.Name) +
		" FROM " + drv.QuoteIdentifier(pivotSchema.TableName) + " AS " + principalAlias +
		" WHERE " + principalAlias + "." + drv.QuoteIdentifier(pivotParentCol.Name) +
		" IN (" + inPlaceholders(drv, 1, len(parentKeys)) + ")"
	return statement{sql: sql, args: parentKeys}, []driver.PrimitiveType{pivotParentCol.Type, pivotChildCol.Type}, nil
}

// Select executes the chain and returns the materialized records in
// principal-result order, including any joined child collections
// (spec.md §4.4).
func (q *Query[T]) Select(ctx context.Context) ([]T, error) {
	if q.err != nil {
		return nil, q.err
	}
	sch, err := q.db.schemaFor(q.entityType)
	if err != nil {
		return nil, err
	}
	principalPred, auxiliaryPred, err := q.partitionPredicate()
	if err != nil {
		return nil, err
	}
	stmt, err := q.buildPrincipalSelect(sch, principalPred)
	if err != nil {
		return nil, err
	}
	q.db.logQuery(stmt)

	rows, err := q.db.queryRows(ctx, stmt, columnTypes(sch))
	if err != nil {
		return nil, err
	}
	records, err := decodeRows[T](rows, sch)
	if err != nil {
		q.db.logError(stmt.sql, err)
		return nil, err
	}
	if err := q.loadChildren(ctx, sch, records, auxiliaryPred); err != nil {
		return nil, err
	}
	return records, nil
}

// First returns the first record matching the chain, or ErrNotFound if
// none match (supplemented convenience, spec.md §9 ambient conveniences).
func (q *Query[T]) First(ctx context.Context) (T, error) {
	var zero T
	results, err := q.Select(ctx)
	if err != nil {
		return zero, err
	}
	if len(results) == 0 {
		return zero, ErrNotFound
	}
	return results[0], nil
}

// OnlyOne returns the single record matching the chain, or
// ErrNotFound/ErrNotSingular if zero or more than one match.
func (q *Query[T]) OnlyOne(ctx context.Context) (T, error) {
	var zero T
	results, err := q.Select(ctx)
	if err != nil {
		return zero, err
	}
	switch len(results) {
	case 0:
		return zero, ErrNotFound
	case 1:
		return results[0], nil
	default:
		return zero, ErrNotSingular
	}
}

// Exist reports whether the chain matches at least one row.
func (q *Query[T]) Exist(ctx context.Context) (bool, error) {
	n, err := q.Count(ctx)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
