package ormkit

import (
	"fmt"
	"strings"

	"github.com/ormkit/ormkit/driver"
	"github.com/ormkit/ormkit/schema"
)

// statement is a fully lowered, positionally-parameterised SQL string
// together with the values to bind, in emission order (spec.md §4.3).
type statement struct {
	sql  string
	args []driver.Value
}

const principalAlias = "t0"

// columnList returns the fully-qualified, aliased SELECT column list for
// sch (spec.md §4.3 step 1).
func columnList(drv driver.Driver, alias string, sch *schema.TableSchema) string {
	parts := make([]string, len(sch.Columns))
	for i, c := range sch.Columns {
		parts[i] = alias + "." + drv.QuoteIdentifier(c.Name)
	}
	return strings.Join(parts, ", ")
}

// flattenAnd decomposes the top-level conjunction of e into its
// conjuncts, recursing through nested ANDs. Non-AND nodes are returned
// as a single-element slice.
func flattenAnd(e *Expr) []*Expr {
	if e == nil {
		return nil
	}
	if e.kind == exprAnd {
		var out []*Expr
		for _, o := range e.operands {
			out = append(out, flattenAnd(o)...)
		}
		return out
	}
	return []*Expr{e}
}

// partitionPredicate splits a WHERE expression into the conjunct that
// belongs on the principal statement (referencing only the OverAllForm)
// and, per joinIdx, the conjuncts that belong on that join's auxiliary
// statement (spec.md §4.3 step 3). A conjunct that references more than
// one record type cannot be routed and is rejected with a SqlGenError;
// such a conjunct arises when Or or Not combines comparisons on
// different forms.
func (q *Query[T]) partitionPredicate() (principal *Expr, auxiliary map[int]*Expr, err error) {
	if q.predicate == nil {
		return nil, nil, nil
	}
	auxiliary = map[int]*Expr{}
	for _, conjunct := range flattenAnd(q.predicate) {
		forms := conjunct.forms()
		switch len(forms) {
		case 0:
			principal = andExpr(principal, conjunct)
		case 1:
			if forms[0] == q.entityType {
				principal = andExpr(principal, conjunct)
				continue
			}
			idx := q.joinIndexFor(forms[0])
			if idx < 0 {
				e := NewSqlGenError(q.entityName(), ErrFormNotInChain)
				q.db.logError("", e)
				return nil, nil, e
			}
			auxiliary[idx] = andExpr(auxiliary[idx], conjunct)
		default:
			e := NewSqlGenError(q.entityName(), fmt.Errorf("predicate mixes multiple forms in one clause: %w", ErrFormNotInChain))
			q.db.logError("", e)
			return nil, nil, e
		}
	}
	return principal, auxiliary, nil
}

func andExpr(a, b *Expr) *Expr {
	if a == nil {
		return b
	}
	return And(a, b)
}

// lowerExpr recursively lowers e into a SQL boolean fragment referencing
// alias, appending bound values to args in emission order.
func lowerExpr(drv driver.Driver, alias string, sch *schema.TableSchema, e *Expr, args *[]driver.Value) (string, error) {
	switch e.kind {
	case exprNot:
		inner, err := lowerExpr(drv, alias, sch, e.operands[0], args)
		if err != nil {
			return "", err
		}
		return "NOT (" + inner + ")", nil
	case exprAnd, exprOr:
		op := " AND "
		if e.kind == exprOr {
			op = " OR "
		}
		parts := make([]string, len(e.operands))
		for i, o := range e.operands {
			p, err := lowerExpr(drv, alias, sch, o, args)
			if err != nil {
				return "", err
			}
			parts[i] = "(" + p + ")"
		}
		return strings.Join(parts, op), nil
	default:
		col, ok := sch.ColumnByField(e.field)
		if !ok {
			return "", NewSqlGenError(sch.TableName, ErrUnknownColumn)
		}
		ref := alias + "." + drv.QuoteIdentifier(col.Name)
		if e.value.Null {
			switch e.kind {
			case exprEq:
				return ref + " IS NULL", nil
			case exprNeq:
				return ref + " IS NOT NULL", nil
			default:
				return "", NewSqlGenError(sch.TableName, fmt.Errorf("null value used with non-equality comparator"))
			}
		}
		*args = append(*args, e.value)
		placeholder := drv.Placeholder(len(*args))
		return ref + " " + comparator(e.kind) + " " + placeholder, nil
	}
}

func comparator(kind exprKind) string {
	switch kind {
	case exprEq:
		return "="
	case exprNeq:
		return "!="
	case exprLt:
		return "<"
	case exprLte:
		return "<="
	case exprGt:
		return ">"
	case exprGte:
		return ">="
	default:
		return "="
	}
}

// inPlaceholders renders the comma-separated placeholder list of a
// `col IN (?, ?, …)` fragment for n values, starting at the given
// 1-based placeholder offset.
func inPlaceholders(drv driver.Driver, offset, n int) string {
	parts := make([]string, n)
	for i := 0; i < n; i++ {
		parts[i] = drv.Placeholder(offset + i)
	}
	return strings.Join(parts, ", ")
}
