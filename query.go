package ormkit

import (
	"context"
	"reflect"

	"github.com/ormkit/ormkit/schema"
)

// chainState tracks which row of the legal-successor matrix (spec.md
// §4.2) the chain is currently in.
type chainState int

const (
	stateTable chainState = iota
	stateJoin
	stateOrder
	stateLimit
	stateWhere
)

// legalNext enumerates, per chainState, which structural operations
// (join/order/limit/where) may follow.
var legalNext = map[chainState]map[string]bool{
	stateTable: {"join": true, "order": true, "limit": true, "where": true},
	stateJoin:  {"join": true, "order": true, "limit": true, "where": true},
	stateOrder: {"join": true, "order": true, "limit": true, "where": true},
	stateLimit: {"join": true, "where": true},
	stateWhere: {},
}

type joinKind int

const (
	joinStandard joinKind = iota
	joinPivot
)

// joinSpec is one accumulated join node in a chain (spec.md §4.2).
type joinSpec struct {
	kind        joinKind
	targetField string
	elementType reflect.Type

	parentKey string
	childKey  string

	pivotType      reflect.Type
	pivotParentKey string
	pivotChildKey  string

	// parentJoinIdx is the index into Query.joins of the join this one
	// nests under, or -1 if it nests directly under the OverAllForm.
	parentJoinIdx int
}

type orderSpec struct {
	// joinIdx is the index into Query.joins this ordering attaches to,
	// or -1 for the OverAllForm.
	joinIdx    int
	field      string
	descending bool
}

type limitSpec struct {
	joinIdx int
	limit   int
	offset  int
}

// Query is a composable, immutable-by-convention chain of relational
// operations over record type T (spec.md §4.2). Build one with Table,
// refine it with Join/Order/Limit/Where, and terminate it with
// Select/Count/Update/Delete/Insert.
type Query[T any] struct {
	db         *Database
	entityType reflect.Type
	state      chainState

	joins          []*joinSpec
	activeJoinIdx  int
	predicate      *Expr
	wherePlaced    bool
	orderings      []orderSpec
	limits         []limitSpec

	err error
}

// Table starts a new query chain rooted at record type T (spec.md §4.2:
// "The root is always a table").
func Table[T any](db *Database) *Query[T] {
	return &Query[T]{
		db:            db,
		entityType:    reflect.TypeFor[T](),
		state:         stateTable,
		activeJoinIdx: -1,
	}
}

func (q *Query[T]) fail(entity, op string, err error) *Query[T] {
	if q.err == nil {
		if err == ErrUnknownColumn {
			q.err = NewSqlGenError(entity, err)
		} else {
			q.err = NewQueryError(entity, op, err)
		}
		q.db.logError("", q.err)
	}
	return q
}

// focusType returns the record type the chain is currently focused on:
// the most recently joined element type, or the OverAllForm if no join
// is active (spec.md GLOSSARY: "Focus form").
func (q *Query[T]) focusType() reflect.Type {
	if q.activeJoinIdx < 0 {
		return q.entityType
	}
	return q.joins[q.activeJoinIdx].elementType
}

func (q *Query[T]) entityName() string { return q.entityType.Name() }

// Join attaches a standard join to the chain's current focus form:
// targetField must name a child-collection field of the focus form,
// parentKey a column of the focus form, and childKey a column of the
// child's element type (spec.md §4.2).
func (q *Query[T]) Join(targetField, parentKey, childKey string) *Query[T] {
	if q.err != nil {
		return q
	}
	if !legalNext[q.state]["join"] {
		return q.fail(q.entityName(), "join", ErrIllegalChain)
	}
	focus := q.focusType()
	sch, err := q.db.schemaFor(focus)
	if err != nil {
		return q.fail(q.entityName(), "join", err)
	}
	for i, j := range q.joins {
		if j.targetField == targetField && j.parentJoinIdx == q.activeJoinIdx {
			_ = i
			return q.fail(q.entityName(), "join", ErrDuplicateJoin)
		}
	}
	child, ok := sch.ChildByField(targetField)
	if !ok {
		return q.fail(q.entityName(), "join", ErrNotAChildCollection)
	}
	if _, ok := sch.ColumnByField(parentKey); !ok {
		return q.fail(q.entityName(), "join", ErrUnknownColumn)
	}
	childSchema, err := q.db.schemaFor(child.ElementType)
	if err != nil {
		return q.fail(q.entityName(), "join", err)
	}
	if _, ok := childSchema.ColumnByField(childKey); !ok {
		return q.fail(q.entityName(), "join", ErrUnknownColumn)
	}
	q.joins = append(q.joins, &joinSpec{
		kind:          joinStandard,
		targetField:   targetField,
		elementType:   child.ElementType,
		parentKey:     parentKey,
		childKey:      childKey,
		parentJoinIdx: q.activeJoinIdx,
	})
	q.activeJoinIdx = len(q.joins) - 1
	q.state = stateJoin
	return q
}

// PivotJoin attaches a many-to-many join reached through an intermediary
// table (spec.md §4.2 "Pivot join"). pivotType is the intermediary
// record type; pivotParentKey/pivotChildKey are its columns linking back
// to the focus form and forward to the child's element type respectively.
func (q *Query[T]) PivotJoin(targetField string, pivotType reflect.Type, parentKey, pivotParentKey, childKey, pivotChildKey string) *Query[T] {
	if q.err != nil {
		return q
	}
	if !legalNext[q.state]["join"] {
		return q.fail(q.entityName(), "join", ErrIllegalChain)
	}
	focus := q.focusType()
	sch, err := q.db.schemaFor(focus)
	if err != nil {
		return q.fail(q.entityName(), "join", err)
	}
	for _, j := range q.joins {
		if j.targetField == targetField && j.parentJoinIdx == q.activeJoinIdx {
			return q.fail(q.entityName(), "join", ErrDuplicateJoin)
		}
	}
	child, ok := sch.ChildByField(targetField)
	if !ok {
		return q.fail(q.entityName(), "join", ErrNotAChildCollection)
	}
	if _, ok := sch.ColumnByField(parentKey); !ok {
		return q.fail(q.entityName(), "join", ErrUnknownColumn)
	}
	pivotSchema, err := q.db.schemaFor(pivotType)
	if err != nil {
		return q.fail(q.entityName(), "join", err)
	}
	if _, ok := pivotSchema.ColumnByField(pivotParentKey); !ok {
		return q.fail(q.entityName(), "join", ErrUnknownColumn)
	}
	if _, ok := pivotSchema.ColumnByField(pivotChildKey); !ok {
		return q.fail(q.entityName(), "join", ErrUnknownColumn)
	}
	childSchema, err := q.db.schemaFor(child.ElementType)
	if err != nil {
		return q.fail(q.entityName(), "join", err)
	}
	if _, ok := childSchema.ColumnByField(childKey); !ok {
		return q.fail(q.entityName(), "join", ErrUnknownColumn)
	}
	q.joins = append(q.joins, &joinSpec{
		kind:           joinPivot,
		targetField:    targetField,
		elementType:    child.ElementType,
		parentKey:      parentKey,
		childKey:       childKey,
		pivotType:      pivotType,
		pivotParentKey: pivotParentKey,
		pivotChildKey:  pivotChildKey,
		parentJoinIdx:  q.activeJoinIdx,
	})
	q.activeJoinIdx = len(q.joins) - 1
	q.state = stateJoin
	return q
}

// Order attaches an ordering to the chain's current focus form (spec.md
// §4.2: orderings attach to the focus, not necessarily the OverAllForm).
func (q *Query[T]) Order(field string, descending bool) *Query[T] {
	if q.err != nil {
		return q
	}
	if !legalNext[q.state]["order"] {
		return q.fail(q.entityName(), "order", ErrIllegalChain)
	}
	sch, err := q.db.schemaFor(q.focusType())
	if err != nil {
		return q.fail(q.entityName(), "order", err)
	}
	if _, ok := sch.ColumnByField(field); !ok {
		return q.fail(q.entityName(), "order", ErrUnknownColumn)
	}
	q.orderings = append(q.orderings, orderSpec{joinIdx: q.activeJoinIdx, field: field, descending: descending})
	q.state = stateOrder
	return q
}

// Limit attaches a row cap (and optional skip) to the chain's current
// focus form.
func (q *Query[T]) Limit(limit, offset int) *Query[T] {
	if q.err != nil {
		return q
	}
	if !legalNext[q.state]["limit"] {
		return q.fail(q.entityName(), "limit", ErrIllegalChain)
	}
	q.limits = append(q.limits, limitSpec{joinIdx: q.activeJoinIdx, limit: limit, offset: offset})
	q.state = stateLimit
	return q
}

// Where attaches the chain's single predicate. It is legal at most once
// per chain and must be the penultimate node (spec.md §4.2).
func (q *Query[T]) Where(expr *Expr) *Query[T] {
	if q.err != nil {
		return q
	}
	if !legalNext[q.state]["where"] || q.wherePlaced {
		return q.fail(q.entityName(), "where", ErrIllegalChain)
	}
	if expr.err != nil {
		q.err = expr.err
		q.db.logError("", q.err)
		return q
	}
	if err := q.validateForms(expr); err != nil {
		return q.fail(q.entityName(), "where", err)
	}
	q.predicate = expr
	q.wherePlaced = true
	q.state = stateWhere
	return q
}

// validateForms checks that every column reference in expr names either
// the OverAllForm or a type reachable via an active join.
func (q *Query[T]) validateForms(expr *Expr) error {
	known := map[reflect.Type]bool{q.entityType: true}
	for _, j := range q.joins {
		known[j.elementType] = true
	}
	for _, f := range expr.forms() {
		if !known[f] {
			return NewSqlGenError(q.entityName(), ErrFormNotInChain)
		}
	}
	return nil
}

// joinIndexFor returns the join index whose elementType equals t, or -1
// if t is the OverAllForm. Used by SQL generation to route orderings,
// limits, and predicate atoms to the right statement.
func (q *Query[T]) joinIndexFor(t reflect.Type) int {
	if t == q.entityType {
		return -1
	}
	for i, j := range q.joins {
		if j.elementType == t {
			return i
		}
	}
	return -1
}

// requirePrimaryKey returns the OverAllForm's primary key column or a
// QueryError if it has none (spec.md §7: "primary key required but
// missing").
func (q *Query[T]) requirePrimaryKey(ctx context.Context) (schema.Column, error) {
	sch, err := q.db.schemaFor(q.entityType)
	if err != nil {
		return schema.Column{}, err
	}
	pk, ok := sch.PrimaryKeyColumn()
	if !ok {
		return schema.Column{}, NewQueryError(q.entityName(), "update/delete", ErrMissingPrimaryKey)
	}
	return pk, nil
}
