package ormkit

import (
	"errors"
	"fmt"
)

// QueryError reports a malformed query algebra chain: an illegal operation
// transition, a duplicate join, a join field that is not a child
// collection, or a primary key required but missing (spec.md §7).
type QueryError struct {
	Entity string
	Op     string
	Err    error
}

// Error returns the error string.
func (e *QueryError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("ormkit: query %s (%s): %v", e.Entity, e.Op, e.Err)
	}
	return fmt.Sprintf("ormkit: query %s: %v", e.Entity, e.Err)
}

// Unwrap returns the underlying error.
func (e *QueryError) Unwrap() error {
	return e.Err
}

// NewQueryError returns a new QueryError.
func NewQueryError(entity, op string, err error) *QueryError {
	return &QueryError{Entity: entity, Op: op, Err: err}
}

// IsQueryError returns true if err is a QueryError.
func IsQueryError(err error) bool {
	if err == nil {
		return false
	}
	var e *QueryError
	return errors.As(err, &e)
}

// ErrIllegalChain is wrapped by a QueryError when an operation does not
// appear in the legal-successor matrix for the chain's current state
// (spec.md §4.2).
var ErrIllegalChain = errors.New("ormkit: illegal operation for current chain state")

// ErrDuplicateJoin is wrapped by a QueryError when the same field is
// joined twice in one chain (spec.md §4.2).
var ErrDuplicateJoin = errors.New("ormkit: field already joined")

// ErrNotAChildCollection is wrapped by a QueryError when a join names a
// field that is not a child collection.
var ErrNotAChildCollection = errors.New("ormkit: join field is not a child collection")

// ErrMissingPrimaryKey is wrapped by a QueryError when an operation that
// requires a primary key is issued against a record type with none.
// Update and Delete do not require one: without a primary key, Update
// writes every column.
var ErrMissingPrimaryKey = errors.New("ormkit: primary key required but missing")

// SqlGenError reports an expression or join reference that cannot be
// resolved against the current chain or schema (spec.md §7).
type SqlGenError struct {
	Entity string
	Err    error
}

// Error returns the error string.
func (e *SqlGenError) Error() string {
	return fmt.Sprintf("ormkit: generating SQL for %s: %v", e.Entity, e.Err)
}

// Unwrap returns the underlying error.
func (e *SqlGenError) Unwrap() error {
	return e.Err
}

// NewSqlGenError returns a new SqlGenError.
func NewSqlGenError(entity string, err error) *SqlGenError {
	return &SqlGenError{Entity: entity, Err: err}
}

// IsSqlGenError returns true if err is a SqlGenError.
func IsSqlGenError(err error) bool {
	if err == nil {
		return false
	}
	var e *SqlGenError
	return errors.As(err, &e)
}

// ErrUnknownColumn is wrapped by a SqlGenError when a string field name
// does not resolve against the cached schema (spec.md §9).
var ErrUnknownColumn = errors.New("ormkit: unknown column reference")

// ErrFormNotInChain is wrapped by a SqlGenError when a predicate
// references a joined form that is not present in the current chain.
var ErrFormNotInChain = errors.New("ormkit: referenced form is not in the query chain")

// SqlExecError wraps a driver failure during prepare, bind, step, or
// exec, together with the originating SQL text (spec.md §7).
type SqlExecError struct {
	SQL string
	Err error
}

// Error returns the error string.
func (e *SqlExecError) Error() string {
	return fmt.Sprintf("ormkit: executing %q: %v", e.SQL, e.Err)
}

// Unwrap returns the underlying error.
func (e *SqlExecError) Unwrap() error {
	return e.Err
}

// NewSqlExecError returns a new SqlExecError.
func NewSqlExecError(sql string, err error) *SqlExecError {
	return &SqlExecError{SQL: sql, Err: err}
}

// IsSqlExecError returns true if err is a SqlExecError.
func IsSqlExecError(err error) bool {
	if err == nil {
		return false
	}
	var e *SqlExecError
	return errors.As(err, &e)
}

// DecodeError reports a row column that is missing, type-mismatched, or
// null in a non-nullable field (spec.md §7).
type DecodeError struct {
	Column string
	Err    error
}

// Error returns the error string.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("ormkit: decoding column %q: %v", e.Column, e.Err)
}

// Unwrap returns the underlying error.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// NewDecodeError returns a new DecodeError.
func NewDecodeError(column string, err error) *DecodeError {
	return &DecodeError{Column: column, Err: err}
}

// IsDecodeError returns true if err is a DecodeError.
func IsDecodeError(err error) bool {
	if err == nil {
		return false
	}
	var e *DecodeError
	return errors.As(err, &e)
}

// ErrColumnMissing is wrapped by a DecodeError when a row does not carry
// a value for an expected column.
var ErrColumnMissing = errors.New("ormkit: row is missing expected column")

// ErrNullNotNullable is wrapped by a DecodeError when a row column is
// null but the destination field is not nullable.
var ErrNullNotNullable = errors.New("ormkit: null value for non-nullable field")

// EncodeError reports a value offered for binding whose shape is not
// supported by the driver's Value sum type (spec.md §7).
type EncodeError struct {
	Column string
	Err    error
}

// Error returns the error string.
func (e *EncodeError) Error() string {
	return fmt.Sprintf("ormkit: encoding column %q: %v", e.Column, e.Err)
}

// Unwrap returns the underlying error.
func (e *EncodeError) Unwrap() error {
	return e.Err
}

// NewEncodeError returns a new EncodeError.
func NewEncodeError(column string, err error) *EncodeError {
	return &EncodeError{Column: column, Err: err}
}

// IsEncodeError returns true if err is an EncodeError.
func IsEncodeError(err error) bool {
	if err == nil {
		return false
	}
	var e *EncodeError
	return errors.As(err, &e)
}

// ErrNotFound is returned by First and similar single-record accessors
// when a query matches zero rows.
var ErrNotFound = errors.New("ormkit: record not found")

// ErrNotSingular is returned by OnlyOne when a query matches more than
// one row.
var ErrNotSingular = errors.New("ormkit: more than one record matched")

// ErrTxRolledBack is returned by Transaction when a nested Transaction
// call on the same context observed an error that its own fn did not
// re-propagate; the outer transaction rolls back rather than commits
// (spec.md §5: "inner rollbacks mark the outer transaction for rollback
// at its close").
var ErrTxRolledBack = errors.New("ormkit: transaction rolled back by a nested call")
