// Package driver defines the abstract contract the ormkit core consumes
// from a concrete database driver.
//
// The core never imports a specific database package directly; it only
// calls through the interfaces in this package. A driver is responsible
// for opening connections, managing transactions, preparing statements,
// binding typed parameters, stepping through result rows, reading typed
// column values, and exposing a handful of dialect-specific facts
// (identifier quoting, placeholder syntax, SQL type keywords, and whether
// the backend has native UUID/date types or supports upsert).
//
// Concrete drivers live outside this package — see the sibling sqldriver
// package for database/sql-backed adapters for SQLite, PostgreSQL, and
// MySQL.
package driver

import "context"

// Dialect names a supported SQL dialect.
type Dialect string

// Supported dialects.
const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
	MySQL    Dialect = "mysql"
)

// Conn is an opaque handle to an open connection or transaction-scoped
// session. Its concrete type is defined by the driver; the core only ever
// passes it back into other Driver methods.
type Conn any

// Stmt is an opaque handle to a prepared statement.
type Stmt any

// Row is an opaque handle to the current row of a stepped statement.
type Row any

// Driver is the contract a concrete database driver implements for the
// ormkit core.
type Driver interface {
	// Open establishes a connection using a driver-specific configuration
	// value (typically a DSN string).
	Open(ctx context.Context, config any) (Conn, error)
	// Close releases a connection opened by Open.
	Close(conn Conn) error

	// BeginTransaction starts a transaction on conn and returns a new Conn
	// scoped to that transaction.
	BeginTransaction(ctx context.Context, conn Conn) (Conn, error)
	// Commit commits the transaction-scoped connection returned by
	// BeginTransaction.
	Commit(ctx context.Context, conn Conn) error
	// Rollback aborts the transaction-scoped connection returned by
	// BeginTransaction.
	Rollback(ctx context.Context, conn Conn) error

	// Prepare compiles sqlText against conn.
	Prepare(ctx context.Context, conn Conn, sqlText string) (Stmt, error)
	// Finalize releases a statement returned by Prepare.
	Finalize(stmt Stmt) error

	// Bind attaches a positional parameter to a prepared statement.
	// index is one-based, matching Placeholder.
	Bind(stmt Stmt, index int, v Value) error

	// Exec runs a prepared statement that does not produce rows and
	// reports the number of rows affected.
	Exec(ctx context.Context, stmt Stmt) (rowsAffected int64, err error)
	// Step advances a prepared statement to its next row. done is true
	// once the statement is exhausted, in which case row is nil.
	Step(ctx context.Context, stmt Stmt) (row Row, done bool, err error)
	// ReadColumn reads the value at index from row, decoding it as
	// expected.
	ReadColumn(row Row, index int, expected PrimitiveType) (Value, error)

	// ListColumns introspects the live columns of an existing table, in
	// database-reported order.
	ListColumns(ctx context.Context, conn Conn, table string) ([]ColumnInfo, error)

	Dialect() Dialect
	// QuoteIdentifier returns name quoted per the dialect's identifier
	// quoting rules.
	QuoteIdentifier(name string) string
	// Placeholder returns the positional placeholder syntax for the
	// one-based parameter index.
	Placeholder(index int) string
	// SQLTypeKeyword returns the column type keyword for t, accounting
	// for nullability where the dialect requires it.
	SQLTypeKeyword(t PrimitiveType, nullable bool) string
	// SupportsNativeUUID reports whether the dialect has a native UUID
	// column type; when false, UUIDs are encoded as text.
	SupportsNativeUUID() bool
	// SupportsNativeDate reports whether the dialect has a native
	// date/timestamp column type; when false, dates are encoded as text.
	SupportsNativeDate() bool
	// SupportsUpsert reports whether the dialect supports an atomic
	// insert-or-update statement.
	SupportsUpsert() bool
}
