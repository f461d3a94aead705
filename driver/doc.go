// Package driver provides database driver abstraction for ormkit.
//
// This package defines the interfaces and types used for database-specific
// operations, allowing ormkit's core to work against multiple backends —
// SQLite, PostgreSQL, and MySQL — without depending on any of them
// directly.
//
// # Supported Dialects
//
// The following dialects are supported:
//
//   - SQLite:   driver.SQLite
//   - Postgres: driver.Postgres
//   - MySQL:    driver.MySQL
//
// # Driver Interface
//
// The package defines the Driver interface for database operations:
//
//	type Driver interface {
//	    Open(ctx context.Context, config any) (Conn, error)
//	    Close(conn Conn) error
//	    BeginTransaction(ctx context.Context, conn Conn) (Conn, error)
//	    Commit(ctx context.Context, conn Conn) error
//	    Rollback(ctx context.Context, conn Conn) error
//	    Prepare(ctx context.Context, conn Conn, sqlText string) (Stmt, error)
//	    Bind(stmt Stmt, index int, v Value) error
//	    Exec(ctx context.Context, stmt Stmt) (int64, error)
//	    Step(ctx context.Context, stmt Stmt) (Row, bool, error)
//	    ReadColumn(row Row, index int, expected PrimitiveType) (Value, error)
//	    Finalize(stmt Stmt) error
//	    ListColumns(ctx context.Context, conn Conn, table string) ([]ColumnInfo, error)
//	    Dialect() Dialect
//	    QuoteIdentifier(name string) string
//	    Placeholder(index int) string
//	    SQLTypeKeyword(t PrimitiveType, nullable bool) string
//	    SupportsNativeUUID() bool
//	    SupportsNativeDate() bool
//	    SupportsUpsert() bool
//	}
//
// # Usage
//
// Opening a database connection goes through the ormkit package, which
// takes a concrete driver.Driver implementation from sqldriver and a
// driver-specific configuration value:
//
//	db, err := ormkit.Open(ctx, sqldriver.NewPostgres(), "postgres://...")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
// # Sub-packages
//
// The sqldriver package contains the concrete, database/sql-backed
// implementations of this contract for SQLite, PostgreSQL, and MySQL.
package driver
