// Package ormkit implements the query algebra, SQL generation, and
// result materialization of a structurally-reflective object-relational
// mapper. It is the sole consumer of the driver package's Driver
// contract and the schema package's TableSchema; concrete SQL dialects
// live under sqldriver.
package ormkit

import (
	"context"
	"reflect"

	"github.com/ormkit/ormkit/driver"
	"github.com/ormkit/ormkit/schema"
)

// Database wraps one driver connection. It is not safe for concurrent
// use by multiple goroutines without external serialization (spec.md
// §5 "Shared-resource policy"); the schema cache it reads through is
// process-wide and safe to share.
type Database struct {
	drv   driver.Driver
	conn  driver.Conn
	cache *schema.Cache

	sink         Sink
	queryLogging bool
}

// Open opens a connection through drv using config and returns a
// Database backed by the process-wide schema cache.
func Open(ctx context.Context, drv driver.Driver, config any) (*Database, error) {
	conn, err := drv.Open(ctx, config)
	if err != nil {
		return nil, err
	}
	return &Database{
		drv:   drv,
		conn:  conn,
		cache: schema.Default,
		sink:  noopSink{},
	}, nil
}

// Close releases the underlying connection.
func (db *Database) Close() error {
	return db.drv.Close(db.conn)
}

// Debug returns a shallow copy of db with query logging enabled against
// an async slog sink, mirroring the teacher driver's DebugDriver wrapper
// (dialect/sql/stats.go) adapted to a value receiver instead of a
// wrapping type, since ormkit has one Database type rather than a
// driver-interface hierarchy.
func (db *Database) Debug() *Database {
	clone := *db
	clone.queryLogging = true
	if _, ok := clone.sink.(noopSink); ok {
		clone.sink = NewAsyncSlogSink(nil, 256)
	}
	return &clone
}

// WithSink returns a shallow copy of db that emits Events to sink
// instead of its current one.
func (db *Database) WithSink(sink Sink) *Database {
	clone := *db
	clone.sink = sink
	clone.queryLogging = true
	return &clone
}

// schemaFor returns the cached TableSchema for t under this database's
// dialect, deriving it on first access (spec.md §5).
func (db *Database) schemaFor(t reflect.Type) (*schema.TableSchema, error) {
	s, err := db.cache.Get(string(db.drv.Dialect()), t)
	if err != nil {
		db.logError("", err)
	}
	return s, err
}

// connFor returns the connection operations issued on ctx should use: the
// active transaction's connection if ctx carries one from Transaction, or
// db's own connection otherwise (spec.md §5).
func (db *Database) connFor(ctx context.Context) driver.Conn {
	if m, ok := ctx.Value(txMarkerKey{}).(*txMarker); ok {
		return m.conn
	}
	return db.conn
}

// exec runs stmt for its side effect and returns the number of rows
// affected.
func (db *Database) exec(ctx context.Context, stmt statement) (int64, error) {
	db.logQuery(stmt)
	prepared, err := db.drv.Prepare(ctx, db.connFor(ctx), stmt.sql)
	if err != nil {
		e := NewSqlExecError(stmt.sql, err)
		db.logError(stmt.sql, e)
		return 0, e
	}
	defer db.drv.Finalize(prepared)

	for i, v := range stmt.args {
		if err := db.drv.Bind(prepared, i+1, v); err != nil {
			e := NewSqlExecError(stmt.sql, err)
			db.logError(stmt.sql, e)
			return 0, e
		}
	}
	n, err := db.drv.Exec(ctx, prepared)
	if err != nil {
		e := NewSqlExecError(stmt.sql, err)
		db.logError(stmt.sql, e)
		return 0, e
	}
	return n, nil
}
