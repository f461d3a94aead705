package sqldriver

import (
	"context"
	"log/slog"

	"github.com/ormkit/ormkit/driver"
)

// DebugDriver wraps a driver.Driver, logging each statement's SQL text at
// Prepare, its bound arguments and outcome at Exec, and transaction
// begin/commit/rollback. Step and Finalize are not logged.
type DebugDriver struct {
	driver.Driver
	log func(ctx context.Context, msg string, args ...any)
}

// DebugOption configures a DebugDriver.
type DebugOption func(*DebugDriver)

// DebugWithLog overrides the log function used for every statement; the
// default logs through log/slog at info level.
func DebugWithLog(logFunc func(ctx context.Context, msg string, args ...any)) DebugOption {
	return func(d *DebugDriver) { d.log = logFunc }
}

// NewDebugDriver wraps drv with debug logging.
func NewDebugDriver(drv driver.Driver, opts ...DebugOption) *DebugDriver {
	d := &DebugDriver{
		Driver: drv,
		log: func(ctx context.Context, msg string, args ...any) {
			slog.Default().InfoContext(ctx, msg, args...)
		},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

type debugStmt struct {
	inner driver.Stmt
	sql   string
	args  []driver.Value
}

// Prepare logs the SQL text and delegates.
func (d *DebugDriver) Prepare(ctx context.Context, c driver.Conn, sqlText string) (driver.Stmt, error) {
	inner, err := d.Driver.Prepare(ctx, c, sqlText)
	if err != nil {
		d.log(ctx, "prepare failed", "sql", sqlText, "error", err)
		return nil, err
	}
	d.log(ctx, "prepare", "sql", sqlText)
	return &debugStmt{inner: inner, sql: sqlText}, nil
}

// Bind records the bound value for logging and delegates.
func (d *DebugDriver) Bind(s driver.Stmt, index int, v driver.Value) error {
	st := s.(*debugStmt)
	for len(st.args) < index {
		st.args = append(st.args, driver.Value{})
	}
	st.args[index-1] = v
	return d.Driver.Bind(st.inner, index, v)
}

// Exec logs the statement and its bound arguments, then delegates.
func (d *DebugDriver) Exec(ctx context.Context, s driver.Stmt) (int64, error) {
	st := s.(*debugStmt)
	n, err := d.Driver.Exec(ctx, st.inner)
	if err != nil {
		d.log(ctx, "exec failed", "sql", st.sql, "args", st.args, "error", err)
		return n, err
	}
	d.log(ctx, "exec", "sql", st.sql, "args", st.args, "rowsAffected", n)
	return n, nil
}

// Step delegates to the wrapped statement without per-row logging.
func (d *DebugDriver) Step(ctx context.Context, s driver.Stmt) (driver.Row, bool, error) {
	return d.Driver.Step(ctx, s.(*debugStmt).inner)
}

// ReadColumn delegates to the wrapped driver.
func (d *DebugDriver) ReadColumn(row driver.Row, index int, expected driver.PrimitiveType) (driver.Value, error) {
	return d.Driver.ReadColumn(row, index, expected)
}

// Finalize delegates release of the wrapped statement.
func (d *DebugDriver) Finalize(s driver.Stmt) error {
	return d.Driver.Finalize(s.(*debugStmt).inner)
}

// BeginTransaction logs the begin and delegates.
func (d *DebugDriver) BeginTransaction(ctx context.Context, c driver.Conn) (driver.Conn, error) {
	d.log(ctx, "begin transaction")
	return d.Driver.BeginTransaction(ctx, c)
}

// Commit logs the commit and delegates.
func (d *DebugDriver) Commit(ctx context.Context, c driver.Conn) error {
	d.log(ctx, "commit transaction")
	return d.Driver.Commit(ctx, c)
}

// Rollback logs the rollback and delegates.
func (d *DebugDriver) Rollback(ctx context.Context, c driver.Conn) error {
	d.log(ctx, "rollback transaction")
	return d.Driver.Rollback(ctx, c)
}

var _ driver.Driver = (*DebugDriver)(nil)
