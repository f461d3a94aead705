// Package sqldriver implements driver.Driver against Go's database/sql,
// the way the core's driver hook layer is meant to be satisfied for any
// SQL database reachable through a database/sql driver (spec.md §6).
package sqldriver

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ormkit/ormkit/driver"
)

// Dialect describes the dialect-specific facts a concrete database
// backend must supply: quoting, placeholder syntax, type-keyword
// mapping, and native-type support (spec.md §6).
type Dialect interface {
	Name() driver.Dialect
	QuoteIdentifier(name string) string
	Placeholder(index int) string
	SQLTypeKeyword(t driver.PrimitiveType, nullable bool) string
	SupportsNativeUUID() bool
	SupportsNativeDate() bool
	SupportsUpsert() bool
}

// Driver adapts a database/sql driver plus a Dialect into driver.Driver
// (spec.md §6 "Driver contract"), in the style of the teacher's
// dialect/sql.Driver wrapping database/sql.DB.
type Driver struct {
	dialect Dialect
}

// New returns a Driver for dialect. Connections are opened lazily by
// Open, which expects a *sql.DB or a DSN string as config.
func New(dialect Dialect) *Driver {
	return &Driver{dialect: dialect}
}

// conn is the concrete driver.Conn payload: either the shared *sql.DB
// or, while inside a transaction, the active *sql.Tx.
type conn struct {
	execQuerier execQuerier
	db          *sql.DB
}

// ctxVarsKey is the context key session variables attach under.
type ctxVarsKey struct{}

// sessionVars holds session variables to set before every statement
// issued on a context.
type sessionVars struct {
	vars []struct{ k, v string }
}

// validIdentifierRe validates SQL identifiers (alphanumeric, underscores,
// dots for schema-qualified names), guarding WithVar's variable name
// against injection when it is later interpolated into a `SET` statement.
var validIdentifierRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_.]*$`)

func isValidIdentifier(s string) bool {
	return s != "" && len(s) <= 128 && validIdentifierRe.MatchString(s)
}

// escapeStringValue escapes a string value for safe interpolation into a
// single-quoted SQL literal.
func escapeStringValue(s string) string {
	if !strings.ContainsAny(s, `'\`) {
		return s
	}
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "'", "''")
	return s
}

// WithVar returns a context carrying a session variable to be set (via
// `SET name = value`) before every statement subsequently run on it
// (spec.md §5 "Supplemented features").
func WithVar(ctx context.Context, name, value string) context.Context {
	sv, _ := ctx.Value(ctxVarsKey{}).(sessionVars)
	sv.vars = append(sv.vars, struct{ k, v string }{k: name, v: value})
	return context.WithValue(ctx, ctxVarsKey{}, sv)
}

// WithIntVar calls WithVar with the decimal representation of value.
func WithIntVar(ctx context.Context, name string, value int) context.Context {
	return WithVar(ctx, name, strconv.Itoa(value))
}

// VarFromContext returns the session variable value attached to ctx by
// WithVar, if any.
func VarFromContext(ctx context.Context, name string) (string, bool) {
	sv, _ := ctx.Value(ctxVarsKey{}).(sessionVars)
	for _, s := range sv.vars {
		if s.k == name {
			return s.v, true
		}
	}
	return "", false
}

// maySetVars issues a `SET` statement for every session variable ctx
// carries, ahead of the caller's own statement. Unlike the teacher's
// pool-checkout variant, this package's conn already pins one
// session for the operation's whole lifetime (the Database's own
// connection, or a transaction's), so there is no borrowed connection
// to reset afterward.
func (d *Driver) maySetVars(ctx context.Context, c *conn) error {
	sv, _ := ctx.Value(ctxVarsKey{}).(sessionVars)
	for _, s := range sv.vars {
		if !isValidIdentifier(s.k) {
			return fmt.Errorf("sqldriver: invalid session variable name: %q", s.k)
		}
		set := fmt.Sprintf("SET %s = '%s'", s.k, escapeStringValue(s.v))
		if _, err := c.execQuerier.ExecContext(ctx, set); err != nil {
			return fmt.Errorf("sqldriver: set session var %q: %w", s.k, err)
		}
	}
	return nil
}

type execQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Open opens a connection. config must be a *sql.DB (caller-managed
// pool) or a string DSN opened with the database/sql driver registered
// under the dialect's Name().
func (d *Driver) Open(ctx context.Context, config any) (driver.Conn, error) {
	switch v := config.(type) {
	case *sql.DB:
		return &conn{execQuerier: v, db: v}, nil
	case string:
		db, err := sql.Open(string(d.dialect.Name()), v)
		if err != nil {
			return nil, err
		}
		if err := db.PingContext(ctx); err != nil {
			return nil, err
		}
		return &conn{execQuerier: db, db: db}, nil
	default:
		return nil, fmt.Errorf("sqldriver: unsupported config type %T", config)
	}
}

// Close closes the underlying *sql.DB.
func (d *Driver) Close(c driver.Conn) error {
	return c.(*conn).db.Close()
}

// BeginTransaction starts a *sql.Tx and returns it as the transaction's
// connection (spec.md §6 beginTransaction).
func (d *Driver) BeginTransaction(ctx context.Context, c driver.Conn) (driver.Conn, error) {
	tx, err := c.(*conn).db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &conn{execQuerier: tx, db: c.(*conn).db}, nil
}

// Commit commits the transaction's *sql.Tx.
func (d *Driver) Commit(ctx context.Context, c driver.Conn) error {
	tx, ok := c.(*conn).execQuerier.(*sql.Tx)
	if !ok {
		return fmt.Errorf("sqldriver: commit called on a non-transaction connection")
	}
	return tx.Commit()
}

// Rollback rolls back the transaction's *sql.Tx.
func (d *Driver) Rollback(ctx context.Context, c driver.Conn) error {
	tx, ok := c.(*conn).execQuerier.(*sql.Tx)
	if !ok {
		return fmt.Errorf("sqldriver: rollback called on a non-transaction connection")
	}
	return tx.Rollback()
}

// stmt is the concrete driver.Stmt payload.
type stmt struct {
	query string
	conn  *conn
	args  []any
	rows  *sql.Rows
}

// Prepare records the SQL text; binding happens via Bind and execution
// is deferred to Exec/Step, matching the core's prepare/bind/step
// sequencing (spec.md §6).
func (d *Driver) Prepare(ctx context.Context, c driver.Conn, sqlText string) (driver.Stmt, error) {
	return &stmt{query: sqlText, conn: c.(*conn)}, nil
}

// Finalize releases any open *sql.Rows held by the statement.
func (d *Driver) Finalize(s driver.Stmt) error {
	st := s.(*stmt)
	if st.rows != nil {
		return st.rows.Close()
	}
	return nil
}

// Bind records the positional argument to pass at Exec/Step time.
func (d *Driver) Bind(s driver.Stmt, index int, v driver.Value) error {
	st := s.(*stmt)
	for len(st.args) < index {
		st.args = append(st.args, nil)
	}
	st.args[index-1] = v.Any()
	return nil
}

// Exec runs the statement for its side effect and returns rows
// affected.
func (d *Driver) Exec(ctx context.Context, s driver.Stmt) (int64, error) {
	st := s.(*stmt)
	if err := d.maySetVars(ctx, st.conn); err != nil {
		return 0, err
	}
	res, err := st.conn.execQuerier.ExecContext(ctx, st.query, st.args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// rowValues is the concrete driver.Row payload: one row's scanned
// column values as `any`, positional.
type rowValues []any

// Step advances the statement's cursor, running the query on first
// call, and returns the next row.
func (d *Driver) Step(ctx context.Context, s driver.Stmt) (driver.Row, bool, error) {
	st := s.(*stmt)
	if st.rows == nil {
		if err := d.maySetVars(ctx, st.conn); err != nil {
			return nil, false, err
		}
		rows, err := st.conn.execQuerier.QueryContext(ctx, st.query, st.args...)
		if err != nil {
			return nil, false, err
		}
		st.rows = rows
	}
	if !st.rows.Next() {
		return nil, false, st.rows.Err()
	}
	cols, err := st.rows.Columns()
	if err != nil {
		return nil, false, err
	}
	dest := make([]any, len(cols))
	scanTargets := make([]any, len(cols))
	for i := range dest {
		scanTargets[i] = &dest[i]
	}
	if err := st.rows.Scan(scanTargets...); err != nil {
		return nil, false, err
	}
	return rowValues(dest), true, nil
}

// ReadColumn decodes the column at index from row into a driver.Value
// of the expected primitive type (spec.md §6 readColumn).
func (d *Driver) ReadColumn(row driver.Row, index int, expected driver.PrimitiveType) (driver.Value, error) {
	vals := row.(rowValues)
	raw := vals[index]
	if raw == nil {
		return driver.NullValue(expected), nil
	}
	return decodeAny(raw, expected)
}

// ListColumns always returns an error on the base Driver; SQLiteDriver,
// PostgresDriver and MySQLDriver override it with their own
// PRAGMA/information_schema query.
func (d *Driver) ListColumns(ctx context.Context, c driver.Conn, table string) ([]driver.ColumnInfo, error) {
	return nil, fmt.Errorf("sqldriver: ListColumns must be provided by a dialect-specific Driver embedding this one")
}

// Dialect returns the configured dialect's name.
func (d *Driver) Dialect() driver.Dialect { return d.dialect.Name() }

// QuoteIdentifier delegates to the dialect.
func (d *Driver) QuoteIdentifier(name string) string { return d.dialect.QuoteIdentifier(name) }

// Placeholder delegates to the dialect.
func (d *Driver) Placeholder(index int) string { return d.dialect.Placeholder(index) }

// SQLTypeKeyword delegates to the dialect.
func (d *Driver) SQLTypeKeyword(t driver.PrimitiveType, nullable bool) string {
	return d.dialect.SQLTypeKeyword(t, nullable)
}

// SupportsNativeUUID delegates to the dialect.
func (d *Driver) SupportsNativeUUID() bool { return d.dialect.SupportsNativeUUID() }

// SupportsNativeDate delegates to the dialect.
func (d *Driver) SupportsNativeDate() bool { return d.dialect.SupportsNativeDate() }

// SupportsUpsert delegates to the dialect.
func (d *Driver) SupportsUpsert() bool { return d.dialect.SupportsUpsert() }

var _ driver.Driver = (*Driver)(nil)
