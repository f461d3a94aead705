package sqldriver

import (
	"context"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/ormkit/ormkit/driver"
)

// SQLiteDialect implements Dialect for modernc.org/sqlite, a
// CGo-free pure-Go SQLite driver registered under driver name "sqlite".
type SQLiteDialect struct{}

// Name returns driver.SQLite.
func (SQLiteDialect) Name() driver.Dialect { return driver.SQLite }

// QuoteIdentifier quotes name with double quotes, escaping embedded
// quotes by doubling them.
func (SQLiteDialect) QuoteIdentifier(name string) string {
	return `"` + escapeQuote(name, '"') + `"`
}

// Placeholder returns SQLite's positional placeholder syntax.
func (SQLiteDialect) Placeholder(index int) string { return fmt.Sprintf("?%d", index) }

// SQLTypeKeyword maps a primitive type to its SQLite storage class.
func (SQLiteDialect) SQLTypeKeyword(t driver.PrimitiveType, nullable bool) string {
	base := map[driver.PrimitiveType]string{
		driver.TypeInt8: "INTEGER", driver.TypeInt16: "INTEGER", driver.TypeInt32: "INTEGER", driver.TypeInt64: "INTEGER",
		driver.TypeUint8: "INTEGER", driver.TypeUint16: "INTEGER", driver.TypeUint32: "INTEGER", driver.TypeUint64: "INTEGER",
		driver.TypeFloat32: "REAL", driver.TypeFloat64: "REAL",
		driver.TypeBool: "INTEGER", driver.TypeString: "TEXT", driver.TypeBytes: "BLOB",
		driver.TypeDate: "TEXT", driver.TypeUUID: "TEXT",
	}[t]
	if nullable {
		return base
	}
	return base + " NOT NULL"
}

// SupportsNativeUUID is false: SQLite has no native UUID type.
func (SQLiteDialect) SupportsNativeUUID() bool { return false }

// SupportsNativeDate is false: SQLite stores dates as TEXT/INTEGER/REAL.
func (SQLiteDialect) SupportsNativeDate() bool { return false }

// SupportsUpsert is true: SQLite supports `INSERT ... ON CONFLICT`.
func (SQLiteDialect) SupportsUpsert() bool { return true }

// SQLiteDriver is a Driver preconfigured for SQLite, adding the
// PRAGMA table_info introspection ListColumns needs.
type SQLiteDriver struct {
	*Driver
}

// NewSQLite returns a SQLiteDriver.
func NewSQLite() *SQLiteDriver {
	return &SQLiteDriver{Driver: New(SQLiteDialect{})}
}

// ListColumns introspects table via `PRAGMA table_info`.
func (d *SQLiteDriver) ListColumns(ctx context.Context, c driver.Conn, table string) ([]driver.ColumnInfo, error) {
	cn := c.(*conn)
	rows, err := cn.execQuerier.QueryContext(ctx, "PRAGMA table_info("+d.QuoteIdentifier(table)+")")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []driver.ColumnInfo
	for rows.Next() {
		var (
			cid        int
			name, typ  string
			notNull    int
			dfltValue  any
			pk         int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &dfltValue, &pk); err != nil {
			return nil, err
		}
		out = append(out, driver.ColumnInfo{Name: name, Type: typ, Nullable: notNull == 0})
	}
	return out, rows.Err()
}

func escapeQuote(s string, q byte) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == q {
			out = append(out, q, q)
			continue
		}
		out = append(out, s[i])
	}
	return string(out)
}
