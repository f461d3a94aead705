package sqldriver

import (
	"context"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/ormkit/ormkit/driver"
)

// PostgresDialect implements Dialect for github.com/lib/pq.
type PostgresDialect struct{}

// Name returns driver.Postgres.
func (PostgresDialect) Name() driver.Dialect { return driver.Postgres }

// QuoteIdentifier quotes name with double quotes.
func (PostgresDialect) QuoteIdentifier(name string) string {
	return `"` + escapeQuote(name, '"') + `"`
}

// Placeholder returns Postgres's `$n` positional placeholder syntax.
func (PostgresDialect) Placeholder(index int) string { return fmt.Sprintf("$%d", index) }

// SQLTypeKeyword maps a primitive type to its Postgres column type.
func (PostgresDialect) SQLTypeKeyword(t driver.PrimitiveType, nullable bool) string {
	base := map[driver.PrimitiveType]string{
		driver.TypeInt8: "smallint", driver.TypeInt16: "smallint", driver.TypeInt32: "integer", driver.TypeInt64: "bigint",
		driver.TypeUint8: "smallint", driver.TypeUint16: "integer", driver.TypeUint32: "bigint", driver.TypeUint64: "numeric",
		driver.TypeFloat32: "real", driver.TypeFloat64: "double precision",
		driver.TypeBool: "boolean", driver.TypeString: "text", driver.TypeBytes: "bytea",
		driver.TypeDate: "timestamptz", driver.TypeUUID: "uuid",
	}[t]
	if nullable {
		return base
	}
	return base + " NOT NULL"
}

// SupportsNativeUUID is true: Postgres has a native `uuid` column type.
func (PostgresDialect) SupportsNativeUUID() bool { return true }

// SupportsNativeDate is true: Postgres has native `timestamptz`.
func (PostgresDialect) SupportsNativeDate() bool { return true }

// SupportsUpsert is true: Postgres supports `INSERT ... ON CONFLICT`.
func (PostgresDialect) SupportsUpsert() bool { return true }

// PostgresDriver is a Driver preconfigured for Postgres, adding the
// information_schema introspection ListColumns needs.
type PostgresDriver struct {
	*Driver
}

// NewPostgres returns a PostgresDriver.
func NewPostgres() *PostgresDriver {
	return &PostgresDriver{Driver: New(PostgresDialect{})}
}

// ListColumns introspects table via `information_schema.columns`.
func (d *PostgresDriver) ListColumns(ctx context.Context, c driver.Conn, table string) ([]driver.ColumnInfo, error) {
	cn := c.(*conn)
	rows, err := cn.execQuerier.QueryContext(ctx, `
		SELECT column_name, data_type, is_nullable = 'YES'
		FROM information_schema.columns
		WHERE table_name = $1
		ORDER BY ordinal_position`, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []driver.ColumnInfo
	for rows.Next() {
		var info driver.ColumnInfo
		if err := rows.Scan(&info.Name, &info.Type, &info.Nullable); err != nil {
			return nil, err
		}
		out = append(out, info)
	}
	return out, rows.Err()
}
