package sqldriver

import (
	"context"

	_ "github.com/go-sql-driver/mysql"

	"github.com/ormkit/ormkit/driver"
)

// MySQLDialect implements Dialect for github.com/go-sql-driver/mysql.
type MySQLDialect struct{}

// Name returns driver.MySQL.
func (MySQLDialect) Name() driver.Dialect { return driver.MySQL }

// QuoteIdentifier quotes name with backticks.
func (MySQLDialect) QuoteIdentifier(name string) string {
	return "`" + escapeQuote(name, '`') + "`"
}

// Placeholder returns MySQL's `?` placeholder syntax, which is
// order-dependent rather than numbered.
func (MySQLDialect) Placeholder(index int) string { return "?" }

// SQLTypeKeyword maps a primitive type to its MySQL column type.
func (MySQLDialect) SQLTypeKeyword(t driver.PrimitiveType, nullable bool) string {
	base := map[driver.PrimitiveType]string{
		driver.TypeInt8: "TINYINT", driver.TypeInt16: "SMALLINT", driver.TypeInt32: "INT", driver.TypeInt64: "BIGINT",
		driver.TypeUint8: "TINYINT UNSIGNED", driver.TypeUint16: "SMALLINT UNSIGNED", driver.TypeUint32: "INT UNSIGNED", driver.TypeUint64: "BIGINT UNSIGNED",
		driver.TypeFloat32: "FLOAT", driver.TypeFloat64: "DOUBLE",
		driver.TypeBool: "TINYINT(1)", driver.TypeString: "TEXT", driver.TypeBytes: "BLOB",
		driver.TypeDate: "DATETIME(6)", driver.TypeUUID: "CHAR(36)",
	}[t]
	if nullable {
		return base
	}
	return base + " NOT NULL"
}

// SupportsNativeUUID is false: MySQL has no native UUID column type.
func (MySQLDialect) SupportsNativeUUID() bool { return false }

// SupportsNativeDate is true: MySQL has native DATETIME.
func (MySQLDialect) SupportsNativeDate() bool { return true }

// SupportsUpsert is true: MySQL supports `INSERT ... ON DUPLICATE KEY UPDATE`.
func (MySQLDialect) SupportsUpsert() bool { return true }

// MySQLDriver is a Driver preconfigured for MySQL, adding the
// information_schema introspection ListColumns needs.
type MySQLDriver struct {
	*Driver
}

// NewMySQL returns a MySQLDriver.
func NewMySQL() *MySQLDriver {
	return &MySQLDriver{Driver: New(MySQLDialect{})}
}

// ListColumns introspects table via `information_schema.columns`,
// scoped to the connection's current database.
func (d *MySQLDriver) ListColumns(ctx context.Context, c driver.Conn, table string) ([]driver.ColumnInfo, error) {
	cn := c.(*conn)
	rows, err := cn.execQuerier.QueryContext(ctx, `
		SELECT column_name, data_type, is_nullable = 'YES'
		FROM information_schema.columns
		WHERE table_schema = DATABASE() AND table_name = ?
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
