package sqldriver

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/ormkit/ormkit/driver"
)

func openMock(t *testing.T) (*Driver, driver.Conn, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	drv := New(PostgresDialect{})
	c, err := drv.Open(context.Background(), db)
	require.NoError(t, err)
	return drv, c, mock
}

func TestExecEmitsExactSQL(t *testing.T) {
	drv, c, mock := openMock(t)
	mock.ExpectExec(`INSERT INTO widgets \(name\) VALUES \(\$1\)`).
		WithArgs("lamp").
		WillReturnResult(sqlmock.NewResult(1, 1))

	s, err := drv.Prepare(context.Background(), c, `INSERT INTO widgets (name) VALUES ($1)`)
	require.NoError(t, err)
	require.NoError(t, drv.Bind(s, 1, driver.StringValue("lamp")))

	n, err := drv.Exec(context.Background(), s)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStepEmitsExactSQLAndDecodesRows(t *testing.T) {
	drv, c, mock := openMock(t)
	mock.ExpectQuery(`SELECT name FROM widgets WHERE id = \$1`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("lamp"))

	s, err := drv.Prepare(context.Background(), c, `SELECT name FROM widgets WHERE id = $1`)
	require.NoError(t, err)
	require.NoError(t, drv.Bind(s, 1, driver.IntValue(driver.TypeInt64, 1)))

	row, done, err := drv.Step(context.Background(), s)
	require.NoError(t, err)
	require.False(t, done)
	v, err := drv.ReadColumn(row, 0, driver.TypeString)
	require.NoError(t, err)
	require.Equal(t, "lamp", v.Str)

	_, done, err = drv.Step(context.Background(), s)
	require.NoError(t, err)
	require.True(t, done)
	require.NoError(t, mock.ExpectationsWereMet())
}

// TestWithVarIssuesSetBeforeStatement mirrors the teacher's TestWithVars:
// a session variable attached to the context via WithVar must be set
// with its own statement before the caller's own Exec/Step runs.
func TestWithVarIssuesSetBeforeStatement(t *testing.T) {
	drv, c, mock := openMock(t)
	mock.ExpectExec(`SET search_path = 'tenant_a'`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`INSERT INTO widgets DEFAULT VALUES`).WillReturnResult(sqlmock.NewResult(1, 1))

	ctx := WithVar(context.Background(), "search_path", "tenant_a")
	s, err := drv.Prepare(ctx, c, `INSERT INTO widgets DEFAULT VALUES`)
	require.NoError(t, err)

	n, err := drv.Exec(ctx, s)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithVarAppliesBeforeQuery(t *testing.T) {
	drv, c, mock := openMock(t)
	mock.ExpectExec(`SET app\.tenant_id = '42'`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT 1`).WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	ctx := WithIntVar(context.Background(), "app.tenant_id", 42)
	s, err := drv.Prepare(ctx, c, `SELECT 1`)
	require.NoError(t, err)

	_, _, err = drv.Step(ctx, s)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithVarRejectsUnsafeIdentifier(t *testing.T) {
	drv, c, mock := openMock(t)
	ctx := WithVar(context.Background(), "id; DROP TABLE widgets", "x")
	s, err := drv.Prepare(ctx, c, `SELECT 1`)
	require.NoError(t, err)

	_, _, err = drv.Step(ctx, s)
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVarFromContextRoundTrips(t *testing.T) {
	ctx := WithVar(context.Background(), "search_path", "tenant_a")
	v, ok := VarFromContext(ctx, "search_path")
	require.True(t, ok)
	require.Equal(t, "tenant_a", v)

	_, ok = VarFromContext(ctx, "missing")
	require.False(t, ok)
}
