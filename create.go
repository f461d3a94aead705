package ormkit

import (
	"context"
	"reflect"

	"github.com/ormkit/ormkit/schema"
)

// CreatePolicy controls how Create provisions a record type's table
// (spec.md §4.3 "Create").
type CreatePolicy struct {
	dropTable      bool
	reconcileTable bool
	shallow        bool
}

// DropTable issues `DROP TABLE IF EXISTS` before creating the table.
func (p CreatePolicy) DropTable() CreatePolicy { p.dropTable = true; return p }

// ReconcileTable reconciles the live table's columns against the schema
// instead of issuing CREATE TABLE IF NOT EXISTS unconditionally.
func (p CreatePolicy) ReconcileTable() CreatePolicy { p.reconcileTable = true; return p }

// Shallow stops Create from recursing into child-collection element
// types.
func (p CreatePolicy) Shallow() CreatePolicy { p.shallow = true; return p }

// Create provisions the table for record type T according to policy,
// recursing into every child-collection element type unless
// policy.Shallow() was set, breaking cycles by tracking visited types
// (spec.md §4.3 "Create").
func Create[T any](ctx context.Context, db *Database, policy CreatePolicy) error {
	return createType(ctx, db, reflect.TypeFor[T](), policy, map[reflect.Type]bool{})
}

func createType(ctx context.Context, db *Database, t reflect.Type, policy CreatePolicy, visited map[reflect.Type]bool) error {
	if visited[t] {
		return nil
	}
	visited[t] = true

	sch, err := db.schemaFor(t)
	if err != nil {
		return err
	}

	if policy.dropTable {
		if _, err := db.exec(ctx, statement{sql: "DROP TABLE IF EXISTS " + db.drv.QuoteIdentifier(sch.TableName)}); err != nil {
			return err
		}
	}

	if policy.reconcileTable {
		if err := reconcileSchema(ctx, db, sch); err != nil {
			return err
		}
	} else {
		stmt, err := createTableStatement(db, sch)
		if err != nil {
			return err
		}
		if _, err := db.exec(ctx, stmt); err != nil {
			return err
		}
	}

	if policy.shallow {
		return nil
	}
	for _, child := range sch.ChildCollections {
		if err := createType(ctx, db, child.ElementType, policy, visited); err != nil {
			return err
		}
	}
	return nil
}

func createTableStatement(db *Database, sch *schema.TableSchema) (statement, error) {
	drv := db.drv
	defs := make([]string, len(sch.Columns))
	for i, c := range sch.Columns {
		defs[i] = drv.QuoteIdentifier(c.Name) + " " + drv.SQLTypeKeyword(c.Type, c.Nullable)
	}
	sql := "CREATE TABLE IF NOT EXISTS " + drv.QuoteIdentifier(sch.TableName) + " (" + joinComma(defs)
	if pk, ok := sch.PrimaryKeyColumn(); ok {
		sql += ", PRIMARY KEY (" + drv.QuoteIdentifier(pk.Name) + ")"
	}
	sql += ")"
	return statement{sql: sql}, nil
}

// reconcileSchema is Reconcile's un-exported core, reused by Create so
// the same (dialect, type) schema lookup the caller already paid for is
// not repeated.
func reconcileSchema(ctx context.Context, db *Database, sch *schema.TableSchema) error {
	live, err := db.drv.ListColumns(ctx, db.connFor(ctx), sch.TableName)
	if err != nil {
		e := NewSqlExecError("listColumns("+sch.TableName+")", err)
		db.logError("", e)
		return e
	}
	changes := diffColumns(live, sch, db.drv)
	for _, stmt := range reconcileStatements(db.drv, sch.TableName, changes) {
		if _, err := db.exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
