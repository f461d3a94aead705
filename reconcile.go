package ormkit

import (
	"context"
	"reflect"

	atlasschema "ariga.io/atlas/sql/schema"

	"github.com/ormkit/ormkit/driver"
	"github.com/ormkit/ormkit/schema"
)

// diffColumns compares a live table's columns against the desired
// schema and returns the atlas schema.Change set needed to reconcile
// them, drops before adds (spec.md §4.3 "Create" / ".reconcileTable").
// The live/desired descriptions are expressed as atlas *schema.Column
// values so a later port to a dialect atlas already supports can reuse
// its own diffing instead of this hand-rolled comparison.
func diffColumns(live []driver.ColumnInfo, desired *schema.TableSchema, drv driver.Driver) []atlasschema.Change {
	liveByName := make(map[string]driver.ColumnInfo, len(live))
	for _, c := range live {
		liveByName[c.Name] = c
	}
	desiredByName := make(map[string]bool, len(desired.Columns))
	for _, c := range desired.Columns {
		desiredByName[c.Name] = true
	}

	var changes []atlasschema.Change
	for _, c := range live {
		if !desiredByName[c.Name] {
			changes = append(changes, &atlasschema.DropColumn{
				C: &atlasschema.Column{Name: c.Name},
			})
		}
	}
	for _, c := range desired.Columns {
		if _, ok := liveByName[c.Name]; ok {
			continue
		}
		changes = append(changes, &atlasschema.AddColumn{
			C: &atlasschema.Column{
				Name: c.Name,
				Type: &atlasschema.ColumnType{Raw: drv.SQLTypeKeyword(c.Type, c.Nullable), Null: c.Nullable},
			},
		})
	}
	return changes
}

// reconcileStatements lowers a change set produced by diffColumns into
// `ALTER TABLE` statements, one per change, in the order given.
func reconcileStatements(drv driver.Driver, table string, changes []atlasschema.Change) []statement {
	out := make([]statement, 0, len(changes))
	for _, ch := range changes {
		switch c := ch.(type) {
		case *atlasschema.DropColumn:
			out = append(out, statement{sql: "ALTER TABLE " + drv.QuoteIdentifier(table) + " DROP COLUMN " + drv.QuoteIdentifier(c.C.Name)})
		case *atlasschema.AddColumn:
			out = append(out, statement{sql: "ALTER TABLE " + drv.QuoteIdentifier(table) + " ADD COLUMN " + drv.QuoteIdentifier(c.C.Name) + " " + c.C.Type.Raw})
		}
	}
	return out
}

// Reconcile runs the .reconcileTable policy for record type T against
// db's live schema: it issues ADD COLUMN for every schema column
// missing from the live table, and DROP COLUMN for every live column
// absent from the schema, drops first (spec.md §4.3, §8 "Reconciling a
// table whose live columns are a subset of S.columns emits only ADD
// COLUMN statements, in schema order").
func Reconcile[T any](ctx context.Context, db *Database) error {
	sch, err := db.schemaFor(reflect.TypeFor[T]())
	if err != nil {
		return err
	}
	return reconcileSchema(ctx, db, sch)
}
