package ormkit

import (
	"context"
	"fmt"
	"reflect"
	"strconv"

	"github.com/ormkit/ormkit/driver"
	"github.com/ormkit/ormkit/schema"
)

// rowSet is the decoded, driver-agnostic result of running one statement
// to completion: one []driver.Value per row, column-ordered to match the
// schema the statement was generated against.
type rowSet [][]driver.Value

// queryRows prepares, binds, and steps stmt to completion against the
// database's connection, decoding each row's columns via the driver's
// typed ReadColumn hook according to colTypes (spec.md §4.4 "Principal
// phase"; §6 readColumn(row, index, expectedType)).
func (db *Database) queryRows(ctx context.Context, stmt statement, colTypes []driver.PrimitiveType) (rowSet, error) {
	prepared, err := db.drv.Prepare(ctx, db.connFor(ctx), stmt.sql)
	if err != nil {
		e := NewSqlExecError(stmt.sql, err)
		db.logError(stmt.sql, e)
		return nil, e
	}
	defer db.drv.Finalize(prepared)

	for i, v := range stmt.args {
		if err := db.drv.Bind(prepared, i+1, v); err != nil {
			e := NewSqlExecError(stmt.sql, err)
			db.logError(stmt.sql, e)
			return nil, e
		}
	}

	var rows rowSet
	for {
		row, ok, err := db.drv.Step(ctx, prepared)
		if err != nil {
			e := NewSqlExecError(stmt.sql, err)
			db.logError(stmt.sql, e)
			return nil, e
		}
		if !ok {
			break
		}
		decoded := make([]driver.Value, len(colTypes))
		for i, t := range colTypes {
			v, err := db.drv.ReadColumn(row, i, t)
			if err != nil {
				e := NewDecodeError(fmt.Sprintf("#%d", i), err)
				db.logError(stmt.sql, e)
				return nil, e
			}
			decoded[i] = v
		}
		rows = append(rows, decoded)
	}
	return rows, nil
}

// countOne runs a `SELECT COUNT(*)` statement and returns its single
// scalar result.
func (db *Database) countOne(ctx context.Context, stmt statement) (int64, error) {
	rows, err := db.queryRows(ctx, stmt, []driver.PrimitiveType{driver.TypeInt64})
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0][0].Int, nil
}

func columnTypes(sch *schema.TableSchema) []driver.PrimitiveType {
	out := make([]driver.PrimitiveType, len(sch.Columns))
	for i, c := range sch.Columns {
		out[i] = c.Type
	}
	return out
}

// decodeRows converts a rowSet into record instances of type T by
// reflection, using sch's column order to locate each struct field
// (spec.md §4.4).
func decodeRows[T any](rows rowSet, sch *schema.TableSchema) ([]T, error) {
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		rec, err := decodeRecord[T](row, sch)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func decodeRecord[T any](row []driver.Value, sch *schema.TableSchema) (T, error) {
	var zero T
	if len(row) != len(sch.Columns) {
		return zero, NewDecodeError("<row>", ErrColumnMissing)
	}
	ptr := reflect.New(sch.Type)
	elem := ptr.Elem()
	for i, col := range sch.Columns {
		v := row[i]
		if v.Null {
			if !col.Nullable {
				return zero, NewDecodeError(col.Name, ErrNullNotNullable)
			}
			continue
		}
		field := col.FieldValue(elem)
		if col.Nullable {
			if field.Kind() == reflect.Pointer {
				ptrVal := reflect.New(field.Type().Elem())
				if err := assignPrimitive(ptrVal.Elem(), v); err != nil {
					return zero, NewDecodeError(col.Name, err)
				}
				field.Set(ptrVal)
				continue
			}
		}
		if err := assignPrimitive(field, v); err != nil {
			return zero, NewDecodeError(col.Name, err)
		}
	}
	return ptr.Elem().Interface().(T), nil
}

// assignPrimitive assigns v's payload into dst, which must be an
// addressable field of the Go type matching v.Type.
func assignPrimitive(dst reflect.Value, v driver.Value) error {
	switch dst.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		dst.SetInt(v.Int)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		dst.SetUint(v.Uint)
	case reflect.Float32, reflect.Float64:
		dst.SetFloat(v.Float)
	case reflect.Bool:
		dst.SetBool(v.Bool)
	case reflect.String:
		dst.SetString(v.Str)
	case reflect.Slice:
		dst.SetBytes(v.Bytes)
	default:
		switch dst.Interface().(type) {
		case interface{ UnixNano() int64 }:
			dst.Set(reflect.ValueOf(v.Date))
		default:
			dst.Set(reflect.ValueOf(v.Any()))
		}
	}
	return nil
}

// loadChildren runs the child-load protocol for every join in the
// chain, in chain order, mutating each record's joined field in place
// (spec.md §4.4 "Child-load phase").
func (q *Query[T]) loadChildren(ctx context.Context, sch *schema.TableSchema, records []T, auxiliaryPred map[int]*Expr) error {
	if len(q.joins) == 0 || len(records) == 0 {
		return nil
	}
	elems := make([]reflect.Value, len(records))
	for i := range records {
		elems[i] = reflect.ValueOf(&records[i]).Elem()
	}
	return q.loadChildrenForForm(ctx, q.entityType, elems, -1, auxiliaryPred)
}

// loadChildrenForForm performs the child-load protocol for every join
// whose parent is the form described by parentJoinIdx (-1 = OverAllForm),
// recursing into nested joins against the freshly loaded children
// (spec.md §4.4 "Nested joins").
func (q *Query[T]) loadChildrenForForm(ctx context.Context, parentType reflect.Type, parents []reflect.Value, parentJoinIdx int, auxiliaryPred map[int]*Expr) error {
	parentSchema, err := q.db.schemaFor(parentType)
	if err != nil {
		return err
	}
	for idx, j := range q.joins {
		if j.parentJoinIdx != parentJoinIdx {
			continue
		}
		if err := q.loadOneJoin(ctx, idx, j, parentSchema, parents, auxiliaryPred[idx]); err != nil {
			return err
		}
	}
	return nil
}

func (q *Query[T]) loadOneJoin(ctx context.Context, idx int, j *joinSpec, parentSchema *schema.TableSchema, parents []reflect.Value, auxPred *Expr) error {
	child, ok := parentSchema.ChildByField(j.targetField)
	if !ok {
		e := NewQueryError(parentSchema.TableName, "join", ErrNotAChildCollection)
		q.db.logError("", e)
		return e
	}
	parentCol, _ := parentSchema.ColumnByField(j.parentKey)

	keys, _ := dedupKeys(parents, parentCol)
	if len(keys) == 0 {
		for _, p := range parents {
			setEmptyChild(p, child)
		}
		return nil
	}

	// For a pivot join, the child table's own key bears no relation to
	// the parent's: only the pivot table's link rows say which child
	// belongs to which parent, so fetch those first (spec.md §4.4,
	// "pivot join: the effective child-side key after pivot resolution").
	var childToParents map[string][]string
	if j.kind == joinPivot {
		linkStmt, linkColTypes, err := q.buildPivotLinkStatement(idx, keys)
		if err != nil {
			return err
		}
		q.db.logQuery(linkStmt)
		linkRows, err := q.db.queryRows(ctx, linkStmt, linkColTypes)
		if err != nil {
			return err
		}
		childToParents = map[string][]string{}
		linkSeen := map[string]map[string]bool{}
		for _, row := range linkRows {
			parentKeyStr := bucketKeyFromValue(row[0])
			childKeyStr := bucketKeyFromValue(row[1])
			seen := linkSeen[childKeyStr]
			if seen == nil {
				seen = map[string]bool{}
				linkSeen[childKeyStr] = seen
			}
			if seen[parentKeyStr] {
				continue
			}
			seen[parentKeyStr] = true
			childToParents[childKeyStr] = append(childToParents[childKeyStr], parentKeyStr)
		}
	}

	stmt, err := q.buildAuxiliary(idx, keys, auxPred)
	if err != nil {
		return err
	}
	q.db.logQuery(stmt)
	childSchema, err := q.db.schemaFor(j.elementType)
	if err != nil {
		return err
	}
	rows, err := q.db.queryRows(ctx, stmt, columnTypes(childSchema))
	if err != nil {
		return err
	}

	childCol, _ := childSchema.ColumnByField(j.childKey)
	buckets := map[string][]reflect.Value{}
	for _, row := range rows {
		childPtr := reflect.New(childSchema.Type)
		rec, err := decodeRowInto(childPtr.Elem(), row, childSchema)
		if err != nil {
			q.db.logError(stmt.sql, err)
			return err
		}
		childKeyStr := bucketKey(childCol.FieldValue(rec))
		if j.kind == joinPivot {
			for _, parentKeyStr := range childToParents[childKeyStr] {
				buckets[parentKeyStr] = append(buckets[parentKeyStr], rec)
			}
			continue
		}
		buckets[childKeyStr] = append(buckets[childKeyStr], rec)
	}

	childElems := make([]reflect.Value, 0, len(rows))
	for _, p := range parents {
		keyStr := bucketKey(parentCol.FieldValue(p))
		bucket := buckets[keyStr]
		assignChild(p, child, bucket)
		childElems = append(childElems, bucket...)
	}

	return q.loadChildrenForForm(ctx, j.elementType, childElems, idx, nil)
}

func decodeRowInto(elem reflect.Value, row []driver.Value, sch *schema.TableSchema) (reflect.Value, error) {
	if len(row) != len(sch.Columns) {
		return elem, NewDecodeError("<row>", ErrColumnMissing)
	}
	for i, col := range sch.Columns {
		v := row[i]
		if v.Null {
			if !col.Nullable {
				return elem, NewDecodeError(col.Name, ErrNullNotNullable)
			}
			continue
		}
		field := col.FieldValue(elem)
		if col.Nullable && field.Kind() == reflect.Pointer {
			ptrVal := reflect.New(field.Type().Elem())
			if err := assignPrimitive(ptrVal.Elem(), v); err != nil {
				return elem, NewDecodeError(col.Name, err)
			}
			field.Set(ptrVal)
			continue
		}
		if err := assignPrimitive(field, v); err != nil {
			return elem, NewDecodeError(col.Name, err)
		}
	}
	return elem, nil
}

func dedupKeys(parents []reflect.Value, parentCol *schema.Column) ([]driver.Value, map[string]bool) {
	seen := map[string]bool{}
	var out []driver.Value
	for _, p := range parents {
		fv := parentCol.FieldValue(p)
		keyStr := bucketKey(fv)
		if seen[keyStr] {
			continue
		}
		seen[keyStr] = true
		v, err := encodeLiteral(fv.Interface())
		if err != nil {
			continue
		}
		out = append(out, v)
	}
	return out, seen
}

func bucketKey(v reflect.Value) string {
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return "<nil>"
		}
		v = v.Elem()
	}
	return toComparableString(v)
}

func toComparableString(v reflect.Value) string {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return "i" + strconv.FormatInt(v.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "u" + strconv.FormatUint(v.Uint(), 10)
	case reflect.Float32, reflect.Float64:
		return "f" + strconv.FormatFloat(v.Float(), 'g', -1, 64)
	case reflect.Bool:
		return "b" + strconv.FormatBool(v.Bool())
	case reflect.String:
		return v.String()
	default:
		// v.String() only returns the underlying value for Kind String;
		// for everything else (time.Time, uuid.UUID) fall back to the
		// type's own Stringer rather than reflect's "<T Value>" placeholder.
		if s, ok := v.Interface().(fmt.Stringer); ok {
			return s.String()
		}
		return v.String()
	}
}

// bucketKeyFromValue is toComparableString's counterpart for driver.Value,
// used to key pivot link rows fetched straight from the database rather
// than through a decoded struct field.
func bucketKeyFromValue(v driver.Value) string {
	if v.Null {
		return "<nil>"
	}
	switch v.Type {
	case driver.TypeInt8, driver.TypeInt16, driver.TypeInt32, driver.TypeInt64:
		return "i" + strconv.FormatInt(v.Int, 10)
	case driver.TypeUint8, driver.TypeUint16, driver.TypeUint32, driver.TypeUint64:
		return "u" + strconv.FormatUint(v.Uint, 10)
	case driver.TypeFloat32, driver.TypeFloat64:
		return "f" + strconv.FormatFloat(v.Float, 'g', -1, 64)
	case driver.TypeBool:
		return "b" + strconv.FormatBool(v.Bool)
	case driver.TypeString:
		return v.Str
	case driver.TypeBytes:
		return string(v.Bytes)
	case driver.TypeDate:
		return v.Date.String()
	case driver.TypeUUID:
		return v.UUID.String()
	default:
		return ""
	}
}

func setEmptyChild(parent reflect.Value, child *schema.ChildCollection) {
	field := child.FieldValue(parent)
	field.Set(reflect.MakeSlice(field.Type(), 0, 0))
}

func assignChild(parent reflect.Value, child *schema.ChildCollection, bucket []reflect.Value) {
	field := child.FieldValue(parent)
	sliceType := field.Type()
	elemType := sliceType.Elem()
	out := reflect.MakeSlice(sliceType, 0, len(bucket))
	for _, b := range bucket {
		if elemType.Kind() == reflect.Pointer {
			ptr := reflect.New(elemType.Elem())
			ptr.Elem().Set(b)
			out = reflect.Append(out, ptr)
		} else {
			out = reflect.Append(out, b)
		}
	}
	field.Set(out)
}
