package schema

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-openapi/inflect"
	"github.com/google/uuid"

	"github.com/ormkit/ormkit/driver"
)

var (
	timeType = reflect.TypeFor[time.Time]()
	uuidType = reflect.TypeFor[uuid.UUID]()
	byteType = reflect.TypeFor[byte]()
)

// tagOptions is the parsed form of a `db:"..."` struct tag.
type tagOptions struct {
	skip bool
	name string
	pk   bool
}

func parseTag(raw string) tagOptions {
	if raw == "-" {
		return tagOptions{skip: true}
	}
	parts := strings.Split(raw, ",")
	opts := tagOptions{name: parts[0]}
	for _, p := range parts[1:] {
		if p == "pk" {
			opts.pk = true
		}
	}
	return opts
}

// Reflect derives a TableSchema from t by walking its fields in declared
// order (spec.md §4.1). t must be a struct type or a pointer to one;
// pointers are dereferenced first.
func Reflect(t reflect.Type) (*TableSchema, error) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, NewUnsupportedFieldTypeError(t.Name(), t.Kind().String())
	}

	overrides := columnOverrides(t)
	explicitPK := explicitPrimaryKeyField(t)

	s := &TableSchema{
		Type:       t,
		TableName:  tableName(t),
		PrimaryKey: -1,
	}

	idCandidate := -1
	taggedPKField := ""
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		opts := parseTag(f.Tag.Get("db"))
		if opts.skip {
			continue
		}
		if opts.pk {
			if taggedPKField != "" && taggedPKField != f.Name {
				return nil, fmt.Errorf("schema: fields %q and %q both tagged `db:\",pk\"`: %w", taggedPKField, f.Name, ErrAmbiguousPrimaryKey)
			}
			taggedPKField = f.Name
		}

		ft := f.Type
		nullable := false
		if ft.Kind() == reflect.Pointer {
			nullable = true
			ft = ft.Elem()
		}

		if prim, ok := primitiveType(ft); ok {
			name := f.Name
			if opts.name != "" {
				name = opts.name
			} else if override, ok := overrides[f.Name]; ok {
				name = override
			}
			col := Column{
				Name:       name,
				Field:      f.Name,
				Type:       prim,
				Nullable:   nullable,
				fieldIndex: i,
			}
			s.Columns = append(s.Columns, col)

			isPK := opts.pk || (explicitPK != "" && explicitPK == f.Name)
			if isPK {
				s.PrimaryKey = len(s.Columns) - 1
			} else if explicitPK == "" && strings.EqualFold(name, "id") {
				idCandidate = len(s.Columns) - 1
			}
			continue
		}

		if ft.Kind() == reflect.Slice && ft != bytesSliceType() {
			elem := ft.Elem()
			for elem.Kind() == reflect.Pointer {
				elem = elem.Elem()
			}
			if elem.Kind() != reflect.Struct || elem == timeType || elem == uuidType {
				return nil, NewInvalidChildCollectionError(f.Name, elem.String())
			}
			s.ChildCollections = append(s.ChildCollections, ChildCollection{
				Field:       f.Name,
				ElementType: elem,
				fieldIndex:  i,
			})
			continue
		}

		return nil, NewUnsupportedFieldTypeError(f.Name, f.Type.String())
	}

	if explicitPK != "" {
		resolved := false
		for _, c := range s.Columns {
			if c.Field == explicitPK {
				resolved = true
				break
			}
		}
		if !resolved {
			return nil, fmt.Errorf("schema: PrimaryKeyField %q does not resolve to a column: %w", explicitPK, ErrAmbiguousPrimaryKey)
		}
	}
	if taggedPKField != "" && explicitPK != "" && taggedPKField != explicitPK {
		return nil, fmt.Errorf("schema: conflicting primary keys: %q tagged `db:\",pk\"`, %q named by PrimaryKeyNamer: %w", taggedPKField, explicitPK, ErrAmbiguousPrimaryKey)
	}

	if s.PrimaryKey < 0 && explicitPK == "" && idCandidate >= 0 {
		s.PrimaryKey = idCandidate
	}

	return s, nil
}

func bytesSliceType() reflect.Type {
	return reflect.SliceOf(byteType)
}

// primitiveType maps a non-pointer Go type to its PrimitiveType, if
// supported.
func primitiveType(t reflect.Type) (driver.PrimitiveType, bool) {
	switch {
	case t == timeType:
		return driver.TypeDate, true
	case t == uuidType:
		return driver.TypeUUID, true
	case t == bytesSliceType():
		return driver.TypeBytes, true
	}
	switch t.Kind() {
	case reflect.Int8:
		return driver.TypeInt8, true
	case reflect.Int16:
		return driver.TypeInt16, true
	case reflect.Int32:
		return driver.TypeInt32, true
	case reflect.Int, reflect.Int64:
		return driver.TypeInt64, true
	case reflect.Uint8:
		return driver.TypeUint8, true
	case reflect.Uint16:
		return driver.TypeUint16, true
	case reflect.Uint32:
		return driver.TypeUint32, true
	case reflect.Uint, reflect.Uint64:
		return driver.TypeUint64, true
	case reflect.Float32:
		return driver.TypeFloat32, true
	case reflect.Float64:
		return driver.TypeFloat64, true
	case reflect.Bool:
		return driver.TypeBool, true
	case reflect.String:
		return driver.TypeString, true
	default:
		return 0, false
	}
}

// tableName resolves the default table name for t: the TableNamer
// override if implemented, else the pluralized, lower-cased structural
// name, in the convention of most Go ORMs.
func tableName(t reflect.Type) string {
	if v, ok := namerFor(t); ok {
		return v.TableName()
	}
	return inflect.Pluralize(inflect.Underscore(t.Name()))
}

func namerFor(t reflect.Type) (TableNamer, bool) {
	v, ok := reflect.New(t).Interface().(TableNamer)
	return v, ok
}

func columnOverrides(t reflect.Type) map[string]string {
	if v, ok := reflect.New(t).Interface().(ColumnMapper); ok {
		return v.ColumnNames()
	}
	return nil
}

func explicitPrimaryKeyField(t reflect.Type) string {
	if v, ok := reflect.New(t).Interface().(PrimaryKeyNamer); ok {
		return v.PrimaryKeyField()
	}
	return ""
}
