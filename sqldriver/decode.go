package sqldriver

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ormkit/ormkit/driver"
)

// decodeAny converts a value scanned by database/sql (typically int64,
// float64, bool, string, []byte, or time.Time) into the driver's typed
// Value sum type for the expected column (spec.md §9 "Decoder/encoder
// polymorphism").
func decodeAny(raw any, expected driver.PrimitiveType) (driver.Value, error) {
	switch expected {
	case driver.TypeInt8, driver.TypeInt16, driver.TypeInt32, driver.TypeInt64:
		v, err := asInt64(raw)
		if err != nil {
			return driver.Value{}, err
		}
		return driver.IntValue(expected, v), nil
	case driver.TypeUint8, driver.TypeUint16, driver.TypeUint32, driver.TypeUint64:
		v, err := asInt64(raw)
		if err != nil {
			return driver.Value{}, err
		}
		return driver.UintValue(expected, uint64(v)), nil
	case driver.TypeFloat32, driver.TypeFloat64:
		v, err := asFloat64(raw)
		if err != nil {
			return driver.Value{}, err
		}
		return driver.FloatValue(expected, v), nil
	case driver.TypeBool:
		switch v := raw.(type) {
		case bool:
			return driver.BoolValue(v), nil
		case int64:
			return driver.BoolValue(v != 0), nil
		default:
			return driver.Value{}, fmt.Errorf("sqldriver: cannot decode %T as bool", raw)
		}
	case driver.TypeString:
		switch v := raw.(type) {
		case string:
			return driver.StringValue(v), nil
		case []byte:
			return driver.StringValue(string(v)), nil
		default:
			return driver.Value{}, fmt.Errorf("sqldriver: cannot decode %T as string", raw)
		}
	case driver.TypeBytes:
		switch v := raw.(type) {
		case []byte:
			return driver.BytesValue(v), nil
		case string:
			return driver.BytesValue([]byte(v)), nil
		default:
			return driver.Value{}, fmt.Errorf("sqldriver: cannot decode %T as bytes", raw)
		}
	case driver.TypeDate:
		switch v := raw.(type) {
		case time.Time:
			return driver.DateValue(v), nil
		case string:
			t, err := parseDate(v)
			if err != nil {
				return driver.Value{}, err
			}
			return driver.DateValue(t), nil
		default:
			return driver.Value{}, fmt.Errorf("sqldriver: cannot decode %T as date", raw)
		}
	case driver.TypeUUID:
		switch v := raw.(type) {
		case string:
			u, err := uuid.Parse(v)
			if err != nil {
				return driver.Value{}, err
			}
			return driver.UUIDValue(u), nil
		case []byte:
			u, err := uuid.ParseBytes(v)
			if err != nil {
				return driver.Value{}, err
			}
			return driver.UUIDValue(u), nil
		default:
			return driver.Value{}, fmt.Errorf("sqldriver: cannot decode %T as uuid", raw)
		}
	default:
		return driver.Value{}, fmt.Errorf("sqldriver: unsupported primitive type %v", expected)
	}
}

func asInt64(raw any) (int64, error) {
	switch v := raw.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case float64:
		return int64(v), nil
	default:
		return 0, fmt.Errorf("sqldriver: cannot decode %T as integer", raw)
	}
}

func asFloat64(raw any) (float64, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case int64:
		return float64(v), nil
	default:
		return 0, fmt.Errorf("sqldriver: cannot decode %T as float", raw)
	}
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05.999999999-07:00", "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("sqldriver: cannot parse %q as date", s)
}
