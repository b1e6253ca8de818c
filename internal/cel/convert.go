package cel

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AsBool extracts a Bool value.
func AsBool(v Value) (bool, error) {
	if b, ok := v.(Bool); ok {
		return bool(b), nil
	}
	return false, &BadTypeError{Expected: KindBool, Actual: v.Kind()}
}

// AsString extracts a String value.
func AsString(v Value) (string, error) {
	if s, ok := v.(String); ok {
		return string(s), nil
	}
	return "", &BadTypeError{Expected: KindString, Actual: v.Kind()}
}

// AsInt extracts an Int value.
func AsInt(v Value) (int64, error) {
	if i, ok := v.(Int); ok {
		return int64(i), nil
	}
	return 0, &BadTypeError{Expected: KindInt, Actual: v.Kind()}
}

// AsDecimal extracts a Decimal, converting from the numeric kinds or
// parsing a decimal string. Malformed strings fail with a ConversionError.
func AsDecimal(v Value) (decimal.Decimal, error) {
	switch n := v.(type) {
	case Decimal:
		return n.d, nil
	case Int:
		return decimal.NewFromInt(int64(n)), nil
	case UInt:
		return decimal.NewFromUint64(uint64(n)), nil
	case Double:
		return decimal.NewFromFloat(float64(n)), nil
	case String:
		d, err := decimal.NewFromString(string(n))
		if err != nil {
			return decimal.Zero, &ConversionError{To: KindDecimal, Input: string(n), Err: err}
		}
		return d, nil
	default:
		return decimal.Zero, &BadTypeError{Expected: KindDecimal, Actual: v.Kind()}
	}
}

// AsDate extracts a Date, parsing ISO-8601 date strings.
func AsDate(v Value) (Date, error) {
	switch d := v.(type) {
	case Date:
		return d, nil
	case String:
		return ParseDate(string(d))
	default:
		return Date{}, &BadTypeError{Expected: KindDate, Actual: v.Kind()}
	}
}

// AsUUID extracts a UUID, parsing canonical-form strings.
func AsUUID(v Value) (uuid.UUID, error) {
	switch u := v.(type) {
	case UUID:
		return uuid.UUID(u), nil
	case String:
		id, err := uuid.Parse(string(u))
		if err != nil {
			return uuid.Nil, &ConversionError{To: KindUUID, Input: string(u), Err: err}
		}
		return id, nil
	default:
		return uuid.Nil, &BadTypeError{Expected: KindUUID, Actual: v.Kind()}
	}
}

// ToAny converts a Value to its plain Go representation, suitable for
// JSON serialization. Map keys are rendered as strings.
func ToAny(v Value) any {
	switch t := v.(type) {
	case Null:
		return nil
	case Bool:
		return bool(t)
	case Int:
		return int64(t)
	case UInt:
		return uint64(t)
	case Double:
		return float64(t)
	case String:
		return string(t)
	case Bytes:
		return []byte(t)
	case Date:
		return t.String()
	case UUID:
		return t.String()
	case Decimal:
		return t.String()
	case List:
		out := make([]any, 0, len(t))
		for _, e := range t {
			out = append(out, ToAny(e))
		}
		return out
	case *Map:
		out := make(map[string]any, t.Len())
		for _, k := range t.Keys() {
			out[fmt.Sprint(ToAny(k))] = ToAny(t.Get(k))
		}
		return out
	default:
		return nil
	}
}

// FromAny converts a plain Go value (typically decoded JSON) to a Value.
func FromAny(v any) (Value, error) {
	switch t := v.(type) {
	case nil:
		return Null{}, nil
	case bool:
		return Bool(t), nil
	case int:
		return Int(t), nil
	case int64:
		return Int(t), nil
	case uint64:
		return UInt(t), nil
	case float64:
		return Double(t), nil
	case string:
		return String(t), nil
	case []byte:
		return Bytes(t), nil
	case time.Time:
		return NewDate(t), nil
	case uuid.UUID:
		return UUID(t), nil
	case decimal.Decimal:
		return NewDecimal(t), nil
	case []any:
		list := make(List, 0, len(t))
		for _, e := range t {
			val, err := FromAny(e)
			if err != nil {
				return nil, err
			}
			list = append(list, val)
		}
		return list, nil
	case map[string]any:
		m := NewMap()
		for k, e := range t {
			val, err := FromAny(e)
			if err != nil {
				return nil, err
			}
			m.SetString(k, val)
		}
		return m, nil
	default:
		return nil, fmt.Errorf("cel: unsupported value type %T", v)
	}
}
