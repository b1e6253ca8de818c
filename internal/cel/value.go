package cel

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Kind identifies the runtime kind of a Value.
type Kind int

const (
	KindMap Kind = iota
	KindList
	KindInt
	KindUInt
	KindDouble
	KindString
	KindBytes
	KindBool
	KindNull

	// Domain extensions beyond the base kinds.
	KindDate
	KindUUID
	KindDecimal
)

func (k Kind) String() string {
	switch k {
	case KindMap:
		return "map"
	case KindList:
		return "list"
	case KindInt:
		return "int"
	case KindUInt:
		return "uint"
	case KindDouble:
		return "double"
	case KindString:
		return "string"
	case KindBytes:
		return "bytes"
	case KindBool:
		return "bool"
	case KindNull:
		return "null"
	case KindDate:
		return "date"
	case KindUUID:
		return "uuid"
	case KindDecimal:
		return "decimal"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Value is a runtime value produced and consumed by the interpreter.
// The set of implementations is closed.
type Value interface {
	Kind() Kind
}

type Int int64

func (Int) Kind() Kind { return KindInt }

type UInt uint64

func (UInt) Kind() Kind { return KindUInt }

type Double float64

func (Double) Kind() Kind { return KindDouble }

type String string

func (String) Kind() Kind { return KindString }

type Bytes []byte

func (Bytes) Kind() Kind { return KindBytes }

type Bool bool

func (Bool) Kind() Kind { return KindBool }

type Null struct{}

func (Null) Kind() Kind { return KindNull }

type List []Value

func (List) Kind() Kind { return KindList }

// Date is a calendar date without a time component.
type Date struct {
	t time.Time
}

func (Date) Kind() Kind { return KindDate }

// NewDate truncates t to its calendar date in UTC.
func NewDate(t time.Time) Date {
	y, m, d := t.UTC().Date()
	return Date{t: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses an ISO-8601 date (2006-01-02).
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, &ConversionError{To: KindDate, Input: s, Err: err}
	}
	return Date{t: t}, nil
}

func (d Date) Time() time.Time { return d.t }
func (d Date) String() string  { return d.t.Format("2006-01-02") }

type UUID uuid.UUID

func (UUID) Kind() Kind { return KindUUID }

func (u UUID) String() string { return uuid.UUID(u).String() }

type Decimal struct {
	d decimal.Decimal
}

func (Decimal) Kind() Kind { return KindDecimal }

func NewDecimal(d decimal.Decimal) Decimal { return Decimal{d: d} }

func (d Decimal) Decimal() decimal.Decimal { return d.d }
func (d Decimal) String() string           { return d.d.String() }

// mapKey is the comparable form of a map key. Only Int, UInt, Bool and
// String values are legal keys.
type mapKey struct {
	kind Kind
	i    int64
	u    uint64
	b    bool
	s    string
}

func toMapKey(v Value) (mapKey, error) {
	switch k := v.(type) {
	case Int:
		return mapKey{kind: KindInt, i: int64(k)}, nil
	case UInt:
		return mapKey{kind: KindUInt, u: uint64(k)}, nil
	case Bool:
		return mapKey{kind: KindBool, b: bool(k)}, nil
	case String:
		return mapKey{kind: KindString, s: string(k)}, nil
	default:
		return mapKey{}, &BadTypeError{Expected: KindString, Actual: v.Kind()}
	}
}

// Map is an insertion-ordered key to value mapping.
type Map struct {
	keys    []Value
	entries map[mapKey]Value
}

func (*Map) Kind() Kind { return KindMap }

func NewMap() *Map {
	return &Map{entries: make(map[mapKey]Value)}
}

// Set binds key to v, preserving first-insertion order. Keys must be
// Int, UInt, Bool or String.
func (m *Map) Set(key, v Value) error {
	mk, err := toMapKey(key)
	if err != nil {
		return err
	}
	if _, exists := m.entries[mk]; !exists {
		m.keys = append(m.keys, key)
	}
	m.entries[mk] = v
	return nil
}

// SetString binds a string key to v.
func (m *Map) SetString(key string, v Value) {
	_ = m.Set(String(key), v)
}

// Get returns the value bound to key, or Null when the key is absent.
// A missing key is never an error.
func (m *Map) Get(key Value) Value {
	mk, err := toMapKey(key)
	if err != nil {
		return Null{}
	}
	if v, ok := m.entries[mk]; ok {
		return v
	}
	return Null{}
}

// Has reports whether key is present.
func (m *Map) Has(key Value) bool {
	mk, err := toMapKey(key)
	if err != nil {
		return false
	}
	_, ok := m.entries[mk]
	return ok
}

// Len returns the number of entries.
func (m *Map) Len() int { return len(m.keys) }

// Keys returns the keys in insertion order.
func (m *Map) Keys() []Value { return m.keys }
