package eip712

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"sort"
	"strconv"
)

// ValueKind identifies the variant held by a Value.
type ValueKind uint8

const (
	NullValue ValueKind = iota
	BoolValue
	NumberValue
	StringValue
	ArrayValue
	ObjectValue
)

func (k ValueKind) String() string {
	switch k {
	case BoolValue:
		return "bool"
	case NumberValue:
		return "number"
	case StringValue:
		return "string"
	case ArrayValue:
		return "array"
	case ObjectValue:
		return "object"
	default:
		return "null"
	}
}

// Value is an untyped document value (message or domain payload). Numbers keep
// their literal text so large integers are never rounded through float64.
// The zero Value is null.
type Value struct {
	kind ValueKind
	b    bool
	s    string
	arr  []Value
	obj  map[string]Value
}

// Null returns the null value.
func Null() Value { return Value{} }

// Bool wraps a boolean.
func Bool(b bool) Value { return Value{kind: BoolValue, b: b} }

// String wraps a string.
func String(s string) Value { return Value{kind: StringValue, s: s} }

// Array wraps a list of values.
func Array(items ...Value) Value { return Value{kind: ArrayValue, arr: items} }

// Object wraps a set of named members.
func Object(m map[string]Value) Value {
	if m == nil {
		m = map[string]Value{}
	}
	return Value{kind: ObjectValue, obj: m}
}

// Number wraps a numeric literal such as "42", "-7" or "1e18".
func Number(literal string) Value { return Value{kind: NumberValue, s: literal} }

// Int wraps an integer.
func Int(n int64) Value { return Number(strconv.FormatInt(n, 10)) }

// BigInt wraps an arbitrary precision integer.
func BigInt(n *big.Int) Value { return Number(n.String()) }

func (v Value) Kind() ValueKind { return v.kind }

func (v Value) IsNull() bool { return v.kind == NullValue }

// AsBool returns the boolean held by v.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == BoolValue }

// AsString returns the string held by v.
func (v Value) AsString() (string, bool) { return v.s, v.kind == StringValue }

// AsNumber returns the numeric literal held by v.
func (v Value) AsNumber() (string, bool) { return v.s, v.kind == NumberValue }

// AsArray returns the elements held by v.
func (v Value) AsArray() ([]Value, bool) { return v.arr, v.kind == ArrayValue }

// AsObject returns the members held by v.
func (v Value) AsObject() (map[string]Value, bool) { return v.obj, v.kind == ObjectValue }

// Get returns the member named key of an object value.
func (v Value) Get(key string) (Value, bool) {
	if v.kind != ObjectValue {
		return Value{}, false
	}
	m, ok := v.obj[key]
	return m, ok
}

// With returns a copy of the object value with key set to m. Nested values are
// shared, not copied.
func (v Value) With(key string, m Value) Value {
	out := make(map[string]Value, len(v.obj)+1)
	for k, vv := range v.obj {
		out[k] = vv
	}
	out[key] = m
	return Object(out)
}

// describe renders the value for error messages.
func (v Value) describe() string {
	switch v.kind {
	case StringValue:
		return strconv.Quote(truncateText(v.s, 70))
	case NumberValue:
		return "number " + truncateText(v.s, 70)
	case BoolValue:
		return strconv.FormatBool(v.b)
	case ArrayValue:
		return fmt.Sprintf("array of %d", len(v.arr))
	case ObjectValue:
		return "object"
	default:
		return "null"
	}
}

func truncateText(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

// FromAny converts decoded JSON/YAML data (maps, slices and scalars) into a Value.
func FromAny(x any) (Value, error) {
	switch t := x.(type) {
	case nil:
		return Null(), nil
	case Value:
		return t, nil
	case bool:
		return Bool(t), nil
	case string:
		return String(t), nil
	case json.Number:
		return Number(t.String()), nil
	case int:
		return Int(int64(t)), nil
	case int64:
		return Int(t), nil
	case uint64:
		return Number(strconv.FormatUint(t, 10)), nil
	case float64:
		return Number(strconv.FormatFloat(t, 'f', -1, 64)), nil
	case *big.Int:
		if t == nil {
			return Null(), nil
		}
		return BigInt(t), nil
	case []any:
		items := make([]Value, len(t))
		for i, item := range t {
			v, err := FromAny(item)
			if err != nil {
				return Value{}, err
			}
			items[i] = v
		}
		return Array(items...), nil
	case map[string]any:
		obj := make(map[string]Value, len(t))
		for k, item := range t {
			v, err := FromAny(item)
			if err != nil {
				return Value{}, err
			}
			obj[k] = v
		}
		return Object(obj), nil
	case map[any]any:
		obj := make(map[string]Value, len(t))
		for k, item := range t {
			key, ok := k.(string)
			if !ok {
				return Value{}, fmt.Errorf("object key %v is not a string", k)
			}
			v, err := FromAny(item)
			if err != nil {
				return Value{}, err
			}
			obj[key] = v
		}
		return Object(obj), nil
	default:
		return Value{}, fmt.Errorf("unsupported value type %T", x)
	}
}

// UnmarshalJSON decodes any JSON value, keeping number literals verbatim.
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var x any
	if err := dec.Decode(&x); err != nil {
		return err
	}
	out, err := FromAny(x)
	if err != nil {
		return err
	}
	*v = out
	return nil
}

// MarshalJSON encodes the value back to JSON with object keys sorted.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case BoolValue:
		return json.Marshal(v.b)
	case NumberValue:
		// YAML integers may be written in hex; JSON only has decimal.
		if v.s != "" && (v.s[0] == '-' || isDigit(v.s[0])) && json.Valid([]byte(v.s)) {
			return []byte(v.s), nil
		}
		if n, ok := parseInteger(v.s); ok {
			return []byte(n.String()), nil
		}
		return json.Marshal(v.s)
	case StringValue:
		return json.Marshal(v.s)
	case ArrayValue:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, item := range v.arr {
			if i > 0 {
				buf.WriteByte(',')
			}
			b, err := item.MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf.Write(b)
		}
		buf.WriteByte(']')
		return buf.Bytes(), nil
	case ObjectValue:
		keys := make([]string, 0, len(v.obj))
		for k := range v.obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var buf bytes.Buffer
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, _ := json.Marshal(k)
			buf.Write(kb)
			buf.WriteByte(':')
			b, err := v.obj[k].MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf.Write(b)
		}
		buf.WriteByte('}')
		return buf.Bytes(), nil
	default:
		return []byte("null"), nil
	}
}
