// Package cim holds the typed values exchanged with the management subsystem:
// a closed Value union, an ordered PropertyBag and the DMTF datetime codec.
package cim

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// Kind identifies which member of the Value union is set.
type Kind uint8

const (
	KindNull Kind = iota
	KindString
	KindBool
	KindByte
	KindUint16
	KindInt32
	KindUint32
	KindInt64
	KindUint64
	KindFloat32
	KindFloat64
	KindDateTime
	KindStringArray
	KindArray
)

var kindNames = map[Kind]string{
	KindNull:        "null",
	KindString:      "string",
	KindBool:        "bool",
	KindByte:        "byte",
	KindUint16:      "uint16",
	KindInt32:       "int32",
	KindUint32:      "uint32",
	KindInt64:       "int64",
	KindUint64:      "uint64",
	KindFloat32:     "float32",
	KindFloat64:     "float64",
	KindDateTime:    "datetime",
	KindStringArray: "string[]",
	KindArray:       "array",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// ParseKind maps a configuration type name to a Kind. It accepts the names
// produced by Kind.String plus a few common aliases.
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "string", "str":
		return KindString, nil
	case "bool", "boolean":
		return KindBool, nil
	case "byte", "uint8":
		return KindByte, nil
	case "uint16", "ushort":
		return KindUint16, nil
	case "int32", "int":
		return KindInt32, nil
	case "uint32", "uint":
		return KindUint32, nil
	case "int64", "long":
		return KindInt64, nil
	case "uint64", "ulong":
		return KindUint64, nil
	case "float32", "float", "single":
		return KindFloat32, nil
	case "float64", "double":
		return KindFloat64, nil
	case "datetime", "time":
		return KindDateTime, nil
	case "string[]", "[]string", "stringarray", "strings":
		return KindStringArray, nil
	}
	return KindNull, fmt.Errorf("unknown value type %q", name)
}

// Value is a tagged union over the value kinds a CIM property or method
// parameter can carry. The zero Value is Null.
type Value struct {
	kind Kind
	s    string
	b    bool
	i    int64
	u    uint64
	f    float64
	t    time.Time
	ss   []string
	arr  []Value
}

func Null() Value                   { return Value{} }
func NewString(s string) Value      { return Value{kind: KindString, s: s} }
func NewBool(b bool) Value          { return Value{kind: KindBool, b: b} }
func NewByte(v uint8) Value         { return Value{kind: KindByte, u: uint64(v)} }
func NewUint16(v uint16) Value      { return Value{kind: KindUint16, u: uint64(v)} }
func NewInt32(v int32) Value        { return Value{kind: KindInt32, i: int64(v)} }
func NewUint32(v uint32) Value      { return Value{kind: KindUint32, u: uint64(v)} }
func NewInt64(v int64) Value        { return Value{kind: KindInt64, i: v} }
func NewUint64(v uint64) Value      { return Value{kind: KindUint64, u: v} }
func NewFloat32(v float32) Value    { return Value{kind: KindFloat32, f: float64(v)} }
func NewFloat64(v float64) Value    { return Value{kind: KindFloat64, f: v} }
func NewDateTime(t time.Time) Value { return Value{kind: KindDateTime, t: t} }

func NewStringArray(ss []string) Value {
	return Value{kind: KindStringArray, ss: append([]string(nil), ss...)}
}

func NewArray(vs []Value) Value {
	return Value{kind: KindArray, arr: append([]Value(nil), vs...)}
}

func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) AsString() (string, bool) { return v.s, v.kind == KindString }
func (v Value) AsBool() (bool, bool)     { return v.b, v.kind == KindBool }
func (v Value) AsTime() (time.Time, bool) {
	return v.t, v.kind == KindDateTime
}

// AsInt64 returns integer kinds widened to int64. Uint64 values above
// math.MaxInt64 report false.
func (v Value) AsInt64() (int64, bool) {
	switch v.kind {
	case KindInt32, KindInt64:
		return v.i, true
	case KindByte, KindUint16, KindUint32:
		return int64(v.u), true
	case KindUint64:
		if v.u > 1<<63-1 {
			return 0, false
		}
		return int64(v.u), true
	}
	return 0, false
}

func (v Value) AsFloat64() (float64, bool) {
	if v.kind == KindFloat32 || v.kind == KindFloat64 {
		return v.f, true
	}
	return 0, false
}

func (v Value) AsStringArray() ([]string, bool) {
	if v.kind != KindStringArray {
		return nil, false
	}
	return append([]string(nil), v.ss...), true
}

func (v Value) AsArray() ([]Value, bool) {
	if v.kind != KindArray {
		return nil, false
	}
	return append([]Value(nil), v.arr...), true
}

// Interface returns the value as its native Go type (string, bool, uint8,
// uint16, int32, uint32, int64, uint64, float32, float64, time.Time, []string,
// []interface{}) or nil for Null.
func (v Value) Interface() interface{} {
	switch v.kind {
	case KindString:
		return v.s
	case KindBool:
		return v.b
	case KindByte:
		return uint8(v.u)
	case KindUint16:
		return uint16(v.u)
	case KindInt32:
		return int32(v.i)
	case KindUint32:
		return uint32(v.u)
	case KindInt64:
		return v.i
	case KindUint64:
		return v.u
	case KindFloat32:
		return float32(v.f)
	case KindFloat64:
		return v.f
	case KindDateTime:
		return v.t
	case KindStringArray:
		return append([]string(nil), v.ss...)
	case KindArray:
		out := make([]interface{}, len(v.arr))
		for i, e := range v.arr {
			out[i] = e.Interface()
		}
		return out
	}
	return nil
}

func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "<null>"
	case KindDateTime:
		return v.t.Format(time.RFC3339)
	case KindStringArray:
		return "[" + strings.Join(v.ss, ", ") + "]"
	}
	return fmt.Sprint(v.Interface())
}

// Equal reports whether two values have the same kind and content.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindDateTime:
		return v.t.Equal(o.t)
	case KindStringArray:
		if len(v.ss) != len(o.ss) {
			return false
		}
		for i := range v.ss {
			if v.ss[i] != o.ss[i] {
				return false
			}
		}
		return true
	case KindArray:
		if len(v.arr) != len(o.arr) {
			return false
		}
		for i := range v.arr {
			if !v.arr[i].Equal(o.arr[i]) {
				return false
			}
		}
		return true
	}
	return v.s == o.s && v.b == o.b && v.i == o.i && v.u == o.u && v.f == o.f
}

func (v Value) MarshalJSON() ([]byte, error) {
	if v.kind == KindDateTime {
		return json.Marshal(v.t.Format(time.RFC3339Nano))
	}
	return json.Marshal(v.Interface())
}

func (v Value) MarshalYAML() (interface{}, error) {
	return v.Interface(), nil
}

// FromGo wraps a decoded native value. Signed integers narrower than 32 bits
// widen to Int32; int and uint widen to their 64-bit kinds.
func FromGo(x interface{}) (Value, error) {
	switch t := x.(type) {
	case nil:
		return Null(), nil
	case Value:
		return t, nil
	case string:
		return NewString(t), nil
	case bool:
		return NewBool(t), nil
	case int8:
		return NewInt32(int32(t)), nil
	case int16:
		return NewInt32(int32(t)), nil
	case int32:
		return NewInt32(t), nil
	case int:
		return NewInt64(int64(t)), nil
	case int64:
		return NewInt64(t), nil
	case uint8:
		return NewByte(t), nil
	case uint16:
		return NewUint16(t), nil
	case uint32:
		return NewUint32(t), nil
	case uint:
		return NewUint64(uint64(t)), nil
	case uint64:
		return NewUint64(t), nil
	case float32:
		return NewFloat32(t), nil
	case float64:
		return NewFloat64(t), nil
	case time.Time:
		return NewDateTime(t), nil
	case []string:
		return NewStringArray(t), nil
	case []interface{}:
		vs := make([]Value, 0, len(t))
		for i, e := range t {
			ev, err := FromGo(e)
			if err != nil {
				return Null(), fmt.Errorf("element %d: %w", i, err)
			}
			vs = append(vs, ev)
		}
		return NewArray(vs), nil
	}
	return Null(), fmt.Errorf("unsupported native type %T", x)
}

// Parse coerces a loosely typed input (as produced by a config decoder or a
// command-line argument) into a Value of the requested kind.
func Parse(kind Kind, raw interface{}) (Value, error) {
	if raw == nil {
		return Null(), fmt.Errorf("no value for kind %s", kind)
	}
	v, err := parseRaw(kind, raw)
	if err != nil {
		return Null(), fmt.Errorf("parse %v as %s: %w", raw, kind, err)
	}
	return v, nil
}

func parseRaw(kind Kind, raw interface{}) (Value, error) {
	switch kind {
	case KindString:
		s, err := cast.ToStringE(raw)
		return NewString(s), err
	case KindBool:
		b, err := cast.ToBoolE(raw)
		return NewBool(b), err
	case KindByte:
		u, err := cast.ToUint8E(raw)
		return NewByte(u), err
	case KindUint16:
		u, err := cast.ToUint16E(raw)
		return NewUint16(u), err
	case KindInt32:
		i, err := cast.ToInt32E(raw)
		return NewInt32(i), err
	case KindUint32:
		u, err := cast.ToUint32E(raw)
		return NewUint32(u), err
	case KindInt64:
		i, err := cast.ToInt64E(raw)
		return NewInt64(i), err
	case KindUint64:
		u, err := cast.ToUint64E(raw)
		return NewUint64(u), err
	case KindFloat32:
		f, err := cast.ToFloat32E(raw)
		return NewFloat32(f), err
	case KindFloat64:
		f, err := cast.ToFloat64E(raw)
		return NewFloat64(f), err
	case KindDateTime:
		if s, ok := raw.(string); ok && IsDMTF(s) {
			t, err := ParseDMTF(s)
			return NewDateTime(t), err
		}
		t, err := cast.ToTimeE(raw)
		return NewDateTime(t), err
	case KindStringArray:
		if s, ok := raw.(string); ok {
			return NewStringArray(splitList(s)), nil
		}
		ss, err := cast.ToStringSliceE(raw)
		return NewStringArray(ss), err
	}
	return Null(), fmt.Errorf("cannot parse into kind %s", kind)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
