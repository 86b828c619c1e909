// Package value models the loosely-typed JSON values the backtest backend returns.
//
// A Value is a tagged union over the JSON kinds. Objects keep the key order of the
// source document so that anything rendered from them is deterministic.
package value

import (
	"math"
	"strconv"
	"strings"
)

// Kind identifies which variant a Value holds.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

// String returns the lowercase kind name.
func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "null"
	}
}

// Value is an immutable JSON value. The zero Value is null.
type Value struct {
	kind Kind
	b    bool
	n    float64
	s    string
	arr  []Value
	obj  *Object
}

// Null returns the null value.
func Null() Value { return Value{} }

// Bool wraps a boolean.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Number wraps a float.
func Number(n float64) Value { return Value{kind: KindNumber, n: n} }

// String wraps a string.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Array wraps a list of values.
func Array(items ...Value) Value {
	return Value{kind: KindArray, arr: items}
}

// FromObject wraps an object. A nil object yields null.
func FromObject(o *Object) Value {
	if o == nil {
		return Null()
	}
	return Value{kind: KindObject, obj: o}
}

// Kind returns the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsBool returns the boolean and true if v is a boolean.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// AsNumber returns the raw number and true if v is a number. The number may be non-finite.
func (v Value) AsNumber() (float64, bool) { return v.n, v.kind == KindNumber }

// AsString returns the string and true if v is a string.
func (v Value) AsString() (string, bool) { return v.s, v.kind == KindString }

// AsArray returns the items and true if v is an array.
func (v Value) AsArray() ([]Value, bool) { return v.arr, v.kind == KindArray }

// AsObject returns the object and true if v is an object.
func (v Value) AsObject() (*Object, bool) { return v.obj, v.kind == KindObject }

// Get looks up key when v is an object. Any other kind yields (null, false).
func (v Value) Get(key string) (Value, bool) {
	if v.kind != KindObject {
		return Null(), false
	}
	return v.obj.Get(key)
}

// Path walks nested objects and returns null when any step is missing.
func (v Value) Path(keys ...string) Value {
	cur := v
	for _, k := range keys {
		next, ok := cur.Get(k)
		if !ok {
			return Null()
		}
		cur = next
	}
	return cur
}

// String renders v the way a loosely-typed client would print it:
// numbers in shortest form, arrays comma-joined, objects as compact JSON.
func (v Value) String() string {
	switch v.kind {
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindNumber:
		return formatRawNumber(v.n)
	case KindString:
		return v.s
	case KindArray:
		parts := make([]string, len(v.arr))
		for i, item := range v.arr {
			if item.kind == KindNull {
				continue
			}
			parts[i] = item.String()
		}
		return strings.Join(parts, ",")
	case KindObject:
		data, err := v.MarshalJSON()
		if err != nil {
			return "{}"
		}
		return string(data)
	default:
		return "null"
	}
}

func formatRawNumber(n float64) string {
	switch {
	case math.IsNaN(n):
		return "NaN"
	case math.IsInf(n, 1):
		return "Infinity"
	case math.IsInf(n, -1):
		return "-Infinity"
	}
	abs := math.Abs(n)
	if abs != 0 && (abs >= 1e21 || abs < 1e-6) {
		return strconv.FormatFloat(n, 'g', -1, 64)
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}
