package value

import (
	"errors"
	"fmt"
	"io"

	jsoniter "github.com/json-iterator/go"
)

// ErrTruncated is returned when a document ends before its top-level value closes.
var ErrTruncated = errors.New("truncated JSON document")

// ErrTrailingData is returned when non-whitespace follows the top-level value.
var ErrTrailingData = errors.New("trailing data after JSON value")

// UnmarshalJSON decodes a single JSON document into v, keeping object key order.
// Duplicate keys keep their first position and last value.
func (v *Value) UnmarshalJSON(data []byte) error {
	iter := jsoniter.ConfigDefault.BorrowIterator(data)
	defer jsoniter.ConfigDefault.ReturnIterator(iter)

	decoded := decode(iter)
	if err := iter.Error; err != nil {
		// A number is the only value that legitimately runs to the end of input.
		if !errors.Is(err, io.EOF) {
			return fmt.Errorf("decode value: %w", err)
		}
		if decoded.kind != KindNumber {
			return ErrTruncated
		}
	} else if next := iter.WhatIsNext(); next != jsoniter.InvalidValue || !errors.Is(iter.Error, io.EOF) {
		return ErrTrailingData
	}
	*v = decoded
	return nil
}

// Parse decodes a JSON document into a Value.
func Parse(data []byte) (Value, error) {
	var v Value
	if err := v.UnmarshalJSON(data); err != nil {
		return Null(), err
	}
	return v, nil
}

func decode(iter *jsoniter.Iterator) Value {
	switch iter.WhatIsNext() {
	case jsoniter.NilValue:
		iter.ReadNil()
		return Null()
	case jsoniter.BoolValue:
		return Bool(iter.ReadBool())
	case jsoniter.NumberValue:
		return Number(iter.ReadFloat64())
	case jsoniter.StringValue:
		return String(iter.ReadString())
	case jsoniter.ArrayValue:
		items := []Value{}
		iter.ReadArrayCB(func(it *jsoniter.Iterator) bool {
			items = append(items, decode(it))
			return it.Error == nil
		})
		return Array(items...)
	case jsoniter.ObjectValue:
		obj := NewObject()
		iter.ReadObjectCB(func(it *jsoniter.Iterator, key string) bool {
			obj.Set(key, decode(it))
			return it.Error == nil
		})
		return FromObject(obj)
	default:
		iter.ReportError("decode value", "unexpected token")
		return Null()
	}
}

// MarshalJSON encodes v, writing object keys in insertion order.
func (v Value) MarshalJSON() ([]byte, error) {
	stream := jsoniter.ConfigDefault.BorrowStream(nil)
	defer jsoniter.ConfigDefault.ReturnStream(stream)

	v.write(stream)
	if stream.Error != nil {
		return nil, fmt.Errorf("encode value: %w", stream.Error)
	}
	return append([]byte(nil), stream.Buffer()...), nil
}

func (v Value) write(s *jsoniter.Stream) {
	switch v.kind {
	case KindBool:
		s.WriteBool(v.b)
	case KindNumber:
		s.WriteFloat64(v.n)
	case KindString:
		s.WriteString(v.s)
	case KindArray:
		s.WriteArrayStart()
		for i, item := range v.arr {
			if i > 0 {
				s.WriteMore()
			}
			item.write(s)
		}
		s.WriteArrayEnd()
	case KindObject:
		s.WriteObjectStart()
		first := true
		v.obj.Range(func(key string, item Value) bool {
			if !first {
				s.WriteMore()
			}
			first = false
			s.WriteObjectField(key)
			item.write(s)
			return true
		})
		s.WriteObjectEnd()
	default:
		s.WriteNil()
	}
}
