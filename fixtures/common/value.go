package common

import (
	"fmt"
	"strconv"
	"strings"
)

type Kind int

const (
	KindNull Kind = iota
	KindString
	KindInt
	KindFloat
	KindBool
)

// Value is a closed tagged union over the scalar kinds a record field may
// hold. Store-native representations are translated to and from Value at the
// adapter boundary only.
type Value struct {
	kind Kind
	s    string
	i    int64
	f    float64
	b    bool
}

func Null() Value           { return Value{kind: KindNull} }
func String(s string) Value { return Value{kind: KindString, s: s} }
func Int(i int64) Value     { return Value{kind: KindInt, i: i} }
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }
func Bool(b bool) Value     { return Value{kind: KindBool, b: b} }

func (v Value) Kind() Kind { return v.kind }

func (v Value) AsString() string { return v.s }
func (v Value) AsInt() int64     { return v.i }
func (v Value) AsFloat() float64 { return v.f }
func (v Value) AsBool() bool     { return v.b }

// Native returns the plain Go representation, e.g. for driver arguments.
func (v Value) Native() any {
	switch v.kind {
	case KindString:
		return v.s
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindBool:
		return v.b
	}
	return nil
}

func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.s
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	}
	return "null"
}

func (v Value) Equal(o Value) bool {
	return v == o
}

// Compare orders two values: nulls first, then by the underlying value.
// Ints and floats compare numerically against each other; otherwise values
// of different kinds order by kind.
func (v Value) Compare(o Value) int {
	if v.kind == KindNull || o.kind == KindNull {
		return int(boolToInt(o.kind == KindNull)) - int(boolToInt(v.kind == KindNull))
	}
	if v.isNumeric() && o.isNumeric() {
		vf, of := v.numeric(), o.numeric()
		switch {
		case vf < of:
			return -1
		case vf > of:
			return 1
		}
		return 0
	}
	if v.kind != o.kind {
		return int(v.kind) - int(o.kind)
	}
	switch v.kind {
	case KindString:
		return strings.Compare(v.s, o.s)
	case KindBool:
		return int(boolToInt(v.b)) - int(boolToInt(o.b))
	}
	return 0
}

func (v Value) isNumeric() bool {
	return v.kind == KindInt || v.kind == KindFloat
}

func (v Value) numeric() float64 {
	if v.kind == KindInt {
		return float64(v.i)
	}
	return v.f
}

func boolToInt(b bool) int8 {
	if b {
		return 1
	}
	return 0
}

// FromNative converts a store-native scalar into a Value. Drivers disagree on
// integer widths and return text as []byte, so all the common shapes are
// accepted here.
func FromNative(raw any) (Value, error) {
	switch x := raw.(type) {
	case nil:
		return Null(), nil
	case string:
		return String(x), nil
	case []byte:
		return String(string(x)), nil
	case bool:
		return Bool(x), nil
	case int:
		return Int(int64(x)), nil
	case int32:
		return Int(int64(x)), nil
	case int64:
		return Int(x), nil
	case float32:
		return Float(float64(x)), nil
	case float64:
		return Float(x), nil
	}
	return Value{}, fmt.Errorf("cannot represent %T as a record value", raw)
}

// Record maps field names to values. It is used both for insertion
// (test-supplied) and read-back (store-supplied).
type Record map[string]Value

// NewRecord builds a Record from native scalars, failing on anything that is
// not representable.
func NewRecord(fields map[string]any) (Record, error) {
	rec := make(Record, len(fields))
	for name, raw := range fields {
		v, err := FromNative(raw)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
		rec[name] = v
	}
	return rec, nil
}
