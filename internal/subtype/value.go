package subtype

import (
	"fmt"
	"strconv"
)

// ValueKind says which member of Value is meaningful.
type ValueKind uint8

const (
	ValInt ValueKind = iota + 1
	ValFloat
	ValString
	ValBool
	ValList // only the element count matters to a constraint
	ValEnum
)

// Value is a constant checked against a constraint. Real values are produced by the
// expression evaluator outside this package; Value carries just what constraints inspect.
type Value struct {
	Kind  ValueKind
	Int   int64
	Float float64
	Str   string
	Bool  bool
	Len   int
}

func IntValue(v int64) Value     { return Value{Kind: ValInt, Int: v} }
func FloatValue(v float64) Value { return Value{Kind: ValFloat, Float: v} }
func StringValue(s string) Value { return Value{Kind: ValString, Str: s} }
func BoolValue(b bool) Value     { return Value{Kind: ValBool, Bool: b} }
func ListValue(n int) Value      { return Value{Kind: ValList, Len: n} }
func EnumValue(name string) Value {
	return Value{Kind: ValEnum, Str: name}
}

func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case ValInt:
		return v.Int == o.Int
	case ValFloat:
		return v.Float == o.Float
	case ValString, ValEnum:
		return v.Str == o.Str
	case ValBool:
		return v.Bool == o.Bool
	case ValList:
		return v.Len == o.Len
	}
	return false
}

func (v Value) String() string {
	switch v.Kind {
	case ValInt:
		return strconv.FormatInt(v.Int, 10)
	case ValFloat:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case ValString:
		return strconv.Quote(v.Str)
	case ValBool:
		return strconv.FormatBool(v.Bool)
	case ValList:
		return fmt.Sprintf("<list of %d>", v.Len)
	case ValEnum:
		return v.Str
	}
	return "<invalid>"
}

// length is the size a size restriction measures.
func (v Value) length() (int64, bool) {
	switch v.Kind {
	case ValString:
		return int64(len([]rune(v.Str))), true
	case ValList:
		return int64(v.Len), true
	}
	return 0, false
}
