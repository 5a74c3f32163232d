package types

import (
	"fmt"
	"strings"
)

// Format is one of the supported wire formats.
type Format uint8

const (
	FormatBER Format = iota
	FormatRAW
	FormatTEXT
	FormatXER
	FormatJSON

	formatCount
)

// AllFormats lists the formats in generation order.
var AllFormats = [...]Format{FormatBER, FormatRAW, FormatTEXT, FormatXER, FormatJSON}

func (f Format) String() string {
	switch f {
	case FormatBER:
		return "BER"
	case FormatRAW:
		return "RAW"
	case FormatTEXT:
		return "TEXT"
	case FormatXER:
		return "XER"
	case FormatJSON:
		return "JSON"
	}
	return fmt.Sprintf("Format(%d)", f)
}

// ParseFormat accepts the format name in any case.
func ParseFormat(s string) (Format, bool) {
	for _, f := range AllFormats {
		if strings.EqualFold(f.String(), s) {
			return f, true
		}
	}
	return 0, false
}

// FormatSet is a bit set of formats.
type FormatSet uint8

func NewFormatSet(fs ...Format) FormatSet {
	var s FormatSet
	for _, f := range fs {
		s |= 1 << f
	}
	return s
}

func (s FormatSet) Has(f Format) bool { return s&(1<<f) != 0 }

func (s FormatSet) With(f Format) FormatSet { return s | 1<<f }

func (s FormatSet) Formats() []Format {
	var out []Format
	for _, f := range AllFormats {
		if s.Has(f) {
			out = append(out, f)
		}
	}
	return out
}

// Direction of a coding method.
type Direction uint8

const (
	Encode Direction = iota
	Decode
)

func (d Direction) String() string {
	if d == Decode {
		return "decode"
	}
	return "encode"
}

// CodecFunc is a user function declared as the encoder or decoder of a type.
type CodecFunc struct {
	Dir  Direction
	Name string
}

// MethodKind is the state of a coding method.
type MethodKind uint8

const (
	MethodUnset MethodKind = iota
	MethodBuiltIn
	MethodFunction
	MethodMultiple
)

// CodingMethod says how a type is encoded or decoded in one direction.
type CodingMethod struct {
	Kind     MethodKind
	Format   Format // MethodBuiltIn
	Function string // MethodFunction
}

func BuiltInMethod(f Format) CodingMethod { return CodingMethod{Kind: MethodBuiltIn, Format: f} }

func FunctionMethod(name string) CodingMethod {
	return CodingMethod{Kind: MethodFunction, Function: name}
}

// Merge adds a source for the method. Transitions only move forward: Unset takes the
// source, an equal source is a no-op and a distinct one yields Multiple. conflict is true
// exactly when this call moved the method to Multiple.
func (m CodingMethod) Merge(src CodingMethod) (out CodingMethod, conflict bool) {
	switch {
	case src.Kind == MethodUnset || m.Kind == MethodMultiple:
		return m, false
	case m.Kind == MethodUnset:
		return src, false
	case m == src:
		return m, false
	}
	return CodingMethod{Kind: MethodMultiple}, true
}

func (m CodingMethod) String() string {
	switch m.Kind {
	case MethodBuiltIn:
		return "built-in " + m.Format.String()
	case MethodFunction:
		return "function " + m.Function
	case MethodMultiple:
		return "multiple"
	}
	return "unset"
}
