package types

import (
	"tycodec/internal/encattr"
	"tycodec/internal/source"
	"tycodec/internal/subtype"
	"tycodec/internal/tags"
)

// TypeID uniquely identifies a node inside a Registry.
type TypeID uint32

// NoTypeID marks the absence of a type.
const NoTypeID TypeID = 0

// OwnerKind says what declared a node.
type OwnerKind uint8

const (
	OwnerTypeDef OwnerKind = iota
	OwnerField
	OwnerListElem
	OwnerParam
	OwnerReturn
	OwnerBuiltin
	OwnerAnonymous
)

func (o OwnerKind) String() string {
	switch o {
	case OwnerTypeDef:
		return "type definition"
	case OwnerField:
		return "field"
	case OwnerListElem:
		return "element"
	case OwnerParam:
		return "parameter"
	case OwnerReturn:
		return "return type"
	case OwnerBuiltin:
		return "built-in"
	default:
		return "anonymous"
	}
}

// Type is the compact part of a node. Category-specific data lives in side tables
// addressed by Payload.
type Type struct {
	Category Category
	Payload  uint32
	Name     string // empty for embedded types
	Module   string
	Parent   TypeID
	Owner    OwnerKind
	// FieldName is the field, alternative or parameter name for embedded nodes.
	FieldName string
	Span      source.Span
}

// Attrs are the per-format attribute sets and own restrictions of a node.
type Attrs struct {
	Tags         []tags.Spec // outermost first
	RAW          *encattr.RAW
	TEXT         *encattr.TEXT
	XER          *encattr.XER
	JSON         *encattr.JSON
	Encodings    []Format // formats named by an encode attribute
	CodecFuncs   []CodecFunc
	Restrictions []subtype.Restriction
}

// HasFormat reports whether the node carries own attributes for f.
func (a *Attrs) HasFormat(f Format) bool {
	if a == nil {
		return false
	}
	switch f {
	case FormatBER:
		return len(a.Tags) > 0
	case FormatRAW:
		return a.RAW != nil
	case FormatTEXT:
		return a.TEXT != nil
	case FormatXER:
		return a.XER != nil && !a.XER.Empty()
	case FormatJSON:
		return a.JSON != nil && !a.JSON.Empty()
	}
	return false
}
