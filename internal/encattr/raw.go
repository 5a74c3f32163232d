package encattr

import (
	"fmt"
	"strings"
)

// Setting is a tri-state knob: unset attributes fall back to the format default.
type Setting uint8

const (
	Default Setting = iota
	No
	Yes
	// Reverse is only meaningful for the extension bit.
	Reverse
)

// Sign is the RAW integer sign handling.
type Sign uint8

const (
	SignDefault Sign = iota
	SignNone
	SignTwosComplement
	SignBit
)

func (s Sign) String() string {
	switch s {
	case SignTwosComplement:
		return "SG_2COMPL"
	case SignBit:
		return "SG_SG_BIT"
	default:
		return "SG_NO"
	}
}

// Order covers the MSB/LSB style knobs (byteorder, bitorder, fieldorder, hexorder, align).
type Order uint8

const (
	OrderDefault Order = iota
	OrderMSB
	OrderLSB
)

func (o Order) String() string {
	if o == OrderMSB {
		return "ORDER_MSB"
	}
	return "ORDER_LSB"
}

// StringFormat selects the serialization of universal charstrings.
type StringFormat uint8

const (
	StringFormatUnknown StringFormat = iota
	StringFormatUTF8
	StringFormatUTF16
)

func (f StringFormat) String() string {
	switch f {
	case StringFormatUTF8:
		return "UTF_8"
	case StringFormatUTF16:
		return "UTF16"
	default:
		return "UNKNOWN"
	}
}

// FieldPath is a dotted reference to a (possibly nested) field, e.g. ["hdr", "len"].
type FieldPath []string

func ParseFieldPath(s string) FieldPath {
	if s == "" {
		return nil
	}
	return strings.Split(s, ".")
}

func (p FieldPath) String() string { return strings.Join(p, ".") }

// TagKey is one "keyField = value" condition of a taglist or presence entry.
type TagKey struct {
	Field FieldPath
	Value string
}

// FieldTag binds a field (union alternative for taglist, optional field for presence)
// to a list of alternative conditions; any one matching selects the field.
type FieldTag struct {
	Field string
	Keys  []TagKey
}

// ExtBitGroup applies an extension bit to a run of fields.
type ExtBitGroup struct {
	Ext      Setting
	From, To string
}

// RAW is a parsed RAW attribute set. Zero-valued knobs mean "not given".
type RAW struct {
	FieldLength       int // in bits; 0 is variable
	IntX              bool
	Sign              Sign
	ByteOrder         Order // MSB when "last"
	Align             Order // MSB means left aligned
	BitOrderInField   Order
	BitOrderInOctet   Order
	ExtBit            Setting
	ExtBitGroups      []ExtBitGroup
	HexOrder          Order // MSB means high nibble first
	FieldOrder        Order
	TopLevel          bool
	TopLevelBitOrder  Order
	Padding           int // bits; 0 none
	Prepadding        int
	PaddAll           bool
	PaddingPattern    string // bit pattern, "0" and "1" only
	Repeatable        bool
	PtrOffset         int
	PtrBase           string
	Unit              int // bits; 0 means 8
	LengthTo          []string
	LengthIndex       FieldPath
	PointerTo         string
	TagList           []FieldTag
	CrossTagList      []FieldTag
	Presence          []TagKey
	LengthRestriction int
	StringFormat      StringFormat
}

// NewRAW returns the attribute set a type starts with; integer types get an 8 bit field.
func NewRAW(integer bool) *RAW {
	r := &RAW{}
	if integer {
		r.FieldLength = 8
	}
	return r
}

// Clone copies r without the record-level cross references, the way an attribute set is
// inherited by a referencing type.
func (r *RAW) Clone() *RAW {
	if r == nil {
		return nil
	}
	out := &RAW{
		FieldLength:       r.FieldLength,
		IntX:              r.IntX,
		Sign:              r.Sign,
		ByteOrder:         r.ByteOrder,
		Align:             r.Align,
		BitOrderInField:   r.BitOrderInField,
		BitOrderInOctet:   r.BitOrderInOctet,
		ExtBit:            r.ExtBit,
		HexOrder:          r.HexOrder,
		FieldOrder:        r.FieldOrder,
		TopLevel:          r.TopLevel,
		TopLevelBitOrder:  r.TopLevelBitOrder,
		Padding:           r.Padding,
		Prepadding:        r.Prepadding,
		PaddingPattern:    r.PaddingPattern,
		Repeatable:        r.Repeatable,
		PtrOffset:         r.PtrOffset,
		Unit:              r.Unit,
		LengthRestriction: r.LengthRestriction,
		StringFormat:      r.StringFormat,
	}
	return out
}

// HasCrossRefs reports whether r refers to sibling fields.
func (r *RAW) HasCrossRefs() bool {
	return r != nil && (len(r.LengthTo) > 0 || r.PointerTo != "" || len(r.TagList) > 0 ||
		len(r.CrossTagList) > 0 || len(r.Presence) > 0 || len(r.ExtBitGroups) > 0)
}

// EffectiveUnit is the pointer/length unit in bits.
func (r *RAW) EffectiveUnit() int {
	if r == nil || r.Unit == 0 {
		return 8
	}
	return r.Unit
}

// Validate checks the attribute values that do not depend on the owning type.
func (r *RAW) Validate() error {
	if r == nil {
		return nil
	}
	if r.FieldLength < 0 {
		return fmt.Errorf("negative FIELDLENGTH %d", r.FieldLength)
	}
	if r.IntX && r.FieldLength != 0 && r.FieldLength != 8 {
		return fmt.Errorf("IntX cannot be combined with FIELDLENGTH %d", r.FieldLength)
	}
	if r.Padding < 0 || r.Prepadding < 0 {
		return fmt.Errorf("negative padding")
	}
	for _, c := range r.PaddingPattern {
		if c != '0' && c != '1' {
			return fmt.Errorf("padding pattern %q must consist of 0 and 1", r.PaddingPattern)
		}
	}
	if r.Unit < 0 {
		return fmt.Errorf("negative UNIT %d", r.Unit)
	}
	if r.PtrBase != "" && r.PointerTo == "" {
		return fmt.Errorf("PTROFFSET(%s) without POINTERTO", r.PtrBase)
	}
	return nil
}

// FieldNames lists every sibling name r refers to, in attribute order.
func (r *RAW) FieldNames() []string {
	if r == nil {
		return nil
	}
	var out []string
	out = append(out, r.LengthTo...)
	if r.PointerTo != "" {
		out = append(out, r.PointerTo)
	}
	if r.PtrBase != "" {
		out = append(out, r.PtrBase)
	}
	for _, t := range r.TagList {
		out = append(out, t.Field)
	}
	for _, t := range r.CrossTagList {
		out = append(out, t.Field)
	}
	for _, g := range r.ExtBitGroups {
		out = append(out, g.From, g.To)
	}
	return out
}
