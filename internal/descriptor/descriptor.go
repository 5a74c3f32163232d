package descriptor

import (
	"fmt"
	"regexp"
	"slices"

	"tycodec/internal/encattr"
	"tycodec/internal/jsonschema"
	"tycodec/internal/tags"
	"tycodec/internal/types"
)

// Layout is the memory layout of generated record-of values.
type Layout uint8

const (
	// LayoutShared stores element pointers in a reference-counted block, copied on write.
	LayoutShared Layout = iota
	// LayoutContiguous stores element values in one slice.
	LayoutContiguous
)

func (l Layout) String() string {
	if l == LayoutContiguous {
		return "contiguous"
	}
	return "shared"
}

// BER is the tag descriptor.
type BER struct {
	Owner string
	// Tags is the joined tag chain, innermost first.
	Tags []tags.Value
}

// KeyRef is one "field path = value" condition with the path resolved to indices.
type KeyRef struct {
	Path  []int
	Value string
}

// TagEntry selects the field at Field when any of Keys matches.
type TagEntry struct {
	Field int
	Keys  []KeyRef
}

type ExtGroup struct {
	Ext      encattr.Setting
	From, To int
}

// RAW is the bit-level layout of a type. Cross references are field indices of the
// record that owns the field; -1 means "not given".
type RAW struct {
	Owner             string
	FieldLength       int
	IntX              bool
	Sign              encattr.Sign
	ByteOrder         encattr.Order
	Align             encattr.Order
	BitOrderInField   encattr.Order
	BitOrderInOctet   encattr.Order
	ExtBit            encattr.Setting
	HexOrder          encattr.Order
	FieldOrder        encattr.Order
	TopLevelBitOrder  encattr.Order
	Padding           int
	Prepadding        int
	PaddingPattern    string
	PtrOffset         int
	Unit              int
	LengthRestriction int
	StringFormat      encattr.StringFormat
	Repeatable        bool

	LengthTo     []int
	LengthIndex  []int
	PointerTo    int
	PtrBase      int
	Presence     []KeyRef
	TagList      []TagEntry
	CrossTagList []TagEntry
	ExtBitGroups []ExtGroup
}

// Token is an encode string with its decode pattern.
type Token struct {
	Encode        string
	Decode        string
	CaseSensitive bool
}

// Match returns the length of the token at the start of s, or -1. A nil token matches the
// empty string.
func (t *Token) Match(s string) int {
	if t == nil {
		return 0
	}
	if t.Decode == "" {
		return (&encattr.Token{Encode: t.Encode, CaseSensitive: t.CaseSensitive}).Match(s)
	}
	re, err := regexp.Compile(t.Decode)
	if err != nil {
		return -1
	}
	loc := re.FindStringIndex(s)
	if loc == nil || loc[0] != 0 {
		return -1
	}
	return loc[1]
}

type ItemToken struct {
	Name  string
	Value int64
	Token Token
}

// TEXT is the token/pattern descriptor.
type TEXT struct {
	Owner       string
	Begin       *Token
	End         *Token
	Separator   *Token
	Coding      encattr.TextParams
	Decoding    encattr.TextParams
	Items       []ItemToken
	True        *Token
	False       *Token
	DecodeToken string
}

// XER is the XML descriptor.
type XER struct {
	Owner string
	// Name is the element (or attribute) name after NAME AS transforms.
	Name string
	// Namespace indexes Table.Namespaces, -1 for none.
	Namespace int
	// NamespaceURI is the URI of Namespace, empty for none.
	NamespaceURI    string
	Flags           encattr.XERFlag
	Whitespace      encattr.Whitespace
	DefaultForEmpty string
	HasDefault      bool
	// NamespaceURIs is the ANY-ELEMENT / ANY-ATTRIBUTES restriction list.
	NamespaceURIs []string
	// FractionDigits is -1 when not restricted.
	FractionDigits int
	// Elem links the element descriptor of a record-of.
	Elem string
}

// JSON is the JSON coding flags and schema fragment.
type JSON struct {
	Owner           string
	OmitAsNull      bool
	Alias           string
	AsValue         bool
	Default         string
	MetainfoUnbound bool
	Extensions      []encattr.SchemaExtension
	Schema          *jsonschema.Object
}

// Field is a member of a record or union descriptor.
type Field struct {
	Name     string
	Descr    string
	Optional bool
}

// Item is an enumeration item with its final value.
type Item struct {
	Name  string
	Value int64
}

// ListCodec drives the generated record-of/set-of procedures.
type ListCodec struct {
	Descr  string
	Elem   string
	Layout Layout
	Set    bool
	// Count is the fixed element count (array dimension or RAW FIELDLENGTH), 0 if variable.
	Count int64
	// Formats are the formats the loops are generated for.
	Formats []types.Format
}

// Descriptor describes one type.
type Descriptor struct {
	Name     string
	Type     string
	Module   string
	Category types.Category
	// Alias names the descriptor this one is a pure alias of.
	Alias   string
	Builtin bool
	// Visible is set for type definitions; anonymous types only get an alias when visible.
	Visible bool

	BER  *BER
	RAW  *RAW
	TEXT *TEXT
	XER  *XER
	JSON *JSON

	Fields []Field
	// Order is the codegen order of Fields (canonical tag order for SETs).
	Order []int
	Items []Item
	List  *ListCodec
	// Constraint is the effective subtype constraint in display form, empty if none.
	Constraint string
}

// Has reports whether d carries a part for f.
func (d *Descriptor) Has(f types.Format) bool {
	switch f {
	case types.FormatBER:
		return d.BER != nil
	case types.FormatRAW:
		return d.RAW != nil
	case types.FormatTEXT:
		return d.TEXT != nil
	case types.FormatXER:
		return d.XER != nil
	case types.FormatJSON:
		return d.JSON != nil
	}
	return false
}

// Owner returns the descriptor that owns the part for f, or "".
func (d *Descriptor) Owner(f types.Format) string {
	switch f {
	case types.FormatBER:
		if d.BER != nil {
			return d.BER.Owner
		}
	case types.FormatRAW:
		if d.RAW != nil {
			return d.RAW.Owner
		}
	case types.FormatTEXT:
		if d.TEXT != nil {
			return d.TEXT.Owner
		}
	case types.FormatXER:
		if d.XER != nil {
			return d.XER.Owner
		}
	case types.FormatJSON:
		if d.JSON != nil {
			return d.JSON.Owner
		}
	}
	return ""
}

// Owns reports whether d holds the concrete data of its f part.
func (d *Descriptor) Owns(f types.Format) bool {
	return d.Has(f) && d.Owner(f) == d.Name
}

// Formats lists the formats d has parts for.
func (d *Descriptor) Formats() []types.Format {
	var out []types.Format
	for _, f := range types.AllFormats {
		if d.Has(f) {
			out = append(out, f)
		}
	}
	return out
}

func (d *Descriptor) String() string {
	if d.Alias != "" {
		return fmt.Sprintf("%s = %s", d.Name, d.Alias)
	}
	return fmt.Sprintf("%s (%s) %v", d.Name, d.Category, d.Formats())
}

// Table is the ordered descriptor list of a compilation unit.
type Table struct {
	list       []*Descriptor
	byName     map[string]*Descriptor
	Namespaces []encattr.Namespace
}

func NewTable() *Table {
	return &Table{byName: make(map[string]*Descriptor)}
}

// Add appends d. A descriptor with the same name is kept and returned instead.
func (t *Table) Add(d *Descriptor) (*Descriptor, bool) {
	if prev, ok := t.byName[d.Name]; ok {
		return prev, false
	}
	t.list = append(t.list, d)
	t.byName[d.Name] = d
	return d, true
}

func (t *Table) Lookup(name string) (*Descriptor, bool) {
	d, ok := t.byName[name]
	return d, ok
}

// All returns the descriptors in insertion order.
func (t *Table) All() []*Descriptor { return slices.Clone(t.list) }

func (t *Table) Len() int { return len(t.list) }

// Namespace interns ns and returns its index.
func (t *Table) Namespace(ns encattr.Namespace) int {
	if i := slices.Index(t.Namespaces, ns); i >= 0 {
		return i
	}
	t.Namespaces = append(t.Namespaces, ns)
	return len(t.Namespaces) - 1
}

// Target follows aliases to the descriptor holding concrete data.
func (t *Table) Target(name string) (*Descriptor, bool) {
	seen := map[string]struct{}{}
	for {
		d, ok := t.byName[name]
		if !ok {
			return nil, false
		}
		if d.Alias == "" {
			return d, true
		}
		if _, loop := seen[name]; loop {
			return nil, false
		}
		seen[name] = struct{}{}
		name = d.Alias
	}
}
