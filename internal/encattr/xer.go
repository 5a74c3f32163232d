package encattr

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// XERFlag is one bit of the XER descriptor flag word.
type XERFlag uint32

const (
	XERAnyAttributes XERFlag = 1 << iota
	XERAnyElement
	XERAttribute
	XERBase64
	XERBlocked
	XERDecimal
	XEREmbedValues
	XERList
	XERText
	XERUntagged
	XERUseNil
	XERUseNumber
	XERUseOrder
	XERUseQName
	XERUseTypeAttr
	XERHas1Untagged
	XERFormUnqualified
	XERAnyFrom
	XERAnyExcept
	XEROptional
)

var xerFlagNames = [...]string{
	"ANY_ATTRIBUTES", "ANY_ELEMENT", "XER_ATTRIBUTE", "BASE_64", "BLOCKED",
	"XER_DECIMAL", "EMBED_VALUES", "XER_LIST", "XER_TEXT", "UNTAGGED",
	"USE_NIL", "USE_NUMBER", "USE_ORDER", "USE_QNAME", "USE_TYPE_ATTR",
	"HAS_1UNTAGGED", "FORM_UNQUALIFIED", "ANY_FROM", "ANY_EXCEPT", "XER_OPTIONAL",
}

// Names returns the set flags in bit order.
func (f XERFlag) Names() []string {
	var out []string
	for i, name := range xerFlagNames {
		if f&(1<<i) != 0 {
			out = append(out, name)
		}
	}
	return out
}

func (f XERFlag) String() string {
	names := f.Names()
	if len(names) == 0 {
		return "0"
	}
	return strings.Join(names, " | ")
}

// Whitespace is the WHITESPACE encoding instruction.
type Whitespace uint8

const (
	WhitespacePreserve Whitespace = iota
	WhitespaceReplace
	WhitespaceCollapse
)

func (w Whitespace) String() string {
	switch w {
	case WhitespaceReplace:
		return "REPLACE"
	case WhitespaceCollapse:
		return "COLLAPSE"
	default:
		return "PRESERVE"
	}
}

// NameAction is the kind of NAME AS instruction.
type NameAction uint8

const (
	NameKeep NameAction = iota
	NameCapitalized
	NameUncapitalized
	NameUppercased
	NameLowercased
	NameText
)

// NameAs describes how the XML name is derived from the type or field name.
type NameAs struct {
	Action NameAction
	Text   string // for NameText
}

// Apply returns the XML name for name. Casers keep state, so one is made per call.
func (n NameAs) Apply(name string) string {
	switch n.Action {
	case NameText:
		return norm.NFC.String(n.Text)
	case NameCapitalized:
		return mapFirst(name, cases.Upper(language.Und))
	case NameUncapitalized:
		return mapFirst(name, cases.Lower(language.Und))
	case NameUppercased:
		return cases.Upper(language.Und).String(name)
	case NameLowercased:
		return cases.Lower(language.Und).String(name)
	}
	return name
}

func mapFirst(s string, c cases.Caser) string {
	_, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return s
	}
	return c.String(s[:size]) + s[size:]
}

// RestrictionKind says how ANY-ELEMENT/ANY-ATTRIBUTES limit namespaces.
type RestrictionKind uint8

const (
	RestrictUnused RestrictionKind = iota
	RestrictNothing
	RestrictFrom
	RestrictExcept
)

// NamespaceRestriction lists the URIs of a FROM/EXCEPT clause. An empty string stands
// for "absent" (no namespace).
type NamespaceRestriction struct {
	Kind RestrictionKind
	URIs []string
}

// Allows reports whether an element in namespace uri is accepted.
func (r NamespaceRestriction) Allows(uri string) bool {
	switch r.Kind {
	case RestrictFrom:
		for _, u := range r.URIs {
			if u == uri {
				return true
			}
		}
		return false
	case RestrictExcept:
		for _, u := range r.URIs {
			if u == uri {
				return false
			}
		}
	}
	return true
}

// Namespace is a NAMESPACE instruction.
type Namespace struct {
	URI    string
	Prefix string
}

// XER is a parsed set of XER encoding instructions.
type XER struct {
	Abstract        bool
	Attribute       bool
	AnyAttributes   NamespaceRestriction
	AnyElement      NamespaceRestriction
	Base64          bool
	Block           bool
	Decimal         bool
	DefaultForEmpty string
	HasDefault      bool
	Element         bool
	EmbedValues     bool
	FormUnqualified bool
	FractionDigits  int
	HasFraction     bool
	List            bool
	Name            NameAs
	Namespace       *Namespace
	Text            []NameAs
	Untagged        bool
	UseNil          bool
	UseNumber       bool
	UseOrder        bool
	UseQName        bool
	UseType         bool
	UseUnion        bool
	Whitespace      Whitespace
}

// Flags computes the descriptor flag word contributed by the instructions themselves.
func (x *XER) Flags() XERFlag {
	if x == nil {
		return 0
	}
	var f XERFlag
	set := func(cond bool, bit XERFlag) {
		if cond {
			f |= bit
		}
	}
	set(x.AnyAttributes.Kind != RestrictUnused, XERAnyAttributes)
	set(x.AnyElement.Kind != RestrictUnused, XERAnyElement)
	set(x.Attribute, XERAttribute)
	set(x.Base64, XERBase64)
	set(x.Block, XERBlocked)
	set(x.Decimal, XERDecimal)
	set(x.EmbedValues, XEREmbedValues)
	set(x.List, XERList)
	set(len(x.Text) > 0, XERText)
	set(x.Untagged, XERUntagged)
	set(x.UseNil, XERUseNil)
	set(x.UseNumber, XERUseNumber)
	set(x.UseOrder, XERUseOrder)
	set(x.UseQName, XERUseQName)
	set(x.UseType || x.UseUnion, XERUseTypeAttr)
	set(x.FormUnqualified, XERFormUnqualified)
	for _, r := range []NamespaceRestriction{x.AnyAttributes, x.AnyElement} {
		set(r.Kind == RestrictFrom, XERAnyFrom)
		set(r.Kind == RestrictExcept, XERAnyExcept)
	}
	return f
}

// Empty reports whether no instruction is set.
func (x *XER) Empty() bool {
	return x == nil || (x.Flags() == 0 && x.Name.Action == NameKeep && x.Namespace == nil &&
		!x.HasDefault && !x.HasFraction && !x.Element && !x.Abstract && x.Whitespace == WhitespacePreserve)
}

// Merge overlays o onto x: boolean instructions are or-ed, value instructions replace.
func (x *XER) Merge(o *XER) {
	if o == nil {
		return
	}
	x.Abstract = x.Abstract || o.Abstract
	x.Attribute = x.Attribute || o.Attribute
	x.Base64 = x.Base64 || o.Base64
	x.Block = x.Block || o.Block
	x.Decimal = x.Decimal || o.Decimal
	x.Element = x.Element || o.Element
	x.EmbedValues = x.EmbedValues || o.EmbedValues
	x.List = x.List || o.List
	x.Untagged = x.Untagged || o.Untagged
	x.UseNil = x.UseNil || o.UseNil
	x.UseNumber = x.UseNumber || o.UseNumber
	x.UseOrder = x.UseOrder || o.UseOrder
	x.UseQName = x.UseQName || o.UseQName
	x.UseType = x.UseType || o.UseType
	x.UseUnion = x.UseUnion || o.UseUnion
	x.FormUnqualified = x.FormUnqualified || o.FormUnqualified
	if o.AnyAttributes.Kind != RestrictUnused {
		x.AnyAttributes = o.AnyAttributes
	}
	if o.AnyElement.Kind != RestrictUnused {
		x.AnyElement = o.AnyElement
	}
	if o.Name.Action != NameKeep {
		x.Name = o.Name
	}
	if o.Namespace != nil {
		ns := *o.Namespace
		x.Namespace = &ns
	}
	if len(o.Text) > 0 {
		x.Text = append([]NameAs(nil), o.Text...)
	}
	if o.Whitespace != WhitespacePreserve {
		x.Whitespace = o.Whitespace
	}
	if o.HasDefault {
		x.DefaultForEmpty, x.HasDefault = o.DefaultForEmpty, true
	}
	if o.HasFraction {
		x.FractionDigits, x.HasFraction = o.FractionDigits, true
	}
}

func (x *XER) Clone() *XER {
	if x == nil {
		return nil
	}
	out := &XER{}
	out.Merge(x)
	return out
}
