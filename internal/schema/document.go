package schema

import (
	"bytes"
	"fmt"

	"github.com/BurntSushi/toml"

	"tycodec/internal/encattr"
)

// document is the shape of one schema file:
//
//	[[module]]
//	name = "Msgs"
//	tagging = "automatic"
//
//	[[module.type]]
//	name = "Header"
//	kind = "SEQUENCE"
//	fields = [{ name = "len", type = "INTEGER" }]
type document struct {
	Modules []moduleDoc `toml:"module"`
}

type moduleDoc struct {
	Name    string    `toml:"name"`
	Tagging string    `toml:"tagging"`
	Types   []typeDoc `toml:"type"`
}

type typeDoc struct {
	Name string `toml:"name"`
	Kind string `toml:"kind"`

	Fields []fieldDoc `toml:"fields"`
	Elem   *typeRef   `toml:"elem"`
	Lower  int64      `toml:"lower"`
	Count  int64      `toml:"count"`

	Target      *typeRef `toml:"target"`
	Alternative string   `toml:"alternative"`
	Declared    string   `toml:"declared"`

	Items      []itemDoc `toml:"items"`
	Extensible bool      `toml:"extensible"`

	Params     []paramDoc `toml:"params"`
	Return     *typeRef   `toml:"return"`
	Exceptions []*typeRef `toml:"exceptions"`
	NoBlock    bool       `toml:"noblock"`

	Tags         []tagDoc         `toml:"tags"`
	Encode       []string         `toml:"encode"`
	Encoders     []string         `toml:"encoders"`
	Decoders     []string         `toml:"decoders"`
	Restrictions []restrictionDoc `toml:"restrictions"`

	RAW  *rawDoc  `toml:"raw"`
	TEXT *textDoc `toml:"text"`
	XER  *xerDoc  `toml:"xer"`
	JSON *jsonDoc `toml:"json"`
}

type fieldDoc struct {
	Name     string   `toml:"name"`
	Type     *typeRef `toml:"type"`
	Optional bool     `toml:"optional"`
	Default  string   `toml:"default"`
}

type itemDoc struct {
	Name  string `toml:"name"`
	Value *int64 `toml:"value"`
}

type paramDoc struct {
	Name string   `toml:"name"`
	Type *typeRef `toml:"type"`
	Dir  string   `toml:"dir"`
}

type tagDoc struct {
	Class  string `toml:"class"`
	Number int64  `toml:"number"`
	Mode   string `toml:"mode"`
}

// restrictionDoc holds one restriction; bounds of int ranges may be "min" or "max".
type restrictionDoc struct {
	Range      [][]any     `toml:"range"`
	FloatRange [][]float64 `toml:"float_range"`
	NaN        bool        `toml:"nan"`
	Size       [][]any     `toml:"size"`
	Values     []any       `toml:"values"`
	Alphabet   *string     `toml:"alphabet"`
	Pattern    *string     `toml:"pattern"`
}

type rawDoc struct {
	FieldLength       int           `toml:"fieldlength"`
	IntX              bool          `toml:"intx"`
	Sign              string        `toml:"comp"`
	ByteOrder         string        `toml:"byteorder"`
	Align             string        `toml:"align"`
	BitOrderInField   string        `toml:"bitorderinfield"`
	BitOrderInOctet   string        `toml:"bitorderinoctet"`
	ExtBit            string        `toml:"extension_bit"`
	ExtBitGroups      []extGroupDoc `toml:"extension_bit_group"`
	HexOrder          string        `toml:"hexorder"`
	FieldOrder        string        `toml:"fieldorder"`
	TopLevel          string        `toml:"toplevel"`
	Padding           int           `toml:"padding"`
	Prepadding        int           `toml:"prepadding"`
	PaddAll           bool          `toml:"paddall"`
	PaddingPattern    string        `toml:"padding_pattern"`
	Repeatable        bool          `toml:"repeatable"`
	PtrOffset         int           `toml:"ptroffset"`
	PtrBase           string        `toml:"ptrbase"`
	Unit              int           `toml:"unit"`
	LengthTo          []string      `toml:"lengthto"`
	LengthIndex       string        `toml:"lengthindex"`
	PointerTo         string        `toml:"pointerto"`
	TagList           []fieldTagDoc `toml:"taglist"`
	CrossTagList      []fieldTagDoc `toml:"crosstaglist"`
	Presence          []tagKeyDoc   `toml:"presence"`
	LengthRestriction int           `toml:"length_restriction"`
	StringFormat      string        `toml:"stringformat"`
}

type extGroupDoc struct {
	Ext  string `toml:"ext"`
	From string `toml:"from"`
	To   string `toml:"to"`
}

type fieldTagDoc struct {
	Field string      `toml:"field"`
	Keys  []tagKeyDoc `toml:"keys"`
}

type tagKeyDoc struct {
	Field string `toml:"field"`
	Value string `toml:"value"`
}

type textDoc struct {
	Begin           *tokenDoc      `toml:"begin"`
	End             *tokenDoc      `toml:"end"`
	Separator       *tokenDoc      `toml:"separator"`
	Coding          *paramsDoc     `toml:"coding"`
	Decoding        *paramsDoc     `toml:"decoding"`
	Items           []itemTokenDoc `toml:"items"`
	True            *tokenDoc      `toml:"true"`
	False           *tokenDoc      `toml:"false"`
	DecodeToken     string         `toml:"decode_token"`
	CaseInsensitive bool           `toml:"case_insensitive"`
}

type paramsDoc struct {
	LeadingZero bool   `toml:"leading_zero"`
	Repeatable  bool   `toml:"repeatable"`
	MinLength   int    `toml:"min_length"`
	MaxLength   *int   `toml:"max_length"`
	Convert     string `toml:"convert"`
	Justify     string `toml:"justify"`
}

type itemTokenDoc struct {
	Name            string `toml:"name"`
	Encode          string `toml:"encode"`
	Decode          string `toml:"decode"`
	CaseInsensitive bool   `toml:"case_insensitive"`
}

type xerDoc struct {
	Abstract        bool          `toml:"abstract"`
	Attribute       bool          `toml:"attribute"`
	AnyAttributes   *anyDoc       `toml:"any_attributes"`
	AnyElement      *anyDoc       `toml:"any_element"`
	Base64          bool          `toml:"base64"`
	Block           bool          `toml:"block"`
	Decimal         bool          `toml:"decimal"`
	DefaultForEmpty *string       `toml:"default_for_empty"`
	Element         bool          `toml:"element"`
	EmbedValues     bool          `toml:"embed_values"`
	FormUnqualified bool          `toml:"form_unqualified"`
	FractionDigits  *int          `toml:"fraction_digits"`
	List            bool          `toml:"list"`
	Name            string        `toml:"name"`
	NameAs          string        `toml:"name_as"`
	Namespace       *namespaceDoc `toml:"namespace"`
	Untagged        bool          `toml:"untagged"`
	UseNil          bool          `toml:"use_nil"`
	UseNumber       bool          `toml:"use_number"`
	UseOrder        bool          `toml:"use_order"`
	UseQName        bool          `toml:"use_qname"`
	UseType         bool          `toml:"use_type"`
	UseUnion        bool          `toml:"use_union"`
	Whitespace      string        `toml:"whitespace"`
}

// anyDoc is an ANY-ELEMENT or ANY-ATTRIBUTES instruction; an empty table restricts nothing.
type anyDoc struct {
	From   []string `toml:"from"`
	Except []string `toml:"except"`
}

type namespaceDoc struct {
	URI    string `toml:"uri"`
	Prefix string `toml:"prefix"`
}

type jsonDoc struct {
	OmitAsNull      bool     `toml:"omit_as_null"`
	Name            string   `toml:"name"`
	AsValue         bool     `toml:"as_value"`
	Default         string   `toml:"default"`
	MetainfoUnbound bool     `toml:"metainfo_unbound"`
	Extend          []extDoc `toml:"extend"`
}

type extDoc struct {
	Key   string `toml:"key"`
	Value string `toml:"value"`
}

// typeRef is either the name of a type or an inline anonymous type table.
type typeRef struct {
	Name string
	Anon *typeDoc
}

func (t *typeRef) UnmarshalTOML(v any) error {
	switch v := v.(type) {
	case string:
		t.Name = v
		return nil
	case map[string]any:
		// inline tables are re-read through the encoder so nested refs decode the same way
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(v); err != nil {
			return fmt.Errorf("inline type: %w", err)
		}
		t.Anon = new(typeDoc)
		if _, err := toml.Decode(buf.String(), t.Anon); err != nil {
			return fmt.Errorf("inline type: %w", err)
		}
		return nil
	}
	return fmt.Errorf("type must be a name or a table, got %T", v)
}

// tokenDoc accepts "text" or { encode = "text", decode = "re", case_insensitive = true }.
type tokenDoc struct {
	encattr.Token
}

func (t *tokenDoc) UnmarshalTOML(v any) error {
	switch v := v.(type) {
	case string:
		t.Token = *encattr.NewToken(v)
		return nil
	case map[string]any:
		enc, _ := v["encode"].(string)
		dec, _ := v["decode"].(string)
		ci, _ := v["case_insensitive"].(bool)
		t.Token = encattr.Token{Encode: enc, Decode: dec, CaseSensitive: !ci}
		return nil
	}
	return fmt.Errorf("token must be a string or a table, got %T", v)
}

func (t *tokenDoc) token() *encattr.Token {
	if t == nil {
		return nil
	}
	tok := t.Token
	return &tok
}
