package encattr

import (
	"regexp"
	"strings"
)

// Token is an encode token with its decode matcher.
type Token struct {
	Encode string
	// Decode is a pattern; empty means "match Encode literally".
	Decode        string
	CaseSensitive bool
}

// NewToken makes a token decoded by its literal, case sensitively.
func NewToken(s string) *Token {
	return &Token{Encode: s, CaseSensitive: true}
}

// Pattern returns the anchored decode expression.
func (t *Token) Pattern() string {
	if t == nil {
		return ""
	}
	p := t.Decode
	if p == "" {
		p = regexp.QuoteMeta(t.Encode)
	}
	if !t.CaseSensitive {
		p = "(?i)" + p
	}
	return "^(?:" + p + ")"
}

// Match returns the length of the token at the start of s, or -1.
func (t *Token) Match(s string) int {
	if t == nil {
		return 0
	}
	if t.Decode == "" {
		if t.CaseSensitive {
			if strings.HasPrefix(s, t.Encode) {
				return len(t.Encode)
			}
			return -1
		}
		if len(s) >= len(t.Encode) && strings.EqualFold(s[:len(t.Encode)], t.Encode) {
			return len(t.Encode)
		}
		return -1
	}
	re, err := regexp.Compile(t.Pattern())
	if err != nil {
		return -1
	}
	loc := re.FindStringIndex(s)
	if loc == nil {
		return -1
	}
	return loc[1]
}

// Justify is the TEXT justification of numeric and string fields.
type Justify uint8

const (
	JustifyDefault Justify = iota
	JustifyLeft
	JustifyRight
	JustifyCenter
)

// Convert is the TEXT case conversion.
type Convert uint8

const (
	ConvertNone Convert = iota
	ConvertLower
	ConvertUpper
)

// TextParams are coding or decoding parameters of a TEXT field.
type TextParams struct {
	LeadingZero bool
	Repeatable  bool
	MinLength   int
	MaxLength   int // -1 unlimited
	Convert     Convert
	Just        Justify
}

// EnumToken maps one enumeration item to its tokens.
type EnumToken struct {
	Name  string
	Token Token
}

// TEXT is a parsed TEXT attribute set.
type TEXT struct {
	Begin     *Token
	End       *Token
	Separator *Token
	Coding    TextParams
	Decoding  TextParams
	Items     []EnumToken
	True      *Token
	False     *Token
	// DecodeToken is the whole-value decode pattern for string types.
	DecodeToken   string
	CaseSensitive bool
}

func NewTEXT() *TEXT {
	return &TEXT{
		Coding:        TextParams{MaxLength: -1},
		Decoding:      TextParams{MaxLength: -1},
		CaseSensitive: true,
	}
}

// ItemIndex returns the position of name in Items, or -1.
func (t *TEXT) ItemIndex(name string) int {
	if t == nil {
		return -1
	}
	for i, it := range t.Items {
		if it.Name == name {
			return i
		}
	}
	return -1
}

func (t *TEXT) Clone() *TEXT {
	if t == nil {
		return nil
	}
	out := *t
	out.Begin = cloneToken(t.Begin)
	out.End = cloneToken(t.End)
	out.Separator = cloneToken(t.Separator)
	out.True = cloneToken(t.True)
	out.False = cloneToken(t.False)
	out.Items = append([]EnumToken(nil), t.Items...)
	return &out
}

func cloneToken(t *Token) *Token {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
