package schema

import (
	"fmt"
	"strings"

	"tycodec/internal/encattr"
	"tycodec/internal/subtype"
	"tycodec/internal/tags"
	"tycodec/internal/types"
)

func (l *Loader) attrs(id types.TypeID, c types.Category, p pending) error {
	d := p.doc
	bad := func(format string, args ...any) error {
		return l.fail(p.file, p.span, nil, d.Name+": "+format, args...)
	}

	for _, t := range d.Tags {
		class, ok := parseClass(t.Class)
		if !ok {
			return bad("unknown tag class %q", t.Class)
		}
		plicity, ok := parsePlicity(t.Mode)
		if !ok {
			return bad("unknown tag mode %q", t.Mode)
		}
		l.reg.AddTag(id, tags.NewSpec(class, plicity, tags.Literal(t.Number), p.span))
	}
	for _, name := range d.Encode {
		f, ok := types.ParseFormat(name)
		if !ok {
			return bad("unknown encoding %q", name)
		}
		l.reg.AddEncoding(id, f)
	}
	for _, fn := range d.Encoders {
		l.reg.AddCodecFunc(id, types.CodecFunc{Dir: types.Encode, Name: fn})
	}
	for _, fn := range d.Decoders {
		l.reg.AddCodecFunc(id, types.CodecFunc{Dir: types.Decode, Name: fn})
	}
	if len(d.Restrictions) > 0 {
		var rs []subtype.Restriction
		for _, rd := range d.Restrictions {
			r, err := restrictions(rd)
			if err != nil {
				return bad("%v", err)
			}
			rs = append(rs, r...)
		}
		l.reg.SetRestrictions(id, rs...)
	}

	if d.RAW != nil {
		raw, err := rawAttrs(d.RAW, c.IsInteger())
		if err != nil {
			return bad("raw: %v", err)
		}
		l.reg.SetRAW(id, raw)
	}
	if d.TEXT != nil {
		text, err := textAttrs(d.TEXT)
		if err != nil {
			return bad("text: %v", err)
		}
		l.reg.SetTEXT(id, text)
	}
	if d.XER != nil {
		xer, err := xerAttrs(d.XER)
		if err != nil {
			return bad("xer: %v", err)
		}
		l.reg.SetXER(id, xer)
	}
	if d.JSON != nil {
		l.reg.SetJSON(id, jsonAttrs(d.JSON))
	}
	return nil
}

func parseClass(s string) (tags.Class, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "CONTEXT":
		return tags.Context, true
	case "UNIVERSAL":
		return tags.Universal, true
	case "APPLICATION":
		return tags.Application, true
	case "PRIVATE":
		return tags.Private, true
	}
	return 0, false
}

func parsePlicity(s string) (tags.Plicity, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return tags.PlicityDefault, true
	case "explicit":
		return tags.Explicit, true
	case "implicit":
		return tags.Implicit, true
	}
	return 0, false
}

// Restrictions ---------------------------------------------------------------

func restrictions(rd restrictionDoc) ([]subtype.Restriction, error) {
	var out []subtype.Restriction
	if len(rd.Range) > 0 {
		ints, err := intRanges(rd.Range)
		if err != nil {
			return nil, fmt.Errorf("range: %w", err)
		}
		out = append(out, subtype.Restriction{Kind: subtype.RestrictRange, Ints: ints})
	}
	if len(rd.FloatRange) > 0 || rd.NaN {
		var fr []subtype.FloatRange
		for _, r := range rd.FloatRange {
			if len(r) != 2 {
				return nil, fmt.Errorf("float_range: want [lo, hi], got %v", r)
			}
			fr = append(fr, subtype.FloatRange{Lo: r[0], Hi: r[1]})
		}
		out = append(out, subtype.Restriction{Kind: subtype.RestrictFloatRange, Floats: fr, NaN: rd.NaN})
	}
	if len(rd.Size) > 0 {
		sizes, err := intRanges(rd.Size)
		if err != nil {
			return nil, fmt.Errorf("size: %w", err)
		}
		out = append(out, subtype.Restriction{Kind: subtype.RestrictSize, Sizes: sizes})
	}
	if len(rd.Values) > 0 {
		var vals []subtype.Value
		for _, v := range rd.Values {
			val, err := constant(v)
			if err != nil {
				return nil, err
			}
			vals = append(vals, val)
		}
		out = append(out, subtype.Restriction{Kind: subtype.RestrictValues, Values: vals})
	}
	if rd.Alphabet != nil {
		out = append(out, subtype.Restriction{Kind: subtype.RestrictAlphabet, Alphabet: *rd.Alphabet})
	}
	if rd.Pattern != nil {
		out = append(out, subtype.Restriction{Kind: subtype.RestrictPattern, Pattern: *rd.Pattern})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("empty restriction")
	}
	return out, nil
}

func intRanges(in [][]any) ([]subtype.IntRange, error) {
	out := make([]subtype.IntRange, 0, len(in))
	for _, r := range in {
		switch len(r) {
		case 1:
			v, err := bound(r[0])
			if err != nil {
				return nil, err
			}
			out = append(out, subtype.Point(v))
		case 2:
			lo, err := bound(r[0])
			if err != nil {
				return nil, err
			}
			hi, err := bound(r[1])
			if err != nil {
				return nil, err
			}
			out = append(out, subtype.IntRange{Lo: lo, Hi: hi})
		default:
			return nil, fmt.Errorf("want [lo, hi], got %v", r)
		}
	}
	return out, nil
}

func bound(v any) (int64, error) {
	switch v := v.(type) {
	case int64:
		return v, nil
	case string:
		switch v {
		case "min":
			return subtype.NegInf, nil
		case "max":
			return subtype.PosInf, nil
		}
	}
	return 0, fmt.Errorf("bound must be an integer, \"min\" or \"max\", got %v", v)
}

func constant(v any) (subtype.Value, error) {
	switch v := v.(type) {
	case int64:
		return subtype.Value{Kind: subtype.ValInt, Int: v}, nil
	case float64:
		return subtype.Value{Kind: subtype.ValFloat, Float: v}, nil
	case string:
		return subtype.Value{Kind: subtype.ValString, Str: v, Len: len([]rune(v))}, nil
	case bool:
		return subtype.Value{Kind: subtype.ValBool, Bool: v}, nil
	}
	return subtype.Value{}, fmt.Errorf("unsupported value %v (%T)", v, v)
}

// RAW ------------------------------------------------------------------------

func rawAttrs(d *rawDoc, integer bool) (*encattr.RAW, error) {
	r := encattr.NewRAW(integer)
	if d.FieldLength != 0 {
		r.FieldLength = d.FieldLength
	}
	var err error
	r.IntX = d.IntX
	if r.Sign, err = parseSign(d.Sign); err != nil {
		return nil, err
	}
	orders := []struct {
		dst      *encattr.Order
		val      string
		msb, lsb string
	}{
		{&r.ByteOrder, d.ByteOrder, "last", "first"},
		{&r.Align, d.Align, "left", "right"},
		{&r.BitOrderInField, d.BitOrderInField, "msb", "lsb"},
		{&r.BitOrderInOctet, d.BitOrderInOctet, "msb", "lsb"},
		{&r.HexOrder, d.HexOrder, "high", "low"},
		{&r.FieldOrder, d.FieldOrder, "msb", "lsb"},
		{&r.TopLevelBitOrder, d.TopLevel, "msb", "lsb"},
	}
	for _, o := range orders {
		if *o.dst, err = parseOrder(o.val, o.msb, o.lsb); err != nil {
			return nil, err
		}
	}
	r.TopLevel = d.TopLevel != ""
	if r.ExtBit, err = parseSetting(d.ExtBit); err != nil {
		return nil, err
	}
	for _, g := range d.ExtBitGroups {
		ext, err := parseSetting(g.Ext)
		if err != nil {
			return nil, err
		}
		r.ExtBitGroups = append(r.ExtBitGroups, encattr.ExtBitGroup{Ext: ext, From: g.From, To: g.To})
	}
	r.Padding, r.Prepadding, r.PaddAll = d.Padding, d.Prepadding, d.PaddAll
	r.PaddingPattern = d.PaddingPattern
	r.Repeatable = d.Repeatable
	r.PtrOffset, r.PtrBase = d.PtrOffset, d.PtrBase
	r.Unit = d.Unit
	r.LengthTo = append(r.LengthTo, d.LengthTo...)
	r.LengthIndex = encattr.ParseFieldPath(d.LengthIndex)
	r.PointerTo = d.PointerTo
	r.TagList = fieldTags(d.TagList)
	r.CrossTagList = fieldTags(d.CrossTagList)
	r.Presence = tagKeys(d.Presence)
	r.LengthRestriction = d.LengthRestriction
	switch strings.ToUpper(d.StringFormat) {
	case "":
	case "UTF-8", "UTF8":
		r.StringFormat = encattr.StringFormatUTF8
	case "UTF-16", "UTF16":
		r.StringFormat = encattr.StringFormatUTF16
	default:
		return nil, fmt.Errorf("unknown string format %q", d.StringFormat)
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

func fieldTags(in []fieldTagDoc) []encattr.FieldTag {
	var out []encattr.FieldTag
	for _, ft := range in {
		out = append(out, encattr.FieldTag{Field: ft.Field, Keys: tagKeys(ft.Keys)})
	}
	return out
}

func tagKeys(in []tagKeyDoc) []encattr.TagKey {
	var out []encattr.TagKey
	for _, k := range in {
		out = append(out, encattr.TagKey{Field: encattr.ParseFieldPath(k.Field), Value: k.Value})
	}
	return out
}

func parseSign(s string) (encattr.Sign, error) {
	switch strings.ToLower(s) {
	case "":
		return encattr.SignDefault, nil
	case "nosign":
		return encattr.SignNone, nil
	case "2scompl":
		return encattr.SignTwosComplement, nil
	case "signbit":
		return encattr.SignBit, nil
	}
	return 0, fmt.Errorf("unknown comp %q", s)
}

func parseOrder(s, msb, lsb string) (encattr.Order, error) {
	switch strings.ToLower(s) {
	case "":
		return encattr.OrderDefault, nil
	case msb:
		return encattr.OrderMSB, nil
	case lsb:
		return encattr.OrderLSB, nil
	}
	return 0, fmt.Errorf("want %q or %q, got %q", msb, lsb, s)
}

func parseSetting(s string) (encattr.Setting, error) {
	switch strings.ToLower(s) {
	case "":
		return encattr.Default, nil
	case "no":
		return encattr.No, nil
	case "yes":
		return encattr.Yes, nil
	case "reverse":
		return encattr.Reverse, nil
	}
	return 0, fmt.Errorf("unknown extension bit %q", s)
}

// TEXT -----------------------------------------------------------------------

func textAttrs(d *textDoc) (*encattr.TEXT, error) {
	t := encattr.NewTEXT()
	t.Begin, t.End, t.Separator = d.Begin.token(), d.End.token(), d.Separator.token()
	t.True, t.False = d.True.token(), d.False.token()
	t.DecodeToken = d.DecodeToken
	t.CaseSensitive = !d.CaseInsensitive
	var err error
	if d.Coding != nil {
		if t.Coding, err = textParams(d.Coding); err != nil {
			return nil, err
		}
	}
	if d.Decoding != nil {
		if t.Decoding, err = textParams(d.Decoding); err != nil {
			return nil, err
		}
	}
	for _, it := range d.Items {
		t.Items = append(t.Items, encattr.EnumToken{
			Name:  it.Name,
			Token: encattr.Token{Encode: it.Encode, Decode: it.Decode, CaseSensitive: !it.CaseInsensitive},
		})
	}
	return t, nil
}

func textParams(d *paramsDoc) (encattr.TextParams, error) {
	p := encattr.TextParams{
		LeadingZero: d.LeadingZero,
		Repeatable:  d.Repeatable,
		MinLength:   d.MinLength,
		MaxLength:   -1,
	}
	if d.MaxLength != nil {
		p.MaxLength = *d.MaxLength
	}
	switch strings.ToLower(d.Convert) {
	case "":
	case "lower":
		p.Convert = encattr.ConvertLower
	case "upper":
		p.Convert = encattr.ConvertUpper
	default:
		return p, fmt.Errorf("unknown convert %q", d.Convert)
	}
	switch strings.ToLower(d.Justify) {
	case "":
	case "left":
		p.Just = encattr.JustifyLeft
	case "right":
		p.Just = encattr.JustifyRight
	case "center":
		p.Just = encattr.JustifyCenter
	default:
		return p, fmt.Errorf("unknown justify %q", d.Justify)
	}
	if p.MaxLength >= 0 && p.MinLength > p.MaxLength {
		return p, fmt.Errorf("min_length %d exceeds max_length %d", p.MinLength, p.MaxLength)
	}
	return p, nil
}

// XER ------------------------------------------------------------------------

func xerAttrs(d *xerDoc) (*encattr.XER, error) {
	x := &encattr.XER{
		Abstract:        d.Abstract,
		Attribute:       d.Attribute,
		AnyAttributes:   anyRestriction(d.AnyAttributes),
		AnyElement:      anyRestriction(d.AnyElement),
		Base64:          d.Base64,
		Block:           d.Block,
		Decimal:         d.Decimal,
		Element:         d.Element,
		EmbedValues:     d.EmbedValues,
		FormUnqualified: d.FormUnqualified,
		List:            d.List,
		Untagged:        d.Untagged,
		UseNil:          d.UseNil,
		UseNumber:       d.UseNumber,
		UseOrder:        d.UseOrder,
		UseQName:        d.UseQName,
		UseType:         d.UseType,
		UseUnion:        d.UseUnion,
	}
	if d.DefaultForEmpty != nil {
		x.DefaultForEmpty, x.HasDefault = *d.DefaultForEmpty, true
	}
	if d.FractionDigits != nil {
		x.FractionDigits, x.HasFraction = *d.FractionDigits, true
	}
	if d.Namespace != nil {
		x.Namespace = &encattr.Namespace{URI: d.Namespace.URI, Prefix: d.Namespace.Prefix}
	}
	switch {
	case d.Name != "" && d.NameAs != "":
		return nil, fmt.Errorf("name and name_as are exclusive")
	case d.Name != "":
		x.Name = encattr.NameAs{Action: encattr.NameText, Text: d.Name}
	case d.NameAs != "":
		act, ok := nameActions[strings.ToLower(d.NameAs)]
		if !ok {
			return nil, fmt.Errorf("unknown name_as %q", d.NameAs)
		}
		x.Name = encattr.NameAs{Action: act}
	}
	switch strings.ToLower(d.Whitespace) {
	case "", "preserve":
	case "replace":
		x.Whitespace = encattr.WhitespaceReplace
	case "collapse":
		x.Whitespace = encattr.WhitespaceCollapse
	default:
		return nil, fmt.Errorf("unknown whitespace %q", d.Whitespace)
	}
	return x, nil
}

var nameActions = map[string]encattr.NameAction{
	"capitalized":   encattr.NameCapitalized,
	"uncapitalized": encattr.NameUncapitalized,
	"uppercased":    encattr.NameUppercased,
	"lowercased":    encattr.NameLowercased,
}

func anyRestriction(d *anyDoc) encattr.NamespaceRestriction {
	switch {
	case d == nil:
		return encattr.NamespaceRestriction{}
	case len(d.From) > 0:
		return encattr.NamespaceRestriction{Kind: encattr.RestrictFrom, URIs: d.From}
	case len(d.Except) > 0:
		return encattr.NamespaceRestriction{Kind: encattr.RestrictExcept, URIs: d.Except}
	}
	return encattr.NamespaceRestriction{Kind: encattr.RestrictNothing}
}

// JSON -----------------------------------------------------------------------

func jsonAttrs(d *jsonDoc) *encattr.JSON {
	j := &encattr.JSON{
		OmitAsNull:      d.OmitAsNull,
		Alias:           d.Name,
		AsValue:         d.AsValue,
		Default:         d.Default,
		MetainfoUnbound: d.MetainfoUnbound,
	}
	for _, e := range d.Extend {
		j.Extensions = append(j.Extensions, encattr.SchemaExtension{Key: e.Key, Value: e.Value})
	}
	return j
}
