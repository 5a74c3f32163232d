package codegen

import (
	"slices"

	"tycodec/internal/descriptor"
	"tycodec/internal/diag"
	"tycodec/internal/encattr"
	"tycodec/internal/tagging"
	"tycodec/internal/types"
)

// ownsFormat reports whether node n carries data of its own for f.
func (g *Generator) ownsFormat(n types.TypeID, f types.Format) bool {
	a := g.reg.Attrs(n)
	if a.HasFormat(f) {
		return true
	}
	if f != types.FormatJSON {
		return false
	}
	if len(a.Restrictions) > 0 {
		return true
	}
	c := g.reg.Category(n)
	return g.opts.MetainfoUnbound && (c.IsRecordLike() || c.IsListLike())
}

// owner walks the reference chain of id for the first node owning f. When none does,
// the built-in descriptor of the value category owns it; ok is false when the
// category has no encoding in f at all.
func (g *Generator) owner(id types.TypeID, f types.Format) (ownerID types.TypeID, name string, ok bool) {
	chain, err := g.reg.ReferenceChain(id)
	if err != nil {
		return types.NoTypeID, "", false
	}
	for _, n := range chain {
		if g.ownsFormat(n, f) {
			return n, g.name(n), true
		}
	}
	c := g.valueCategory(id)
	if !supports(c, f) {
		return types.NoTypeID, "", false
	}
	return types.NoTypeID, g.builtin(c), true
}

// requested reports whether an encode attribute or a built-in coding method names f.
func (g *Generator) requested(id types.TypeID, f types.Format) bool {
	chain, _ := g.reg.ReferenceChain(id)
	for _, n := range chain {
		if slices.Contains(g.reg.Attrs(n).Encodings, f) {
			return true
		}
	}
	want := types.BuiltInMethod(f)
	return g.res.Method(id, types.Encode) == want || g.res.Method(id, types.Decode) == want
}

// reportSkipped warns about formats an encode attribute asks for but the type cannot
// be coded in.
func (g *Generator) reportSkipped(id types.TypeID) {
	for _, f := range types.AllFormats {
		if !g.opts.Formats.Has(f) || !g.requested(id, f) {
			continue
		}
		if _, _, ok := g.owner(id, f); !ok {
			diag.ReportWarning(g.opts.Reporter, diag.GenSkippedFormat, g.reg.MustLookup(id).Span,
				"%s has no %s encoding; format skipped", g.reg.DisplayName(id), f).Emit()
		}
	}
}

// supports lists the categories a format has a built-in codec for.
func supports(c types.Category, f types.Format) bool {
	if !describable(c) || c == types.CatSignature {
		return false
	}
	switch f {
	case types.FormatBER:
		if _, ok := tagging.DefaultTag(c); ok {
			return true
		}
		return c.IsUnionLike() || c == types.CatAny
	case types.FormatRAW, types.FormatTEXT:
		switch {
		case c == types.CatBool, c.IsInteger(), c == types.CatReal, c.IsEnum(), c.IsBitString(),
			c == types.CatHexString, c == types.CatOctetString, c == types.CatCharString,
			c == types.CatUniversalCharString, c.IsStructural(), c.IsListLike():
			return true
		}
		return false
	case types.FormatXER, types.FormatJSON:
		return true
	}
	return false
}

func (g *Generator) part(d *descriptor.Descriptor, id types.TypeID, f types.Format) {
	ownerID, owner, ok := g.owner(id, f)
	if !ok {
		return
	}
	if ownerID != types.NoTypeID && ownerID != id {
		g.gen(ownerID)
	}
	own := ownerID == id
	switch f {
	case types.FormatBER:
		d.BER = &descriptor.BER{Owner: owner, Tags: g.tagger.JoinedTags(id)}
	case types.FormatRAW:
		if own {
			d.RAW = g.raw(id, owner)
		} else {
			d.RAW = &descriptor.RAW{Owner: owner, PointerTo: -1, PtrBase: -1}
		}
	case types.FormatTEXT:
		if own {
			d.TEXT = g.text(id, owner)
		} else {
			d.TEXT = &descriptor.TEXT{Owner: owner}
		}
	case types.FormatXER:
		if own {
			d.XER = g.xer(id, owner)
		} else {
			d.XER = &descriptor.XER{Owner: owner, Namespace: -1, FractionDigits: -1}
		}
	case types.FormatJSON:
		if own {
			d.JSON = g.json(id, owner)
		} else {
			d.JSON = &descriptor.JSON{Owner: owner}
		}
	default:
		diag.Fatalf("codegen.part", "unknown format %s", f)
	}
}

// RAW ------------------------------------------------------------------------

func (g *Generator) raw(id types.TypeID, owner string) *descriptor.RAW {
	a := g.reg.Attrs(id).RAW
	out := &descriptor.RAW{
		Owner:             owner,
		FieldLength:       a.FieldLength,
		IntX:              a.IntX,
		Sign:              a.Sign,
		ByteOrder:         a.ByteOrder,
		Align:             a.Align,
		BitOrderInField:   a.BitOrderInField,
		BitOrderInOctet:   a.BitOrderInOctet,
		ExtBit:            a.ExtBit,
		HexOrder:          a.HexOrder,
		FieldOrder:        a.FieldOrder,
		TopLevelBitOrder:  a.TopLevelBitOrder,
		Padding:           a.Padding,
		Prepadding:        a.Prepadding,
		PaddingPattern:    a.PaddingPattern,
		PtrOffset:         a.PtrOffset,
		Unit:              a.Unit,
		LengthRestriction: a.LengthRestriction,
		StringFormat:      a.StringFormat,
		Repeatable:        a.Repeatable,
		PointerTo:         -1,
		PtrBase:           -1,
	}
	res := g.reg.Resolved(id)
	for _, tag := range a.TagList {
		if e, ok := g.tagEntry(id, res, tag, types.NoTypeID); ok {
			out.TagList = append(out.TagList, e)
		}
	}
	siblingRefs := len(a.LengthTo) > 0 || a.PointerTo != "" || a.PtrBase != "" ||
		len(a.Presence) > 0 || len(a.CrossTagList) > 0 || len(a.ExtBitGroups) > 0
	if !siblingRefs {
		return out
	}

	t := g.reg.MustLookup(id)
	if t.Owner != types.OwnerField {
		diag.ReportError(g.opts.Reporter, diag.CodBadFieldRef, t.Span,
			"RAW field references of %s have no enclosing record", g.reg.DisplayName(id)).Emit()
		return out
	}
	parent := t.Parent
	for _, name := range a.LengthTo {
		if i, ok := g.sibling(id, parent, name); ok {
			out.LengthTo = append(out.LengthTo, i)
		}
	}
	if len(a.LengthIndex) > 0 && len(out.LengthTo) > 0 {
		f, _ := g.reg.FieldAt(parent, out.LengthTo[0])
		if p, ok := g.reg.FieldPath(f.Type, a.LengthIndex); ok {
			out.LengthIndex = p
		} else {
			g.badRef(id, "LENGTHINDEX", a.LengthIndex)
		}
	}
	if a.PointerTo != "" {
		if i, ok := g.sibling(id, parent, a.PointerTo); ok {
			out.PointerTo = i
		}
	}
	if a.PtrBase != "" {
		if i, ok := g.sibling(id, parent, a.PtrBase); ok {
			out.PtrBase = i
		}
	}
	for _, k := range a.Presence {
		if p, ok := g.reg.FieldPath(parent, k.Field); ok {
			out.Presence = append(out.Presence, descriptor.KeyRef{Path: p, Value: k.Value})
		} else {
			g.badRef(id, "PRESENCE", k.Field)
		}
	}
	for _, tag := range a.CrossTagList {
		if e, ok := g.tagEntry(id, res, tag, parent); ok {
			out.CrossTagList = append(out.CrossTagList, e)
		}
	}
	for _, eg := range a.ExtBitGroups {
		from, ok1 := g.sibling(id, parent, eg.From)
		to, ok2 := g.sibling(id, parent, eg.To)
		if ok1 && ok2 {
			out.ExtBitGroups = append(out.ExtBitGroups, descriptor.ExtGroup{Ext: eg.Ext, From: from, To: to})
		}
	}
	return out
}

func (g *Generator) sibling(id, parent types.TypeID, name string) (int, bool) {
	p, ok := g.reg.FieldPath(parent, []string{name})
	if !ok {
		g.badRef(id, "RAW", encattr.FieldPath{name})
		return -1, false
	}
	return p[0], true
}

// tagEntry resolves a TAG (keys relative to the selected field) or CROSSTAG (keys
// relative to keysFrom, the enclosing record) entry.
func (g *Generator) tagEntry(id, owner types.TypeID, tag encattr.FieldTag, keysFrom types.TypeID) (descriptor.TagEntry, bool) {
	idx, ok := g.reg.FieldPath(owner, []string{tag.Field})
	if !ok {
		g.badRef(id, "TAG", encattr.FieldPath{tag.Field})
		return descriptor.TagEntry{}, false
	}
	base := keysFrom
	if base == types.NoTypeID {
		f, _ := g.reg.FieldAt(owner, idx[0])
		base = f.Type
	}
	e := descriptor.TagEntry{Field: idx[0]}
	for _, k := range tag.Keys {
		p, ok := g.reg.FieldPath(base, k.Field)
		if !ok {
			g.badRef(id, "TAG", k.Field)
			return descriptor.TagEntry{}, false
		}
		e.Keys = append(e.Keys, descriptor.KeyRef{Path: p, Value: k.Value})
	}
	return e, true
}

func (g *Generator) badRef(id types.TypeID, attr string, path encattr.FieldPath) {
	diag.ReportError(g.opts.Reporter, diag.CodBadFieldRef, g.reg.MustLookup(id).Span,
		"%s attribute of %s refers to unknown field %s", attr, g.reg.DisplayName(id), path).Emit()
}

// TEXT -----------------------------------------------------------------------

func (g *Generator) text(id types.TypeID, owner string) *descriptor.TEXT {
	a := g.reg.Attrs(id).TEXT
	out := &descriptor.TEXT{
		Owner:       owner,
		Begin:       token(a.Begin),
		End:         token(a.End),
		Separator:   token(a.Separator),
		Coding:      a.Coding,
		Decoding:    a.Decoding,
		True:        token(a.True),
		False:       token(a.False),
		DecodeToken: a.DecodeToken,
	}
	res := g.reg.Resolved(id)
	switch c := g.reg.Category(res); {
	case c == types.CatBool:
		if out.True == nil {
			out.True = token(encattr.NewToken("true"))
		}
		if out.False == nil {
			out.False = token(encattr.NewToken("false"))
		}
	case c.IsEnum():
		for _, it := range g.reg.MustEnumInfo(res).Items {
			tk := encattr.NewToken(it.Name)
			if i := a.ItemIndex(it.Name); i >= 0 {
				tk = &a.Items[i].Token
			}
			out.Items = append(out.Items, descriptor.ItemToken{Name: it.Name, Value: it.Value, Token: *token(tk)})
		}
	}
	return out
}

func token(t *encattr.Token) *descriptor.Token {
	if t == nil {
		return nil
	}
	return &descriptor.Token{Encode: t.Encode, Decode: t.Pattern(), CaseSensitive: t.CaseSensitive}
}

// XER ------------------------------------------------------------------------

func (g *Generator) xer(id types.TypeID, owner string) *descriptor.XER {
	x := g.reg.Attrs(id).XER
	out := &descriptor.XER{
		Owner:           owner,
		Name:            x.Name.Apply(g.xmlName(id)),
		Namespace:       -1,
		Flags:           x.Flags(),
		Whitespace:      x.Whitespace,
		DefaultForEmpty: x.DefaultForEmpty,
		HasDefault:      x.HasDefault,
		FractionDigits:  -1,
	}
	if x.Namespace != nil {
		out.Namespace = g.acc.Table.Namespace(*x.Namespace)
		out.NamespaceURI = x.Namespace.URI
	}
	if x.HasFraction {
		out.FractionDigits = x.FractionDigits
	}
	for _, r := range []encattr.NamespaceRestriction{x.AnyElement, x.AnyAttributes} {
		out.NamespaceURIs = append(out.NamespaceURIs, r.URIs...)
	}
	if g.optionalField(id) {
		out.Flags |= encattr.XEROptional
	}
	res := g.reg.Resolved(id)
	if info, ok := g.reg.RecordInfo(res); ok {
		for _, f := range info.Fields.Entries() {
			if fx := g.reg.Attrs(f.Type).XER; fx != nil && fx.Untagged {
				out.Flags |= encattr.XERHas1Untagged
				break
			}
		}
	}
	if elem := g.reg.ElementType(res); elem != types.NoTypeID {
		out.Elem = g.descrFor(elem)
	}
	return out
}

// xmlName is the default element name: the type or field name, else the first named
// node on the reference chain, else the category.
func (g *Generator) xmlName(id types.TypeID) string {
	t := g.reg.MustLookup(id)
	switch {
	case t.Name != "":
		return t.Name
	case t.Owner == types.OwnerField || t.Owner == types.OwnerParam:
		return t.FieldName
	}
	chain, _ := g.reg.ReferenceChain(id)
	for _, n := range chain {
		if name := g.reg.MustLookup(n).Name; name != "" {
			return name
		}
	}
	return mangle(g.valueCategory(id).String())
}

func (g *Generator) optionalField(id types.TypeID) bool {
	t := g.reg.MustLookup(id)
	if t.Owner != types.OwnerField {
		return false
	}
	f, ok := g.reg.Field(t.Parent, t.FieldName)
	return ok && f.Optional
}

// JSON -----------------------------------------------------------------------

func (g *Generator) json(id types.TypeID, owner string) *descriptor.JSON {
	out := &descriptor.JSON{Owner: owner, Schema: g.schemaOf(id)}
	if a := g.reg.Attrs(id).JSON; a != nil {
		out.OmitAsNull = a.OmitAsNull
		out.Alias = a.Alias
		out.AsValue = a.AsValue
		out.Default = a.Default
		out.MetainfoUnbound = a.MetainfoUnbound
		out.Extensions = slices.Clone(a.Extensions)
	}
	if c := g.reg.Category(id); g.opts.MetainfoUnbound && (c.IsRecordLike() || c.IsListLike()) {
		out.MetainfoUnbound = true
	}
	return out
}
