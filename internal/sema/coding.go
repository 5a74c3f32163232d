package sema

import (
	"strings"

	"tycodec/internal/diag"
	"tycodec/internal/encattr"
	"tycodec/internal/types"
)

func (c *checker) codingPass() {
	c.each(func(id types.TypeID, t types.Type) {
		c.resolveMethods(id)
		c.checkRAW(id, t)
		c.checkAttrTargets(id, t)
	})
}

var directions = [...]types.Direction{types.Encode, types.Decode}

// resolveMethods picks, per direction, the sources of the first node on the reference
// chain that declares any and merges them. A node with several distinct sources gets
// MethodMultiple; the conflict is reported at that node only.
func (c *checker) resolveMethods(id types.TypeID) {
	chain, _ := c.reg.ReferenceChain(id)
	var conflicts []string
	for _, dir := range directions {
		for _, n := range chain {
			m, conflict := c.ownMethod(n, dir)
			if m.Kind == types.MethodUnset {
				continue
			}
			c.res.methods[methodKey{id, dir}] = m
			if conflict && n == id {
				conflicts = append(conflicts, dir.String())
			}
			break
		}
	}
	if len(conflicts) == 0 {
		return
	}
	b := diag.ReportError(c.reporter, diag.CodMultipleMethods, c.spanOf(id),
		"%s has more than one %s method", c.reg.DisplayName(id), strings.Join(conflicts, " and "))
	a := c.reg.Attrs(id)
	for _, f := range a.Encodings {
		b.WithNote(c.spanOf(id), "built-in "+f.String()+" encoding")
	}
	for _, fn := range a.CodecFuncs {
		b.WithNote(c.spanOf(id), fn.Dir.String()+" function "+fn.Name)
	}
	b.Emit()
	c.markError(id)
}

func (c *checker) ownMethod(id types.TypeID, dir types.Direction) (types.CodingMethod, bool) {
	a := c.reg.Attrs(id)
	var (
		m        types.CodingMethod
		conflict bool
	)
	merge := func(src types.CodingMethod) {
		var hit bool
		m, hit = m.Merge(src)
		conflict = conflict || hit
	}
	for _, f := range a.Encodings {
		merge(types.BuiltInMethod(f))
	}
	for _, fn := range a.CodecFuncs {
		if fn.Dir == dir {
			merge(types.FunctionMethod(fn.Name))
		}
	}
	return m, conflict
}

// checkRAW validates the RAW attribute values and the field names they refer to.
// LENGTHTO, POINTERTO, PTROFFSET, PRESENCE, CROSSTAG and EXTENSION_BIT_GROUP name
// siblings in the enclosing record; TAG names fields of the type itself.
func (c *checker) checkRAW(id types.TypeID, t types.Type) {
	raw := c.reg.Attrs(id).RAW
	if raw == nil {
		return
	}
	cat := c.reg.Category(c.reg.Resolved(id))
	if err := raw.Validate(); err != nil {
		diag.ReportError(c.reporter, diag.CodBadAttribute, t.Span,
			"invalid RAW attribute of %s: %v", c.reg.DisplayName(id), err).Emit()
		c.markError(id)
	}
	if raw.IntX && !cat.IsInteger() {
		c.wrongType(id, t, "RAW IntX")
	}

	for _, tag := range raw.TagList {
		c.checkTagEntry(id, t, id, tag, "TAG")
	}

	siblingRefs := len(raw.LengthTo) > 0 || raw.PointerTo != "" || raw.PtrBase != "" ||
		len(raw.Presence) > 0 || len(raw.CrossTagList) > 0 || len(raw.ExtBitGroups) > 0
	if !siblingRefs {
		return
	}
	if t.Owner != types.OwnerField || !c.reg.Category(t.Parent).IsStructural() {
		diag.ReportError(c.reporter, diag.CodAttrOnWrongType, t.Span,
			"RAW field references on %s, which is not a record field", c.reg.DisplayName(id)).Emit()
		c.markError(id)
		return
	}
	parent := t.Parent
	var names []string
	names = append(names, raw.LengthTo...)
	if raw.PointerTo != "" {
		names = append(names, raw.PointerTo)
	}
	if raw.PtrBase != "" {
		names = append(names, raw.PtrBase)
	}
	for _, g := range raw.ExtBitGroups {
		names = append(names, g.From, g.To)
	}
	for _, name := range names {
		c.checkSibling(id, t, parent, encattr.FieldPath{name})
	}
	for _, k := range raw.Presence {
		c.checkSibling(id, t, parent, k.Field)
	}
	for _, tag := range raw.CrossTagList {
		c.checkTagEntry(id, t, c.reg.Resolved(id), tag, "CROSSTAG")
	}
}

// checkTagEntry checks that tag.Field is an alternative of owner and that every key
// path resolves: TAG keys start at the selected field, CROSSTAG keys at the siblings.
func (c *checker) checkTagEntry(id types.TypeID, t types.Type, owner types.TypeID, tag encattr.FieldTag, attr string) {
	f, ok := c.reg.Field(c.reg.Resolved(owner), tag.Field)
	if !ok {
		c.badRef(id, t, attr, encattr.FieldPath{tag.Field})
		return
	}
	for _, k := range tag.Keys {
		if attr == "CROSSTAG" {
			c.checkSibling(id, t, t.Parent, k.Field)
			continue
		}
		if _, ok := c.reg.FieldPath(f.Type, k.Field); !ok {
			c.badRef(id, t, attr, append(encattr.FieldPath{tag.Field}, k.Field...))
		}
	}
}

func (c *checker) checkSibling(id types.TypeID, t types.Type, parent types.TypeID, path encattr.FieldPath) {
	if len(path) > 0 && path[0] == t.FieldName {
		diag.ReportError(c.reporter, diag.CodSelfReference, t.Span,
			"field %s of %s refers to itself", t.FieldName, c.reg.DisplayName(parent)).Emit()
		c.markError(id)
		return
	}
	if _, ok := c.reg.FieldPath(parent, path); !ok {
		c.badRef(id, t, "RAW", path)
	}
}

func (c *checker) badRef(id types.TypeID, t types.Type, attr string, path encattr.FieldPath) {
	diag.ReportError(c.reporter, diag.CodBadFieldRef, t.Span,
		"%s attribute of %s refers to unknown field %s", attr, c.reg.DisplayName(id), path).Emit()
	c.markError(id)
}

func (c *checker) wrongType(id types.TypeID, t types.Type, what string) {
	diag.ReportError(c.reporter, diag.CodAttrOnWrongType, t.Span,
		"%s is not applicable to %s of %s type", what, c.reg.DisplayName(id),
		c.reg.Category(c.reg.Resolved(id))).Emit()
	c.markError(id)
}

// checkAttrTargets rejects TEXT, XER and JSON instructions on categories they cannot
// describe.
func (c *checker) checkAttrTargets(id types.TypeID, t types.Type) {
	a := c.reg.Attrs(id)
	res := c.reg.Resolved(id)
	cat := c.reg.Category(res)
	if cat == types.CatError {
		return
	}

	if txt := a.TEXT; txt != nil {
		if (txt.True != nil || txt.False != nil) && cat != types.CatBool {
			c.wrongType(id, t, "TEXT true/false token")
		}
		if len(txt.Items) > 0 {
			if info, ok := c.reg.EnumInfo(res); !ok {
				c.wrongType(id, t, "TEXT item token")
			} else {
				for _, it := range txt.Items {
					if _, found := info.ItemByName(it.Name); !found {
						diag.ReportError(c.reporter, diag.CodBadAttribute, t.Span,
							"TEXT token for unknown item %q of %s", it.Name, c.reg.DisplayName(id)).Emit()
						c.markError(id)
					}
				}
			}
		}
	}

	if x := a.XER; x != nil {
		switch {
		case x.List && !cat.IsListLike():
			c.wrongType(id, t, "XER LIST")
		case (x.UseNil || x.UseOrder) && !cat.IsRecordLike():
			c.wrongType(id, t, "XER USE-NIL/USE-ORDER")
		case x.UseUnion && !cat.IsUnionLike():
			c.wrongType(id, t, "XER USE-UNION")
		case x.Base64 && !base64Target(cat):
			c.wrongType(id, t, "XER BASE64")
		case x.HasFraction && cat != types.CatReal:
			c.wrongType(id, t, "XER FRACTIONDIGITS")
		}
	}

	if j := a.JSON; j != nil {
		switch {
		case j.AsValue && !cat.IsUnionLike() && !cat.IsRecordLike():
			c.wrongType(id, t, "JSON as value")
		case j.MetainfoUnbound && !cat.IsRecordLike() && !cat.IsListLike():
			c.wrongType(id, t, "JSON metainfo for unbound")
		case j.OmitAsNull && !c.optionalField(t):
			c.wrongType(id, t, "JSON omit as null")
		}
	}
}

func base64Target(c types.Category) bool {
	switch c {
	case types.CatOctetString, types.CatUniversalCharString, types.CatAny, types.CatOpenType:
		return true
	}
	return false
}

func (c *checker) optionalField(t types.Type) bool {
	if t.Owner != types.OwnerField {
		return false
	}
	f, ok := c.reg.Field(t.Parent, t.FieldName)
	return ok && f.Optional
}
