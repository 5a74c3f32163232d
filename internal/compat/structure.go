package compat

import (
	"tycodec/internal/subtype"
	"tycodec/internal/types"
)

// record: a is a SEQUENCE/SET (or record/set).
func (c *Checker) record(a, b types.TypeID, ch *chains) Result {
	ca, cb := c.category(a), c.category(b)
	fa := c.reg.MustRecordInfo(a).Fields
	switch {
	case cb.IsRecordLike():
		if ca.IsSet() != cb.IsSet() {
			return fail("%s and %s are not both sets or both sequences", c.reg.DisplayName(a), c.reg.DisplayName(b))
		}
		fb := c.reg.MustRecordInfo(b).Fields
		if fa.Len() != fb.Len() {
			return fail("the number of fields must be the same (%d vs %d)", fa.Len(), fb.Len())
		}
		for i := range fa.Len() {
			ea, _ := fa.At(i)
			eb, _ := fb.At(i)
			if ea.Optional != eb.Optional {
				return fail("the optionality of fields must be the same").under("." + ea.Name)
			}
			if r := c.compatible(ea.Type, eb.Type, ch); !r.OK {
				return r.under("." + ea.Name)
			}
		}
		return ok()
	case ca.IsSet():
		return fail("set types are compatible only with set types")
	case cb == types.CatSequenceOf || cb == types.CatArray:
		return c.recordFromList(a, b, ch)
	}
	return fail("type %s is not compatible with %s", c.reg.DisplayName(a), c.reg.DisplayName(b))
}

// recordFromList: a record accepts a list whose length covers every mandatory field
// and never exceeds the field count, and whose element every field accepts.
func (c *Checker) recordFromList(a, b types.TypeID, ch *chains) Result {
	fa := c.reg.MustRecordInfo(a).Fields
	info := c.reg.MustListInfo(b)
	mandatory := 0
	for _, f := range fa.Entries() {
		if !f.Optional {
			mandatory++
		}
	}
	var lo, hi int64
	if c.category(b) == types.CatArray {
		if c.category(c.reg.Resolved(info.Elem)) == types.CatArray {
			return fail("record types are compatible only with single-dimension arrays")
		}
		lo, hi = info.Count, info.Count
	} else {
		var found bool
		lo, hi, found = c.cons(b).Sizes().Bounds()
		if !found {
			return fail("%s has no valid length", c.reg.DisplayName(b))
		}
	}
	if lo < int64(mandatory) {
		return fail("%s may have fewer elements than the %d mandatory fields", c.reg.DisplayName(b), mandatory)
	}
	if hi > int64(fa.Len()) {
		return fail("%s may have more elements than the %d fields", c.reg.DisplayName(b), fa.Len())
	}
	for _, f := range fa.Entries() {
		if r := c.compatible(f.Type, info.Elem, ch); !r.OK {
			return r.under("." + f.Name)
		}
	}
	return ok()
}

// recordOf: a is a record-of or set-of.
func (c *Checker) recordOf(a, b types.TypeID, ch *chains) Result {
	ca, cb := c.category(a), c.category(b)
	elem := c.reg.MustListInfo(a).Elem
	setOf := ca == types.CatSetOf
	switch {
	case cb == ca:
		return c.compatible(elem, c.reg.MustListInfo(b).Elem, ch).under("[-]")
	case !setOf && cb == types.CatArray:
		info := c.reg.MustListInfo(b)
		if !c.cons(a).Permits(subtype.ListValue(int(info.Count))) {
			return fail("length %d of %s is not permitted by %s", info.Count, c.reg.DisplayName(b), c.reg.DisplayName(a))
		}
		return c.compatible(elem, info.Elem, ch).under("[-]")
	case (!setOf && cb.IsRecordLike() && !cb.IsSet()) || (setOf && cb.IsSet()):
		// a set is unordered, so every field must fit the element regardless of position
		fb := c.reg.MustRecordInfo(b).Fields
		if !c.cons(a).Permits(subtype.ListValue(fb.Len())) {
			return fail("%d fields of %s exceed the length of %s", fb.Len(), c.reg.DisplayName(b), c.reg.DisplayName(a))
		}
		for _, f := range fb.Entries() {
			if r := c.compatible(elem, f.Type, ch); !r.OK {
				return r.under("[-]")
			}
		}
		return ok()
	case setOf:
		return fail("set of types are compatible only with set of and set types")
	}
	return fail("type %s is not compatible with %s", c.reg.DisplayName(a), c.reg.DisplayName(b))
}

// array: elements must be compatible and dimensions equal.
func (c *Checker) array(a, b types.TypeID, ch *chains) Result {
	ia := c.reg.MustListInfo(a)
	switch c.category(b) {
	case types.CatArray:
		ib := c.reg.MustListInfo(b)
		if ia.Count != ib.Count {
			return fail("array dimensions differ (%d vs %d)", ia.Count, ib.Count)
		}
		return c.compatible(ia.Elem, ib.Elem, ch).under("[-]")
	case types.CatSequenceOf:
		n, fixed := c.cons(b).FixedSize()
		if !fixed || n != ia.Count {
			return fail("%s is not restricted to exactly %d elements", c.reg.DisplayName(b), ia.Count)
		}
		return c.compatible(ia.Elem, c.reg.MustListInfo(b).Elem, ch).under("[-]")
	case types.CatSequenceA, types.CatSequenceT:
		fb := c.reg.MustRecordInfo(b).Fields
		if int64(fb.Len()) != ia.Count {
			return fail("array of %d elements cannot hold %d fields", ia.Count, fb.Len())
		}
		for _, f := range fb.Entries() {
			if f.Optional {
				return fail("optional field %q cannot map onto an array element", f.Name)
			}
			if r := c.compatible(ia.Elem, f.Type, ch); !r.OK {
				return r.under("[-]")
			}
		}
		return ok()
	}
	return fail("type %s is not compatible with %s", c.reg.DisplayName(a), c.reg.DisplayName(b))
}

// choice: every alternative of b needs a same-named compatible alternative in a.
func (c *Checker) choice(a, b types.TypeID, ch *chains) Result {
	ca, cb := c.category(a), c.category(b)
	if (ca == types.CatAnyType) != (cb == types.CatAnyType) {
		return fail("anytype is compatible only with anytype")
	}
	if !cb.IsUnionLike() {
		return fail("type %s is not compatible with %s", c.reg.DisplayName(a), c.reg.DisplayName(b))
	}
	if ca == types.CatAnyType {
		ma, mb := c.reg.MustLookup(a).Module, c.reg.MustLookup(b).Module
		if ma != mb {
			return fail("anytype of module %s is not compatible with anytype of module %s", ma, mb)
		}
	}
	fa := c.reg.MustRecordInfo(a).Fields
	for _, eb := range c.reg.MustRecordInfo(b).Fields.Entries() {
		ea, found := fa.Lookup(eb.Name)
		if !found {
			return fail("no alternative named %q in %s", eb.Name, c.reg.DisplayName(a))
		}
		if r := c.compatible(ea.Type, eb.Type, ch); !r.OK {
			return r.under("." + eb.Name)
		}
	}
	return ok()
}
