package sema

import (
	"errors"
	"slices"

	"tycodec/internal/diag"
	"tycodec/internal/types"
)

func (c *checker) resolvePass() {
	reported := map[types.TypeID]struct{}{}
	for _, id := range c.reg.UserTypes() {
		t := c.reg.MustLookup(id)
		switch {
		case t.Category.IsReference():
			c.checkReference(id, reported)
		case t.Category.IsStructural():
			c.checkFields(id)
		case t.Category.IsListLike():
			c.checkElement(id)
		case t.Category.IsEnum():
			c.checkEnum(id)
		}
	}
}

// checkReference reports a broken reference chain once, at the node that breaks it.
// Every node whose chain passes through the break is erroneous.
func (c *checker) checkReference(id types.TypeID, reported map[types.TypeID]struct{}) {
	_, err := c.reg.ResolveReference(id)
	if err == nil {
		return
	}
	c.markError(id)

	var (
		cyc   *types.CycleError
		unres *types.UnresolvedError
	)
	switch {
	case errors.As(err, &cyc):
		key := cycleKey(cyc.Chain)
		if _, done := reported[key]; done {
			return
		}
		reported[key] = struct{}{}
		diag.ReportError(c.reporter, diag.TypCircularRef, c.spanOf(key), "%v", err).Emit()
	case errors.As(err, &unres):
		if _, done := reported[unres.ID]; done {
			return
		}
		reported[unres.ID] = struct{}{}
		diag.ReportError(c.reporter, diag.TypUnresolvedRef, c.spanOf(unres.ID), "%v", err).Emit()
	default:
		diag.Fatalf("sema.checkReference", "unexpected resolution error: %v", err)
	}
}

// cycleKey is the smallest member of the loop closing chain; chains entering the
// same loop from different nodes share it.
func cycleKey(chain []types.TypeID) types.TypeID {
	last := chain[len(chain)-1]
	start := slices.Index(chain, last)
	return slices.Min(chain[start : len(chain)-1])
}

func (c *checker) checkFields(id types.TypeID) {
	info := c.reg.MustRecordInfo(id)
	for _, i := range info.Fields.Duplicates() {
		f, _ := info.Fields.At(i)
		first, _ := info.Fields.Lookup(f.Name)
		diag.ReportError(c.reporter, diag.TypDuplicateField, f.Span,
			"duplicate field name %q in %s", f.Name, c.reg.DisplayName(id)).
			WithNote(first.Span, "first declared here").
			Emit()
		c.markError(id)
	}
	for _, f := range info.Fields.Entries() {
		if f.Type == types.NoTypeID {
			diag.ReportError(c.reporter, diag.TypBadElement, f.Span,
				"field %q of %s has no type", f.Name, c.reg.DisplayName(id)).Emit()
			c.markError(id)
			continue
		}
		if cat := c.reg.Category(c.reg.Resolved(f.Type)); !valueCategory(cat) {
			diag.ReportError(c.reporter, diag.TypBadElement, f.Span,
				"field %q of %s cannot be of %s type", f.Name, c.reg.DisplayName(id), cat).Emit()
			c.markError(id)
		}
	}
}

func (c *checker) checkElement(id types.TypeID) {
	info := c.reg.MustListInfo(id)
	t := c.reg.MustLookup(id)
	if info.Elem == types.NoTypeID {
		diag.ReportError(c.reporter, diag.TypBadElement, t.Span,
			"%s has no element type", c.reg.DisplayName(id)).Emit()
		c.markError(id)
		return
	}
	if cat := c.reg.Category(c.reg.Resolved(info.Elem)); !valueCategory(cat) {
		diag.ReportError(c.reporter, diag.TypBadElement, c.spanOf(info.Elem),
			"element of %s cannot be of %s type", c.reg.DisplayName(id), cat).Emit()
		c.markError(id)
	}
	if t.Category == types.CatArray && info.Count <= 0 {
		diag.ReportError(c.reporter, diag.TypBadElement, t.Span,
			"array %s must have a positive dimension, got %d", c.reg.DisplayName(id), info.Count).Emit()
		c.markError(id)
	}
}

// valueCategory reports categories that can hold a value inside a structure.
func valueCategory(c types.Category) bool {
	switch c {
	case types.CatPort, types.CatSignature, types.CatClass, types.CatInvalid:
		return false
	}
	return true
}

func (c *checker) checkEnum(id types.TypeID) {
	info := c.reg.MustEnumInfo(id)
	names := map[string]int{}
	values := map[int64]int{}
	for i, it := range info.Items {
		if prev, dup := names[it.Name]; dup {
			diag.ReportError(c.reporter, diag.TypDuplicateEnumItem, it.Span,
				"duplicate enumeration item %q in %s", it.Name, c.reg.DisplayName(id)).
				WithNote(info.Items[prev].Span, "first declared here").
				Emit()
			c.markError(id)
		} else {
			names[it.Name] = i
		}
		if !it.HasValue {
			continue
		}
		if prev, dup := values[it.Value]; dup {
			diag.ReportError(c.reporter, diag.TypDuplicateEnumVal, it.Span,
				"items %q and %q of %s share the value %d",
				info.Items[prev].Name, it.Name, c.reg.DisplayName(id), it.Value).Emit()
			c.markError(id)
		} else {
			values[it.Value] = i
		}
	}
	info.AssignValues()
}
