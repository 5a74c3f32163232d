package sema

import (
	"tycodec/internal/diag"
	"tycodec/internal/subtype"
	"tycodec/internal/types"
)

func (c *checker) subtypePass() {
	c.each(func(id types.TypeID, _ types.Type) {
		c.effective(id)
	})
}

// effective computes and caches the effective constraint of id: its own restrictions
// narrowed by the effective constraint of the node it refers to.
func (c *checker) effective(id types.TypeID) *subtype.Constraint {
	if cons, done := c.res.Constraints[id]; done {
		return cons
	}
	if _, busy := c.busy[id]; busy {
		return nil
	}
	c.busy[id] = struct{}{}
	defer delete(c.busy, id)

	var parent *subtype.Constraint
	if chain, err := c.reg.ReferenceChain(id); err == nil && len(chain) > 1 {
		parent = c.effective(chain[1])
	}

	own := c.reg.Attrs(id).Restrictions
	if len(own) == 0 {
		c.res.Constraints[id] = parent
		return parent
	}

	span := c.spanOf(id)
	target := TargetOf(c.reg.Category(c.reg.Resolved(id)))
	built, rejected := subtype.Build(target, own)
	for _, r := range rejected {
		diag.ReportError(c.reporter, diag.SubNotApplicable, span,
			"%s restriction is not applicable to %s", restrictionName(r.Kind), c.reg.DisplayName(id)).Emit()
		c.markError(id)
	}
	for _, r := range own {
		if r.Kind != subtype.RestrictPattern {
			continue
		}
		if err := subtype.ValidatePattern(r.Pattern); err != nil {
			diag.ReportError(c.reporter, diag.SubNotApplicable, span, "%v", err).Emit()
			c.markError(id)
		}
	}
	if built.Widens(parent) {
		diag.ReportError(c.reporter, diag.SubWiden, span,
			"restriction %s of %s is not a subset of the inherited %s",
			built, c.reg.DisplayName(id), parent).Emit()
		c.markError(id)
	}

	eff := built.Narrow(parent)
	if eff.Empty() {
		diag.ReportError(c.reporter, diag.SubEmpty, span,
			"%s admits no value: %s", c.reg.DisplayName(id), eff).Emit()
		c.markError(id)
	}
	c.res.Constraints[id] = eff
	return eff
}

// TargetOf maps a resolved category onto the kind of value its restrictions apply to.
func TargetOf(c types.Category) subtype.Target {
	switch {
	case c.IsInteger():
		return subtype.TargetInteger
	case c == types.CatReal:
		return subtype.TargetFloat
	case c.IsString():
		return subtype.TargetString
	case c.IsListLike():
		return subtype.TargetList
	case c == types.CatBool:
		return subtype.TargetBool
	case c.IsEnum():
		return subtype.TargetEnum
	}
	return subtype.TargetNone
}

func restrictionName(k subtype.RestrictionKind) string {
	switch k {
	case subtype.RestrictRange:
		return "range"
	case subtype.RestrictFloatRange:
		return "float range"
	case subtype.RestrictSize:
		return "length"
	case subtype.RestrictValues:
		return "value list"
	case subtype.RestrictAlphabet:
		return "permitted alphabet"
	case subtype.RestrictPattern:
		return "pattern"
	}
	return "unknown"
}
