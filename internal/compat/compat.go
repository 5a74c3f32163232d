// Package compat decides type compatibility: Compatible(a, b) holds when every value of
// b is also a value of a. The relation is not symmetric.
package compat

import (
	"fmt"
	"strings"

	"tycodec/internal/subtype"
	"tycodec/internal/types"
)

// Result explains a compatibility decision.
type Result struct {
	OK     bool
	Reason string
	// Path leads from the compared types to the offending component, e.g. [".hdr", "[-]"].
	Path []string
}

func ok() Result { return Result{OK: true} }

func fail(format string, args ...any) Result {
	return Result{Reason: fmt.Sprintf(format, args...)}
}

func (r Result) under(step string) Result {
	if r.OK {
		return r
	}
	r.Path = append([]string{step}, r.Path...)
	return r
}

// Where renders Path.
func (r Result) Where() string { return strings.Join(r.Path, "") }

// ConstraintFunc returns the effective subtype constraint of a type; nil is unrestricted.
type ConstraintFunc func(types.TypeID) *subtype.Constraint

// Checker compares types of one registry.
type Checker struct {
	reg  *types.Registry
	cons ConstraintFunc
}

// New returns a checker; cons may be nil when constraints are not tracked.
func New(reg *types.Registry, cons ConstraintFunc) *Checker {
	if cons == nil {
		cons = func(types.TypeID) *subtype.Constraint { return nil }
	}
	return &Checker{reg: reg, cons: cons}
}

// chains are the visited operands of the current descent, one slice per side. A pair
// that is already on both chains at the same depth is assumed compatible.
type chains struct {
	left, right []types.TypeID
}

func (c *chains) seen(a, b types.TypeID) bool {
	for i := range c.left {
		if c.left[i] == a && c.right[i] == b {
			return true
		}
	}
	return false
}

func (c *chains) push(a, b types.TypeID) {
	c.left = append(c.left, a)
	c.right = append(c.right, b)
}

func (c *chains) pop() {
	c.left = c.left[:len(c.left)-1]
	c.right = c.right[:len(c.right)-1]
}

// Compatible reports whether every value of b is a value of a.
func (c *Checker) Compatible(a, b types.TypeID) Result {
	return c.compatible(a, b, &chains{})
}

// CompatibleWithCategory checks a against an operand known only by its category.
func (c *Checker) CompatibleWithCategory(a types.TypeID, cat types.Category) Result {
	ra := c.reg.Resolved(a)
	ca := c.category(ra)
	if categoryAccepts(ca, cat, true) {
		return ok()
	}
	return fail("type %s is not compatible with values of category %s", c.reg.DisplayName(a), cat)
}

func (c *Checker) category(id types.TypeID) types.Category {
	cat := c.reg.Category(id)
	if cat.IsReference() {
		if info, ok := c.reg.RefInfo(id); ok && info.Target == types.NoTypeID {
			return info.Declared
		}
	}
	return cat
}

func (c *Checker) unfoldable(id types.TypeID) bool {
	info, ok := c.reg.RefInfo(id)
	return ok && info.Target == types.NoTypeID
}

func (c *Checker) compatible(a, b types.TypeID, ch *chains) Result {
	ra, rb := c.reg.Resolved(a), c.reg.Resolved(b)
	ca, cb := c.category(ra), c.category(rb)
	if ca == types.CatError || cb == types.CatError {
		return ok()
	}
	if c.unfoldable(rb) {
		return c.CompatibleWithCategory(ra, cb)
	}
	if c.unfoldable(ra) {
		if categoryAccepts(ca, cb, true) {
			return ok()
		}
		return fail("values of %s are not values of category %s", c.reg.DisplayName(b), ca)
	}
	if ch.seen(ra, rb) {
		return ok()
	}
	ch.push(ra, rb)
	defer ch.pop()

	var res Result
	switch {
	case ra == rb:
		res = ok()
	case ca.IsRecordLike():
		res = c.record(ra, rb, ch)
	case ca == types.CatSequenceOf || ca == types.CatSetOf:
		res = c.recordOf(ra, rb, ch)
	case ca == types.CatArray:
		res = c.array(ra, rb, ch)
	case ca.IsUnionLike():
		res = c.choice(ra, rb, ch)
	case identityOnly(ca):
		res = fail("%s and %s are distinct types", c.reg.DisplayName(ra), c.reg.DisplayName(rb))
	default:
		if categoryAccepts(ca, cb, false) {
			res = ok()
		} else {
			res = fail("type %s is not compatible with %s", c.reg.DisplayName(a), c.reg.DisplayName(b))
		}
	}
	if !res.OK {
		return res
	}
	if !c.cons(a).Contains(c.cons(b)) {
		return fail("subtype %s of %s does not contain subtype %s of %s",
			c.cons(a), c.reg.DisplayName(a), c.cons(b), c.reg.DisplayName(b))
	}
	return res
}

// identityOnly categories are compatible only with themselves.
func identityOnly(c types.Category) bool {
	switch c {
	case types.CatEnumT, types.CatEnumA, types.CatSignature, types.CatPort, types.CatComponent,
		types.CatFunction, types.CatAltstep, types.CatTestcase, types.CatDefault, types.CatClass,
		types.CatAddress:
		return true
	}
	return false
}

// categoryAccepts is the category level relation. loose accepts the paired notations of
// structured types too (used when one side is only known by category).
func categoryAccepts(a, b types.Category, loose bool) bool {
	if a == types.CatError || b == types.CatError {
		return true
	}
	if ga, gb := a.StringGroup(), b.StringGroup(); ga != types.NotString || gb != types.NotString {
		return stringAccepts(ga, gb)
	}
	switch a {
	case types.CatOctetString:
		return b == types.CatOctetString || b == types.CatAny
	case types.CatAny:
		return b == types.CatAny || b == types.CatOctetString
	case types.CatInt, types.CatIntA, types.CatBitString, types.CatBitStringA:
		return a.Base() == b.Base()
	case types.CatEnumT, types.CatEnumA:
		return loose && b.IsEnum()
	case types.CatChoiceT, types.CatChoiceA, types.CatOpenType:
		return loose && (b == types.CatChoiceT || b == types.CatChoiceA || b == types.CatOpenType)
	case types.CatSequenceT, types.CatSequenceA:
		return loose && (b == types.CatSequenceT || b == types.CatSequenceA)
	case types.CatSetT, types.CatSetA:
		return loose && b.IsSet()
	case types.CatAnyType:
		return loose && b == types.CatAnyType
	}
	return a == b
}

// stringAccepts implements the character string lattice.
func stringAccepts(a, b types.StringGroup) bool {
	if a == types.NotString || b == types.NotString {
		return false
	}
	switch a {
	case types.GroupUniversalCharString:
		return true
	case types.GroupUnicode:
		return b == types.GroupUniversalCharString || b == types.GroupUnicode || b == types.GroupASCII
	case types.GroupISO2022:
		return b == types.GroupUniversalCharString || b == types.GroupISO2022 || b == types.GroupASCII
	case types.GroupASCII:
		return b == types.GroupASCII
	}
	return false
}
