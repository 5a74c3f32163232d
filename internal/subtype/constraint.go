// Package subtype aggregates value restrictions. A type's effective constraint is its own
// restrictions intersected with the effective constraint of the type it refers to;
// aggregation never widens.
package subtype

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
)

// Target is the kind of value a constraint applies to; it decides how size
// restrictions are rendered (string length vs. element count).
type Target uint8

const (
	TargetNone Target = iota
	TargetInteger
	TargetFloat
	TargetString
	TargetList
	TargetBool
	TargetEnum
)

// RestrictionKind enumerates parsed restriction forms.
type RestrictionKind uint8

const (
	RestrictRange RestrictionKind = iota + 1
	RestrictFloatRange
	RestrictSize
	RestrictValues
	RestrictAlphabet
	RestrictPattern
)

// Restriction is one parsed restriction as attached by the front end.
type Restriction struct {
	Kind     RestrictionKind
	Ints     []IntRange
	Floats   []FloatRange
	NaN      bool
	Sizes    []IntRange
	Values   []Value
	Alphabet string
	Pattern  string
}

// Constraint is an effective constraint. The zero value permits everything.
type Constraint struct {
	Target   Target
	ints     *IntSet
	floats   *FloatSet
	sizes    *IntSet
	values   []Value // nil: no value list
	alphabet *string
	patterns []string
	compiled []*regexp.Regexp
}

// Build folds restrictions into a constraint. Restrictions that do not apply to the
// target are returned so the caller can report them.
func Build(target Target, rs []Restriction) (*Constraint, []Restriction) {
	c := &Constraint{Target: target}
	var rejected []Restriction
	for _, r := range rs {
		if !applicable(target, r.Kind) {
			rejected = append(rejected, r)
			continue
		}
		switch r.Kind {
		case RestrictRange:
			c.ints = c.ints.Intersect(NewIntSet(r.Ints...))
		case RestrictFloatRange:
			c.floats = c.floats.Intersect(NewFloatSet(r.NaN, r.Floats...))
		case RestrictSize:
			sizes := NewIntSet(r.Sizes...).Intersect(NewIntSet(AtLeast(0)))
			c.sizes = c.sizes.Intersect(sizes)
		case RestrictValues:
			c.values = intersectValues(c.values, r.Values)
		case RestrictAlphabet:
			c.alphabet = intersectAlphabet(c.alphabet, r.Alphabet)
		case RestrictPattern:
			c.addPattern(r.Pattern)
		}
	}
	return c, rejected
}

func applicable(t Target, k RestrictionKind) bool {
	switch k {
	case RestrictRange:
		return t == TargetInteger
	case RestrictFloatRange:
		return t == TargetFloat
	case RestrictSize:
		return t == TargetString || t == TargetList
	case RestrictAlphabet, RestrictPattern:
		return t == TargetString
	case RestrictValues:
		return true
	}
	return false
}

func (c *Constraint) addPattern(p string) {
	if slices.Contains(c.patterns, p) {
		return
	}
	c.patterns = append(c.patterns, p)
	if re, err := regexp.Compile("^(?:" + p + ")$"); err == nil {
		c.compiled = append(c.compiled, re)
	}
}

// ValidatePattern reports a pattern the constraint would be unable to match with.
func ValidatePattern(p string) error {
	if _, err := regexp.Compile("^(?:" + p + ")$"); err != nil {
		return fmt.Errorf("invalid pattern %q: %w", p, err)
	}
	return nil
}

// Unrestricted reports whether c permits every value of its target.
func (c *Constraint) Unrestricted() bool {
	return c == nil || (c.ints == nil && c.floats == nil && c.sizes == nil &&
		c.values == nil && c.alphabet == nil && len(c.patterns) == 0)
}

// Empty reports whether no value satisfies c.
func (c *Constraint) Empty() bool {
	if c == nil {
		return false
	}
	if c.ints.IsEmpty() || c.floats.IsEmpty() || c.sizes.IsEmpty() {
		return true
	}
	if c.values != nil {
		for _, v := range c.values {
			if c.permitsRanges(v) {
				return false
			}
		}
		return true
	}
	return false
}

// Narrow returns c ∩ parent. Neither operand is modified.
func (c *Constraint) Narrow(parent *Constraint) *Constraint {
	if parent == nil {
		return c.Clone()
	}
	if c == nil {
		return parent.Clone()
	}
	out := &Constraint{Target: c.Target}
	if out.Target == TargetNone {
		out.Target = parent.Target
	}
	out.ints = c.ints.Intersect(parent.ints)
	out.floats = c.floats.Intersect(parent.floats)
	out.sizes = c.sizes.Intersect(parent.sizes)
	switch {
	case c.values != nil && parent.values != nil:
		out.values = intersectValues(c.values, parent.values)
	case c.values != nil:
		out.values = slices.Clone(c.values)
	case parent.values != nil:
		out.values = slices.Clone(parent.values)
	}
	out.alphabet = c.alphabet
	if parent.alphabet != nil {
		out.alphabet = intersectAlphabet(out.alphabet, *parent.alphabet)
	}
	for _, p := range parent.patterns {
		out.addPattern(p)
	}
	for _, p := range c.patterns {
		out.addPattern(p)
	}
	if out.values != nil {
		kept := out.values[:0]
		for _, v := range out.values {
			if out.permitsRanges(v) {
				kept = append(kept, v)
			}
		}
		out.values = kept
	}
	return out
}

// Permits reports whether v satisfies every restriction.
func (c *Constraint) Permits(v Value) bool {
	if c == nil {
		return true
	}
	if c.values != nil && !slices.ContainsFunc(c.values, v.Equal) {
		return false
	}
	return c.permitsRanges(v)
}

func (c *Constraint) permitsRanges(v Value) bool {
	switch v.Kind {
	case ValInt:
		if !c.ints.Has(v.Int) {
			return false
		}
	case ValFloat:
		if !c.floats.Has(v.Float) {
			return false
		}
	}
	if n, ok := v.length(); ok && !c.sizes.Has(n) {
		return false
	}
	if v.Kind == ValString {
		if c.alphabet != nil {
			for _, r := range v.Str {
				if !strings.ContainsRune(*c.alphabet, r) {
					return false
				}
			}
		}
		for _, re := range c.compiled {
			if !re.MatchString(v.Str) {
				return false
			}
		}
	}
	return true
}

// Contains reports whether every value permitted by other is permitted by c.
// Patterns are compared syntactically, which is conservative.
func (c *Constraint) Contains(other *Constraint) bool {
	if c.Unrestricted() {
		return true
	}
	if other.Empty() {
		return true
	}
	if other != nil && other.values != nil {
		for _, v := range other.values {
			if other.permitsRanges(v) && !c.Permits(v) {
				return false
			}
		}
		return true
	}
	if c.values != nil {
		return false
	}
	var o Constraint
	if other != nil {
		o = *other
	}
	if !o.ints.SubsetOf(c.ints) || !o.floats.SubsetOf(c.floats) || !o.sizes.SubsetOf(c.sizes) {
		return false
	}
	if c.alphabet != nil {
		if o.alphabet == nil {
			return false
		}
		for _, r := range *o.alphabet {
			if !strings.ContainsRune(*c.alphabet, r) {
				return false
			}
		}
	}
	for _, p := range c.patterns {
		if !slices.Contains(o.patterns, p) {
			return false
		}
	}
	return true
}

// Widens reports whether c admits, in a dimension it restricts itself, a value
// the parent excludes. Dimensions c leaves open and patterns are not compared.
func (c *Constraint) Widens(parent *Constraint) bool {
	if c == nil || parent.Unrestricted() {
		return false
	}
	if c.ints != nil && !c.ints.SubsetOf(parent.ints) {
		return true
	}
	if c.floats != nil && !c.floats.SubsetOf(parent.floats) {
		return true
	}
	if c.sizes != nil && !c.sizes.SubsetOf(parent.sizes) {
		return true
	}
	for _, v := range c.values {
		if c.permitsRanges(v) && !parent.Permits(v) {
			return true
		}
	}
	if c.alphabet != nil && parent.alphabet != nil {
		for _, r := range *c.alphabet {
			if !strings.ContainsRune(*parent.alphabet, r) {
				return true
			}
		}
	}
	return false
}

// Clone returns an independent copy.
func (c *Constraint) Clone() *Constraint {
	if c == nil {
		return nil
	}
	out := *c
	out.values = slices.Clone(c.values)
	out.patterns = slices.Clone(c.patterns)
	out.compiled = slices.Clone(c.compiled)
	return &out
}

func (c *Constraint) Ints() *IntSet     { return c.get().ints }
func (c *Constraint) Floats() *FloatSet { return c.get().floats }
func (c *Constraint) Sizes() *IntSet    { return c.get().sizes }
func (c *Constraint) Values() []Value   { return slices.Clone(c.get().values) }
func (c *Constraint) Patterns() []string {
	return slices.Clone(c.get().patterns)
}

// FixedSize returns n when the size restriction admits exactly one length.
func (c *Constraint) FixedSize() (int64, bool) {
	s := c.get().sizes
	if s == nil || len(s.ranges) != 1 || s.ranges[0].Lo != s.ranges[0].Hi {
		return 0, false
	}
	return s.ranges[0].Lo, true
}

func (c *Constraint) get() *Constraint {
	if c == nil {
		return &Constraint{}
	}
	return c
}

func (c *Constraint) String() string {
	if c.Unrestricted() {
		return "<unrestricted>"
	}
	var parts []string
	if c.values != nil {
		vs := make([]string, len(c.values))
		for i, v := range c.values {
			vs[i] = v.String()
		}
		parts = append(parts, "("+strings.Join(vs, ", ")+")")
	}
	if c.ints != nil {
		parts = append(parts, c.ints.String())
	}
	if c.floats != nil {
		parts = append(parts, fmt.Sprintf("float%v", c.floats.ranges))
	}
	if c.sizes != nil {
		parts = append(parts, "length"+c.sizes.String())
	}
	if c.alphabet != nil {
		parts = append(parts, fmt.Sprintf("from(%q)", *c.alphabet))
	}
	for _, p := range c.patterns {
		parts = append(parts, fmt.Sprintf("pattern %q", p))
	}
	return strings.Join(parts, " ")
}

func intersectValues(a, b []Value) []Value {
	if a == nil {
		return slices.Clone(b)
	}
	out := make([]Value, 0, len(a))
	for _, v := range a {
		if slices.ContainsFunc(b, v.Equal) && !slices.ContainsFunc(out, v.Equal) {
			out = append(out, v)
		}
	}
	return out
}

func intersectAlphabet(cur *string, next string) *string {
	if cur == nil {
		s := next
		return &s
	}
	var b strings.Builder
	for _, r := range next {
		if strings.ContainsRune(*cur, r) && !strings.ContainsRune(b.String(), r) {
			b.WriteRune(r)
		}
	}
	s := b.String()
	return &s
}
