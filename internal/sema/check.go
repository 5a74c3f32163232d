// Package sema runs the structural passes over a type graph: reference resolution,
// recursion, tagging, subtype aggregation and coding-method resolution.
//
// Passes are ordered and only communicate through the Result. A type that fails a
// check is recorded as erroneous; later passes and the generator treat it as the
// error placeholder instead of cascading.
package sema

import (
	"tycodec/internal/compat"
	"tycodec/internal/diag"
	"tycodec/internal/source"
	"tycodec/internal/subtype"
	"tycodec/internal/tagging"
	"tycodec/internal/trace"
	"tycodec/internal/types"
)

// Options configure a semantic pass over a registry.
type Options struct {
	Reporter diag.Reporter
	Tracer   trace.Tracer
	// Parent is the span the pass spans hang under.
	Parent uint64
}

type methodKey struct {
	id  types.TypeID
	dir types.Direction
}

// Result stores the artefacts produced by the passes.
type Result struct {
	reg       *types.Registry
	tagger    *tagging.Tagger
	erroneous map[types.TypeID]struct{}
	// Constraints holds effective constraints; a missing entry is unrestricted.
	Constraints map[types.TypeID]*subtype.Constraint
	methods     map[methodKey]types.CodingMethod
	// AutoTags lists the automatic tag numbers given to the fields of each structure.
	AutoTags map[types.TypeID][]uint32
}

func newResult(reg *types.Registry) *Result {
	return &Result{
		reg:         reg,
		tagger:      tagging.New(reg),
		erroneous:   make(map[types.TypeID]struct{}),
		Constraints: make(map[types.TypeID]*subtype.Constraint),
		methods:     make(map[methodKey]types.CodingMethod),
		AutoTags:    make(map[types.TypeID][]uint32),
	}
}

// Check runs every pass over the user types of reg.
func Check(reg *types.Registry, opts Options) *Result {
	res := newResult(reg)
	c := &checker{
		reg:      reg,
		reporter: opts.Reporter,
		tracer:   opts.Tracer,
		tagger:   res.tagger,
		res:      res,
		busy:     make(map[types.TypeID]struct{}),
	}
	if c.reporter == nil {
		c.reporter = diag.NopReporter{}
	}
	if c.tracer == nil {
		c.tracer = trace.Nop
	}

	passes := []struct {
		name string
		run  func()
	}{
		{"resolve", c.resolvePass},
		{"recursion", c.recursionPass},
		{"tags", c.tagPass},
		{"subtype", c.subtypePass},
		{"coding", c.codingPass},
	}
	for _, p := range passes {
		sp := trace.Begin(c.tracer, trace.ScopePass, "sema."+p.name, opts.Parent)
		c.span = sp.ID()
		p.run()
		sp.End("")
	}
	return res
}

type checker struct {
	reg      *types.Registry
	reporter diag.Reporter
	tracer   trace.Tracer
	tagger   *tagging.Tagger
	res      *Result
	span     uint64
	// busy guards the effective-constraint recursion.
	busy map[types.TypeID]struct{}
}

// each calls fn for every user type that is not yet erroneous.
func (c *checker) each(fn func(id types.TypeID, t types.Type)) {
	for _, id := range c.reg.UserTypes() {
		if c.res.IsErroneous(id) {
			continue
		}
		t := c.reg.MustLookup(id)
		var sp *trace.Span
		if c.tracer.Level() >= trace.LevelDebug {
			sp = trace.Begin(c.tracer, trace.ScopeType, c.reg.DisplayName(id), c.span)
		}
		fn(id, t)
		sp.End("")
	}
}

func (c *checker) markError(id types.TypeID) {
	c.res.erroneous[id] = struct{}{}
}

func (c *checker) spanOf(id types.TypeID) source.Span {
	t, _ := c.reg.Lookup(id)
	return t.Span
}

// Registry returns the checked registry.
func (r *Result) Registry() *types.Registry { return r.reg }

// Tagger returns the tagger used by the passes; its tag cache is valid after Check.
func (r *Result) Tagger() *tagging.Tagger { return r.tagger }

// IsErroneous reports whether id, or the node it resolves to, failed a check.
func (r *Result) IsErroneous(id types.TypeID) bool {
	if _, bad := r.erroneous[id]; bad {
		return true
	}
	res, err := r.reg.ResolveReference(id)
	if err != nil {
		return true
	}
	if r.reg.Category(res) == types.CatError {
		return true
	}
	_, bad := r.erroneous[res]
	return bad
}

// Type returns id, or the error placeholder when id is erroneous.
func (r *Result) Type(id types.TypeID) types.TypeID {
	if r.IsErroneous(id) {
		return r.reg.Error()
	}
	return id
}

// Erroneous lists the nodes that failed a check, in ID order.
func (r *Result) Erroneous() []types.TypeID {
	var out []types.TypeID
	for _, id := range r.reg.UserTypes() {
		if _, bad := r.erroneous[id]; bad {
			out = append(out, id)
		}
	}
	return out
}

// Effective returns the effective subtype constraint of id; nil means unrestricted.
func (r *Result) Effective(id types.TypeID) *subtype.Constraint {
	return r.Constraints[id]
}

// Method returns the coding method resolved for id in direction dir.
func (r *Result) Method(id types.TypeID, dir types.Direction) types.CodingMethod {
	return r.methods[methodKey{id, dir}]
}

// Compat returns a compatibility checker that uses the effective constraints.
func (r *Result) Compat() *compat.Checker {
	return compat.New(r.reg, r.Effective)
}

// RequireCompatible reports a CmpIncompatible error at span when a value of b cannot
// be used where a is expected.
func (r *Result) RequireCompatible(rep diag.Reporter, a, b types.TypeID, span source.Span) bool {
	res := r.Compat().Compatible(a, b)
	if res.OK {
		return true
	}
	msg := res.Reason
	if where := res.Where(); where != "" {
		msg = where + ": " + msg
	}
	diag.ReportError(rep, diag.CmpIncompatible, span, "type %s is not compatible with %s",
		r.reg.DisplayName(b), r.reg.DisplayName(a)).
		WithNote(span, msg).
		Emit()
	return false
}
