// Package codegen walks a checked type graph and produces one codec descriptor per type
// and enabled format.
//
// Descriptor data is owned by the first node of a reference chain that carries
// attributes for the format; everything after it shares the owner's data. Nodes that
// add nothing are aliases of their target and only get a descriptor of their own when
// they are type definitions.
package codegen

import (
	"fmt"
	"strings"

	"tycodec/internal/descriptor"
	"tycodec/internal/diag"
	"tycodec/internal/output"
	"tycodec/internal/sema"
	"tycodec/internal/seqof"
	"tycodec/internal/tagging"
	"tycodec/internal/trace"
	"tycodec/internal/types"
)

// Options select what is generated.
type Options struct {
	Formats types.FormatSet
	Layout  descriptor.Layout
	// MetainfoUnbound lets every JSON record and list carry unbound-element metainfo.
	MetainfoUnbound bool
	Reporter        diag.Reporter
	Tracer          trace.Tracer
	Parent          uint64
}

// Generator appends descriptors of one compilation unit to an accumulator.
type Generator struct {
	schemaBuilder
	tagger  *tagging.Tagger
	opts    Options
	acc     *output.Accumulator
	backend output.Backend
	visited map[types.TypeID]struct{}
	names   map[types.TypeID]string
	span    uint64
}

func New(res *sema.Result, acc *output.Accumulator, backend output.Backend, opts Options) *Generator {
	if opts.Reporter == nil {
		opts.Reporter = diag.NopReporter{}
	}
	if opts.Tracer == nil {
		opts.Tracer = trace.Nop
	}
	g := &Generator{
		schemaBuilder: schemaBuilder{reg: res.Registry(), res: res, metainfo: opts.MetainfoUnbound},
		tagger:        res.Tagger(),
		opts:          opts,
		acc:           acc,
		backend:       backend,
		visited:       make(map[types.TypeID]struct{}),
		names:         make(map[types.TypeID]string),
	}
	return g
}

// Generate emits every type definition of every module, dependencies first.
func (g *Generator) Generate() {
	sp := trace.Begin(g.opts.Tracer, trace.ScopePass, "codegen", g.opts.Parent)
	g.span = sp.ID()
	for _, mod := range g.reg.Modules() {
		for _, id := range g.reg.Definitions(mod) {
			g.gen(id)
		}
	}
	sp.End(fmt.Sprintf("%d descriptors", g.acc.Table.Len()))
}

// Type emits id (and what it depends on) and returns the descriptor name its users refer to.
func (g *Generator) Type(id types.TypeID) string {
	g.gen(id)
	return g.descrFor(id)
}

func (g *Generator) gen(id types.TypeID) {
	if id == types.NoTypeID || g.reg.IsBuiltin(id) {
		return
	}
	if _, done := g.visited[id]; done {
		return
	}
	g.visited[id] = struct{}{}
	if g.res.IsErroneous(id) {
		return
	}

	before, after := g.deps(id)
	for _, dep := range before {
		g.gen(dep)
	}
	var sp *trace.Span
	if g.opts.Tracer.Level() >= trace.LevelDebug {
		sp = trace.Begin(g.opts.Tracer, trace.ScopeType, g.reg.DisplayName(id), g.span)
	}
	g.emit(id)
	sp.End("")
	for _, dep := range after {
		g.gen(dep)
	}
}

// deps splits the nodes id depends on into those generated before it (mandatory
// fields, same-module targets, parameters, array elements) and after it (optional
// fields, alternatives, record-of elements).
func (g *Generator) deps(id types.TypeID) (before, after []types.TypeID) {
	t := g.reg.MustLookup(id)
	switch c := t.Category; {
	case c.IsRecordLike():
		for _, f := range g.reg.MustRecordInfo(id).Fields.Entries() {
			if f.Optional {
				after = append(after, f.Type)
			} else {
				before = append(before, f.Type)
			}
		}
	case c.IsUnionLike():
		for _, f := range g.reg.MustRecordInfo(id).Fields.Entries() {
			after = append(after, f.Type)
		}
	case c == types.CatArray:
		before = append(before, g.reg.MustListInfo(id).Elem)
	case c.IsListLike():
		after = append(after, g.reg.MustListInfo(id).Elem)
	case c.IsReference():
		chain, err := g.reg.ReferenceChain(id)
		if err != nil || len(chain) < 2 {
			break
		}
		if m := g.reg.MustLookup(chain[1]).Module; m == "" || m == t.Module {
			before = append(before, chain[1])
		}
	case c == types.CatSignature:
		sig := g.reg.MustSignatureInfo(id)
		for _, p := range sig.Params {
			before = append(before, p.Type)
		}
		if sig.Return != types.NoTypeID {
			before = append(before, sig.Return)
		}
		before = append(before, sig.Exceptions...)
	}
	return before, after
}

func (g *Generator) emit(id types.TypeID) {
	t := g.reg.MustLookup(id)
	if !describable(t.Category) {
		return
	}
	g.reportSkipped(id)
	name := g.name(id)
	if target, ok := g.aliasTarget(id); ok {
		if t.Owner != types.OwnerTypeDef {
			return
		}
		g.add(&descriptor.Descriptor{
			Name:     name,
			Type:     g.reg.DisplayName(id),
			Module:   t.Module,
			Category: g.valueCategory(id),
			Alias:    target,
			Visible:  true,
		})
		return
	}

	d := &descriptor.Descriptor{
		Name:     name,
		Type:     g.reg.DisplayName(id),
		Module:   t.Module,
		Category: g.valueCategory(id),
		Visible:  t.Owner == types.OwnerTypeDef,
	}
	for _, f := range types.AllFormats {
		if g.opts.Formats.Has(f) {
			g.part(d, id, f)
		}
	}
	g.members(d, id)
	if c := g.res.Effective(id); c != nil && !c.Unrestricted() {
		d.Constraint = c.String()
	}
	g.add(d)
}

func (g *Generator) add(d *descriptor.Descriptor) {
	if _, added := g.acc.Table.Add(d); !added {
		return
	}
	g.backend.Descriptor(g.acc, d)
	if d.List != nil {
		g.backend.ListCodec(g.acc, d)
	}
}

// members fills fields, items and the list codec from the resolved node.
func (g *Generator) members(d *descriptor.Descriptor, id types.TypeID) {
	res := g.reg.Resolved(id)
	switch c := g.reg.Category(res); {
	case c.IsStructural():
		for _, f := range g.reg.MustRecordInfo(res).Fields.Entries() {
			d.Fields = append(d.Fields, descriptor.Field{Name: f.Name, Descr: g.descrFor(f.Type), Optional: f.Optional})
		}
		d.Order = g.tagger.CodegenOrder(res)
	case c.IsEnum():
		for _, it := range g.reg.MustEnumInfo(res).Items {
			d.Items = append(d.Items, descriptor.Item{Name: it.Name, Value: it.Value})
		}
	case c.IsListLike():
		info := g.reg.MustListInfo(res)
		var dim int64
		if c == types.CatArray {
			dim = info.Count
		}
		d.List = seqof.Emit(d, g.descrFor(info.Elem), g.opts.Layout, c == types.CatSetOf, dim)
	case c == types.CatSignature:
		for _, p := range g.reg.MustSignatureInfo(res).Params {
			d.Fields = append(d.Fields, descriptor.Field{Name: p.Name, Descr: g.descrFor(p.Type)})
		}
	}
}

// Naming ---------------------------------------------------------------------

// name is the descriptor name of id itself: the module-qualified generated name.
func (g *Generator) name(id types.TypeID) string {
	if n, ok := g.names[id]; ok {
		return n
	}
	var n string
	if g.reg.IsBuiltin(id) {
		n = types.BuiltinGenName(g.reg.Category(id))
	} else {
		n = g.reg.GenName(id)
		if mod := g.reg.MustLookup(id).Module; mod != "" {
			n = mangle(mod) + "_" + n
		}
	}
	g.names[id] = n
	return n
}

// descrFor is the descriptor name users of id refer to.
func (g *Generator) descrFor(id types.TypeID) string {
	switch {
	case id == types.NoTypeID:
		return ""
	case g.res.IsErroneous(id):
		return g.builtin(types.CatError)
	case g.reg.IsBuiltin(id):
		return g.builtin(g.reg.Category(id))
	}
	if target, ok := g.aliasTarget(id); ok && g.reg.MustLookup(id).Owner != types.OwnerTypeDef {
		return target
	}
	return g.name(id)
}

// aliasTarget reports whether id adds nothing to the node it stands for, and names
// that node's descriptor.
func (g *Generator) aliasTarget(id types.TypeID) (string, bool) {
	t := g.reg.MustLookup(id)
	if len(g.reg.Attrs(id).Restrictions) > 0 {
		return "", false
	}
	for _, f := range types.AllFormats {
		if g.opts.Formats.Has(f) && g.ownsFormat(id, f) {
			return "", false
		}
	}
	switch {
	case t.Category.IsReference():
		chain, err := g.reg.ReferenceChain(id)
		if err != nil || len(chain) < 2 {
			return "", false
		}
		return g.descrFor(chain[1]), true
	case plain(t.Category):
		return g.builtin(t.Category), true
	}
	return "", false
}

// builtin registers the runtime descriptor of c and returns its name.
func (g *Generator) builtin(c types.Category) string {
	name := types.BuiltinGenName(c)
	if _, ok := g.acc.Table.Lookup(name); !ok {
		g.acc.Table.Add(&descriptor.Descriptor{Name: name, Type: c.String(), Category: c, Builtin: true})
	}
	return name
}

func describable(c types.Category) bool {
	switch c {
	case types.CatInvalid, types.CatError, types.CatPort, types.CatComponent, types.CatClass,
		types.CatFunction, types.CatAltstep, types.CatTestcase, types.CatDefault:
		return false
	}
	return true
}

// plain categories have no payload of their own, so a node without attributes is the
// built-in type.
func plain(c types.Category) bool {
	return describable(c) && !c.IsStructural() && !c.IsListLike() && !c.IsEnum() &&
		!c.IsReference() && c != types.CatSignature
}

func mangle(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		}
		return '_'
	}, s)
}
