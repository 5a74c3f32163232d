package tagging

import (
	"slices"

	"tycodec/internal/source"
	"tycodec/internal/tags"
	"tycodec/internal/types"
)

// Tagger answers tag questions over one registry.
type Tagger struct {
	reg *types.Registry
}

func New(reg *types.Registry) *Tagger {
	return &Tagger{reg: reg}
}

// chain returns the reference chain of id; a broken chain is cut at the failure.
func (t *Tagger) chain(id types.TypeID) []types.TypeID {
	chain, err := t.reg.ReferenceChain(id)
	if err != nil {
		// the last element repeats an earlier one for cycles
		if len(chain) > 1 {
			return chain[:len(chain)-1]
		}
	}
	return chain
}

// IsTagged reports whether id or anything it refers to carries an explicit tag.
func (t *Tagger) IsTagged(id types.TypeID) bool {
	for _, n := range t.chain(id) {
		if len(t.reg.Attrs(n).Tags) > 0 {
			return true
		}
	}
	return false
}

// untaggedChoice reports whether id resolves to a union-like type without any tag.
func (t *Tagger) untaggedChoice(id types.TypeID) bool {
	res := t.reg.Resolved(id)
	return t.reg.Category(res).IsUnionLike() && !t.IsTagged(id)
}

// Tag is the outermost tag of id: the first explicit tag along the reference chain or
// the universal tag of the resolved category.
func (t *Tagger) Tag(id types.TypeID) (tags.Value, bool) {
	chain := t.chain(id)
	for _, n := range chain {
		if ts := t.reg.Attrs(n).Tags; len(ts) > 0 {
			return ts[0].Value(), true
		}
	}
	last := chain[len(chain)-1]
	c := t.reg.Category(last)
	if c == types.CatError {
		return tags.Value{Class: tags.Error}, true
	}
	if c.IsReference() {
		if info, ok := t.reg.RefInfo(last); ok && info.Declared != types.CatInvalid {
			c = info.Declared
		}
	}
	return DefaultTag(c)
}

// Tags returns the collection of tags a value of id can start with.
func (t *Tagger) Tags(id types.TypeID) *tags.Collection {
	return t.collect(id, map[types.TypeID]struct{}{})
}

func (t *Tagger) collect(id types.TypeID, visited map[types.TypeID]struct{}) *tags.Collection {
	out := &tags.Collection{}
	if v, ok := t.Tag(id); ok {
		out.Add(v)
		return out
	}
	res := t.reg.Resolved(id)
	switch t.reg.Category(res) {
	case types.CatOpenType, types.CatAny, types.CatAnyType:
		out.Add(tags.Value{Class: tags.All})
		return out
	}
	if _, seen := visited[res]; seen {
		return out
	}
	visited[res] = struct{}{}
	info, ok := t.reg.RecordInfo(res)
	if !ok {
		return out
	}
	for _, f := range info.Fields.Entries() {
		out.AddCollection(t.collect(f.Type, visited))
	}
	if info.Extensible {
		out.SetExtensible()
	}
	return out
}

// SmallestTag is the smallest tag id can start with; alternatives of untagged
// choices are searched recursively.
func (t *Tagger) SmallestTag(id types.TypeID) (tags.Value, bool) {
	return t.smallest(id, map[types.TypeID]struct{}{})
}

func (t *Tagger) smallest(id types.TypeID, visited map[types.TypeID]struct{}) (tags.Value, bool) {
	if v, ok := t.Tag(id); ok {
		return v, true
	}
	res := t.reg.Resolved(id)
	if _, seen := visited[res]; seen {
		return tags.Value{}, false
	}
	visited[res] = struct{}{}
	info, ok := t.reg.RecordInfo(res)
	if !ok {
		return tags.Value{}, false
	}
	var best tags.Value
	found := false
	for _, f := range info.Fields.Entries() {
		v, ok := t.smallest(f.Type, visited)
		if ok && (!found || v.Less(best)) {
			best, found = v, true
		}
	}
	return best, found
}

// implicit decides the effective plicity of a tag written on node.
func (t *Tagger) implicit(node types.TypeID, spec *tags.Spec) bool {
	switch spec.Plicity {
	case tags.Explicit:
		return false
	case tags.Implicit:
		return true
	}
	mod := t.reg.MustLookup(node).Module
	return t.reg.ModuleDefault(mod) != tags.DefaultExplicit
}

// JoinedTags is the BER tag chain of id, innermost first. Explicit tags append;
// implicit tags overwrite the last tag. An untagged choice never takes an implicit
// tag: there is nothing to overwrite, so the tag is appended.
func (t *Tagger) JoinedTags(id types.TypeID) []tags.Value {
	chain := t.chain(id)
	var out []tags.Value
	last := chain[len(chain)-1]
	c := t.reg.Category(last)
	if c.IsReference() {
		if info, ok := t.reg.RefInfo(last); ok && info.Declared != types.CatInvalid {
			c = info.Declared
		}
	}
	if v, ok := DefaultTag(c); ok {
		out = append(out, v)
	}
	for i := len(chain) - 1; i >= 0; i-- {
		n := chain[i]
		specs := t.reg.Attrs(n).Tags
		for j := len(specs) - 1; j >= 0; j-- {
			spec := &specs[j]
			v := spec.Value()
			if t.implicit(n, spec) && len(out) > 0 {
				out[len(out)-1] = v
				continue
			}
			out = append(out, v)
		}
	}
	return out
}

// Unit-level operations ------------------------------------------------------

// AssignAutomatic gives the untagged fields of a SEQUENCE, SET or CHOICE automatic
// context tags 0, 1, 2, ... in declaration order, skipping numbers already used by
// explicit context tags. Only tags written on the field count; a tagged definition the
// field refers to still gets an automatic tag on top. Under AUTOMATIC tagging every
// structured type is processed; under IMPLICIT only those without any tagged field. Fields referring to shared
// type definitions get a private reference node so the definition stays untouched.
// It returns the assigned numbers in field order.
func (t *Tagger) AssignAutomatic(id types.TypeID) []uint32 {
	node := t.reg.MustLookup(id)
	switch node.Category {
	case types.CatSequenceA, types.CatSetA, types.CatChoiceA:
	default:
		return nil
	}
	mode := t.reg.ModuleDefault(node.Module)
	info := t.reg.MustRecordInfo(id)
	fields := info.Fields.Entries()

	used := map[uint32]struct{}{}
	anyTagged := false
	for _, f := range fields {
		if !t.owned(id, f) {
			continue
		}
		for _, s := range t.reg.Attrs(f.Type).Tags {
			if s.Automatic {
				continue
			}
			anyTagged = true
			if v := s.Value(); v.Class == tags.Context {
				used[v.Number] = struct{}{}
			}
		}
	}
	switch {
	case mode == tags.DefaultAutomatic:
	case mode == tags.DefaultImplicit && !anyTagged:
	default:
		return nil
	}

	var assigned []uint32
	next := uint32(0)
	for i, f := range fields {
		if t.owned(id, f) && hasOwnTag(t.reg, f.Type) {
			continue
		}
		for {
			if _, taken := used[next]; !taken {
				break
			}
			next++
		}
		target := t.private(id, i, f)
		t.reg.AddTag(target, tags.NewAutoSpec(next))
		used[next] = struct{}{}
		assigned = append(assigned, next)
	}
	return assigned
}

func hasOwnTag(reg *types.Registry, id types.TypeID) bool {
	return len(reg.Attrs(id).Tags) > 0
}

// owned reports whether the type of field f belongs to rec itself. Tags on a shared
// definition are not tags written on the field.
func (t *Tagger) owned(rec types.TypeID, f types.FieldEntry) bool {
	ft, ok := t.reg.Lookup(f.Type)
	return ok && ft.Parent == rec && ft.FieldName == f.Name
}

// private returns a node owned by field i of rec, creating a reference when the field
// type is shared.
func (t *Tagger) private(rec types.TypeID, i int, f types.FieldEntry) types.TypeID {
	if t.owned(rec, f) {
		return f.Type
	}
	ref := t.reg.NewReference("", "", f.Type, f.Span)
	t.reg.SetFieldType(rec, i, ref)
	return ref
}

// CutAutoTags removes automatically assigned tags from the fields of id.
func (t *Tagger) CutAutoTags(id types.TypeID) {
	info, ok := t.reg.RecordInfo(id)
	if !ok {
		return
	}
	for _, f := range info.Fields.Entries() {
		a := t.reg.Attrs(f.Type)
		a.Tags = slices.DeleteFunc(a.Tags, func(s tags.Spec) bool { return s.Automatic })
	}
}

// CodegenOrder returns the field indices of a SET in canonical order: ascending by
// smallest tag. Other types keep declaration order.
func (t *Tagger) CodegenOrder(id types.TypeID) []int {
	n := t.reg.FieldCount(id)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	if !t.reg.Category(t.reg.Resolved(id)).IsSet() {
		return order
	}
	info := t.reg.MustRecordInfo(t.reg.Resolved(id))
	keys := make([]tags.Value, n)
	for i := range n {
		f, _ := info.Fields.At(i)
		keys[i], _ = t.SmallestTag(f.Type)
	}
	slices.SortStableFunc(order, func(a, b int) int { return keys[a].Compare(keys[b]) })
	return order
}

// spanOf is the declaration span of id.
func (t *Tagger) spanOf(id types.TypeID) source.Span {
	n, _ := t.reg.Lookup(id)
	return n.Span
}
