package types

import (
	"fmt"
	"slices"

	"fortio.org/safecast"

	"tycodec/internal/diag"
	"tycodec/internal/encattr"
	"tycodec/internal/source"
	"tycodec/internal/subtype"
	"tycodec/internal/tags"
)

// Registry is the arena of type nodes of one compilation unit. Built-in categories
// occupy a fixed block of reserved IDs right after NoTypeID.
//
// Pointers returned by the *Info accessors stay valid until the next node is created.
type Registry struct {
	types     []Type
	attrs     []Attrs
	p         payloads
	builtins  [catCount]TypeID
	named     map[namedKey]TypeID
	modules   map[string]tags.ModuleDefault
	resolved  map[TypeID]TypeID
	resolving map[TypeID]struct{}
	firstUser TypeID
	closed    bool
}

type namedKey struct {
	module, name string
}

// NewRegistry constructs a registry with every built-in category populated.
func NewRegistry() *Registry {
	r := &Registry{
		types:     make([]Type, 1, 128),
		attrs:     make([]Attrs, 1, 128),
		p:         newPayloads(),
		named:     make(map[namedKey]TypeID, 64),
		modules:   make(map[string]tags.ModuleDefault),
		resolved:  make(map[TypeID]TypeID, 64),
		resolving: make(map[TypeID]struct{}),
	}
	for c := CatError; c < catCount; c++ {
		if c.payload() != payloadNone {
			continue
		}
		r.builtins[c] = r.push(Type{Category: c, Owner: OwnerBuiltin, Span: source.NoSpan})
	}
	r.firstUser = r.nextID()
	return r
}

// Close drops every node; the registry must not be used afterwards.
func (r *Registry) Close() {
	r.types, r.attrs = nil, nil
	r.p = payloads{}
	r.named, r.resolved = nil, nil
	r.closed = true
}

func (r *Registry) nextID() TypeID {
	return TypeID(r.slot(len(r.types)))
}

func (r *Registry) slot(n int) uint32 {
	v, err := safecast.Conv[uint32](n)
	if err != nil {
		panic(fmt.Errorf("types: arena overflow: %w", err))
	}
	return v
}

func (r *Registry) push(t Type) TypeID {
	if r.closed {
		panic("types: registry is closed")
	}
	id := r.nextID()
	r.types = append(r.types, t)
	r.attrs = append(r.attrs, Attrs{})
	return id
}

// Builtin returns the canonical node of a built-in category.
func (r *Registry) Builtin(c Category) (TypeID, bool) {
	if c >= catCount || r.builtins[c] == NoTypeID {
		return NoTypeID, false
	}
	return r.builtins[c], true
}

// Error is the placeholder that replaces erroneous types.
func (r *Registry) Error() TypeID { return r.builtins[CatError] }

// IsBuiltin reports whether id is one of the reserved nodes.
func (r *Registry) IsBuiltin(id TypeID) bool { return id != NoTypeID && id < r.firstUser }

func (r *Registry) Len() int { return len(r.types) - 1 }

// Lookup returns the node for id.
func (r *Registry) Lookup(id TypeID) (Type, bool) {
	if id == NoTypeID || int(id) >= len(r.types) {
		return Type{}, false
	}
	return r.types[id], true
}

func (r *Registry) MustLookup(id TypeID) Type {
	t, ok := r.Lookup(id)
	if !ok {
		panic("types: invalid TypeID")
	}
	return t
}

// Category of id; CatInvalid for unknown IDs.
func (r *Registry) Category(id TypeID) Category {
	t, _ := r.Lookup(id)
	return t.Category
}

// Attrs returns the mutable attribute block of id.
func (r *Registry) Attrs(id TypeID) *Attrs {
	if id == NoTypeID || int(id) >= len(r.attrs) {
		return nil
	}
	return &r.attrs[id]
}

// UserTypes returns the non-builtin nodes in creation order.
func (r *Registry) UserTypes() []TypeID {
	out := make([]TypeID, 0, len(r.types)-int(r.firstUser))
	for id := r.firstUser; int(id) < len(r.types); id++ {
		out = append(out, id)
	}
	return out
}

// Named finds a type definition by module and name.
func (r *Registry) Named(module, name string) (TypeID, bool) {
	id, ok := r.named[namedKey{module, name}]
	return id, ok
}

// Definitions returns the type definitions of module in creation order.
func (r *Registry) Definitions(module string) []TypeID {
	var out []TypeID
	for _, id := range r.UserTypes() {
		t := r.types[id]
		if t.Owner == OwnerTypeDef && t.Module == module {
			out = append(out, id)
		}
	}
	return out
}

// Modules lists module names that own at least one type definition, sorted.
func (r *Registry) Modules() []string {
	seen := map[string]struct{}{}
	var out []string
	for k := range r.named {
		if _, ok := seen[k.module]; !ok {
			seen[k.module] = struct{}{}
			out = append(out, k.module)
		}
	}
	slices.Sort(out)
	return out
}

func (r *Registry) SetModuleDefault(module string, d tags.ModuleDefault) {
	r.modules[module] = d
}

// ModuleDefault returns the tagging default of module (EXPLICIT when never set).
func (r *Registry) ModuleDefault(module string) tags.ModuleDefault {
	return r.modules[module]
}

// Builder API ---------------------------------------------------------------

// New creates a node of category c. A non-empty name makes it a type definition.
func (r *Registry) New(c Category, module, name string, span source.Span) TypeID {
	owner := OwnerAnonymous
	if name != "" {
		owner = OwnerTypeDef
	}
	id := r.push(Type{Category: c, Name: name, Module: module, Owner: owner, Span: span})
	r.types[id].Payload = r.allocPayload(c)
	if name != "" {
		if _, dup := r.named[namedKey{module, name}]; !dup {
			r.named[namedKey{module, name}] = id
		}
	}
	return id
}

// NewRecord creates a structural type and embeds its anonymous field types.
func (r *Registry) NewRecord(c Category, module, name string, span source.Span, fields ...FieldEntry) TypeID {
	id := r.New(c, module, name, span)
	for _, f := range fields {
		r.AddField(id, f)
	}
	return id
}

// NewList creates a record-of or set-of of elem.
func (r *Registry) NewList(c Category, module, name string, elem TypeID, span source.Span) TypeID {
	id := r.New(c, module, name, span)
	r.SetElem(id, elem)
	return id
}

// NewArray creates an array of count elements indexed from lower.
func (r *Registry) NewArray(module, name string, elem TypeID, lower, count int64, span source.Span) TypeID {
	id := r.New(CatArray, module, name, span)
	info := r.MustListInfo(id)
	info.Lower, info.Count = lower, count
	r.SetElem(id, elem)
	return id
}

// SetElem binds the element type of a list created without one.
func (r *Registry) SetElem(list, elem TypeID) {
	r.MustListInfo(list).Elem = elem
	r.embed(list, elem, OwnerListElem, "")
}

// NewReference creates a reference to target.
func (r *Registry) NewReference(module, name string, target TypeID, span source.Span) TypeID {
	id := r.New(CatReference, module, name, span)
	r.MustRefInfo(id).Target = target
	return id
}

// NewSelection creates "alternative < target".
func (r *Registry) NewSelection(module, name, alternative string, target TypeID, span source.Span) TypeID {
	id := r.New(CatSelection, module, name, span)
	info := r.MustRefInfo(id)
	info.Target, info.Alternative = target, alternative
	return id
}

// NewUnfoldable creates a reference whose target is only known by category.
func (r *Registry) NewUnfoldable(module, name string, declared Category, span source.Span) TypeID {
	id := r.New(CatReferenceSpecial, module, name, span)
	r.MustRefInfo(id).Declared = declared
	return id
}

// NewEnum creates an enumeration.
func (r *Registry) NewEnum(c Category, module, name string, span source.Span, items ...EnumItem) TypeID {
	id := r.New(c, module, name, span)
	r.MustEnumInfo(id).Items = slices.Clone(items)
	return id
}

// NewSignature creates a procedure signature.
func (r *Registry) NewSignature(module, name string, info SignatureInfo, span source.Span) TypeID {
	id := r.New(CatSignature, module, name, span)
	r.SetSignature(id, info)
	return id
}

// SetSignature replaces the payload of a signature and embeds its anonymous parameter types.
func (r *Registry) SetSignature(id TypeID, info SignatureInfo) {
	sig := r.MustSignatureInfo(id)
	*sig = info
	sig.Params = slices.Clone(info.Params)
	sig.Exceptions = slices.Clone(info.Exceptions)
	for _, p := range sig.Params {
		r.embed(id, p.Type, OwnerParam, p.Name)
	}
	r.embed(id, sig.Return, OwnerReturn, "")
}

// AddField appends a field to a structural type.
func (r *Registry) AddField(id TypeID, f FieldEntry) {
	r.MustRecordInfo(id).Fields.Add(f)
	r.embed(id, f.Type, OwnerField, f.Name)
}

// SetFieldType rebinds field i of rec and embeds the new type when it is anonymous.
func (r *Registry) SetFieldType(rec TypeID, i int, t TypeID) {
	info := r.MustRecordInfo(rec)
	f, ok := info.Fields.At(i)
	if !ok {
		diag.Fatalf("types.SetFieldType", "field %d out of range for %s", i, r.DisplayName(rec))
	}
	info.Fields.SetType(i, t)
	r.embed(rec, t, OwnerField, f.Name)
}

// embed links an anonymous child node to its container.
func (r *Registry) embed(parent, child TypeID, owner OwnerKind, name string) {
	if child == NoTypeID || r.IsBuiltin(child) || int(child) >= len(r.types) {
		return
	}
	t := &r.types[child]
	if t.Owner != OwnerAnonymous {
		return
	}
	t.Parent, t.Owner, t.FieldName = parent, owner, name
	if t.Module == "" {
		t.Module = r.types[parent].Module
	}
}

// SetRefTarget rebinds a reference; cached resolutions are dropped.
func (r *Registry) SetRefTarget(id, target TypeID) {
	r.MustRefInfo(id).Target = target
	clear(r.resolved)
}

func (r *Registry) AddTag(id TypeID, spec *tags.Spec) {
	a := r.Attrs(id)
	a.Tags = append(a.Tags, *spec)
}

func (r *Registry) SetRAW(id TypeID, raw *encattr.RAW)    { r.Attrs(id).RAW = raw }
func (r *Registry) SetTEXT(id TypeID, text *encattr.TEXT) { r.Attrs(id).TEXT = text }
func (r *Registry) SetXER(id TypeID, xer *encattr.XER)    { r.Attrs(id).XER = xer }
func (r *Registry) SetJSON(id TypeID, j *encattr.JSON)    { r.Attrs(id).JSON = j }

// AddEncoding records an "encode" attribute naming f.
func (r *Registry) AddEncoding(id TypeID, f Format) {
	a := r.Attrs(id)
	if !slices.Contains(a.Encodings, f) {
		a.Encodings = append(a.Encodings, f)
	}
}

// AddCodecFunc declares fn as the encoder or decoder of id.
func (r *Registry) AddCodecFunc(id TypeID, fn CodecFunc) {
	a := r.Attrs(id)
	a.CodecFuncs = append(a.CodecFuncs, fn)
}

func (r *Registry) SetRestrictions(id TypeID, rs ...subtype.Restriction) {
	r.Attrs(id).Restrictions = slices.Clone(rs)
}
