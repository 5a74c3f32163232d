package types

import (
	"slices"

	"tycodec/internal/diag"
	"tycodec/internal/source"
)

// RecordInfo is the payload of records, sets, unions, anytype and open types.
type RecordInfo struct {
	Fields     *FieldTable
	Extensible bool
}

// ListInfo is the payload of record-of, set-of and arrays.
type ListInfo struct {
	Elem TypeID
	// Lower and Count describe the index range of an array; Count is 0 for record-of.
	Lower int64
	Count int64
}

// RefInfo is the payload of references and selections.
type RefInfo struct {
	Target TypeID
	// Alternative names the selected alternative of a selection type.
	Alternative string
	// Declared is the category of an unfoldable reference (Target is NoTypeID).
	Declared Category
}

// ParamDir is a signature or function parameter direction.
type ParamDir uint8

const (
	ParamIn ParamDir = iota
	ParamOut
	ParamInOut
)

func (d ParamDir) String() string {
	switch d {
	case ParamOut:
		return "out"
	case ParamInOut:
		return "inout"
	}
	return "in"
}

// Param is a signature or function parameter.
type Param struct {
	Name string
	Type TypeID
	Dir  ParamDir
}

// SignatureInfo is the payload of procedure signatures.
type SignatureInfo struct {
	Params     []Param
	Return     TypeID
	Exceptions []TypeID
	NoBlock    bool
}

// FuncInfo is the payload of function, altstep and testcase types.
type FuncInfo struct {
	Params []Param
	Return TypeID
	RunsOn TypeID
}

// PortInfo is the payload of port types.
type PortInfo struct {
	In, Out []TypeID
	// Procedure ports carry signatures instead of messages.
	Procedure bool
}

// Payload side tables. Slot 0 of every table is a sentinel so a zero Payload never
// points at real data.
type payloads struct {
	records []RecordInfo
	lists   []ListInfo
	refs    []RefInfo
	enums   []EnumInfo
	sigs    []SignatureInfo
	funcs   []FuncInfo
	ports   []PortInfo
}

func newPayloads() payloads {
	return payloads{
		records: make([]RecordInfo, 1, 32),
		lists:   make([]ListInfo, 1, 16),
		refs:    make([]RefInfo, 1, 32),
		enums:   make([]EnumInfo, 1, 8),
		sigs:    make([]SignatureInfo, 1),
		funcs:   make([]FuncInfo, 1),
		ports:   make([]PortInfo, 1),
	}
}

// payloadKind maps a category onto its side table.
type payloadKind uint8

const (
	payloadNone payloadKind = iota
	payloadRecord
	payloadList
	payloadRef
	payloadEnum
	payloadSig
	payloadFunc
	payloadPort
)

func (c Category) payload() payloadKind {
	switch {
	case c.IsStructural():
		return payloadRecord
	case c.IsListLike():
		return payloadList
	case c.IsReference():
		return payloadRef
	case c.IsEnum():
		return payloadEnum
	case c == CatSignature:
		return payloadSig
	case c.IsFunctionLike():
		return payloadFunc
	case c == CatPort:
		return payloadPort
	}
	return payloadNone
}

func (r *Registry) allocPayload(c Category) uint32 {
	var n int
	switch c.payload() {
	case payloadRecord:
		r.p.records = append(r.p.records, RecordInfo{Fields: NewFieldTable()})
		n = len(r.p.records)
	case payloadList:
		r.p.lists = append(r.p.lists, ListInfo{})
		n = len(r.p.lists)
	case payloadRef:
		r.p.refs = append(r.p.refs, RefInfo{})
		n = len(r.p.refs)
	case payloadEnum:
		r.p.enums = append(r.p.enums, EnumInfo{})
		n = len(r.p.enums)
	case payloadSig:
		r.p.sigs = append(r.p.sigs, SignatureInfo{})
		n = len(r.p.sigs)
	case payloadFunc:
		r.p.funcs = append(r.p.funcs, FuncInfo{})
		n = len(r.p.funcs)
	case payloadPort:
		r.p.ports = append(r.p.ports, PortInfo{})
		n = len(r.p.ports)
	default:
		return 0
	}
	return r.slot(n - 1)
}

func (r *Registry) payloadOf(id TypeID, want payloadKind) (uint32, bool) {
	t, ok := r.Lookup(id)
	if !ok || t.Category.payload() != want || t.Payload == 0 {
		return 0, false
	}
	return t.Payload, true
}

// RecordInfo returns the field payload of a structural type.
func (r *Registry) RecordInfo(id TypeID) (*RecordInfo, bool) {
	slot, ok := r.payloadOf(id, payloadRecord)
	if !ok {
		return nil, false
	}
	return &r.p.records[slot], true
}

func (r *Registry) ListInfo(id TypeID) (*ListInfo, bool) {
	slot, ok := r.payloadOf(id, payloadList)
	if !ok {
		return nil, false
	}
	return &r.p.lists[slot], true
}

func (r *Registry) RefInfo(id TypeID) (*RefInfo, bool) {
	slot, ok := r.payloadOf(id, payloadRef)
	if !ok {
		return nil, false
	}
	return &r.p.refs[slot], true
}

func (r *Registry) EnumInfo(id TypeID) (*EnumInfo, bool) {
	slot, ok := r.payloadOf(id, payloadEnum)
	if !ok {
		return nil, false
	}
	return &r.p.enums[slot], true
}

func (r *Registry) SignatureInfo(id TypeID) (*SignatureInfo, bool) {
	slot, ok := r.payloadOf(id, payloadSig)
	if !ok {
		return nil, false
	}
	return &r.p.sigs[slot], true
}

func (r *Registry) FuncInfo(id TypeID) (*FuncInfo, bool) {
	slot, ok := r.payloadOf(id, payloadFunc)
	if !ok {
		return nil, false
	}
	return &r.p.funcs[slot], true
}

func (r *Registry) PortInfo(id TypeID) (*PortInfo, bool) {
	slot, ok := r.payloadOf(id, payloadPort)
	if !ok {
		return nil, false
	}
	return &r.p.ports[slot], true
}

// MustRecordInfo is RecordInfo for callers that already checked the category.
func (r *Registry) MustRecordInfo(id TypeID) *RecordInfo {
	info, ok := r.RecordInfo(id)
	if !ok {
		r.wrongCategory("MustRecordInfo", id)
	}
	return info
}

func (r *Registry) MustListInfo(id TypeID) *ListInfo {
	info, ok := r.ListInfo(id)
	if !ok {
		r.wrongCategory("MustListInfo", id)
	}
	return info
}

func (r *Registry) MustRefInfo(id TypeID) *RefInfo {
	info, ok := r.RefInfo(id)
	if !ok {
		r.wrongCategory("MustRefInfo", id)
	}
	return info
}

func (r *Registry) MustEnumInfo(id TypeID) *EnumInfo {
	info, ok := r.EnumInfo(id)
	if !ok {
		r.wrongCategory("MustEnumInfo", id)
	}
	return info
}

func (r *Registry) MustSignatureInfo(id TypeID) *SignatureInfo {
	info, ok := r.SignatureInfo(id)
	if !ok {
		r.wrongCategory("MustSignatureInfo", id)
	}
	return info
}

func (r *Registry) wrongCategory(where string, id TypeID) {
	t, _ := r.Lookup(id)
	diag.Fatalf("types."+where, "type #%d has category %s", id, t.Category)
}

// Field returns the field or alternative called name.
func (r *Registry) Field(id TypeID, name string) (FieldEntry, bool) {
	info, ok := r.RecordInfo(id)
	if !ok {
		return FieldEntry{}, false
	}
	return info.Fields.Lookup(name)
}

func (r *Registry) FieldAt(id TypeID, index int) (FieldEntry, bool) {
	info, ok := r.RecordInfo(id)
	if !ok {
		return FieldEntry{}, false
	}
	return info.Fields.At(index)
}

func (r *Registry) FieldCount(id TypeID) int {
	info, ok := r.RecordInfo(id)
	if !ok {
		return 0
	}
	return info.Fields.Len()
}

// FieldPath resolves a dotted field reference starting at the record or union rec and
// returns the field index at every step. References are followed between steps.
func (r *Registry) FieldPath(rec TypeID, path []string) ([]int, bool) {
	if len(path) == 0 {
		return nil, false
	}
	out := make([]int, 0, len(path))
	cur := r.Resolved(rec)
	for _, name := range path {
		info, ok := r.RecordInfo(cur)
		if !ok {
			return nil, false
		}
		i := info.Fields.Index(name)
		if i < 0 {
			return nil, false
		}
		out = append(out, i)
		f, _ := info.Fields.At(i)
		cur = r.Resolved(f.Type)
	}
	return out, true
}

// ElementType returns the element of a list-like type.
func (r *Registry) ElementType(id TypeID) TypeID {
	info, ok := r.ListInfo(id)
	if !ok {
		return NoTypeID
	}
	return info.Elem
}

// EnumItem is one enumeration item.
type EnumItem struct {
	Name     string
	Value    int64
	HasValue bool
	Span     source.Span
}

// EnumInfo is the payload of enumerations.
type EnumInfo struct {
	Items []EnumItem
	// Extensible enumerations keep an "unknown value" item for decoding.
	Extensible bool
}

// AssignValues numbers the items without an explicit value using the smallest
// non-negative integers not already taken, in declaration order.
func (e *EnumInfo) AssignValues() {
	used := make(map[int64]struct{}, len(e.Items))
	for _, it := range e.Items {
		if it.HasValue {
			used[it.Value] = struct{}{}
		}
	}
	next := int64(0)
	for i := range e.Items {
		if e.Items[i].HasValue {
			continue
		}
		for {
			if _, taken := used[next]; !taken {
				break
			}
			next++
		}
		e.Items[i].Value, e.Items[i].HasValue = next, true
		used[next] = struct{}{}
	}
}

// ItemByName returns the item called name.
func (e *EnumInfo) ItemByName(name string) (EnumItem, bool) {
	i := slices.IndexFunc(e.Items, func(it EnumItem) bool { return it.Name == name })
	if i < 0 {
		return EnumItem{}, false
	}
	return e.Items[i], true
}
