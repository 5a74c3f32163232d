package types

import (
	"errors"
	"testing"

	"tycodec/internal/diag"
	"tycodec/internal/source"
)

func TestBuiltinIdentity(t *testing.T) {
	r := NewRegistry()
	a, ok := r.Builtin(CatInt)
	if !ok {
		t.Fatalf("integer must be a builtin")
	}
	b, _ := r.Builtin(CatInt)
	if a != b {
		t.Fatalf("repeated lookups must return the same node: %d vs %d", a, b)
	}
	if !r.IsBuiltin(a) || r.MustLookup(a).Category != CatInt {
		t.Fatalf("unexpected builtin node %+v", r.MustLookup(a))
	}
	if _, ok := r.Builtin(CatSequenceA); ok {
		t.Fatalf("structural categories have no builtin node")
	}
	user := r.New(CatInt, "M", "Small", source.NoSpan)
	if r.IsBuiltin(user) || user == a {
		t.Fatalf("user types live after the reserved block")
	}
	if got := r.UserTypes(); len(got) != 1 || got[0] != user {
		t.Fatalf("unexpected user types %v", got)
	}
}

func TestFieldTableIndexInvalidation(t *testing.T) {
	ft := NewFieldTable(FieldEntry{Name: "a"}, FieldEntry{Name: "b"})
	if ft.Index("b") != 1 {
		t.Fatalf("b must be at 1")
	}
	ft.Insert(0, FieldEntry{Name: "z"})
	if ft.Index("b") != 2 || ft.Index("z") != 0 {
		t.Fatalf("index not rebuilt after insert: b=%d z=%d", ft.Index("b"), ft.Index("z"))
	}
	ft.Remove(0)
	if ft.Index("z") != -1 || ft.Index("a") != 0 {
		t.Fatalf("index not rebuilt after remove")
	}
	ft.Add(FieldEntry{Name: "a"})
	if dups := ft.Duplicates(); len(dups) != 1 || dups[0] != 2 {
		t.Fatalf("expected duplicate at 2, got %v", dups)
	}
}

func TestRecordFieldsEmbedAnonymousTypes(t *testing.T) {
	r := NewRegistry()
	intID, _ := r.Builtin(CatInt)
	inner := r.New(CatOctetString, "", "", source.NoSpan)
	rec := r.NewRecord(CatSequenceA, "M", "Msg", source.NoSpan,
		FieldEntry{Name: "id", Type: intID},
		FieldEntry{Name: "body", Type: inner, Optional: true},
	)
	if r.FieldCount(rec) != 2 {
		t.Fatalf("expected 2 fields")
	}
	f, ok := r.Field(rec, "body")
	if !ok || !f.Optional {
		t.Fatalf("body lookup failed")
	}
	it := r.MustLookup(inner)
	if it.Parent != rec || it.Owner != OwnerField || it.Module != "M" {
		t.Fatalf("anonymous field type not embedded: %+v", it)
	}
	if r.DisplayName(inner) != "M.Msg.body" {
		t.Fatalf("unexpected display name %q", r.DisplayName(inner))
	}
	if r.GenName(inner) != "Msg_body" || r.GenName(intID) != "INTEGER" {
		t.Fatalf("unexpected gen names %q %q", r.GenName(inner), r.GenName(intID))
	}
	if r.MustLookup(intID).Parent != NoTypeID {
		t.Fatalf("builtins are never embedded")
	}
}

func TestResolveReference(t *testing.T) {
	r := NewRegistry()
	base := r.New(CatCharString, "M", "Base", source.NoSpan)
	ref1 := r.NewReference("M", "R1", base, source.NoSpan)
	ref2 := r.NewReference("M", "R2", ref1, source.NoSpan)
	got, err := r.ResolveReference(ref2)
	if err != nil || got != base {
		t.Fatalf("ResolveReference = %d, %v", got, err)
	}
	chain, _ := r.ReferenceChain(ref2)
	if len(chain) != 3 || chain[0] != ref2 || chain[2] != base {
		t.Fatalf("unexpected chain %v", chain)
	}

	a := r.NewReference("M", "A", NoTypeID, source.NoSpan)
	b := r.NewReference("M", "B", a, source.NoSpan)
	r.SetRefTarget(a, b)
	_, err = r.ResolveReference(a)
	var cyc *CycleError
	if !errors.As(err, &cyc) {
		t.Fatalf("expected cycle error, got %v", err)
	}
	if cyc.Error() != "circular type reference: M.A -> M.B -> M.A" {
		t.Fatalf("unexpected message %q", cyc.Error())
	}
	if r.Resolved(a) != r.Error() {
		t.Fatalf("cyclic references resolve to the error placeholder")
	}

	dangling := r.NewReference("M", "D", NoTypeID, source.NoSpan)
	var unres *UnresolvedError
	if _, err := r.ResolveReference(dangling); !errors.As(err, &unres) {
		t.Fatalf("expected unresolved error, got %v", err)
	}
}

func TestSelectionResolvesAlternative(t *testing.T) {
	r := NewRegistry()
	boolID, _ := r.Builtin(CatBool)
	intID, _ := r.Builtin(CatInt)
	choice := r.NewRecord(CatChoiceA, "M", "C", source.NoSpan,
		FieldEntry{Name: "flag", Type: boolID},
		FieldEntry{Name: "num", Type: intID},
	)
	sel := r.NewSelection("M", "S", "num", choice, source.NoSpan)
	if got := r.Resolved(sel); got != intID {
		t.Fatalf("selection resolved to %s", r.DisplayName(got))
	}
	bad := r.NewSelection("M", "Bad", "nope", choice, source.NoSpan)
	if _, err := r.ResolveReference(bad); err == nil {
		t.Fatalf("unknown alternative must fail")
	}
}

func TestMustAccessorPanicsWithFatal(t *testing.T) {
	r := NewRegistry()
	id := r.New(CatBool, "M", "B", source.NoSpan)
	var err error
	func() {
		defer diag.RecoverFatal(&err)
		r.MustRecordInfo(id)
	}()
	var fatal diag.Fatal
	if !errors.As(err, &fatal) {
		t.Fatalf("expected diag.Fatal, got %v", err)
	}
	if _, ok := r.RecordInfo(id); ok {
		t.Fatalf("wrong-category access must report false")
	}
}

func TestEnumAssignValues(t *testing.T) {
	e := EnumInfo{Items: []EnumItem{
		{Name: "a"},
		{Name: "b", Value: 0, HasValue: true},
		{Name: "c"},
		{Name: "d", Value: 2, HasValue: true},
		{Name: "e"},
	}}
	e.AssignValues()
	want := map[string]int64{"a": 1, "b": 0, "c": 3, "d": 2, "e": 4}
	for _, it := range e.Items {
		if it.Value != want[it.Name] {
			t.Errorf("%s = %d, want %d", it.Name, it.Value, want[it.Name])
		}
	}
}

func TestCodingMethodMerge(t *testing.T) {
	var m CodingMethod
	m, conflict := m.Merge(BuiltInMethod(FormatRAW))
	if conflict || m.Kind != MethodBuiltIn {
		t.Fatalf("first source must be taken")
	}
	m, conflict = m.Merge(BuiltInMethod(FormatRAW))
	if conflict || m.Kind != MethodBuiltIn {
		t.Fatalf("equal source is a no-op")
	}
	m, conflict = m.Merge(FunctionMethod("f_enc"))
	if !conflict || m.Kind != MethodMultiple {
		t.Fatalf("distinct source must yield multiple")
	}
	m, conflict = m.Merge(BuiltInMethod(FormatJSON))
	if conflict || m.Kind != MethodMultiple {
		t.Fatalf("multiple is final and reported once")
	}
}

func TestRegistryClose(t *testing.T) {
	r := NewRegistry()
	r.Close()
	defer func() {
		if recover() == nil {
			t.Fatalf("creating on a closed registry must panic")
		}
	}()
	r.New(CatInt, "M", "X", source.NoSpan)
}
