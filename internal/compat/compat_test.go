package compat

import (
	"testing"

	"tycodec/internal/source"
	"tycodec/internal/subtype"
	"tycodec/internal/types"
)

func builtin(t *testing.T, r *types.Registry, c types.Category) types.TypeID {
	t.Helper()
	id, ok := r.Builtin(c)
	if !ok {
		t.Fatalf("no builtin %s", c)
	}
	return id
}

func TestStringLatticeIsAsymmetric(t *testing.T) {
	r := types.NewRegistry()
	c := New(r, nil)
	ucs := builtin(t, r, types.CatUniversalCharString)
	cs := builtin(t, r, types.CatCharString)
	utf8 := builtin(t, r, types.CatUTF8String)
	teletex := builtin(t, r, types.CatTeletexString)
	ia5 := builtin(t, r, types.CatIA5String)

	cases := []struct {
		name string
		a, b types.TypeID
		want bool
	}{
		{"ucs accepts charstring", ucs, cs, true},
		{"charstring rejects ucs", cs, ucs, false},
		{"utf8 accepts ia5", utf8, ia5, true},
		{"utf8 accepts ucs", utf8, ucs, true},
		{"utf8 rejects teletex", utf8, teletex, false},
		{"teletex accepts ia5", teletex, ia5, true},
		{"ia5 rejects utf8", ia5, utf8, false},
		{"ia5 accepts charstring", ia5, cs, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := c.Compatible(tc.a, tc.b); got.OK != tc.want {
				t.Fatalf("Compatible = %v (%s), want %v", got.OK, got.Reason, tc.want)
			}
		})
	}
}

func TestPairedNotations(t *testing.T) {
	r := types.NewRegistry()
	c := New(r, nil)
	if !c.Compatible(builtin(t, r, types.CatInt), builtin(t, r, types.CatIntA)).OK {
		t.Fatalf("integer accepts INTEGER")
	}
	if !c.Compatible(builtin(t, r, types.CatBitStringA), builtin(t, r, types.CatBitString)).OK {
		t.Fatalf("BIT STRING accepts bitstring")
	}
	if c.Compatible(builtin(t, r, types.CatInt), builtin(t, r, types.CatReal)).OK {
		t.Fatalf("integer must reject float")
	}
	if !c.Compatible(builtin(t, r, types.CatInt), r.Error()).OK || !c.Compatible(r.Error(), builtin(t, r, types.CatBool)).OK {
		t.Fatalf("the error placeholder is compatible with everything")
	}
}

func TestSubtypeContainment(t *testing.T) {
	r := types.NewRegistry()
	intID := builtin(t, r, types.CatInt)
	small := r.NewReference("M", "Small", intID, source.NoSpan)
	narrow, _ := subtype.Build(subtype.TargetInteger, []subtype.Restriction{
		{Kind: subtype.RestrictRange, Ints: []subtype.IntRange{{Lo: 0, Hi: 10}}},
	})
	cons := map[types.TypeID]*subtype.Constraint{small: narrow}
	c := New(r, func(id types.TypeID) *subtype.Constraint { return cons[id] })

	if !c.Compatible(intID, small).OK {
		t.Fatalf("integer accepts every value of Small")
	}
	res := c.Compatible(small, intID)
	if res.OK {
		t.Fatalf("Small must not accept every integer")
	}
	if res.Reason == "" {
		t.Fatalf("incompatibility needs a reason")
	}
}

func record(r *types.Registry, c types.Category, name string, fields ...types.FieldEntry) types.TypeID {
	return r.NewRecord(c, "M", name, source.NoSpan, fields...)
}

func TestRecordCompatibility(t *testing.T) {
	r := types.NewRegistry()
	intID := builtin(t, r, types.CatInt)
	boolID := builtin(t, r, types.CatBool)
	c := New(r, nil)

	r1 := record(r, types.CatSequenceT, "R1",
		types.FieldEntry{Name: "a", Type: intID},
		types.FieldEntry{Name: "b", Type: boolID, Optional: true})
	r2 := record(r, types.CatSequenceA, "R2",
		types.FieldEntry{Name: "x", Type: intID},
		types.FieldEntry{Name: "y", Type: boolID, Optional: true})
	r3 := record(r, types.CatSequenceT, "R3",
		types.FieldEntry{Name: "a", Type: intID},
		types.FieldEntry{Name: "b", Type: boolID})
	s1 := record(r, types.CatSetT, "S1",
		types.FieldEntry{Name: "a", Type: intID},
		types.FieldEntry{Name: "b", Type: boolID, Optional: true})

	if res := c.Compatible(r1, r2); !res.OK {
		t.Fatalf("names are ignored: %s", res.Reason)
	}
	res := c.Compatible(r1, r3)
	if res.OK || res.Where() != ".b" {
		t.Fatalf("optionality mismatch must fail at .b, got %+v", res)
	}
	if c.Compatible(r1, s1).OK {
		t.Fatalf("record must not accept set")
	}

	arr2 := r.NewArray("M", "A2", intID, 0, 2, source.NoSpan)
	arr3 := r.NewArray("M", "A3", intID, 0, 3, source.NoSpan)
	pair := record(r, types.CatSequenceT, "Pair",
		types.FieldEntry{Name: "p", Type: intID},
		types.FieldEntry{Name: "q", Type: intID})
	if res := c.Compatible(pair, arr2); !res.OK {
		t.Fatalf("record of two integers accepts integer[2]: %s", res.Reason)
	}
	if c.Compatible(pair, arr3).OK {
		t.Fatalf("integer[3] has too many elements")
	}
	if !c.Compatible(arr2, pair).OK {
		t.Fatalf("integer[2] accepts a record of two mandatory integers")
	}
}

func TestRecursiveTypesTerminate(t *testing.T) {
	r := types.NewRegistry()
	intID := builtin(t, r, types.CatInt)
	c := New(r, nil)

	a := record(r, types.CatSequenceT, "ListA")
	r.AddField(a, types.FieldEntry{Name: "v", Type: intID})
	r.AddField(a, types.FieldEntry{Name: "next", Type: a, Optional: true})
	b := record(r, types.CatSequenceT, "ListB")
	r.AddField(b, types.FieldEntry{Name: "v", Type: intID})
	r.AddField(b, types.FieldEntry{Name: "next", Type: b, Optional: true})

	if res := c.Compatible(a, b); !res.OK {
		t.Fatalf("structurally equal recursive types are compatible: %s", res.Reason)
	}

	bad := record(r, types.CatSequenceT, "ListBad")
	r.AddField(bad, types.FieldEntry{Name: "v", Type: builtin(t, r, types.CatBool)})
	r.AddField(bad, types.FieldEntry{Name: "next", Type: bad, Optional: true})
	res := c.Compatible(a, bad)
	if res.OK || res.Where() != ".v" {
		t.Fatalf("expected failure at .v, got %+v", res)
	}
}

func TestListCompatibility(t *testing.T) {
	r := types.NewRegistry()
	intID := builtin(t, r, types.CatInt)
	c := New(r, nil)
	seqOf := r.NewList(types.CatSequenceOf, "M", "Ints", intID, source.NoSpan)
	setOf := r.NewList(types.CatSetOf, "M", "IntSet", intID, source.NoSpan)
	seqOf2 := r.NewList(types.CatSequenceOf, "M", "Ints2", intID, source.NoSpan)

	if !c.Compatible(seqOf, seqOf2).OK {
		t.Fatalf("record of integer accepts record of integer")
	}
	if c.Compatible(setOf, seqOf).OK || c.Compatible(seqOf, setOf).OK {
		t.Fatalf("set of and record of are not interchangeable")
	}
	set := record(r, types.CatSetT, "S",
		types.FieldEntry{Name: "a", Type: intID},
		types.FieldEntry{Name: "b", Type: intID})
	if !c.Compatible(setOf, set).OK {
		t.Fatalf("set of integer accepts a set of integer fields")
	}
}

func TestChoiceCompatibility(t *testing.T) {
	r := types.NewRegistry()
	intID := builtin(t, r, types.CatInt)
	boolID := builtin(t, r, types.CatBool)
	c := New(r, nil)
	wide := record(r, types.CatChoiceT, "Wide",
		types.FieldEntry{Name: "x", Type: intID},
		types.FieldEntry{Name: "y", Type: boolID})
	narrow := record(r, types.CatChoiceA, "Narrow",
		types.FieldEntry{Name: "x", Type: intID})

	if !c.Compatible(wide, narrow).OK {
		t.Fatalf("every alternative of Narrow exists in Wide")
	}
	res := c.Compatible(narrow, wide)
	if res.OK {
		t.Fatalf("Wide has an alternative Narrow lacks")
	}

	any1 := r.NewRecord(types.CatAnyType, "M1", "anytype", source.NoSpan, types.FieldEntry{Name: "integer", Type: intID})
	any2 := r.NewRecord(types.CatAnyType, "M2", "anytype", source.NoSpan, types.FieldEntry{Name: "integer", Type: intID})
	if c.Compatible(any1, any2).OK {
		t.Fatalf("anytypes of different modules are incompatible")
	}
	if c.Compatible(wide, any1).OK {
		t.Fatalf("union must not accept anytype")
	}
}

func TestIdentityOnlyCategories(t *testing.T) {
	r := types.NewRegistry()
	c := New(r, nil)
	e1 := r.NewEnum(types.CatEnumT, "M", "E1", source.NoSpan, types.EnumItem{Name: "a"})
	e2 := r.NewEnum(types.CatEnumT, "M", "E2", source.NoSpan, types.EnumItem{Name: "a"})
	ref := r.NewReference("M", "E1ref", e1, source.NoSpan)
	if c.Compatible(e1, e2).OK {
		t.Fatalf("distinct enumerations are incompatible")
	}
	if !c.Compatible(e1, ref).OK {
		t.Fatalf("an enumeration is compatible with references to itself")
	}
}

func TestUnfoldableOperand(t *testing.T) {
	r := types.NewRegistry()
	c := New(r, nil)
	ocft := r.NewUnfoldable("M", "Field", types.CatIntA, source.NoSpan)
	if !c.Compatible(builtin(t, r, types.CatInt), ocft).OK {
		t.Fatalf("integer accepts an unfoldable INTEGER")
	}
	if c.Compatible(builtin(t, r, types.CatBool), ocft).OK {
		t.Fatalf("boolean rejects an unfoldable INTEGER")
	}
	if !c.CompatibleWithCategory(builtin(t, r, types.CatUniversalCharString), types.CatVisibleString).OK {
		t.Fatalf("universal charstring accepts VisibleString values")
	}
}
