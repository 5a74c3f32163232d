package sema

import (
	"slices"
	"testing"

	"tycodec/internal/diag"
	"tycodec/internal/encattr"
	"tycodec/internal/source"
	"tycodec/internal/subtype"
	"tycodec/internal/tags"
	"tycodec/internal/types"
)

func run(reg *types.Registry) (*Result, *diag.Bag) {
	bag := diag.NewBag(100)
	res := Check(reg, Options{Reporter: diag.BagReporter{Bag: bag}})
	return res, bag
}

func count(bag *diag.Bag, code diag.Code) int {
	n := 0
	for _, c := range bag.Codes() {
		if c == code {
			n++
		}
	}
	return n
}

func builtin(t *testing.T, r *types.Registry, c types.Category) types.TypeID {
	t.Helper()
	id, ok := r.Builtin(c)
	if !ok {
		t.Fatalf("no builtin %s", c)
	}
	return id
}

func at(n uint32) source.Span { return source.Span{Start: n, End: n + 1} }

func TestRecursionTerminates(t *testing.T) {
	reg := types.NewRegistry()
	integer := builtin(t, reg, types.CatInt)

	list := reg.NewRecord(types.CatSequenceT, "M", "List", at(1),
		types.FieldEntry{Name: "v", Type: integer})
	reg.AddField(list, types.FieldEntry{Name: "next", Type: list, Optional: true})

	loop := reg.NewRecord(types.CatSequenceT, "M", "Loop", at(2))
	reg.AddField(loop, types.FieldEntry{Name: "self", Type: loop})

	a := reg.NewRecord(types.CatSequenceT, "M", "A", at(3))
	b := reg.NewRecord(types.CatSequenceT, "M", "B", at(4))
	reg.AddField(a, types.FieldEntry{Name: "b", Type: reg.NewReference("M", "", b, at(5))})
	reg.AddField(b, types.FieldEntry{Name: "a", Type: a})

	res, bag := run(reg)
	if got := count(bag, diag.TypInfiniteRecursion); got != 3 {
		t.Fatalf("want 3 infinite recursion errors, got %d: %v", got, bag.Codes())
	}
	if res.IsErroneous(list) {
		t.Fatalf("a recursive type with an optional link has finite values")
	}
	for _, id := range []types.TypeID{loop, a, b} {
		if res.Type(id) != reg.Error() {
			t.Fatalf("%s should be replaced by the error placeholder", reg.DisplayName(id))
		}
	}
}

func TestReferenceErrorsReportedOnce(t *testing.T) {
	reg := types.NewRegistry()
	a := reg.NewReference("M", "A", types.NoTypeID, at(1))
	b := reg.NewReference("M", "B", a, at(2))
	reg.SetRefTarget(a, b)
	c := reg.NewReference("M", "C", a, at(3))

	d := reg.NewReference("M", "D", types.NoTypeID, at(4))
	e := reg.NewReference("M", "E", d, at(5))

	res, bag := run(reg)
	if got := count(bag, diag.TypCircularRef); got != 1 {
		t.Fatalf("want one circular reference error, got %d", got)
	}
	if got := count(bag, diag.TypUnresolvedRef); got != 1 {
		t.Fatalf("want one unresolved reference error, got %d", got)
	}
	for _, id := range []types.TypeID{a, b, c, d, e} {
		if !res.IsErroneous(id) {
			t.Errorf("%s should be erroneous", reg.DisplayName(id))
		}
	}
	if bag.Items()[0].Primary != at(1) {
		t.Fatalf("cycle reported at %v, want the span of A", bag.Items()[0].Primary)
	}
}

func TestDuplicateFieldsAndEnumItems(t *testing.T) {
	reg := types.NewRegistry()
	integer := builtin(t, reg, types.CatInt)
	rec := reg.NewRecord(types.CatSequenceT, "M", "R", at(1),
		types.FieldEntry{Name: "a", Type: integer, Span: at(2)},
		types.FieldEntry{Name: "a", Type: integer, Span: at(3)},
	)
	enum := reg.NewEnum(types.CatEnumT, "M", "E", at(4),
		types.EnumItem{Name: "x", Value: 1, HasValue: true},
		types.EnumItem{Name: "y"},
		types.EnumItem{Name: "z", Value: 1, HasValue: true},
		types.EnumItem{Name: "x"},
	)

	res, bag := run(reg)
	if count(bag, diag.TypDuplicateField) != 1 || !res.IsErroneous(rec) {
		t.Fatalf("duplicate field not reported: %v", bag.Codes())
	}
	d := bag.Items()[0]
	if d.Primary != at(3) || len(d.Notes) != 1 || d.Notes[0].Span != at(2) {
		t.Fatalf("duplicate field should point at the second field with a note on the first: %+v", d)
	}
	if count(bag, diag.TypDuplicateEnumItem) != 1 || count(bag, diag.TypDuplicateEnumVal) != 1 {
		t.Fatalf("enum duplicates not reported: %v", bag.Codes())
	}
	info := reg.MustEnumInfo(enum)
	if info.Items[1].Value != 0 || info.Items[3].Value != 2 {
		t.Fatalf("unexpected assigned values: %+v", info.Items)
	}
}

func TestAutomaticTagsRecorded(t *testing.T) {
	reg := types.NewRegistry()
	reg.SetModuleDefault("M", tags.DefaultAutomatic)
	integer := builtin(t, reg, types.CatIntA)
	seq := reg.NewRecord(types.CatSequenceA, "M", "S", at(1),
		types.FieldEntry{Name: "a", Type: integer},
		types.FieldEntry{Name: "b", Type: integer, Optional: true},
		types.FieldEntry{Name: "c", Type: integer},
	)

	res, bag := run(reg)
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %v", bag.Codes())
	}
	if got := res.AutoTags[seq]; !slices.Equal(got, []uint32{0, 1, 2}) {
		t.Fatalf("AutoTags = %v, want [0 1 2]", got)
	}
	if len(reg.Attrs(integer).Tags) != 0 {
		t.Fatalf("the shared INTEGER definition must stay untagged")
	}
}

func TestTagCollisionsOnlyWhereBERApplies(t *testing.T) {
	reg := types.NewRegistry()
	intA := builtin(t, reg, types.CatIntA)
	integer := builtin(t, reg, types.CatInt)
	choice := reg.NewRecord(types.CatChoiceA, "M", "C", at(1),
		types.FieldEntry{Name: "a", Type: intA},
		types.FieldEntry{Name: "b", Type: intA},
	)
	union := reg.NewRecord(types.CatChoiceT, "M", "U", at(2),
		types.FieldEntry{Name: "a", Type: integer},
		types.FieldEntry{Name: "b", Type: integer},
	)

	res, bag := run(reg)
	if count(bag, diag.TagChoiceCollision) != 1 {
		t.Fatalf("want one choice collision, got %v", bag.Codes())
	}
	if !res.IsErroneous(choice) || res.IsErroneous(union) {
		t.Fatalf("only the ASN.1 choice is affected by tag collisions")
	}

	reg.AddEncoding(union, types.FormatBER)
	_, bag = run(reg)
	if count(bag, diag.TagChoiceCollision) != 2 {
		t.Fatalf("a union encoded with BER is checked too: %v", bag.Codes())
	}
}

func intRange(lo, hi int64) subtype.Restriction {
	return subtype.Restriction{Kind: subtype.RestrictRange, Ints: []subtype.IntRange{{Lo: lo, Hi: hi}}}
}

func TestSubtypeAggregation(t *testing.T) {
	reg := types.NewRegistry()
	integer := builtin(t, reg, types.CatInt)
	base := reg.NewReference("M", "Base", integer, at(1))
	reg.SetRestrictions(base, intRange(0, 100))

	small := reg.NewReference("M", "Small", base, at(2))
	reg.SetRestrictions(small, intRange(10, 20))
	plain := reg.NewReference("M", "Plain", small, at(3))
	wide := reg.NewReference("M", "Wide", base, at(4))
	reg.SetRestrictions(wide, intRange(50, 200))
	empty := reg.NewReference("M", "Empty", small, at(5))
	reg.SetRestrictions(empty, intRange(30, 40))
	sized := reg.NewReference("M", "Sized", base, at(6))
	reg.SetRestrictions(sized, subtype.Restriction{Kind: subtype.RestrictSize, Sizes: []subtype.IntRange{subtype.Point(2)}})

	res, bag := run(reg)
	if count(bag, diag.SubWiden) != 2 || count(bag, diag.SubEmpty) != 1 || count(bag, diag.SubNotApplicable) != 1 {
		t.Fatalf("unexpected diagnostics: %v", bag.Codes())
	}
	for _, id := range []types.TypeID{base, small, plain} {
		if res.IsErroneous(id) {
			t.Fatalf("%s should be fine", reg.DisplayName(id))
		}
	}
	if res.Effective(plain) != res.Effective(small) {
		t.Fatalf("a type without own restrictions shares its parent's constraint")
	}
	eff := res.Effective(wide)
	if !eff.Permits(subtype.IntValue(75)) || eff.Permits(subtype.IntValue(150)) {
		t.Fatalf("effective constraint widened: %s", eff)
	}
	if !res.Effective(empty).Empty() {
		t.Fatalf("Empty should have an empty constraint, got %s", res.Effective(empty))
	}
}

func TestCodingMethods(t *testing.T) {
	reg := types.NewRegistry()
	integer := builtin(t, reg, types.CatInt)
	tt := reg.NewReference("M", "T", integer, at(1))
	reg.AddEncoding(tt, types.FormatJSON)
	u := reg.NewReference("M", "U", tt, at(2))
	v := reg.NewReference("M", "V", integer, at(3))
	reg.AddEncoding(v, types.FormatJSON)
	reg.AddCodecFunc(v, types.CodecFunc{Dir: types.Encode, Name: "f_enc_V"})

	res, bag := run(reg)
	json := types.BuiltInMethod(types.FormatJSON)
	if res.Method(tt, types.Encode) != json || res.Method(tt, types.Decode) != json {
		t.Fatalf("T should use built-in JSON both ways")
	}
	if res.Method(u, types.Decode) != json {
		t.Fatalf("U inherits the method of T, got %s", res.Method(u, types.Decode))
	}
	if res.Method(v, types.Encode).Kind != types.MethodMultiple || res.Method(v, types.Decode) != json {
		t.Fatalf("V: encode %s, decode %s", res.Method(v, types.Encode), res.Method(v, types.Decode))
	}
	if count(bag, diag.CodMultipleMethods) != 1 {
		t.Fatalf("want one ambiguity error, got %v", bag.Codes())
	}
	if res.Method(integer, types.Encode).Kind != types.MethodUnset {
		t.Fatalf("builtins have no method")
	}
}

func TestRAWFieldReferences(t *testing.T) {
	reg := types.NewRegistry()
	field := func(c types.Category, raw *encattr.RAW) types.TypeID {
		id := reg.New(c, "", "", at(10))
		if raw != nil {
			reg.SetRAW(id, raw)
		}
		return id
	}
	rec := reg.NewRecord(types.CatSequenceT, "M", "Msg", at(1),
		types.FieldEntry{Name: "len", Type: field(types.CatInt, &encattr.RAW{FieldLength: 8, LengthTo: []string{"data"}})},
		types.FieldEntry{Name: "data", Type: field(types.CatOctetString, nil)},
		types.FieldEntry{Name: "bad", Type: field(types.CatInt, &encattr.RAW{LengthTo: []string{"nope"}})},
		types.FieldEntry{Name: "self", Type: field(types.CatInt, &encattr.RAW{PointerTo: "self"})},
		types.FieldEntry{Name: "opt", Optional: true, Type: field(types.CatInt, &encattr.RAW{
			Presence: []encattr.TagKey{{Field: encattr.ParseFieldPath("len"), Value: "1"}},
		})},
	)
	top := reg.NewReference("M", "Top", builtin(t, reg, types.CatInt), at(2))
	reg.SetRAW(top, &encattr.RAW{LengthTo: []string{"x"}})
	neg := reg.NewReference("M", "Neg", builtin(t, reg, types.CatInt), at(3))
	reg.SetRAW(neg, &encattr.RAW{FieldLength: -1})

	res, bag := run(reg)
	want := map[diag.Code]int{
		diag.CodBadFieldRef:     1,
		diag.CodSelfReference:   1,
		diag.CodAttrOnWrongType: 1,
		diag.CodBadAttribute:    1,
	}
	for code, n := range want {
		if got := count(bag, code); got != n {
			t.Errorf("%s: got %d, want %d (all: %v)", code.ID(), got, n, bag.Codes())
		}
	}
	lenField, _ := reg.Field(rec, "len")
	optField, _ := reg.Field(rec, "opt")
	if res.IsErroneous(lenField.Type) || res.IsErroneous(optField.Type) {
		t.Fatalf("valid cross references flagged")
	}
}

func TestAttributeTargets(t *testing.T) {
	reg := types.NewRegistry()
	integer := builtin(t, reg, types.CatInt)

	listed := reg.NewReference("M", "Listed", integer, at(1))
	reg.SetXER(listed, &encattr.XER{List: true})

	mand := reg.New(types.CatInt, "", "", at(2))
	reg.SetJSON(mand, &encattr.JSON{OmitAsNull: true})
	opt := reg.New(types.CatInt, "", "", at(3))
	reg.SetJSON(opt, &encattr.JSON{OmitAsNull: true})
	reg.NewRecord(types.CatSequenceT, "M", "R", at(4),
		types.FieldEntry{Name: "m", Type: mand},
		types.FieldEntry{Name: "o", Type: opt, Optional: true},
	)

	color := reg.NewEnum(types.CatEnumT, "M", "Color", at(5), types.EnumItem{Name: "red"})
	txt := encattr.NewTEXT()
	txt.Items = []encattr.EnumToken{{Name: "red", Token: *encattr.NewToken("R")}, {Name: "blue", Token: *encattr.NewToken("B")}}
	reg.SetTEXT(color, txt)

	res, bag := run(reg)
	if count(bag, diag.CodAttrOnWrongType) != 2 || count(bag, diag.CodBadAttribute) != 1 {
		t.Fatalf("unexpected diagnostics: %v", bag.Codes())
	}
	if !res.IsErroneous(listed) || !res.IsErroneous(mand) || res.IsErroneous(opt) {
		t.Fatalf("wrong erroneous set: %v", res.Erroneous())
	}
}

func TestRequireCompatible(t *testing.T) {
	reg := types.NewRegistry()
	cstr := builtin(t, reg, types.CatCharString)
	ustr := builtin(t, reg, types.CatUniversalCharString)
	res, _ := run(reg)

	bag := diag.NewBag(10)
	rep := diag.BagReporter{Bag: bag}
	if !res.RequireCompatible(rep, ustr, cstr, at(1)) {
		t.Fatalf("universal charstring accepts charstring")
	}
	if res.RequireCompatible(rep, cstr, ustr, at(2)) {
		t.Fatalf("charstring must not accept universal charstring")
	}
	if count(bag, diag.CmpIncompatible) != 1 || len(bag.Items()[0].Notes) != 1 {
		t.Fatalf("want one incompatibility with a reason note, got %+v", bag.Items())
	}
}
