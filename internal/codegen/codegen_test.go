package codegen

import (
	"slices"
	"strings"
	"testing"

	"tycodec/internal/descriptor"
	"tycodec/internal/diag"
	"tycodec/internal/encattr"
	"tycodec/internal/jsonschema"
	"tycodec/internal/output"
	"tycodec/internal/sema"
	"tycodec/internal/source"
	"tycodec/internal/subtype"
	"tycodec/internal/types"
)

func at(n uint32) source.Span { return source.Span{Start: n, End: n + 1} }

func builtin(t *testing.T, r *types.Registry, c types.Category) types.TypeID {
	t.Helper()
	id, ok := r.Builtin(c)
	if !ok {
		t.Fatalf("no builtin %s", c)
	}
	return id
}

type fixture struct {
	res *sema.Result
	acc *output.Accumulator
	gen *Generator
	bag *diag.Bag
}

func generate(t *testing.T, reg *types.Registry, formats ...types.Format) fixture {
	t.Helper()
	bag := diag.NewBag(100)
	rep := diag.BagReporter{Bag: bag}
	res := sema.Check(reg, sema.Options{Reporter: rep})
	if bag.HasErrors() {
		t.Fatalf("unexpected semantic errors: %v", bag.Codes())
	}
	acc := output.New("test")
	g := New(res, acc, output.NewGoText("codecs", "", false), Options{
		Formats:  types.NewFormatSet(formats...),
		Reporter: rep,
	})
	g.Generate()
	return fixture{res: res, acc: acc, gen: g, bag: bag}
}

func lookup(t *testing.T, tab *descriptor.Table, name string) *descriptor.Descriptor {
	t.Helper()
	d, ok := tab.Lookup(name)
	if !ok {
		t.Fatalf("descriptor %s not generated; have %v", name, tab.All())
	}
	return d
}

func TestAliasSharesDescriptor(t *testing.T) {
	reg := types.NewRegistry()
	integer := builtin(t, reg, types.CatInt)

	t1 := reg.New(types.CatInt, "M", "T1", at(1))
	raw := encattr.NewRAW(true)
	reg.SetRAW(t1, raw)
	reg.NewReference("M", "T2", t1, at(2))
	t3 := reg.NewReference("M", "T3", t1, at(3))
	wide := encattr.NewRAW(true)
	wide.FieldLength = 16
	reg.SetRAW(t3, wide)

	rec := reg.NewRecord(types.CatSequenceT, "M", "Rec", at(4))
	t2, _ := reg.Named("M", "T2")
	reg.AddField(rec, types.FieldEntry{Name: "a", Type: reg.NewReference("", "", t2, at(5))})
	reg.AddField(rec, types.FieldEntry{Name: "b", Type: reg.New(types.CatInt, "", "", at(6))})
	reg.AddField(rec, types.FieldEntry{Name: "c", Type: integer})

	f := generate(t, reg, types.FormatBER, types.FormatRAW)
	tab := f.acc.Table

	d1 := lookup(t, tab, "M_T1")
	if d1.Alias != "" || !d1.Owns(types.FormatRAW) || d1.RAW.FieldLength != 8 {
		t.Fatalf("T1 should own its RAW data: %+v", d1.RAW)
	}
	if d1.BER.Owner != "INTEGER" {
		t.Fatalf("T1 has no tags of its own, BER owner = %q", d1.BER.Owner)
	}

	d2 := lookup(t, tab, "M_T2")
	if d2.Alias != "M_T1" {
		t.Fatalf("T2 adds nothing and must alias T1, got %q", d2.Alias)
	}
	if target, ok := tab.Target("M_T2"); !ok || target != d1 {
		t.Fatalf("alias must resolve to the T1 descriptor")
	}

	d3 := lookup(t, tab, "M_T3")
	if d3.Alias != "" || d3.RAW.Owner != "M_T3" || d3.RAW.FieldLength != 16 || d3.BER.Owner != "INTEGER" {
		t.Fatalf("T3 overrides RAW and shares BER: %+v %+v", d3.RAW, d3.BER)
	}

	dr := lookup(t, tab, "M_Rec")
	got := []string{dr.Fields[0].Descr, dr.Fields[1].Descr, dr.Fields[2].Descr}
	if !slices.Equal(got, []string{"M_T2", "INTEGER", "INTEGER"}) {
		t.Fatalf("field descriptors = %v", got)
	}
	if _, ok := tab.Lookup("M_Rec_a"); ok {
		t.Fatalf("an anonymous alias must not get a descriptor")
	}

	text := string(output.NewGoText("codecs", "", false).File(f.acc))
	if !strings.Contains(text, "var m_T2_descr_ = m_T1_descr_\n") {
		t.Fatalf("alias not rendered as a shared pointer:\n%s", text)
	}
	if strings.Contains(text, "m_T2_raw_") {
		t.Fatalf("alias must not carry its own RAW data:\n%s", text)
	}
}

func TestRAWCrossReferencesBecomeIndices(t *testing.T) {
	reg := types.NewRegistry()
	octets := builtin(t, reg, types.CatOctetString)

	flag := reg.New(types.CatInt, "", "", at(1))
	flagRAW := encattr.NewRAW(true)
	flagRAW.FieldLength = 1
	reg.SetRAW(flag, flagRAW)

	length := reg.New(types.CatInt, "", "", at(2))
	lenRAW := encattr.NewRAW(true)
	lenRAW.LengthTo = []string{"payload"}
	reg.SetRAW(length, lenRAW)

	opt := reg.New(types.CatInt, "", "", at(3))
	optRAW := encattr.NewRAW(true)
	optRAW.Presence = []encattr.TagKey{{Field: encattr.FieldPath{"flag"}, Value: "1"}}
	reg.SetRAW(opt, optRAW)

	reg.NewRecord(types.CatSequenceT, "M", "Msg", at(4),
		types.FieldEntry{Name: "flag", Type: flag},
		types.FieldEntry{Name: "len", Type: length},
		types.FieldEntry{Name: "payload", Type: octets},
		types.FieldEntry{Name: "opt", Type: opt, Optional: true},
	)

	f := generate(t, reg, types.FormatRAW)
	tab := f.acc.Table

	dl := lookup(t, tab, "M_Msg_len")
	if !slices.Equal(dl.RAW.LengthTo, []int{2}) {
		t.Fatalf("LengthTo = %v, want [2]", dl.RAW.LengthTo)
	}
	if dl.RAW.PointerTo != -1 || dl.RAW.PtrBase != -1 {
		t.Fatalf("unset pointers must be -1: %+v", dl.RAW)
	}
	do := lookup(t, tab, "M_Msg_opt")
	if len(do.RAW.Presence) != 1 || !slices.Equal(do.RAW.Presence[0].Path, []int{0}) || do.RAW.Presence[0].Value != "1" {
		t.Fatalf("Presence = %+v", do.RAW.Presence)
	}

	var order []string
	for _, d := range tab.All() {
		if !d.Builtin {
			order = append(order, d.Name)
		}
	}
	want := []string{"M_Msg_flag", "M_Msg_len", "M_Msg", "M_Msg_opt"}
	if !slices.Equal(order, want) {
		t.Fatalf("generation order = %v, want %v", order, want)
	}
}

func TestJSONSchemaReferences(t *testing.T) {
	reg := types.NewRegistry()
	integer := builtin(t, reg, types.CatInt)

	byteT := reg.NewReference("M", "Byte", integer, at(1))
	reg.SetRestrictions(byteT, subtype.Restriction{Kind: subtype.RestrictRange, Ints: []subtype.IntRange{{Lo: 0, Hi: 255}}})

	small := reg.NewReference("", "", byteT, at(2))
	reg.SetRestrictions(small, subtype.Restriction{Kind: subtype.RestrictRange, Ints: []subtype.IntRange{{Lo: 1, Hi: 10}}})
	reg.NewRecord(types.CatSequenceT, "M", "Rec", at(3),
		types.FieldEntry{Name: "a", Type: small},
		types.FieldEntry{Name: "b", Type: reg.New(types.CatCharString, "", "", at(4)), Optional: true},
	)

	f := generate(t, reg, types.FormatJSON)
	got := jsonschema.Compact(f.gen.Schema("M"))
	want := `{"definitions":{"M":{` +
		`"Byte":{"type":"integer","minimum":0,"maximum":255},` +
		`"Rec":{"type":"object","subType":"record","properties":{` +
		`"a":{"allOf":[{"$ref":"#/definitions/M/Byte"},{"minimum":1,"maximum":10}]},` +
		`"b":{"anyOf":[{"type":"null"},{"type":"string","subType":"charstring"}],"omitAsNull":false}},` +
		`"additionalProperties":false,"required":["a"],"fieldOrder":["a","b"]}}}}`
	if got != want {
		t.Fatalf("schema mismatch:\n got %s\nwant %s", got, want)
	}

	d := lookup(t, f.acc.Table, "M_Byte")
	if !d.Owns(types.FormatJSON) || d.JSON.Schema == nil {
		t.Fatalf("a restricted type owns its JSON part")
	}
	if d.Constraint == "" {
		t.Fatalf("constraint not recorded")
	}
}

func TestRequestedFormatWithoutCodecIsSkipped(t *testing.T) {
	reg := types.NewRegistry()
	v := reg.New(types.CatVerdict, "M", "V", at(1))
	reg.AddEncoding(v, types.FormatRAW)
	reg.SetJSON(v, &encattr.JSON{Extensions: []encattr.SchemaExtension{{Key: "x-kind", Value: "verdict"}}})
	reg.New(types.CatBool, "M", "Quiet", at(2))

	f := generate(t, reg, types.FormatRAW, types.FormatJSON)
	codes := f.bag.Codes()
	if len(codes) != 1 || codes[0] != diag.GenSkippedFormat {
		t.Fatalf("want one GenSkippedFormat, got %v", codes)
	}
	d := lookup(t, f.acc.Table, "M_V")
	if d.RAW != nil || d.JSON == nil || !d.Owns(types.FormatJSON) {
		t.Fatalf("RAW must be skipped while JSON proceeds: %v", d)
	}
	if v, _ := d.JSON.Schema.Get("x-kind"); v != jsonschema.String("verdict") {
		t.Fatalf("schema extension missing: %s", jsonschema.Compact(d.JSON.Schema))
	}
	if q := lookup(t, f.acc.Table, "M_Quiet"); q.Alias != "BOOLEAN" {
		t.Fatalf("a plain boolean definition aliases the built-in descriptor, got %q", q.Alias)
	}
}

func TestEnumTextTokens(t *testing.T) {
	reg := types.NewRegistry()
	e := reg.NewEnum(types.CatEnumT, "M", "Color", at(1),
		types.EnumItem{Name: "red"}, types.EnumItem{Name: "green", Value: 5, HasValue: true})
	txt := encattr.NewTEXT()
	txt.Items = []encattr.EnumToken{{Name: "green", Token: encattr.Token{Encode: "G", CaseSensitive: true}}}
	reg.SetTEXT(e, txt)

	f := generate(t, reg, types.FormatTEXT)
	d := lookup(t, f.acc.Table, "M_Color")
	if len(d.TEXT.Items) != 2 {
		t.Fatalf("every item needs a token: %+v", d.TEXT.Items)
	}
	red, green := d.TEXT.Items[0], d.TEXT.Items[1]
	if red.Token.Encode != "red" || red.Value != 0 {
		t.Fatalf("default token for red: %+v", red)
	}
	if green.Token.Encode != "G" || green.Value != 5 || green.Token.Decode != "^(?:G)" {
		t.Fatalf("explicit token for green: %+v", green)
	}
}
