package output

import (
	"strings"
	"testing"

	"tycodec/internal/descriptor"
	"tycodec/internal/encattr"
	"tycodec/internal/types"
)

func TestGoTextAliasSharesDescriptor(t *testing.T) {
	acc := New("m")
	acc.Table.Add(&descriptor.Descriptor{Name: "INTEGER", Builtin: true, Category: types.CatInt})
	d := &descriptor.Descriptor{
		Name:     "M_Int8",
		Type:     "M.Int8",
		Category: types.CatInt,
		BER:      &descriptor.BER{Owner: "INTEGER"},
		RAW: &descriptor.RAW{
			Owner:       "M_Int8",
			FieldLength: 8,
			Sign:        encattr.SignTwosComplement,
			PointerTo:   -1,
			PtrBase:     -1,
		},
	}
	alias := &descriptor.Descriptor{Name: "M_Alias", Alias: "M_Int8"}
	acc.Table.Add(d)
	acc.Table.Add(alias)

	g := NewGoText("codecs", "", false)
	for _, d := range acc.Table.All() {
		g.Descriptor(acc, d)
	}
	want := `// Code generated by tycodec. DO NOT EDIT.

package codecs

import rt "tycodec/rt"

var m_Int8_descr_ = new(rt.TypeDescriptor)
var m_Alias_descr_ = m_Int8_descr_

var m_Int8_raw_ = rt.RAW{
	FieldLength: 8,
	Sign: rt.SG_2COMPL,
}

func init() {
	*m_Int8_descr_ = rt.TypeDescriptor{
		Name:     "M.Int8",
		Category: "integer",
		BER: &rt.INTEGER_ber_,
		RAW: &m_Int8_raw_,
	}
}
`
	if got := string(g.File(acc)); got != want {
		t.Fatalf("unexpected output:\n%s\nwant:\n%s", got, want)
	}
}

func TestGoTextSplitExportsListCodec(t *testing.T) {
	acc := New("m")
	acc.Table.Add(&descriptor.Descriptor{Name: "INTEGER", Builtin: true})
	d := &descriptor.Descriptor{
		Name:     "m_L",
		Type:     "m.L",
		Category: types.CatSequenceOf,
		List: &descriptor.ListCodec{
			Descr:   "m_L",
			Elem:    "INTEGER",
			Layout:  descriptor.LayoutContiguous,
			Formats: []types.Format{types.FormatRAW, types.FormatJSON},
		},
	}
	acc.Table.Add(d)
	g := NewGoText("codecs", "example.com/rt", true)
	g.Descriptor(acc, d)
	g.ListCodec(acc, d)
	out := string(g.File(acc))
	for _, want := range []string{
		`import rt "example.com/rt"`,
		"var M_L_descr_ = new(rt.TypeDescriptor)",
		"var M_L_list_ = rt.ListCodec{",
		"\tElem:   rt.INTEGER_descr_,\n",
		"\tLayout: rt.LayoutContiguous,\n",
		"\tFormats: []rt.Format{rt.FormatRAW, rt.FormatJSON},\n",
		"func EncodeM_L(f rt.Format, v *rt.List) ([]byte, error) {",
		"\treturn rt.DecodeList(&M_L_list_, M_L_descr_, f, data)",
		"\t\tList: &M_L_list_,\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestSnapshotRestore(t *testing.T) {
	acc := New("unit")
	acc.Printf(BucketPublic, "func f() {}\n")
	acc.Table.Add(&descriptor.Descriptor{Name: "X"})
	acc.Table.Namespace(encattr.Namespace{URI: "urn:x", Prefix: "x"})
	s := acc.Snapshot()
	back := s.Restore()
	if back.Text(BucketPublic) != "func f() {}\n" || back.Unit != "unit" {
		t.Fatalf("restore lost text: %+v", s)
	}
	if _, ok := back.Table.Lookup("X"); !ok {
		t.Fatalf("restore lost descriptor names")
	}
	if len(back.Table.Namespaces) != 1 || back.Table.Namespaces[0].Prefix != "x" {
		t.Fatalf("restore lost namespaces: %+v", back.Table.Namespaces)
	}
	if New("x").Empty() != true || back.Empty() {
		t.Fatalf("Empty misreports")
	}
}
