package descriptor

import (
	"testing"

	"tycodec/internal/encattr"
	"tycodec/internal/types"
)

func TestTableAliasTarget(t *testing.T) {
	tab := NewTable()
	base := &Descriptor{Name: "M_T1", Category: types.CatInt, RAW: &RAW{Owner: "M_T1", FieldLength: 8}}
	tab.Add(base)
	tab.Add(&Descriptor{Name: "M_T2", Alias: "M_T1"})
	tab.Add(&Descriptor{Name: "M_T3", Alias: "M_T2"})

	got, ok := tab.Target("M_T3")
	if !ok || got != base {
		t.Fatalf("Target(M_T3) = %v, %v", got, ok)
	}
	if _, added := tab.Add(&Descriptor{Name: "M_T1"}); added {
		t.Fatalf("duplicate name must not be added")
	}
	if tab.Len() != 3 {
		t.Fatalf("Len = %d", tab.Len())
	}

	tab.Add(&Descriptor{Name: "L1", Alias: "L2"})
	tab.Add(&Descriptor{Name: "L2", Alias: "L1"})
	if _, ok := tab.Target("L1"); ok {
		t.Fatalf("alias loop must not resolve")
	}
}

func TestOwnership(t *testing.T) {
	d := &Descriptor{
		Name: "M_Ref",
		BER:  &BER{Owner: "INTEGER"},
		RAW:  &RAW{Owner: "M_Ref"},
	}
	if d.Owns(types.FormatBER) || !d.Owns(types.FormatRAW) || d.Owns(types.FormatXER) {
		t.Fatalf("unexpected ownership")
	}
	if fs := d.Formats(); len(fs) != 2 || fs[0] != types.FormatBER || fs[1] != types.FormatRAW {
		t.Fatalf("Formats = %v", fs)
	}
}

func TestNamespaceInterning(t *testing.T) {
	tab := NewTable()
	a := tab.Namespace(encattr.Namespace{URI: "urn:a", Prefix: "a"})
	b := tab.Namespace(encattr.Namespace{URI: "urn:b", Prefix: "b"})
	if a != 0 || b != 1 || tab.Namespace(encattr.Namespace{URI: "urn:a", Prefix: "a"}) != 0 {
		t.Fatalf("namespaces not interned: %v", tab.Namespaces)
	}
}
