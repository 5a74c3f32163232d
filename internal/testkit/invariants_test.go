package testkit

import (
	"strings"
	"testing"

	"tycodec/internal/schema"
	"tycodec/internal/source"
	"tycodec/internal/types"
)

func TestCheckGraphInvariants(t *testing.T) {
	fs := source.NewFileSet()
	reg := types.NewRegistry()
	l := schema.NewLoader(fs, reg)
	doc := `
[[module]]
name = "Wire"

[[module.type]]
name = "Frame"
kind = "SEQUENCE"
fields = [{ name = "id", type = "INTEGER" }, { name = "body", type = "Ints" }]

[[module.type]]
name = "Ints"
kind = "SEQUENCE OF"
elem = "INTEGER"
`
	if err := l.LoadBytes("wire.toml", []byte(doc)); err != nil {
		t.Fatal(err)
	}
	if err := l.Finish(); err != nil {
		t.Fatal(err)
	}
	if err := CheckGraphInvariants(reg, fs); err != nil {
		t.Fatalf("CheckGraphInvariants: %v", err)
	}
}

func TestCheckGraphInvariantsReportsBrokenList(t *testing.T) {
	fs := source.NewFileSet()
	reg := types.NewRegistry()
	id := fs.AddVirtual("x.toml", []byte(`name = "Bad"`))
	reg.New(types.CatSequenceOf, "M", "Bad", source.Span{File: id, Start: 7, End: 12})

	err := CheckGraphInvariants(reg, fs)
	if err == nil || !strings.Contains(err.Error(), "element type") {
		t.Fatalf("err = %v", err)
	}

	if err := CheckGraphInvariants(nil, fs); err == nil {
		t.Fatalf("nil registry must fail")
	}
}
