package schema

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"tycodec/internal/diag"
	"tycodec/internal/encattr"
	"tycodec/internal/sema"
	"tycodec/internal/source"
	"tycodec/internal/subtype"
	"tycodec/internal/tags"
	"tycodec/internal/types"
)

const msgsSchema = `
[[module]]
name = "Msgs"
tagging = "automatic"

[[module.type]]
name = "Packet"
kind = "SEQUENCE"
fields = [
  { name = "hdr", type = "Header" },
  { name = "items", type = { kind = "SEQUENCE OF", elem = "INTEGER" } },
  { name = "note", type = "UTF8String", optional = true },
]
tags = [{ class = "APPLICATION", number = 3, mode = "implicit" }]

[[module.type]]
name = "Header"
kind = "record"
fields = [{ name = "len", type = "integer" }]
encode = ["RAW"]

[module.type.raw]
fieldorder = "msb"

[[module.type]]
name = "Nibbles"
kind = "record of"
elem = "integer"
restrictions = [{ size = [[1, 8]] }]

[module.type.raw]
padding = 8

[[module.type]]
name = "Color"
kind = "enumerated"
items = [{ name = "red", value = 2 }, { name = "green" }]

[module.type.text]
begin = "<"
end = { encode = ">", case_insensitive = true }

[[module.type]]
name = "Alias"
kind = "reference"
target = "Other.Remote"
`

const otherSchema = `
[[module]]
name = "Other"

[[module.type]]
name = "Remote"
kind = "integer"
restrictions = [{ range = [[0, "max"]] }]

[module.type.raw]
fieldlength = 4
`

func named(t *testing.T, reg *types.Registry, module, name string) types.TypeID {
	t.Helper()
	id, ok := reg.Named(module, name)
	if !ok {
		t.Fatalf("%s.%s not declared", module, name)
	}
	return id
}

func TestLoadAcrossFiles(t *testing.T) {
	dir := t.TempDir()
	msgs := filepath.Join(dir, "msgs.toml")
	other := filepath.Join(dir, "other.toml")
	if err := os.WriteFile(msgs, []byte(msgsSchema), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(other, []byte(otherSchema), 0o600); err != nil {
		t.Fatal(err)
	}

	fs := source.NewFileSet()
	reg := types.NewRegistry()
	if err := Load(fs, reg, msgs, other); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if got := reg.ModuleDefault("Msgs"); got != tags.DefaultAutomatic {
		t.Fatalf("tagging default = %v", got)
	}

	packet := named(t, reg, "Msgs", "Packet")
	if reg.Category(packet) != types.CatSequenceA {
		t.Fatalf("Packet category = %v", reg.Category(packet))
	}
	fields := reg.MustRecordInfo(packet).Fields
	if fields.Len() != 3 {
		t.Fatalf("Packet has %d fields", fields.Len())
	}
	items, _ := fields.Lookup("items")
	if reg.Category(items.Type) != types.CatSequenceOf {
		t.Fatalf("items category = %v", reg.Category(items.Type))
	}
	it := reg.MustLookup(items.Type)
	if it.Owner != types.OwnerField || it.Parent != packet || it.FieldName != "items" {
		t.Fatalf("inline type not embedded: %+v", it)
	}
	intA, _ := reg.Builtin(types.CatIntA)
	if reg.MustListInfo(items.Type).Elem != intA {
		t.Fatalf("items element is not INTEGER")
	}
	note, _ := fields.Lookup("note")
	if !note.Optional {
		t.Fatalf("note should be optional")
	}
	if !note.Span.Known() || fs.Get(note.Span.File).Path == "" {
		t.Fatalf("note span not located: %v", note.Span)
	}
	ptags := reg.Attrs(packet).Tags
	if len(ptags) != 1 || ptags[0].Class != tags.Application || ptags[0].Plicity != tags.Implicit {
		t.Fatalf("Packet tags = %+v", ptags)
	}
	if v := ptags[0].Value(); v.Number != 3 {
		t.Fatalf("tag number = %d", v.Number)
	}

	header := named(t, reg, "Msgs", "Header")
	ha := reg.Attrs(header)
	if ha.RAW == nil || ha.RAW.FieldOrder != encattr.OrderMSB {
		t.Fatalf("Header RAW = %+v", ha.RAW)
	}
	if len(ha.Encodings) != 1 || ha.Encodings[0] != types.FormatRAW {
		t.Fatalf("Header encodings = %v", ha.Encodings)
	}

	nibbles := named(t, reg, "Msgs", "Nibbles")
	na := reg.Attrs(nibbles)
	if na.RAW.Padding != 8 || len(na.Restrictions) != 1 || na.Restrictions[0].Kind != subtype.RestrictSize {
		t.Fatalf("Nibbles attrs = %+v", na)
	}

	color := named(t, reg, "Msgs", "Color")
	enum := reg.MustEnumInfo(color)
	if len(enum.Items) != 2 || !enum.Items[0].HasValue || enum.Items[0].Value != 2 || enum.Items[1].HasValue {
		t.Fatalf("Color items = %+v", enum.Items)
	}
	text := reg.Attrs(color).TEXT
	if text.Begin.Encode != "<" || !text.Begin.CaseSensitive || text.End.CaseSensitive {
		t.Fatalf("Color TEXT = %+v %+v", text.Begin, text.End)
	}

	remote := named(t, reg, "Other", "Remote")
	if reg.MustRefInfo(named(t, reg, "Msgs", "Alias")).Target != remote {
		t.Fatalf("Alias does not point at Other.Remote")
	}
	ra := reg.Attrs(remote)
	if ra.RAW.FieldLength != 4 {
		t.Fatalf("Remote FIELDLENGTH = %d", ra.RAW.FieldLength)
	}
	if r := ra.Restrictions[0]; r.Ints[0].Lo != 0 || r.Ints[0].Hi != subtype.PosInf {
		t.Fatalf("Remote range = %+v", r.Ints)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name   string
		schema string
		want   error
	}{
		{
			name:   "unknown type",
			schema: "[[module]]\nname = \"M\"\n[[module.type]]\nname = \"A\"\nkind = \"reference\"\ntarget = \"Missing\"\n",
			want:   ErrUnknownType,
		},
		{
			name:   "duplicate type",
			schema: "[[module]]\nname = \"M\"\n[[module.type]]\nname = \"A\"\nkind = \"integer\"\n[[module.type]]\nname = \"A\"\nkind = \"boolean\"\n",
			want:   ErrDuplicate,
		},
		{
			name:   "unknown kind",
			schema: "[[module]]\nname = \"M\"\n[[module.type]]\nname = \"A\"\nkind = \"widget\"\n",
		},
		{
			name:   "array without count",
			schema: "[[module]]\nname = \"M\"\n[[module.type]]\nname = \"A\"\nkind = \"array\"\nelem = \"integer\"\n",
		},
		{
			name:   "bad raw",
			schema: "[[module]]\nname = \"M\"\n[[module.type]]\nname = \"A\"\nkind = \"integer\"\n[module.type.raw]\nbyteorder = \"middle\"\n",
		},
		{
			name:   "syntax",
			schema: "[[module]\nname = \"M\"\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLoader(source.NewFileSet(), types.NewRegistry())
			err := l.LoadBytes("schema.toml", []byte(tt.schema))
			if err == nil {
				err = l.Finish()
			}
			if err == nil {
				t.Fatalf("expected error")
			}
			var le *LoadError
			if !errors.As(err, &le) {
				t.Fatalf("error %v is not a LoadError", err)
			}
			if le.Path != "schema.toml" {
				t.Fatalf("path = %q", le.Path)
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Fatalf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestLoadedGraphChecks(t *testing.T) {
	const schema = `
[[module]]
name = "M"

[[module.type]]
name = "Rec"
kind = "SEQUENCE"
fields = [
  { name = "a", type = "INTEGER" },
  { name = "b", type = "List" },
]

[[module.type]]
name = "List"
kind = "SEQUENCE OF"
elem = "INTEGER"
`
	reg := types.NewRegistry()
	l := NewLoader(source.NewFileSet(), reg)
	if err := l.LoadBytes("m.toml", []byte(schema)); err != nil {
		t.Fatalf("LoadBytes: %v", err)
	}
	if err := l.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	bag := diag.NewBag(10)
	sema.Check(reg, sema.Options{Reporter: diag.BagReporter{Bag: bag}})
	if bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", bag.Codes())
	}
}
