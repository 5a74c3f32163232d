package source

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileSetVersioning(t *testing.T) {
	fs := NewFileSet()
	id1 := fs.Add("types.toml", []byte("a = 1"), 0)
	id2 := fs.Add("types.toml", []byte("a = 2"), 0)
	if id1 == id2 {
		t.Fatalf("expected distinct ids for two versions")
	}
	latest, ok := fs.GetLatest("types.toml")
	if !ok || latest != id2 {
		t.Fatalf("GetLatest = %d,%v; want %d", latest, ok, id2)
	}
	if got := string(fs.Get(id1).Content); got != "a = 1" {
		t.Fatalf("old version content = %q", got)
	}
}

func TestResolveLineCol(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("v.toml", []byte("[types.A]\ncategory = \"int\"\n"))
	tests := []struct {
		off  uint32
		want LineCol
	}{
		{0, LineCol{Line: 1, Col: 1}},
		{9, LineCol{Line: 1, Col: 10}},
		{10, LineCol{Line: 2, Col: 1}},
		{15, LineCol{Line: 2, Col: 6}},
	}
	for _, tt := range tests {
		start, _ := fs.Resolve(Span{File: id, Start: tt.off, End: tt.off})
		if start != tt.want {
			t.Errorf("offset %d: got %+v, want %+v", tt.off, start, tt.want)
		}
	}
}

func TestFindAndGetLine(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("v.toml", []byte("x = 1\n[types.Rec]\nkind = \"record\"\n"))
	sp, ok := fs.Find(id, "[types.Rec]", 0)
	if !ok {
		t.Fatalf("header not found")
	}
	start, _ := fs.Resolve(sp)
	if start.Line != 2 || start.Col != 1 {
		t.Fatalf("unexpected position %+v", start)
	}
	if line := fs.Get(id).GetLine(2); line != "[types.Rec]" {
		t.Fatalf("GetLine(2) = %q", line)
	}
	if line := fs.Get(id).GetLine(9); line != "" {
		t.Fatalf("GetLine past end = %q", line)
	}
}

func TestLoadNormalizesCRLFAndBOM(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "in.toml")
	if err := os.WriteFile(path, []byte("\xEF\xBB\xBFa = 1\r\nb = 2\r\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	fs := NewFileSetWithBase(dir)
	id, err := fs.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	f := fs.Get(id)
	if string(f.Content) != "a = 1\nb = 2\n" {
		t.Fatalf("content not normalized: %q", f.Content)
	}
	if f.Flags&FileHadBOM == 0 || f.Flags&FileNormalizedCRLF == 0 {
		t.Fatalf("flags not recorded: %b", f.Flags)
	}
	if got := f.FormatPath("relative", dir); got != "in.toml" {
		t.Fatalf("relative path = %q", got)
	}
}

func TestInterner(t *testing.T) {
	in := NewInterner()
	a := in.Intern("Rec")
	b := in.Intern("Rec")
	if a != b || a == NoStringID {
		t.Fatalf("interning not stable: %d %d", a, b)
	}
	if s := in.MustLookup(a); s != "Rec" {
		t.Fatalf("lookup = %q", s)
	}
	if _, ok := in.Lookup(StringID(99)); ok {
		t.Fatalf("unknown id resolved")
	}
}
