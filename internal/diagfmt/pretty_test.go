package diagfmt

import (
	"bytes"
	"strings"
	"testing"

	"tycodec/internal/diag"
	"tycodec/internal/source"
)

const schemaText = "[[module.type]]\nname = \"Frame\"\ntarget = \"Nowhere\"\n"

// TestPathModes проверяет различные режимы форматирования путей
func TestPathModes(t *testing.T) {
	fs := source.NewFileSetWithBase("/home/user/project")
	fileID := fs.AddVirtual("/home/user/project/schemas/wire.toml", []byte(schemaText))

	bag := diag.NewBag(10)
	bag.Add(diag.NewError(diag.TypUnresolvedRef, source.Span{File: fileID, Start: 40, End: 49}, "unknown type \"Nowhere\""))

	tests := []struct {
		name     string
		mode     PathMode
		contains string
	}{
		{"Absolute path", PathModeAbsolute, "/home/user/project/schemas/wire.toml:3:10"},
		{"Relative path", PathModeRelative, "schemas/wire.toml:3:10"},
		{"Basename only", PathModeBasename, "wire.toml:3:10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			Pretty(&buf, bag, fs, PrettyOpts{Context: 1, PathMode: tt.mode})
			output := buf.String()

			if !strings.Contains(output, tt.contains) {
				t.Errorf("Expected output to contain %q, got:\n%s", tt.contains, output)
			}
			if !strings.Contains(output, "ERROR TYP1001: unknown type") {
				t.Errorf("Expected severity, code and message, got:\n%s", output)
			}
		})
	}
}

func TestPrettySnippet(t *testing.T) {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("wire.toml", []byte(schemaText))

	bag := diag.NewBag(4)
	d := diag.NewError(diag.TypUnresolvedRef, source.Span{File: fileID, Start: 40, End: 49}, "unknown type")
	d = d.WithNote(source.Span{File: fileID, Start: 23, End: 30}, "referenced from here")
	d = d.WithNote(source.NoSpan, "declare the type or import its module")
	bag.Add(d)

	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{Context: 1, PathMode: PathModeBasename, ShowNotes: true})
	got := buf.String()

	want := strings.Join([]string{
		"wire.toml:3:10: ERROR TYP1001: unknown type",
		"  2 | name = \"Frame\"",
		"  3 | target = \"Nowhere\"",
		// подчёркивание покрывает имя вместе с кавычками
		"    |          ^~~~~~~~~",
		"  note: wire.toml:2:8: referenced from here",
		"  note: declare the type or import its module",
		"",
	}, "\n")
	if got != want {
		t.Fatalf("unexpected output:\n%s\nwant:\n%s", got, want)
	}
}

func TestPrettyBuiltinSpan(t *testing.T) {
	bag := diag.NewBag(2)
	bag.Add(diag.New(diag.SevWarning, diag.IOCacheError, source.NoSpan, "descriptor cache ignored"))

	var buf bytes.Buffer
	Pretty(&buf, bag, source.NewFileSet(), PrettyOpts{Context: 2})
	if got := buf.String(); got != "<builtin>: WARNING IO7003: descriptor cache ignored\n" {
		t.Fatalf("got %q", got)
	}
}

func TestPrettyWidth(t *testing.T) {
	bag := diag.NewBag(2)
	bag.Add(diag.NewError(diag.IOBadSchema, source.NoSpan, strings.Repeat("x", 40)))

	var buf bytes.Buffer
	Pretty(&buf, bag, nil, PrettyOpts{Width: 10})
	if !strings.HasSuffix(buf.String(), ": xxxxxxx...\n") {
		t.Fatalf("message not clipped: %q", buf.String())
	}
}

func TestParsePathMode(t *testing.T) {
	for _, s := range []string{"auto", "absolute", "relative", "basename"} {
		m, ok := ParsePathMode(s)
		if !ok || m.String() != s {
			t.Fatalf("ParsePathMode(%q) = %v, %v", s, m, ok)
		}
	}
	if _, ok := ParsePathMode("fancy"); ok {
		t.Fatalf("unknown mode accepted")
	}
}
