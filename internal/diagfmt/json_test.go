package diagfmt

import (
	"bytes"
	"encoding/json"
	"testing"

	"tycodec/internal/diag"
	"tycodec/internal/source"
)

// TestJSONBasic проверяет базовое JSON форматирование
func TestJSONBasic(t *testing.T) {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("wire.toml", []byte(schemaText))

	bag := diag.NewBag(10)
	d := diag.NewError(diag.TypUnresolvedRef, source.Span{File: fileID, Start: 40, End: 49}, "unknown type")
	d = d.WithNote(source.NoSpan, "declare the type")
	bag.Add(d)

	var buf bytes.Buffer
	err := JSON(&buf, bag, fs, JSONOpts{
		IncludePositions: true,
		PathMode:         PathModeBasename,
		IncludeNotes:     true,
		IncludeSource:    true,
	})
	if err != nil {
		t.Fatalf("JSON() error: %v", err)
	}

	var output DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &output); err != nil {
		t.Fatalf("Invalid JSON output: %v\nOutput: %s", err, buf.String())
	}
	if output.Count != 1 || len(output.Diagnostics) != 1 {
		t.Fatalf("Expected 1 diagnostic, got %+v", output)
	}

	got := output.Diagnostics[0]
	if got.Severity != "ERROR" || got.Code != "TYP1001" || got.Message != "unknown type" {
		t.Errorf("unexpected header fields: %+v", got)
	}
	if got.Location == nil {
		t.Fatalf("location missing")
	}
	loc := *got.Location
	want := LocationJSON{File: "wire.toml", StartByte: 40, EndByte: 49, StartLine: 3, StartCol: 10, EndLine: 3, EndCol: 19}
	if loc != want {
		t.Errorf("location = %+v, want %+v", loc, want)
	}
	if got.Source != "target = \"Nowhere\"" {
		t.Errorf("source = %q", got.Source)
	}
	if len(got.Notes) != 1 || got.Notes[0].Location != nil {
		t.Errorf("notes = %+v", got.Notes)
	}
}

// TestJSONMax проверяет обрезку вывода и заметки таймингов
func TestJSONMax(t *testing.T) {
	bag := diag.NewBag(10)
	bag.Add(diag.Diagnostic{
		Severity: diag.SevInfo,
		Code:     diag.ObsTimings,
		Message:  "timings",
		Primary:  source.NoSpan,
		Notes:    []diag.Note{{Span: source.NoSpan, Msg: `{"kind":"unit"}`}},
	})
	bag.Add(diag.NewError(diag.IOBadSchema, source.NoSpan, "second"))

	out := BuildDiagnosticsOutput(bag, nil, JSONOpts{Max: 1})
	if out.Count != 1 {
		t.Fatalf("count = %d", out.Count)
	}
	d := out.Diagnostics[0]
	if d.Location != nil {
		t.Errorf("builtin span must have no location")
	}
	if len(d.Notes) != 1 || d.Notes[0].Message != `{"kind":"unit"}` {
		t.Errorf("timing notes must be kept: %+v", d.Notes)
	}
}
