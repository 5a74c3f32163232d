package diag

import (
	"testing"

	"tycodec/internal/source"
)

func TestFormatShortDiagnosticsSortsAndResolves(t *testing.T) {
	fs := source.NewFileSetWithBase(".")
	id := fs.AddVirtual("schema.toml", []byte("[types.A]\nkind = \"set\"\n"))

	bag := NewBag(10)
	r := BagReporter{Bag: bag}
	ReportError(r, TagSetCollision, source.Span{File: id, Start: 10, End: 14}, "fields %q and %q share tag %s", "a", "b", "[0]").
		WithNote(source.Span{File: id, Start: 0, End: 9}, "declared here").
		Emit()
	ReportWarning(r, GenSkippedFormat, source.NoSpan, "no RAW attributes").Emit()

	got := FormatShortDiagnostics(bag.Items(), fs, true)
	want := "warning GEN6001 <builtin>:0:0 no RAW attributes\n" +
		"note TAG2003 schema.toml:1:1 declared here\n" +
		"error TAG2003 schema.toml:2:1 fields \"a\" and \"b\" share tag [0]"
	if got != want {
		t.Fatalf("unexpected output:\n%s\nwant:\n%s", got, want)
	}
}

func TestBagLimitAndDedup(t *testing.T) {
	bag := NewBag(2)
	d := NewError(CmpIncompatible, source.NoSpan, "x")
	if !bag.Add(d) || !bag.Add(d) {
		t.Fatalf("first two adds must succeed")
	}
	if bag.Add(d) {
		t.Fatalf("limit not enforced")
	}
	bag.Dedup()
	if bag.Len() != 1 {
		t.Fatalf("dedup left %d items", bag.Len())
	}
	if !bag.HasErrors() || bag.ErrorCount() != 1 {
		t.Fatalf("error accounting wrong")
	}
}

func TestDedupReporter(t *testing.T) {
	bag := NewBag(10)
	r := NewDedupReporter(BagReporter{Bag: bag})
	for range 3 {
		r.Report(TagChoiceCollision, SevError, source.NoSpan, "dup", nil)
	}
	if bag.Len() != 1 {
		t.Fatalf("expected one diagnostic, got %d", bag.Len())
	}
}

func TestRecoverFatal(t *testing.T) {
	run := func() (err error) {
		defer RecoverFatal(&err)
		Fatalf("types.RecordInfo", "category %s has no field table", "integer")
		return nil
	}
	err := run()
	if err == nil || err.Error() != "internal error in types.RecordInfo: category integer has no field table" {
		t.Fatalf("unexpected error %v", err)
	}
}
