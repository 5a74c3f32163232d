package xmlpull

import "testing"

func TestReaderEventsAndPushback(t *testing.T) {
	r := NewReaderString("<a>\n  <b k=\"v\">x</b>\n</a>")
	ev, err := r.NextSignificant()
	if err != nil || ev.Kind != KindStart || ev.Name.Local != "a" || ev.Depth != 1 {
		t.Fatalf("first event = %+v, %v", ev, err)
	}
	peek, err := r.Peek()
	if err != nil || peek.Name.Local != "b" {
		t.Fatalf("peek = %+v, %v", peek, err)
	}
	b, _ := r.NextSignificant()
	if v, ok := b.Attr("k"); !ok || v != "v" || b.Depth != 2 {
		t.Fatalf("b = %+v", b)
	}
	text, err := r.Text(b)
	if err != nil || text != "x" {
		t.Fatalf("Text = %q, %v", text, err)
	}
	end, _ := r.NextSignificant()
	if end.Kind != KindEnd || end.Depth != 1 {
		t.Fatalf("end = %+v", end)
	}
	if eof, _ := r.NextSignificant(); eof.Kind != KindEOF {
		t.Fatalf("expected eof, got %v", eof.Kind)
	}
}

func TestCaptureSubtree(t *testing.T) {
	r := NewReaderString(`<list><x a="1"><y>t</y></x><z/></list>`)
	if _, err := r.Next(); err != nil {
		t.Fatal(err)
	}
	start, _ := r.Next()
	got, err := r.Capture(start)
	if err != nil {
		t.Fatal(err)
	}
	if want := `<x a="1"><y>t</y></x>`; got != want {
		t.Fatalf("Capture = %q, want %q", got, want)
	}
	next, _ := r.Next()
	if next.Kind != KindStart || next.Name.Local != "z" {
		t.Fatalf("after capture = %+v", next)
	}
}

func TestWriterRaw(t *testing.T) {
	w := NewWriter()
	w.Start("list")
	w.Element("i", "1")
	w.Raw(`<any>x</any>`)
	w.End("list")
	got, err := w.String()
	if err != nil {
		t.Fatal(err)
	}
	if want := `<list><i>1</i><any>x</any></list>`; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestCaptureAfterPeek(t *testing.T) {
	r := NewReaderString(`<list xmlns:b="urn:b"><b:x>t</b:x><z/></list>`)
	if _, err := r.Next(); err != nil {
		t.Fatal(err)
	}
	start, err := r.Peek()
	if err != nil {
		t.Fatal(err)
	}
	if start.Name.Space != "urn:b" || start.Name.Local != "x" {
		t.Fatalf("peek = %+v", start.Name)
	}
	if _, err := r.NextSignificant(); err != nil {
		t.Fatal(err)
	}
	// текст уже прочитан из потока и возвращён обратно, поддерево собирается заново
	text, err := r.Next()
	if err != nil || text.Kind != KindText {
		t.Fatalf("text = %+v, %v", text, err)
	}
	r.Unread(text)
	got, err := r.Capture(start)
	if err != nil {
		t.Fatal(err)
	}
	if want := `<x xmlns="urn:b">t</x>`; got != want {
		t.Fatalf("Capture = %q, want %q", got, want)
	}
	next, _ := r.NextSignificant()
	if next.Kind != KindStart || next.Name.Local != "z" || next.Depth != 2 {
		t.Fatalf("after capture = %+v", next)
	}
}

func TestMalformedDocument(t *testing.T) {
	r := NewReaderString(`<a><b></a>`)
	var err error
	for range 5 {
		var ev Event
		if ev, err = r.Next(); err != nil || ev.Kind == KindEOF {
			break
		}
	}
	if err == nil {
		t.Fatalf("mismatched end tag accepted")
	}
}
