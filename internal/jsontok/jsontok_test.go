package jsontok

import "testing"

func TestTokenizerSeparatesNames(t *testing.T) {
	tz := NewString(`{"a":["x",1.50,{"b":null}],"c":true}`)
	want := []Token{
		{Kind: KindObjectStart},
		{Kind: KindName, Text: "a"},
		{Kind: KindArrayStart},
		{Kind: KindString, Text: "x"},
		{Kind: KindNumber, Text: "1.50"},
		{Kind: KindObjectStart},
		{Kind: KindName, Text: "b"},
		{Kind: KindNull, Text: "null"},
		{Kind: KindObjectEnd},
		{Kind: KindArrayEnd},
		{Kind: KindName, Text: "c"},
		{Kind: KindTrue, Text: "true"},
		{Kind: KindObjectEnd},
		{Kind: KindEOF},
	}
	for i, w := range want {
		got := tz.Next()
		if got.Kind != w.Kind || got.Text != w.Text {
			t.Fatalf("token %d = %v %q, want %v %q", i, got.Kind, got.Text, w.Kind, w.Text)
		}
	}
}

func TestTokenizerErrorSticks(t *testing.T) {
	tz := NewString(`[1, ?]`)
	tz.Next()
	tz.Next()
	if tok := tz.Next(); tok.Kind != KindError || tok.Err == nil {
		t.Fatalf("expected error token, got %v", tok.Kind)
	}
	if tok := tz.Next(); tok.Kind != KindError {
		t.Fatalf("error did not stick: %v", tok.Kind)
	}
}

func TestPeekAndSkip(t *testing.T) {
	tz := NewString(`[{"k":[1,2]},3]`)
	tz.Next()
	if p := tz.Peek(); p.Kind != KindObjectStart {
		t.Fatalf("peek = %v", p.Kind)
	}
	if err := tz.SkipValue(); err != nil {
		t.Fatal(err)
	}
	if tok := tz.Next(); tok.Kind != KindNumber || tok.Text != "3" {
		t.Fatalf("after skip = %v %q", tok.Kind, tok.Text)
	}
}

func TestWriter(t *testing.T) {
	w := NewWriter()
	w.BeginObject()
	w.Name("list")
	w.BeginArray()
	w.Int(1)
	w.BeginObject()
	w.Name("metainfo []")
	w.String("unbound")
	w.EndObject()
	w.Null()
	w.EndArray()
	w.Name("ok")
	w.Bool(true)
	w.EndObject()
	if got, want := w.Text(), `{"list":[1,{"metainfo []":"unbound"},null],"ok":true}`; got != want {
		t.Fatalf("got %s, want %s", got, want)
	}
}
