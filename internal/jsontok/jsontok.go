// Package jsontok is the token-level JSON reader and writer used by the JSON decoders.
package jsontok

import (
	"encoding/json"
	"errors"
	"io"
	"strconv"
	"strings"
)

// Kind classifies a token.
type Kind uint8

const (
	KindError Kind = iota
	KindObjectStart
	KindObjectEnd
	KindArrayStart
	KindArrayEnd
	KindName
	KindString
	KindNumber
	KindTrue
	KindFalse
	KindNull
	KindEOF
)

var kindNames = [...]string{
	KindError: "error", KindObjectStart: "{", KindObjectEnd: "}", KindArrayStart: "[",
	KindArrayEnd: "]", KindName: "name", KindString: "string", KindNumber: "number",
	KindTrue: "true", KindFalse: "false", KindNull: "null", KindEOF: "eof",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// Token is one classified token. Text holds names, strings and numbers as written.
type Token struct {
	Kind Kind
	Text string
	Err  error
}

// Scalar reports whether t is a complete value on its own.
func (t Token) Scalar() bool {
	switch t.Kind {
	case KindString, KindNumber, KindTrue, KindFalse, KindNull:
		return true
	}
	return false
}

type frame struct {
	object  bool
	wantKey bool
}

// Tokenizer classifies the tokens of a JSON stream and separates object names from string
// values.
type Tokenizer struct {
	dec     *json.Decoder
	stack   []frame
	pending []Token
	failed  error
}

func New(r io.Reader) *Tokenizer {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	return &Tokenizer{dec: dec}
}

func NewString(s string) *Tokenizer { return New(strings.NewReader(s)) }

// Next returns the next token. A syntax error is returned as a KindError token and sticks.
func (t *Tokenizer) Next() Token {
	if n := len(t.pending); n > 0 {
		tok := t.pending[n-1]
		t.pending = t.pending[:n-1]
		return tok
	}
	if t.failed != nil {
		return Token{Kind: KindError, Err: t.failed}
	}
	raw, err := t.dec.Token()
	if errors.Is(err, io.EOF) {
		return Token{Kind: KindEOF}
	}
	if err != nil {
		t.failed = err
		return Token{Kind: KindError, Err: err}
	}
	return t.classify(raw)
}

func (t *Tokenizer) classify(raw json.Token) Token {
	var top *frame
	if n := len(t.stack); n > 0 {
		top = &t.stack[n-1]
	}
	switch v := raw.(type) {
	case json.Delim:
		switch v {
		case '{':
			t.value(top)
			t.stack = append(t.stack, frame{object: true, wantKey: true})
			return Token{Kind: KindObjectStart}
		case '[':
			t.value(top)
			t.stack = append(t.stack, frame{})
			return Token{Kind: KindArrayStart}
		case '}':
			t.stack = t.stack[:len(t.stack)-1]
			return Token{Kind: KindObjectEnd}
		default:
			t.stack = t.stack[:len(t.stack)-1]
			return Token{Kind: KindArrayEnd}
		}
	case string:
		if top != nil && top.object && top.wantKey {
			top.wantKey = false
			return Token{Kind: KindName, Text: v}
		}
		t.value(top)
		return Token{Kind: KindString, Text: v}
	case json.Number:
		t.value(top)
		return Token{Kind: KindNumber, Text: v.String()}
	case bool:
		t.value(top)
		if v {
			return Token{Kind: KindTrue, Text: "true"}
		}
		return Token{Kind: KindFalse, Text: "false"}
	default:
		t.value(top)
		return Token{Kind: KindNull, Text: "null"}
	}
}

// value marks that a member value started, so the enclosing object expects a name next.
func (t *Tokenizer) value(top *frame) {
	if top != nil && top.object {
		top.wantKey = true
	}
}

// Peek returns the next token without consuming it.
func (t *Tokenizer) Peek() Token {
	tok := t.Next()
	t.Unread(tok)
	return tok
}

// Unread pushes tok back; tokens come back in LIFO order.
func (t *Tokenizer) Unread(tok Token) {
	t.pending = append(t.pending, tok)
}

// SkipValue consumes one complete value.
func (t *Tokenizer) SkipValue() error {
	depth := 0
	for {
		tok := t.Next()
		switch tok.Kind {
		case KindError:
			return tok.Err
		case KindEOF:
			return io.ErrUnexpectedEOF
		case KindObjectStart, KindArrayStart:
			depth++
		case KindObjectEnd, KindArrayEnd:
			depth--
		case KindName:
			continue
		}
		if depth <= 0 {
			return nil
		}
	}
}

// Writer produces compact JSON text.
type Writer struct {
	sb strings.Builder
	// comma[i] is set once container i holds a member.
	comma  []bool
	inName bool
}

func NewWriter() *Writer { return &Writer{} }

func (w *Writer) sep() {
	if w.inName {
		w.inName = false
		return
	}
	if n := len(w.comma); n > 0 {
		if w.comma[n-1] {
			w.sb.WriteByte(',')
		}
		w.comma[n-1] = true
	}
}

func (w *Writer) BeginObject() { w.sep(); w.sb.WriteByte('{'); w.comma = append(w.comma, false) }
func (w *Writer) EndObject()   { w.sb.WriteByte('}'); w.comma = w.comma[:len(w.comma)-1] }
func (w *Writer) BeginArray()  { w.sep(); w.sb.WriteByte('['); w.comma = append(w.comma, false) }
func (w *Writer) EndArray()    { w.sb.WriteByte(']'); w.comma = w.comma[:len(w.comma)-1] }

func (w *Writer) Name(name string) {
	w.sep()
	b, _ := json.Marshal(name)
	w.sb.Write(b)
	w.sb.WriteByte(':')
	w.inName = true
}

func (w *Writer) String(s string) {
	w.sep()
	b, _ := json.Marshal(s)
	w.sb.Write(b)
}

// Number writes a literal already in JSON number syntax.
func (w *Writer) Number(text string) {
	w.sep()
	w.sb.WriteString(text)
}

func (w *Writer) Int(v int64) { w.Number(strconv.FormatInt(v, 10)) }

func (w *Writer) Bool(v bool) { w.Number(strconv.FormatBool(v)) }

func (w *Writer) Null() { w.Number("null") }

func (w *Writer) Text() string { return w.sb.String() }
