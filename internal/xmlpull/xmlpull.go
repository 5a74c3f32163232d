// Package xmlpull is a pull-event view of an XML document for the XER decoders.
package xmlpull

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jacoelho/xsd/pkg/xmlstream"
)

// Kind identifies the kind of pull event.
type Kind uint8

const (
	KindStart Kind = iota
	KindEnd
	KindText
	KindEOF
)

func (k Kind) String() string {
	switch k {
	case KindStart:
		return "start"
	case KindEnd:
		return "end"
	case KindText:
		return "text"
	default:
		return "eof"
	}
}

// Event is one token of the document.
type Event struct {
	Kind  Kind
	Name  xml.Name
	Attrs []xml.Attr
	Text  string
	// Depth of the element the event belongs to; the root start tag has depth 1.
	Depth  int
	Line   int
	Column int
}

// Blank reports whether a text event holds only whitespace.
func (e Event) Blank() bool {
	return e.Kind == KindText && strings.TrimSpace(e.Text) == ""
}

// Attr returns the value of the attribute with the given local name.
func (e Event) Attr(local string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Name.Local == local {
			return a.Value, true
		}
	}
	return "", false
}

// Reader produces events with one level of pushback. Events come from an xmlstream
// reader; text and attribute values are copied out of its buffers.
type Reader struct {
	src     *xmlstream.Reader
	err     error
	pending []Event
	depth   int
	// last is the most recent start tag read from src; fresh stays set until src moves on.
	last  Event
	fresh bool
}

func NewReader(r io.Reader) *Reader {
	src, err := xmlstream.NewReader(r)
	return &Reader{src: src, err: err}
}

func NewReaderString(s string) *Reader { return NewReader(strings.NewReader(s)) }

// Next returns the next event; comments, processing instructions and directives are dropped.
func (r *Reader) Next() (Event, error) {
	if n := len(r.pending); n > 0 {
		ev := r.pending[n-1]
		r.pending = r.pending[:n-1]
		return ev, nil
	}
	if r.err != nil {
		return Event{}, r.err
	}
	for {
		ev, err := r.src.Next()
		r.fresh = false
		if errors.Is(err, io.EOF) {
			line, col := r.src.CurrentPos()
			return Event{Kind: KindEOF, Line: line, Column: col}, nil
		}
		if err != nil {
			return Event{}, fmt.Errorf("xml: %w", err)
		}
		switch ev.Kind {
		case xmlstream.EventStartElement:
			r.depth++
			out := Event{Kind: KindStart, Name: nameOf(ev.Name), Attrs: attrsOf(ev.Attrs), Depth: r.depth, Line: ev.Line, Column: ev.Column}
			r.last, r.fresh = out, true
			return out, nil
		case xmlstream.EventEndElement:
			out := Event{Kind: KindEnd, Name: nameOf(ev.Name), Depth: r.depth, Line: ev.Line, Column: ev.Column}
			r.depth--
			return out, nil
		case xmlstream.EventCharData:
			return Event{Kind: KindText, Text: string(ev.Text), Depth: r.depth, Line: ev.Line, Column: ev.Column}, nil
		}
	}
}

func nameOf(q xmlstream.QName) xml.Name {
	return xml.Name{Space: q.Namespace, Local: q.Local}
}

func attrsOf(attrs []xmlstream.Attr) []xml.Attr {
	if len(attrs) == 0 {
		return nil
	}
	out := make([]xml.Attr, len(attrs))
	for i, a := range attrs {
		out[i] = xml.Attr{Name: nameOf(a.Name), Value: string(a.Value)}
	}
	return out
}

// NextSignificant is Next without whitespace-only text.
func (r *Reader) NextSignificant() (Event, error) {
	for {
		ev, err := r.Next()
		if err != nil || !ev.Blank() {
			return ev, err
		}
	}
}

// Peek returns the next significant event without consuming it.
func (r *Reader) Peek() (Event, error) {
	ev, err := r.NextSignificant()
	if err != nil {
		return ev, err
	}
	r.Unread(ev)
	return ev, nil
}

// Unread pushes ev back; events come back in LIFO order.
func (r *Reader) Unread(ev Event) {
	r.pending = append(r.pending, ev)
}

// Skip consumes the rest of the element opened by start.
func (r *Reader) Skip(start Event) error {
	for {
		ev, err := r.Next()
		if err != nil {
			return err
		}
		switch {
		case ev.Kind == KindEOF:
			return fmt.Errorf("xml: unexpected end of document inside <%s>", start.Name.Local)
		case ev.Kind == KindEnd && ev.Depth == start.Depth:
			return nil
		}
	}
}

// Capture re-serializes the element opened by start, including start itself. When start is
// the tag src has just returned, src copies the subtree itself.
func (r *Reader) Capture(start Event) (string, error) {
	if len(r.pending) == 0 && r.fresh && r.last.Depth == start.Depth &&
		r.last.Line == start.Line && r.last.Column == start.Column {
		r.fresh = false
		b, err := r.src.ReadSubtreeBytes()
		if err != nil {
			return "", fmt.Errorf("xml: %w", err)
		}
		r.depth--
		return string(b), nil
	}
	var buf bytes.Buffer
	enc := xml.NewEncoder(&buf)
	ev := start
	for {
		var tok xml.Token
		switch ev.Kind {
		case KindStart:
			tok = xml.StartElement{Name: ev.Name, Attr: ev.Attrs}
		case KindEnd:
			tok = xml.EndElement{Name: ev.Name}
		case KindText:
			tok = xml.CharData(ev.Text)
		default:
			return "", fmt.Errorf("xml: unexpected end of document inside <%s>", start.Name.Local)
		}
		if err := enc.EncodeToken(tok); err != nil {
			return "", err
		}
		if ev.Kind == KindEnd && ev.Depth == start.Depth {
			break
		}
		var err error
		if ev, err = r.Next(); err != nil {
			return "", err
		}
	}
	if err := enc.Flush(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Text collects the character data up to the end tag of start and consumes the end tag.
func (r *Reader) Text(start Event) (string, error) {
	var sb strings.Builder
	for {
		ev, err := r.Next()
		if err != nil {
			return "", err
		}
		switch ev.Kind {
		case KindText:
			sb.WriteString(ev.Text)
		case KindEnd:
			return sb.String(), nil
		case KindStart:
			return "", fmt.Errorf("xml %d:%d: unexpected <%s> inside <%s>", ev.Line, ev.Column, ev.Name.Local, start.Name.Local)
		default:
			return "", fmt.Errorf("xml: unexpected end of document inside <%s>", start.Name.Local)
		}
	}
}

// Writer builds XML text. Raw fragments are written unescaped.
type Writer struct {
	buf bytes.Buffer
	enc *xml.Encoder
	err error
}

func NewWriter() *Writer {
	w := &Writer{}
	w.enc = xml.NewEncoder(&w.buf)
	return w
}

func (w *Writer) token(t xml.Token) {
	if w.err == nil {
		w.err = w.enc.EncodeToken(t)
	}
}

func (w *Writer) Start(name string, attrs ...xml.Attr) {
	w.token(xml.StartElement{Name: xml.Name{Local: name}, Attr: attrs})
}

func (w *Writer) End(name string) {
	w.token(xml.EndElement{Name: xml.Name{Local: name}})
}

func (w *Writer) Text(s string) { w.token(xml.CharData(s)) }

// Element writes <name>text</name>.
func (w *Writer) Element(name, text string) {
	w.Start(name)
	w.Text(text)
	w.End(name)
}

func (w *Writer) Raw(s string) {
	if w.err == nil {
		w.err = w.enc.Flush()
	}
	if w.err == nil {
		w.buf.WriteString(s)
	}
}

// String flushes the encoder and returns the document so far.
func (w *Writer) String() (string, error) {
	if w.err == nil {
		w.err = w.enc.Flush()
	}
	return w.buf.String(), w.err
}
