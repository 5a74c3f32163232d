// Package jsonschema is an ordered JSON document model for generated schemas.
// Key order is part of the output contract, so documents are built as member lists
// instead of maps.
package jsonschema

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Node is any JSON value of a schema document.
type Node interface {
	write(b *bytes.Buffer, indent string, depth int)
}

// Member is one key of an Object.
type Member struct {
	Key   string
	Value Node
}

// Object keeps its members in insertion order. Setting an existing key replaces the value
// in place.
type Object struct {
	Members []Member
}

type (
	String string
	Number string
	Bool   bool
	Null   struct{}
	Array  []Node
)

// NewObject returns an empty object.
func NewObject() *Object { return &Object{} }

// Set appends key or replaces its value when present.
func (o *Object) Set(key string, v Node) *Object {
	for i := range o.Members {
		if o.Members[i].Key == key {
			o.Members[i].Value = v
			return o
		}
	}
	o.Members = append(o.Members, Member{Key: key, Value: v})
	return o
}

// Get returns the value of key.
func (o *Object) Get(key string) (Node, bool) {
	if o == nil {
		return nil, false
	}
	for _, m := range o.Members {
		if m.Key == key {
			return m.Value, true
		}
	}
	return nil, false
}

// Keys lists member keys in order.
func (o *Object) Keys() []string {
	out := make([]string, len(o.Members))
	for i, m := range o.Members {
		out[i] = m.Key
	}
	return out
}

// Merge appends the members of other, replacing keys already present.
func (o *Object) Merge(other *Object) *Object {
	if other == nil {
		return o
	}
	for _, m := range other.Members {
		o.Set(m.Key, m.Value)
	}
	return o
}

func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.Members)
}

// Int makes a Number from an integer.
func Int(n int64) Number { return Number(strconv.FormatInt(n, 10)) }

// Uint makes a Number from an unsigned integer.
func Uint(n uint64) Number { return Number(strconv.FormatUint(n, 10)) }

// Float makes a Number from a float using the shortest representation.
func Float(f float64) Number { return Number(strconv.FormatFloat(f, 'g', -1, 64)) }

// Strings makes an Array of strings.
func Strings(ss ...string) Array {
	out := make(Array, len(ss))
	for i, s := range ss {
		out[i] = String(s)
	}
	return out
}

// Compact renders without whitespace.
func Compact(n Node) string {
	var b bytes.Buffer
	n.write(&b, "", 0)
	return b.String()
}

// Indent renders with one member per line.
func Indent(n Node, indent string) string {
	var b bytes.Buffer
	n.write(&b, indent, 0)
	return b.String()
}

// MarshalJSON lets an Object be embedded in encoding/json output without losing order.
func (o *Object) MarshalJSON() ([]byte, error) {
	return []byte(Compact(o)), nil
}

func (o *Object) write(b *bytes.Buffer, indent string, depth int) {
	if o == nil || len(o.Members) == 0 {
		b.WriteString("{}")
		return
	}
	b.WriteByte('{')
	for i, m := range o.Members {
		if i > 0 {
			b.WriteByte(',')
		}
		newline(b, indent, depth+1)
		writeString(b, m.Key)
		b.WriteByte(':')
		if indent != "" {
			b.WriteByte(' ')
		}
		m.Value.write(b, indent, depth+1)
	}
	newline(b, indent, depth)
	b.WriteByte('}')
}

func (a Array) write(b *bytes.Buffer, indent string, depth int) {
	if len(a) == 0 {
		b.WriteString("[]")
		return
	}
	b.WriteByte('[')
	for i, n := range a {
		if i > 0 {
			b.WriteByte(',')
		}
		newline(b, indent, depth+1)
		n.write(b, indent, depth+1)
	}
	newline(b, indent, depth)
	b.WriteByte(']')
}

func (s String) write(b *bytes.Buffer, _ string, _ int) { writeString(b, string(s)) }

func (n Number) write(b *bytes.Buffer, _ string, _ int) { b.WriteString(string(n)) }

func (v Bool) write(b *bytes.Buffer, _ string, _ int) {
	if v {
		b.WriteString("true")
	} else {
		b.WriteString("false")
	}
}

func (Null) write(b *bytes.Buffer, _ string, _ int) { b.WriteString("null") }

func newline(b *bytes.Buffer, indent string, depth int) {
	if indent == "" {
		return
	}
	b.WriteByte('\n')
	for range depth {
		b.WriteString(indent)
	}
}

func writeString(b *bytes.Buffer, s string) {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		// строки всегда сериализуются
		panic(err)
	}
	b.Write(bytes.TrimSuffix(tmp.Bytes(), []byte{'\n'}))
}
