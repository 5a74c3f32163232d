package seqof

import (
	"bytes"
	"fmt"
	"slices"

	"tycodec/internal/descriptor"
	"tycodec/internal/tags"
)

var berClassBits = [...]byte{tags.Universal: 0x00, tags.Application: 0x40, tags.Context: 0x80, tags.Private: 0xC0}

func berIdentifier(v tags.Value, constructed bool) []byte {
	var b byte
	if int(v.Class) < len(berClassBits) {
		b = berClassBits[v.Class]
	}
	if constructed {
		b |= 0x20
	}
	if v.Number < 31 {
		return []byte{b | byte(v.Number)}
	}
	out := []byte{b | 0x1F}
	var tail []byte
	for n := v.Number; ; n >>= 7 {
		tail = append([]byte{byte(n & 0x7F)}, tail...)
		if n < 0x80 {
			break
		}
	}
	for i := range len(tail) - 1 {
		tail[i] |= 0x80
	}
	return append(out, tail...)
}

func berLength(n int) []byte {
	if n < 0x80 {
		return []byte{byte(n)}
	}
	var tail []byte
	for ; n > 0; n >>= 8 {
		tail = append([]byte{byte(n)}, tail...)
	}
	return append([]byte{0x80 | byte(len(tail))}, tail...)
}

func berTLV(v tags.Value, constructed bool, content []byte) []byte {
	out := berIdentifier(v, constructed)
	out = append(out, berLength(len(content))...)
	return append(out, content...)
}

// berWrap applies the tag chain (innermost first) to content.
func berWrap(chain []tags.Value, content []byte, constructed bool) []byte {
	out := berTLV(chain[0], constructed, content)
	for _, v := range chain[1:] {
		out = berTLV(v, true, out)
	}
	return out
}

// berHeader parses one identifier and definite length.
func berHeader(b []byte) (v tags.Value, constructed bool, content []byte, n int, err error) {
	if len(b) < 2 {
		return v, false, nil, 0, fmt.Errorf("truncated TLV")
	}
	id := b[0]
	v.Class = tags.Class(id >> 6)
	constructed = id&0x20 != 0
	pos := 1
	if num := id & 0x1F; num != 0x1F {
		v.Number = uint32(num)
	} else {
		for {
			if pos >= len(b) {
				return v, false, nil, 0, fmt.Errorf("truncated tag number")
			}
			o := b[pos]
			pos++
			if v.Number > 1<<24 {
				return v, false, nil, 0, fmt.Errorf("tag number too large")
			}
			v.Number = v.Number<<7 | uint32(o&0x7F)
			if o&0x80 == 0 {
				break
			}
		}
	}
	if pos >= len(b) {
		return v, false, nil, 0, fmt.Errorf("truncated length")
	}
	l := int(b[pos])
	pos++
	if l == 0x80 {
		return v, false, nil, 0, fmt.Errorf("indefinite length is not supported")
	}
	if l > 0x80 {
		k := l & 0x7F
		if k > 4 || pos+k > len(b) {
			return v, false, nil, 0, fmt.Errorf("bad length of length %d", k)
		}
		l = 0
		for _, o := range b[pos : pos+k] {
			l = l<<8 | int(o)
		}
		pos += k
	}
	if pos+l > len(b) {
		return v, false, nil, 0, fmt.Errorf("content of %d octets exceeds the data", l)
	}
	return v, constructed, b[pos : pos+l], pos + l, nil
}

// berUnwrap strips the tag chain (innermost first) and returns the innermost content and the
// length of the outermost TLV.
func berUnwrap(b []byte, chain []tags.Value, constructed bool) ([]byte, int, error) {
	total := -1
	for i := len(chain) - 1; i >= 0; i-- {
		v, cons, content, n, err := berHeader(b)
		if err != nil {
			return nil, 0, err
		}
		if v != chain[i] {
			return nil, 0, fmt.Errorf("tag %s, expected %s", v, chain[i])
		}
		if want := i > 0 || constructed; cons != want {
			return nil, 0, fmt.Errorf("tag %s has the wrong primitive/constructed form", v)
		}
		if total < 0 {
			total = n
		}
		b = content
	}
	return b, total, nil
}

func listTags(d *descriptor.Descriptor) []tags.Value {
	n := uint32(16)
	if d != nil && d.List != nil && d.List.Set {
		n = 17
	}
	return berTags(d, tags.Value{Class: tags.Universal, Number: n})
}

// EncodeBER writes seq as a constructed definite-length TLV. SET OF elements are sorted by
// their encodings.
func EncodeBER[T any](d *descriptor.Descriptor, seq *Sequence[T], c BERCodec[T]) ([]byte, error) {
	if !seq.IsBound() {
		return nil, fmt.Errorf("%s: unbound value", d.Type)
	}
	vals, err := seq.Values()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", d.Type, err)
	}
	encs := make([][]byte, len(vals))
	for i, v := range vals {
		if encs[i], err = c.EncodeBER(v); err != nil {
			return nil, fmt.Errorf("%s: element %d: %w", d.Type, i, err)
		}
	}
	if d.List != nil && d.List.Set {
		slices.SortFunc(encs, bytes.Compare)
	}
	return berWrap(listTags(d), bytes.Join(encs, nil), true), nil
}

// DecodeBER decodes elements until the list content is consumed.
func DecodeBER[T any](b []byte, d *descriptor.Descriptor, c BERCodec[T]) (*Sequence[T], int, error) {
	content, n, err := berUnwrap(b, listTags(d), true)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", d.Type, err)
	}
	seq := New[T](layoutOf(d))
	seq.SetSize(0)
	for len(content) > 0 {
		v, m, err := c.DecodeBER(content)
		if err != nil {
			return nil, 0, fmt.Errorf("%s: element %d: %w", d.Type, seq.Len(), err)
		}
		seq.Append(v)
		content = content[m:]
	}
	return seq, n, nil
}
