package seqof

import (
	"fmt"
	"strings"

	"tycodec/internal/descriptor"
)

// EncodeTEXT renders begin token, elements joined by the separator, end token.
func EncodeTEXT[T any](d *descriptor.Descriptor, seq *Sequence[T], c TEXTCodec[T]) (string, error) {
	if !seq.IsBound() {
		return "", fmt.Errorf("%s: unbound value", d.Type)
	}
	t := textOf(d)
	var sb strings.Builder
	if t.Begin != nil {
		sb.WriteString(t.Begin.Encode)
	}
	for i, e := range seq.Elems() {
		if !e.Bound {
			return "", fmt.Errorf("%s: element %d is unbound", d.Type, i)
		}
		if i > 0 && t.Separator != nil {
			sb.WriteString(t.Separator.Encode)
		}
		s, err := c.EncodeTEXT(e.Value)
		if err != nil {
			return "", fmt.Errorf("%s: element %d: %w", d.Type, i, err)
		}
		sb.WriteString(s)
	}
	if t.End != nil {
		sb.WriteString(t.End.Encode)
	}
	return sb.String(), nil
}

// DecodeTEXT decodes a list at the start of s and returns the consumed length. Each element
// sees the input up to the next separator or end token.
func DecodeTEXT[T any](s string, d *descriptor.Descriptor, c TEXTCodec[T]) (*Sequence[T], int, error) {
	t := textOf(d)
	seq := New[T](layoutOf(d))
	seq.SetSize(0)
	pos := 0
	if t.Begin != nil {
		n := t.Begin.Match(s)
		if n < 0 {
			return nil, 0, fmt.Errorf("%s: begin token %q not found", d.Type, t.Begin.Encode)
		}
		pos += n
	}
	for pos < len(s) {
		rest := s[pos:]
		if t.End != nil && t.End.Match(rest) >= 0 {
			break
		}
		if seq.Len() > 0 {
			if t.Separator == nil {
				break
			}
			n := t.Separator.Match(rest)
			if n < 0 {
				break
			}
			pos += n
			rest = s[pos:]
		}
		v, n, err := c.DecodeTEXT(rest[:segment(rest, t.Separator, t.End)])
		if err != nil {
			return nil, 0, fmt.Errorf("%s: element %d: %w", d.Type, seq.Len(), err)
		}
		if n == 0 && seq.Len() > 0 && t.Separator == nil {
			break
		}
		pos += n
		seq.Append(v)
	}
	if t.End != nil {
		n := t.End.Match(s[pos:])
		if n < 0 {
			return nil, 0, fmt.Errorf("%s: end token %q not found", d.Type, t.End.Encode)
		}
		pos += n
	}
	return seq, pos, nil
}

// segment is the length of the prefix of s before the first non-empty separator or end match.
func segment(s string, tokens ...*descriptor.Token) int {
	for i := range len(s) {
		for _, tk := range tokens {
			if tk != nil && tk.Match(s[i:]) > 0 {
				return i
			}
		}
	}
	return len(s)
}
