package seqof

import (
	"errors"
	"fmt"

	"tycodec/internal/descriptor"
	"tycodec/internal/jsontok"
)

// MetainfoKey is the member name of the object standing for an unbound element.
const MetainfoKey = "metainfo []"

func metainfoOf(d *descriptor.Descriptor) bool {
	return d != nil && d.JSON != nil && d.JSON.MetainfoUnbound
}

// EncodeJSON writes seq as an array. Unbound elements need metainfo.
func EncodeJSON[T any](w *jsontok.Writer, d *descriptor.Descriptor, seq *Sequence[T], c JSONCodec[T]) error {
	if !seq.IsBound() {
		return fmt.Errorf("%s: unbound value", d.Type)
	}
	meta := metainfoOf(d)
	w.BeginArray()
	for i, e := range seq.Elems() {
		if !e.Bound {
			if !meta {
				return fmt.Errorf("%s: element %d is unbound", d.Type, i)
			}
			w.BeginObject()
			w.Name(MetainfoKey)
			w.String("unbound")
			w.EndObject()
			continue
		}
		if err := c.EncodeJSON(w, e.Value); err != nil {
			return fmt.Errorf("%s: element %d: %w", d.Type, i, err)
		}
	}
	w.EndArray()
	return nil
}

// DecodeJSON reads an array. A token no element can start with ends the loop; the array end
// must follow.
func DecodeJSON[T any](tz *jsontok.Tokenizer, d *descriptor.Descriptor, c JSONCodec[T]) (*Sequence[T], error) {
	tok := tz.Next()
	if tok.Kind == jsontok.KindError {
		return nil, tok.Err
	}
	if tok.Kind != jsontok.KindArrayStart {
		tz.Unread(tok)
		return nil, fmt.Errorf("%s: %w: expected [, found %s", d.Type, ErrInvalidToken, tok.Kind)
	}
	meta := metainfoOf(d)
	seq := New[T](layoutOf(d))
	seq.SetSize(0)
	for {
		if meta {
			unbound, err := decodeMetainfo(tz)
			if err != nil {
				return nil, fmt.Errorf("%s: element %d: %w", d.Type, seq.Len(), err)
			}
			if unbound {
				seq.AppendUnbound()
				continue
			}
		}
		v, err := c.DecodeJSON(tz)
		if errors.Is(err, ErrInvalidToken) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: element %d: %w", d.Type, seq.Len(), err)
		}
		seq.Append(v)
	}
	switch tok := tz.Next(); tok.Kind {
	case jsontok.KindArrayEnd:
		return seq, nil
	case jsontok.KindError:
		return nil, fmt.Errorf("%s: %w", d.Type, tok.Err)
	default:
		return nil, fmt.Errorf("%s: missing array end, found %s", d.Type, tok.Kind)
	}
}

// decodeMetainfo consumes {"metainfo []":"unbound"} when it comes next. Any other object is
// left unread.
func decodeMetainfo(tz *jsontok.Tokenizer) (bool, error) {
	open := tz.Next()
	if open.Kind != jsontok.KindObjectStart {
		tz.Unread(open)
		return false, nil
	}
	name := tz.Next()
	if name.Kind != jsontok.KindName || name.Text != MetainfoKey {
		tz.Unread(name)
		tz.Unread(open)
		return false, nil
	}
	if v := tz.Next(); v.Kind != jsontok.KindString || v.Text != "unbound" {
		return false, fmt.Errorf("invalid metainfo value %q", v.Text)
	}
	if end := tz.Next(); end.Kind != jsontok.KindObjectEnd {
		return false, fmt.Errorf("metainfo object has extra members")
	}
	return true, nil
}
