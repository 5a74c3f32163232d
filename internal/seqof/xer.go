package seqof

import (
	"encoding/xml"
	"errors"
	"fmt"
	"slices"
	"strings"

	"tycodec/internal/descriptor"
	"tycodec/internal/encattr"
	"tycodec/internal/xmlpull"
)

// ErrOmitted is returned when an optional untagged list has no elements.
var ErrOmitted = errors.New("omitted")

// XEROptions describe where the list sits in its enclosing record.
type XEROptions struct {
	// Optional is set for an optional record field.
	Optional bool
	// Followers are the optional fields after the list; their start tags end an untagged list.
	Followers []Starter
}

func xerFlags(d *descriptor.Descriptor) encattr.XERFlag {
	if d != nil && d.XER != nil {
		return d.XER.Flags
	}
	return 0
}

// EncodeXER writes seq as XML.
func EncodeXER[T any](w *xmlpull.Writer, d *descriptor.Descriptor, seq *Sequence[T], c XERCodec[T]) error {
	if !seq.IsBound() {
		return fmt.Errorf("%s: unbound value", d.Type)
	}
	flags := xerFlags(d)
	name := xerName(d, d.Type)
	vals, err := seq.Values()
	if err != nil {
		return fmt.Errorf("%s: %w", d.Type, err)
	}
	if flags&encattr.XERList != 0 {
		words := make([]string, len(vals))
		for i, v := range vals {
			if words[i], err = c.XERValue(v); err != nil {
				return fmt.Errorf("%s: element %d: %w", d.Type, i, err)
			}
		}
		w.Element(name, strings.Join(words, " "))
		return nil
	}
	untagged := flags&encattr.XERUntagged != 0
	if !untagged {
		w.Start(name)
	}
	for i, v := range vals {
		s, err := c.XERValue(v)
		if err != nil {
			return fmt.Errorf("%s: element %d: %w", d.Type, i, err)
		}
		if flags&encattr.XERAnyElement != 0 {
			w.Raw(s)
			continue
		}
		w.Element(c.XERName(), s)
	}
	if !untagged {
		w.End(name)
	}
	return nil
}

// DecodeXER reads a list written by EncodeXER.
func DecodeXER[T any](r *xmlpull.Reader, d *descriptor.Descriptor, c XERCodec[T], opts XEROptions) (*Sequence[T], error) {
	flags := xerFlags(d)
	seq := New[T](layoutOf(d))
	seq.SetSize(0)

	if flags&encattr.XERUntagged != 0 {
		if err := decodeXERElems(r, d, c, seq, opts.Followers, 0); err != nil {
			return nil, err
		}
		if seq.Len() == 0 && opts.Optional {
			return nil, ErrOmitted
		}
		return seq, nil
	}

	name := xerName(d, d.Type)
	start, err := r.NextSignificant()
	if err != nil {
		return nil, err
	}
	if start.Kind != xmlpull.KindStart || !xerStarts(d, d.Type, start.Name) {
		return nil, fmt.Errorf("%s: expected <%s> at %d:%d", d.Type, name, start.Line, start.Column)
	}
	if flags&encattr.XERList != 0 {
		text, err := r.Text(start)
		if err != nil {
			return nil, err
		}
		for _, word := range strings.Fields(text) {
			v, err := c.ParseXERValue(word)
			if err != nil {
				return nil, fmt.Errorf("%s: element %d: %w", d.Type, seq.Len(), err)
			}
			seq.Append(v)
		}
		return seq, nil
	}
	if err := decodeXERElems(r, d, c, seq, nil, start.Depth); err != nil {
		return nil, err
	}
	end, err := r.NextSignificant()
	if err != nil {
		return nil, err
	}
	if end.Kind != xmlpull.KindEnd || end.Depth != start.Depth {
		return nil, fmt.Errorf("%s: expected </%s> at %d:%d", d.Type, name, end.Line, end.Column)
	}
	return seq, nil
}

// decodeXERElems decodes elements until the next event is not a start tag the element can
// begin with. For untagged lists a start tag a follower can begin with also ends the loop.
func decodeXERElems[T any](r *xmlpull.Reader, d *descriptor.Descriptor, c XERCodec[T], seq *Sequence[T], followers []Starter, depth int) error {
	flags := xerFlags(d)
	for {
		ev, err := r.Peek()
		if err != nil {
			return err
		}
		if ev.Kind != xmlpull.KindStart {
			if ev.Kind == xmlpull.KindText && depth > 0 {
				return fmt.Errorf("%s: unexpected text %q at %d:%d", d.Type, ev.Text, ev.Line, ev.Column)
			}
			return nil
		}
		if !c.CanStart(ev.Name) {
			if depth > 0 {
				return fmt.Errorf("%s: unexpected <%s> at %d:%d", d.Type, qualified(ev.Name), ev.Line, ev.Column)
			}
			return nil
		}
		if slices.ContainsFunc(followers, func(s Starter) bool { return s.CanStart(ev.Name) }) {
			return nil
		}
		if _, err := r.NextSignificant(); err != nil {
			return err
		}
		var text string
		if flags&encattr.XERAnyElement != 0 {
			if err := allowNamespace(d, ev.Name.Space); err != nil {
				return err
			}
			text, err = r.Capture(ev)
		} else {
			text, err = r.Text(ev)
		}
		if err != nil {
			return err
		}
		v, err := c.ParseXERValue(text)
		if err != nil {
			return fmt.Errorf("%s: element %d: %w", d.Type, seq.Len(), err)
		}
		seq.Append(v)
	}
}

func qualified(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return "{" + n.Space + "}" + n.Local
}

// allowNamespace applies the ANY-ELEMENT FROM/EXCEPT namespace list. An empty string in the
// list stands for the absent namespace.
func allowNamespace(d *descriptor.Descriptor, uri string) error {
	flags := xerFlags(d)
	var list []string
	if d.XER != nil {
		list = d.XER.NamespaceURIs
	}
	listed := slices.Contains(list, uri)
	switch {
	case flags&encattr.XERAnyFrom != 0 && !listed:
		return fmt.Errorf("%s: namespace %q is not in the allowed list", d.Type, uri)
	case flags&encattr.XERAnyExcept != 0 && listed:
		return fmt.Errorf("%s: namespace %q is excluded", d.Type, uri)
	}
	return nil
}
