package seqof

import (
	"fmt"

	"fortio.org/safecast"

	"tycodec/internal/bitbuf"
	"tycodec/internal/descriptor"
	"tycodec/internal/encattr"
)

// RAWLimit bounds the decoding of one list.
type RAWLimit struct {
	// Count is the element count carried by a sibling field, -1 when there is none.
	Count int
	// Bits is the bit budget of the list, -1 to read up to the end of the data.
	Bits int
}

// NoLimit decodes elements while data remains.
var NoLimit = RAWLimit{Count: -1, Bits: -1}

func fixedCount(d *descriptor.Descriptor) int {
	if d == nil || d.List == nil || d.List.Count <= 0 {
		return -1
	}
	n, err := safecast.Conv[int](d.List.Count)
	if err != nil {
		return -1
	}
	return n
}

func layoutOf(d *descriptor.Descriptor) descriptor.Layout {
	if d != nil && d.List != nil {
		return d.List.Layout
	}
	return descriptor.LayoutShared
}

// EncodeRAW writes seq with the RAW layout of the list descriptor d. With a fixed count only
// the first count elements are written.
func EncodeRAW[T any](w *bitbuf.Writer, d *descriptor.Descriptor, seq *Sequence[T], c RAWCodec[T]) error {
	if !seq.IsBound() {
		return fmt.Errorf("%s: unbound value", d.Type)
	}
	p := rawOf(d)
	n := seq.Len()
	if count := fixedCount(d); count >= 0 {
		if n < count {
			return fmt.Errorf("%s: %d elements, %d required", d.Type, n, count)
		}
		n = count
	}
	if p.Prepadding > 0 {
		w.Align(p.Prepadding, p.PaddingPattern)
	}
	for i := range n {
		v, ok := seq.At(i)
		if !ok {
			return fmt.Errorf("%s: element %d is unbound", d.Type, i)
		}
		start := w.Pos()
		if err := c.EncodeRAW(w, v); err != nil {
			return fmt.Errorf("%s: element %d: %w", d.Type, i, err)
		}
		if p.ExtBit == encattr.Yes || p.ExtBit == encattr.Reverse {
			if w.Pos() == start {
				return fmt.Errorf("%s: element %d has no bits for the extension bit", d.Type, i)
			}
			if w.Bit(w.Pos() - 1) {
				return fmt.Errorf("%s: element %d uses the bit reserved for the extension bit", d.Type, i)
			}
			last := i == n-1
			w.SetBit(w.Pos()-1, last == (p.ExtBit == encattr.Yes))
		}
	}
	if p.Padding > 0 {
		w.Align(p.Padding, p.PaddingPattern)
	}
	return nil
}

// DecodeRAW reads a list written by EncodeRAW.
//
// With a fixed or sibling count exactly that many elements are decoded and any failure is
// fatal. Otherwise elements are decoded while the budget lasts: a failure on the first
// element is fatal, a later one rolls the reader back and ends the list.
func DecodeRAW[T any](r *bitbuf.Reader, d *descriptor.Descriptor, c RAWCodec[T], lim RAWLimit) (*Sequence[T], error) {
	p := rawOf(d)
	seq := New[T](layoutOf(d))
	seq.SetSize(0)

	if lim.Bits >= 0 {
		old := r.SetLen(r.Pos() + lim.Bits)
		defer r.SetLen(old)
	}
	if p.Prepadding > 0 {
		if err := r.Align(p.Prepadding); err != nil {
			return nil, fmt.Errorf("%s: prepadding: %w", d.Type, err)
		}
	}

	count := lim.Count
	if count < 0 {
		count = fixedCount(d)
	}
	if count >= 0 {
		for i := range count {
			v, _, err := decodeRAWElem(r, p.ExtBit, c)
			if err != nil {
				return nil, fmt.Errorf("%s: element %d: %w", d.Type, i, err)
			}
			seq.Append(v)
		}
	} else {
		for r.Remaining() > 0 {
			mark := r.Pos()
			v, last, err := decodeRAWElem(r, p.ExtBit, c)
			if err != nil {
				if seq.Len() == 0 {
					return nil, fmt.Errorf("%s: element 0: %w", d.Type, err)
				}
				r.SetPos(mark)
				break
			}
			seq.Append(v)
			if last {
				break
			}
		}
	}

	if p.Padding > 0 {
		if err := r.Align(p.Padding); err != nil {
			return nil, fmt.Errorf("%s: padding: %w", d.Type, err)
		}
	}
	return seq, nil
}

// decodeRAWElem decodes one element. With an extension bit the last bit of the element is
// the flag; it is masked out and the element decoded again when it was set.
func decodeRAWElem[T any](r *bitbuf.Reader, ext encattr.Setting, c RAWCodec[T]) (v T, last bool, err error) {
	mark := r.Pos()
	if v, err = c.DecodeRAW(r); err != nil {
		return v, false, err
	}
	if ext != encattr.Yes && ext != encattr.Reverse {
		return v, false, nil
	}
	end := r.Pos()
	if end == mark {
		return v, false, fmt.Errorf("element has no bits for the extension bit")
	}
	flag := r.Bit(end - 1)
	if flag {
		r.Mask(end - 1)
		r.SetPos(mark)
		if v, err = c.DecodeRAW(r); err != nil {
			return v, false, err
		}
	}
	return v, flag == (ext == encattr.Yes), nil
}
