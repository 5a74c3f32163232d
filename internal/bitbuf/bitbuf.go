// Package bitbuf is the bit-addressed buffer used by the RAW codecs.
//
// Stream position p lives in octet p/8 at bit p%8, counting from the least significant bit,
// which is the default RAW bit order. Values are written least significant bit first unless
// the caller asks for msb-first order.
package bitbuf

import (
	"errors"
	"fmt"
)

// ErrShort is returned when a read runs past the end of the data.
var ErrShort = errors.New("bitbuf: not enough data")

// Writer accumulates bits.
type Writer struct {
	buf []byte
	pos int
}

func NewWriter() *Writer { return &Writer{} }

// Pos is the number of bits written so far.
func (w *Writer) Pos() int { return w.pos }

// Bytes returns the written octets; a trailing partial octet is zero padded.
func (w *Writer) Bytes() []byte { return w.buf }

func (w *Writer) putBit(b bool) {
	if w.pos%8 == 0 {
		w.buf = append(w.buf, 0)
	}
	if b {
		w.buf[w.pos/8] |= 1 << (w.pos % 8)
	}
	w.pos++
}

// PutBits writes the low width bits of v.
func (w *Writer) PutBits(v uint64, width int, msbFirst bool) {
	for i := range width {
		shift := i
		if msbFirst {
			shift = width - 1 - i
		}
		w.putBit(v>>shift&1 == 1)
	}
}

// PutBytes writes whole octets, each least significant bit first.
func (w *Writer) PutBytes(p []byte) {
	if w.pos%8 == 0 {
		w.buf = append(w.buf, p...)
		w.pos += 8 * len(p)
		return
	}
	for _, b := range p {
		w.PutBits(uint64(b), 8, false)
	}
}

// Pad writes n bits repeating pattern ("0"/"1" characters); an empty pattern writes zeros.
func (w *Writer) Pad(n int, pattern string) {
	for i := range n {
		w.putBit(pattern != "" && pattern[i%len(pattern)] == '1')
	}
}

// Align pads with pattern up to the next multiple of unit bits.
func (w *Writer) Align(unit int, pattern string) {
	if unit <= 1 {
		return
	}
	if r := w.pos % unit; r != 0 {
		w.Pad(unit-r, pattern)
	}
}

// Bit returns an already written bit.
func (w *Writer) Bit(pos int) bool {
	if pos < 0 || pos >= w.pos {
		panic(fmt.Sprintf("bitbuf: Bit(%d) outside written range %d", pos, w.pos))
	}
	return w.buf[pos/8]&(1<<(pos%8)) != 0
}

// SetBit overwrites an already written bit.
func (w *Writer) SetBit(pos int, b bool) {
	if pos < 0 || pos >= w.pos {
		panic(fmt.Sprintf("bitbuf: SetBit(%d) outside written range %d", pos, w.pos))
	}
	mask := byte(1) << (pos % 8)
	if b {
		w.buf[pos/8] |= mask
	} else {
		w.buf[pos/8] &^= mask
	}
}

// Truncate drops everything after pos bits.
func (w *Writer) Truncate(pos int) {
	if pos < 0 || pos > w.pos {
		return
	}
	w.pos = pos
	w.buf = w.buf[:(pos+7)/8]
	if r := pos % 8; r != 0 {
		w.buf[len(w.buf)-1] &= byte(1)<<r - 1
	}
}

// Reader consumes bits from a byte slice.
type Reader struct {
	data  []byte
	pos   int
	limit int
	// masked positions read as zero.
	masked map[int]struct{}
}

func NewReader(data []byte) *Reader {
	return &Reader{data: data, limit: 8 * len(data)}
}

// NewReaderBits limits r to the first n bits of data.
func NewReaderBits(data []byte, n int) *Reader {
	r := NewReader(data)
	if n >= 0 && n < r.limit {
		r.limit = n
	}
	return r
}

func (r *Reader) Pos() int       { return r.pos }
func (r *Reader) Len() int       { return r.limit }
func (r *Reader) Remaining() int { return r.limit - r.pos }

// SetLen changes the readable length and returns the previous one. It never grows past the
// data.
func (r *Reader) SetLen(n int) int {
	old := r.limit
	if n < 0 || n > 8*len(r.data) {
		n = 8 * len(r.data)
	}
	r.limit = n
	if r.pos > n {
		r.pos = n
	}
	return old
}

// SetPos moves the cursor; used to roll back a failed element.
func (r *Reader) SetPos(pos int) {
	if pos < 0 {
		pos = 0
	}
	if pos > r.limit {
		pos = r.limit
	}
	r.pos = pos
}

// Bit returns the bit at pos without moving the cursor.
func (r *Reader) Bit(pos int) bool {
	if pos < 0 || pos >= r.limit {
		return false
	}
	if _, ok := r.masked[pos]; ok {
		return false
	}
	return r.data[pos/8]>>(pos%8)&1 == 1
}

// Mask makes the bit at pos read as zero from now on.
func (r *Reader) Mask(pos int) {
	if r.masked == nil {
		r.masked = make(map[int]struct{})
	}
	r.masked[pos] = struct{}{}
}

// Bits reads width bits, the counterpart of Writer.PutBits.
func (r *Reader) Bits(width int, msbFirst bool) (uint64, error) {
	if width > 64 {
		return 0, fmt.Errorf("bitbuf: %d bit field does not fit a word", width)
	}
	if r.Remaining() < width {
		return 0, ErrShort
	}
	var v uint64
	for i := range width {
		if !r.Bit(r.pos + i) {
			continue
		}
		shift := i
		if msbFirst {
			shift = width - 1 - i
		}
		v |= 1 << shift
	}
	r.pos += width
	return v, nil
}

// Bytes reads n whole octets.
func (r *Reader) Bytes(n int) ([]byte, error) {
	if r.Remaining() < 8*n {
		return nil, ErrShort
	}
	out := make([]byte, n)
	for i := range out {
		v, err := r.Bits(8, false)
		if err != nil {
			return nil, err
		}
		out[i] = byte(v)
	}
	return out, nil
}

func (r *Reader) Skip(n int) error {
	if r.Remaining() < n {
		return ErrShort
	}
	r.pos += n
	return nil
}

// Align skips to the next multiple of unit bits.
func (r *Reader) Align(unit int) error {
	if unit <= 1 {
		return nil
	}
	if rem := r.pos % unit; rem != 0 {
		return r.Skip(unit - rem)
	}
	return nil
}
