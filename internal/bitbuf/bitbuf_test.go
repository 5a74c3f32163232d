package bitbuf

import (
	"bytes"
	"errors"
	"testing"
)

func TestBitsRoundTrip(t *testing.T) {
	cases := []struct {
		name  string
		v     uint64
		width int
		msb   bool
	}{
		{"nibble", 0xA, 4, false},
		{"nibble msb", 0xA, 4, true},
		{"odd", 0x5B, 7, false},
		{"wide", 0x1234_5678_9ABC, 48, false},
		{"wide msb", 0x1234_5678_9ABC, 48, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := NewWriter()
			w.PutBits(1, 3, false)
			w.PutBits(tc.v, tc.width, tc.msb)
			r := NewReader(w.Bytes())
			if _, err := r.Bits(3, false); err != nil {
				t.Fatalf("prefix: %v", err)
			}
			got, err := r.Bits(tc.width, tc.msb)
			if err != nil {
				t.Fatalf("Bits: %v", err)
			}
			if got != tc.v {
				t.Fatalf("got %#x, want %#x", got, tc.v)
			}
		})
	}
}

func TestLSBLayout(t *testing.T) {
	w := NewWriter()
	w.PutBits(0x3, 4, false)
	w.PutBits(0xA, 4, false)
	w.PutBytes([]byte{0x7F})
	if want := []byte{0xA3, 0x7F}; !bytes.Equal(w.Bytes(), want) {
		t.Fatalf("bytes = % x, want % x", w.Bytes(), want)
	}
}

func TestAlignAndPad(t *testing.T) {
	w := NewWriter()
	w.PutBits(1, 1, false)
	w.Align(8, "1")
	if w.Pos() != 8 || w.Bytes()[0] != 0xFF {
		t.Fatalf("after align pos=%d bytes=% x", w.Pos(), w.Bytes())
	}
	r := NewReader(w.Bytes())
	if _, err := r.Bits(1, false); err != nil {
		t.Fatal(err)
	}
	if err := r.Align(8); err != nil || r.Pos() != 8 {
		t.Fatalf("reader align: pos=%d err=%v", r.Pos(), err)
	}
	if _, err := r.Bits(1, false); !errors.Is(err, ErrShort) {
		t.Fatalf("expected ErrShort, got %v", err)
	}
}

func TestSetBitTruncateMask(t *testing.T) {
	w := NewWriter()
	w.PutBits(0x01, 8, false)
	w.SetBit(7, true)
	if w.Bytes()[0] != 0x81 {
		t.Fatalf("SetBit: % x", w.Bytes())
	}
	if !w.Bit(7) || w.Bit(6) || !w.Bit(0) {
		t.Fatalf("Bit disagrees with % x", w.Bytes())
	}
	w.PutBits(0xFF, 8, false)
	w.Truncate(12)
	if w.Pos() != 12 || len(w.Bytes()) != 2 || w.Bytes()[1] != 0x0F {
		t.Fatalf("Truncate: pos=%d bytes=% x", w.Pos(), w.Bytes())
	}
	r := NewReaderBits(w.Bytes(), w.Pos())
	r.Mask(7)
	v, err := r.Bits(8, false)
	if err != nil || v != 0x01 {
		t.Fatalf("masked read = %#x, %v", v, err)
	}
	if r.Remaining() != 4 {
		t.Fatalf("remaining = %d", r.Remaining())
	}
}
