package seqof

import (
	"slices"

	"tycodec/internal/descriptor"
)

// Elem is one slot of a sequence. A slot that was never assigned is unbound, which is not
// the same as the sequence being shorter.
type Elem[T any] struct {
	Value T
	Bound bool
}

// Storage holds the slots of a Sequence.
type Storage[T any] interface {
	Len() int
	Get(i int) Elem[T]
	Put(i int, e Elem[T])
	// Resize grows with unbound slots or drops the tail.
	Resize(n int)
	// Share returns an independent view; writes through either side do not affect the other.
	Share() Storage[T]
}

// NewStorage picks the storage strategy of layout.
func NewStorage[T any](layout descriptor.Layout) Storage[T] {
	if layout == descriptor.LayoutContiguous {
		return &Contiguous[T]{}
	}
	return NewShared[T]()
}

type block[T any] struct {
	refs int
	// nil means unbound. Stored elements are never mutated in place, so copying the pointer
	// slice is a full copy.
	elems []*Elem[T]
}

// Shared is the element-pointer layout: a reference counted block copied on the first write
// after Share. Not safe for concurrent use.
type Shared[T any] struct {
	b *block[T]
}

func NewShared[T any]() *Shared[T] {
	return &Shared[T]{b: &block[T]{refs: 1}}
}

func (s *Shared[T]) Len() int { return len(s.b.elems) }

// Refs is the number of sequences sharing the block.
func (s *Shared[T]) Refs() int { return s.b.refs }

func (s *Shared[T]) Get(i int) Elem[T] {
	if p := s.b.elems[i]; p != nil {
		return *p
	}
	return Elem[T]{}
}

func (s *Shared[T]) Put(i int, e Elem[T]) {
	s.own()
	if !e.Bound {
		s.b.elems[i] = nil
		return
	}
	s.b.elems[i] = &e
}

func (s *Shared[T]) Resize(n int) {
	s.own()
	if n < len(s.b.elems) {
		clear(s.b.elems[n:])
		s.b.elems = s.b.elems[:n]
		return
	}
	s.b.elems = append(s.b.elems, make([]*Elem[T], n-len(s.b.elems))...)
}

func (s *Shared[T]) Share() Storage[T] {
	s.b.refs++
	return &Shared[T]{b: s.b}
}

func (s *Shared[T]) own() {
	if s.b.refs == 1 {
		return
	}
	s.b.refs--
	s.b = &block[T]{refs: 1, elems: slices.Clone(s.b.elems)}
}

// Contiguous stores the element values in one slice.
type Contiguous[T any] struct {
	elems []Elem[T]
}

func (c *Contiguous[T]) Len() int             { return len(c.elems) }
func (c *Contiguous[T]) Get(i int) Elem[T]    { return c.elems[i] }
func (c *Contiguous[T]) Put(i int, e Elem[T]) { c.elems[i] = e }

func (c *Contiguous[T]) Resize(n int) {
	if n < len(c.elems) {
		clear(c.elems[n:])
		c.elems = c.elems[:n]
		return
	}
	c.elems = append(c.elems, make([]Elem[T], n-len(c.elems))...)
}

func (c *Contiguous[T]) Share() Storage[T] {
	return &Contiguous[T]{elems: slices.Clone(c.elems)}
}
