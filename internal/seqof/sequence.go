// Package seqof implements record-of and set-of values and the per-format loops that encode
// and decode them, plus the list codec entry of the generated descriptors.
package seqof

import (
	"fmt"

	"tycodec/internal/descriptor"
)

// Sequence is a record-of or set-of value. The zero sequence from New is unbound; any write
// binds it.
type Sequence[T any] struct {
	layout descriptor.Layout
	store  Storage[T]
	bound  bool
}

func New[T any](layout descriptor.Layout) *Sequence[T] {
	return &Sequence[T]{layout: layout, store: NewStorage[T](layout)}
}

// Of returns a bound sequence holding vals.
func Of[T any](layout descriptor.Layout, vals ...T) *Sequence[T] {
	q := New[T](layout)
	q.SetSize(0)
	for _, v := range vals {
		q.Append(v)
	}
	return q
}

func (q *Sequence[T]) Layout() descriptor.Layout { return q.layout }
func (q *Sequence[T]) IsBound() bool             { return q.bound }
func (q *Sequence[T]) Len() int                  { return q.store.Len() }

// At returns element i; ok is false when i is out of range or the element is unbound.
func (q *Sequence[T]) At(i int) (v T, ok bool) {
	if i < 0 || i >= q.store.Len() {
		return v, false
	}
	e := q.store.Get(i)
	return e.Value, e.Bound
}

// Set assigns element i, growing the sequence with unbound elements when needed.
func (q *Sequence[T]) Set(i int, v T) {
	if i < 0 {
		panic(fmt.Sprintf("seqof: negative index %d", i))
	}
	if i >= q.store.Len() {
		q.store.Resize(i + 1)
	}
	q.bound = true
	q.store.Put(i, Elem[T]{Value: v, Bound: true})
}

// Unbind makes element i unbound without changing the length.
func (q *Sequence[T]) Unbind(i int) {
	if i < 0 || i >= q.store.Len() {
		return
	}
	q.store.Put(i, Elem[T]{})
}

func (q *Sequence[T]) Append(v T) { q.Set(q.store.Len(), v) }

// AppendUnbound adds an explicitly unbound element.
func (q *Sequence[T]) AppendUnbound() {
	q.SetSize(q.store.Len() + 1)
}

// SetSize grows with unbound elements or releases the dropped tail.
func (q *Sequence[T]) SetSize(n int) {
	if n < 0 {
		n = 0
	}
	q.bound = true
	q.store.Resize(n)
}

// Elems returns a copy of the slots.
func (q *Sequence[T]) Elems() []Elem[T] {
	out := make([]Elem[T], q.store.Len())
	for i := range out {
		out[i] = q.store.Get(i)
	}
	return out
}

// Values returns the element values; every element must be bound.
func (q *Sequence[T]) Values() ([]T, error) {
	out := make([]T, q.store.Len())
	for i := range out {
		e := q.store.Get(i)
		if !e.Bound {
			return nil, fmt.Errorf("element %d is unbound", i)
		}
		out[i] = e.Value
	}
	return out, nil
}

func (q *Sequence[T]) Clone() *Sequence[T] {
	return &Sequence[T]{layout: q.layout, store: q.store.Share(), bound: q.bound}
}

func (q *Sequence[T]) from(elems []Elem[T]) *Sequence[T] {
	out := New[T](q.layout)
	out.SetSize(len(elems))
	for i, e := range elems {
		out.store.Put(i, e)
	}
	return out
}

func (q *Sequence[T]) check(op string) error {
	if !q.bound {
		return fmt.Errorf("%s: unbound operand", op)
	}
	return nil
}

// Concat returns q followed by o.
func (q *Sequence[T]) Concat(o *Sequence[T]) (*Sequence[T], error) {
	if err := q.check("concatenation"); err != nil {
		return nil, err
	}
	if err := o.check("concatenation"); err != nil {
		return nil, err
	}
	return q.from(append(q.Elems(), o.Elems()...)), nil
}

// RotateLeft moves the first n elements to the end; a negative n rotates right.
func (q *Sequence[T]) RotateLeft(n int) (*Sequence[T], error) {
	if err := q.check("rotation"); err != nil {
		return nil, err
	}
	elems := q.Elems()
	if len(elems) == 0 {
		return q.from(nil), nil
	}
	n %= len(elems)
	if n < 0 {
		n += len(elems)
	}
	return q.from(append(elems[n:], elems[:n]...)), nil
}

func (q *Sequence[T]) RotateRight(n int) (*Sequence[T], error) { return q.RotateLeft(-n) }

// Substr returns n elements starting at idx.
func (q *Sequence[T]) Substr(idx, n int) (*Sequence[T], error) {
	if err := q.check("substr"); err != nil {
		return nil, err
	}
	if err := q.span("substr", idx, n); err != nil {
		return nil, err
	}
	return q.from(q.Elems()[idx : idx+n]), nil
}

// Replace returns q with the n elements at idx replaced by repl.
func (q *Sequence[T]) Replace(idx, n int, repl *Sequence[T]) (*Sequence[T], error) {
	if err := q.check("replace"); err != nil {
		return nil, err
	}
	if err := repl.check("replace"); err != nil {
		return nil, err
	}
	if err := q.span("replace", idx, n); err != nil {
		return nil, err
	}
	elems := q.Elems()
	out := append(append(elems[:idx:idx], repl.Elems()...), elems[idx+n:]...)
	return q.from(out), nil
}

func (q *Sequence[T]) span(op string, idx, n int) error {
	if idx < 0 || n < 0 || idx+n > q.store.Len() {
		return fmt.Errorf("%s: index %d and length %d exceed %d elements", op, idx, n, q.store.Len())
	}
	return nil
}

// Equal compares element by element. Unbound elements only equal unbound elements.
func (q *Sequence[T]) Equal(o *Sequence[T], eq func(a, b T) bool) bool {
	if q.bound != o.bound || q.Len() != o.Len() {
		return false
	}
	for i := range q.Len() {
		if !elemEqual(q.store.Get(i), o.store.Get(i), eq) {
			return false
		}
	}
	return true
}

// EqualSet compares ignoring element order, the set-of equality.
func (q *Sequence[T]) EqualSet(o *Sequence[T], eq func(a, b T) bool) bool {
	if q.bound != o.bound || q.Len() != o.Len() {
		return false
	}
	used := make([]bool, o.Len())
outer:
	for i := range q.Len() {
		a := q.store.Get(i)
		for j := range o.Len() {
			if !used[j] && elemEqual(a, o.store.Get(j), eq) {
				used[j] = true
				continue outer
			}
		}
		return false
	}
	return true
}

func elemEqual[T any](a, b Elem[T], eq func(a, b T) bool) bool {
	if a.Bound != b.Bound {
		return false
	}
	return !a.Bound || eq(a.Value, b.Value)
}
