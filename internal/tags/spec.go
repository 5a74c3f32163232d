package tags

import (
	"fmt"
	"math"

	"tycodec/internal/source"
)

// NumberExpr is the constant expression a tag number was written with. Evaluation belongs to
// the front end; tags only needs the integer once.
type NumberExpr interface {
	EvalTagNumber() (int64, error)
}

// Literal is a NumberExpr that is already an integer.
type Literal int64

func (l Literal) EvalTagNumber() (int64, error) { return int64(l), nil }

// Spec is one tag as written on a type: `[APPLICATION 5] IMPLICIT`.
// The number is resolved lazily, exactly once; afterwards the spec is immutable.
type Spec struct {
	Class     Class
	Plicity   Plicity
	Automatic bool
	Span      source.Span

	expr     NumberExpr
	resolved bool
	number   uint32
	err      error
}

// NewSpec builds a tag from a number expression.
func NewSpec(class Class, plicity Plicity, expr NumberExpr, span source.Span) *Spec {
	return &Spec{Class: class, Plicity: plicity, expr: expr, Span: span}
}

// NewAutoSpec builds an automatic context tag; automatic tags are implicit unless the tagged
// type is an untagged choice, which the tagging pass handles.
func NewAutoSpec(number uint32) *Spec {
	return &Spec{
		Class:     Context,
		Plicity:   Implicit,
		Automatic: true,
		resolved:  true,
		number:    number,
		Span:      source.NoSpan,
	}
}

// Value resolves the tag number on first use. A negative or oversized number resolves to an
// error-class tag and the error is kept for the tagging pass to report.
func (s *Spec) Value() Value {
	if !s.resolved {
		s.resolved = true
		s.resolve()
	}
	if s.err != nil {
		return Value{Class: Error}
	}
	return Value{Class: s.Class, Number: s.number}
}

// Err returns the resolution error, if any; calling it forces resolution.
func (s *Spec) Err() error {
	s.Value()
	return s.err
}

func (s *Spec) resolve() {
	if s.expr == nil {
		s.err = fmt.Errorf("tag has no number")
		return
	}
	n, err := s.expr.EvalTagNumber()
	if err != nil {
		s.err = err
		return
	}
	if n < 0 || n > math.MaxUint32 {
		s.err = fmt.Errorf("tag number %d out of range", n)
		return
	}
	s.number = uint32(n)
}

// Clone copies the spec including its resolution state.
func (s *Spec) Clone() *Spec {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}
