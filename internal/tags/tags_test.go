package tags

import (
	"errors"
	"testing"

	"tycodec/internal/source"
)

type failingExpr struct{}

func (failingExpr) EvalTagNumber() (int64, error) { return 0, errors.New("not a constant") }

type countingExpr struct{ calls *int }

func (c countingExpr) EvalTagNumber() (int64, error) {
	*c.calls++
	return 7, nil
}

func TestValueOrdering(t *testing.T) {
	vals := []Value{
		{Class: Context, Number: 0},
		{Class: Universal, Number: 16},
		{Class: Application, Number: 1},
		{Class: Universal, Number: 2},
		{Class: Private, Number: 0},
	}
	var c Collection
	for _, v := range vals {
		c.Add(v)
	}
	want := []Value{
		{Class: Universal, Number: 2},
		{Class: Universal, Number: 16},
		{Class: Application, Number: 1},
		{Class: Context, Number: 0},
		{Class: Private, Number: 0},
	}
	got := c.Values()
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d: got %s, want %s", i, got[i], want[i])
		}
	}
	if c.Smallest() != want[0] || c.Greatest() != want[4] {
		t.Fatalf("smallest/greatest wrong: %s %s", c.Smallest(), c.Greatest())
	}
}

func TestSpecResolvesOnce(t *testing.T) {
	calls := 0
	s := NewSpec(Application, Explicit, countingExpr{calls: &calls}, source.NoSpan)
	for range 3 {
		if v := s.Value(); v != (Value{Class: Application, Number: 7}) {
			t.Fatalf("value = %s", v)
		}
	}
	if calls != 1 {
		t.Fatalf("expression evaluated %d times", calls)
	}
}

func TestSpecErrors(t *testing.T) {
	s := NewSpec(Context, Implicit, failingExpr{}, source.NoSpan)
	if s.Value().Class != Error || s.Err() == nil {
		t.Fatalf("expected error tag")
	}
	neg := NewSpec(Context, Implicit, Literal(-1), source.NoSpan)
	if neg.Err() == nil {
		t.Fatalf("negative tag accepted")
	}
}

func TestCollectionQueries(t *testing.T) {
	var a, b Collection
	a.Add(Value{Class: Context, Number: 0})
	a.Add(Value{Class: Context, Number: 1})
	b.Add(Value{Class: Context, Number: 2})

	if a.HasAny(&b) {
		t.Fatalf("disjoint collections reported as colliding")
	}
	if !b.Greater(&a) || a.Greater(&b) {
		t.Fatalf("Greater is wrong")
	}
	b.Add(Value{Class: Context, Number: 1})
	if !a.HasAny(&b) {
		t.Fatalf("collision missed")
	}
	if a.HasAll(&b) {
		t.Fatalf("HasAll should be false")
	}

	var wild Collection
	wild.Add(Value{Class: All})
	if !wild.HasAny(&a) || !wild.HasAll(&a) || !wild.IsAll() {
		t.Fatalf("wildcard semantics broken")
	}
	wild.SetExtensible()
	wild.Clear()
	if !wild.IsEmpty() || !wild.IsExtensible() {
		t.Fatalf("Clear must empty the set and keep the extensible flag")
	}
}

func TestValueString(t *testing.T) {
	tests := map[Value]string{
		{Class: Context, Number: 3}:      "[3]",
		{Class: Application, Number: 1}: "[APPLICATION 1]",
		{Class: Universal, Number: 16}:  "[UNIVERSAL 16]",
	}
	for v, want := range tests {
		if got := v.String(); got != want {
			t.Errorf("%v: got %q, want %q", v, got, want)
		}
	}
}
