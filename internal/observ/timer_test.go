package observ

import (
	"strings"
	"testing"
)

func TestTimerReport(t *testing.T) {
	tm := NewTimer()
	a := tm.Begin("load")
	tm.End(a, "")
	b := tm.Begin("check")
	tm.End(b, "cached")
	tm.End(42, "ignored")

	r := tm.Report()
	if len(r.Phases) != 2 || r.Phases[0].Name != "load" || r.Phases[1].Note != "cached" {
		t.Fatalf("report = %+v", r)
	}
	if r.TotalMS < r.Phases[0].DurationMS {
		t.Fatalf("total %v below a phase", r.TotalMS)
	}
	if got := (&Timer{}).Report(); got.Phases != nil || got.TotalMS != 0 {
		t.Fatalf("empty timer report = %+v", got)
	}
}

func TestCombineAndSlowest(t *testing.T) {
	r1 := Report{TotalMS: 3, Phases: []PhaseReport{{Name: "load", DurationMS: 1}, {Name: "check", DurationMS: 2, Note: "x"}}}
	r2 := Report{TotalMS: 5, Phases: []PhaseReport{{Name: "check", DurationMS: 1}, {Name: "write", DurationMS: 4}}}

	c := Combine(r1, r2)
	if c.TotalMS != 8 || len(c.Phases) != 3 {
		t.Fatalf("combined = %+v", c)
	}
	want := []PhaseReport{{Name: "load", DurationMS: 1}, {Name: "check", DurationMS: 3}, {Name: "write", DurationMS: 4}}
	for i := range want {
		if c.Phases[i] != want[i] {
			t.Fatalf("phase %d = %+v, want %+v", i, c.Phases[i], want[i])
		}
	}

	slow := c.Slowest(2)
	if len(slow) != 2 || slow[0].Name != "write" || slow[1].Name != "check" {
		t.Fatalf("slowest = %+v", slow)
	}

	s := c.Summary()
	if !strings.Contains(s, "write") || !strings.Contains(s, "total") {
		t.Fatalf("summary = %q", s)
	}
}
