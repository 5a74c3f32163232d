package subtype

import (
	"math"
	"slices"
	"strconv"
	"strings"
)

// IntRange is a closed interval; MinInt64/MaxInt64 stand for -infinity/+infinity.
type IntRange struct {
	Lo, Hi int64
}

const (
	NegInf = math.MinInt64
	PosInf = math.MaxInt64
)

// Point makes a single-value range.
func Point(v int64) IntRange { return IntRange{Lo: v, Hi: v} }

// AtLeast makes [lo, +inf).
func AtLeast(lo int64) IntRange { return IntRange{Lo: lo, Hi: PosInf} }

// IntSet is a normalized union of disjoint, non-adjacent closed intervals.
// The nil *IntSet means "unrestricted".
type IntSet struct {
	ranges []IntRange
}

// NewIntSet normalizes the given ranges; inverted ranges are dropped.
func NewIntSet(rs ...IntRange) *IntSet {
	out := make([]IntRange, 0, len(rs))
	for _, r := range rs {
		if r.Lo <= r.Hi {
			out = append(out, r)
		}
	}
	slices.SortFunc(out, func(a, b IntRange) int {
		switch {
		case a.Lo < b.Lo:
			return -1
		case a.Lo > b.Lo:
			return 1
		}
		return 0
	})
	merged := out[:0]
	for _, r := range out {
		if n := len(merged); n > 0 {
			last := &merged[n-1]
			if last.Hi == PosInf || r.Lo <= last.Hi+1 {
				if r.Hi > last.Hi {
					last.Hi = r.Hi
				}
				continue
			}
		}
		merged = append(merged, r)
	}
	return &IntSet{ranges: merged}
}

func (s *IntSet) Ranges() []IntRange {
	if s == nil {
		return []IntRange{{Lo: NegInf, Hi: PosInf}}
	}
	return slices.Clone(s.ranges)
}

func (s *IntSet) IsEmpty() bool { return s != nil && len(s.ranges) == 0 }

// Has reports membership.
func (s *IntSet) Has(v int64) bool {
	if s == nil {
		return true
	}
	for _, r := range s.ranges {
		if v >= r.Lo && v <= r.Hi {
			return true
		}
	}
	return false
}

// Intersect returns s ∩ o; nil operands are the full set.
func (s *IntSet) Intersect(o *IntSet) *IntSet {
	if s == nil {
		return o
	}
	if o == nil {
		return s
	}
	var out []IntRange
	i, j := 0, 0
	for i < len(s.ranges) && j < len(o.ranges) {
		a, b := s.ranges[i], o.ranges[j]
		lo, hi := max(a.Lo, b.Lo), min(a.Hi, b.Hi)
		if lo <= hi {
			out = append(out, IntRange{Lo: lo, Hi: hi})
		}
		if a.Hi < b.Hi {
			i++
		} else {
			j++
		}
	}
	return &IntSet{ranges: out}
}

// SubsetOf reports s ⊆ o.
func (s *IntSet) SubsetOf(o *IntSet) bool {
	if o == nil {
		return true
	}
	if s == nil {
		return false
	}
	for _, r := range s.ranges {
		covered := false
		for _, q := range o.ranges {
			if r.Lo >= q.Lo && r.Hi <= q.Hi {
				covered = true
				break
			}
		}
		if !covered {
			return false
		}
	}
	return true
}

// Bounds returns the smallest and greatest members; ok is false for empty sets.
func (s *IntSet) Bounds() (lo, hi int64, ok bool) {
	if s == nil {
		return NegInf, PosInf, true
	}
	if len(s.ranges) == 0 {
		return 0, 0, false
	}
	return s.ranges[0].Lo, s.ranges[len(s.ranges)-1].Hi, true
}

func (s *IntSet) String() string {
	if s == nil {
		return "(-infinity..infinity)"
	}
	parts := make([]string, len(s.ranges))
	for i, r := range s.ranges {
		parts[i] = formatRange(r)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func formatRange(r IntRange) string {
	if r.Lo == r.Hi {
		return strconv.FormatInt(r.Lo, 10)
	}
	lo, hi := "-infinity", "infinity"
	if r.Lo != NegInf {
		lo = strconv.FormatInt(r.Lo, 10)
	}
	if r.Hi != PosInf {
		hi = strconv.FormatInt(r.Hi, 10)
	}
	return lo + ".." + hi
}

// FloatRange is a closed interval over float64; infinities are allowed as bounds.
type FloatRange struct {
	Lo, Hi float64
}

// FloatSet is a union of float intervals plus an explicit NaN flag.
// The nil *FloatSet is unrestricted (and includes NaN).
type FloatSet struct {
	ranges []FloatRange
	nan    bool
}

func NewFloatSet(allowNaN bool, rs ...FloatRange) *FloatSet {
	out := make([]FloatRange, 0, len(rs))
	for _, r := range rs {
		if r.Lo <= r.Hi {
			out = append(out, r)
		}
	}
	slices.SortFunc(out, func(a, b FloatRange) int {
		switch {
		case a.Lo < b.Lo:
			return -1
		case a.Lo > b.Lo:
			return 1
		}
		return 0
	})
	return &FloatSet{ranges: out, nan: allowNaN}
}

func (s *FloatSet) IsEmpty() bool { return s != nil && len(s.ranges) == 0 && !s.nan }

func (s *FloatSet) AllowsNaN() bool { return s == nil || s.nan }

func (s *FloatSet) Ranges() []FloatRange {
	if s == nil {
		return []FloatRange{{Lo: math.Inf(-1), Hi: math.Inf(1)}}
	}
	return slices.Clone(s.ranges)
}

func (s *FloatSet) Has(v float64) bool {
	if s == nil {
		return true
	}
	if math.IsNaN(v) {
		return s.nan
	}
	for _, r := range s.ranges {
		if v >= r.Lo && v <= r.Hi {
			return true
		}
	}
	return false
}

func (s *FloatSet) Intersect(o *FloatSet) *FloatSet {
	if s == nil {
		return o
	}
	if o == nil {
		return s
	}
	var out []FloatRange
	for _, a := range s.ranges {
		for _, b := range o.ranges {
			lo, hi := math.Max(a.Lo, b.Lo), math.Min(a.Hi, b.Hi)
			if lo <= hi {
				out = append(out, FloatRange{Lo: lo, Hi: hi})
			}
		}
	}
	return NewFloatSet(s.nan && o.nan, out...)
}

func (s *FloatSet) SubsetOf(o *FloatSet) bool {
	if o == nil {
		return true
	}
	if s == nil {
		return false
	}
	if s.nan && !o.nan {
		return false
	}
	for _, r := range s.ranges {
		covered := false
		for _, q := range o.ranges {
			if r.Lo >= q.Lo && r.Hi <= q.Hi {
				covered = true
				break
			}
		}
		if !covered {
			return false
		}
	}
	return true
}
