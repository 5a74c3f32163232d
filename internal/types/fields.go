package types

import (
	"slices"

	"tycodec/internal/source"
)

// FieldEntry is one field of a record or one alternative of a union.
type FieldEntry struct {
	Name     string
	Type     TypeID
	Optional bool
	// Default is the literal text of the DEFAULT value; empty when there is none.
	Default string
	Span    source.Span
}

// FieldTable keeps fields in declaration order. The name index is built on first
// lookup and dropped by every structural change.
type FieldTable struct {
	entries []FieldEntry
	byName  map[string]int
}

func NewFieldTable(entries ...FieldEntry) *FieldTable {
	return &FieldTable{entries: slices.Clone(entries)}
}

func (ft *FieldTable) Len() int {
	if ft == nil {
		return 0
	}
	return len(ft.entries)
}

// At returns the field at index i.
func (ft *FieldTable) At(i int) (FieldEntry, bool) {
	if ft == nil || i < 0 || i >= len(ft.entries) {
		return FieldEntry{}, false
	}
	return ft.entries[i], true
}

// Index returns the position of name, or -1.
func (ft *FieldTable) Index(name string) int {
	if ft == nil {
		return -1
	}
	if ft.byName == nil {
		ft.byName = make(map[string]int, len(ft.entries))
		for i, e := range ft.entries {
			if _, dup := ft.byName[e.Name]; !dup {
				ft.byName[e.Name] = i
			}
		}
	}
	if i, ok := ft.byName[name]; ok {
		return i
	}
	return -1
}

// Lookup returns the field called name.
func (ft *FieldTable) Lookup(name string) (FieldEntry, bool) {
	return ft.At(ft.Index(name))
}

func (ft *FieldTable) Add(e FieldEntry) {
	ft.entries = append(ft.entries, e)
	ft.byName = nil
}

// Insert places e before index i.
func (ft *FieldTable) Insert(i int, e FieldEntry) {
	ft.entries = slices.Insert(ft.entries, i, e)
	ft.byName = nil
}

func (ft *FieldTable) Remove(i int) {
	ft.entries = slices.Delete(ft.entries, i, i+1)
	ft.byName = nil
}

// SetType rebinds the type of field i.
func (ft *FieldTable) SetType(i int, t TypeID) {
	ft.entries[i].Type = t
}

// Entries returns a copy of the fields.
func (ft *FieldTable) Entries() []FieldEntry {
	if ft == nil {
		return nil
	}
	return slices.Clone(ft.entries)
}

func (ft *FieldTable) Names() []string {
	if ft == nil {
		return nil
	}
	out := make([]string, len(ft.entries))
	for i, e := range ft.entries {
		out[i] = e.Name
	}
	return out
}

// MandatoryCount counts fields that are neither optional nor defaulted.
func (ft *FieldTable) MandatoryCount() int {
	n := 0
	for _, e := range ft.Entries() {
		if !e.Optional && e.Default == "" {
			n++
		}
	}
	return n
}

// Duplicates returns the indices of fields whose name was already used.
func (ft *FieldTable) Duplicates() []int {
	if ft == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(ft.entries))
	var out []int
	for i, e := range ft.entries {
		if _, ok := seen[e.Name]; ok {
			out = append(out, i)
			continue
		}
		seen[e.Name] = struct{}{}
	}
	return out
}
