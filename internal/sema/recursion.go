package sema

import (
	"tycodec/internal/diag"
	"tycodec/internal/types"
)

// recursionPass reports records and sets that contain themselves through mandatory
// fields only. Such a type has no finite value; an optional field, a union or a
// record-of anywhere on the loop breaks it.
func (c *checker) recursionPass() {
	c.each(func(id types.TypeID, t types.Type) {
		if !t.Category.IsRecordLike() {
			return
		}
		path, found := c.mandatoryLoop(id, id, map[types.TypeID]struct{}{id: {}})
		if !found {
			return
		}
		b := diag.ReportError(c.reporter, diag.TypInfiniteRecursion, t.Span,
			"%s has no finite value: it contains itself through mandatory fields", c.reg.DisplayName(id))
		for _, f := range path {
			b.WithNote(f.Span, "mandatory field "+f.Name)
		}
		b.Emit()
		c.markError(id)
	})
}

// mandatoryLoop searches the mandatory fields of from for a way back to target and
// returns the fields along it.
func (c *checker) mandatoryLoop(from, target types.TypeID, visited map[types.TypeID]struct{}) ([]types.FieldEntry, bool) {
	info, ok := c.reg.RecordInfo(from)
	if !ok {
		return nil, false
	}
	for _, f := range info.Fields.Entries() {
		if f.Optional || f.Default != "" {
			continue
		}
		ft := c.reg.Resolved(f.Type)
		if ft == target {
			return []types.FieldEntry{f}, true
		}
		if !c.reg.Category(ft).IsRecordLike() {
			continue
		}
		if _, seen := visited[ft]; seen {
			continue
		}
		visited[ft] = struct{}{}
		if rest, found := c.mandatoryLoop(ft, target, visited); found {
			return append([]types.FieldEntry{f}, rest...), true
		}
	}
	return nil, false
}
