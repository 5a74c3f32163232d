package tagging

import (
	"tycodec/internal/diag"
	"tycodec/internal/tags"
	"tycodec/internal/types"
)

// Check runs the collision check that matches the category of id and reports
// through r. It returns false when a collision was found.
func (t *Tagger) Check(id types.TypeID, r diag.Reporter) bool {
	switch c := t.reg.Category(id); {
	case c == types.CatChoiceA || c == types.CatChoiceT:
		return t.checkChoice(id, r)
	case c == types.CatSequenceA || c == types.CatSequenceT:
		return t.checkSequence(id, r)
	case c.IsSet():
		return t.checkSet(id, r)
	}
	return true
}

// checkChoice requires the alternatives to start with distinct tags.
func (t *Tagger) checkChoice(id types.TypeID, r diag.Reporter) bool {
	seen := &tags.Collection{}
	firstOwner := map[tags.Value]string{}
	ok := true
	for _, f := range t.reg.MustRecordInfo(id).Fields.Entries() {
		ts := t.Tags(f.Type)
		if seen.HasAny(ts) {
			ok = false
			b := diag.ReportError(r, diag.TagChoiceCollision, f.Span,
				"alternative %q of %s has a tag %s already used by another alternative",
				f.Name, t.reg.DisplayName(id), ts)
			for _, v := range ts.Values() {
				if prev, dup := firstOwner[v]; dup {
					b.WithNote(t.spanOf(id), "tag "+v.String()+" first used by "+prev)
					break
				}
			}
			b.Emit()
		}
		for _, v := range ts.Values() {
			if _, dup := firstOwner[v]; !dup {
				firstOwner[v] = f.Name
			}
		}
		seen.AddCollection(ts)
	}
	return ok
}

// checkSequence: a run of optional or defaulted fields together with the field after
// it must use distinct tags, so a decoder can tell which field is present.
func (t *Tagger) checkSequence(id types.TypeID, r diag.Reporter) bool {
	forbidden := &tags.Collection{}
	ok := true
	for _, f := range t.reg.MustRecordInfo(id).Fields.Entries() {
		ts := t.Tags(f.Type)
		if forbidden.HasAny(ts) {
			ok = false
			diag.ReportError(r, diag.TagSequenceCollision, f.Span,
				"tag %s of field %q in %s clashes with a preceding optional field",
				ts, f.Name, t.reg.DisplayName(id)).Emit()
		}
		if f.Optional || f.Default != "" {
			forbidden.AddCollection(ts)
		} else {
			forbidden.Clear()
		}
	}
	return ok
}

// checkSet requires every field of a SET to start with a distinct tag.
func (t *Tagger) checkSet(id types.TypeID, r diag.Reporter) bool {
	seen := &tags.Collection{}
	ok := true
	for _, f := range t.reg.MustRecordInfo(id).Fields.Entries() {
		ts := t.Tags(f.Type)
		if seen.HasAny(ts) {
			ok = false
			diag.ReportError(r, diag.TagSetCollision, f.Span,
				"tag %s of field %q in %s is not distinct", ts, f.Name, t.reg.DisplayName(id)).Emit()
		}
		seen.AddCollection(ts)
	}
	return ok
}

// CheckSpecs reports tag numbers that could not be resolved and tags written on
// types that cannot carry one.
func (t *Tagger) CheckSpecs(id types.TypeID, r diag.Reporter) bool {
	ok := true
	specs := t.reg.Attrs(id).Tags
	if len(specs) > 0 {
		res := t.reg.Resolved(id)
		if c := t.reg.Category(res); Untaggable(c) {
			diag.ReportError(r, diag.TagOnUntaggableType, specs[0].Span,
				"type %s of category %s cannot be tagged", t.reg.DisplayName(id), c).Emit()
			ok = false
		}
		if len(specs) == 1 && specs[0].Plicity == tags.Implicit && t.innerUntaggedChoice(id) {
			diag.ReportWarning(r, diag.TagImplicitOnChoice, specs[0].Span,
				"IMPLICIT tag on untagged %s is applied as EXPLICIT", t.reg.DisplayName(res)).Emit()
		}
	}
	for i := range specs {
		if err := specs[i].Err(); err != nil {
			diag.ReportError(r, diag.TagBadNumber, specs[i].Span, "invalid tag: %v", err).Emit()
			ok = false
		}
	}
	return ok
}

// innerUntaggedChoice reports whether the own tags of id sit on an untagged choice.
func (t *Tagger) innerUntaggedChoice(id types.TypeID) bool {
	if info, ok := t.reg.RefInfo(id); ok && info.Target != types.NoTypeID {
		return t.untaggedChoice(info.Target)
	}
	return t.reg.Category(id).IsUnionLike()
}
