package sema

import (
	"slices"

	"tycodec/internal/types"
)

// tagPass assigns automatic tags first so that the collision checks see the final
// tags of every structure.
func (c *checker) tagPass() {
	c.each(func(id types.TypeID, _ types.Type) {
		if assigned := c.tagger.AssignAutomatic(id); len(assigned) > 0 {
			c.res.AutoTags[id] = assigned
		}
	})
	c.each(func(id types.TypeID, t types.Type) {
		if !c.tagger.CheckSpecs(id, c.reporter) {
			c.markError(id)
		}
		if t.Category.IsStructural() && c.tagRelevant(id, t) && !c.tagger.Check(id, c.reporter) {
			c.markError(id)
		}
	})
}

// tagRelevant: collisions only matter where BER applies, i.e. for ASN.1 structures
// and for TTCN structures that carry tags or request BER.
func (c *checker) tagRelevant(id types.TypeID, t types.Type) bool {
	switch t.Category {
	case types.CatSequenceA, types.CatSetA, types.CatChoiceA:
		return true
	}
	a := c.reg.Attrs(id)
	if len(a.Tags) > 0 || slices.Contains(a.Encodings, types.FormatBER) {
		return true
	}
	for _, f := range c.reg.MustRecordInfo(id).Fields.Entries() {
		if len(c.reg.Attrs(f.Type).Tags) > 0 {
			return true
		}
	}
	return false
}
