// Package tagging derives BER tags from the type graph: default universal tags, the
// effective tag and tag chain of a type, automatic tagging and tag collision checks.
package tagging

import (
	"sync"

	"tycodec/internal/tags"
	"tycodec/internal/types"
)

var defaultCache struct {
	mu    sync.Mutex
	table map[types.Category]tags.Value
}

// DefaultTag returns the universal tag of a category. Choices, open types and ANY
// have none.
func DefaultTag(c types.Category) (tags.Value, bool) {
	defaultCache.mu.Lock()
	defer defaultCache.mu.Unlock()
	if defaultCache.table == nil {
		defaultCache.table = buildDefaultTags()
	}
	v, ok := defaultCache.table[c]
	return v, ok
}

// ResetDefaultTags drops the cached table.
func ResetDefaultTags() {
	defaultCache.mu.Lock()
	defaultCache.table = nil
	defaultCache.mu.Unlock()
}

func buildDefaultTags() map[types.Category]tags.Value {
	numbers := map[types.Category]uint32{
		types.CatBool:               1,
		types.CatInt:                2,
		types.CatIntA:               2,
		types.CatBitString:          3,
		types.CatBitStringA:         3,
		types.CatOctetString:        4,
		types.CatNull:               5,
		types.CatOID:                6,
		types.CatObjectDescriptor:   7,
		types.CatExternal:           8,
		types.CatReal:               9,
		types.CatEnumT:              10,
		types.CatEnumA:              10,
		types.CatEmbeddedPDV:        11,
		types.CatUTF8String:         12,
		types.CatROID:               13,
		types.CatSequenceT:          16,
		types.CatSequenceA:          16,
		types.CatSequenceOf:         16,
		types.CatSetT:               17,
		types.CatSetA:               17,
		types.CatSetOf:              17,
		types.CatNumericString:      18,
		types.CatPrintableString:    19,
		types.CatTeletexString:      20,
		types.CatVideotexString:     21,
		types.CatIA5String:          22,
		types.CatUTCTime:            23,
		types.CatGeneralizedTime:    24,
		types.CatGraphicString:      25,
		types.CatVisibleString:      26,
		types.CatGeneralString:      27,
		types.CatUniversalString:    28,
		types.CatUnrestrictedString: 29,
		types.CatBMPString:          30,
	}
	out := make(map[types.Category]tags.Value, len(numbers))
	for c, n := range numbers {
		out[c] = tags.Value{Class: tags.Universal, Number: n}
	}
	return out
}

// Untaggable reports categories that cannot carry a BER tag at all.
func Untaggable(c types.Category) bool {
	switch c {
	case types.CatPort, types.CatComponent, types.CatSignature, types.CatFunction,
		types.CatAltstep, types.CatTestcase, types.CatDefault, types.CatClass, types.CatVerdict:
		return true
	}
	return false
}
