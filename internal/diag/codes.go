package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Граф типов и ссылки
	TypInfo              Code = 1000
	TypUnresolvedRef     Code = 1001
	TypCircularRef       Code = 1002
	TypDuplicateField    Code = 1003
	TypInfiniteRecursion Code = 1004
	TypBadElement        Code = 1005
	TypDuplicateEnumItem Code = 1006
	TypDuplicateEnumVal  Code = 1007
	TypUnknownCategory   Code = 1008

	// Теги
	TagInfo              Code = 2000
	TagChoiceCollision   Code = 2001
	TagSequenceCollision Code = 2002
	TagSetCollision      Code = 2003
	TagAutoCollision     Code = 2004
	TagBadNumber         Code = 2005
	TagImplicitOnChoice  Code = 2006
	TagOnUntaggableType  Code = 2007

	// Совместимость
	CmpInfo         Code = 3000
	CmpIncompatible Code = 3001

	// Подтипы
	SubInfo          Code = 4000
	SubEmpty         Code = 4001
	SubWiden         Code = 4002
	SubNotApplicable Code = 4003

	// Методы кодирования и атрибуты
	CodInfo            Code = 5000
	CodMultipleMethods Code = 5001
	CodBadFieldRef     Code = 5002
	CodBadAttribute    Code = 5003
	CodSelfReference   Code = 5004
	CodAttrOnWrongType Code = 5005

	// Генерация
	GenInfo          Code = 6000
	GenSkippedFormat Code = 6001
	GenFatal         Code = 6002

	// I/O
	IOLoadFileError Code = 7001
	IOBadSchema     Code = 7002
	IOCacheError    Code = 7003

	// Observability
	ObsInfo    Code = 8000
	ObsTimings Code = 8001
)

var codeDescription = map[Code]string{
	UnknownCode:          "Unknown error",
	TypInfo:              "Type graph information",
	TypUnresolvedRef:     "Unresolved type reference",
	TypCircularRef:       "Circular type reference",
	TypDuplicateField:    "Duplicate field name",
	TypInfiniteRecursion: "Type has no finite value",
	TypBadElement:        "Invalid element type",
	TypDuplicateEnumItem: "Duplicate enumeration item",
	TypDuplicateEnumVal:  "Duplicate enumeration value",
	TypUnknownCategory:   "Unknown type category",
	TagInfo:              "Tag information",
	TagChoiceCollision:   "Choice alternatives share a tag",
	TagSequenceCollision: "Ambiguous tags in optional field run",
	TagSetCollision:      "Set fields share a tag",
	TagAutoCollision:     "Automatic tag collides with an explicit tag",
	TagBadNumber:         "Invalid tag number",
	TagImplicitOnChoice:  "Implicit tag on untagged choice",
	TagOnUntaggableType:  "Type cannot be tagged",
	CmpInfo:              "Compatibility information",
	CmpIncompatible:      "Incompatible types",
	SubInfo:              "Subtype information",
	SubEmpty:             "Subtype constraint admits no value",
	SubWiden:             "Subtype restriction widens the parent constraint",
	SubNotApplicable:     "Restriction not applicable to type",
	CodInfo:              "Coding information",
	CodMultipleMethods:   "Ambiguous coding method",
	CodBadFieldRef:       "Malformed field cross reference",
	CodBadAttribute:      "Invalid encoding attribute",
	CodSelfReference:     "Field refers to itself",
	CodAttrOnWrongType:   "Encoding attribute not applicable",
	GenInfo:              "Generation information",
	GenSkippedFormat:     "Descriptor generation skipped",
	GenFatal:             "Internal generator error",
	IOLoadFileError:      "Failed to load file",
	IOBadSchema:          "Malformed schema file",
	IOCacheError:         "Descriptor cache error",
	ObsInfo:              "Observability information",
	ObsTimings:           "Pipeline timings",
}

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("TYP%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("TAG%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("CMP%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("SUB%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("COD%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("GEN%04d", ic)
	case ic >= 7000 && ic < 8000:
		return fmt.Sprintf("IO%04d", ic)
	case ic >= 8000 && ic < 9000:
		return fmt.Sprintf("OBS%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
