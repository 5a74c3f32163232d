package types

import "fmt"

// Category is the fixed discriminant of a type node.
type Category uint8

const (
	CatInvalid Category = iota
	CatError
	CatNull
	CatBool
	CatInt
	CatIntA
	CatReal
	CatEnumT
	CatEnumA
	CatBitString
	CatBitStringA
	CatHexString
	CatOctetString
	CatCharString
	CatUniversalCharString
	CatUTF8String
	CatNumericString
	CatPrintableString
	CatTeletexString
	CatVideotexString
	CatIA5String
	CatGraphicString
	CatVisibleString
	CatGeneralString
	CatUniversalString
	CatBMPString
	CatUTCTime
	CatGeneralizedTime
	CatObjectDescriptor
	CatOID
	CatROID
	CatAny
	CatExternal
	CatEmbeddedPDV
	CatUnrestrictedString
	CatVerdict
	CatDefault
	CatChoiceT
	CatChoiceA
	CatSequenceT
	CatSequenceA
	CatSetT
	CatSetA
	CatSequenceOf
	CatSetOf
	CatArray
	CatReference
	CatSelection
	CatReferenceSpecial
	CatObjectClassFieldType
	CatOpenType
	CatAnyType
	CatPort
	CatComponent
	CatAddress
	CatSignature
	CatFunction
	CatAltstep
	CatTestcase
	CatClass

	catCount
)

var categoryNames = [catCount]string{
	CatInvalid:              "invalid",
	CatError:                "<erroneous>",
	CatNull:                 "NULL",
	CatBool:                 "boolean",
	CatInt:                  "integer",
	CatIntA:                 "INTEGER",
	CatReal:                 "float",
	CatEnumT:                "enumerated",
	CatEnumA:                "ENUMERATED",
	CatBitString:            "bitstring",
	CatBitStringA:           "BIT STRING",
	CatHexString:            "hexstring",
	CatOctetString:          "octetstring",
	CatCharString:           "charstring",
	CatUniversalCharString:  "universal charstring",
	CatUTF8String:           "UTF8String",
	CatNumericString:        "NumericString",
	CatPrintableString:      "PrintableString",
	CatTeletexString:        "TeletexString",
	CatVideotexString:       "VideotexString",
	CatIA5String:            "IA5String",
	CatGraphicString:        "GraphicString",
	CatVisibleString:        "VisibleString",
	CatGeneralString:        "GeneralString",
	CatUniversalString:      "UniversalString",
	CatBMPString:            "BMPString",
	CatUTCTime:              "UTCTime",
	CatGeneralizedTime:      "GeneralizedTime",
	CatObjectDescriptor:     "ObjectDescriptor",
	CatOID:                  "objid",
	CatROID:                 "RELATIVE-OID",
	CatAny:                  "ANY",
	CatExternal:             "EXTERNAL",
	CatEmbeddedPDV:          "EMBEDDED PDV",
	CatUnrestrictedString:   "CHARACTER STRING",
	CatVerdict:              "verdicttype",
	CatDefault:              "default",
	CatChoiceT:              "union",
	CatChoiceA:              "CHOICE",
	CatSequenceT:            "record",
	CatSequenceA:            "SEQUENCE",
	CatSetT:                 "set",
	CatSetA:                 "SET",
	CatSequenceOf:           "record of",
	CatSetOf:                "set of",
	CatArray:                "array",
	CatReference:            "reference",
	CatSelection:            "selection",
	CatReferenceSpecial:     "special reference",
	CatObjectClassFieldType: "object class field type",
	CatOpenType:             "open type",
	CatAnyType:              "anytype",
	CatPort:                 "port",
	CatComponent:            "component",
	CatAddress:              "address",
	CatSignature:            "signature",
	CatFunction:             "function",
	CatAltstep:              "altstep",
	CatTestcase:             "testcase",
	CatClass:                "class",
}

func (c Category) String() string {
	if c < catCount {
		return categoryNames[c]
	}
	return fmt.Sprintf("Category(%d)", c)
}

// ParseCategory maps a display name (either notation) back to its category.
func ParseCategory(name string) (Category, bool) {
	for c := CatNull; c < catCount; c++ {
		if categoryNames[c] == name {
			return c, true
		}
	}
	return CatInvalid, false
}

// IsRecordLike: sequence, set and their TTCN counterparts.
func (c Category) IsRecordLike() bool {
	switch c {
	case CatSequenceT, CatSequenceA, CatSetT, CatSetA:
		return true
	}
	return false
}

func (c Category) IsSet() bool { return c == CatSetT || c == CatSetA }

func (c Category) IsUnionLike() bool {
	switch c {
	case CatChoiceT, CatChoiceA, CatAnyType, CatOpenType:
		return true
	}
	return false
}

// IsStructural reports categories whose payload is a field table.
func (c Category) IsStructural() bool { return c.IsRecordLike() || c.IsUnionLike() }

func (c Category) IsListLike() bool {
	return c == CatSequenceOf || c == CatSetOf || c == CatArray
}

func (c Category) IsReference() bool {
	switch c {
	case CatReference, CatSelection, CatReferenceSpecial, CatObjectClassFieldType:
		return true
	}
	return false
}

func (c Category) IsEnum() bool { return c == CatEnumT || c == CatEnumA }

func (c Category) IsInteger() bool { return c == CatInt || c == CatIntA }

func (c Category) IsBitString() bool { return c == CatBitString || c == CatBitStringA }

func (c Category) IsFunctionLike() bool {
	switch c {
	case CatFunction, CatAltstep, CatTestcase:
		return true
	}
	return false
}

// StringGroup classifies character string categories for compatibility.
type StringGroup uint8

const (
	NotString StringGroup = iota
	// GroupUniversalCharString is universal charstring alone; it accepts every string.
	GroupUniversalCharString
	// GroupUnicode: UTF8String, BMPString, UniversalString.
	GroupUnicode
	// GroupISO2022: TeletexString, VideotexString, GraphicString, GeneralString,
	// ObjectDescriptor.
	GroupISO2022
	// GroupASCII: charstring, NumericString, PrintableString, IA5String, VisibleString,
	// UTCTime, GeneralizedTime.
	GroupASCII
)

func (c Category) StringGroup() StringGroup {
	switch c {
	case CatUniversalCharString:
		return GroupUniversalCharString
	case CatUTF8String, CatBMPString, CatUniversalString:
		return GroupUnicode
	case CatTeletexString, CatVideotexString, CatGraphicString, CatGeneralString, CatObjectDescriptor:
		return GroupISO2022
	case CatCharString, CatNumericString, CatPrintableString, CatIA5String, CatVisibleString,
		CatUTCTime, CatGeneralizedTime:
		return GroupASCII
	}
	return NotString
}

// IsString reports character string categories, bit/hex/octet strings included.
func (c Category) IsString() bool {
	switch c {
	case CatBitString, CatBitStringA, CatHexString, CatOctetString:
		return true
	}
	return c.StringGroup() != NotString
}

// Base folds the paired notations (integer/INTEGER, bitstring/BIT STRING, enumerations)
// onto one category.
func (c Category) Base() Category {
	switch c {
	case CatIntA:
		return CatInt
	case CatBitStringA:
		return CatBitString
	case CatEnumA:
		return CatEnumT
	}
	return c
}
