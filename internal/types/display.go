package types

import (
	"strconv"
	"strings"
)

// DisplayName renders a type for messages: the qualified name of a type definition,
// the path from the enclosing definition for embedded nodes, or the category name.
func (r *Registry) DisplayName(id TypeID) string {
	t, ok := r.Lookup(id)
	if !ok {
		return "<unknown>"
	}
	if t.Name != "" {
		if t.Module == "" {
			return t.Name
		}
		return t.Module + "." + t.Name
	}
	if t.Parent != NoTypeID {
		switch t.Owner {
		case OwnerField, OwnerParam:
			return r.DisplayName(t.Parent) + "." + t.FieldName
		case OwnerListElem:
			return r.DisplayName(t.Parent) + "[-]"
		case OwnerReturn:
			return r.DisplayName(t.Parent) + ".<return>"
		}
	}
	return t.Category.String()
}

// GenName is the identifier prefix used for the generated descriptors of id. Built-in
// categories use their fixed names; embedded nodes append their field name (or "0" for
// list elements) to the container.
func (r *Registry) GenName(id TypeID) string {
	t, ok := r.Lookup(id)
	if !ok {
		return "INVALID"
	}
	if t.Owner == OwnerBuiltin {
		return BuiltinGenName(t.Category)
	}
	if t.Name != "" {
		return mangle(t.Name)
	}
	if t.Parent != NoTypeID {
		suffix := mangle(t.FieldName)
		switch t.Owner {
		case OwnerListElem:
			suffix = "0"
		case OwnerReturn:
			suffix = "return"
		}
		return r.GenName(t.Parent) + "_" + suffix
	}
	return "anon" + strconv.FormatUint(uint64(id), 10)
}

// BuiltinGenName is the descriptor name of a built-in category.
func BuiltinGenName(c Category) string {
	switch c {
	case CatNull:
		return "ASN_NULL"
	case CatBool:
		return "BOOLEAN"
	case CatInt, CatIntA:
		return "INTEGER"
	case CatReal:
		return "FLOAT"
	case CatEnumT, CatEnumA:
		return "ENUMERATED"
	case CatBitString, CatBitStringA:
		return "BITSTRING"
	case CatHexString:
		return "HEXSTRING"
	case CatOctetString:
		return "OCTETSTRING"
	case CatCharString:
		return "CHARSTRING"
	case CatUniversalCharString:
		return "UNIVERSAL_CHARSTRING"
	case CatOID:
		return "OBJID"
	case CatROID:
		return "ASN_ROID"
	case CatAny:
		return "ASN_ANY"
	case CatVerdict:
		return "VERDICTTYPE"
	case CatDefault:
		return "DEFAULT"
	case CatChoiceT, CatChoiceA, CatAnyType, CatOpenType:
		return "CHOICE"
	case CatSequenceT, CatSequenceA, CatSequenceOf:
		return "SEQUENCE"
	case CatSetT, CatSetA, CatSetOf:
		return "SET"
	case CatError:
		return "ERRONEOUS"
	}
	// ASN.1 restricted strings and the like keep their own names.
	return mangle(c.String())
}

func mangle(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		}
		return '_'
	}, s)
}
