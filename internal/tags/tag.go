// Package tags holds BER tag values and tag collections. The algorithms that derive tags from
// a type graph live in package tagging.
package tags

import (
	"fmt"
	"strconv"
)

// Class is the tag class. The declaration order is the canonical ordering.
type Class uint8

const (
	Universal Class = iota
	Application
	Context
	Private
	// All is the wildcard class of open types and ANY: it matches every tag.
	All
	// Error marks a tag whose number could not be resolved.
	Error
)

func (c Class) String() string {
	switch c {
	case Universal:
		return "UNIVERSAL"
	case Application:
		return "APPLICATION"
	case Context:
		return "CONTEXT"
	case Private:
		return "PRIVATE"
	case All:
		return "ALL"
	case Error:
		return "ERROR"
	default:
		return fmt.Sprintf("Class(%d)", c)
	}
}

// Value is a resolved tag.
type Value struct {
	Class  Class
	Number uint32
}

// Compare orders by class, then number.
func (v Value) Compare(o Value) int {
	switch {
	case v.Class < o.Class:
		return -1
	case v.Class > o.Class:
		return 1
	case v.Number < o.Number:
		return -1
	case v.Number > o.Number:
		return 1
	}
	return 0
}

func (v Value) Less(o Value) bool { return v.Compare(o) < 0 }

// String renders ASN.1 notation: "[APPLICATION 3]", "[5]" for context, "[UNIVERSAL 16]".
func (v Value) String() string {
	switch v.Class {
	case Context:
		return "[" + strconv.FormatUint(uint64(v.Number), 10) + "]"
	case All:
		return "[ALL]"
	case Error:
		return "[ERROR]"
	default:
		return "[" + v.Class.String() + " " + strconv.FormatUint(uint64(v.Number), 10) + "]"
	}
}

// Plicity says how a tag combines with the tag of the underlying type.
type Plicity uint8

const (
	// PlicityDefault follows the module's tagging default.
	PlicityDefault Plicity = iota
	Explicit
	Implicit
)

func (p Plicity) String() string {
	switch p {
	case Explicit:
		return "EXPLICIT"
	case Implicit:
		return "IMPLICIT"
	default:
		return "DEFAULT"
	}
}

// ModuleDefault is the TagDefault of a module.
type ModuleDefault uint8

const (
	DefaultExplicit ModuleDefault = iota
	DefaultImplicit
	DefaultAutomatic
)

func (d ModuleDefault) String() string {
	switch d {
	case DefaultImplicit:
		return "IMPLICIT"
	case DefaultAutomatic:
		return "AUTOMATIC"
	default:
		return "EXPLICIT"
	}
}
