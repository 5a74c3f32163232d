package tags

import (
	"slices"
	"strings"
)

// Collection is an ordered set of tag values with a wildcard and an extensibility flag.
// It answers the questions collision detection needs: is this tag present, are all of
// these present, are all of these greater than everything here.
type Collection struct {
	values     []Value // sorted, unique
	all        bool
	extensible bool
}

// Add inserts v; the ALL class switches the collection into wildcard mode.
func (c *Collection) Add(v Value) {
	if v.Class == All {
		c.all = true
		return
	}
	i, found := slices.BinarySearchFunc(c.values, v, Value.Compare)
	if found {
		return
	}
	c.values = slices.Insert(c.values, i, v)
}

// AddCollection merges other into c.
func (c *Collection) AddCollection(other *Collection) {
	if other == nil {
		return
	}
	if other.all {
		c.all = true
	}
	for _, v := range other.values {
		c.Add(v)
	}
}

// Has reports whether v collides with the collection.
func (c *Collection) Has(v Value) bool {
	if c.all || v.Class == All {
		return !c.IsEmpty() || c.all
	}
	_, found := slices.BinarySearchFunc(c.values, v, Value.Compare)
	return found
}

// HasAny reports whether any tag of other collides with c.
func (c *Collection) HasAny(other *Collection) bool {
	if other == nil || other.IsEmpty() || c.IsEmpty() {
		return false
	}
	if c.all || other.all {
		return true
	}
	for _, v := range other.values {
		if c.Has(v) {
			return true
		}
	}
	return false
}

// HasAll reports whether every tag of other is in c.
func (c *Collection) HasAll(other *Collection) bool {
	if c.all {
		return true
	}
	if other.all {
		return false
	}
	for _, v := range other.values {
		if !c.Has(v) {
			return false
		}
	}
	return true
}

// Greater reports whether every tag of c is greater than every tag of other.
func (c *Collection) Greater(other *Collection) bool {
	if c.all || other.all {
		return false
	}
	if len(c.values) == 0 || len(other.values) == 0 {
		return true
	}
	return other.Greatest().Less(c.Smallest())
}

// Smallest returns the smallest tag; the collection must not be empty.
func (c *Collection) Smallest() Value {
	if len(c.values) == 0 {
		return Value{Class: All}
	}
	return c.values[0]
}

// Greatest returns the greatest tag; the collection must not be empty.
func (c *Collection) Greatest() Value {
	if len(c.values) == 0 {
		return Value{Class: All}
	}
	return c.values[len(c.values)-1]
}

func (c *Collection) IsEmpty() bool { return !c.all && len(c.values) == 0 }

func (c *Collection) IsAll() bool { return c.all }

func (c *Collection) Len() int { return len(c.values) }

func (c *Collection) Values() []Value { return slices.Clone(c.values) }

func (c *Collection) SetExtensible() { c.extensible = true }

func (c *Collection) IsExtensible() bool { return c.extensible }

// Clear empties the collection; the extensibility flag is kept.
func (c *Collection) Clear() {
	c.values = c.values[:0]
	c.all = false
}

func (c *Collection) String() string {
	if c.all {
		return "{ALL}"
	}
	parts := make([]string, len(c.values))
	for i, v := range c.values {
		parts[i] = v.String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
