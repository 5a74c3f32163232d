package subtype

import (
	"math"

	"tycodec/internal/jsonschema"
)

// SchemaFragment renders the restriction keys of c in a fixed order. Infinite bounds
// and unrepresentable restrictions (alphabets, multiple disjoint ranges) are left out.
func (c *Constraint) SchemaFragment() *jsonschema.Object {
	out := jsonschema.NewObject()
	if c.Unrestricted() {
		return out
	}
	if lo, hi, ok := c.ints.Bounds(); ok && c.ints != nil {
		if lo != NegInf {
			out.Set("minimum", jsonschema.Int(lo))
		}
		if hi != PosInf {
			out.Set("maximum", jsonschema.Int(hi))
		}
	}
	if c.floats != nil && len(c.floats.ranges) > 0 {
		lo, hi := c.floats.ranges[0].Lo, c.floats.ranges[len(c.floats.ranges)-1].Hi
		if !math.IsInf(lo, 0) {
			out.Set("minimum", jsonschema.Float(lo))
		}
		if !math.IsInf(hi, 0) {
			out.Set("maximum", jsonschema.Float(hi))
		}
	}
	if lo, hi, ok := c.sizes.Bounds(); ok && c.sizes != nil {
		minKey, maxKey := "minLength", "maxLength"
		if c.Target == TargetList {
			minKey, maxKey = "minItems", "maxItems"
		}
		if lo > 0 {
			out.Set(minKey, jsonschema.Int(lo))
		}
		if hi != PosInf {
			out.Set(maxKey, jsonschema.Int(hi))
		}
	}
	if c.values != nil {
		items := make(jsonschema.Array, 0, len(c.values))
		for _, v := range c.values {
			items = append(items, valueNode(v))
		}
		out.Set("enum", items)
	}
	if len(c.patterns) == 1 {
		out.Set("pattern", jsonschema.String("^"+c.patterns[0]+"$"))
	} else if len(c.patterns) > 1 {
		all := make(jsonschema.Array, 0, len(c.patterns))
		for _, p := range c.patterns {
			all = append(all, jsonschema.NewObject().Set("pattern", jsonschema.String("^"+p+"$")))
		}
		out.Set("allOf", all)
	}
	return out
}

func valueNode(v Value) jsonschema.Node {
	switch v.Kind {
	case ValInt:
		return jsonschema.Int(v.Int)
	case ValFloat:
		switch {
		case math.IsNaN(v.Float):
			return jsonschema.String("not_a_number")
		case math.IsInf(v.Float, 1):
			return jsonschema.String("infinity")
		case math.IsInf(v.Float, -1):
			return jsonschema.String("-infinity")
		}
		return jsonschema.Float(v.Float)
	case ValBool:
		return jsonschema.Bool(v.Bool)
	case ValString, ValEnum:
		return jsonschema.String(v.Str)
	}
	return jsonschema.Null{}
}
