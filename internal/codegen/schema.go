package codegen

import (
	"encoding/json"
	"slices"
	"strings"

	"tycodec/internal/jsonschema"
	"tycodec/internal/sema"
	"tycodec/internal/seqof"
	"tycodec/internal/types"
)

const definitionsPrefix = "#/definitions/"

type schemaBuilder struct {
	reg      *types.Registry
	res      *sema.Result
	metainfo bool
}

// Schema assembles the JSON schema document of module:
// {"definitions": {module: {type: schema, ...}}}.
func Schema(res *sema.Result, module string, metainfoUnbound bool) *jsonschema.Object {
	s := &schemaBuilder{reg: res.Registry(), res: res, metainfo: metainfoUnbound}
	return s.document(module)
}

// Schema is the module schema for the types this generator sees.
func (g *Generator) Schema(module string) *jsonschema.Object {
	return g.document(module)
}

func (s *schemaBuilder) document(module string) *jsonschema.Object {
	defs := jsonschema.NewObject()
	for _, id := range s.reg.Definitions(module) {
		if s.res.IsErroneous(id) || !supports(s.valueCategory(id), types.FormatJSON) {
			continue
		}
		defs.Set(s.reg.MustLookup(id).Name, s.schemaOf(id))
	}
	return jsonschema.NewObject().Set("definitions", jsonschema.NewObject().Set(module, defs))
}

// valueCategory is the category values of id have; unfoldable references use their
// declared category.
func (s *schemaBuilder) valueCategory(id types.TypeID) types.Category {
	res := s.reg.Resolved(id)
	c := s.reg.Category(res)
	if c.IsReference() {
		if info, ok := s.reg.RefInfo(res); ok && info.Declared != types.CatInvalid {
			return info.Declared
		}
	}
	return c
}

func (s *schemaBuilder) ref(id types.TypeID) *jsonschema.Object {
	t := s.reg.MustLookup(id)
	return jsonschema.NewObject().Set("$ref", jsonschema.String(definitionsPrefix+t.Module+"/"+t.Name))
}

// use is the schema at a use site: type definitions are referenced, everything else
// is inlined.
func (s *schemaBuilder) use(id types.TypeID) *jsonschema.Object {
	if s.reg.IsBuiltin(id) {
		return s.body(id)
	}
	if s.reg.MustLookup(id).Owner == types.OwnerTypeDef {
		return s.ref(id)
	}
	return s.schemaOf(id)
}

// schemaOf is the schema of the node itself.
func (s *schemaBuilder) schemaOf(id types.TypeID) *jsonschema.Object {
	t := s.reg.MustLookup(id)
	var out *jsonschema.Object
	if t.Category.IsReference() {
		chain, err := s.reg.ReferenceChain(id)
		if err != nil || len(chain) < 2 {
			out = jsonschema.NewObject()
		} else {
			out = s.use(chain[1])
		}
		if len(s.reg.Attrs(id).Restrictions) > 0 {
			if c := s.res.Effective(id); c != nil {
				frag := c.SchemaFragment()
				if _, isRef := out.Get("$ref"); isRef && frag.Len() > 0 {
					out = jsonschema.NewObject().Set("allOf", jsonschema.Array{out, frag})
				} else {
					out.Merge(frag)
				}
			}
		}
	} else {
		out = s.body(id)
		if c := s.res.Effective(id); c != nil {
			out.Merge(c.SchemaFragment())
		}
	}
	if a := s.reg.Attrs(id).JSON; a != nil {
		for _, e := range a.Extensions {
			out.Set(e.Key, jsonschema.String(e.Value))
		}
	}
	return out
}

func typed(name string) *jsonschema.Object {
	return jsonschema.NewObject().Set("type", jsonschema.String(name))
}

func stringSchema(subType, pattern string) *jsonschema.Object {
	o := typed("string").Set("subType", jsonschema.String(subType))
	if pattern != "" {
		o.Set("pattern", jsonschema.String(pattern))
	}
	return o
}

// body is the schema of a non-reference node by category.
func (s *schemaBuilder) body(id types.TypeID) *jsonschema.Object {
	switch c := s.reg.Category(id); {
	case c.IsInteger():
		return typed("integer")
	case c == types.CatReal:
		return jsonschema.NewObject().Set("anyOf", jsonschema.Array{
			typed("number"),
			jsonschema.NewObject().Set("enum", jsonschema.Strings("not_a_number", "infinity", "-infinity")),
		})
	case c == types.CatBool:
		return typed("boolean")
	case c == types.CatNull:
		return typed("null")
	case c.IsBitString():
		return stringSchema("bitstring", "^[01]*$")
	case c == types.CatHexString:
		return stringSchema("hexstring", "^[0-9A-Fa-f]*$")
	case c == types.CatOctetString, c == types.CatAny:
		return stringSchema("octetstring", "^([0-9A-Fa-f][0-9A-Fa-f])*$")
	case c == types.CatCharString:
		return stringSchema("charstring", "")
	case c.StringGroup() != types.NotString:
		return stringSchema("universal charstring", "")
	case c == types.CatOID, c == types.CatROID:
		return stringSchema("objid", "^[0-2][.][1-3]?[0-9]([.][0-9]|([1-9][0-9]+))*$")
	case c == types.CatVerdict:
		return jsonschema.NewObject().Set("enum", jsonschema.Strings("none", "pass", "inconc", "fail", "error"))
	case c.IsEnum():
		info := s.reg.MustEnumInfo(id)
		names := make([]string, 0, len(info.Items))
		values := make(jsonschema.Array, 0, len(info.Items))
		for _, it := range info.Items {
			names = append(names, it.Name)
			values = append(values, jsonschema.Int(it.Value))
		}
		return jsonschema.NewObject().Set("enum", jsonschema.Strings(names...)).Set("numericValues", values)
	case c.IsRecordLike():
		return s.record(id, c)
	case c.IsUnionLike():
		return s.union(id)
	case c.IsListLike():
		return s.list(id, c)
	}
	return jsonschema.NewObject()
}

func (s *schemaBuilder) fieldAttrs(f types.FieldEntry) (alias string, omitAsNull bool, def string) {
	if a := s.reg.Attrs(f.Type).JSON; a != nil {
		return a.Alias, a.OmitAsNull, a.Default
	}
	return "", false, ""
}

func (s *schemaBuilder) record(id types.TypeID, c types.Category) *jsonschema.Object {
	fields := s.reg.MustRecordInfo(id).Fields.Entries()
	if a := s.reg.Attrs(id).JSON; a != nil && a.AsValue && len(fields) == 1 {
		return s.use(fields[0].Type)
	}
	subType := "record"
	if c.IsSet() {
		subType = "set"
	}
	props := jsonschema.NewObject()
	var required, order []string
	for _, f := range fields {
		alias, omitAsNull, def := s.fieldAttrs(f)
		key := f.Name
		if alias != "" {
			key = alias
		}
		fs := s.use(f.Type)
		if f.Optional {
			fs = jsonschema.NewObject().
				Set("anyOf", jsonschema.Array{typed("null"), fs}).
				Set("omitAsNull", jsonschema.Bool(omitAsNull))
		} else {
			required = append(required, key)
		}
		if def != "" {
			fs.Set("default", nodeOf(def))
		}
		if alias != "" {
			fs.Set("originalName", jsonschema.String(f.Name))
		}
		props.Set(key, fs)
		order = append(order, key)
	}
	o := typed("object").
		Set("subType", jsonschema.String(subType)).
		Set("properties", props).
		Set("additionalProperties", jsonschema.Bool(false))
	if len(required) > 0 {
		o.Set("required", jsonschema.Strings(required...))
	}
	if !c.IsSet() && len(order) > 1 {
		o.Set("fieldOrder", jsonschema.Strings(order...))
	}
	return o
}

func (s *schemaBuilder) union(id types.TypeID) *jsonschema.Object {
	asValue := false
	if a := s.reg.Attrs(id).JSON; a != nil {
		asValue = a.AsValue
	}
	alts := jsonschema.Array{}
	for _, f := range s.reg.MustRecordInfo(id).Fields.Entries() {
		alias, _, _ := s.fieldAttrs(f)
		fs := s.use(f.Type)
		if asValue {
			fs.Set("originalName", jsonschema.String(f.Name))
			if alias != "" {
				fs.Set("unusedAlias", jsonschema.String(alias))
			}
			alts = append(alts, fs)
			continue
		}
		key := f.Name
		if alias != "" {
			key = alias
			fs.Set("originalName", jsonschema.String(f.Name))
		}
		alts = append(alts, typed("object").
			Set("properties", jsonschema.NewObject().Set(key, fs)).
			Set("additionalProperties", jsonschema.Bool(false)).
			Set("required", jsonschema.Strings(key)))
	}
	return jsonschema.NewObject().Set("anyOf", alts)
}

func (s *schemaBuilder) list(id types.TypeID, c types.Category) *jsonschema.Object {
	info := s.reg.MustListInfo(id)
	o := typed("array")
	switch c {
	case types.CatSequenceOf:
		o.Set("subType", jsonschema.String("record of"))
	case types.CatSetOf:
		o.Set("subType", jsonschema.String("set of"))
	}
	items := s.use(info.Elem)
	metainfo := s.metainfo
	if a := s.reg.Attrs(id).JSON; a != nil && a.MetainfoUnbound {
		metainfo = true
	}
	if metainfo {
		unbound := typed("object").
			Set("properties", jsonschema.NewObject().Set(seqof.MetainfoKey,
				typed("string").Set("enum", jsonschema.Strings("unbound")))).
			Set("additionalProperties", jsonschema.Bool(false)).
			Set("required", jsonschema.Strings(seqof.MetainfoKey))
		items = jsonschema.NewObject().Set("anyOf", jsonschema.Array{items, unbound})
	}
	o.Set("items", items)
	if c == types.CatArray {
		o.Set("minItems", jsonschema.Int(info.Count))
		o.Set("maxItems", jsonschema.Int(info.Count))
	}
	return o
}

// nodeOf turns JSON text into a schema node; text that does not parse is kept as a
// string.
func nodeOf(text string) jsonschema.Node {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return jsonschema.String(text)
	}
	return toNode(v)
}

func toNode(v any) jsonschema.Node {
	switch x := v.(type) {
	case bool:
		return jsonschema.Bool(x)
	case json.Number:
		return jsonschema.Number(x.String())
	case string:
		return jsonschema.String(x)
	case []any:
		out := make(jsonschema.Array, 0, len(x))
		for _, e := range x {
			out = append(out, toNode(e))
		}
		return out
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		o := jsonschema.NewObject()
		for _, k := range keys {
			o.Set(k, toNode(x[k]))
		}
		return o
	}
	return jsonschema.Null{}
}
