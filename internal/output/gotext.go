package output

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"tycodec/internal/descriptor"
	"tycodec/internal/encattr"
	"tycodec/internal/jsonschema"
	"tycodec/internal/types"
)

// DefaultRuntime is the import path of the codec runtime used by generated code.
const DefaultRuntime = "tycodec/rt"

// GoText renders descriptors as Go source. Every type descriptor is declared up front
// as a pointer and filled in an init function, so recursive types need no ordering.
type GoText struct {
	Package string
	Runtime string
	// Split exports the generated declarations so other units can refer to them.
	Split bool
}

func NewGoText(pkg, runtime string, split bool) *GoText {
	if runtime == "" {
		runtime = DefaultRuntime
	}
	return &GoText{Package: pkg, Runtime: runtime, Split: split}
}

func (g *GoText) Ext() string { return ".go" }

func (g *GoText) ident(name, suffix string) string {
	s := name + "_" + suffix + "_"
	r, n := utf8.DecodeRuneInString(s)
	if g.Split {
		return string(unicode.ToUpper(r)) + s[n:]
	}
	return string(unicode.ToLower(r)) + s[n:]
}

func (g *GoText) funcName(prefix, name string) string {
	if !g.Split {
		return prefix + name
	}
	return title(prefix) + title(name)
}

// ref names the declaration of another descriptor. Built-in and unknown descriptors
// live in the runtime package and follow the same name_suffix_ scheme as ident.
func (g *GoText) ref(t *descriptor.Table, name, suffix string) string {
	if d, ok := t.Lookup(name); ok && !d.Builtin {
		return g.ident(name, suffix)
	}
	return "rt." + name + "_" + suffix + "_"
}

func formatSuffix(f types.Format) string {
	return strings.ToLower(f.String())
}

func (g *GoText) Descriptor(acc *Accumulator, d *descriptor.Descriptor) {
	if d.Builtin {
		return
	}
	descr := g.ident(d.Name, "descr")
	if d.Alias != "" {
		acc.Printf(BucketForward, "var %s = %s\n", descr, g.ref(acc.Table, d.Alias, "descr"))
		return
	}
	acc.Printf(BucketForward, "var %s = new(rt.TypeDescriptor)\n", descr)

	if d.Owns(types.FormatBER) {
		g.ber(acc, d)
	}
	if d.Owns(types.FormatRAW) {
		g.raw(acc, d)
	}
	if d.Owns(types.FormatTEXT) {
		g.text(acc, d)
	}
	if d.Owns(types.FormatXER) {
		g.xer(acc, d)
	}
	if d.Owns(types.FormatJSON) {
		g.json(acc, d)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "func init() {\n\t*%s = rt.TypeDescriptor{\n", descr)
	fmt.Fprintf(&b, "\t\tName:     %s,\n", strconv.Quote(d.Type))
	fmt.Fprintf(&b, "\t\tCategory: %s,\n", strconv.Quote(d.Category.String()))
	for _, f := range d.Formats() {
		fmt.Fprintf(&b, "\t\t%s: &%s,\n", f, g.ref(acc.Table, d.Owner(f), formatSuffix(f)))
	}
	if len(d.Fields) > 0 {
		b.WriteString("\t\tFields: []rt.Field{\n")
		for _, f := range d.Fields {
			fmt.Fprintf(&b, "\t\t\t{Name: %s, Descr: %s, Optional: %t},\n",
				strconv.Quote(f.Name), g.ref(acc.Table, f.Descr, "descr"), f.Optional)
		}
		b.WriteString("\t\t},\n")
		if !identity(d.Order) {
			fmt.Fprintf(&b, "\t\tOrder: %s,\n", intSlice(d.Order))
		}
	}
	if len(d.Items) > 0 {
		b.WriteString("\t\tItems: []rt.EnumItem{\n")
		for _, it := range d.Items {
			fmt.Fprintf(&b, "\t\t\t{Name: %s, Value: %d},\n", strconv.Quote(it.Name), it.Value)
		}
		b.WriteString("\t\t},\n")
	}
	if d.List != nil {
		fmt.Fprintf(&b, "\t\tList: &%s,\n", g.ident(d.Name, "list"))
	}
	if d.Constraint != "" {
		fmt.Fprintf(&b, "\t\tConstraint: %s,\n", strconv.Quote(d.Constraint))
	}
	b.WriteString("\t}\n}\n\n")
	acc.WriteString(BucketPrivate, b.String())
}

func (g *GoText) ListCodec(acc *Accumulator, d *descriptor.Descriptor) {
	l := d.List
	if l == nil || d.Alias != "" {
		return
	}
	list := g.ident(d.Name, "list")
	var b strings.Builder
	fmt.Fprintf(&b, "var %s = rt.ListCodec{\n", list)
	fmt.Fprintf(&b, "\tElem:   %s,\n", g.ref(acc.Table, l.Elem, "descr"))
	fmt.Fprintf(&b, "\tLayout: rt.Layout%s,\n", title(l.Layout.String()))
	if l.Set {
		b.WriteString("\tSet:    true,\n")
	}
	if l.Count > 0 {
		fmt.Fprintf(&b, "\tCount:  %d,\n", l.Count)
	}
	if len(l.Formats) > 0 {
		names := make([]string, 0, len(l.Formats))
		for _, f := range l.Formats {
			names = append(names, "rt.Format"+f.String())
		}
		fmt.Fprintf(&b, "\tFormats: []rt.Format{%s},\n", strings.Join(names, ", "))
	}
	b.WriteString("}\n\n")
	acc.WriteString(BucketGlobal, b.String())

	descr := g.ident(d.Name, "descr")
	enc, dec := g.funcName("encode", d.Name), g.funcName("decode", d.Name)
	acc.Printf(BucketPublic, "func %s(f rt.Format, v *rt.List) ([]byte, error) {\n", enc)
	acc.Printf(BucketPublic, "\treturn rt.EncodeList(&%s, %s, f, v)\n}\n\n", list, descr)
	acc.Printf(BucketPublic, "func %s(f rt.Format, data []byte) (*rt.List, error) {\n", dec)
	acc.Printf(BucketPublic, "\treturn rt.DecodeList(&%s, %s, f, data)\n}\n\n", list, descr)
}

func (g *GoText) File(acc *Accumulator) []byte {
	var b strings.Builder
	b.WriteString("// Code generated by tycodec. DO NOT EDIT.\n\n")
	fmt.Fprintf(&b, "package %s\n\n", g.Package)
	fmt.Fprintf(&b, "import rt %s\n\n", strconv.Quote(g.Runtime))
	if acc.Empty() && len(acc.Table.Namespaces) == 0 {
		b.WriteString("var _ rt.TypeDescriptor\n")
		return []byte(b.String())
	}
	if len(acc.Table.Namespaces) > 0 {
		fmt.Fprintf(&b, "var %s = []rt.Namespace{\n", g.ident("xml", "namespaces"))
		for _, ns := range acc.Table.Namespaces {
			fmt.Fprintf(&b, "\t{URI: %s, Prefix: %s},\n", strconv.Quote(ns.URI), strconv.Quote(ns.Prefix))
		}
		b.WriteString("}\n\n")
	}
	for _, bucket := range [...]Bucket{BucketForward, BucketGlobal, BucketPublic, BucketPrivate} {
		text := acc.Text(bucket)
		if text == "" {
			continue
		}
		b.WriteString(text)
		if !strings.HasSuffix(text, "\n\n") {
			b.WriteString("\n")
		}
	}
	return []byte(strings.TrimRight(b.String(), "\n") + "\n")
}

// Format parts ---------------------------------------------------------------

// literal collects "Key: value" lines of one composite literal.
type literal struct {
	lines []string
}

func (l *literal) add(key, format string, args ...any) {
	l.lines = append(l.lines, key+": "+fmt.Sprintf(format, args...))
}

func (l *literal) render(acc *Accumulator, name, typ string) {
	if len(l.lines) == 0 {
		acc.Printf(BucketGlobal, "var %s = %s{}\n\n", name, typ)
		return
	}
	acc.Printf(BucketGlobal, "var %s = %s{\n", name, typ)
	for _, line := range l.lines {
		acc.Printf(BucketGlobal, "\t%s,\n", line)
	}
	acc.WriteString(BucketGlobal, "}\n\n")
}

func (g *GoText) ber(acc *Accumulator, d *descriptor.Descriptor) {
	var l literal
	parts := make([]string, 0, len(d.BER.Tags))
	for _, v := range d.BER.Tags {
		parts = append(parts, fmt.Sprintf("{rt.%s, %d}", v.Class, v.Number))
	}
	l.add("N", "%d", len(d.BER.Tags))
	l.add("Tags", "[]rt.Tag{%s}", strings.Join(parts, ", "))
	l.render(acc, g.ident(d.Name, "ber"), "rt.BER")
}

func (g *GoText) raw(acc *Accumulator, d *descriptor.Descriptor) {
	r := d.RAW
	var l literal
	if r.IntX {
		l.add("IntX", "true")
	} else {
		l.add("FieldLength", "%d", r.FieldLength)
	}
	if r.Sign != encattr.SignDefault {
		l.add("Sign", "rt.%s", r.Sign)
	}
	orders := []struct {
		key string
		o   encattr.Order
	}{
		{"ByteOrder", r.ByteOrder},
		{"Align", r.Align},
		{"BitOrderInField", r.BitOrderInField},
		{"BitOrderInOctet", r.BitOrderInOctet},
		{"HexOrder", r.HexOrder},
		{"FieldOrder", r.FieldOrder},
		{"TopLevelBitOrder", r.TopLevelBitOrder},
	}
	for _, o := range orders {
		if o.o != encattr.OrderDefault {
			l.add(o.key, "rt.%s", o.o)
		}
	}
	if s := extName(r.ExtBit); s != "" {
		l.add("ExtBit", "rt.%s", s)
	}
	ints := []struct {
		key string
		v   int
	}{
		{"Padding", r.Padding},
		{"Prepadding", r.Prepadding},
		{"PtrOffset", r.PtrOffset},
		{"Unit", r.Unit},
		{"LengthRestriction", r.LengthRestriction},
	}
	for _, it := range ints {
		if it.v != 0 {
			l.add(it.key, "%d", it.v)
		}
	}
	if r.PaddingPattern != "" {
		l.add("PaddingPattern", "%s", strconv.Quote(r.PaddingPattern))
	}
	if r.Repeatable {
		l.add("Repeatable", "true")
	}
	if r.StringFormat != encattr.StringFormatUnknown {
		l.add("StringFormat", "rt.%s", r.StringFormat)
	}
	if len(r.LengthTo) > 0 {
		l.add("LengthTo", "%s", intSlice(r.LengthTo))
	}
	if len(r.LengthIndex) > 0 {
		l.add("LengthIndex", "%s", intSlice(r.LengthIndex))
	}
	if r.PointerTo >= 0 {
		l.add("PointerTo", "%d", r.PointerTo)
	}
	if r.PtrBase >= 0 {
		l.add("PtrBase", "%d", r.PtrBase)
	}
	if len(r.Presence) > 0 {
		l.add("Presence", "%s", keyRefs(r.Presence))
	}
	if len(r.TagList) > 0 {
		l.add("TagList", "%s", tagEntries(r.TagList))
	}
	if len(r.CrossTagList) > 0 {
		l.add("CrossTagList", "%s", tagEntries(r.CrossTagList))
	}
	if len(r.ExtBitGroups) > 0 {
		parts := make([]string, 0, len(r.ExtBitGroups))
		for _, eg := range r.ExtBitGroups {
			parts = append(parts, fmt.Sprintf("{rt.%s, %d, %d}", extName(eg.Ext), eg.From, eg.To))
		}
		l.add("ExtBitGroups", "[]rt.ExtGroup{%s}", strings.Join(parts, ", "))
	}
	l.render(acc, g.ident(d.Name, "raw"), "rt.RAW")
}

func extName(s encattr.Setting) string {
	switch s {
	case encattr.No:
		return "EXT_BIT_NO"
	case encattr.Yes:
		return "EXT_BIT_YES"
	case encattr.Reverse:
		return "EXT_BIT_REVERSE"
	}
	return ""
}

func keyRefs(keys []descriptor.KeyRef) string {
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("{Path: %s, Value: %s}", intSlice(k.Path), strconv.Quote(k.Value)))
	}
	return "[]rt.KeyRef{" + strings.Join(parts, ", ") + "}"
}

func tagEntries(entries []descriptor.TagEntry) string {
	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		parts = append(parts, fmt.Sprintf("{Field: %d, Keys: %s}", e.Field, keyRefs(e.Keys)))
	}
	return "[]rt.TagEntry{" + strings.Join(parts, ", ") + "}"
}

func (g *GoText) text(acc *Accumulator, d *descriptor.Descriptor) {
	t := d.TEXT
	var l literal
	tok := func(key string, tk *descriptor.Token) {
		if tk != nil {
			l.add(key, "&%s", token(*tk))
		}
	}
	tok("Begin", t.Begin)
	tok("End", t.End)
	tok("Separator", t.Separator)
	if t.Coding != (encattr.TextParams{}) {
		l.add("Coding", "%s", textParams(t.Coding))
	}
	if t.Decoding != (encattr.TextParams{}) {
		l.add("Decoding", "%s", textParams(t.Decoding))
	}
	if len(t.Items) > 0 {
		parts := make([]string, 0, len(t.Items))
		for _, it := range t.Items {
			parts = append(parts, fmt.Sprintf("{Name: %s, Value: %d, Token: %s}",
				strconv.Quote(it.Name), it.Value, token(it.Token)))
		}
		l.add("Items", "[]rt.ItemToken{%s}", strings.Join(parts, ", "))
	}
	tok("True", t.True)
	tok("False", t.False)
	if t.DecodeToken != "" {
		l.add("DecodeToken", "%s", strconv.Quote(t.DecodeToken))
	}
	l.render(acc, g.ident(d.Name, "text"), "rt.TEXT")
}

func token(t descriptor.Token) string {
	return fmt.Sprintf("rt.Token{Encode: %s, Decode: %s, CaseSensitive: %t}",
		strconv.Quote(t.Encode), strconv.Quote(t.Decode), t.CaseSensitive)
}

func textParams(p encattr.TextParams) string {
	var parts []string
	if p.LeadingZero {
		parts = append(parts, "LeadingZero: true")
	}
	if p.Repeatable {
		parts = append(parts, "Repeatable: true")
	}
	if p.MinLength != 0 {
		parts = append(parts, fmt.Sprintf("MinLength: %d", p.MinLength))
	}
	if p.MaxLength != 0 {
		parts = append(parts, fmt.Sprintf("MaxLength: %d", p.MaxLength))
	}
	switch p.Convert {
	case encattr.ConvertLower:
		parts = append(parts, "Convert: rt.CONVERT_LOWER")
	case encattr.ConvertUpper:
		parts = append(parts, "Convert: rt.CONVERT_UPPER")
	}
	switch p.Just {
	case encattr.JustifyLeft:
		parts = append(parts, "Just: rt.JUST_LEFT")
	case encattr.JustifyRight:
		parts = append(parts, "Just: rt.JUST_RIGHT")
	case encattr.JustifyCenter:
		parts = append(parts, "Just: rt.JUST_CENTER")
	}
	return "rt.TextParams{" + strings.Join(parts, ", ") + "}"
}

func (g *GoText) xer(acc *Accumulator, d *descriptor.Descriptor) {
	x := d.XER
	var l literal
	l.add("Name", "%s", strconv.Quote(x.Name))
	l.add("Namespace", "%d", x.Namespace)
	if x.Flags != 0 {
		names := x.Flags.Names()
		for i := range names {
			names[i] = "rt." + names[i]
		}
		l.add("Flags", "%s", strings.Join(names, " | "))
	}
	if x.Whitespace != encattr.WhitespacePreserve {
		l.add("Whitespace", "rt.%s", x.Whitespace)
	}
	if x.HasDefault {
		l.add("DefaultForEmpty", "%s", strconv.Quote(x.DefaultForEmpty))
	}
	if len(x.NamespaceURIs) > 0 {
		quoted := make([]string, len(x.NamespaceURIs))
		for i, u := range x.NamespaceURIs {
			quoted[i] = strconv.Quote(u)
		}
		l.add("NamespaceURIs", "[]string{%s}", strings.Join(quoted, ", "))
	}
	l.add("FractionDigits", "%d", x.FractionDigits)
	if x.Elem != "" {
		l.add("Elem", "%s", g.ref(acc.Table, x.Elem, "descr"))
	}
	l.render(acc, g.ident(d.Name, "xer"), "rt.XER")
}

func (g *GoText) json(acc *Accumulator, d *descriptor.Descriptor) {
	j := d.JSON
	var l literal
	if j.OmitAsNull {
		l.add("OmitAsNull", "true")
	}
	if j.Alias != "" {
		l.add("Alias", "%s", strconv.Quote(j.Alias))
	}
	if j.AsValue {
		l.add("AsValue", "true")
	}
	if j.Default != "" {
		l.add("Default", "%s", strconv.Quote(j.Default))
	}
	if j.MetainfoUnbound {
		l.add("MetainfoUnbound", "true")
	}
	if len(j.Extensions) > 0 {
		parts := make([]string, 0, len(j.Extensions))
		for _, e := range j.Extensions {
			parts = append(parts, fmt.Sprintf("{%s, %s}", strconv.Quote(e.Key), strconv.Quote(e.Value)))
		}
		l.add("Extensions", "[]rt.Extension{%s}", strings.Join(parts, ", "))
	}
	if j.Schema != nil {
		l.add("Schema", "%s", strconv.Quote(jsonschema.Compact(j.Schema)))
	}
	l.render(acc, g.ident(d.Name, "json"), "rt.JSON")
}

func intSlice(xs []int) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = strconv.Itoa(x)
	}
	return "[]int{" + strings.Join(parts, ", ") + "}"
}

func identity(order []int) bool {
	for i, x := range order {
		if i != x {
			return false
		}
	}
	return true
}

func title(s string) string {
	r, n := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[n:]
}
