// Package schema builds a type graph from TOML schema files.
//
// Loading happens in two steps. Every file is first decoded and its named types are
// declared, so types may refer to each other across files and in any order. Finish
// then fills in fields, elements, targets and encoding attributes.
package schema

import (
	"errors"
	"fmt"
	"strings"

	"fortio.org/safecast"
	"github.com/BurntSushi/toml"

	"tycodec/internal/source"
	"tycodec/internal/tags"
	"tycodec/internal/types"
)

// LoadError is a problem in a schema file. Span points at the offending name when it
// could be located.
type LoadError struct {
	Path string
	Span source.Span
	Msg  string
	Err  error
}

func (e *LoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Path, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Msg)
}

func (e *LoadError) Unwrap() error { return e.Err }

var (
	// ErrUnknownType is wrapped by errors about names that resolve to no type.
	ErrUnknownType = errors.New("unknown type")
	// ErrDuplicate is wrapped by errors about names declared twice.
	ErrDuplicate = errors.New("duplicate declaration")
)

type pending struct {
	id     types.TypeID
	module string
	doc    *typeDoc
	file   source.FileID
	span   source.Span
}

// Loader accumulates schema files into one registry.
type Loader struct {
	fs      *source.FileSet
	reg     *types.Registry
	pending []pending
	modules map[string]struct{}
}

func NewLoader(fs *source.FileSet, reg *types.Registry) *Loader {
	return &Loader{fs: fs, reg: reg, modules: make(map[string]struct{})}
}

// Load reads every path into reg and resolves the result.
func Load(fs *source.FileSet, reg *types.Registry, paths ...string) error {
	l := NewLoader(fs, reg)
	for _, p := range paths {
		if err := l.LoadFile(p); err != nil {
			return err
		}
	}
	return l.Finish()
}

// LoadFile reads one schema file from disk and declares its types.
func (l *Loader) LoadFile(path string) error {
	id, err := l.fs.Load(path)
	if err != nil {
		return &LoadError{Path: path, Span: source.NoSpan, Msg: "cannot read schema", Err: err}
	}
	return l.Declare(id)
}

// LoadBytes declares the types of an in-memory schema file.
func (l *Loader) LoadBytes(name string, content []byte) error {
	return l.Declare(l.fs.AddVirtual(name, content))
}

func (l *Loader) fail(file source.FileID, sp source.Span, err error, format string, args ...any) error {
	path := ""
	if f := l.fs.Get(file); f != nil {
		path = f.Path
	}
	return &LoadError{Path: path, Span: sp, Msg: fmt.Sprintf(format, args...), Err: err}
}

// Declare decodes a file already in the file set and declares its named types.
func (l *Loader) Declare(file source.FileID) error {
	f := l.fs.Get(file)
	if f == nil {
		return &LoadError{Span: source.NoSpan, Msg: fmt.Sprintf("unknown file %d", file)}
	}
	var doc document
	if _, err := toml.Decode(string(f.Content), &doc); err != nil {
		return l.fail(file, l.parseErrorSpan(file, err), err, "invalid TOML")
	}
	for mi := range doc.Modules {
		m := &doc.Modules[mi]
		name := strings.TrimSpace(m.Name)
		modSpan, _ := l.fs.Find(file, quote(name), 0)
		if name == "" {
			return l.fail(file, modSpan, nil, "module without a name")
		}
		if _, dup := l.modules[name]; dup {
			return l.fail(file, modSpan, ErrDuplicate, "module %s", name)
		}
		l.modules[name] = struct{}{}
		if m.Tagging != "" {
			def, ok := parseTagDefault(m.Tagging)
			if !ok {
				return l.fail(file, modSpan, nil, "unknown tagging default %q", m.Tagging)
			}
			l.reg.SetModuleDefault(name, def)
		}
		for ti := range m.Types {
			td := &m.Types[ti]
			sp, _ := l.fs.Find(file, quote(td.Name), modSpan.End)
			if td.Name == "" {
				return l.fail(file, sp, nil, "type without a name in module %s", name)
			}
			if _, dup := l.reg.Named(name, td.Name); dup {
				return l.fail(file, sp, ErrDuplicate, "type %s.%s", name, td.Name)
			}
			c, ok := parseKind(td.Kind)
			if !ok {
				return l.fail(file, sp, nil, "type %s: unknown kind %q", td.Name, td.Kind)
			}
			id := l.reg.New(c, name, td.Name, sp)
			l.pending = append(l.pending, pending{id: id, module: name, doc: td, file: file, span: sp})
		}
	}
	return nil
}

// Finish fills in the bodies of every declared type.
func (l *Loader) Finish() error {
	for _, p := range l.pending {
		if err := l.fill(p.id, p); err != nil {
			return err
		}
	}
	l.pending = nil
	return nil
}

// parseErrorSpan turns the position of a TOML syntax error into a span.
func (l *Loader) parseErrorSpan(file source.FileID, err error) source.Span {
	var perr toml.ParseError
	if !errors.As(err, &perr) {
		return source.Span{File: file}
	}
	start, err1 := safecast.Conv[uint32](perr.Position.Start)
	n, err2 := safecast.Conv[uint32](perr.Position.Len)
	if err1 != nil || err2 != nil {
		return source.Span{File: file}
	}
	return source.Span{File: file, Start: start, End: start + n}
}

// ref resolves a type reference. Inline tables become anonymous types of module.
func (l *Loader) ref(r *typeRef, p pending, what string) (types.TypeID, error) {
	if r == nil {
		return types.NoTypeID, l.fail(p.file, p.span, nil, "%s: missing %s", p.doc.Name, what)
	}
	if r.Anon != nil {
		c, ok := parseKind(r.Anon.Kind)
		if !ok {
			return types.NoTypeID, l.fail(p.file, p.span, nil, "%s: %s has unknown kind %q", p.doc.Name, what, r.Anon.Kind)
		}
		id := l.reg.New(c, p.module, "", p.span)
		sub := pending{id: id, module: p.module, doc: r.Anon, file: p.file, span: p.span}
		if r.Anon.Name == "" {
			sub.doc.Name = p.doc.Name + "." + what
		}
		if err := l.fill(id, sub); err != nil {
			return types.NoTypeID, err
		}
		return id, nil
	}
	id, ok := l.lookup(p.module, strings.TrimSpace(r.Name))
	if !ok {
		sp, _ := l.fs.Find(p.file, quote(r.Name), p.span.Start)
		return types.NoTypeID, l.fail(p.file, sp, ErrUnknownType, "%s: %s %q", p.doc.Name, what, r.Name)
	}
	return id, nil
}

// lookup resolves "Module.Name", a name of module, or a built-in type name, in that order.
func (l *Loader) lookup(module, name string) (types.TypeID, bool) {
	if i := strings.LastIndexByte(name, '.'); i > 0 {
		if id, ok := l.reg.Named(name[:i], name[i+1:]); ok {
			return id, true
		}
	}
	if id, ok := l.reg.Named(module, name); ok {
		return id, true
	}
	if c, ok := parseKind(name); ok {
		return l.reg.Builtin(c)
	}
	return types.NoTypeID, false
}

func (l *Loader) fill(id types.TypeID, p pending) error {
	c := l.reg.Category(id)
	d := p.doc
	switch {
	case c.IsStructural():
		for _, f := range d.Fields {
			ft, err := l.ref(f.Type, p, "field "+f.Name)
			if err != nil {
				return err
			}
			sp, _ := l.fs.Find(p.file, quote(f.Name), p.span.Start)
			l.reg.AddField(id, types.FieldEntry{
				Name:     f.Name,
				Type:     ft,
				Optional: f.Optional,
				Default:  f.Default,
				Span:     sp,
			})
		}
	case c.IsListLike():
		elem, err := l.ref(d.Elem, p, "elem")
		if err != nil {
			return err
		}
		if c == types.CatArray {
			if d.Count <= 0 {
				return l.fail(p.file, p.span, nil, "%s: array needs a positive count", d.Name)
			}
			info := l.reg.MustListInfo(id)
			info.Lower, info.Count = d.Lower, d.Count
		}
		l.reg.SetElem(id, elem)
	case c == types.CatReference:
		target, err := l.ref(d.Target, p, "target")
		if err != nil {
			return err
		}
		l.reg.SetRefTarget(id, target)
	case c == types.CatSelection:
		target, err := l.ref(d.Target, p, "target")
		if err != nil {
			return err
		}
		if d.Alternative == "" {
			return l.fail(p.file, p.span, nil, "%s: selection without alternative", d.Name)
		}
		info := l.reg.MustRefInfo(id)
		info.Target, info.Alternative = target, d.Alternative
	case c == types.CatReferenceSpecial:
		declared, ok := parseKind(d.Declared)
		if !ok {
			return l.fail(p.file, p.span, nil, "%s: unknown declared kind %q", d.Name, d.Declared)
		}
		l.reg.MustRefInfo(id).Declared = declared
	case c.IsEnum():
		info := l.reg.MustEnumInfo(id)
		info.Extensible = d.Extensible
		for _, it := range d.Items {
			sp, _ := l.fs.Find(p.file, quote(it.Name), p.span.Start)
			item := types.EnumItem{Name: it.Name, Span: sp}
			if it.Value != nil {
				item.Value, item.HasValue = *it.Value, true
			}
			info.Items = append(info.Items, item)
		}
	case c == types.CatSignature:
		if err := l.fillSignature(id, p); err != nil {
			return err
		}
	}
	return l.attrs(id, c, p)
}

func (l *Loader) fillSignature(id types.TypeID, p pending) error {
	d := p.doc
	var info types.SignatureInfo
	info.NoBlock = d.NoBlock
	for _, pd := range d.Params {
		t, err := l.ref(pd.Type, p, "parameter "+pd.Name)
		if err != nil {
			return err
		}
		dir, ok := parseParamDir(pd.Dir)
		if !ok {
			return l.fail(p.file, p.span, nil, "%s: parameter %s has direction %q", d.Name, pd.Name, pd.Dir)
		}
		info.Params = append(info.Params, types.Param{Name: pd.Name, Type: t, Dir: dir})
	}
	if d.Return != nil {
		t, err := l.ref(d.Return, p, "return")
		if err != nil {
			return err
		}
		info.Return = t
	}
	for _, e := range d.Exceptions {
		t, err := l.ref(e, p, "exception")
		if err != nil {
			return err
		}
		info.Exceptions = append(info.Exceptions, t)
	}
	l.reg.SetSignature(id, info)
	return nil
}

func quote(s string) string {
	if s == "" {
		return ""
	}
	return `"` + s + `"`
}

var kindAliases = map[string]types.Category{
	"SEQUENCE OF": types.CatSequenceOf,
	"SET OF":      types.CatSetOf,
	"record":      types.CatSequenceT,
	"union":       types.CatChoiceT,
}

func parseKind(s string) (types.Category, bool) {
	s = strings.TrimSpace(s)
	if c, ok := kindAliases[s]; ok {
		return c, true
	}
	return types.ParseCategory(s)
}

func parseTagDefault(s string) (tags.ModuleDefault, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "explicit":
		return tags.DefaultExplicit, true
	case "implicit":
		return tags.DefaultImplicit, true
	case "automatic":
		return tags.DefaultAutomatic, true
	}
	return 0, false
}

func parseParamDir(s string) (types.ParamDir, bool) {
	switch s {
	case "", "in":
		return types.ParamIn, true
	case "out":
		return types.ParamOut, true
	case "inout":
		return types.ParamInOut, true
	}
	return 0, false
}
