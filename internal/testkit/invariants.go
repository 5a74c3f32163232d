// Package testkit holds checks shared by tests and fuzz harnesses.
package testkit

import (
	"fmt"

	"fortio.org/safecast"

	"tycodec/internal/source"
	"tycodec/internal/types"
)

// CheckGraphInvariants runs a minimal set of invariants on a loaded type graph:
// 1) every named type has a span inside its file; a non-empty span holds the quoted name
// 2) list-like types have an element type
// 3) fields of record-like and union-like types have a type and a name
func CheckGraphInvariants(reg *types.Registry, fs *source.FileSet) error {
	if reg == nil || fs == nil {
		return fmt.Errorf("nil registry or file set")
	}
	for _, mod := range reg.Modules() {
		for _, id := range reg.Definitions(mod) {
			t := reg.MustLookup(id)
			if err := checkSpan(fs, t); err != nil {
				return fmt.Errorf("%s.%s: %w", mod, t.Name, err)
			}
			if err := checkBody(reg, id, t); err != nil {
				return fmt.Errorf("%s.%s: %w", mod, t.Name, err)
			}
		}
	}
	return nil
}

func checkSpan(fs *source.FileSet, t types.Type) error {
	if !t.Span.Known() {
		// имя не найдено в файле: допустимо только для синтезированных типов
		return nil
	}
	f := fs.Get(t.Span.File)
	if f == nil {
		return fmt.Errorf("span points to unknown file %d", t.Span.File)
	}
	lenContent, err := safecast.Conv[uint32](len(f.Content))
	if err != nil {
		return fmt.Errorf("len content overflow: %w", err)
	}
	if t.Span.End < t.Span.Start || t.Span.End > lenContent {
		return fmt.Errorf("span %v outside content of %d bytes", t.Span, lenContent)
	}
	if t.Span.Empty() {
		return nil
	}
	text := string(f.Content[t.Span.Start:t.Span.End])
	if text != `"`+t.Name+`"` {
		return fmt.Errorf("span text %q does not name the type", text)
	}
	return nil
}

func checkBody(reg *types.Registry, id types.TypeID, t types.Type) error {
	switch {
	case t.Category.IsListLike():
		if reg.ElementType(id) == types.NoTypeID {
			return fmt.Errorf("list without element type")
		}
	case t.Category.IsStructural():
		info, ok := reg.RecordInfo(id)
		if !ok {
			return fmt.Errorf("structural type without field table")
		}
		for i, f := range info.Fields.Entries() {
			if f.Name == "" {
				return fmt.Errorf("field %d without a name", i)
			}
			if f.Type == types.NoTypeID {
				return fmt.Errorf("field %s without a type", f.Name)
			}
		}
	}
	return nil
}
