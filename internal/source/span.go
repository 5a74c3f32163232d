package source

import (
	"fmt"
)

// Span is a byte range inside one schema file.
type Span struct {
	File  FileID
	Start uint32 // в байтах включительно
	End   uint32 // в байтах не включительно
}

// NoSpan is used for nodes synthesized by the compiler itself (builtins, error placeholders).
var NoSpan = Span{File: NoFileID}

func (s Span) Empty() bool {
	return s.Start == s.End
}

// Known reports whether the span points into a real file.
func (s Span) Known() bool {
	return s.File != NoFileID
}

func (s Span) Len() uint32 {
	return s.End - s.Start
}

func (s Span) String() string {
	if !s.Known() {
		return "<builtin>"
	}
	return fmt.Sprintf("%d:%d-%d", s.File, s.Start, s.End)
}

// Cover returns the smallest span containing both s and other.
// Spans from different files are not merged.
func (s Span) Cover(other Span) Span {
	if s.File != other.File {
		return s
	}
	if other.Start < s.Start {
		s.Start = other.Start
	}
	if other.End > s.End {
		s.End = other.End
	}
	return s
}
