package diagfmt

import (
	"fmt"
	"strings"

	"fortio.org/safecast"
	"github.com/mattn/go-runewidth"

	"tycodec/internal/source"
)

const builtinPath = "<builtin>"

// formatPath renders the path of the file span points into.
func formatPath(fs *source.FileSet, span source.Span, mode PathMode) string {
	if fs == nil || !span.Known() {
		return builtinPath
	}
	f := fs.Get(span.File)
	if f == nil {
		return builtinPath
	}
	switch mode {
	case PathModeRelative:
		return f.FormatPath("relative", fs.BaseDir())
	case PathModeAbsolute, PathModeBasename, PathModeAuto:
		return f.FormatPath(mode.String(), "")
	}
	return f.Path
}

// snippetLine is one numbered source line of a diagnostic excerpt.
type snippetLine struct {
	num  uint32
	text string
}

// snippet is the excerpt printed under a diagnostic: the context lines, the primary line
// and the columns of the underline on it.
type snippet struct {
	lines    []snippetLine
	padding  int // ширина колонки номеров строк
	caretCol int
	caretLen int
}

func buildSnippet(fs *source.FileSet, span source.Span, context int8) (snippet, error) {
	if fs == nil || !span.Known() {
		return snippet{}, fmt.Errorf("span %s has no source", span)
	}
	f := fs.Get(span.File)
	if f == nil {
		return snippet{}, fmt.Errorf("file %d not found in FileSet", span.File)
	}
	start, end := fs.Resolve(span)
	if start.Line == 0 {
		return snippet{}, fmt.Errorf("span %s out of range", span)
	}

	ctx, err := safecast.Conv[uint32](max(context, 0))
	if err != nil {
		return snippet{}, fmt.Errorf("context overflow: %w", err)
	}
	first := uint32(1)
	if start.Line > ctx {
		first = start.Line - ctx
	}
	var sn snippet
	for n := first; n <= start.Line; n++ {
		sn.lines = append(sn.lines, snippetLine{num: n, text: expandTabs(f.GetLine(n))})
	}
	sn.padding = len(fmt.Sprint(start.Line))

	raw := f.GetLine(start.Line)
	col := min(int(start.Col)-1, len(raw))
	col = max(col, 0)
	sn.caretCol = runewidth.StringWidth(expandTabs(raw[:col]))
	width := 1
	if end.Line == start.Line && end.Col > start.Col {
		stop := min(int(end.Col)-1, len(raw))
		width = max(runewidth.StringWidth(expandTabs(raw[col:stop])), 1)
	} else if end.Line > start.Line {
		width = max(runewidth.StringWidth(expandTabs(raw[col:])), 1)
	}
	sn.caretLen = width
	return sn, nil
}

func expandTabs(s string) string {
	return strings.ReplaceAll(s, "\t", "    ")
}
