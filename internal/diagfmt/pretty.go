package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"tycodec/internal/diag"
	"tycodec/internal/source"
)

type palette struct {
	err, warn, info, code, gutter, caret, note *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		err:    color.New(color.FgRed, color.Bold),
		warn:   color.New(color.FgYellow, color.Bold),
		info:   color.New(color.FgCyan, color.Bold),
		code:   color.New(color.Bold),
		gutter: color.New(color.FgBlue),
		caret:  color.New(color.FgGreen, color.Bold),
		note:   color.New(color.FgCyan),
	}
	for _, c := range []*color.Color{p.err, p.warn, p.info, p.code, p.gutter, p.caret, p.note} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) severity(sev diag.Severity) *color.Color {
	switch sev {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	default:
		return p.info
	}
}

// Pretty форматирует диагностики в человекочитаемый вид.
// Идёт по bag.Items() (ожидается bag.Sort() заранее).
// Для каждого diag печатает:
// <path>:<line>:<col>: <SEV> <CODE>: <Message>
// затем контекст строки с подчёркиванием ^~~~ по Span, затем Notes.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	p := newPalette(opts.Color)
	for _, d := range bag.Items() {
		fmt.Fprintf(w, "%s: %s %s: %s\n",
			location(fs, d.Primary, opts.PathMode),
			p.severity(d.Severity).Sprint(d.Severity.String()),
			p.code.Sprint(d.Code.ID()),
			clip(d.Message, opts.Width))

		if sn, err := buildSnippet(fs, d.Primary, opts.Context); err == nil {
			writeSnippet(w, sn, p, opts.Width)
		}
		if opts.ShowNotes || d.Code == diag.ObsTimings {
			for _, n := range d.Notes {
				if n.Span.Known() {
					fmt.Fprintf(w, "  %s %s: %s\n", p.note.Sprint("note:"), location(fs, n.Span, opts.PathMode), n.Msg)
				} else {
					fmt.Fprintf(w, "  %s %s\n", p.note.Sprint("note:"), n.Msg)
				}
			}
		}
	}
}

func location(fs *source.FileSet, span source.Span, mode PathMode) string {
	path := formatPath(fs, span, mode)
	if path == builtinPath {
		return path
	}
	start, _ := fs.Resolve(span)
	return fmt.Sprintf("%s:%d:%d", path, start.Line, start.Col)
}

func writeSnippet(w io.Writer, sn snippet, p palette, width uint8) {
	for _, line := range sn.lines {
		num := fmt.Sprintf("%*d |", sn.padding, line.num)
		fmt.Fprintf(w, "  %s %s\n", p.gutter.Sprint(num), clip(line.text, width))
	}
	gutter := strings.Repeat(" ", sn.padding) + " |"
	caret := "^" + strings.Repeat("~", sn.caretLen-1)
	fmt.Fprintf(w, "  %s %s%s\n", p.gutter.Sprint(gutter), strings.Repeat(" ", sn.caretCol), p.caret.Sprint(caret))
}

func clip(s string, width uint8) string {
	if width == 0 || runewidth.StringWidth(s) <= int(width) {
		return s
	}
	return runewidth.Truncate(s, int(width), "...")
}
