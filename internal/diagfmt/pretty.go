package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"lift/internal/diag"
	"lift/internal/source"
)

type palette struct {
	sev   map[diag.Severity]*color.Color
	code  *color.Color
	caret *color.Color
	gut   *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		sev: map[diag.Severity]*color.Color{
			diag.SevError:   color.New(color.FgRed, color.Bold),
			diag.SevWarning: color.New(color.FgYellow, color.Bold),
			diag.SevInfo:    color.New(color.FgCyan),
		},
		code:  color.New(color.Faint),
		caret: color.New(color.FgGreen, color.Bold),
		gut:   color.New(color.FgBlue),
	}
	for _, c := range []*color.Color{p.code, p.caret, p.gut, p.sev[diag.SevError], p.sev[diag.SevWarning], p.sev[diag.SevInfo]} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// Pretty renders diagnostics for humans, in bag order (call bag.Sort first):
//
//	<path>:<line>:<col>: <SEV> <CODE>: <Message>
//	   12 | source line
//	      |     ^~~~
//
// Notes follow with the same layout when opts.ShowNotes is set.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	pal := newPalette(opts.Color)
	for _, d := range bag.Items() {
		path, start, _ := locate(fs, d.Primary, opts.PathMode)
		fmt.Fprintf(w, "%s:%d:%d: %s %s: %s\n",
			path, start.Line, start.Col,
			pal.sev[d.Severity].Sprint(d.Severity.String()),
			pal.code.Sprint(d.Code.ID()),
			d.Message)
		writeExcerpt(w, fs, d.Primary, pal)
		if !opts.ShowNotes {
			continue
		}
		for _, n := range d.Notes {
			npath, nstart, _ := locate(fs, n.Span, opts.PathMode)
			fmt.Fprintf(w, "  note: %s:%d:%d: %s\n", npath, nstart.Line, nstart.Col, n.Msg)
			writeExcerpt(w, fs, n.Span, pal)
		}
	}
}

func locate(fs *source.FileSet, sp source.Span, mode PathMode) (string, source.LineCol, source.LineCol) {
	f := fs.Get(sp.File)
	if f == nil {
		return "<unknown>", source.LineCol{}, source.LineCol{}
	}
	start, end := fs.Resolve(sp)
	return f.FormatPath(mode.flag(), fs.BaseDir()), start, end
}

func writeExcerpt(w io.Writer, fs *source.FileSet, sp source.Span, pal palette) {
	f := fs.Get(sp.File)
	if f == nil {
		return
	}
	start, end := fs.Resolve(sp)
	line := f.GetLine(start.Line)
	if line == "" {
		return
	}
	gutter := fmt.Sprintf("%5d | ", start.Line)
	fmt.Fprintf(w, "%s%s\n", pal.gut.Sprint(gutter), line)

	col := int(start.Col) - 1
	col = max(0, min(col, len(line)))
	stop := len(line)
	if end.Line == start.Line {
		stop = max(col, min(int(end.Col)-1, len(line)))
	}
	pad := runewidth.StringWidth(strings.Map(tabToSpace, line[:col]))
	width := max(1, runewidth.StringWidth(line[col:stop]))
	marker := "^" + strings.Repeat("~", width-1)
	fmt.Fprintf(w, "%s%s%s\n", pal.gut.Sprint(strings.Repeat(" ", 6)+"| "), strings.Repeat(" ", pad), pal.caret.Sprint(marker))
}

func tabToSpace(r rune) rune {
	if r == '\t' {
		return ' '
	}
	return r
}
