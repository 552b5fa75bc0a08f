package diag

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"lift/internal/source"
)

// shortLine is one rendered diagnostic or note.
type shortLine struct {
	sev  string
	code string
	path string
	pos  source.LineCol
	msg  string
}

func (l shortLine) String() string {
	return fmt.Sprintf("%s %s %s:%d:%d %s", l.sev, l.code, l.path, l.pos.Line, l.pos.Col, l.msg)
}

// FormatShort renders diags one per line, sorted by location, with paths
// relative to the FileSet base directory:
//
//	error LFT9001 unit.yaml:12:7 message
//
// Notes follow as "note" lines carrying their parent's code. Entries whose
// file is unknown to fs are dropped. The output has no trailing newline;
// it backs `lift lower --format short` and the golden comparisons in tests.
func FormatShort(diags []Diagnostic, fs *source.FileSet, withNotes bool) string {
	if fs == nil {
		return ""
	}
	var lines []shortLine
	add := func(sev string, code Code, span source.Span, msg string) {
		f := fs.Get(span.File)
		if f == nil {
			return
		}
		lines = append(lines, shortLine{
			sev:  sev,
			code: code.ID(),
			path: trimDotSlash(f.FormatPath("relative", fs.BaseDir())),
			pos:  f.Position(span.Start),
			msg:  strings.Join(strings.Fields(msg), " "),
		})
	}
	for _, d := range diags {
		add(strings.ToLower(d.Severity.String()), d.Code, d.Primary, d.Message)
		if !withNotes {
			continue
		}
		for _, n := range d.Notes {
			add("note", d.Code, n.Span, n.Msg)
		}
	}

	slices.SortStableFunc(lines, func(a, b shortLine) int {
		return cmp.Or(
			cmp.Compare(a.path, b.path),
			cmp.Compare(a.pos.Line, b.pos.Line),
			cmp.Compare(a.pos.Col, b.pos.Col),
			cmp.Compare(a.sev, b.sev),
			cmp.Compare(a.code, b.code),
			cmp.Compare(a.msg, b.msg),
		)
	})
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.String()
	}
	return strings.Join(out, "\n")
}

func trimDotSlash(p string) string {
	for strings.HasPrefix(p, "./") {
		p = p[2:]
	}
	return p
}
