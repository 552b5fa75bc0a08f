package lambda

import (
	"fmt"
	"io"
	"strings"

	"lift/internal/symbols"
)

// Dump writes the scope tree and closure placements of an analysis.
// Lifted variables are starred; a scope with a frame shows its type.
func (an *Analysis) Dump(w io.Writer) error {
	var sb strings.Builder
	var scope func(s *Scope, indent int)
	scope = func(s *Scope, indent int) {
		fmt.Fprintf(&sb, "%sscope#%d %s depth=%d", strings.Repeat("  ", indent), s.ID, s.Node.ScopeKind(), s.Depth)
		if len(s.Vars) > 0 {
			sb.WriteString(" vars=[")
			for i, v := range s.Vars {
				if i > 0 {
					sb.WriteString(", ")
				}
				sb.WriteString(an.table.Name(v))
				if an.Lifted(v) {
					sb.WriteByte('*')
				}
			}
			sb.WriteByte(']')
		}
		if s.Frame != nil {
			fmt.Fprintf(&sb, " frame=%s", an.table.Name(s.Frame.Type))
		}
		if s.NeedsParent {
			sb.WriteString(" link")
		}
		sb.WriteByte('\n')
		for _, ch := range s.Children {
			scope(ch, indent+1)
		}
	}
	scope(an.Root, 0)

	for _, c := range an.Closures {
		fmt.Fprintf(&sb, "closure#%d %s", c.ID, c.Kind)
		if c.Synth != nil {
			fmt.Fprintf(&sb, " method=%s", an.table.Qualified(c.Synth.Method))
		}
		if c.FrameScope != nil {
			fmt.Fprintf(&sb, " frame=scope#%d", c.FrameScope.ID)
		}
		if len(c.Captures) > 0 {
			fmt.Fprintf(&sb, " captures=[%s]", an.names(c.Captures))
		}
		sb.WriteByte('\n')
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

func (an *Analysis) names(ids []symbols.SymbolID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = an.table.Name(id)
	}
	return strings.Join(parts, ", ")
}
