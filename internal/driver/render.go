package driver

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"lift/internal/bound"
	"lift/internal/symbols"
)

// Render prints the lowered methods of res followed by the synthesized
// types and methods. Synthesized types are sorted by name, methods keep
// the collector's ordinal order.
func Render(res *Result) string {
	if res.Unit == nil {
		return res.Output
	}
	table := res.Unit.Table
	var sb strings.Builder
	p := bound.NewPrinter(&sb, table)
	for _, mr := range res.Methods {
		switch {
		case mr.Broken:
			fmt.Fprintf(&sb, "// %s: not lowered, the body did not bind\n\n", mr.Name)
			continue
		case mr.Skipped:
			continue
		case mr.Err != nil:
			fmt.Fprintf(&sb, "// %s: lowering failed\n\n", mr.Name)
			continue
		}
		fmt.Fprintf(&sb, "// %s\n", mr.Name)
		p.PrintMethod(res.Unit.Method(mr.Name).Sym, mr.Result.Body)
		sb.WriteByte('\n')
	}

	typs := res.Module.Types()
	slices.SortFunc(typs, func(a, b symbols.SymbolID) int { return cmp.Compare(table.Name(a), table.Name(b)) })
	for _, typ := range typs {
		renderType(&sb, table, typ)
	}
	for _, m := range res.Synthesized {
		p.PrintMethod(m.Method, m.Body)
		sb.WriteByte('\n')
	}
	return sb.String()
}

func renderType(sb *strings.Builder, table *symbols.Table, typ symbols.SymbolID) {
	fmt.Fprintf(sb, "type %s\n", table.Types().String(table.MustGet(typ).Type))
	for _, mem := range table.Members(typ) {
		s := table.MustGet(mem)
		if s.Kind != symbols.KindField {
			continue
		}
		static := ""
		if s.IsStatic() {
			static = "static "
		}
		fmt.Fprintf(sb, "  %sfield %s: %s\n", static, table.Name(mem), table.Types().String(s.Type))
	}
	sb.WriteByte('\n')
}
