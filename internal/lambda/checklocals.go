package lambda

import (
	"fmt"

	"lift/internal/bound"
	"lift/internal/symbols"
)

// checkLocals verifies that every local read or written in body is
// declared by a scope enclosing the reference.
func checkLocals(table *symbols.Table, body *bound.Block) error {
	var bad error
	var visit func(root any, live map[symbols.SymbolID]bool)
	visit = func(root any, live map[symbols.SymbolID]bool) {
		live = withLocals(live, root)
		bound.Inspect(root, func(n any) bool {
			if bad != nil {
				return false
			}
			if n != root && declaresLocals(n) {
				visit(n, live)
				return false
			}
			if e, ok := n.(*bound.Expr); ok && e.Kind == bound.ExprLocal {
				if sym := e.Data.(bound.LocalData).Sym; !live[sym] {
					bad = fmt.Errorf("local %s at %s is used outside its scope", table.Name(sym), e.Span)
				}
			}
			return true
		})
	}
	visit(body, nil)
	return bad
}

func localsOf(n any) []symbols.SymbolID {
	switch n := n.(type) {
	case *bound.Block:
		return n.Locals
	case *bound.Catch:
		return n.Locals
	case *bound.Stmt:
		if sw, ok := n.Data.(*bound.SwitchData); ok {
			return sw.Locals
		}
	case *bound.Expr:
		if seq, ok := n.Data.(*bound.SequenceData); ok {
			return seq.Locals
		}
	}
	return nil
}

func declaresLocals(n any) bool {
	switch n := n.(type) {
	case *bound.Block, *bound.Catch:
		return true
	case *bound.Stmt:
		return n.Kind == bound.StmtSwitch
	case *bound.Expr:
		return n.Kind == bound.ExprSequence
	}
	return false
}

func withLocals(live map[symbols.SymbolID]bool, n any) map[symbols.SymbolID]bool {
	locals := localsOf(n)
	if len(locals) == 0 {
		return live
	}
	out := make(map[symbols.SymbolID]bool, len(live)+len(locals))
	for k := range live {
		out[k] = true
	}
	for _, l := range locals {
		out[l] = true
	}
	return out
}
