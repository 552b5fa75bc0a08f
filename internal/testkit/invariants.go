// Package testkit holds tree invariants shared by the binder, lowering and
// driver tests.
package testkit

import (
	"fmt"

	"fortio.org/safecast"

	"lift/internal/bound"
	"lift/internal/source"
)

// CheckSpanInvariants verifies that every node under root carries a span
// in file whose bounds lie inside the file content. Synthesized nodes
// borrow the span of the node they replace, so this holds after lowering
// as well.
func CheckSpanInvariants(fs *source.FileSet, file source.FileID, root any) error {
	sf := fs.Get(file)
	if sf == nil {
		return fmt.Errorf("file %d not in file set", file)
	}
	lenContent, err := safecast.Conv[uint32](len(sf.Content))
	if err != nil {
		return fmt.Errorf("len content overflow: %w", err)
	}

	var first error
	bound.Inspect(root, func(n any) bool {
		if first != nil {
			return false
		}
		sp, what := spanOf(n)
		switch {
		case sp.File != file:
			first = fmt.Errorf("%s span points to different file id: got=%d want=%d", what, sp.File, file)
		case sp.End < sp.Start:
			first = fmt.Errorf("%s span is inverted: %v", what, sp)
		case sp.End > lenContent:
			first = fmt.Errorf("%s span end beyond content: %d > %d", what, sp.End, lenContent)
		}
		return true
	})
	return first
}

// CheckLowered verifies that no lambda survives under root except inside
// an expression-tree quote.
func CheckLowered(root any) error {
	var first error
	bound.Inspect(root, func(n any) bool {
		e, ok := n.(*bound.Expr)
		if !ok || first != nil {
			return first == nil
		}
		switch e.Kind {
		case bound.ExprQuote:
			return false
		case bound.ExprLambda:
			first = fmt.Errorf("lambda at %v was not lowered", e.Span)
		}
		return true
	})
	return first
}

func spanOf(n any) (source.Span, string) {
	switch n := n.(type) {
	case *bound.Block:
		return n.Span, "block"
	case *bound.Catch:
		return n.Span, "catch"
	case *bound.Stmt:
		return n.Span, "stmt"
	case *bound.Expr:
		return n.Span, "expr"
	}
	return source.Span{}, "node"
}
