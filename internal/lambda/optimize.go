package lambda

import "math"

// optimize picks the kind and frame scope of every closure and marks the
// scopes whose frames need a parent link.
func optimize(an *Analysis, singletons bool) {
	for _, c := range an.Closures {
		switch {
		case c.ExprTree:
			c.Kind = ClosureExprTree
		case len(c.Captures) == 0:
			c.Kind = ClosureStatic
			if singletons {
				c.Kind = ClosureSingleton
			}
		default:
			placeClosure(an, c)
		}
	}
}

func placeClosure(an *Analysis, c *Closure) {
	var inner *Scope
	outerDepth := math.MaxInt
	for _, v := range c.Captures {
		depth := -1 // the receiver lives outside the method
		if s := an.DeclScope[v]; s != nil && v != an.This {
			depth = s.Depth
			if inner == nil || depth > inner.Depth {
				inner = s
			}
		}
		outerDepth = min(outerDepth, depth)
	}
	if inner == nil {
		c.Kind = ClosureThisOnly
		return
	}
	c.Kind = ClosureGeneral
	c.FrameScope = inner
	for s := inner; s != nil && s.Depth > outerDepth; s = s.Parent {
		s.NeedsParent = true
	}
}
