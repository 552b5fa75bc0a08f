package lambda

import (
	"lift/internal/bound"
	"lift/internal/naming"
	"lift/internal/symbols"
	"lift/internal/types"
)

// convertLambda replaces a lambda conversion with a delegate creation over
// the closure's synthesized method, emitting the lifted body.
func (r *rewriter) convertLambda(ctx *rewriteContext, conv *bound.Expr) *bound.Expr {
	c := r.an.ClosureOf(conv)
	if c == nil {
		invariant("conversion at %s has no analyzed closure", conv.Span)
	}
	ld := c.Lambda.Data.(bound.LambdaData)
	if c.Kind == ClosureExprTree {
		return r.exprTree(ctx, c, conv, ld)
	}

	cm := c.Synth
	for p, np := range cm.Params {
		r.remap[p] = np
	}
	body := r.methodBody(r.closureContext(ctx, c), ld.Body)
	r.syn.methods = append(r.syn.methods, MethodWithBody{Method: cm.Method, Body: body})

	return r.cache(ctx, c, conv, r.delegate(ctx, c, conv))
}

// exprTree rewrites captured variables in place and leaves the rest to the
// ExprTreeBuilder. Nested lambdas stay part of the outermost tree.
func (r *rewriter) exprTree(ctx *rewriteContext, c *Closure, conv *bound.Expr, ld bound.LambdaData) *bound.Expr {
	inner := ctx.derive()
	inner.inExprTree = true
	lam := &bound.Expr{
		Kind: bound.ExprLambda,
		Type: r.subst(ctx, c.Lambda.Type),
		Span: c.Lambda.Span,
		Data: bound.LambdaData{Method: ld.Method, Params: ld.Params, Body: r.block(inner, ld.Body)},
	}
	out := &bound.Expr{Kind: bound.ExprConvert, Type: r.subst(ctx, conv.Type), Span: conv.Span, Data: bound.ConvertData{Operand: lam}}
	if ctx.inExprTree {
		return out
	}
	return r.opts.ExprTrees.Build(out)
}

func (r *rewriter) closureContext(ctx *rewriteContext, c *Closure) *rewriteContext {
	cm := c.Synth
	n := ctx.derive()
	n.method = cm.Method
	n.body = c.Lambda.Data.(bound.LambdaData).Body
	n.inExprTree = false
	n.state = &methodState{}
	n.frameThis, n.frameThisContainer, n.innermost = symbols.NoSymbolID, symbols.NoSymbolID, holder{}

	this := r.table.MustGet(cm.Method).This
	switch c.Kind {
	case ClosureGeneral:
		f := c.FrameScope.Frame
		h, ok := ctx.framePointers.get(f.Type)
		if !ok {
			invariant("closure %d entered outside the scope of its frame", c.ID)
		}
		n.frameThis, n.frameThisContainer, n.innermost = this, f.Type, h
	case ClosureThisOnly:
		n.frameThis, n.frameThisContainer = this, r.in.ContainingType
		n.innermost, _ = ctx.framePointers.get(r.in.ContainingType)
	}
	n.typeParams = cm.TypeParams
	n.typeMap = types.NewSubst(r.syn.topParams, cm.TypeParams)
	return n
}

func (r *rewriter) delegate(ctx *rewriteContext, c *Closure, conv *bound.Expr) *bound.Expr {
	fac := r.at(conv.Span)
	typ := r.subst(ctx, conv.Type)
	cm := c.Synth
	switch c.Kind {
	case ClosureGeneral:
		return fac.Delegate(typ, r.frameExpr(ctx, c.FrameScope.Frame.Type, conv.Span), cm.Method, nil)
	case ClosureThisOnly:
		return fac.Delegate(typ, r.frameExpr(ctx, r.in.ContainingType, conv.Span), cm.Method, ctx.typeParams)
	case ClosureStatic:
		// Type arguments instantiate the generic container.
		return fac.Delegate(typ, nil, cm.Method, ctx.typeParams)
	case ClosureSingleton:
		cont := r.syn.container
		inst := r.table.Types().Named(cont.Def, ctx.typeParams...)
		return fac.Delegate(typ, fac.StaticField(inst, cont.Singleton), cm.Method, nil)
	}
	invariant("no delegate for %s closure", c.Kind)
	return nil
}

// cache wraps dlg as `slot ?? (slot = dlg)` when the closure is cacheable.
func (r *rewriter) cache(ctx *rewriteContext, c *Closure, conv *bound.Expr, dlg *bound.Expr) *bound.Expr {
	fac := r.at(conv.Span)
	var slot func() *bound.Expr
	switch c.Kind {
	case ClosureStatic, ClosureSingleton:
		if r.table.MustGet(ctx.method).MethodKind == symbols.MethodStaticConstructor {
			return dlg
		}
		cont := r.syn.container
		fld := r.syn.cacheField(cont, c, conv.Type)
		inst := r.table.Types().Named(cont.Def, ctx.typeParams...)
		slot = func() *bound.Expr { return fac.StaticField(inst, fld) }
	case ClosureGeneral:
		if r.opts.Cache != CacheSyntactic || !InLoopOrLambda(c.Markers, c.FrameScope.Node) {
			return dlg
		}
		f := c.FrameScope.Frame
		fld := r.syn.cacheField(f, c, conv.Type)
		slot = func() *bound.Expr { return fac.Field(r.frameExpr(ctx, f.Type, conv.Span), fld) }
	case ClosureThisOnly:
		if r.opts.Cache != CacheSyntactic || !InLoopOrLambda(c.Markers, ctx.body) {
			return dlg
		}
		local := r.cacheLocal(ctx, c, dlg)
		slot = func() *bound.Expr { return fac.Var(local) }
	default:
		return dlg
	}
	r.cachedSites++
	return fac.Coalesce(slot(), fac.Assign(slot(), dlg))
}

func (r *rewriter) cacheLocal(ctx *rewriteContext, c *Closure, dlg *bound.Expr) symbols.SymbolID {
	st := ctx.state
	if l, ok := st.cached[c.ID]; ok {
		return l
	}
	if st.cached == nil {
		st.cached = make(map[int]symbols.SymbolID)
	}
	fac := r.at(ctx.body.Span)
	l := r.table.NewLocal(ctx.method, naming.CacheLocal(c.ID), dlg.Type, symbols.FlagSynthesized, ctx.body.Span)
	st.cached[c.ID] = l
	st.locals = append(st.locals, l)
	st.inits = append(st.inits, fac.AssignStmt(fac.Var(l), fac.Null(dlg.Type)))
	return l
}
