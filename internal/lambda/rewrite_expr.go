package lambda

import (
	"lift/internal/bound"
	"lift/internal/symbols"
	"lift/internal/types"
)

func (r *rewriter) exprs(ctx *rewriteContext, es []*bound.Expr) []*bound.Expr {
	if es == nil {
		return nil
	}
	out := make([]*bound.Expr, len(es))
	for i, e := range es {
		out[i] = r.expr(ctx, e)
	}
	return out
}

func (r *rewriter) typeArgs(ctx *rewriteContext, args []types.TypeID) []types.TypeID {
	if args == nil {
		return nil
	}
	out := make([]types.TypeID, len(args))
	for i, a := range args {
		out[i] = r.subst(ctx, a)
	}
	return out
}

func (r *rewriter) expr(ctx *rewriteContext, e *bound.Expr) *bound.Expr {
	if e == nil {
		return nil
	}
	out := &bound.Expr{Kind: e.Kind, Type: r.subst(ctx, e.Type), Span: e.Span}
	switch d := e.Data.(type) {
	case bound.LocalData:
		return r.variable(ctx, e, out, d.Sym)
	case bound.ParamData:
		return r.variable(ctx, e, out, d.Sym)
	case bound.ThisData:
		return r.receiver(ctx, e, out, d.Sym)
	case bound.LiteralData:
		out.Data = d
	case bound.BinaryData:
		out.Data = bound.BinaryData{Op: d.Op, Left: r.expr(ctx, d.Left), Right: r.expr(ctx, d.Right)}
	case bound.AssignData:
		out.Data = bound.AssignData{Target: r.expr(ctx, d.Target), Value: r.expr(ctx, d.Value)}
	case bound.CallData:
		call := bound.CallData{
			Receiver: r.expr(ctx, d.Receiver),
			Method:   d.Method,
			TypeArgs: r.typeArgs(ctx, d.TypeArgs),
			Args:     r.exprs(ctx, d.Args),
			CtorInit: d.CtorInit,
		}
		if d.CtorInit && ctx.method == r.in.Method {
			r.seenBaseCall = true
		}
		out.Data = call
	case bound.FieldData:
		out.Data = bound.FieldData{Receiver: r.expr(ctx, d.Receiver), Field: d.Field}
	case bound.NewData:
		out.Data = bound.NewData{Ctor: d.Ctor, Args: r.exprs(ctx, d.Args)}
	case bound.LambdaData:
		invariant("lambda %s reached the rewriter outside a conversion", r.table.Qualified(d.Method))
	case bound.ConvertData:
		if d.Operand != nil && d.Operand.Kind == bound.ExprLambda {
			return r.convertLambda(ctx, e)
		}
		out.Data = bound.ConvertData{Operand: r.expr(ctx, d.Operand)}
	case bound.DelegateData:
		out.Data = bound.DelegateData{Receiver: r.expr(ctx, d.Receiver), Method: d.Method, TypeArgs: r.typeArgs(ctx, d.TypeArgs)}
	case bound.InvokeData:
		out.Data = bound.InvokeData{Target: r.expr(ctx, d.Target), Args: r.exprs(ctx, d.Args)}
	case bound.CoalesceData:
		out.Data = bound.CoalesceData{Left: r.expr(ctx, d.Left), Right: r.expr(ctx, d.Right)}
	case *bound.SequenceData:
		out.Data = r.sequence(ctx, d)
	case bound.QuoteData:
		// already lowered
		return e
	default:
		invariant("unexpected expression %s", e.Kind)
	}
	return out
}

func (r *rewriter) variable(ctx *rewriteContext, e, out *bound.Expr, v symbols.SymbolID) *bound.Expr {
	if p, ok := ctx.varPath(v); ok {
		return r.materialize(p, e.Span)
	}
	if nv, ok := r.remap[v]; ok {
		return r.at(e.Span).Var(nv)
	}
	out.Data = e.Data
	return out
}

// receiver rewrites `this` and `base`. They stay as they are in the
// lowered method itself and go through the frame chain everywhere else.
func (r *rewriter) receiver(ctx *rewriteContext, e, out *bound.Expr, this symbols.SymbolID) *bound.Expr {
	if ctx.method == r.in.Method || !r.in.This.IsValid() {
		out.Data = e.Data
		return out
	}
	if e.Kind == bound.ExprBase && ctx.frameThis.IsValid() && ctx.frameThisContainer == r.in.ContainingType {
		out.Data = bound.ThisData{Sym: ctx.frameThis}
		return out
	}
	if this != r.in.This {
		invariant("receiver %s does not belong to %s", r.table.Qualified(this), r.table.Qualified(r.in.Method))
	}
	return r.frameExpr(ctx, r.in.ContainingType, e.Span)
}

func (r *rewriter) sequence(ctx *rewriteContext, d *bound.SequenceData) *bound.SequenceData {
	out := &bound.SequenceData{Span: d.Span, Locals: r.locals(ctx, d.Locals, symbols.NoSymbolID)}
	var prologue []*bound.Expr
	if sc := r.an.ScopeOf(d); sc != nil && sc.Frame != nil {
		var ptr symbols.SymbolID
		ctx, prologue, ptr = r.enterFrame(ctx, sc, d.Span)
		out.Locals = append([]symbols.SymbolID{ptr}, out.Locals...)
	}
	out.SideEffects = append(prologue, r.exprs(ctx, d.SideEffects)...)
	out.Value = r.expr(ctx, d.Value)
	return out
}
