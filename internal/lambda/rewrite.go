package lambda

import (
	"slices"

	"lift/internal/bound"
	"lift/internal/naming"
	"lift/internal/source"
	"lift/internal/symbols"
	"lift/internal/types"
)

type rewriter struct {
	an    *Analysis
	syn   *synthesis
	in    Input
	opts  *Options
	table *symbols.Table
	// remap holds lambda parameters and re-typed locals.
	remap map[symbols.SymbolID]symbols.SymbolID

	hasCtorInit  bool
	seenBaseCall bool
	// pending receiver-capture assignments, spliced after the
	// constructor-initializer statement.
	pending     []bound.Stmt
	cachedSites int
}

func rewrite(an *Analysis, syn *synthesis, in Input, opts *Options) (*bound.Block, int) {
	top := opts.Symbols.MustGet(in.Method)
	r := &rewriter{
		an:    an,
		syn:   syn,
		in:    in,
		opts:  opts,
		table: opts.Symbols,
		remap: make(map[symbols.SymbolID]symbols.SymbolID),
	}
	r.hasCtorInit = top.MethodKind == symbols.MethodConstructor && bound.ContainsCtorInit(in.Body)

	ctx := &rewriteContext{
		method:     in.Method,
		body:       in.Body,
		typeParams: top.TypeParams,
		state:      &methodState{},
	}
	if in.This.IsValid() {
		h := holder{sym: in.This, container: in.ContainingType}
		ctx.frameThis, ctx.frameThisContainer = in.This, in.ContainingType
		ctx.innermost = h
		ctx.framePointers = ctx.framePointers.with(in.ContainingType, h)
	}
	body := r.methodBody(ctx, in.Body)
	if len(r.pending) > 0 {
		invariant("receiver capture in %s was never placed", r.table.Qualified(in.Method))
	}
	return body, r.cachedSites
}

func (r *rewriter) at(span source.Span) *bound.Factory { return bound.NewFactory(r.table, span) }

func (r *rewriter) subst(ctx *rewriteContext, t types.TypeID) types.TypeID {
	return r.table.Types().Apply(t, ctx.typeMap)
}

func (r *rewriter) methodBody(ctx *rewriteContext, b *bound.Block) *bound.Block {
	out := r.block(ctx, b)
	if st := ctx.state; len(st.locals) > 0 {
		out.Locals = append(slices.Clone(st.locals), out.Locals...)
		out.Stmts = append(slices.Clone(st.inits), out.Stmts...)
	}
	return out
}

// locals rewrites a declaration list. Lifted variables are dropped unless
// AssignLocals is set; keep is never dropped.
func (r *rewriter) locals(ctx *rewriteContext, list []symbols.SymbolID, keep symbols.SymbolID) []symbols.SymbolID {
	out := make([]symbols.SymbolID, 0, len(list))
	for _, v := range list {
		if v != keep && !r.in.AssignLocals && r.an.Lifted(v) {
			continue
		}
		out = append(out, r.declare(ctx, v))
	}
	return out
}

// declare re-declares v in ctx.method when its type mentions type
// parameters that are renamed in ctx.
func (r *rewriter) declare(ctx *rewriteContext, v symbols.SymbolID) symbols.SymbolID {
	sym := r.table.MustGet(v)
	if !r.table.Types().Mentions(sym.Type, ctx.typeMap) {
		return v
	}
	nv := r.table.NewLocal(ctx.method, r.table.Name(v), r.subst(ctx, sym.Type), sym.Flags, sym.Span)
	r.remap[v] = nv
	return nv
}

// deferReceiver reports whether storing the receiver into a frame must
// wait for the constructor initializer.
func (r *rewriter) deferReceiver(ctx *rewriteContext) bool {
	return r.hasCtorInit && !r.seenBaseCall && ctx.method == r.in.Method && ctx.innermost.sym == r.in.This
}

// copiesIn reports whether v is copied into its field when sc is entered.
func (r *rewriter) copiesIn(sc *Scope, v symbols.SymbolID) bool {
	if r.table.MustGet(v).Kind == symbols.KindParam {
		return true
	}
	if c, ok := sc.Node.(*bound.Catch); ok && c.ExceptionVar == v {
		return true
	}
	return r.in.AssignLocals && slices.Contains(sc.Node.DeclaredLocals(), v)
}

// enterFrame allocates the frame of sc and returns the context for the
// scope body, the prologue and the frame-pointer local.
func (r *rewriter) enterFrame(ctx *rewriteContext, sc *Scope, span source.Span) (*rewriteContext, []*bound.Expr, symbols.SymbolID) {
	f := sc.Frame
	fac := r.at(span)
	ptrType := r.table.Types().Named(f.Def, ctx.typeParams...)
	ptr := r.table.NewLocal(ctx.method, naming.FramePointer(f.Ordinal), ptrType, symbols.FlagSynthesized, span)
	prologue := []*bound.Expr{fac.Assign(fac.Var(ptr), fac.New(f.Ctor, ptrType))}

	next := ctx.derive()
	next.framePointers = ctx.framePointers.with(f.Type, holder{sym: ptr, container: f.Type})
	if sc.NeedsParent && ctx.innermost.valid() {
		link := r.syn.linkField(f, ctx.innermost.container)
		store := fac.Assign(fac.Field(fac.Var(ptr), link), r.frameExpr(ctx, ctx.innermost.container, span))
		if r.deferReceiver(ctx) {
			r.pending = append(r.pending, fac.ExprStmt(store))
		} else {
			prologue = append(prologue, store)
		}
		next.proxies = next.proxies.with(ctx.innermost.sym, proxy{owner: f.Type, field: link})
	}
	for _, v := range f.Order {
		field := f.Fields[v]
		next.proxies = next.proxies.with(v, proxy{owner: f.Type, field: field})
		if r.copiesIn(sc, v) {
			prologue = append(prologue, fac.Assign(fac.Field(fac.Var(ptr), field), r.varExpr(ctx, v, span)))
		}
	}
	next.innermost = holder{sym: ptr, container: f.Type}
	return next, prologue, ptr
}

func (r *rewriter) materialize(p accessPath, span source.Span) *bound.Expr {
	fac := r.at(span)
	e := fac.Var(p.Root)
	for _, fld := range p.Fields {
		e = fac.Field(e, fld)
	}
	return e
}

func (r *rewriter) frameExpr(ctx *rewriteContext, container symbols.SymbolID, span source.Span) *bound.Expr {
	return r.materialize(ctx.framePath(container), span)
}

func (r *rewriter) varExpr(ctx *rewriteContext, v symbols.SymbolID, span source.Span) *bound.Expr {
	if p, ok := ctx.varPath(v); ok {
		return r.materialize(p, span)
	}
	if nv, ok := r.remap[v]; ok {
		v = nv
	}
	return r.at(span).Var(v)
}

func stmtsOf(fac *bound.Factory, es []*bound.Expr) []bound.Stmt {
	out := make([]bound.Stmt, len(es))
	for i, e := range es {
		out[i] = fac.ExprStmt(e)
	}
	return out
}

func (r *rewriter) block(ctx *rewriteContext, b *bound.Block) *bound.Block {
	locals := r.locals(ctx, b.Locals, symbols.NoSymbolID)
	var prologue []*bound.Expr
	if sc := r.an.ScopeOf(b); sc != nil && sc.Frame != nil {
		var ptr symbols.SymbolID
		ctx, prologue, ptr = r.enterFrame(ctx, sc, b.Span)
		locals = append([]symbols.SymbolID{ptr}, locals...)
	}
	stmts := stmtsOf(r.at(b.Span), prologue)
	stmts = append(stmts, r.stmts(ctx, b.Stmts)...)
	return &bound.Block{Span: b.Span, Locals: locals, Stmts: stmts}
}

// stmts rewrites a statement list, splicing deferred receiver captures
// right after the statement holding the constructor initializer.
func (r *rewriter) stmts(ctx *rewriteContext, list []bound.Stmt) []bound.Stmt {
	out := make([]bound.Stmt, 0, len(list))
	for i := range list {
		seen := r.seenBaseCall
		out = append(out, r.stmt(ctx, &list[i]))
		if !seen && r.seenBaseCall && len(r.pending) > 0 {
			out = append(out, r.pending...)
			r.pending = nil
		}
	}
	return out
}

// embedded rewrites a statement that is not part of a list.
func (r *rewriter) embedded(ctx *rewriteContext, s *bound.Stmt) *bound.Stmt {
	if s == nil {
		return nil
	}
	list := r.stmts(ctx, []bound.Stmt{*s})
	if len(list) == 1 {
		return &list[0]
	}
	out := bound.BlockStmt(&bound.Block{Span: s.Span, Stmts: list})
	return &out
}

func (r *rewriter) stmt(ctx *rewriteContext, s *bound.Stmt) bound.Stmt {
	out := bound.Stmt{Kind: s.Kind, Span: s.Span}
	switch d := s.Data.(type) {
	case nil:
	case *bound.Block:
		out.Data = r.block(ctx, d)
	case bound.ExprStmtData:
		out.Data = bound.ExprStmtData{Expr: r.expr(ctx, d.Expr)}
	case bound.ReturnData:
		out.Data = bound.ReturnData{Value: r.expr(ctx, d.Value)}
	case bound.IfData:
		cond := r.expr(ctx, d.Cond)
		then := r.embedded(ctx, d.Then)
		out.Data = bound.IfData{Cond: cond, Then: then, Else: r.embedded(ctx, d.Else)}
	case bound.WhileData:
		w := bound.WhileData{DoWhile: d.DoWhile}
		if d.DoWhile {
			w.Body = r.embedded(ctx, d.Body)
			w.Cond = r.expr(ctx, d.Cond)
		} else {
			w.Cond = r.expr(ctx, d.Cond)
			w.Body = r.embedded(ctx, d.Body)
		}
		out.Data = w
	case bound.ForData:
		init := r.embedded(ctx, d.Init)
		cond := r.expr(ctx, d.Cond)
		step := r.expr(ctx, d.Step)
		out.Data = bound.ForData{Init: init, Cond: cond, Step: step, Body: r.embedded(ctx, d.Body)}
	case bound.TryData:
		t := bound.TryData{Body: r.block(ctx, d.Body)}
		for _, c := range d.Catches {
			t.Catches = append(t.Catches, r.catch(ctx, c))
		}
		if d.Finally != nil {
			t.Finally = r.block(ctx, d.Finally)
		}
		out.Data = t
	case *bound.SwitchData:
		return r.switchStmt(ctx, s, d)
	default:
		invariant("unexpected statement %s", s.Kind)
	}
	return out
}

func (r *rewriter) catch(ctx *rewriteContext, c *bound.Catch) *bound.Catch {
	out := &bound.Catch{
		Span:          c.Span,
		Locals:        r.locals(ctx, c.Locals, c.ExceptionVar),
		ExceptionVar:  c.ExceptionVar,
		ExceptionType: r.subst(ctx, c.ExceptionType),
	}
	if nv, ok := r.remap[c.ExceptionVar]; ok {
		out.ExceptionVar = nv
	}
	inner := ctx
	var prologue []*bound.Expr
	if sc := r.an.ScopeOf(c); sc != nil && sc.Frame != nil {
		var ptr symbols.SymbolID
		inner, prologue, ptr = r.enterFrame(ctx, sc, c.Span)
		out.Locals = append([]symbols.SymbolID{ptr}, out.Locals...)
	} else if c.ExceptionVar.IsValid() {
		// No frame of its own: the exception variable lives in an
		// enclosing frame and is stored there on entry.
		if p, ok := ctx.varPath(c.ExceptionVar); ok {
			fac := r.at(c.Span)
			prologue = []*bound.Expr{fac.Assign(r.materialize(p, c.Span), fac.Var(out.ExceptionVar))}
		}
	}
	if c.Filter != nil {
		// The filter runs first, so it carries the prologue.
		filter := r.expr(inner, c.Filter)
		out.Filter = filter
		if len(prologue) > 0 {
			out.Filter = &bound.Expr{
				Kind: bound.ExprSequence,
				Type: filter.Type,
				Span: filter.Span,
				Data: &bound.SequenceData{Span: filter.Span, SideEffects: prologue, Value: filter},
			}
		}
		out.Body = r.block(inner, c.Body)
		return out
	}
	body := r.block(inner, c.Body)
	body.Stmts = append(stmtsOf(r.at(c.Span), prologue), body.Stmts...)
	out.Body = body
	return out
}

func (r *rewriter) switchStmt(ctx *rewriteContext, s *bound.Stmt, d *bound.SwitchData) bound.Stmt {
	sw := &bound.SwitchData{Span: d.Span, Locals: r.locals(ctx, d.Locals, symbols.NoSymbolID)}
	inner := ctx
	var prologue []*bound.Expr
	var ptr symbols.SymbolID
	sc := r.an.ScopeOf(d)
	if sc != nil && sc.Frame != nil {
		inner, prologue, ptr = r.enterFrame(ctx, sc, d.Span)
	}
	sw.Value = r.expr(inner, d.Value)
	for _, sec := range d.Sections {
		labels := make([]*bound.Expr, len(sec.Labels))
		for i, l := range sec.Labels {
			labels[i] = r.expr(inner, l)
		}
		sw.Sections = append(sw.Sections, bound.SwitchSection{Labels: labels, Stmts: r.stmts(inner, sec.Stmts)})
	}
	out := bound.Stmt{Kind: s.Kind, Span: s.Span, Data: sw}
	if !ptr.IsValid() {
		return out
	}
	stmts := append(stmtsOf(r.at(s.Span), prologue), out)
	return bound.BlockStmt(&bound.Block{Span: s.Span, Locals: []symbols.SymbolID{ptr}, Stmts: stmts})
}
