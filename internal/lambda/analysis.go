package lambda

import (
	"slices"

	"lift/internal/bound"
	"lift/internal/source"
	"lift/internal/symbols"
)

// Scope is a node that declares at least one variable. The method body is
// always the root scope, at depth 0.
type Scope struct {
	ID     int
	Parent *Scope
	Depth  int
	Node   bound.ScopeNode
	// Closure whose body contains this scope; nil in the method itself.
	Closure  *Closure
	Vars     []symbols.SymbolID
	Children []*Scope
	// NeedsParent is set when the frame of this scope must link to the
	// frame that was active when it was entered.
	NeedsParent bool
	Frame       *Frame
}

// ClosureKind says where a closure's synthesized method lives.
type ClosureKind uint8

const (
	// ClosureGeneral closures are instance methods on their frame.
	ClosureGeneral ClosureKind = iota
	// ClosureThisOnly closures capture only the receiver and become
	// instance methods on the containing type.
	ClosureThisOnly
	// ClosureStatic closures capture nothing.
	ClosureStatic
	// ClosureSingleton closures capture nothing and are hosted on the
	// singleton instance of the static container.
	ClosureSingleton
	// ClosureExprTree closures are handed to the ExprTreeBuilder.
	ClosureExprTree
)

func (k ClosureKind) String() string {
	switch k {
	case ClosureGeneral:
		return "general"
	case ClosureThisOnly:
		return "this-only"
	case ClosureStatic:
		return "static"
	case ClosureSingleton:
		return "singleton"
	case ClosureExprTree:
		return "expr-tree"
	default:
		return "unknown"
	}
}

// MarkerKind classifies the syntax between a closure and the method root.
type MarkerKind uint8

const (
	MarkerScope MarkerKind = iota
	MarkerLoop
	MarkerLambda
)

// Marker is one enclosing syntax node of a closure.
type Marker struct {
	Kind MarkerKind
	Node any
}

// InLoopOrLambda reports whether a loop or a lambda encloses the closure
// below target. markers run from the method root to the closure's parent.
func InLoopOrLambda(markers []Marker, target any) bool {
	for i := len(markers) - 1; i >= 0; i-- {
		m := markers[i]
		if m.Node == target {
			return false
		}
		if m.Kind == MarkerLoop || m.Kind == MarkerLambda {
			return true
		}
	}
	return false
}

// Closure is one lambda expression of the method.
type Closure struct {
	// ID is the pre-order index among the method's closures.
	ID      int
	Lambda  *bound.Expr
	Convert *bound.Expr // nil for a raw lambda
	Method  symbols.SymbolID
	Parent  *Closure
	// Scope is the innermost scope enclosing the lambda expression.
	Scope *Scope
	// BodyScope is nil when the lambda declares nothing.
	BodyScope *Scope
	// Captures in order of first reference.
	Captures []symbols.SymbolID
	ExprTree bool
	Markers  []Marker

	Kind       ClosureKind
	FrameScope *Scope
	Synth      *ClosureMethod

	captured map[symbols.SymbolID]bool
}

func (c *Closure) capture(v symbols.SymbolID) {
	if c.captured[v] {
		return
	}
	if c.captured == nil {
		c.captured = make(map[symbols.SymbolID]bool)
	}
	c.captured[v] = true
	c.Captures = append(c.Captures, v)
}

// CapturesVar reports whether c captures v.
func (c *Closure) CapturesVar(v symbols.SymbolID) bool { return c.captured[v] }

// CaptureEdge is one reference to v from inside a closure that does not
// declare it.
type CaptureEdge struct {
	Closure *Closure
	Var     symbols.SymbolID
	Span    source.Span
}

// Analysis is the output of the capture analyzer.
type Analysis struct {
	Root     *Scope
	Scopes   []*Scope // pre-order
	Closures []*Closure
	// DeclScope maps a variable to its declaring scope.
	DeclScope map[symbols.SymbolID]*Scope
	// DeclClosure maps a variable to the closure declaring it; absent
	// (nil) for variables of the method itself.
	DeclClosure map[symbols.SymbolID]*Closure
	Edges       []CaptureEdge
	Captured    map[symbols.SymbolID]bool
	// ExprTreeVars are declared inside expression-tree closures.
	ExprTreeVars map[symbols.SymbolID]bool
	This         symbols.SymbolID

	table    *symbols.Table
	byNode   map[any]*Scope
	byLambda map[*bound.Expr]*Closure
}

// ScopeOf returns the scope introduced by node, or nil.
func (an *Analysis) ScopeOf(node any) *Scope { return an.byNode[node] }

// ClosureOf returns the closure for a lambda expression or its conversion.
func (an *Analysis) ClosureOf(e *bound.Expr) *Closure {
	if e != nil && e.Kind == bound.ExprConvert {
		e = e.Data.(bound.ConvertData).Operand
	}
	return an.byLambda[e]
}

// Lifted reports whether v moves into a frame field.
func (an *Analysis) Lifted(v symbols.SymbolID) bool {
	if !an.Captured[v] || an.ExprTreeVars[v] || v == an.This {
		return false
	}
	sym := an.table.Get(v)
	return sym != nil && sym.Kind != symbols.KindThis && !sym.IsConst()
}

// EdgesOf returns the capture edges of v in walk order.
func (an *Analysis) EdgesOf(v symbols.SymbolID) []CaptureEdge {
	var out []CaptureEdge
	for _, e := range an.Edges {
		if e.Var == v {
			out = append(out, e)
		}
	}
	return out
}

type analyzer struct {
	table   *symbols.Table
	kinds   bound.ScopeKind
	an      *Analysis
	scope   *Scope
	closure *Closure
	markers []Marker
}

// Analyze walks the body of in once, building the scope tree and the
// capture sets of every closure.
func Analyze(table *symbols.Table, in Input, kinds bound.ScopeKind) *Analysis {
	if kinds == 0 {
		kinds = bound.DefaultScopeKinds
	}
	a := &analyzer{
		table: table,
		kinds: kinds,
		an: &Analysis{
			DeclScope:    make(map[symbols.SymbolID]*Scope),
			DeclClosure:  make(map[symbols.SymbolID]*Closure),
			Captured:     make(map[symbols.SymbolID]bool),
			ExprTreeVars: make(map[symbols.SymbolID]bool),
			This:         in.This,
			table:        table,
			byNode:       make(map[any]*Scope),
			byLambda:     make(map[*bound.Expr]*Closure),
		},
	}
	if in.Body == nil {
		invariant("method %s has no body", table.Qualified(in.Method))
	}
	a.an.Root = a.block(in.Body, table.Params(in.Method), true)
	return a.an
}

func (a *analyzer) pushScope(node bound.ScopeNode) *Scope {
	s := &Scope{ID: len(a.an.Scopes), Parent: a.scope, Node: node, Closure: a.closure}
	if a.scope != nil {
		s.Depth = a.scope.Depth + 1
		a.scope.Children = append(a.scope.Children, s)
	}
	a.an.Scopes = append(a.an.Scopes, s)
	a.an.byNode[node] = s
	a.scope = s
	return s
}

func (a *analyzer) declare(v symbols.SymbolID) {
	if !v.IsValid() {
		return
	}
	a.scope.Vars = append(a.scope.Vars, v)
	a.an.DeclScope[v] = a.scope
	if a.closure != nil {
		a.an.DeclClosure[v] = a.closure
		if a.closure.ExprTree {
			a.an.ExprTreeVars[v] = true
		}
	}
}

// enter opens the region of a scope-bearing node. params are declared
// ahead of the node's own locals. force creates a scope even when the
// node kind is not scope-introducing. The returned func restores the
// previous state.
func (a *analyzer) enter(node bound.ScopeNode, params []symbols.SymbolID, force bool) (*Scope, func()) {
	prevScope, prevMarkers := a.scope, len(a.markers)
	a.markers = append(a.markers, Marker{Kind: MarkerScope, Node: node})
	locals := node.DeclaredLocals()
	n := len(params) + len(locals)
	var s *Scope
	if a.scope == nil || (n > 0 && (force || a.kinds.Has(node.ScopeKind()))) {
		s = a.pushScope(node)
	}
	for _, p := range params {
		a.declare(p)
	}
	for _, l := range locals {
		a.declare(l)
	}
	return s, func() {
		a.scope = prevScope
		a.markers = a.markers[:prevMarkers]
	}
}

func (a *analyzer) block(b *bound.Block, params []symbols.SymbolID, force bool) *Scope {
	s, leave := a.enter(b, params, force)
	defer leave()
	for i := range b.Stmts {
		a.stmt(&b.Stmts[i])
	}
	return s
}

func (a *analyzer) loop(s *bound.Stmt, body func()) {
	n := len(a.markers)
	a.markers = append(a.markers, Marker{Kind: MarkerLoop, Node: s})
	body()
	a.markers = a.markers[:n]
}

func (a *analyzer) stmt(s *bound.Stmt) {
	if s == nil {
		return
	}
	switch d := s.Data.(type) {
	case *bound.Block:
		a.block(d, nil, false)
	case bound.ExprStmtData:
		a.expr(d.Expr)
	case bound.ReturnData:
		a.expr(d.Value)
	case bound.IfData:
		a.expr(d.Cond)
		a.stmt(d.Then)
		a.stmt(d.Else)
	case bound.WhileData:
		a.loop(s, func() {
			a.expr(d.Cond)
			a.stmt(d.Body)
		})
	case bound.ForData:
		a.stmt(d.Init)
		a.loop(s, func() {
			a.expr(d.Cond)
			a.expr(d.Step)
			a.stmt(d.Body)
		})
	case bound.TryData:
		a.block(d.Body, nil, false)
		for _, c := range d.Catches {
			a.catch(c)
		}
		if d.Finally != nil {
			a.block(d.Finally, nil, false)
		}
	case *bound.SwitchData:
		_, leave := a.enter(d, nil, false)
		a.expr(d.Value)
		for i := range d.Sections {
			for _, l := range d.Sections[i].Labels {
				a.expr(l)
			}
			for j := range d.Sections[i].Stmts {
				a.stmt(&d.Sections[i].Stmts[j])
			}
		}
		leave()
	}
}

func (a *analyzer) catch(c *bound.Catch) {
	_, leave := a.enter(c, nil, false)
	defer leave()
	a.expr(c.Filter)
	a.block(c.Body, nil, false)
}

func (a *analyzer) reference(v symbols.SymbolID, span source.Span) {
	sym := a.table.Get(v)
	if sym == nil || sym.IsConst() {
		return
	}
	if _, ok := a.an.DeclScope[v]; !ok && v != a.an.This {
		invariant("%s referenced outside any declaring scope", a.table.Qualified(v))
	}
	decl := a.an.DeclClosure[v]
	if a.closure == nil || a.closure == decl {
		return
	}
	a.an.Edges = append(a.an.Edges, CaptureEdge{Closure: a.closure, Var: v, Span: span})
	a.an.Captured[v] = true
	for c := a.closure; c != nil && c != decl; c = c.Parent {
		c.capture(v)
	}
}

func (a *analyzer) expr(e *bound.Expr) {
	if e == nil {
		return
	}
	switch d := e.Data.(type) {
	case bound.LocalData:
		a.reference(d.Sym, e.Span)
	case bound.ParamData:
		a.reference(d.Sym, e.Span)
	case bound.ThisData:
		a.reference(d.Sym, e.Span)
	case bound.BinaryData:
		a.expr(d.Left)
		a.expr(d.Right)
	case bound.AssignData:
		a.expr(d.Target)
		a.expr(d.Value)
	case bound.CallData:
		a.expr(d.Receiver)
		a.exprs(d.Args)
	case bound.FieldData:
		a.expr(d.Receiver)
	case bound.NewData:
		a.exprs(d.Args)
	case bound.LambdaData:
		a.lambda(nil, e)
	case bound.ConvertData:
		if d.Operand != nil && d.Operand.Kind == bound.ExprLambda {
			a.lambda(e, d.Operand)
			return
		}
		a.expr(d.Operand)
	case bound.DelegateData:
		// The receiver is evaluated even when the target ignores it.
		a.expr(d.Receiver)
	case bound.InvokeData:
		a.expr(d.Target)
		a.exprs(d.Args)
	case bound.CoalesceData:
		a.expr(d.Left)
		a.expr(d.Right)
	case *bound.SequenceData:
		_, leave := a.enter(d, nil, false)
		a.exprs(d.SideEffects)
		a.expr(d.Value)
		leave()
	case bound.QuoteData:
		// already lowered
	}
}

func (a *analyzer) exprs(es []*bound.Expr) {
	for _, e := range es {
		a.expr(e)
	}
}

func (a *analyzer) lambda(conv, lam *bound.Expr) {
	ld := lam.Data.(bound.LambdaData)
	c := &Closure{
		ID:      len(a.an.Closures),
		Lambda:  lam,
		Convert: conv,
		Method:  ld.Method,
		Parent:  a.closure,
		Scope:   a.scope,
		Markers: slices.Clone(a.markers),
	}
	c.ExprTree = (conv != nil && a.table.Types().IsExprTree(conv.Type)) || (a.closure != nil && a.closure.ExprTree)
	a.an.Closures = append(a.an.Closures, c)
	a.an.byLambda[lam] = c

	prevClosure, n := a.closure, len(a.markers)
	a.closure = c
	a.markers = append(a.markers, Marker{Kind: MarkerLambda, Node: lam})
	c.BodyScope = a.block(ld.Body, ld.Params, true)
	a.closure = prevClosure
	a.markers = a.markers[:n]
}
