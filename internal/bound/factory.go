package bound

import (
	"lift/internal/source"
	"lift/internal/symbols"
	"lift/internal/types"
)

// Factory builds synthesized nodes. Every node gets the factory's span.
type Factory struct {
	Table *symbols.Table
	Span  source.Span
}

// NewFactory creates a factory placing nodes at span.
func NewFactory(table *symbols.Table, span source.Span) *Factory {
	return &Factory{Table: table, Span: span}
}

// At returns a factory for another span.
func (f *Factory) At(span source.Span) *Factory {
	return &Factory{Table: f.Table, Span: span}
}

func (f *Factory) types() *types.Interner { return f.Table.Types() }

// Var references a local, parameter or receiver symbol.
func (f *Factory) Var(sym symbols.SymbolID) *Expr {
	s := f.Table.MustGet(sym)
	switch s.Kind {
	case symbols.KindParam:
		return &Expr{Kind: ExprParam, Type: s.Type, Span: f.Span, Data: ParamData{Sym: sym}}
	case symbols.KindThis:
		return &Expr{Kind: ExprThis, Type: s.Type, Span: f.Span, Data: ThisData{Sym: sym}}
	default:
		return &Expr{Kind: ExprLocal, Type: s.Type, Span: f.Span, Data: LocalData{Sym: sym}}
	}
}

// Field reads field through receiver. The field type is instantiated
// with the receiver's type arguments.
func (f *Factory) Field(receiver *Expr, field symbols.SymbolID) *Expr {
	fs := f.Table.MustGet(field)
	typ := fs.Type
	if receiver != nil {
		owner := f.Table.MustGet(fs.Owner)
		typ = f.types().Apply(typ, types.NewSubst(owner.TypeParams, f.types().TypeArgs(receiver.Type)))
	}
	return &Expr{Kind: ExprField, Type: typ, Span: f.Span, Data: FieldData{Receiver: receiver, Field: field}}
}

// StaticField reads a static field of a type instantiated as owner.
func (f *Factory) StaticField(owner types.TypeID, field symbols.SymbolID) *Expr {
	fs := f.Table.MustGet(field)
	ownerSym := f.Table.MustGet(fs.Owner)
	typ := f.types().Apply(fs.Type, types.NewSubst(ownerSym.TypeParams, f.types().TypeArgs(owner)))
	return &Expr{Kind: ExprField, Type: typ, Span: f.Span, Data: FieldData{Field: field}}
}

// Assign stores value into target.
func (f *Factory) Assign(target, value *Expr) *Expr {
	return &Expr{Kind: ExprAssign, Type: target.Type, Span: f.Span, Data: AssignData{Target: target, Value: value}}
}

// ExprStmt wraps e as a statement.
func (f *Factory) ExprStmt(e *Expr) Stmt {
	return Stmt{Kind: StmtExpr, Span: f.Span, Data: ExprStmtData{Expr: e}}
}

// AssignStmt is ExprStmt(Assign(target, value)).
func (f *Factory) AssignStmt(target, value *Expr) Stmt {
	return f.ExprStmt(f.Assign(target, value))
}

// New constructs typ with ctor.
func (f *Factory) New(ctor symbols.SymbolID, typ types.TypeID, args ...*Expr) *Expr {
	return &Expr{Kind: ExprNew, Type: typ, Span: f.Span, Data: NewData{Ctor: ctor, Args: args}}
}

// Null is the null literal of typ.
func (f *Factory) Null(typ types.TypeID) *Expr {
	return &Expr{Kind: ExprLiteral, Type: typ, Span: f.Span, Data: LiteralData{Null: true}}
}

// Coalesce is left ?? right.
func (f *Factory) Coalesce(left, right *Expr) *Expr {
	return &Expr{Kind: ExprCoalesce, Type: left.Type, Span: f.Span, Data: CoalesceData{Left: left, Right: right}}
}

// Delegate creates a delegate of type typ over method bound to receiver.
func (f *Factory) Delegate(typ types.TypeID, receiver *Expr, method symbols.SymbolID, typeArgs []types.TypeID) *Expr {
	return &Expr{Kind: ExprDelegate, Type: typ, Span: f.Span, Data: DelegateData{Receiver: receiver, Method: method, TypeArgs: typeArgs}}
}

// Call invokes method on receiver.
func (f *Factory) Call(receiver *Expr, method symbols.SymbolID, result types.TypeID, args ...*Expr) *Expr {
	return &Expr{Kind: ExprCall, Type: result, Span: f.Span, Data: CallData{Receiver: receiver, Method: method, Args: args}}
}

// CtorInit calls the parameterless constructor ctor on receiver as a constructor initializer.
func (f *Factory) CtorInit(receiver *Expr, ctor symbols.SymbolID) Stmt {
	return f.ExprStmt(&Expr{
		Kind: ExprCall,
		Type: f.types().Builtins().Void,
		Span: f.Span,
		Data: CallData{Receiver: receiver, Method: ctor, CtorInit: true},
	})
}

// Block builds a block.
func (f *Factory) Block(locals []symbols.SymbolID, stmts ...Stmt) *Block {
	return &Block{Span: f.Span, Locals: locals, Stmts: stmts}
}

// Return returns value (nil for a bare return).
func (f *Factory) Return(value *Expr) Stmt {
	return Stmt{Kind: StmtReturn, Span: f.Span, Data: ReturnData{Value: value}}
}
