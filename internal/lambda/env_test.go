package lambda

import (
	"context"
	"strings"
	"testing"

	"lift/internal/bound"
	"lift/internal/diag"
	"lift/internal/source"
	"lift/internal/symbols"
	"lift/internal/types"
)

// env builds method bodies by hand against a fresh symbol table.
type env struct {
	t      *testing.T
	table  *symbols.Table
	ti     *types.Interner
	b      types.Builtins
	f      *bound.Factory
	widget symbols.SymbolID
	method symbols.SymbolID
	this   symbols.SymbolID
	spans  uint32
}

type methodOpts struct {
	name       string
	kind       symbols.MethodKind
	static     bool
	typeParams []string
	result     func(e *env) types.TypeID
}

func newEnv(t *testing.T, mo methodOpts) *env {
	t.Helper()
	table := symbols.NewTable(nil, nil)
	ti := table.Types()
	e := &env{t: t, table: table, ti: ti, b: ti.Builtins()}
	e.f = bound.NewFactory(table, source.Span{})
	e.widget = table.NewType(symbols.TypeSpec{Name: "Widget", Def: ti.Define("Widget", 0, 0)})
	if mo.name == "" {
		mo.name = "Run"
	}
	var tps []types.TypeID
	for _, n := range mo.typeParams {
		tps = append(tps, ti.NewParam(n))
	}
	var flags symbols.Flags
	if mo.static {
		flags = symbols.FlagStatic
	}
	result := e.b.Void
	if mo.result != nil {
		result = mo.result(e)
	}
	e.method = table.NewMethod(symbols.MethodSpec{
		Name: mo.name, Owner: e.widget, Kind: mo.kind, Flags: flags, TypeParams: tps, Result: result,
	})
	e.this = table.MustGet(e.method).This
	return e
}

// span hands out distinct spans so diagnostics can be told apart.
func (e *env) span() source.Span {
	e.spans += 10
	return source.Span{Start: e.spans, End: e.spans + 5}
}

func (e *env) typeParams() []types.TypeID { return e.table.MustGet(e.method).TypeParams }

func (e *env) param(name string, typ types.TypeID) symbols.SymbolID {
	return e.table.NewParam(e.method, name, typ, e.span())
}

func (e *env) local(owner symbols.SymbolID, name string, typ types.TypeID) symbols.SymbolID {
	return e.table.NewLocal(owner, name, typ, 0, e.span())
}

func (e *env) lit(v string) *bound.Expr {
	return &bound.Expr{Kind: bound.ExprLiteral, Type: e.b.Int, Data: bound.LiteralData{Value: v}}
}

func (e *env) ref(sym symbols.SymbolID) *bound.Expr {
	return e.f.At(e.span()).Var(sym)
}

func (e *env) add(l, r *bound.Expr) *bound.Expr {
	return &bound.Expr{Kind: bound.ExprBinary, Type: e.b.Int, Data: bound.BinaryData{Op: "+", Left: l, Right: r}}
}

func (e *env) assign(target symbols.SymbolID, value *bound.Expr) bound.Stmt {
	return e.f.AssignStmt(e.ref(target), value)
}

func (e *env) ret(v *bound.Expr) bound.Stmt { return e.f.Return(v) }

func (e *env) block(locals []symbols.SymbolID, stmts ...bound.Stmt) *bound.Block {
	return e.f.Block(locals, stmts...)
}

func (e *env) loop(body *bound.Block) bound.Stmt {
	cond := &bound.Expr{Kind: bound.ExprLiteral, Type: e.b.Bool, Data: bound.LiteralData{Value: "true"}}
	b := bound.BlockStmt(body)
	return bound.Stmt{Kind: bound.StmtWhile, Data: bound.WhileData{Cond: cond, Body: &b}}
}

// newLambda declares the symbol of a lambda returning result.
func (e *env) newLambda(result types.TypeID) symbols.SymbolID {
	return e.table.NewMethod(symbols.MethodSpec{Name: "lambda", Owner: e.widget, Kind: symbols.MethodLambda, Result: result})
}

// lambda converts a lambda with the given symbol, parameters and body to
// typ. A nil typ means the delegate type of the lambda.
func (e *env) lambda(sym symbols.SymbolID, typ types.TypeID, body *bound.Block) *bound.Expr {
	params := e.table.Params(sym)
	if typ == types.NoTypeID {
		var pts []types.TypeID
		for _, p := range params {
			pts = append(pts, e.table.MustGet(p).Type)
		}
		typ = e.ti.Delegate(pts, e.table.MustGet(sym).Type)
	}
	lam := &bound.Expr{Kind: bound.ExprLambda, Type: typ, Span: e.span(), Data: bound.LambdaData{Method: sym, Params: params, Body: body}}
	return &bound.Expr{Kind: bound.ExprConvert, Type: typ, Span: lam.Span, Data: bound.ConvertData{Operand: lam}}
}

func (e *env) input(body *bound.Block) Input {
	return Input{Method: e.method, ContainingType: e.widget, This: e.this, Body: body}
}

type lowered struct {
	*Result
	env  *env
	bag  *diag.Bag
	coll *Buffer
}

func (e *env) lower(in Input, opts Options) *lowered {
	e.t.Helper()
	bag := diag.NewBag(100)
	coll := &Buffer{}
	opts.Symbols = e.table
	opts.Reporter = diag.BagReporter{Bag: bag}
	opts.Collector = coll
	res, err := Lower(context.Background(), in, opts)
	if err != nil {
		e.t.Fatalf("Lower: %v", err)
	}
	if err := checkLocals(e.table, res.Body); err != nil {
		e.t.Fatalf("lowered body: %v", err)
	}
	for _, m := range res.Methods {
		if err := checkLocals(e.table, m.Body); err != nil {
			e.t.Fatalf("%s: %v", e.table.Qualified(m.Method), err)
		}
	}
	return &lowered{Result: res, env: e, bag: bag, coll: coll}
}

func (l *lowered) body() string { return bound.Sprint(l.env.table, l.Body) }

// method prints the synthesized method whose qualified name is name.
func (l *lowered) method(name string) string {
	l.env.t.Helper()
	for _, m := range l.Methods {
		if l.env.table.Qualified(m.Method) == name {
			var sb strings.Builder
			bound.NewPrinter(&sb, l.env.table).PrintMethod(m.Method, m.Body)
			return sb.String()
		}
	}
	l.env.t.Fatalf("no synthesized method %s", name)
	return ""
}

func (l *lowered) methodNames() []string {
	var out []string
	for _, m := range l.Methods {
		out = append(out, l.env.table.Qualified(m.Method))
	}
	return out
}
