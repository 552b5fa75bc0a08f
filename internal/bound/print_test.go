package bound

import (
	"strings"
	"testing"

	"lift/internal/source"
	"lift/internal/symbols"
	"lift/internal/types"
)

type fixture struct {
	table  *symbols.Table
	f      *Factory
	widget symbols.SymbolID
	run    symbols.SymbolID
	get    symbols.SymbolID
	x      symbols.SymbolID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	table := symbols.NewTable(nil, nil)
	ti := table.Types()
	b := ti.Builtins()
	widget := table.NewType(symbols.TypeSpec{Name: "Widget", Def: ti.Define("Widget", 0, 0)})
	run := table.NewMethod(symbols.MethodSpec{Name: "Run", Owner: widget, Result: b.Void})
	get := table.NewMethod(symbols.MethodSpec{Name: "Get", Owner: widget, Result: b.Int})
	x := table.NewParam(run, "x", b.Int, source.Span{})
	return &fixture{table: table, f: NewFactory(table, source.Span{}), widget: widget, run: run, get: get, x: x}
}

func TestPrintMethod(t *testing.T) {
	fx := newFixture(t)
	ti := fx.table.Types()
	b := ti.Builtins()
	f := fx.f
	y := fx.table.NewLocal(fx.run, "y", b.Int, 0, source.Span{})
	this := fx.table.Get(fx.run).This

	sum := &Expr{Kind: ExprBinary, Type: b.Int, Data: BinaryData{Op: "+", Left: f.Var(fx.x), Right: &Expr{Kind: ExprLiteral, Type: b.Int, Data: LiteralData{Value: "1"}}}}
	body := f.Block([]symbols.SymbolID{y},
		f.AssignStmt(f.Var(y), sum),
		f.Return(f.Delegate(ti.Delegate(nil, b.Int), f.Var(this), fx.get, nil)),
	)

	var sb strings.Builder
	NewPrinter(&sb, fx.table).PrintMethod(fx.run, body)
	want := `Widget.Run(x: int): void
{
  local y: int
  y = (x + 1);
  return new Func<int>(this.Get);
}
`
	if got := sb.String(); got != want {
		t.Fatalf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestPrintControlFlow(t *testing.T) {
	fx := newFixture(t)
	b := fx.table.Types().Builtins()
	f := fx.f
	cond := &Expr{Kind: ExprLiteral, Type: b.Bool, Data: LiteralData{Value: "true"}}
	e := fx.table.NewLocal(fx.run, "e", b.Object, 0, source.Span{})

	loop := Stmt{Kind: StmtWhile, Data: WhileData{Cond: cond, Body: &Stmt{Kind: StmtBreak}}}
	try := Stmt{Kind: StmtTry, Data: TryData{
		Body:    f.Block(nil, loop),
		Catches: []*Catch{{Locals: []symbols.SymbolID{e}, ExceptionVar: e, ExceptionType: b.Object, Body: f.Block(nil)}},
		Finally: f.Block(nil, Stmt{Kind: StmtNoOp}),
	}}

	want := `try {
  while (true) break;
} catch (object e) {
} finally {
  ;
}
`
	if got := Sprint(fx.table, &try); got != want {
		t.Fatalf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestFieldTypeFollowsReceiverArguments(t *testing.T) {
	table := symbols.NewTable(nil, nil)
	ti := table.Types()
	tp := ti.NewParam("T")
	boxDef := ti.Define("Box", 1, 0)
	box := table.NewType(symbols.TypeSpec{Name: "Box", Def: boxDef, TypeParams: []types.TypeID{tp}})
	val := table.NewField(box, "value", tp, 0)

	m := table.NewMethod(symbols.MethodSpec{Name: "M", Flags: symbols.FlagStatic})
	local := table.NewLocal(m, "b", ti.Named(boxDef, ti.Builtins().String), 0, source.Span{})

	f := NewFactory(table, source.Span{})
	got := f.Field(f.Var(local), val)
	if got.Type != ti.Builtins().String {
		t.Fatalf("field type = %s, want string", ti.String(got.Type))
	}
	if s := Sprint(table, got); s != "b.value" {
		t.Errorf("Sprint = %q", s)
	}
}

func TestContainsHelpers(t *testing.T) {
	fx := newFixture(t)
	f := fx.f
	b := fx.table.Types().Builtins()
	lam := fx.table.NewMethod(symbols.MethodSpec{Name: "lambda", Kind: symbols.MethodLambda, Result: b.Int})
	inner := &Expr{Kind: ExprLambda, Type: fx.table.Types().Delegate(nil, b.Int), Data: LambdaData{
		Method: lam,
		Body:   f.Block(nil, fx.f.CtorInit(f.Var(fx.table.Get(fx.run).This), fx.table.ObjectCtor())),
	}}
	conv := &Expr{Kind: ExprConvert, Type: inner.Type, Data: ConvertData{Operand: inner}}
	body := f.Block(nil, f.ExprStmt(conv))

	if !ContainsLambda(body) {
		t.Errorf("lambda not found")
	}
	if ContainsCtorInit(body) {
		t.Errorf("ctor init inside a lambda must not count")
	}
	if !ContainsCtorInit(f.Block(nil, f.CtorInit(f.Var(fx.table.Get(fx.run).This), fx.table.ObjectCtor()))) {
		t.Errorf("ctor init not found")
	}
	if _, ok := conv.Lambda(); !ok {
		t.Errorf("Lambda() did not unwrap the conversion")
	}
}
