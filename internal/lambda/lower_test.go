package lambda

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"lift/internal/bound"
	"lift/internal/diag"
	"lift/internal/source"
	"lift/internal/symbols"
	"lift/internal/types"
)

var treeOpts = cmp.Options{cmpopts.EquateEmpty()}

func TestNoClosuresIsIdentity(t *testing.T) {
	e := newEnv(t, methodOpts{result: func(e *env) types.TypeID { return e.b.Int }})
	x := e.param("x", e.b.Int)
	y := e.local(e.method, "y", e.b.Int)
	body := e.block([]symbols.SymbolID{y},
		e.assign(y, e.add(e.ref(x), e.lit("1"))),
		e.loop(e.block(nil, e.assign(y, e.add(e.ref(y), e.lit("2"))))),
		e.ret(e.ref(y)),
	)

	l := e.lower(e.input(body), Options{})
	if diff := cmp.Diff(body, l.Body, treeOpts); diff != "" {
		t.Fatalf("body changed (-want +got):\n%s", diff)
	}
	if len(l.Frames) != 0 || l.StaticContainer != nil || len(l.Methods) != 0 {
		t.Fatalf("frames=%d container=%v methods=%v", len(l.Frames), l.StaticContainer, l.methodNames())
	}
}

func TestSingleCaptureUsesOneFrame(t *testing.T) {
	e := newEnv(t, methodOpts{result: func(e *env) types.TypeID { return e.ti.Delegate(nil, e.b.Int) }})
	e.param("x", e.b.Int)
	y := e.local(e.method, "y", e.b.Int)
	lam := e.newLambda(e.b.Int)
	body := e.block([]symbols.SymbolID{y},
		e.assign(y, e.lit("1")),
		e.ret(e.lambda(lam, 0, e.block(nil, e.ret(e.ref(y))))),
	)

	l := e.lower(e.input(body), Options{})
	want := `{
  local <>8__locals0: <Run>c__DisplayClass0_0
  <>8__locals0 = new <Run>c__DisplayClass0_0();
  <>8__locals0.<y>5__1 = 1;
  return new Func<int>(<>8__locals0.<Run>b__0_0);
}
`
	if got := l.body(); got != want {
		t.Fatalf("body:\n%s\nwant:\n%s", got, want)
	}
	wantClosure := `<Run>c__DisplayClass0_0.<Run>b__0_0(): int
{
  return this.<y>5__1;
}
`
	if got := l.method("<Run>c__DisplayClass0_0.<Run>b__0_0"); got != wantClosure {
		t.Fatalf("closure:\n%s\nwant:\n%s", got, wantClosure)
	}
	if len(l.Frames) != 1 || l.Frames[0].Scope != l.Analysis.Root || l.Frames[0].Link.IsValid() {
		t.Fatalf("unexpected frames: %+v", l.Frames)
	}
	if got := l.Closures[0].Kind; got != ClosureGeneral {
		t.Fatalf("kind = %s, want general", got)
	}
	wantMethods := []string{"<Run>c__DisplayClass0_0..ctor", "<Run>c__DisplayClass0_0.<Run>b__0_0"}
	if diff := cmp.Diff(wantMethods, l.methodNames()); diff != "" {
		t.Fatalf("methods (-want +got):\n%s", diff)
	}
	if l.coll.Len() != 2 {
		t.Fatalf("collector holds %d methods, want 2", l.coll.Len())
	}
}

func TestCaptureFreeClosureIsStaticAndCached(t *testing.T) {
	e := newEnv(t, methodOpts{result: func(e *env) types.TypeID { return e.ti.Delegate(nil, e.b.Int) }})
	lam := e.newLambda(e.b.Int)
	body := e.block(nil, e.ret(e.lambda(lam, 0, e.block(nil, e.ret(e.lit("1"))))))

	l := e.lower(e.input(body), Options{})
	want := `{
  return (<>c__0.<>9__0_0 ?? <>c__0.<>9__0_0 = new Func<int>(<>c__0.<Run>b__0_0));
}
`
	if got := l.body(); got != want {
		t.Fatalf("body:\n%s\nwant:\n%s", got, want)
	}
	if len(l.Frames) != 0 || l.StaticContainer == nil {
		t.Fatalf("frames=%d container=%v", len(l.Frames), l.StaticContainer)
	}
	m := e.table.MustGet(l.Closures[0].Synth.Method)
	if !m.IsStatic() || m.Owner != l.StaticContainer.Type {
		t.Fatalf("closure method static=%v owner=%s", m.IsStatic(), e.table.Name(m.Owner))
	}
	if l.CachedSites != 1 {
		t.Fatalf("CachedSites = %d, want 1", l.CachedSites)
	}
	cache := e.table.Member(l.StaticContainer.Type, "<>9__0_0")
	if !cache.IsValid() || !e.table.MustGet(cache).IsStatic() {
		t.Fatalf("missing static cache field")
	}
}

func TestSingletonContainer(t *testing.T) {
	e := newEnv(t, methodOpts{result: func(e *env) types.TypeID { return e.ti.Delegate(nil, e.b.Int) }})
	lam := e.newLambda(e.b.Int)
	body := e.block(nil, e.ret(e.lambda(lam, 0, e.block(nil, e.ret(e.lit("1"))))))

	l := e.lower(e.input(body), Options{SingletonStatics: true})
	if !strings.Contains(l.body(), "new Func<int>(<>c__0.<>9.<Run>b__0_0)") {
		t.Fatalf("delegate not bound to the singleton:\n%s", l.body())
	}
	wantCctor := `static <>c__0..cctor(): void
{
  <>c__0.<>9 = new <>c__0();
}
`
	if got := l.method("<>c__0..cctor"); got != wantCctor {
		t.Fatalf("cctor:\n%s\nwant:\n%s", got, wantCctor)
	}
	if e.table.MustGet(l.Closures[0].Synth.Method).IsStatic() {
		t.Fatalf("singleton closure should be an instance method")
	}
}

func TestStaticConstructorDoesNotCache(t *testing.T) {
	e := newEnv(t, methodOpts{name: ".cctor", kind: symbols.MethodStaticConstructor, static: true})
	sink := e.local(e.method, "f", e.ti.Delegate(nil, e.b.Int))
	lam := e.newLambda(e.b.Int)
	body := e.block([]symbols.SymbolID{sink}, e.assign(sink, e.lambda(lam, 0, e.block(nil, e.ret(e.lit("1"))))))

	in := e.input(body)
	in.This = symbols.NoSymbolID
	l := e.lower(in, Options{})
	if l.CachedSites != 0 || strings.Contains(l.body(), "??") {
		t.Fatalf("static constructor body was cached:\n%s", l.body())
	}
}

func TestNestedClosuresLinkTwoFrames(t *testing.T) {
	inner := func(e *env) types.TypeID { return e.ti.Delegate(nil, e.b.Int) }
	e := newEnv(t, methodOpts{result: func(e *env) types.TypeID { return e.ti.Delegate(nil, inner(e)) }})
	a := e.local(e.method, "a", e.b.Int)
	outerSym := e.newLambda(inner(e))
	innerSym := e.newLambda(e.b.Int)
	b := e.local(outerSym, "b", e.b.Int)

	innerLam := e.lambda(innerSym, 0, e.block(nil, e.ret(e.add(e.ref(a), e.ref(b)))))
	outerLam := e.lambda(outerSym, 0, e.block([]symbols.SymbolID{b},
		e.assign(b, e.lit("2")),
		e.ret(innerLam),
	))
	body := e.block([]symbols.SymbolID{a}, e.assign(a, e.lit("1")), e.ret(outerLam))

	l := e.lower(e.input(body), Options{})
	if len(l.Frames) != 2 {
		t.Fatalf("got %d frames, want 2", len(l.Frames))
	}
	root, nested := l.Frames[0], l.Frames[1]
	if root.Link.IsValid() || !nested.Link.IsValid() {
		t.Fatalf("links: root=%v nested=%v", root.Link, nested.Link)
	}
	if got, want := e.table.MustGet(nested.Link).Type, e.table.MustGet(root.Type).Type; got != want {
		t.Fatalf("link type = %s, want %s", e.ti.String(got), e.ti.String(want))
	}

	outer := l.method("<Run>c__DisplayClass0_0.<Run>b__0_0")
	for _, frag := range []string{
		"local <>8__locals1: <Run>c__DisplayClass0_1",
		"<>8__locals1 = new <Run>c__DisplayClass0_1();",
		"<>8__locals1.<>8__locals0 = this;",
		"<>8__locals1.<b>5__2 = 2;",
		"return new Func<int>(<>8__locals1.<Run>b__0_1);",
	} {
		if !strings.Contains(outer, frag) {
			t.Errorf("outer closure lacks %q:\n%s", frag, outer)
		}
	}
	innerBody := l.method("<Run>c__DisplayClass0_1.<Run>b__0_1")
	if !strings.Contains(innerBody, "return (this.<>8__locals0.<a>5__1 + this.<b>5__2);") {
		t.Fatalf("inner closure does not use a two-hop path:\n%s", innerBody)
	}
	// Completion order: the inner closure finishes first.
	names := l.methodNames()
	if i, o := slices.Index(names, "<Run>c__DisplayClass0_1.<Run>b__0_1"), slices.Index(names, "<Run>c__DisplayClass0_0.<Run>b__0_0"); i > o {
		t.Fatalf("inner closure emitted after outer: %v", names)
	}
}

func TestLoopLocalGetsFramePerIteration(t *testing.T) {
	e := newEnv(t, methodOpts{})
	f := e.local(e.method, "f", e.ti.Delegate(nil, e.b.Int))
	i := e.local(e.method, "i", e.b.Int)
	lam := e.newLambda(e.b.Int)
	loopBody := e.block([]symbols.SymbolID{i},
		e.assign(i, e.lit("0")),
		e.assign(f, e.lambda(lam, 0, e.block(nil, e.ret(e.ref(i))))),
	)
	body := e.block([]symbols.SymbolID{f}, e.loop(loopBody))

	l := e.lower(e.input(body), Options{})
	if len(l.Frames) != 1 || l.Frames[0].Scope.Node != bound.ScopeNode(loopBody) {
		t.Fatalf("frame not placed on the loop body")
	}
	loop := l.Body.Stmts[0].Data.(bound.WhileData)
	newBody := loop.Body.Data.(*bound.Block)
	first := bound.Sprint(e.table, &newBody.Stmts[0])
	if first != "<>8__locals0 = new <Run>c__DisplayClass0_0();\n" {
		t.Fatalf("loop body does not start with the frame allocation: %q", first)
	}
	if len(l.Body.Locals) != 1 || l.Body.Locals[0] != f {
		t.Fatalf("frame pointer leaked into the method scope")
	}
	if l.CachedSites != 0 {
		t.Fatalf("per-iteration closure should not be cached")
	}
}

func TestClosureInLoopCachesOnOuterFrame(t *testing.T) {
	e := newEnv(t, methodOpts{})
	f := e.local(e.method, "f", e.ti.Delegate(nil, e.b.Int))
	a := e.local(e.method, "a", e.b.Int)
	lam := e.newLambda(e.b.Int)
	body := e.block([]symbols.SymbolID{f, a},
		e.loop(e.block(nil, e.assign(f, e.lambda(lam, 0, e.block(nil, e.ret(e.ref(a))))))),
	)

	l := e.lower(e.input(body), Options{})
	want := "f = (<>8__locals0.<>9__0 ?? <>8__locals0.<>9__0 = new Func<int>(<>8__locals0.<Run>b__0_0));"
	if !strings.Contains(l.body(), want) {
		t.Fatalf("body lacks %q:\n%s", want, l.body())
	}

	l2 := e.lower(e.input(body), Options{Ordinal: 1, Cache: CacheStaticOnly})
	if strings.Contains(l2.body(), "??") {
		t.Fatalf("static-only mode cached a frame closure:\n%s", l2.body())
	}
}

func TestConstructorDefersReceiverCapture(t *testing.T) {
	e := newEnv(t, methodOpts{name: ".ctor", kind: symbols.MethodConstructor})
	selfType := e.table.MustGet(e.widget).Type
	f := e.local(e.method, "f", e.ti.Delegate(nil, selfType))
	a := e.local(e.method, "a", e.b.Int)
	lam := e.newLambda(selfType)
	baseCall := e.f.ExprStmt(&bound.Expr{
		Kind: bound.ExprCall,
		Type: e.b.Void,
		Data: bound.CallData{
			Receiver: &bound.Expr{Kind: bound.ExprBase, Type: selfType, Data: bound.ThisData{Sym: e.this}},
			Method:   e.table.ObjectCtor(),
			CtorInit: true,
		},
	})
	body := e.block([]symbols.SymbolID{f, a},
		baseCall,
		e.assign(f, e.lambda(lam, 0, e.block(nil, e.assign(a, e.lit("2")), e.ret(e.ref(e.this))))),
	)

	l := e.lower(e.input(body), Options{})
	got := make([]string, len(l.Body.Stmts))
	for i := range l.Body.Stmts {
		got[i] = strings.TrimSpace(bound.Sprint(e.table, &l.Body.Stmts[i]))
	}
	want := []string{
		"<>8__locals0 = new <.ctor>c__DisplayClass0_0();",
		"base.ctor();",
		"<>8__locals0.<>4__this = this;",
		"f = new Func<Widget>(<>8__locals0.<.ctor>b__0_0);",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("constructor body (-want +got):\n%s", diff)
	}
	closure := l.method("<.ctor>c__DisplayClass0_0.<.ctor>b__0_0")
	if !strings.Contains(closure, "return this.<>4__this;") {
		t.Fatalf("receiver not reached through the frame:\n%s", closure)
	}
}

func TestConstructorWithoutInitializerStoresReceiverImmediately(t *testing.T) {
	e := newEnv(t, methodOpts{name: ".ctor", kind: symbols.MethodConstructor})
	selfType := e.table.MustGet(e.widget).Type
	a := e.local(e.method, "a", e.b.Int)
	lam := e.newLambda(selfType)
	body := e.block([]symbols.SymbolID{a},
		e.f.ExprStmt(e.lambda(lam, 0, e.block(nil, e.assign(a, e.lit("2")), e.ret(e.ref(e.this))))),
	)
	l := e.lower(e.input(body), Options{})
	if got := strings.TrimSpace(bound.Sprint(e.table, &l.Body.Stmts[1])); got != "<>8__locals0.<>4__this = this;" {
		t.Fatalf("second statement = %q", got)
	}
}

func TestLoweringIsIdempotent(t *testing.T) {
	e := newEnv(t, methodOpts{result: func(e *env) types.TypeID { return e.ti.Delegate(nil, e.b.Int) }})
	x := e.param("x", e.b.Int)
	y := e.local(e.method, "y", e.b.Int)
	lam := e.newLambda(e.b.Int)
	body := e.block([]symbols.SymbolID{y},
		e.assign(y, e.ref(x)),
		e.ret(e.lambda(lam, 0, e.block(nil, e.ret(e.add(e.ref(x), e.ref(y)))))),
	)
	first := e.lower(e.input(body), Options{})
	second := e.lower(e.input(first.Body), Options{Ordinal: 1})
	if diff := cmp.Diff(first.Body, second.Body, treeOpts); diff != "" {
		t.Fatalf("second run changed the body (-first +second):\n%s", diff)
	}
	if len(second.Frames) != 0 || len(second.Methods) != 0 {
		t.Fatalf("second run synthesized %d frames, %v", len(second.Frames), second.methodNames())
	}
	for _, m := range first.Methods {
		again := e.lower(Input{Method: m.Method, ContainingType: e.table.MustGet(m.Method).Owner, This: e.table.MustGet(m.Method).This, Body: m.Body}, Options{Ordinal: 2})
		if diff := cmp.Diff(m.Body, again.Body, treeOpts); diff != "" {
			t.Errorf("%s changed (-first +second):\n%s", e.table.Qualified(m.Method), diff)
		}
	}
}

func TestRestrictedCaptureReportsEachSite(t *testing.T) {
	e := newEnv(t, methodOpts{})
	span := e.ti.Named(e.ti.Define("Span", 0, types.DefRestricted))
	s := e.local(e.method, "s", span)
	f := e.local(e.method, "f", e.ti.Delegate(nil, span))
	lam := e.newLambda(span)
	use1, use2 := e.ref(s), e.ref(s)
	body := e.block([]symbols.SymbolID{s, f},
		e.assign(f, e.lambda(lam, 0, e.block(nil, e.f.AssignStmt(use1, use2), e.ret(e.ref(s))))),
	)

	l := e.lower(e.input(body), Options{})
	items := l.bag.Items()
	if len(items) != 3 {
		t.Fatalf("got %d diagnostics, want 3", len(items))
	}
	for _, d := range items {
		if d.Code != diag.LowerCaptureRestricted || d.Severity != diag.SevError {
			t.Errorf("unexpected diagnostic %v %v", d.Code, d.Severity)
		}
	}
	at := make(map[source.Span]bool)
	for _, d := range items {
		at[d.Primary] = true
		if len(d.Notes) != 1 || d.Notes[0].Msg != "declared here" {
			t.Errorf("notes = %+v", d.Notes)
		}
	}
	if !at[use1.Span] || !at[use2.Span] {
		t.Errorf("diagnostics not at the reference sites: %v", items)
	}
	if len(l.Methods) == 0 {
		t.Fatalf("lowering stopped after the diagnostic")
	}
}

func TestRawLambdaIsAnInvariantViolation(t *testing.T) {
	e := newEnv(t, methodOpts{})
	lam := e.newLambda(e.b.Int)
	conv := e.lambda(lam, 0, e.block(nil, e.ret(e.lit("1"))))
	raw := conv.Data.(bound.ConvertData).Operand
	body := e.block(nil, e.f.ExprStmt(raw))

	_, err := Lower(context.Background(), e.input(body), Options{Symbols: e.table})
	var ie *InvariantError
	if !errors.As(err, &ie) {
		t.Fatalf("err = %v, want *InvariantError", err)
	}
	if !strings.Contains(err.Error(), "outside a conversion") {
		t.Fatalf("unexpected message: %v", err)
	}
}

func TestLowerRequiresSymbols(t *testing.T) {
	if _, err := Lower(context.Background(), Input{}, Options{}); !errors.Is(err, ErrNoSymbols) {
		t.Fatalf("err = %v", err)
	}
}

func TestThisOnlyClosureLivesOnContainingType(t *testing.T) {
	e := newEnv(t, methodOpts{})
	selfType := e.table.MustGet(e.widget).Type
	f := e.local(e.method, "f", e.ti.Delegate(nil, selfType))
	lam := e.newLambda(selfType)
	body := e.block([]symbols.SymbolID{f},
		e.assign(f, e.lambda(lam, 0, e.block(nil, e.ret(e.ref(e.this))))),
	)

	l := e.lower(e.input(body), Options{})
	if got := l.Closures[0].Kind; got != ClosureThisOnly {
		t.Fatalf("kind = %s", got)
	}
	if len(l.Frames) != 0 {
		t.Fatalf("this-only closure allocated %d frames", len(l.Frames))
	}
	if !strings.Contains(l.body(), "f = new Func<Widget>(this.<Run>b__0_0);") {
		t.Fatalf("body:\n%s", l.body())
	}
	if got := l.method("Widget.<Run>b__0_0"); !strings.Contains(got, "return this;") {
		t.Fatalf("closure:\n%s", got)
	}
}

func TestThisOnlyClosureInLoopUsesHoistedLocal(t *testing.T) {
	e := newEnv(t, methodOpts{})
	selfType := e.table.MustGet(e.widget).Type
	f := e.local(e.method, "f", e.ti.Delegate(nil, selfType))
	lam := e.newLambda(selfType)
	body := e.block([]symbols.SymbolID{f},
		e.loop(e.block(nil, e.assign(f, e.lambda(lam, 0, e.block(nil, e.ret(e.ref(e.this))))))),
	)

	l := e.lower(e.input(body), Options{})
	out := l.body()
	for _, frag := range []string{
		"local <>9__CachedAnonymousMethodDelegate0: Func<Widget>",
		"<>9__CachedAnonymousMethodDelegate0 = null;",
		"f = (<>9__CachedAnonymousMethodDelegate0 ?? <>9__CachedAnonymousMethodDelegate0 = new Func<Widget>(this.<Run>b__0_0));",
	} {
		if !strings.Contains(out, frag) {
			t.Errorf("body lacks %q:\n%s", frag, out)
		}
	}
	if got := bound.Sprint(e.table, &l.Body.Stmts[0]); got != "<>9__CachedAnonymousMethodDelegate0 = null;\n" {
		t.Errorf("cache local not initialised first: %q", got)
	}
}

func TestExpressionTreeIsQuotedInPlace(t *testing.T) {
	fn := func(e *env) types.TypeID { return e.ti.ExprTree(e.ti.Delegate(nil, e.b.Int)) }
	e := newEnv(t, methodOpts{result: fn})
	y := e.local(e.method, "y", e.b.Int)
	lam := e.newLambda(e.b.Int)
	body := e.block([]symbols.SymbolID{y},
		e.assign(y, e.lit("3")),
		e.ret(e.lambda(lam, fn(e), e.block(nil, e.ret(e.ref(y))))),
	)

	l := e.lower(e.input(body), Options{})
	if got := l.Closures[0].Kind; got != ClosureExprTree {
		t.Fatalf("kind = %s", got)
	}
	ret := l.Body.Stmts[len(l.Body.Stmts)-1].Data.(bound.ReturnData).Value
	if ret.Kind != bound.ExprQuote {
		t.Fatalf("return value is %s, want Quote", ret.Kind)
	}
	if !strings.Contains(l.body(), "return <>8__locals0.<y>5__1;") {
		t.Fatalf("captured variable not rewritten inside the tree:\n%s", l.body())
	}
	if slices.ContainsFunc(l.methodNames(), func(n string) bool { return strings.Contains(n, "b__") }) {
		t.Fatalf("expression tree produced a closure method: %v", l.methodNames())
	}
}

func TestGenericMethodFramesMirrorTypeParameters(t *testing.T) {
	e := newEnv(t, methodOpts{typeParams: []string{"T"}})
	tp := e.typeParams()[0]
	x := e.param("x", tp)
	f := e.local(e.method, "f", e.ti.Delegate(nil, tp))
	lam := e.newLambda(tp)
	body := e.block([]symbols.SymbolID{f}, e.assign(f, e.lambda(lam, 0, e.block(nil, e.ret(e.ref(x))))))

	l := e.lower(e.input(body), Options{})
	fr := l.Frames[0]
	if len(fr.TypeParams) != 1 || fr.TypeParams[0] == tp {
		t.Fatalf("frame type params = %v, want one fresh parameter", fr.TypeParams)
	}
	field := e.table.MustGet(fr.Fields[x])
	if field.Type != fr.TypeParams[0] {
		t.Fatalf("field type = %s, want the frame's own parameter", e.ti.String(field.Type))
	}
	closure := e.table.MustGet(l.Closures[0].Synth.Method)
	if closure.Type != fr.TypeParams[0] {
		t.Fatalf("closure result type not substituted")
	}
	if !strings.Contains(l.body(), "<>8__locals0.<x>5__1 = x;") {
		t.Fatalf("parameter not copied into the frame:\n%s", l.body())
	}
	ptr := e.table.MustGet(l.Body.Locals[0])
	if got := e.ti.TypeArgs(ptr.Type); len(got) != 1 || got[0] != tp {
		t.Fatalf("frame pointer should be instantiated with the method's T")
	}
}

func TestCatchVariableCopiedAtCatchEntry(t *testing.T) {
	e := newEnv(t, methodOpts{})
	f := e.local(e.method, "f", e.ti.Delegate(nil, e.b.Object))
	ex := e.local(e.method, "ex", e.b.Object)
	lam := e.newLambda(e.b.Object)
	catch := &bound.Catch{
		Locals:        []symbols.SymbolID{ex},
		ExceptionVar:  ex,
		ExceptionType: e.b.Object,
		Body:          e.block(nil, e.assign(f, e.lambda(lam, 0, e.block(nil, e.ret(e.ref(ex)))))),
	}
	try := bound.Stmt{Kind: bound.StmtTry, Data: bound.TryData{Body: e.block(nil), Catches: []*bound.Catch{catch}}}
	body := e.block([]symbols.SymbolID{f}, try)

	l := e.lower(e.input(body), Options{})
	c := l.Body.Stmts[0].Data.(bound.TryData).Catches[0]
	if !slices.Contains(c.Locals, ex) || len(c.Locals) != 2 {
		t.Fatalf("catch locals = %v", c.Locals)
	}
	got := []string{
		strings.TrimSpace(bound.Sprint(e.table, &c.Body.Stmts[0])),
		strings.TrimSpace(bound.Sprint(e.table, &c.Body.Stmts[1])),
	}
	want := []string{
		"<>8__locals0 = new <Run>c__DisplayClass0_0();",
		"<>8__locals0.<ex>5__1 = ex;",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("catch prologue (-want +got):\n%s", diff)
	}
}

func TestCatchVariableStoredInEnclosingFrame(t *testing.T) {
	e := newEnv(t, methodOpts{})
	f := e.local(e.method, "f", e.ti.Delegate(nil, e.b.Object))
	ex := e.local(e.method, "ex", e.b.Object)
	lam := e.newLambda(e.b.Object)
	catch := &bound.Catch{
		Locals:        []symbols.SymbolID{ex},
		ExceptionVar:  ex,
		ExceptionType: e.b.Object,
		Body:          e.block(nil, e.assign(f, e.lambda(lam, 0, e.block(nil, e.ret(e.ref(ex)))))),
	}
	try := bound.Stmt{Kind: bound.StmtTry, Data: bound.TryData{Body: e.block(nil), Catches: []*bound.Catch{catch}}}
	body := e.block([]symbols.SymbolID{f}, try)

	l := e.lower(e.input(body), Options{ScopeKinds: bound.ScopeBlock})
	want := `{
  local <>8__locals0: <Run>c__DisplayClass0_0
  local f: Func<object>
  <>8__locals0 = new <Run>c__DisplayClass0_0();
  try {
  } catch (object ex) {
    <>8__locals0.<ex>5__1 = ex;
    f = new Func<object>(<>8__locals0.<Run>b__0_0);
  }
}
`
	if diff := cmp.Diff(want, l.body()); diff != "" {
		t.Fatalf("body (-want +got):\n%s", diff)
	}
}

func TestCatchVariableStoredBeforeFilter(t *testing.T) {
	for _, tc := range []struct {
		name   string
		kinds  bound.ScopeKind
		filter string
		locals int
	}{
		{
			name:   "catch frame",
			kinds:  bound.DefaultScopeKinds,
			filter: "seq(<>8__locals0 = new <Run>c__DisplayClass0_0(); <>8__locals0.<ex>5__1 = ex; (<>8__locals0.<ex>5__1 != null))",
			locals: 2,
		},
		{
			name:   "enclosing frame",
			kinds:  bound.ScopeBlock,
			filter: "seq(<>8__locals0.<ex>5__1 = ex; (<>8__locals0.<ex>5__1 != null))",
			locals: 1,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			e := newEnv(t, methodOpts{})
			f := e.local(e.method, "f", e.ti.Delegate(nil, e.b.Object))
			ex := e.local(e.method, "ex", e.b.Object)
			lam := e.newLambda(e.b.Object)
			filter := &bound.Expr{Kind: bound.ExprBinary, Type: e.b.Bool, Data: bound.BinaryData{Op: "!=", Left: e.ref(ex), Right: e.f.Null(e.b.Object)}}
			catch := &bound.Catch{
				Locals:        []symbols.SymbolID{ex},
				ExceptionVar:  ex,
				ExceptionType: e.b.Object,
				Filter:        filter,
				Body:          e.block(nil, e.assign(f, e.lambda(lam, 0, e.block(nil, e.ret(e.ref(ex)))))),
			}
			try := bound.Stmt{Kind: bound.StmtTry, Data: bound.TryData{Body: e.block(nil), Catches: []*bound.Catch{catch}}}
			body := e.block([]symbols.SymbolID{f}, try)

			l := e.lower(e.input(body), Options{ScopeKinds: tc.kinds})
			var c *bound.Catch
			for _, s := range l.Body.Stmts {
				if d, ok := s.Data.(bound.TryData); ok {
					c = d.Catches[0]
				}
			}
			if c == nil {
				t.Fatalf("no try statement:\n%s", l.body())
			}
			if got := bound.Sprint(e.table, c.Filter); got != tc.filter {
				t.Fatalf("filter:\n%s\nwant:\n%s", got, tc.filter)
			}
			if len(c.Locals) != tc.locals || !slices.Contains(c.Locals, ex) {
				t.Fatalf("catch locals = %v", c.Locals)
			}
			want := []string{"f = new Func<object>(<>8__locals0.<Run>b__0_0);\n"}
			var got []string
			for i := range c.Body.Stmts {
				got = append(got, bound.Sprint(e.table, &c.Body.Stmts[i]))
			}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Fatalf("catch body (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSwitchSectionLocalGetsSwitchFrame(t *testing.T) {
	e := newEnv(t, methodOpts{})
	f := e.local(e.method, "f", e.ti.Delegate(nil, e.b.Int))
	s := e.local(e.method, "s", e.b.Int)
	lam := e.newLambda(e.b.Int)
	sw := &bound.SwitchData{
		Value:  e.lit("1"),
		Locals: []symbols.SymbolID{s},
		Sections: []bound.SwitchSection{{
			Labels: []*bound.Expr{e.lit("1")},
			Stmts: []bound.Stmt{
				e.assign(s, e.lit("5")),
				e.assign(f, e.lambda(lam, 0, e.block(nil, e.ret(e.ref(s))))),
				{Kind: bound.StmtBreak},
			},
		}},
	}
	body := e.block([]symbols.SymbolID{f}, bound.Stmt{Kind: bound.StmtSwitch, Data: sw})

	l := e.lower(e.input(body), Options{})
	want := `{
  local f: Func<int>
  {
    local <>8__locals0: <Run>c__DisplayClass0_0
    <>8__locals0 = new <Run>c__DisplayClass0_0();
    switch (1) {
      case 1:
        <>8__locals0.<s>5__1 = 5;
        f = new Func<int>(<>8__locals0.<Run>b__0_0);
        break;
    }
  }
}
`
	if diff := cmp.Diff(want, l.body()); diff != "" {
		t.Fatalf("body (-want +got):\n%s", diff)
	}
	if len(l.Frames) != 1 || l.Frames[0].Scope != l.Analysis.ScopeOf(sw) {
		t.Fatalf("frame not owned by the switch: %+v", l.Frames)
	}
}

func TestSequenceLocalGetsSequenceFrame(t *testing.T) {
	e := newEnv(t, methodOpts{})
	fn := e.ti.Delegate(nil, e.b.Int)
	f := e.local(e.method, "f", fn)
	q := e.local(e.method, "q", e.b.Int)
	lam := e.newLambda(e.b.Int)
	seq := &bound.SequenceData{
		Locals:      []symbols.SymbolID{q},
		SideEffects: []*bound.Expr{e.f.Assign(e.ref(q), e.lit("7"))},
		Value:       e.lambda(lam, 0, e.block(nil, e.ret(e.ref(q)))),
	}
	body := e.block([]symbols.SymbolID{f},
		e.assign(f, &bound.Expr{Kind: bound.ExprSequence, Type: fn, Data: seq}),
	)

	l := e.lower(e.input(body), Options{})
	want := `{
  local f: Func<int>
  f = seq(local <>8__locals0: <Run>c__DisplayClass0_0; <>8__locals0 = new <Run>c__DisplayClass0_0(); <>8__locals0.<q>5__1 = 7; new Func<int>(<>8__locals0.<Run>b__0_0));
}
`
	if diff := cmp.Diff(want, l.body()); diff != "" {
		t.Fatalf("body (-want +got):\n%s", diff)
	}

	// Without sequence scopes q belongs to the method body.
	e = newEnv(t, methodOpts{})
	f = e.local(e.method, "f", fn)
	q = e.local(e.method, "q", e.b.Int)
	lam = e.newLambda(e.b.Int)
	seq = &bound.SequenceData{
		Locals:      []symbols.SymbolID{q},
		SideEffects: []*bound.Expr{e.f.Assign(e.ref(q), e.lit("7"))},
		Value:       e.lambda(lam, 0, e.block(nil, e.ret(e.ref(q)))),
	}
	body = e.block([]symbols.SymbolID{f},
		e.assign(f, &bound.Expr{Kind: bound.ExprSequence, Type: fn, Data: seq}),
	)
	l = e.lower(e.input(body), Options{ScopeKinds: bound.ScopeBlock})
	if len(l.Frames) != 1 || l.Frames[0].Scope != l.Analysis.Root {
		t.Fatalf("frame not owned by the body: %+v", l.Frames)
	}
}

func TestMethodGroupReceiverIsCaptured(t *testing.T) {
	e := newEnv(t, methodOpts{})
	fn := e.ti.Delegate(nil, e.b.Int)
	get := e.table.NewMethod(symbols.MethodSpec{Name: "Get", Owner: e.widget, Result: e.b.Int})
	f := e.local(e.method, "f", e.ti.Delegate(nil, fn))
	lam := e.newLambda(fn)
	group := e.f.Delegate(fn, e.ref(e.this), get, nil)
	body := e.block([]symbols.SymbolID{f}, e.assign(f, e.lambda(lam, 0, e.block(nil, e.ret(group)))))

	l := e.lower(e.input(body), Options{})
	if got := l.Closures[0].Kind; got != ClosureThisOnly {
		t.Fatalf("kind = %s, want this-only", got)
	}
	if !strings.Contains(l.body(), "f = new Func<Func<int>>(this.<Run>b__0_0);") {
		t.Fatalf("body:\n%s", l.body())
	}
	want := `Widget.<Run>b__0_0(): Func<int>
{
  return new Func<int>(this.Get);
}
`
	if diff := cmp.Diff(want, l.method("Widget.<Run>b__0_0")); diff != "" {
		t.Fatalf("closure (-want +got):\n%s", diff)
	}
}

func TestAssignLocalsKeepsOriginals(t *testing.T) {
	e := newEnv(t, methodOpts{})
	y := e.local(e.method, "y", e.b.Int)
	f := e.local(e.method, "f", e.ti.Delegate(nil, e.b.Int))
	lam := e.newLambda(e.b.Int)
	body := e.block([]symbols.SymbolID{y, f}, e.assign(f, e.lambda(lam, 0, e.block(nil, e.ret(e.ref(y))))))

	in := e.input(body)
	in.AssignLocals = true
	l := e.lower(in, Options{})
	if !slices.Contains(l.Body.Locals, y) {
		t.Fatalf("captured local dropped in assign-locals mode")
	}
	if !strings.Contains(l.body(), "<>8__locals0.<y>5__1 = y;") {
		t.Fatalf("captured local not copied:\n%s", l.body())
	}
}

type recordingModule struct {
	types, fields, methods int
}

func (m *recordingModule) AddSynthesizedType(symbols.SymbolID)        { m.types++ }
func (m *recordingModule) AddSynthesizedField(_, _ symbols.SymbolID)  { m.fields++ }
func (m *recordingModule) AddSynthesizedMethod(_, _ symbols.SymbolID) { m.methods++ }

func TestModuleNotifiedOnlyWhenEmitting(t *testing.T) {
	build := func(e *env) *bound.Block {
		y := e.local(e.method, "y", e.b.Int)
		lam := e.newLambda(e.b.Int)
		return e.block([]symbols.SymbolID{y}, e.f.ExprStmt(e.lambda(lam, 0, e.block(nil, e.ret(e.ref(y))))))
	}

	quiet := &recordingModule{}
	e := newEnv(t, methodOpts{})
	e.lower(e.input(build(e)), Options{Module: quiet})
	if *quiet != (recordingModule{}) {
		t.Fatalf("analysis-only run notified the module: %+v", *quiet)
	}

	loud := &recordingModule{}
	e = newEnv(t, methodOpts{})
	e.lower(e.input(build(e)), Options{Module: loud, Emitting: true})
	if want := (recordingModule{types: 1, fields: 1, methods: 2}); *loud != want {
		t.Fatalf("notifications = %+v, want %+v", *loud, want)
	}
}
