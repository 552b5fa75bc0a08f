package symbols

import (
	"sync"
	"testing"

	"lift/internal/types"
)

func TestObjectIsSeeded(t *testing.T) {
	table := NewTable(nil, nil)
	obj := table.Get(table.Object())
	if obj == nil || obj.Kind != KindType {
		t.Fatalf("object type missing: %+v", obj)
	}
	ctor := table.Get(table.ObjectCtor())
	if ctor.MethodKind != MethodConstructor || ctor.Owner != table.Object() {
		t.Fatalf("object ctor = %+v", ctor)
	}
	if !ctor.This.IsValid() {
		t.Fatalf("instance ctor must have a this parameter")
	}
	if got := table.Qualified(table.ObjectCtor()); got != "object..ctor" {
		t.Errorf("Qualified = %q", got)
	}
}

func TestMethodDeclarations(t *testing.T) {
	table := NewTable(nil, nil)
	ti := table.Types()
	tp := ti.NewParam("T")
	def := ti.Define("Widget", 1, 0)
	widget := table.NewType(TypeSpec{Name: "Widget", Def: def, TypeParams: []types.TypeID{tp}})

	run := table.NewMethod(MethodSpec{Name: "Run", Owner: widget, Result: ti.Builtins().Void})
	x := table.NewParam(run, "x", tp, table.Get(run).Span)
	stat := table.NewMethod(MethodSpec{Name: "Make", Owner: widget, Flags: FlagStatic})
	lam := table.NewMethod(MethodSpec{Name: "lambda", Owner: widget, Kind: MethodLambda})

	if got := table.Params(run); len(got) != 1 || got[0] != x {
		t.Fatalf("Params = %v", got)
	}
	this := table.Get(table.Get(run).This)
	if this == nil || this.Kind != KindThis || this.Type != table.Get(widget).Type {
		t.Fatalf("this = %+v", this)
	}
	if table.Get(stat).This.IsValid() || table.Get(lam).This.IsValid() {
		t.Errorf("static methods and lambdas have no this")
	}
	if got := table.Members(widget); len(got) != 2 {
		t.Errorf("Members = %v, lambdas must not be members", got)
	}
	if table.Member(widget, "Run") != run || table.Member(widget, "Nope").IsValid() {
		t.Errorf("Member lookup failed")
	}
	if table.TypeOfDef(def) != widget {
		t.Errorf("TypeOfDef did not find Widget")
	}
}

func TestConcurrentDeclarationsGetDistinctIDs(t *testing.T) {
	table := NewTable(nil, nil)
	var wg sync.WaitGroup
	ids := make([]SymbolID, 64)
	for i := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids[i] = table.NewLocal(NoSymbolID, "v", table.Types().Builtins().Int, 0, table.Get(table.Object()).Span)
		}()
	}
	wg.Wait()
	seen := make(map[SymbolID]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			t.Fatalf("duplicate id %d", id)
		}
		seen[id] = true
	}
}
