package testkit

import (
	"context"
	"strings"
	"testing"

	"lift/internal/bound"
	"lift/internal/diag"
	"lift/internal/lambda"
	"lift/internal/source"
	"lift/internal/unit"
)

const sample = `methods:
  - name: Make
    params: {x: int}
    result: Func<int>
    body:
      - return: {lambda: {result: int, body: [{return: {add: [x, 1]}}]}}
`

func parse(t *testing.T) (*source.FileSet, *unit.Unit) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("sample.yaml", []byte(sample))
	bag := diag.NewBag(10)
	u, err := unit.Parse(fs, id, diag.BagReporter{Bag: bag})
	if err != nil || bag.HasErrors() {
		t.Fatalf("parse: %v %v", err, bag.Items())
	}
	return fs, u
}

func TestBoundAndLoweredTreesKeepSpans(t *testing.T) {
	fs, u := parse(t)
	m := u.Methods[0]
	if err := CheckSpanInvariants(fs, u.File, m.Body); err != nil {
		t.Fatalf("bound: %v", err)
	}
	if err := CheckLowered(m.Body); err == nil {
		t.Fatal("bound body still holds a lambda")
	}

	res, err := lambda.Lower(context.Background(), m.Input(u.Table), lambda.Options{
		Symbols:    u.Table,
		Collector:  &lambda.Buffer{},
		ScopeKinds: bound.DefaultScopeKinds,
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := CheckSpanInvariants(fs, u.File, res.Body); err != nil {
		t.Errorf("lowered: %v", err)
	}
	if err := CheckLowered(res.Body); err != nil {
		t.Errorf("lowered: %v", err)
	}
}

func TestSpanOutsideFileIsReported(t *testing.T) {
	fs, u := parse(t)
	body := u.Methods[0].Body
	body.Stmts[0].Span.End = 1 << 20
	err := CheckSpanInvariants(fs, u.File, body)
	if err == nil || !strings.Contains(err.Error(), "beyond content") {
		t.Fatalf("err = %v", err)
	}
}
