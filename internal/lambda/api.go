package lambda

import (
	"context"
	"errors"
	"fmt"

	"lift/internal/bound"
	"lift/internal/diag"
	"lift/internal/symbols"
	"lift/internal/trace"
)

// Input is one method body to lower.
type Input struct {
	Method symbols.SymbolID
	// ContainingType declares Method.
	ContainingType symbols.SymbolID
	// This is the receiver parameter; NoSymbolID for static methods.
	This symbols.SymbolID
	Body *bound.Block
	// AssignLocals keeps captured locals declared and copies them into
	// their fields on scope entry. Debugger evaluation needs the originals.
	AssignLocals bool
}

// CacheMode selects which delegates are cached.
type CacheMode uint8

const (
	// CacheSyntactic caches capture-free closures, and closures with a loop
	// or another lambda between them and their frame scope.
	CacheSyntactic CacheMode = iota
	// CacheStaticOnly caches capture-free closures only.
	CacheStaticOnly
)

func (m CacheMode) String() string {
	if m == CacheStaticOnly {
		return "static-only"
	}
	return "syntactic"
}

// ParseCacheMode converts a config string to a CacheMode.
func ParseCacheMode(s string) (CacheMode, error) {
	switch s {
	case "", "syntactic":
		return CacheSyntactic, nil
	case "static-only":
		return CacheStaticOnly, nil
	default:
		return CacheSyntactic, fmt.Errorf("invalid cache mode %q (expected: syntactic|static-only)", s)
	}
}

// ModuleBuilder is notified of every synthesized definition when the
// compilation is emitting.
type ModuleBuilder interface {
	AddSynthesizedType(typ symbols.SymbolID)
	AddSynthesizedField(typ, field symbols.SymbolID)
	AddSynthesizedMethod(typ, method symbols.SymbolID)
}

// ExprTreeBuilder lowers a lambda conversion to an expression-tree type.
// conv is an ExprConvert whose operand is the lambda, with captured
// outer variables already replaced by frame field accesses.
type ExprTreeBuilder interface {
	Build(conv *bound.Expr) *bound.Expr
}

// QuoteBuilder wraps the conversion in an ExprQuote node.
type QuoteBuilder struct{}

func (QuoteBuilder) Build(conv *bound.Expr) *bound.Expr {
	return &bound.Expr{Kind: bound.ExprQuote, Type: conv.Type, Span: conv.Span, Data: bound.QuoteData{Lambda: conv}}
}

// Options configure one lowering call.
type Options struct {
	Symbols *symbols.Table
	// Ordinal is this method's value from the shared naming.Counter.
	Ordinal   int
	Reporter  diag.Reporter
	Collector MethodCollector
	Module    ModuleBuilder
	// Emitting enables Module notifications.
	Emitting  bool
	ExprTrees ExprTreeBuilder
	// ScopeKinds selects the node kinds that introduce scopes; zero means all.
	ScopeKinds bound.ScopeKind
	// SingletonStatics hosts capture-free closures as instance methods on
	// a singleton container instead of static methods.
	SingletonStatics bool
	Cache            CacheMode
}

func (o *Options) defaults() {
	if o.Reporter == nil {
		o.Reporter = diag.NopReporter{}
	}
	if o.ExprTrees == nil {
		o.ExprTrees = QuoteBuilder{}
	}
	if o.ScopeKinds == 0 {
		o.ScopeKinds = bound.DefaultScopeKinds
	}
}

// Result is the output of Lower.
type Result struct {
	Body *bound.Block
	// Frames in pre-order of their scopes.
	Frames          []*Frame
	StaticContainer *Frame
	Closures        []*Closure
	// Methods are the synthesized (method, body) pairs in emission order:
	// frame constructors, container constructors, then closure bodies in
	// completion order.
	Methods []MethodWithBody
	// CachedSites counts delegate creations wrapped in a cache check.
	CachedSites int
	Analysis    *Analysis
}

// InvariantError reports a defect in the pass itself, never a user error.
type InvariantError struct {
	Msg string
}

func (e *InvariantError) Error() string { return "lambda: internal invariant violated: " + e.Msg }

func invariant(format string, args ...any) {
	panic(&InvariantError{Msg: fmt.Sprintf(format, args...)})
}

// ErrNoSymbols is returned when Options.Symbols is nil.
var ErrNoSymbols = errors.New("lambda: Options.Symbols is required")

// Lower runs closure conversion over one method body. Diagnostics go to
// opts.Reporter; synthesized methods go to opts.Collector (if set) and to
// Result.Methods. A violated internal invariant is returned as an error
// wrapping *InvariantError.
func Lower(ctx context.Context, in Input, opts Options) (res *Result, err error) {
	if opts.Symbols == nil {
		return nil, ErrNoSymbols
	}
	opts.defaults()
	defer func() {
		if r := recover(); r != nil {
			ie, ok := r.(*InvariantError)
			if !ok {
				panic(r)
			}
			res, err = nil, fmt.Errorf("lower %s: %w", opts.Symbols.Qualified(in.Method), ie)
		}
	}()

	_, span := trace.Start(ctx, trace.ScopePass, "analyze")
	an := Analyze(opts.Symbols, in, opts.ScopeKinds)
	span.WithExtra("scopes", fmt.Sprint(len(an.Scopes))).WithExtra("closures", fmt.Sprint(len(an.Closures))).End("")

	_, span = trace.Start(ctx, trace.ScopePass, "optimize")
	optimize(an, opts.SingletonStatics)
	span.End("")

	sctx, span := trace.Start(ctx, trace.ScopePass, "synthesize")
	syn := synthesize(an, in, &opts)
	for _, f := range syn.frames {
		trace.Point(sctx, trace.ScopeNode, "frame", opts.Symbols.Name(f.Type), map[string]string{
			"fields": fmt.Sprint(len(f.Order)),
		})
	}
	for _, c := range an.Closures {
		name := opts.Symbols.Name(c.Method)
		if c.Synth != nil {
			name = opts.Symbols.Name(c.Synth.Method)
		}
		trace.Point(sctx, trace.ScopeNode, "closure", name, map[string]string{
			"kind":     c.Kind.String(),
			"captures": fmt.Sprint(len(c.Captures)),
		})
	}
	span.End("")

	_, span = trace.Start(ctx, trace.ScopePass, "rewrite")
	body, cached := rewrite(an, syn, in, &opts)
	span.WithExtra("cached", fmt.Sprint(cached)).End("")

	if debugChecks {
		if err := checkLocals(opts.Symbols, body); err != nil {
			invariant("%v", err)
		}
		for _, m := range syn.methods {
			if err := checkLocals(opts.Symbols, m.Body); err != nil {
				invariant("%s: %v", opts.Symbols.Qualified(m.Method), err)
			}
		}
	}

	res = &Result{
		Body:            body,
		Frames:          syn.frames,
		StaticContainer: syn.container,
		Closures:        an.Closures,
		Methods:         syn.methods,
		CachedSites:     cached,
		Analysis:        an,
	}
	if opts.Collector != nil {
		opts.Collector.AddMethods(opts.Ordinal, res.Methods)
	}
	return res, nil
}
