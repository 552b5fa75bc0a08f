package unit

import (
	"fmt"

	"fortio.org/safecast"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"lift/internal/bound"
	"lift/internal/diag"
	"lift/internal/naming"
	"lift/internal/source"
	"lift/internal/symbols"
	"lift/internal/types"
)

// binder turns YAML nodes into symbols and bound trees. It keeps going
// after an error; failed stays set until the current method is done.
type binder struct {
	file  *source.File
	rep   diag.Reporter
	table *symbols.Table
	ti    *types.Interner
	b     types.Builtins
	f     *bound.Factory

	typeNames map[string]symbols.SymbolID
	// typeParams are the generic parameters visible in the current method.
	typeParams map[string]types.TypeID

	// owner receives locals declared in the current body: the method or
	// the innermost lambda.
	owner  symbols.SymbolID
	method symbols.SymbolID
	self   symbols.SymbolID
	scopes []map[string]symbols.SymbolID
	failed bool
}

func newBinder(f *source.File, r diag.Reporter) *binder {
	table := symbols.NewTable(nil, nil)
	ti := table.Types()
	return &binder{
		file:      f,
		rep:       r,
		table:     table,
		ti:        ti,
		b:         ti.Builtins(),
		f:         bound.NewFactory(table, source.Span{File: f.ID}),
		typeNames: make(map[string]symbols.SymbolID),
	}
}

// span covers the first token of n.
func (b *binder) span(n *yaml.Node) source.Span {
	if n == nil {
		return source.Span{File: b.file.ID}
	}
	line, errL := safecast.Conv[uint32](n.Line)
	col, errC := safecast.Conv[uint32](n.Column)
	if errL != nil || errC != nil {
		panic(fmt.Errorf("node position overflow: %d:%d", n.Line, n.Column))
	}
	start := b.file.Offset(source.LineCol{Line: line, Col: col})
	width := len(n.Value)
	if n.Kind == yaml.MappingNode && len(n.Content) > 0 {
		width = len(n.Content[0].Value)
	}
	w, err := safecast.Conv[uint32](max(width, 1))
	if err != nil {
		panic(fmt.Errorf("node width overflow: %w", err))
	}
	return source.Span{File: b.file.ID, Start: start, End: start + w}
}

func (b *binder) errorf(code diag.Code, n *yaml.Node, format string, args ...any) {
	b.failed = true
	b.rep.Report(code, diag.SevError, b.span(n), fmt.Sprintf(format, args...), nil)
}

// ident normalizes a declared or referenced name to NFC and checks that
// source code may use it.
func (b *binder) ident(n *yaml.Node) (string, bool) {
	name := norm.NFC.String(n.Value)
	if n.Kind != yaml.ScalarNode || !naming.ValidIdentifier(name) {
		b.errorf(diag.FixBadIdentifier, n, "invalid identifier %q", n.Value)
		return "", false
	}
	return name, true
}

// pairs iterates the key/value pairs of a mapping in document order.
func (b *binder) pairs(n *yaml.Node, what string, fn func(key, val *yaml.Node)) {
	if n == nil {
		return
	}
	if n.Kind != yaml.MappingNode {
		b.errorf(diag.FixBadDocument, n, "%s must be a mapping", what)
		return
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		fn(n.Content[i], n.Content[i+1])
	}
}

// items iterates a sequence. A single non-sequence node counts as a
// one-element sequence.
func (b *binder) items(n *yaml.Node, fn func(item *yaml.Node)) {
	if n == nil {
		return
	}
	if n.Kind != yaml.SequenceNode {
		fn(n)
		return
	}
	for _, it := range n.Content {
		fn(it)
	}
}

// fields decodes a mapping into a key lookup, reporting unknown keys.
func (b *binder) fields(n *yaml.Node, what string, known ...string) map[string]*yaml.Node {
	out := make(map[string]*yaml.Node)
	b.pairs(n, what, func(key, val *yaml.Node) {
		for _, k := range known {
			if key.Value == k {
				out[k] = val
				return
			}
		}
		b.errorf(diag.FixUnknownNode, key, "unknown %s field %q", what, key.Value)
	})
	return out
}

func (b *binder) require(fs map[string]*yaml.Node, at *yaml.Node, what, key string) *yaml.Node {
	if n := fs[key]; n != nil {
		return n
	}
	b.errorf(diag.FixMissingField, at, "%s requires %q", what, key)
	return nil
}

// single splits a one-key mapping into its key and value. A scalar is
// its own key with no value.
func (b *binder) single(n *yaml.Node, what string) (string, *yaml.Node, bool) {
	switch {
	case n.Kind == yaml.ScalarNode:
		return n.Value, nil, true
	case n.Kind == yaml.MappingNode && len(n.Content) == 2:
		return n.Content[0].Value, n.Content[1], true
	}
	b.errorf(diag.FixBadDocument, n, "%s must be a scalar or a single-key mapping", what)
	return "", nil, false
}

func (b *binder) flag(n *yaml.Node) bool {
	if n == nil {
		return false
	}
	var v bool
	if err := n.Decode(&v); err != nil {
		b.errorf(diag.FixBadDocument, n, "expected a boolean: %v", err)
	}
	return v
}

func (b *binder) push() { b.scopes = append(b.scopes, make(map[string]symbols.SymbolID)) }
func (b *binder) pop()  { b.scopes = b.scopes[:len(b.scopes)-1] }

func (b *binder) bind(name string, sym symbols.SymbolID, at *yaml.Node) {
	top := b.scopes[len(b.scopes)-1]
	if _, dup := top[name]; dup {
		b.errorf(diag.FixDuplicateSymbol, at, "%s is already declared in this scope", name)
		return
	}
	top[name] = sym
}

func (b *binder) lookup(name string) symbols.SymbolID {
	for i := len(b.scopes) - 1; i >= 0; i-- {
		if sym, ok := b.scopes[i][name]; ok {
			return sym
		}
	}
	return symbols.NoSymbolID
}

// declareLocals binds a name: type mapping as locals of the current owner.
func (b *binder) declareLocals(n *yaml.Node) []symbols.SymbolID {
	var out []symbols.SymbolID
	b.pairs(n, "locals", func(key, val *yaml.Node) {
		name, ok := b.ident(key)
		if !ok {
			return
		}
		sym := b.table.NewLocal(b.owner, name, b.typeOf(val), 0, b.span(key))
		b.bind(name, sym, key)
		out = append(out, sym)
	})
	return out
}

// declareParams adds a name: type mapping as parameters of method.
func (b *binder) declareParams(method symbols.SymbolID, n *yaml.Node) {
	b.pairs(n, "params", func(key, val *yaml.Node) {
		if name, ok := b.ident(key); ok {
			b.table.NewParam(method, name, b.typeOf(val), b.span(key))
		}
	})
}

// bindParams makes the parameters of method visible in the current scope.
func (b *binder) bindParams(method symbols.SymbolID, at *yaml.Node) {
	for _, p := range b.table.Params(method) {
		b.bind(b.table.Name(p), p, at)
	}
}
