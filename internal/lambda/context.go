package lambda

import (
	"lift/internal/bound"
	"lift/internal/symbols"
	"lift/internal/types"
)

// layer is a persistent map: with returns a new layer and leaves the
// receiver untouched, so a context can be captured and restored freely.
type layer[K comparable, V any] struct {
	parent *layer[K, V]
	key    K
	val    V
}

func (l *layer[K, V]) get(k K) (V, bool) {
	for ; l != nil; l = l.parent {
		if l.key == k {
			return l.val, true
		}
	}
	var zero V
	return zero, false
}

func (l *layer[K, V]) with(k K, v V) *layer[K, V] {
	return &layer[K, V]{parent: l, key: k, val: v}
}

// holder is a value denoting an instance of container: a frame-pointer
// local or a receiver.
type holder struct {
	sym       symbols.SymbolID
	container symbols.SymbolID
}

func (h holder) valid() bool { return h.sym.IsValid() }

// proxy replaces a variable, or an outer frame pointer, with a field of
// the frame owner.
type proxy struct {
	owner symbols.SymbolID
	field symbols.SymbolID
}

// accessPath is Root.Fields[0].Fields[1]...
type accessPath struct {
	Root   symbols.SymbolID
	Fields []symbols.SymbolID
}

func (p accessPath) extend(field symbols.SymbolID) accessPath {
	fields := make([]symbols.SymbolID, len(p.Fields)+1)
	copy(fields, p.Fields)
	fields[len(p.Fields)] = field
	return accessPath{Root: p.Root, Fields: fields}
}

// methodState is shared by every context of one (synthesized) method.
type methodState struct {
	// cache locals hoisted to the top of the method, with their `= null`.
	locals []symbols.SymbolID
	inits  []bound.Stmt
	cached map[int]symbols.SymbolID
}

// rewriteContext is the immutable state of the rewriter at one point of
// the tree. Entering a frame-bearing scope or a closure body derives a new
// context; leaving it simply drops the derived value.
type rewriteContext struct {
	method symbols.SymbolID
	// body is the original body of method.
	body *bound.Block

	frameThis          symbols.SymbolID
	frameThisContainer symbols.SymbolID
	innermost          holder

	framePointers *layer[symbols.SymbolID, holder]
	proxies       *layer[symbols.SymbolID, proxy]

	typeParams []types.TypeID
	typeMap    types.Subst
	inExprTree bool

	state *methodState

	frameMemo map[symbols.SymbolID]accessPath
	varMemo   map[symbols.SymbolID]accessPath
}

func (c *rewriteContext) derive() *rewriteContext {
	n := *c
	n.frameMemo = nil
	n.varMemo = nil
	return &n
}

// framePath resolves the path to the active instance of container.
func (c *rewriteContext) framePath(container symbols.SymbolID) accessPath {
	if p, ok := c.frameMemo[container]; ok {
		return p
	}
	var p accessPath
	switch h, ok := c.framePointers.get(container); {
	case c.frameThis.IsValid() && c.frameThisContainer == container:
		p = accessPath{Root: c.frameThis}
	case !ok:
		invariant("no active frame pointer for type %d", container)
	default:
		if px, linked := c.proxies.get(h.sym); linked {
			p = c.framePath(px.owner).extend(px.field)
		} else {
			p = accessPath{Root: h.sym}
		}
	}
	if c.frameMemo == nil {
		c.frameMemo = make(map[symbols.SymbolID]accessPath)
	}
	c.frameMemo[container] = p
	return p
}

// varPath resolves the field path of a lifted variable, or reports false
// when v has no proxy in this context.
func (c *rewriteContext) varPath(v symbols.SymbolID) (accessPath, bool) {
	if p, ok := c.varMemo[v]; ok {
		return p, true
	}
	px, ok := c.proxies.get(v)
	if !ok {
		return accessPath{}, false
	}
	p := c.framePath(px.owner).extend(px.field)
	if c.varMemo == nil {
		c.varMemo = make(map[symbols.SymbolID]accessPath)
	}
	c.varMemo[v] = p
	return p, true
}
