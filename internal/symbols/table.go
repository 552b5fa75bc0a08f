package symbols

import (
	"fmt"
	"sync"

	"lift/internal/source"
	"lift/internal/types"
)

// Table owns every symbol of one compilation. Lowering invocations run in
// parallel and each synthesizes frames, fields and methods, so all
// operations take the table lock. The lock is never held across calls.
//
// Symbols returned by Get are shared: callers treat them as read-only and
// go through Table methods for the few fields that change after creation
// (Params, Members).
type Table struct {
	mu      sync.RWMutex
	syms    arena
	strings *source.Interner
	types   *types.Interner

	object     SymbolID
	objectCtor SymbolID
}

// NewTable builds a table seeded with the root object type and its
// constructor. Nil arguments get fresh interners.
func NewTable(strings *source.Interner, typesIn *types.Interner) *Table {
	if strings == nil {
		strings = source.NewInterner()
	}
	if typesIn == nil {
		typesIn = types.NewInterner()
	}
	t := &Table{
		syms:    newArena(0),
		strings: strings,
		types:   typesIn,
	}
	objType := typesIn.Builtins().Object
	t.object = t.syms.add(&Symbol{Kind: KindType, Name: strings.Intern("object"), Type: objType})
	t.objectCtor = t.NewMethod(MethodSpec{
		Name:   ".ctor",
		Owner:  t.object,
		Kind:   MethodConstructor,
		Result: typesIn.Builtins().Void,
	})
	return t
}

// Types returns the type interner shared with the table.
func (t *Table) Types() *types.Interner { return t.types }

// Object returns the root type symbol.
func (t *Table) Object() SymbolID { return t.object }

// ObjectCtor returns the parameterless constructor of the root type.
func (t *Table) ObjectCtor() SymbolID { return t.objectCtor }

// Len reports the number of symbols.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.syms.len()
}

// Get returns the symbol or nil for an invalid ID.
func (t *Table) Get(id SymbolID) *Symbol {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.syms.get(id)
}

// MustGet panics when id is unknown.
func (t *Table) MustGet(id SymbolID) *Symbol {
	sym := t.Get(id)
	if sym == nil {
		panic(fmt.Sprintf("symbols: unknown SymbolID %d", id))
	}
	return sym
}

// Intern interns a name in the table's string interner.
func (t *Table) Intern(name string) source.StringID {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.strings.Intern(name)
}

// Name returns the name of a symbol.
func (t *Table) Name(id SymbolID) string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	sym := t.syms.get(id)
	if sym == nil {
		return "<none>"
	}
	s, _ := t.strings.Lookup(sym.Name)
	return s
}

// Params returns a copy of the parameter list of a method.
func (t *Table) Params(method SymbolID) []SymbolID {
	t.mu.RLock()
	defer t.mu.RUnlock()
	sym := t.syms.get(method)
	if sym == nil || len(sym.Params) == 0 {
		return nil
	}
	return append([]SymbolID(nil), sym.Params...)
}

// Members returns a copy of the members of a type.
func (t *Table) Members(typ SymbolID) []SymbolID {
	t.mu.RLock()
	defer t.mu.RUnlock()
	sym := t.syms.get(typ)
	if sym == nil || len(sym.Members) == 0 {
		return nil
	}
	return append([]SymbolID(nil), sym.Members...)
}

// Member finds a member of typ by name.
func (t *Table) Member(typ SymbolID, name string) SymbolID {
	t.mu.RLock()
	defer t.mu.RUnlock()
	sym := t.syms.get(typ)
	if sym == nil {
		return NoSymbolID
	}
	for _, m := range sym.Members {
		if s, _ := t.strings.Lookup(t.syms.get(m).Name); s == name {
			return m
		}
	}
	return NoSymbolID
}

// Qualified renders Owner.Name for methods and fields, Name otherwise.
func (t *Table) Qualified(id SymbolID) string {
	sym := t.Get(id)
	if sym == nil {
		return "<none>"
	}
	if (sym.Kind == KindMethod || sym.Kind == KindField) && sym.Owner.IsValid() {
		return t.Name(sym.Owner) + "." + t.Name(id)
	}
	return t.Name(id)
}
