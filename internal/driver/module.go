package driver

import (
	"slices"
	"sync"

	"lift/internal/symbols"
)

// Module records the definitions synthesized while lowering a unit. It
// implements lambda.ModuleBuilder and is safe for concurrent use.
type Module struct {
	mu      sync.Mutex
	types   []symbols.SymbolID
	members map[symbols.SymbolID][]symbols.SymbolID
}

// NewModule returns an empty module.
func NewModule() *Module {
	return &Module{members: make(map[symbols.SymbolID][]symbols.SymbolID)}
}

func (m *Module) AddSynthesizedType(typ symbols.SymbolID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.types = append(m.types, typ)
}

func (m *Module) AddSynthesizedField(typ, field symbols.SymbolID) {
	m.add(typ, field)
}

func (m *Module) AddSynthesizedMethod(typ, method symbols.SymbolID) {
	m.add(typ, method)
}

func (m *Module) add(typ, member symbols.SymbolID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.members[typ] = append(m.members[typ], member)
}

// Types returns the synthesized types sorted by symbol ID. IDs depend on
// scheduling when several jobs run; render by name for stable output.
func (m *Module) Types() []symbols.SymbolID {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := slices.Clone(m.types)
	slices.Sort(out)
	return out
}

// Members returns the synthesized members added to typ, which may be a
// user type for this-only closures.
func (m *Module) Members(typ symbols.SymbolID) []symbols.SymbolID {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := slices.Clone(m.members[typ])
	slices.Sort(out)
	return out
}

// Hosts returns every type that received a synthesized member.
func (m *Module) Hosts() []symbols.SymbolID {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]symbols.SymbolID, 0, len(m.members))
	for typ := range m.members {
		out = append(out, typ)
	}
	slices.Sort(out)
	return out
}
