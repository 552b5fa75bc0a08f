package symbols

import (
	"fmt"

	"fortio.org/safecast"
)

// arena stores declared symbols. Index 0 is reserved for NoSymbolID.
// Elements are pointers so a *Symbol stays valid while the arena grows.
type arena struct {
	data []*Symbol
}

func newArena(capacity int) arena {
	if capacity <= 0 {
		capacity = 64
	}
	a := arena{data: make([]*Symbol, 1, capacity+1)}
	a.data[0] = &Symbol{}
	return a
}

func (a *arena) add(sym *Symbol) SymbolID {
	value, err := safecast.Conv[uint32](len(a.data))
	if err != nil {
		panic(fmt.Errorf("symbols arena overflow: %w", err))
	}
	sym.ID = SymbolID(value)
	a.data = append(a.data, sym)
	return sym.ID
}

func (a *arena) get(id SymbolID) *Symbol {
	if !id.IsValid() || int(id) >= len(a.data) {
		return nil
	}
	return a.data[id]
}

func (a *arena) len() int { return len(a.data) - 1 }
