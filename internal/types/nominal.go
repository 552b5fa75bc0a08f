package types

import (
	"fmt"

	"fortio.org/safecast"
)

// DefID identifies a named type definition.
type DefID uint32

// NoDefID marks the absence of a definition.
const NoDefID DefID = 0

// DefFlags describe a definition.
type DefFlags uint8

const (
	// DefFrame marks a synthesized closure frame.
	DefFrame DefFlags = 1 << iota
	// DefRestricted marks a stack-only type that cannot be stored in a heap field.
	DefRestricted
	// DefSynthesized marks any compiler-generated definition.
	DefSynthesized
)

// Def stores metadata for a named type definition.
type Def struct {
	Name  string
	Arity int
	Flags DefFlags
}

// Define allocates a new definition. Names are not required to be unique.
func (in *Interner) Define(name string, arity int, flags DefFlags) DefID {
	in.mu.Lock()
	defer in.mu.Unlock()
	n, err := safecast.Conv[uint32](len(in.defs))
	if err != nil {
		panic(fmt.Errorf("len(defs) overflow: %w", err))
	}
	in.defs = append(in.defs, Def{Name: name, Arity: arity, Flags: flags})
	return DefID(n)
}

// DefInfo returns the metadata for def.
func (in *Interner) DefInfo(def DefID) (Def, bool) {
	in.mu.RLock()
	defer in.mu.RUnlock()
	if def == NoDefID || int(def) >= len(in.defs) {
		return Def{}, false
	}
	return in.defs[def], true
}

// Named returns the instantiation def<args...>. It panics when the number
// of arguments does not match the definition's arity.
func (in *Interner) Named(def DefID, args ...TypeID) TypeID {
	in.mu.Lock()
	defer in.mu.Unlock()
	if def == NoDefID || int(def) >= len(in.defs) {
		panic(fmt.Sprintf("types: unknown DefID %d", def))
	}
	if got, want := len(args), in.defs[def].Arity; got != want {
		panic(fmt.Sprintf("types: %s expects %d type arguments, got %d", in.defs[def].Name, want, got))
	}
	return in.intern(Type{Kind: KindNamed, Def: def, Args: args})
}

// DefOf returns the definition of a named type, or NoDefID.
func (in *Interner) DefOf(id TypeID) DefID {
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindNamed {
		return NoDefID
	}
	return tt.Def
}

// TypeArgs returns the type arguments of a named type.
func (in *Interner) TypeArgs(id TypeID) []TypeID {
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindNamed || len(tt.Args) == 0 {
		return nil
	}
	return append([]TypeID(nil), tt.Args...)
}

// HasFlag reports whether id is a named type whose definition carries flag.
func (in *Interner) HasFlag(id TypeID, flag DefFlags) bool {
	in.mu.RLock()
	defer in.mu.RUnlock()
	tt, ok := in.lookup(id)
	if !ok || tt.Kind != KindNamed {
		return false
	}
	return in.defs[tt.Def].Flags&flag != 0
}

// IsRestricted reports whether a value of type id cannot live on the heap.
func (in *Interner) IsRestricted(id TypeID) bool {
	return in.HasFlag(id, DefRestricted)
}

// IsFrame reports whether id is an instantiation of a synthesized frame.
func (in *Interner) IsFrame(id TypeID) bool {
	return in.HasFlag(id, DefFrame)
}
