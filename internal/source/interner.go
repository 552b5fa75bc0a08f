package source

import (
	"fmt"
	"slices"

	"fortio.org/safecast"
)

// StringID is a handle to an interned identifier.
type StringID uint32

const NoStringID StringID = 0

// Interner deduplicates identifiers. It is not synchronised; owners such
// as symbols.Table guard it with their own lock.
type Interner struct {
	byID  []string
	index map[string]StringID
}

func NewInterner() *Interner {
	return &Interner{
		byID:  []string{""},
		index: map[string]StringID{"": NoStringID},
	}
}

// Intern returns the ID of s, adding it on first use.
func (i *Interner) Intern(s string) StringID {
	if id, ok := i.index[s]; ok {
		return id
	}
	n, err := safecast.Conv[uint32](len(i.byID))
	if err != nil {
		panic(fmt.Errorf("interner overflow: %w", err))
	}
	cpy := string([]byte(s))
	id := StringID(n)
	i.byID = append(i.byID, cpy)
	i.index[cpy] = id
	return id
}

// Lookup returns the string for id.
func (i *Interner) Lookup(id StringID) (string, bool) {
	if !i.Has(id) {
		return "", false
	}
	return i.byID[id], true
}

// MustLookup panics on an unknown id.
func (i *Interner) MustLookup(id StringID) string {
	s, ok := i.Lookup(id)
	if !ok {
		panic("invalid string ID")
	}
	return s
}

func (i *Interner) Has(id StringID) bool {
	return int(id) < len(i.byID)
}

// Len counts interned strings including the empty sentinel.
func (i *Interner) Len() int {
	return len(i.byID)
}

func (i *Interner) Snapshot() []string {
	return slices.Clone(i.byID)
}
