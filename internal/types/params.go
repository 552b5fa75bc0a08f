package types

import (
	"fmt"

	"fortio.org/safecast"
)

// ParamInfo stores metadata about a generic type parameter.
type ParamInfo struct {
	Name string
}

// NewParam allocates a fresh type parameter. Two calls with the same name
// yield different types.
func (in *Interner) NewParam(name string) TypeID {
	in.mu.Lock()
	defer in.mu.Unlock()
	n, err := safecast.Conv[uint32](len(in.params))
	if err != nil {
		panic(fmt.Errorf("len(params) overflow: %w", err))
	}
	in.params = append(in.params, ParamInfo{Name: name})
	return in.internRaw(Type{Kind: KindParam, Slot: n})
}

// ParamName returns the declared name of a type parameter.
func (in *Interner) ParamName(id TypeID) string {
	in.mu.RLock()
	defer in.mu.RUnlock()
	tt, ok := in.lookup(id)
	if !ok || tt.Kind != KindParam {
		return ""
	}
	return in.params[tt.Slot].Name
}

// FreshParams allocates one new parameter per element of like, reusing names.
func (in *Interner) FreshParams(like []TypeID) []TypeID {
	if len(like) == 0 {
		return nil
	}
	out := make([]TypeID, len(like))
	for i, p := range like {
		out[i] = in.NewParam(in.ParamName(p))
	}
	return out
}
