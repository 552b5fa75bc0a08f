package lambda

import (
	"slices"
	"sync"

	"lift/internal/bound"
	"lift/internal/symbols"
)

// MethodWithBody is a synthesized method and its lowered body.
type MethodWithBody struct {
	Method symbols.SymbolID
	Body   *bound.Block
}

// MethodCollector receives the synthesized methods of one lowering call.
type MethodCollector interface {
	AddMethods(ordinal int, methods []MethodWithBody)
}

// Buffer is the per-compilation MethodCollector. It is safe for
// concurrent use and returns methods ordered by method ordinal, so the
// result does not depend on goroutine scheduling.
type Buffer struct {
	mu      sync.Mutex
	batches []batch
}

type batch struct {
	ordinal int
	methods []MethodWithBody
}

// AddMethods records methods produced for the method with the given ordinal.
func (b *Buffer) AddMethods(ordinal int, methods []MethodWithBody) {
	if len(methods) == 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.batches = append(b.batches, batch{ordinal: ordinal, methods: slices.Clone(methods)})
}

// Methods returns every collected method ordered by ordinal, then by
// emission order within one lowering call.
func (b *Buffer) Methods() []MethodWithBody {
	b.mu.Lock()
	batches := slices.Clone(b.batches)
	b.mu.Unlock()
	slices.SortStableFunc(batches, func(x, y batch) int { return x.ordinal - y.ordinal })
	var out []MethodWithBody
	for _, bt := range batches {
		out = append(out, bt.methods...)
	}
	return out
}

// Len reports the number of collected methods.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, bt := range b.batches {
		n += len(bt.methods)
	}
	return n
}
