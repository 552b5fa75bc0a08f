package driver

import (
	"lift/internal/bound"
	"lift/internal/lambda"
)

// Options configures one lowering run.
type Options struct {
	// Jobs bounds the number of methods lowered at once; <= 0 means GOMAXPROCS.
	Jobs           int
	MaxDiagnostics int

	Cache            lambda.CacheMode
	ScopeKinds       bound.ScopeKind
	SingletonStatics bool
	// Emitting records synthesized definitions in Result.Module.
	Emitting bool
	// AssignLocals forces assign-locals mode for every method.
	AssignLocals bool

	// Only restricts lowering to these qualified method names.
	Only []string

	// BaseDir is the directory relative diagnostic paths are rendered
	// against; the working directory when empty.
	BaseDir string

	// Timings appends the phase timings to the bag as an info diagnostic.
	Timings bool

	DiskCache     *DiskCache
	PhaseObserver PhaseObserver
	// Progress receives per-method events. Cache hits report none.
	Progress ProgressSink
}

func (o *Options) maxDiagnostics() int {
	if o.MaxDiagnostics <= 0 {
		return 100
	}
	return o.MaxDiagnostics
}

func (o *Options) selected(name string) bool {
	if len(o.Only) == 0 {
		return true
	}
	for _, n := range o.Only {
		if n == name {
			return true
		}
	}
	return false
}
