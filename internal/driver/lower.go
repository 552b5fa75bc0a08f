package driver

import (
	"context"
	"errors"
	"fmt"

	"lift/internal/bound"
	"lift/internal/diag"
	"lift/internal/lambda"
	"lift/internal/observ"
	"lift/internal/source"
	"lift/internal/trace"
	"lift/internal/unit"
)

// MethodResult is the outcome of lowering one method.
type MethodResult struct {
	Name    string
	Ordinal int
	// Result is nil when the method was skipped or lowering failed.
	Result *lambda.Result
	Err    error
	// Skipped is set for methods that did not bind or were not selected.
	Skipped bool
	Broken  bool
}

// Result is the outcome of LowerFile.
type Result struct {
	Path    string
	FileSet *source.FileSet
	File    source.FileID
	// Unit is nil when the result came from the disk cache.
	Unit        *unit.Unit
	Bag         *diag.Bag
	Methods     []MethodResult
	Synthesized []lambda.MethodWithBody
	Module      *Module
	Stats       observ.StatsSnapshot
	Timing      observ.Report
	Output      string
	Cached      bool
}

// Failed reports whether any diagnostic is an error or any method failed.
func (r *Result) Failed() bool {
	if r.Bag.HasErrors() {
		return true
	}
	for _, m := range r.Methods {
		if m.Err != nil {
			return true
		}
	}
	return false
}

// LowerFile loads the unit at path, lowers its methods and renders the
// result. Only I/O, YAML syntax and cancellation are returned as errors;
// everything else ends up in Result.Bag.
func LowerFile(ctx context.Context, path string, opts Options) (*Result, error) {
	if opts.ScopeKinds == 0 {
		opts.ScopeKinds = bound.DefaultScopeKinds
	}
	ctx, span := trace.Start(ctx, trace.ScopeDriver, "lower_file")
	span.WithExtra("path", path)

	timer := observ.NewTimer()
	ph := phases{timer: timer, observer: opts.PhaseObserver}
	res := &Result{
		Path:    path,
		FileSet: source.NewFileSet(),
		Bag:     diag.NewBag(opts.maxDiagnostics()),
		Module:  NewModule(),
	}
	if opts.BaseDir != "" {
		res.FileSet.SetBaseDir(opts.BaseDir)
	}

	var err error
	ph.run("load", func() string {
		res.File, err = res.FileSet.Load(path)
		return ""
	})
	if err != nil {
		span.End("load failed")
		return nil, err
	}

	key := CacheKey(Digest(res.FileSet.Get(res.File).Hash), &opts)
	if res.fromCache(opts.DiskCache, key, &opts) {
		res.Timing = timer.Report()
		span.WithExtra("cached", "true").End("")
		return res, nil
	}

	var u *unit.Unit
	ph.run("bind", func() string {
		u, err = unit.Parse(res.FileSet, res.File, diag.BagReporter{Bag: res.Bag})
		if u == nil {
			return ""
		}
		return fmt.Sprintf("%d methods", len(u.Methods))
	})
	if err != nil && !errors.Is(err, unit.ErrNoMethods) {
		span.End("bind failed")
		return nil, err
	}
	res.Unit = u

	var stats observ.Stats
	if u != nil {
		ph.run("lower", func() string {
			err = lowerMethods(ctx, u, &opts, res, &stats)
			return fmt.Sprintf("jobs=%d", jobsFor(opts.Jobs, len(u.Methods)))
		})
		if err != nil {
			span.End("cancelled")
			return nil, err
		}
	}
	res.Stats = stats.Snapshot()
	res.Bag.Sort()

	ph.run("render", func() string {
		res.Output = Render(res)
		return ""
	})
	res.Timing = timer.Report()

	if opts.DiskCache != nil && !res.Failed() {
		payload := &DiskPayload{Path: path, Output: res.Output, Stats: res.Stats, Diagnostics: toCached(res.Bag)}
		if err := opts.DiskCache.Put(key, payload); err != nil {
			res.cacheUnavailable(err)
		}
	}
	if opts.Timings {
		appendTimingDiagnostic(res.Bag, timingPayload{Path: path, TotalMS: res.Timing.TotalMS, Phases: res.Timing.Phases, Stats: res.Stats})
	}
	span.WithExtra("methods", fmt.Sprint(res.Stats.Methods)).End("")
	return res, nil
}

// fromCache fills res from a cache hit. Cache failures are reported and
// treated as misses.
func (r *Result) fromCache(c *DiskCache, key Digest, opts *Options) bool {
	if c == nil {
		return false
	}
	var payload DiskPayload
	ok, err := c.Get(key, &payload)
	if err != nil {
		r.cacheUnavailable(err)
		return false
	}
	if !ok {
		return false
	}
	r.Bag = fromCached(payload.Diagnostics, r.File, opts.maxDiagnostics())
	r.Output = payload.Output
	r.Stats = payload.Stats
	r.Cached = true
	return true
}

func (r *Result) cacheUnavailable(err error) {
	r.Bag.Add(diag.New(diag.SevWarning, diag.LowerCacheUnavailable, source.Span{File: r.File},
		fmt.Sprintf("disk cache unavailable: %v", err)))
}
