package driver

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"lift/internal/diag"
	"lift/internal/lambda"
	"lift/internal/naming"
	"lift/internal/observ"
	"lift/internal/trace"
	"lift/internal/unit"
)

func jobsFor(jobs, n int) int {
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	return max(1, min(jobs, n))
}

// lowerMethods lowers the selected methods of u concurrently. Ordinals
// are drawn in input order before fan-out, and every method reports into
// its own bag, so the output does not depend on scheduling. A site
// reported twice within one method is kept once.
func lowerMethods(ctx context.Context, u *unit.Unit, opts *Options, res *Result, stats *observ.Stats) error {
	var counter naming.Counter
	results := make([]MethodResult, len(u.Methods))
	bags := make([]*diag.Bag, len(u.Methods))
	for i, m := range u.Methods {
		name := u.Table.Qualified(m.Sym)
		results[i] = MethodResult{Name: name, Ordinal: -1}
		switch {
		case !opts.selected(name):
			results[i].Skipped = true
		case m.Broken:
			results[i].Skipped, results[i].Broken = true, true
		default:
			results[i].Ordinal = counter.Next()
		}
	}

	for i := range results {
		status := MethodQueued
		if results[i].Skipped {
			status = MethodSkipped
		}
		opts.progress(MethodEvent{Method: results[i].Name, Status: status})
	}

	buf := &lambda.Buffer{}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobsFor(opts.Jobs, len(u.Methods)))
	for i, m := range u.Methods {
		if results[i].Skipped {
			continue
		}
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			start := time.Now()
			opts.progress(MethodEvent{Method: results[i].Name, Status: MethodWorking})
			bags[i] = diag.NewBag(res.Bag.Cap())
			results[i].Result, results[i].Err = lowerOne(gctx, u, m, results[i], opts, bags[i], buf, res.Module)
			done := MethodEvent{Method: results[i].Name, Status: MethodError, Elapsed: time.Since(start)}
			if r := results[i].Result; r != nil {
				stats.Methods.Add(1)
				stats.Frames.Add(int64(len(r.Frames)))
				stats.Closures.Add(int64(len(r.Closures)))
				stats.CachedSites.Add(int64(r.CachedSites))
				stats.Synthesized.Add(int64(len(r.Methods)))
				if !bags[i].HasErrors() {
					done.Status, done.Closures = MethodDone, len(r.Closures)
				}
			}
			opts.progress(done)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, b := range bags {
		res.Bag.Merge(b)
	}
	res.Methods = results
	res.Synthesized = buf.Methods()
	return nil
}

func lowerOne(ctx context.Context, u *unit.Unit, m *unit.Method, mr MethodResult, opts *Options,
	bag *diag.Bag, buf *lambda.Buffer, mod *Module) (*lambda.Result, error) {
	ctx = trace.WithLane(ctx, uint64(mr.Ordinal)+1)
	ctx, span := trace.Start(ctx, trace.ScopeMethod, mr.Name)
	span.WithExtra("ordinal", fmt.Sprint(mr.Ordinal))

	rep := diag.NewDedupReporter(diag.BagReporter{Bag: bag})
	in := m.Input(u.Table)
	if opts.AssignLocals {
		in.AssignLocals = true
	}
	r, err := lambda.Lower(ctx, in, lambda.Options{
		Symbols:          u.Table,
		Ordinal:          mr.Ordinal,
		Reporter:         rep,
		Collector:        buf,
		Module:           mod,
		Emitting:         opts.Emitting,
		ScopeKinds:       opts.ScopeKinds,
		SingletonStatics: opts.SingletonStatics,
		Cache:            opts.Cache,
	})
	if err != nil {
		bag.Add(diag.NewError(diag.LowerInternal, m.Span, err.Error()))
		span.End("failed")
		return nil, err
	}
	if n := rep.Suppressed(); n > 0 {
		span.WithExtra("suppressed", fmt.Sprint(n))
	}
	span.WithExtra("frames", fmt.Sprint(len(r.Frames))).End("")
	return r, nil
}
