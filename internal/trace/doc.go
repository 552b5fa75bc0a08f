// Package trace provides structured tracing for the lowering driver.
//
// A Tracer is carried through context.Context together with the current
// span, and receives span begin/end and point events. Spans nest by parent
// ID and carry the lane of the worker that opened them, so a run shows up as
//
//	driver:lower
//	  method:Widget.Run
//	    pass:analyze / pass:rewrite
//	      node events (frame and closure creation, at debug level)
//
// Implementations: the nop tracer (default), StreamTracer (immediate text or
// NDJSON output), RingTracer (last N events kept for crash dumps) and
// MultiTracer (fan-out). Heartbeat emits periodic liveness events so a hung
// run can be told apart from a slow one.
//
//	ctx = trace.WithTracer(ctx, tracer)
//	ctx, span := trace.Start(ctx, trace.ScopePass, "rewrite")
//	defer span.End("")
package trace
