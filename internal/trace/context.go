package trace

import "context"

type ctxKey struct{}

// FromContext returns the Tracer carried by ctx, or Nop.
func FromContext(ctx context.Context) Tracer {
	if ctx == nil {
		return Nop
	}
	if t, ok := ctx.Value(ctxKey{}).(Tracer); ok {
		return t
	}
	return Nop
}

// WithTracer attaches a Tracer to context.
func WithTracer(ctx context.Context, t Tracer) context.Context {
	if t == nil {
		t = Nop
	}
	return context.WithValue(ctx, ctxKey{}, t)
}

// SpanContext is the innermost emitted span and the lane its events are
// tagged with.
type SpanContext struct {
	SpanID uint64
	// Lane identifies the worker slot; 0 is the driver itself.
	Lane uint64
}

type spanCtxKey struct{}

// CurrentSpan returns the span context carried by ctx, or the zero value.
func CurrentSpan(ctx context.Context) SpanContext {
	if ctx == nil {
		return SpanContext{}
	}
	if sc, ok := ctx.Value(spanCtxKey{}).(SpanContext); ok {
		return sc
	}
	return SpanContext{}
}

// WithLane tags spans and points started under ctx with lane.
func WithLane(ctx context.Context, lane uint64) context.Context {
	sc := CurrentSpan(ctx)
	sc.Lane = lane
	return context.WithValue(ctx, spanCtxKey{}, sc)
}
