package trace

import (
	"context"
	"sync/atomic"
	"time"
)

var (
	globalSeq   atomic.Uint64
	globalSpans atomic.Uint64
)

// NextSeq returns a monotonically increasing sequence number.
func NextSeq() uint64 { return globalSeq.Add(1) }

// Span is an open span returned by Start. The zero Span is inert.
type Span struct {
	tracer  Tracer
	id      uint64
	parent  uint64
	lane    uint64
	scope   Scope
	name    string
	started time.Time
	extra   map[string]string
}

// Start begins a span under the span carried by ctx and returns a context
// carrying the new one. A span the tracer's level filters out is inert,
// and ctx is returned as is so nested spans attach to the nearest
// emitted ancestor.
func Start(ctx context.Context, scope Scope, name string) (context.Context, *Span) {
	t := FromContext(ctx)
	if !t.Enabled() || !t.Level().ShouldEmit(scope) {
		return ctx, &Span{}
	}
	cur := CurrentSpan(ctx)
	s := &Span{
		tracer:  t,
		id:      globalSpans.Add(1),
		parent:  cur.SpanID,
		lane:    cur.Lane,
		scope:   scope,
		name:    name,
		started: time.Now(),
	}
	s.emit(KindSpanBegin, s.started, "", nil)
	return context.WithValue(ctx, spanCtxKey{}, SpanContext{SpanID: s.id, Lane: s.lane}), s
}

func (s *Span) emit(kind Kind, at time.Time, detail string, extra map[string]string) {
	s.tracer.Emit(&Event{
		Time:     at,
		Seq:      NextSeq(),
		Kind:     kind,
		Scope:    s.scope,
		SpanID:   s.id,
		ParentID: s.parent,
		Lane:     s.lane,
		Name:     s.name,
		Detail:   detail,
		Extra:    extra,
	})
}

// End emits the end event and returns the span's duration.
func (s *Span) End(detail string) time.Duration {
	if s == nil || s.tracer == nil {
		return 0
	}
	now := time.Now()
	s.emit(KindSpanEnd, now, detail, s.extra)
	return now.Sub(s.started)
}

// WithExtra adds a key-value pair to the end event.
func (s *Span) WithExtra(key, value string) *Span {
	if s == nil || s.tracer == nil {
		return s
	}
	if s.extra == nil {
		s.extra = make(map[string]string)
	}
	s.extra[key] = value
	return s
}

// ID returns the span ID, 0 for an inert span.
func (s *Span) ID() uint64 {
	if s == nil {
		return 0
	}
	return s.id
}

// Point emits an instant event under the span carried by ctx. It is used
// for per-node facts such as a frame or closure being synthesized.
func Point(ctx context.Context, scope Scope, name, detail string, extra map[string]string) {
	t := FromContext(ctx)
	if !t.Enabled() || !t.Level().ShouldEmit(scope) {
		return
	}
	cur := CurrentSpan(ctx)
	t.Emit(&Event{
		Time:     time.Now(),
		Seq:      NextSeq(),
		Kind:     KindPoint,
		Scope:    scope,
		ParentID: cur.SpanID,
		Lane:     cur.Lane,
		Name:     name,
		Detail:   detail,
		Extra:    extra,
	})
}
