package trace

import (
	"io"
	"sync"
)

// RingTracer keeps the most recent events in a fixed-size buffer so they
// can be dumped when a run panics.
type RingTracer struct {
	mu      sync.Mutex
	buf     []Event
	written uint64
	level   Level
}

// NewRingTracer returns a ring holding up to size events.
func NewRingTracer(size int, level Level) *RingTracer {
	if size <= 0 {
		size = defaultRingSize
	}
	return &RingTracer{buf: make([]Event, size), level: level}
}

func (t *RingTracer) Emit(ev *Event) {
	if ev.Kind != KindHeartbeat && !t.level.ShouldEmit(ev.Scope) {
		return
	}
	t.mu.Lock()
	t.buf[t.written%uint64(len(t.buf))] = *ev
	t.written++
	t.mu.Unlock()
}

// Snapshot copies the kept events, oldest first.
func (t *RingTracer) Snapshot() []Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	size := uint64(len(t.buf))
	if t.written <= size {
		return append([]Event(nil), t.buf[:t.written]...)
	}
	start := t.written % size
	out := make([]Event, 0, size)
	out = append(out, t.buf[start:]...)
	return append(out, t.buf[:start]...)
}

// Dump writes the snapshot to w.
func (t *RingTracer) Dump(w io.Writer, format Format) error {
	for _, ev := range t.Snapshot() {
		if _, err := w.Write(FormatEvent(&ev, format)); err != nil {
			return err
		}
	}
	return nil
}

func (t *RingTracer) Flush() error  { return nil }
func (t *RingTracer) Close() error  { return nil }
func (t *RingTracer) Level() Level  { return t.level }
func (t *RingTracer) Enabled() bool { return t.level > LevelOff }

// Ring returns the ring buffer behind t, looking through a MultiTracer.
// It returns nil when t keeps no ring.
func Ring(t Tracer) *RingTracer {
	switch t := t.(type) {
	case *RingTracer:
		return t
	case *MultiTracer:
		for _, inner := range t.tracers {
			if r := Ring(inner); r != nil {
				return r
			}
		}
	}
	return nil
}
