package trace

import (
	"fmt"
	"sync"
	"time"
)

// Heartbeat emits periodic driver-scope events. A trace that keeps
// beating without span ends points at a stuck method rather than a slow one.
type Heartbeat struct {
	stop chan struct{}
	once sync.Once
	done sync.WaitGroup
}

// StartHeartbeat starts beating into tracer every interval. It returns nil
// when tracing is off or interval is not positive; Stop accepts nil.
func StartHeartbeat(tracer Tracer, interval time.Duration) *Heartbeat {
	if tracer == nil || !tracer.Enabled() || interval <= 0 {
		return nil
	}
	h := &Heartbeat{stop: make(chan struct{})}
	h.done.Add(1)
	go h.beat(tracer, interval)
	return h
}

func (h *Heartbeat) beat(tracer Tracer, interval time.Duration) {
	defer h.done.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for n := 1; ; n++ {
		select {
		case <-h.stop:
			return
		case now := <-ticker.C:
			tracer.Emit(&Event{
				Time:   now,
				Seq:    NextSeq(),
				Kind:   KindHeartbeat,
				Scope:  ScopeDriver,
				Name:   "heartbeat",
				Detail: fmt.Sprintf("#%d", n),
			})
		}
	}
}

// Stop ends the heartbeat and waits for the goroutine to exit.
func (h *Heartbeat) Stop() {
	if h == nil {
		return
	}
	h.once.Do(func() { close(h.stop) })
	h.done.Wait()
}
