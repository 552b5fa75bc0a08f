package driver

import (
	"time"

	"lift/internal/observ"
)

// PhaseStatus reports whether a phase started or finished.
type PhaseStatus int

const (
	// PhaseStart indicates that a driver phase has begun.
	PhaseStart PhaseStatus = iota
	PhaseEnd
)

// PhaseEvent describes a timing phase boundary.
type PhaseEvent struct {
	Name    string
	Status  PhaseStatus
	Elapsed time.Duration
}

// PhaseObserver receives phase events emitted during LowerFile.
type PhaseObserver func(PhaseEvent)

// phases couples the timer with the observer so both see the same
// boundaries.
type phases struct {
	timer    *observ.Timer
	observer PhaseObserver
}

func (p phases) run(name string, fn func() string) {
	if p.observer != nil {
		p.observer(PhaseEvent{Name: name, Status: PhaseStart})
	}
	start := time.Now()
	idx := p.timer.Begin(name)
	note := fn()
	p.timer.End(idx, note)
	if p.observer != nil {
		p.observer(PhaseEvent{Name: name, Status: PhaseEnd, Elapsed: time.Since(start)})
	}
}
