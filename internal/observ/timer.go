package observ

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Timer records the driver phases of one run, in the order they began.
// It is safe for concurrent use.
type Timer struct {
	mu     sync.Mutex
	starts []time.Time
	phases []PhaseReport
}

func NewTimer() *Timer { return &Timer{} }

// Begin opens a phase and returns the handle End expects.
func (t *Timer) Begin(name string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.starts = append(t.starts, time.Now())
	t.phases = append(t.phases, PhaseReport{Name: name})
	return len(t.phases) - 1
}

// End closes the phase idx. Unknown handles are ignored.
func (t *Timer) End(idx int, note string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if idx < 0 || idx >= len(t.phases) {
		return
	}
	t.phases[idx].DurationMS = millis(time.Since(t.starts[idx]))
	t.phases[idx].Note = note
}

// PhaseReport is one finished phase.
type PhaseReport struct {
	Name       string  `json:"name" msgpack:"name"`
	DurationMS float64 `json:"duration_ms" msgpack:"duration_ms"`
	Note       string  `json:"note,omitempty" msgpack:"note,omitempty"`
}

// Report is the serialized timing of a run. TotalMS sums the phases.
type Report struct {
	TotalMS float64       `json:"total_ms" msgpack:"total_ms"`
	Phases  []PhaseReport `json:"phases" msgpack:"phases"`
}

// Report snapshots the phases recorded so far; it is zero for an unused
// Timer.
func (t *Timer) Report() Report {
	t.mu.Lock()
	defer t.mu.Unlock()
	var r Report
	if len(t.phases) == 0 {
		return r
	}
	r.Phases = append([]PhaseReport(nil), t.phases...)
	for _, p := range r.Phases {
		r.TotalMS += p.DurationMS
	}
	return r
}

// Print writes one aligned line per phase followed by the total.
func (r Report) Print(w io.Writer) {
	for _, p := range r.Phases {
		fmt.Fprintf(w, "%-8s %7.1f ms", p.Name, p.DurationMS)
		if p.Note != "" {
			fmt.Fprintf(w, "  (%s)", p.Note)
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "%-8s %7.1f ms\n", "total", r.TotalMS)
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
