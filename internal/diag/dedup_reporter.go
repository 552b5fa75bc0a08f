package diag

import "lift/internal/source"

type reportKey struct {
	code Code
	sev  Severity
	at   source.Span
	msg  string
}

// DedupReporter forwards each distinct report once. Two reports are the
// same when code, severity, primary span and message all match.
type DedupReporter struct {
	next       Reporter
	seen       map[reportKey]struct{}
	suppressed int
}

func NewDedupReporter(next Reporter) *DedupReporter {
	return &DedupReporter{next: next, seen: make(map[reportKey]struct{})}
}

func (r *DedupReporter) Report(code Code, sev Severity, primary source.Span, msg string, notes []Note) {
	k := reportKey{code: code, sev: sev, at: primary, msg: msg}
	if _, dup := r.seen[k]; dup {
		r.suppressed++
		return
	}
	r.seen[k] = struct{}{}
	if r.next != nil {
		r.next.Report(code, sev, primary, msg, notes)
	}
}

// Suppressed is the number of repeats dropped so far.
func (r *DedupReporter) Suppressed() int { return r.suppressed }
