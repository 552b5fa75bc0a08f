package trace

import "time"

// Kind is the type of an event.
type Kind uint8

const (
	KindSpanBegin Kind = iota + 1
	KindSpanEnd
	KindPoint
	KindHeartbeat
)

var kindNames = [...]string{KindSpanBegin: "begin", KindSpanEnd: "end", KindPoint: "point", KindHeartbeat: "heartbeat"}

// kindMarks prefix events in text output.
var kindMarks = [...]string{KindSpanBegin: "→ ", KindSpanEnd: "← ", KindPoint: "• ", KindHeartbeat: "♡ "}

func (k Kind) String() string { return lookup(kindNames[:], int(k)) }

// Scope is the granularity of an event. Coarser scopes have lower values,
// which is what Level.ShouldEmit relies on.
type Scope uint8

const (
	// ScopeDriver covers whole-file work: load, bind, lower, render.
	ScopeDriver Scope = iota + 1
	// ScopePass covers one stage of lowering a method.
	ScopePass
	ScopeMethod
	ScopeNode // frames and closures
)

var scopeNames = [...]string{ScopeDriver: "driver", ScopePass: "pass", ScopeMethod: "method", ScopeNode: "node"}

func (s Scope) String() string { return lookup(scopeNames[:], int(s)) }

func lookup(names []string, i int) string {
	if i > 0 && i < len(names) && names[i] != "" {
		return names[i]
	}
	return "unknown"
}

// Event is one trace record.
type Event struct {
	Time     time.Time
	Seq      uint64 // assigned at emission, monotonic across the process
	Kind     Kind
	Scope    Scope
	SpanID   uint64 // 0 for points and heartbeats
	ParentID uint64
	Lane     uint64 // worker lane, 0 for the driver
	Name     string
	Detail   string
	Extra    map[string]string
}
