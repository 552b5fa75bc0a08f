package trace

import (
	"fmt"
	"strings"
)

// Level controls how much is traced.
type Level uint8

const (
	LevelOff    Level = iota
	LevelError        // nothing streamed; the ring is dumped on panic
	LevelPhase        // driver phases and lowering passes
	LevelDetail       // plus one span per method
	LevelDebug        // plus frame and closure points
)

var levelNames = [...]string{"off", "error", "phase", "detail", "debug"}

func (l Level) String() string {
	if int(l) < len(levelNames) {
		return levelNames[l]
	}
	return "unknown"
}

// ParseLevel converts a --trace-level value. The empty string is LevelOff.
func ParseLevel(s string) (Level, error) {
	want := strings.ToLower(strings.TrimSpace(s))
	if want == "" {
		return LevelOff, nil
	}
	for l, name := range levelNames {
		if name == want {
			return Level(l), nil
		}
	}
	return LevelOff, fmt.Errorf("invalid trace level: %q (expected: off|error|phase|detail|debug)", s)
}

// ShouldEmit reports whether events of scope are recorded at level l.
func (l Level) ShouldEmit(scope Scope) bool {
	switch l {
	case LevelPhase:
		return scope <= ScopePass
	case LevelDetail:
		return scope <= ScopeMethod
	case LevelDebug:
		return true
	}
	return false
}
