package ui

import (
	"strings"
	"testing"

	"lift/internal/driver"
)

func TestProgressTracksMethods(t *testing.T) {
	events := make(chan driver.MethodEvent)
	m := NewProgressModel("unit.yaml", events).(*progressModel)

	for _, ev := range []driver.MethodEvent{
		{Method: "Widget.Counter", Status: driver.MethodQueued},
		{Method: "Widget.Plain", Status: driver.MethodSkipped},
		{Method: "Widget.Counter", Status: driver.MethodWorking},
	} {
		m.Update(eventMsg(ev))
	}
	if got := m.fraction(); got != 0.75 {
		t.Fatalf("fraction = %v, want 0.75", got)
	}

	m.Update(eventMsg(driver.MethodEvent{Method: "Widget.Counter", Status: driver.MethodDone, Closures: 2}))
	if got := m.fraction(); got != 1 {
		t.Fatalf("fraction = %v, want 1", got)
	}
	if len(m.items) != 2 || m.items[0].name != "Widget.Counter" {
		t.Fatalf("items = %+v", m.items)
	}

	_, cmd := m.Update(doneMsg{})
	if cmd == nil || !m.done {
		t.Fatal("done should quit")
	}
	view := m.View()
	for _, want := range []string{"done: unit.yaml (2 closures)", "Widget.Counter", "Widget.Plain", "skipped"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("Widget.Counter", 9); got != "Widget..." {
		t.Errorf("truncate = %q", got)
	}
	if got := truncate("short", 20); got != "short" {
		t.Errorf("truncate = %q", got)
	}
}
