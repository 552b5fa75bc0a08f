// Package ui renders the interactive progress view of `lift lower`.
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"lift/internal/driver"
)

const statusWidth = 10

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	noteStyle    = lipgloss.NewStyle().Faint(true)
	statusStyles = map[driver.MethodStatus]lipgloss.Style{
		driver.MethodDone:    lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		driver.MethodError:   lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
		driver.MethodWorking: lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
	}
	plainStatus = lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
)

// methodItem is one row of the view, in the order the driver first
// reported the method.
type methodItem struct {
	name   string
	status driver.MethodStatus
	note   string
}

type progressModel struct {
	title    string
	events   <-chan driver.MethodEvent
	spin     spinner.Model
	bar      progress.Model
	items    []methodItem
	rows     map[string]int
	closures int
	width    int
	done     bool
}

type (
	eventMsg driver.MethodEvent
	doneMsg  struct{}
)

// NewProgressModel returns a Bubble Tea model listing methods as the
// driver reports them. It quits once events is closed.
func NewProgressModel(title string, events <-chan driver.MethodEvent) tea.Model {
	spin := spinner.New(spinner.WithSpinner(spinner.Dot))
	spin.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	bar := progress.New(progress.WithDefaultGradient(), progress.WithWidth(76))
	return &progressModel{
		title:  title,
		events: events,
		spin:   spin,
		bar:    bar,
		rows:   make(map[string]int),
		width:  80,
	}
}

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, m.next)
}

// next blocks for the following driver event.
func (m *progressModel) next() tea.Msg {
	ev, ok := <-m.events
	if !ok {
		return doneMsg{}
	}
	return eventMsg(ev)
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case eventMsg:
		m.record(driver.MethodEvent(msg))
		return m, tea.Batch(m.bar.SetPercent(m.fraction()), m.next)
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		if !m.done {
			m.spin, cmd = m.spin.Update(msg)
		}
	case progress.FrameMsg:
		var bar tea.Model
		bar, cmd = m.bar.Update(msg)
		m.bar = bar.(progress.Model)
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width, m.bar.Width = msg.Width, msg.Width-4
		}
	}
	return m, cmd
}

func (m *progressModel) record(ev driver.MethodEvent) {
	i, seen := m.rows[ev.Method]
	if !seen {
		i = len(m.items)
		m.rows[ev.Method] = i
		m.items = append(m.items, methodItem{name: ev.Method})
	}
	m.items[i].status = ev.Status
	if ev.Status == driver.MethodDone {
		m.closures += ev.Closures
		m.items[i].note = fmt.Sprintf("  %d closures, %s", ev.Closures, ev.Elapsed.Round(time.Microsecond))
	}
}

// fraction counts finished methods fully and methods being lowered as half.
func (m *progressModel) fraction() float64 {
	if len(m.items) == 0 {
		return 0
	}
	var halves int
	for _, it := range m.items {
		switch it.status {
		case driver.MethodDone, driver.MethodError, driver.MethodSkipped:
			halves += 2
		case driver.MethodWorking:
			halves++
		}
	}
	return float64(halves) / float64(2*len(m.items))
}

func (m *progressModel) View() string {
	if len(m.items) == 0 {
		return ""
	}
	lead := m.spin.View() + " "
	if m.done {
		lead = "done: "
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("%s%s (%d closures)", lead, m.title, m.closures)))
	b.WriteString("\n\n")
	nameWidth := max(20, m.width-statusWidth-4)
	for _, it := range m.items {
		style, ok := statusStyles[it.status]
		if !ok {
			style = plainStatus
		}
		name := truncate(it.name, nameWidth)
		note := truncate(it.note, nameWidth-runewidth.StringWidth(name))
		fmt.Fprintf(&b, "  %s %s%s\n", style.Render(fmt.Sprintf("%*s", statusWidth, it.status)), name, noteStyle.Render(note))
	}
	b.WriteString("\n")
	if m.done {
		b.WriteString(m.bar.ViewAs(1))
	} else {
		b.WriteString(m.bar.View())
	}
	b.WriteString("\n")
	return b.String()
}

// truncate shortens value to width display cells, marking the cut with "...".
func truncate(value string, width int) string {
	switch {
	case width <= 0:
		return ""
	case runewidth.StringWidth(value) <= width:
		return value
	case width <= 3:
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width-3, "...")
}
