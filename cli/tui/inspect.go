package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/pagesmith-io/pagesmith/progress"
	"github.com/pagesmith-io/pagesmith/store"
)

// InspectModel is a Bubble Tea model for inspecting a persisted trace.
type InspectModel struct {
	trace    *store.Trace
	width    int
	height   int
	quitting bool
}

// NewInspectModel creates an inspect model over a loaded trace.
func NewInspectModel(trace *store.Trace) InspectModel {
	return InspectModel{trace: trace}
}

// Init implements tea.Model.
func (m InspectModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m InspectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, keys.Quit) {
			m.quitting = true
			return m, tea.Quit
		}
	}

	return m, nil
}

// View implements tea.Model.
func (m InspectModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render("Conversion Details"))
	b.WriteString("\n\n")

	t := m.trace
	rows := [][]string{
		{"Request ID", t.RequestID},
		{"Outcome", t.Outcome},
		{"Heuristic", fmt.Sprintf("%t", t.Heuristic)},
		{"Duration", (time.Duration(t.DurationMs) * time.Millisecond).String()},
		{"Code", fmt.Sprintf("%d bytes, %d lines", t.CodeBytes, t.CodeLines)},
		{"Events", fmt.Sprintf("%d", len(t.Events))},
		{"Created At", t.CreatedAt.Format("2006-01-02 15:04:05")},
	}
	for _, row := range rows {
		label := LabelStyle.Render(row[0] + ":")
		value := row[1]
		if row[0] == "Outcome" {
			value = OutcomeStyle(t.Outcome).Render(value)
		} else {
			value = ValueStyle.Render(value)
		}
		b.WriteString(fmt.Sprintf("%s %s\n", label, value))
	}

	b.WriteByte('\n')
	b.WriteString(TitleStyle.Render("Phases"))
	b.WriteByte('\n')

	tracker := progress.NewTracker()
	for _, ev := range t.Events {
		tracker.Observe(ev)
	}
	for _, ps := range tracker.Phases() {
		title, ok := phaseTitles[ps.Phase]
		if !ok {
			title = string(ps.Phase)
		}
		mark := PendingStyle.Render("○")
		style := PendingStyle
		if ps.Completed {
			mark = CompletedStyle.Render("✓")
			style = CompletedStyle
		} else if ps.Reached {
			mark = ActiveStyle.Render("•")
			style = ActiveStyle
		}
		b.WriteString(fmt.Sprintf("  %s %s", mark, style.Render(title)))
		if n := len(ps.Events); n > 0 {
			b.WriteString(PendingStyle.Render(fmt.Sprintf("  (%d events)", n)))
		}
		b.WriteByte('\n')
	}

	content := BoxStyle.Render(b.String())
	help := HelpStyle.Render("Press q or Ctrl+C to quit")
	return content + "\n" + help
}

// RunInspectTUI runs the inspect TUI over a loaded trace.
func RunInspectTUI(trace *store.Trace) error {
	model := NewInspectModel(trace)
	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
