package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/pagesmith-io/pagesmith/progress"
	"github.com/pagesmith-io/pagesmith/types"
)

// LinesMsg carries a delivered batch of document lines.
type LinesMsg []string

// EventsMsg carries a delivered batch of status events.
type EventsMsg []*types.Event

// DoneMsg signals that the conversion finished.
type DoneMsg struct {
	Outcome string
	Err     error
}

// ConvertModel is the Bubble Tea model for a live conversion.
//
// The model rebuilds phase state from delivered events with its own
// tracker, so the view always reflects exactly what the sink has emitted,
// pacing included.
type ConvertModel struct {
	requestID string
	cancel    func()

	tracker  *progress.Tracker
	code     strings.Builder
	viewport viewport.Model
	spinner  spinner.Model

	done    bool
	outcome string
	err     error

	width    int
	height   int
	ready    bool
	quitting bool
}

// NewConvertModel creates a live conversion model. cancel is invoked when
// the user quits before the conversion finishes.
func NewConvertModel(requestID string, cancel func()) ConvertModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = ActiveStyle
	return ConvertModel{
		requestID: requestID,
		cancel:    cancel,
		tracker:   progress.NewTracker(),
		spinner:   sp,
	}
}

// Init implements tea.Model.
func (m ConvertModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update implements tea.Model.
func (m ConvertModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layoutViewport()
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, keys.Quit) {
			m.quitting = true
			if !m.done && m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		}
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case LinesMsg:
		for _, line := range msg {
			m.code.WriteString(line)
			m.code.WriteByte('\n')
		}
		if m.ready {
			atBottom := m.viewport.AtBottom()
			m.viewport.SetContent(m.code.String())
			if atBottom {
				m.viewport.GotoBottom()
			}
		}
		return m, nil

	case EventsMsg:
		for _, ev := range msg {
			m.tracker.Observe(ev)
		}
		return m, nil

	case DoneMsg:
		m.done = true
		m.outcome = msg.Outcome
		m.err = msg.Err
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m ConvertModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render("pagesmith convert"))
	b.WriteString("  ")
	b.WriteString(PendingStyle.Render(m.requestID))
	b.WriteString("\n\n")

	for _, ps := range m.tracker.Phases() {
		b.WriteString(m.renderPhase(ps))
		b.WriteByte('\n')
	}

	if m.ready && m.code.Len() > 0 {
		b.WriteByte('\n')
		b.WriteString(CodeBoxStyle.Render(m.viewport.View()))
		b.WriteByte('\n')
	}

	if m.done {
		b.WriteByte('\n')
		b.WriteString(LabelStyle.Render("Outcome:"))
		b.WriteString(" ")
		b.WriteString(OutcomeStyle(m.outcome).Render(m.outcome))
		if m.err != nil {
			b.WriteByte('\n')
			b.WriteString(ErrorStyle.Render(m.err.Error()))
		}
	}

	b.WriteByte('\n')
	b.WriteString(HelpStyle.Render("q: quit  ↑/↓: scroll"))
	return b.String()
}

func (m ConvertModel) renderPhase(ps progress.PhaseState) string {
	title, ok := phaseTitles[ps.Phase]
	if !ok {
		title = string(ps.Phase)
	}

	switch {
	case ps.Completed:
		return fmt.Sprintf("  %s %s", CompletedStyle.Render("✓"), CompletedStyle.Render(title))
	case ps.Active:
		line := fmt.Sprintf("  %s %s", m.spinner.View(), ActiveStyle.Render(title))
		if n := len(ps.Events); n > 0 {
			last := ps.Events[n-1]
			line += PendingStyle.Render("  " + last.Message)
		}
		return line
	case ps.Reached:
		return fmt.Sprintf("  %s %s", PendingStyle.Render("•"), PendingStyle.Render(title))
	default:
		return fmt.Sprintf("  %s %s", PendingStyle.Render("○"), PendingStyle.Render(title))
	}
}

// layoutViewport sizes the document pane to the space left after the phase
// rows, title, and help line.
func (m *ConvertModel) layoutViewport() {
	reserved := 12
	height := m.height - reserved
	if height < 3 {
		height = 3
	}
	width := m.width - 6
	if width < 20 {
		width = 20
	}

	if !m.ready {
		m.viewport = viewport.New(width, height)
		m.viewport.SetContent(m.code.String())
		m.ready = true
		return
	}
	m.viewport.Width = width
	m.viewport.Height = height
}

// keyMap defines key bindings.
type keyMap struct {
	Quit key.Binding
}

var keys = keyMap{
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// RunConvertTUI runs the live conversion program and blocks until the user
// quits. start is called once with the running program so the caller can
// wire the sink and begin the conversion.
func RunConvertTUI(model ConvertModel, start func(p *tea.Program)) error {
	p := tea.NewProgram(model, tea.WithAltScreen())
	start(p)
	_, err := p.Run()
	return err
}
