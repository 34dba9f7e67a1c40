// Package tui provides Bubble Tea components for the pagesmith CLI.
//
// Two views exist: a live conversion view that renders phase progress and
// the growing document while the stream is interpreted, and a read-only
// inspect view over persisted traces. Both render from the same data the
// plain-text output uses; nothing is TUI-exclusive.
package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/pagesmith-io/pagesmith/types"
)

// Color palette.
var (
	primaryColor   = lipgloss.Color("#7C3AED") // Purple
	successColor   = lipgloss.Color("#10B981") // Green
	warningColor   = lipgloss.Color("#F59E0B") // Amber
	errorColor     = lipgloss.Color("#EF4444") // Red
	mutedColor     = lipgloss.Color("#6B7280") // Gray
	highlightColor = lipgloss.Color("#3B82F6") // Blue
)

// Styles for TUI components.
var (
	// TitleStyle for headers and titles.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			MarginBottom(1)

	// LabelStyle for field labels.
	LabelStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Width(16)

	// ValueStyle for field values.
	ValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF"))

	// ActiveStyle for the phase currently in progress.
	ActiveStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(warningColor)

	// CompletedStyle for finished phases.
	CompletedStyle = lipgloss.NewStyle().
			Foreground(successColor)

	// PendingStyle for phases not yet reached.
	PendingStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	// ErrorStyle for error states.
	ErrorStyle = lipgloss.NewStyle().
			Foreground(errorColor)

	// BoxStyle for bordered containers.
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(mutedColor).
			Padding(1, 2)

	// CodeBoxStyle for the streaming document pane.
	CodeBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(highlightColor).
			Padding(0, 1)

	// HelpStyle for help text.
	HelpStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			MarginTop(1)
)

// phaseTitles maps phase IDs to display titles, in pipeline order.
var phaseTitles = map[types.PhaseID]string{
	types.PhaseAnalyzing:  "Analyzing image",
	types.PhaseProcessing: "Processing",
	types.PhaseGenerating: "Generating code",
	types.PhaseFinalizing: "Finalizing",
}

// OutcomeStyle returns a style based on the outcome string.
func OutcomeStyle(outcome string) lipgloss.Style {
	switch outcome {
	case "success":
		return CompletedStyle
	case "canceled":
		return ActiveStyle
	default:
		return ErrorStyle
	}
}
