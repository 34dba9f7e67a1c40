package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pagesmith-io/pagesmith/policy"
	"github.com/pagesmith-io/pagesmith/types"
)

// sender is the subset of tea.Program the sink needs. Narrowing the
// dependency keeps the sink testable without a running program.
type sender interface {
	Send(msg tea.Msg)
}

// Sink bridges the delivery policy to a running Bubble Tea program.
// Batches arrive as messages on the program's queue, so all model state
// stays single-threaded.
type Sink struct {
	program sender
}

// NewSink creates a sink that forwards delivered batches to p.
func NewSink(p sender) *Sink {
	return &Sink{program: p}
}

// WriteLines forwards a batch of document lines.
func (s *Sink) WriteLines(ctx context.Context, lines []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(lines) == 0 {
		return nil
	}
	batch := make(LinesMsg, len(lines))
	copy(batch, lines)
	s.program.Send(batch)
	return nil
}

// WriteEvents forwards a batch of status events.
func (s *Sink) WriteEvents(ctx context.Context, events []*types.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(events) == 0 {
		return nil
	}
	batch := make(EventsMsg, len(events))
	copy(batch, events)
	s.program.Send(batch)
	return nil
}

// Close implements policy.Sink. The program outlives the sink.
func (s *Sink) Close() error {
	return nil
}

// Verify Sink implements the sink interface.
var _ policy.Sink = (*Sink)(nil)
