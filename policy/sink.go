package policy

import (
	"context"
	"sync"

	"github.com/pagesmith-io/pagesmith/types"
)

// Sink receives interpreted output for presentation. Implementations include
// the plain stdout writer, the TUI bridge, and the paced emitter decorator.
//
// Sinks only read already-finalized lines and events; they never mutate
// session state.
type Sink interface {
	// WriteLines delivers processed display lines in arrival order.
	WriteLines(ctx context.Context, lines []string) error

	// WriteEvents delivers status events in arrival order.
	WriteEvents(ctx context.Context, events []*types.Event) error

	// Close releases sink resources.
	Close() error
}

// CaptureSink is a test sink that records everything written to it.
type CaptureSink struct {
	mu     sync.Mutex
	Lines  []string
	Events []*types.Event
	Closed bool
}

// NewCaptureSink creates an empty capture sink.
func NewCaptureSink() *CaptureSink {
	return &CaptureSink{}
}

// WriteLines implements Sink.
func (s *CaptureSink) WriteLines(ctx context.Context, lines []string) error {
	s.mu.Lock()
	s.Lines = append(s.Lines, lines...)
	s.mu.Unlock()
	return nil
}

// WriteEvents implements Sink.
func (s *CaptureSink) WriteEvents(ctx context.Context, events []*types.Event) error {
	s.mu.Lock()
	s.Events = append(s.Events, events...)
	s.mu.Unlock()
	return nil
}

// Close implements Sink.
func (s *CaptureSink) Close() error {
	s.mu.Lock()
	s.Closed = true
	s.mu.Unlock()
	return nil
}

// Snapshot returns copies of the recorded lines and events.
func (s *CaptureSink) Snapshot() ([]string, []*types.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lines := make([]string, len(s.Lines))
	copy(lines, s.Lines)
	events := make([]*types.Event, len(s.Events))
	copy(events, s.Events)
	return lines, events
}

// Verify CaptureSink implements Sink.
var _ Sink = (*CaptureSink)(nil)
