package policy

import (
	"context"
	"fmt"
	"sync"

	"github.com/pagesmith-io/pagesmith/types"
)

// BufferedPolicy holds all interpreted output and delivers it in one batch
// when flushed at terminal. This is the delivery mode behind non-streaming
// conversions: the caller wants the finished result, not the journey.
type BufferedPolicy struct {
	mu     sync.Mutex
	sink   Sink
	lines  []string
	events []*types.Event
	stats  statsRecorder
}

// NewBufferedPolicy creates a buffered delivery policy over the given sink.
func NewBufferedPolicy(sink Sink) *BufferedPolicy {
	return &BufferedPolicy{sink: sink}
}

// IngestLine implements Policy.
func (p *BufferedPolicy) IngestLine(ctx context.Context, line string) error {
	p.mu.Lock()
	p.lines = append(p.lines, line)
	buffered := int64(len(p.lines))
	events := int64(len(p.events))
	p.mu.Unlock()

	p.stats.incLinesIngested()
	p.stats.setBuffered(buffered, events)
	return nil
}

// IngestEvent implements Policy.
func (p *BufferedPolicy) IngestEvent(ctx context.Context, ev *types.Event) error {
	p.mu.Lock()
	p.events = append(p.events, ev)
	buffered := int64(len(p.lines))
	events := int64(len(p.events))
	p.mu.Unlock()

	p.stats.incEventsIngested()
	p.stats.setBuffered(buffered, events)
	return nil
}

// Flush implements Policy: delivers the held batch in order (lines, then
// events) and empties the buffer. Safe to call repeatedly; later calls with
// an empty buffer deliver nothing.
func (p *BufferedPolicy) Flush(ctx context.Context) error {
	p.mu.Lock()
	lines := p.lines
	events := p.events
	p.lines = nil
	p.events = nil
	p.mu.Unlock()

	p.stats.incFlush()

	if len(lines) > 0 {
		if err := p.sink.WriteLines(ctx, lines); err != nil {
			return fmt.Errorf("buffered delivery failed: %w", err)
		}
		p.stats.incLinesDelivered(int64(len(lines)))
	}
	if len(events) > 0 {
		if err := p.sink.WriteEvents(ctx, events); err != nil {
			return fmt.Errorf("buffered delivery failed: %w", err)
		}
		p.stats.incEventsDelivered(int64(len(events)))
	}

	p.stats.setBuffered(0, 0)
	return nil
}

// Close implements Policy.
func (p *BufferedPolicy) Close() error {
	return p.sink.Close()
}

// Stats implements Policy.
func (p *BufferedPolicy) Stats() Stats {
	return p.stats.snapshot()
}

// Verify BufferedPolicy implements Policy.
var _ Policy = (*BufferedPolicy)(nil)
