package policy

import (
	"context"
	"fmt"

	"github.com/pagesmith-io/pagesmith/types"
)

// LivePolicy delivers every line and event to the sink as soon as it is
// classified. This is the delivery mode behind streaming conversions: the
// caller watches generation happen.
type LivePolicy struct {
	sink  Sink
	stats statsRecorder
}

// NewLivePolicy creates a live delivery policy over the given sink.
func NewLivePolicy(sink Sink) *LivePolicy {
	return &LivePolicy{sink: sink}
}

// IngestLine implements Policy.
func (p *LivePolicy) IngestLine(ctx context.Context, line string) error {
	p.stats.incLinesIngested()
	if err := p.sink.WriteLines(ctx, []string{line}); err != nil {
		return fmt.Errorf("live delivery failed: %w", err)
	}
	p.stats.incLinesDelivered(1)
	return nil
}

// IngestEvent implements Policy.
func (p *LivePolicy) IngestEvent(ctx context.Context, ev *types.Event) error {
	p.stats.incEventsIngested()
	if err := p.sink.WriteEvents(ctx, []*types.Event{ev}); err != nil {
		return fmt.Errorf("live delivery failed: %w", err)
	}
	p.stats.incEventsDelivered(1)
	return nil
}

// Flush implements Policy. Live delivery holds nothing back; Flush only
// counts the call.
func (p *LivePolicy) Flush(ctx context.Context) error {
	p.stats.incFlush()
	return nil
}

// Close implements Policy.
func (p *LivePolicy) Close() error {
	return p.sink.Close()
}

// Stats implements Policy.
func (p *LivePolicy) Stats() Stats {
	return p.stats.snapshot()
}

// Verify LivePolicy implements Policy.
var _ Policy = (*LivePolicy)(nil)
