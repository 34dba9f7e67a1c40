// Package policy defines how interpreted stream output reaches the
// presentation sink.
//
// The stream driver hands every processed line and status event to exactly
// one Policy. Policies decide delivery timing only: Live forwards each item
// as it is classified (the streaming conversion mode), Buffered holds
// everything and delivers once at terminal (the non-streaming counterpart).
// Policies never alter content or ordering; a policy failure terminates the
// conversion.
package policy

import (
	"context"
	"sync"

	"github.com/pagesmith-io/pagesmith/types"
)

// Policy controls delivery of interpreted output to the sink.
type Policy interface {
	// IngestLine handles one raw processed line of display text.
	IngestLine(ctx context.Context, line string) error

	// IngestEvent handles one status event.
	IngestEvent(ctx context.Context, ev *types.Event) error

	// Flush delivers any held output. Called at terminal and on runtime
	// teardown; must be idempotent.
	Flush(ctx context.Context) error

	// Close releases policy resources, closing the sink.
	Close() error

	// Stats returns an atomic snapshot of delivery counters.
	Stats() Stats
}

// Stats represents policy observability counters.
type Stats struct {
	// LinesIngested is the number of lines received from the driver.
	LinesIngested int64
	// EventsIngested is the number of events received from the driver.
	EventsIngested int64
	// LinesDelivered is the number of lines written to the sink.
	LinesDelivered int64
	// EventsDelivered is the number of events written to the sink.
	EventsDelivered int64
	// FlushCount is the number of flush operations.
	FlushCount int64
	// BufferedLines is the current number of held lines (buffered policy).
	BufferedLines int64
	// BufferedEvents is the current number of held events (buffered policy).
	BufferedEvents int64
}

// statsRecorder is an internal helper for thread-safe stats management.
// Policies call explicit methods to record mutations; the recorder does not
// infer any delivery decisions.
type statsRecorder struct {
	mu    sync.Mutex
	stats Stats
}

func (r *statsRecorder) incLinesIngested() {
	r.mu.Lock()
	r.stats.LinesIngested++
	r.mu.Unlock()
}

func (r *statsRecorder) incEventsIngested() {
	r.mu.Lock()
	r.stats.EventsIngested++
	r.mu.Unlock()
}

func (r *statsRecorder) incLinesDelivered(n int64) {
	r.mu.Lock()
	r.stats.LinesDelivered += n
	r.mu.Unlock()
}

func (r *statsRecorder) incEventsDelivered(n int64) {
	r.mu.Lock()
	r.stats.EventsDelivered += n
	r.mu.Unlock()
}

func (r *statsRecorder) incFlush() {
	r.mu.Lock()
	r.stats.FlushCount++
	r.mu.Unlock()
}

func (r *statsRecorder) setBuffered(lines, events int64) {
	r.mu.Lock()
	r.stats.BufferedLines = lines
	r.stats.BufferedEvents = events
	r.mu.Unlock()
}

func (r *statsRecorder) snapshot() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}
