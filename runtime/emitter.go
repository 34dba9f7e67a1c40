package runtime

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/pagesmith-io/pagesmith/policy"
	"github.com/pagesmith-io/pagesmith/types"
)

// MaxPace bounds the artificial emission delay. Pacing exists purely for
// presentation smoothness; anything slower than this is lag, not polish.
const MaxPace = 50 * time.Millisecond

// ErrEmitterClosed is returned for writes after Close.
var ErrEmitterClosed = errors.New("emitter closed")

// PacedSink decorates a Sink with an artificial delay between emitted line
// batches. The driver's writes never block on the delay: items queue
// immediately and a single background goroutine forwards them in order, so
// pacing slows emission to the caller, not consumption from the transport.
//
// Single producer (the stream driver via the delivery policy), single
// consumer (the forward loop). Canceling the construction context stops the
// loop promptly and discards anything still queued — a pacing delay must
// never fire against a discarded session.
type PacedSink struct {
	inner policy.Sink
	pace  time.Duration
	ctx   context.Context

	mu         sync.Mutex
	cond       *sync.Cond
	queue      []emitItem
	closed     bool
	forwardErr error

	done chan struct{}
}

// emitItem is one queued delivery: lines or events, never both.
type emitItem struct {
	lines  []string
	events []*types.Event
}

// NewPacedSink creates a paced decorator over inner. A zero pace forwards
// immediately; the pace is clamped to MaxPace.
func NewPacedSink(ctx context.Context, inner policy.Sink, pace time.Duration) *PacedSink {
	if pace < 0 {
		pace = 0
	}
	if pace > MaxPace {
		pace = MaxPace
	}
	s := &PacedSink{
		inner: inner,
		pace:  pace,
		ctx:   ctx,
		done:  make(chan struct{}),
	}
	s.cond = sync.NewCond(&s.mu)

	// Wake the forward loop when the context dies so it never waits on a
	// condition nobody will signal again.
	go func() {
		<-ctx.Done()
		s.cond.Broadcast()
	}()
	go s.run()

	return s
}

// WriteLines implements policy.Sink. Queues and returns immediately.
func (s *PacedSink) WriteLines(ctx context.Context, lines []string) error {
	return s.enqueue(emitItem{lines: lines})
}

// WriteEvents implements policy.Sink. Events are forwarded without pacing;
// progress display should not lag behind reality.
func (s *PacedSink) WriteEvents(ctx context.Context, events []*types.Event) error {
	return s.enqueue(emitItem{events: events})
}

func (s *PacedSink) enqueue(item emitItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.forwardErr; err != nil {
		return err
	}
	if s.closed {
		return ErrEmitterClosed
	}
	if s.ctx.Err() != nil {
		return s.ctx.Err()
	}
	s.queue = append(s.queue, item)
	s.cond.Signal()
	return nil
}

// Close drains the queue, stops the forward loop, and closes the inner
// sink. Blocks until every queued item was forwarded (or the context died).
func (s *PacedSink) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		<-s.done
		return s.inner.Close()
	}
	s.closed = true
	s.cond.Broadcast()
	s.mu.Unlock()

	<-s.done
	return s.inner.Close()
}

// run is the forward loop: dequeue in order, forward, pace between line
// batches.
func (s *PacedSink) run() {
	defer close(s.done)
	for {
		item, ok := s.next()
		if !ok {
			return
		}

		var err error
		if len(item.lines) > 0 {
			err = s.inner.WriteLines(s.ctx, item.lines)
		} else if len(item.events) > 0 {
			err = s.inner.WriteEvents(s.ctx, item.events)
		}
		if err != nil {
			s.mu.Lock()
			s.forwardErr = err
			s.mu.Unlock()
			return
		}

		if s.pace > 0 && len(item.lines) > 0 {
			select {
			case <-time.After(s.pace):
			case <-s.ctx.Done():
				return
			}
		}
	}
}

// next blocks until an item is available. Returns false when the queue is
// drained after Close, or the context died.
func (s *PacedSink) next() (emitItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for len(s.queue) == 0 {
		if s.closed || s.ctx.Err() != nil {
			return emitItem{}, false
		}
		s.cond.Wait()
	}
	if s.ctx.Err() != nil {
		return emitItem{}, false
	}
	item := s.queue[0]
	s.queue = s.queue[1:]
	return item, true
}
