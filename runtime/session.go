package runtime

import (
	"sync"
	"time"

	"github.com/pagesmith-io/pagesmith/progress"
	"github.com/pagesmith-io/pagesmith/types"
	"github.com/pagesmith-io/pagesmith/wire"
)

// Session is the aggregate root of one conversion: the line reassembly
// buffer, the ordered event sequence, the generated-code buffer, and the
// terminal flag. Created when a conversion begins and never reused — a new
// upload gets a fresh session.
//
// All mutation happens sequentially inside the stream driver's read loop.
// Reads (Events, Terminal, Code snapshots) are safe from other goroutines.
type Session struct {
	meta types.ConversionMeta

	assembler  *wire.LineAssembler
	classifier *wire.Classifier
	tracker    *progress.Tracker
	code       *CodeAccumulator

	mu        sync.RWMutex
	events    []*types.Event
	terminal  bool
	startedAt time.Time
}

// NewSession creates a fresh session for one conversion.
func NewSession(meta types.ConversionMeta) *Session {
	return &Session{
		meta:       meta,
		assembler:  wire.NewLineAssembler(),
		classifier: wire.NewClassifier(),
		tracker:    progress.NewTracker(),
		code:       NewCodeAccumulator(),
		startedAt:  time.Now(),
	}
}

// Meta returns the conversion's identity.
func (s *Session) Meta() types.ConversionMeta {
	return s.meta
}

// Code returns the generated-code accumulator.
func (s *Session) Code() *CodeAccumulator {
	return s.code
}

// Events returns a copy of the event sequence in arrival order.
func (s *Session) Events() []*types.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*types.Event, len(s.events))
	copy(out, s.events)
	return out
}

// Phases returns the derived per-phase display state.
func (s *Session) Phases() []progress.PhaseState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tracker.Phases()
}

// Terminal reports whether the session will receive no further data.
func (s *Session) Terminal() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.terminal
}

// StartedAt returns the session creation time.
func (s *Session) StartedAt() time.Time {
	return s.startedAt
}

// Duration returns the elapsed time since session creation.
func (s *Session) Duration() time.Duration {
	return time.Since(s.startedAt)
}

// observe appends a status event to the sequence and updates the phase
// tracker. No-op once terminal: the event sequence is frozen with the code.
func (s *Session) observe(ev *types.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.terminal {
		return
	}
	s.events = append(s.events, ev)
	s.tracker.Observe(ev)
}

// markTerminal sets the terminal flag and freezes the code buffer.
// Idempotent.
func (s *Session) markTerminal() {
	s.mu.Lock()
	s.terminal = true
	s.mu.Unlock()
	s.code.Freeze()
}
