// Package progress derives presentation state for the four generation phases
// from the stream's status events.
//
// The tracker never rejects an event: phases may arrive out of order or be
// skipped entirely, and ordering anomalies only affect the derived
// active/completed display state.
package progress

import (
	"github.com/pagesmith-io/pagesmith/types"
	"github.com/pagesmith-io/pagesmith/wire"
)

// PhaseState is the derived display state of one phase.
type PhaseState struct {
	// Phase identifies the phase.
	Phase types.PhaseID
	// Reached is true once the run has progressed at least this far;
	// unreached phases are suppressed from presentation.
	Reached bool
	// Active is true if any event maps to this phase, or — for processing —
	// if the phase is bridged (see Tracker).
	Active bool
	// Completed is true if a later phase is active or one of this phase's
	// own messages carries a completion keyword.
	Completed bool
	// Events holds this phase's events in ascending sequence order.
	Events []*types.Event
}

// Tracker accumulates status events and derives per-phase display state.
//
// Two quirks of the upstream protocol are handled here rather than pushed to
// callers: the service sometimes jumps straight from analyzing to generating
// without reporting processing (the gap is bridged so the display shows no
// hole), and events can arrive with out-of-order sequence numbers (grouping
// re-sorts them).
//
// Not safe for concurrent use; ownership is confined to the stream driver's
// read loop, with callers reading snapshots via Phases().
type Tracker struct {
	events []*types.Event
	direct map[types.PhaseID]bool
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{direct: make(map[types.PhaseID]bool)}
}

// Observe records one status event. Events with unknown phases were already
// canonicalized by the classifier; an unknown phase reaching this point is a
// programming error and is counted under processing.
func (t *Tracker) Observe(ev *types.Event) {
	if ev == nil {
		return
	}
	phase := ev.Phase
	if !phase.Known() {
		phase = types.PhaseProcessing
	}
	t.events = append(t.events, ev)
	t.direct[phase] = true
}

// EventCount returns the number of observed events.
func (t *Tracker) EventCount() int {
	return len(t.events)
}

// Phases derives the current display state for all four phases, in
// generation order. The returned slice is a fresh snapshot; mutating it does
// not affect the tracker.
func (t *Tracker) Phases() []PhaseState {
	active := t.activeSet()

	highest := -1
	for phase, on := range active {
		if on && phase.Index() > highest {
			highest = phase.Index()
		}
	}

	grouped := t.groupBySequence()

	states := make([]PhaseState, 0, 4)
	for _, phase := range types.AllPhases() {
		state := PhaseState{
			Phase:   phase,
			Active:  active[phase],
			Reached: phase.Index() <= highest,
			Events:  grouped[phase],
		}
		state.Completed = t.isCompleted(phase, active)
		states = append(states, state)
	}
	return states
}

// activeSet derives which phases are active. Processing is bridged when both
// analyzing and generating were reported but processing itself never was:
// the phase evidently happened, the service just didn't say so.
func (t *Tracker) activeSet() map[types.PhaseID]bool {
	active := make(map[types.PhaseID]bool, 4)
	for phase := range t.direct {
		active[phase] = true
	}
	if !active[types.PhaseProcessing] &&
		active[types.PhaseAnalyzing] && active[types.PhaseGenerating] {
		active[types.PhaseProcessing] = true
	}
	return active
}

// isCompleted reports whether a phase is done: a later phase is active, or
// one of its own messages says so.
func (t *Tracker) isCompleted(phase types.PhaseID, active map[types.PhaseID]bool) bool {
	for _, later := range types.AllPhases() {
		if phase.Before(later) && active[later] {
			return true
		}
	}
	for _, ev := range t.events {
		if ev.Phase == phase && wire.HasCompletionKeyword(ev.Message) {
			return true
		}
	}
	return false
}

// groupBySequence groups events per phase in ascending sequence order, so
// late-arriving low-sequence events still display in logical order.
func (t *Tracker) groupBySequence() map[types.PhaseID][]*types.Event {
	grouped := make(map[types.PhaseID][]*types.Event, 4)
	for _, ev := range types.SortEvents(t.events) {
		phase := ev.Phase
		if !phase.Known() {
			phase = types.PhaseProcessing
		}
		grouped[phase] = append(grouped[phase], ev)
	}
	return grouped
}
