package types

import "sort"

// Event is one progress report extracted from the generation stream.
// Events are immutable once created and appended to an ordered sequence,
// never removed.
type Event struct {
	// Phase is the canonical phase this event belongs to.
	Phase PhaseID `json:"phase" msgpack:"phase"`
	// Message is the human-readable progress text.
	Message string `json:"message" msgpack:"message"`
	// Sequence is a monotonically non-decreasing ordering key. When the
	// service provides no explicit ordinal it defaults to arrival order.
	Sequence int64 `json:"sequence" msgpack:"sequence"`
	// Synthesized marks events the interpreter fabricated itself, such as
	// the finalizing completion injected when the stream closes without an
	// explicit completion marker.
	Synthesized bool `json:"synthesized,omitempty" msgpack:"synthesized,omitempty"`
}

// SortEvents orders events by ascending Sequence, preserving arrival order
// for equal sequence numbers. Late-arriving low-sequence events therefore
// still group in logical order for display.
func SortEvents(events []*Event) []*Event {
	sorted := make([]*Event, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Sequence < sorted[j].Sequence
	})
	return sorted
}

// LineKind discriminates the classifier's verdict for one logical line.
type LineKind int

const (
	// LineIgnored marks blank lines and suppressed sentinel markers.
	LineIgnored LineKind = iota
	// LineCode marks literal generated-source content.
	LineCode
	// LineStatus marks a progress event, structured or inferred.
	LineStatus
)

// String returns the kind name for logging and test output.
func (k LineKind) String() string {
	switch k {
	case LineIgnored:
		return "ignored"
	case LineCode:
		return "code"
	case LineStatus:
		return "status"
	default:
		return "unknown"
	}
}

// Classified is the classifier's verdict for one logical line.
// Exactly one of Event (Kind=LineStatus) or Code (Kind=LineCode) is
// meaningful; Ignored lines carry neither.
type Classified struct {
	// Kind is the verdict discriminator.
	Kind LineKind
	// Event is the extracted progress event when Kind is LineStatus.
	Event *Event
	// Code is the literal source text when Kind is LineCode, without a
	// trailing newline. The accumulator restores the newline on append.
	Code string
	// Terminal is true when the line signals generation completion,
	// regardless of Kind.
	Terminal bool
	// Fallback is true when a structured-looking line failed both JSON
	// parses and was reclassified as literal code. Counted in metrics.
	Fallback bool
}
