package types

// PhaseID identifies one of the four fixed generation phases.
// Phases are totally ordered: analyzing < processing < generating < finalizing.
type PhaseID string

// Phase constants in generation order.
const (
	PhaseAnalyzing  PhaseID = "analyzing"
	PhaseProcessing PhaseID = "processing"
	PhaseGenerating PhaseID = "generating"
	PhaseFinalizing PhaseID = "finalizing"
)

// upstreamAliases maps non-canonical phase labels emitted by the generation
// service to canonical phases. The service labels per-section completion
// events "individual sections"; they belong to finalizing.
var upstreamAliases = map[string]PhaseID{
	"individual sections": PhaseFinalizing,
}

// phaseOrder fixes the display and completion ordering of phases.
var phaseOrder = []PhaseID{
	PhaseAnalyzing,
	PhaseProcessing,
	PhaseGenerating,
	PhaseFinalizing,
}

// phaseIndex is the inverse of phaseOrder.
var phaseIndex = map[PhaseID]int{
	PhaseAnalyzing:  0,
	PhaseProcessing: 1,
	PhaseGenerating: 2,
	PhaseFinalizing: 3,
}

// AllPhases returns the four phases in generation order.
// Returns a copy to prevent mutation.
func AllPhases() []PhaseID {
	out := make([]PhaseID, len(phaseOrder))
	copy(out, phaseOrder)
	return out
}

// Index returns the position of the phase in generation order,
// or -1 for an unknown phase.
func (p PhaseID) Index() int {
	if i, ok := phaseIndex[p]; ok {
		return i
	}
	return -1
}

// Known returns true if p is one of the four canonical phases.
func (p PhaseID) Known() bool {
	_, ok := phaseIndex[p]
	return ok
}

// Before returns true if p precedes other in generation order.
// Unknown phases never precede anything.
func (p PhaseID) Before(other PhaseID) bool {
	pi, oi := p.Index(), other.Index()
	return pi >= 0 && oi >= 0 && pi < oi
}

// CanonicalPhase normalizes an upstream phase label to a canonical PhaseID.
// Unknown labels degrade to processing rather than being rejected; the
// interpreter favors partial output over strict validation.
func CanonicalPhase(label string) PhaseID {
	if alias, ok := upstreamAliases[label]; ok {
		return alias
	}
	p := PhaseID(label)
	if p.Known() {
		return p
	}
	return PhaseProcessing
}
