package wire

import (
	"fmt"
	"strings"

	"github.com/pagesmith-io/pagesmith/types"
)

// ssePrefix frames structured lines in SSE style. The prefix is stripped
// before any further classification.
const ssePrefix = "data: "

// Sentinel markers the service wraps the stream with. Both are suppressed
// from code and progress output entirely; when one appears inside a status
// message only the sentinel fragment is removed.
const (
	SentinelStart = "[STARTING CODE GENERATION]"
	SentinelDone  = "[DONE]"
)

// completionPhrase is the standalone checkmark-prefixed completion marker.
// Keyword inference alone cannot recognize it (its "completed" is lowercase),
// so it gets an explicit terminal check.
const completionPhrase = "Code Generation completed"

// statusGlyphs are the indicator glyphs that mark a line as a progress
// report: magnifier, computer, gear, checkmark. Prefix match only; a glyph
// buried inside generated markup does not make the line a status line.
var statusGlyphs = []string{"🔍", "💻", "⚙", "✅"}

// statusKeywords mark a line as a progress report when present anywhere in
// the line. Matching is case-sensitive on purpose: lowercase occurrences in
// generated markup ("processing payments since 2009") must not be promoted
// to status lines.
var statusKeywords = []string{
	"Processing",
	"Analyzing",
	"Done",
	"Generating",
	"Converting",
	"Generation",
}

// phaseHint maps an inference keyword to the phase it suggests.
type phaseHint struct {
	keyword string
	phase   types.PhaseID
}

// phaseHints is the ordered keyword→phase inference table for unstructured
// status lines. First match wins; no match degrades to processing.
var phaseHints = []phaseHint{
	{"Analyzing", types.PhaseAnalyzing},
	{"Processing", types.PhaseProcessing},
	{"Generating", types.PhaseGenerating},
	{"Converting", types.PhaseGenerating},
	{"Completed", types.PhaseFinalizing},
	{"Done", types.PhaseFinalizing},
	{"Finalizing", types.PhaseFinalizing},
}

// completionKeywords signal that a phase's work finished when found in a
// status message.
var completionKeywords = []string{"Done", "Complete", "completed"}

// HasCompletionKeyword returns true if the message contains a completion
// keyword. Shared with the phase tracker's completed-state derivation.
func HasCompletionKeyword(message string) bool {
	for _, kw := range completionKeywords {
		if strings.Contains(message, kw) {
			return true
		}
	}
	return false
}

// UpstreamError reports an explicit error field in a structured event.
// Fatal: the conversion terminates and no partial output is trusted.
type UpstreamError struct {
	Message string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream reported error: %s", e.Message)
}

// Classifier assigns a verdict to each logical line. It carries only the
// running event count used to default sequence numbers to arrival order;
// everything else is a pure function of the line.
//
// Not safe for concurrent use; ownership is confined to the stream driver's
// read loop.
type Classifier struct {
	events int64
}

// NewClassifier creates a classifier with an arrival counter at zero.
func NewClassifier() *Classifier {
	return &Classifier{}
}

// EventCount returns the number of status events produced so far.
func (c *Classifier) EventCount() int64 {
	return c.events
}

// Classify assigns a verdict to one logical line. First match wins:
//
//  1. an SSE "data: " prefix is stripped
//  2. a {...} line is parsed as a structured event (strict JSON, then
//     single-quote lenient); a parse failure falls through and the line
//     recovers as literal code rather than failing the conversion
//  3. blank lines are ignored
//  4. sentinel markers are suppressed; glyph- or keyword-marked lines
//     become status events with an inferred phase
//  5. everything else is literal generated code
//
// The only error return is *UpstreamError, raised when a structured event
// carries an explicit error field.
func (c *Classifier) Classify(line string) (*types.Classified, error) {
	content := line
	trimmed := strings.TrimSpace(line)
	if after, ok := strings.CutPrefix(trimmed, ssePrefix); ok {
		content = after
		trimmed = strings.TrimSpace(after)
	}

	if strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}") {
		if obj, ok := parseObject(trimmed); ok {
			if verdict, handled, err := c.classifyStructured(obj); handled {
				return verdict, err
			}
		} else {
			// Looked structured, failed both parses: best-effort literal.
			return c.classifyUnstructured(content, trimmed, true), nil
		}
	}

	return c.classifyUnstructured(content, trimmed, false), nil
}

// classifyStructured extracts a status event from a parsed object. The
// handled return is false when the object carries no phase/message pair, in
// which case the cascade continues with the raw line.
func (c *Classifier) classifyStructured(obj map[string]any) (_ *types.Classified, handled bool, _ error) {
	if errMsg, ok := obj["error"].(string); ok && errMsg != "" {
		return nil, true, &UpstreamError{Message: errMsg}
	}

	phaseLabel, pok := obj["phase"].(string)
	message, mok := obj["message"].(string)
	if !pok || !mok {
		return nil, false, nil
	}

	message = unwrapMessage(message)
	message = stripSentinels(message)

	seq, provided := numberField(obj, "sequence")
	if provided {
		c.events++
	} else {
		seq = c.nextSequence()
	}

	phase := types.CanonicalPhase(phaseLabel)
	verdict := &types.Classified{
		Kind: types.LineStatus,
		Event: &types.Event{
			Phase:    phase,
			Message:  message,
			Sequence: seq,
		},
		Terminal: phase == types.PhaseFinalizing && HasCompletionKeyword(message),
	}
	return verdict, true, nil
}

// classifyUnstructured handles steps 3–5 of the cascade: blank filtering,
// sentinel suppression, glyph/keyword status inference, literal code.
func (c *Classifier) classifyUnstructured(content, trimmed string, fallback bool) *types.Classified {
	if trimmed == "" {
		return &types.Classified{Kind: types.LineIgnored}
	}

	if strings.Contains(trimmed, SentinelStart) || strings.Contains(trimmed, SentinelDone) {
		remainder := strings.TrimSpace(stripSentinels(trimmed))
		if remainder == "" {
			return &types.Classified{Kind: types.LineIgnored}
		}
		content = remainder
		trimmed = remainder
	}

	if isStatusLine(trimmed) {
		terminal := isCompletionMarker(trimmed)
		phase := inferPhase(trimmed)
		// The marker's lowercase "completed" defeats keyword inference;
		// a terminal line always belongs to finalizing.
		if terminal {
			phase = types.PhaseFinalizing
		}
		return &types.Classified{
			Kind: types.LineStatus,
			Event: &types.Event{
				Phase:    phase,
				Message:  trimmed,
				Sequence: c.nextSequence(),
			},
			Terminal: terminal,
		}
	}

	return &types.Classified{Kind: types.LineCode, Code: content, Fallback: fallback}
}

// nextSequence returns the arrival-order default sequence and advances the
// counter.
func (c *Classifier) nextSequence() int64 {
	s := c.events
	c.events++
	return s
}

// isStatusLine reports whether the line is a progress report: indicator
// glyph prefix or a case-sensitive status keyword anywhere in the line.
func isStatusLine(trimmed string) bool {
	for _, glyph := range statusGlyphs {
		if strings.HasPrefix(trimmed, glyph) {
			return true
		}
	}
	for _, kw := range statusKeywords {
		if strings.Contains(trimmed, kw) {
			return true
		}
	}
	return false
}

// inferPhase derives a phase from an unstructured status line via the
// ordered keyword table.
func inferPhase(trimmed string) types.PhaseID {
	for _, hint := range phaseHints {
		if strings.Contains(trimmed, hint.keyword) {
			return hint.phase
		}
	}
	return types.PhaseProcessing
}

// isCompletionMarker recognizes the standalone terminal line: checkmark
// prefix plus the completion phrase.
func isCompletionMarker(trimmed string) bool {
	return strings.HasPrefix(trimmed, "✅") && strings.Contains(trimmed, completionPhrase)
}

// stripSentinels removes sentinel fragments, leaving surrounding text.
func stripSentinels(s string) string {
	s = strings.ReplaceAll(s, SentinelStart, "")
	s = strings.ReplaceAll(s, SentinelDone, "")
	return strings.TrimSpace(s)
}

// unwrapMessage recursively unwraps messages that themselves embed a
// structured event, taking the innermost message as display text. The outer
// event's phase wins; only the text is replaced.
func unwrapMessage(message string) string {
	for looksEmbedded(message) {
		start := strings.Index(message, "{")
		end := strings.LastIndex(message, "}")
		if start < 0 || end <= start {
			break
		}
		inner, ok := parseObject(message[start : end+1])
		if !ok {
			break
		}
		innerMsg, ok := inner["message"].(string)
		if !ok {
			break
		}
		message = innerMsg
	}
	return message
}

// looksEmbedded reports whether a message text appears to contain a nested
// structured event.
func looksEmbedded(message string) bool {
	if !strings.Contains(message, "{") {
		return false
	}
	return strings.Contains(message, `"phase":`) ||
		strings.Contains(message, `'phase':`) ||
		strings.Contains(message, "phase:")
}

// numberField extracts an integer field that may arrive as any JSON numeric
// type.
func numberField(obj map[string]any, key string) (int64, bool) {
	switch v := obj[key].(type) {
	case float64:
		return int64(v), true
	case int64:
		return v, true
	case int:
		return int64(v), true
	default:
		return 0, false
	}
}
