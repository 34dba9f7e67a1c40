package wire

import (
	"errors"
	"testing"

	"github.com/pagesmith-io/pagesmith/types"
)

func classifyOne(t *testing.T, line string) *types.Classified {
	t.Helper()
	verdict, err := NewClassifier().Classify(line)
	if err != nil {
		t.Fatalf("Classify(%q) error: %v", line, err)
	}
	return verdict
}

func TestClassifier_StructuredEvent(t *testing.T) {
	verdict := classifyOne(t, `data: {"phase": "analyzing", "message": "🔍 Analyzing image...", "sequence": 3}`)

	if verdict.Kind != types.LineStatus {
		t.Fatalf("kind = %v, want status", verdict.Kind)
	}
	if verdict.Event.Phase != types.PhaseAnalyzing {
		t.Errorf("phase = %v, want analyzing", verdict.Event.Phase)
	}
	if verdict.Event.Message != "🔍 Analyzing image..." {
		t.Errorf("message = %q", verdict.Event.Message)
	}
	if verdict.Event.Sequence != 3 {
		t.Errorf("sequence = %d, want 3", verdict.Event.Sequence)
	}
}

func TestClassifier_SingleQuoteEquivalence(t *testing.T) {
	// The service serializes Python dicts directly, producing single-quoted
	// pseudo-JSON. Both spellings must classify identically.
	double := `data: {"phase": "generating", "message": "working", "sequence": 5}`
	single := `data: {'phase': 'generating', 'message': 'working', 'sequence': 5}`

	dv := classifyOne(t, double)
	sv := classifyOne(t, single)

	if dv.Kind != sv.Kind {
		t.Fatalf("kinds differ: %v vs %v", dv.Kind, sv.Kind)
	}
	if *dv.Event != *sv.Event {
		t.Errorf("events differ: %+v vs %+v", dv.Event, sv.Event)
	}
}

func TestClassifier_UpstreamError(t *testing.T) {
	_, err := NewClassifier().Classify(`data: {"error": "model overloaded"}`)
	var ue *UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if ue.Message != "model overloaded" {
		t.Errorf("message = %q", ue.Message)
	}
}

func TestClassifier_MalformedObjectRecoversAsCode(t *testing.T) {
	// Braces but neither strict nor lenient JSON: the line survives as
	// literal code with the fallback flag set.
	verdict := classifyOne(t, `{not json at all`)
	if verdict.Kind != types.LineCode {
		t.Fatalf("kind = %v, want code", verdict.Kind)
	}
	if verdict.Fallback {
		t.Error("no closing brace means the line never looked structured")
	}

	verdict = classifyOne(t, `{broken: "json",}`)
	if verdict.Kind != types.LineCode {
		t.Fatalf("kind = %v, want code", verdict.Kind)
	}
	if !verdict.Fallback {
		t.Error("failed parse of a braced line should set the fallback flag")
	}
}

func TestClassifier_Sentinels(t *testing.T) {
	for _, line := range []string{SentinelStart, SentinelDone, "  [DONE]  "} {
		verdict := classifyOne(t, line)
		if verdict.Kind != types.LineIgnored {
			t.Errorf("Classify(%q) kind = %v, want ignored", line, verdict.Kind)
		}
	}
}

func TestClassifier_SentinelStrippedFromStatus(t *testing.T) {
	verdict := classifyOne(t, "✅ Done! [DONE]")
	if verdict.Kind != types.LineStatus {
		t.Fatalf("kind = %v, want status", verdict.Kind)
	}
	if verdict.Event.Message != "✅ Done!" {
		t.Errorf("message = %q, want sentinel removed", verdict.Event.Message)
	}
}

func TestClassifier_GlyphPrefixOnly(t *testing.T) {
	// A glyph buried inside markup must not promote the line to status.
	verdict := classifyOne(t, `<span>rocket 💻 launch</span>`)
	if verdict.Kind != types.LineCode {
		t.Errorf("kind = %v, want code", verdict.Kind)
	}

	verdict = classifyOne(t, "⚙ Optimizing layout")
	if verdict.Kind != types.LineStatus {
		t.Errorf("kind = %v, want status", verdict.Kind)
	}
}

func TestClassifier_KeywordCaseSensitive(t *testing.T) {
	// Lowercase occurrences in generated copy stay code.
	verdict := classifyOne(t, `<p>processing payments since 2009</p>`)
	if verdict.Kind != types.LineCode {
		t.Errorf("kind = %v, want code", verdict.Kind)
	}

	verdict = classifyOne(t, "Analyzing layout structure")
	if verdict.Kind != types.LineStatus {
		t.Fatalf("kind = %v, want status", verdict.Kind)
	}
	if verdict.Event.Phase != types.PhaseAnalyzing {
		t.Errorf("phase = %v, want analyzing", verdict.Event.Phase)
	}
}

func TestClassifier_PhaseInference(t *testing.T) {
	tests := []struct {
		line  string
		phase types.PhaseID
	}{
		{"🔍 Analyzing image...", types.PhaseAnalyzing},
		{"Processing individual sections...", types.PhaseProcessing},
		{"💻 Generating HTML code...", types.PhaseGenerating},
		{"Converting styles", types.PhaseGenerating},
		{"✅ Done!", types.PhaseFinalizing},
		{"⚙ Generation pipeline warmed", types.PhaseProcessing},
	}

	for _, tt := range tests {
		verdict := classifyOne(t, tt.line)
		if verdict.Kind != types.LineStatus {
			t.Errorf("Classify(%q) kind = %v, want status", tt.line, verdict.Kind)
			continue
		}
		if verdict.Event.Phase != tt.phase {
			t.Errorf("Classify(%q) phase = %v, want %v", tt.line, verdict.Event.Phase, tt.phase)
		}
	}
}

func TestClassifier_IndividualSectionsRemap(t *testing.T) {
	verdict := classifyOne(t, `data: {"phase": "individual sections", "message": "stitching", "sequence": 9}`)
	if verdict.Event.Phase != types.PhaseFinalizing {
		t.Errorf("phase = %v, want finalizing", verdict.Event.Phase)
	}
}

func TestClassifier_UnknownPhaseDefaultsToProcessing(t *testing.T) {
	verdict := classifyOne(t, `data: {"phase": "daydreaming", "message": "hmm", "sequence": 1}`)
	if verdict.Event.Phase != types.PhaseProcessing {
		t.Errorf("phase = %v, want processing", verdict.Event.Phase)
	}
}

func TestClassifier_CompletionMarkerTerminal(t *testing.T) {
	verdict := classifyOne(t, "✅ Code Generation completed...")
	if verdict.Kind != types.LineStatus {
		t.Fatalf("kind = %v, want status", verdict.Kind)
	}
	if !verdict.Terminal {
		t.Error("completion marker should be terminal")
	}
	if verdict.Event.Phase != types.PhaseFinalizing {
		t.Errorf("phase = %v, want finalizing", verdict.Event.Phase)
	}
}

func TestClassifier_StructuredTerminal(t *testing.T) {
	verdict := classifyOne(t, `data: {"phase": "finalizing", "message": "✅ Done!", "sequence": 12}`)
	if !verdict.Terminal {
		t.Error("finalizing event with completion keyword should be terminal")
	}

	verdict = classifyOne(t, `data: {"phase": "finalizing", "message": "assembling document", "sequence": 12}`)
	if verdict.Terminal {
		t.Error("finalizing event without completion keyword is not terminal")
	}
}

func TestClassifier_SequenceDefaultsToArrivalOrder(t *testing.T) {
	c := NewClassifier()

	lines := []string{
		"🔍 Analyzing image...",
		`data: {"phase": "generating", "message": "working"}`,
		"💻 Generating HTML code...",
	}
	for i, line := range lines {
		verdict, err := c.Classify(line)
		if err != nil {
			t.Fatalf("Classify(%q) error: %v", line, err)
		}
		if verdict.Event.Sequence != int64(i) {
			t.Errorf("line %d sequence = %d, want %d", i, verdict.Event.Sequence, i)
		}
	}
	if c.EventCount() != 3 {
		t.Errorf("event count = %d, want 3", c.EventCount())
	}
}

func TestClassifier_EmbeddedMessageUnwrapped(t *testing.T) {
	line := `data: {"phase": "generating", "message": "{'phase': 'generating', 'message': 'inner text'}", "sequence": 2}`
	verdict := classifyOne(t, line)
	if verdict.Event.Message != "inner text" {
		t.Errorf("message = %q, want inner text", verdict.Event.Message)
	}
	if verdict.Event.Phase != types.PhaseGenerating {
		t.Errorf("outer phase must win, got %v", verdict.Event.Phase)
	}
}

func TestClassifier_CodeKeepsIndentation(t *testing.T) {
	verdict := classifyOne(t, "    <div>indented</div>")
	if verdict.Kind != types.LineCode {
		t.Fatalf("kind = %v, want code", verdict.Kind)
	}
	if verdict.Code != "    <div>indented</div>" {
		t.Errorf("code = %q, indentation must survive", verdict.Code)
	}
}

func TestClassifier_BlankIgnored(t *testing.T) {
	verdict := classifyOne(t, "   ")
	if verdict.Kind != types.LineIgnored {
		t.Errorf("kind = %v, want ignored", verdict.Kind)
	}
}
