package cmd

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/pagesmith-io/pagesmith/cli/render"
	"github.com/pagesmith-io/pagesmith/cli/tui"
	"github.com/pagesmith-io/pagesmith/progress"
	"github.com/pagesmith-io/pagesmith/store"
)

// InspectResponse is the deep view of one persisted conversion.
type InspectResponse struct {
	RequestID    string         `json:"request_id"`
	Outcome      string         `json:"outcome"`
	Heuristic    bool           `json:"heuristic"`
	Duration     string         `json:"duration"`
	CodeBytes    int            `json:"code_bytes"`
	CodeLines    int64          `json:"code_lines"`
	EventCount   int            `json:"event_count"`
	ArtifactPath string         `json:"artifact_path,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	Phases       []PhaseSummary `json:"phases"`
}

// PhaseSummary is the per-phase slice of an inspect response.
type PhaseSummary struct {
	Phase     string `json:"phase"`
	Reached   bool   `json:"reached"`
	Active    bool   `json:"active"`
	Completed bool   `json:"completed"`
	Events    int    `json:"events"`
}

// InspectCommand returns the inspect command.
// Inspect returns a deep view of a single conversion.
func InspectCommand() *cli.Command {
	return &cli.Command{
		Name:      "inspect",
		Usage:     "Inspect a conversion by request ID",
		ArgsUsage: "<request-id>",
		Flags:     ReadOnlyFlags(),
		Action:    inspectAction,
	}
}

func inspectAction(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.Exit("request-id required", 1)
	}
	requestID := c.Args().First()

	reader, err := store.NewReader(c.String("storage-root"))
	if err != nil {
		return err
	}
	trace, err := reader.LoadTrace(requestID)
	if err != nil {
		return fmt.Errorf("conversion not found: %w", err)
	}

	if c.Bool("tui") {
		return tui.RunInspectTUI(trace)
	}

	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}

	resp := &InspectResponse{
		RequestID:  trace.RequestID,
		Outcome:    trace.Outcome,
		Heuristic:  trace.Heuristic,
		Duration:   (time.Duration(trace.DurationMs) * time.Millisecond).String(),
		CodeBytes:  trace.CodeBytes,
		CodeLines:  trace.CodeLines,
		EventCount: len(trace.Events),
		CreatedAt:  trace.CreatedAt,
	}
	if path, ok := reader.ArtifactPath(requestID); ok {
		resp.ArtifactPath = path
	}

	tracker := progress.NewTracker()
	for _, ev := range trace.Events {
		tracker.Observe(ev)
	}
	for _, ps := range tracker.Phases() {
		resp.Phases = append(resp.Phases, PhaseSummary{
			Phase:     string(ps.Phase),
			Reached:   ps.Reached,
			Active:    ps.Active,
			Completed: ps.Completed,
			Events:    len(ps.Events),
		})
	}

	return r.Render(resp)
}
