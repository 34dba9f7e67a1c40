package cmd

import (
	"time"

	"github.com/urfave/cli/v2"

	"github.com/pagesmith-io/pagesmith/cli/render"
	"github.com/pagesmith-io/pagesmith/store"
)

// ListItem is one row of the list output.
type ListItem struct {
	RequestID string    `json:"request_id"`
	Outcome   string    `json:"outcome"`
	Duration  string    `json:"duration"`
	CodeBytes int       `json:"code_bytes"`
	CreatedAt time.Time `json:"created_at"`
}

// ListCommand returns the list command.
func ListCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List persisted conversions, newest first",
		Flags: append(ReadOnlyFlags(),
			&cli.StringFlag{
				Name:  "outcome",
				Usage: "Filter by outcome (success, upstream_error, transport_error, canceled)",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of results (0 = unlimited)",
			},
		),
		Action: listAction,
	}
}

func listAction(c *cli.Context) error {
	reader, err := store.NewReader(c.String("storage-root"))
	if err != nil {
		return err
	}
	traces, err := reader.List()
	if err != nil {
		return err
	}

	outcome := c.String("outcome")
	limit := c.Int("limit")

	items := make([]ListItem, 0, len(traces))
	for _, t := range traces {
		if outcome != "" && t.Outcome != outcome {
			continue
		}
		items = append(items, ListItem{
			RequestID: t.RequestID,
			Outcome:   t.Outcome,
			Duration:  (time.Duration(t.DurationMs) * time.Millisecond).String(),
			CodeBytes: t.CodeBytes,
			CreatedAt: t.CreatedAt,
		})
		if limit > 0 && len(items) >= limit {
			break
		}
	}

	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}
	return r.Render(items)
}
