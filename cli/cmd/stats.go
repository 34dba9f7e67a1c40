package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/pagesmith-io/pagesmith/cli/render"
	"github.com/pagesmith-io/pagesmith/store"
)

// ConversionStats aggregates outcomes across all persisted conversions.
type ConversionStats struct {
	Total          int   `json:"total"`
	Success        int   `json:"success"`
	UpstreamError  int   `json:"upstream_error"`
	TransportError int   `json:"transport_error"`
	Canceled       int   `json:"canceled"`
	TotalCodeBytes int   `json:"total_code_bytes"`
	TotalEvents    int   `json:"total_events"`
	AvgDurationMs  int64 `json:"avg_duration_ms"`
}

// StatsCommand returns the stats command with subcommands.
// Stats returns aggregated, derived facts; it never mutates storage.
func StatsCommand() *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Show aggregated statistics over persisted conversions",
		Subcommands: []*cli.Command{
			statsConversionsCommand(),
			statsMetricsCommand(),
		},
	}
}

func statsConversionsCommand() *cli.Command {
	return &cli.Command{
		Name:   "conversions",
		Usage:  "Show conversion outcome statistics",
		Flags:  ReadOnlyFlags(),
		Action: statsConversionsAction,
	}
}

func statsConversionsAction(c *cli.Context) error {
	reader, err := store.NewReader(c.String("storage-root"))
	if err != nil {
		return err
	}
	traces, err := reader.List()
	if err != nil {
		return err
	}

	stats := &ConversionStats{}
	var totalDuration int64
	for _, t := range traces {
		stats.Total++
		switch t.Outcome {
		case "success":
			stats.Success++
		case "upstream_error":
			stats.UpstreamError++
		case "transport_error":
			stats.TransportError++
		case "canceled":
			stats.Canceled++
		}
		stats.TotalCodeBytes += t.CodeBytes
		stats.TotalEvents += len(t.Events)
		totalDuration += t.DurationMs
	}
	if stats.Total > 0 {
		stats.AvgDurationMs = totalDuration / int64(stats.Total)
	}

	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}
	return r.Render(stats)
}

func statsMetricsCommand() *cli.Command {
	return &cli.Command{
		Name:      "metrics",
		Usage:     "Show the recorded metrics of one conversion",
		ArgsUsage: "<request-id>",
		Flags:     ReadOnlyFlags(),
		Action:    statsMetricsAction,
	}
}

func statsMetricsAction(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.Exit("request-id required", 1)
	}

	reader, err := store.NewReader(c.String("storage-root"))
	if err != nil {
		return err
	}
	trace, err := reader.LoadTrace(c.Args().First())
	if err != nil {
		return fmt.Errorf("conversion not found: %w", err)
	}

	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}
	snap := trace.Metrics
	return r.Render(&snap)
}
