// Package cmd provides CLI commands for the pagesmith binary.
package cmd

import "github.com/urfave/cli/v2"

// Shared flags for read-only commands.
var (
	// FormatFlag selects output format: json, table, yaml.
	FormatFlag = &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format: json, table, yaml",
	}

	// StorageRootFlag points read-only commands at a filesystem store.
	StorageRootFlag = &cli.StringFlag{
		Name:  "storage-root",
		Usage: "Filesystem storage root to read traces from",
		Value: "pagesmith-out",
	}

	// TUIFlag enables Bubble Tea interactive mode.
	TUIFlag = &cli.BoolFlag{
		Name:  "tui",
		Usage: "Enable interactive TUI mode",
	}
)

// ReadOnlyFlags returns the shared flags for all read-only commands.
func ReadOnlyFlags() []cli.Flag {
	return []cli.Flag{
		FormatFlag,
		StorageRootFlag,
		TUIFlag,
	}
}
