// Package cli implements the atlas command tree.
package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// Version is the CLI version, overridable at build time.
var Version = "0.3.0"

var rootVerbose bool

// RootCmd is the top-level atlas command.
var RootCmd = &cobra.Command{
	Use:   "atlas",
	Short: "PipelineAtlas — map and score CI/CD pipeline health",
	Long: `PipelineAtlas turns CI configuration into a typed pipeline graph and
scores it on three axes:

  Complexity — how much structure the pipeline carries
  Fragility  — how likely a change is to break something
  Maturity   — how many engineering safeguards are in place

Collect a snapshot from a GitHub repo or a local checkout, score it,
render reports, or serve a dashboard over a directory of snapshots.`,
	Version:      Version,
	SilenceUsage: true,
}

func init() {
	RootCmd.PersistentFlags().BoolVarP(&rootVerbose, "verbose", "v", false, "Enable debug logging")

	RootCmd.AddCommand(collectCmd)
	RootCmd.AddCommand(scoreCmd)
	RootCmd.AddCommand(reportCmd)
	RootCmd.AddCommand(serveCmd)
	RootCmd.AddCommand(initCmd)
	RootCmd.AddCommand(versionCmd)
}

// newLogger builds the process logger honoring --verbose.
func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if rootVerbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
