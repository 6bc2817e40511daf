package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/build-flow-labs/atlas/internal/atlas/graph"
	"github.com/build-flow-labs/atlas/internal/atlas/report"
)

var (
	reportFormat string
	reportOutput string
	reportNotes  string
)

var reportCmd = &cobra.Command{
	Use:   "report <snapshot>",
	Short: "Render a full analysis report from a snapshot",
	Long: `Generates the eight-section analysis report for one snapshot:
structure map, dependency graph, the three scores, documentation coverage,
findings, modernization roadmap, and evidence index.

Formats: md (default), json, html.`,
	Args: cobra.ExactArgs(1),
	RunE: runReport,
}

func init() {
	reportCmd.Flags().StringVar(&reportFormat, "format", "md", "Output format: md, json, or html")
	reportCmd.Flags().StringVarP(&reportOutput, "output", "o", "", "Write the report to a file instead of stdout")
	reportCmd.Flags().StringVar(&reportNotes, "notes", "", "Modernization notes to include in the roadmap section")
}

func runReport(cmd *cobra.Command, args []string) error {
	g, err := graph.LoadSnapshot(args[0])
	if err != nil {
		return err
	}

	gen := report.NewGenerator(newLogger())

	var out string
	switch reportFormat {
	case "md", "markdown":
		out, err = gen.Markdown(g, reportNotes)
	case "json":
		out, err = gen.JSON(g, reportNotes)
	case "html":
		out, err = gen.HTML(g, reportNotes)
	default:
		return fmt.Errorf("unknown format %q (want md, json, or html)", reportFormat)
	}
	if err != nil {
		return err
	}

	if reportOutput == "" {
		fmt.Fprintln(cmd.OutOrStdout(), out)
		return nil
	}
	if err := os.WriteFile(reportOutput, []byte(out), 0o644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Report written to %s\n", reportOutput)
	return nil
}
