package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/build-flow-labs/atlas/internal/atlas/graph"
	"github.com/build-flow-labs/atlas/internal/atlas/score"
)

var scoreJSON bool

var scoreCmd = &cobra.Command{
	Use:   "score <file|directory>",
	Short: "Score pipeline snapshots on complexity, fragility, and maturity",
	Long: `Evaluates graph snapshots on 3 axes, each 0-100:

  Complexity — nodes, edges, call depth, fan-out
  Fragility  — secrets, cross-triggers, unpinned images, missing docs
  Maturity   — caching, parallelism, pinning, docs, retries, environments

Pass a single .atlas.yaml file or a directory to score every snapshot in it.
Use --json for machine-readable output.`,
	Args: cobra.ExactArgs(1),
	RunE: runScore,
}

func init() {
	scoreCmd.Flags().BoolVar(&scoreJSON, "json", false, "Output JSON instead of formatted table")
}

type scoreResult struct {
	File     string       `json:"file"`
	Pipeline string       `json:"pipeline"`
	Scores   score.Scores `json:"scores"`
}

func runScore(cmd *cobra.Command, args []string) error {
	files, err := snapshotFiles(args[0])
	if err != nil {
		return err
	}

	var results []scoreResult
	for _, f := range files {
		g, err := graph.LoadSnapshot(f)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: skipping %s: %v\n", f, err)
			continue
		}
		s, err := score.Compute(g)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: skipping %s: %v\n", f, err)
			continue
		}
		results = append(results, scoreResult{
			File:     filepath.Base(f),
			Pipeline: g.Name,
			Scores:   s,
		})
	}
	if len(results) == 0 {
		return fmt.Errorf("no valid snapshots to score")
	}

	if scoreJSON {
		out, _ := json.MarshalIndent(results, "", "  ")
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	}

	out := cmd.OutOrStdout()
	if len(results) == 1 {
		printDetailedScore(out, results[0])
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "PIPELINE\tNODES\tEDGES\tCOMPLEXITY\tFRAGILITY\tMATURITY\n")
	fmt.Fprintf(w, "--------\t-----\t-----\t----------\t---------\t--------\n")
	for _, r := range results {
		s := r.Scores
		fmt.Fprintf(w, "%s\t%d\t%d\t%.1f\t%.1f\t%.1f\n",
			r.Pipeline, s.NodeCount, s.EdgeCount,
			s.ComplexityScore, s.FragilityScore, s.MaturityScore)
	}
	w.Flush()

	fmt.Fprintln(out)
	for _, r := range results {
		printDetailedScore(out, r)
		fmt.Fprintln(out)
	}
	return nil
}

// snapshotFiles resolves the argument to one or more snapshot paths.
func snapshotFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("cannot access %s: %w", path, err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("reading directory: %w", err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), graph.SnapshotSuffix) {
			files = append(files, filepath.Join(path, e.Name()))
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no %s files found in %s", graph.SnapshotSuffix, path)
	}
	return files, nil
}

func printDetailedScore(out io.Writer, r scoreResult) {
	s := r.Scores

	fmt.Fprintf(out, "PIPELINE HEALTH: %s\n", r.Pipeline)
	fmt.Fprintln(out, strings.Repeat("─", 60))

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "  Complexity\t%.1f/100\n", s.ComplexityScore)
	w.Flush()
	fmt.Fprintf(out, "    - nodes %d, edges %d, max depth %d, max fan-out %d\n",
		s.NodeCount, s.EdgeCount, s.MaxDepth, s.MaxFanOut)

	fmt.Fprintf(w, "  Fragility\t%.1f/100\n", s.FragilityScore)
	w.Flush()
	fmt.Fprintf(out, "    - secrets %d, cross-triggers %d, unpinned images %d, missing docs %d\n",
		s.SecretCount, s.CrossTriggerCount, s.UnpinnedImageCount, s.MissingDocTypes)

	fmt.Fprintf(w, "  Maturity\t%.1f/100\n", s.MaturityScore)
	w.Flush()
	fmt.Fprintf(out, "    - caching %v, parallelism %v, pinned ratio %.2f, doc coverage %.2f, retries %v, env isolation %v\n",
		s.HasCaching, s.HasParallelism, s.PinnedImageRatio, s.DocCoverage, s.HasRetries, s.HasEnvIsolation)
}
