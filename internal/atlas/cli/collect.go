package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/build-flow-labs/atlas/internal/atlas/graph"
	"github.com/build-flow-labs/atlas/internal/atlas/ingest"
)

var (
	collectPath   string
	collectOrg    string
	collectRepo   string
	collectToken  string
	collectOutput string
)

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Collect a pipeline snapshot from GitHub or a local checkout",
	Long: `Reads GitHub Actions workflows and documentation files and writes a
graph snapshot for scoring and reporting.

Sources:
  --path <dir>           a local checkout
  --org X --repo Y       the GitHub API (GITHUB_TOKEN or --token for
                         private repos)`,
	RunE: runCollect,
}

func init() {
	collectCmd.Flags().StringVar(&collectPath, "path", "", "Local repository checkout to collect from")
	collectCmd.Flags().StringVar(&collectOrg, "org", "", "GitHub organization or user")
	collectCmd.Flags().StringVar(&collectRepo, "repo", "", "GitHub repository name")
	collectCmd.Flags().StringVar(&collectToken, "token", "", "GitHub token (or GITHUB_TOKEN env var)")
	collectCmd.Flags().StringVarP(&collectOutput, "output", "o", "", "Snapshot file to write (default <name>.atlas.yaml)")
}

func runCollect(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	var (
		g   *graph.Graph
		err error
	)
	switch {
	case collectPath != "":
		g, err = ingest.CollectDir(collectPath, logger)
	case collectOrg != "" && collectRepo != "":
		token := collectToken
		if token == "" {
			token = os.Getenv("GITHUB_TOKEN")
		}
		f := ingest.NewFetcher(cmd.Context(), token, logger)
		g, err = f.FetchRepo(cmd.Context(), collectOrg, collectRepo)
	default:
		return fmt.Errorf("a source is required: --path, or --org with --repo")
	}
	if err != nil {
		return err
	}

	out := collectOutput
	if out == "" {
		out = snapshotFileName(g.Name)
	}
	if err := graph.WriteSnapshot(out, g); err != nil {
		return err
	}

	logger.Info("snapshot written",
		"file", out,
		"nodes", g.NodeCount(),
		"edges", g.EdgeCount(),
	)
	return nil
}

// snapshotFileName derives a filesystem-safe snapshot name from a graph name
// like "acme/ci".
func snapshotFileName(name string) string {
	safe := strings.NewReplacer("/", "_", " ", "-").Replace(name)
	return filepath.Clean(safe + graph.SnapshotSuffix)
}
