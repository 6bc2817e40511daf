package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/build-flow-labs/atlas/internal/atlas/graph"
)

var initOutput string

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter snapshot to experiment with",
	Long: `Writes a small example snapshot so you can try scoring and reports
without collecting a real repository first:

  atlas init
  atlas score example.atlas.yaml
  atlas report example.atlas.yaml`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().StringVarP(&initOutput, "output", "o", "example"+graph.SnapshotSuffix, "Snapshot file to write")
}

func runInit(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(initOutput); err == nil {
		return fmt.Errorf("%s already exists", initOutput)
	}

	g, err := starterGraph()
	if err != nil {
		return err
	}
	if err := graph.WriteSnapshot(initOutput, g); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s. Try: atlas score %s\n", initOutput, initOutput)
	return nil
}

func starterGraph() (*graph.Graph, error) {
	g := graph.New("example-service", "github_actions")

	pipeline := graph.NewNode(graph.KindPipeline, "ci")
	build := graph.NewNode(graph.KindStage, "build").SetAttr("parallel", true)
	test := graph.NewNode(graph.KindStage, "test").SetAttr("parallel", true)
	deploy := graph.NewNode(graph.KindStage, "deploy")
	compile := graph.NewNode(graph.KindStep, "make build").SetAttr("command", "make build")
	img := graph.NewNode(graph.KindContainerImage, "golang:latest").
		SetAttr("tag", "latest").
		SetAttr("pinned", false)
	secret := graph.NewNode(graph.KindSecretRef, "DEPLOY_KEY")
	readme := graph.NewNode(graph.KindDocFile, "README.md").SetAttr("doc_type", "readme")
	prod := graph.NewNode(graph.KindEnvironment, "production")

	nodes := []*graph.Node{pipeline, build, test, deploy, compile, img, secret, readme, prod}
	for _, n := range nodes {
		if err := g.AddNode(n); err != nil {
			return nil, err
		}
	}

	g.AddEdge(graph.Edge{Kind: graph.EdgeCalls, SourceID: pipeline.ID, TargetID: build.ID})
	g.AddEdge(graph.Edge{Kind: graph.EdgeCalls, SourceID: pipeline.ID, TargetID: test.ID})
	g.AddEdge(graph.Edge{Kind: graph.EdgeCalls, SourceID: pipeline.ID, TargetID: deploy.ID})
	g.AddEdge(graph.Edge{Kind: graph.EdgeCalls, SourceID: build.ID, TargetID: compile.ID})
	g.AddEdge(graph.Edge{Kind: graph.EdgeUses, SourceID: build.ID, TargetID: img.ID})
	g.AddEdge(graph.Edge{Kind: graph.EdgeUses, SourceID: deploy.ID, TargetID: secret.ID})
	g.AddEdge(graph.Edge{Kind: graph.EdgeUses, SourceID: deploy.ID, TargetID: prod.ID})
	return g, nil
}
