package findings

import (
	"fmt"
	"testing"

	"github.com/build-flow-labs/atlas/internal/atlas/graph"
	"github.com/build-flow-labs/atlas/internal/atlas/score"
)

func analyze(t *testing.T, g *graph.Graph) []Finding {
	t.Helper()
	s, err := score.Compute(g)
	if err != nil {
		t.Fatal(err)
	}
	return NewAnalyzer().Analyze(g, s)
}

func byRule(fs []Finding, ruleID string) []Finding {
	var out []Finding
	for _, f := range fs {
		if f.RuleID == ruleID {
			out = append(out, f)
		}
	}
	return out
}

func add(t *testing.T, g *graph.Graph, nodes ...*graph.Node) {
	t.Helper()
	for _, n := range nodes {
		if err := g.AddNode(n); err != nil {
			t.Fatal(err)
		}
	}
}

func TestUnpinnedImageRule(t *testing.T) {
	g := graph.New("imgs", "")
	add(t, g,
		graph.NewNode(graph.KindContainerImage, "python:latest").SetAttr("tag", "latest"),
		graph.NewNode(graph.KindContainerImage, "golang:1.23.4").SetAttr("tag", "1.23.4"),
	)

	got := byRule(analyze(t, g), "unpinned-image")
	if len(got) != 1 {
		t.Fatalf("expected 1 unpinned-image finding, got %d", len(got))
	}
	f := got[0]
	if f.Severity != SeverityHigh {
		t.Errorf("Severity = %s, want high", f.Severity)
	}
	if len(f.Evidence) != 1 || f.Evidence[0].NodeID == "" {
		t.Errorf("expected evidence with node id, got %+v", f.Evidence)
	}
}

func TestMissingDocsRule(t *testing.T) {
	g := graph.New("docs", "")
	add(t, g,
		graph.NewNode(graph.KindPipeline, "p"),
		graph.NewNode(graph.KindDocFile, "README.md").SetAttr("doc_type", "readme"),
	)

	got := byRule(analyze(t, g), "missing-docs")
	if len(got) != 1 {
		t.Fatalf("expected 1 missing-docs finding, got %d", len(got))
	}
	if len(got[0].Evidence) != 4 {
		t.Errorf("expected 4 evidence entries, got %d", len(got[0].Evidence))
	}
}

func TestMissingDocsRuleAllPresent(t *testing.T) {
	g := graph.New("docs", "")
	add(t, g, graph.NewNode(graph.KindPipeline, "p"))
	for _, dt := range []string{"readme", "architecture", "runbook", "security_policy", "codeowners"} {
		add(t, g, graph.NewNode(graph.KindDocFile, dt).SetAttr("doc_type", dt))
	}

	if got := byRule(analyze(t, g), "missing-docs"); len(got) != 0 {
		t.Errorf("expected no missing-docs finding, got %d", len(got))
	}
}

func TestCrossTriggerRule(t *testing.T) {
	g := graph.New("trig", "")
	p := graph.NewNode(graph.KindPipeline, "build")
	j := graph.NewNode(graph.KindJob, "deploy-downstream")
	add(t, g, p, j)
	g.AddEdge(graph.Edge{Kind: graph.EdgeTriggers, SourceID: p.ID, TargetID: j.ID})

	got := byRule(analyze(t, g), "cross-trigger")
	if len(got) != 1 {
		t.Fatalf("expected 1 cross-trigger finding, got %d", len(got))
	}
	if got[0].Title != "Cross-pipeline trigger: build -> deploy-downstream" {
		t.Errorf("unexpected title %q", got[0].Title)
	}
}

func TestSecretSprawlRule(t *testing.T) {
	tests := []struct {
		secrets int
		want    int
	}{
		{secrets: 4, want: 0},
		{secrets: 5, want: 1},
		{secrets: 9, want: 1},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d secrets", tt.secrets), func(t *testing.T) {
			g := graph.New("secrets", "")
			for i := 0; i < tt.secrets; i++ {
				add(t, g, graph.NewNode(graph.KindSecretRef, fmt.Sprintf("SECRET_%d", i)))
			}

			got := byRule(analyze(t, g), "secret-sprawl")
			if len(got) != tt.want {
				t.Errorf("findings = %d, want %d", len(got), tt.want)
			}
			if tt.want == 1 && len(got[0].Evidence) != tt.secrets {
				t.Errorf("evidence = %d, want one per secret (%d)", len(got[0].Evidence), tt.secrets)
			}
		})
	}
}

func TestDeepCallChainRule(t *testing.T) {
	g := graph.New("deep", "")
	p := graph.NewNode(graph.KindPipeline, "p")
	add(t, g, p)
	prev := p
	for i := 0; i < 7; i++ {
		n := graph.NewNode(graph.KindJob, fmt.Sprintf("level-%d", i))
		add(t, g, n)
		g.AddEdge(graph.Edge{Kind: graph.EdgeCalls, SourceID: prev.ID, TargetID: n.ID})
		prev = n
	}

	got := byRule(analyze(t, g), "deep-call-chain")
	if len(got) != 1 {
		t.Fatalf("expected 1 deep-call-chain finding (depth 8), got %d", len(got))
	}
}

func TestEnvIsolationRule(t *testing.T) {
	g := graph.New("envs", "")
	add(t, g,
		graph.NewNode(graph.KindPipeline, "p"),
		graph.NewNode(graph.KindEnvironment, "production"),
	)

	got := byRule(analyze(t, g), "no-env-isolation")
	if len(got) != 1 {
		t.Fatalf("expected 1 no-env-isolation finding, got %d", len(got))
	}

	add(t, g, graph.NewNode(graph.KindEnvironment, "staging"))
	if got := byRule(analyze(t, g), "no-env-isolation"); len(got) != 0 {
		t.Errorf("expected no finding with two environments, got %d", len(got))
	}
}

func TestSortOrdersBySeverityThenRule(t *testing.T) {
	fs := []Finding{
		{RuleID: "b-low", Severity: SeverityLow},
		{RuleID: "a-high", Severity: SeverityHigh},
		{RuleID: "c-high", Severity: SeverityHigh},
		{RuleID: "a-critical", Severity: SeverityCritical},
	}
	Sort(fs)

	want := []string{"a-critical", "a-high", "c-high", "b-low"}
	for i, w := range want {
		if fs[i].RuleID != w {
			t.Fatalf("order[%d] = %s, want %s (full order %v)", i, fs[i].RuleID, w, fs)
		}
	}
}

func TestAnalyzeDeterministic(t *testing.T) {
	g := graph.New("det", "")
	p := graph.NewNode(graph.KindPipeline, "p")
	j := graph.NewNode(graph.KindJob, "j")
	add(t, g, p, j,
		graph.NewNode(graph.KindContainerImage, "a:latest").SetAttr("tag", "latest"),
		graph.NewNode(graph.KindContainerImage, "b:nightly").SetAttr("tag", "nightly"),
	)
	g.AddEdge(graph.Edge{Kind: graph.EdgeTriggers, SourceID: p.ID, TargetID: j.ID})

	first := analyze(t, g)
	for i := 0; i < 5; i++ {
		again := analyze(t, g)
		if len(again) != len(first) {
			t.Fatalf("finding count changed: %d vs %d", len(again), len(first))
		}
		for j := range first {
			if again[j].RuleID != first[j].RuleID || again[j].Title != first[j].Title {
				t.Fatalf("finding %d changed: %+v vs %+v", j, again[j], first[j])
			}
		}
	}
}
