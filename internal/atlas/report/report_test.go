package report

import (
	"encoding/json"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/build-flow-labs/atlas/internal/atlas/findings"
	"github.com/build-flow-labs/atlas/internal/atlas/graph"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func sampleGraph(t *testing.T) *graph.Graph {
	t.Helper()
	g := graph.New("test-pipeline", "jenkins")

	p := graph.NewNode(graph.KindPipeline, "main-build")
	s1 := graph.NewNode(graph.KindStage, "Build")
	s2 := graph.NewNode(graph.KindStage, "Test")
	s3 := graph.NewNode(graph.KindStage, "Deploy")
	step := graph.NewNode(graph.KindStep, "sh: make").
		SetAttr("command", "make build").
		SetAttr("shell", "sh")
	secret := graph.NewNode(graph.KindSecretRef, "AWS_KEY")
	img := graph.NewNode(graph.KindContainerImage, "python:latest").
		SetAttr("tag", "latest")
	doc := graph.NewNode(graph.KindDocFile, "README.md").
		SetAttr("doc_type", "readme")
	downstream := graph.NewNode(graph.KindJob, "notify-slack")

	for _, n := range []*graph.Node{p, s1, s2, s3, step, secret, img, doc, downstream} {
		if err := g.AddNode(n); err != nil {
			t.Fatal(err)
		}
	}
	g.AddEdge(graph.Edge{Kind: graph.EdgeCalls, SourceID: p.ID, TargetID: s1.ID})
	g.AddEdge(graph.Edge{Kind: graph.EdgeCalls, SourceID: p.ID, TargetID: s2.ID})
	g.AddEdge(graph.Edge{Kind: graph.EdgeCalls, SourceID: p.ID, TargetID: s3.ID})
	g.AddEdge(graph.Edge{Kind: graph.EdgeCalls, SourceID: s1.ID, TargetID: step.ID})
	g.AddEdge(graph.Edge{Kind: graph.EdgeTriggers, SourceID: p.ID, TargetID: downstream.ID})
	return g
}

func TestMarkdownRendersAllSections(t *testing.T) {
	gen := NewGenerator(testLogger())
	md, err := gen.Markdown(sampleGraph(t), "")
	if err != nil {
		t.Fatal(err)
	}

	sections := []string{
		"# PipelineAtlas Analysis Report",
		"## 1. Structure Map",
		"## 2. Dependency Graph",
		"## 3. Complexity Score",
		"## 4. Fragility Score",
		"## 5. Documentation Coverage",
		"## 6. Improvement List",
		"## 7. Modernization Roadmap",
		"## 8. Evidence Index",
	}
	for _, want := range sections {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
	if !strings.Contains(md, "test-pipeline") {
		t.Error("markdown missing pipeline name")
	}
}

func TestMarkdownFindingsRendered(t *testing.T) {
	gen := NewGenerator(testLogger())
	md, err := gen.Markdown(sampleGraph(t), "")
	if err != nil {
		t.Fatal(err)
	}

	// The sample graph trips unpinned-image, missing-docs, and cross-trigger.
	for _, want := range []string{"unpinned-image", "missing-docs", "cross-trigger", "Recommendation"} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}

func TestMarkdownEmptyFindings(t *testing.T) {
	g := graph.New("clean", "")
	if err := g.AddNode(graph.NewNode(graph.KindPipeline, "p")); err != nil {
		t.Fatal(err)
	}
	for _, dt := range []string{"readme", "architecture", "runbook", "security_policy", "codeowners"} {
		if err := g.AddNode(graph.NewNode(graph.KindDocFile, dt).SetAttr("doc_type", dt)); err != nil {
			t.Fatal(err)
		}
	}
	for _, env := range []string{"staging", "production"} {
		if err := g.AddNode(graph.NewNode(graph.KindEnvironment, env)); err != nil {
			t.Fatal(err)
		}
	}

	gen := NewGenerator(testLogger())
	md, err := gen.Markdown(g, "")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(md, "No findings") {
		t.Error("expected 'No findings' for a clean graph")
	}
}

func TestJSONReportStructure(t *testing.T) {
	gen := NewGenerator(testLogger())
	out, err := gen.JSON(sampleGraph(t), "Phase 2 TBD")
	if err != nil {
		t.Fatal(err)
	}

	var parsed map[string]any
	if err := json.Unmarshal([]byte(out), &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	meta := parsed["meta"].(map[string]any)
	if meta["pipeline"] != "test-pipeline" {
		t.Errorf("meta.pipeline = %v, want test-pipeline", meta["pipeline"])
	}
	if meta["node_count"].(float64) != 9 {
		t.Errorf("meta.node_count = %v, want 9", meta["node_count"])
	}

	scores := parsed["scores"].(map[string]any)
	complexity := scores["complexity"].(map[string]any)
	if complexity["score"].(float64) != 43.5 {
		t.Errorf("complexity.score = %v, want 43.5", complexity["score"])
	}
	fragility := scores["fragility"].(map[string]any)
	if fragility["score"].(float64) != 62.0 {
		t.Errorf("fragility.score = %v, want 62.0", fragility["score"])
	}
	maturity := scores["maturity"].(map[string]any)
	if maturity["pinned_image_ratio"].(float64) != 0.0 {
		t.Errorf("maturity.pinned_image_ratio = %v, want 0.0", maturity["pinned_image_ratio"])
	}

	deps := parsed["dependencies"].([]any)
	if len(deps) != 5 {
		t.Errorf("dependencies = %d, want 5", len(deps))
	}
	if parsed["modernization_roadmap"] != "Phase 2 TBD" {
		t.Errorf("modernization_roadmap = %v", parsed["modernization_roadmap"])
	}
}

func TestJSONEmptyGraph(t *testing.T) {
	gen := NewGenerator(testLogger())
	out, err := gen.JSON(graph.New("empty", ""), "")
	if err != nil {
		t.Fatal(err)
	}

	var parsed map[string]any
	if err := json.Unmarshal([]byte(out), &parsed); err != nil {
		t.Fatal(err)
	}
	meta := parsed["meta"].(map[string]any)
	if meta["node_count"].(float64) != 0 {
		t.Errorf("node_count = %v, want 0", meta["node_count"])
	}
	if parsed["modernization_roadmap"] != nil {
		t.Errorf("modernization_roadmap = %v, want null", parsed["modernization_roadmap"])
	}
}

func TestHTMLReport(t *testing.T) {
	gen := NewGenerator(testLogger())
	html, err := gen.HTML(sampleGraph(t), "")
	if err != nil {
		t.Fatal(err)
	}

	for _, want := range []string{
		"<!DOCTYPE html>",
		"PipelineAtlas Analysis Report",
		"test-pipeline",
		"unpinned-image",
		"43.5",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("html missing %q", want)
		}
	}
}

func TestGenerateAssemblesData(t *testing.T) {
	gen := NewGenerator(testLogger())
	data, err := gen.Generate(sampleGraph(t), "notes")
	if err != nil {
		t.Fatal(err)
	}
	if data.Scores.NodeCount != 9 {
		t.Errorf("NodeCount = %d, want 9", data.Scores.NodeCount)
	}
	if data.ModernizationNotes != "notes" {
		t.Errorf("ModernizationNotes = %q", data.ModernizationNotes)
	}
	if data.GeneratedAt.IsZero() {
		t.Error("GeneratedAt not set")
	}
	if len(data.Findings) == 0 {
		t.Error("expected findings for the sample graph")
	}
	// Findings arrive sorted: no later finding may outrank an earlier one.
	rank := map[findings.Severity]int{
		findings.SeverityCritical: 0,
		findings.SeverityHigh:     1,
		findings.SeverityMedium:   2,
		findings.SeverityLow:      3,
		findings.SeverityInfo:     4,
	}
	for i := 1; i < len(data.Findings); i++ {
		if rank[data.Findings[i].Severity] < rank[data.Findings[i-1].Severity] {
			t.Errorf("findings not sorted by severity at %d", i)
		}
	}
}
