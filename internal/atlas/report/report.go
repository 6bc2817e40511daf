// Package report assembles a scored pipeline graph into rendered reports.
//
// The Generator wires scoring and rule analysis together and renders the
// result as Markdown, JSON, or HTML. Renderers only format — they never
// reorder or re-derive score values.
package report

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/build-flow-labs/atlas/internal/atlas/findings"
	"github.com/build-flow-labs/atlas/internal/atlas/graph"
	"github.com/build-flow-labs/atlas/internal/atlas/score"
)

// Data is everything needed to render one report.
//
// Sections:
//  1. Structure Map
//  2. Dependency Graph
//  3. Complexity Score
//  4. Fragility Score
//  5. Documentation Coverage
//  6. Improvement List
//  7. Modernization Roadmap
//  8. Evidence Index
type Data struct {
	Graph              *graph.Graph
	Findings           []findings.Finding
	Scores             score.Scores
	GeneratedAt        time.Time
	ModernizationNotes string
}

// Generator produces reports from graph snapshots.
type Generator struct {
	analyzer *findings.Analyzer
	logger   *slog.Logger
}

// NewGenerator creates a Generator with default rule thresholds.
func NewGenerator(logger *slog.Logger) *Generator {
	return &Generator{
		analyzer: findings.NewAnalyzer(),
		logger:   logger,
	}
}

// Generate scores the graph, runs the rule analyzer, and assembles the
// report data.
func (g *Generator) Generate(gr *graph.Graph, notes string) (*Data, error) {
	scores, err := score.Compute(gr)
	if err != nil {
		return nil, fmt.Errorf("scoring %s: %w", gr.Name, err)
	}

	fnds := g.analyzer.Analyze(gr, scores)
	findings.Sort(fnds)

	data := &Data{
		Graph:              gr,
		Findings:           fnds,
		Scores:             scores,
		GeneratedAt:        time.Now().UTC(),
		ModernizationNotes: notes,
	}

	g.logger.Info("report data assembled",
		"pipeline", gr.Name,
		"nodes", gr.NodeCount(),
		"findings", len(fnds),
		"complexity", scores.ComplexityScore,
		"fragility", scores.FragilityScore,
		"maturity", scores.MaturityScore,
	)
	return data, nil
}

// Markdown generates a full Markdown report.
func (g *Generator) Markdown(gr *graph.Graph, notes string) (string, error) {
	data, err := g.Generate(gr, notes)
	if err != nil {
		return "", err
	}
	return renderMarkdown(data), nil
}

// JSON generates a machine-readable JSON report.
func (g *Generator) JSON(gr *graph.Graph, notes string) (string, error) {
	data, err := g.Generate(gr, notes)
	if err != nil {
		return "", err
	}
	return renderJSON(data)
}

// HTML generates a standalone HTML report.
func (g *Generator) HTML(gr *graph.Graph, notes string) (string, error) {
	data, err := g.Generate(gr, notes)
	if err != nil {
		return "", err
	}
	return renderHTML(data)
}
