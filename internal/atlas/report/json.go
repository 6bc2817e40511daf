package report

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/build-flow-labs/atlas/internal/atlas/findings"
)

// renderJSON renders the report as an indented JSON document.
func renderJSON(d *Data) (string, error) {
	out, err := json.MarshalIndent(BuildJSON(d), "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding report: %w", err)
	}
	return string(out), nil
}

// BuildJSON builds the JSON-serializable form of the full report.
func BuildJSON(d *Data) map[string]any {
	s := d.Scores

	structure := map[string]any{}
	for _, kind := range kindsPresent(d.Graph) {
		var names []string
		for _, n := range d.Graph.NodesOfKind(kind) {
			names = append(names, n.Name)
		}
		structure[string(kind)] = names
	}

	deps := []map[string]any{}
	for _, e := range d.Graph.Edges() {
		deps = append(deps, map[string]any{
			"source":    nodeName(d.Graph, e.SourceID),
			"edge_type": string(e.Kind),
			"target":    nodeName(d.Graph, e.TargetID),
		})
	}

	fnds := []map[string]any{}
	for _, f := range d.Findings {
		fnds = append(fnds, findingJSON(f))
	}

	var roadmap any
	if d.ModernizationNotes != "" {
		roadmap = d.ModernizationNotes
	}

	return map[string]any{
		"meta": map[string]any{
			"pipeline":      d.Graph.Name,
			"platform":      d.Graph.Platform,
			"generated_at":  d.GeneratedAt.Format(time.RFC3339),
			"node_count":    d.Graph.NodeCount(),
			"edge_count":    d.Graph.EdgeCount(),
			"finding_count": len(d.Findings),
		},
		"scores": map[string]any{
			"complexity": map[string]any{
				"score":       s.ComplexityScore,
				"nodes":       s.NodeCount,
				"edges":       s.EdgeCount,
				"max_depth":   s.MaxDepth,
				"max_fan_out": s.MaxFanOut,
			},
			"fragility": map[string]any{
				"score":             s.FragilityScore,
				"secrets":           s.SecretCount,
				"cross_triggers":    s.CrossTriggerCount,
				"unpinned_images":   s.UnpinnedImageCount,
				"missing_doc_types": s.MissingDocTypes,
			},
			"maturity": map[string]any{
				"score":              s.MaturityScore,
				"has_caching":        s.HasCaching,
				"has_parallelism":    s.HasParallelism,
				"pinned_image_ratio": s.PinnedImageRatio,
				"doc_coverage":       s.DocCoverage,
				"has_retries":        s.HasRetries,
				"has_env_isolation":  s.HasEnvIsolation,
			},
		},
		"structure":             structure,
		"dependencies":          deps,
		"findings":              fnds,
		"modernization_roadmap": roadmap,
	}
}

func findingJSON(f findings.Finding) map[string]any {
	evidence := []map[string]any{}
	for _, ev := range f.Evidence {
		e := map[string]any{"description": ev.Description}
		if ev.NodeID != "" {
			e["node_id"] = ev.NodeID
		}
		evidence = append(evidence, e)
	}
	return map[string]any{
		"rule_id":         f.RuleID,
		"title":           f.Title,
		"description":     f.Description,
		"severity":        string(f.Severity),
		"confidence":      f.Confidence,
		"recommendation":  f.Recommendation,
		"impact_category": f.ImpactCategory,
		"evidence":        evidence,
	}
}
