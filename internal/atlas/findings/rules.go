package findings

import (
	"fmt"
	"strings"

	"github.com/build-flow-labs/atlas/internal/atlas/graph"
	"github.com/build-flow-labs/atlas/internal/atlas/score"
)

// Analyzer runs the rule set over a graph and its scores. Thresholds have
// sensible defaults; zero values fall back to them.
type Analyzer struct {
	// SecretSprawlThreshold is the secret count at which secret usage
	// itself becomes a finding.
	SecretSprawlThreshold int
	// DeepChainThreshold is the CALLS depth above which the call chain is
	// flagged.
	DeepChainThreshold int
	// FanOutThreshold is the out-degree above which a hub node is flagged.
	FanOutThreshold int
}

// NewAnalyzer returns an Analyzer with default thresholds.
func NewAnalyzer() *Analyzer {
	return &Analyzer{
		SecretSprawlThreshold: 5,
		DeepChainThreshold:    6,
		FanOutThreshold:       8,
	}
}

// Analyze runs all rules in a fixed order and returns the findings. Node
// iteration follows graph insertion order, so output is deterministic for a
// given snapshot.
func (a *Analyzer) Analyze(g *graph.Graph, s score.Scores) []Finding {
	var out []Finding
	out = append(out, a.unpinnedImages(g)...)
	out = append(out, a.missingDocs(g)...)
	out = append(out, a.crossTriggers(g)...)
	out = append(out, a.secretSprawl(g, s)...)
	out = append(out, a.deepCallChain(s)...)
	out = append(out, a.highFanOut(g, s)...)
	out = append(out, a.envIsolation(g)...)
	return out
}

func (a *Analyzer) unpinnedImages(g *graph.Graph) []Finding {
	var out []Finding
	for _, n := range g.NodesOfKind(graph.KindContainerImage) {
		tag := n.StringAttr("tag", "latest")
		switch tag {
		case "latest", "stable", "nightly":
		default:
			continue
		}
		out = append(out, Finding{
			RuleID:         "unpinned-image",
			Title:          "Unpinned container image: " + n.Name,
			Description:    fmt.Sprintf("Image %q uses the floating tag %q; builds are not reproducible.", n.Name, tag),
			Severity:       SeverityHigh,
			Confidence:     0.9,
			Recommendation: "Pin the image to an immutable version tag or a digest.",
			ImpactCategory: "security",
			Evidence: []Evidence{
				{Description: fmt.Sprintf("tag: %s, no digest", tag), NodeID: n.ID},
			},
		})
	}
	return out
}

func (a *Analyzer) missingDocs(g *graph.Graph) []Finding {
	missing := score.MissingDocs(g)
	if len(missing) == 0 {
		return nil
	}
	f := Finding{
		RuleID:         "missing-docs",
		Title:          fmt.Sprintf("Missing documentation: %d of 5 required types", len(missing)),
		Description:    "Required documentation types are absent: " + strings.Join(missing, ", ") + ".",
		Severity:       SeverityMedium,
		Confidence:     1.0,
		Recommendation: "Add the missing documents so on-call and review workflows have a paper trail.",
		ImpactCategory: "documentation",
	}
	for _, m := range missing {
		f.Evidence = append(f.Evidence, Evidence{Description: "no DOC_FILE node with doc_type " + m})
	}
	return []Finding{f}
}

func (a *Analyzer) crossTriggers(g *graph.Graph) []Finding {
	var out []Finding
	for _, e := range g.Edges() {
		if e.Kind != graph.EdgeTriggers {
			continue
		}
		src := nodeName(g, e.SourceID)
		dst := nodeName(g, e.TargetID)
		out = append(out, Finding{
			RuleID:         "cross-trigger",
			Title:          fmt.Sprintf("Cross-pipeline trigger: %s -> %s", src, dst),
			Description:    fmt.Sprintf("%s triggers %s; failures propagate across pipeline boundaries.", src, dst),
			Severity:       SeverityMedium,
			Confidence:     0.8,
			Recommendation: "Prefer explicit artifacts or events over direct cross-pipeline triggering.",
			ImpactCategory: "coupling",
			Evidence: []Evidence{
				{Description: fmt.Sprintf("TRIGGERS edge %s -> %s", src, dst), NodeID: e.SourceID},
			},
		})
	}
	return out
}

func (a *Analyzer) secretSprawl(g *graph.Graph, s score.Scores) []Finding {
	threshold := a.SecretSprawlThreshold
	if threshold <= 0 {
		threshold = 5
	}
	if s.SecretCount < threshold {
		return nil
	}
	f := Finding{
		RuleID:         "secret-sprawl",
		Title:          fmt.Sprintf("High secret exposure: %d secret references", s.SecretCount),
		Description:    "The pipeline references many distinct secrets, widening the blast radius of a leak.",
		Severity:       SeverityHigh,
		Confidence:     0.7,
		Recommendation: "Consolidate credentials behind short-lived tokens or a workload identity.",
		ImpactCategory: "security",
	}
	for _, n := range g.NodesOfKind(graph.KindSecretRef) {
		f.Evidence = append(f.Evidence, Evidence{Description: "secret reference: " + n.Name, NodeID: n.ID})
	}
	return []Finding{f}
}

func (a *Analyzer) deepCallChain(s score.Scores) []Finding {
	threshold := a.DeepChainThreshold
	if threshold <= 0 {
		threshold = 6
	}
	if s.MaxDepth <= threshold {
		return nil
	}
	return []Finding{{
		RuleID:         "deep-call-chain",
		Title:          fmt.Sprintf("Deep call chain: depth %d", s.MaxDepth),
		Description:    fmt.Sprintf("The longest CALLS chain is %d levels deep; failures are hard to attribute.", s.MaxDepth),
		Severity:       SeverityMedium,
		Confidence:     0.9,
		Recommendation: "Flatten nested pipeline calls or split the chain into independent pipelines.",
		ImpactCategory: "complexity",
		Evidence: []Evidence{
			{Description: fmt.Sprintf("max CALLS depth %d exceeds %d", s.MaxDepth, threshold)},
		},
	}}
}

func (a *Analyzer) highFanOut(g *graph.Graph, s score.Scores) []Finding {
	threshold := a.FanOutThreshold
	if threshold <= 0 {
		threshold = 8
	}
	if s.MaxFanOut <= threshold {
		return nil
	}

	// Name the hub for the evidence line.
	degree := map[string]int{}
	for _, e := range g.Edges() {
		degree[e.SourceID]++
	}
	hubID := ""
	for _, n := range g.Nodes() {
		if degree[n.ID] == s.MaxFanOut {
			hubID = n.ID
			break
		}
	}

	return []Finding{{
		RuleID:         "high-fan-out",
		Title:          fmt.Sprintf("High fan-out: %d outgoing edges", s.MaxFanOut),
		Description:    fmt.Sprintf("%s fans out to %d targets; it is a single point of coordination failure.", nodeName(g, hubID), s.MaxFanOut),
		Severity:       SeverityLow,
		Confidence:     0.8,
		Recommendation: "Group related targets into stages to reduce the coordination surface.",
		ImpactCategory: "complexity",
		Evidence: []Evidence{
			{Description: fmt.Sprintf("out-degree %d exceeds %d", s.MaxFanOut, threshold), NodeID: hubID},
		},
	}}
}

func (a *Analyzer) envIsolation(g *graph.Graph) []Finding {
	envs := g.NodesOfKind(graph.KindEnvironment)
	if len(envs) >= 2 {
		return nil
	}
	desc := "No deployment environments are modeled; changes go straight to their target."
	if len(envs) == 1 {
		desc = fmt.Sprintf("Only one environment (%s) is modeled; there is no staging buffer.", envs[0].Name)
	}
	return []Finding{{
		RuleID:         "no-env-isolation",
		Title:          "Fewer than two deployment environments",
		Description:    desc,
		Severity:       SeverityLow,
		Confidence:     0.6,
		Recommendation: "Introduce a staging environment ahead of production.",
		ImpactCategory: "reliability",
	}}
}

// nodeName resolves a node id to its name, falling back to a truncated id
// for dangling references.
func nodeName(g *graph.Graph, id string) string {
	if n, ok := g.NodeByID(id); ok {
		return n.Name
	}
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
