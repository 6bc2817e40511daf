package score

import (
	"strings"

	"github.com/build-flow-labs/atlas/internal/atlas/graph"
)

// fragility fills the risk counters and the fragility score:
//
//	min(secrets*5 + crossTriggers*10 + unpinnedImages*15 + missingDocs*8, 100)
//
// An image without a tag attribute is treated as "latest" — the conservative
// default — and the floating markers latest/stable/nightly all count as
// unpinned.
func fragility(s *Scores, g *graph.Graph) {
	s.SecretCount = len(g.NodesOfKind(graph.KindSecretRef))

	for _, e := range g.Edges() {
		if e.Kind == graph.EdgeTriggers {
			s.CrossTriggerCount++
		}
	}

	for _, n := range g.NodesOfKind(graph.KindContainerImage) {
		if floatingTags[n.StringAttr("tag", "latest")] {
			s.UnpinnedImageCount++
		}
	}

	s.MissingDocTypes = len(MissingDocs(g))

	raw := float64(s.SecretCount)*weightSecret +
		float64(s.CrossTriggerCount)*weightTrigger +
		float64(s.UnpinnedImageCount)*weightUnpinned +
		float64(s.MissingDocTypes)*weightMissingDoc
	s.FragilityScore = capScore(raw)
}

// MissingDocs returns the required doc types with no DOC_FILE node, in the
// canonical required order. Comparison is on the lowercased doc_type value;
// duplicate docs don't double-count and an absent doc_type matches nothing.
func MissingDocs(g *graph.Graph) []string {
	found := map[string]bool{}
	for _, n := range g.NodesOfKind(graph.KindDocFile) {
		found[strings.ToLower(n.StringAttr("doc_type", ""))] = true
	}

	var missing []string
	for _, t := range requiredDocTypes {
		if !found[t] {
			missing = append(missing, t)
		}
	}
	return missing
}
