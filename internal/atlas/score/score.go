// Package score computes complexity, fragility, and maturity scores for a
// pipeline snapshot graph.
//
// Each score is a bounded 0-100 float derived from graph structure and node
// attributes. Scoring is a pure reduction: the same graph always produces
// the same Scores, nothing is cached between calls, and the graph is never
// mutated. Structurally odd input (empty graphs, dangling edges, cyclic
// CALLS chains) degrades to low or zero scores; only wrong-typed attributes
// fail, with an error wrapping graph.ErrAttrType.
package score

import (
	"math"

	"github.com/build-flow-labs/atlas/internal/atlas/graph"
)

// Complexity and fragility weights. The caps are hard ceilings — raw values
// above 100 are clipped, not rescaled.
const (
	weightNode       = 1.0
	weightEdge       = 1.5
	weightDepth      = 5.0
	weightFanOut     = 3.0
	weightSecret     = 5.0
	weightTrigger    = 10.0
	weightUnpinned   = 15.0
	weightMissingDoc = 8.0

	scoreCap = 100.0

	// maturitySignals is the number of equally weighted maturity points.
	maturitySignals = 6
)

// requiredDocTypes are the doc_type values a healthy pipeline repo carries.
var requiredDocTypes = []string{
	"readme",
	"architecture",
	"runbook",
	"security_policy",
	"codeowners",
}

// floatingTags are container image tags that do not pin an immutable version.
var floatingTags = map[string]bool{
	"latest":  true,
	"stable":  true,
	"nightly": true,
}

// Scores is the flat result record for one scoring call. Every field is
// always set; scores are in [0,100] with one decimal place and counts are
// never negative.
type Scores struct {
	// Complexity components
	NodeCount       int     `json:"node_count"`
	EdgeCount       int     `json:"edge_count"`
	MaxDepth        int     `json:"max_depth"`
	MaxFanOut       int     `json:"max_fan_out"`
	ComplexityScore float64 `json:"complexity_score"`

	// Fragility components
	SecretCount        int     `json:"secret_count"`
	CrossTriggerCount  int     `json:"cross_trigger_count"`
	UnpinnedImageCount int     `json:"unpinned_image_count"`
	MissingDocTypes    int     `json:"missing_doc_types"`
	FragilityScore     float64 `json:"fragility_score"`

	// Maturity signals — exposed individually so renderers can show the
	// breakdown, not just the aggregate.
	HasCaching       bool    `json:"has_caching"`
	HasParallelism   bool    `json:"has_parallelism"`
	PinnedImageRatio float64 `json:"pinned_image_ratio"`
	DocCoverage      float64 `json:"doc_coverage"`
	HasRetries       bool    `json:"has_retries"`
	HasEnvIsolation  bool    `json:"has_env_isolation"`
	MaturityScore    float64 `json:"maturity_score"`
}

// Compute scores a graph snapshot. It never fails on structurally odd
// graphs; the only error class is a wrong-typed attribute where a boolean
// is required (graph.ErrAttrType).
func Compute(g *graph.Graph) (Scores, error) {
	var s Scores

	// An empty snapshot means nothing to analyze, not an undocumented
	// pipeline: zero scores, and with no images there is no pinning risk.
	if g.NodeCount() == 0 && g.EdgeCount() == 0 {
		s.MissingDocTypes = len(requiredDocTypes)
		s.PinnedImageRatio = 1.0
		return s, nil
	}

	idx := newCallIndex(g)

	complexity(&s, g, idx)
	fragility(&s, g)
	if err := maturity(&s, g); err != nil {
		return Scores{}, err
	}
	return s, nil
}

// round1 rounds to one decimal place.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// capScore rounds a raw weighted sum and clips it to the ceiling.
func capScore(raw float64) float64 {
	return math.Min(round1(raw), scoreCap)
}
