package score

import (
	"fmt"
	"strings"

	"github.com/build-flow-labs/atlas/internal/atlas/graph"
)

// Maturity thresholds.
const (
	pinnedRatioBar = 0.8
	docCoverageBar = 0.6
	minEnvCount    = 2
)

// maturity evaluates six equally weighted operational-hygiene signals and
// fills the maturity score as round(points/6*100, 1). Runs after complexity
// and fragility so it can reuse MaxFanOut and MissingDocTypes.
//
// Signals:
//  1. caching     — any STEP command mentions "cache"
//  2. parallelism — a STAGE is marked parallel, or fan-out >= 2
//  3. pinning     — >= 80% of images carry pinned: true (no images counts
//     as fully pinned)
//  4. docs        — doc coverage >= 60%
//  5. retries     — any command or metadata mentions "retry"
//  6. isolation   — at least two ENVIRONMENT nodes
//
// The substring checks are deliberately coarse heuristics; they stay literal
// case-insensitive containment, not regexes.
func maturity(s *Scores, g *graph.Graph) error {
	points := 0

	for _, n := range g.NodesOfKind(graph.KindStep) {
		if containsFold(n.StringAttr("command", ""), "cache") {
			s.HasCaching = true
			break
		}
	}
	if s.HasCaching {
		points++
	}

	parallel, err := hasParallelStage(g)
	if err != nil {
		return err
	}
	s.HasParallelism = parallel || s.MaxFanOut >= 2
	if s.HasParallelism {
		points++
	}

	ratio, err := pinnedImageRatio(g)
	if err != nil {
		return err
	}
	s.PinnedImageRatio = ratio
	if ratio >= pinnedRatioBar {
		points++
	}

	s.DocCoverage = 1.0 - float64(s.MissingDocTypes)/float64(len(requiredDocTypes))
	if s.DocCoverage >= docCoverageBar {
		points++
	}

	s.HasRetries = hasRetrySignal(g)
	if s.HasRetries {
		points++
	}

	s.HasEnvIsolation = len(g.NodesOfKind(graph.KindEnvironment)) >= minEnvCount
	if s.HasEnvIsolation {
		points++
	}

	s.MaturityScore = round1(float64(points) / maturitySignals * 100)
	return nil
}

func hasParallelStage(g *graph.Graph) (bool, error) {
	for _, n := range g.NodesOfKind(graph.KindStage) {
		p, err := n.BoolAttr("parallel", false)
		if err != nil {
			return false, fmt.Errorf("reading parallel flag: %w", err)
		}
		if p {
			return true, nil
		}
	}
	return false, nil
}

// pinnedImageRatio returns the fraction of CONTAINER_IMAGE nodes with
// pinned: true. No images means no pinning risk, so the ratio is 1.0.
func pinnedImageRatio(g *graph.Graph) (float64, error) {
	images := g.NodesOfKind(graph.KindContainerImage)
	if len(images) == 0 {
		return 1.0, nil
	}
	pinned := 0
	for _, n := range images {
		p, err := n.BoolAttr("pinned", false)
		if err != nil {
			return 0, fmt.Errorf("reading pinned flag: %w", err)
		}
		if p {
			pinned++
		}
	}
	return float64(pinned) / float64(len(images)), nil
}

// hasRetrySignal reports whether any node's command or stringified metadata
// mentions "retry".
func hasRetrySignal(g *graph.Graph) bool {
	for _, n := range g.Nodes() {
		if containsFold(n.StringAttr("command", ""), "retry") {
			return true
		}
		if meta := n.Attr("metadata", nil); meta != nil {
			// %v prints maps key-sorted, so this check is deterministic.
			if containsFold(fmt.Sprintf("%v", meta), "retry") {
				return true
			}
		}
	}
	return false
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), substr)
}
