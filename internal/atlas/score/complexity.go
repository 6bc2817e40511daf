package score

import (
	"github.com/build-flow-labs/atlas/internal/atlas/graph"
)

// callIndex is the adjacency view built once per scoring call so depth and
// fan-out don't re-filter the edge list per node.
type callIndex struct {
	g      *graph.Graph
	calls  map[string][]string // source id -> CALLS targets, edge order preserved
	fanOut map[string]int      // source id -> outgoing edges of any kind
}

func newCallIndex(g *graph.Graph) *callIndex {
	ix := &callIndex{
		g:      g,
		calls:  map[string][]string{},
		fanOut: map[string]int{},
	}
	for _, e := range g.Edges() {
		ix.fanOut[e.SourceID]++
		if e.Kind == graph.EdgeCalls {
			ix.calls[e.SourceID] = append(ix.calls[e.SourceID], e.TargetID)
		}
	}
	return ix
}

// maxFanOut returns the highest out-degree of any node, 0 with no edges.
func (ix *callIndex) maxFanOut() int {
	max := 0
	for _, n := range ix.fanOut {
		if n > max {
			max = n
		}
	}
	return max
}

// depthFrom returns the longest CALLS chain starting at root, counting the
// nodes visited along the path (a node with no outgoing CALLS edges has
// depth 1). The visited set is scoped to this root: a node already seen in
// this traversal contributes no further depth, which keeps cyclic CALLS
// chains finite, while traversals from other roots start fresh.
//
// The walk is an explicit stack rather than recursion so adversarially deep
// chains can't exhaust the goroutine stack.
func (ix *callIndex) depthFrom(root string) int {
	if _, ok := ix.g.NodeByID(root); !ok {
		return 0
	}
	visited := map[string]bool{root: true}

	type frame struct {
		id   string
		next int // index of the next child to expand
		best int // deepest fully-explored child so far
	}
	stack := []frame{{id: root}}

	for {
		f := &stack[len(stack)-1]
		children := ix.calls[f.id]

		descended := false
		for f.next < len(children) {
			child := children[f.next]
			f.next++
			if visited[child] {
				continue // revisit within this traversal adds no depth
			}
			if _, ok := ix.g.NodeByID(child); !ok {
				continue // dangling edge contributes no further depth
			}
			visited[child] = true
			stack = append(stack, frame{id: child})
			descended = true
			break
		}
		if descended {
			continue
		}

		// All children explored: fold this node's depth into its parent.
		depth := f.best + 1
		stack = stack[:len(stack)-1]
		if len(stack) == 0 {
			return depth
		}
		parent := &stack[len(stack)-1]
		if depth > parent.best {
			parent.best = depth
		}
	}
}

// complexity fills the structural counters and the complexity score:
//
//	min(nodes*1.0 + edges*1.5 + maxDepth*5 + maxFanOut*3, 100)
//
// MaxDepth is taken over PIPELINE roots only; a graph without pipelines has
// depth 0.
func complexity(s *Scores, g *graph.Graph, ix *callIndex) {
	s.NodeCount = g.NodeCount()
	s.EdgeCount = g.EdgeCount()
	s.MaxFanOut = ix.maxFanOut()

	for _, p := range g.NodesOfKind(graph.KindPipeline) {
		if d := ix.depthFrom(p.ID); d > s.MaxDepth {
			s.MaxDepth = d
		}
	}

	raw := float64(s.NodeCount)*weightNode +
		float64(s.EdgeCount)*weightEdge +
		float64(s.MaxDepth)*weightDepth +
		float64(s.MaxFanOut)*weightFanOut
	s.ComplexityScore = capScore(raw)
}
