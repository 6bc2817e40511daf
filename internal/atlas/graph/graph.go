// Package graph defines the pipeline snapshot model consumed by the scorer
// and the renderers: typed nodes, typed edges, and a generic attribute bag.
//
// A Graph preserves node and edge insertion order and enforces node id
// uniqueness, but it deliberately does not enforce edge endpoint integrity —
// snapshots collected from real CI systems routinely reference jobs that
// were filtered out. Consumers must tolerate dangling edges.
package graph

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Kind tags a node with its role in the pipeline.
type Kind string

const (
	KindPipeline       Kind = "PIPELINE"
	KindStage          Kind = "STAGE"
	KindStep           Kind = "STEP"
	KindJob            Kind = "JOB"
	KindSecretRef      Kind = "SECRET_REF"
	KindContainerImage Kind = "CONTAINER_IMAGE"
	KindDocFile        Kind = "DOC_FILE"
	KindEnvironment    Kind = "ENVIRONMENT"
	KindArtifact       Kind = "ARTIFACT"
	KindTrigger        Kind = "TRIGGER"
)

// EdgeKind tags a relationship between two nodes.
type EdgeKind string

const (
	EdgeCalls     EdgeKind = "CALLS"
	EdgeTriggers  EdgeKind = "TRIGGERS"
	EdgeUses      EdgeKind = "USES"
	EdgeDependsOn EdgeKind = "DEPENDS_ON"
)

var nodeKinds = map[Kind]bool{
	KindPipeline:       true,
	KindStage:          true,
	KindStep:           true,
	KindJob:            true,
	KindSecretRef:      true,
	KindContainerImage: true,
	KindDocFile:        true,
	KindEnvironment:    true,
	KindArtifact:       true,
	KindTrigger:        true,
}

var edgeKinds = map[EdgeKind]bool{
	EdgeCalls:     true,
	EdgeTriggers:  true,
	EdgeUses:      true,
	EdgeDependsOn: true,
}

// ParseKind converts a snapshot tag into a Kind. Matching is case-insensitive.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToUpper(strings.TrimSpace(s)))
	if !nodeKinds[k] {
		return "", fmt.Errorf("unknown node kind %q", s)
	}
	return k, nil
}

// ParseEdgeKind converts a snapshot tag into an EdgeKind.
func ParseEdgeKind(s string) (EdgeKind, error) {
	k := EdgeKind(strings.ToUpper(strings.TrimSpace(s)))
	if !edgeKinds[k] {
		return "", fmt.Errorf("unknown edge kind %q", s)
	}
	return k, nil
}

// ErrAttrType reports an attribute whose value violates the type the caller
// requires. The scorer surfaces it at the call boundary instead of silently
// coercing a wrong-typed value into a wrong result.
var ErrAttrType = errors.New("attribute type mismatch")

// Node is a single element of the pipeline graph. Kind-specific data lives
// in the Attrs bag; attributes absent for a given kind default to whatever
// conservative value the accessor caller supplies.
type Node struct {
	ID    string         `json:"id" yaml:"id"`
	Kind  Kind           `json:"kind" yaml:"kind"`
	Name  string         `json:"name" yaml:"name"`
	Attrs map[string]any `json:"attrs,omitempty" yaml:"attrs,omitempty"`
}

// NewNode creates a node with a generated id and an empty attribute bag.
func NewNode(kind Kind, name string) *Node {
	return &Node{
		ID:    uuid.NewString(),
		Kind:  kind,
		Name:  name,
		Attrs: map[string]any{},
	}
}

// SetAttr sets an attribute and returns the node for chaining.
func (n *Node) SetAttr(key string, value any) *Node {
	if n.Attrs == nil {
		n.Attrs = map[string]any{}
	}
	n.Attrs[key] = value
	return n
}

// Attr returns the raw attribute value, or def when the attribute is absent.
func (n *Node) Attr(key string, def any) any {
	if n.Attrs == nil {
		return def
	}
	v, ok := n.Attrs[key]
	if !ok {
		return def
	}
	return v
}

// StringAttr returns the attribute as a string. Values of other types are
// rendered with %v rather than rejected — string signals are compared in
// stringified form. Absent values return def.
func (n *Node) StringAttr(key, def string) string {
	v, ok := n.Attrs[key]
	if !ok {
		return def
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

// BoolAttr returns the attribute as a bool. Unlike string attributes there
// is no sensible coercion here: a non-bool value is an input-validation
// error wrapping ErrAttrType.
func (n *Node) BoolAttr(key string, def bool) (bool, error) {
	v, ok := n.Attrs[key]
	if !ok {
		return def, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("node %s (%s): attribute %q: expected bool, got %T: %w",
			n.Name, n.ID, key, v, ErrAttrType)
	}
	return b, nil
}

// Edge is a typed, directed relationship between two nodes, referenced by id.
type Edge struct {
	Kind     EdgeKind `json:"kind" yaml:"kind"`
	SourceID string   `json:"source" yaml:"source"`
	TargetID string   `json:"target" yaml:"target"`
}

// Graph is an ordered snapshot of pipeline nodes and edges.
type Graph struct {
	Name     string
	Platform string

	nodes []*Node
	byID  map[string]*Node
	edges []Edge
}

// New creates an empty graph snapshot.
func New(name, platform string) *Graph {
	return &Graph{
		Name:     name,
		Platform: platform,
		byID:     map[string]*Node{},
	}
}

// AddNode appends a node, assigning a generated id when the node has none.
// Duplicate ids are rejected.
func (g *Graph) AddNode(n *Node) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if _, exists := g.byID[n.ID]; exists {
		return fmt.Errorf("duplicate node id %q (%s)", n.ID, n.Name)
	}
	g.nodes = append(g.nodes, n)
	g.byID[n.ID] = n
	return nil
}

// AddEdge appends an edge. Endpoints are not checked against the node set.
func (g *Graph) AddEdge(e Edge) {
	g.edges = append(g.edges, e)
}

// Nodes returns all nodes in insertion order. Callers must not mutate the
// returned slice.
func (g *Graph) Nodes() []*Node {
	return g.nodes
}

// Edges returns all edges in insertion order.
func (g *Graph) Edges() []Edge {
	return g.edges
}

// NodeByID looks up a node by id.
func (g *Graph) NodeByID(id string) (*Node, bool) {
	n, ok := g.byID[id]
	return n, ok
}

// NodesOfKind returns the nodes of the given kind in insertion order.
func (g *Graph) NodesOfKind(k Kind) []*Node {
	var out []*Node
	for _, n := range g.nodes {
		if n.Kind == k {
			out = append(out, n)
		}
	}
	return out
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return len(g.edges) }
