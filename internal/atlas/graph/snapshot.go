package graph

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SnapshotSuffix is the canonical file suffix for graph snapshots.
const SnapshotSuffix = ".atlas.yaml"

// snapshotDoc is the on-disk form of a graph snapshot. YAML is the canonical
// encoding; yaml.v3 also accepts JSON documents, so `.atlas.json` exports
// round-trip through the same codec.
type snapshotDoc struct {
	Name     string         `yaml:"name"`
	Platform string         `yaml:"platform,omitempty"`
	Nodes    []snapshotNode `yaml:"nodes"`
	Edges    []snapshotEdge `yaml:"edges,omitempty"`
}

type snapshotNode struct {
	ID    string         `yaml:"id,omitempty"`
	Kind  string         `yaml:"kind"`
	Name  string         `yaml:"name"`
	Attrs map[string]any `yaml:"attrs,omitempty"`
}

type snapshotEdge struct {
	Kind   string `yaml:"kind"`
	Source string `yaml:"source"`
	Target string `yaml:"target"`
}

// ParseSnapshot decodes a snapshot document into a Graph. Nodes without ids
// get generated ones; unknown kinds and duplicate ids are errors. Edges with
// dangling endpoints are accepted (the graph does not enforce integrity).
func ParseSnapshot(data []byte) (*Graph, error) {
	var doc snapshotDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding snapshot: %w", err)
	}

	g := New(doc.Name, doc.Platform)
	for i, sn := range doc.Nodes {
		kind, err := ParseKind(sn.Kind)
		if err != nil {
			return nil, fmt.Errorf("node %d (%s): %w", i, sn.Name, err)
		}
		n := &Node{ID: sn.ID, Kind: kind, Name: sn.Name, Attrs: sn.Attrs}
		if err := g.AddNode(n); err != nil {
			return nil, fmt.Errorf("node %d (%s): %w", i, sn.Name, err)
		}
	}
	for i, se := range doc.Edges {
		kind, err := ParseEdgeKind(se.Kind)
		if err != nil {
			return nil, fmt.Errorf("edge %d: %w", i, err)
		}
		g.AddEdge(Edge{Kind: kind, SourceID: se.Source, TargetID: se.Target})
	}
	return g, nil
}

// LoadSnapshot reads and parses a snapshot file.
func LoadSnapshot(path string) (*Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}
	g, err := ParseSnapshot(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}

// MarshalSnapshot encodes a graph into the snapshot YAML form.
func MarshalSnapshot(g *Graph) ([]byte, error) {
	doc := snapshotDoc{Name: g.Name, Platform: g.Platform}
	for _, n := range g.Nodes() {
		doc.Nodes = append(doc.Nodes, snapshotNode{
			ID:    n.ID,
			Kind:  string(n.Kind),
			Name:  n.Name,
			Attrs: n.Attrs,
		})
	}
	for _, e := range g.Edges() {
		doc.Edges = append(doc.Edges, snapshotEdge{
			Kind:   string(e.Kind),
			Source: e.SourceID,
			Target: e.TargetID,
		})
	}
	out, err := yaml.Marshal(&doc)
	if err != nil {
		return nil, fmt.Errorf("encoding snapshot: %w", err)
	}
	return out, nil
}

// WriteSnapshot writes a graph to a snapshot file.
func WriteSnapshot(path string, g *Graph) error {
	data, err := MarshalSnapshot(g)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	return nil
}
