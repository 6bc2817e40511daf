// Package ingest turns CI configuration into pipeline graph snapshots.
//
// The GitHub Actions parser is the only source implemented; the Builder is
// source-agnostic so other CI formats can feed the same graph.
package ingest

import (
	"fmt"

	"github.com/build-flow-labs/atlas/internal/atlas/graph"
)

// Builder accumulates nodes from one or more workflow files into a single
// graph. Shared resources (secrets, images, environments, docs) are deduped
// by kind and name so two workflows referencing the same secret produce one
// SECRET_REF node.
type Builder struct {
	g      *graph.Graph
	shared map[string]*graph.Node

	// workflow_run references are recorded by upstream workflow name and
	// resolved once all workflows are loaded.
	pendingTriggers []pendingTrigger
}

type pendingTrigger struct {
	pipelineID   string
	upstreamName string
}

// NewBuilder creates a builder for a named graph.
func NewBuilder(name, platform string) *Builder {
	return &Builder{
		g:      graph.New(name, platform),
		shared: map[string]*graph.Node{},
	}
}

// sharedNode returns the node for a deduped resource, creating it on first
// use.
func (b *Builder) sharedNode(kind graph.Kind, name string) (*graph.Node, error) {
	key := string(kind) + "\x00" + name
	if n, ok := b.shared[key]; ok {
		return n, nil
	}
	n := graph.NewNode(kind, name)
	if err := b.g.AddNode(n); err != nil {
		return nil, err
	}
	b.shared[key] = n
	return n, nil
}

// AddDocFile records a documentation file as a DOC_FILE node. Repeated
// registrations of the same file are collapsed.
func (b *Builder) AddDocFile(name, docType string) error {
	n, err := b.sharedNode(graph.KindDocFile, name)
	if err != nil {
		return err
	}
	n.SetAttr("doc_type", docType)
	return nil
}

// AddWorkflow parses a GitHub Actions workflow file into the graph.
func (b *Builder) AddWorkflow(filename string, data []byte) error {
	if err := parseWorkflow(b, filename, data); err != nil {
		return fmt.Errorf("workflow %s: %w", filename, err)
	}
	return nil
}

// Graph resolves deferred cross-workflow triggers and returns the finished
// graph. A workflow_run reference to a workflow loaded into this builder
// becomes a pipeline-to-pipeline TRIGGERS edge; an unresolved reference
// becomes a TRIGGER node so the external upstream still shows up.
func (b *Builder) Graph() (*graph.Graph, error) {
	byName := map[string]*graph.Node{}
	for _, n := range b.g.NodesOfKind(graph.KindPipeline) {
		byName[n.Name] = n
	}

	for _, pt := range b.pendingTriggers {
		if up, ok := byName[pt.upstreamName]; ok {
			b.g.AddEdge(graph.Edge{Kind: graph.EdgeTriggers, SourceID: up.ID, TargetID: pt.pipelineID})
			continue
		}
		trig, err := b.sharedNode(graph.KindTrigger, "workflow_run: "+pt.upstreamName)
		if err != nil {
			return nil, err
		}
		b.g.AddEdge(graph.Edge{Kind: graph.EdgeTriggers, SourceID: trig.ID, TargetID: pt.pipelineID})
	}
	b.pendingTriggers = nil
	return b.g, nil
}
