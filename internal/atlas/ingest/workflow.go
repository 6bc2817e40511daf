package ingest

import (
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/build-flow-labs/atlas/internal/atlas/graph"
)

// workflowDoc mirrors the subset of the GitHub Actions workflow schema the
// graph cares about. The "on" key is kept as a raw node because its value is
// a scalar, a sequence, or a mapping depending on the workflow.
type workflowDoc struct {
	Name  string                 `yaml:"name"`
	RawOn yaml.Node              `yaml:"on"`
	Env   map[string]string      `yaml:"env"`
	Jobs  map[string]workflowJob `yaml:"jobs"`
}

type workflowJob struct {
	Name        string            `yaml:"name"`
	Needs       yaml.Node         `yaml:"needs"`
	Uses        string            `yaml:"uses"`
	Environment yaml.Node         `yaml:"environment"`
	Container   yaml.Node         `yaml:"container"`
	Strategy    workflowStrategy  `yaml:"strategy"`
	Env         map[string]string `yaml:"env"`
	Steps       []workflowStep    `yaml:"steps"`
}

type workflowStrategy struct {
	Matrix yaml.Node `yaml:"matrix"`
}

type workflowStep struct {
	Name  string            `yaml:"name"`
	Uses  string            `yaml:"uses"`
	Run   string            `yaml:"run"`
	Shell string            `yaml:"shell"`
	With  map[string]string `yaml:"with"`
	Env   map[string]string `yaml:"env"`
}

var secretRefPattern = regexp.MustCompile(`\$\{\{\s*secrets\.([A-Za-z0-9_-]+)\s*\}\}`)

// parseWorkflow loads one workflow file into the builder's graph.
func parseWorkflow(b *Builder, filename string, data []byte) error {
	var doc workflowDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("decoding: %w", err)
	}
	if len(doc.Jobs) == 0 {
		return fmt.Errorf("no jobs defined")
	}

	name := doc.Name
	if name == "" {
		name = strings.TrimSuffix(strings.TrimSuffix(filepath.Base(filename), ".yml"), ".yaml")
	}

	pipeline := graph.NewNode(graph.KindPipeline, name).SetAttr("file", filename)
	if err := b.g.AddNode(pipeline); err != nil {
		return err
	}

	events, upstream, err := decodeOn(&doc.RawOn)
	if err != nil {
		return fmt.Errorf("on: %w", err)
	}
	if len(events) > 0 {
		pipeline.SetAttr("events", strings.Join(events, ","))
	}
	for _, up := range upstream {
		b.pendingTriggers = append(b.pendingTriggers, pendingTrigger{
			pipelineID:   pipeline.ID,
			upstreamName: up,
		})
	}

	sc := newSecretCollector(b)
	sc.scanEnv(pipeline.ID, doc.Env)

	// Map keys iterate randomly; sort for a reproducible snapshot.
	jobIDs := make([]string, 0, len(doc.Jobs))
	for id := range doc.Jobs {
		jobIDs = append(jobIDs, id)
	}
	sort.Strings(jobIDs)

	stageByJob := map[string]*graph.Node{}
	for _, jobID := range jobIDs {
		job := doc.Jobs[jobID]

		// A job that calls a reusable workflow dispatches work outside
		// this pipeline.
		if job.Uses != "" {
			called := graph.NewNode(graph.KindJob, reusableWorkflowName(job.Uses)).
				SetAttr("workflow_ref", job.Uses)
			if err := b.g.AddNode(called); err != nil {
				return err
			}
			b.g.AddEdge(graph.Edge{Kind: graph.EdgeTriggers, SourceID: pipeline.ID, TargetID: called.ID})
			stageByJob[jobID] = called
			continue
		}

		stageName := job.Name
		if stageName == "" {
			stageName = jobID
		}
		stage := graph.NewNode(graph.KindStage, stageName)
		if len(decodeStringList(&job.Needs)) == 0 && len(doc.Jobs) > 1 {
			stage.SetAttr("parallel", true)
		}
		if !job.Strategy.Matrix.IsZero() {
			stage.SetAttr("parallel", true)
		}
		if err := b.g.AddNode(stage); err != nil {
			return err
		}
		b.g.AddEdge(graph.Edge{Kind: graph.EdgeCalls, SourceID: pipeline.ID, TargetID: stage.ID})
		stageByJob[jobID] = stage

		if env := decodeNameField(&job.Environment); env != "" {
			n, err := b.sharedNode(graph.KindEnvironment, env)
			if err != nil {
				return err
			}
			b.g.AddEdge(graph.Edge{Kind: graph.EdgeUses, SourceID: stage.ID, TargetID: n.ID})
		}
		if img := decodeImageField(&job.Container); img != "" {
			if err := addImage(b, stage.ID, img); err != nil {
				return err
			}
		}
		sc.scanEnv(stage.ID, job.Env)

		for i, step := range job.Steps {
			if err := addStep(b, sc, stage.ID, jobID, i, step); err != nil {
				return err
			}
		}
	}

	// needs edges, now that every job has a node.
	for _, jobID := range jobIDs {
		job := doc.Jobs[jobID]
		from := stageByJob[jobID]
		for _, need := range decodeStringList(&job.Needs) {
			to, ok := stageByJob[need]
			if !ok {
				continue
			}
			b.g.AddEdge(graph.Edge{Kind: graph.EdgeDependsOn, SourceID: from.ID, TargetID: to.ID})
		}
	}
	return nil
}

func addStep(b *Builder, sc *secretCollector, stageID, jobID string, idx int, step workflowStep) error {
	name := step.Name
	if name == "" {
		switch {
		case step.Uses != "":
			name = step.Uses
		case step.Run != "":
			name = firstLine(step.Run)
		default:
			name = fmt.Sprintf("%s step %d", jobID, idx+1)
		}
	}

	node := graph.NewNode(graph.KindStep, name)
	if step.Run != "" {
		node.SetAttr("command", step.Run)
	}
	if step.Shell != "" {
		node.SetAttr("shell", step.Shell)
	}
	if step.Uses != "" {
		node.SetAttr("action", step.Uses)
	}
	if err := b.g.AddNode(node); err != nil {
		return err
	}
	b.g.AddEdge(graph.Edge{Kind: graph.EdgeCalls, SourceID: stageID, TargetID: node.ID})

	if img, ok := strings.CutPrefix(step.Uses, "docker://"); ok {
		if err := addImage(b, node.ID, img); err != nil {
			return err
		}
	}

	sc.scan(node.ID, step.Run)
	sc.scanEnv(node.ID, step.Env)
	sc.scanEnv(node.ID, step.With)
	return nil
}

// addImage records a container image reference and a USES edge from the node
// that pulls it. "python:3.12@sha256:..." is pinned; a bare or tagged ref is
// pinned only when the tag is not floating.
func addImage(b *Builder, fromID, ref string) error {
	name, tag, pinned := splitImageRef(ref)
	n, err := b.sharedNode(graph.KindContainerImage, name)
	if err != nil {
		return err
	}
	n.SetAttr("tag", tag)
	n.SetAttr("pinned", pinned)
	b.g.AddEdge(graph.Edge{Kind: graph.EdgeUses, SourceID: fromID, TargetID: n.ID})
	return nil
}

func splitImageRef(ref string) (name, tag string, pinned bool) {
	name = ref
	digest := ""
	if i := strings.Index(name, "@"); i >= 0 {
		digest = name[i+1:]
		name = name[:i]
		pinned = true
	}
	// The tag separator must come after the last path segment so registry
	// ports (ghcr.io:443/...) are not mistaken for tags.
	if i := strings.LastIndex(name, ":"); i > strings.LastIndex(name, "/") {
		tag = name[i+1:]
	}
	if tag == "" {
		tag = "latest"
		if pinned && len(digest) >= 19 {
			tag = digest[:19]
		}
	}
	if !pinned {
		switch tag {
		case "latest", "stable", "nightly":
		default:
			pinned = true
		}
	}
	return name, tag, pinned
}

// secretCollector dedupes ${{ secrets.NAME }} references across a workflow.
type secretCollector struct {
	b *Builder
}

func newSecretCollector(b *Builder) *secretCollector {
	return &secretCollector{b: b}
}

func (sc *secretCollector) scan(fromID, text string) {
	for _, m := range secretRefPattern.FindAllStringSubmatch(text, -1) {
		n, err := sc.b.sharedNode(graph.KindSecretRef, m[1])
		if err != nil {
			continue
		}
		sc.b.g.AddEdge(graph.Edge{Kind: graph.EdgeUses, SourceID: fromID, TargetID: n.ID})
	}
}

func (sc *secretCollector) scanEnv(fromID string, env map[string]string) {
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		sc.scan(fromID, env[k])
	}
}

// decodeOn interprets the workflow "on" value: a scalar event, a sequence of
// events, or a mapping of event to configuration. workflow_run upstreams are
// returned separately because they become cross-pipeline triggers.
func decodeOn(n *yaml.Node) (events, upstreamWorkflows []string, err error) {
	if n.IsZero() {
		return nil, nil, nil
	}
	switch n.Kind {
	case yaml.ScalarNode:
		var ev string
		if err := n.Decode(&ev); err != nil {
			return nil, nil, err
		}
		return []string{ev}, nil, nil
	case yaml.SequenceNode:
		var evs []string
		if err := n.Decode(&evs); err != nil {
			return nil, nil, err
		}
		return evs, nil, nil
	case yaml.MappingNode:
		for i := 0; i+1 < len(n.Content); i += 2 {
			key := n.Content[i].Value
			events = append(events, key)
			if key != "workflow_run" {
				continue
			}
			var cfg struct {
				Workflows []string `yaml:"workflows"`
			}
			if err := n.Content[i+1].Decode(&cfg); err != nil {
				return nil, nil, fmt.Errorf("workflow_run: %w", err)
			}
			upstreamWorkflows = append(upstreamWorkflows, cfg.Workflows...)
		}
		return events, upstreamWorkflows, nil
	default:
		return nil, nil, fmt.Errorf("unsupported node kind %d", n.Kind)
	}
}

// decodeStringList reads a value that is either a scalar or a sequence of
// scalars, the shape GitHub uses for "needs".
func decodeStringList(n *yaml.Node) []string {
	if n.IsZero() {
		return nil
	}
	if n.Kind == yaml.ScalarNode {
		var s string
		if n.Decode(&s) == nil && s != "" {
			return []string{s}
		}
		return nil
	}
	var out []string
	if n.Decode(&out) != nil {
		return nil
	}
	return out
}

// decodeNameField reads a value that is either a plain string or a mapping
// with a "name" key, the shape GitHub uses for "environment".
func decodeNameField(n *yaml.Node) string {
	if n.IsZero() {
		return ""
	}
	if n.Kind == yaml.ScalarNode {
		var s string
		if n.Decode(&s) == nil {
			return s
		}
		return ""
	}
	var cfg struct {
		Name string `yaml:"name"`
	}
	if n.Decode(&cfg) == nil {
		return cfg.Name
	}
	return ""
}

// decodeImageField reads a value that is either a plain string or a mapping
// with an "image" key, the shape GitHub uses for "container".
func decodeImageField(n *yaml.Node) string {
	if n.IsZero() {
		return ""
	}
	if n.Kind == yaml.ScalarNode {
		var s string
		if n.Decode(&s) == nil {
			return s
		}
		return ""
	}
	var cfg struct {
		Image string `yaml:"image"`
	}
	if n.Decode(&cfg) == nil {
		return cfg.Image
	}
	return ""
}

// reusableWorkflowName trims a workflow reference like
// "org/repo/.github/workflows/deploy.yml@main" down to "deploy".
func reusableWorkflowName(ref string) string {
	if i := strings.Index(ref, "@"); i >= 0 {
		ref = ref[:i]
	}
	base := filepath.Base(ref)
	return strings.TrimSuffix(strings.TrimSuffix(base, ".yml"), ".yaml")
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > 60 {
		s = s[:60]
	}
	return s
}
