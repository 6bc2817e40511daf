package ingest

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/build-flow-labs/atlas/internal/atlas/graph"
)

// CollectDir builds a graph from a checked-out repository on disk: Actions
// workflows under .github/workflows plus the conventional documentation
// files.
func CollectDir(root string, logger *slog.Logger) (*graph.Graph, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", root, err)
	}
	b := NewBuilder(filepath.Base(abs), "github_actions")

	wfDir := filepath.Join(abs, filepath.FromSlash(workflowsDir))
	entries, err := os.ReadDir(wfDir)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", wfDir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && isWorkflowFile(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	loaded := 0
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(wfDir, name))
		if err != nil {
			logger.Warn("skipping workflow", "file", name, "error", err)
			continue
		}
		if err := b.AddWorkflow(name, data); err != nil {
			logger.Warn("skipping workflow", "file", name, "error", err)
			continue
		}
		loaded++
	}
	if loaded == 0 {
		return nil, fmt.Errorf("no parseable workflows under %s", wfDir)
	}
	logger.Info("workflows collected", "dir", wfDir, "count", loaded)

	for _, probe := range docProbes {
		for _, path := range probe.paths {
			full := filepath.Join(abs, filepath.FromSlash(path))
			info, err := os.Stat(full)
			if err != nil || info.IsDir() {
				continue
			}
			if err := b.AddDocFile(path, probe.docType); err != nil {
				return nil, err
			}
			break
		}
	}

	return b.Graph()
}
