// Package web serves collected pipeline snapshots as browsable reports.
package web

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/build-flow-labs/atlas/internal/atlas/graph"
	"github.com/build-flow-labs/atlas/internal/atlas/score"
)

// IndexEntry is a denormalized snapshot summary for fast listing.
type IndexEntry struct {
	Name       string    `json:"name"`
	Platform   string    `json:"platform,omitempty"`
	NodeCount  int       `json:"node_count"`
	EdgeCount  int       `json:"edge_count"`
	Complexity float64   `json:"complexity_score"`
	Fragility  float64   `json:"fragility_score"`
	Maturity   float64   `json:"maturity_score"`
	Collected  time.Time `json:"collected_at"`
	FilePath   string    `json:"-"`
}

// Index is an in-memory listing of the snapshots in a storage directory.
type Index struct {
	mu         sync.RWMutex
	entries    []IndexEntry
	storageDir string
	logger     *slog.Logger
}

// NewIndex creates an index backed by a storage directory.
func NewIndex(storageDir string, logger *slog.Logger) *Index {
	return &Index{storageDir: storageDir, logger: logger}
}

// Load reads all snapshot files from the storage directory into the index.
// Corrupt or unscorable files are skipped, not fatal.
func (idx *Index) Load() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	dirEntries, err := os.ReadDir(idx.storageDir)
	if err != nil {
		if os.IsNotExist(err) {
			idx.entries = nil
			return nil
		}
		return fmt.Errorf("reading storage dir: %w", err)
	}

	var entries []IndexEntry
	for _, de := range dirEntries {
		if de.IsDir() || !strings.HasSuffix(de.Name(), graph.SnapshotSuffix) {
			continue
		}
		path := filepath.Join(idx.storageDir, de.Name())
		entry, err := loadEntry(path, de.Name())
		if err != nil {
			idx.logger.Warn("skipping snapshot", "file", de.Name(), "error", err)
			continue
		}
		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	idx.entries = entries
	return nil
}

func loadEntry(path, filename string) (IndexEntry, error) {
	g, err := graph.LoadSnapshot(path)
	if err != nil {
		return IndexEntry{}, err
	}
	s, err := score.Compute(g)
	if err != nil {
		return IndexEntry{}, err
	}

	entry := IndexEntry{
		Name:       strings.TrimSuffix(filename, graph.SnapshotSuffix),
		Platform:   g.Platform,
		NodeCount:  s.NodeCount,
		EdgeCount:  s.EdgeCount,
		Complexity: s.ComplexityScore,
		Fragility:  s.FragilityScore,
		Maturity:   s.MaturityScore,
		FilePath:   path,
	}
	if info, err := os.Stat(path); err == nil {
		entry.Collected = info.ModTime()
	}
	return entry, nil
}

// List returns all entries, sorted by name.
func (idx *Index) List() []IndexEntry {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	out := make([]IndexEntry, len(idx.entries))
	copy(out, idx.entries)
	return out
}

// Get loads the full graph behind a named entry.
func (idx *Index) Get(name string) (*graph.Graph, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	for _, e := range idx.entries {
		if e.Name == name {
			return graph.LoadSnapshot(e.FilePath)
		}
	}
	return nil, fmt.Errorf("snapshot not found: %s", name)
}

// Count returns the number of indexed snapshots.
func (idx *Index) Count() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.entries)
}
