package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/go-github/v60/github"
	"golang.org/x/oauth2"

	"github.com/build-flow-labs/atlas/internal/atlas/graph"
)

const workflowsDir = ".github/workflows"

// docProbes maps required documentation types to the repository paths they
// conventionally live at. The first path that exists wins.
var docProbes = []struct {
	docType string
	paths   []string
}{
	{"readme", []string{"README.md", "README"}},
	{"architecture", []string{"docs/ARCHITECTURE.md", "ARCHITECTURE.md"}},
	{"runbook", []string{"docs/RUNBOOK.md", "RUNBOOK.md"}},
	{"security_policy", []string{"SECURITY.md", ".github/SECURITY.md"}},
	{"codeowners", []string{"CODEOWNERS", ".github/CODEOWNERS", "docs/CODEOWNERS"}},
}

// Fetcher collects workflow and documentation files from a GitHub repository
// and assembles them into a pipeline graph.
type Fetcher struct {
	client *github.Client
	logger *slog.Logger
}

// NewFetcher creates a fetcher authenticated with the given token. An empty
// token yields an unauthenticated client, good enough for public repos at
// low request volume.
func NewFetcher(ctx context.Context, token string, logger *slog.Logger) *Fetcher {
	if token == "" {
		return &Fetcher{client: github.NewClient(nil), logger: logger}
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	tc := oauth2.NewClient(ctx, ts)
	return &Fetcher{client: github.NewClient(tc), logger: logger}
}

// NewFetcherWithClient creates a fetcher around an existing client (for
// testing against a stub API).
func NewFetcherWithClient(client *github.Client, logger *slog.Logger) *Fetcher {
	return &Fetcher{client: client, logger: logger}
}

// FetchRepo builds a graph from the repository's Actions workflows and its
// documentation files.
func (f *Fetcher) FetchRepo(ctx context.Context, owner, repo string) (*graph.Graph, error) {
	b := NewBuilder(owner+"/"+repo, "github_actions")

	_, listing, _, err := f.client.Repositories.GetContents(ctx, owner, repo, workflowsDir, nil)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", workflowsDir, err)
	}

	loaded := 0
	for _, entry := range listing {
		name := entry.GetName()
		if entry.GetType() != "file" || !isWorkflowFile(name) {
			continue
		}
		path := entry.GetPath()
		content, _, _, err := f.client.Repositories.GetContents(ctx, owner, repo, path, nil)
		if err != nil {
			f.logger.Warn("skipping workflow", "path", path, "error", err)
			continue
		}
		data, err := content.GetContent()
		if err != nil {
			f.logger.Warn("skipping workflow", "path", path, "error", err)
			continue
		}
		if err := b.AddWorkflow(name, []byte(data)); err != nil {
			f.logger.Warn("skipping workflow", "path", path, "error", err)
			continue
		}
		loaded++
	}
	if loaded == 0 {
		return nil, fmt.Errorf("no parseable workflows under %s", workflowsDir)
	}
	f.logger.Info("workflows collected", "repo", owner+"/"+repo, "count", loaded)

	for _, probe := range docProbes {
		for _, path := range probe.paths {
			content, _, _, err := f.client.Repositories.GetContents(ctx, owner, repo, path, nil)
			if err != nil || content == nil {
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

func isWorkflowFile(name string) bool {
	return strings.HasSuffix(name, ".yml") || strings.HasSuffix(name, ".yaml")
}
