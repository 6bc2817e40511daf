package ingest

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-github/v60/github"

	"github.com/build-flow-labs/atlas/internal/atlas/graph"
)

func stubGitHub(t *testing.T, files map[string]string) *github.Client {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v3/repos/acme/ci/contents/.github/workflows", func(w http.ResponseWriter, r *http.Request) {
		listing := []map[string]string{}
		for path := range files {
			if len(path) > len(workflowsDir) && path[:len(workflowsDir)] == workflowsDir {
				listing = append(listing, map[string]string{
					"type": "file",
					"name": path[len(workflowsDir)+1:],
					"path": path,
				})
			}
		}
		json.NewEncoder(w).Encode(listing)
	})
	mux.HandleFunc("/api/v3/repos/acme/ci/contents/", func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path[len("/api/v3/repos/acme/ci/contents/"):]
		content, ok := files[path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"message":"Not Found"}`)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{
			"type":     "file",
			"encoding": "base64",
			"name":     path,
			"path":     path,
			"content":  base64.StdEncoding.EncodeToString([]byte(content)),
		})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client, err := github.NewClient(nil).WithEnterpriseURLs(srv.URL+"/", srv.URL+"/")
	if err != nil {
		t.Fatal(err)
	}
	return client
}

func TestFetchRepo(t *testing.T) {
	client := stubGitHub(t, map[string]string{
		".github/workflows/ci.yml":  ciWorkflow,
		".github/workflows/bad.yml": "on: push\n", // no jobs, skipped
		"README.md":                 "# ci\n",
		"docs/RUNBOOK.md":           "steps\n",
	})
	f := NewFetcherWithClient(client, testLogger())

	g, err := f.FetchRepo(context.Background(), "acme", "ci")
	if err != nil {
		t.Fatal(err)
	}

	if g.Name != "acme/ci" || g.Platform != "github_actions" {
		t.Errorf("header = %s/%s", g.Name, g.Platform)
	}
	if got := len(g.NodesOfKind(graph.KindPipeline)); got != 1 {
		t.Fatalf("pipelines = %d, want 1 (bad.yml skipped)", got)
	}

	docs := map[string]string{}
	for _, n := range g.NodesOfKind(graph.KindDocFile) {
		docs[n.StringAttr("doc_type", "")] = n.Name
	}
	if docs["readme"] != "README.md" || docs["runbook"] != "docs/RUNBOOK.md" {
		t.Errorf("docs = %v", docs)
	}
	if _, ok := docs["codeowners"]; ok {
		t.Error("codeowners should be absent")
	}
}

func TestFetchRepoNoWorkflows(t *testing.T) {
	client := stubGitHub(t, map[string]string{"README.md": "# ci\n"})
	f := NewFetcherWithClient(client, testLogger())
	if _, err := f.FetchRepo(context.Background(), "acme", "ci"); err == nil {
		t.Error("expected error when no workflows parse")
	}
}
