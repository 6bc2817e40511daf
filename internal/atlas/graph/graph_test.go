package graph

import (
	"errors"
	"strings"
	"testing"
)

func TestParseKind(t *testing.T) {
	cases := []struct {
		in      string
		want    Kind
		wantErr bool
	}{
		{"PIPELINE", KindPipeline, false},
		{"pipeline", KindPipeline, false},
		{"  Secret_Ref ", KindSecretRef, false},
		{"CONTAINER_IMAGE", KindContainerImage, false},
		{"WIDGET", "", true},
		{"", "", true},
	}
	for _, tc := range cases {
		got, err := ParseKind(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseKind(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseKind(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseKind(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestParseEdgeKind(t *testing.T) {
	if k, err := ParseEdgeKind("calls"); err != nil || k != EdgeCalls {
		t.Errorf("ParseEdgeKind(calls) = %s, %v", k, err)
	}
	if _, err := ParseEdgeKind("LINKS"); err == nil {
		t.Error("ParseEdgeKind(LINKS): expected error")
	}
}

func TestAddNodeAssignsID(t *testing.T) {
	g := New("t", "")
	n := &Node{Kind: KindStep, Name: "step"}
	if err := g.AddNode(n); err != nil {
		t.Fatal(err)
	}
	if n.ID == "" {
		t.Error("AddNode left ID empty")
	}
	if got, ok := g.NodeByID(n.ID); !ok || got != n {
		t.Error("NodeByID did not find the added node")
	}
}

func TestAddNodeDuplicateID(t *testing.T) {
	g := New("t", "")
	a := &Node{ID: "x", Kind: KindStage, Name: "a"}
	b := &Node{ID: "x", Kind: KindStage, Name: "b"}
	if err := g.AddNode(a); err != nil {
		t.Fatal(err)
	}
	err := g.AddNode(b)
	if err == nil {
		t.Fatal("expected duplicate id error")
	}
	if !strings.Contains(err.Error(), `"x"`) {
		t.Errorf("error does not name the id: %v", err)
	}
	if g.NodeCount() != 1 {
		t.Errorf("NodeCount = %d after rejected add, want 1", g.NodeCount())
	}
}

func TestNodesPreserveInsertionOrder(t *testing.T) {
	g := New("t", "")
	names := []string{"c", "a", "b"}
	for _, name := range names {
		if err := g.AddNode(NewNode(KindStage, name)); err != nil {
			t.Fatal(err)
		}
	}
	for i, n := range g.Nodes() {
		if n.Name != names[i] {
			t.Errorf("Nodes()[%d] = %s, want %s", i, n.Name, names[i])
		}
	}
}

func TestNodesOfKind(t *testing.T) {
	g := New("t", "")
	g.AddNode(NewNode(KindStage, "s1"))
	g.AddNode(NewNode(KindSecretRef, "k"))
	g.AddNode(NewNode(KindStage, "s2"))

	stages := g.NodesOfKind(KindStage)
	if len(stages) != 2 || stages[0].Name != "s1" || stages[1].Name != "s2" {
		t.Errorf("NodesOfKind(STAGE) = %v", stages)
	}
	if got := g.NodesOfKind(KindArtifact); len(got) != 0 {
		t.Errorf("NodesOfKind(ARTIFACT) = %v, want empty", got)
	}
}

func TestStringAttr(t *testing.T) {
	n := NewNode(KindContainerImage, "img")
	if got := n.StringAttr("tag", "latest"); got != "latest" {
		t.Errorf("absent attr = %q, want default", got)
	}
	n.SetAttr("tag", "v1.2.3")
	if got := n.StringAttr("tag", "latest"); got != "v1.2.3" {
		t.Errorf("tag = %q", got)
	}
	n.SetAttr("count", 7)
	if got := n.StringAttr("count", ""); got != "7" {
		t.Errorf("int attr stringified as %q, want 7", got)
	}
}

func TestBoolAttr(t *testing.T) {
	n := NewNode(KindStage, "deploy")

	got, err := n.BoolAttr("parallel", false)
	if err != nil || got {
		t.Errorf("absent attr = %v, %v; want false, nil", got, err)
	}

	n.SetAttr("parallel", true)
	got, err = n.BoolAttr("parallel", false)
	if err != nil || !got {
		t.Errorf("bool attr = %v, %v; want true, nil", got, err)
	}

	n.SetAttr("parallel", "yes")
	_, err = n.BoolAttr("parallel", false)
	if !errors.Is(err, ErrAttrType) {
		t.Errorf("non-bool attr error = %v, want ErrAttrType", err)
	}
	if err != nil && !strings.Contains(err.Error(), "deploy") {
		t.Errorf("error does not name the node: %v", err)
	}
}

func TestAttrRaw(t *testing.T) {
	n := &Node{Kind: KindStep, Name: "s"}
	if got := n.Attr("metadata", nil); got != nil {
		t.Errorf("nil-bag Attr = %v, want nil", got)
	}
	n.SetAttr("metadata", map[string]any{"retry": 3})
	m, ok := n.Attr("metadata", nil).(map[string]any)
	if !ok || m["retry"] != 3 {
		t.Errorf("Attr(metadata) = %v", n.Attr("metadata", nil))
	}
}

func TestAddEdgeAllowsDanglingEndpoints(t *testing.T) {
	g := New("t", "")
	g.AddNode(NewNode(KindPipeline, "p"))
	g.AddEdge(Edge{Kind: EdgeCalls, SourceID: "missing-src", TargetID: "missing-dst"})
	if g.EdgeCount() != 1 {
		t.Errorf("EdgeCount = %d, want 1", g.EdgeCount())
	}
}
