package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/build-flow-labs/atlas/internal/atlas/graph"
	"github.com/build-flow-labs/atlas/internal/atlas/score"
)

// renderMarkdown renders the full eight-section report.
func renderMarkdown(d *Data) string {
	var b strings.Builder
	s := d.Scores

	fmt.Fprintf(&b, "# PipelineAtlas Analysis Report\n\n")
	fmt.Fprintf(&b, "**Pipeline:** %s  \n", d.Graph.Name)
	if d.Graph.Platform != "" {
		fmt.Fprintf(&b, "**Platform:** %s  \n", d.Graph.Platform)
	}
	fmt.Fprintf(&b, "**Generated:** %s\n\n", d.GeneratedAt.Format(time.RFC3339))

	// 1. Structure Map
	fmt.Fprintf(&b, "## 1. Structure Map\n\n")
	if d.Graph.NodeCount() == 0 {
		b.WriteString("The graph is empty.\n\n")
	} else {
		for _, kind := range kindsPresent(d.Graph) {
			nodes := d.Graph.NodesOfKind(kind)
			fmt.Fprintf(&b, "- **%s** (%d): ", kind, len(nodes))
			names := make([]string, len(nodes))
			for i, n := range nodes {
				names[i] = n.Name
			}
			b.WriteString(strings.Join(names, ", "))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	// 2. Dependency Graph
	fmt.Fprintf(&b, "## 2. Dependency Graph\n\n")
	if d.Graph.EdgeCount() == 0 {
		b.WriteString("No edges.\n\n")
	} else {
		for _, e := range d.Graph.Edges() {
			fmt.Fprintf(&b, "- %s --%s--> %s\n",
				nodeName(d.Graph, e.SourceID), e.Kind, nodeName(d.Graph, e.TargetID))
		}
		b.WriteString("\n")
	}

	// 3. Complexity Score
	fmt.Fprintf(&b, "## 3. Complexity Score\n\n")
	fmt.Fprintf(&b, "**%.1f / 100**\n\n", s.ComplexityScore)
	fmt.Fprintf(&b, "| Component | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Nodes | %d |\n", s.NodeCount)
	fmt.Fprintf(&b, "| Edges | %d |\n", s.EdgeCount)
	fmt.Fprintf(&b, "| Max depth | %d |\n", s.MaxDepth)
	fmt.Fprintf(&b, "| Max fan-out | %d |\n\n", s.MaxFanOut)

	// 4. Fragility Score
	fmt.Fprintf(&b, "## 4. Fragility Score\n\n")
	fmt.Fprintf(&b, "**%.1f / 100**\n\n", s.FragilityScore)
	fmt.Fprintf(&b, "| Component | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Secret references | %d |\n", s.SecretCount)
	fmt.Fprintf(&b, "| Cross-pipeline triggers | %d |\n", s.CrossTriggerCount)
	fmt.Fprintf(&b, "| Unpinned images | %d |\n", s.UnpinnedImageCount)
	fmt.Fprintf(&b, "| Missing doc types | %d |\n\n", s.MissingDocTypes)

	// 5. Documentation Coverage
	fmt.Fprintf(&b, "## 5. Documentation Coverage\n\n")
	fmt.Fprintf(&b, "Coverage: **%.0f%%**\n\n", s.DocCoverage*100)
	missing := map[string]bool{}
	for _, m := range score.MissingDocs(d.Graph) {
		missing[m] = true
	}
	for _, dt := range []string{"readme", "architecture", "runbook", "security_policy", "codeowners"} {
		mark := "present"
		if missing[dt] {
			mark = "missing"
		}
		fmt.Fprintf(&b, "- %s: %s\n", dt, mark)
	}
	b.WriteString("\n")

	// Maturity breakdown rides along with documentation/hygiene.
	fmt.Fprintf(&b, "**Maturity: %.1f / 100** — caching %s, parallelism %s, pinned ratio %.2f, retries %s, env isolation %s\n\n",
		s.MaturityScore, yesNo(s.HasCaching), yesNo(s.HasParallelism),
		s.PinnedImageRatio, yesNo(s.HasRetries), yesNo(s.HasEnvIsolation))

	// 6. Improvement List
	fmt.Fprintf(&b, "## 6. Improvement List\n\n")
	if len(d.Findings) == 0 {
		b.WriteString("No findings.\n\n")
	} else {
		for _, f := range d.Findings {
			fmt.Fprintf(&b, "### [%s] %s (`%s`)\n\n", strings.ToUpper(string(f.Severity)), f.Title, f.RuleID)
			fmt.Fprintf(&b, "%s\n\n", f.Description)
			if f.Recommendation != "" {
				fmt.Fprintf(&b, "**Recommendation:** %s\n\n", f.Recommendation)
			}
		}
	}

	// 7. Modernization Roadmap
	fmt.Fprintf(&b, "## 7. Modernization Roadmap\n\n")
	if d.ModernizationNotes == "" {
		b.WriteString("_No modernization notes provided._\n\n")
	} else {
		b.WriteString(d.ModernizationNotes)
		b.WriteString("\n\n")
	}

	// 8. Evidence Index
	fmt.Fprintf(&b, "## 8. Evidence Index\n\n")
	i := 0
	for _, f := range d.Findings {
		for _, ev := range f.Evidence {
			i++
			fmt.Fprintf(&b, "%d. [%s] %s\n", i, f.RuleID, ev.Description)
		}
	}
	if i == 0 {
		b.WriteString("No evidence recorded.\n")
	}

	return b.String()
}

// kindsPresent returns the node kinds in the graph, sorted by tag.
func kindsPresent(g *graph.Graph) []graph.Kind {
	seen := map[graph.Kind]bool{}
	for _, n := range g.Nodes() {
		seen[n.Kind] = true
	}
	kinds := make([]graph.Kind, 0, len(seen))
	for k := range seen {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// nodeName resolves an id to a display name, truncating dangling ids.
func nodeName(g *graph.Graph, id string) string {
	if n, ok := g.NodeByID(id); ok {
		return n.Name
	}
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
