// Package findings derives review findings from a scored pipeline graph.
//
// A Finding is an actionable observation with evidence pointing back at the
// nodes or edges that produced it. Rules read the graph and its Scores; they
// never mutate either.
package findings

import "sort"

// Severity classifies how urgent a finding is.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityInfo     Severity = "info"
)

// rank orders severities, most urgent first.
func (s Severity) rank() int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityHigh:
		return 1
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 3
	default:
		return 4
	}
}

// Evidence ties a finding to a concrete location in the graph.
type Evidence struct {
	Description string `json:"description"`
	NodeID      string `json:"node_id,omitempty"`
}

// Finding is one actionable observation about the pipeline.
type Finding struct {
	RuleID         string     `json:"rule_id"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Severity       Severity   `json:"severity"`
	Confidence     float64    `json:"confidence"` // 0..1
	Recommendation string     `json:"recommendation"`
	ImpactCategory string     `json:"impact_category"`
	Evidence       []Evidence `json:"evidence,omitempty"`
}

// Sort orders findings by severity, then rule id for a stable report layout.
func Sort(fs []Finding) {
	sort.SliceStable(fs, func(i, j int) bool {
		if fs[i].Severity.rank() != fs[j].Severity.rank() {
			return fs[i].Severity.rank() < fs[j].Severity.rank()
		}
		return fs[i].RuleID < fs[j].RuleID
	})
}
