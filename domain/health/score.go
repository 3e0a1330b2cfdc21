package health

import (
	"time"

	"ontology-backend/domain/ontology"
)

// Score thresholds. The score is a three-bucket heuristic, not a continuous value.
const (
	ScoreHealthy  = 100
	ScoreWarning  = 75
	ScoreCritical = 50

	criticalIssueCount = 5
)

// ScoreIssues maps an issue count to its bucket.
func ScoreIssues(issueCount int) (int, Status) {
	switch {
	case issueCount <= 0:
		return ScoreHealthy, StatusHealthy
	case issueCount < criticalIssueCount:
		return ScoreWarning, StatusWarning
	default:
		return ScoreCritical, StatusCritical
	}
}

// Score scores a metrics snapshot. With no snapshot the graph is reported as
// critical with a zero score.
func Score(m *Metrics) (int, Status) {
	if m == nil {
		return 0, StatusCritical
	}
	return ScoreIssues(m.IssueCount())
}

// Report bundles a metrics snapshot with its score.
type Report struct {
	Metrics
	IssueCount int    `json:"issueCount"`
	Score      int    `json:"score"`
	Status     Status `json:"status"`
}

// NewReport scores m.
func NewReport(m Metrics) Report {
	score, status := Score(&m)
	return Report{
		Metrics:    m,
		IssueCount: m.IssueCount(),
		Score:      score,
		Status:     status,
	}
}

// Run analyzes the snapshot and scores it.
func Run(nodes []ontology.Node, edges []ontology.Edge, now time.Time) Report {
	return NewReport(Analyze(nodes, edges, now))
}
