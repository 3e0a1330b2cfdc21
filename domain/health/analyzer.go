// Package health computes point-in-time diagnostics over a full ontology snapshot:
// orphaned nodes, searchable properties without an index, and incomplete schema
// metadata.
package health

import (
	"time"

	"ontology-backend/domain/ontology"
)

// Status is the coarse health bucket.
type Status string

const (
	StatusHealthy  Status = "healthy"
	StatusWarning  Status = "warning"
	StatusCritical Status = "critical"
)

// Issue texts reported in SchemaIssue.Issue.
const (
	IssueMissingProperties = "Missing properties configuration"
	IssueMissingSchema     = "Missing schema definition"
	IssueMissingDataSource = "Missing data source configuration"
	IssueMissingPrimaryKey = "Missing primary key definition"
	IssueNoRequiredFields  = "No required fields defined"
)

// MissingIndex flags a searchable schema property that no index hashes on.
type MissingIndex struct {
	NodeID   string `json:"nodeId"`
	NodeName string `json:"nodeName"`
	Property string `json:"property"`
}

// SchemaIssue flags one incomplete piece of a node's configuration.
type SchemaIssue struct {
	NodeID   string `json:"nodeId"`
	NodeName string `json:"nodeName"`
	Issue    string `json:"issue"`
}

// Metrics is derived on demand and never persisted.
type Metrics struct {
	TotalNodes     int            `json:"totalNodes"`
	TotalEdges     int            `json:"totalEdges"`
	OrphanedNodes  []string       `json:"orphanedNodes"`
	MissingIndexes []MissingIndex `json:"missingIndexes"`
	SchemaIssues   []SchemaIssue  `json:"schemaIssues"`
	LastUpdated    time.Time      `json:"lastUpdated"`
}

// IssueCount is the number of flagged entries across all three checks.
func (m Metrics) IssueCount() int {
	return len(m.OrphanedNodes) + len(m.MissingIndexes) + len(m.SchemaIssues)
}

// Analyze runs every check over nodes and edges. Output order follows node input
// order, and schema properties within a node are visited by name.
func Analyze(nodes []ontology.Node, edges []ontology.Edge, now time.Time) Metrics {
	return Metrics{
		TotalNodes:     len(nodes),
		TotalEdges:     len(edges),
		OrphanedNodes:  OrphanedNodes(nodes, edges),
		MissingIndexes: MissingIndexes(nodes),
		SchemaIssues:   SchemaIssues(nodes),
		LastUpdated:    now,
	}
}

// OrphanedNodes returns the ids of nodes that no edge references.
func OrphanedNodes(nodes []ontology.Node, edges []ontology.Edge) []string {
	referenced := make(map[string]struct{}, len(edges)*2)
	for _, e := range edges {
		if e.Source != "" {
			referenced[e.Source] = struct{}{}
		}
		if e.Target != "" {
			referenced[e.Target] = struct{}{}
		}
	}

	orphans := []string{}
	for _, n := range nodes {
		if _, ok := referenced[n.ID]; !ok {
			orphans = append(orphans, n.ID)
		}
	}
	return orphans
}

// MissingIndexes returns searchable schema properties lacking an index.
func MissingIndexes(nodes []ontology.Node) []MissingIndex {
	missing := []MissingIndex{}
	for _, n := range nodes {
		schema, ok := n.Properties.Schema()
		if !ok {
			continue
		}
		if _, ok := schema.Properties(); !ok {
			continue
		}
		for _, prop := range schema.PropertyNames() {
			if !schema.Searchable(prop) {
				continue
			}
			if !n.Properties.HasIndexOn(prop) {
				missing = append(missing, MissingIndex{NodeID: n.ID, NodeName: n.Name, Property: prop})
			}
		}
	}
	return missing
}

// SchemaIssues returns one entry per configuration gap. A node without properties
// reports only that.
func SchemaIssues(nodes []ontology.Node) []SchemaIssue {
	issues := []SchemaIssue{}
	for _, n := range nodes {
		flag := func(issue string) {
			issues = append(issues, SchemaIssue{NodeID: n.ID, NodeName: n.Name, Issue: issue})
		}

		if n.Properties == nil {
			flag(IssueMissingProperties)
			continue
		}

		schema, hasSchema := n.Properties.Schema()
		if !hasSchema {
			flag(IssueMissingSchema)
		}
		if _, ok := n.Properties.DataSource(); !ok {
			flag(IssueMissingDataSource)
		}
		if _, ok := n.Properties.PrimaryKey(); !ok {
			flag(IssueMissingPrimaryKey)
		}
		if hasSchema {
			if req, ok := schema.Required(); ok && len(req) == 0 {
				flag(IssueNoRequiredFields)
			}
		}
	}
	return issues
}
