package events

import (
	"time"

	"ontology-backend/domain/ontology"

	"github.com/google/uuid"
)

// Event types published to the bus. The detail-type on EventBridge is the same string.
const (
	TypeNodeCreated   = "ontology.node.created"
	TypeNodeUpdated   = "ontology.node.updated"
	TypeNodeMoved     = "ontology.node.moved"
	TypeNodeDeleted   = "ontology.node.deleted"
	TypeEdgeCreated   = "ontology.edge.created"
	TypeEdgeDeleted   = "ontology.edge.deleted"
	TypeHealthScanned = "ontology.health.scanned"
)

// DomainEvent is the base interface for all domain events
// Events represent something that has happened in the past
type DomainEvent interface {
	GetEventID() string
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
	GetVersion() int
}

// BaseEvent provides common event fields
type BaseEvent struct {
	EventID     string    `json:"eventId"`
	AggregateID string    `json:"aggregateId"`
	EventType   string    `json:"eventType"`
	Timestamp   time.Time `json:"timestamp"`
	Version     int       `json:"version"`
}

func (e BaseEvent) GetEventID() string      { return e.EventID }
func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) GetVersion() int         { return e.Version }

func newBase(aggregateID, eventType string, ts time.Time) BaseEvent {
	return BaseEvent{
		EventID:     uuid.NewString(),
		AggregateID: aggregateID,
		EventType:   eventType,
		Timestamp:   ts,
		Version:     1,
	}
}

// Node Events

// NodeCreated is raised when a node is written for the first time
type NodeCreated struct {
	BaseEvent
	Node ontology.Node `json:"node"`
}

func NewNodeCreated(node ontology.Node, ts time.Time) NodeCreated {
	return NodeCreated{BaseEvent: newBase(node.ID, TypeNodeCreated, ts), Node: node}
}

// NodeUpdated carries the names of the fields that changed
type NodeUpdated struct {
	BaseEvent
	NodeID string   `json:"nodeId"`
	Fields []string `json:"fields"`
}

func NewNodeUpdated(nodeID string, fields []string, ts time.Time) NodeUpdated {
	return NodeUpdated{BaseEvent: newBase(nodeID, TypeNodeUpdated, ts), NodeID: nodeID, Fields: fields}
}

// NodeMoved is raised when a node's canvas position is persisted
type NodeMoved struct {
	BaseEvent
	NodeID   string            `json:"nodeId"`
	Position ontology.Position `json:"position"`
}

func NewNodeMoved(nodeID string, pos ontology.Position, ts time.Time) NodeMoved {
	return NodeMoved{BaseEvent: newBase(nodeID, TypeNodeMoved, ts), NodeID: nodeID, Position: pos}
}

// NodeDeleted is raised when a node is removed
type NodeDeleted struct {
	BaseEvent
	NodeID string `json:"nodeId"`
}

func NewNodeDeleted(nodeID string, ts time.Time) NodeDeleted {
	return NodeDeleted{BaseEvent: newBase(nodeID, TypeNodeDeleted, ts), NodeID: nodeID}
}

// Edge Events

// EdgeCreated is raised when two nodes are connected
type EdgeCreated struct {
	BaseEvent
	Edge ontology.Edge `json:"edge"`
}

func NewEdgeCreated(edge ontology.Edge, ts time.Time) EdgeCreated {
	return EdgeCreated{BaseEvent: newBase(edge.ID, TypeEdgeCreated, ts), Edge: edge}
}

// EdgeDeleted is raised when an edge is removed
type EdgeDeleted struct {
	BaseEvent
	EdgeID string `json:"edgeId"`
}

func NewEdgeDeleted(edgeID string, ts time.Time) EdgeDeleted {
	return EdgeDeleted{BaseEvent: newBase(edgeID, TypeEdgeDeleted, ts), EdgeID: edgeID}
}

// Health Events

// HealthScanned summarizes a completed health scan
type HealthScanned struct {
	BaseEvent
	Score          int    `json:"score"`
	Status         string `json:"status"`
	TotalNodes     int    `json:"totalNodes"`
	TotalEdges     int    `json:"totalEdges"`
	OrphanedNodes  int    `json:"orphanedNodes"`
	MissingIndexes int    `json:"missingIndexes"`
	SchemaIssues   int    `json:"schemaIssues"`
}

// NewHealthScanned uses the ontology itself as the aggregate.
func NewHealthScanned(score int, status string, totalNodes, totalEdges, orphans, missingIndexes, schemaIssues int, ts time.Time) HealthScanned {
	return HealthScanned{
		BaseEvent:      newBase("ontology", TypeHealthScanned, ts),
		Score:          score,
		Status:         status,
		TotalNodes:     totalNodes,
		TotalEdges:     totalEdges,
		OrphanedNodes:  orphans,
		MissingIndexes: missingIndexes,
		SchemaIssues:   schemaIssues,
	}
}
