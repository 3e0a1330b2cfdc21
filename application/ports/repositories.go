package ports

import (
	"context"

	"ontology-backend/domain/events"
	"ontology-backend/domain/health"
	"ontology-backend/domain/ontology"
)

// NodeRepository defines the interface for node persistence
// This is a port in hexagonal architecture - the domain doesn't know about the implementation
type NodeRepository interface {
	// ScanNodes reads the whole node table
	ScanNodes(ctx context.Context) ([]ontology.Node, error)

	// GetNode retrieves a node by id; a missing node is a not-found AppError
	GetNode(ctx context.Context, id string) (*ontology.Node, error)

	// PutNode creates or replaces a node
	PutNode(ctx context.Context, node ontology.Node) error

	// UpdateNode sets the given top-level attributes on an existing node
	UpdateNode(ctx context.Context, id string, fields map[string]any) error

	// UpdateNodePosition persists x, y and updatedAt only
	UpdateNodePosition(ctx context.Context, id string, pos ontology.Position, updatedAt string) error

	// DeleteNode removes a node
	DeleteNode(ctx context.Context, id string) error
}

// EdgeRepository defines the interface for edge persistence
type EdgeRepository interface {
	// ScanEdges reads the whole edge table
	ScanEdges(ctx context.Context) ([]ontology.Edge, error)

	// PutEdge creates or replaces an edge
	PutEdge(ctx context.Context, edge ontology.Edge) error

	// DeleteEdge removes an edge
	DeleteEdge(ctx context.Context, id string) error
}

// CollectionReader reads any ontology collection by its logical name
type CollectionReader interface {
	// ScanCollection returns every raw item of the collection
	ScanCollection(ctx context.Context, collection string) ([]ontology.Record, error)

	// CountCollection returns the item count of the collection
	CountCollection(ctx context.Context, collection string) (int, error)
}

// OntologyRepository is everything the store and the command handlers need
type OntologyRepository interface {
	NodeRepository
	EdgeRepository
	CollectionReader
}

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	// Publish sends a single event
	Publish(ctx context.Context, event events.DomainEvent) error

	// PublishBatch sends multiple events
	PublishBatch(ctx context.Context, events []events.DomainEvent) error
}

// HealthReporter ships a health report to a metrics backend
type HealthReporter interface {
	ReportHealth(ctx context.Context, report health.Report) error
}

// Cache defines the interface for caching. Values are serialized by the caller so
// that a remote cache can hold them.
type Cache interface {
	// Get retrieves a value from cache
	Get(ctx context.Context, key string) ([]byte, bool)

	// Set stores a value in cache with TTL in seconds
	Set(ctx context.Context, key string, value []byte, ttl int) error

	// Delete removes a value from cache
	Delete(ctx context.Context, key string) error

	// Clear removes all values from cache
	Clear(ctx context.Context) error
}
