// Package mocks provides testify mocks for the application ports.
package mocks

import (
	"context"

	"ontology-backend/domain/events"
	"ontology-backend/domain/health"
	"ontology-backend/domain/ontology"

	"github.com/stretchr/testify/mock"
)

// MockOntologyRepository mocks ports.OntologyRepository
type MockOntologyRepository struct {
	mock.Mock
}

func (m *MockOntologyRepository) ScanNodes(ctx context.Context) ([]ontology.Node, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ontology.Node), args.Error(1)
}

func (m *MockOntologyRepository) GetNode(ctx context.Context, id string) (*ontology.Node, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ontology.Node), args.Error(1)
}

func (m *MockOntologyRepository) PutNode(ctx context.Context, node ontology.Node) error {
	return m.Called(ctx, node).Error(0)
}

func (m *MockOntologyRepository) UpdateNode(ctx context.Context, id string, fields map[string]any) error {
	return m.Called(ctx, id, fields).Error(0)
}

func (m *MockOntologyRepository) UpdateNodePosition(ctx context.Context, id string, pos ontology.Position, updatedAt string) error {
	return m.Called(ctx, id, pos, updatedAt).Error(0)
}

func (m *MockOntologyRepository) DeleteNode(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockOntologyRepository) ScanEdges(ctx context.Context) ([]ontology.Edge, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ontology.Edge), args.Error(1)
}

func (m *MockOntologyRepository) PutEdge(ctx context.Context, edge ontology.Edge) error {
	return m.Called(ctx, edge).Error(0)
}

func (m *MockOntologyRepository) DeleteEdge(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockOntologyRepository) ScanCollection(ctx context.Context, collection string) ([]ontology.Record, error) {
	args := m.Called(ctx, collection)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ontology.Record), args.Error(1)
}

func (m *MockOntologyRepository) CountCollection(ctx context.Context, collection string) (int, error) {
	args := m.Called(ctx, collection)
	return args.Int(0), args.Error(1)
}

// MockEventPublisher mocks ports.EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, event events.DomainEvent) error {
	return m.Called(ctx, event).Error(0)
}

func (m *MockEventPublisher) PublishBatch(ctx context.Context, evts []events.DomainEvent) error {
	return m.Called(ctx, evts).Error(0)
}

// MockHealthReporter mocks ports.HealthReporter
type MockHealthReporter struct {
	mock.Mock
}

func (m *MockHealthReporter) ReportHealth(ctx context.Context, report health.Report) error {
	return m.Called(ctx, report).Error(0)
}

// MockCache mocks ports.Cache
type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(ctx context.Context, key string) ([]byte, bool) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Bool(1)
	}
	return args.Get(0).([]byte), args.Bool(1)
}

func (m *MockCache) Set(ctx context.Context, key string, value []byte, ttl int) error {
	return m.Called(ctx, key, value, ttl).Error(0)
}

func (m *MockCache) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *MockCache) Clear(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}
