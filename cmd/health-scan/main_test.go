package main

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"ontology-backend/application/queries"
	"ontology-backend/domain/events"
	"ontology-backend/domain/health"
	"ontology-backend/infrastructure/persistence/dynamodb"
	"ontology-backend/pkg/observability"
	"ontology-backend/tests/mocks"

	awsevents "github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var scanTime = time.Date(2025, 6, 1, 6, 0, 0, 0, time.UTC)

func newScanner(result interface{}, askErr error) (*scanner, *mocks.MockHealthReporter, *mocks.MockEventPublisher) {
	reporter := &mocks.MockHealthReporter{}
	publisher := &mocks.MockEventPublisher{}
	return &scanner{
		ask:       func(context.Context) (interface{}, error) { return result, askErr },
		reporter:  reporter,
		publisher: publisher,
		tracer:    observability.NewTracer("health-scan"),
		now:       func() time.Time { return scanTime },
		logger:    zap.NewNop(),
	}, reporter, publisher
}

func TestScan_ReportsAndPublishes(t *testing.T) {
	report := health.NewReport(health.Metrics{
		TotalNodes:    3,
		TotalEdges:    1,
		OrphanedNodes: []string{"invoice"},
		LastUpdated:   scanTime,
	})
	s, reporter, publisher := newScanner(&queries.HealthResult{Report: &report}, nil)

	reporter.On("ReportHealth", mock.Anything, report).Return(nil)
	publisher.On("Publish", mock.Anything, mock.MatchedBy(func(e events.DomainEvent) bool {
		hs, ok := e.(events.HealthScanned)
		return ok && hs.Score == 75 && hs.OrphanedNodes == 1 && hs.GetTimestamp().Equal(scanTime)
	})).Return(nil)

	res, err := s.handle(context.Background(), awsevents.CloudWatchEvent{ID: "evt-1"})
	require.NoError(t, err)
	assert.Equal(t, ScanResult{Score: 75, Status: "warning", IssueCount: 1}, res)
	reporter.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestScan_PublishFailureIsNotFatal(t *testing.T) {
	report := health.NewReport(health.Metrics{LastUpdated: scanTime})
	s, reporter, publisher := newScanner(&queries.HealthResult{Report: &report}, nil)
	reporter.On("ReportHealth", mock.Anything, report).Return(nil)
	publisher.On("Publish", mock.Anything, mock.Anything).Return(errors.New("bus unavailable"))

	res, err := s.handle(context.Background(), awsevents.CloudWatchEvent{})
	require.NoError(t, err)
	assert.Equal(t, 100, res.Score)
}

func TestScan_UnreadableOntology(t *testing.T) {
	s, reporter, publisher := newScanner(&queries.HealthResult{Error: "Failed to load data"}, nil)

	_, err := s.handle(context.Background(), awsevents.CloudWatchEvent{})
	require.ErrorIs(t, err, errScanFailed)
	reporter.AssertNotCalled(t, "ReportHealth", mock.Anything, mock.Anything)
	publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestScan_ReporterError(t *testing.T) {
	report := health.NewReport(health.Metrics{LastUpdated: scanTime})
	s, reporter, publisher := newScanner(&queries.HealthResult{Report: &report}, nil)
	reporter.On("ReportHealth", mock.Anything, report).Return(errors.New("throttled"))

	_, err := s.handle(context.Background(), awsevents.CloudWatchEvent{})
	require.EqualError(t, err, "throttled")
	publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestScan_QueryError(t *testing.T) {
	s, _, _ := newScanner(nil, errors.New("breaker open"))
	_, err := s.handle(context.Background(), awsevents.CloudWatchEvent{})
	require.EqualError(t, err, "breaker open")
}

func TestScan_SkipsWhileLeaseHeld(t *testing.T) {
	s, reporter, publisher := newScanner(nil, errors.New("must not be asked"))
	s.acquire = func(context.Context) (func(context.Context) error, error) {
		return nil, fmt.Errorf("%w: health-scan", dynamodb.ErrLockHeld)
	}

	res, err := s.handle(context.Background(), awsevents.CloudWatchEvent{})
	require.NoError(t, err)
	assert.True(t, res.Skipped)
	reporter.AssertNotCalled(t, "ReportHealth", mock.Anything, mock.Anything)
	publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestScan_ReleasesLease(t *testing.T) {
	report := health.NewReport(health.Metrics{LastUpdated: scanTime})
	s, reporter, publisher := newScanner(&queries.HealthResult{Report: &report}, nil)
	reporter.On("ReportHealth", mock.Anything, report).Return(nil)
	publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

	released := false
	s.acquire = func(context.Context) (func(context.Context) error, error) {
		return func(context.Context) error { released = true; return nil }, nil
	}

	_, err := s.handle(context.Background(), awsevents.CloudWatchEvent{})
	require.NoError(t, err)
	assert.True(t, released)
}
