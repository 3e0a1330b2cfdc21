// Package main implements the scheduled Lambda that scores the ontology and
// ships the result to CloudWatch and the event bus.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"ontology-backend/application/ports"
	"ontology-backend/application/queries"
	"ontology-backend/domain/events"
	"ontology-backend/infrastructure/config"
	"ontology-backend/infrastructure/di"
	"ontology-backend/infrastructure/persistence/dynamodb"
	"ontology-backend/pkg/observability"

	awsevents "github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// scanLease bounds a scan; a crashed invocation frees the schedule after this.
const scanLease = 5 * time.Minute

type scanner struct {
	ask       func(ctx context.Context) (interface{}, error)
	reporter  ports.HealthReporter
	publisher ports.EventPublisher
	tracer    *observability.Tracer
	now       func() time.Time
	logger    *zap.Logger

	// acquire takes the scan lease. Nil runs without one.
	acquire func(ctx context.Context) (release func(context.Context) error, err error)
}

// ScanResult is returned to the scheduler.
type ScanResult struct {
	Score      int    `json:"score"`
	Status     string `json:"status"`
	IssueCount int    `json:"issueCount"`
	Skipped    bool   `json:"skipped,omitempty"`
}

var errScanFailed = errors.New("health scan failed")

func (s *scanner) handle(ctx context.Context, evt awsevents.CloudWatchEvent) (ScanResult, error) {
	s.logger.Info("Health scan started", zap.String("eventId", evt.ID))

	if s.acquire != nil {
		release, err := s.acquire(ctx)
		if errors.Is(err, dynamodb.ErrLockHeld) {
			s.logger.Info("Another health scan is running, skipping", zap.String("eventId", evt.ID))
			return ScanResult{Skipped: true}, nil
		}
		if err != nil {
			return ScanResult{}, err
		}
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				s.logger.Warn("Failed to release scan lease", zap.Error(err))
			}
		}()
	}

	var res *queries.HealthResult
	err := s.tracer.TraceFunction(ctx, "scan", func(ctx context.Context) error {
		out, err := s.ask(ctx)
		if err != nil {
			return err
		}
		hr, ok := out.(*queries.HealthResult)
		if !ok {
			return fmt.Errorf("unexpected health result %T", out)
		}
		res = hr
		return nil
	})
	if err != nil {
		s.logger.Error("Health scan failed", zap.Error(err))
		return ScanResult{}, err
	}
	if res.Report == nil {
		s.logger.Error("Health scan could not read the ontology", zap.String("error", res.Error))
		return ScanResult{}, fmt.Errorf("%w: %s", errScanFailed, res.Error)
	}

	report := *res.Report
	s.tracer.AddAnnotation(ctx, "score", strconv.Itoa(report.Score))
	s.tracer.AddAnnotation(ctx, "status", string(report.Status))

	if err := s.tracer.TraceFunction(ctx, "report", func(ctx context.Context) error {
		return s.reporter.ReportHealth(ctx, report)
	}); err != nil {
		return ScanResult{}, err
	}

	evtOut := events.NewHealthScanned(
		report.Score,
		string(report.Status),
		report.TotalNodes,
		report.TotalEdges,
		len(report.OrphanedNodes),
		len(report.MissingIndexes),
		len(report.SchemaIssues),
		s.now(),
	)
	if err := s.publisher.Publish(ctx, evtOut); err != nil {
		// The metrics already landed; a lost event is not worth a retry.
		s.logger.Warn("Failed to publish health event", zap.Error(err))
	}

	s.logger.Info("Health scan completed",
		zap.Int("score", report.Score),
		zap.String("status", string(report.Status)),
		zap.Int("issueCount", report.IssueCount),
	)
	return ScanResult{Score: report.Score, Status: string(report.Status), IssueCount: report.IssueCount}, nil
}

func main() {
	ctx := context.Background()
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	container, _, err := di.InitializeContainer(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}

	s := &scanner{
		ask: func(ctx context.Context) (interface{}, error) {
			return container.QueryBus.Ask(ctx, queries.GetHealthReportQuery{})
		},
		reporter:  container.Reporter,
		publisher: container.Publisher,
		tracer:    observability.NewTracer("health-scan"),
		now:       time.Now,
		logger:    container.Logger.Named("health-scan"),
	}
	if locker := container.Locker; locker != nil {
		s.acquire = func(ctx context.Context) (func(context.Context) error, error) {
			lock, err := locker.Acquire(ctx, "health-scan", uuid.NewString(), scanLease)
			if err != nil {
				return nil, err
			}
			return lock.Release, nil
		}
	}
	lambda.Start(s.handle)
}
