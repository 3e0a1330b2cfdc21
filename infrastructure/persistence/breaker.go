// Package persistence holds the storage adapters and the decorator that guards
// them with a circuit breaker.
package persistence

import (
	"context"
	"errors"
	"time"

	"ontology-backend/application/ports"
	"ontology-backend/domain/ontology"
	apperrors "ontology-backend/pkg/errors"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// OperationRecorder receives the duration and outcome of each repository call.
type OperationRecorder interface {
	ObserveRepository(operation string, d time.Duration, err error)
}

// BreakerSettings configures the repository circuit breaker.
type BreakerSettings struct {
	Name        string
	MaxFailures int
	OpenTimeout time.Duration
}

// GuardedRepository wraps a repository with a circuit breaker. Not-found,
// validation and conflict errors are answers from a healthy store and never trip
// the breaker.
type GuardedRepository struct {
	next     ports.OntologyRepository
	cb       *gobreaker.CircuitBreaker
	recorder OperationRecorder
	logger   *zap.Logger
}

func NewGuardedRepository(next ports.OntologyRepository, s BreakerSettings, recorder OperationRecorder, logger *zap.Logger) *GuardedRepository {
	if s.Name == "" {
		s.Name = "ontology-repository"
	}
	if s.MaxFailures < 1 {
		s.MaxFailures = 5
	}
	maxFailures := uint32(s.MaxFailures)

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: 1,
		Timeout:     s.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		IsSuccessful: isHealthyOutcome,
	})
	return &GuardedRepository{next: next, cb: cb, recorder: recorder, logger: logger}
}

func isHealthyOutcome(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, context.Canceled) {
		return true
	}
	return apperrors.IsNotFound(err) || apperrors.IsValidation(err) || apperrors.IsConflict(err)
}

// State reports the breaker state for readiness checks.
func (g *GuardedRepository) State() gobreaker.State {
	return g.cb.State()
}

func (g *GuardedRepository) run(op string, fn func() (interface{}, error)) (interface{}, error) {
	start := time.Now()
	res, err := g.cb.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		err = apperrors.NewUnavailableError("ontology store").
			WithCode(apperrors.CodeCircuitOpen).
			WithCause(err)
	}
	if g.recorder != nil {
		g.recorder.ObserveRepository(op, time.Since(start), err)
	}
	return res, err
}

func (g *GuardedRepository) exec(op string, fn func() error) error {
	_, err := g.run(op, func() (interface{}, error) { return nil, fn() })
	return err
}

func (g *GuardedRepository) ScanNodes(ctx context.Context) ([]ontology.Node, error) {
	res, err := g.run("scan_nodes", func() (interface{}, error) { return g.next.ScanNodes(ctx) })
	if err != nil {
		return nil, err
	}
	return res.([]ontology.Node), nil
}

func (g *GuardedRepository) GetNode(ctx context.Context, id string) (*ontology.Node, error) {
	res, err := g.run("get_node", func() (interface{}, error) { return g.next.GetNode(ctx, id) })
	if err != nil {
		return nil, err
	}
	return res.(*ontology.Node), nil
}

func (g *GuardedRepository) PutNode(ctx context.Context, node ontology.Node) error {
	return g.exec("put_node", func() error { return g.next.PutNode(ctx, node) })
}

func (g *GuardedRepository) UpdateNode(ctx context.Context, id string, fields map[string]any) error {
	return g.exec("update_node", func() error { return g.next.UpdateNode(ctx, id, fields) })
}

func (g *GuardedRepository) UpdateNodePosition(ctx context.Context, id string, pos ontology.Position, updatedAt string) error {
	return g.exec("update_node_position", func() error { return g.next.UpdateNodePosition(ctx, id, pos, updatedAt) })
}

func (g *GuardedRepository) DeleteNode(ctx context.Context, id string) error {
	return g.exec("delete_node", func() error { return g.next.DeleteNode(ctx, id) })
}

func (g *GuardedRepository) ScanEdges(ctx context.Context) ([]ontology.Edge, error) {
	res, err := g.run("scan_edges", func() (interface{}, error) { return g.next.ScanEdges(ctx) })
	if err != nil {
		return nil, err
	}
	return res.([]ontology.Edge), nil
}

func (g *GuardedRepository) PutEdge(ctx context.Context, edge ontology.Edge) error {
	return g.exec("put_edge", func() error { return g.next.PutEdge(ctx, edge) })
}

func (g *GuardedRepository) DeleteEdge(ctx context.Context, id string) error {
	return g.exec("delete_edge", func() error { return g.next.DeleteEdge(ctx, id) })
}

func (g *GuardedRepository) ScanCollection(ctx context.Context, collection string) ([]ontology.Record, error) {
	res, err := g.run("scan_collection", func() (interface{}, error) { return g.next.ScanCollection(ctx, collection) })
	if err != nil {
		return nil, err
	}
	return res.([]ontology.Record), nil
}

func (g *GuardedRepository) CountCollection(ctx context.Context, collection string) (int, error) {
	res, err := g.run("count_collection", func() (interface{}, error) { return g.next.CountCollection(ctx, collection) })
	if err != nil {
		return 0, err
	}
	return res.(int), nil
}
