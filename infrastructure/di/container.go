package di

import (
	"context"
	"time"

	"ontology-backend/application/canvas"
	"ontology-backend/application/commands/bus"
	"ontology-backend/application/ports"
	querybus "ontology-backend/application/queries/bus"
	"ontology-backend/domain/layout"
	"ontology-backend/infrastructure/config"
	"ontology-backend/infrastructure/persistence/dynamodb"
	"ontology-backend/pkg/observability"

	"go.uber.org/zap"
)

// Container holds all application dependencies
type Container struct {
	Config        *config.Config
	Logger        *zap.Logger
	Repository    ports.OntologyRepository
	Cache         ports.Cache
	Publisher     ports.EventPublisher
	Reporter      ports.HealthReporter
	CommandBus    *bus.CommandBus
	QueryBus      *querybus.QueryBus
	Sessions      *canvas.Sessions
	Metrics       *observability.Collector
	LayoutOptions layout.Options

	// Locker is nil when no lock table is configured.
	Locker *dynamodb.Locker
}

// SweepSessions drops idle canvas sessions every interval until ctx is done.
// idle is read on every tick so a reloaded configuration takes effect; nil
// uses the loaded configuration.
func (c *Container) SweepSessions(ctx context.Context, interval time.Duration, idle func() time.Duration) {
	if idle == nil {
		idle = func() time.Duration { return c.Config.CanvasSessionIdle }
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := c.Sessions.Sweep(idle()); n > 0 {
				c.Logger.Debug("Dropped idle canvas sessions", zap.Int("count", n))
			}
		}
	}
}
