//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"ontology-backend/infrastructure/config"

	"github.com/google/wire"
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideAWSConfig,
	ProvideDynamoDBClient,
	ProvideEventBridgeClient,
	ProvideCloudWatchClient,
	ProvideClock,
	ProvideMetrics,
	ProvideRepository,
	ProvideLocker,
	ProvideCache,
	ProvideEventPublisher,
	ProvideHealthReporter,
	ProvideLayoutOptions,
	ProvideCommandBus,
	ProvideQueryBus,
	ProvideSessions,
	wire.Struct(new(Container), "Config", "Logger", "Repository", "Cache", "Publisher", "Reporter", "CommandBus", "QueryBus", "Sessions", "Metrics", "LayoutOptions", "Locker"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, func(), error) {
	wire.Build(SuperSet)
	return nil, nil, nil // Wire will replace this
}
