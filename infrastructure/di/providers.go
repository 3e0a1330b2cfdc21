package di

import (
	"context"
	"fmt"

	"ontology-backend/application/canvas"
	"ontology-backend/application/commands"
	"ontology-backend/application/commands/bus"
	commandhandlers "ontology-backend/application/commands/handlers"
	"ontology-backend/application/ports"
	querybus "ontology-backend/application/queries/bus"
	queryhandlers "ontology-backend/application/queries/handlers"
	"ontology-backend/domain/layout"
	"ontology-backend/infrastructure/cache"
	"ontology-backend/infrastructure/config"
	"ontology-backend/infrastructure/messaging"
	"ontology-backend/infrastructure/messaging/eventbridge"
	"ontology-backend/infrastructure/persistence"
	"ontology-backend/infrastructure/persistence/dynamodb"
	"ontology-backend/infrastructure/persistence/memory"
	"ontology-backend/pkg/observability"
	"ontology-backend/pkg/utils"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscloudwatch "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"go.uber.org/zap"
)

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	var zc zap.Config
	if cfg.IsProduction() || cfg.IsLambda {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
	}

	if cfg.LogLevel != "" {
		level, err := zap.ParseAtomicLevel(cfg.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
		}
		zc.Level = level
	}

	logger, err := zc.Build()
	if err != nil {
		return nil, err
	}
	return logger.With(zap.String("environment", cfg.Environment)), nil
}

// ProvideAWSConfig creates AWS configuration. Inside Lambda every SDK call is
// traced with X-Ray.
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
	if err != nil {
		return aws.Config{}, err
	}
	if cfg.IsLambda && cfg.EnableTracing {
		observability.InstrumentAWS(&awsCfg)
	}
	return awsCfg, nil
}

// ProvideDynamoDBClient creates a DynamoDB client, pointed at a local endpoint
// when one is configured.
func ProvideDynamoDBClient(awsCfg aws.Config, cfg *config.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg, func(o *awsdynamodb.Options) {
		if cfg.DynamoDBEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.DynamoDBEndpoint)
		}
	})
}

// ProvideEventBridgeClient creates an EventBridge client
func ProvideEventBridgeClient(awsCfg aws.Config) *awseventbridge.Client {
	return awseventbridge.NewFromConfig(awsCfg)
}

// ProvideCloudWatchClient creates a CloudWatch client
func ProvideCloudWatchClient(awsCfg aws.Config) *awscloudwatch.Client {
	return awscloudwatch.NewFromConfig(awsCfg)
}

// ProvideClock supplies the wall clock.
func ProvideClock() utils.Clock {
	return utils.SystemClock()
}

// ProvideMetrics creates the Prometheus collector
func ProvideMetrics() *observability.Collector {
	return observability.NewCollector("ontology")
}

// ProvideRepository selects the backing store. A seed file gives an in-memory
// repository; otherwise DynamoDB is used. Either way calls go through the
// circuit breaker.
func ProvideRepository(
	client *awsdynamodb.Client,
	metrics *observability.Collector,
	cfg *config.Config,
	logger *zap.Logger,
) (ports.OntologyRepository, error) {
	var inner ports.OntologyRepository
	if cfg.SeedFile != "" {
		repo, err := memory.LoadFile(cfg.SeedFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load seed file: %w", err)
		}
		logger.Info("Using in-memory repository", zap.String("seedFile", cfg.SeedFile))
		inner = repo
	} else {
		inner = dynamodb.NewOntologyRepository(client, cfg.TablePrefix, logger)
	}

	var recorder persistence.OperationRecorder
	if cfg.EnableMetrics {
		recorder = metrics
	}
	return persistence.NewGuardedRepository(inner, persistence.BreakerSettings{
		MaxFailures: cfg.BreakerMaxFailures,
		OpenTimeout: cfg.BreakerOpenTimeout,
	}, recorder, logger), nil
}

// ProvideLocker returns the lease store for scheduled jobs, or nil when no lock
// table is configured.
func ProvideLocker(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) *dynamodb.Locker {
	if cfg.LockTable == "" {
		return nil
	}
	return dynamodb.NewLocker(client, cfg.LockTable, logger.Named("lock"))
}

// ProvideCache picks Redis when an address is configured and the in-process
// cache otherwise.
func ProvideCache(ctx context.Context, cfg *config.Config, logger *zap.Logger) (ports.Cache, func(), error) {
	if cfg.RedisAddr != "" {
		rc, err := cache.NewRedisCache(ctx, cache.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		return rc, func() { _ = rc.Close() }, nil
	}
	mc := cache.NewInMemoryCache()
	return mc, func() { _ = mc.Close() }, nil
}

// ProvideEventPublisher returns the EventBridge publisher, or a logging
// publisher during local development.
func ProvideEventPublisher(client *awseventbridge.Client, cfg *config.Config, logger *zap.Logger) ports.EventPublisher {
	if cfg.EventBusName == "" || (cfg.IsDevelopment() && !cfg.IsLambda) {
		return messaging.NewLoggingPublisher(logger)
	}
	return eventbridge.NewPublisher(client, cfg.EventBusName, cfg.EventSource, logger)
}

// ProvideHealthReporter ships health reports to CloudWatch.
func ProvideHealthReporter(client *awscloudwatch.Client, cfg *config.Config, logger *zap.Logger) ports.HealthReporter {
	return observability.NewCloudWatchReporter(client, cfg.MetricsNamespace, cfg.Environment, logger)
}

// ProvideLayoutOptions builds the layout configuration.
func ProvideLayoutOptions(cfg *config.Config) layout.Options {
	opts := layout.DefaultOptions()
	opts.Direction = layout.Direction(cfg.LayoutDirection)
	if cfg.RankSep > 0 {
		opts.RankSep = cfg.RankSep
	}
	if cfg.NodeSep > 0 {
		opts.NodeSep = cfg.NodeSep
	}
	return opts
}

// ProvideCommandBus creates a command bus with registered handlers
func ProvideCommandBus(
	repo ports.OntologyRepository,
	publisher ports.EventPublisher,
	queryCache ports.Cache,
	metrics *observability.Collector,
	clock utils.Clock,
	cfg *config.Config,
	logger *zap.Logger,
) (*bus.CommandBus, error) {
	mws := []bus.Middleware{bus.LoggingMiddleware(logger)}
	if cfg.EnableMetrics {
		mws = append(mws, bus.MetricsMiddleware(metrics))
	}
	mws = append(mws, bus.InvalidationMiddleware(queryCache, logger))

	commandBus := bus.NewCommandBus(mws...)
	if err := commandhandlers.Register(commandBus, repo, publisher, clock, logger); err != nil {
		return nil, err
	}
	return commandBus, nil
}

// ProvideQueryBus creates a query bus with registered handlers
func ProvideQueryBus(
	repo ports.OntologyRepository,
	queryCache ports.Cache,
	metrics *observability.Collector,
	layoutOpts layout.Options,
	clock utils.Clock,
	cfg *config.Config,
	logger *zap.Logger,
) (*querybus.QueryBus, error) {
	var mws []querybus.Middleware
	if cfg.EnableMetrics {
		mws = append(mws, querybus.MetricsMiddleware(metrics))
	}
	mws = append(mws, querybus.CachingMiddleware(queryCache, cfg.CacheTTL, logger))

	queryBus := querybus.NewQueryBus(mws...)
	if err := queryhandlers.Register(queryBus, repo, layoutOpts, clock, logger); err != nil {
		return nil, err
	}
	return queryBus, nil
}

// ProvideSessions creates the canvas registry. Canvas writes go through the
// command bus so they are validated, published and invalidate the query cache.
func ProvideSessions(commandBus *bus.CommandBus, layoutOpts layout.Options, clock utils.Clock, logger *zap.Logger) *canvas.Sessions {
	persister := commands.NewBusPersister(commandBus)
	return canvas.NewSessions(func() *canvas.Canvas {
		return canvas.New(persister, canvas.Options{
			Layout: layoutOpts,
			Now:    clock,
			Logger: logger.Named("canvas"),
		})
	})
}
