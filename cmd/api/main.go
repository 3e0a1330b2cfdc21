package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ontology-backend/infrastructure/cache"
	"ontology-backend/infrastructure/config"
	"ontology-backend/infrastructure/di"
	"ontology-backend/infrastructure/persistence"
	"ontology-backend/interfaces/http/rest"
	"ontology-backend/pkg/auth"
	"ontology-backend/pkg/observability"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

const sessionSweepInterval = time.Minute

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	container, cleanup, err := di.InitializeContainer(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}
	defer cleanup()
	logger := container.Logger

	if cfg.EnableTracing {
		tp, err := observability.InitTracing(ctx, observability.TracingConfig{
			ServiceName: "ontology-api",
			Environment: cfg.Environment,
			Endpoint:    cfg.OTLPEndpoint,
		})
		if err != nil {
			logger.Warn("Tracing disabled", zap.Error(err))
		} else {
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = tp.Shutdown(shutdownCtx)
			}()
		}
	}

	// Only the session idle timeout is picked up on reload; everything else
	// needs a restart.
	idle := func() time.Duration { return cfg.CanvasSessionIdle }
	if cfg.IsDevelopment() && cfg.File != "" {
		watcher, err := config.NewWatcher(cfg, logger)
		if err != nil {
			logger.Warn("Config watcher disabled", zap.Error(err))
		} else {
			defer watcher.Stop()
			watcher.OnChange(func(next *config.Config) {
				logger.Info("Configuration reloaded",
					zap.String("file", next.File),
					zap.Duration("canvasSessionIdle", next.CanvasSessionIdle),
				)
			})
			idle = func() time.Duration { return watcher.Config().CanvasSessionIdle }
		}
	}
	go container.SweepSessions(ctx, sessionSweepInterval, idle)

	var validator *auth.JWTValidator
	if cfg.JWTSecret != "" {
		validator, err = auth.NewJWTValidator(auth.JWTConfig{
			SecretKey: cfg.JWTSecret,
			Issuer:    cfg.JWTIssuer,
			Leeway:    30 * time.Second,
		})
		if err != nil {
			logger.Fatal("Failed to configure authentication", zap.Error(err))
		}
	} else {
		logger.Warn("JWT secret not set, API is unauthenticated")
	}

	opts := rest.Options{
		CommandBus:         container.CommandBus,
		QueryBus:           container.QueryBus,
		Sessions:           container.Sessions,
		Logger:             logger,
		Validator:          validator,
		WriteRole:         cfg.WriteRole,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		EnableTracing:      cfg.EnableTracing,
		EnableCORS:         cfg.EnableCORS,
		AllowedOrigins:     cfg.AllowedOrigins,
		RequestTimeout:     cfg.RequestTimeout,
		Debug:              cfg.IsDevelopment(),
		Readiness:          readinessChecks(container),
	}
	if cfg.EnableMetrics {
		opts.Metrics = container.Metrics
	}

	srv := &http.Server{
		Addr:         cfg.ServerAddress,
		Handler:      rest.NewRouter(opts).Setup(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Starting server",
			zap.String("address", cfg.ServerAddress),
			zap.String("environment", cfg.Environment),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", zap.Error(err))
	}

	_ = logger.Sync()
	log.Println("Server stopped")
}

// readinessChecks reports the repository breaker and, when Redis backs the
// query cache, the Redis connection.
func readinessChecks(c *di.Container) map[string]rest.ReadinessCheck {
	checks := map[string]rest.ReadinessCheck{}
	if guarded, ok := c.Repository.(*persistence.GuardedRepository); ok {
		checks["repository"] = func(context.Context) error {
			if guarded.State() == gobreaker.StateOpen {
				return errors.New("circuit breaker open")
			}
			return nil
		}
	}
	if rc, ok := c.Cache.(*cache.RedisCache); ok {
		checks["cache"] = rc.Ping
	}
	return checks
}
