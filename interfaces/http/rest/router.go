package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"ontology-backend/application/canvas"
	"ontology-backend/application/commands/bus"
	querybus "ontology-backend/application/queries/bus"
	"ontology-backend/interfaces/http/rest/handlers"
	"ontology-backend/interfaces/http/rest/middleware"
	v1 "ontology-backend/interfaces/http/rest/v1"
	"ontology-backend/pkg/auth"
	apperrors "ontology-backend/pkg/errors"
	"ontology-backend/pkg/observability"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// ReadinessCheck reports whether a dependency can serve traffic.
type ReadinessCheck func(ctx context.Context) error

// Options configure the router. Optional parts are switched off by leaving
// them nil or zero.
type Options struct {
	CommandBus *bus.CommandBus
	QueryBus   *querybus.QueryBus
	Sessions   *canvas.Sessions
	Logger     *zap.Logger

	// Metrics enables /metrics and request metrics when set.
	Metrics *observability.Collector
	// Validator enables bearer-token authentication on /api routes when set.
	Validator *auth.JWTValidator
	// WriteRole, when set together with Validator, is required on routes that
	// change the ontology store.
	WriteRole string
	// RateLimitPerMinute caps requests per client IP on /api routes.
	RateLimitPerMinute int

	EnableTracing  bool
	EnableCORS     bool
	AllowedOrigins []string
	RequestTimeout time.Duration
	Debug          bool

	Readiness map[string]ReadinessCheck
}

// Router creates and configures the HTTP router
type Router struct {
	opts   Options
	errors *apperrors.ErrorHandler
}

// NewRouter creates a new router instance
func NewRouter(opts Options) *Router {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Router{
		opts:   opts,
		errors: apperrors.NewErrorHandler(opts.Logger, opts.Debug),
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()
	logger := rt.opts.Logger

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(rt.errors.Middleware)
	router.Use(middleware.Logger(logger))
	if rt.opts.Metrics != nil {
		router.Use(middleware.Metrics(rt.opts.Metrics))
	}
	if rt.opts.EnableTracing {
		router.Use(middleware.Tracing())
	}
	if rt.opts.RequestTimeout > 0 {
		router.Use(chimiddleware.Timeout(rt.opts.RequestTimeout))
	}

	if rt.opts.EnableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   rt.opts.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		rt.errors.HandleStatus(w, r, http.StatusNotFound, "route not found")
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		rt.errors.HandleStatus(w, r, http.StatusMethodNotAllowed, "method not allowed")
	})

	// Health check
	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)
	if rt.opts.Metrics != nil {
		router.Method(http.MethodGet, "/metrics", rt.opts.Metrics.Handler())
	}

	var observer handlers.HealthObserver
	var mutations handlers.MutationObserver
	if rt.opts.Metrics != nil {
		observer = rt.opts.Metrics
		mutations = rt.opts.Metrics
	}

	h := v1.Handlers{
		Graph:  handlers.NewGraphHandler(rt.opts.QueryBus, observer, rt.errors, logger),
		Nodes:  handlers.NewNodeHandler(rt.opts.CommandBus, rt.opts.QueryBus, rt.errors, logger),
		Edges:  handlers.NewEdgeHandler(rt.opts.CommandBus, rt.errors, logger),
		Canvas: handlers.NewCanvasHandler(rt.opts.Sessions, rt.opts.QueryBus, mutations, rt.errors, logger),
	}

	router.Route("/api/v1", func(r chi.Router) {
		if rt.opts.RateLimitPerMinute > 0 {
			r.Use(middleware.RateLimit(auth.NewIPRateLimiter(rt.opts.RateLimitPerMinute), rt.errors))
		}
		if rt.opts.Validator != nil {
			r.Use(middleware.Authenticate(rt.opts.Validator, rt.errors, logger))
			if rt.opts.WriteRole != "" {
				h.Writes = middleware.RequireRole(rt.opts.WriteRole, rt.errors, logger)
			}
		}
		v1.Routes(r, h)
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	writeStatus(w, http.StatusOK, map[string]interface{}{"status": "healthy"})
}

// readinessCheck runs every readiness check and reports each result.
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), 5*time.Second)
	defer cancel()

	status := http.StatusOK
	checks := make(map[string]string, len(rt.opts.Readiness))
	for name, check := range rt.opts.Readiness {
		if err := check(ctx); err != nil {
			rt.opts.Logger.Warn("Readiness check failed", zap.String("check", name), zap.Error(err))
			checks[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	body := map[string]interface{}{"status": "ready", "checks": checks}
	if status != http.StatusOK {
		body["status"] = "not ready"
	}
	writeStatus(w, status, body)
}

func writeStatus(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
