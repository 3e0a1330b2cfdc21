package bus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Query represents a read-only query
type Query interface {
	Validate() error
}

// QueryHandler handles a specific query type
type QueryHandler interface {
	Handle(ctx context.Context, query Query) (interface{}, error)
}

// QueryHandlerFunc is an adapter to allow functions to be used as handlers
type QueryHandlerFunc func(ctx context.Context, query Query) (interface{}, error)

// Handle implements QueryHandler
func (f QueryHandlerFunc) Handle(ctx context.Context, query Query) (interface{}, error) {
	return f(ctx, query)
}

// Middleware wraps a query handler
type Middleware func(next QueryHandler) QueryHandler

var ErrHandlerNotFound = errors.New("query handler not found")

// QueryBus dispatches queries to their handlers
type QueryBus struct {
	handlers    map[reflect.Type]QueryHandler
	middlewares []Middleware
	mu          sync.RWMutex
}

// NewQueryBus creates a new query bus
func NewQueryBus(middlewares ...Middleware) *QueryBus {
	return &QueryBus{
		handlers:    make(map[reflect.Type]QueryHandler),
		middlewares: middlewares,
	}
}

// Use appends middleware. Middleware added first runs outermost.
func (b *QueryBus) Use(mw ...Middleware) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.middlewares = append(b.middlewares, mw...)
}

// Register registers a handler for a query type
func (b *QueryBus) Register(queryType Query, handler QueryHandler) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	t := reflect.TypeOf(queryType)
	if _, exists := b.handlers[t]; exists {
		return fmt.Errorf("handler already registered for query type %s", t.Name())
	}

	b.handlers[t] = handler
	return nil
}

// Ask dispatches a query to its handler and returns the result
func (b *QueryBus) Ask(ctx context.Context, query Query) (interface{}, error) {
	if err := query.Validate(); err != nil {
		return nil, fmt.Errorf("query validation failed: %w", err)
	}

	b.mu.RLock()
	handler, exists := b.handlers[reflect.TypeOf(query)]
	mws := b.middlewares
	b.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("%w: %T", ErrHandlerNotFound, query)
	}

	for i := len(mws) - 1; i >= 0; i-- {
		handler = mws[i](handler)
	}

	result, err := handler.Handle(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query handler failed: %w", err)
	}
	return result, nil
}

// QueryName is the bare type name of a query.
func QueryName(query Query) string {
	t := reflect.TypeOf(query)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Name()
}

// Cache stores encoded query results
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl int) error
}

// Cacheable is a query whose result may be served from the cache. NewResult
// returns a pointer that a cached payload is decoded into.
type Cacheable interface {
	Query
	NewResult() interface{}
}

// Failure is implemented by results that can carry a load error in place of a Go
// error. Failed results are not cached so the next ask retries the load.
type Failure interface {
	Failed() bool
}

// CacheKey derives a key from the query type and its fields.
func CacheKey(query Query) (string, error) {
	buf, err := json.Marshal(query)
	if err != nil {
		return "", err
	}
	return "query:" + QueryName(query) + ":" + string(buf), nil
}

// CachingMiddleware serves Cacheable queries from cache. ttl is in seconds.
// Cache failures are logged and fall through to the handler.
func CachingMiddleware(cache Cache, ttl int, logger *zap.Logger) Middleware {
	return func(next QueryHandler) QueryHandler {
		return QueryHandlerFunc(func(ctx context.Context, query Query) (interface{}, error) {
			cq, ok := query.(Cacheable)
			if !ok {
				return next.Handle(ctx, query)
			}
			key, err := CacheKey(query)
			if err != nil {
				return next.Handle(ctx, query)
			}

			if cached, found := cache.Get(ctx, key); found {
				result := cq.NewResult()
				if err := json.Unmarshal(cached, result); err == nil {
					return result, nil
				}
				logger.Warn("Discarding undecodable cache entry", zap.String("key", key))
			}

			result, err := next.Handle(ctx, query)
			if err != nil {
				return nil, err
			}
			if f, ok := result.(Failure); ok && f.Failed() {
				logger.Debug("Not caching failed query result", zap.String("query", QueryName(query)))
				return result, nil
			}

			buf, err := json.Marshal(result)
			if err != nil {
				logger.Warn("Failed to encode query result", zap.String("query", QueryName(query)), zap.Error(err))
				return result, nil
			}
			if err := cache.Set(ctx, key, buf, ttl); err != nil {
				logger.Warn("Failed to cache query result", zap.String("query", QueryName(query)), zap.Error(err))
			}
			return result, nil
		})
	}
}

// Recorder receives query outcomes.
type Recorder interface {
	ObserveQuery(name string, d time.Duration, err error)
}

// MetricsMiddleware records the duration and outcome of each query
func MetricsMiddleware(rec Recorder) Middleware {
	return func(next QueryHandler) QueryHandler {
		return QueryHandlerFunc(func(ctx context.Context, query Query) (interface{}, error) {
			start := time.Now()
			result, err := next.Handle(ctx, query)
			rec.ObserveQuery(QueryName(query), time.Since(start), err)
			return result, err
		})
	}
}
