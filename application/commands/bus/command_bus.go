package bus

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Command represents a command that changes state
type Command interface {
	Validate() error
}

// CommandHandler handles a specific command type
type CommandHandler interface {
	Handle(ctx context.Context, cmd Command) error
}

// CommandHandlerFunc is an adapter to allow functions to be used as handlers
type CommandHandlerFunc func(ctx context.Context, cmd Command) error

// Handle implements CommandHandler
func (f CommandHandlerFunc) Handle(ctx context.Context, cmd Command) error {
	return f(ctx, cmd)
}

// Middleware defines command middleware
type Middleware func(next CommandHandler) CommandHandler

// Errors
var (
	ErrHandlerNotFound  = errors.New("command handler not found")
	ErrDuplicateHandler = errors.New("command handler already registered")
)

// CommandBus dispatches commands to their handlers through the registered middleware
type CommandBus struct {
	handlers    map[reflect.Type]CommandHandler
	middlewares []Middleware
	mu          sync.RWMutex
}

// NewCommandBus creates a new command bus
func NewCommandBus(middlewares ...Middleware) *CommandBus {
	return &CommandBus{
		handlers:    make(map[reflect.Type]CommandHandler),
		middlewares: middlewares,
	}
}

// Use appends middleware. Middleware added first runs outermost.
func (b *CommandBus) Use(mw ...Middleware) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.middlewares = append(b.middlewares, mw...)
}

// Register registers a handler for a command type
func (b *CommandBus) Register(cmdType Command, handler CommandHandler) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	t := reflect.TypeOf(cmdType)
	if _, exists := b.handlers[t]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateHandler, t)
	}
	b.handlers[t] = handler
	return nil
}

// Send validates a command and dispatches it to its handler. Handler errors are
// returned unwrapped so callers can inspect them.
func (b *CommandBus) Send(ctx context.Context, cmd Command) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	b.mu.RLock()
	handler, exists := b.handlers[reflect.TypeOf(cmd)]
	mws := b.middlewares
	b.mu.RUnlock()

	if !exists {
		return fmt.Errorf("%w: %T", ErrHandlerNotFound, cmd)
	}

	for i := len(mws) - 1; i >= 0; i-- {
		handler = mws[i](handler)
	}
	return handler.Handle(ctx, cmd)
}

// CommandName is the bare type name of a command, used in logs and metrics.
func CommandName(cmd Command) string {
	t := reflect.TypeOf(cmd)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Name()
}

// LoggingMiddleware logs command execution
func LoggingMiddleware(logger *zap.Logger) Middleware {
	return func(next CommandHandler) CommandHandler {
		return CommandHandlerFunc(func(ctx context.Context, cmd Command) error {
			name := CommandName(cmd)
			start := time.Now()

			err := next.Handle(ctx, cmd)
			if err != nil {
				logger.Warn("Command failed",
					zap.String("command", name),
					zap.Duration("duration", time.Since(start)),
					zap.Error(err),
				)
				return err
			}
			logger.Debug("Command succeeded",
				zap.String("command", name),
				zap.Duration("duration", time.Since(start)),
			)
			return nil
		})
	}
}

// Invalidator drops cached reads.
type Invalidator interface {
	Clear(ctx context.Context) error
}

// InvalidationMiddleware clears the query cache after every successful command.
// A failed clear is logged; the command result stands.
func InvalidationMiddleware(cache Invalidator, logger *zap.Logger) Middleware {
	return func(next CommandHandler) CommandHandler {
		return CommandHandlerFunc(func(ctx context.Context, cmd Command) error {
			if err := next.Handle(ctx, cmd); err != nil {
				return err
			}
			if err := cache.Clear(ctx); err != nil {
				logger.Warn("Failed to invalidate query cache",
					zap.String("command", CommandName(cmd)),
					zap.Error(err),
				)
			}
			return nil
		})
	}
}

// Recorder receives command outcomes.
type Recorder interface {
	ObserveCommand(name string, d time.Duration, err error)
}

// MetricsMiddleware records the duration and outcome of each command
func MetricsMiddleware(rec Recorder) Middleware {
	return func(next CommandHandler) CommandHandler {
		return CommandHandlerFunc(func(ctx context.Context, cmd Command) error {
			start := time.Now()
			err := next.Handle(ctx, cmd)
			rec.ObserveCommand(CommandName(cmd), time.Since(start), err)
			return err
		})
	}
}
