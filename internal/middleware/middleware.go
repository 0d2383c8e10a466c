package middleware

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/pavelc4/aether-dl-bot/pkg/logger"
)

const slowThreshold = 100 * time.Millisecond

type Handler func(ctx context.Context) error

type Middleware func(Handler) Handler

// Recover turns a panic into an error so one bad update never takes the
// bot down.
func Recover(next Handler) Handler {
	return func(ctx context.Context) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("Panic recovered", "error", r, "stack", string(debug.Stack()))
				err = fmt.Errorf("panic: %v", r)
			}
		}()
		return next(ctx)
	}
}

func Logger(name string) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context) error {
			start := time.Now()
			err := next(ctx)
			duration := time.Since(start)

			switch {
			case err != nil:
				logger.Error("Handler failed", "name", name, "duration", duration, "error", err)
			case duration > slowThreshold:
				logger.Info("Handler completed (slow)", "name", name, "duration", duration)
			default:
				logger.Debug("Handler completed", "name", name, "duration", duration)
			}
			return err
		}
	}
}

// Timeout bounds a handler. Zero disables it.
func Timeout(d time.Duration) Middleware {
	return func(next Handler) Handler {
		if d <= 0 {
			return next
		}
		return func(ctx context.Context) error {
			ctx, cancel := context.WithTimeout(ctx, d)
			defer cancel()
			return next(ctx)
		}
	}
}

// Chain wraps f so the first middleware is the outermost.
func Chain(f Handler, middlewares ...Middleware) Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		f = middlewares[i](f)
	}
	return f
}
