package logger

import (
	"context"

	"go.uber.org/zap"
)

type ctxKey struct{}

// ContextWithLogger stores a logger in the context.
func ContextWithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// FromContext extracts a logger from the context.
// Returns zap.NewNop() if no logger is found.
func FromContext(ctx context.Context) *zap.Logger {
	return Or(ctx, zap.NewNop())
}

// Or returns the context logger, or fallback when ctx carries none.
func Or(ctx context.Context, fallback *zap.Logger) *zap.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*zap.Logger); ok {
		return l
	}
	return fallback
}

// WithRunID tags the context logger (or base) with a validation run id, so
// searches made on behalf of a run can be correlated with its report.
func WithRunID(ctx context.Context, base *zap.Logger, runID string) context.Context {
	return ContextWithLogger(ctx, Or(ctx, base).With(zap.String("run_id", runID)))
}
