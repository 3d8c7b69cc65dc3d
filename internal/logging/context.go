package logging

import (
	"context"

	"go.uber.org/zap"
)

type runIDCtxKey struct{}

// WithRunID attaches the validation run id to ctx.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDCtxKey{}, runID)
}

// RunIDFromContext returns the run id, or empty.
func RunIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(runIDCtxKey{}).(string)
	return id
}

// ContextFields extracts correlation data from context.
func ContextFields(ctx context.Context) []zap.Field {
	if id := RunIDFromContext(ctx); id != "" {
		return []zap.Field{zap.String("run_id", id)}
	}
	return nil
}
