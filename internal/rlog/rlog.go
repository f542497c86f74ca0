// Package rlog carries a structured logger through a context.Context, the
// same way specialistvlad-burstgridgo's internal/ctxlog does for its
// execution graph. The pipeline stamps one logger per run, tagged with a
// run-correlation ID, and every stage pulls it back out of ctx rather than
// taking a logger parameter.
package rlog

import (
	"context"
	"log/slog"
)

type ctxKey struct{}

var key = ctxKey{}

// With returns a context carrying logger, retrievable with From.
func With(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, key, logger)
}

// From extracts the logger embedded by With, or slog.Default() if none was
// embedded — stages are safe to call unconditionally, including in tests
// that never set one up.
func From(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(key).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}
