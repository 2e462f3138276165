package common

import (
	"context"
	"log/slog"
)

// Context keys for storing values in context
type contextKey string

const (
	ContextKeyRunID      contextKey = "run_id"
	ContextKeyTenantCode contextKey = "tenant_code"
)

// WithRunID adds a job run ID to the context
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, ContextKeyRunID, runID)
}

// RunIDFromContext extracts the job run ID from context
func RunIDFromContext(ctx context.Context) string {
	if runID, ok := ctx.Value(ContextKeyRunID).(string); ok {
		return runID
	}
	return ""
}

// WithTenantCode adds a tenant code to the context
func WithTenantCode(ctx context.Context, code string) context.Context {
	return context.WithValue(ctx, ContextKeyTenantCode, code)
}

// TenantCodeFromContext extracts the tenant code from context
func TenantCodeFromContext(ctx context.Context) string {
	if code, ok := ctx.Value(ContextKeyTenantCode).(string); ok {
		return code
	}
	return ""
}

// LoggerFromContext returns logger enriched with the run and tenant carried by ctx.
func LoggerFromContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	if id := RunIDFromContext(ctx); id != "" {
		logger = logger.With("run_id", id)
	}
	if code := TenantCodeFromContext(ctx); code != "" {
		logger = logger.With("tenant", code)
	}
	return logger
}
