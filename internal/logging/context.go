package logging

import (
	"context"
	"log/slog"
)

type ctxKey int

const (
	loggerKey ctxKey = iota
	scopeKey
)

// scope holds the identifiers that correlate log lines for one request.
type scope struct {
	requestID string
	traceID   string
	spanID    string
}

// WithLogger stores the provided logger on the context.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	if ctx == nil || logger == nil {
		return ctx
	}
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext returns the request-scoped logger or falls back to slog.Default().
func FromContext(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if logger, ok := ctx.Value(loggerKey).(*slog.Logger); ok && logger != nil {
			return logger
		}
	}
	return slog.Default()
}

// WithAttrs replaces the context logger with one that carries args.
func WithAttrs(ctx context.Context, args ...any) context.Context {
	if ctx == nil || len(args) == 0 {
		return ctx
	}
	return WithLogger(ctx, FromContext(ctx).With(args...))
}

// WithRequestID stores a request identifier on the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	if requestID == "" {
		return ctx
	}
	return updateScope(ctx, func(s *scope) { s.requestID = requestID })
}

// RequestIDFromContext retrieves a previously stored request identifier.
func RequestIDFromContext(ctx context.Context) string {
	return scopeFrom(ctx).requestID
}

// TraceIDFromContext retrieves the trace identifier from the context.
func TraceIDFromContext(ctx context.Context) string {
	return scopeFrom(ctx).traceID
}

// SpanIDFromContext retrieves the innermost span identifier from the context.
func SpanIDFromContext(ctx context.Context) string {
	return scopeFrom(ctx).spanID
}

func scopeFrom(ctx context.Context) scope {
	if ctx == nil {
		return scope{}
	}
	s, _ := ctx.Value(scopeKey).(scope)
	return s
}

func updateScope(ctx context.Context, fn func(*scope)) context.Context {
	if ctx == nil {
		return ctx
	}
	s := scopeFrom(ctx)
	fn(&s)
	return context.WithValue(ctx, scopeKey, s)
}
