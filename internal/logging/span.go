package logging

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Span times a named operation and logs its outcome under the request trace.
type Span struct {
	name   string
	logger *slog.Logger
	start  time.Time
}

// StartSpan derives a child span from ctx. The returned context carries a logger
// tagged with trace and span identifiers plus any extra attrs.
func StartSpan(ctx context.Context, name string, attrs ...slog.Attr) (context.Context, *Span) {
	if ctx == nil {
		ctx = context.Background()
	}

	parent := scopeFrom(ctx)
	logger := FromContext(ctx)

	traceID := parent.traceID
	if traceID == "" {
		traceID = parent.requestID
		if traceID == "" {
			traceID = uuid.NewString()
		}
		logger = logger.With(slog.String("trace_id", traceID))
	}

	spanID := uuid.NewString()
	args := make([]any, 0, len(attrs)+3)
	args = append(args, slog.String("span_id", spanID), slog.String("span_name", name))
	if parent.spanID != "" {
		args = append(args, slog.String("parent_span_id", parent.spanID))
	}
	for _, attr := range attrs {
		args = append(args, attr)
	}
	logger = logger.With(args...)

	ctx = updateScope(ctx, func(s *scope) {
		s.traceID = traceID
		s.spanID = spanID
	})
	return WithLogger(ctx, logger), &Span{name: name, logger: logger, start: time.Now()}
}

// End logs the span duration. A non-nil err is logged at warn level.
func (s *Span) End(err error) {
	if s == nil {
		return
	}
	elapsed := slog.Duration("duration", time.Since(s.start))
	if err != nil {
		s.logger.Warn("span failed", elapsed, slog.String("error", err.Error()))
		return
	}
	s.logger.Info("span completed", elapsed)
}
