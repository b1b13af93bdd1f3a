package logging

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

type traceKey struct{}

// traceState is the per-request trace carried on the context. The span id is
// replaced each time a child span starts; the trace id is minted once.
type traceState struct {
	traceID string
	spanID  string
}

// Span is a logical unit of work. End emits one completion line with the
// span's duration on the logger that StartSpan enriched.
type Span struct {
	logger  *slog.Logger
	started time.Time
}

// StartSpan opens a named span under the context's trace, minting a trace id
// when the context has none yet. The returned context carries a logger
// annotated with trace, span, and parent span ids.
func StartSpan(ctx context.Context, name string) (context.Context, *Span) {
	if ctx == nil {
		ctx = context.Background()
	}

	parent, _ := ctx.Value(traceKey{}).(traceState)
	state := traceState{traceID: parent.traceID, spanID: uuid.NewString()}
	if state.traceID == "" {
		state.traceID = uuid.NewString()
	}

	logger := FromContext(ctx).With(
		slog.String("trace_id", state.traceID),
		slog.String("span_id", state.spanID),
		slog.String("span_name", name),
	)
	if parent.spanID != "" {
		logger = logger.With(slog.String("parent_span_id", parent.spanID))
	}

	ctx = context.WithValue(ctx, traceKey{}, state)
	ctx = WithLogger(ctx, logger)

	return ctx, &Span{logger: logger, started: time.Now()}
}

// End finalizes the span. Safe on a nil receiver.
func (s *Span) End() {
	if s == nil {
		return
	}
	s.logger.Info("span completed", slog.Duration("duration", time.Since(s.started)))
}
