package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// RunContext holds observability context for one plan run.
type RunContext struct {
	Plan      string
	RunID     string
	Terminal  string
	StartTime time.Time
	Metrics   *Metrics
}

// NewRunContext creates a run context starting now.
// If metrics is nil, metric recording is silently skipped.
func NewRunContext(plan, runID, terminal string, metrics *Metrics) *RunContext {
	return &RunContext{
		Plan:      plan,
		RunID:     runID,
		Terminal:  terminal,
		StartTime: time.Now(),
		Metrics:   metrics,
	}
}

type runContextKey struct{}

// WithRunContext stores a RunContext in the context.
func WithRunContext(ctx context.Context, rc *RunContext) context.Context {
	return context.WithValue(ctx, runContextKey{}, rc)
}

// RunContextFromContext retrieves the RunContext from context, or nil.
func RunContextFromContext(ctx context.Context) *RunContext {
	if rc, ok := ctx.Value(runContextKey{}).(*RunContext); ok {
		return rc
	}
	return nil
}

// Start opens the run span and records the run start.
func (rc *RunContext) Start(ctx context.Context) (context.Context, trace.Span) {
	ctx, span := StartSpan(ctx, SpanPlanRun,
		attribute.String(AttrPlan, rc.Plan),
		attribute.String(AttrRunID, rc.RunID),
		attribute.String(AttrTerminal, rc.Terminal),
	)
	if rc.Metrics != nil {
		rc.Metrics.RecordRunStart(ctx)
	}
	return WithRunContext(ctx, rc), span
}

// End closes the span and records the run outcome. code is the error code
// of a failed run and is ignored when err is nil.
func (rc *RunContext) End(ctx context.Context, span trace.Span, elements int, code string, err error) {
	duration := rc.Duration()
	status := "ok"
	if err != nil {
		status = "error"
		span.SetAttributes(attribute.String(AttrErrorCode, code))
	}
	span.SetAttributes(
		attribute.String(AttrStatus, status),
		attribute.Int(AttrElements, elements),
		attribute.Int64(AttrDurationMs, duration.Milliseconds()),
	)
	EndSpan(span, err)

	if rc.Metrics == nil {
		return
	}
	rc.Metrics.RecordRun(ctx, rc.Plan, rc.Terminal, status, duration)
	if err != nil {
		rc.Metrics.RecordError(ctx, code, rc.Plan)
		return
	}
	rc.Metrics.RecordElements(ctx, rc.Plan, elements)
}

// Duration returns the elapsed time since the run started.
func (rc *RunContext) Duration() time.Duration {
	return time.Since(rc.StartTime)
}
