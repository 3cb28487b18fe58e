package plan

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/kbukum/seqkit/errors"
	"github.com/kbukum/seqkit/logger"
	"github.com/kbukum/seqkit/observability"
)

// Runner evaluates plans. Each run gets a run ID, a "plan.run" span with a
// "plan.build" child, run metrics, and a log line with the outcome.
type Runner struct {
	builder *Builder
	log     *logger.Logger
	metrics *observability.Metrics
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithBuilder sets the Builder plans are validated and built with.
func WithBuilder(b *Builder) RunnerOption {
	return func(r *Runner) { r.builder = b }
}

// WithLogger sets the run logger.
func WithLogger(l *logger.Logger) RunnerOption {
	return func(r *Runner) { r.log = l }
}

// WithMetrics enables metric recording. Without it no metrics are recorded.
func WithMetrics(m *observability.Metrics) RunnerOption {
	return func(r *Runner) { r.metrics = m }
}

// NewRunner creates a Runner.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{}
	for _, opt := range opts {
		opt(r)
	}
	if r.builder == nil {
		r.builder = NewBuilder()
	}
	if r.log == nil {
		r.log = logger.Get("plan")
	}
	return r
}

// Run validates, builds and evaluates p. An empty runID falls back to the
// run ID already carried by ctx, then to a new UUID. On failure the returned
// error keeps its code; the Result is nil.
func (r *Runner) Run(ctx context.Context, p *Plan, runID string) (*Result, error) {
	if runID == "" {
		runID = logger.RunIDFromContext(ctx)
	}
	if runID == "" {
		runID = uuid.NewString()
	}
	ctx = logger.ContextWithRun(ctx, runID, p.Name)
	rc := observability.NewRunContext(p.Name, runID, p.Terminal, r.metrics)
	ctx, span := rc.Start(ctx)
	log := r.log.WithContext(ctx)

	value, elements, err := r.run(ctx, p)

	code := ""
	if err != nil {
		code = string(errors.Wrap(err).Code)
	}
	rc.End(ctx, span, elements, code, err)

	if err != nil {
		log.Error("plan run failed", logger.DurationFields("run", rc.Duration()), logger.MergeWithError(logger.Fields(
			logger.FieldTerminal, p.Terminal,
			logger.FieldErrorCode, code,
		), err))
		return nil, err
	}

	res := &Result{
		Plan:     p.Name,
		RunID:    runID,
		Terminal: p.Terminal,
		Value:    value,
		Elements: elements,
		Duration: rc.Duration(),
	}
	log.Info("plan run completed", logger.DurationFields("run", res.Duration), logger.Fields(
		logger.FieldTerminal, p.Terminal,
		logger.FieldElements, elements,
	))
	return res, nil
}

func (r *Runner) run(ctx context.Context, p *Plan) (any, int, error) {
	_, span := observability.StartSpan(ctx, observability.SpanPlanBuild,
		attribute.Int(observability.AttrSteps, len(p.Steps)))
	pl, err := r.builder.Build(p)
	observability.EndSpan(span, err)
	if err != nil {
		return nil, 0, err
	}

	r.log.WithContext(ctx).Debug("plan built", logger.Fields(
		logger.FieldStep, len(p.Steps),
		"cycled", pl.Cycled(),
		"unbounded", pl.Unbounded(),
	))
	return Evaluate(ctx, pl, p.Terminal)
}
