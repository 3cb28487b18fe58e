package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Metrics holds the instruments recorded for plan runs.
type Metrics struct {
	runTotal      metric.Int64Counter
	runDuration   metric.Float64Histogram
	runActive     metric.Int64UpDownCounter
	elementsTotal metric.Int64Counter
	errorTotal    metric.Int64Counter
}

// NewMetrics creates metric instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	runTotal, err := meter.Int64Counter("plan.run.total",
		metric.WithDescription("Total number of plan runs"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating plan.run.total counter: %w", err)
	}

	runDuration, err := meter.Float64Histogram("plan.run.duration",
		metric.WithDescription("Duration of plan runs in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating plan.run.duration histogram: %w", err)
	}

	runActive, err := meter.Int64UpDownCounter("plan.run.active",
		metric.WithDescription("Number of plan runs in progress"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating plan.run.active gauge: %w", err)
	}

	elementsTotal, err := meter.Int64Counter("plan.elements.total",
		metric.WithDescription("Elements produced by plan pipelines"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating plan.elements.total counter: %w", err)
	}

	errorTotal, err := meter.Int64Counter("plan.error.total",
		metric.WithDescription("Failed plan runs by error code"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating plan.error.total counter: %w", err)
	}

	return &Metrics{
		runTotal:      runTotal,
		runDuration:   runDuration,
		runActive:     runActive,
		elementsTotal: elementsTotal,
		errorTotal:    errorTotal,
	}, nil
}

// RecordRunStart increments the active run count.
func (m *Metrics) RecordRunStart(ctx context.Context) {
	m.runActive.Add(ctx, 1)
}

// RecordRun decrements active runs and records the finished run.
func (m *Metrics) RecordRun(ctx context.Context, plan, terminal, status string, duration time.Duration) {
	m.runActive.Add(ctx, -1)
	m.runTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("plan", plan),
		attribute.String("terminal", terminal),
		attribute.String("status", status),
	))
	m.runDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("plan", plan),
		attribute.String("terminal", terminal),
	))
}

// RecordElements adds n produced elements for plan.
func (m *Metrics) RecordElements(ctx context.Context, plan string, n int) {
	m.elementsTotal.Add(ctx, int64(n), metric.WithAttributes(attribute.String("plan", plan)))
}

// RecordError records a failed run by error code.
func (m *Metrics) RecordError(ctx context.Context, code, plan string) {
	m.errorTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("code", code),
		attribute.String("plan", plan),
	))
}
