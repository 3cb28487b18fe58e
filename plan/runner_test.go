package plan

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	apperrors "github.com/kbukum/seqkit/errors"
	"github.com/kbukum/seqkit/logger"
	"github.com/kbukum/seqkit/observability"
	"github.com/kbukum/seqkit/pipeline"
)

func testLogger(buf *bytes.Buffer) *logger.Logger {
	return logger.NewWithWriter(&logger.Config{Level: "debug", Format: "json"}, "seqplan", buf)
}

// logLines decodes every JSON log line written to buf.
func logLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var lines []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry), line)
		lines = append(lines, entry)
	}
	return lines
}

func recordingTracer(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		otel.SetTracerProvider(prev)
	})
	return exporter
}

func TestRunTerminals(t *testing.T) {
	tests := []struct {
		terminal string
		source   Source
		want     any
		elements int
	}{
		{TerminalCollect, values(3, 1, 2), []float64{3, 1, 2}, 3},
		{TerminalCollect, Source{}, []float64{}, 0},
		{TerminalCount, values(3, 1, 2), 3, 1},
		{TerminalSum, values(3, 1, 2), 6.0, 1},
		{TerminalSum, Source{}, 0.0, 1},
		{TerminalProduct, values(3, 1, 2), 6.0, 1},
		{TerminalProduct, Source{}, 1.0, 1},
		{TerminalMin, values(3, 1, 2), 1.0, 1},
		{TerminalMin, Source{}, nil, 0},
		{TerminalMax, values(3, 1, 2), 3.0, 1},
		{TerminalFirst, values(3, 1, 2), 3.0, 1},
		{TerminalLast, values(3, 1, 2), 2.0, 1},
		{TerminalLast, Source{}, nil, 0},
		{TerminalIsEmpty, values(3, 1, 2), false, 1},
		{TerminalIsEmpty, Source{}, true, 1},
	}

	runner := NewRunner(WithLogger(logger.NewWithWriter(&logger.Config{Level: "disabled", Format: "json"}, "seqplan", &bytes.Buffer{})))
	for _, tc := range tests {
		t.Run(tc.terminal, func(t *testing.T) {
			p := &Plan{Name: "t", Source: tc.source, Terminal: tc.terminal}
			res, err := runner.Run(context.Background(), p, "")
			require.NoError(t, err)
			require.Equal(t, tc.want, res.Value)
			require.Equal(t, tc.elements, res.Elements)
			require.Equal(t, tc.terminal, res.Terminal)
		})
	}
}

func TestRunOnCycledPlans(t *testing.T) {
	runner := NewRunner()

	p := &Plan{Name: "t", Source: values(4, 5), Cycle: true, Terminal: TerminalFirst}
	res, err := runner.Run(context.Background(), p, "")
	require.NoError(t, err)
	require.Equal(t, 4.0, res.Value)

	p.Terminal = TerminalCount
	_, err = runner.Run(context.Background(), p, "")
	require.True(t, errors.Is(err, pipeline.ErrUnbounded), "got %v", err)

	p.Steps = []Step{{Op: OpTake, N: ptr(5)}}
	res, err = runner.Run(context.Background(), p, "")
	require.NoError(t, err)
	require.Equal(t, 5, res.Value)
}

func TestRunAssignsRunID(t *testing.T) {
	runner := NewRunner()
	p := &Plan{Name: "t", Source: values(1), Terminal: TerminalCount}

	res, err := runner.Run(context.Background(), p, "")
	require.NoError(t, err)
	_, err = uuid.Parse(res.RunID)
	require.NoError(t, err, "generated run id %q", res.RunID)

	res, err = runner.Run(context.Background(), p, "fixed-id")
	require.NoError(t, err)
	require.Equal(t, "fixed-id", res.RunID)

	ctx := logger.ContextWithRun(context.Background(), "outer-run", "outer")
	res, err = runner.Run(ctx, p, "")
	require.NoError(t, err)
	require.Equal(t, "outer-run", res.RunID, "run id carried by the context is reused")

	res, err = runner.Run(ctx, p, "fixed-id")
	require.NoError(t, err)
	require.Equal(t, "fixed-id", res.RunID, "an explicit run id wins")
}

func TestRunLogs(t *testing.T) {
	var buf bytes.Buffer
	runner := NewRunner(WithLogger(testLogger(&buf)))

	p := &Plan{Name: "evens", Source: values(1, 2, 3, 4), Steps: []Step{{Op: OpFilter, Pred: "even"}}, Terminal: TerminalCollect}
	_, err := runner.Run(context.Background(), p, "run-1")
	require.NoError(t, err)

	lines := logLines(t, &buf)
	require.NotEmpty(t, lines)
	last := lines[len(lines)-1]
	require.Equal(t, "plan run completed", last["message"])
	require.Equal(t, "run-1", last[logger.FieldRunID])
	require.Equal(t, "evens", last[logger.FieldPlan])
	require.Equal(t, float64(2), last[logger.FieldElements])
	require.Equal(t, "info", last["level"])
	require.Equal(t, "run", last[logger.FieldOperation])
	require.Contains(t, last, logger.FieldDuration)
}

func TestRunFailureIsLogged(t *testing.T) {
	var buf bytes.Buffer
	runner := NewRunner(WithLogger(testLogger(&buf)))

	p := &Plan{Name: "bad", Source: values(1), Steps: []Step{{Op: OpStepBy, N: ptr(0)}}, Terminal: TerminalCollect}
	res, err := runner.Run(context.Background(), p, "run-2")
	require.Nil(t, res)
	require.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidArgument), "got %v", err)

	lines := logLines(t, &buf)
	last := lines[len(lines)-1]
	require.Equal(t, "plan run failed", last["message"])
	require.Equal(t, "error", last["level"])
	require.Equal(t, string(apperrors.ErrCodeInvalidArgument), last[logger.FieldErrorCode])
}

func TestRunInvalidPlan(t *testing.T) {
	_, err := NewRunner().Run(context.Background(), &Plan{Name: "x", Terminal: "median"}, "")
	require.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidPlan), "got %v", err)
}

func TestRunRejectsOversizedRepeat(t *testing.T) {
	p := &Plan{
		Name:     "huge",
		Source:   values(1),
		Steps:    []Step{{Op: OpRepeat, N: ptr(1_000_000_000_000_000)}},
		Terminal: TerminalCount,
	}
	var res *Result
	var err error
	require.NotPanics(t, func() { res, err = NewRunner().Run(context.Background(), p, "") })
	require.Nil(t, res)
	require.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidPlan), "got %v", err)
}

func TestRunCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := &Plan{Name: "t", Source: values(1, 2, 3), Terminal: TerminalSum}
	_, err := NewRunner().Run(ctx, p, "")
	require.True(t, errors.Is(err, context.Canceled), "got %v", err)
}

func TestRunSpans(t *testing.T) {
	exporter := recordingTracer(t)

	p := &Plan{Name: "traced", Source: values(1, 2), Steps: []Step{{Op: OpUnique}}, Terminal: TerminalCount}
	res, err := NewRunner().Run(context.Background(), p, "")
	require.NoError(t, err)

	spans := exporter.GetSpans()
	byName := make(map[string]tracetest.SpanStub, len(spans))
	for _, s := range spans {
		byName[s.Name] = s
	}
	require.Contains(t, byName, observability.SpanPlanRun)
	require.Contains(t, byName, observability.SpanPlanBuild)

	run := byName[observability.SpanPlanRun]
	attrs := make(map[attribute.Key]attribute.Value)
	for _, kv := range run.Attributes {
		attrs[kv.Key] = kv.Value
	}
	require.Equal(t, "traced", attrs[observability.AttrPlan].AsString())
	require.Equal(t, res.RunID, attrs[observability.AttrRunID].AsString())
	require.Equal(t, "ok", attrs[observability.AttrStatus].AsString())

	build := byName[observability.SpanPlanBuild]
	require.Equal(t, run.SpanContext.SpanID(), build.Parent.SpanID())
}

func TestRunMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	metrics, err := observability.NewMetrics(mp.Meter("test"))
	require.NoError(t, err)
	runner := NewRunner(WithMetrics(metrics))

	ok := &Plan{Name: "ok", Source: values(1, 2, 3), Terminal: TerminalCollect}
	_, err = runner.Run(context.Background(), ok, "")
	require.NoError(t, err)

	bad := &Plan{Name: "bad", Source: values(1), Cycle: true, Terminal: TerminalCollect}
	_, err = runner.Run(context.Background(), bad, "")
	require.Error(t, err)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	sums := make(map[string]int64)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if data, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range data.DataPoints {
					sums[m.Name] += dp.Value
				}
			}
		}
	}
	require.Equal(t, int64(2), sums["plan.run.total"])
	require.Equal(t, int64(3), sums["plan.elements.total"])
	require.Equal(t, int64(1), sums["plan.error.total"])
	require.Equal(t, int64(0), sums["plan.run.active"])
}

func TestResultString(t *testing.T) {
	tenth, fifth := 0.1, 0.2
	tests := []struct {
		res  Result
		want string
	}{
		{Result{Plan: "p", Terminal: TerminalCollect, Value: []float64{1, 2.5}}, "p collect [1 2.5]"},
		{Result{Plan: "p", Terminal: TerminalMin, Value: nil}, "p min none"},
		{Result{Plan: "p", Terminal: TerminalCount, Value: 3}, "p count 3"},
		{Result{Plan: "p", Terminal: TerminalIsEmpty, Value: true}, "p is_empty true"},
		{Result{Plan: "p", Terminal: TerminalSum, Value: tenth + fifth}, "p sum 0.30000000000000004"},
	}
	for _, tc := range tests {
		require.Equal(t, tc.want, tc.res.String())
	}
}
