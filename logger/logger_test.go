package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"go.opentelemetry.io/otel/trace"
)

func jsonLogger(buf *bytes.Buffer, level string) *Logger {
	return NewWithWriter(&Config{Level: level, Format: "json"}, "seqplan", buf)
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	line := strings.TrimSpace(buf.String())
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("invalid JSON log line %q: %v", line, err)
	}
	return entry
}

func TestNewDefault(t *testing.T) {
	l := NewDefault("test-svc")
	if l == nil {
		t.Fatal("expected non-nil logger")
	}
	if l.service != "test-svc" {
		t.Errorf("expected service 'test-svc', got %q", l.service)
	}
}

func TestNewInvalidLevel(t *testing.T) {
	cfg := &Config{Level: "invalid-level", Format: "json"}
	if New(cfg, "test") == nil {
		t.Fatal("expected logger to be created even with invalid level")
	}
}

func TestNewFromEnv(t *testing.T) {
	os.Setenv("LOG_LEVEL", "debug")
	os.Setenv("LOG_FORMAT", "json")
	defer os.Unsetenv("LOG_LEVEL")
	defer os.Unsetenv("LOG_FORMAT")

	l := NewFromEnv("env-svc")
	if l == nil {
		t.Fatal("expected non-nil logger")
	}
	if l.logger.GetLevel().String() != "debug" {
		t.Errorf("expected debug level, got %s", l.logger.GetLevel())
	}
}

func TestJSONOutput_Fields(t *testing.T) {
	var buf bytes.Buffer
	l := jsonLogger(&buf, "info")
	l.Info("run finished", Fields(FieldPlan, "evens", FieldElements, 3))

	entry := decodeLine(t, &buf)
	if entry["message"] != "run finished" {
		t.Errorf("unexpected message %v", entry["message"])
	}
	if entry[FieldPlan] != "evens" {
		t.Errorf("expected plan=evens, got %v", entry[FieldPlan])
	}
	if entry[FieldElements] != float64(3) {
		t.Errorf("expected elements=3, got %v", entry[FieldElements])
	}
	if entry["service"] != "seqplan" {
		t.Errorf("expected service=seqplan, got %v", entry["service"])
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := jsonLogger(&buf, "warn")
	l.Info("hidden")
	l.Debug("hidden")
	if buf.Len() != 0 {
		t.Errorf("expected info and debug to be filtered, got %q", buf.String())
	}
	l.Warn("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Error("expected warn line")
	}
}

func TestWithContext_RunAndPlan(t *testing.T) {
	var buf bytes.Buffer
	ctx := ContextWithRun(context.Background(), "run-1", "evens")
	jsonLogger(&buf, "info").WithContext(ctx).Info("step")

	entry := decodeLine(t, &buf)
	if entry[FieldRunID] != "run-1" {
		t.Errorf("expected run_id=run-1, got %v", entry[FieldRunID])
	}
	if entry[FieldPlan] != "evens" {
		t.Errorf("expected plan=evens, got %v", entry[FieldPlan])
	}
	if _, ok := entry[FieldTraceID]; ok {
		t.Error("expected no trace_id without an active span")
	}
}

func TestWithContext_SpanIDs(t *testing.T) {
	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	var buf bytes.Buffer
	jsonLogger(&buf, "info").WithContext(ctx).Info("traced")

	entry := decodeLine(t, &buf)
	if entry[FieldTraceID] != "4bf92f3577b34da6a3ce929d0e0e4736" {
		t.Errorf("unexpected trace_id %v", entry[FieldTraceID])
	}
	if entry[FieldSpanID] != "00f067aa0ba902b7" {
		t.Errorf("unexpected span_id %v", entry[FieldSpanID])
	}
}

func TestRunIDFromContext(t *testing.T) {
	if RunIDFromContext(context.Background()) != "" {
		t.Error("expected empty run ID")
	}
	ctx := ContextWithRun(context.Background(), "abc", "p")
	if RunIDFromContext(ctx) != "abc" {
		t.Errorf("expected abc, got %q", RunIDFromContext(ctx))
	}
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	l := jsonLogger(&buf, "info").WithComponent("runner")
	if l.service != "seqplan" {
		t.Errorf("service should be preserved, got %q", l.service)
	}
	l.Info("x")
	if decodeLine(t, &buf)[FieldComponent] != "runner" {
		t.Error("expected component=runner")
	}
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	jsonLogger(&buf, "info").WithError(errors.New("boom")).Error("failed")
	if decodeLine(t, &buf)[FieldError] != "boom" {
		t.Error("expected error=boom")
	}
}

func TestWithFields(t *testing.T) {
	var buf bytes.Buffer
	jsonLogger(&buf, "info").WithFields(map[string]any{"key": "value"}).Info("x")
	if decodeLine(t, &buf)["key"] != "value" {
		t.Error("expected key=value")
	}
}

func TestConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&Config{Level: "info", Format: "console", NoColor: true}, "seqplan", &buf)
	l.Info("hello", Fields("plan", "evens"))
	out := buf.String()
	if !strings.Contains(out, "[SEQ][INF]") {
		t.Errorf("expected service and level tags, got %q", out)
	}
	if !strings.Contains(out, "plan:") || !strings.Contains(out, "hello") {
		t.Errorf("expected message and field, got %q", out)
	}
}

func TestInit(t *testing.T) {
	cfg := &Config{Level: "info", Format: "json"}
	Init(cfg)
	if cfg.Output != "stderr" {
		t.Errorf("expected defaults applied, output=%q", cfg.Output)
	}
	if GetGlobalLogger() == nil {
		t.Fatal("expected global logger to be set after Init")
	}
}

func TestGetGlobalLoggerDefault(t *testing.T) {
	globalLogger = nil
	if GetGlobalLogger() == nil {
		t.Fatal("expected default global logger to be created")
	}
}

func TestSetGlobalLogger(t *testing.T) {
	var buf bytes.Buffer
	SetGlobalLogger(jsonLogger(&buf, "info"))
	defer SetGlobalLogger(nil)

	Info("via global")
	if !strings.Contains(buf.String(), "via global") {
		t.Errorf("expected package-level Info to use the global logger, got %q", buf.String())
	}
}

func TestConfigApplyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.ApplyDefaults()
	if cfg.Level != "info" || cfg.Format != "console" || cfg.Output != "stderr" {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if cfg.ServiceName != "seqplan" {
		t.Errorf("expected service name seqplan, got %q", cfg.ServiceName)
	}
	if !cfg.Timestamp {
		t.Error("expected timestamp enabled")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{Level: "info", Format: "json", Output: "stderr"}, false},
		{"bad level", Config{Level: "loud", Format: "json", Output: "stderr"}, true},
		{"bad format", Config{Level: "info", Format: "xml", Output: "stderr"}, true},
		{"bad output", Config{Level: "info", Format: "json", Output: "file"}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestRegisterAndGet(t *testing.T) {
	defer Reset()
	var buf bytes.Buffer
	Register("plan", jsonLogger(&buf, "info"))
	Get("plan").Info("registered")
	if !strings.Contains(buf.String(), "registered") {
		t.Error("expected registered logger to be returned")
	}
}

func TestRegisterNilRemoves(t *testing.T) {
	defer Reset()
	var buf bytes.Buffer
	registered := jsonLogger(&buf, "info")
	Register("plan", registered)
	if Get("plan") != registered {
		t.Fatal("expected the registered logger")
	}
	Register("plan", nil)
	if Get("plan") == registered {
		t.Error("expected plan removed")
	}
}

func TestGetUnregistered(t *testing.T) {
	Reset()
	if Get("unknown") == nil {
		t.Fatal("expected fallback logger")
	}
}

func TestFields(t *testing.T) {
	m := Fields("a", 1, "b", "two", 3, "skipped", "dangling")
	if m["a"] != 1 || m["b"] != "two" {
		t.Errorf("unexpected fields %v", m)
	}
	if len(m) != 2 {
		t.Errorf("expected non-string keys and dangling values dropped, got %v", m)
	}
}

func TestErrorFields(t *testing.T) {
	m := ErrorFields("run", errors.New("fail"))
	if m[FieldOperation] != "run" || m[FieldError] != "fail" {
		t.Errorf("unexpected fields %v", m)
	}
}

func TestDurationFields(t *testing.T) {
	m := DurationFields("run", 1500*time.Millisecond)
	if m[FieldDuration] != int64(1500) {
		t.Errorf("expected 1500ms, got %v", m[FieldDuration])
	}
}

func TestMergeWithError(t *testing.T) {
	m := MergeWithError(nil, errors.New("x"))
	if m[FieldError] != "x" {
		t.Errorf("unexpected fields %v", m)
	}
}
