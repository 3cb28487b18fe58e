// Package observability provides OpenTelemetry tracing and metrics for plan
// runs.
//
// Setup wires OTLP/HTTP export for both signals when telemetry is enabled:
//
//	shutdown, err := observability.Setup(ctx, cfg.Telemetry, "seqplan", version.GetShortVersion(), "production")
//	defer shutdown(ctx)
//
// Each run is wrapped in a RunContext that owns its span and metrics:
//
//	rc := observability.NewRunContext("evens", runID, "sum", metrics)
//	ctx, span := rc.Start(ctx)
//	rc.End(ctx, span, elements, "", err)
package observability
