package observability

// Span names.
const (
	SpanPlanRun   = "plan.run"
	SpanPlanBuild = "plan.build"
)

// Resource attribute keys.
const (
	AttrServiceName    = "service.name"
	AttrServiceVersion = "service.version"
	AttrEnvironment    = "deployment.environment"
)

// Span attribute keys for plan runs.
const (
	AttrPlan       = "plan.name"
	AttrRunID      = "plan.run_id"
	AttrTerminal   = "plan.terminal"
	AttrSteps      = "plan.steps"
	AttrStatus     = "plan.status"
	AttrElements   = "plan.elements"
	AttrDurationMs = "plan.duration_ms"
	AttrErrorCode  = "error.code"
)
