package observability

import (
	"context"
	"errors"
)

// Setup starts trace and metric export as configured and returns a function
// that flushes and stops both. With telemetry disabled the global no-op
// providers stay in place and the returned function does nothing.
func Setup(ctx context.Context, cfg Config, service, version, environment string) (func(context.Context) error, error) {
	if !cfg.Enabled {
		return func(context.Context) error { return nil }, nil
	}
	cfg.ApplyDefaults()

	export := cfg.Export(service, version, environment)
	tp, err := InitTracer(ctx, export)
	if err != nil {
		return nil, err
	}
	mp, err := InitMeter(ctx, export)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, err
	}

	return func(ctx context.Context) error {
		return errors.Join(tp.Shutdown(ctx), mp.Shutdown(ctx))
	}, nil
}
