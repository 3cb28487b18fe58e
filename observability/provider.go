package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/kbukum/seqkit/logger"
)

// Export describes one service exporting traces and metrics to an OTLP HTTP
// collector.
type Export struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	// Endpoint is the collector host:port, e.g. "localhost:4318".
	Endpoint   string
	Insecure   bool
	SampleRate float64
	// Interval between metric exports; zero keeps the SDK default.
	Interval time.Duration
}

func (e Export) resource() (*resource.Resource, error) {
	return resource.Merge(
		resource.Default(),
		resource.NewSchemaless(
			attribute.String(AttrServiceName, e.ServiceName),
			attribute.String(AttrServiceVersion, e.ServiceVersion),
			attribute.String(AttrEnvironment, e.Environment),
		),
	)
}

// sampler maps a rate onto always, never or ratio sampling.
func sampler(rate float64) sdktrace.Sampler {
	if rate >= 1 {
		return sdktrace.AlwaysSample()
	}
	if rate <= 0 {
		return sdktrace.NeverSample()
	}
	return sdktrace.TraceIDRatioBased(rate)
}

// InitTracer installs a batching OTLP tracer provider as the global one,
// along with W3C trace context propagation. Shut the provider down on exit.
func InitTracer(ctx context.Context, e Export) (*sdktrace.TracerProvider, error) {
	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(e.Endpoint)}
	if e.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating trace exporter: %w", err)
	}
	res, err := e.resource()
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler(e.SampleRate)),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	logger.Get("telemetry").Debug("tracing to collector", logger.Fields(
		"endpoint", e.Endpoint,
		"sample_rate", e.SampleRate,
	))
	return tp, nil
}

// InitMeter installs a periodically exporting OTLP meter provider as the
// global one. Shut the provider down on exit.
func InitMeter(ctx context.Context, e Export) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(e.Endpoint)}
	if e.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}
	res, err := e.resource()
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	var readerOpts []sdkmetric.PeriodicReaderOption
	if e.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(e.Interval))
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	logger.Get("telemetry").Debug("exporting metrics to collector", logger.Fields(
		"endpoint", e.Endpoint,
		"interval", e.Interval.String(),
	))
	return mp, nil
}
