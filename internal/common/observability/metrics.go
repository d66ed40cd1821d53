package observability

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

type Observability struct {
	meterProvider  *metric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
	meter          otelmetric.Meter
	tracer         trace.Tracer
	submitCounter  otelmetric.Int64Counter
	submitDuration otelmetric.Float64Histogram
}

// Option adds span processing to the tracer provider built by New.
type Option func(*[]sdktrace.TracerProviderOption)

// WithSpanExporter batches finished spans to exp. A nil exporter is ignored.
func WithSpanExporter(exp sdktrace.SpanExporter) Option {
	return func(opts *[]sdktrace.TracerProviderOption) {
		if exp != nil {
			*opts = append(*opts, sdktrace.WithBatcher(exp))
		}
	}
}

// WithSpanProcessor registers sp as is; tests pass a tracetest.SpanRecorder.
func WithSpanProcessor(sp sdktrace.SpanProcessor) Option {
	return func(opts *[]sdktrace.TracerProviderOption) {
		*opts = append(*opts, sdktrace.WithSpanProcessor(sp))
	}
}

func New(serviceName string, opts ...Option) *Observability {
	tpOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.AlwaysSample())),
	}
	for _, opt := range opts {
		opt(&tpOpts)
	}
	tracerProvider := sdktrace.NewTracerProvider(tpOpts...)
	otel.SetTracerProvider(tracerProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	o := &Observability{
		tracerProvider: tracerProvider,
		tracer:         tracerProvider.Tracer(serviceName),
	}

	exporter, err := prometheus.New()
	if err != nil {
		log.Printf("Failed to create Prometheus exporter: %v", err)
		return o
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	submitCounter, _ := meter.Int64Counter(
		"pool.submissions",
		otelmetric.WithDescription("Number of pool submissions processed"),
	)

	submitDuration, _ := meter.Float64Histogram(
		"pool.submission.duration",
		otelmetric.WithDescription("Pool submission duration"),
		otelmetric.WithUnit("ms"),
	)

	o.meterProvider = provider
	o.meter = meter
	o.submitCounter = submitCounter
	o.submitDuration = submitDuration
	return o
}

// NewNoop returns an instance that records nothing, for tests and CLI use.
func NewNoop() *Observability {
	return &Observability{tracer: noop.NewTracerProvider().Tracer("noop")}
}

// Tracer returns the tracer for client and handler spans.
func (o *Observability) Tracer() trace.Tracer {
	if o == nil || o.tracer == nil {
		return noop.NewTracerProvider().Tracer("noop")
	}
	return o.tracer
}

func (o *Observability) RecordSubmission(ctx context.Context, poolType, status string) {
	if o != nil && o.submitCounter != nil {
		o.submitCounter.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("pool_type", poolType),
			attribute.String("status", status),
		))
	}
}

func (o *Observability) RecordSubmissionDuration(ctx context.Context, duration time.Duration, status string) {
	if o != nil && o.submitDuration != nil {
		o.submitDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
			attribute.String("status", status),
		))
	}
}

func (o *Observability) Shutdown() {
	if o == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if o.meterProvider != nil {
		o.meterProvider.Shutdown(ctx)
	}
	if o.tracerProvider != nil {
		o.tracerProvider.Shutdown(ctx)
	}
}
