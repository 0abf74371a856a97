package observability

import (
	"context"
	"log"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Options tunes the providers built by New.
type Options struct {
	// Registerer receives the otel prometheus collector. Defaults to prometheus.DefaultRegisterer.
	Registerer prometheus.Registerer
	Tracing    bool
	// SampleRatio is the share of root spans kept when tracing is enabled.
	SampleRatio float64
	// SpanProcessor is attached to the tracer provider when set. Tests use a span recorder.
	SpanProcessor sdktrace.SpanProcessor
}

type Observability struct {
	meterProvider  *metric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
	tracer         trace.Tracer
	meter          otelmetric.Meter

	submissionCounter  otelmetric.Int64Counter
	submissionDuration otelmetric.Float64Histogram
	referenceDuration  otelmetric.Float64Histogram
}

func New(serviceName string, opts Options) *Observability {
	o := &Observability{tracer: noop.NewTracerProvider().Tracer(serviceName)}

	reg := opts.Registerer
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	exporter, err := promexporter.New(promexporter.WithRegisterer(reg))
	if err != nil {
		log.Printf("Failed to create Prometheus exporter: %v", err)
		return o
	}

	res := resource.NewSchemaless(attribute.String("service.name", serviceName))
	provider := metric.NewMeterProvider(metric.WithReader(exporter), metric.WithResource(res))
	otel.SetMeterProvider(provider)

	o.meterProvider = provider
	o.meter = provider.Meter(serviceName)

	o.submissionCounter, _ = o.meter.Int64Counter(
		"application.submissions",
		otelmetric.WithDescription("Number of application submissions by outcome"),
	)
	o.submissionDuration, _ = o.meter.Float64Histogram(
		"application.submission.duration",
		otelmetric.WithDescription("Time from submit to backend answer"),
		otelmetric.WithUnit("ms"),
	)
	o.referenceDuration, _ = o.meter.Float64Histogram(
		"reference.load.duration",
		otelmetric.WithDescription("Time to load both reference lists"),
		otelmetric.WithUnit("ms"),
	)

	if opts.Tracing {
		ratio := opts.SampleRatio
		if ratio <= 0 {
			ratio = 1
		}
		tpOpts := []sdktrace.TracerProviderOption{
			sdktrace.WithResource(res),
			sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))),
		}
		if opts.SpanProcessor != nil {
			tpOpts = append(tpOpts, sdktrace.WithSpanProcessor(opts.SpanProcessor))
		}
		o.tracerProvider = sdktrace.NewTracerProvider(tpOpts...)
		otel.SetTracerProvider(o.tracerProvider)
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		))
		o.tracer = o.tracerProvider.Tracer(serviceName)
	}

	return o
}

// StartSpan opens a span named name. The returned span must be ended by the caller.
// A nil Observability yields a no-op span.
func (o *Observability) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if o == nil {
		return ctx, noop.Span{}
	}
	return o.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func (o *Observability) RecordSubmission(ctx context.Context, outcome string, duration time.Duration) {
	if o == nil {
		return
	}
	attrs := otelmetric.WithAttributes(attribute.String("outcome", outcome))
	if o.submissionCounter != nil {
		o.submissionCounter.Add(ctx, 1, attrs)
	}
	if o.submissionDuration != nil {
		o.submissionDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
	}
}

func (o *Observability) RecordReferenceLoad(ctx context.Context, complete bool, duration time.Duration) {
	if o != nil && o.referenceDuration != nil {
		o.referenceDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
			attribute.Bool("complete", complete),
		))
	}
}

func (o *Observability) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if o.tracerProvider != nil {
		_ = o.tracerProvider.Shutdown(ctx)
	}
	if o.meterProvider != nil {
		_ = o.meterProvider.Shutdown(ctx)
	}
}
