package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Observability owns the OpenTelemetry meter and tracer providers. A zero
// value is usable and records nothing.
type Observability struct {
	meterProvider  *metric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
	tracer         trace.Tracer

	registrationCounter otelmetric.Int64Counter
	deliveryDuration    otelmetric.Float64Histogram
}

// New wires a Prometheus-backed meter provider and an in-process tracer
// provider. Failures degrade to a no-op instance and are returned so the
// caller can log them.
func New(serviceName string) (*Observability, error) {
	tracerProvider := sdktrace.NewTracerProvider()
	otel.SetTracerProvider(tracerProvider)

	obs := &Observability{
		tracerProvider: tracerProvider,
		tracer:         tracerProvider.Tracer(serviceName),
	}

	exporter, err := prometheus.New()
	if err != nil {
		return obs, err
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)
	meter := provider.Meter(serviceName)

	registrationCounter, err := meter.Int64Counter(
		"registrations.processed",
		otelmetric.WithDescription("Number of registration requests processed"),
	)
	if err != nil {
		return obs, err
	}

	deliveryDuration, err := meter.Float64Histogram(
		"delivery.duration",
		otelmetric.WithDescription("Relay and notification delivery duration"),
		otelmetric.WithUnit("ms"),
	)
	if err != nil {
		return obs, err
	}

	obs.meterProvider = provider
	obs.registrationCounter = registrationCounter
	obs.deliveryDuration = deliveryDuration
	return obs, nil
}

// StartSpan starts a span named name. The returned end function must be
// called once.
func (o *Observability) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, func(err error)) {
	if o == nil || o.tracer == nil {
		return ctx, func(error) {}
	}

	ctx, span := o.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
		}
		span.End()
	}
}

func (o *Observability) RecordRegistration(ctx context.Context, result string) {
	if o == nil || o.registrationCounter == nil {
		return
	}
	o.registrationCounter.Add(ctx, 1, otelmetric.WithAttributes(
		attribute.String("result", result),
	))
}

func (o *Observability) RecordDelivery(ctx context.Context, duration time.Duration, relayOutcome string) {
	if o == nil || o.deliveryDuration == nil {
		return
	}
	o.deliveryDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
		attribute.String("relay_outcome", relayOutcome),
	))
}

func (o *Observability) Shutdown() {
	if o == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if o.meterProvider != nil {
		_ = o.meterProvider.Shutdown(ctx)
	}
	if o.tracerProvider != nil {
		_ = o.tracerProvider.Shutdown(ctx)
	}
}
