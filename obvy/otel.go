package scrollplot

import (
	"context"
	"fmt"

	"github.com/honeycombio/otel-config-go/otelconfig"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const TracerName = "github.com/maroda/scrollplot"

// Tracer is the tracer every scrollplot span comes from.
// Until one of the Init functions runs it is the global no-op.
func Tracer() trace.Tracer {
	return otel.Tracer(TracerName)
}

// InitOTel picks an exporter by name: "honeycomb", "otlp", or "" for none.
// The returned shutdown is always safe to call.
func InitOTel(ctx context.Context, mode string) (func(), error) {
	switch mode {
	case "":
		return func() {}, nil
	case "honeycomb":
		return InitOTelHNY()
	case "otlp":
		tp, err := InitOTelGRF(ctx)
		if err != nil {
			return func() {}, err
		}
		return func() { _ = tp.Shutdown(context.Background()) }, nil
	default:
		return func() {}, fmt.Errorf("unknown otel mode: %s", mode)
	}
}

// InitOTelHNY uses the Honeycomb library to interface with OTel
func InitOTelHNY() (func(), error) {
	otelShutdown, err := otelconfig.ConfigureOpenTelemetry()
	if err != nil {
		return nil, fmt.Errorf("failed to configure OpenTelemetry: %w", err)
	}
	return func() { otelShutdown() }, nil
}

// InitOTelGRF uses the Grafana recommended configuration including Baggage for propagation
func InitOTelGRF(ctx context.Context) (*sdktrace.TracerProvider, error) {
	exporter, err := otlptrace.New(ctx, otlptracehttp.NewClient())
	if err != nil {
		return nil, fmt.Errorf("failed to create otlp exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithBatcher(exporter),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{}))
	return tp, nil
}
