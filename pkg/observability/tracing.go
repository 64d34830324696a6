// Package observability wires OpenTelemetry tracing for lumen's background
// workers. The render path itself is never traced; spans cover alert
// handling and remediation.
package observability

import (
	"context"
	"io"
	"os"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/ajitpratap0/lumen/pkg/alert"
	"github.com/ajitpratap0/lumen/pkg/errors"
)

const instrumentationName = "github.com/ajitpratap0/lumen"

var (
	mu       sync.RWMutex
	tracer   trace.Tracer = noop.NewTracerProvider().Tracer(instrumentationName)
	provider *sdktrace.TracerProvider
)

// TracingConfig contains tracing configuration
type TracingConfig struct {
	Enabled        bool          `yaml:"enabled"`
	ServiceName    string        `yaml:"service_name"`
	ServiceVersion string        `yaml:"service_version"`
	Environment    string        `yaml:"environment"`
	SamplingRate   float64       `yaml:"sampling_rate"`
	Exporter       string        `yaml:"exporter"` // "stdout" or "none"
	PrettyPrint    bool          `yaml:"pretty_print"`
	BatchTimeout   time.Duration `yaml:"batch_timeout"`

	// Writer receives stdout exporter output; defaults to os.Stdout.
	Writer io.Writer `yaml:"-"`
}

// DefaultTracingConfig returns a disabled configuration with sensible values
// for when it is switched on.
func DefaultTracingConfig() TracingConfig {
	return TracingConfig{
		ServiceName:    "lumen",
		ServiceVersion: "dev",
		Environment:    "development",
		SamplingRate:   1.0,
		Exporter:       "stdout",
		BatchTimeout:   5 * time.Second,
	}
}

// Initialize installs a tracer provider built from config. A disabled config,
// or the "none" exporter, leaves the no-op tracer in place.
func Initialize(config TracingConfig) error {
	if !config.Enabled || config.Exporter == "none" {
		return nil
	}

	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String(config.ServiceName),
			semconv.ServiceVersionKey.String(config.ServiceVersion),
			semconv.DeploymentEnvironmentKey.String(config.Environment),
		),
	)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "failed to create trace resource")
	}

	var exporter sdktrace.SpanExporter
	switch config.Exporter {
	case "stdout", "":
		w := config.Writer
		if w == nil {
			w = os.Stdout
		}
		opts := []stdouttrace.Option{stdouttrace.WithWriter(w)}
		if config.PrettyPrint {
			opts = append(opts, stdouttrace.WithPrettyPrint())
		}
		exporter, err = stdouttrace.New(opts...)
		if err != nil {
			return errors.Wrap(err, errors.ErrorTypeInternal, "failed to create stdout exporter")
		}
	default:
		return errors.Newf(errors.ErrorTypeConfig, "unsupported trace exporter %q", config.Exporter)
	}

	var sampler sdktrace.Sampler
	switch {
	case config.SamplingRate <= 0:
		sampler = sdktrace.NeverSample()
	case config.SamplingRate >= 1.0:
		sampler = sdktrace.AlwaysSample()
	default:
		sampler = sdktrace.TraceIDRatioBased(config.SamplingRate)
	}

	batchOpts := []sdktrace.BatchSpanProcessorOption{}
	if config.BatchTimeout > 0 {
		batchOpts = append(batchOpts, sdktrace.WithBatchTimeout(config.BatchTimeout))
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
		sdktrace.WithBatcher(exporter, batchOpts...),
	)

	mu.Lock()
	provider = tp
	tracer = tp.Tracer(instrumentationName)
	mu.Unlock()

	otel.SetTracerProvider(tp)
	return nil
}

// Tracer returns the active tracer, which is a no-op until Initialize succeeds.
func Tracer() trace.Tracer {
	mu.RLock()
	defer mu.RUnlock()
	return tracer
}

// StartSpan starts a span on the active tracer.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return Tracer().Start(ctx, name, trace.WithAttributes(attrs...))
}

// AlertAttributes describes an alert as span attributes.
func AlertAttributes(a alert.Alert) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("alert.kind", a.Kind().String()),
		attribute.String("alert.severity", a.Severity().String()),
		attribute.Float64("alert.value", a.Value()),
		attribute.Float64("alert.threshold", a.Threshold()),
	}
}

// RemediationAttributes describes what was released in response to an alert.
func RemediationAttributes(frame uint64, buffers, textures int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int64("frame", int64(frame)),
		attribute.Int("remediation.buffers", buffers),
		attribute.Int("remediation.textures", textures),
	}
}

// Shutdown flushes pending spans and restores the no-op tracer.
func Shutdown(ctx context.Context) error {
	mu.Lock()
	tp := provider
	provider = nil
	tracer = noop.NewTracerProvider().Tracer(instrumentationName)
	mu.Unlock()

	if tp == nil {
		return nil
	}
	if err := tp.Shutdown(ctx); err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "failed to shutdown tracer")
	}
	return nil
}
