package tracing

import (
	"context"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/Ramsey-B/clover/pkg/tracing/exporters"
)

// ProviderConfig controls the tracer provider.
type ProviderConfig struct {
	ServiceName string
	OTLPEnabled bool
	OTLP        exporters.OTLPConfig
}

// Provider owns the SDK tracer provider. It satisfies startup.Dependency.
type Provider struct {
	cfg      ProviderConfig
	logger   ectologger.Logger
	provider *sdktrace.TracerProvider
}

func NewProvider(cfg ProviderConfig, logger ectologger.Logger) *Provider {
	return &Provider{cfg: cfg, logger: logger}
}

func (p *Provider) GetName() string {
	return "tracing"
}

func (p *Provider) DependsOn() []string {
	return nil
}

// Start installs the global tracer provider and propagator.
func (p *Provider) Start(ctx context.Context) error {
	var exporter sdktrace.SpanExporter = &exporters.ConsoleExporter{}
	if p.cfg.OTLPEnabled {
		otlpExporter, err := exporters.NewOTLPExporter(ctx, p.cfg.OTLP)
		if err != nil {
			return fmt.Errorf("failed to create OTLP exporter: %w", err)
		}
		exporter = otlpExporter
		p.logger.Infof("Exporting traces to %s over %s", p.cfg.OTLP.Endpoint, p.cfg.OTLP.Protocol)
	}

	p.provider = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(5*time.Second)),
	)
	otel.SetTracerProvider(p.provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))
	SetTracer(p.provider.Tracer(p.cfg.ServiceName))
	return nil
}

// Stop flushes pending spans.
func (p *Provider) Stop(ctx context.Context) error {
	if p.provider == nil {
		return nil
	}
	return p.provider.Shutdown(ctx)
}
