package prompteval

import (
	"context"
	"fmt"
	"io"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"

	"github.com/braintrustdata/prompteval-go/config"
)

// NewTracerProvider builds a TracerProvider exporting to cfg.TraceExporter:
// "stdout" pretty-prints spans to w, "otlp" sends them over HTTP to
// cfg.OTLPEndpoint (or the OTEL_EXPORTER_OTLP_* defaults) and "none" keeps
// spans in process only.
//
// The caller owns the provider and must shut it down to flush spans.
func NewTracerProvider(ctx context.Context, cfg *config.Config, w io.Writer) (*trace.TracerProvider, error) {
	opts := []trace.TracerProviderOption{
		trace.WithResource(resource.NewSchemaless(
			attribute.String("service.name", "prompteval"),
			attribute.String("prompteval.model", cfg.Model),
		)),
	}

	switch cfg.TraceExporter {
	case "", config.TraceExporterNone:
	case config.TraceExporterStdout:
		exporter, err := stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, err
		}
		opts = append(opts, trace.WithBatcher(exporter))
	case config.TraceExporterOTLP:
		var clientOpts []otlptracehttp.Option
		if cfg.OTLPEndpoint != "" {
			clientOpts = append(clientOpts, otlptracehttp.WithEndpointURL(cfg.OTLPEndpoint))
		}
		exporter, err := otlptrace.New(ctx, otlptracehttp.NewClient(clientOpts...))
		if err != nil {
			return nil, err
		}
		opts = append(opts, trace.WithBatcher(exporter))
	default:
		return nil, fmt.Errorf("unknown trace exporter %q", cfg.TraceExporter)
	}

	return trace.NewTracerProvider(opts...), nil
}
