package infra

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// InitTracing configura o TracerProvider global.
//
// exporter: "none" (ou vazio) usa no-op; "stdout" imprime os spans em w
// (os.Stderr quando nil). Devolve a função de shutdown que faz flush.
func InitTracing(service, exporter, runID string, w io.Writer) (func(context.Context) error, error) {
	switch strings.ToLower(strings.TrimSpace(exporter)) {
	case "", "none":
		otel.SetTracerProvider(noop.NewTracerProvider())
		return func(context.Context) error { return nil }, nil
	case "stdout":
		if w == nil {
			w = os.Stderr
		}
		exp, err := stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("stdout trace exporter: %w", err)
		}
		res := resource.NewSchemaless(
			attribute.String("service.name", service),
			attribute.String("runrun.run_id", runID),
		)
		tp := sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exp),
			sdktrace.WithResource(res),
		)
		otel.SetTracerProvider(tp)
		return tp.Shutdown, nil
	default:
		return nil, fmt.Errorf("unknown tracing exporter %q (want none|stdout)", exporter)
	}
}
