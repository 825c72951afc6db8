package infra

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
)

func TestInitTracing_StdoutExportsSpans(t *testing.T) {
	var buf bytes.Buffer
	shutdown, err := InitTracing("runrun-importer", "stdout", "run-1", &buf)
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	t.Cleanup(func() { _, _ = InitTracing("", "none", "", nil) })

	_, span := otel.Tracer("test").Start(context.Background(), "POST tasks")
	span.End()

	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "POST tasks") || !strings.Contains(out, "run-1") {
		t.Fatalf("expected span and run id in output:\n%s", out)
	}
}

func TestInitTracing_NoneAndUnknown(t *testing.T) {
	shutdown, err := InitTracing("svc", "", "", nil)
	if err != nil {
		t.Fatalf("init none: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("noop shutdown: %v", err)
	}

	if _, err := InitTracing("svc", "jaeger", "", nil); err == nil {
		t.Fatalf("expected error for unknown exporter")
	}
}
