package observability

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestStartStageRecordsError(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	_, end := StartStage(context.Background(), "hook")
	end(errors.New("boom"))

	spans := rec.Ended()
	if len(spans) != 1 {
		t.Fatalf("spans: want=1 got=%d", len(spans))
	}
	if spans[0].Name() != "pipeline.hook" {
		t.Fatalf("name: got=%s", spans[0].Name())
	}
	if len(spans[0].Events()) == 0 {
		t.Fatalf("expected error event on span")
	}
}

func TestInitOTelDisabledIsNoop(t *testing.T) {
	t.Setenv("OTEL_ENABLED", "false")
	shutdown := InitOTel(context.Background(), nil, OtelConfig{})
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}
