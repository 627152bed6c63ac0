package oteladapter

import (
	"context"
	"errors"
	"testing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestAdapterStartsAndEndsSpan(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	a := New(tp.Tracer("coop-test"))

	ctx, end := a.Start(context.Background(), "acquire", "name", "sem1")
	if ctx == nil {
		t.Fatal("expected non-nil context")
	}
	end(nil)

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Name != "acquire" {
		t.Errorf("expected span name 'acquire', got %q", spans[0].Name)
	}
}

func TestAdapterRecordsErrorOnSpan(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	a := New(tp.Tracer("coop-test"))

	_, end := a.Start(context.Background(), "acquire")
	end(errors.New("boom"))

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if len(spans[0].Events) == 0 {
		t.Error("expected an error event recorded on the span")
	}
}
