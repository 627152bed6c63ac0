// Package oteladapter implements shared.Tracer over an OpenTelemetry
// trace.Tracer.
package oteladapter

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/kolosys/coop/shared"
)

// Adapter wraps a trace.Tracer to satisfy shared.Tracer.
type Adapter struct {
	tracer trace.Tracer
}

// New wraps tracer as a shared.Tracer.
func New(tracer trace.Tracer) *Adapter {
	return &Adapter{tracer: tracer}
}

func attrsOf(kv []any) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		attrs = append(attrs, attribute.String(key, toString(kv[i+1])))
	}
	return attrs
}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Start opens a span named name, recording kv as string-valued attributes,
// and returns a function that ends the span, marking it as errored if err
// is non-nil.
func (a *Adapter) Start(ctx context.Context, name string, kv ...any) (context.Context, func(err error)) {
	ctx, span := a.tracer.Start(ctx, name, trace.WithAttributes(attrsOf(kv)...))
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}

var _ shared.Tracer = (*Adapter)(nil)
