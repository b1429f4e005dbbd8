package gateway

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

var gatewayTracer = otel.Tracer("fantasy-cricket/internal/interfaces/gateway")
var noopSpan = trace.SpanFromContext(context.Background())

func startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	parent := trace.SpanFromContext(ctx)
	if !parent.SpanContext().IsValid() {
		// No parent span in context (filtered route like /healthz): avoid
		// creating standalone root spans for internal helpers.
		return ctx, noopSpan
	}
	return gatewayTracer.Start(ctx, name)
}
