package transport

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/lestrrat-go/qstash/transport"

func startAttemptSpan(ctx context.Context, tracer trace.Tracer, method, path string, attempt int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "qstash.attempt",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("qstash.path", path),
			attribute.Int("qstash.attempt", attempt),
		),
	)
}

func endAttemptSpan(span trace.Span, statusCode int, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetAttributes(attribute.Int("http.response.status_code", statusCode))
	}
	span.End()
}
