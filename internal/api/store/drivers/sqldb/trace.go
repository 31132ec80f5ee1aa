package sqldb

import (
	"context"
	"errors"

	"github.com/aussiebroadwan/userapi/internal/api/store"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "userapi/store"

// startSpan opens a client span for one repository call.
func startSpan(ctx context.Context, dialect Dialect, op string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "store."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", string(dialect)),
			attribute.String("db.operation", op),
		),
	)
}

// endSpan records err unless it is an expected lookup miss.
func endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
