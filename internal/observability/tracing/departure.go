package tracing

import (
	"context"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const departureTracerName = "github.com/KasumiMercury/primind-last-train/internal/service/timer"

func DepartureTracer() trace.Tracer {
	return otel.Tracer(departureTracerName)
}

func StartTimerOperationSpan(ctx context.Context, operation, timerID string) (context.Context, trace.Span) {
	return DepartureTracer().Start(ctx, "departure.timer."+operation,
		trace.WithAttributes(
			attribute.String("timer_id", timerID),
		),
	)
}

func StartNotificationSpan(ctx context.Context, timerID string, leaveAt time.Time) (context.Context, trace.Span) {
	return DepartureTracer().Start(ctx, "departure.notify",
		trace.WithAttributes(
			attribute.String("timer_id", timerID),
			attribute.String("leave_at", leaveAt.Format(time.RFC3339)),
		),
		trace.WithSpanKind(trace.SpanKindProducer),
	)
}

func StartRoutePlanSpan(ctx context.Context, from, to string) (context.Context, trace.Span) {
	return DepartureTracer().Start(ctx, "departure.route.plan",
		trace.WithAttributes(
			attribute.String("route.from", from),
			attribute.String("route.to", to),
		),
	)
}

func StartExternalAPISpan(ctx context.Context, operation, url string) (context.Context, trace.Span) {
	return DepartureTracer().Start(ctx, "departure.external_api."+operation,
		trace.WithAttributes(
			attribute.String("url", url),
		),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

func StartRedisOperationSpan(ctx context.Context, operation, key string) (context.Context, trace.Span) {
	return DepartureTracer().Start(ctx, "departure.redis."+operation,
		trace.WithAttributes(
			attribute.String("db.system", "redis"),
			attribute.String("db.operation", operation),
			attribute.String("db.key", key),
		),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

// EndSpan records err on span, if any, and ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

func InjectToHTTPRequest(ctx context.Context, req *http.Request) {
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))
}

func ExtractFromHTTPRequest(ctx context.Context, req *http.Request) context.Context {
	return otel.GetTextMapPropagator().Extract(ctx, propagation.HeaderCarrier(req.Header))
}
