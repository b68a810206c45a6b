package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type contextKey string

const (
	loggerKey    contextKey = "logger"
	requestIDKey contextKey = "request_id"
	orgIDKey     contextKey = "org_id"
	actorIDKey   contextKey = "actor_id"
)

// WithContext returns a new context carrying the logger
func WithContext(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext returns the logger stored in ctx, or a no-op logger.
func FromContext(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(loggerKey).(*zap.Logger); ok {
		return l
	}
	return zap.NewNop()
}

// WithRequestID stores the request id and returns the enriched logger alongside
func WithRequestID(ctx context.Context, l *zap.Logger, requestID string) (context.Context, *zap.Logger) {
	l = l.With(zap.String("request_id", requestID))
	return WithContext(context.WithValue(ctx, requestIDKey, requestID), l), l
}

// WithActor stores the school and staff member behind the request.
// An empty actorID marks an unattributed caller.
func WithActor(ctx context.Context, l *zap.Logger, orgID, actorID string) (context.Context, *zap.Logger) {
	ctx = context.WithValue(ctx, orgIDKey, orgID)
	fields := []zap.Field{zap.String("org_id", orgID)}
	if actorID != "" {
		ctx = context.WithValue(ctx, actorIDKey, actorID)
		fields = append(fields, zap.String("actor_id", actorID))
	}
	l = l.With(fields...)
	return WithContext(ctx, l), l
}

func stringValue(ctx context.Context, key contextKey) string {
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}

// GetRequestID returns the request id stored in ctx
func GetRequestID(ctx context.Context) string { return stringValue(ctx, requestIDKey) }

// GetOrgID returns the school id stored in ctx
func GetOrgID(ctx context.Context) string { return stringValue(ctx, orgIDKey) }

// GetActorID returns the staff member id stored in ctx
func GetActorID(ctx context.Context) string { return stringValue(ctx, actorIDKey) }

// TraceFields returns trace_id and span_id for the active span, if any.
func TraceFields(ctx context.Context) []zap.Field {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return nil
	}
	return []zap.Field{
		zap.String("trace_id", sc.TraceID().String()),
		zap.String("span_id", sc.SpanID().String()),
	}
}

// L returns the context logger enriched with trace correlation.
//
//	logger.L(ctx).Info("fee waived", zap.String("fee_id", id))
func L(ctx context.Context) *zap.Logger {
	l := FromContext(ctx)
	if fields := TraceFields(ctx); len(fields) > 0 {
		l = l.With(fields...)
	}
	return l
}
