package middleware

import "context"

// idKey indexes the IDs this package stores in a context.Context.
type idKey uint8

const (
	requestIDKey idKey = iota + 1
	correlationIDKey
)

// ContextWithRequestID returns ctx carrying id as the request ID. The
// outbound client reads it back to tag the Gemini call.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// ContextWithCorrelationID returns ctx carrying id as the correlation ID.
func ContextWithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey, id)
}

// RequestIDFromContext returns the request ID, or "".
func RequestIDFromContext(ctx context.Context) string { return idFrom(ctx, requestIDKey) }

// CorrelationIDFromContext returns the correlation ID, or "".
func CorrelationIDFromContext(ctx context.Context) string { return idFrom(ctx, correlationIDKey) }

func idFrom(ctx context.Context, key idKey) string {
	if ctx == nil {
		return ""
	}

	s, _ := ctx.Value(key).(string)

	return s
}
