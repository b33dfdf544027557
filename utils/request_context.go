package utils

import "context"

type ctxKey int

const ctxKeyRequestID ctxKey = iota

// WithRequestID attaches the id assigned by the request-logging middleware
// so controller log lines can carry it.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, ctxKeyRequestID, id)
}

// RequestID returns the attached request id, or "" outside a request.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKeyRequestID).(string)
	return id
}
