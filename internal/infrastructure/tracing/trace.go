package tracing

import (
	"context"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/DigitalTwin/internal/shared/id"
)

// Header carries the request id in and out of the server
const Header = "X-Request-ID"

const maxIncomingLen = 128

type contextKey string

const requestIDKey contextKey = "request_id"

// WithRequestID stores a request id in ctx
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestID retrieves the request id from ctx
func RequestID(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}

// Field returns the request id of ctx as a log field
func Field(ctx context.Context) zap.Field {
	return zap.String("request_id", RequestID(ctx))
}

// resolve keeps a sane incoming id or mints a new one
func resolve(incoming string) string {
	if incoming == "" || len(incoming) > maxIncomingLen {
		return id.NewRequestID()
	}
	for _, r := range incoming {
		if r < 0x21 || r > 0x7e {
			return id.NewRequestID()
		}
	}
	return incoming
}
