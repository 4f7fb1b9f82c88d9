package logger

import (
	"context"
)

// contextKey is a private type for context keys to avoid collisions.
type contextKey string

// Context keys extracted by ContextHandler and attached to every record.
const (
	// ContextKeySessionID identifies the live session.
	ContextKeySessionID contextKey = "session_id"

	// ContextKeyGeneration identifies one connection attempt of a session.
	ContextKeyGeneration contextKey = "generation"

	// ContextKeyModel identifies the remote model.
	ContextKeyModel contextKey = "model"

	// ContextKeyComponent names the pipeline component (capture, playback, transport, report).
	ContextKeyComponent contextKey = "component"

	// ContextKeyRequestID identifies an individual HTTP request.
	ContextKeyRequestID contextKey = "request_id"
)

var allContextKeys = []contextKey{
	ContextKeySessionID,
	ContextKeyGeneration,
	ContextKeyModel,
	ContextKeyComponent,
	ContextKeyRequestID,
}

// WithSessionID returns a new context with the session ID set.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, ContextKeySessionID, sessionID)
}

// WithGeneration returns a new context with the connection generation set.
func WithGeneration(ctx context.Context, generation string) context.Context {
	return context.WithValue(ctx, ContextKeyGeneration, generation)
}

// WithModel returns a new context with the model name set.
func WithModel(ctx context.Context, model string) context.Context {
	return context.WithValue(ctx, ContextKeyModel, model)
}

// WithComponent returns a new context with the component name set.
func WithComponent(ctx context.Context, component string) context.Context {
	return context.WithValue(ctx, ContextKeyComponent, component)
}

// WithRequestID returns a new context with the request ID set.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// LoggingFields holds the values set by WithLoggingContext.
type LoggingFields struct {
	SessionID  string
	Generation string
	Model      string
	Component  string
	RequestID  string
}

// WithLoggingContext sets every non-empty field of fields on ctx.
func WithLoggingContext(ctx context.Context, fields *LoggingFields) context.Context {
	if fields == nil {
		return ctx
	}
	if fields.SessionID != "" {
		ctx = WithSessionID(ctx, fields.SessionID)
	}
	if fields.Generation != "" {
		ctx = WithGeneration(ctx, fields.Generation)
	}
	if fields.Model != "" {
		ctx = WithModel(ctx, fields.Model)
	}
	if fields.Component != "" {
		ctx = WithComponent(ctx, fields.Component)
	}
	if fields.RequestID != "" {
		ctx = WithRequestID(ctx, fields.RequestID)
	}
	return ctx
}

// ExtractLoggingFields reads the logging fields stored on ctx.
func ExtractLoggingFields(ctx context.Context) LoggingFields {
	get := func(k contextKey) string {
		if v, ok := ctx.Value(k).(string); ok {
			return v
		}
		return ""
	}
	return LoggingFields{
		SessionID:  get(ContextKeySessionID),
		Generation: get(ContextKeyGeneration),
		Model:      get(ContextKeyModel),
		Component:  get(ContextKeyComponent),
		RequestID:  get(ContextKeyRequestID),
	}
}
