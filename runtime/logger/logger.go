// Package logger provides structured logging with automatic credential redaction.
//
// This package wraps Go's standard log/slog with convenience functions for:
//   - Live session lifecycle logging (phase transitions, connection generations)
//   - Media pipeline logging (dropped chunks, decode failures)
//   - Report request/response logging with API key redaction
//   - Contextual logging keyed by session id
//
// All exported functions use the global DefaultLogger which can be configured
// for different output formats and log levels.
package logger

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"regexp"
	"runtime"
	"strings"
	"sync"
	"time"
)

var (
	// DefaultLogger is the global structured logger instance.
	DefaultLogger *slog.Logger

	// logOutput is where built-in handlers write. Tests swap it for a buffer.
	logOutput io.Writer = os.Stderr

	// customHandler is set by SetLogger; Configure leaves it alone.
	customHandler slog.Handler

	mu sync.Mutex
)

func init() {
	initLoggerWithConfig(levelFromEnv(), nil, nil, false)
}

func levelFromEnv() slog.Level {
	if envLevel := os.Getenv("LOG_LEVEL"); envLevel != "" {
		return ParseLevel(envLevel)
	}
	return slog.LevelInfo
}

// ParseLevel converts a level name into a slog.Level. Unknown names map to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug", "trace":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SetLevel changes the logging level for all subsequent log operations.
func SetLevel(level slog.Level) {
	mu.Lock()
	defer mu.Unlock()
	if customHandler != nil {
		return
	}
	DefaultLogger = slog.New(NewContextHandler(slog.NewTextHandler(logOutput, &slog.HandlerOptions{
		Level: level,
	})))
}

// SetVerbose enables debug-level logging when verbose is true, otherwise sets info-level.
func SetVerbose(verbose bool) {
	if verbose {
		SetLevel(slog.LevelDebug)
	} else {
		SetLevel(slog.LevelInfo)
	}
}

// SetLogger installs a caller-provided handler. Passing nil restores the default.
func SetLogger(h slog.Handler) {
	mu.Lock()
	customHandler = h
	mu.Unlock()
	if h == nil {
		initLoggerWithConfig(levelFromEnv(), nil, nil, false)
		return
	}
	DefaultLogger = slog.New(NewContextHandler(h))
}

// logAt emits a record whose PC is the caller of the exported helper, so module
// filtering sees the calling package rather than this one.
func logAt(ctx context.Context, level slog.Level, msg string, args ...any) {
	if ctx == nil {
		ctx = context.Background()
	}
	l := DefaultLogger
	if !l.Enabled(ctx, level) {
		return
	}
	var pcs [1]uintptr
	runtime.Callers(3, pcs[:]) // skip Callers, logAt and the helper
	r := slog.NewRecord(time.Now(), level, msg, pcs[0])
	r.Add(args...)
	_ = l.Handler().Handle(ctx, r)
}

// Info logs an informational message with structured key-value attributes.
func Info(msg string, args ...any) {
	logAt(context.Background(), slog.LevelInfo, msg, args...)
}

// InfoContext logs an informational message with context and structured attributes.
func InfoContext(ctx context.Context, msg string, args ...any) {
	logAt(ctx, slog.LevelInfo, msg, args...)
}

// Debug logs a debug-level message with structured attributes.
func Debug(msg string, args ...any) {
	logAt(context.Background(), slog.LevelDebug, msg, args...)
}

// DebugContext logs a debug message with context and structured attributes.
func DebugContext(ctx context.Context, msg string, args ...any) {
	logAt(ctx, slog.LevelDebug, msg, args...)
}

// Warn logs a warning message with structured attributes.
func Warn(msg string, args ...any) {
	logAt(context.Background(), slog.LevelWarn, msg, args...)
}

// WarnContext logs a warning message with context and structured attributes.
func WarnContext(ctx context.Context, msg string, args ...any) {
	logAt(ctx, slog.LevelWarn, msg, args...)
}

// Error logs an error message with structured attributes.
func Error(msg string, args ...any) {
	logAt(context.Background(), slog.LevelError, msg, args...)
}

// ErrorContext logs an error message with context and structured attributes.
func ErrorContext(ctx context.Context, msg string, args ...any) {
	logAt(ctx, slog.LevelError, msg, args...)
}

// PhaseChange logs a session lifecycle transition.
func PhaseChange(ctx context.Context, from, to string, attrs ...any) {
	allAttrs := make([]any, 0, 4+len(attrs))
	allAttrs = append(allAttrs, "from", from, "to", to)
	allAttrs = append(allAttrs, attrs...)
	InfoContext(ctx, "session phase changed", allAttrs...)
}

// MediaDropped logs a media unit that was discarded without affecting the session.
// kind is one of "audio", "frame" or "playback".
func MediaDropped(ctx context.Context, kind, reason string, attrs ...any) {
	allAttrs := make([]any, 0, 4+len(attrs))
	allAttrs = append(allAttrs, "kind", kind, "reason", reason)
	allAttrs = append(allAttrs, attrs...)
	DebugContext(ctx, "media dropped", allAttrs...)
}

// ToolCall logs an inbound function call from the remote model.
func ToolCall(ctx context.Context, name, id string, recognized bool, attrs ...any) {
	allAttrs := make([]any, 0, 6+len(attrs))
	allAttrs = append(allAttrs, "tool", name, "call_id", id, "recognized", recognized)
	allAttrs = append(allAttrs, attrs...)
	if recognized {
		DebugContext(ctx, "tool call", allAttrs...)
		return
	}
	WarnContext(ctx, "ignoring unrecognized tool call", allAttrs...)
}

var (
	// apiKeyPatterns matches credentials that may leak through URLs, headers or bodies.
	// Bearer runs first so tokens it covers are not partially redacted twice.
	apiKeyPatterns = []*regexp.Regexp{
		regexp.MustCompile(`Bearer\s+[a-zA-Z0-9._-]+`),    // Bearer tokens
		regexp.MustCompile(`AIza[a-zA-Z0-9_-]{35}`),       // Google API keys
		regexp.MustCompile(`ya29\.[a-zA-Z0-9._-]{20,}`),   // Google OAuth2 access tokens
		regexp.MustCompile(`([?&]key=)[a-zA-Z0-9_-]{8,}`), // key query parameters
	}
)

// RedactSensitiveData removes API keys and tokens from strings.
// Matches keep their first four characters so log lines stay traceable.
func RedactSensitiveData(input string) string {
	result := input

	for _, pattern := range apiKeyPatterns {
		result = pattern.ReplaceAllStringFunc(result, func(match string) string {
			switch {
			case strings.HasPrefix(match, "Bearer"):
				return "Bearer [REDACTED]"
			case strings.HasPrefix(match, "?key=") || strings.HasPrefix(match, "&key="):
				return match[:5] + "[REDACTED]"
			case len(match) > 8:
				return match[:4] + "...[REDACTED]"
			default:
				return "[REDACTED]"
			}
		})
	}

	return result
}

// APIRequest logs HTTP API request details at debug level with redaction.
// It is a no-op when debug logging is disabled.
func APIRequest(provider, method, url string, headers map[string]string, body interface{}) {
	if !DefaultLogger.Enabled(context.Background(), slog.LevelDebug) {
		return
	}

	attrs := make([]any, 0, 8)
	attrs = append(attrs,
		"provider", provider,
		"method", method,
		"url", RedactSensitiveData(url),
	)

	if len(headers) > 0 {
		redactedHeaders := make(map[string]string, len(headers))
		for key, value := range headers {
			redactedHeaders[key] = RedactSensitiveData(value)
		}
		attrs = append(attrs, "headers", redactedHeaders)
	}

	if body != nil {
		bodyJSON, err := json.Marshal(body)
		if err != nil {
			attrs = append(attrs, "body_error", err.Error())
		} else {
			attrs = append(attrs, "body", RedactSensitiveData(string(bodyJSON)))
		}
	}

	Debug("API request", attrs...)
}

// APIResponse logs HTTP API response details at debug level with redaction.
// Errors are logged at error level regardless of the configured level.
func APIResponse(provider string, statusCode int, body string, err error) {
	if err != nil {
		Error("API response error",
			"provider", provider,
			"status_code", statusCode,
			"error", RedactSensitiveData(err.Error()),
		)
		return
	}
	if !DefaultLogger.Enabled(context.Background(), slog.LevelDebug) {
		return
	}

	attrs := []any{"provider", provider, "status_code", statusCode}
	if body != "" {
		attrs = append(attrs, "body", RedactSensitiveData(body))
	}
	Debug("API response", attrs...)
}
