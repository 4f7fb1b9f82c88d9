package gemini

import (
	"github.com/AltairaLabs/rehearsal/runtime/logger"
)

// geminiLoggerAdapter adapts the runtime logger to the streaming.Logger interface.
type geminiLoggerAdapter struct{}

// Debug implements streaming.Logger.
func (a *geminiLoggerAdapter) Debug(msg string, keysAndValues ...any) {
	logger.Debug(msg, append([]any{"component", "gemini"}, keysAndValues...)...)
}

// Info implements streaming.Logger.
func (a *geminiLoggerAdapter) Info(msg string, keysAndValues ...any) {
	logger.Info(msg, append([]any{"component", "gemini"}, keysAndValues...)...)
}

// Warn implements streaming.Logger.
func (a *geminiLoggerAdapter) Warn(msg string, keysAndValues ...any) {
	logger.Warn(msg, append([]any{"component", "gemini"}, keysAndValues...)...)
}

// Error implements streaming.Logger.
func (a *geminiLoggerAdapter) Error(msg string, keysAndValues ...any) {
	logger.Error(msg, append([]any{"component", "gemini"}, keysAndValues...)...)
}
