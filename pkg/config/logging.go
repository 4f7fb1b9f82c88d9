package config

import (
	"fmt"

	"github.com/AltairaLabs/rehearsal/runtime/logger"
)

// LoggingSpec defines the logging configuration parameters.
type LoggingSpec struct {
	// DefaultLevel is the default log level for all modules.
	// Supported values: trace, debug, info, warn, error.
	DefaultLevel string `yaml:"defaultLevel,omitempty"`

	// Format is "json" or "text".
	Format string `yaml:"format,omitempty"`

	// CommonFields are key-value pairs added to every log entry.
	CommonFields map[string]string `yaml:"commonFields,omitempty"`

	// Modules configures logging for specific modules in dot notation,
	// e.g. "runtime.playback".
	Modules []ModuleLoggingConfig `yaml:"modules,omitempty"`
}

// ModuleLoggingConfig configures logging for a specific module.
type ModuleLoggingConfig struct {
	Name  string `yaml:"name"`
	Level string `yaml:"level"`
}

// LogLevel constants for programmatic use.
const (
	LogLevelTrace = "trace"
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

// LogFormat constants for programmatic use.
const (
	LogFormatJSON = "json"
	LogFormatText = "text"
)

// DefaultLoggingConfig returns a LoggingSpec with sensible defaults.
func DefaultLoggingConfig() LoggingSpec {
	return LoggingSpec{
		DefaultLevel: LogLevelInfo,
		Format:       LogFormatText,
	}
}

// Validate validates the LoggingSpec.
func (c *LoggingSpec) Validate() error {
	if c.DefaultLevel != "" && !isValidLogLevel(c.DefaultLevel) {
		return &ValidationError{
			Field:   "logging.defaultLevel",
			Message: "must be one of: trace, debug, info, warn, error",
			Value:   c.DefaultLevel,
		}
	}
	if c.Format != "" && c.Format != LogFormatJSON && c.Format != LogFormatText {
		return &ValidationError{
			Field:   "logging.format",
			Message: "must be one of: json, text",
			Value:   c.Format,
		}
	}
	for i, mod := range c.Modules {
		if mod.Name == "" {
			return &ValidationError{
				Field:   fmt.Sprintf("logging.modules[%d].name", i),
				Message: "module name is required",
			}
		}
		if mod.Level != "" && !isValidLogLevel(mod.Level) {
			return &ValidationError{
				Field:   "logging.modules[" + mod.Name + "].level",
				Message: "must be one of: trace, debug, info, warn, error",
				Value:   mod.Level,
			}
		}
	}
	return nil
}

// LoggerSpec converts the logging section to the form accepted by logger.Configure.
func (c *LoggingSpec) LoggerSpec() *logger.LoggingConfigSpec {
	out := &logger.LoggingConfigSpec{
		DefaultLevel: c.DefaultLevel,
		Format:       c.Format,
		CommonFields: c.CommonFields,
	}
	for _, m := range c.Modules {
		out.Modules = append(out.Modules, logger.ModuleLoggingSpec{Name: m.Name, Level: m.Level})
	}
	return out
}

func isValidLogLevel(level string) bool {
	switch level {
	case LogLevelTrace, LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		return true
	default:
		return false
	}
}
