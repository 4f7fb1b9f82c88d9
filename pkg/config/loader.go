package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadSessionConfig reads, validates and defaults a manifest file.
// A relative scriptFile is resolved against the manifest's directory.
func LoadSessionConfig(filename string) (*SessionConfig, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return ParseSessionConfig(data, filepath.Dir(filename))
}

// ParseSessionConfig validates and decodes manifest bytes.
func ParseSessionConfig(data []byte, configDir string) (*SessionConfig, error) {
	// Step 1: JSON Schema validation (structure, types, required fields, kind value)
	if err := ValidateSessionConfig(data); err != nil {
		return nil, fmt.Errorf("schema validation failed: %w", err)
	}

	var cfg SessionConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	cfg.ConfigDir = configDir

	if err := cfg.loadScript(); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *SessionConfig) loadScript() error {
	s := &c.Spec
	if s.ScriptFile == "" {
		return nil
	}
	if s.Script != "" {
		return &ValidationError{Field: "spec.scriptFile", Message: "script and scriptFile are mutually exclusive"}
	}
	path := s.ScriptFile
	if !filepath.IsAbs(path) && c.ConfigDir != "" {
		path = filepath.Join(c.ConfigDir, path)
	}
	//nolint:gosec // G304: File path is from trusted configuration
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read script file: %w", err)
	}
	s.Script = strings.TrimSpace(string(data))
	return nil
}

// ApplyDefaults fills every unset field with its default.
func (c *SessionConfig) ApplyDefaults() {
	s := &c.Spec
	if s.Mode == "" {
		s.Mode = ModePresentation
	}
	if s.Model == "" {
		s.Model = DefaultLiveModel
	}
	if s.Voice == "" {
		s.Voice = DefaultVoice
	}
	if s.Timing.FrameInterval == 0 {
		s.Timing.FrameInterval = Duration(DefaultFrameInterval)
	}
	if s.Timing.InsightTTL == 0 {
		s.Timing.InsightTTL = Duration(DefaultInsightTTL)
	}
	if s.Timing.UtteranceHold == 0 {
		s.Timing.UtteranceHold = Duration(DefaultUtteranceHold)
	}
	if s.Endpoints.LiveURL == "" {
		s.Endpoints.LiveURL = DefaultLiveURL
	}
	if s.Endpoints.APIBaseURL == "" {
		s.Endpoints.APIBaseURL = DefaultAPIBaseURL
	}
	if s.Report.Model == "" {
		s.Report.Model = DefaultReportModel
	}
	if s.Logging == nil {
		l := DefaultLoggingConfig()
		s.Logging = &l
	}
}

// Default returns a manifest with every default applied.
func Default() *SessionConfig {
	c := &SessionConfig{APIVersion: APIVersion, Kind: KindSessionConfig}
	c.ApplyDefaults()
	return c
}
