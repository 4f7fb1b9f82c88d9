// Package config loads session manifests.
//
// A manifest is a K8s-style YAML document:
//
//	apiVersion: rehearsal.altairalabs.ai/v1alpha1
//	kind: SessionConfig
//	metadata:
//	  name: quarterly-review
//	spec:
//	  mode: presentation
//	  topic: Q3 results
//
// Manifests are validated against an embedded JSON schema before decoding,
// then defaults are applied.
package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Manifest identifiers.
const (
	APIVersion        = "rehearsal.altairalabs.ai/v1alpha1"
	KindSessionConfig = "SessionConfig"
)

// Endpoint defaults.
const (
	DefaultLiveURL       = "wss://generativelanguage.googleapis.com/ws/google.ai.generativelanguage.v1beta.GenerativeService.BidiGenerateContent"
	DefaultAPIBaseURL    = "https://generativelanguage.googleapis.com/v1beta"
	DefaultLiveModel     = "gemini-2.0-flash-live-001"
	DefaultReportModel   = "gemini-2.5-flash"
	DefaultVoice         = "Puck"
	DefaultFrameInterval = 2 * time.Second
	DefaultInsightTTL    = 8 * time.Second
	DefaultUtteranceHold = 2 * time.Second
)

// ObjectMeta contains metadata for resources.
type ObjectMeta struct {
	Name        string            `yaml:"name,omitempty"`
	Labels      map[string]string `yaml:"labels,omitempty"`
	Annotations map[string]string `yaml:"annotations,omitempty"`
}

// SessionConfig is the top-level manifest.
type SessionConfig struct {
	APIVersion string      `yaml:"apiVersion"`
	Kind       string      `yaml:"kind"`
	Metadata   ObjectMeta  `yaml:"metadata,omitempty"`
	Spec       SessionSpec `yaml:"spec"`

	// ConfigDir is the directory of the manifest file, for relative paths.
	ConfigDir string `yaml:"-"`
}

// SessionSpec describes one coaching session.
type SessionSpec struct {
	Mode              Mode   `yaml:"mode,omitempty"`
	Topic             string `yaml:"topic,omitempty"`
	Script            string `yaml:"script,omitempty"`
	ScriptFile        string `yaml:"scriptFile,omitempty"`
	SystemInstruction string `yaml:"systemInstruction,omitempty"`

	// AudioEnabled defaults to true when omitted.
	AudioEnabled    *bool `yaml:"audioEnabled,omitempty"`
	DistractionFree bool  `yaml:"distractionFree,omitempty"`
	Teleprompter    bool  `yaml:"teleprompter,omitempty"`

	Model string `yaml:"model,omitempty"`
	Voice string `yaml:"voice,omitempty"`

	Timing     TimingSpec       `yaml:"timing,omitempty"`
	Endpoints  EndpointSpec     `yaml:"endpoints,omitempty"`
	Report     ReportSpec       `yaml:"report,omitempty"`
	Credential CredentialConfig `yaml:"credential,omitempty"`
	Logging    *LoggingSpec     `yaml:"logging,omitempty"`
	Telemetry  TelemetrySpec    `yaml:"telemetry,omitempty"`
}

// TimingSpec holds the session's timing knobs.
type TimingSpec struct {
	FrameInterval  Duration `yaml:"frameInterval,omitempty"`
	InsightTTL     Duration `yaml:"insightTTL,omitempty"`
	UtteranceHold  Duration `yaml:"utteranceHold,omitempty"`
	ConnectTimeout Duration `yaml:"connectTimeout,omitempty"`
}

// EndpointSpec overrides the Gemini endpoints.
type EndpointSpec struct {
	LiveURL    string `yaml:"liveURL,omitempty"`
	APIBaseURL string `yaml:"apiBaseURL,omitempty"`
}

// ReportSpec configures the post-session report.
type ReportSpec struct {
	Disabled bool   `yaml:"disabled,omitempty"`
	Model    string `yaml:"model,omitempty"`
}

// CredentialConfig selects how the Gemini credential is obtained.
type CredentialConfig struct {
	APIKey             string `yaml:"apiKey,omitempty"`
	CredentialFile     string `yaml:"credentialFile,omitempty"`
	CredentialEnv      string `yaml:"credentialEnv,omitempty"`
	ServiceAccountFile string `yaml:"serviceAccountFile,omitempty"`
	ADC                bool   `yaml:"adc,omitempty"`
}

// TelemetrySpec configures trace export.
type TelemetrySpec struct {
	OTLPEndpoint string `yaml:"otlpEndpoint,omitempty"`
	ServiceName  string `yaml:"serviceName,omitempty"`
}

// Duration is a time.Duration written as a Go duration string ("2s", "750ms").
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("line %d: invalid duration %q: %w", node.Line, s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Audio reports whether audio output is enabled.
func (s *SessionSpec) Audio() bool {
	return s.AudioEnabled == nil || *s.AudioEnabled
}
