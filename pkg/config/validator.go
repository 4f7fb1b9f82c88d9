package config

// ValidationError reports a semantic problem in a manifest that the schema
// cannot express.
type ValidationError struct {
	Field   string
	Message string
	Value   string
}

func (e *ValidationError) Error() string {
	if e.Value != "" {
		return "config validation error: " + e.Field + ": " + e.Message + " (got: " + e.Value + ")"
	}
	return "config validation error: " + e.Field + ": " + e.Message
}

// Validate checks constraints beyond the schema.
func (c *SessionConfig) Validate() error {
	s := &c.Spec
	if !s.Mode.Valid() {
		return &ValidationError{Field: "spec.mode", Message: "unknown mode", Value: string(s.Mode)}
	}
	if s.Timing.FrameInterval < 0 {
		return &ValidationError{Field: "spec.timing.frameInterval", Message: "must be positive", Value: s.Timing.FrameInterval.Std().String()}
	}
	if s.Timing.InsightTTL < 0 {
		return &ValidationError{Field: "spec.timing.insightTTL", Message: "must be positive", Value: s.Timing.InsightTTL.Std().String()}
	}
	if s.Timing.ConnectTimeout < 0 {
		return &ValidationError{Field: "spec.timing.connectTimeout", Message: "must not be negative", Value: s.Timing.ConnectTimeout.Std().String()}
	}
	if s.Teleprompter && s.Script == "" {
		return &ValidationError{Field: "spec.teleprompter", Message: "teleprompter mode needs a script"}
	}
	if s.Logging != nil {
		if err := s.Logging.Validate(); err != nil {
			return err
		}
	}
	return nil
}
