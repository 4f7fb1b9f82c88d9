// Package errors provides the error types shared by the rehearsal packages.
//
// ContextualError captures the component and operation that failed, an optional
// status code and details, and a Kind from the session error taxonomy:
//
//   - KindConfiguration: missing credential or media source; fatal, nothing was attempted
//   - KindTransport: the duplex connection failed or closed abnormally; fatal for the session
//   - KindDecode: one inbound payload could not be decoded; the payload is dropped
//   - KindReport: the post-session report could not be produced; no report is shown
//
// Each kind has a sentinel so callers can classify with errors.Is:
//
//	if errors.Is(err, pkgerrors.ErrDecode) { ... }
package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind classifies an error within the session taxonomy.
type Kind int

// Error kinds.
const (
	KindUnknown Kind = iota
	KindConfiguration
	KindTransport
	KindDecode
	KindReport
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindTransport:
		return "transport"
	case KindDecode:
		return "decode"
	case KindReport:
		return "report"
	default:
		return "unknown"
	}
}

// Fatal reports whether an error of this kind ends the session.
func (k Kind) Fatal() bool {
	return k == KindConfiguration || k == KindTransport
}

// Sentinels matched by ContextualError.Is for the corresponding kind.
var (
	ErrConfiguration = stderrors.New("configuration error")
	ErrTransport     = stderrors.New("transport error")
	ErrDecode        = stderrors.New("decode error")
	ErrReport        = stderrors.New("report error")
)

var sentinels = map[Kind]error{
	KindConfiguration: ErrConfiguration,
	KindTransport:     ErrTransport,
	KindDecode:        ErrDecode,
	KindReport:        ErrReport,
}

// ContextualError is a structured error describing where and why a failure happened.
type ContextualError struct {
	// Component identifies the package that produced the error (e.g. "session", "playback").
	Component string

	// Operation describes what was being done when the error occurred.
	Operation string

	// Kind places the error in the taxonomy.
	Kind Kind

	// StatusCode is an optional HTTP or websocket close code.
	StatusCode int

	// Details holds optional structured metadata about the error.
	Details map[string]any

	// Cause is the underlying error, if any.
	Cause error
}

// New creates an unclassified ContextualError.
func New(component, operation string, cause error) *ContextualError {
	return &ContextualError{
		Component: component,
		Operation: operation,
		Cause:     cause,
	}
}

// Configuration creates a KindConfiguration error.
func Configuration(component, operation string, cause error) *ContextualError {
	return &ContextualError{Component: component, Operation: operation, Kind: KindConfiguration, Cause: cause}
}

// Transport creates a KindTransport error.
func Transport(component, operation string, cause error) *ContextualError {
	return &ContextualError{Component: component, Operation: operation, Kind: KindTransport, Cause: cause}
}

// Decode creates a KindDecode error.
func Decode(component, operation string, cause error) *ContextualError {
	return &ContextualError{Component: component, Operation: operation, Kind: KindDecode, Cause: cause}
}

// Report creates a KindReport error.
func Report(component, operation string, cause error) *ContextualError {
	return &ContextualError{Component: component, Operation: operation, Kind: KindReport, Cause: cause}
}

// Error returns a human-readable representation of the error.
func (e *ContextualError) Error() string {
	base := fmt.Sprintf("[%s] %s", e.Component, e.Operation)

	if e.Kind != KindUnknown {
		base += " " + e.Kind.String() + " error"
	}

	if e.StatusCode != 0 {
		base += fmt.Sprintf(" (status %d)", e.StatusCode)
	}

	if e.Cause != nil {
		base += ": " + e.Cause.Error()
	}

	return base
}

// Unwrap returns the underlying cause, enabling use with errors.Is and errors.As.
func (e *ContextualError) Unwrap() error {
	return e.Cause
}

// Is matches the sentinel for e.Kind.
func (e *ContextualError) Is(target error) bool {
	s, ok := sentinels[e.Kind]
	return ok && target == s
}

// WithStatusCode sets the status code and returns e.
func (e *ContextualError) WithStatusCode(code int) *ContextualError {
	e.StatusCode = code
	return e
}

// WithDetails sets the details map and returns e.
func (e *ContextualError) WithDetails(details map[string]any) *ContextualError {
	e.Details = details
	return e
}

// KindOf returns the kind of the first ContextualError in err's chain.
func KindOf(err error) Kind {
	var ce *ContextualError
	if stderrors.As(err, &ce) {
		return ce.Kind
	}
	return KindUnknown
}

// IsFatal reports whether err ends the session.
func IsFatal(err error) bool {
	return KindOf(err).Fatal()
}
