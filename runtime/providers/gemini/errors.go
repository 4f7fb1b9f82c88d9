package gemini

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Common errors for Gemini endpoints.
var (
	// ErrAuthenticationFailed indicates a rejected credential.
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrRateLimitExceeded indicates too many requests.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")

	// ErrServiceUnavailable indicates a temporary service issue.
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrPolicyViolation indicates a content policy violation.
	ErrPolicyViolation = errors.New("policy violation")

	// ErrInvalidRequest indicates a malformed request.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrSetupRejected indicates the live endpoint did not acknowledge setup.
	ErrSetupRejected = errors.New("setup not acknowledged")
)

// APIError is the error object returned by Gemini REST endpoints.
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("gemini api error (code %d, status %s): %s", e.Code, e.Status, e.Message)
}

// IsAuthError returns true if the error is authentication-related.
func (e *APIError) IsAuthError() bool {
	return e.Code == http.StatusUnauthorized || e.Code == http.StatusForbidden
}

// IsPolicyViolation returns true if the error is a content policy violation.
func (e *APIError) IsPolicyViolation() bool {
	return e.Code == http.StatusBadRequest && e.Status == "POLICY_VIOLATION"
}

// ErrorResponse wraps an APIError in the REST error envelope.
type ErrorResponse struct {
	Error *APIError `json:"error"`
}

// ParseAPIError extracts the APIError from an error response body. Bodies
// without the envelope become an APIError carrying the raw text.
func ParseAPIError(statusCode int, body []byte) *APIError {
	var resp ErrorResponse
	if err := json.Unmarshal(body, &resp); err == nil && resp.Error != nil {
		if resp.Error.Code == 0 {
			resp.Error.Code = statusCode
		}
		return resp.Error
	}
	return &APIError{Code: statusCode, Status: http.StatusText(statusCode), Message: string(body)}
}

// ClassifyError wraps an API error with the matching sentinel.
func ClassifyError(apiErr *APIError) error {
	if apiErr == nil {
		return nil
	}

	switch {
	case apiErr.IsPolicyViolation():
		return fmt.Errorf("%w: %w", ErrPolicyViolation, apiErr)
	case apiErr.Code == http.StatusBadRequest:
		return fmt.Errorf("%w: %w", ErrInvalidRequest, apiErr)
	case apiErr.IsAuthError():
		return fmt.Errorf("%w: %w", ErrAuthenticationFailed, apiErr)
	case apiErr.Code == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %w", ErrRateLimitExceeded, apiErr)
	case apiErr.Code == http.StatusServiceUnavailable:
		return fmt.Errorf("%w: %w", ErrServiceUnavailable, apiErr)
	default:
		return apiErr
	}
}

// classifyStatus maps a bare handshake status code to a sentinel.
func classifyStatus(code int) error {
	return ClassifyError(&APIError{Code: code, Status: http.StatusText(code), Message: "live handshake rejected"})
}

// SafetyRating represents a content safety assessment.
type SafetyRating struct {
	Category    string `json:"category"`
	Probability string `json:"probability"`
}

// PromptFeedback contains safety ratings and a block reason.
type PromptFeedback struct {
	SafetyRatings []SafetyRating `json:"safetyRatings,omitempty"`
	BlockReason   string         `json:"blockReason,omitempty"`
}

// IsBlocked returns true if content was blocked by safety filters.
func (f *PromptFeedback) IsBlocked() bool {
	return f != nil && f.BlockReason != ""
}
