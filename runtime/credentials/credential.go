// Package credentials authenticates requests to the Gemini endpoints.
// It supports a plain API key and Google OAuth2 access tokens.
package credentials

import (
	"context"
	"errors"
	"net/http"
)

// ErrNoCredential is returned when no credential source yields a value.
var ErrNoCredential = errors.New("no credential configured")

// Credential applies authentication to HTTP requests, including the
// handshake request of a websocket dial.
type Credential interface {
	// Apply adds authentication to the HTTP request.
	Apply(ctx context.Context, req *http.Request) error

	// Type returns the credential type identifier ("api_key" or "gcp").
	Type() string
}

// GoogleAPIKeyHeader is the header Gemini reads API keys from.
const GoogleAPIKeyHeader = "x-goog-api-key"

// APIKeyCredential implements header-based API key authentication.
type APIKeyCredential struct {
	apiKey     string
	headerName string
	prefix     string // Optional prefix like "Bearer "
}

// APIKeyOption configures an APIKeyCredential.
type APIKeyOption func(*APIKeyCredential)

// WithHeaderName sets the header name for the API key.
func WithHeaderName(name string) APIKeyOption {
	return func(c *APIKeyCredential) {
		c.headerName = name
	}
}

// WithBearerPrefix adds "Bearer " prefix to the API key.
func WithBearerPrefix() APIKeyOption {
	return func(c *APIKeyCredential) {
		c.prefix = "Bearer "
	}
}

// NewAPIKeyCredential creates a new API key credential.
// By default the key is sent verbatim in the x-goog-api-key header.
func NewAPIKeyCredential(apiKey string, opts ...APIKeyOption) *APIKeyCredential {
	c := &APIKeyCredential{
		apiKey:     apiKey,
		headerName: GoogleAPIKeyHeader,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Apply adds the API key to the request header.
func (c *APIKeyCredential) Apply(_ context.Context, req *http.Request) error {
	if c.apiKey != "" {
		req.Header.Set(c.headerName, c.prefix+c.apiKey)
	}
	return nil
}

// Type returns "api_key".
func (c *APIKeyCredential) Type() string {
	return "api_key"
}

// APIKey returns the raw API key value.
func (c *APIKeyCredential) APIKey() string {
	return c.apiKey
}

// Headers returns the headers cred would add to a request to url.
// It is used for websocket dials, where the handshake headers are passed
// to the dialer rather than set on a request the caller owns.
func Headers(ctx context.Context, cred Credential, url string) (http.Header, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, err
	}
	if err := cred.Apply(ctx, req); err != nil {
		return nil, err
	}
	return req.Header, nil
}
