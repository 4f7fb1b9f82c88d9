package credentials

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// gcpTokenRefreshBuffer is the time before token expiration to trigger a refresh.
const gcpTokenRefreshBuffer = 5 * time.Minute

// Scopes requested for Gemini access with Google credentials.
var gcpScopes = []string{
	"https://www.googleapis.com/auth/cloud-platform",
	"https://www.googleapis.com/auth/generative-language",
}

// GCPCredential implements OAuth2 bearer-token authentication.
type GCPCredential struct {
	tokenSource oauth2.TokenSource
	mu          sync.RWMutex
	cachedToken *oauth2.Token
}

// NewGCPCredential creates a credential using Application Default Credentials.
// This supports Workload Identity, service account keys, and gcloud auth.
func NewGCPCredential(ctx context.Context) (*GCPCredential, error) {
	tokenSource, err := google.DefaultTokenSource(ctx, gcpScopes...)
	if err != nil {
		return nil, fmt.Errorf("failed to create token source: %w", err)
	}
	return NewTokenSourceCredential(tokenSource), nil
}

// NewGCPCredentialWithServiceAccount creates a credential from a service account key file.
func NewGCPCredentialWithServiceAccount(ctx context.Context, keyFile, configDir string) (*GCPCredential, error) {
	data, err := readCredentialFile(keyFile, configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read service account key: %w", err)
	}

	config, err := google.JWTConfigFromJSON([]byte(data), gcpScopes...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse service account key: %w", err)
	}
	return NewTokenSourceCredential(config.TokenSource(ctx)), nil
}

// NewTokenSourceCredential wraps an arbitrary token source.
func NewTokenSourceCredential(ts oauth2.TokenSource) *GCPCredential {
	return &GCPCredential{tokenSource: ts}
}

// Apply adds the OAuth2 token to the request.
func (c *GCPCredential) Apply(ctx context.Context, req *http.Request) error {
	token, err := c.getToken(ctx)
	if err != nil {
		return fmt.Errorf("failed to get GCP token: %w", err)
	}
	token.SetAuthHeader(req)
	return nil
}

// Type returns "gcp".
func (c *GCPCredential) Type() string {
	return "gcp"
}

// getToken retrieves the current OAuth2 token, refreshing if necessary.
func (c *GCPCredential) getToken(_ context.Context) (*oauth2.Token, error) {
	c.mu.RLock()
	if c.cachedToken != nil && c.cachedToken.Valid() {
		token := c.cachedToken
		c.mu.RUnlock()
		return token, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	// Double-check after acquiring write lock
	if c.cachedToken != nil && c.cachedToken.Valid() {
		return c.cachedToken, nil
	}

	token, err := c.tokenSource.Token()
	if err != nil {
		return nil, err
	}

	if token.Expiry.After(time.Now().Add(gcpTokenRefreshBuffer)) {
		c.cachedToken = token
	}
	return token, nil
}
