package credentials

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/AltairaLabs/rehearsal/pkg/config"
)

// DefaultEnvVars are consulted, in order, when no explicit source is configured.
var DefaultEnvVars = []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"}

// ResolverConfig holds configuration for credential resolution.
type ResolverConfig struct {
	// CredentialConfig is the explicit credential configuration. Optional.
	CredentialConfig *config.CredentialConfig

	// ConfigDir is the base directory for resolving relative credential file paths.
	ConfigDir string
}

// Resolve resolves credentials according to the chain:
//  1. api_key (explicit value)
//  2. credential_file (read from file)
//  3. credential_env (read from environment variable)
//  4. service_account_file or adc (Google OAuth2)
//  5. GEMINI_API_KEY, then GOOGLE_API_KEY
//
// It returns ErrNoCredential when every source is empty.
func Resolve(ctx context.Context, cfg ResolverConfig) (Credential, error) {
	cc := cfg.CredentialConfig
	if cc == nil {
		cc = &config.CredentialConfig{}
	}

	switch {
	case cc.APIKey != "":
		return NewAPIKeyCredential(cc.APIKey), nil

	case cc.CredentialFile != "":
		key, err := readCredentialFile(cc.CredentialFile, cfg.ConfigDir)
		if err != nil {
			return nil, fmt.Errorf("failed to read credential file: %w", err)
		}
		if key == "" {
			return nil, fmt.Errorf("credential file %s is empty: %w", cc.CredentialFile, ErrNoCredential)
		}
		return NewAPIKeyCredential(key), nil

	case cc.CredentialEnv != "":
		key := os.Getenv(cc.CredentialEnv)
		if key == "" {
			return nil, fmt.Errorf("environment variable %s is not set: %w", cc.CredentialEnv, ErrNoCredential)
		}
		return NewAPIKeyCredential(key), nil

	case cc.ServiceAccountFile != "":
		return NewGCPCredentialWithServiceAccount(ctx, cc.ServiceAccountFile, cfg.ConfigDir)

	case cc.ADC:
		return NewGCPCredential(ctx)
	}

	if key := findDefaultEnvKey(); key != "" {
		return NewAPIKeyCredential(key), nil
	}
	return nil, ErrNoCredential
}

// findDefaultEnvKey looks for API keys in default environment variables.
func findDefaultEnvKey() string {
	for _, envVar := range DefaultEnvVars {
		if key := os.Getenv(envVar); key != "" {
			return key
		}
	}
	return ""
}

// readCredentialFile reads a secret from a file, resolving relative paths
// against configDir.
func readCredentialFile(path, configDir string) (string, error) {
	if !filepath.IsAbs(path) && configDir != "" {
		path = filepath.Join(configDir, path)
	}

	//nolint:gosec // G304: File path is from trusted configuration
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
