package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/mchmarny/biascheck/pkg/score"
	"github.com/zalando/go-keyring"
)

const (
	// APIKeyEnvVar holds the Perspective API key.
	APIKeyEnvVar = "PERSPECTIVE_API_KEY"

	// KeyringService and KeyringUser locate the key in the OS keychain.
	KeyringService = "biascheck"
	KeyringUser    = "perspective_api_key"
)

// ResolveAPIKey returns the API key from the environment, or from the OS
// keychain when the variable is unset. The keychain is only read here.
// A missing key is a score.ErrConfiguration.
func ResolveAPIKey() (string, error) {
	if k := strings.TrimSpace(os.Getenv(APIKeyEnvVar)); k != "" {
		slog.Debug("api key resolved", "source", "env")
		return k, nil
	}

	k, err := keyring.Get(KeyringService, KeyringUser)
	if err == nil && strings.TrimSpace(k) != "" {
		slog.Debug("api key resolved", "source", "keychain")
		return strings.TrimSpace(k), nil
	}
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		slog.Debug("keychain unavailable", "error", err)
	}

	return "", score.ConfigurationError(fmt.Errorf(
		"no API key: set %s or store it in the OS keychain (service: %s, user: %s)",
		APIKeyEnvVar, KeyringService, KeyringUser))
}

// Redact masks all but the last four characters of a secret.
func Redact(secret string) string {
	const visible = 4
	if len(secret) <= visible {
		return strings.Repeat("*", len(secret))
	}
	return strings.Repeat("*", len(secret)-visible) + secret[len(secret)-visible:]
}
