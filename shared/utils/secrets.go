package utils

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SecretsDir is where Docker mounts secrets. Tests override it.
var SecretsDir = "/run/secrets"

// ErrSecretNotFound is returned when neither the secret file nor the
// fallback environment variable provide a value.
var ErrSecretNotFound = errors.New("secret not found")

// ReadSecret reads a Docker secret by name.
func ReadSecret(secretName string) (string, error) {
	filePath := filepath.Join(SecretsDir, secretName)
	secretBytes, err := os.ReadFile(filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrSecretNotFound, filePath)
		}
		return "", fmt.Errorf("failed to read secret file %s: %w", filePath, err)
	}
	secret := strings.TrimSpace(string(secretBytes))
	if secret == "" {
		return "", fmt.Errorf("%w: secret file %s is empty", ErrSecretNotFound, filePath)
	}
	return secret, nil
}

// ReadSecretOrEnv prefers the Docker secret and falls back to the
// environment variable envName. For local runs with a plain .env file.
func ReadSecretOrEnv(secretName, envName string) (string, error) {
	secret, err := ReadSecret(secretName)
	if err == nil {
		return secret, nil
	}
	if !errors.Is(err, ErrSecretNotFound) {
		return "", err
	}
	if value := strings.TrimSpace(os.Getenv(envName)); value != "" {
		return value, nil
	}
	return "", fmt.Errorf("%w: %s (env %s)", ErrSecretNotFound, secretName, envName)
}
