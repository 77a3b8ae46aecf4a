package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withSecretsDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	prev := SecretsDir
	SecretsDir = dir
	t.Cleanup(func() { SecretsDir = prev })
	return dir
}

func TestReadSecret_TrimsValue(t *testing.T) {
	dir := withSecretsDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "gemini_api_key"), []byte("  key-123\n"), 0o600))

	value, err := ReadSecret("gemini_api_key")
	require.NoError(t, err)
	assert.Equal(t, "key-123", value)
}

func TestReadSecret_EmptyFile(t *testing.T) {
	dir := withSecretsDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "empty"), []byte("   "), 0o600))

	_, err := ReadSecret("empty")
	assert.ErrorIs(t, err, ErrSecretNotFound)
}

func TestReadSecretOrEnv(t *testing.T) {
	withSecretsDir(t)

	t.Run("falls back to env", func(t *testing.T) {
		t.Setenv("ELEVENLABS_API_KEY", "from-env")
		value, err := ReadSecretOrEnv("elevenlabs_api_key", "ELEVENLABS_API_KEY")
		require.NoError(t, err)
		assert.Equal(t, "from-env", value)
	})

	t.Run("missing everywhere", func(t *testing.T) {
		t.Setenv("ELEVENLABS_API_KEY", "")
		_, err := ReadSecretOrEnv("elevenlabs_api_key", "ELEVENLABS_API_KEY")
		assert.ErrorIs(t, err, ErrSecretNotFound)
	})
}
