package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PDS_HANDLE", "alice.test")
	t.Setenv("PDS_PASSWORD", "app-password")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "8081", cfg.Port)
	assert.Equal(t, "http://localhost:3001", cfg.PDSURL)
	assert.Equal(t, "quill", cfg.NatsSubjectPrefix)
	assert.Equal(t, 100, cfg.RateLimitRequests)
	assert.Equal(t, time.Minute, cfg.RateLimitWindow)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 10*time.Minute, cfg.SweepInterval)
	assert.Empty(t, cfg.NatsURL)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_EnvFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "test.env")
	content := "PDS_DID=did:plc:file\nPDS_ACCESS_TOKEN=tok\nAPPVIEW_PORT=9000\nALLOWED_ORIGINS=https://a.example, https://b.example\n"
	require.NoError(t, os.WriteFile(file, []byte(content), 0o600))

	// the environment wins over the file
	t.Setenv("APPVIEW_PORT", "9100")
	t.Setenv("APP_ENV", "production")
	// registered so t cleans up the values godotenv sets
	t.Setenv("PDS_DID", "")
	t.Setenv("PDS_ACCESS_TOKEN", "")
	t.Setenv("ALLOWED_ORIGINS", "")
	require.NoError(t, os.Unsetenv("PDS_DID"))
	require.NoError(t, os.Unsetenv("PDS_ACCESS_TOKEN"))
	require.NoError(t, os.Unsetenv("ALLOWED_ORIGINS"))

	cfg, err := Load(file)
	require.NoError(t, err)

	assert.Equal(t, "9100", cfg.Port)
	assert.Equal(t, "did:plc:file", cfg.PDSDID)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.True(t, cfg.IsProduction())
}

func TestLoad_RequiresCredentials(t *testing.T) {
	for _, key := range []string{"PDS_HANDLE", "PDS_PASSWORD", "PDS_DID", "PDS_ACCESS_TOKEN"} {
		t.Setenv(key, "")
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PDS credentials required")
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("PDS_HANDLE", "alice.test")
	t.Setenv("PDS_PASSWORD", "pw")
	t.Setenv("RATE_LIMIT_WINDOW", "soon")

	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RATE_LIMIT_WINDOW")
}

func TestGetEnvInt(t *testing.T) {
	t.Setenv("QUILL_TEST_INT", "42")
	assert.Equal(t, 42, getEnvInt("QUILL_TEST_INT", 1))

	t.Setenv("QUILL_TEST_INT", "many")
	assert.Equal(t, 1, getEnvInt("QUILL_TEST_INT", 1))
}
