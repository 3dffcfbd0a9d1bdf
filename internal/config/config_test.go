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
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, 90*time.Second, cfg.RoundDuration)
	assert.Equal(t, 10*time.Second, cfg.ArchiveTimeout)
	assert.Equal(t, int64(32768), cfg.ReadLimit)
	assert.Empty(t, cfg.DatabaseURL)
	assert.Nil(t, cfg.Origins())
	assert.False(t, cfg.Production())
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("ROUND_DURATION", "45s")
	t.Setenv("ALLOWED_ORIGINS", "example.com, *.example.org ,")
	t.Setenv("MESSAGE_RATE", "2.5")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.True(t, cfg.Production())
	assert.Equal(t, 45*time.Second, cfg.RoundDuration)
	assert.Equal(t, []string{"example.com", "*.example.org"}, cfg.Origins())
	assert.InDelta(t, 2.5, cfg.MessageRate, 1e-9)
}

func TestLoad_EnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("ARCHIVE_TIMEOUT=3s\n"), 0o600))
	t.Setenv("ARCHIVE_TIMEOUT", "")
	os.Unsetenv("ARCHIVE_TIMEOUT")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, cfg.ArchiveTimeout)
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("ROUND_DURATION", "-1s")
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}
