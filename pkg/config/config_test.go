package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.Addr)
	require.Equal(t, "./data/skillwatch", cfg.DataDir)
	require.Equal(t, 48, cfg.MaxMemoryMB)
	require.Equal(t, "info", cfg.LogLevel)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SKILLWATCH_ADDR", ":9090")
	t.Setenv("SKILLWATCH_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.Addr)
	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, 48, cfg.MaxMemoryMB)
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("addr: \":7070\"\nmax_memory_mb: 128\n"), 0o644))

	t.Setenv("SKILLWATCH_CONFIG", path)
	t.Setenv("SKILLWATCH_ADDR", ":9090")

	cfg, err := Load()
	require.NoError(t, err)
	// Env wins over the file; file wins over defaults.
	require.Equal(t, ":9090", cfg.Addr)
	require.Equal(t, 128, cfg.MaxMemoryMB)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("SKILLWATCH_MAX_MEMORY_MB", "-1")
	_, err := Load()
	require.Error(t, err)
}
