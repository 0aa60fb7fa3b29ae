package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/clothgen/internal/config"
)

func TestGetConfigDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv(config.EnvHome, home)

	dir, err := config.GetConfigDir()
	require.NoError(t, err)
	assert.Equal(t, home, dir)

	path, err := config.GlobalConfigPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "config.yaml"), path)
}

func TestEnsureConfigDir(t *testing.T) {
	home := filepath.Join(t.TempDir(), "nested", "home")
	t.Setenv(config.EnvHome, home)

	require.NoError(t, config.EnsureConfigDir())
	info, err := os.Stat(home)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestGetCacheDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv(config.EnvHome, home)

	cfg := config.Default()
	dir, err := cfg.GetCacheDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "cache"), dir)

	cfg.Cache.Directory = "/custom/cache"
	dir, err = cfg.GetCacheDir()
	require.NoError(t, err)
	assert.Equal(t, "/custom/cache", dir)
}

func TestEnsureLogDir(t *testing.T) {
	cfg := config.Default()
	require.NoError(t, cfg.EnsureLogDir())

	cfg.Logging.File = filepath.Join(t.TempDir(), "logs", "clothgen.log")
	require.NoError(t, cfg.EnsureLogDir())
	_, err := os.Stat(filepath.Dir(cfg.Logging.File))
	require.NoError(t, err)
}

func TestNew_ReadsGlobalFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv(config.EnvHome, home)
	t.Setenv(config.EnvLogLevel, "")
	require.NoError(t, os.WriteFile(filepath.Join(home, "config.yaml"), []byte(`
logging:
  level: debug
`), 0o600))

	cfg := config.New()

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.Equal(t, filepath.Join(home, "config.yaml"), cfg.Path())
}
