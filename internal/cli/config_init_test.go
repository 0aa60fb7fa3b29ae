package cli_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/clothgen/internal/cli"
	"github.com/rshade/clothgen/internal/config"
)

// setupCLITest isolates the config home and quiets logging.
func setupCLITest(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv(config.EnvHome, home)
	t.Setenv(config.EnvLogLevel, "error")
	t.Setenv(config.EnvProjectDir, "")
	t.Setenv(config.EnvOutputDir, "")
	t.Setenv(config.EnvWorkers, "")
	return home
}

// executeRoot runs the root command with args and returns both streams.
func executeRoot(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := cli.NewRootCmd("test")
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestConfigInit_Global(t *testing.T) {
	home := setupCLITest(t)

	out, _, err := executeRoot(t, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration initialized at")

	path := filepath.Join(home, "config.yaml")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "version: "+config.CurrentVersion)
}

func TestConfigInit_RefusesOverwrite(t *testing.T) {
	setupCLITest(t)

	_, _, err := executeRoot(t, "config", "init")
	require.NoError(t, err)

	_, _, err = executeRoot(t, "config", "init")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	_, _, err = executeRoot(t, "config", "init", "--force")
	require.NoError(t, err)
}

func TestConfigInit_Project(t *testing.T) {
	setupCLITest(t)
	dir := t.TempDir()

	_, _, err := executeRoot(t, "config", "init", "--project", dir)
	require.NoError(t, err)

	_, statErr := os.Stat(filepath.Join(dir, config.ProjectDirName, "config.yaml"))
	require.NoError(t, statErr)
}

func TestConfigShow_PrintsEffectiveConfig(t *testing.T) {
	home := setupCLITest(t)
	require.NoError(t, os.WriteFile(filepath.Join(home, "config.yaml"),
		[]byte("version: 1.0.0\ngenerator:\n  output_dir: Build\n  clothing_type: hat\n"), 0o600))

	out, _, err := executeRoot(t, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "# loaded from")
	assert.Contains(t, out, "clothing_type: hat")
	assert.Contains(t, out, "output_dir: Build")
}

func TestRoot_InvalidConfigFile(t *testing.T) {
	setupCLITest(t)
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: 9.0.0\n"), 0o600))

	_, _, err := executeRoot(t, "--config", path, "config", "show")
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestVersionCmd(t *testing.T) {
	setupCLITest(t)

	out, _, err := executeRoot(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "clothgen test")
	assert.Contains(t, out, "commit")
}
