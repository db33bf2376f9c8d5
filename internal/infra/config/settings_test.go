package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSettings_Defaults(t *testing.T) {
	cfg, err := LoadSettings(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "claude-cli", cfg.Agent())
	assert.Equal(t, "claude", cfg.AgentBin())
	assert.Equal(t, 600, cfg.TimeoutSec())
	assert.Equal(t, "file", cfg.CheckpointBackend())
	assert.Equal(t, 200, cfg.MaxTurns())
	assert.False(t, cfg.PublishEnabled())
	assert.Equal(t, "warn", cfg.StderrLevel())
	assert.Equal(t, "default", cfg.ConfigSource())
}

func TestLoadSettings_FromJSON(t *testing.T) {
	dir := t.TempDir()
	content := `{
  "agent": "mock",
  "timeout_sec": 30,
  "checkpoint_backend": "sqlite",
  "publish_enabled": true,
  "github_owner": "acme",
  "github_repo": "widgets",
  "stderr_level": "debug"
}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "setting.json"), []byte(content), 0o644))

	cfg, err := LoadSettings(dir)
	require.NoError(t, err)

	assert.Equal(t, "mock", cfg.Agent())
	assert.Equal(t, 30, cfg.TimeoutSec())
	assert.Equal(t, "sqlite", cfg.CheckpointBackend())
	assert.True(t, cfg.PublishEnabled())
	assert.Equal(t, "acme", cfg.GitHubOwner())
	assert.Equal(t, "debug", cfg.StderrLevel())
	assert.Equal(t, "json", cfg.ConfigSource())
	assert.Equal(t, filepath.Join(dir, "setting.json"), cfg.SettingPath())
}

func TestLoadSettings_JSONBeatsEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "setting.json"),
		[]byte(`{"agent": "mock"}`), 0o644))
	t.Setenv("CRAFTFLOW_AGENT", "claude-api")
	t.Setenv("CRAFTFLOW_MAX_TURNS", "50")

	cfg, err := LoadSettings(dir)
	require.NoError(t, err)

	assert.Equal(t, "mock", cfg.Agent(), "setting.json wins over ENV")
	assert.Equal(t, 50, cfg.MaxTurns(), "ENV fills fields the file left out")
}

func TestLoadSettings_TokenOnlyFromEnv(t *testing.T) {
	dir := t.TempDir()
	// A token in setting.json is an unknown field from the loader's
	// point of view and must be ignored.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "setting.json"),
		[]byte(`{"github_token": "leaked"}`), 0o644))
	t.Setenv("CRAFTFLOW_GITHUB_TOKEN", "from-env")

	cfg, err := LoadSettings(dir)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.GitHubToken())
}

func TestLoadSettings_MalformedJSONFails(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "setting.json"),
		[]byte(`{not json`), 0o644))

	_, err := LoadSettings(dir)
	assert.Error(t, err)
}
