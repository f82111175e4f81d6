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
	// An empty file leaves every default in place
	configPath := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(configPath, []byte(""), 0o644))

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, "yt-dlp", cfg.Transcript.Tool)
	assert.Equal(t, 60*time.Second, cfg.Transcript.Timeout)
	assert.Equal(t, 20*time.Second, cfg.API.HTTPTimeout)
	assert.NotEmpty(t, cfg.Storage.Path)
	assert.NotEmpty(t, cfg.Player.DefaultOpener)
	assert.NotEmpty(t, cfg.UI.Colors.Primary)
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.toml")

	content := `
[storage]
path = "` + filepath.Join(dir, "custom.db") + `"
timeout = "2s"

[transcript]
tool = "youtube-dl"
timeout = "30s"

[ui.colors]
primary = "#FFFFFF"
`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o644))

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "custom.db"), cfg.Storage.Path)
	assert.Equal(t, 2*time.Second, cfg.Storage.Timeout)
	assert.Equal(t, "youtube-dl", cfg.Transcript.Tool)
	assert.Equal(t, 30*time.Second, cfg.Transcript.Timeout)
	assert.Equal(t, "#FFFFFF", cfg.UI.Colors.Primary)

	// Sections the file omits keep their defaults
	assert.Equal(t, 20*time.Second, cfg.API.HTTPTimeout)
}

func TestLoad_CredentialsFromEnv(t *testing.T) {
	t.Setenv("YOUCAP_API_KEY", "env-key")
	t.Setenv("GOOGLE_CLIENT_ID", "env-client-id")
	t.Setenv("GOOGLE_CLIENT_SECRET", "env-client-secret")

	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(configPath, []byte("[transcript]\ntool = \"yt-dlp\"\n"), 0o644))

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, "env-key", cfg.API.Key)
	assert.Equal(t, "env-client-id", cfg.API.ClientID)
	assert.Equal(t, "env-client-secret", cfg.API.ClientSecret)
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "data.db"), expandPath("~/data.db"))
	assert.Equal(t, "/absolute/path.db", expandPath("/absolute/path.db"))
	assert.Equal(t, "", expandPath(""))

	rel := expandPath("relative.db")
	assert.True(t, filepath.IsAbs(rel))
}

func TestGenerateDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	require.NoError(t, GenerateDefaultConfig(path))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "yt-dlp", cfg.Transcript.Tool)
	assert.Equal(t, 60*time.Second, cfg.Transcript.Timeout)
}
