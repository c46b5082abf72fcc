package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: ":9090"
  token: secret
  hooks:
    on_started: ["echo started"]
player:
  media: /videos/demo.mp4
  subtitle: /videos/demo.srt
  autostart: true
  options: ["--no-audio", "--loop"]
backend:
  type: simulated
  settings:
    duration_ms: 5000
    tick_ms: 100
log:
  level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.True(t, cfg.AuthEnabled())
	assert.Equal(t, []string{"echo started"}, cfg.Server.Hooks.OnStarted)
	assert.Empty(t, cfg.Server.Hooks.OnStopped)
	assert.Equal(t, "/videos/demo.mp4", cfg.Player.Media)
	assert.True(t, cfg.Player.Autostart)
	assert.Equal(t, []string{"--no-audio", "--loop"}, cfg.Player.Options)
	assert.Equal(t, "simulated", cfg.Backend.Type)
	assert.Equal(t, 5000, cfg.Backend.Settings["duration_ms"])
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "stdout", cfg.Log.Output)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.False(t, cfg.AuthEnabled())
	assert.Equal(t, "simulated", cfg.Backend.Type)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_EnvOverride(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: ":9090"
player:
  media: /videos/a.mp4
`)
	t.Setenv("PLAYERD_SERVER_TOKEN", "from-env")
	t.Setenv("PLAYERD_PLAYER_MEDIA", "http://example.com/b.mp4")
	t.Setenv("PLAYERD_PLAYER_OPTIONS", "--x,--y")
	t.Setenv("PLAYERD_LOG_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr, "unset variables keep file values")
	assert.Equal(t, "from-env", cfg.Server.Token)
	assert.Equal(t, "http://example.com/b.mp4", cfg.Player.Media)
	assert.Equal(t, []string{"--x", "--y"}, cfg.Player.Options)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		errMsg string
	}{
		{
			name:   "malformed yaml",
			body:   "server: [",
			errMsg: "failed to parse config file",
		},
		{
			name: "autostart without media",
			body: `
player:
  autostart: true
`,
			errMsg: "Media",
		},
		{
			name: "unknown log level",
			body: `
log:
  level: loud
`,
			errMsg: "Level",
		},
		{
			name: "file output without path",
			body: `
log:
  output: file
`,
			errMsg: "File",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
