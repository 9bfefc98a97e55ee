package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cloudcmd.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
transport:
  max_frame_size: 2048
log:
  level: debug
  protocol_file: /tmp/capture.clog
metrics:
  listen: 127.0.0.1:9090
client:
  connect_timeout: 3s
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, uint32(2048), cfg.Transport.MaxFrameSize)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "/tmp/capture.clog", cfg.Log.ProtocolFile)
	assert.Equal(t, "127.0.0.1:9090", cfg.Metrics.Listen)
	assert.Equal(t, 3*time.Second, cfg.Client.ConnectTimeout)
	assert.Equal(t, Default().Server.Listen, cfg.Server.Listen, "unset keys keep their default")
}

func TestLoadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cloudcmd.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[log]
level = "warn"
protocol_file = "/tmp/capture.clog.zst"

[server]
listen = "127.0.0.1:4000"

[client]
connect_timeout = "250ms"
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "/tmp/capture.clog.zst", cfg.Log.ProtocolFile)
	assert.Equal(t, "127.0.0.1:4000", cfg.Server.Listen)
	assert.Equal(t, 250*time.Millisecond, cfg.Client.ConnectTimeout)
	assert.Equal(t, Default().Transport.MaxFrameSize, cfg.Transport.MaxFrameSize)

	require.NoError(t, os.WriteFile(path, []byte("[log\n"), 0o600))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad level", "log:\n  level: loud\n"},
		{"zero frame size", "transport:\n  max_frame_size: 0\n"},
		{"empty listen", "server:\n  listen: \"\"\n"},
		{"not yaml", "transport: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("WARN")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, lvl)

	lvl, err = ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, lvl)

	_, err = ParseLevel("trace")
	assert.Error(t, err)
}
