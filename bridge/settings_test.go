package bridge

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSettings(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadSettings(t *testing.T) {
	path := writeSettings(t, `
namespace: java
pollInterval: 250ms
throttleInterval: 1s
server:
  lspServerName: jdtls
  lspServerPath: /opt/jdtls/bin/jdtls
  lspServerArgs: ["-data", "/tmp/ws"]
  workspaceFolders: [/src/app]
  initializationOptions: '{"bundles":[]}'
`)
	s, err := LoadSettings(path)
	require.NoError(t, err)
	require.NotNil(t, s.Namespace)
	assert.Equal(t, "java", *s.Namespace)
	assert.Equal(t, 250*time.Millisecond, s.PollInterval)
	assert.Equal(t, time.Second, s.ThrottleInterval)

	cfg, err := s.ServerConfig()
	require.NoError(t, err)
	assert.Equal(t, "jdtls", cfg.LspServerName)
	assert.Equal(t, "/opt/jdtls/bin/jdtls", cfg.LspServerPath)
	assert.Equal(t, []string{"-data", "/tmp/ws"}, cfg.LspServerArgs)
	assert.Equal(t, []string{"/src/app"}, cfg.WorkspaceFolders)
	assert.Equal(t, `{"bundles":[]}`, cfg.InitializationOptions)
}

func TestLoadSettings_Empty(t *testing.T) {
	s, err := LoadSettings(writeSettings(t, ""))
	require.NoError(t, err)
	assert.Nil(t, s.Namespace)

	cfg, err := s.ServerConfig()
	require.NoError(t, err)
	assert.Empty(t, cfg.LspServerPath)
}

func TestLoadSettings_Errors(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		wantErr string
	}{
		{
			name:    "missing file",
			path:    filepath.Join(t.TempDir(), "missing.yaml"),
			wantErr: "unable to read settings file",
		},
		{
			name:    "invalid yaml",
			path:    writeSettings(t, "server: [unterminated"),
			wantErr: "unable to parse settings file",
		},
		{
			name:    "bad duration",
			path:    writeSettings(t, "pollInterval: soon"),
			wantErr: "unable to parse settings file",
		},
		{
			name:    "negative interval",
			path:    writeSettings(t, "throttleInterval: -1s"),
			wantErr: "must not be negative",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadSettings(tt.path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
