package bridge

import (
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_AddFlags(t *testing.T) {
	config := &Config{}
	cmd := &cobra.Command{Use: "test"}

	config.AddFlags(cmd)

	for _, name := range []string{
		"settings", "server-name", "server-path", "server-arg", "server-address",
		"workspace", "namespace", "poll-interval", "throttle-interval",
	} {
		assert.NotNil(t, cmd.Flags().Lookup(name), name)
	}
}

func TestConfig_AddFlags_Binding(t *testing.T) {
	config := &Config{}
	cmd := &cobra.Command{Use: "test"}
	config.AddFlags(cmd)

	require.NoError(t, cmd.ParseFlags([]string{
		"--server-path", "/usr/bin/gopls",
		"--server-arg", "-rpc.trace",
		"--server-arg", "serve",
		"--workspace", "/src/a",
		"--workspace", "/src/b",
		"--poll-interval", "50ms",
	}))

	assert.Equal(t, "/usr/bin/gopls", config.ServerPath)
	assert.Equal(t, []string{"-rpc.trace", "serve"}, config.ServerArgs)
	assert.Equal(t, []string{"/src/a", "/src/b"}, config.Workspaces)
	assert.Equal(t, 50*time.Millisecond, config.PollInterval)
	assert.Zero(t, config.ThrottleInterval)
}

func TestConfig_ToOptions(t *testing.T) {
	config := &Config{
		Settings:         "settings.yaml",
		ServerName:       "gopls",
		ServerPath:       "/usr/bin/gopls",
		ServerArgs:       []string{"serve"},
		Workspaces:       []string{"/src"},
		Namespace:        "go",
		PollInterval:     time.Second,
		ThrottleInterval: 2 * time.Second,
	}

	options := config.ToOptions()
	assert.Len(t, options, 6)

	opts := &bridgeOptions{}
	for _, apply := range options {
		require.NoError(t, apply(opts))
	}
	assert.Equal(t, "settings.yaml", opts.settingsFile)
	require.NotNil(t, opts.server)
	assert.Equal(t, "gopls", opts.server.LspServerName)
	assert.Equal(t, "/usr/bin/gopls", opts.server.LspServerPath)
	assert.Equal(t, []string{"serve"}, opts.server.LspServerArgs)
	assert.Equal(t, []string{"/src"}, opts.workspaces)
	require.NotNil(t, opts.namespace)
	assert.Equal(t, "go", *opts.namespace)
	assert.Equal(t, time.Second, opts.pollInterval)
	assert.Equal(t, 2*time.Second, opts.throttleInterval)
}

func TestConfig_ToOptions_Empty(t *testing.T) {
	config := &Config{}
	assert.Empty(t, config.ToOptions())
}

func TestConfig_ServerOnlyFromFile(t *testing.T) {
	// workspaces alone must not replace the server section of the file
	config := &Config{Settings: "s.yaml", Workspaces: []string{"/src"}}

	opts := &bridgeOptions{}
	for _, apply := range config.ToOptions() {
		require.NoError(t, apply(opts))
	}
	assert.Nil(t, opts.server)
	assert.Equal(t, []string{"/src"}, opts.workspaces)
}
