package bridge

import (
	"time"

	"github.com/konveyor/progress-bridge/lsp/client"
	"github.com/spf13/cobra"
)

// Config holds the command line settings of a bridge. Flags that are set
// override the settings file.
//
//	config := &bridge.Config{}
//	cmd := &cobra.Command{
//	    RunE: func(cmd *cobra.Command, args []string) error {
//	        b, err := bridge.New(config.ToOptions()...)
//	        ...
//	    },
//	}
//	config.AddFlags(cmd)
type Config struct {
	// Settings is the path to a YAML settings file.
	Settings string

	// ServerName names the server in logs and is the default namespace.
	ServerName string

	// ServerPath is the language server binary to spawn.
	ServerPath string

	// ServerArgs are passed to the spawned server.
	ServerArgs []string

	// ServerAddress is host:port of a server already listening. Takes
	// precedence over ServerPath.
	ServerAddress string

	// Workspaces are the workspace folders sent in initialize.
	Workspaces []string

	// Namespace prefixes indicator titles. Empty defers to the settings file,
	// then to the server name.
	Namespace string

	PollInterval     time.Duration
	ThrottleInterval time.Duration
}

func (c *Config) AddFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&c.Settings, "settings", "", "Path to a YAML settings file")
	cmd.Flags().StringVar(&c.ServerName, "server-name", "", "Name of the language server, used in logs and as the default namespace")
	cmd.Flags().StringVar(&c.ServerPath, "server-path", "", "Path to the language server binary")
	cmd.Flags().StringArrayVar(&c.ServerArgs, "server-arg", []string{}, "Argument passed to the language server (can be specified multiple times)")
	cmd.Flags().StringVar(&c.ServerAddress, "server-address", "", "host:port of a language server listening on TCP")
	cmd.Flags().StringSliceVar(&c.Workspaces, "workspace", []string{}, "Workspace folder (can be specified multiple times)")
	cmd.Flags().StringVar(&c.Namespace, "namespace", "", "Prefix for indicator titles (defaults to the server name)")
	cmd.Flags().DurationVar(&c.PollInterval, "poll-interval", 0, "Longest a session waits before checking for cancellation (default 200ms)")
	cmd.Flags().DurationVar(&c.ThrottleInterval, "throttle-interval", 0, "Minimum time between reported updates of one indicator (default 500ms)")
}

// ToOptions converts the config to bridge options.
func (c *Config) ToOptions() []Option {
	opts := []Option{}
	if c.Settings != "" {
		opts = append(opts, WithSettingsFile(c.Settings))
	}
	if c.ServerPath != "" || c.ServerAddress != "" {
		opts = append(opts, WithServerConfig(client.Config{
			LspServerName:    c.ServerName,
			LspServerPath:    c.ServerPath,
			LspServerArgs:    c.ServerArgs,
			LspServerAddress: c.ServerAddress,
		}))
	}
	if len(c.Workspaces) > 0 {
		opts = append(opts, WithWorkspaceFolders(c.Workspaces...))
	}
	if c.Namespace != "" {
		opts = append(opts, WithNamespace(c.Namespace))
	}
	if c.PollInterval > 0 {
		opts = append(opts, WithPollInterval(c.PollInterval))
	}
	if c.ThrottleInterval > 0 {
		opts = append(opts, WithThrottleInterval(c.ThrottleInterval))
	}
	return opts
}
