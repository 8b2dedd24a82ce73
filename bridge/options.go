package bridge

import (
	"context"
	"fmt"
	"time"

	"github.com/go-logr/logr"
	"github.com/konveyor/progress-bridge/lsp/client"
	"github.com/konveyor/progress-bridge/progress"
	"github.com/konveyor/progress-bridge/workdone"
)

type bridgeOptions struct {
	settingsFile     string
	server           *client.Config
	workspaces       []string
	namespace        *string
	pollInterval     time.Duration
	throttleInterval time.Duration
	reporters        []progress.Reporter
	progress         *progress.Progress
	collector        progress.Collector
	observers        []workdone.Observer
	dialer           client.Dialer
	log              logr.Logger
	ctx              context.Context
}

func WithLogger(log logr.Logger) Option {
	return func(opt *bridgeOptions) error {
		opt.log = log
		return nil
	}
}

func WithContext(ctx context.Context) Option {
	return func(opt *bridgeOptions) error {
		if ctx == nil {
			return fmt.Errorf("context must not be nil")
		}
		opt.ctx = ctx
		return nil
	}
}

// WithSettingsFile reads defaults from a YAML settings file. Other options
// override what the file sets.
func WithSettingsFile(path string) Option {
	return func(opt *bridgeOptions) error {
		opt.settingsFile = path
		return nil
	}
}

// WithServerConfig replaces the server section of the settings file.
func WithServerConfig(cfg client.Config) Option {
	return func(opt *bridgeOptions) error {
		opt.server = &cfg
		return nil
	}
}

// WithWorkspaceFolders replaces the server's workspace folders, whichever
// source the rest of the server config came from.
func WithWorkspaceFolders(folders ...string) Option {
	return func(opt *bridgeOptions) error {
		opt.workspaces = folders
		return nil
	}
}

// WithNamespace sets the prefix of every indicator title. An empty namespace
// disables the prefix.
func WithNamespace(namespace string) Option {
	return func(opt *bridgeOptions) error {
		opt.namespace = &namespace
		return nil
	}
}

func WithPollInterval(d time.Duration) Option {
	return func(opt *bridgeOptions) error {
		if d < 0 {
			return fmt.Errorf("poll interval must not be negative, got %s", d)
		}
		opt.pollInterval = d
		return nil
	}
}

func WithThrottleInterval(d time.Duration) Option {
	return func(opt *bridgeOptions) error {
		if d < 0 {
			return fmt.Errorf("throttle interval must not be negative, got %s", d)
		}
		opt.throttleInterval = d
		return nil
	}
}

// WithReporters adds reporters to the progress hub the bridge builds. It is
// ignored when WithProgress supplies a hub.
func WithReporters(reporters ...progress.Reporter) Option {
	return func(opt *bridgeOptions) error {
		opt.reporters = append(opt.reporters, reporters...)
		return nil
	}
}

func WithProgress(p *progress.Progress) Option {
	return func(opt *bridgeOptions) error {
		opt.progress = p
		return nil
	}
}

// WithCollector replaces the throttled collector indicators report into.
func WithCollector(c progress.Collector) Option {
	return func(opt *bridgeOptions) error {
		if c == nil {
			return fmt.Errorf("collector must not be nil")
		}
		opt.collector = c
		return nil
	}
}

func WithObserver(o workdone.Observer) Option {
	return func(opt *bridgeOptions) error {
		if o != nil {
			opt.observers = append(opt.observers, o)
		}
		return nil
	}
}

// WithDialer connects to the server through d instead of the dialer chosen
// from the server config.
func WithDialer(d client.Dialer) Option {
	return func(opt *bridgeOptions) error {
		opt.dialer = d
		return nil
	}
}
