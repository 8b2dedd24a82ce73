// Package bridge wires a language server's work-done progress to a headless
// indicator host and the progress reporters.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/go-logr/logr"
	"github.com/konveyor/progress-bridge/indicator"
	"github.com/konveyor/progress-bridge/lsp/client"
	"github.com/konveyor/progress-bridge/progress"
	"github.com/konveyor/progress-bridge/progress/collector"
	"github.com/konveyor/progress-bridge/tracing"
	"github.com/konveyor/progress-bridge/workdone"
	"go.opentelemetry.io/otel/attribute"
)

type Option func(options *bridgeOptions) error

type Bridge struct {
	log       logr.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	progress  *progress.Progress
	collector progress.Collector
	host      *indicator.Host
	client    *client.Client
	registry  *workdone.Registry

	stopOnce sync.Once
	stopErr  error
}

// New builds a bridge. Nothing talks to the server until Start.
func New(options ...Option) (*Bridge, error) {
	validationErrors := []error{}
	opts := bridgeOptions{}
	for _, apply := range options {
		if err := apply(&opts); err != nil {
			validationErrors = append(validationErrors, err)
		}
	}
	if len(validationErrors) > 0 {
		return nil, fmt.Errorf("unable to get bridge: %w", errors.Join(validationErrors...))
	}
	log := opts.log
	if log.IsZero() {
		log = logr.Discard()
	}
	ctx := opts.ctx
	if ctx == nil {
		ctx = context.Background()
	}

	if err := opts.applySettings(log); err != nil {
		return nil, err
	}
	if opts.server == nil {
		return nil, fmt.Errorf("no language server configured")
	}
	if len(opts.workspaces) > 0 {
		opts.server.WorkspaceFolders = opts.workspaces
	}

	lsp, err := client.New(log, *opts.server, opts.dialer)
	if err != nil {
		return nil, fmt.Errorf("invalid server config: %w", err)
	}
	namespace := lsp.Name()
	if opts.namespace != nil {
		namespace = *opts.namespace
	}

	log.V(7).Info("setting up progress")
	ctx, cancel := context.WithCancel(ctx)
	if opts.progress == nil {
		opts.progress, err = progress.New(
			progress.WithContext(ctx),
			progress.WithReporters(opts.reporters...),
		)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("unable to create progress reporter: %w", err)
		}
	}
	if opts.collector == nil {
		opts.collector = collector.NewThrottledCollector(opts.throttleInterval)
	}
	opts.progress.Subscribe(opts.collector)

	host := indicator.NewHost(ctx, log.WithName("indicator"), opts.collector)
	registry := workdone.NewRegistry(host,
		workdone.WithCanceller(lsp),
		workdone.WithLogger(log.WithName("workdone")),
		workdone.WithNamespace(namespace),
		workdone.WithPollInterval(opts.pollInterval),
		workdone.WithObserver(workdone.Observers(opts.observers)),
	)

	return &Bridge{
		log:       log,
		ctx:       ctx,
		cancel:    cancel,
		progress:  opts.progress,
		collector: opts.collector,
		host:      host,
		client:    lsp,
		registry:  registry,
	}, nil
}

// applySettings fills whatever the options left unset from the settings
// file.
func (o *bridgeOptions) applySettings(log logr.Logger) error {
	if o.settingsFile == "" {
		return nil
	}
	s, err := LoadSettings(o.settingsFile)
	if err != nil {
		return err
	}
	log.V(3).Info("loaded settings", "path", o.settingsFile)
	if o.server == nil && len(s.Server) > 0 {
		cfg, err := s.ServerConfig()
		if err != nil {
			return err
		}
		o.server = &cfg
	}
	if o.namespace == nil {
		o.namespace = s.Namespace
	}
	if o.pollInterval == 0 {
		o.pollInterval = s.PollInterval
	}
	if o.throttleInterval == 0 {
		o.throttleInterval = s.ThrottleInterval
	}
	return nil
}

// Start connects to the server and begins routing its progress.
func (b *Bridge) Start() error {
	ctx, span := tracing.StartNewSpan(b.ctx, "bridge.start",
		attribute.String("server", b.client.Name()))
	defer span.End()
	if err := b.client.Start(ctx, b.registry); err != nil {
		span.RecordError(err)
		return fmt.Errorf("unable to start %s: %w", b.client.Name(), err)
	}
	return nil
}

// CancelAll presses cancel on every live cancellable indicator, as a user
// would, and returns how many it pressed. The drivers forward each cancel to
// the server.
func (b *Bridge) CancelAll() int {
	n := b.host.CancelAll()
	b.log.V(3).Info("cancelled indicators", "count", n)
	return n
}

// Stop disposes every session, waits for the drivers to exit, shuts the
// server down and flushes pending progress events. It is safe to call more
// than once.
func (b *Bridge) Stop(ctx context.Context) error {
	b.stopOnce.Do(func() {
		errs := []error{}
		b.registry.Dispose(ctx)
		if err := b.host.Wait(ctx); err != nil {
			errs = append(errs, fmt.Errorf("waiting for indicators: %w", err))
		}
		b.client.Stop(ctx)
		if err := b.progress.Drain(ctx); err != nil {
			errs = append(errs, fmt.Errorf("draining progress events: %w", err))
		}
		b.progress.Unsubscribe(b.collector)
		b.cancel()
		b.stopErr = errors.Join(errs...)
	})
	return b.stopErr
}

// Done is closed when the server connection ends for any reason.
func (b *Bridge) Done() <-chan struct{} {
	return b.client.Done()
}

func (b *Bridge) Registry() *workdone.Registry {
	return b.registry
}

func (b *Bridge) Host() *indicator.Host {
	return b.host
}

func (b *Bridge) Client() *client.Client {
	return b.client
}
