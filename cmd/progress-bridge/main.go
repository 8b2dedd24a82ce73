package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	logrusr "github.com/bombsimon/logrusr/v3"
	"github.com/go-logr/logr"
	"github.com/konveyor/progress-bridge/bridge"
	"github.com/konveyor/progress-bridge/progress/reporter"
	"github.com/konveyor/progress-bridge/tracing"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const stopTimeout = 10 * time.Second

var (
	logLevel       int
	enableJaeger   bool
	jaegerEndpoint string
	progressOutput string
	progressFormat string
	metricsAddress string
)

func BridgeCmd() *cobra.Command {
	var errLog logr.Logger
	config := &bridge.Config{}

	rootCmd := &cobra.Command{
		Use:   "progress-bridge",
		Short: "Show a language server's work-done progress as indicators",
		PreRunE: func(c *cobra.Command, args []string) error {
			logrusErrLog := logrus.New()
			logrusErrLog.SetOutput(os.Stderr)
			errLog = logrusr.New(logrusErrLog)
			if err := validateFlags(config); err != nil {
				errLog.Error(err, "failed to validate flags")
				return err
			}
			return nil
		},
		RunE: func(c *cobra.Command, args []string) error {
			logrusLog := logrus.New()
			logrusLog.SetOutput(os.Stderr)
			logrusLog.SetFormatter(&logrus.TextFormatter{})
			// Adding 5 here to move logs to info level
			// setting verbose 1 -> V(2) logs show up
			logrusLog.SetLevel(logrus.Level(logLevel + 5))
			log := logrusr.New(logrusLog)

			ctx, cancelFunc := context.WithCancel(context.Background())
			defer cancelFunc()

			if enableJaeger {
				tp, err := tracing.InitTracerProvider(log, tracing.Options{
					EnableJaeger:   true,
					JaegerEndpoint: jaegerEndpoint,
				})
				if err != nil {
					errLog.Error(err, "failed to initialize tracing")
					return err
				}
				defer tracing.Shutdown(ctx, log, tp)
			}

			progressReporter, closeOutput, err := createProgressReporter(progressOutput, progressFormat)
			if err != nil {
				errLog.Error(err, "unable to create progress reporter")
				return err
			}
			defer closeOutput()

			registry := prometheus.NewRegistry()
			metrics, err := reporter.NewPrometheusReporter(registry)
			if err != nil {
				errLog.Error(err, "unable to register metrics")
				return err
			}

			opts := append(config.ToOptions(),
				bridge.WithLogger(log),
				bridge.WithContext(ctx),
				bridge.WithReporters(progressReporter, metrics),
				bridge.WithObserver(metrics),
			)
			b, err := bridge.New(opts...)
			if err != nil {
				errLog.Error(err, "unable to create bridge")
				return err
			}
			if err := b.Start(); err != nil {
				errLog.Error(err, "unable to start bridge")
				stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
				defer cancel()
				b.Stop(stopCtx)
				return err
			}
			log.Info("bridge started", "server", b.Client().Name())

			err = run(ctx, log, b, registry)

			stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
			defer cancel()
			if stopErr := b.Stop(stopCtx); stopErr != nil {
				errLog.Error(stopErr, "bridge did not stop cleanly")
			}
			return err
		},
	}
	rootCmd.SilenceUsage = true

	config.AddFlags(rootCmd)
	rootCmd.Flags().IntVar(&logLevel, "verbose", 0, "level for logging output")
	rootCmd.Flags().BoolVar(&enableJaeger, "enable-jaeger", false, "enable tracer exports to jaeger endpoint")
	rootCmd.Flags().StringVar(&jaegerEndpoint, "jaeger-endpoint", "http://localhost:14268/api/traces", "jaeger endpoint to collect tracing data")
	rootCmd.Flags().StringVar(&progressOutput, "progress-output", "stderr", "where to write progress events (stderr, stdout, or file path, empty to disable)")
	rootCmd.Flags().StringVar(&progressFormat, "progress-format", "bar", "format for progress output: bar, text, or json")
	rootCmd.Flags().StringVar(&metricsAddress, "metrics-address", "", "address to serve prometheus metrics on, e.g. :9090")

	return rootCmd
}

// run blocks until the server exits or the user interrupts twice. The first
// interrupt cancels every live indicator, the way pressing each cancel button
// would.
func run(ctx context.Context, log logr.Logger, b *bridge.Bridge, registry *prometheus.Registry) error {
	runCtx, stop := context.WithCancel(ctx)
	defer stop()

	sigs := make(chan os.Signal, 2)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigs)

	g, gctx := errgroup.WithContext(runCtx)
	if metricsAddress != "" {
		g.Go(func() error {
			return serveMetrics(gctx, log, metricsAddress, newMetricsRouter(registry, b))
		})
	}
	g.Go(func() error {
		defer stop()
		interrupted := false
		for {
			select {
			case sig := <-sigs:
				if sig == syscall.SIGTERM || interrupted {
					log.Info("stopping", "signal", sig.String())
					return nil
				}
				interrupted = true
				n := b.CancelAll()
				log.Info("cancel requested, interrupt again to exit", "indicators", n)
			case <-b.Done():
				if err := b.Client().Err(); err != nil {
					return fmt.Errorf("language server connection lost: %w", err)
				}
				log.Info("language server exited")
				return nil
			case <-gctx.Done():
				return nil
			}
		}
	})
	return g.Wait()
}

func validateFlags(config *bridge.Config) error {
	if config.Settings != "" {
		if _, err := os.Stat(config.Settings); err != nil {
			return fmt.Errorf("unable to find settings file")
		}
	} else if config.ServerPath == "" && config.ServerAddress == "" {
		return fmt.Errorf("must provide --settings, --server-path or --server-address")
	}
	switch progressFormat {
	case "bar", "text", "json":
	default:
		return fmt.Errorf("unknown progress format %q, must be one of bar, text or json", progressFormat)
	}
	return nil
}

func main() {
	if err := BridgeCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
