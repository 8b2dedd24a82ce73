package main

import (
	"context"
	"fmt"
	stdlog "log"
	"os"
	"time"

	"github.com/go-logr/stdr"
	"github.com/konveyor/progress-bridge/bridge"
	"github.com/konveyor/progress-bridge/lsp/client"
	"github.com/konveyor/progress-bridge/lsp/fakeserver"
	"github.com/konveyor/progress-bridge/lsp/protocol"
	"github.com/konveyor/progress-bridge/progress"
	"github.com/konveyor/progress-bridge/progress/reporter"
	"github.com/konveyor/progress-bridge/workdone"
	"github.com/spf13/cobra"
)

// Demo program that drives the bridge with a scripted in-process language
// server: two indexing jobs run side by side and the user cancels the second.
func main() {
	var verbosity int
	var format string
	cmd := &cobra.Command{
		Use:   "progress-demo",
		Short: "Run the bridge against a scripted language server",
		Run: func(c *cobra.Command, args []string) {
			demo(verbosity, format)
		},
	}
	cmd.Flags().IntVar(&verbosity, "verbose", 0, "level for logging output")
	cmd.Flags().StringVar(&format, "progress-format", "bar", "format for progress output: bar, text, or json")
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func demo(verbosity int, format string) {
	stdr.SetVerbosity(verbosity)
	log := stdr.New(stdlog.New(os.Stderr, "", stdlog.LstdFlags))

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	server := fakeserver.New(log.WithName("fakeserver"))
	server.OnCancel(func(token protocol.ProgressToken) {
		fmt.Fprintf(os.Stderr, "server: cancel received for %v\n", token.Value)
		server.End(ctx, token.Value)
	})

	b, err := bridge.New(
		bridge.WithLogger(log),
		bridge.WithContext(ctx),
		bridge.WithServerConfig(client.Config{LspServerName: "demo"}),
		bridge.WithDialer(server),
		bridge.WithReporters(selectReporter(format)),
	)
	if err != nil {
		log.Error(err, "unable to create bridge")
		os.Exit(1)
	}
	if err := b.Start(); err != nil {
		log.Error(err, "unable to start bridge")
		os.Exit(1)
	}

	fmt.Println("=== Work-done Progress Demo ===")
	if err := script(ctx, server, b); err != nil {
		log.Error(err, "demo script failed")
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer stopCancel()
	if err := b.Stop(stopCtx); err != nil {
		log.Error(err, "bridge did not stop cleanly")
	}
	fmt.Println("\n=== Demo Complete ===")
}

func script(ctx context.Context, server *fakeserver.Server, b *bridge.Bridge) error {
	if err := server.WaitInitialized(ctx); err != nil {
		return err
	}

	// token 1 is created first, as a well-behaved server would
	if err := server.Create(ctx, 1); err != nil {
		return err
	}
	if err := server.Begin(ctx, 1, "Indexing packages", false, workdone.Percent(0), ""); err != nil {
		return err
	}
	// the second job skips create and reports indeterminate progress
	if err := server.Begin(ctx, "deps", "Resolving dependencies", true, nil, "fetching"); err != nil {
		return err
	}

	const packages = 30
	for i := 1; i <= packages; i++ {
		time.Sleep(80 * time.Millisecond)
		pct := uint32(i * 100 / packages)
		if err := server.Report(ctx, 1, workdone.Percent(pct), fmt.Sprintf("package %d/%d", i, packages)); err != nil {
			return err
		}
		if i%5 == 0 {
			if err := server.Report(ctx, "deps", nil, fmt.Sprintf("module %d", i/5)); err != nil {
				return err
			}
		}
		if i == packages/2 {
			// the user presses cancel on every cancellable indicator
			b.CancelAll()
		}
	}
	return server.End(ctx, 1)
}

func selectReporter(format string) progress.Reporter {
	switch format {
	case "json":
		return reporter.NewJSONReporter(os.Stdout)
	case "text":
		return reporter.NewTextReporter(os.Stdout)
	default:
		return reporter.NewProgressBarReporter(os.Stdout)
	}
}
