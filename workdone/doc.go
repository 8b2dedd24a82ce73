// Package workdone bridges a language server's work-done progress stream to
// live, cancellable progress indicators.
//
// A language server announces a unit of work with a token, then pushes Begin,
// Report and End notifications for it, possibly out of order and possibly
// without the create handshake. The Registry demultiplexes those
// notifications by token into Sessions. Each Session owns a FIFO inbox that
// is written by the transport goroutine and drained by exactly one driver,
// which runs as a background task on a Host and mirrors the session onto an
// Indicator.
//
// Cancellation flows in both directions:
//
//   - a user cancelling an Indicator makes the driver cancel its Session,
//     which sends a single best-effort cancel request back to the server
//     through the Canceller;
//   - CancelAllSessions and Dispose flip every Session to cancelled, and
//     each driver notices within one poll interval.
//
// Basic usage:
//
//	registry := workdone.NewRegistry(host,
//	    workdone.WithCanceller(client),
//	    workdone.WithLogger(log),
//	    workdone.WithNamespace("gopls"),
//	)
//	defer registry.Dispose(ctx)
//
//	// from the transport goroutine
//	registry.CreateSession("T1")
//	registry.NotifyProgress("T1", workdone.Begin{Title: "Indexing", Cancellable: true})
//	registry.NotifyProgress("T1", workdone.Report{Percentage: workdone.Percent(50)})
//	registry.NotifyProgress("T1", workdone.End{})
//
// Nothing in this package returns protocol tolerance errors to the caller:
// malformed messages and messages for unknown tokens are dropped.
package workdone
