// Package progress carries indicator events from the hosts that produce them
// to the reporters that render them.
//
// Producers report Events into a Collector. A Progress hub subscribes to any
// number of collectors and fans every event out to its reporters, each of
// which runs on its own worker goroutine behind a buffered channel, so a slow
// terminal never holds up the language server connection.
//
// # Basic Usage
//
//	col := collector.NewThrottledCollector(500 * time.Millisecond)
//	prog, _ := progress.New(
//	    progress.WithContext(ctx),
//	    progress.WithCollectors(col),
//	    progress.WithReporters(reporter.NewTextReporter(os.Stderr)),
//	)
//
//	col.Report(progress.Event{
//	    Stage: progress.StageStart,
//	    ID:    id,
//	    Title: "gopls: Indexing",
//	})
//
// # Stages
//
// Every indicator produces exactly one StageStart event, any number of
// StageUpdate events and then either StageFinish or StageCancel.
//
// # Thread Safety
//
// Collectors and reporters are safe for concurrent use.
package progress
