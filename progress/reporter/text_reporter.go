package reporter

import (
	"fmt"
	"io"
	"sync"

	"github.com/konveyor/progress-bridge/progress"
)

// TextReporter writes progress events as timestamped, human-readable lines.
//
// Example output:
//
//	[17:06:14] gopls: Indexing started (cancellable)
//	[17:06:15] gopls: Indexing 40.0% scanned 120 files
//	[17:06:17] gopls: Indexing done
//	[17:06:20] gopls: Loading packages cancelled
type TextReporter struct {
	writer io.Writer
	mu     sync.Mutex
}

// NewTextReporter creates a new text progress reporter that writes to w.
func NewTextReporter(w io.Writer) *TextReporter {
	return &TextReporter{
		writer: w,
	}
}

// Report writes one line per event. Updates with neither a percentage nor a
// message produce no output.
func (t *TextReporter) Report(event progress.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	normalize(&event)
	ts := event.Timestamp.Format(timeFormat)
	name := label(event)

	var output string
	switch event.Stage {
	case progress.StageStart:
		output = fmt.Sprintf("[%s] %s started", ts, name)
		if event.Cancellable {
			output += " (cancellable)"
		}
		output += "\n"
	case progress.StageUpdate:
		switch {
		case !event.Indeterminate:
			output = fmt.Sprintf("[%s] %s %.1f%%", ts, name, event.Percent)
			if event.Message != "" {
				output += " " + event.Message
			}
			output += "\n"
		case event.Message != "":
			output = fmt.Sprintf("[%s] %s %s\n", ts, name, event.Message)
		}
	case progress.StageFinish:
		output = fmt.Sprintf("[%s] %s done\n", ts, name)
	case progress.StageCancel:
		output = fmt.Sprintf("[%s] %s cancelled\n", ts, name)
	default:
		if event.Message != "" {
			output = fmt.Sprintf("[%s] %s\n", ts, event.Message)
		}
	}

	if output != "" {
		t.writer.Write([]byte(output))
	}
}
