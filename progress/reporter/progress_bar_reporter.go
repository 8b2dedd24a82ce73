package reporter

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/konveyor/progress-bridge/progress"
)

// ProgressBarReporter draws the most recently updated indicator as a bar that
// is redrawn in place with carriage returns. Start and terminal events are
// printed as static lines above it.
//
// This reporter is meant for TTY output. For pipes, files and CI logs use
// TextReporter or JSONReporter instead.
//
// Example output:
//
//	gopls: Indexing started
//	gopls: Indexing  42% |██████████░░░░░░░░░░░░░░░| scanned 120 files (+1 more)
type ProgressBarReporter struct {
	writer      io.Writer
	mu          sync.Mutex
	barWidth    int
	lastLineLen int
	// live indicators by ID, used for the "+N more" suffix
	live map[string]struct{}
}

// NewProgressBarReporter creates a new progress bar reporter that writes to w.
// The bar is 25 cells wide.
func NewProgressBarReporter(w io.Writer) *ProgressBarReporter {
	return &ProgressBarReporter{
		writer:   w,
		barWidth: 25,
		live:     map[string]struct{}{},
	}
}

func (p *ProgressBarReporter) Report(event progress.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()

	normalize(&event)
	name := label(event)

	switch event.Stage {
	case progress.StageStart:
		p.live[event.ID] = struct{}{}
		p.clearLine()
		fmt.Fprintf(p.writer, "%s started\n", name)
		p.drawBar(event)
	case progress.StageUpdate:
		p.live[event.ID] = struct{}{}
		p.drawBar(event)
	case progress.StageFinish:
		delete(p.live, event.ID)
		p.clearLine()
		fmt.Fprintf(p.writer, "%s done\n", name)
	case progress.StageCancel:
		delete(p.live, event.ID)
		p.clearLine()
		fmt.Fprintf(p.writer, "%s cancelled\n", name)
	default:
		p.clearLine()
		if event.Message != "" {
			fmt.Fprintf(p.writer, "%s\n", event.Message)
		}
	}
}

// drawBar replaces the current bar line without a trailing newline.
func (p *ProgressBarReporter) drawBar(event progress.Event) {
	line := p.buildProgressBar(event)
	p.clearLine()
	fmt.Fprint(p.writer, line)
	p.lastLineLen = utf8.RuneCountInString(line)
}

// buildProgressBar returns a line like
// "gopls: Indexing  42% |██████████░░░░░░░░░░░░░░░| message (+1 more)".
// Indeterminate indicators get an empty bar and no percentage.
func (p *ProgressBarReporter) buildProgressBar(event progress.Event) string {
	filledWidth := int(float64(p.barWidth) * event.Percent / 100.0)
	if filledWidth > p.barWidth {
		filledWidth = p.barWidth
	}
	visualBar := fmt.Sprintf("|%s%s|",
		strings.Repeat("█", filledWidth),
		strings.Repeat("░", p.barWidth-filledWidth))

	percentStr := " ..."
	if !event.Indeterminate {
		percentStr = fmt.Sprintf("%3d%%", int(event.Percent))
	}

	line := fmt.Sprintf("%s %s %s", truncate(label(event), 40), percentStr, visualBar)
	if event.Message != "" {
		line += " " + truncate(event.Message, 50)
	}
	if others := len(p.live) - 1; others > 0 {
		line += fmt.Sprintf(" (+%d more)", others)
	}
	return line
}

// clearLine erases the bar line, if one is displayed.
func (p *ProgressBarReporter) clearLine() {
	if p.lastLineLen > 0 {
		fmt.Fprint(p.writer, "\r")
		fmt.Fprint(p.writer, strings.Repeat(" ", p.lastLineLen))
		fmt.Fprint(p.writer, "\r")
		p.lastLineLen = 0
	}
}
