package reporter

import (
	"time"

	"github.com/konveyor/progress-bridge/progress"
)

const timeFormat = "15:04:05"

// normalize updates the event before it is rendered.
// - Sets Timestamp to now if zero
// - Clamps Percent to [0, 100] and zeroes it for indeterminate indicators
func normalize(e *progress.Event) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	switch {
	case e.Indeterminate:
		e.Percent = 0
	case e.Percent < 0:
		e.Percent = 0
	case e.Percent > 100:
		e.Percent = 100
	}
}

func label(e progress.Event) string {
	if e.Title != "" {
		return e.Title
	}
	if e.Token != "" {
		return e.Token
	}
	return e.ID
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
