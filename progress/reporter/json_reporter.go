package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/konveyor/progress-bridge/progress"
)

// JSONReporter writes progress events as newline-delimited JSON (NDJSON), one
// complete object per line.
//
// Example output:
//
//	{"timestamp":"2024-10-29T17:06:14Z","stage":"start","id":"5d1c...","token":"1","title":"gopls: Indexing","indeterminate":true}
//	{"timestamp":"2024-10-29T17:06:15Z","stage":"update","id":"5d1c...","token":"1","title":"gopls: Indexing","percent":40}
//	{"timestamp":"2024-10-29T17:06:17Z","stage":"finish","id":"5d1c...","token":"1","title":"gopls: Indexing","percent":100}
type JSONReporter struct {
	writer io.Writer
	mu     sync.Mutex
}

// NewJSONReporter creates a new JSON progress reporter that writes to w.
func NewJSONReporter(w io.Writer) *JSONReporter {
	return &JSONReporter{
		writer: w,
	}
}

// Report writes a progress event as a JSON line. Marshal and write errors are
// ignored so a broken sink never disturbs the bridge.
func (j *JSONReporter) Report(event progress.Event) {
	j.mu.Lock()
	defer j.mu.Unlock()

	normalize(&event)

	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	fmt.Fprintln(j.writer, string(data))
}
