package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/konveyor/progress-bridge/progress"
	"github.com/konveyor/progress-bridge/progress/reporter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateProgressReporter(t *testing.T) {
	tests := []struct {
		name   string
		output string
		format string
		want   progress.Reporter
	}{
		{name: "disabled", output: "", format: "bar", want: &progress.NoopReporter{}},
		{name: "bar", output: "stderr", format: "bar", want: &reporter.ProgressBarReporter{}},
		{name: "text", output: "stdout", format: "text", want: &reporter.TextReporter{}},
		{name: "json", output: "stderr", format: "json", want: &reporter.JSONReporter{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, closeOutput, err := createProgressReporter(tt.output, tt.format)
			require.NoError(t, err)
			defer closeOutput()
			assert.IsType(t, tt.want, r)
		})
	}
}

func TestCreateProgressReporter_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "progress.ndjson")
	r, closeOutput, err := createProgressReporter(path, "json")
	require.NoError(t, err)

	r.Report(progress.Event{Stage: progress.StageStart, ID: "a", Title: "Indexing"})
	closeOutput()

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), `"title":"Indexing"`)
}

func TestCreateProgressReporter_BadPath(t *testing.T) {
	_, _, err := createProgressReporter(filepath.Join(t.TempDir(), "missing", "out"), "text")
	assert.Error(t, err)
}
