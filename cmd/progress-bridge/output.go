package main

import (
	"fmt"
	"io"
	"os"

	"github.com/konveyor/progress-bridge/progress"
	"github.com/konveyor/progress-bridge/progress/reporter"
)

// createProgressReporter builds the reporter selected on the command line. The
// returned func closes the output file, if one was opened.
func createProgressReporter(output, format string) (progress.Reporter, func(), error) {
	noClose := func() {}
	if output == "" {
		return progress.NewNoopReporter(), noClose, nil
	}

	var writer io.Writer
	closeOutput := noClose
	switch output {
	case "stderr":
		writer = os.Stderr
	case "stdout":
		writer = os.Stdout
	default:
		file, err := os.Create(output)
		if err != nil {
			return nil, noClose, fmt.Errorf("failed to create progress output file %s: %w", output, err)
		}
		writer = file
		closeOutput = func() { file.Close() }
	}

	switch format {
	case "json":
		return reporter.NewJSONReporter(writer), closeOutput, nil
	case "text":
		return reporter.NewTextReporter(writer), closeOutput, nil
	default:
		return reporter.NewProgressBarReporter(writer), closeOutput, nil
	}
}
