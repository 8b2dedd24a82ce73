package progress

// NoopReporter discards every event. Progress uses it when no reporter is
// configured.
type NoopReporter struct{}

func NewNoopReporter() *NoopReporter {
	return &NoopReporter{}
}

func (n *NoopReporter) Report(event Event) {}
