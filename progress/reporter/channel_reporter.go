package reporter

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/go-logr/logr"
	"github.com/konveyor/progress-bridge/progress"
)

// ChannelReporter exposes progress events on a Go channel for programmatic
// consumers such as tests and embedding applications.
//
// Sends never block: when the consumer falls behind, events are dropped and
// counted (see DroppedEvents). The channel is closed when the context passed
// to NewChannelReporter is cancelled.
//
//	reporter := reporter.NewChannelReporter(ctx)
//	go func() {
//	    for event := range reporter.Events() {
//	        fmt.Printf("%s %s %.0f%%\n", event.Stage, event.Title, event.Percent)
//	    }
//	}()
type ChannelReporter struct {
	events        chan progress.Event
	mu            sync.RWMutex
	closed        bool
	droppedEvents atomic.Uint64
	log           logr.Logger
}

// ChannelReporterOption is a function that configures a ChannelReporter.
type ChannelReporterOption func(*ChannelReporter)

// WithLogger logs every dropped event at V(1).
func WithLogger(log logr.Logger) ChannelReporterOption {
	return func(r *ChannelReporter) {
		r.log = log
	}
}

// WithBufferSize overrides the default buffer of 100 events.
func WithBufferSize(n int) ChannelReporterOption {
	return func(r *ChannelReporter) {
		if n > 0 {
			r.events = make(chan progress.Event, n)
		}
	}
}

// NewChannelReporter creates a channel reporter whose channel is closed when
// ctx is cancelled.
func NewChannelReporter(ctx context.Context, opts ...ChannelReporterOption) *ChannelReporter {
	r := &ChannelReporter{
		events: make(chan progress.Event, 100),
		log:    logr.Discard(),
	}
	for _, opt := range opts {
		opt(r)
	}

	go func() {
		<-ctx.Done()
		r.mu.Lock()
		close(r.events)
		r.closed = true
		r.mu.Unlock()
	}()

	return r
}

// Report sends a progress event to the channel without blocking. It is a
// no-op once the reporter is closed.
func (c *ChannelReporter) Report(event progress.Event) {
	normalize(&event)

	// the read lock keeps the closer from closing the channel mid-send
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return
	}

	select {
	case c.events <- event:
	default:
		dropped := c.droppedEvents.Add(1)
		c.log.V(1).Info("progress event dropped due to slow consumer",
			"stage", event.Stage,
			"id", event.ID,
			"total_dropped", dropped,
		)
	}
}

// Events returns the channel consumers range over.
func (c *ChannelReporter) Events() <-chan progress.Event {
	return c.events
}

// DroppedEvents returns the number of events dropped because the buffer was
// full.
func (c *ChannelReporter) DroppedEvents() uint64 {
	return c.droppedEvents.Load()
}
