package collector

import (
	"math/rand"
	"sync"
	"time"

	"github.com/konveyor/progress-bridge/progress"
)

// DefaultThrottleInterval is the minimum spacing of update events for one
// indicator.
const DefaultThrottleInterval = 500 * time.Millisecond

// ThrottledCollector rate limits StageUpdate events per indicator ID.
//
// A language server may report hundreds of times per second while indexing;
// the collector forwards at most one update per interval for each indicator.
// Start, finish and cancel events are always forwarded, as is an update that
// reaches 100%. Throttling state for an indicator is released on its
// terminal event.
//
//	throttled := collector.NewThrottledCollector(collector.DefaultThrottleInterval)
//	prog, _ := progress.New(
//	    progress.WithCollectors(throttled),
//	    progress.WithReporters(reporter.NewTextReporter(os.Stderr)),
//	)
type ThrottledCollector struct {
	throttleInterval time.Duration

	reportMutex sync.Mutex
	// last forwarded update time per indicator ID
	lastReportTime map[string]time.Time

	// finalEvent is the most recent event dropped by throttling, per ID. It
	// is emitted ahead of the terminal event so reporters see the last text.
	finalEvent map[string]progress.Event

	streamChan chan progress.Event
	id         int
}

// NewThrottledCollector creates a throttled collector. A non-positive
// interval selects DefaultThrottleInterval.
func NewThrottledCollector(interval time.Duration) *ThrottledCollector {
	if interval <= 0 {
		interval = DefaultThrottleInterval
	}
	return &ThrottledCollector{
		throttleInterval: interval,
		lastReportTime:   map[string]time.Time{},
		finalEvent:       map[string]progress.Event{},
		id:               rand.Int(),
		streamChan:       make(chan progress.Event, 100),
	}
}

func (t *ThrottledCollector) ID() int {
	return t.id
}

// CollectChannel returns the channel that Progress reads events from.
func (t *ThrottledCollector) CollectChannel() chan progress.Event {
	return t.streamChan
}

// Report forwards the event unless it is an update for an indicator that was
// updated less than the throttle interval ago. It is safe for concurrent use
// and never blocks.
func (t *ThrottledCollector) Report(event progress.Event) {
	defer func() {
		if r := recover(); r != nil {
			// Channel was closed during send, this can happen during shutdown
		}
	}()

	now := time.Now()
	var forward []progress.Event

	t.reportMutex.Lock()
	switch {
	case event.Stage == progress.StageStart:
		t.lastReportTime[event.ID] = now
		delete(t.finalEvent, event.ID)
		forward = append(forward, event)
	case event.Stage.Terminal():
		if dropped, ok := t.finalEvent[event.ID]; ok {
			forward = append(forward, dropped)
		}
		delete(t.lastReportTime, event.ID)
		delete(t.finalEvent, event.ID)
		forward = append(forward, event)
	default:
		last, seen := t.lastReportTime[event.ID]
		complete := !event.Indeterminate && event.Percent >= 100
		if !seen || complete || now.Sub(last) >= t.throttleInterval {
			t.lastReportTime[event.ID] = now
			delete(t.finalEvent, event.ID)
			forward = append(forward, event)
		} else {
			t.finalEvent[event.ID] = event
		}
	}
	t.reportMutex.Unlock()

	for _, e := range forward {
		select {
		case t.streamChan <- e:
		default:
		}
	}
}

// Tracked returns the number of indicators with throttling state.
func (t *ThrottledCollector) Tracked() int {
	t.reportMutex.Lock()
	defer t.reportMutex.Unlock()
	return len(t.lastReportTime)
}
