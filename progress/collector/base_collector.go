package collector

import (
	"math/rand"

	"github.com/konveyor/progress-bridge/progress"
)

// collector forwards every event it is given. Use it when the producer
// already controls its own rate.
type collector struct {
	id int
	ch chan progress.Event
}

// New creates a pass-through collector with a 100 event buffer. Events are
// dropped when the buffer is full.
func New() progress.Collector {
	return &collector{
		id: rand.Int(),
		ch: make(chan progress.Event, 100),
	}
}

func (c *collector) ID() int {
	return c.id
}

func (c *collector) CollectChannel() chan progress.Event {
	return c.ch
}

// Report never blocks the caller.
func (c *collector) Report(event progress.Event) {
	defer func() {
		if r := recover(); r != nil {
			// Channel was closed during send, this can happen during shutdown
		}
	}()
	select {
	case c.ch <- event:
	default:
	}
}
